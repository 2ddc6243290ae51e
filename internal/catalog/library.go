package catalog

// Library is the capability catalog: per-type settings, inputs, outputs and
// usage notes. Entries live either in a top-level "components" array or in
// "categories[].components".
type Library struct {
	doc map[string]any
}

// Document returns the raw library document.
func (l *Library) Document() map[string]any { return l.doc }

// Components returns every entry in document order, top-level entries first.
func (l *Library) Components() []map[string]any {
	var out []map[string]any
	out = appendEntries(out, l.doc["components"])
	if cats, ok := l.doc["categories"].([]any); ok {
		for _, c := range cats {
			if cat, ok := c.(map[string]any); ok {
				out = appendEntries(out, cat["components"])
			}
		}
	}
	return out
}

// Lookup finds the entry whose name or fullName equals componentType exactly.
func (l *Library) Lookup(componentType string) (map[string]any, bool) {
	if componentType == "" {
		return nil, false
	}
	for _, entry := range l.Components() {
		if entry["name"] == componentType || entry["fullName"] == componentType {
			return entry, true
		}
	}
	return nil, false
}

func appendEntries(out []map[string]any, v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range list {
		if entry, ok := item.(map[string]any); ok {
			out = append(out, entry)
		}
	}
	return out
}
