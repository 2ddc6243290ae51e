package bridge

import (
	"context"
	"fmt"

	"github.com/hrntsm/grasshopper-mcp/internal/catalog"
	"github.com/hrntsm/grasshopper-mcp/internal/protocol"
)

// Status summarises the canvas for an agent: document info, a compact view
// of every component, the raw connection set and usage hints. When the
// canvas cannot be reached the error shape is returned instead.
func (b *Bridge) Status(ctx context.Context) map[string]any {
	doc := b.GetDocumentInfo(ctx)
	if !doc.Success {
		b.log.Warn("canvas status unavailable", "err", doc.Error)
		return statusFailure(doc)
	}
	document, ok := doc.Result.(map[string]any)
	if !ok {
		document = map[string]any{}
	}

	listing := b.GetAllComponents(ctx)
	records, _ := listing.ResultList()

	connections, ok := b.GetConnections(ctx).ResultList()
	if !ok {
		connections = []any{}
	}

	summaries := make([]any, 0, len(records))
	for _, item := range records {
		if rec, ok := item.(map[string]any); ok {
			summaries = append(summaries, summarize(rec))
		}
	}

	summary := fmt.Sprintf("Current canvas has %d components and %d connections", len(summaries), len(connections))
	return map[string]any{
		"status":          "Connected to Grasshopper",
		"document":        document,
		"components":      summaries,
		"connections":     connections,
		"component_hints": catalog.ComponentHints(),
		"recommendations": catalog.Recommendations(),
		"canvas_summary":  summary,
	}
}

// summarize reduces an enriched record to id, type, position, settings and
// directional connection notes.
func summarize(rec map[string]any) map[string]any {
	id, _ := rec["id"].(string)
	componentType, _ := rec["type"].(string)
	position := map[string]any{"x": valueOr(rec, "x", 0.0), "y": valueOr(rec, "y", 0.0)}
	out := map[string]any{
		"id":       id,
		"type":     componentType,
		"position": position,
	}

	if settings, ok := rec["currentSettings"]; ok {
		out["settings"] = settings
	} else if rule, ok := typeRules[componentType]; ok && rule.settings != nil {
		out["settings"] = settingsFrom(rec, rule.settings)
	}

	conns, _ := rec["connections"].([]any)
	var notes []any
	for _, item := range conns {
		c, ok := item.(map[string]any)
		if !ok {
			continue
		}
		note := map[string]any{
			"sourceParam": valueOr(c, "sourceParam", ""),
			"targetParam": valueOr(c, "targetParam", ""),
		}
		if c["sourceId"] == id {
			note["type"] = "output"
			note["to"] = valueOr(c, "targetId", "")
		} else {
			note["type"] = "input"
			note["from"] = valueOr(c, "sourceId", "")
		}
		notes = append(notes, note)
	}
	if len(notes) > 0 {
		out["connections"] = notes
	}
	return out
}

func valueOr(m map[string]any, key string, def any) any {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func statusFailure(resp *protocol.Response) map[string]any {
	return map[string]any{
		"status":      "Error: " + resp.Error,
		"document":    map[string]any{},
		"components":  []any{},
		"connections": []any{},
	}
}
