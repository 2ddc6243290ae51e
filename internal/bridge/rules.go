package bridge

// NumberSlider is the canonical type name of the single-value slider.
const NumberSlider = "Number Slider"

// DefaultBinaryTypes are the two-input operators whose target port is
// inferred when a connection request names none.
var DefaultBinaryTypes = []string{"Addition", "Subtraction", "Multiplication", "Division", "Math"}

// catalogKeys maps catalog entry keys onto the record keys they populate.
var catalogKeys = []struct{ from, to string }{
	{"settings", "availableSettings"},
	{"inputs", "inputDetails"},
	{"outputs", "outputDetails"},
	{"usage_examples", "usageExamples"},
	{"common_issues", "commonIssues"},
}

// setting is one value of a component's currentSettings block. The first
// field present on the record wins; def is used when none is.
type setting struct {
	key    string
	fields []string
	def    any
}

// typeRule is the per-type enrichment applied on top of the catalog merge.
type typeRule struct {
	// settings describes the currentSettings block read from the record.
	settings []setting
	// extra is added to currentSettings when it is synthesized from the
	// listing record itself rather than from a detail fetch.
	extra []setting
	// refreshInListing issues a detail fetch per record in listings so that
	// currentSettings carries the canvas's values.
	refreshInListing bool
}

var typeRules = map[string]typeRule{
	NumberSlider: {
		settings: []setting{
			{key: "min", fields: []string{"min", "minimum"}, def: 0.0},
			{key: "max", fields: []string{"max", "maximum"}, def: 10.0},
			{key: "value", fields: []string{"value"}, def: 5.0},
			{key: "rounding", fields: []string{"rounding"}, def: 0.1},
		},
		// "type" on the record is the component type, so the slider's
		// numeric type travels as sliderType.
		extra: []setting{
			{key: "type", fields: []string{"sliderType"}, def: "float"},
		},
		refreshInListing: true,
	},
}

// settingsFrom builds a settings block from src.
func settingsFrom(src map[string]any, groups ...[]setting) map[string]any {
	out := make(map[string]any)
	for _, group := range groups {
		for _, s := range group {
			out[s.key] = s.def
			for _, f := range s.fields {
				if v, ok := src[f]; ok && v != nil {
					out[s.key] = v
					break
				}
			}
		}
	}
	return out
}
