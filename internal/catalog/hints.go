package catalog

// ComponentHints returns guidance for the component types agents most often
// confuse. A fresh map is returned on each call.
func ComponentHints() map[string]any {
	return map[string]any{
		"Number Slider": map[string]any{
			"description":             "Single numeric value slider with adjustable range",
			"common_usage":            "Use for single numeric inputs like radius, height, count, etc.",
			"parameters":              []any{"min", "max", "value", "rounding", "type"},
			"NOT_TO_BE_CONFUSED_WITH": "MD Slider (which is for multi-dimensional values)",
		},
		"MD Slider": map[string]any{
			"description":             "Multi-dimensional slider for vector input",
			"common_usage":            "Use for vector inputs, NOT for simple numeric values",
			"NOT_TO_BE_CONFUSED_WITH": "Number Slider (which is for single numeric values)",
		},
		"Panel": map[string]any{
			"description":  "Displays text or numeric data",
			"common_usage": "Use for displaying outputs and debugging",
		},
		"Addition": map[string]any{
			"description":    "Adds two or more numbers",
			"common_usage":   "Connect two Number Sliders to inputs A and B",
			"parameters":     []any{"A", "B"},
			"connection_tip": "First slider should connect to input A, second to input B",
		},
	}
}

// Recommendations returns the general usage advice shown with the canvas
// status.
func Recommendations() []string {
	return []string{
		"When needing a simple numeric input control, ALWAYS use 'Number Slider', not MD Slider",
		"For vector inputs (like 3D points), use 'MD Slider' or 'Construct Point' with multiple Number Sliders",
		"Use 'Panel' to display outputs and debug values",
		"When connecting multiple sliders to Addition, first slider goes to input A, second to input B",
	}
}
