package canvassim

import "strings"

// componentType describes a component the simulator can place.
type componentType struct {
	Name        string
	Category    string
	Description string
	Inputs      []string
	Outputs     []string
	Aliases     []string
	// Settings seeds the component's type-specific state.
	Settings func() map[string]any
}

var componentTypes = []componentType{
	{
		Name:        "Number Slider",
		Category:    "Params",
		Description: "Numeric slider for single values",
		Outputs:     []string{"N"},
		Aliases:     []string{"slider", "numberslider", "gh_numberslider"},
		Settings: func() map[string]any {
			return map[string]any{"min": 0.0, "max": 10.0, "value": 5.0, "rounding": 0.1}
		},
	},
	{
		Name:        "Panel",
		Category:    "Params",
		Description: "Displays text or numeric data",
		Inputs:      []string{"Input"},
		Outputs:     []string{"Output"},
		Aliases:     []string{"panel", "gh_panel"},
		Settings: func() map[string]any {
			return map[string]any{"text": ""}
		},
	},
	{
		Name:        "Point",
		Category:    "Params",
		Description: "Contains a collection of three-dimensional points",
		Inputs:      []string{"Point"},
		Outputs:     []string{"Point"},
		Aliases:     []string{"point", "pt", "pointparam", "param_point"},
	},
	{
		Name:        "Curve",
		Category:    "Params",
		Description: "Contains a collection of generic curves",
		Inputs:      []string{"Curve"},
		Outputs:     []string{"Curve"},
		Aliases:     []string{"curve", "crv", "curveparam", "param_curve"},
	},
	{
		Name:        "Number",
		Category:    "Params",
		Description: "Contains a collection of floating point numbers",
		Inputs:      []string{"Number"},
		Outputs:     []string{"Number"},
		Aliases:     []string{"number", "num", "integer", "int", "param_number", "param_integer"},
	},
	{
		Name:        "Addition",
		Category:    "Maths",
		Description: "Mathematical addition",
		Inputs:      []string{"A", "B"},
		Outputs:     []string{"Result"},
		Aliases:     []string{"add", "plus"},
	},
	{
		Name:        "Subtraction",
		Category:    "Maths",
		Description: "Mathematical subtraction",
		Inputs:      []string{"A", "B"},
		Outputs:     []string{"Result"},
		Aliases:     []string{"subtract", "minus"},
	},
	{
		Name:        "Multiplication",
		Category:    "Maths",
		Description: "Mathematical multiplication",
		Inputs:      []string{"A", "B"},
		Outputs:     []string{"Result"},
		Aliases:     []string{"multiply", "times"},
	},
	{
		Name:        "Division",
		Category:    "Maths",
		Description: "Mathematical division",
		Inputs:      []string{"A", "B"},
		Outputs:     []string{"Result"},
		Aliases:     []string{"divide"},
	},
	{
		Name:        "XY Plane",
		Category:    "Vector",
		Description: "World XY plane",
		Inputs:      []string{"Origin"},
		Outputs:     []string{"Plane"},
		Aliases:     []string{"xy plane", "xyplane"},
	},
	{
		Name:        "Construct Point",
		Category:    "Vector",
		Description: "Construct a point from X, Y and Z coordinates",
		Inputs:      []string{"X coordinate", "Y coordinate", "Z coordinate"},
		Outputs:     []string{"Point"},
		Aliases:     []string{"constructpoint", "pt xyz", "xyz"},
	},
	{
		Name:        "Circle",
		Category:    "Curve",
		Description: "Create a circle defined by base plane and radius",
		Inputs:      []string{"Plane", "Radius"},
		Outputs:     []string{"Circle"},
		Aliases:     []string{"circle"},
	},
	{
		Name:        "Line",
		Category:    "Curve",
		Description: "Create a line between two points",
		Inputs:      []string{"Start Point", "End Point"},
		Outputs:     []string{"Line"},
		Aliases:     []string{"line"},
	},
	{
		Name:        "Box",
		Category:    "Surface",
		Description: "Create a box aligned to a plane",
		Inputs:      []string{"Base", "X", "Y", "Z"},
		Outputs:     []string{"Box"},
		Aliases:     []string{"box"},
	},
	{
		Name:        "Sphere",
		Category:    "Surface",
		Description: "Create a spherical surface",
		Inputs:      []string{"Base", "Radius"},
		Outputs:     []string{"Sphere"},
		Aliases:     []string{"sphere"},
	},
}

// lookupType resolves a name or alias, ignoring case.
func lookupType(name string) (*componentType, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i := range componentTypes {
		t := &componentTypes[i]
		if strings.ToLower(t.Name) == key {
			return t, true
		}
		for _, a := range t.Aliases {
			if a == key {
				return t, true
			}
		}
	}
	return nil, false
}

// matches reports whether query occurs in the type's name, category,
// description or aliases.
func (t *componentType) matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Category), q) ||
		strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, a := range t.Aliases {
		if strings.Contains(a, q) {
			return true
		}
	}
	return false
}

func paramList(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = map[string]any{"name": n, "nickname": n, "index": i}
	}
	return out
}

// pattern is a canned group of components with the wiring between them.
type pattern struct {
	Name        string
	Description string
	Keywords    []string
	Components  []patternComponent
	Connections []patternConnection
}

type patternComponent struct {
	Type string
	X, Y float64
}

// patternConnection wires output FromParam of component From to input
// ToParam of component To, both indexes into Components.
type patternConnection struct {
	From      int
	FromParam string
	To        int
	ToParam   string
}

var patterns = []pattern{
	{
		Name:        "Add Two Numbers",
		Description: "Two number sliders summed by Addition and shown in a Panel",
		Keywords:    []string{"add", "sum", "addition"},
		Components: []patternComponent{
			{Type: "Number Slider", X: 0, Y: 0},
			{Type: "Number Slider", X: 0, Y: 60},
			{Type: "Addition", X: 220, Y: 30},
			{Type: "Panel", X: 400, Y: 30},
		},
		Connections: []patternConnection{
			{From: 0, FromParam: "N", To: 2, ToParam: "A"},
			{From: 1, FromParam: "N", To: 2, ToParam: "B"},
			{From: 2, FromParam: "Result", To: 3, ToParam: "Input"},
		},
	},
	{
		Name:        "Circle",
		Description: "A circle on the XY plane with a slider-driven radius",
		Keywords:    []string{"circle", "ring"},
		Components: []patternComponent{
			{Type: "XY Plane", X: 0, Y: 0},
			{Type: "Number Slider", X: 0, Y: 60},
			{Type: "Circle", X: 220, Y: 30},
		},
		Connections: []patternConnection{
			{From: 0, FromParam: "Plane", To: 2, ToParam: "Plane"},
			{From: 1, FromParam: "N", To: 2, ToParam: "Radius"},
		},
	},
	{
		Name:        "Point From Coordinates",
		Description: "Three sliders feeding Construct Point",
		Keywords:    []string{"point", "coordinate", "xyz"},
		Components: []patternComponent{
			{Type: "Number Slider", X: 0, Y: 0},
			{Type: "Number Slider", X: 0, Y: 60},
			{Type: "Number Slider", X: 0, Y: 120},
			{Type: "Construct Point", X: 220, Y: 60},
		},
		Connections: []patternConnection{
			{From: 0, FromParam: "N", To: 3, ToParam: "X coordinate"},
			{From: 1, FromParam: "N", To: 3, ToParam: "Y coordinate"},
			{From: 2, FromParam: "N", To: 3, ToParam: "Z coordinate"},
		},
	},
	{
		Name:        "Sphere",
		Description: "A sphere on the XY plane with a slider-driven radius",
		Keywords:    []string{"sphere", "ball"},
		Components: []patternComponent{
			{Type: "XY Plane", X: 0, Y: 0},
			{Type: "Number Slider", X: 0, Y: 60},
			{Type: "Sphere", X: 220, Y: 30},
		},
		Connections: []patternConnection{
			{From: 0, FromParam: "Plane", To: 2, ToParam: "Base"},
			{From: 1, FromParam: "N", To: 2, ToParam: "Radius"},
		},
	},
}

// findPattern returns the first pattern with a keyword in description.
func findPattern(description string) (*pattern, bool) {
	d := strings.ToLower(description)
	for i := range patterns {
		for _, k := range patterns[i].Keywords {
			if strings.Contains(d, k) {
				return &patterns[i], true
			}
		}
	}
	return nil, false
}
