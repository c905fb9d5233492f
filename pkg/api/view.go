package api

import (
	"strconv"

	"tpcollect/pkg/history"
	"tpcollect/pkg/schema"
)

type tabLink struct {
	Key    string
	Label  string
	Active bool
}

type schemaLink struct {
	Key      string
	Label    string
	Selected bool
}

type input struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Options  []string
	Value    string
	Checked  bool
	Step     string
	Min, Max string
}

type formView struct {
	Key     string
	Title   string
	Action  string
	Inputs  []input
	Warning string
}

type page struct {
	Title    string
	Tab      tabLink
	Tabs     []tabLink
	Schemas  []schemaLink
	Form     formView
	History  history.View
	ExportTo string
	ViewTo   string
	Toast    string
	Notice   string
	Problems []string
	Error    string
}

func inputType(k schema.Kind) string {
	switch k {
	case schema.KindDate:
		return "date"
	case schema.KindTime:
		return "time"
	case schema.KindSelect, schema.KindLookup:
		return "select"
	case schema.KindInteger, schema.KindDecimal:
		return "number"
	case schema.KindCheckbox:
		return "checkbox"
	case schema.KindDerived:
		return "derived"
	default:
		return "textarea"
	}
}

func bound(x *float64) string {
	if x == nil {
		return ""
	}
	return strconv.FormatFloat(*x, 'f', -1, 64)
}

// inputs lays out the schema fields with the session values. Lookup options
// come from lookups, keyed by field name.
func inputs(s schema.Schema, values map[string]string, lookups map[string][]string) []input {
	out := make([]input, 0, len(s.Fields))
	for _, f := range s.Fields {
		in := input{
			Name:     f.Name,
			Label:    f.Label,
			Type:     inputType(f.Kind),
			Required: f.Required,
			Options:  f.Options,
			Value:    values[f.Name],
			Step:     f.Step,
			Min:      bound(f.Min),
			Max:      bound(f.Max),
		}
		switch f.Kind {
		case schema.KindLookup:
			in.Options = lookups[f.Name]
		case schema.KindCheckbox:
			in.Checked = values[f.Name] != ""
		case schema.KindDecimal:
			if in.Step == "" {
				in.Step = "any"
			}
		}
		out = append(out, in)
	}
	return out
}
