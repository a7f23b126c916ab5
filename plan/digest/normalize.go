package digest

import (
	"strconv"

	"github.com/chazu/plexc/plan"
)

// ---------------------------------------------------------------------------
// Normalization: emitted plan → position-independent plan
//
// Drops the per-element id and source position attributes and rewrites
// numeric and Boolean literals to a canonical spelling, so two plans that
// differ only in layout or id assignment normalize to the same tree.
// ---------------------------------------------------------------------------

var positional = map[string]bool{
	plan.AttrID:     true,
	plan.AttrLineNo: true,
	plan.AttrColNo:  true,
}

// Normalize returns a normalized copy of el. el is not modified.
func Normalize(el *plan.Element) *plan.Element {
	out := plan.NewElement(el.Tag)
	for _, a := range el.Attrs {
		if !positional[a.Name] {
			out.Attrs = append(out.Attrs, a)
		}
	}
	out.Text = canonicalText(el.Tag, el.Text)
	for _, c := range el.Children {
		out.AddChild(Normalize(c))
	}
	return out
}

func canonicalText(tag, text string) string {
	switch tag {
	case plan.TagIntegerValue:
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return strconv.FormatInt(v, 10)
		}
	case plan.TagRealValue:
		if v, err := strconv.ParseFloat(text, 64); err == nil {
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
	case plan.TagBooleanValue:
		if v, err := strconv.ParseBool(text); err == nil {
			return strconv.FormatBool(v)
		}
	}
	return text
}
