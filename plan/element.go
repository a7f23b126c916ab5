// Package plan holds the intermediate plan document exchanged with the
// execution engine: a tree of tagged elements with ordered attributes.
package plan

// Attribute names shared by every element emitted for a tree node.
const (
	AttrID     = "ID"
	AttrLineNo = "LineNo"
	AttrColNo  = "ColNo"
)

// Attr is one attribute. Order is significant.
type Attr struct {
	Name  string `cbor:"n"`
	Value string `cbor:"v"`
}

// Element is one node of an intermediate plan document.
type Element struct {
	Tag      string     `cbor:"t"`
	Attrs    []Attr     `cbor:"a,omitempty"`
	Children []*Element `cbor:"c,omitempty"`
	Text     string     `cbor:"x,omitempty"`
}

// NewElement creates an element with the given tag.
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// NewText creates a childless element holding text.
func NewText(tag, text string) *Element {
	return &Element{Tag: tag, Text: text}
}

// SetAttr sets an attribute, keeping the position of an existing one.
func (e *Element) SetAttr(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AddChild appends children and returns e.
func (e *Element) AddChild(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// IsLeaf reports whether e has no child elements.
func (e *Element) IsLeaf() bool { return len(e.Children) == 0 }

// Child returns the first child with the given tag, or nil.
func (e *Element) Child(tag string) *Element {
	for _, c := range e.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// Tags returns the tags of e's children in order.
func (e *Element) Tags() []string {
	tags := make([]string, len(e.Children))
	for i, c := range e.Children {
		tags[i] = c.Tag
	}
	return tags
}

// Equal reports whether two trees have the same tags, attributes (in order),
// text and children.
func Equal(a, b *Element) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag || a.Text != b.Text || len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Attrs {
		if a.Attrs[i] != b.Attrs[i] {
			return false
		}
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
