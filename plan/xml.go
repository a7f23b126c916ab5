package plan

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// DefaultMaxDepth bounds element nesting accepted by the readers.
const DefaultMaxDepth = 1024

var (
	ErrEmptyDocument = errors.New("plan: document has no root element")
	ErrTooDeep       = errors.New("plan: element nesting too deep")
)

// Parse reads an XML plan document.
func Parse(r io.Reader) (*Element, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("plan: parse: %w", err)
	}
	return fromDocument(doc)
}

// ParseString reads an XML plan document from a string.
func ParseString(s string) (*Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		return nil, fmt.Errorf("plan: parse: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc *etree.Document) (*Element, error) {
	root := doc.Root()
	if root == nil {
		return nil, ErrEmptyDocument
	}
	return fromEtree(root, 1)
}

func fromEtree(src *etree.Element, depth int) (*Element, error) {
	if depth > DefaultMaxDepth {
		return nil, fmt.Errorf("%w: more than %d levels at <%s>", ErrTooDeep, DefaultMaxDepth, src.FullTag())
	}
	el := NewElement(src.FullTag())
	for _, a := range src.Attr {
		el.Attrs = append(el.Attrs, Attr{Name: a.FullKey(), Value: a.Value})
	}
	kids := src.ChildElements()
	if len(kids) == 0 {
		el.Text = src.Text()
		if el.Tag != "StringValue" {
			el.Text = strings.TrimSpace(el.Text)
		}
		return el, nil
	}
	for _, k := range kids {
		c, err := fromEtree(k, depth+1)
		if err != nil {
			return nil, err
		}
		el.Children = append(el.Children, c)
	}
	return el, nil
}

func toEtree(parent *etree.Element, el *Element) {
	dst := parent.CreateElement(el.Tag)
	for _, a := range el.Attrs {
		dst.CreateAttr(a.Name, a.Value)
	}
	if el.Text != "" {
		dst.SetText(el.Text)
	}
	for _, c := range el.Children {
		toEtree(dst, c)
	}
}

func toDocument(el *Element) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	toEtree(&doc.Element, el)
	doc.Indent(2)
	return doc
}

// Write serializes el as an indented XML document.
func Write(w io.Writer, el *Element) error {
	if _, err := toDocument(el).WriteTo(w); err != nil {
		return fmt.Errorf("plan: write: %w", err)
	}
	return nil
}

// String serializes el as an indented XML document.
func String(el *Element) (string, error) {
	s, err := toDocument(el).WriteToString()
	if err != nil {
		return "", fmt.Errorf("plan: write: %w", err)
	}
	return s, nil
}
