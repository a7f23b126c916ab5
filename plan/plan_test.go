package plan

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func sample() *Element {
	root := NewElement(TagPlan).SetAttr(AttrID, "n1").SetAttr(AttrLineNo, "1").SetAttr(AttrColNo, "0")
	node := NewElement(TagNode).SetAttr(AttrID, "n2")
	node.AddChild(NewText(TagNodeID, "Root"))
	assign := NewElement(TagAssignment)
	assign.AddChild(
		NewText(TagStringVariable, "greeting"),
		NewElement(TagStringRHS).AddChild(NewText(TagStringValue, "  hello, <world> & co  ")),
	)
	return root.AddChild(node.AddChild(assign))
}

func TestElement_Attrs(t *testing.T) {
	el := NewElement("X").SetAttr("b", "1").SetAttr("a", "2").SetAttr("b", "3")
	if len(el.Attrs) != 2 || el.Attrs[0] != (Attr{"b", "3"}) || el.Attrs[1] != (Attr{"a", "2"}) {
		t.Errorf("attrs = %v", el.Attrs)
	}
	if _, ok := el.Attr("c"); ok {
		t.Error("missing attribute reported present")
	}
}

func TestElement_Navigation(t *testing.T) {
	el := sample()
	node := el.Child(TagNode)
	if node == nil || node.Child(TagNodeID).Text != "Root" {
		t.Fatal("Child lookup failed")
	}
	if got := strings.Join(node.Tags(), ","); got != "NodeId,Assignment" {
		t.Errorf("Tags = %s", got)
	}
	if !node.Child(TagNodeID).IsLeaf() || node.IsLeaf() {
		t.Error("IsLeaf wrong")
	}
}

func TestEqual(t *testing.T) {
	a, b := sample(), sample()
	if !Equal(a, b) {
		t.Fatal("identical trees differ")
	}
	b.Children[0].SetAttr(AttrID, "n9")
	if Equal(a, b) {
		t.Error("attribute change not detected")
	}
	if !Equal(nil, nil) || Equal(a, nil) {
		t.Error("nil handling wrong")
	}
}

func TestXML_RoundTrip(t *testing.T) {
	el := sample()
	s, err := String(el)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("missing declaration:\n%s", s)
	}
	if !strings.Contains(s, `<PlexilPlan ID="n1" LineNo="1" ColNo="0">`) {
		t.Errorf("attribute order not preserved:\n%s", s)
	}

	back, err := ParseString(s)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(el, back) {
		t.Errorf("round trip changed the tree:\n%s", s)
	}

	var buf bytes.Buffer
	if err := Write(&buf, el); err != nil {
		t.Fatal(err)
	}
	fromReader, err := Parse(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(el, fromReader) {
		t.Error("Write/Parse round trip changed the tree")
	}
}

func TestXML_TrimsNonStringLeaves(t *testing.T) {
	el, err := ParseString("<Index>\n  <IntegerValue>\n    3\n  </IntegerValue>\n</Index>")
	if err != nil {
		t.Fatal(err)
	}
	if got := el.Children[0].Text; got != "3" {
		t.Errorf("text = %q", got)
	}
}

func TestXML_Errors(t *testing.T) {
	if _, err := ParseString(""); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("empty: %v", err)
	}
	if _, err := ParseString("<a><b></a>"); err == nil {
		t.Error("malformed XML accepted")
	}

	deep := strings.Repeat("<NOT>", DefaultMaxDepth+1) + strings.Repeat("</NOT>", DefaultMaxDepth+1)
	if _, err := ParseString(deep); !errors.Is(err, ErrTooDeep) {
		t.Errorf("deep: %v", err)
	}
}

func TestCBOR_RoundTrip(t *testing.T) {
	el := sample()
	data, err := EncodeCBOR(el)
	if err != nil {
		t.Fatal(err)
	}
	again, err := EncodeCBOR(sample())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("canonical encoding is not deterministic")
	}

	back, err := DecodeCBOR(data)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(el, back) {
		t.Error("CBOR round trip changed the tree")
	}

	if _, err := DecodeCBOR([]byte{0xa0}); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("empty map: %v", err)
	}
	if _, err := DecodeCBOR([]byte{0xff}); err == nil {
		t.Error("garbage accepted")
	}
}

func TestCBOR_RejectsMalformedChildren(t *testing.T) {
	cases := []struct {
		name string
		tree map[string]any
	}{
		{"null child", map[string]any{"t": "NumericRHS", "c": []any{nil}}},
		{"nested null", map[string]any{"t": "PlexilPlan", "c": []any{
			map[string]any{"t": "Node", "c": []any{nil}},
		}}},
		{"untagged child", map[string]any{"t": "NumericRHS", "c": []any{map[string]any{"x": "1"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := cborEncMode.Marshal(tc.tree)
			if err != nil {
				t.Fatal(err)
			}
			el, err := DecodeCBOR(data)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, tree = %+v", err, el)
			}
		})
	}
}

func TestOperatorTag(t *testing.T) {
	tests := []struct {
		symbol, family, want string
	}{
		{"+", "Numeric", "ADD"},
		{"+", "String", "CONCAT"},
		{"==", "Boolean", "EQBoolean"},
		{"!=", "String", "NEString"},
		{"<=", "Numeric", "LE"},
		{"!", "Boolean", "NOT"},
	}
	for _, tc := range tests {
		got, ok := OperatorTag(tc.symbol, tc.family)
		if !ok || got != tc.want {
			t.Errorf("OperatorTag(%q, %q) = %q, %v", tc.symbol, tc.family, got, ok)
		}
		if OperatorTags[got] != tc.symbol {
			t.Errorf("OperatorTags[%q] = %q, want %q", got, OperatorTags[got], tc.symbol)
		}
	}
	if _, ok := OperatorTag("^", "Numeric"); ok {
		t.Error("unknown operator accepted")
	}
}
