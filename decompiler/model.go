// Package decompiler reconstructs source text from intermediate plan
// elements by recognizing the shapes the emitter produces.
package decompiler

import (
	"strconv"

	"github.com/chazu/plexc/plan"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("plexc.decompiler")

// Kind classifies a model by the tag of the element it wraps.
type Kind int

const (
	KindUnknown Kind = iota
	KindPlan
	KindNode
	KindBlock
	KindDeclarations
	KindDeclaration
	KindParameters
	KindDo
	KindWhile
	KindAction // wrapper holding a loop body
	KindOnCommand
	KindAssignment
	KindSlot // expression holder: RHS wrappers, Condition, InitialValue, Index, Name
	KindOperator
	KindLookup
	KindArguments
	KindArrayElement
	KindFunctionCall
	KindVariable
	KindLiteral
	KindText // plain text leaf: NodeId, Type, MaxSize
	KindTooDeep
)

var kindNames = map[Kind]string{
	KindUnknown:      "Unknown",
	KindPlan:         "Plan",
	KindNode:         "Node",
	KindBlock:        "Block",
	KindDeclarations: "Declarations",
	KindDeclaration:  "Declaration",
	KindParameters:   "Parameters",
	KindDo:           "Do",
	KindWhile:        "While",
	KindAction:       "Action",
	KindOnCommand:    "OnCommand",
	KindAssignment:   "Assignment",
	KindSlot:         "Slot",
	KindOperator:     "Operator",
	KindLookup:       "Lookup",
	KindArguments:    "Arguments",
	KindArrayElement: "ArrayElement",
	KindFunctionCall: "FunctionCall",
	KindVariable:     "Variable",
	KindLiteral:      "Literal",
	KindText:         "Text",
	KindTooDeep:      "TooDeep",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// IsExpression reports whether models of this kind render as an expression.
func (k Kind) IsExpression() bool {
	switch k {
	case KindOperator, KindLookup, KindArrayElement, KindFunctionCall, KindVariable, KindLiteral:
		return true
	}
	return false
}

var tagKinds = map[string]Kind{
	plan.TagPlan:                 KindPlan,
	plan.TagNode:                 KindNode,
	plan.TagSequence:             KindBlock,
	plan.TagConcurrence:          KindBlock,
	plan.TagVariableDeclarations: KindDeclarations,
	plan.TagDeclareVariable:      KindDeclaration,
	plan.TagDeclareArray:         KindDeclaration,
	plan.TagParameters:           KindParameters,
	plan.TagDo:                   KindDo,
	plan.TagWhile:                KindWhile,
	plan.TagAction:               KindAction,
	plan.TagOnCommand:            KindOnCommand,
	plan.TagAssignment:           KindAssignment,
	plan.TagLookupNow:            KindLookup,
	plan.TagArguments:            KindArguments,
	plan.TagArrayElement:         KindArrayElement,
	plan.TagFunctionCall:         KindFunctionCall,
	plan.TagNodeID:               KindText,
	plan.TagType:                 KindText,
	plan.TagMaxSize:              KindText,
	plan.TagBooleanRHS:           KindSlot,
	plan.TagNumericRHS:           KindSlot,
	plan.TagStringRHS:            KindSlot,
	plan.TagArrayRHS:             KindSlot,
	plan.TagCondition:            KindSlot,
	plan.TagInitialValue:         KindSlot,
	plan.TagIndex:                KindSlot,
	plan.TagName:                 KindSlot,
}

// KindOf returns the model kind for an element tag.
func KindOf(tag string) Kind {
	if k, ok := tagKinds[tag]; ok {
		return k
	}
	switch {
	case plan.IsValueTag(tag):
		return KindLiteral
	case plan.IsVariableTag(tag):
		return KindVariable
	}
	if _, ok := plan.OperatorTags[tag]; ok {
		return KindOperator
	}
	return KindUnknown
}

// Quality is a literal key/value taken from element content.
type Quality struct {
	Key   string
	Value string
}

// Options configures decompilation.
type Options struct {
	// Indent is one indentation unit. Empty means two spaces.
	Indent string
	// MaxDepth bounds element nesting. Zero means plan.DefaultMaxDepth.
	MaxDepth int
}

func (o Options) withDefaults() Options {
	if o.Indent == "" {
		o.Indent = "  "
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = plan.DefaultMaxDepth
	}
	return o
}

// Model wraps one element. Child models are built on first use and cached;
// the wrapped element is never modified.
type Model struct {
	el        *plan.Element
	kind      Kind
	opts      Options
	depth     int
	qualities []Quality

	children []*Model
	loaded   bool
}

// New wraps el.
func New(el *plan.Element, opts Options) *Model {
	return newModel(el, opts.withDefaults(), 1)
}

func newModel(el *plan.Element, opts Options, depth int) *Model {
	m := &Model{el: el, kind: KindOf(el.Tag), opts: opts, depth: depth}
	if depth > opts.MaxDepth {
		m.kind = KindTooDeep
		return m
	}
	if q, ok := quality(el); ok {
		m.qualities = append(m.qualities, q)
	}
	for _, c := range el.Children {
		if q, ok := quality(c); ok {
			m.qualities = append(m.qualities, q)
		}
	}
	return m
}

// quality extracts the literal content of a childless element.
func quality(el *plan.Element) (Quality, bool) {
	if !el.IsLeaf() {
		return Quality{}, false
	}
	if el.Tag == plan.TagStringValue {
		return Quality{Key: el.Tag, Value: strconv.Quote(el.Text)}, true
	}
	if el.Text == "" {
		return Quality{}, false
	}
	return Quality{Key: el.Tag, Value: el.Text}, true
}

// Kind returns the model's kind.
func (m *Model) Kind() Kind { return m.kind }

// Element returns the wrapped element.
func (m *Model) Element() *plan.Element { return m.el }

// Qualities returns the literal qualities in document order, the element's
// own text first.
func (m *Model) Qualities() []Quality { return m.qualities }

// Children returns the child models, building them on first call.
func (m *Model) Children() []*Model {
	if !m.loaded {
		m.loaded = true
		if m.kind != KindTooDeep {
			for _, c := range m.el.Children {
				m.children = append(m.children, newModel(c, m.opts, m.depth+1))
			}
		}
	}
	return m.children
}

// hasChild reports whether any child model has kind k.
func (m *Model) hasChild(k Kind) bool {
	return m.getChild(k) != nil
}

// getChild returns the first child model of kind k, or nil.
func (m *Model) getChild(k Kind) *Model {
	for _, c := range m.Children() {
		if c.kind == k {
			return c
		}
	}
	return nil
}

// child returns the i-th child model, or nil.
func (m *Model) child(i int) *Model {
	kids := m.Children()
	if i < 0 || i >= len(kids) {
		return nil
	}
	return kids[i]
}

// text returns the element's own literal value.
func (m *Model) text() (string, bool) {
	q, ok := quality(m.el)
	return q.Value, ok
}

func (m *Model) fail(reason string) error {
	err := &PatternError{Tag: m.el.Tag, Reason: reason, Element: m.el}
	if v, ok := m.el.Attr(plan.AttrLineNo); ok {
		err.Line, _ = strconv.Atoi(v)
	}
	if v, ok := m.el.Attr(plan.AttrColNo); ok {
		err.Column, _ = strconv.Atoi(v)
	}
	log.Debugf("%s", err)
	return err
}
