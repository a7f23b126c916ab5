package compiler

import "fmt"

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for PLEXIL plans
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Line   int // 1-based line number
	Column int // 0-based column, as reported by the parser
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Kind is the closed set of tree node variants.
type Kind int

const (
	KindInvalid Kind = iota

	// Structure
	KindPlan
	KindAction
	KindBlock
	KindVariableDeclaration
	KindTypeName
	KindParameters

	// Control constructs
	KindDo
	KindWhile

	// Action constructs
	KindOnCommand
	KindAssignment

	// Expressions
	KindVariable
	KindBooleanLiteral
	KindIntegerLiteral
	KindRealLiteral
	KindStringLiteral
	KindOperator
	KindLookup
	KindArrayReference
	KindFunctionCall

	kindCount
)

var kindNames = [...]string{
	KindInvalid:             "Invalid",
	KindPlan:                "Plan",
	KindAction:              "Action",
	KindBlock:               "Block",
	KindVariableDeclaration: "VariableDeclaration",
	KindTypeName:            "TypeName",
	KindParameters:          "Parameters",
	KindDo:                  "Do",
	KindWhile:               "While",
	KindOnCommand:           "OnCommand",
	KindAssignment:          "Assignment",
	KindVariable:            "Variable",
	KindBooleanLiteral:      "BooleanLiteral",
	KindIntegerLiteral:      "IntegerLiteral",
	KindRealLiteral:         "RealLiteral",
	KindStringLiteral:       "StringLiteral",
	KindOperator:            "Operator",
	KindLookup:              "Lookup",
	KindArrayReference:      "ArrayReference",
	KindFunctionCall:        "FunctionCall",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for k := KindPlan; k < kindCount; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return KindInvalid, false
}

// IsExpression reports whether nodes of this kind produce a value.
func (k Kind) IsExpression() bool {
	return k >= KindVariable && k < kindCount
}

// IsLiteral reports whether k is one of the literal kinds.
func (k Kind) IsLiteral() bool {
	switch k {
	case KindBooleanLiteral, KindIntegerLiteral, KindRealLiteral, KindStringLiteral:
		return true
	}
	return false
}

// Node is one node of the parsed plan. Children are owned by their parent;
// the parent link is a back-reference used for context lookup and
// diagnostic attribution only.
type Node struct {
	Kind Kind
	Text string // token text: names, literal values, operator symbols
	Pos  Position

	children []*Node
	parent   *Node

	// Annotations written by the checker.
	scope     *Scope   // scope this node was checked in
	ownScope  *Scope   // scope this node introduced, if any
	typ       DataType // resolved or declared type
	used      bool     // declarations: referenced during phase 2
	abandoned bool
	params    *Node // OnCommand: detected Parameters child
	action    *Node // OnCommand: detected action child
}

// NewNode creates a node and attaches the given children.
func NewNode(kind Kind, text string, pos Position, children ...*Node) *Node {
	n := &Node{Kind: kind, Text: text, Pos: pos}
	n.Append(children...)
	return n
}

// Append attaches children in order. A node can have only one parent;
// attaching it to a second one is a construction bug.
func (n *Node) Append(children ...*Node) {
	for _, c := range children {
		if c == nil {
			panic("compiler: nil child appended to " + n.Kind.String())
		}
		if c.parent != nil && c.parent != n {
			panic(fmt.Sprintf("compiler: %s at %s already belongs to %s", c.Kind, c.Pos, c.parent.Kind))
		}
		c.parent = n
		n.children = append(n.children, c)
	}
}

// Parent returns the node that structurally contains n, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Child returns the i-th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// Children returns the children slice. Callers must not modify it.
func (n *Node) Children() []*Node { return n.children }

// Scope returns the scope n was checked in (nil before checking).
func (n *Node) Scope() *Scope { return n.scope }

// OwnScope returns the scope introduced by n, if any.
func (n *Node) OwnScope() *Scope { return n.ownScope }

// Type returns the resolved data type of an expression node.
func (n *Node) Type() DataType { return n.typ }

// Abandoned reports whether checking gave up on this subtree.
func (n *Node) Abandoned() bool { return n.abandoned }

// NodeID returns the id of the Action that owns n, or "" if none.
func (n *Node) NodeID() string {
	if n.parent != nil && n.parent.Kind == KindAction {
		return n.parent.Text
	}
	return ""
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children {
		Walk(c, fn)
	}
}
