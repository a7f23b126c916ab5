package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chazu/plexc/plan"
)

// ---------------------------------------------------------------------------
// Emitter: checked tree → intermediate plan elements
// ---------------------------------------------------------------------------

var (
	// ErrComputedName is returned for OnCommand names that are not literals.
	ErrComputedName = errors.New("compiler: computed command names are not supported")
	// ErrUnchecked is returned when emitting a node the checker did not accept.
	ErrUnchecked = errors.New("compiler: node has not been checked")
	// ErrTooDeep is returned when the tree nests beyond the configured depth.
	ErrTooDeep = errors.New("compiler: plan nesting too deep")
)

// Emitter converts checked nodes into plan elements. Every element emitted
// for a node starts with the common ID, LineNo and ColNo attributes.
type Emitter struct {
	ids      IDSource
	maxDepth int
}

// NewEmitter creates an emitter.
func NewEmitter(opts Options) *Emitter {
	ids := opts.IDs
	if ids == nil {
		ids = &SequentialIDs{}
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Emitter{ids: ids, maxDepth: maxDepth}
}

// Emit converts the subtree rooted at n.
func (e *Emitter) Emit(n *Node) (*plan.Element, error) {
	return e.emit(n, 0)
}

func (e *Emitter) base(n *Node, tag string) *plan.Element {
	el := plan.NewElement(tag)
	el.SetAttr(plan.AttrID, e.ids.Next())
	el.SetAttr(plan.AttrLineNo, strconv.Itoa(n.Pos.Line))
	el.SetAttr(plan.AttrColNo, strconv.Itoa(n.Pos.Column))
	return el
}

func (e *Emitter) emitAll(nodes []*Node, depth int) ([]*plan.Element, error) {
	out := make([]*plan.Element, 0, len(nodes))
	for _, n := range nodes {
		el, err := e.emit(n, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

// wrap emits n and places it inside a fresh element with the given tag.
func (e *Emitter) wrap(tag string, n *Node, depth int) (*plan.Element, error) {
	inner, err := e.emit(n, depth+1)
	if err != nil {
		return nil, err
	}
	return plan.NewElement(tag).AddChild(inner), nil
}

func (e *Emitter) emit(n *Node, depth int) (*plan.Element, error) {
	if depth > e.maxDepth {
		return nil, fmt.Errorf("%w: %s at %s", ErrTooDeep, n.Kind, n.Pos)
	}
	if n.scope == nil || n.abandoned {
		return nil, fmt.Errorf("%w: %s at %s", ErrUnchecked, n.Kind, n.Pos)
	}

	switch n.Kind {
	case KindPlan:
		return e.emitDeclarationsThen(e.base(n, plan.TagPlan), n.children, depth)

	case KindAction:
		el := e.base(n, plan.TagNode)
		el.AddChild(plan.NewText(plan.TagNodeID, nodeID(n)))
		body, err := e.emit(n.Child(0), depth+1)
		if err != nil {
			return nil, err
		}
		return el.AddChild(body), nil

	case KindBlock:
		tag := plan.TagConcurrence
		if n.Text == "Sequence" {
			tag = plan.TagSequence
		}
		return e.emitDeclarationsThen(e.base(n, tag), n.children, depth)

	case KindVariableDeclaration:
		return e.emitDeclaration(n, depth)

	case KindParameters:
		kids, err := e.emitAll(n.children, depth+1)
		if err != nil {
			return nil, err
		}
		return e.base(n, plan.TagParameters).AddChild(kids...), nil

	case KindDo:
		return e.emitLoop(e.base(n, plan.TagDo), n.Child(0), n.Child(1), true, depth)

	case KindWhile:
		return e.emitLoop(e.base(n, plan.TagWhile), n.Child(1), n.Child(0), false, depth)

	case KindOnCommand:
		return e.emitOnCommand(n, depth)

	case KindAssignment:
		el := e.base(n, plan.TagAssignment)
		target, err := e.emit(n.Child(0), depth+1)
		if err != nil {
			return nil, err
		}
		rhs, err := e.wrap(rhsTag(n.Child(0).typ), n.Child(1), depth+1)
		if err != nil {
			return nil, err
		}
		return el.AddChild(target, rhs), nil

	case KindBooleanLiteral:
		return e.leaf(n, plan.TagBooleanValue, n.Text), nil
	case KindIntegerLiteral:
		return e.leaf(n, plan.TagIntegerValue, n.Text), nil
	case KindRealLiteral:
		return e.leaf(n, plan.TagRealValue, n.Text), nil
	case KindStringLiteral:
		return e.leaf(n, plan.TagStringValue, n.Text), nil
	case KindVariable:
		return e.leaf(n, variableTag(n.typ), n.Text), nil

	case KindOperator:
		family := EqualityFamily(n)
		if n.Text == "+" && n.typ == TypeString {
			family = "String"
		}
		tag, ok := plan.OperatorTag(n.Text, family)
		if !ok {
			return nil, fmt.Errorf("%w: unknown operator %q at %s", ErrUnchecked, n.Text, n.Pos)
		}
		operands, err := e.emitAll(n.children, depth+1)
		if err != nil {
			return nil, err
		}
		return e.base(n, tag).AddChild(operands...), nil

	case KindLookup:
		el := e.base(n, plan.TagLookupNow)
		name, err := e.wrap(plan.TagName, n.Child(0), depth+1)
		if err != nil {
			return nil, err
		}
		el.AddChild(name)
		if len(n.children) > 1 {
			args, err := e.emitAll(n.children[1:], depth+2)
			if err != nil {
				return nil, err
			}
			el.AddChild(plan.NewElement(plan.TagArguments).AddChild(args...))
		}
		return el, nil

	case KindArrayReference:
		el := e.base(n, plan.TagArrayElement)
		el.AddChild(plan.NewText(plan.TagName, n.Child(0).Text))
		index, err := e.wrap(plan.TagIndex, n.Child(1), depth+1)
		if err != nil {
			return nil, err
		}
		return el.AddChild(index), nil

	case KindFunctionCall:
		el := e.base(n, plan.TagFunctionCall)
		el.AddChild(plan.NewText(plan.TagName, n.Text))
		args, err := e.emitAll(n.children, depth+1)
		if err != nil {
			return nil, err
		}
		return el.AddChild(args...), nil

	case KindTypeName:
		return e.leaf(n, plan.TagType, n.Text), nil
	}
	return nil, fmt.Errorf("%w: cannot emit %s at %s", ErrUnchecked, n.Kind, n.Pos)
}

func (e *Emitter) leaf(n *Node, tag, text string) *plan.Element {
	el := e.base(n, tag)
	el.Text = text
	return el
}

// emitDeclarationsThen gathers leading declarations into a
// VariableDeclarations element, followed by the remaining children.
func (e *Emitter) emitDeclarationsThen(el *plan.Element, children []*Node, depth int) (*plan.Element, error) {
	var decls, rest []*Node
	for _, c := range children {
		if c.Kind == KindVariableDeclaration {
			decls = append(decls, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(decls) > 0 {
		kids, err := e.emitAll(decls, depth+2)
		if err != nil {
			return nil, err
		}
		el.AddChild(plan.NewElement(plan.TagVariableDeclarations).AddChild(kids...))
	}
	kids, err := e.emitAll(rest, depth+1)
	if err != nil {
		return nil, err
	}
	return el.AddChild(kids...), nil
}

func (e *Emitter) emitDeclaration(n *Node, depth int) (*plan.Element, error) {
	typeNode := n.Child(0)
	_, size, err := ParseTypeName(typeNode.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnchecked, err)
	}
	tag := plan.TagDeclareVariable
	if size > 0 {
		tag = plan.TagDeclareArray
	}
	el := e.base(n, tag)
	el.AddChild(plan.NewText(plan.TagName, n.Text))
	el.AddChild(e.leaf(typeNode, plan.TagType, n.typ.BaseName()))
	if size > 0 {
		el.AddChild(plan.NewText(plan.TagMaxSize, strconv.Itoa(size)))
	}
	if init := n.Child(1); init != nil {
		iv, err := e.wrap(plan.TagInitialValue, init, depth+1)
		if err != nil {
			return nil, err
		}
		el.AddChild(iv)
	}
	return el, nil
}

// emitLoop writes the Action and Condition wrappers of a loop. The
// Condition carries the test expression's own position. Do puts the Action
// first, While the Condition.
func (e *Emitter) emitLoop(el *plan.Element, body, test *Node, actionFirst bool, depth int) (*plan.Element, error) {
	action, err := e.wrap(plan.TagAction, body, depth+1)
	if err != nil {
		return nil, err
	}
	cond, err := e.wrap(plan.TagCondition, test, depth+1)
	if err != nil {
		return nil, err
	}
	cond.SetAttr(plan.AttrLineNo, strconv.Itoa(test.Pos.Line))
	cond.SetAttr(plan.AttrColNo, strconv.Itoa(test.Pos.Column))
	if actionFirst {
		return el.AddChild(action, cond), nil
	}
	return el.AddChild(cond, action), nil
}

// emitOnCommand writes Parameters (if present), Name, then the action. The
// shape was detected during checking.
func (e *Emitter) emitOnCommand(n *Node, depth int) (*plan.Element, error) {
	nameExpr := n.Child(0)
	if nameExpr.Kind != KindStringLiteral {
		return nil, fmt.Errorf("%w: %s at %s", ErrComputedName, nameExpr.Kind, nameExpr.Pos)
	}
	if n.action == nil {
		return nil, fmt.Errorf("%w: OnCommand at %s", ErrUnchecked, n.Pos)
	}
	el := e.base(n, plan.TagOnCommand)
	name, err := e.wrap(plan.TagName, nameExpr, depth+1)
	if err != nil {
		return nil, err
	}
	action, err := e.emit(n.action, depth+1)
	if err != nil {
		return nil, err
	}
	if n.params != nil {
		params, err := e.emit(n.params, depth+1)
		if err != nil {
			return nil, err
		}
		return el.AddChild(params, name, action), nil
	}
	return el.AddChild(name, action), nil
}

func variableTag(t DataType) string {
	switch {
	case t == TypeBoolean:
		return plan.TagBooleanVariable
	case t == TypeInteger:
		return plan.TagIntegerVariable
	case t == TypeReal:
		return plan.TagRealVariable
	case t == TypeString:
		return plan.TagStringVariable
	case t.IsArray():
		return plan.TagArrayVariable
	}
	return "Variable"
}

func rhsTag(t DataType) string {
	switch {
	case t == TypeBoolean:
		return plan.TagBooleanRHS
	case t == TypeString:
		return plan.TagStringRHS
	case t.IsArray():
		return plan.TagArrayRHS
	}
	return plan.TagNumericRHS
}
