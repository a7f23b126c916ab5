package decompiler

import "github.com/chazu/plexc/plan"

// ---------------------------------------------------------------------------
// Shape recognizers
// ---------------------------------------------------------------------------
//
// Verify is shallow: it looks at the element and the kinds of its children,
// not at whether those children verify in turn. Translate checks each child
// as it descends, so a defect anywhere below surfaces there.

// slotPriority is the fixed order in which expression holders pick their
// rendering. The first kind present wins, with no fallback to later kinds.
var slotPriority = []Kind{KindOperator, KindLookup, KindArrayElement, KindFunctionCall}

// Verify reports whether the wrapped element matches a recognized shape.
// Expression holders, leaves and unknown tags also verify when they carry
// a literal quality. Only the element's own children are inspected; a
// mismatch further down surfaces as a *PatternError from Translate.
func (m *Model) Verify() bool {
	switch m.kind {
	case KindTooDeep:
		return false
	case KindSlot, KindUnknown:
		for _, k := range slotPriority {
			if m.hasChild(k) {
				return true
			}
		}
		return len(m.qualities) > 0
	case KindVariable, KindLiteral, KindText:
		_, ok := m.text()
		return ok
	}
	return m.shapeMatches()
}

func (m *Model) shapeMatches() bool {
	kids := m.Children()
	n := len(kids)
	tagAt := func(i int, tag string) bool {
		return i < n && kids[i].el.Tag == tag
	}
	kindAt := func(i int, k Kind) bool {
		return i < n && kids[i].kind == k
	}
	all := func(from int, ok func(*Model) bool) bool {
		for _, c := range kids[from:] {
			if !ok(c) {
				return false
			}
		}
		return true
	}
	isExpr := func(c *Model) bool { return c.kind.IsExpression() }

	switch m.kind {
	case KindPlan:
		switch n {
		case 1:
			return kindAt(0, KindNode)
		case 2:
			return kindAt(0, KindDeclarations) && kindAt(1, KindNode)
		}
		return false

	case KindNode:
		i := 0
		if tagAt(0, plan.TagNodeID) {
			i = 1
		}
		if n != i+1 {
			return false
		}
		switch kids[i].kind {
		case KindBlock, KindDo, KindWhile, KindOnCommand, KindAssignment:
			return true
		}
		return false

	case KindBlock:
		from := 0
		if kindAt(0, KindDeclarations) {
			from = 1
		}
		return all(from, func(c *Model) bool { return c.kind == KindNode })

	case KindDeclarations, KindParameters:
		return all(0, func(c *Model) bool { return c.kind == KindDeclaration })

	case KindDeclaration:
		if !leafAt(kids, 0, plan.TagName) || !leafAt(kids, 1, plan.TagType) {
			return false
		}
		i := 2
		if m.el.Tag == plan.TagDeclareArray {
			if !leafAt(kids, 2, plan.TagMaxSize) {
				return false
			}
			i = 3
		}
		return n == i || (n == i+1 && tagAt(i, plan.TagInitialValue))

	case KindDo:
		return n == 2 && tagAt(0, plan.TagAction) && tagAt(1, plan.TagCondition)

	case KindWhile:
		return n == 2 && tagAt(0, plan.TagCondition) && tagAt(1, plan.TagAction)

	case KindAction:
		return n == 1 && kindAt(0, KindNode)

	case KindOnCommand:
		if n == 3 {
			return kindAt(0, KindParameters) && tagAt(1, plan.TagName) && kindAt(2, KindNode)
		}
		return n == 2 && tagAt(0, plan.TagName) && kindAt(1, KindNode)

	case KindAssignment:
		return n == 2 && (kindAt(0, KindVariable) || kindAt(0, KindArrayElement)) && kindAt(1, KindSlot)

	case KindOperator:
		return n >= 1 && all(0, isExpr)

	case KindLookup:
		return (n == 1 || (n == 2 && tagAt(1, plan.TagArguments))) && tagAt(0, plan.TagName)

	case KindArguments:
		return all(0, isExpr)

	case KindArrayElement:
		return n == 2 && leafAt(kids, 0, plan.TagName) && tagAt(1, plan.TagIndex)

	case KindFunctionCall:
		return leafAt(kids, 0, plan.TagName) && all(1, isExpr)
	}
	return false
}

// leafAt reports whether kids[i] is a text leaf with the given tag.
func leafAt(kids []*Model, i int, tag string) bool {
	if i >= len(kids) || kids[i].el.Tag != tag {
		return false
	}
	_, ok := kids[i].text()
	return ok && kids[i].el.IsLeaf()
}
