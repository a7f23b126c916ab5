package compiler

import (
	"fmt"
	"strconv"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("plexc.compiler")

// DefaultMaxDepth bounds plan nesting for the recursive walks.
const DefaultMaxDepth = 512

// ---------------------------------------------------------------------------
// Semantic Analyzer: two-phase checking
// ---------------------------------------------------------------------------
//
// Phase 1 (earlyCheck) builds scopes and binds declarations for the whole
// tree. Phase 2 (check) resolves names and types against those scopes.
// Which scope each child is checked in is decided once, in phase 1, by
// childScope and reused unchanged in phase 2.

// SemanticAnalyzer checks a plan tree, recording into a Diagnostics sink.
type SemanticAnalyzer struct {
	diags    *Diagnostics
	maxDepth int
	global   *Scope
}

// NewSemanticAnalyzer creates an analyzer that records into diags.
func NewSemanticAnalyzer(diags *Diagnostics, opts Options) *SemanticAnalyzer {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &SemanticAnalyzer{diags: diags, maxDepth: maxDepth}
}

// Check runs both phases over root and returns the global scope.
func (s *SemanticAnalyzer) Check(root *Node) *Scope {
	s.global = NewScope(nil, "global")
	log.Debugf("phase 1: %s at %s", root.Kind, root.Pos)
	s.earlyCheck(root, s.global, 0)
	log.Debugf("phase 2: %s at %s", root.Kind, root.Pos)
	s.check(root, 0)
	s.checkUnused(root)
	return s.global
}

// Check is a convenience wrapper around SemanticAnalyzer.
func Check(root *Node, diags *Diagnostics, opts Options) *Scope {
	return NewSemanticAnalyzer(diags, opts).Check(root)
}

func (s *SemanticAnalyzer) errorAt(node *Node, format string, args ...any) {
	s.diags.Recordf(SeverityError, node, format, args...)
}

func (s *SemanticAnalyzer) warnAt(node *Node, format string, args ...any) {
	s.diags.Recordf(SeverityWarning, node, format, args...)
}

// abandon records a FATAL for node and stops all further work on its subtree.
func (s *SemanticAnalyzer) abandon(node *Node, format string, args ...any) {
	s.diags.Recordf(SeverityFatal, node, format, args...)
	node.abandoned = true
	node.typ = TypeUnresolved
}

// nodeID returns the id of an Action, inventing one for anonymous actions.
func nodeID(action *Node) string {
	if action == nil {
		return ""
	}
	if action.Text != "" {
		return action.Text
	}
	body := "Empty"
	if b := action.Child(0); b != nil {
		body = b.Kind.String()
	}
	return fmt.Sprintf("%s__%d_%d", body, action.Pos.Line, action.Pos.Column)
}

// childScope returns the scope the i-th child of n is checked in.
func childScope(n *Node, i int) *Scope {
	if n.ownScope == nil {
		return n.scope
	}
	switch n.Kind {
	case KindDo:
		if i == 0 {
			return n.ownScope // body
		}
		return n.scope // do-test
	case KindWhile:
		if i == 1 {
			return n.ownScope // body
		}
		return n.scope // while-test
	case KindOnCommand:
		if i == 0 {
			return n.scope // command name
		}
		return n.ownScope
	}
	return n.ownScope
}

// ---------------------------------------------------------------------------
// Phase 1
// ---------------------------------------------------------------------------

func (s *SemanticAnalyzer) earlyCheck(n *Node, ctx *Scope, depth int) {
	n.scope = ctx
	if depth > s.maxDepth {
		s.abandon(n, "plan nesting exceeds the maximum depth of %d", s.maxDepth)
		return
	}
	if msg := checkShape(n); msg != "" {
		s.abandon(n, "internal error: %s", msg)
		return
	}

	switch n.Kind {
	case KindBlock:
		n.ownScope = NewScope(ctx, nodeID(n.parent))
	case KindDo:
		if !s.earlyCheckOwned(n) {
			return
		}
		n.ownScope = NewScope(ctx, nodeID(n.parent)+"_DO_BODY")
	case KindWhile:
		if !s.earlyCheckOwned(n) {
			return
		}
		n.ownScope = NewScope(ctx, nodeID(n.parent)+"_WHILE_BODY")
	case KindOnCommand:
		if !s.earlyCheckOwned(n) {
			return
		}
		s.earlyCheckOnCommand(n)
	case KindVariableDeclaration:
		s.earlyCheckDeclaration(n, ctx)
	}
	if n.ownScope != nil {
		log.Debugf("scope %q opened by %s at %s", n.ownScope.Name(), n.Kind, n.Pos)
	}

	for i, c := range n.children {
		s.earlyCheck(c, childScope(n, i), depth+1)
	}
}

// earlyCheckOwned verifies that a body construct sits directly under the
// Action that names it.
func (s *SemanticAnalyzer) earlyCheckOwned(n *Node) bool {
	if n.parent == nil || n.parent.Kind != KindAction {
		s.abandon(n, "internal error: %s construct has no owning Action", n.Kind)
		return false
	}
	return true
}

// earlyCheckOnCommand detects which of the two OnCommand shapes is present
// by looking at the second child: name, Parameters, action or name, action.
func (s *SemanticAnalyzer) earlyCheckOnCommand(n *Node) {
	second := n.Child(1)
	if second.Kind == KindParameters {
		n.params = second
		n.action = n.Child(2)
	} else {
		n.action = second
	}
	n.ownScope = NewScope(n.scope, nodeID(n.parent)+"_ON_COMMAND")
}

func (s *SemanticAnalyzer) earlyCheckDeclaration(n *Node, ctx *Scope) {
	typ, _, err := ParseTypeName(n.Child(0).Text)
	if err != nil {
		s.errorAt(n.Child(0), "%v", err)
		typ = TypeUnresolved
	}
	n.typ = typ
	if prev, ok := ctx.Declare(n); !ok {
		s.errorAt(n, "variable %q is already declared in %s (line %d)", n.Text, ctx.Name(), prev.Pos.Line)
	}
}

// checkShape returns a description of a structural defect, or "". These are
// guarantees the parser is supposed to make.
func checkShape(n *Node) string {
	nc := len(n.children)
	want := func(count int) string {
		if nc != count {
			return fmt.Sprintf("%s has %d children, want %d", n.Kind, nc, count)
		}
		return ""
	}
	exprAt := func(i int) string {
		if c := n.Child(i); c == nil || !c.Kind.IsExpression() {
			return fmt.Sprintf("%s child %d is not an expression", n.Kind, i)
		}
		return ""
	}
	kindAt := func(i int, k Kind) string {
		if c := n.Child(i); c == nil || c.Kind != k {
			return fmt.Sprintf("%s child %d is not %s", n.Kind, i, k)
		}
		return ""
	}
	first := func(msgs ...string) string {
		for _, m := range msgs {
			if m != "" {
				return m
			}
		}
		return ""
	}

	switch n.Kind {
	case KindInvalid:
		return "invalid node kind"
	case KindPlan:
		if nc == 0 || n.children[nc-1].Kind != KindAction {
			return "plan does not end with an Action"
		}
		for _, c := range n.children[:nc-1] {
			if c.Kind != KindVariableDeclaration {
				return fmt.Sprintf("unexpected %s in plan declarations", c.Kind)
			}
		}
	case KindAction:
		if m := want(1); m != "" {
			return m
		}
		switch n.children[0].Kind {
		case KindBlock, KindDo, KindWhile, KindOnCommand, KindAssignment:
		default:
			return fmt.Sprintf("unexpected %s as Action body", n.children[0].Kind)
		}
	case KindBlock:
		for _, c := range n.children {
			switch c.Kind {
			case KindVariableDeclaration, KindAction:
			case KindDo, KindWhile, KindOnCommand:
				// reported by the construct itself as missing its Action
			default:
				return fmt.Sprintf("unexpected %s in Block", c.Kind)
			}
		}
	case KindVariableDeclaration:
		if nc < 1 || nc > 2 {
			return fmt.Sprintf("VariableDeclaration has %d children", nc)
		}
		if m := kindAt(0, KindTypeName); m != "" {
			return m
		}
		if nc == 2 {
			return exprAt(1)
		}
	case KindParameters:
		for _, c := range n.children {
			if c.Kind != KindVariableDeclaration {
				return fmt.Sprintf("unexpected %s in Parameters", c.Kind)
			}
		}
	case KindDo:
		return first(want(2), kindAt(0, KindAction), exprAt(1))
	case KindWhile:
		return first(want(2), exprAt(0), kindAt(1, KindAction))
	case KindOnCommand:
		if nc < 2 {
			return fmt.Sprintf("OnCommand has %d children", nc)
		}
		if m := exprAt(0); m != "" {
			return m
		}
		if n.children[1].Kind == KindParameters {
			return first(want(3), kindAt(2, KindAction))
		}
		return first(want(2), kindAt(1, KindAction))
	case KindAssignment:
		if m := want(2); m != "" {
			return m
		}
		if t := n.children[0].Kind; t != KindVariable && t != KindArrayReference {
			return fmt.Sprintf("cannot assign to %s", t)
		}
		return exprAt(1)
	case KindOperator:
		arity, ok := operatorArity[n.Text]
		if !ok {
			return fmt.Sprintf("unknown operator %q", n.Text)
		}
		if nc < arity.min || (arity.max > 0 && nc > arity.max) {
			return fmt.Sprintf("operator %q has %d operands", n.Text, nc)
		}
		for i := range n.children {
			if m := exprAt(i); m != "" {
				return m
			}
		}
	case KindLookup, KindFunctionCall:
		if n.Kind == KindLookup && nc == 0 {
			return "Lookup has no name"
		}
		for i := range n.children {
			if m := exprAt(i); m != "" {
				return m
			}
		}
	case KindArrayReference:
		return first(want(2), kindAt(0, KindVariable), exprAt(1))
	case KindTypeName, KindVariable, KindBooleanLiteral, KindIntegerLiteral, KindRealLiteral, KindStringLiteral:
		return want(0)
	}
	return ""
}

// ---------------------------------------------------------------------------
// Phase 2
// ---------------------------------------------------------------------------

func (s *SemanticAnalyzer) check(n *Node, depth int) {
	if n.abandoned {
		markReferenced(n)
		return
	}
	for _, c := range n.children {
		s.check(c, depth+1)
	}
	s.checkSelf(n)
}

func (s *SemanticAnalyzer) checkSelf(n *Node) {
	switch n.Kind {
	case KindDo:
		if !assumeType(n.Child(1), TypeBoolean) {
			s.errorAt(n.Child(1), "\"do\" test expression is not Boolean")
		}
	case KindWhile:
		if !assumeType(n.Child(0), TypeBoolean) {
			s.errorAt(n.Child(0), "\"while\" test expression is not Boolean")
		}
	case KindOnCommand:
		// Only literal command names are supported; computed names are
		// neither type-checked nor emitted.
	case KindVariableDeclaration:
		s.checkDeclaration(n)
	case KindAssignment:
		s.checkAssignment(n)
	default:
		if n.Kind.IsExpression() {
			s.checkExpr(n)
		}
	}
}

func (s *SemanticAnalyzer) checkDeclaration(n *Node) {
	init := n.Child(1)
	if init == nil {
		return
	}
	switch {
	case n.parent != nil && n.parent.Kind == KindParameters:
		s.errorAt(init, "parameter %q cannot have an initial value", n.Text)
	case n.typ.IsArray():
		s.errorAt(init, "array %q cannot have an initial value", n.Text)
	case !assumeType(init, n.typ):
		s.errorAt(init, "initial value of %q is %s, not %s", n.Text, init.typ, n.typ)
	}
}

func (s *SemanticAnalyzer) checkAssignment(n *Node) {
	target, value := n.Child(0), n.Child(1)
	if !assumeType(value, target.typ) {
		s.errorAt(value, "cannot assign %s to %s target", value.typ, target.typ)
	}
}

func (s *SemanticAnalyzer) checkExpr(n *Node) {
	switch n.Kind {
	case KindBooleanLiteral:
		n.typ = TypeBoolean
		if n.Text != "true" && n.Text != "false" {
			s.errorAt(n, "malformed Boolean literal %q", n.Text)
			n.typ = TypeUnresolved
		}
	case KindIntegerLiteral:
		n.typ = TypeInteger
		if _, err := strconv.ParseInt(n.Text, 10, 64); err != nil {
			s.errorAt(n, "malformed Integer literal %q", n.Text)
			n.typ = TypeUnresolved
		}
	case KindRealLiteral:
		n.typ = TypeReal
		if _, err := strconv.ParseFloat(n.Text, 64); err != nil {
			s.errorAt(n, "malformed Real literal %q", n.Text)
			n.typ = TypeUnresolved
		}
	case KindStringLiteral:
		n.typ = TypeString
	case KindVariable:
		s.checkVariable(n)
	case KindOperator:
		s.checkOperator(n)
	case KindLookup:
		if !assumeType(n.Child(0), TypeString) {
			s.errorAt(n.Child(0), "lookup name is %s, not String", n.Child(0).typ)
		}
		for _, arg := range n.children[1:] {
			if arg.typ == TypeUnknown {
				s.errorAt(arg, "cannot infer the type of lookup argument")
				arg.typ = TypeUnresolved
			}
		}
		// Stays Unknown until the context assumes a type.
		n.typ = TypeUnknown
	case KindArrayReference:
		s.checkArrayReference(n)
	case KindFunctionCall:
		s.checkFunctionCall(n)
	}
}

func (s *SemanticAnalyzer) checkVariable(n *Node) {
	decl, ok := n.scope.Lookup(n.Text)
	if !ok {
		s.errorAt(n, "variable %q is not declared", n.Text)
		n.typ = TypeUnresolved
		return
	}
	decl.used = true
	n.typ = decl.typ
}

func (s *SemanticAnalyzer) checkArrayReference(n *Node) {
	array, index := n.Child(0), n.Child(1)
	n.typ = TypeUnresolved
	if !assumeType(index, TypeInteger) {
		s.errorAt(index, "array index is %s, not Integer", index.typ)
	}
	switch {
	case array.typ == TypeUnresolved:
	case !array.typ.IsArray():
		s.errorAt(array, "%q is %s, not an array", array.Text, array.typ)
	default:
		n.typ = array.typ.ElementType()
	}
}

// ---------------------------------------------------------------------------
// Operators and functions
// ---------------------------------------------------------------------------

type arity struct{ min, max int } // max 0 = unbounded

var operatorArity = map[string]arity{
	"+": {2, 0}, "-": {2, 2}, "*": {2, 0}, "/": {2, 2}, "%": {2, 2},
	"<": {2, 2}, "<=": {2, 2}, ">": {2, 2}, ">=": {2, 2},
	"==": {2, 2}, "!=": {2, 2},
	"&&": {2, 0}, "||": {2, 0}, "!": {1, 1},
}

// requireNumeric checks an arithmetic or comparison operand. Unknown
// operands are assumed Real.
func (s *SemanticAnalyzer) requireNumeric(operand *Node, what string) bool {
	if operand.typ == TypeUnknown {
		operand.typ = TypeReal
	}
	if operand.typ == TypeUnresolved || operand.typ.IsNumeric() {
		return true
	}
	s.errorAt(operand, "operand of %s is %s, not numeric", what, operand.typ)
	return false
}

// numericResult is Integer when every operand is Integer, Real otherwise,
// and Unresolved when any operand is.
func numericResult(operands []*Node) DataType {
	result := TypeInteger
	for _, o := range operands {
		switch o.typ {
		case TypeUnresolved:
			return TypeUnresolved
		case TypeReal:
			result = TypeReal
		}
	}
	return result
}

func anyUnresolved(operands []*Node) bool {
	for _, o := range operands {
		if o.typ == TypeUnresolved {
			return true
		}
	}
	return false
}

func (s *SemanticAnalyzer) checkOperator(n *Node) {
	op, operands := n.Text, n.children
	what := fmt.Sprintf("%q", op)
	ok := true

	switch op {
	case "&&", "||", "!":
		for _, o := range operands {
			if !assumeType(o, TypeBoolean) {
				s.errorAt(o, "operand of %s is %s, not Boolean", what, o.typ)
				ok = false
			}
		}
		n.typ = TypeBoolean

	case "<", "<=", ">", ">=":
		for _, o := range operands {
			ok = s.requireNumeric(o, what) && ok
		}
		n.typ = TypeBoolean

	case "==", "!=":
		a, b := operands[0], operands[1]
		switch {
		case a.typ == TypeUnknown && b.typ == TypeUnknown:
			s.errorAt(n, "cannot infer operand types of %s", what)
			ok = false
		case a.typ == TypeUnknown:
			a.typ = b.typ
		case b.typ == TypeUnknown:
			b.typ = a.typ
		}
		if ok && !comparableTypes(a.typ, b.typ) {
			s.errorAt(n, "cannot compare %s with %s", a.typ, b.typ)
			ok = false
		}
		n.typ = TypeBoolean

	case "+":
		if isConcatenation(operands) {
			for _, o := range operands {
				if !assumeType(o, TypeString) {
					s.errorAt(o, "operand of string concatenation is %s, not String", o.typ)
					ok = false
				}
			}
			n.typ = TypeString
			break
		}
		fallthrough

	default: // - * / %
		for _, o := range operands {
			ok = s.requireNumeric(o, what) && ok
		}
		n.typ = numericResult(operands)
	}

	if !ok || anyUnresolved(operands) {
		n.typ = TypeUnresolved
	}
}

func isConcatenation(operands []*Node) bool {
	for _, o := range operands {
		if o.typ == TypeString {
			return true
		}
	}
	return false
}

func comparableTypes(a, b DataType) bool {
	switch {
	case a == TypeUnresolved || b == TypeUnresolved:
		return true
	case a.IsNumeric() && b.IsNumeric():
		return true
	case a.IsArray() || b.IsArray():
		return false
	}
	return a == b
}

// EqualityFamily names the operand family of an equality operator after
// checking: "Numeric", "Boolean" or "String".
func EqualityFamily(n *Node) string {
	switch t := n.Child(0).typ; {
	case t == TypeBoolean:
		return "Boolean"
	case t == TypeString:
		return "String"
	}
	return "Numeric"
}

type builtin struct {
	params []DataType // TypeReal stands for any numeric argument
	result func(args []*Node) DataType
}

func sameAsFirst(args []*Node) DataType { return args[0].typ }
func always(t DataType) func([]*Node) DataType {
	return func([]*Node) DataType { return t }
}

var builtins = map[string]builtin{
	"abs":    {[]DataType{TypeReal}, sameAsFirst},
	"sqrt":   {[]DataType{TypeReal}, always(TypeReal)},
	"ceil":   {[]DataType{TypeReal}, always(TypeInteger)},
	"floor":  {[]DataType{TypeReal}, always(TypeInteger)},
	"round":  {[]DataType{TypeReal}, always(TypeInteger)},
	"strlen": {[]DataType{TypeString}, always(TypeInteger)},
	"max":    {[]DataType{TypeReal, TypeReal}, numericResult},
	"min":    {[]DataType{TypeReal, TypeReal}, numericResult},
}

// IsBuiltinFunction reports whether name is a known function.
func IsBuiltinFunction(name string) bool {
	_, ok := builtins[name]
	return ok
}

func (s *SemanticAnalyzer) checkFunctionCall(n *Node) {
	n.typ = TypeUnresolved
	fn, ok := builtins[n.Text]
	if !ok {
		s.errorAt(n, "unknown function %q", n.Text)
		return
	}
	if len(n.children) != len(fn.params) {
		s.errorAt(n, "%s expects %d arguments, got %d", n.Text, len(fn.params), len(n.children))
		return
	}
	what := fmt.Sprintf("%s()", n.Text)
	for i, arg := range n.children {
		if fn.params[i] == TypeReal {
			ok = s.requireNumeric(arg, what) && ok
		} else if !assumeType(arg, fn.params[i]) {
			s.errorAt(arg, "argument %d of %s is %s, not %s", i+1, what, arg.typ, fn.params[i])
			ok = false
		}
	}
	if ok && !anyUnresolved(n.children) {
		n.typ = fn.result(n.children)
	}
}

// ---------------------------------------------------------------------------
// Unused declarations
// ---------------------------------------------------------------------------

// markReferenced marks declarations named anywhere in an abandoned subtree
// as used, resolving by name from the scope the subtree was reached in.
// The subtree is not checked, so it must not cause unused warnings.
func markReferenced(n *Node) {
	if n.scope == nil {
		return
	}
	Walk(n, func(c *Node) bool {
		if c.Kind == KindVariable {
			if decl, ok := n.scope.Lookup(c.Text); ok {
				decl.used = true
			}
		}
		return true
	})
}

func (s *SemanticAnalyzer) checkUnused(root *Node) {
	Walk(root, func(n *Node) bool {
		if n.abandoned {
			return false
		}
		if n.Kind == KindVariableDeclaration && !n.used &&
			(n.parent.Kind == KindBlock || n.parent.Kind == KindPlan) {
			s.warnAt(n, "variable %q is declared but never used", n.Text)
		}
		return true
	})
}
