package compiler

import (
	"strconv"
	"strings"
	"testing"
)

// treeBuilder assigns each constructed node its own line so diagnostics can
// be told apart by position.
type treeBuilder struct {
	line int
}

func (b *treeBuilder) p() Position {
	b.line++
	return Position{Line: b.line, Column: 4}
}

func (b *treeBuilder) plan(children ...*Node) *Node {
	return NewNode(KindPlan, "", b.p(), children...)
}

func (b *treeBuilder) action(id string, body *Node) *Node {
	return NewNode(KindAction, id, b.p(), body)
}

func (b *treeBuilder) seq(children ...*Node) *Node {
	return NewNode(KindBlock, "Sequence", b.p(), children...)
}

func (b *treeBuilder) concurrence(children ...*Node) *Node {
	return NewNode(KindBlock, "Concurrence", b.p(), children...)
}

func (b *treeBuilder) decl(name, typ string, init ...*Node) *Node {
	pos := b.p()
	kids := append([]*Node{NewNode(KindTypeName, typ, b.p())}, init...)
	return NewNode(KindVariableDeclaration, name, pos, kids...)
}

func (b *treeBuilder) do(body, test *Node) *Node {
	return NewNode(KindDo, "", b.p(), body, test)
}

func (b *treeBuilder) while(test, body *Node) *Node {
	return NewNode(KindWhile, "", b.p(), test, body)
}

func (b *treeBuilder) onCommand(name *Node, rest ...*Node) *Node {
	return NewNode(KindOnCommand, "", b.p(), append([]*Node{name}, rest...)...)
}

func (b *treeBuilder) params(decls ...*Node) *Node {
	return NewNode(KindParameters, "", b.p(), decls...)
}

func (b *treeBuilder) assign(target, value *Node) *Node {
	return NewNode(KindAssignment, "", b.p(), target, value)
}

func (b *treeBuilder) v(name string) *Node {
	return NewNode(KindVariable, name, b.p())
}

func (b *treeBuilder) integer(text string) *Node {
	return NewNode(KindIntegerLiteral, text, b.p())
}

func (b *treeBuilder) real(text string) *Node {
	return NewNode(KindRealLiteral, text, b.p())
}

func (b *treeBuilder) boolean(text string) *Node {
	return NewNode(KindBooleanLiteral, text, b.p())
}

func (b *treeBuilder) str(text string) *Node {
	return NewNode(KindStringLiteral, text, b.p())
}

func (b *treeBuilder) op(symbol string, operands ...*Node) *Node {
	return NewNode(KindOperator, symbol, b.p(), operands...)
}

func (b *treeBuilder) lookup(name *Node, args ...*Node) *Node {
	return NewNode(KindLookup, "", b.p(), append([]*Node{name}, args...)...)
}

func (b *treeBuilder) aref(array string, index *Node) *Node {
	return NewNode(KindArrayReference, "", b.p(), b.v(array), index)
}

func (b *treeBuilder) call(fn string, args ...*Node) *Node {
	return NewNode(KindFunctionCall, fn, b.p(), args...)
}

// messages returns the messages recorded with the given severity.
func messages(d *Diagnostics, sev Severity) []string {
	var out []string
	for _, diag := range d.All() {
		if diag.Severity == sev {
			out = append(out, diag.Message)
		}
	}
	return out
}

func requireOne(t *testing.T, d *Diagnostics, sev Severity, substr string) Diagnostic {
	t.Helper()
	var found []Diagnostic
	for _, diag := range d.All() {
		if diag.Severity == sev {
			found = append(found, diag)
		}
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one %s, got %d:\n%s", sev, len(found), d)
	}
	if !strings.Contains(found[0].Message, substr) {
		t.Fatalf("expected %s containing %q, got %q", sev, substr, found[0].Message)
	}
	return found[0]
}

func itoa(i int) string { return strconv.Itoa(i) }
