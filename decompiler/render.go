package decompiler

import (
	"fmt"
	"strings"

	"github.com/chazu/plexc/plan"
)

// ---------------------------------------------------------------------------
// Text Renderer
// ---------------------------------------------------------------------------

type out struct {
	b     *strings.Builder
	unit  string
	depth int
}

func (o *out) write(s string) { o.b.WriteString(s) }
func (o *out) nl()            { o.b.WriteByte('\n') }
func (o *out) pad() {
	for i := 0; i < o.depth; i++ {
		o.b.WriteString(o.unit)
	}
}
func (o *out) line() { o.nl(); o.pad() }
func (o *out) withIndent(fn func() error) error {
	o.depth++
	err := fn()
	o.depth--
	return err
}

// Render wraps el and translates it at indent level zero.
func Render(el *plan.Element, opts Options) (string, error) {
	return New(el, opts).Translate(0)
}

// Translate renders the model with its first line indented indent levels.
// An element that does not verify, or has such an element below it, yields
// a *PatternError and no text.
func (m *Model) Translate(indent int) (string, error) {
	if exceeds(m.el, m.opts.MaxDepth-m.depth+1) {
		return "", fmt.Errorf("%w: more than %d levels below <%s>", ErrTooDeep, m.opts.MaxDepth, m.el.Tag)
	}
	var b strings.Builder
	o := &out{b: &b, unit: m.opts.Indent, depth: indent}
	o.pad()
	if err := m.translate(o); err != nil {
		return "", err
	}
	return b.String(), nil
}

// exceeds reports whether el nests deeper than limit, without descending
// further than that.
func exceeds(el *plan.Element, limit int) bool {
	if limit <= 0 {
		return true
	}
	for _, c := range el.Children {
		if exceeds(c, limit-1) {
			return true
		}
	}
	return false
}

func (m *Model) translate(o *out) error {
	if m.kind == KindTooDeep {
		return fmt.Errorf("%w: more than %d levels at <%s>", ErrTooDeep, m.opts.MaxDepth, m.el.Tag)
	}
	if !m.Verify() {
		return m.fail("no recognized shape and no literal quality")
	}

	switch m.kind {
	case KindPlan:
		for _, c := range m.Children() {
			if err := c.translate(o); err != nil {
				return err
			}
			if c.kind == KindDeclarations {
				o.line()
			}
		}
		return nil

	case KindNode:
		body := m.child(0)
		if body.el.Tag == plan.TagNodeID {
			id, _ := body.text()
			o.write(id + ": ")
			body = m.child(1)
		}
		return body.translate(o)

	case KindBlock:
		return m.translateBlock(o)

	case KindDeclarations:
		for i, c := range m.Children() {
			if i > 0 {
				o.line()
			}
			s, err := c.declaration()
			if err != nil {
				return err
			}
			o.write(s + ";")
		}
		return nil

	case KindDo:
		o.write("do {")
		if err := m.translateBody(o, m.child(0)); err != nil {
			return err
		}
		cond, err := m.child(1).render()
		if err != nil {
			return err
		}
		o.write("} while (" + cond + ");")
		return nil

	case KindWhile:
		cond, err := m.child(0).render()
		if err != nil {
			return err
		}
		o.write("while (" + cond + ") {")
		if err := m.translateBody(o, m.child(1)); err != nil {
			return err
		}
		o.write("}")
		return nil

	case KindAction:
		return m.child(0).translate(o)

	case KindOnCommand:
		return m.translateOnCommand(o)

	case KindAssignment:
		target, err := m.child(0).render()
		if err != nil {
			return err
		}
		value, err := m.child(1).render()
		if err != nil {
			return err
		}
		o.write(target + " = " + value + ";")
		return nil

	case KindParameters:
		s, err := m.parameterList()
		if err != nil {
			return err
		}
		o.write(s)
		return nil

	case KindDeclaration:
		s, err := m.declaration()
		if err != nil {
			return err
		}
		o.write(s + ";")
		return nil
	}

	s, err := m.expr()
	if err != nil {
		return err
	}
	o.write(s)
	return nil
}

// translateBody writes an indented body followed by a fresh line at the
// current depth.
func (m *Model) translateBody(o *out, body *Model) error {
	err := o.withIndent(func() error {
		o.line()
		return body.translate(o)
	})
	if err != nil {
		return err
	}
	o.line()
	return nil
}

func (m *Model) translateBlock(o *out) error {
	kids := m.Children()
	o.write(m.el.Tag + " {")
	if len(kids) == 0 {
		o.write("}")
		return nil
	}
	err := o.withIndent(func() error {
		for _, c := range kids {
			o.line()
			if err := c.translate(o); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.line()
	o.write("}")
	return nil
}

func (m *Model) translateOnCommand(o *out) error {
	kids := m.Children()
	nameAt, params := 0, ""
	if len(kids) == 3 {
		s, err := kids[0].parameterList()
		if err != nil {
			return err
		}
		nameAt, params = 1, " ("+s+")"
	}
	name, err := kids[nameAt].render()
	if err != nil {
		return err
	}
	o.write("OnCommand " + name + params + " {")
	if err := m.translateBody(o, kids[nameAt+1]); err != nil {
		return err
	}
	o.write("}")
	return nil
}

// ---- Declarations ----------------------------------------------------------

// declaration renders "Type name", "Type name[size]" or "Type name = init".
func (m *Model) declaration() (string, error) {
	if !m.Verify() {
		return "", m.fail("malformed declaration")
	}
	kids := m.Children()
	name, _ := kids[0].text()
	typ, _ := kids[1].text()
	s := typ + " " + name
	i := 2
	if m.el.Tag == plan.TagDeclareArray {
		size, _ := kids[2].text()
		s += "[" + size + "]"
		i = 3
	}
	if i < len(kids) {
		init, err := kids[i].render()
		if err != nil {
			return "", err
		}
		s += " = " + init
	}
	return s, nil
}

func (m *Model) parameterList() (string, error) {
	if !m.Verify() {
		return "", m.fail("malformed parameter list")
	}
	var parts []string
	for _, c := range m.Children() {
		s, err := c.declaration()
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", "), nil
}

// ---- Expressions -----------------------------------------------------------

// render verifies m and renders it as an expression.
func (m *Model) render() (string, error) {
	if m.kind == KindTooDeep {
		return "", fmt.Errorf("%w: more than %d levels at <%s>", ErrTooDeep, m.opts.MaxDepth, m.el.Tag)
	}
	if !m.Verify() {
		return "", m.fail("no recognized shape and no literal quality")
	}
	return m.expr()
}

func (m *Model) expr() (string, error) {
	switch m.kind {
	case KindSlot, KindUnknown:
		for _, k := range slotPriority {
			if c := m.getChild(k); c != nil {
				return c.render()
			}
		}
		return m.qualities[0].Value, nil

	case KindVariable, KindLiteral, KindText:
		v, _ := m.text()
		return v, nil

	case KindOperator:
		symbol := plan.OperatorTags[m.el.Tag]
		var parts []string
		for _, c := range m.Children() {
			s, err := c.render()
			if err != nil {
				return "", err
			}
			if c.kind == KindOperator && len(c.Children()) > 1 {
				s = "(" + s + ")"
			}
			parts = append(parts, s)
		}
		if len(parts) == 1 {
			return symbol + parts[0], nil
		}
		return strings.Join(parts, " "+symbol+" "), nil

	case KindLookup:
		name, err := m.child(0).render()
		if err != nil {
			return "", err
		}
		if a := m.child(1); a != nil {
			args, err := a.render()
			if err != nil {
				return "", err
			}
			if args != "" {
				name += ", " + args
			}
		}
		return "LookupNow(" + name + ")", nil

	case KindArrayElement:
		name, _ := m.child(0).text()
		index, err := m.child(1).render()
		if err != nil {
			return "", err
		}
		return name + "[" + index + "]", nil

	case KindFunctionCall:
		name, _ := m.child(0).text()
		args, err := m.exprList(1)
		if err != nil {
			return "", err
		}
		return name + "(" + strings.Join(args, ", ") + ")", nil

	case KindArguments:
		args, err := m.exprList(0)
		if err != nil {
			return "", err
		}
		return strings.Join(args, ", "), nil
	}
	return "", m.fail(m.kind.String() + " is not an expression")
}

func (m *Model) exprList(from int) ([]string, error) {
	var parts []string
	for _, c := range m.Children()[from:] {
		s, err := c.render()
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	return parts, nil
}
