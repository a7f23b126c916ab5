package compiler

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics from informational to fatal.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(s string) (Severity, bool) {
	for sev := SeverityNote; sev <= SeverityFatal; sev++ {
		if sev.String() == s {
			return sev, true
		}
	}
	return SeverityNote, false
}

// Diagnostic is one recorded compiler message.
type Diagnostic struct {
	Severity Severity
	Node     *Node
	Pos      Position
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: line %d, column %d: %s", d.Severity, d.Pos.Line, d.Pos.Column, d.Message)
}

// Diagnostics collects messages for one compilation, in insertion order.
// Recording a FATAL does not unwind anything; the caller decides to stop.
type Diagnostics struct {
	list []Diagnostic
}

// NewDiagnostics returns an empty sink.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Record appends a diagnostic attributed to node.
func (d *Diagnostics) Record(sev Severity, node *Node, message string) {
	var pos Position
	if node != nil {
		pos = node.Pos
	}
	d.list = append(d.list, Diagnostic{Severity: sev, Node: node, Pos: pos, Message: message})
}

// Recordf is Record with formatting.
func (d *Diagnostics) Recordf(sev Severity, node *Node, format string, args ...any) {
	d.Record(sev, node, fmt.Sprintf(format, args...))
}

// All returns the diagnostics in the order they were recorded.
func (d *Diagnostics) All() []Diagnostic {
	return d.list
}

// Len returns the number of diagnostics.
func (d *Diagnostics) Len() int { return len(d.list) }

// Count returns how many diagnostics have exactly the given severity.
func (d *Diagnostics) Count(sev Severity) int {
	n := 0
	for _, diag := range d.list {
		if diag.Severity == sev {
			n++
		}
	}
	return n
}

// Max returns the highest recorded severity and false if there are none.
func (d *Diagnostics) Max() (Severity, bool) {
	if len(d.list) == 0 {
		return SeverityNote, false
	}
	max := SeverityNote
	for _, diag := range d.list {
		if diag.Severity > max {
			max = diag.Severity
		}
	}
	return max, true
}

// HasErrors reports whether any ERROR or FATAL was recorded.
func (d *Diagnostics) HasErrors() bool {
	max, ok := d.Max()
	return ok && max >= SeverityError
}

func (d *Diagnostics) String() string {
	var b strings.Builder
	for _, diag := range d.list {
		b.WriteString(diag.String())
		b.WriteByte('\n')
	}
	return b.String()
}
