package decompiler

import (
	"errors"
	"fmt"

	"github.com/chazu/plexc/plan"
)

var (
	// ErrPatternNotRecognized is matched by every *PatternError.
	ErrPatternNotRecognized = errors.New("decompiler: pattern not recognized")
	// ErrTooDeep is returned when the element tree nests beyond Options.MaxDepth.
	ErrTooDeep = errors.New("decompiler: element nesting too deep")
)

// PatternError reports an element whose shape matched no recognizer and
// which carries no literal quality to fall back on.
type PatternError struct {
	Tag    string
	Line   int // from the LineNo attribute, 0 if absent
	Column int // from the ColNo attribute, 0 if absent
	Reason string

	// Element is the element that failed to match.
	Element *plan.Element
}

func (e *PatternError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("decompiler: <%s> at line %d, column %d: %s", e.Tag, e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("decompiler: <%s>: %s", e.Tag, e.Reason)
}

func (e *PatternError) Unwrap() error { return ErrPatternNotRecognized }
