package compiler

import (
	"errors"

	"github.com/chazu/plexc/plan"
)

// ErrCheckFailed is returned by Compile when checking recorded an ERROR or
// FATAL. The diagnostics are still returned.
var ErrCheckFailed = errors.New("compiler: plan has errors")

// Options configures checking and emission.
type Options struct {
	// MaxDepth bounds tree nesting. Zero means DefaultMaxDepth.
	MaxDepth int
	// WarningsAsErrors makes any WARNING block emission.
	WarningsAsErrors bool
	// IDs supplies element ids. Nil means a fresh SequentialIDs.
	IDs IDSource
}

// Result is the outcome of one compilation.
type Result struct {
	Global      *Scope
	Diagnostics *Diagnostics
	Plan        *plan.Element
}

// Compile checks root and, when no error was recorded, emits the plan.
func Compile(root *Node, opts Options) (*Result, error) {
	diags := NewDiagnostics()
	res := &Result{Diagnostics: diags}
	res.Global = Check(root, diags, opts)

	if diags.HasErrors() || (opts.WarningsAsErrors && diags.Count(SeverityWarning) > 0) {
		log.Infof("%d diagnostics, not emitting", diags.Len())
		return res, ErrCheckFailed
	}

	el, err := NewEmitter(opts).Emit(root)
	if err != nil {
		return res, err
	}
	res.Plan = el
	return res, nil
}
