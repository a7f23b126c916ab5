package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chazu/plexc/compiler"
)

var (
	styleFatal   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("201"))
	styleError   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleNote    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func severityStyle(sev compiler.Severity) lipgloss.Style {
	switch sev {
	case compiler.SeverityFatal:
		return styleFatal
	case compiler.SeverityError:
		return styleError
	case compiler.SeverityWarning:
		return styleWarning
	}
	return styleNote
}

// printDiagnostics writes one line per diagnostic in file:line:col form,
// followed by a summary.
func printDiagnostics(w io.Writer, source string, diags []compiler.Diagnostic) {
	for _, d := range diags {
		loc := styleDim.Render(fmt.Sprintf("%s:%d:%d:", source, d.Pos.Line, d.Pos.Column))
		fmt.Fprintf(w, "%s %s %s\n", loc, severityStyle(d.Severity).Render(d.Severity.String()+":"), d.Message)
	}
	fmt.Fprintln(w, summary(diags))
}

func summary(diags []compiler.Diagnostic) string {
	var errs, warns, notes int
	for _, d := range diags {
		switch {
		case d.Severity >= compiler.SeverityError:
			errs++
		case d.Severity == compiler.SeverityWarning:
			warns++
		default:
			notes++
		}
	}
	if errs+warns+notes == 0 {
		return styleOK.Render("no problems")
	}

	var parts []string
	if errs > 0 {
		parts = append(parts, styleError.Render(plural(errs, "error")))
	}
	if warns > 0 {
		parts = append(parts, styleWarning.Render(plural(warns, "warning")))
	}
	if notes > 0 {
		parts = append(parts, styleNote.Render(plural(notes, "note")))
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
