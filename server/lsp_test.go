package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/plexc/decompiler"
)

const bumpPlan = `<?xml version="1.0" encoding="UTF-8"?>
<PlexilPlan ID="n1" LineNo="1" ColNo="0">
  <VariableDeclarations>
    <DeclareVariable ID="n2" LineNo="2" ColNo="0">
      <Name>count</Name>
      <Type ID="n3" LineNo="2" ColNo="0">Integer</Type>
    </DeclareVariable>
  </VariableDeclarations>
  <Node ID="n4" LineNo="3" ColNo="0">
    <NodeId>Bump</NodeId>
    <Assignment ID="n5" LineNo="4" ColNo="2">
      <IntegerVariable ID="n6" LineNo="4" ColNo="2">count</IntegerVariable>
      <NumericRHS>
        <ADD ID="n7" LineNo="4" ColNo="10">
          <IntegerVariable ID="n8" LineNo="4" ColNo="10">count</IntegerVariable>
          <IntegerValue ID="n9" LineNo="4" ColNo="18">1</IntegerValue>
        </ADD>
      </NumericRHS>
    </Assignment>
  </Node>
</PlexilPlan>
`

// lineOf returns the 0-based line of the first line containing s.
func lineOf(t *testing.T, text, s string) protocol.UInteger {
	t.Helper()
	for i, line := range strings.Split(text, "\n") {
		if strings.Contains(line, s) {
			return protocol.UInteger(i)
		}
	}
	t.Fatalf("%q not found", s)
	return 0
}

// ---------------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------------

func TestAnalyze_Clean(t *testing.T) {
	if diags := analyze(bumpPlan, decompiler.Options{}); len(diags) != 0 {
		t.Errorf("diagnostics = %+v", diags)
	}
}

func TestAnalyze_PatternFailure(t *testing.T) {
	text := strings.Replace(bumpPlan, "<IntegerValue ID=\"n9\" LineNo=\"4\" ColNo=\"18\">1</IntegerValue>", "<Widget/>", 1)
	text = strings.Replace(text, "<ADD ID=\"n7\" LineNo=\"4\" ColNo=\"10\">", "<ADD>", 1)

	diags := analyze(text, decompiler.Options{})
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	d := diags[0]
	if !strings.Contains(d.Message, "<ADD>") {
		t.Errorf("message = %q", d.Message)
	}
	// ADD lost its ID, so the range falls back to the Assignment.
	if want := lineOf(t, text, "<Assignment"); d.Range.Start.Line != want {
		t.Errorf("range starts on line %d, want %d", d.Range.Start.Line, want)
	}
	if d.Range.End.Character-d.Range.Start.Character != protocol.UInteger(len("<Assignment")) {
		t.Errorf("range = %+v", d.Range)
	}
	if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
		t.Error("severity is not Error")
	}
}

func TestAnalyze_MalformedXML(t *testing.T) {
	diags := analyze("<PlexilPlan>\n  <Node>\n</PlexilPlan>\n", decompiler.Options{})
	if len(diags) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(diags))
	}
	if diags[0].Message == "" || diags[0].Source == nil || *diags[0].Source != lspName {
		t.Errorf("diagnostic = %+v", diags[0])
	}
}

// ---------------------------------------------------------------------------
// Hover, definition, references
// ---------------------------------------------------------------------------

func TestHover_RendersElementUnderCursor(t *testing.T) {
	s := NewLSP(decompiler.Options{})

	// End of the ADD line: the last ID before the cursor is ADD's.
	h := s.hover(bumpPlan, protocol.Position{Line: lineOf(t, bumpPlan, "<ADD"), Character: 200})
	if h == nil {
		t.Fatal("no hover")
	}
	value := h.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(value, "**<ADD>** from line 4, column 10") {
		t.Errorf("header missing:\n%s", value)
	}
	if !strings.Contains(value, "```\ncount + 1\n```") {
		t.Errorf("rendering missing:\n%s", value)
	}
}

func TestHover_WholePlan(t *testing.T) {
	s := NewLSP(decompiler.Options{})
	h := s.hover(bumpPlan, protocol.Position{Line: 0, Character: 3})
	if h == nil {
		t.Fatal("no hover")
	}
	value := h.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(value, "Integer count;\nBump: count = count + 1;") {
		t.Errorf("hover = %s", value)
	}
}

func TestHover_ShowsPatternError(t *testing.T) {
	text := strings.Replace(bumpPlan, "<NodeId>Bump</NodeId>", "<NodeId>Bump</NodeId><Sequence/>", 1)
	s := NewLSP(decompiler.Options{})
	h := s.hover(text, protocol.Position{Line: lineOf(t, text, "<Node "), Character: 200})
	if h == nil {
		t.Fatal("no hover")
	}
	if value := h.Contents.(protocol.MarkupContent).Value; !strings.Contains(value, "decompiler: <Node>") {
		t.Errorf("hover = %s", value)
	}
}

func TestDefinition(t *testing.T) {
	locs := definition("file:///p.xml", bumpPlan, "count")
	if len(locs) != 1 {
		t.Fatalf("got %d locations", len(locs))
	}
	if want := lineOf(t, bumpPlan, "<DeclareVariable"); locs[0].Range.Start.Line != want {
		t.Errorf("definition on line %d, want %d", locs[0].Range.Start.Line, want)
	}
	if locs := definition("file:///p.xml", bumpPlan, "missing"); len(locs) != 0 {
		t.Errorf("found %v", locs)
	}
}

func TestReferences(t *testing.T) {
	locs := references("file:///p.xml", bumpPlan, "count")
	if len(locs) != 2 {
		t.Fatalf("got %d locations, want 2", len(locs))
	}
	if locs[0].Range.Start.Line == locs[1].Range.Start.Line {
		t.Error("both references on the same line")
	}
}

// ---------------------------------------------------------------------------
// Completion
// ---------------------------------------------------------------------------

func TestCompleteTag(t *testing.T) {
	var labels []string
	for _, item := range completeTag("decl") {
		labels = append(labels, item.Label)
	}
	if got := strings.Join(labels, ","); got != "DeclareArray,DeclareVariable" {
		t.Errorf("labels = %s", got)
	}

	items := completeTag("EQ")
	if len(items) != 3 {
		t.Fatalf("got %d EQ items, want 3", len(items))
	}
	for _, item := range items {
		if *item.Detail != "operator ==" || *item.Kind != protocol.CompletionItemKindOperator {
			t.Errorf("%s: detail %q", item.Label, *item.Detail)
		}
	}
}

func TestExtractTagPrefix(t *testing.T) {
	tests := []struct {
		text  string
		pos   protocol.Position
		want  string
		inTag bool
	}{
		{"<Pl", protocol.Position{Line: 0, Character: 3}, "Pl", true},
		{"<Node>\n  <Seq", protocol.Position{Line: 1, Character: 6}, "Seq", true},
		{"<", protocol.Position{Line: 0, Character: 1}, "", true},
		{"count", protocol.Position{Line: 0, Character: 3}, "", false},
		{"", protocol.Position{Line: 0, Character: 0}, "", false},
	}
	for _, tc := range tests {
		got, inTag := extractTagPrefix(tc.text, tc.pos)
		if got != tc.want || inTag != tc.inTag {
			t.Errorf("extractTagPrefix(%q, %v) = %q, %v", tc.text, tc.pos, got, inTag)
		}
	}
}

// ---------------------------------------------------------------------------
// Text helpers
// ---------------------------------------------------------------------------

func TestExtractWord(t *testing.T) {
	tests := []struct {
		text string
		pos  protocol.Position
		want string
	}{
		{"hello world", protocol.Position{Line: 0, Character: 3}, "hello"},
		{"hello world", protocol.Position{Line: 0, Character: 5}, "hello"},
		{"hello world", protocol.Position{Line: 0, Character: 6}, "world"},
		{"<IntegerVariable>count</IntegerVariable>", protocol.Position{Line: 0, Character: 19}, "count"},
		{"a\nsecond_line", protocol.Position{Line: 1, Character: 2}, "second_line"},
		{"single line", protocol.Position{Line: 5, Character: 0}, ""},
		{"  ", protocol.Position{Line: 0, Character: 1}, ""},
	}
	for _, tc := range tests {
		if got := extractWord(tc.text, tc.pos); got != tc.want {
			t.Errorf("extractWord(%q, %v) = %q, want %q", tc.text, tc.pos, got, tc.want)
		}
	}
}

func TestPositionOffsetRoundTrip(t *testing.T) {
	text := "ab\ncde\n\nf"
	for offset := 0; offset <= len(text); offset++ {
		pos := offsetToPosition(text, offset)
		if got := positionToOffset(text, pos); got != offset {
			t.Errorf("offset %d → %v → %d", offset, pos, got)
		}
	}
	if got := positionToOffset(text, protocol.Position{Line: 1, Character: 99}); got != 6 {
		t.Errorf("clamped offset = %d, want 6", got)
	}
	if got := positionToOffset(text, protocol.Position{Line: 9, Character: 0}); got != len(text) {
		t.Errorf("past the end = %d", got)
	}
}
