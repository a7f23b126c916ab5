// Package server provides a language server for intermediate plan
// documents. It reports XML and shape-recognition failures as diagnostics
// and shows the decompiled source of the element under the cursor on hover.
package server

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/plexc/decompiler"
	"github.com/chazu/plexc/plan"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "plexc-lsp"

var log = commonlog.GetLogger("plexc.server")

// LspServer serves plan documents over stdio.
type LspServer struct {
	opts decompiler.Options

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server that renders with opts.
func NewLSP(opts decompiler.Options) *LspServer {
	s := &LspServer{
		opts:    opts,
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("plexc LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"<"},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	prefix, inTag := extractTagPrefix(text, params.Position)
	if !inTag {
		return nil, nil
	}
	return completeTag(prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return s.hover(text, params.Position), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	locs := definition(uri, text, word)
	if len(locs) == 0 {
		return nil, nil
	}
	return locs, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return references(uri, text, word), nil
}

// --- Document analysis ---

// document is a parsed plan together with what is needed to map elements
// back to the text they came from.
type document struct {
	text   string
	root   *plan.Element
	parent map[*plan.Element]*plan.Element
}

func parseDocument(text string) (*document, error) {
	root, err := plan.ParseString(text)
	if err != nil {
		return nil, err
	}
	d := &document{text: text, root: root, parent: make(map[*plan.Element]*plan.Element)}
	var walk func(el *plan.Element)
	walk = func(el *plan.Element) {
		for _, c := range el.Children {
			d.parent[c] = el
			walk(c)
		}
	}
	walk(root)
	return d, nil
}

// locate returns the range of the start tag of el, or of its nearest
// ancestor carrying an ID. Elements are found by their ID attribute, which
// the emitter makes unique.
func (d *document) locate(el *plan.Element) (protocol.Range, bool) {
	for ; el != nil; el = d.parent[el] {
		id, ok := el.Attr(plan.AttrID)
		if !ok {
			continue
		}
		at := strings.Index(d.text, plan.AttrID+`="`+id+`"`)
		if at < 0 {
			continue
		}
		start := strings.LastIndexByte(d.text[:at], '<')
		if start < 0 {
			start = at
		}
		end := start + 1 + len(el.Tag)
		return protocol.Range{Start: offsetToPosition(d.text, start), End: offsetToPosition(d.text, end)}, true
	}
	return protocol.Range{}, false
}

// elementAt returns the element with an ID whose start tag is the last one
// to begin before offset.
func (d *document) elementAt(offset int) *plan.Element {
	ids := make(map[string]*plan.Element)
	walkElements(d.root, func(el *plan.Element) {
		if id, ok := el.Attr(plan.AttrID); ok {
			ids[id] = el
		}
	})

	marker := plan.AttrID + `="`
	prefix := d.text[:offset]
	for {
		at := strings.LastIndex(prefix, marker)
		if at < 0 {
			return nil
		}
		val := d.text[at+len(marker):]
		if end := strings.IndexByte(val, '"'); end >= 0 {
			if el, ok := ids[val[:end]]; ok {
				return el
			}
		}
		prefix = prefix[:at]
	}
}

var xmlLine = regexp.MustCompile(`line (\d+)`)

// analyze returns the diagnostics for one document: an XML error, or the
// first element the decompiler cannot recognize.
func analyze(text string, opts decompiler.Options) []protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := lspName

	d, err := parseDocument(text)
	if err != nil {
		var rng protocol.Range
		if m := xmlLine.FindStringSubmatch(err.Error()); m != nil {
			line, _ := strconv.Atoi(m[1])
			if line > 0 {
				rng.Start.Line = protocol.UInteger(line - 1)
				rng.End.Line = protocol.UInteger(line - 1)
			}
		}
		return []protocol.Diagnostic{{Range: rng, Severity: &severity, Source: &source, Message: err.Error()}}
	}

	_, err = decompiler.Render(d.root, opts)
	if err == nil {
		return nil
	}
	diag := protocol.Diagnostic{Severity: &severity, Source: &source, Message: err.Error()}
	var pe *decompiler.PatternError
	if errors.As(err, &pe) {
		if rng, ok := d.locate(pe.Element); ok {
			diag.Range = rng
		}
	}
	log.Debugf("%s", err)
	return []protocol.Diagnostic{diag}
}

func (s *LspServer) hover(text string, pos protocol.Position) *protocol.Hover {
	d, err := parseDocument(text)
	if err != nil {
		return nil
	}
	el := d.elementAt(positionToOffset(text, pos))
	if el == nil {
		el = d.root
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**<%s>**", el.Tag)
	if line, ok := el.Attr(plan.AttrLineNo); ok {
		col, _ := el.Attr(plan.AttrColNo)
		fmt.Fprintf(&b, " from line %s, column %s", line, col)
	}
	b.WriteString("\n\n")

	src, err := decompiler.Render(el, s.opts)
	if err != nil {
		fmt.Fprintf(&b, "_%s_", err)
	} else {
		b.WriteString("```\n")
		b.WriteString(src)
		b.WriteString("\n```")
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// definition finds the declarations of a variable name.
func definition(uri protocol.DocumentUri, text, name string) []protocol.Location {
	d, err := parseDocument(text)
	if err != nil {
		return nil
	}
	var locs []protocol.Location
	walkElements(d.root, func(el *plan.Element) {
		if el.Tag != plan.TagDeclareVariable && el.Tag != plan.TagDeclareArray {
			return
		}
		if n := el.Child(plan.TagName); n != nil && n.Text == name {
			if rng, ok := d.locate(el); ok {
				locs = append(locs, protocol.Location{URI: uri, Range: rng})
			}
		}
	})
	return locs
}

// references finds the uses of a variable name.
func references(uri protocol.DocumentUri, text, name string) []protocol.Location {
	d, err := parseDocument(text)
	if err != nil {
		return nil
	}
	var locs []protocol.Location
	walkElements(d.root, func(el *plan.Element) {
		use := plan.IsVariableTag(el.Tag) && el.Text == name
		if el.Tag == plan.TagArrayElement {
			n := el.Child(plan.TagName)
			use = n != nil && n.Text == name
		}
		if !use {
			return
		}
		if rng, ok := d.locate(el); ok {
			locs = append(locs, protocol.Location{URI: uri, Range: rng})
		}
	})
	return locs
}

func walkElements(el *plan.Element, fn func(*plan.Element)) {
	fn(el)
	for _, c := range el.Children {
		walkElements(c, fn)
	}
}

// completionTags lists the element tags offered after '<'.
var completionTags = func() []string {
	tags := []string{
		plan.TagPlan, plan.TagNode, plan.TagNodeID, plan.TagSequence, plan.TagConcurrence,
		plan.TagVariableDeclarations, plan.TagDeclareVariable, plan.TagDeclareArray,
		plan.TagName, plan.TagType, plan.TagMaxSize, plan.TagInitialValue,
		plan.TagDo, plan.TagWhile, plan.TagAction, plan.TagCondition,
		plan.TagOnCommand, plan.TagParameters, plan.TagAssignment,
		plan.TagLookupNow, plan.TagArguments, plan.TagArrayElement, plan.TagIndex, plan.TagFunctionCall,
		plan.TagBooleanValue, plan.TagIntegerValue, plan.TagRealValue, plan.TagStringValue,
		plan.TagBooleanVariable, plan.TagIntegerVariable, plan.TagRealVariable,
		plan.TagStringVariable, plan.TagArrayVariable,
		plan.TagBooleanRHS, plan.TagNumericRHS, plan.TagStringRHS, plan.TagArrayRHS,
	}
	for tag := range plan.OperatorTags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}()

func completeTag(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	lower := strings.ToLower(prefix)
	for _, tag := range completionTags {
		if !strings.HasPrefix(strings.ToLower(tag), lower) {
			continue
		}
		kind := protocol.CompletionItemKindKeyword
		detail := "element"
		if sym, ok := plan.OperatorTags[tag]; ok {
			kind = protocol.CompletionItemKindOperator
			detail = "operator " + sym
		}
		tagCopy := tag
		items = append(items, protocol.CompletionItem{
			Label:      tag,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &tagCopy,
		})
	}
	return items
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := analyze(text, s.opts)
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// --- Text position helpers ---

func offsetToPosition(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	line := strings.Count(text[:offset], "\n")
	col := offset - (strings.LastIndexByte(text[:offset], '\n') + 1)
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

func positionToOffset(text string, pos protocol.Position) int {
	offset := 0
	for i := 0; i < int(pos.Line); i++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return len(text)
		}
		offset += nl + 1
	}
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		end = len(text) - offset
	}
	if col := int(pos.Character); col < end {
		return offset + col
	}
	return offset + end
}

// extractTagPrefix returns the partial tag name before the cursor and
// whether the cursor is inside a start tag name.
func extractTagPrefix(text string, pos protocol.Position) (string, bool) {
	offset := positionToOffset(text, pos)
	start := offset
	for start > 0 && isNameChar(rune(text[start-1])) {
		start--
	}
	if start == 0 || text[start-1] != '<' {
		return "", false
	}
	return text[start:offset], true
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Find start
	start := col
	for start > 0 && isNameChar(rune(line[start-1])) {
		start--
	}

	// Find end
	end := col
	for end < len(line) && isNameChar(rune(line[end])) {
		end++
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func isNameChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func boolPtr(b bool) *bool {
	return &b
}
