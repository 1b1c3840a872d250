package main

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/signadot/tomlkit/completion"
	"github.com/signadot/tomlkit/config"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/text"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string", "title": "Name"},
		"deps": {"type": "object", "x-tombi-table-keys-order": "ascending"}
	}
}`

func newTestServer(t *testing.T, initOpts any) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, data string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("schema.json", testSchema)
	write(config.FileName, `
[schema]
catalog = []
offline = true
cache-dir = ""

[[schemas]]
path = "schema.json"
include = ["app.toml"]
`)
	s := newServer(&ServeConfig{Config: filepath.Join(dir, config.FileName)}, prometheus.NewRegistry())
	_, err := s.Initialize(context.Background(), &protocol.InitializeParams{InitializationOptions: initOpts})
	if err != nil {
		t.Fatal(err)
	}
	return s, string(uri.File(filepath.Join(dir, "app.toml")))
}

func open(t *testing.T, s *Server, u, content string) *document {
	t.Helper()
	err := s.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: protocol.DocumentURI(u), LanguageID: "toml", Version: 1, Text: content},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s.docs.get(u)
}

func TestDiagnostics(t *testing.T) {
	s, u := newTestServer(t, nil)
	d := open(t, s, u, "name = 1\n")
	got := s.validateDocument(context.Background(), d)
	if len(got) != 1 {
		t.Fatalf("got %v", got)
	}
	want := protocol.Range{Start: protocol.Position{Line: 0, Character: 7}, End: protocol.Position{Line: 0, Character: 8}}
	if diff := cmp.Diff(want, got[0].Range); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if got[0].Severity != protocol.DiagnosticSeverityError || got[0].Source != lsName {
		t.Errorf("got %+v", got[0])
	}
}

func TestRuleOverrides(t *testing.T) {
	s, u := newTestServer(t, map[string]any{"rules": map[string]any{"type-mismatch": "warn"}})
	d := open(t, s, u, "name = 1\n")
	got := s.validateDocument(context.Background(), d)
	if len(got) != 1 || got[0].Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("got %v", got)
	}
	if _, err := parseInitOptions(map[string]any{"rules": "x"}); err == nil {
		t.Error("expected an error")
	}
}

func TestHover(t *testing.T) {
	s, u := newTestServer(t, nil)
	open(t, s, u, "name = \"x\"\n")
	h, err := s.Hover(context.Background(), &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(u)},
			Position:     protocol.Position{Line: 0, Character: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if h == nil || !strings.Contains(h.Contents.Value, "Name") {
		t.Fatalf("got %+v", h)
	}
	want := &protocol.Range{Start: protocol.Position{Line: 0, Character: 0}, End: protocol.Position{Line: 0, Character: 4}}
	if diff := cmp.Diff(want, h.Range); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFormatting(t *testing.T) {
	s, u := newTestServer(t, nil)
	src := "name = \"x\"\n[deps]\nb = \"1\"\na = \"2\"\n"
	d := open(t, s, u, src)
	edits, err := s.Formatting(context.Background(), &protocol.DocumentFormattingParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(u)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(edits) == 0 {
		t.Fatal("no edits")
	}
	got := src
	for _, e := range slices.Backward(edits) {
		start, end := offset(d.tree.Lines, e.Range.Start), offset(d.tree.Lines, e.Range.End)
		got = got[:start] + e.NewText + got[end:]
	}
	want := "name = \"x\"\n[deps]\na = \"2\"\nb = \"1\"\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestApplyChanges(t *testing.T) {
	tree := doctree.Load([]byte("a = \"é\"\nb = 2\n"))
	got := applyChanges(tree, []protocol.TextDocumentContentChangeEvent{
		{Range: protocol.Range{Start: protocol.Position{Line: 0, Character: 5}, End: protocol.Position{Line: 0, Character: 6}}, Text: "x"},
		{Range: protocol.Range{Start: protocol.Position{Line: 1, Character: 4}, End: protocol.Position{Line: 1, Character: 5}}, Text: "3"},
	})
	if want := "a = \"x\"\nb = 3\n"; got != want {
		t.Errorf("got %q want %q", got, want)
	}
	if got := applyChanges(tree, []protocol.TextDocumentContentChangeEvent{{Text: "c = 1\n"}}); got != "c = 1\n" {
		t.Errorf("got %q", got)
	}
}

func TestLSPDiagnosticsUTF16(t *testing.T) {
	src := []byte("s = \"😀\" # x\n")
	lines := text.NewLineIndex(src)
	ds := lspDiagnostics(lines, []diagnostic.Diagnostic{{
		Kind:  diagnostic.Deprecated,
		Level: diagnostic.LevelWarn,
		Range: text.Range{Start: 4, End: 10},
	}})
	want := protocol.Range{Start: protocol.Position{Line: 0, Character: 4}, End: protocol.Position{Line: 0, Character: 8}}
	if diff := cmp.Diff(want, ds[0].Range); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if len(ds[0].Tags) != 1 || ds[0].Severity != protocol.DiagnosticSeverityWarning {
		t.Errorf("got %+v", ds[0])
	}
}

func TestCompletionItem(t *testing.T) {
	lines := text.NewLineIndex([]byte("tags = [\"a\" ]\n"))
	ci := lspCompletionItem(lines, completion.Item{
		Label:    `"b"`,
		Kind:     completion.KindString,
		Priority: completion.PriorityEnum,
		Edit: &completion.Edit{
			TextEdit:   completion.TextEdit{Range: text.Range{Start: 12, End: 12}, NewText: `${0:"b"}`},
			Snippet:    true,
			Additional: []completion.TextEdit{{Range: text.Range{Start: 11, End: 11}, NewText: ","}},
		},
	})
	if ci.Kind != protocol.CompletionItemKindEnumMember || ci.InsertTextFormat != protocol.InsertTextFormatSnippet {
		t.Errorf("got %+v", ci)
	}
	if ci.SortText != completion.PriorityEnum.SortText(`"b"`) {
		t.Errorf("sort text %q", ci.SortText)
	}
	if ci.TextEdit == nil || ci.TextEdit.Range.Start.Character != 12 || len(ci.AdditionalTextEdits) != 1 {
		t.Errorf("got %+v", ci)
	}
}

func TestSemanticTokens(t *testing.T) {
	doc := doctree.Load([]byte("[tool]\nname = \"x\"\nok = [true, 1]\n"))
	got := encodeSemanticTokens(doc.Lines, collectSemanticTokens(doc), nil)
	want := []uint32{
		0, 1, 4, propertyToken, definitionModifier,
		1, 0, 4, propertyToken, 0,
		0, 7, 3, stringToken, 0,
		1, 0, 2, propertyToken, 0,
		0, 6, 4, keywordToken, 0,
		0, 6, 1, numberToken, 0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	r := text.Range{Start: 7, End: 17}
	if got := encodeSemanticTokens(doc.Lines, collectSemanticTokens(doc), &r); len(got) != 10 {
		t.Errorf("range got %v", got)
	}
}
