package main

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/text"
	"github.com/signadot/tomlkit/validate"
	"go.lsp.dev/protocol"
)

type documentStore struct {
	mu   sync.RWMutex
	docs map[string]*document
}

type document struct {
	uri string
	// name is the file path used to associate schemas, empty for documents
	// that are not files.
	name    string
	version int32
	tree    *doctree.Document
}

func (ds *documentStore) get(uri string) *document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.docs[uri]
}

func (ds *documentStore) put(uri string, content string, version int32) *document {
	d := &document{
		uri:     uri,
		name:    filename(uri),
		version: version,
		tree:    doctree.Load([]byte(content)),
	}
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.docs[uri] = d
	return d
}

func (ds *documentStore) remove(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.docs, uri)
}

func (ds *documentStore) all() []*document {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	res := make([]*document, 0, len(ds.docs))
	for _, d := range ds.docs {
		res = append(res, d)
	}
	slices.SortFunc(res, func(a, b *document) int { return strings.Compare(a.uri, b.uri) })
	return res
}

func (s *Server) publishDiagnostics(ctx context.Context, d *document) {
	diagnostics := s.validateDocument(ctx, d)
	if s.conn == nil {
		return
	}
	err := s.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(d.uri),
		Version:     uint32(d.version),
		Diagnostics: diagnostics,
	})
	if err != nil {
		theLog.Warn("publishing diagnostics", "uri", d.uri, "error", err)
	}
}

func (s *Server) validateDocument(ctx context.Context, d *document) []protocol.Diagnostic {
	ds := validate.Document(ctx, d.tree, s.schemaContext(ctx, d), s.options())
	return lspDiagnostics(d.tree.Lines, ds)
}

func lspDiagnostics(lines *text.LineIndex, ds []diagnostic.Diagnostic) []protocol.Diagnostic {
	res := make([]protocol.Diagnostic, 0, len(ds))
	for _, d := range ds {
		pd := protocol.Diagnostic{
			Range:    lspRange(lines, d.Range),
			Severity: protocol.DiagnosticSeverityError,
			Code:     d.Code(),
			Source:   lsName,
			Message:  d.Message,
		}
		if d.Level == diagnostic.LevelWarn {
			pd.Severity = protocol.DiagnosticSeverityWarning
		}
		if d.Kind == diagnostic.Deprecated || d.Kind == diagnostic.DeprecatedValue {
			pd.Tags = []protocol.DiagnosticTag{protocol.DiagnosticTagDeprecated}
		}
		res = append(res, pd)
	}
	return res
}

func lspPosition(p text.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Column)}
}

func lspRange(lines *text.LineIndex, r text.Range) protocol.Range {
	start, end := lines.Range(r)
	return protocol.Range{Start: lspPosition(start), End: lspPosition(end)}
}

// offset converts an LSP position to a byte offset.
func offset(lines *text.LineIndex, p protocol.Position) int {
	return lines.Offset(text.Position{Line: int(p.Line), Column: int(p.Character)})
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	d := s.docs.put(string(params.TextDocument.URI), params.TextDocument.Text, params.TextDocument.Version)
	s.publishDiagnostics(ctx, d)
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	d := s.docs.get(string(params.TextDocument.URI))
	if d == nil {
		return nil
	}
	content := applyChanges(d.tree, params.ContentChanges)
	d = s.docs.put(d.uri, content, params.TextDocument.Version)
	s.publishDiagnostics(ctx, d)
	return nil
}

// applyChanges applies content changes in order. A change without a range
// replaces the whole content.
func applyChanges(tree *doctree.Document, changes []protocol.TextDocumentContentChangeEvent) string {
	content := string(tree.Source)
	lines := tree.Lines
	for _, ch := range changes {
		if ch.Range == (protocol.Range{}) && ch.RangeLength == 0 {
			content = ch.Text
		} else {
			start, end := offset(lines, ch.Range.Start), offset(lines, ch.Range.End)
			content = content[:start] + ch.Text + content[end:]
		}
		lines = text.NewLineIndex([]byte(content))
	}
	return content
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	if d := s.docs.get(string(params.TextDocument.URI)); d != nil {
		s.publishDiagnostics(ctx, d)
	}
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.docs.remove(string(params.TextDocument.URI))
	if s.conn != nil {
		return s.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})
	}
	return nil
}
