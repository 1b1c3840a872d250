package main

import (
	"bytes"
	"context"
	"errors"

	"github.com/signadot/tomlkit/edit"
	"github.com/signadot/tomlkit/text"
	"go.lsp.dev/protocol"
)

func (s *Server) Formatting(ctx context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	d := s.docs.get(string(params.TextDocument.URI))
	if d == nil {
		return nil, nil
	}
	src := d.tree.Source
	formatted, err := edit.Format(ctx, src, s.schemaContext(ctx, d), s.options())
	if err != nil {
		// Documents that do not parse are left alone.
		if !errors.Is(err, edit.ErrParse) {
			theLog.Warn("formatting", "uri", d.uri, "error", err)
		}
		return nil, nil
	}
	if bytes.Equal(formatted, src) {
		return []protocol.TextEdit{}, nil
	}
	changes := edit.Minimal(src, edit.Change{
		Kind:  edit.Replace,
		Range: text.Range{Start: 0, End: len(src)},
		Text:  string(formatted),
	})
	res := make([]protocol.TextEdit, 0, len(changes))
	for _, c := range changes {
		res = append(res, protocol.TextEdit{Range: lspRange(d.tree.Lines, c.Range), NewText: c.Text})
	}
	return res, nil
}
