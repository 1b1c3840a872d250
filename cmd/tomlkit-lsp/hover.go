package main

import (
	"context"

	"github.com/signadot/tomlkit/hover"
	"go.lsp.dev/protocol"
)

func (s *Server) Hover(ctx context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	d := s.docs.get(string(params.TextDocument.URI))
	if d == nil {
		return nil, nil
	}
	off := offset(d.tree.Lines, params.Position)
	c, ok := hover.Find(ctx, d.tree, s.schemaContext(ctx, d), off, s.options())
	if !ok {
		return nil, nil
	}
	r := lspRange(d.tree.Lines, c.Range)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: c.Markdown(),
		},
		Range: &r,
	}, nil
}
