package main

import (
	"context"

	"github.com/signadot/tomlkit/completion"
	"github.com/signadot/tomlkit/text"
	"go.lsp.dev/protocol"
)

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	d := s.docs.get(string(params.TextDocument.URI))
	if d == nil {
		return nil, nil
	}
	off := offset(d.tree.Lines, params.Position)
	items := completion.Find(ctx, d.tree, s.schemaContext(ctx, d), off, s.options())
	res := &protocol.CompletionList{Items: make([]protocol.CompletionItem, 0, len(items))}
	for _, it := range items {
		res.Items = append(res.Items, lspCompletionItem(d.tree.Lines, it))
	}
	return res, nil
}

func lspCompletionItem(lines *text.LineIndex, it completion.Item) protocol.CompletionItem {
	ci := protocol.CompletionItem{
		Label:      it.Label,
		Kind:       completionKind(it),
		Detail:     it.Detail,
		FilterText: it.FilterText,
		SortText:   it.Priority.SortText(it.Label),
		Preselect:  it.Preselect,
	}
	if it.Documentation != "" {
		ci.Documentation = protocol.MarkupContent{Kind: protocol.Markdown, Value: it.Documentation}
	}
	if it.Deprecated {
		ci.Tags = []protocol.CompletionItemTag{protocol.CompletionItemTagDeprecated}
	}
	if it.Edit == nil {
		return ci
	}
	ci.TextEdit = &protocol.TextEdit{Range: lspRange(lines, it.Edit.Range), NewText: it.Edit.NewText}
	ci.InsertTextFormat = protocol.InsertTextFormatPlainText
	if it.Edit.Snippet {
		ci.InsertTextFormat = protocol.InsertTextFormatSnippet
	}
	for _, e := range it.Edit.Additional {
		ci.AdditionalTextEdits = append(ci.AdditionalTextEdits, protocol.TextEdit{Range: lspRange(lines, e.Range), NewText: e.NewText})
	}
	return ci
}

func completionKind(it completion.Item) protocol.CompletionItemKind {
	switch it.Priority {
	case completion.PriorityConst:
		return protocol.CompletionItemKindConstant
	case completion.PriorityEnum:
		return protocol.CompletionItemKindEnumMember
	}
	switch it.Kind {
	case completion.KindKey:
		return protocol.CompletionItemKindProperty
	case completion.KindTable:
		return protocol.CompletionItemKindStruct
	case completion.KindMagicTrigger:
		return protocol.CompletionItemKindOperator
	case completion.KindBoolean:
		return protocol.CompletionItemKindKeyword
	}
	return protocol.CompletionItemKindValue
}
