package main

import (
	"cmp"
	"context"
	"slices"

	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/text"
	"go.lsp.dev/protocol"
)

var (
	tokenTypes = []protocol.SemanticTokenTypes{
		protocol.SemanticTokenProperty,
		protocol.SemanticTokenString,
		protocol.SemanticTokenNumber,
		protocol.SemanticTokenKeyword,
	}
	tokenModifiers = []protocol.SemanticTokenModifiers{
		protocol.SemanticTokenModifierDefinition,
	}
)

// indices into tokenTypes
const (
	propertyToken uint32 = iota
	stringToken
	numberToken
	keywordToken
)

// definitionModifier marks the keys of table headers.
const definitionModifier uint32 = 1 << 0

type semanticToken struct {
	r         text.Range
	tokenType uint32
	modifiers uint32
}

func valueTokenType(v *doctree.Value) (uint32, bool) {
	switch v.Kind {
	case doctree.String:
		return stringToken, true
	case doctree.Boolean:
		return keywordToken, true
	case doctree.Integer, doctree.Float,
		doctree.OffsetDateTime, doctree.LocalDateTime, doctree.LocalDate, doctree.LocalTime:
		return numberToken, true
	}
	return 0, false
}

func collectKeys(res []semanticToken, keys []*doctree.Key, mods uint32) []semanticToken {
	for _, k := range keys {
		res = append(res, semanticToken{r: k.Range, tokenType: propertyToken, modifiers: mods})
	}
	return res
}

func collectValue(res []semanticToken, v *doctree.Value) []semanticToken {
	if v == nil {
		return res
	}
	if tt, ok := valueTokenType(v); ok {
		return append(res, semanticToken{r: v.Range, tokenType: tt})
	}
	switch v.Kind {
	case doctree.Array:
		if v.ArrayKind != doctree.LiteralArray {
			return res
		}
		for _, x := range v.Values {
			res = collectValue(res, x)
		}
	case doctree.Table:
		if v.TableKind != doctree.InlineTable && v.TableKind != doctree.ParentKey {
			return res
		}
		for _, e := range v.Entries {
			res = collectKeys(res, []*doctree.Key{e.Key}, 0)
			res = collectValue(res, e.Value)
		}
	}
	return res
}

// collectSemanticTokens returns the tokens of doc in source order. Tokens
// spanning lines are left out.
func collectSemanticTokens(doc *doctree.Document) []semanticToken {
	var res []semanticToken
	for _, sec := range doc.Sections {
		switch sec.Kind {
		case doctree.InlineSection:
			continue
		case doctree.TableSection, doctree.ArrayOfTableSection:
			res = collectKeys(res, sec.HeaderKey, definitionModifier)
		}
		for _, kv := range sec.KeyValues {
			res = collectKeys(res, kv.Keys, 0)
			res = collectValue(res, kv.Value)
		}
	}
	slices.SortStableFunc(res, func(a, b semanticToken) int {
		return cmp.Compare(a.r.Start, b.r.Start)
	})
	res = slices.CompactFunc(res, func(a, b semanticToken) bool {
		return a.r.Start == b.r.Start
	})
	return slices.DeleteFunc(res, func(t semanticToken) bool {
		if t.r.Len() <= 0 {
			return true
		}
		l0, _ := doc.Lines.LineCol(t.r.Start)
		l1, _ := doc.Lines.LineCol(t.r.End)
		return l0 != l1
	})
}

// encodeSemanticTokens encodes tokens in the relative form of the protocol,
// keeping those overlapping r, or all of them when r is nil.
func encodeSemanticTokens(lines *text.LineIndex, tokens []semanticToken, r *text.Range) []uint32 {
	data := []uint32{}
	var prevLine, prevChar int
	for _, t := range tokens {
		if r != nil && (t.r.End <= r.Start || t.r.Start >= r.End) {
			continue
		}
		start, end := lines.Range(t.r)
		deltaChar := start.Column
		if start.Line == prevLine {
			deltaChar = start.Column - prevChar
		}
		data = append(data,
			uint32(start.Line-prevLine), uint32(deltaChar),
			uint32(end.Column-start.Column), t.tokenType, t.modifiers)
		prevLine, prevChar = start.Line, start.Column
	}
	return data
}

func (s *Server) SemanticTokensFull(ctx context.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	d := s.docs.get(string(params.TextDocument.URI))
	if d == nil {
		return &protocol.SemanticTokens{Data: []uint32{}}, nil
	}
	tokens := collectSemanticTokens(d.tree)
	return &protocol.SemanticTokens{
		Data: encodeSemanticTokens(d.tree.Lines, tokens, nil),
	}, nil
}

func (s *Server) SemanticTokensRange(ctx context.Context, params *protocol.SemanticTokensRangeParams) (*protocol.SemanticTokens, error) {
	d := s.docs.get(string(params.TextDocument.URI))
	if d == nil {
		return &protocol.SemanticTokens{Data: []uint32{}}, nil
	}
	r := text.Range{
		Start: offset(d.tree.Lines, params.Range.Start),
		End:   offset(d.tree.Lines, params.Range.End),
	}
	tokens := collectSemanticTokens(d.tree)
	return &protocol.SemanticTokens{
		Data: encodeSemanticTokens(d.tree.Lines, tokens, &r),
	}, nil
}
