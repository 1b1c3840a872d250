package completion

import (
	"fmt"
	"strings"

	"github.com/signadot/tomlkit/schema"
	"github.com/signadot/tomlkit/text"
)

type Kind int

const (
	KindBoolean Kind = iota
	KindInteger
	KindFloat
	KindString
	KindOffsetDateTime
	KindLocalDateTime
	KindLocalDate
	KindLocalTime
	KindArray
	KindTable
	KindKey
	KindMagicTrigger
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindOffsetDateTime:
		return "offset-date-time"
	case KindLocalDateTime:
		return "local-date-time"
	case KindLocalDate:
		return "local-date"
	case KindLocalTime:
		return "local-time"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	case KindKey:
		return "key"
	case KindMagicTrigger:
		return "magic-trigger"
	}
	return "<unknown kind>"
}

func kindOf(t schema.Type) Kind {
	switch t {
	case schema.BooleanType:
		return KindBoolean
	case schema.IntegerType:
		return KindInteger
	case schema.FloatType:
		return KindFloat
	case schema.OffsetDateTimeType:
		return KindOffsetDateTime
	case schema.LocalDateTimeType:
		return KindLocalDateTime
	case schema.LocalDateType:
		return KindLocalDate
	case schema.LocalTimeType:
		return KindLocalTime
	case schema.ArrayType:
		return KindArray
	case schema.TableType:
		return KindTable
	}
	return KindString
}

// Priority orders items. Lower sorts first.
type Priority int

const (
	PriorityDefault Priority = 50 + iota
	PriorityConst
	PriorityEnum
	PriorityKey
	PriorityOptionalKey
	PriorityAdditionalKey
	PriorityTypeHint
	PriorityTypeHintKey
	PriorityTypeHintTrue
	PriorityTypeHintFalse
)

// SortText is the prefix clients sort items by.
func (p Priority) SortText(label string) string {
	return fmt.Sprintf("%d_%s", int(p), label)
}

// Item is one completion candidate.
type Item struct {
	Label         string
	Kind          Kind
	Priority      Priority
	Detail        string
	Documentation string
	// FilterText is matched against what was typed instead of Label.
	FilterText string
	// Edit is nil when inserting Label at the cursor is enough.
	Edit       *Edit
	SchemaURI  string
	Deprecated bool
	Required   bool
	// Preselect marks a schema default.
	Preselect bool
}

type TextEdit struct {
	Range   text.Range
	NewText string
}

// Edit is the structured edit of an item: the main replacement, whether its
// text is a snippet with $1/$0 placeholders, and edits elsewhere such as
// removing a trigger character or adding a comma.
type Edit struct {
	TextEdit
	Snippet    bool
	Additional []TextEdit
}

type HintKind int

const (
	NoHint HintKind = iota
	// DotTrigger: a key followed by a dot, as in "tool.".
	DotTrigger
	// EqualTrigger: a key and "=" with no value yet.
	EqualTrigger
	InArray
	InTableHeader
)

func (k HintKind) String() string {
	switch k {
	case NoHint:
		return "none"
	case DotTrigger:
		return "dot-trigger"
	case EqualTrigger:
		return "equal-trigger"
	case InArray:
		return "in-array"
	case InTableHeader:
		return "in-table-header"
	}
	return "<unknown hint>"
}

// Hint tells how the text around the cursor shapes inserted text.
type Hint struct {
	Kind HintKind
	// Trigger is the range of the dot or equal sign to remove.
	Trigger text.Range
	// LeadingComma and TrailingComma ask for commas around a new array
	// element.
	LeadingComma  bool
	TrailingComma bool
}

func escapeSnippet(s string) string {
	return strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`).Replace(s)
}

func (h Hint) removeTrigger() []TextEdit {
	return []TextEdit{{Range: h.Trigger}}
}

func (h Hint) commas(at int) []TextEdit {
	if h.LeadingComma {
		return []TextEdit{{Range: text.Range{Start: at, End: at}, NewText: ","}}
	}
	return nil
}

func (h Hint) trailing(s string) string {
	if h.TrailingComma {
		return s + ",$0"
	}
	return s + "$0"
}

// literalEdit inserts a scalar literal.
func literalEdit(label string, r text.Range, h Hint) *Edit {
	switch h.Kind {
	case DotTrigger, EqualTrigger:
		return &Edit{
			TextEdit:   TextEdit{Range: r, NewText: " = " + label},
			Additional: h.removeTrigger(),
		}
	case InArray:
		nt := "${0:" + escapeSnippet(label) + "}"
		if h.TrailingComma {
			nt = "${1:" + escapeSnippet(label) + "},$0"
		}
		return &Edit{TextEdit: TextEdit{Range: r, NewText: nt}, Snippet: true, Additional: h.commas(r.Start)}
	}
	return nil
}

// shapeEdit inserts an empty string, array or inline table given as open
// and close, with the cursor placed inside.
func shapeEdit(open, closing string, r text.Range, h Hint) *Edit {
	switch h.Kind {
	case DotTrigger, EqualTrigger:
		return &Edit{
			TextEdit:   TextEdit{Range: r, NewText: " = " + open + "$1" + closing + "$0"},
			Snippet:    true,
			Additional: h.removeTrigger(),
		}
	case InArray:
		return &Edit{
			TextEdit:   TextEdit{Range: r, NewText: h.trailing(open + "$1" + closing)},
			Snippet:    true,
			Additional: h.commas(r.Start),
		}
	case InTableHeader:
		return nil
	}
	return &Edit{TextEdit: TextEdit{Range: r, NewText: open + "$1" + closing + "$0"}, Snippet: true}
}

// keyEdit inserts a declared key.
func keyEdit(key string, r text.Range, h Hint) *Edit {
	k := escapeSnippet(key)
	switch h.Kind {
	case InArray:
		return &Edit{
			TextEdit:   TextEdit{Range: r, NewText: h.trailing("{ " + k + "$1 }")},
			Snippet:    true,
			Additional: h.commas(r.Start),
		}
	case EqualTrigger:
		return &Edit{
			TextEdit:   TextEdit{Range: r, NewText: " = { " + k + "$1 }$0"},
			Snippet:    true,
			Additional: h.removeTrigger(),
		}
	case DotTrigger:
		return &Edit{
			TextEdit:   TextEdit{Range: r, NewText: "." + key},
			Additional: h.removeTrigger(),
		}
	}
	return nil
}

// placeholderEdit inserts a key to be named by the user.
func placeholderEdit(name string, r text.Range, h Hint) *Edit {
	p := "${1:" + escapeSnippet(name) + "}"
	switch h.Kind {
	case InArray:
		return &Edit{
			TextEdit:   TextEdit{Range: r, NewText: h.trailing("{ " + p + " }")},
			Snippet:    true,
			Additional: h.commas(r.Start),
		}
	case EqualTrigger:
		return &Edit{
			TextEdit:   TextEdit{Range: r, NewText: " = { " + p + " }$0"},
			Snippet:    true,
			Additional: h.removeTrigger(),
		}
	case DotTrigger:
		return &Edit{
			TextEdit:   TextEdit{Range: r, NewText: ".${0:" + escapeSnippet(name) + "}"},
			Snippet:    true,
			Additional: h.removeTrigger(),
		}
	}
	return &Edit{TextEdit: TextEdit{Range: r, NewText: "${0:" + escapeSnippet(name) + "}"}, Snippet: true}
}

func magicTriggers(key string, at int, uri string) []Item {
	res := make([]Item, 0, 2)
	for _, t := range []struct{ trigger, detail string }{{".", "Dot Trigger"}, {"=", "Equal Trigger"}} {
		res = append(res, Item{
			Label:      t.trigger,
			Kind:       KindMagicTrigger,
			Priority:   PriorityTypeHint,
			Detail:     t.detail,
			FilterText: key + t.trigger,
			Edit:       &Edit{TextEdit: TextEdit{Range: text.Range{Start: at, End: at}, NewText: t.trigger}},
			SchemaURI:  uri,
		})
	}
	return res
}

// dedup keeps one item per label, the one with the lowest priority, and
// orders the result by priority.
func dedup(items []Item) []Item {
	index := map[string]int{}
	var res []Item
	for _, it := range items {
		i, ok := index[it.Label]
		if !ok {
			index[it.Label] = len(res)
			res = append(res, it)
			continue
		}
		if it.Priority < res[i].Priority {
			res[i] = it
		}
	}
	sortItems(res)
	return res
}
