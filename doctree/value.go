package doctree

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/text"
)

type Key struct {
	Name  string
	Raw   string
	Range text.Range
}

type Entry struct {
	Key   *Key
	Value *Value
}

// Value is a node of the document tree. Which fields are meaningful
// depends on Kind. The tree is built once by Load and must be treated as
// read only afterwards.
type Value struct {
	Kind        Kind
	Range       text.Range
	SymbolRange text.Range
	Directives  []*Directive

	Bool       bool
	Int        int64
	Float      float64
	Str        string
	StringKind StringKind
	// Raw is the source text of a literal.
	Raw string

	DateTime      time.Time
	LocalDateTime toml.LocalDateTime
	LocalDate     toml.LocalDate
	LocalTime     toml.LocalTime

	ArrayKind ArrayKind
	Values    []*Value

	TableKind TableKind
	Entries   []*Entry
	index     map[string]int
}

func NewTable(kind TableKind, r text.Range) *Value {
	return &Value{Kind: Table, TableKind: kind, Range: r, SymbolRange: r, index: map[string]int{}}
}

func NewArray(kind ArrayKind, r text.Range) *Value {
	return &Value{Kind: Array, ArrayKind: kind, Range: r, SymbolRange: r}
}

func FromBool(b bool) *Value {
	return &Value{Kind: Boolean, Bool: b, Raw: strconv.FormatBool(b)}
}

func FromInt(i int64) *Value {
	return &Value{Kind: Integer, Int: i, Raw: strconv.FormatInt(i, 10)}
}

func FromFloat(f float64) *Value {
	return &Value{Kind: Float, Float: f, Raw: formatFloat(f)}
}

func FromString(s string) *Value {
	return &Value{Kind: String, Str: s, StringKind: BasicString, Raw: quoteBasic(s)}
}

// Get returns the value stored under key in a table.
func (v *Value) Get(key string) *Value {
	if e := v.Entry(key); e != nil {
		return e.Value
	}
	return nil
}

func (v *Value) Entry(key string) *Entry {
	if v == nil || v.Kind != Table {
		return nil
	}
	i, ok := v.index[key]
	if !ok {
		return nil
	}
	return v.Entries[i]
}

func (v *Value) Keys() []string {
	res := make([]string, len(v.Entries))
	for i, e := range v.Entries {
		res[i] = e.Key.Name
	}
	return res
}

// Len returns the number of entries of a table or elements of an array.
func (v *Value) Len() int {
	switch v.Kind {
	case Table:
		return len(v.Entries)
	case Array:
		return len(v.Values)
	}
	return 0
}

// Lookup follows path from v. Missing steps yield nil.
func (v *Value) Lookup(path accessor.Path) *Value {
	cur := v
	for _, a := range path {
		if cur == nil {
			return nil
		}
		switch {
		case a.Field != nil:
			cur = cur.Get(*a.Field)
		case a.Index != nil:
			if cur.Kind != Array || *a.Index >= len(cur.Values) {
				return nil
			}
			cur = cur.Values[*a.Index]
		default:
			return nil
		}
	}
	return cur
}

func (v *Value) appendEntry(k *Key, val *Value) {
	if v.index == nil {
		v.index = map[string]int{}
	}
	v.index[k.Name] = len(v.Entries)
	v.Entries = append(v.Entries, &Entry{Key: k, Value: val})
}

// Literal returns the Go value of a scalar: bool, int64, float64 or
// string. Date and time values are returned in their TOML text form.
func (v *Value) Literal() any {
	switch v.Kind {
	case Boolean:
		return v.Bool
	case Integer:
		return v.Int
	case Float:
		return v.Float
	case String:
		return v.Str
	case OffsetDateTime, LocalDateTime, LocalDate, LocalTime:
		return v.dateText()
	}
	return nil
}

// LiteralKey is a comparable representation of a scalar used to detect
// equal literals. It is empty for arrays, tables and incomplete values.
func (v *Value) LiteralKey() string {
	switch v.Kind {
	case Boolean:
		return "Boolean:" + strconv.FormatBool(v.Bool)
	case Integer:
		return "Integer:" + strconv.FormatInt(v.Int, 10)
	case Float:
		return "Float:" + formatFloat(v.Float)
	case String:
		return "String:" + v.Str
	case OffsetDateTime, LocalDateTime, LocalDate, LocalTime:
		return v.Kind.String() + ":" + v.dateText()
	}
	return ""
}

// Any converts the subtree rooted at v to plain Go values.
func (v *Value) Any() any {
	switch v.Kind {
	case Array:
		res := make([]any, len(v.Values))
		for i, x := range v.Values {
			res[i] = x.Any()
		}
		return res
	case Table:
		res := make(map[string]any, len(v.Entries))
		for _, e := range v.Entries {
			res[e.Key.Name] = e.Value.Any()
		}
		return res
	}
	return v.Literal()
}

// Display renders v as TOML text, used in messages.
func (v *Value) Display() string {
	switch v.Kind {
	case String:
		return quoteBasic(v.Str)
	case Boolean:
		return strconv.FormatBool(v.Bool)
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return formatFloat(v.Float)
	case OffsetDateTime, LocalDateTime, LocalDate, LocalTime:
		return v.dateText()
	case Array:
		parts := make([]string, len(v.Values))
		for i, x := range v.Values {
			parts[i] = x.Display()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Table:
		parts := make([]string, len(v.Entries))
		for i, e := range v.Entries {
			parts[i] = accessor.QuoteKey(e.Key.Name) + " = " + e.Value.Display()
		}
		if len(parts) == 0 {
			return "{}"
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	return "<incomplete>"
}

func (v *Value) dateText() string {
	if v.Raw != "" {
		return v.Raw
	}
	switch v.Kind {
	case OffsetDateTime:
		return v.DateTime.Format(time.RFC3339Nano)
	case LocalDateTime:
		return v.LocalDateTime.String()
	case LocalDate:
		return v.LocalDate.String()
	case LocalTime:
		return v.LocalTime.String()
	}
	return ""
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func quoteBasic(s string) string {
	return strconv.Quote(s)
}
