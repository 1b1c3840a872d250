package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/doctree"
)

// LiteralEqual compares two literals from schema documents.
func LiteralEqual(a, b any) bool {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return float64(x) == y
		}
		return false
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case int64:
			return x == float64(y)
		}
		return false
	case string, bool:
		return a == b
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !LiteralEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y, ok := b.(Object)
		if !ok || len(x) != len(y) {
			return false
		}
		for _, it := range x {
			o, ok := y.Get(it.Key)
			if !ok || !LiteralEqual(it.Value, o) {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}

// MatchesLiteral reports whether the document value v equals the schema
// literal lit. Dates and times compare by their TOML text.
func MatchesLiteral(v *doctree.Value, lit any) bool {
	if v == nil {
		return false
	}
	switch v.Kind {
	case doctree.Boolean:
		b, ok := lit.(bool)
		return ok && b == v.Bool
	case doctree.Integer:
		return LiteralEqual(v.Int, lit)
	case doctree.Float:
		return LiteralEqual(v.Float, lit)
	case doctree.String, doctree.OffsetDateTime, doctree.LocalDateTime, doctree.LocalDate, doctree.LocalTime:
		s, ok := lit.(string)
		return ok && s == v.Literal()
	case doctree.Array:
		l, ok := lit.([]any)
		if !ok || len(l) != len(v.Values) {
			return false
		}
		for i, x := range v.Values {
			if !MatchesLiteral(x, l[i]) {
				return false
			}
		}
		return true
	case doctree.Table:
		o, ok := lit.(Object)
		if !ok || len(o) != len(v.Entries) {
			return false
		}
		for _, it := range o {
			if !MatchesLiteral(v.Get(it.Key), it.Value) {
				return false
			}
		}
		return true
	}
	return false
}

// FormatLiteral renders a schema literal as TOML value text. Strings
// holding dates and times are quoted; use type to render them bare.
func FormatLiteral(lit any) string {
	switch x := lit.(type) {
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		switch {
		case math.IsInf(x, 1):
			return "inf"
		case math.IsInf(x, -1):
			return "-inf"
		case math.IsNaN(x):
			return "nan"
		}
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case string:
		return strconv.Quote(x)
	case []any:
		parts := make([]string, len(x))
		for i, v := range x {
			parts[i] = FormatLiteral(v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Object:
		if len(x) == 0 {
			return "{}"
		}
		parts := make([]string, len(x))
		for i, it := range x {
			parts[i] = accessor.QuoteKey(it.Key) + " = " + FormatLiteral(it.Value)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	return "<unknown literal>"
}

// FormatTyped renders lit for a value of type t, leaving dates and times
// unquoted.
func FormatTyped(lit any, t Type) string {
	if s, ok := lit.(string); ok {
		switch t {
		case OffsetDateTimeType, LocalDateTimeType, LocalDateType, LocalTimeType:
			return s
		}
	}
	return FormatLiteral(lit)
}
