package diagnostic

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/text"
)

// Diagnostic is one finding about a document.
type Diagnostic struct {
	Kind    Kind
	Level   Level
	Message string
	Range   text.Range
	// Key is the table key concerned, for key diagnostics.
	Key string
}

func (d Diagnostic) Code() string { return d.Kind.Code() }

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s[%s] %s: %s", d.Level, d.Kind, d.Range, d.Message)
}

func newDiag(k Kind, r text.Range, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: k, Level: k.DefaultLevel(), Range: r, Message: fmt.Sprintf(format, args...)}
}

func NewKeyRequired(r text.Range, key string) Diagnostic {
	d := newDiag(KeyRequired, r, "%q is required", key)
	d.Key = key
	return d
}

func NewKeyNotAllowed(r text.Range, key string) Diagnostic {
	d := newDiag(KeyNotAllowed, r, "%q is not allowed", key)
	d.Key = key
	return d
}

func NewKeyPattern(r text.Range, key string, patterns []string) Diagnostic {
	p := patterns[0]
	if len(patterns) > 1 {
		parts := make([]string, len(patterns))
		for i, x := range patterns {
			parts[i] = "(" + x + ")"
		}
		p = strings.Join(parts, "|")
	}
	d := newDiag(KeyPattern, r, "key %q must match the pattern `%s`", key, p)
	d.Key = key
	return d
}

func NewTypeMismatch(r text.Range, expected, actual string) Diagnostic {
	return newDiag(TypeMismatch, r, "expected a value of type %s, but found %s", expected, actual)
}

func NewConst(r text.Range, expected, actual string) Diagnostic {
	return newDiag(Const, r, "the value must be the const value %s, but found %s", expected, actual)
}

func NewEnumerate(r text.Range, expected []string, actual string) Diagnostic {
	return newDiag(Enumerate, r, "the value must be one of [%s], but found %s", strings.Join(expected, ", "), actual)
}

// NewIntegerBound reports a failed integer bound check. k must be one of
// the integer bound kinds.
func NewIntegerBound(k Kind, r text.Range, bound, actual int64) Diagnostic {
	return newDiag(k, r, boundFormat(k), strconv.FormatInt(bound, 10), strconv.FormatInt(actual, 10))
}

func NewFloatBound(k Kind, r text.Range, bound, actual float64) Diagnostic {
	return newDiag(k, r, boundFormat(k), formatFloat(bound), formatFloat(actual))
}

func boundFormat(k Kind) string {
	switch k {
	case IntegerMaximum, FloatMaximum:
		return "the value must be ≤ %s, but found %s"
	case IntegerMinimum, FloatMinimum:
		return "the value must be ≥ %s, but found %s"
	case IntegerExclusiveMaximum, FloatExclusiveMaximum:
		return "the value must be < %s, but found %s"
	case IntegerExclusiveMinimum, FloatExclusiveMinimum:
		return "the value must be > %s, but found %s"
	case IntegerMultipleOf, FloatMultipleOf:
		return "the value must be a multiple of %s, but found %s"
	}
	return "bound %s violated by %s"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func NewStringMaxLength(r text.Range, max, actual int) Diagnostic {
	return newDiag(StringMaxLength, r, "the length must be ≤ %d, but found %d", max, actual)
}

func NewStringMinLength(r text.Range, min, actual int) Diagnostic {
	return newDiag(StringMinLength, r, "the length must be ≥ %d, but found %d", min, actual)
}

func NewStringFormat(r text.Range, format, actual string) Diagnostic {
	return newDiag(StringFormat, r, "%s is not a valid `%s` format", actual, format)
}

func NewStringPattern(r text.Range, pattern, actual string) Diagnostic {
	return newDiag(StringPattern, r, "%s does not match the pattern `%s`", actual, pattern)
}

func NewArrayMaxValues(r text.Range, max, actual int) Diagnostic {
	return newDiag(ArrayMaxValues, r, "array must contain at most %d values, but found %d", max, actual)
}

func NewArrayMinValues(r text.Range, min, actual int) Diagnostic {
	return newDiag(ArrayMinValues, r, "array must contain at least %d values, but found %d", min, actual)
}

func NewArrayUniqueValues(r text.Range, value string) Diagnostic {
	return newDiag(ArrayUniqueValues, r, "array values must be unique, %s appears more than once", value)
}

func NewTableMaxKeys(r text.Range, max, actual int) Diagnostic {
	return newDiag(TableMaxKeys, r, "table must contain at most %d keys, but found %d", max, actual)
}

func NewTableMinKeys(r text.Range, min, actual int) Diagnostic {
	return newDiag(TableMinKeys, r, "table must contain at least %d keys, but found %d", min, actual)
}

func NewDeprecated(r text.Range, path string) Diagnostic {
	return newDiag(Deprecated, r, "`%s` is deprecated", path)
}

func NewDeprecatedValue(r text.Range, path, value string) Diagnostic {
	return newDiag(DeprecatedValue, r, "`%s = %s` is deprecated", path, value)
}

func NewStrictAdditionalProperties(r text.Range, path, key, schemaURI string) Diagnostic {
	d := newDiag(StrictAdditionalProperties, r,
		"in strict mode, `%s` does not allow the key %q; declare \"additionalProperties\" where `%s` is defined in %s, or set lint.strict = false",
		path, key, path, schemaURI)
	d.Key = key
	return d
}

func NewOneOfMultipleMatch(r text.Range, valid, total int) Diagnostic {
	return newDiag(OneOfMultipleMatch, r, "the value matches %d of %d oneOf schemas, but must match exactly one", valid, total)
}

func NewNotSchema(r text.Range, actual string) Diagnostic {
	return newDiag(NotSchema, r, "%s must not match the `not` schema", actual)
}

// FromDocError converts an error recorded while loading a document.
func FromDocError(e *doctree.Error) Diagnostic {
	var k Kind
	switch {
	case errors.Is(e, doctree.ErrConflictArray):
		k = ConflictArray
	case errors.Is(e, doctree.ErrConflictTable):
		k = ConflictTable
	case errors.Is(e, doctree.ErrDuplicateKey):
		k = DuplicateKey
	default:
		k = ParseError
	}
	d := Diagnostic{Kind: k, Level: LevelError, Range: e.Range, Message: e.Error(), Key: e.Key}
	return d
}

// Normalize orders diagnostics by range and drops duplicates and those
// turned off.
func Normalize(ds []Diagnostic) []Diagnostic {
	res := make([]Diagnostic, 0, len(ds))
	for _, d := range ds {
		if d.Level != LevelOff {
			res = append(res, d)
		}
	}
	slices.SortStableFunc(res, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Range.Start, b.Range.Start),
			cmp.Compare(a.Range.End, b.Range.End),
			cmp.Compare(a.Kind, b.Kind),
			strings.Compare(a.Message, b.Message),
		)
	})
	return slices.CompactFunc(res, func(a, b Diagnostic) bool {
		return a.Kind == b.Kind && a.Range == b.Range && a.Message == b.Message
	})
}

// HasErrors reports whether any of ds is at error level.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}
