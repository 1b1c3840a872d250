package schema

import (
	"strings"

	"github.com/signadot/tomlkit/doctree"
)

type Type int

const (
	NullType Type = iota
	BooleanType
	IntegerType
	FloatType
	StringType
	OffsetDateTimeType
	LocalDateTimeType
	LocalDateType
	LocalTimeType
	ArrayType
	TableType
	OneOfType
	AnyOfType
	AllOfType
)

func (t Type) String() string {
	switch t {
	case NullType:
		return "Null"
	case BooleanType:
		return "Boolean"
	case IntegerType:
		return "Integer"
	case FloatType:
		return "Float"
	case StringType:
		return "String"
	case OffsetDateTimeType:
		return "OffsetDateTime"
	case LocalDateTimeType:
		return "LocalDateTime"
	case LocalDateType:
		return "LocalDate"
	case LocalTimeType:
		return "LocalTime"
	case ArrayType:
		return "Array"
	case TableType:
		return "Table"
	case OneOfType:
		return "OneOf"
	case AnyOfType:
		return "AnyOf"
	case AllOfType:
		return "AllOf"
	}
	return "<unknown type>"
}

// IsComposition reports whether t is oneOf, anyOf or allOf.
func (t Type) IsComposition() bool {
	return t == OneOfType || t == AnyOfType || t == AllOfType
}

// Accepts reports whether a document value of kind k has the type t
// describes. Integers are accepted where floats are expected.
func (t Type) Accepts(k doctree.Kind) bool {
	switch t {
	case BooleanType:
		return k == doctree.Boolean
	case IntegerType:
		return k == doctree.Integer
	case FloatType:
		return k == doctree.Float || k == doctree.Integer
	case StringType:
		return k == doctree.String
	case OffsetDateTimeType:
		return k == doctree.OffsetDateTime
	case LocalDateTimeType:
		return k == doctree.LocalDateTime
	case LocalDateType:
		return k == doctree.LocalDate
	case LocalTimeType:
		return k == doctree.LocalTime
	case ArrayType:
		return k == doctree.Array
	case TableType:
		return k == doctree.Table
	}
	return false
}

// TypeOfKind maps a document value kind to the schema type describing it.
func TypeOfKind(k doctree.Kind) Type {
	switch k {
	case doctree.Boolean:
		return BooleanType
	case doctree.Integer:
		return IntegerType
	case doctree.Float:
		return FloatType
	case doctree.String:
		return StringType
	case doctree.OffsetDateTime:
		return OffsetDateTimeType
	case doctree.LocalDateTime:
		return LocalDateTimeType
	case doctree.LocalDate:
		return LocalDateType
	case doctree.LocalTime:
		return LocalTimeType
	case doctree.Array:
		return ArrayType
	case doctree.Table:
		return TableType
	}
	return NullType
}

// ValueType is the presentation type of a schema, such as "String" or
// "(Integer ^ String)?". Composition types carry their members in Types.
type ValueType struct {
	Type  Type
	Types []ValueType
}

func Simple(t Type) ValueType { return ValueType{Type: t} }

func (v ValueType) Equal(o ValueType) bool {
	if v.Type != o.Type || len(v.Types) != len(o.Types) {
		return false
	}
	for i := range v.Types {
		if !v.Types[i].Equal(o.Types[i]) {
			return false
		}
	}
	return true
}

// IsNullable reports whether v admits a missing value.
func (v ValueType) IsNullable() bool {
	switch v.Type {
	case NullType:
		return true
	case OneOfType, AnyOfType:
		for _, t := range v.Types {
			if t.IsNullable() {
				return true
			}
		}
		return false
	case AllOfType:
		for _, t := range v.Types {
			if !t.IsNullable() {
				return false
			}
		}
		return true
	}
	return false
}

// Simplify flattens nested compositions of the same kind, hoists Null to the
// end of the outermost composition and unwraps single member compositions.
func (v ValueType) Simplify() ValueType {
	if !v.Type.IsComposition() {
		return v
	}
	var (
		flat    []ValueType
		hasNull bool
	)
	add := func(t ValueType) {
		for _, f := range flat {
			if f.Equal(t) {
				return
			}
		}
		flat = append(flat, t)
	}
	for _, m := range v.Types {
		s := m.Simplify()
		switch {
		case s.Type == NullType:
			hasNull = true
		case s.Type == v.Type:
			for _, n := range s.Types {
				if n.Type == NullType {
					hasNull = true
				} else {
					add(n)
				}
			}
		case s.Type.IsComposition():
			var nonNull []ValueType
			for _, n := range s.Types {
				if n.Type == NullType {
					hasNull = true
				} else {
					nonNull = append(nonNull, n)
				}
			}
			switch len(nonNull) {
			case 0:
			case 1:
				add(nonNull[0])
			default:
				add(ValueType{Type: s.Type, Types: nonNull})
			}
		default:
			add(s)
		}
	}
	if hasNull {
		flat = append(flat, Simple(NullType))
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return ValueType{Type: v.Type, Types: flat}
}

func (v ValueType) String() string {
	return v.Simplify().display(true)
}

func (v ValueType) separator() string {
	switch v.Type {
	case OneOfType:
		return " ^ "
	case AnyOfType:
		return " | "
	}
	return " & "
}

func (v ValueType) display(root bool) string {
	if !v.Type.IsComposition() {
		return v.Type.String()
	}
	nullable := false
	parts := make([]string, 0, len(v.Types))
	for _, t := range v.Types {
		if t.Type == NullType {
			nullable = true
			continue
		}
		parts = append(parts, t.display(false))
	}
	joined := strings.Join(parts, v.separator())
	switch {
	case nullable && len(parts) == 1:
		return joined + "?"
	case nullable:
		return "(" + joined + ")?"
	case root || len(parts) == 1:
		return joined
	}
	return "(" + joined + ")"
}
