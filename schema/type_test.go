package schema

import (
	"testing"

	"github.com/signadot/tomlkit/doctree"
)

func TestValueTypeString(t *testing.T) {
	oneOf := func(ts ...ValueType) ValueType { return ValueType{Type: OneOfType, Types: ts} }
	anyOf := func(ts ...ValueType) ValueType { return ValueType{Type: AnyOfType, Types: ts} }
	allOf := func(ts ...ValueType) ValueType { return ValueType{Type: AllOfType, Types: ts} }
	tests := []struct {
		name string
		vt   ValueType
		want string
	}{
		{"simple", Simple(StringType), "String"},
		{"one of", oneOf(Simple(StringType), Simple(IntegerType)), "String ^ Integer"},
		{"nullable", oneOf(Simple(StringType), Simple(NullType)), "String?"},
		{"nullable many", anyOf(Simple(NullType), Simple(StringType), Simple(TableType)), "(String | Table)?"},
		{"flatten", oneOf(Simple(StringType), oneOf(Simple(IntegerType), Simple(BooleanType))), "String ^ Integer ^ Boolean"},
		{"nested", anyOf(Simple(StringType), allOf(Simple(TableType), Simple(ArrayType))), "String | (Table & Array)"},
		{"hoisted null", anyOf(Simple(StringType), oneOf(Simple(IntegerType), Simple(NullType))), "(String | Integer)?"},
		{"single", oneOf(Simple(FloatType)), "Float"},
		{"duplicates", anyOf(Simple(FloatType), Simple(FloatType)), "Float"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.vt.String(); got != tc.want {
				t.Errorf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestValueTypeNullable(t *testing.T) {
	if !(ValueType{Type: OneOfType, Types: []ValueType{Simple(StringType), Simple(NullType)}}).IsNullable() {
		t.Error("oneOf with null is nullable")
	}
	if (ValueType{Type: AllOfType, Types: []ValueType{Simple(StringType), Simple(NullType)}}).IsNullable() {
		t.Error("allOf with a non null member is not nullable")
	}
}

func TestAccepts(t *testing.T) {
	if !FloatType.Accepts(doctree.Integer) {
		t.Error("floats accept integers")
	}
	if IntegerType.Accepts(doctree.Float) {
		t.Error("integers do not accept floats")
	}
	if TypeOfKind(doctree.LocalDate) != LocalDateType {
		t.Error("TypeOfKind")
	}
}
