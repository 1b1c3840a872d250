package descend

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		kind      schema.Type
		valid     []bool
		satisfied bool
		multiple  bool
		chosen    int
	}{
		{"oneOf exactly one", schema.OneOfType, []bool{false, true, false}, true, false, 1},
		{"oneOf two", schema.OneOfType, []bool{true, true, false}, false, true, -1},
		{"oneOf none", schema.OneOfType, []bool{false, false}, false, false, -1},
		{"anyOf first valid", schema.AnyOfType, []bool{false, true, true}, true, false, 1},
		{"anyOf none", schema.AnyOfType, []bool{false}, false, false, -1},
		{"allOf all", schema.AllOfType, []bool{true, true}, true, false, -1},
		{"allOf one fails", schema.AllOfType, []bool{true, false}, false, false, -1},
		{"no members", schema.OneOfType, nil, true, false, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Evaluate(tc.kind, tc.valid)
			if v.Satisfied() != tc.satisfied || v.MultipleMatch() != tc.multiple || v.Chosen() != tc.chosen {
				t.Errorf("satisfied %v multiple %v chosen %d", v.Satisfied(), v.MultipleMatch(), v.Chosen())
			}
			if v.Total != len(tc.valid) {
				t.Errorf("total %d", v.Total)
			}
		})
	}
}

func node(s *schema.ValueSchema) Node {
	return Node{Schema: &schema.Current{Schema: s}}
}

func TestMeta(t *testing.T) {
	comp := &schema.ValueSchema{Type: schema.AllOfType, Title: "Outer"}
	a := &schema.ValueSchema{Type: schema.TableType, Title: "A", Description: "a"}
	b := &schema.ValueSchema{Type: schema.TableType, Title: "B"}
	bare := &schema.ValueSchema{Type: schema.TableType}
	if title, desc := Meta(comp, []Node{node(a), node(bare), node(a)}); title != "A" || desc != "a" {
		t.Errorf("got %q %q", title, desc)
	}
	if title, _ := Meta(comp, []Node{node(a), node(b)}); title != "Outer" {
		t.Errorf("got %q", title)
	}
}

func TestPresentedType(t *testing.T) {
	comp := &schema.ValueSchema{Type: schema.AllOfType}
	tbl := &schema.ValueSchema{Type: schema.TableType}
	if got := PresentedType(comp, []Node{node(tbl), node(tbl)}).String(); got != "Table" {
		t.Errorf("got %s", got)
	}
	str := &schema.ValueSchema{Type: schema.StringType}
	if got := PresentedType(comp, []Node{node(tbl), node(str)}).String(); got != "Table & String" {
		t.Errorf("got %s", got)
	}
}

func TestValues(t *testing.T) {
	comp := &schema.ValueSchema{Type: schema.OneOfType, Default: "a"}
	m1 := &schema.ValueSchema{Type: schema.StringType, Enum: []any{"a", "b"}}
	m2 := &schema.ValueSchema{Type: schema.StringType, Const: "b", Default: "c"}
	m3 := &schema.ValueSchema{Type: schema.IntegerType, Enum: []any{int64(1)}}
	enum, defaults := Values(comp, []Node{node(m1), node(m2), node(m3)})
	if diff := cmp.Diff([]any{"a", "b", int64(1)}, enum); diff != "" {
		t.Errorf("enum (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"a", "c"}, defaults); diff != "" {
		t.Errorf("defaults (-want +got):\n%s", diff)
	}
}

func TestArrayShortcut(t *testing.T) {
	arr := &doctree.Value{Kind: doctree.Array}
	str := node(&schema.ValueSchema{Type: schema.StringType})
	list := node(&schema.ValueSchema{Type: schema.ArrayType})
	element := func(int) schema.ValueType { return schema.Simple(schema.StringType) }
	whole := func(int) schema.ValueType { return schema.Simple(schema.ArrayType) }
	tests := []struct {
		name      string
		v         *doctree.Value
		members   []Node
		presented func(int) schema.ValueType
		want      int
	}{
		{"element of the array member", arr, []Node{str, list}, element, 1},
		{"the array itself", arr, []Node{str, list}, whole, -1},
		{"not an array value", &doctree.Value{Kind: doctree.String}, []Node{str, list}, element, -1},
		{"two array members", arr, []Node{list, list}, element, -1},
		{"no array member", arr, []Node{str}, element, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ArrayShortcut(tc.v, tc.members, tc.presented); got != tc.want {
				t.Errorf("got %d want %d", got, tc.want)
			}
		})
	}
}
