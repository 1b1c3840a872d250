package doctree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tomlkit/text"
)

func table(kind TableKind, kvs ...any) *Value {
	t := NewTable(kind, text.Range{})
	for i := 0; i+1 < len(kvs); i += 2 {
		t.appendEntry(&Key{Name: kvs[i].(string)}, kvs[i+1].(*Value))
	}
	return t
}

func aot(kind ArrayKind, ts ...*Value) *Value {
	a := NewArray(kind, text.Range{})
	a.Values = ts
	return a
}

func TestMergeArrayOfTablesAssociative(t *testing.T) {
	mk := func(i int64) *Value { return aot(ArrayOfTable, table(HeaderTable, "n", FromInt(i))) }

	left := mk(1)
	ab := mk(2)
	left.Merge(ab)
	left.Merge(mk(3))

	bc := mk(2)
	bc.Merge(mk(3))
	right := mk(1)
	right.Merge(bc)

	if diff := cmp.Diff(left.Any(), right.Any()); diff != "" {
		t.Errorf("(-left +right):\n%s", diff)
	}
	if left.Len() != 3 {
		t.Errorf("len: %d", left.Len())
	}
}

func TestMergeParentArrayOfTablesTouchesLast(t *testing.T) {
	a := aot(ArrayOfTable, table(HeaderTable, "n", FromInt(1)), table(HeaderTable, "n", FromInt(2)))
	p := aot(ParentArrayOfTable, table(ParentTable, "extra", FromBool(true)))
	if errs := a.Merge(p); len(errs) != 0 {
		t.Fatal(errs)
	}
	want := []any{
		map[string]any{"n": int64(1)},
		map[string]any{"n": int64(2), "extra": true},
	}
	if diff := cmp.Diff(want, a.Any()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestMergeTableKinds(t *testing.T) {
	tests := []struct {
		name     string
		a, b     TableKind
		conflict bool
		kind     TableKind
	}{
		{"header header", HeaderTable, HeaderTable, true, HeaderTable},
		{"parent then header", ParentTable, HeaderTable, false, HeaderTable},
		{"parent then dotted", ParentTable, ParentKey, true, ParentTable},
		{"dotted then header", ParentKey, HeaderTable, true, HeaderTable},
		{"inline then dotted", InlineTable, KeyValueTable, true, InlineTable},
		{"dotted dotted", ParentKey, ParentKey, false, ParentKey},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := table(tc.a, "x", FromInt(1))
			b := table(tc.b, "y", FromInt(2))
			errs := a.Merge(b)
			if got := len(errs) > 0; got != tc.conflict {
				t.Errorf("conflict: got %v want %v", got, tc.conflict)
			}
			if a.TableKind != tc.kind {
				t.Errorf("kind: got %v want %v", a.TableKind, tc.kind)
			}
		})
	}
}
