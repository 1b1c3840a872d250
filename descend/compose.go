package descend

import (
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
)

// Verdict is the outcome of matching a value against the members of a
// composition.
type Verdict struct {
	Kind schema.Type
	// Valid lists the members the value satisfies, in member order.
	Valid []int
	Total int
}

// Evaluate computes the verdict of a composition of kind from whether the
// value satisfies each member. A member is satisfied when it produced no
// error level diagnostics.
func Evaluate(kind schema.Type, valid []bool) Verdict {
	v := Verdict{Kind: kind, Total: len(valid)}
	for i, ok := range valid {
		if ok {
			v.Valid = append(v.Valid, i)
		}
	}
	return v
}

// Satisfied reports whether the composition accepts the value: oneOf
// needs exactly one member, anyOf at least one, allOf all of them. A
// composition without members accepts anything.
func (v Verdict) Satisfied() bool {
	if v.Total == 0 {
		return true
	}
	switch v.Kind {
	case schema.OneOfType:
		return len(v.Valid) == 1
	case schema.AnyOfType:
		return len(v.Valid) > 0
	case schema.AllOfType:
		return len(v.Valid) == v.Total
	}
	return false
}

// MultipleMatch reports a oneOf satisfied by more than one member.
func (v Verdict) MultipleMatch() bool {
	return v.Kind == schema.OneOfType && len(v.Valid) > 1
}

// Chosen returns the member whose result stands for the composition: the
// only valid member of a oneOf, the first valid member of an anyOf. It is
// -1 for allOf and when no such member exists.
func (v Verdict) Chosen() int {
	switch {
	case v.Kind == schema.OneOfType && len(v.Valid) == 1:
		return v.Valid[0]
	case v.Kind == schema.AnyOfType && len(v.Valid) > 0:
		return v.Valid[0]
	}
	return -1
}

// Meta returns the title and description presented for a composition. If
// the members agree on exactly one pair, it is used; otherwise the
// composition's own.
func Meta(comp *schema.ValueSchema, members []Node) (title, description string) {
	type pair struct{ t, d string }
	seen := map[pair]bool{}
	var only pair
	for _, m := range members {
		s := m.ValueSchema()
		if s == nil || (s.Title == "" && s.Description == "") {
			continue
		}
		p := pair{s.Title, s.Description}
		if !seen[p] {
			seen[p] = true
			only = p
		}
	}
	if len(seen) == 1 {
		return only.t, only.d
	}
	return comp.Title, comp.Description
}

// PresentedType returns the type shown for a composition: the common
// member type when there is one, else the composition of member types.
func PresentedType(comp *schema.ValueSchema, members []Node) schema.ValueType {
	var types []schema.ValueType
	for _, m := range members {
		t := m.ValueSchema().ValueType()
		found := false
		for _, o := range types {
			found = found || o.Equal(t)
		}
		if !found {
			types = append(types, t)
		}
	}
	switch len(types) {
	case 0:
		return comp.ValueType()
	case 1:
		return types[0]
	}
	return schema.ValueType{Type: comp.Type, Types: types}
}

// Values returns the enumerated and default values presented for a
// composition: those of the composition itself followed by those of its
// members, without repetition.
func Values(comp *schema.ValueSchema, members []Node) (enum, defaults []any) {
	addAll := func(list *[]any, vs ...any) {
		for _, v := range vs {
			if v == nil {
				continue
			}
			found := false
			for _, o := range *list {
				found = found || schema.LiteralEqual(o, v)
			}
			if !found {
				*list = append(*list, v)
			}
		}
	}
	schemas := []*schema.ValueSchema{comp}
	for _, m := range members {
		schemas = append(schemas, m.ValueSchema())
	}
	for _, s := range schemas {
		if s == nil {
			continue
		}
		addAll(&enum, s.Enum...)
		addAll(&enum, s.Const)
		addAll(&defaults, s.Default)
	}
	return enum, defaults
}

// ArrayShortcut decides whether a composition matched against an array
// value is settled by its Array member alone. This holds when exactly one
// member is an Array schema and the type presented under that member is
// not Array, which happens when the presentation concerns an element
// inside the array. It returns the member index, or -1.
//
// The shortcut skips the validity check of the other members, so an array
// may be presented under a member it does not satisfy.
func ArrayShortcut(v *doctree.Value, members []Node, presented func(i int) schema.ValueType) int {
	if v == nil || v.Kind != doctree.Array {
		return -1
	}
	found := -1
	for i, m := range members {
		if s := m.ValueSchema(); s != nil && s.Type == schema.ArrayType {
			if found >= 0 {
				return -1
			}
			found = i
		}
	}
	if found < 0 || presented(found).Simplify().Type == schema.ArrayType {
		return -1
	}
	return found
}
