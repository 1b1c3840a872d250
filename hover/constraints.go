package hover

import (
	"github.com/signadot/tomlkit/schema"
)

// Constraints are the schema keywords limiting a value, as presented.
type Constraints struct {
	Const    any
	Enum     []any
	Default  []any
	Examples []any

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64

	MinLength *int
	MaxLength *int
	Pattern   string
	Format    string

	MinItems    *int
	MaxItems    *int
	UniqueItems bool
	ValuesOrder string

	MinKeys        *int
	MaxKeys        *int
	KeysOrder      string
	AdditionalKeys bool
	PatternKeys    []string
}

func constraintsOf(s *schema.ValueSchema) *Constraints {
	if s == nil {
		return nil
	}
	c := &Constraints{
		Const:            s.Const,
		Enum:             s.Enum,
		Examples:         s.Examples,
		Minimum:          s.Minimum,
		Maximum:          s.Maximum,
		ExclusiveMinimum: s.ExclusiveMinimum,
		ExclusiveMaximum: s.ExclusiveMaximum,
		MultipleOf:       s.MultipleOf,
		MinLength:        s.MinLength,
		MaxLength:        s.MaxLength,
		Pattern:          s.Pattern,
		Format:           s.Format,
		MinItems:         s.MinItems,
		MaxItems:         s.MaxItems,
		UniqueItems:      s.UniqueItems,
		MinKeys:          s.MinProperties,
		MaxKeys:          s.MaxProperties,
	}
	if s.Default != nil {
		c.Default = []any{s.Default}
	}
	if s.ValuesOrder != nil {
		c.ValuesOrder = s.ValuesOrder.String()
	}
	if s.Type == schema.TableType {
		if s.KeysOrder != nil {
			c.KeysOrder = s.KeysOrder.String()
		}
		c.AdditionalKeys = s.AdditionalSchema != nil || s.AllowsAdditionalProperties(false)
		for _, p := range s.PatternProperties {
			c.PatternKeys = append(c.PatternKeys, p.Pattern)
		}
	}
	if c.empty() {
		return nil
	}
	return c
}

func (c *Constraints) empty() bool {
	return c.Const == nil && len(c.Enum) == 0 && len(c.Default) == 0 && len(c.Examples) == 0 &&
		c.Minimum == nil && c.Maximum == nil && c.ExclusiveMinimum == nil && c.ExclusiveMaximum == nil &&
		c.MultipleOf == nil && c.MinLength == nil && c.MaxLength == nil && c.Pattern == "" && c.Format == "" &&
		c.MinItems == nil && c.MaxItems == nil && !c.UniqueItems && c.ValuesOrder == "" &&
		c.MinKeys == nil && c.MaxKeys == nil && c.KeysOrder == "" && !c.AdditionalKeys && len(c.PatternKeys) == 0
}

// merge combines the constraints of allOf members: values are unioned, the
// first member setting a bound wins.
func (c *Constraints) merge(o *Constraints) *Constraints {
	switch {
	case o == nil:
		return c
	case c == nil:
		res := *o
		return &res
	}
	res := *c
	res.Enum = unionLiterals(c.Enum, o.Enum)
	res.Default = unionLiterals(c.Default, o.Default)
	res.Examples = unionLiterals(c.Examples, o.Examples)
	if res.Const == nil {
		res.Const = o.Const
	}
	firstFloat := func(a, b *float64) *float64 {
		if a != nil {
			return a
		}
		return b
	}
	firstInt := func(a, b *int) *int {
		if a != nil {
			return a
		}
		return b
	}
	firstString := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	res.Minimum = firstFloat(c.Minimum, o.Minimum)
	res.Maximum = firstFloat(c.Maximum, o.Maximum)
	res.ExclusiveMinimum = firstFloat(c.ExclusiveMinimum, o.ExclusiveMinimum)
	res.ExclusiveMaximum = firstFloat(c.ExclusiveMaximum, o.ExclusiveMaximum)
	res.MultipleOf = firstFloat(c.MultipleOf, o.MultipleOf)
	res.MinLength = firstInt(c.MinLength, o.MinLength)
	res.MaxLength = firstInt(c.MaxLength, o.MaxLength)
	res.MinItems = firstInt(c.MinItems, o.MinItems)
	res.MaxItems = firstInt(c.MaxItems, o.MaxItems)
	res.MinKeys = firstInt(c.MinKeys, o.MinKeys)
	res.MaxKeys = firstInt(c.MaxKeys, o.MaxKeys)
	res.Pattern = firstString(c.Pattern, o.Pattern)
	res.Format = firstString(c.Format, o.Format)
	res.ValuesOrder = firstString(c.ValuesOrder, o.ValuesOrder)
	res.KeysOrder = firstString(c.KeysOrder, o.KeysOrder)
	res.UniqueItems = c.UniqueItems || o.UniqueItems
	res.AdditionalKeys = c.AdditionalKeys && o.AdditionalKeys
	res.PatternKeys = append(append([]string(nil), c.PatternKeys...), o.PatternKeys...)
	return &res
}
