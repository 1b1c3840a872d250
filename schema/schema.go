package schema

import (
	"slices"

	"github.com/dlclark/regexp2"
)

// ValueSchema is one node of a schema graph. Which fields are meaningful
// depends on Type, in the way of a tagged union. A ValueSchema is not
// modified after parsing; cells (Referable) are the only mutable part of the
// graph.
type ValueSchema struct {
	Type        Type
	Title       string
	Description string
	Deprecated  bool

	// Literal values use int64, float64, bool, string, []any and Object.
	Default  any
	Const    any
	Enum     []any
	Examples []any

	// Integer and Float
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64

	// String
	MinLength *int
	MaxLength *int
	Pattern   string
	Format    string
	// FormatChecked is set when the document enables checking Format.
	FormatChecked bool
	pattern       *regexp2.Regexp

	// Array
	Items       *Referable
	MinItems    *int
	MaxItems    *int
	UniqueItems bool
	ValuesOrder *ArrayValuesOrder

	// Table
	Properties           []*Property
	PatternProperties    []*PatternProperty
	AdditionalProperties *bool
	AdditionalSchema     *Referable
	Required             []string
	MinProperties        *int
	MaxProperties        *int
	KeysOrder            *TableKeysOrder
	AdditionalKeyLabel   string
	// ValuesOrderBy sorts an array of such tables by the value of a key.
	ValuesOrderBy string

	// OneOf, AnyOf and AllOf
	Schemas []*Referable

	// Not applies to any type.
	Not *Referable

	propIndex map[string]int
}

// Object is an ordered JSON object from a schema document.
type Object []ObjectItem

type ObjectItem struct {
	Key   string
	Value any
}

func (o Object) Get(k string) (any, bool) {
	for _, it := range o {
		if it.Key == k {
			return it.Value, true
		}
	}
	return nil, false
}

type Property struct {
	Key    string
	Schema *Referable
}

type PatternProperty struct {
	Pattern string
	Schema  *Referable
	re      *regexp2.Regexp
}

func (p *PatternProperty) Match(key string) bool {
	if p.re == nil {
		return false
	}
	ok, err := p.re.MatchString(key)
	return err == nil && ok
}

// PatternRegexp returns the compiled string pattern, nil if there is none.
func (s *ValueSchema) PatternRegexp() *regexp2.Regexp {
	return s.pattern
}

// Property returns the schema of the declared property key.
func (s *ValueSchema) Property(key string) *Referable {
	if i, ok := s.propIndex[key]; ok {
		return s.Properties[i].Schema
	}
	return nil
}

func (s *ValueSchema) PropertyKeys() []string {
	res := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		res[i] = p.Key
	}
	return res
}

// IsRequired reports whether key is listed as required.
func (s *ValueSchema) IsRequired(key string) bool {
	return slices.Contains(s.Required, key)
}

// AllowsAdditionalProperties reports whether undeclared keys are allowed.
// Without an explicit additionalProperties keyword, strict mode forbids them.
func (s *ValueSchema) AllowsAdditionalProperties(strict bool) bool {
	if s.AdditionalProperties != nil {
		return *s.AdditionalProperties
	}
	return !strict
}

// IsDeprecated reports whether s is deprecated. A composition is deprecated
// when marked so, or when all of its resolved non null members are.
func (s *ValueSchema) IsDeprecated() bool {
	if s == nil {
		return false
	}
	if s.Deprecated || !s.Type.IsComposition() {
		return s.Deprecated
	}
	found := false
	for _, r := range s.Schemas {
		m := r.Value()
		if m == nil || m.Type == NullType {
			continue
		}
		if !m.IsDeprecated() {
			return false
		}
		found = true
	}
	return found
}

// ValueType returns the presentation type of s. Unresolved composition
// members are left out.
func (s *ValueSchema) ValueType() ValueType {
	if s == nil {
		return Simple(NullType)
	}
	if !s.Type.IsComposition() {
		return Simple(s.Type)
	}
	res := ValueType{Type: s.Type}
	for _, r := range s.Schemas {
		if m := r.Value(); m != nil {
			res.Types = append(res.Types, m.ValueType())
		}
	}
	return res
}

// withMeta returns a shallow copy of s with title, description and
// deprecation overridden by a referencing node.
func (s *ValueSchema) withMeta(title, description string, deprecated *bool) *ValueSchema {
	if title == "" && description == "" && deprecated == nil {
		return s
	}
	c := *s
	if title != "" || description != "" {
		c.Title = title
		c.Description = description
	}
	if deprecated != nil {
		c.Deprecated = *deprecated
	}
	return &c
}
