package schema

import (
	"fmt"
)

// Extension keywords understood in schema documents.
const (
	XTableKeysOrder     = "x-tombi-table-keys-order"
	XArrayValuesOrder   = "x-tombi-array-values-order"
	XArrayValuesOrderBy = "x-tombi-array-values-order-by"
	XAdditionalKeyLabel = "x-tombi-additional-key-label"
	XTOMLVersion        = "x-tombi-toml-version"
	XStringFormats      = "x-tombi-string-formats"
	XTaplo              = "x-taplo"
)

type KeysOrder int

const (
	Ascending KeysOrder = iota + 1
	Descending
	SchemaOrder
	VersionSort
)

func ParseKeysOrder(v string) (KeysOrder, error) {
	o, ok := map[string]KeysOrder{
		"ascending":    Ascending,
		"descending":   Descending,
		"schema":       SchemaOrder,
		"version-sort": VersionSort,
	}[v]
	if ok {
		return o, nil
	}
	return 0, fmt.Errorf("%w: bad order %q", ErrInvalidSchema, v)
}

func (o KeysOrder) String() string {
	d, err := o.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (o KeysOrder) MarshalText() ([]byte, error) {
	switch o {
	case Ascending:
		return []byte("ascending"), nil
	case Descending:
		return []byte("descending"), nil
	case SchemaOrder:
		return []byte("schema"), nil
	case VersionSort:
		return []byte("version-sort"), nil
	}
	return nil, fmt.Errorf("<err: %d is not an order>", o)
}

func (o *KeysOrder) UnmarshalText(d []byte) error {
	po, err := ParseKeysOrder(string(d))
	if err != nil {
		return err
	}
	*o = po
	return nil
}

type KeysGroup int

const (
	PropertiesGroup KeysGroup = iota
	PatternPropertiesGroup
	AdditionalPropertiesGroup
)

func ParseKeysGroup(v string) (KeysGroup, error) {
	switch v {
	case "properties":
		return PropertiesGroup, nil
	case "patternProperties":
		return PatternPropertiesGroup, nil
	case "additionalProperties":
		return AdditionalPropertiesGroup, nil
	}
	return 0, fmt.Errorf("%w: bad keys group %q", ErrInvalidSchema, v)
}

func (g KeysGroup) String() string {
	switch g {
	case PropertiesGroup:
		return "properties"
	case PatternPropertiesGroup:
		return "patternProperties"
	case AdditionalPropertiesGroup:
		return "additionalProperties"
	}
	return "<unknown group>"
}

type GroupOrder struct {
	Target KeysGroup
	Order  KeysOrder
}

// TableKeysOrder is either one order for all keys or an ordered list of
// groups, each sorted by its own order.
type TableKeysOrder struct {
	All    KeysOrder
	Groups []GroupOrder
}

func (t *TableKeysOrder) String() string {
	if t.All != 0 {
		return t.All.String()
	}
	s := ""
	for i, g := range t.Groups {
		if i > 0 {
			s += ", "
		}
		s += g.Target.String() + ": " + g.Order.String()
	}
	return "{" + s + "}"
}

func parseTableKeysOrder(v any) (*TableKeysOrder, error) {
	switch x := v.(type) {
	case string:
		o, err := ParseKeysOrder(x)
		if err != nil {
			return nil, err
		}
		return &TableKeysOrder{All: o}, nil
	case Object:
		res := &TableKeysOrder{}
		for _, it := range x {
			g, err := ParseKeysGroup(it.Key)
			if err != nil {
				return nil, err
			}
			s, ok := it.Value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s must be a string", ErrInvalidSchema, XTableKeysOrder, it.Key)
			}
			o, err := ParseKeysOrder(s)
			if err != nil {
				return nil, err
			}
			if o == SchemaOrder && g == AdditionalPropertiesGroup {
				return nil, fmt.Errorf("%w: %s.%s cannot use schema order", ErrInvalidSchema, XTableKeysOrder, it.Key)
			}
			res.Groups = append(res.Groups, GroupOrder{Target: g, Order: o})
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w: %s must be a string or object", ErrInvalidSchema, XTableKeysOrder)
}

// ArrayValuesOrder is either one order for all values, or groups keyed by
// the oneOf or anyOf branch values belong to.
type ArrayValuesOrder struct {
	All    KeysOrder
	Groups []KeysOrder
	// Composition is OneOfType or AnyOfType when Groups is set.
	Composition Type
}

func (a *ArrayValuesOrder) String() string {
	if a.All != 0 {
		return a.All.String()
	}
	s := ""
	for i, o := range a.Groups {
		if i > 0 {
			s += ", "
		}
		s += o.String()
	}
	return a.Composition.String() + "[" + s + "]"
}

func parseArrayValuesOrder(v any) (*ArrayValuesOrder, error) {
	switch x := v.(type) {
	case string:
		o, err := ParseKeysOrder(x)
		if err != nil {
			return nil, err
		}
		if o == SchemaOrder {
			return nil, fmt.Errorf("%w: %s cannot use schema order", ErrInvalidSchema, XArrayValuesOrder)
		}
		return &ArrayValuesOrder{All: o}, nil
	case Object:
		if len(x) != 1 {
			return nil, fmt.Errorf("%w: %s groups need exactly one of oneOf or anyOf", ErrInvalidSchema, XArrayValuesOrder)
		}
		res := &ArrayValuesOrder{}
		switch x[0].Key {
		case "oneOf":
			res.Composition = OneOfType
		case "anyOf":
			res.Composition = AnyOfType
		default:
			return nil, fmt.Errorf("%w: %s bad group %q", ErrInvalidSchema, XArrayValuesOrder, x[0].Key)
		}
		list, ok := x[0].Value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s must be an array", ErrInvalidSchema, XArrayValuesOrder, x[0].Key)
		}
		for _, e := range list {
			s, _ := e.(string)
			o, err := ParseKeysOrder(s)
			if err != nil {
				return nil, err
			}
			res.Groups = append(res.Groups, o)
		}
		return res, nil
	}
	return nil, fmt.Errorf("%w: %s must be a string or object", ErrInvalidSchema, XArrayValuesOrder)
}
