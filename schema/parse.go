package schema

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// StringFormats lists the formats x-tombi-string-formats can enable.
var StringFormats = []string{"email", "hostname", "uri", "uuid"}

// Document is a parsed schema document.
type Document struct {
	URI         string
	Root        *Referable
	Definitions *Definitions
	// TOMLVersion is x-tombi-toml-version, "" when not set.
	TOMLVersion   string
	StringFormats []string
	// Warnings lists keywords that were ignored because they were invalid.
	Warnings []error
}

// Parse decodes and parses the schema document at uri.
func Parse(uri string, data []byte) (*Document, error) {
	v, err := Decode(uri, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	return ParseValue(uri, v)
}

// ParseValue parses a decoded schema document. Invalid keywords are skipped
// and reported in the document warnings; only a document that is not an
// object is an error.
func ParseValue(uri string, v any) (*Document, error) {
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s: document is not an object", ErrInvalidSchema, uri)
	}
	p := &parser{uri: uri, formats: map[string]bool{}}
	doc := &Document{URI: uri}
	if s, ok := obj.Get(XTOMLVersion); ok {
		doc.TOMLVersion, _ = s.(string)
	}
	if fs, ok := obj.Get(XStringFormats); ok {
		list, _ := fs.([]any)
		for _, f := range list {
			name, _ := f.(string)
			if !isStringFormat(name) {
				p.warn("/"+XStringFormats, fmt.Errorf("unknown format %v", f))
				continue
			}
			p.formats[name] = true
			doc.StringFormats = append(doc.StringFormats, name)
		}
	}
	doc.Root = p.referable(obj, "")
	defs := &Definitions{defs: map[string]*Referable{}, raw: obj, p: p}
	for _, k := range []string{"definitions", "$defs"} {
		v, ok := obj.Get(k)
		if !ok {
			continue
		}
		d, ok := v.(Object)
		if !ok {
			p.warn("/"+k, fmt.Errorf("not an object"))
			continue
		}
		for _, it := range d {
			ref := "#/" + k + "/" + escapePointer(it.Key)
			if r := p.referable(it.Value, ref[1:]); r != nil {
				defs.defs[ref] = r
			}
		}
	}
	doc.Definitions = defs
	doc.Warnings = p.warnings
	return doc, nil
}

func isStringFormat(f string) bool {
	for _, s := range StringFormats {
		if s == f {
			return true
		}
	}
	return false
}

func escapePointer(k string) string {
	return strings.ReplaceAll(strings.ReplaceAll(k, "~", "~0"), "/", "~1")
}

type parser struct {
	uri      string
	formats  map[string]bool
	warnings []error
}

func (p *parser) warn(at string, err error) {
	err = fmt.Errorf("%w: %s#%s: %w", ErrInvalidSchema, p.uri, at, err)
	log().Warn("schema keyword ignored", "uri", p.uri, "at", at, "error", err)
	p.warnings = append(p.warnings, err)
}

// referable parses a sub-schema. It returns nil for values that do not
// describe a schema, for boolean schemas and for hidden schemas.
func (p *parser) referable(v any, at string) *Referable {
	obj, ok := v.(Object)
	if !ok {
		return nil
	}
	if xt, ok := obj.Get(XTaplo); ok {
		if o, ok := xt.(Object); ok {
			if h, _ := o.Get("hidden"); h == true {
				return nil
			}
		}
	}
	if ref, ok := obj.Get("$ref"); ok {
		if s, ok := ref.(string); ok {
			r := NewRef(s)
			r.title = stringOf(obj, "title")
			r.description = stringOf(obj, "description")
			if b, ok := boolOf(obj, "deprecated"); ok {
				r.deprecated = &b
			}
			return r
		}
		p.warn(at+"/$ref", fmt.Errorf("not a string"))
	}
	if s := p.value(obj, at); s != nil {
		return Resolved(s)
	}
	return nil
}

func (p *parser) value(obj Object, at string) *ValueSchema {
	if t, ok := obj.Get("type"); ok {
		switch x := t.(type) {
		case string:
			return p.single(x, obj, at)
		case []any:
			res := p.common(OneOfType, obj, at)
			res.Const, res.Enum = nil, nil
			for _, e := range x {
				name, _ := e.(string)
				if m := p.single(name, obj, at); m != nil {
					res.Schemas = append(res.Schemas, Resolved(m))
				}
			}
			return res
		}
		p.warn(at+"/type", fmt.Errorf("bad type %v", t))
		return nil
	}
	for _, c := range []struct {
		key string
		t   Type
	}{{"oneOf", OneOfType}, {"anyOf", AnyOfType}, {"allOf", AllOfType}} {
		if v, ok := obj.Get(c.key); ok {
			return p.composition(c.t, c.key, v, obj, at)
		}
	}
	if v, ok := obj.Get("enum"); ok {
		if list, ok := v.([]any); ok {
			return p.enum(list, obj, at)
		}
	}
	if v, ok := obj.Get("const"); ok {
		if t := jsonType(v); t != "" {
			return p.single(t, obj, at)
		}
	}
	for _, k := range []string{"properties", "patternProperties", "additionalProperties"} {
		if _, ok := obj.Get(k); ok {
			return p.single("object", obj, at)
		}
	}
	if _, ok := obj.Get("items"); ok {
		return p.single("array", obj, at)
	}
	return nil
}

// enum infers the type of an untyped enum from its values. Several value
// types give a oneOf of each.
func (p *parser) enum(list []any, obj Object, at string) *ValueSchema {
	var types []string
	for _, v := range list {
		t := jsonType(v)
		if t == "" || t == "array" || t == "object" {
			continue
		}
		if t == "integer" {
			t = "number"
		}
		found := false
		for _, o := range types {
			found = found || o == t
		}
		if !found {
			types = append(types, t)
		}
	}
	if len(types) == 1 && types[0] == "number" && allIntegers(list) {
		types[0] = "integer"
	}
	switch len(types) {
	case 0:
		return nil
	case 1:
		return p.single(types[0], obj, at)
	}
	res := p.common(OneOfType, obj, at)
	res.Const, res.Enum = nil, nil
	for _, t := range types {
		if m := p.single(t, obj, at); m != nil {
			res.Schemas = append(res.Schemas, Resolved(m))
		}
	}
	return res
}

func allIntegers(list []any) bool {
	for _, v := range list {
		if _, ok := v.(float64); ok {
			return false
		}
	}
	return true
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case int64:
		return "integer"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case Object:
		return "object"
	}
	return ""
}

func (p *parser) composition(t Type, key string, v any, obj Object, at string) *ValueSchema {
	res := p.common(t, obj, at)
	list, ok := v.([]any)
	if !ok {
		p.warn(at+"/"+key, fmt.Errorf("not an array"))
		return res
	}
	for i, e := range list {
		if r := p.referable(e, fmt.Sprintf("%s/%s/%d", at, key, i)); r != nil {
			res.Schemas = append(res.Schemas, r)
		}
	}
	return res
}

// common parses the keywords shared by all schema types.
func (p *parser) common(t Type, obj Object, at string) *ValueSchema {
	s := &ValueSchema{
		Type:        t,
		Title:       stringOf(obj, "title"),
		Description: stringOf(obj, "description"),
	}
	s.Deprecated, _ = boolOf(obj, "deprecated")
	s.Default, _ = obj.Get("default")
	s.Const, _ = obj.Get("const")
	if v, ok := obj.Get("enum"); ok {
		s.Enum, _ = v.([]any)
	}
	if v, ok := obj.Get("examples"); ok {
		s.Examples, _ = v.([]any)
	}
	if v, ok := obj.Get("not"); ok {
		s.Not = p.referable(v, at+"/not")
	}
	return s
}

func (p *parser) single(name string, obj Object, at string) *ValueSchema {
	switch name {
	case "null":
		return &ValueSchema{Type: NullType}
	case "boolean":
		return p.common(BooleanType, obj, at)
	case "integer":
		s := p.common(IntegerType, obj, at)
		p.numeric(s, obj, at)
		return s
	case "number":
		s := p.common(FloatType, obj, at)
		p.numeric(s, obj, at)
		return s
	case "string":
		return p.str(obj, at)
	case "array":
		return p.array(obj, at)
	case "object":
		return p.table(obj, at)
	}
	p.warn(at+"/type", fmt.Errorf("unknown type %q", name))
	return nil
}

func (p *parser) numeric(s *ValueSchema, obj Object, at string) {
	s.Minimum = floatOf(obj, "minimum")
	s.Maximum = floatOf(obj, "maximum")
	s.MultipleOf = floatOf(obj, "multipleOf")
	if s.MultipleOf != nil && *s.MultipleOf <= 0 {
		p.warn(at+"/multipleOf", fmt.Errorf("must be positive"))
		s.MultipleOf = nil
	}
	// exclusive bounds are numbers, or booleans qualifying minimum and
	// maximum in older drafts.
	for _, b := range []struct {
		key       string
		bound     **float64
		exclusive **float64
	}{
		{"exclusiveMinimum", &s.Minimum, &s.ExclusiveMinimum},
		{"exclusiveMaximum", &s.Maximum, &s.ExclusiveMaximum},
	} {
		v, ok := obj.Get(b.key)
		if !ok {
			continue
		}
		if x, ok := v.(bool); ok {
			if x && *b.bound != nil {
				*b.exclusive, *b.bound = *b.bound, nil
			}
			continue
		}
		*b.exclusive = floatOf(obj, b.key)
	}
}

func (p *parser) str(obj Object, at string) *ValueSchema {
	format := stringOf(obj, "format")
	switch format {
	case "date-time":
		return p.common(OffsetDateTimeType, obj, at)
	case "date-time-local", "partial-date-time":
		return p.common(LocalDateTimeType, obj, at)
	case "date":
		return p.common(LocalDateType, obj, at)
	case "time-local", "partial-time":
		return p.common(LocalTimeType, obj, at)
	}
	s := p.common(StringType, obj, at)
	s.Format = format
	s.FormatChecked = p.formats[format]
	s.MinLength = intOf(obj, "minLength")
	s.MaxLength = intOf(obj, "maxLength")
	if pat := stringOf(obj, "pattern"); pat != "" {
		re, err := compilePattern(pat)
		if err != nil {
			p.warn(at+"/pattern", err)
		} else {
			s.Pattern, s.pattern = pat, re
		}
	}
	return s
}

// patternTimeout bounds a single match against a schema pattern.
const patternTimeout = 100 * time.Millisecond

// compilePattern compiles a JSON Schema regular expression with ECMA-262
// semantics.
func compilePattern(expr string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = patternTimeout
	return re, nil
}

func (p *parser) array(obj Object, at string) *ValueSchema {
	s := p.common(ArrayType, obj, at)
	if v, ok := obj.Get("items"); ok {
		s.Items = p.referable(v, at+"/items")
	}
	s.MinItems = intOf(obj, "minItems")
	s.MaxItems = intOf(obj, "maxItems")
	s.UniqueItems, _ = boolOf(obj, "uniqueItems")
	if v, ok := obj.Get(XArrayValuesOrder); ok {
		o, err := parseArrayValuesOrder(v)
		if err != nil {
			p.warn(at+"/"+XArrayValuesOrder, err)
		} else {
			s.ValuesOrder = o
		}
	}
	return s
}

func (p *parser) table(obj Object, at string) *ValueSchema {
	s := p.common(TableType, obj, at)
	s.propIndex = map[string]int{}
	if v, ok := obj.Get("properties"); ok {
		props, _ := v.(Object)
		for _, it := range props {
			r := p.referable(it.Value, at+"/properties/"+escapePointer(it.Key))
			if r == nil {
				continue
			}
			if i, ok := s.propIndex[it.Key]; ok {
				s.Properties[i].Schema = r
				continue
			}
			s.propIndex[it.Key] = len(s.Properties)
			s.Properties = append(s.Properties, &Property{Key: it.Key, Schema: r})
		}
	}
	if v, ok := obj.Get("patternProperties"); ok {
		props, _ := v.(Object)
		for _, it := range props {
			pat := at + "/patternProperties/" + escapePointer(it.Key)
			re, err := compilePattern(it.Key)
			if err != nil {
				p.warn(pat, err)
				continue
			}
			if r := p.referable(it.Value, pat); r != nil {
				s.PatternProperties = append(s.PatternProperties, &PatternProperty{Pattern: it.Key, Schema: r, re: re})
			}
		}
	}
	if v, ok := obj.Get("additionalProperties"); ok {
		switch x := v.(type) {
		case bool:
			s.AdditionalProperties = &x
		case Object:
			allow := true
			s.AdditionalProperties = &allow
			s.AdditionalSchema = p.referable(x, at+"/additionalProperties")
		}
	}
	if v, ok := obj.Get("required"); ok {
		list, _ := v.([]any)
		for _, e := range list {
			if k, ok := e.(string); ok {
				s.Required = append(s.Required, k)
			}
		}
	}
	s.MinProperties = intOf(obj, "minProperties")
	s.MaxProperties = intOf(obj, "maxProperties")
	if v, ok := obj.Get(XTableKeysOrder); ok {
		o, err := parseTableKeysOrder(v)
		if err != nil {
			p.warn(at+"/"+XTableKeysOrder, err)
		} else {
			s.KeysOrder = o
		}
	}
	s.AdditionalKeyLabel = stringOf(obj, XAdditionalKeyLabel)
	s.ValuesOrderBy = stringOf(obj, XArrayValuesOrderBy)
	return s
}

func stringOf(obj Object, k string) string {
	v, _ := obj.Get(k)
	s, _ := v.(string)
	return s
}

func boolOf(obj Object, k string) (bool, bool) {
	v, _ := obj.Get(k)
	b, ok := v.(bool)
	return b, ok
}

func floatOf(obj Object, k string) *float64 {
	v, _ := obj.Get(k)
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return nil
	}
	return &f
}

func intOf(obj Object, k string) *int {
	v, _ := obj.Get(k)
	i, ok := toInt(v)
	if !ok || i < 0 {
		return nil
	}
	return &i
}
