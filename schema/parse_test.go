package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustParse(t *testing.T, uri, src string) *Document {
	t.Helper()
	doc, err := Parse(uri, []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func rootValue(t *testing.T, doc *Document) *ValueSchema {
	t.Helper()
	cur, err := doc.Root.Resolve(context.Background(), doc.URI, doc.Definitions, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cur == nil {
		t.Fatal("no root schema")
	}
	return cur.Schema
}

func TestParseTypes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"string", `{"type": "string"}`, "String"},
		{"number", `{"type": "number"}`, "Float"},
		{"date-time", `{"type": "string", "format": "date-time"}`, "OffsetDateTime"},
		{"partial-date-time", `{"type": "string", "format": "partial-date-time"}`, "LocalDateTime"},
		{"date", `{"type": "string", "format": "date"}`, "LocalDate"},
		{"time-local", `{"type": "string", "format": "time-local"}`, "LocalTime"},
		{"type array", `{"type": ["string", "integer"]}`, "String ^ Integer"},
		{"nullable", `{"type": ["string", "null"]}`, "String?"},
		{"enum strings", `{"enum": ["a", "b"]}`, "String"},
		{"enum integers", `{"enum": [1, 2]}`, "Integer"},
		{"enum mixed", `{"enum": ["a", 1.5]}`, "String ^ Float"},
		{"const", `{"const": true}`, "Boolean"},
		{"untyped table", `{"properties": {"a": {"type": "string"}}}`, "Table"},
		{"anyOf", `{"anyOf": [{"type": "string"}, {"type": "array"}]}`, "String | Array"},
		{"yaml", "type: object\nproperties:\n  a:\n    type: string\n", "Table"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustParse(t, "file:///s.json", tc.src)
			if got := rootValue(t, doc).ValueType().String(); got != tc.want {
				t.Errorf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestParseTable(t *testing.T) {
	doc := mustParse(t, "file:///s.json", `{
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string", "minLength": 1, "pattern": "^[a-z]+$"},
			"version": {"type": "string"},
			"hidden": {"type": "string", "x-taplo": {"hidden": true}},
			"port": {"type": "integer", "minimum": 1, "exclusiveMaximum": 65536}
		},
		"patternProperties": {"^x-": {"type": "boolean"}},
		"additionalProperties": false,
		"x-tombi-table-keys-order": "schema"
	}`)
	s := rootValue(t, doc)
	if diff := cmp.Diff([]string{"name", "version", "port"}, s.PropertyKeys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if !s.IsRequired("name") || s.IsRequired("version") {
		t.Error("required")
	}
	if s.AllowsAdditionalProperties(false) {
		t.Error("additional properties should be forbidden")
	}
	if len(s.PatternProperties) != 1 || !s.PatternProperties[0].Match("x-y") {
		t.Error("pattern properties")
	}
	if s.KeysOrder == nil || s.KeysOrder.All != SchemaOrder {
		t.Errorf("keys order %v", s.KeysOrder)
	}
	name := s.Property("name").Value()
	if name.PatternRegexp() == nil || *name.MinLength != 1 {
		t.Errorf("name %+v", name)
	}
	port := s.Property("port").Value()
	if *port.Minimum != 1 || *port.ExclusiveMaximum != 65536 || port.Maximum != nil {
		t.Errorf("port %+v", port)
	}
	if len(doc.Warnings) != 0 {
		t.Errorf("warnings: %v", doc.Warnings)
	}
}

func TestParseWarnings(t *testing.T) {
	doc := mustParse(t, "file:///s.json", `{
		"type": "object",
		"properties": {
			"a": {"type": "string", "pattern": "a(b"},
			"b": {"type": "array", "x-tombi-array-values-order": "schema"}
		},
		"x-tombi-table-keys-order": {"additionalProperties": "schema"}
	}`)
	if len(doc.Warnings) != 3 {
		t.Fatalf("warnings: %v", doc.Warnings)
	}
	for _, w := range doc.Warnings {
		if !errors.Is(w, ErrInvalidSchema) {
			t.Errorf("%v does not wrap ErrInvalidSchema", w)
		}
	}
	s := rootValue(t, doc)
	if s.Property("a").Value().PatternRegexp() != nil {
		t.Error("invalid pattern should be dropped")
	}
}

func TestParsePatternLookaround(t *testing.T) {
	doc := mustParse(t, "file:///s.json", `{
		"type": "object",
		"properties": {
			"id": {"type": "string", "pattern": "^(?=.*[0-9]).+$"}
		},
		"patternProperties": {"^(?!x-)[a-z-]+$": {"type": "integer"}}
	}`)
	if len(doc.Warnings) != 0 {
		t.Fatalf("warnings: %v", doc.Warnings)
	}
	s := rootValue(t, doc)
	pp := s.PatternProperties[0]
	for key, want := range map[string]bool{"abc": true, "a-b": true, "x-abc": false, "ABC": false} {
		if got := pp.Match(key); got != want {
			t.Errorf("Match(%q) = %v, want %v", key, got, want)
		}
	}
	re := s.Property("id").Value().PatternRegexp()
	if re == nil {
		t.Fatal("pattern dropped")
	}
	for str, want := range map[string]bool{"a1": true, "abc": false} {
		if got, _ := re.MatchString(str); got != want {
			t.Errorf("MatchString(%q) = %v, want %v", str, got, want)
		}
	}
}

func TestParseDraft4ExclusiveBounds(t *testing.T) {
	doc := mustParse(t, "file:///s.json", `{"type": "number", "maximum": 10, "exclusiveMaximum": true, "minimum": 1, "exclusiveMinimum": false}`)
	s := rootValue(t, doc)
	if s.Maximum != nil || s.ExclusiveMaximum == nil || *s.ExclusiveMaximum != 10 {
		t.Errorf("maximum %v exclusive %v", s.Maximum, s.ExclusiveMaximum)
	}
	if s.Minimum == nil || *s.Minimum != 1 || s.ExclusiveMinimum != nil {
		t.Errorf("minimum %v exclusive %v", s.Minimum, s.ExclusiveMinimum)
	}
}

func TestParseStringFormats(t *testing.T) {
	doc := mustParse(t, "file:///s.json", `{
		"x-tombi-string-formats": ["uuid"],
		"x-tombi-toml-version": "v1.1.0-preview",
		"type": "object",
		"properties": {
			"id": {"type": "string", "format": "uuid"},
			"mail": {"type": "string", "format": "email"}
		}
	}`)
	if doc.TOMLVersion != "v1.1.0-preview" {
		t.Errorf("toml version %q", doc.TOMLVersion)
	}
	s := rootValue(t, doc)
	if !s.Property("id").Value().FormatChecked {
		t.Error("uuid should be checked")
	}
	if s.Property("mail").Value().FormatChecked {
		t.Error("email is not enabled")
	}
}

func TestParseNotDocument(t *testing.T) {
	if _, err := Parse("file:///s.json", []byte(`[1, 2]`)); !errors.Is(err, ErrInvalidSchema) {
		t.Errorf("got %v", err)
	}
}
