package hover

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schemastore"
	"github.com/signadot/tomlkit/validate"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string", "title": "Name", "description": "The package name.", "maxLength": 20},
		"tool": {"type": "object", "title": "Tools", "additionalProperties": false},
		"nums": {"type": "array", "items": {"type": "integer", "minimum": 0}},
		"v": {"oneOf": [{"type": "string", "title": "S"}, {"type": "integer", "title": "I"}]},
		"n": {"oneOf": [{"type": "integer", "title": "Low", "minimum": 0}, {"type": "integer", "title": "High", "maximum": 10}]},
		"e": {"oneOf": [{"type": "string", "enum": ["a"]}, {"type": "string", "enum": ["b"]}], "default": "a"},
		"arr": {"oneOf": [{"type": "string"}, {"type": "array", "items": {"type": "integer", "title": "Elem"}}]},
		"all": {"allOf": [{"type": "integer", "title": "Count", "minimum": 1}, {"type": "integer", "maximum": 9}]}
	}
}`

func find(t *testing.T, src, at string) *Content {
	t.Helper()
	st := schemastore.New(schemastore.Options{Offline: true})
	st.Register("mem://s.json", []byte(testSchema))
	ctx := context.Background()
	sdoc, err := st.Load(ctx, "mem://s.json")
	if err != nil {
		t.Fatal(err)
	}
	root, err := sdoc.Root.Resolve(ctx, sdoc.URI, sdoc.Definitions, st)
	if err != nil {
		t.Fatal(err)
	}
	sc := &schemastore.SchemaContext{Root: root, Loader: st}
	off := strings.Index(src, at)
	if off < 0 {
		t.Fatalf("%q not in source", at)
	}
	c, ok := Find(ctx, doctree.Load([]byte(src)), sc, off+1, validate.Options{})
	if !ok {
		t.Fatal("no hover content")
	}
	return c
}

func TestFind(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		at    string
		title string
		typ   string
		path  string
	}{
		{"key", "name = \"x\"\n", "name", "Name", "String", "name"},
		{"value", "name = \"x\"\n", "\"x\"", "Name", "String", "name"},
		{"header", "[tool]\n", "tool", "Tools", "Table", "tool"},
		{"array item", "nums = [1, 2]\n", "2", "", "Integer", "nums[1]"},
		{"unconstrained", "other = 1.5\n", "1.5", "", "Float", "other"},
		{"oneOf valid member", "v = 1\n", "1", "I", "Integer", "v"},
		{"oneOf several valid", "n = 5\n", "5", "", "Integer", "n"},
		{"oneOf one valid", "n = 20\n", "20", "Low", "Integer", "n"},
		{"array shortcut", "arr = [\"x\"]\n", "\"x\"", "Elem", "Integer", "arr[0]"},
		{"allOf", "all = 3\n", "3", "Count", "Integer", "all"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := find(t, tc.src, tc.at)
			got := []string{c.Title, c.ValueType.String(), c.Path.String()}
			if diff := cmp.Diff([]string{tc.title, tc.typ, tc.path}, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindRange(t *testing.T) {
	src := "name = \"x\"\n"
	c := find(t, src, "name")
	if c.Range.Start != 0 || c.Range.End != 4 {
		t.Errorf("range %s", c.Range)
	}
	if c.SchemaURI != "mem://s.json" {
		t.Errorf("schema %s", c.SchemaURI)
	}
}

func TestCompositionValues(t *testing.T) {
	c := find(t, "e = \"a\"\n", "\"a\"")
	if c.Constraints == nil {
		t.Fatal("no constraints")
	}
	if diff := cmp.Diff([]any{"a", "b"}, c.Constraints.Enum); diff != "" {
		t.Errorf("enum (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"a"}, c.Constraints.Default); diff != "" {
		t.Errorf("default (-want +got):\n%s", diff)
	}
}

func TestAllOfConstraints(t *testing.T) {
	c := find(t, "all = 3\n", "3")
	if c.Constraints == nil || c.Constraints.Minimum == nil || c.Constraints.Maximum == nil {
		t.Fatalf("constraints %+v", c.Constraints)
	}
	if *c.Constraints.Minimum != 1 || *c.Constraints.Maximum != 9 {
		t.Errorf("bounds %v %v", *c.Constraints.Minimum, *c.Constraints.Maximum)
	}
}

func TestMarkdown(t *testing.T) {
	md := find(t, "name = \"x\"\n", "name").Markdown()
	for _, want := range []string{
		"#### Name",
		"The package name.",
		"Keys: name",
		"Value: String",
		"- max length: `20`",
		"Schema: [s.json](mem://s.json)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("missing %q in\n%s", want, md)
		}
	}
}

func TestNothingUnderCursor(t *testing.T) {
	src := "a = 1\n\n\nb = 2\n"
	_, ok := Find(context.Background(), doctree.Load([]byte(src)), nil, 7, validate.Options{})
	if ok {
		t.Error("blank line has no hover")
	}
}
