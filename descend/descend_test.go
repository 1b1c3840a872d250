package descend

import (
	"context"
	"testing"

	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
	"github.com/signadot/tomlkit/schemastore"
)

func testContext(t *testing.T, src string, docs map[string]string) *schemastore.SchemaContext {
	t.Helper()
	st := schemastore.New(schemastore.Options{Offline: true})
	st.Register("mem://root.json", []byte(src))
	for uri, d := range docs {
		st.Register(uri, []byte(d))
	}
	ctx := context.Background()
	doc, err := st.Load(ctx, "mem://root.json")
	if err != nil {
		t.Fatal(err)
	}
	root, err := doc.Root.Resolve(ctx, doc.URI, doc.Definitions, st)
	if err != nil {
		t.Fatal(err)
	}
	return &schemastore.SchemaContext{Root: root, Loader: st}
}

func mustPath(t *testing.T, s string) accessor.Path {
	t.Helper()
	p, err := accessor.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDescendTable(t *testing.T) {
	sc := testContext(t, `{
		"type": "object",
		"properties": {"a": {"type": "integer"}},
		"patternProperties": {"^a.*$": {"type": "string"}, "^ab": {"type": "boolean"}},
		"additionalProperties": {"type": "array"}
	}`, nil)
	d := New(sc)
	ctx := context.Background()
	tests := []struct {
		key   string
		match Match
		typ   schema.Type
	}{
		{"a", Property, schema.IntegerType},
		{"ab", PatternProperty, schema.StringType},
		{"b", AdditionalProperty, schema.ArrayType},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			step := d.Descend(ctx, d.Root(ctx), nil, accessor.Key(tc.key))
			if step.Match != tc.match || step.Schema == nil || step.Schema.Schema.Type != tc.typ {
				t.Errorf("got %s %v", step.Match, step.Schema)
			}
			if !step.Path.Equal(accessor.Path{accessor.Key(tc.key)}) {
				t.Errorf("path %s", step.Path)
			}
		})
	}
}

func TestDescendUnconstrainedAndForbidden(t *testing.T) {
	ctx := context.Background()
	open := New(testContext(t, `{"type": "object", "properties": {"a": {"type": "integer"}}}`, nil))
	step := open.Descend(ctx, open.Root(ctx), nil, accessor.Key("b"))
	if step.Match != Unconstrained || step.Schema != nil {
		t.Errorf("open table: %s", step.Match)
	}
	closed := New(testContext(t, `{"type": "object", "patternProperties": {"^x-": {}}, "additionalProperties": false}`, nil))
	step = closed.Descend(ctx, closed.Root(ctx), nil, accessor.Key("b"))
	if step.Match != NotAllowed || step.Schema != nil {
		t.Errorf("closed table: %s", step.Match)
	}
	if len(step.Patterns) != 1 || step.Patterns[0] != "^x-" {
		t.Errorf("patterns %v", step.Patterns)
	}
}

func TestDescendItemsAndMismatch(t *testing.T) {
	ctx := context.Background()
	d := New(testContext(t, `{"type": "array", "items": {"$ref": "#/definitions/x"}, "definitions": {"x": {"type": "string"}}}`, nil))
	root := d.Root(ctx)
	for _, i := range []int{0, 7} {
		step := d.Descend(ctx, root, nil, accessor.Index(i))
		if step.Match != Items || step.Schema.Schema.Type != schema.StringType {
			t.Errorf("index %d: %s", i, step.Match)
		}
	}
	if step := d.Descend(ctx, root, nil, accessor.Key("a")); step.Match != Unconstrained {
		t.Errorf("key into array: %s", step.Match)
	}
}

func TestDescendRedirect(t *testing.T) {
	sc := testContext(t, `{
		"type": "object",
		"properties": {"tool": {"type": "object", "properties": {"x": {"type": "integer"}}}}
	}`, map[string]string{"mem://x.json": `{"type": "object", "properties": {"y": {"type": "boolean"}}}`})
	sc.SubSchemas = map[string]string{"tool.x": "mem://x.json", "list[*].z": "mem://x.json"}
	d := New(sc)
	ctx := context.Background()
	tool := d.Descend(ctx, d.Root(ctx), nil, accessor.Key("tool"))
	x := d.Descend(ctx, tool.Schema, tool.Path, accessor.Key("x"))
	if x.Match != Redirected || x.Schema.URI != "mem://x.json" {
		t.Fatalf("got %s", x.Match)
	}
	y := d.Descend(ctx, x.Schema, x.Path, accessor.Key("y"))
	if y.Schema == nil || y.Schema.Schema.Type != schema.BooleanType {
		t.Error("descent continues in the redirected document")
	}
	// redirects apply under unconstrained locations and to every index
	z := d.Descend(ctx, nil, mustPath(t, "list[3]"), accessor.Key("z"))
	if z.Match != Redirected {
		t.Errorf("got %s", z.Match)
	}
}

func TestDescendUnresolved(t *testing.T) {
	ctx := context.Background()
	d := New(testContext(t, `{"type": "object", "properties": {"a": {"$ref": "#/definitions/missing"}}}`, nil))
	step := d.Descend(ctx, d.Root(ctx), nil, accessor.Key("a"))
	if step.Match != Property || step.Schema != nil {
		t.Errorf("an unresolved property is unconstrained, got %s %v", step.Match, step.Schema)
	}
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	d := New(testContext(t, `{"oneOf": [{"type": "string"}, {"type": "null"}, {"$ref": "#/definitions/nope"}, {"type": "integer"}]}`, nil))
	root := d.Root(ctx)
	if step := d.Descend(ctx, root, nil, accessor.Key("a")); step.Match != Composite {
		t.Errorf("got %s", step.Match)
	}
	ms := d.Members(ctx, root, nil)
	if len(ms) != 2 || ms[0].Schema.Type != schema.StringType || ms[1].Schema.Type != schema.IntegerType {
		t.Errorf("members %v", ms)
	}
}

type countVisitor struct {
	unconstrained, compositions int
}

func (c *countVisitor) Unconstrained(context.Context, *Walker[int], Node) int {
	c.unconstrained++
	return 0
}
func (c *countVisitor) Absent(context.Context, *Walker[int], Node) int   { return 0 }
func (c *countVisitor) Mismatch(context.Context, *Walker[int], Node) int { return 1 }
func (c *countVisitor) Scalar(context.Context, *Walker[int], Node) int   { return 0 }
func (c *countVisitor) Array(context.Context, *Walker[int], Node) int    { return 0 }
func (c *countVisitor) Table(context.Context, *Walker[int], Node) int    { return 0 }
func (c *countVisitor) Composition(ctx context.Context, w *Walker[int], _ Node, members []Node) int {
	c.compositions++
	n := 0
	for _, m := range members {
		n += w.Visit(ctx, m)
	}
	return n
}

func TestWalkerSelfReference(t *testing.T) {
	ctx := context.Background()
	d := New(testContext(t, `{
		"$ref": "#/definitions/a",
		"definitions": {"a": {"anyOf": [{"$ref": "#/definitions/a"}, {"type": "string"}]}}
	}`, nil))
	c := &countVisitor{}
	w := NewWalker[int](d, c)
	doc := doctree.Load([]byte("a = 1\n"))
	if got := w.Visit(ctx, w.RootNode(ctx, doc.Root)); got != 1 {
		t.Errorf("mismatches %d", got)
	}
	if c.compositions != 1 || c.unconstrained != 1 {
		t.Errorf("compositions %d unconstrained %d", c.compositions, c.unconstrained)
	}
}
