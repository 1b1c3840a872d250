package schemastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
)

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		glob, name string
		want       bool
	}{
		{"pyproject.toml", "/a/b/pyproject.toml", true},
		{"*.toml", "/a/b/Cargo.toml", true},
		{"*.toml", "/a/b/Cargo.json", false},
		{"**/.cargo/config.toml", "/home/u/.cargo/config.toml", true},
		{"**/.cargo/config.toml", "/home/u/cargo/config.toml", false},
		{"conf/*.toml", "/srv/app/conf/x.toml", true},
		{"conf/*.toml", "/srv/app/conf/sub/x.toml", false},
		{"conf/**/*.toml", "/srv/app/conf/sub/deep/x.toml", true},
		{"/etc/app/*.toml", "/etc/app/a.toml", true},
		{"/etc/app/*.toml", "/x/etc/app/a.toml", false},
		{"{ruff,.ruff}.toml", "/p/.ruff.toml", true},
		{"{ruff,.ruff}.toml", "/p/xruff.toml", false},
		{"**/{.cargo,cargo}/*.toml", "/home/u/cargo/config.toml", true},
		{"./conf/*.toml", "/srv/conf/a.toml", true},
		{"**/x.toml", "/x.toml", true},
	}
	for _, tc := range tests {
		if got := matchGlob(tc.glob, tc.name); got != tc.want {
			t.Errorf("matchGlob(%q, %q) = %v", tc.glob, tc.name, got)
		}
	}
}

func TestCatalog(t *testing.T) {
	srv := newSchemaServer(t, map[string]string{"/catalog.json": `{
		"schemas": [
			{"name": "Cargo", "fileMatch": ["Cargo.toml"], "url": "https://example.com/cargo.json"},
			{"name": "Package", "fileMatch": ["package.json"], "url": "https://example.com/package.json"},
			{"name": "Ruff", "fileMatch": ["ruff.toml", ".ruff.toml"], "url": "https://example.com/ruff.json"}
		]
	}`})
	st := New(Options{FetchRate: 1000})
	n, err := st.LoadCatalog(context.Background(), srv.URL+"/catalog.json")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("added %d associations", n)
	}
	st.Associate(&Association{SchemaURI: "file:///own.json", Include: []string{"Cargo.toml"}})
	var got []string
	for _, a := range st.Associations("/p/Cargo.toml") {
		got = append(got, a.SchemaURI)
	}
	if diff := cmp.Diff([]string{"file:///own.json", "https://example.com/cargo.json"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestContext(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	write("local.json", `{"type": "object", "x-tombi-toml-version": "v1.1.0-preview", "properties": {"a": {"type": "string"}}}`)
	tool := write("tool.json", `{"type": "object", "properties": {"b": {"type": "integer"}}}`)
	ctx := context.Background()

	st := New(Options{})
	toolPath, err := accessor.Parse("tool.x")
	if err != nil {
		t.Fatal(err)
	}
	st.Associate(&Association{SchemaURI: FileURI(tool), Include: []string{"*.toml"}, Root: toolPath})
	st.Associate(&Association{SchemaURI: "file:///nowhere.json", Include: []string{"*.toml"}})

	name := filepath.Join(dir, "a.toml")
	doc := doctree.Load([]byte("#:schema ./local.json\na = \"x\"\n"))
	sc, err := st.Context(ctx, name, doc)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Root == nil || sc.Root.Schema.Property("a") == nil {
		t.Fatal("directive schema not used")
	}
	if sc.TOMLVersion != "v1.1.0-preview" {
		t.Errorf("toml version %s", sc.TOMLVersion)
	}
	sub, ok, err := sc.SubSchema(ctx, toolPath)
	if err != nil || !ok || sub == nil {
		t.Fatalf("sub schema: %v %v %v", sub, ok, err)
	}
	if sub.Schema.Property("b").Value().Type != schema.IntegerType {
		t.Error("sub schema root")
	}
	if _, ok, _ := sc.SubSchema(ctx, toolPath[:1]); ok {
		t.Error("only the exact path is redirected")
	}
}

func TestDirectiveURI(t *testing.T) {
	if got := DirectiveURI("/p/a.toml", "https://example.com/s.json"); got != "https://example.com/s.json" {
		t.Errorf("got %s", got)
	}
	if got := DirectiveURI("/p/a.toml", "schemas/s.json"); got != "file:///p/schemas/s.json" {
		t.Errorf("got %s", got)
	}
}
