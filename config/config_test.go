package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schemastore"
	"github.com/signadot/tomlkit/validate"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
toml-version = "v1.1.0-preview"

[lint]
strict = true
rules = { deprecated = "off", key-required = "warn" }

[schema]
catalog = []
offline = true
fetch-timeout = "3s"

[[schemas]]
path = "schemas/tool.json"
include = ["pyproject.toml"]
root = "tool.mytool"
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.TOMLVersion != "v1.1.0-preview" || !c.Lint.Strict || !c.Schema.Offline {
		t.Errorf("got %+v", c)
	}
	if len(c.Schema.Catalog) != 0 {
		t.Errorf("catalog %v", c.Schema.Catalog)
	}
	if time.Duration(c.Schema.FetchTimeout) != 3*time.Second {
		t.Errorf("fetch timeout %v", c.Schema.FetchTimeout)
	}
	if !c.SchemaEnabled() {
		t.Error("schema disabled")
	}
	opts, err := c.ValidateOptions()
	if err != nil {
		t.Fatal(err)
	}
	want := validate.Options{
		Strict: true,
		Rules:  diagnostic.Rules{"deprecated": diagnostic.LevelOff, "key-required": diagnostic.LevelWarn},
	}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "colour = 1\n"},
		{"toml version", "toml-version = \"v2\"\n"},
		{"rule", "[lint.rules]\nno-such-rule = \"off\"\n"},
		{"level", "[lint.rules]\ndeprecated = \"loud\"\n"},
		{"schema path", "[[schemas]]\ninclude = [\"*.toml\"]\n"},
		{"schema root", "[[schemas]]\npath = \"a.json\"\nroot = \"a..b\"\n"},
		{"overlay", "[[overlays]]\nschema = \"a.json\"\n"},
		{"duration", "[schema]\nfetch-timeout = \"soon\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.src)); !errors.Is(err, ErrBadConfig) {
				t.Errorf("got %v", err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.TOMLVersion != schemastore.DefaultTOMLVersion || !c.SchemaEnabled() {
		t.Errorf("got %+v", c)
	}
	if diff := cmp.Diff([]string{DefaultCatalog}, c.Schema.Catalog); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, ok := Find(sub); ok {
		t.Fatal("found config in empty tree")
	}
	p := filepath.Join(root, FileName)
	if err := os.WriteFile(p, []byte("[lint]\nstrict = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, ok := Find(sub)
	if !ok || got != p {
		t.Fatalf("got %q, %v", got, ok)
	}
	c, err := Discover(sub)
	if err != nil {
		t.Fatal(err)
	}
	if !c.Lint.Strict || c.Dir != root {
		t.Errorf("got %+v", c)
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("tool.json", `{"type": "object", "properties": {"level": {"type": "integer"}}}`)
	write("patch.yaml", "properties:\n  level:\n    maximum: 3\n")
	write(FileName, `
[schema]
catalog = []
offline = true
cache-dir = ""

[[schemas]]
path = "tool.json"
include = ["app.toml"]
root = "tool.app"

[[overlays]]
schema = "tool.json"
patch = "patch.yaml"
`)
	c, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	st, err := c.NewStore(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	name := filepath.Join(dir, "app.toml")
	doc := doctree.Load([]byte("[tool.app]\nlevel = 5\n"))
	sc, err := st.Context(ctx, name, doc)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sc.SubSchemas["tool.app"]; !ok {
		t.Fatalf("sub schemas %v", sc.SubSchemas)
	}
	ds := validate.Document(ctx, doc, sc, validate.Options{})
	if len(ds) != 1 || ds[0].Kind != diagnostic.IntegerMaximum {
		t.Errorf("got %v", ds)
	}
}
