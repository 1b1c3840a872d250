package doctree

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/text"
)

func mustPath(t *testing.T, s string) accessor.Path {
	t.Helper()
	p, err := accessor.Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadScalars(t *testing.T) {
	src := `b = true
i = 0x1f
f = 1_000.5
s = "hi"
l = 'raw'
d = 1979-05-27
dt = 1979-05-27T07:32:00Z
ldt = 1979-05-27 07:32:00
t = 07:32:00
`
	doc := Load([]byte(src))
	if len(doc.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", doc.Errors)
	}
	tests := []struct {
		key  string
		kind Kind
		lit  any
	}{
		{"b", Boolean, true},
		{"i", Integer, int64(31)},
		{"f", Float, 1000.5},
		{"s", String, "hi"},
		{"l", String, "raw"},
		{"d", LocalDate, "1979-05-27"},
		{"dt", OffsetDateTime, "1979-05-27T07:32:00Z"},
		{"ldt", LocalDateTime, "1979-05-27 07:32:00"},
		{"t", LocalTime, "07:32:00"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			v := doc.Root.Get(tc.key)
			if v == nil {
				t.Fatalf("missing %s", tc.key)
			}
			if v.Kind != tc.kind {
				t.Errorf("kind: got %s want %s", v.Kind, tc.kind)
			}
			if diff := cmp.Diff(tc.lit, v.Literal()); diff != "" {
				t.Errorf("literal (-want +got):\n%s", diff)
			}
		})
	}
	if got := doc.Root.Get("l").StringKind; got != LiteralString {
		t.Errorf("string kind: got %v", got)
	}
}

func TestLoadRanges(t *testing.T) {
	doc := Load([]byte(`name = "hi"` + "\n" + `p = { x = 1, y = 2 }` + "\n"))
	s := doc.Root.Get("name")
	if diff := cmp.Diff(text.Range{Start: 7, End: 11}, s.Range); diff != "" {
		t.Errorf("string range (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(text.Range{Start: 8, End: 10}, s.SymbolRange); diff != "" {
		t.Errorf("string symbol range (-want +got):\n%s", diff)
	}
	p := doc.Root.Get("p")
	if p.TableKind != InlineTable || p.Len() != 2 {
		t.Fatalf("inline table: kind %v len %d", p.TableKind, p.Len())
	}
	if diff := cmp.Diff(text.Range{Start: 16, End: 32}, p.Range); diff != "" {
		t.Errorf("inline range (-want +got):\n%s", diff)
	}
	e := doc.Root.Entry("p")
	if diff := cmp.Diff(text.Range{Start: 12, End: 13}, e.Key.Range); diff != "" {
		t.Errorf("key range (-want +got):\n%s", diff)
	}
}

func TestLoadArrayOfTables(t *testing.T) {
	src := `[[x]]
a = 1
[[x]]
a = 2
[x.y]
b = 1
`
	doc := Load([]byte(src))
	if len(doc.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", doc.Errors)
	}
	x := doc.Root.Get("x")
	if x.Kind != Array || x.ArrayKind != ArrayOfTable || len(x.Values) != 2 {
		t.Fatalf("x: %s %v len %d", x.Kind, x.ArrayKind, x.Len())
	}
	if doc.Root.Lookup(mustPath(t, "x[0].y")) != nil {
		t.Error("x[0] should not have y")
	}
	if got := doc.Root.Lookup(mustPath(t, "x[1].y.b")); got == nil || got.Int != 1 {
		t.Errorf("x[1].y.b: got %v", got)
	}
	var paths []string
	for _, s := range doc.Sections {
		paths = append(paths, s.Path.String())
	}
	want := []string{"", "x[0]", "x[1]", "x[1].y"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("section paths (-want +got):\n%s", diff)
	}
}

func TestLoadDottedKeys(t *testing.T) {
	doc := Load([]byte("a.b.c = 1\na.b.d = 2\n"))
	if len(doc.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", doc.Errors)
	}
	b := doc.Root.Lookup(mustPath(t, "a.b"))
	if diff := cmp.Diff([]string{"c", "d"}, b.Keys()); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	if got := doc.Root.Get("a").TableKind; got != ParentKey {
		t.Errorf("a kind: got %v", got)
	}
	if b.TableKind != KeyValueTable {
		t.Errorf("a.b kind: got %v", b.TableKind)
	}
}

func TestLoadConflicts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"table twice", "[a]\nb = 1\n[a]\nc = 2\n", ErrConflictTable},
		{"duplicate key", "a = 1\na = 2\n", ErrDuplicateKey},
		{"array assigned twice", "a = [1]\na = [2]\n", ErrDuplicateKey},
		{"inline extended", "a = { b = 1 }\na.c = 2\n", ErrConflictTable},
		{"inline redefined by header", "a = { b = 1 }\n[a]\nc = 2\n", ErrConflictTable},
		{"array then table", "a = [1]\n[[a]]\n", ErrConflictArray},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := Load([]byte(tc.src))
			if len(doc.Errors) == 0 {
				t.Fatal("expected an error")
			}
			if !errors.Is(doc.Errors[0], tc.want) {
				t.Errorf("got %v want %v", doc.Errors[0], tc.want)
			}
		})
	}
}

func TestLoadRecovers(t *testing.T) {
	doc := Load([]byte("a = 1\nb =\nc = 3\n"))
	if len(doc.Errors) != 1 || !errors.Is(doc.Errors[0], ErrParse) {
		t.Fatalf("errors: %v", doc.Errors)
	}
	if got := doc.Root.Get("b"); got == nil || got.Kind != Incomplete {
		t.Fatalf("b: %v", got)
	}
	if got := doc.Root.Get("c"); got == nil || got.Int != 3 {
		t.Fatalf("c: %v", got)
	}
	var keys []string
	for _, kv := range doc.Sections[0].KeyValues {
		keys = append(keys, kv.Keys[0].Name)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, keys); diff != "" {
		t.Errorf("section keys (-want +got):\n%s", diff)
	}
}

func TestLoadDirectives(t *testing.T) {
	src := "#:schema https://example.com/s.json\n" +
		"a = 1 # tomlkit: lint.rules.x = \"off\"\n" +
		"# tomlkit: format.table-keys-order = \"ascending\"\n" +
		"[t]\n"
	doc := Load([]byte(src))
	if doc.SchemaURI != "https://example.com/s.json" {
		t.Errorf("schema uri: %q", doc.SchemaURI)
	}
	lvl, ok := RuleLevel(doc.Root.Get("a").Directives, "x")
	if !ok || lvl != "off" {
		t.Errorf("rule level: %q %v", lvl, ok)
	}
	ds := doc.Root.Get("t").Directives
	if len(ds) != 1 || ds[0].Format.TableKeysOrder != "ascending" {
		t.Errorf("table directives: %+v", ds)
	}
}
