package doctree

import (
	"strings"
	"testing"
)

func TestLocate(t *testing.T) {
	src := `name = "x"
[tool.poetry]
deps = { a.b = 1, c = [10, 20] }
[[bin]]
path = "p"
[[bin]]
path = "q"
`
	doc := Load([]byte(src))
	at := func(sub string, nth int) int {
		off := -1
		for range nth + 1 {
			off += 1 + strings.Index(src[off+1:], sub)
		}
		return off + 1
	}
	tests := []struct {
		name     string
		off      int
		path     string
		key      string
		inHeader bool
	}{
		{"root key", at("name", 0), "name", "name", false},
		{"root value", at(`"x"`, 0), "name", "", false},
		{"header key", at("poetry", 0), "tool.poetry", "poetry", true},
		{"first header key", at("tool", 0), "tool", "tool", true},
		{"inline dotted key", at("b =", 0), "tool.poetry.deps.a.b", "b", false},
		{"array element", at("20", 0), "tool.poetry.deps.c[1]", "", false},
		{"array of tables key", at("path", 1), "bin[1].path", "path", false},
		{"array of tables header", at("bin", 1), "bin", "bin", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loc := doc.Locate(tc.off)
			if got := loc.Path.String(); got != tc.path {
				t.Errorf("path %s", got)
			}
			if loc.InHeader != tc.inHeader {
				t.Errorf("in header %v", loc.InHeader)
			}
			key := ""
			if loc.Key != nil {
				key = loc.Key.Name
			}
			if key != tc.key {
				t.Errorf("key %q", key)
			}
			if loc.Value == nil {
				t.Error("no value")
			}
		})
	}
}
