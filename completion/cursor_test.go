package completion

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAnalyze(t *testing.T) {
	type result struct {
		Mode   mode
		Target string
		Prefix string
		Hint   HintKind
	}
	tests := []struct {
		src  string
		want *result
	}{
		{"na|", &result{keyMode, "", "na", NoHint}},
		{"a.b.|", &result{keyMode, "a.b", "", DotTrigger}},
		{"a.\"b c\".d|", &result{keyMode, `a."b c"`, "d", NoHint}},
		{"a = |", &result{valueMode, "a", "", EqualTrigger}},
		{"a = tr|", &result{valueMode, "a", "tr", NoHint}},
		{"a = [1, |", &result{valueMode, "a[1]", "", InArray}},
		{"a = [{ b = 1 }, { |", &result{keyMode, "a[1]", "", NoHint}},
		{"[x]\nk = { y = [|", &result{valueMode, "x.k.y[0]", "", InArray}},
		{"[x.|", &result{keyMode, "x", "", InTableHeader}},
		{"[[x.y|", &result{keyMode, "x", "y", InTableHeader}},
		{"a = [\n  1,\n  |\n]", &result{valueMode, "a[1]", "", InArray}},
		{"a = 1 |", nil},
		{"# c|", nil},
		{"s = \"ab|", nil},
		{"[x] |", nil},
		{"a b|", nil},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			doc, off := cursorAt(t, tc.src)
			c, ok := analyze(doc, off)
			var got *result
			if ok {
				got = &result{c.mode, c.target.String(), c.prefix, c.hint.Kind}
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestAnalyzeCommas(t *testing.T) {
	tests := []struct {
		src             string
		leading, trails bool
	}{
		{"a = [|]", false, false},
		{"a = [1 |]", true, false},
		{"a = [1, |]", false, false},
		{"a = [| 2]", false, true},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			doc, off := cursorAt(t, tc.src)
			c, ok := analyze(doc, off)
			if !ok || c.hint.Kind != InArray {
				t.Fatalf("got %+v, %v", c, ok)
			}
			if c.hint.LeadingComma != tc.leading || c.hint.TrailingComma != tc.trails {
				t.Errorf("got leading %v trailing %v", c.hint.LeadingComma, c.hint.TrailingComma)
			}
		})
	}
}
