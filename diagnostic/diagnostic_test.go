package diagnostic

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tomlkit/text"
)

func TestCodesUnique(t *testing.T) {
	seen := map[string]Kind{}
	for _, k := range Kinds() {
		c := k.Code()
		if c == "" {
			t.Errorf("kind %d has no code", int(k))
		}
		if o, ok := seen[c]; ok {
			t.Errorf("code %q used by %d and %d", c, int(o), int(k))
		}
		seen[c] = k
		if got, ok := KindOf(c); !ok || got != k {
			t.Errorf("KindOf(%q) = %v, %v", c, got, ok)
		}
	}
}

func TestRules(t *testing.T) {
	rules, err := ParseRules(map[string]string{
		"deprecated":      "error",
		"integer-maximum": "off",
		"parse-error":     "off",
	})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		kind Kind
		want Level
	}{
		{Deprecated, LevelError},
		{IntegerMaximum, LevelOff},
		{ParseError, LevelError},
		{OneOfMultipleMatch, LevelWarn},
		{TypeMismatch, LevelError},
	}
	for _, tc := range tests {
		t.Run(tc.kind.Code(), func(t *testing.T) {
			if got := rules.Level(tc.kind); got != tc.want {
				t.Errorf("got %s want %s", got, tc.want)
			}
		})
	}
	if _, err := ParseRules(map[string]string{"nope": "off"}); !errors.Is(err, ErrUnknownRule) {
		t.Errorf("unknown rule: %v", err)
	}
	if _, err := ParseRules(map[string]string{"deprecated": "loud"}); !errors.Is(err, ErrBadLevel) {
		t.Errorf("bad level: %v", err)
	}
	over := rules.With(Rules{"deprecated": LevelOff})
	if over.Level(Deprecated) != LevelOff || rules.Level(Deprecated) != LevelError {
		t.Error("With must not modify the receiver")
	}
}

func TestNormalize(t *testing.T) {
	a := NewKeyRequired(text.Range{Start: 10, End: 20}, "b")
	b := NewKeyRequired(text.Range{Start: 0, End: 20}, "a")
	off := NewDeprecated(text.Range{Start: 0, End: 1}, "x")
	off.Level = LevelOff
	got := Normalize([]Diagnostic{a, b, a, off})
	want := []Diagnostic{b, a}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestPrinter(t *testing.T) {
	src := []byte("a = 1\nversion = 123\n")
	d := NewTypeMismatch(text.Range{Start: 16, End: 19}, "String", "Integer")
	buf := bytes.NewBuffer(nil)
	p := NewPrinterColor(buf, false)
	if err := p.Print("x.toml", src, []Diagnostic{d}); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"error[type-mismatch]: expected a value of type String, but found Integer",
		"  --> x.toml:2:11",
		"  |",
		"2 | version = 123",
		"  |           ^^^",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
