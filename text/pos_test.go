package text

import "testing"

func TestLineIndexPosition(t *testing.T) {
	doc := []byte("a = 1\nbé = \"x\"\n\nlast")
	x := NewLineIndex(doc)
	tests := []struct {
		name string
		off  int
		want Position
	}{
		{name: "start", off: 0, want: Position{0, 0}},
		{name: "first line end", off: 5, want: Position{0, 5}},
		{name: "second line start", off: 6, want: Position{1, 0}},
		{name: "after multibyte", off: 9, want: Position{1, 2}},
		{name: "empty line", off: 16, want: Position{2, 0}},
		{name: "last line", off: 18, want: Position{3, 1}},
		{name: "clamped", off: 100, want: Position{3, 4}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := x.Position(tc.off)
			if got != tc.want {
				t.Errorf("Position(%d) = %v, want %v", tc.off, got, tc.want)
			}
		})
	}
}

func TestLineIndexOffsetRoundTrip(t *testing.T) {
	doc := []byte("key = \"😀\"\n[table]\nx = 2\n")
	x := NewLineIndex(doc)
	for off := 0; off <= len(doc); off++ {
		if off < len(doc) && doc[off]&0xC0 == 0x80 {
			continue
		}
		p := x.Position(off)
		if got := x.Offset(p); got != off {
			t.Errorf("Offset(Position(%d)=%v) = %d", off, p, got)
		}
	}
}

func TestRangeUnion(t *testing.T) {
	r := Range{Start: 4, End: 8}
	if got := r.Union(Range{Start: 2, End: 5}); got != (Range{2, 8}) {
		t.Errorf("got %v", got)
	}
	if got := (Range{}).Union(r); got != r {
		t.Errorf("zero union: got %v", got)
	}
	if !r.Contains(8) || r.Contains(9) {
		t.Errorf("contains end offset mismatch")
	}
}
