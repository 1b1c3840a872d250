package text

import (
	"fmt"
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero based line and column. Columns count UTF-16 code
// units, which is what editors speaking LSP expect.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Range is a half open byte offset range [Start, End) into a source.
type Range struct {
	Start int
	End   int
}

func (r Range) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether off lies in r. The end offset counts as inside so
// that a cursor placed right after a token still addresses it.
func (r Range) Contains(off int) bool {
	return r.Start <= off && off <= r.End
}

// Union returns the smallest range covering r and o.
func (r Range) Union(o Range) Range {
	if r.IsZero() {
		return o
	}
	if o.IsZero() {
		return r
	}
	return Range{Start: min(r.Start, o.Start), End: max(r.End, o.End)}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// LineIndex maps byte offsets of a document to positions.
type LineIndex struct {
	d []byte
	n []int
}

func NewLineIndex(d []byte) *LineIndex {
	x := &LineIndex{d: d}
	for i, c := range d {
		if c == '\n' {
			x.n = append(x.n, i)
		}
	}
	return x
}

// LineCol returns the line and the byte column of off.
func (x *LineIndex) LineCol(off int) (int, int) {
	N := len(x.n)
	di := sort.Search(N, func(i int) bool {
		return x.n[i] >= off
	})
	if di == 0 {
		return 0, off
	}
	return di, off - x.n[di-1] - 1
}

// LineStart returns the offset of the first byte of line.
func (x *LineIndex) LineStart(line int) int {
	switch {
	case line <= 0:
		return 0
	case line > len(x.n):
		return len(x.d)
	default:
		return x.n[line-1] + 1
	}
}

// LineEnd returns the offset of the newline terminating line, or the
// document length for the last line.
func (x *LineIndex) LineEnd(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(x.n) {
		return len(x.d)
	}
	return x.n[line]
}

func (x *LineIndex) Lines() int {
	return len(x.n) + 1
}

// Position converts a byte offset to a line and UTF-16 column.
func (x *LineIndex) Position(off int) Position {
	off = max(0, min(off, len(x.d)))
	line, _ := x.LineCol(off)
	start := x.LineStart(line)
	return Position{Line: line, Column: utf16Len(x.d[start:off])}
}

// Offset converts a line and UTF-16 column to a byte offset. Columns past
// the end of the line clamp to the line end.
func (x *LineIndex) Offset(p Position) int {
	if p.Line >= x.Lines() {
		return len(x.d)
	}
	start := x.LineStart(p.Line)
	end := x.LineEnd(p.Line)
	col := 0
	i := start
	for i < end && col < p.Column {
		r, sz := utf8.DecodeRune(x.d[i:end])
		if utf16.RuneLen(r) == 2 {
			col += 2
		} else {
			col++
		}
		i += sz
	}
	return i
}

// Range converts a byte range to a pair of positions.
func (x *LineIndex) Range(r Range) (Position, Position) {
	return x.Position(r.Start), x.Position(r.End)
}

func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, sz := utf8.DecodeRune(b)
		if utf16.RuneLen(r) == 2 {
			n += 2
		} else {
			n++
		}
		b = b[sz:]
	}
	return n
}
