package edit

import (
	"bytes"
	"cmp"
	"slices"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/text"
)

type Kind int

const (
	Replace Kind = iota
	Insert
	Remove
)

func (k Kind) String() string {
	switch k {
	case Replace:
		return "replace"
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	}
	return "<unknown change>"
}

// Change is one structural rewrite of the source. Range is empty for an
// Insert and Text is empty for a Remove. Path is the value the change was
// made for.
type Change struct {
	Kind  Kind
	Range text.Range
	Text  string
	Path  accessor.Path
}

// Apply applies changes to src. Changes are applied by start offset, the
// longer first at equal starts; a change overlapping one already applied
// is skipped. It returns the result and the number of changes applied.
func Apply(src []byte, changes []Change) ([]byte, int) {
	sorted := slices.Clone(changes)
	slices.SortStableFunc(sorted, func(a, b Change) int {
		if c := cmp.Compare(a.Range.Start, b.Range.Start); c != 0 {
			return c
		}
		return cmp.Compare(b.Range.End, a.Range.End)
	})
	var buf bytes.Buffer
	pos, n := 0, 0
	for _, c := range sorted {
		if c.Range.Start < pos || c.Range.End > len(src) {
			continue
		}
		buf.Write(src[pos:c.Range.Start])
		buf.WriteString(c.Text)
		pos = c.Range.End
		n++
	}
	buf.Write(src[pos:])
	return buf.Bytes(), n
}

// Minimal splits a replacement into the inserts and removals that differ
// from the text it replaces, so that clients keep cursors and marks in the
// unchanged parts.
func Minimal(src []byte, c Change) []Change {
	if c.Kind != Replace {
		return []Change{c}
	}
	old := string(src[c.Range.Start:c.Range.End])
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, c.Text, false)
	var res []Change
	off := c.Range.Start
	for i := 0; i < len(diffs); i++ {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			off += len(d.Text)
		case diffmatchpatch.DiffDelete:
			r := text.Range{Start: off, End: off + len(d.Text)}
			off = r.End
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				res = append(res, Change{Kind: Replace, Range: r, Text: diffs[i+1].Text, Path: c.Path})
				i++
				continue
			}
			res = append(res, Change{Kind: Remove, Range: r, Path: c.Path})
		case diffmatchpatch.DiffInsert:
			res = append(res, Change{Kind: Insert, Range: text.Range{Start: off, End: off}, Text: d.Text, Path: c.Path})
		}
	}
	return res
}
