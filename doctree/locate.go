package doctree

import (
	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/text"
)

// Location is what a source offset points at.
type Location struct {
	Section *Section
	// Path is the concrete path of the innermost key or value at the
	// offset. It is the section path when the offset is on neither.
	Path  accessor.Path
	Value *Value
	// Key is set when the offset is on a key.
	Key   *Key
	Range text.Range
	// InHeader is set for offsets inside a [header] or [[header]].
	InHeader bool
}

// Locate finds the innermost key or value at off.
func (d *Document) Locate(off int) Location {
	for _, sec := range d.Sections {
		if (sec.Kind == TableSection || sec.Kind == ArrayOfTableSection) && sec.Header.Contains(off) {
			return locateHeader(d.Root, sec, off)
		}
	}
	sec := d.SectionAt(off)
	loc := Location{Section: sec, Path: sec.Path, Value: d.Root.Lookup(sec.Path)}
	for _, kv := range sec.KeyValues {
		if !kv.Range.Contains(off) {
			continue
		}
		path := sec.Path
		for _, k := range kv.Keys {
			path = path.Append(accessor.Key(k.Name))
			if k.Range.Contains(off) {
				return Location{Section: sec, Path: path, Value: d.Root.Lookup(path), Key: k, Range: k.Range}
			}
		}
		if kv.Value.Range.Contains(off) {
			l := locateIn(kv.Value, path, off)
			l.Section = sec
			return l
		}
	}
	return loc
}

func locateHeader(root *Value, sec *Section, off int) Location {
	loc := Location{Section: sec, InHeader: true}
	for i, k := range sec.HeaderKey {
		loc.Path = prefixThrough(sec.Path, i)
		if k.Range.Contains(off) {
			loc.Key, loc.Range = k, k.Range
			break
		}
	}
	loc.Value = root.Lookup(loc.Path)
	return loc
}

// prefixThrough returns the prefix of a concrete header path ending with
// its i-th key, leaving out the element index following it.
func prefixThrough(p accessor.Path, i int) accessor.Path {
	n := -1
	for j, a := range p {
		if a.IsKey() {
			n++
		}
		if n == i {
			return p[:j+1]
		}
	}
	return p
}

func locateIn(v *Value, path accessor.Path, off int) Location {
	switch v.Kind {
	case Array:
		for i, x := range v.Values {
			if x.Range.Contains(off) {
				return locateIn(x, path.Append(accessor.Index(i)), off)
			}
		}
	case Table:
		for _, e := range v.Entries {
			p := path.Append(accessor.Key(e.Key.Name))
			if e.Key.Range.Contains(off) {
				return Location{Path: p, Value: e.Value, Key: e.Key, Range: e.Key.Range}
			}
			if e.Value.Range.Contains(off) {
				return locateIn(e.Value, p, off)
			}
		}
	}
	return Location{Path: path, Value: v, Range: v.Range}
}
