package completion

import (
	"bytes"
	"strings"

	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/text"
)

type mode int

const (
	keyMode mode = iota
	valueMode
)

// cursor is what is being typed at an offset: keys of the table at target,
// or a value for target.
type cursor struct {
	mode   mode
	target accessor.Path
	// prefix is the partially typed key or value, replace its range or the
	// empty range at the cursor.
	prefix  string
	replace text.Range
	hint    Hint
}

// analyze reads the text of the statement around off. It reports false
// when nothing can be completed there, as inside a comment or a string, or
// after a complete value.
func analyze(doc *doctree.Document, off int) (cursor, bool) {
	src := doc.Source
	if off < 0 || off > len(src) {
		return cursor{}, false
	}
	line, _ := doc.Lines.LineCol(off)
	ls := doc.Lines.LineStart(line)
	lead := len(src[ls:off]) - len(bytes.TrimLeft(src[ls:off], " \t"))
	if ls+lead < off && src[ls+lead] == '[' {
		return analyzeHeader(src, ls+lead, off)
	}
	sec := doc.SectionAt(off)
	start := ls
	for _, kv := range sec.KeyValues {
		if kv.Range.Start < ls && kv.Range.End > off {
			start = kv.Range.Start
		}
	}
	s := &scanner{src: src, off: off}
	return s.scan(start, sec.Path)
}

func analyzeHeader(src []byte, open, off int) (cursor, bool) {
	i := open + 1
	if i < off && src[i] == '[' {
		i++
	}
	if bytes.ContainsAny(src[i:off], "]#") {
		return cursor{}, false
	}
	f := &frame{}
	s := &scanner{src: src, off: off}
	for i < off {
		j, ok := s.key(f, i)
		if !ok {
			return cursor{}, false
		}
		i = j
	}
	c := cursor{mode: keyMode, target: f.childPath(), replace: text.Range{Start: off, End: off}, hint: Hint{Kind: InTableHeader}}
	if f.tokSet {
		if f.tokEnd != off {
			return cursor{}, false
		}
		c.prefix, c.replace.Start = f.tok, f.tokStart
	}
	return c, true
}

// frame is an open table or array within a statement. The statement itself
// is the outermost table frame.
type frame struct {
	array bool
	path  accessor.Path

	keys     []string
	tok      string
	tokSet   bool
	tokStart int
	tokEnd   int
	dot      text.Range
	eq       text.Range
	afterEq  bool

	value        bool
	partial      string
	partialStart int
	index        int
	comma        bool
}

func (f *frame) valuePos() bool {
	return f.array || f.afterEq
}

func (f *frame) childPath() accessor.Path {
	if f.array {
		return f.path.Append(accessor.Index(f.index))
	}
	p := f.path
	for _, k := range f.keys {
		p = p.Append(accessor.Key(k))
	}
	return p
}

func (f *frame) setValue() {
	f.value, f.comma = true, false
}

type scanner struct {
	src []byte
	off int
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

func isValueDelim(c byte) bool {
	return strings.IndexByte(" \t\r\n,]}#[{=\"'", c) >= 0
}

// quoted returns the offset after the string starting at i, false if it is
// not closed before the cursor.
func (s *scanner) quoted(i int) (int, bool) {
	q := s.src[i]
	multi := i+2 < s.off && s.src[i+1] == q && s.src[i+2] == q
	if multi {
		end := bytes.Index(s.src[i+3:s.off], []byte{q, q, q})
		if end < 0 {
			return 0, false
		}
		return i + 3 + end + 3, true
	}
	for j := i + 1; j < s.off; j++ {
		switch s.src[j] {
		case '\\':
			if q == '"' {
				j++
			}
		case '\n':
			return 0, false
		case q:
			return j + 1, true
		}
	}
	return 0, false
}

// key consumes one piece of a dotted key at i: a bare or quoted key, a dot
// or white space.
func (s *scanner) key(f *frame, i int) (int, bool) {
	c := s.src[i]
	switch {
	case c == ' ' || c == '\t':
		return i + 1, true
	case c == '.':
		if !f.tokSet {
			return 0, false
		}
		f.keys = append(f.keys, f.tok)
		f.tokSet = false
		f.dot = text.Range{Start: i, End: i + 1}
		return i + 1, true
	case c == '"' || c == '\'':
		j, ok := s.quoted(i)
		if !ok || f.tokSet {
			return 0, false
		}
		names, err := accessor.ParseKeys(string(s.src[i:j]))
		if err != nil || len(names) != 1 {
			return 0, false
		}
		f.tok, f.tokSet, f.tokStart, f.tokEnd, f.dot = names[0], true, i, j, text.Range{}
		return j, true
	case isBareKeyChar(c):
		if f.tokSet {
			return 0, false
		}
		j := i
		for j < s.off && isBareKeyChar(s.src[j]) {
			j++
		}
		f.tok, f.tokSet, f.tokStart, f.tokEnd, f.dot = string(s.src[i:j]), true, i, j, text.Range{}
		return j, true
	}
	return 0, false
}

func (s *scanner) scan(start int, base accessor.Path) (cursor, bool) {
	stack := []*frame{{path: base}}
	i := start
	for i < s.off {
		top := stack[len(stack)-1]
		c := s.src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '\n':
			if len(stack) == 1 {
				*top = frame{path: base}
			}
			i++
		case c == '#':
			j := bytes.IndexByte(s.src[i:s.off], '\n')
			if j < 0 {
				return cursor{}, false
			}
			i += j
		case !top.valuePos():
			if c == '=' {
				if !top.tokSet {
					return cursor{}, false
				}
				top.keys = append(top.keys, top.tok)
				top.tokSet, top.afterEq = false, true
				top.eq, top.dot = text.Range{Start: i, End: i + 1}, text.Range{}
				i++
				continue
			}
			if c == '}' && len(stack) > 1 && !top.tokSet && len(top.keys) == 0 {
				stack = stack[:len(stack)-1]
				stack[len(stack)-1].setValue()
				i++
				continue
			}
			j, ok := s.key(top, i)
			if !ok {
				return cursor{}, false
			}
			i = j
		case c == '[' || c == '{':
			if top.value {
				return cursor{}, false
			}
			stack = append(stack, &frame{array: c == '[', path: top.childPath()})
			i++
		case c == ']' && top.array, c == '}' && !top.array && len(stack) > 1:
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].setValue()
			i++
		case c == ',' && len(stack) > 1:
			if top.array {
				top.index++
				top.value, top.comma = false, true
			} else {
				*top = frame{path: top.path}
			}
			i++
		case c == '"' || c == '\'':
			j, ok := s.quoted(i)
			if !ok {
				return cursor{}, false
			}
			top.setValue()
			i = j
		default:
			j := i
			for j < s.off && !isValueDelim(s.src[j]) {
				j++
			}
			if j == i {
				return cursor{}, false
			}
			if j == s.off {
				top.partial, top.partialStart = string(s.src[i:j]), i
			} else {
				top.setValue()
			}
			i = j
		}
	}
	return s.finish(stack[len(stack)-1])
}

func (s *scanner) finish(f *frame) (cursor, bool) {
	c := cursor{replace: text.Range{Start: s.off, End: s.off}}
	if f.partial != "" {
		c.prefix, c.replace.Start = f.partial, f.partialStart
	}
	switch {
	case f.array:
		c.mode, c.target = valueMode, f.childPath()
		c.hint = Hint{Kind: InArray, LeadingComma: f.value && !f.comma, TrailingComma: s.elementFollows()}
	case f.afterEq:
		if f.value {
			return cursor{}, false
		}
		c.mode, c.target = valueMode, f.childPath()
		if f.partial == "" {
			c.hint = Hint{Kind: EqualTrigger, Trigger: f.eq}
		}
	default:
		c.mode, c.target = keyMode, f.childPath()
		switch {
		case f.tokSet:
			if f.tokEnd != s.off {
				return cursor{}, false
			}
			c.prefix, c.replace.Start = f.tok, f.tokStart
		case !f.dot.IsZero():
			c.hint = Hint{Kind: DotTrigger, Trigger: f.dot}
		}
	}
	return c, true
}

// elementFollows reports whether an array element follows the cursor on
// its line, so a new element needs a comma after it.
func (s *scanner) elementFollows() bool {
	for i := s.off; i < len(s.src); i++ {
		switch s.src[i] {
		case ' ', '\t':
			continue
		case ']', ',', '#', '\r', '\n':
			return false
		}
		return true
	}
	return false
}
