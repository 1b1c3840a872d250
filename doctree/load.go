package doctree

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/text"
)

type SectionKind int

const (
	RootSection SectionKind = iota
	TableSection
	ArrayOfTableSection
	InlineSection
)

// Section is a run of key/values sharing one table in the source: the top of
// the document, the body of a [header] or [[header]], or an inline table.
// Sections are the syntax level view that edits operate on.
type Section struct {
	Kind SectionKind
	// Path is the concrete path of the table holding the key/values, with
	// array of tables headers resolved to their element index.
	Path      accessor.Path
	Header    text.Range
	HeaderKey []*Key
	KeyValues []*KeyValue
}

type KeyValue struct {
	Keys  []*Key
	Value *Value
	Range text.Range
}

// Document is a lowered TOML document.
type Document struct {
	Source      []byte
	Lines       *text.LineIndex
	Root        *Value
	Sections    []*Section
	SchemaURI   string
	SchemaRange text.Range
	Errors      []*Error
}

const maxRecoveries = 64

// Load parses src and lowers it into a document tree. Parse errors do not
// abort lowering: the offending line is dropped, recorded in Errors, and if it
// started a key assignment the key is kept with an Incomplete value.
func Load(src []byte) *Document {
	work := bytes.Clone(src)
	var (
		parseErrs   []*Error
		incompletes []incomplete
		blanked     = map[int]bool{}
	)
	lines := text.NewLineIndex(src)
	for {
		doc, perr := lowerOnce(src, work, lines)
		if perr == nil || len(parseErrs) >= maxRecoveries {
			doc.Errors = append(parseErrs, doc.Errors...)
			doc.addIncompletes(incompletes)
			doc.attachDirectives()
			return doc
		}
		line, _ := lines.LineCol(perr.Range.Start)
		if blanked[line] {
			doc.Errors = append(append(parseErrs, perr), doc.Errors...)
			doc.addIncompletes(incompletes)
			doc.attachDirectives()
			return doc
		}
		blanked[line] = true
		parseErrs = append(parseErrs, perr)
		s, e := lines.LineStart(line), lines.LineEnd(line)
		if inc, ok := incompleteAt(src, s, e); ok {
			incompletes = append(incompletes, inc)
		}
		for i := s; i < e; i++ {
			if work[i] != '\r' {
				work[i] = ' '
			}
		}
	}
}

type lowerer struct {
	src  []byte
	doc  *Document
	cur  *Value
	sec  *Section
	errs []*Error
}

func lowerOnce(src, work []byte, lines *text.LineIndex) (*Document, *Error) {
	doc := &Document{
		Source: src,
		Lines:  lines,
		Root:   NewTable(RootTable, text.Range{Start: 0, End: len(src)}),
	}
	doc.SchemaURI, doc.SchemaRange = schemaDirective(src, lines)
	l := &lowerer{src: work, doc: doc, cur: doc.Root}
	l.sec = &Section{Kind: RootSection}
	doc.Sections = append(doc.Sections, l.sec)

	p := &unstable.Parser{}
	p.Reset(work)
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.KeyValue:
			l.keyValue(e)
		case unstable.Table:
			l.header(e, false)
		case unstable.ArrayTable:
			l.header(e, true)
		}
	}
	doc.Errors = l.errs
	if err := p.Error(); err != nil {
		return doc, l.parseError(err)
	}
	return doc, nil
}

func (l *lowerer) parseError(err error) *Error {
	res := &Error{Kind: ErrParse, Message: err.Error()}
	var perr *unstable.ParserError
	if errors.As(err, &perr) {
		res.Message = perr.Message
		if off, ok := subsliceOffset(l.src, perr.Highlight); ok {
			res.Range = text.Range{Start: off, End: off + len(perr.Highlight)}
			return res
		}
	}
	res.Range = text.Range{Start: len(l.src), End: len(l.src)}
	return res
}

func (l *lowerer) keys(it unstable.Iterator, from int) []*Key {
	var res []*Key
	for it.Next() {
		n := it.Node()
		r := l.keyRange(n, from)
		raw := ""
		if r.End <= len(l.src) {
			raw = string(l.src[r.Start:r.End])
		}
		res = append(res, &Key{Name: string(n.Data), Raw: raw, Range: r})
		from = r.End
	}
	return res
}

func (l *lowerer) keyRange(n *unstable.Node, from int) text.Range {
	if n.Raw.Length > 0 {
		return text.Range{Start: int(n.Raw.Offset), End: int(n.Raw.Offset + n.Raw.Length)}
	}
	if off, ok := subsliceOffset(l.src, n.Data); ok {
		return text.Range{Start: off, End: off + len(n.Data)}
	}
	s, e := scanKey(l.src, from)
	return text.Range{Start: s, End: e}
}

func (l *lowerer) keyValue(e *unstable.Node) {
	keys := l.keys(e.Key(), l.sectionCursor())
	if len(keys) == 0 {
		return
	}
	path := l.sec.Path.Append(keyPath(keys)...)
	val := l.value(e.Value(), skipAssign(l.src, keys[len(keys)-1].Range.End), path)
	l.sec.KeyValues = append(l.sec.KeyValues, &KeyValue{
		Keys:  keys,
		Value: val,
		Range: text.Range{Start: keys[0].Range.Start, End: val.Range.End},
	})
	l.errs = append(l.errs, insertDotted(l.cur, keys, val)...)
}

// sectionCursor is where scanning for the next key may start.
func (l *lowerer) sectionCursor() int {
	if n := len(l.sec.KeyValues); n > 0 {
		return l.sec.KeyValues[n-1].Range.End
	}
	return l.sec.Header.End
}

// insertDotted inserts the value of a possibly dotted key into t.
func insertDotted(t *Value, keys []*Key, val *Value) []*Error {
	n := len(keys)
	if n == 1 {
		return t.insert(keys[0], val)
	}
	end := val.Range.End
	inner := NewTable(KeyValueTable, text.Range{Start: keys[n-1].Range.Start, End: end})
	inner.SymbolRange = keys[n-2].Range
	inner.appendEntry(keys[n-1], val)
	for i := n - 2; i >= 1; i-- {
		outer := NewTable(ParentKey, text.Range{Start: keys[i].Range.Start, End: end})
		outer.SymbolRange = keys[i-1].Range
		outer.appendEntry(keys[i], inner)
		inner = outer
	}
	return t.insert(keys[0], inner)
}

func keyPath(keys []*Key) accessor.Path {
	res := make(accessor.Path, len(keys))
	for i, k := range keys {
		res[i] = accessor.Key(k.Name)
	}
	return res
}

func (l *lowerer) header(e *unstable.Node, arrayOfTables bool) {
	keys := l.keys(e.Key(), l.sectionCursor())
	if len(keys) == 0 {
		return
	}
	first, last := keys[0].Range.Start, keys[len(keys)-1].Range.End
	start := bytes.LastIndexByte(l.src[:first], '[')
	if arrayOfTables && start > 0 && l.src[start-1] == '[' {
		start--
	}
	end := last
	if j := bytes.IndexByte(l.src[last:], ']'); j >= 0 {
		end = last + j + 1
		if arrayOfTables && end < len(l.src) && l.src[end] == ']' {
			end++
		}
	}
	hdr := text.Range{Start: max(start, 0), End: end}

	// Build the fragment the header denotes and merge it into the root. A
	// leading key that currently names an array of tables addresses its last
	// element, which is expressed by a parent array of tables wrapper.
	var leaf *Value
	if arrayOfTables {
		t := NewTable(HeaderTable, hdr)
		t.SymbolRange = keys[len(keys)-1].Range
		leaf = NewArray(ArrayOfTable, hdr)
		leaf.SymbolRange = hdr
		leaf.Values = []*Value{t}
	} else {
		leaf = NewTable(HeaderTable, hdr)
		leaf.SymbolRange = keys[len(keys)-1].Range
	}
	frag := leaf
	for i := len(keys) - 2; i >= 0; i-- {
		parent := NewTable(ParentTable, hdr)
		parent.SymbolRange = keys[i].Range
		parent.appendEntry(keys[i+1], frag)
		frag = parent
		existing := l.doc.Root.Lookup(l.concrete(keys[:i])).Get(keys[i].Name)
		if existing != nil && existing.Kind == Array && existing.ArrayKind != LiteralArray {
			wrap := NewArray(ParentArrayOfTable, hdr)
			wrap.SymbolRange = keys[i].Range
			wrap.Values = []*Value{parent}
			frag = wrap
		}
	}
	root := NewTable(RootTable, hdr)
	root.appendEntry(keys[0], frag)
	l.errs = append(l.errs, l.doc.Root.mergeTable(root)...)

	path := l.concrete(keys)
	kind := TableSection
	if arrayOfTables {
		kind = ArrayOfTableSection
	}
	l.sec = &Section{Kind: kind, Path: path, Header: hdr, HeaderKey: keys}
	l.doc.Sections = append(l.doc.Sections, l.sec)
	l.cur = l.doc.Root.Lookup(path)
	if l.cur == nil || l.cur.Kind != Table {
		// the header conflicted; collect its body in a detached table
		l.cur = NewTable(HeaderTable, hdr)
	}
}

// concrete resolves header keys to a path through the current tree, with
// arrays of tables addressed by their last element.
func (l *lowerer) concrete(keys []*Key) accessor.Path {
	var res accessor.Path
	cur := l.doc.Root
	for _, k := range keys {
		res = append(res, accessor.Key(k.Name))
		cur = cur.Get(k.Name)
		if cur == nil {
			continue
		}
		if cur.Kind == Array && cur.ArrayKind != LiteralArray && len(cur.Values) > 0 {
			res = append(res, accessor.Index(len(cur.Values)-1))
			cur = cur.Values[len(cur.Values)-1]
		}
	}
	return res
}

func (l *lowerer) value(n *unstable.Node, from int, path accessor.Path) *Value {
	switch n.Kind {
	case unstable.Array:
		return l.array(n, from, path)
	case unstable.InlineTable:
		return l.inlineTable(n, from, path)
	case unstable.String:
		return l.str(n, from)
	}
	r := l.scalarRange(n, from)
	raw := string(l.src[r.Start:r.End])
	v := &Value{Range: r, SymbolRange: r, Raw: raw}
	data := string(n.Data)
	var err error
	switch n.Kind {
	case unstable.Bool:
		v.Kind = Boolean
		v.Bool = data == "true"
	case unstable.Integer:
		v.Kind = Integer
		v.Int, err = strconv.ParseInt(data, 0, 64)
	case unstable.Float:
		v.Kind = Float
		v.Float, err = strconv.ParseFloat(strings.ReplaceAll(data, "_", ""), 64)
	case unstable.DateTime:
		v.Kind = OffsetDateTime
		v.DateTime, err = time.Parse(time.RFC3339Nano, normalizeDateTime(data))
	case unstable.LocalDateTime:
		v.Kind = LocalDateTime
		err = v.LocalDateTime.UnmarshalText([]byte(normalizeDateTime(data)))
	case unstable.LocalDate:
		v.Kind = LocalDate
		err = v.LocalDate.UnmarshalText(n.Data)
	case unstable.LocalTime:
		v.Kind = LocalTime
		err = v.LocalTime.UnmarshalText(n.Data)
	default:
		v.Kind = Incomplete
	}
	if err != nil {
		l.errs = append(l.errs, &Error{Kind: ErrParse, Range: r, Message: fmt.Sprintf("invalid %s %q", v.Kind, raw)})
		v.Kind = Incomplete
	}
	return v
}

func normalizeDateTime(s string) string {
	if len(s) > 10 && (s[10] == ' ' || s[10] == 't') {
		s = s[:10] + "T" + s[11:]
	}
	return strings.Replace(s, "z", "Z", 1)
}

func (l *lowerer) scalarRange(n *unstable.Node, from int) text.Range {
	if off, ok := subsliceOffset(l.src, n.Data); ok {
		return text.Range{Start: off, End: off + len(n.Data)}
	}
	if n.Raw.Length > 0 {
		return text.Range{Start: int(n.Raw.Offset), End: int(n.Raw.Offset + n.Raw.Length)}
	}
	s := skipTrivia(l.src, from, true)
	return text.Range{Start: s, End: scanBare(l.src, s)}
}

func (l *lowerer) str(n *unstable.Node, from int) *Value {
	var r text.Range
	if n.Raw.Length > 0 {
		r = text.Range{Start: int(n.Raw.Offset), End: int(n.Raw.Offset + n.Raw.Length)}
	} else {
		s := skipTrivia(l.src, from, true)
		e, _ := scanString(l.src, s)
		r = text.Range{Start: s, End: e}
	}
	_, kind := scanString(l.src, r.Start)
	q := len(kind.Quote())
	sym := r
	if r.Len() >= 2*q {
		sym = text.Range{Start: r.Start + q, End: r.End - q}
	}
	return &Value{
		Kind:        String,
		Str:         string(n.Data),
		StringKind:  kind,
		Raw:         string(l.src[r.Start:r.End]),
		Range:       r,
		SymbolRange: sym,
	}
}

func (l *lowerer) array(n *unstable.Node, from int, path accessor.Path) *Value {
	open := skipTrivia(l.src, from, true)
	arr := NewArray(LiteralArray, text.Range{})
	cur := open + 1
	it := n.Children()
	for it.Next() {
		c := it.Node()
		if c.Kind == unstable.Comment {
			continue
		}
		v := l.value(c, cur, path.Append(accessor.Index(len(arr.Values))))
		arr.Values = append(arr.Values, v)
		cur = v.Range.End
	}
	arr.Range = text.Range{Start: open, End: closing(l.src, cur, ']')}
	arr.SymbolRange = arr.Range
	return arr
}

func (l *lowerer) inlineTable(n *unstable.Node, from int, path accessor.Path) *Value {
	open := skipTrivia(l.src, from, true)
	t := NewTable(InlineTable, text.Range{})
	sec := &Section{Kind: InlineSection, Path: path}
	l.doc.Sections = append(l.doc.Sections, sec)
	cur := open + 1
	it := n.Children()
	for it.Next() {
		c := it.Node()
		if c.Kind != unstable.KeyValue {
			continue
		}
		keys := l.keys(c.Key(), cur)
		if len(keys) == 0 {
			continue
		}
		v := l.value(c.Value(), skipAssign(l.src, keys[len(keys)-1].Range.End), path.Append(keyPath(keys)...))
		sec.KeyValues = append(sec.KeyValues, &KeyValue{
			Keys:  keys,
			Value: v,
			Range: text.Range{Start: keys[0].Range.Start, End: v.Range.End},
		})
		l.errs = append(l.errs, insertDotted(t, keys, v)...)
		cur = v.Range.End
	}
	t.Range = text.Range{Start: open, End: closing(l.src, cur, '}')}
	t.SymbolRange = t.Range
	sec.Header = text.Range{Start: open, End: open + 1}
	return t
}

type incomplete struct {
	keys   []string
	ranges []text.Range
	value  text.Range
	header bool
}

// incompleteAt recognizes a line that starts a key assignment whose value
// could not be parsed, such as "name =" or "name = [1,".
func incompleteAt(src []byte, s, e int) (incomplete, bool) {
	line := src[s:e]
	eq := bytes.IndexByte(line, '=')
	if eq < 0 {
		return incomplete{}, false
	}
	keyText := string(line[:eq])
	if strings.ContainsAny(strings.TrimSpace(keyText), "[#") {
		return incomplete{}, false
	}
	names, err := accessor.ParseKeys(strings.TrimSpace(keyText))
	if err != nil || len(names) == 0 {
		return incomplete{}, false
	}
	inc := incomplete{keys: names}
	i := s
	for range names {
		ks, ke := scanKey(src, i)
		inc.ranges = append(inc.ranges, text.Range{Start: ks, End: ke})
		i = ke
	}
	vs := skipSpace(src, s+eq+1)
	inc.value = text.Range{Start: vs, End: e}
	return inc, true
}

func (d *Document) addIncompletes(incs []incomplete) {
	for _, inc := range incs {
		sec := d.SectionAt(inc.value.Start)
		t := d.Root.Lookup(sec.Path)
		if t == nil || t.Kind != Table {
			continue
		}
		keys := make([]*Key, len(inc.keys))
		for i, k := range inc.keys {
			keys[i] = &Key{Name: k, Range: inc.ranges[i], Raw: string(d.Source[inc.ranges[i].Start:inc.ranges[i].End])}
		}
		v := &Value{Kind: Incomplete, Range: inc.value, SymbolRange: inc.value}
		if insertDotted(t, keys, v) == nil {
			kv := &KeyValue{Keys: keys, Value: v, Range: text.Range{Start: inc.ranges[0].Start, End: inc.value.End}}
			sec.KeyValues = append(sec.KeyValues, kv)
			sort.SliceStable(sec.KeyValues, func(i, j int) bool {
				return sec.KeyValues[i].Range.Start < sec.KeyValues[j].Range.Start
			})
		}
	}
}

// SectionAt returns the header section (root, table or array of tables)
// whose body contains off.
func (d *Document) SectionAt(off int) *Section {
	res := d.Sections[0]
	for _, s := range d.Sections {
		if s.Kind == InlineSection {
			continue
		}
		if s.Header.Start <= off && (s.Kind == RootSection || s.Header.End <= off) {
			res = s
		}
	}
	return res
}

func (d *Document) attachDirectives() {
	for _, sec := range d.Sections {
		if sec.Kind == TableSection || sec.Kind == ArrayOfTableSection {
			if t := d.Root.Lookup(sec.Path); t != nil {
				t.Directives = append(t.Directives, d.directivesAt(sec.Header)...)
			}
		}
		for _, kv := range sec.KeyValues {
			kv.Value.Directives = append(kv.Value.Directives, d.directivesAt(kv.Range)...)
		}
	}
	if len(d.Sections) > 0 {
		d.Root.Directives = append(d.Root.Directives, d.rootDirectives()...)
	}
}

func (d *Document) directivesAt(r text.Range) []*Directive {
	var res []*Directive
	cs, rs := leadingComments(d.Source, d.Lines, r.Start)
	for i, c := range cs {
		if dir := ParseDirective(c, rs[i]); dir != nil {
			res = append(res, dir)
		}
	}
	if c, cr, ok := trailingComment(d.Source, r.End); ok {
		if dir := ParseDirective(c, cr); dir != nil {
			res = append(res, dir)
		}
	}
	return res
}

// rootDirectives are directives in the leading comment block of the file.
func (d *Document) rootDirectives() []*Directive {
	var res []*Directive
	for l := 0; l < d.Lines.Lines(); l++ {
		s, e := d.Lines.LineStart(l), d.Lines.LineEnd(l)
		t := strings.TrimSpace(string(d.Source[s:e]))
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") {
			break
		}
		if dir := ParseDirective(t, text.Range{Start: s, End: e}); dir != nil {
			res = append(res, dir)
		}
	}
	return res
}

// Decode unmarshals the document into v with go-toml, for callers that want
// typed access to a file they have already validated.
func (d *Document) Decode(v any) error {
	return toml.Unmarshal(d.Source, v)
}
