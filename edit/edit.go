// Package edit computes the rewrites a schema asks of a TOML document:
// table keys in a declared order and array values sorted, as requested by
// x-tombi-table-keys-order and x-tombi-array-values-order or by
// "# tomlkit: format..." comment directives.
//
// Changes never alter what a document means. Keys are moved only within
// the section that defines them, and header sections are moved only as
// groups sharing their first key.
package edit

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/signadot/tomlkit/debug"
	"github.com/signadot/tomlkit/descend"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
	"github.com/signadot/tomlkit/schemastore"
	"github.com/signadot/tomlkit/text"
	"github.com/signadot/tomlkit/validate"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.Default())
}

func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

func log() *slog.Logger {
	return logger.Load()
}

// maxRounds bounds Format: nested reorders overlapping an outer one are
// applied in a later round.
const maxRounds = 8

// Format applies the changes of Changes to src until there are none left.
func Format(ctx context.Context, src []byte, sc *schemastore.SchemaContext, opts validate.Options) ([]byte, error) {
	doc := doctree.Load(src)
	if len(doc.Errors) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrParse, doc.Errors[0])
	}
	for range maxRounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cs := Changes(ctx, doc, sc, opts)
		if len(cs) == 0 {
			break
		}
		out, n := Apply(doc.Source, cs)
		if n == 0 {
			break
		}
		doc = doctree.Load(out)
		if len(doc.Errors) > 0 {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEdit, doc.Errors[0])
		}
	}
	return doc.Source, nil
}

// Changes returns the reorderings doc needs under sc. A document with
// errors gets none. Changes may nest; Apply applies the outermost.
func Changes(ctx context.Context, doc *doctree.Document, sc *schemastore.SchemaContext, opts validate.Options) []Change {
	if len(doc.Errors) > 0 {
		return nil
	}
	e := &editor{doc: doc, opts: opts}
	w := descend.NewWalker[[]Change](descend.New(sc), e)
	res := w.Visit(ctx, w.RootNode(ctx, doc.Root))
	if debug.Edit() {
		for _, c := range res {
			debug.Logf("edit %s %s at %s\n", c.Kind, c.Path, c.Range)
		}
	}
	return res
}

type walker = descend.Walker[[]Change]

type editor struct {
	doc  *doctree.Document
	opts validate.Options
}

func (e *editor) Unconstrained(ctx context.Context, w *walker, n descend.Node) []Change {
	if n.Value == nil {
		return nil
	}
	n = n.With(nil)
	switch n.Value.Kind {
	case doctree.Table:
		return e.table(ctx, w, n)
	case doctree.Array:
		return e.array(ctx, w, n)
	}
	return nil
}

func (e *editor) Absent(context.Context, *walker, descend.Node) []Change {
	return nil
}

// Mismatch falls back to the directives of the value.
func (e *editor) Mismatch(ctx context.Context, w *walker, n descend.Node) []Change {
	return e.Unconstrained(ctx, w, n)
}

func (e *editor) Scalar(context.Context, *walker, descend.Node) []Change {
	return nil
}

func (e *editor) Array(ctx context.Context, w *walker, n descend.Node) []Change {
	return e.array(ctx, w, n)
}

func (e *editor) Table(ctx context.Context, w *walker, n descend.Node) []Change {
	return e.table(ctx, w, n)
}

// Composition edits under the first member the value satisfies, without
// schema guidance when there is none.
func (e *editor) Composition(ctx context.Context, w *walker, n descend.Node, members []descend.Node) []Change {
	if n.Value == nil {
		return nil
	}
	if m, ok := e.satisfied(ctx, w, members); ok {
		return w.Visit(ctx, m)
	}
	return e.Unconstrained(ctx, w, n)
}

func (e *editor) satisfied(ctx context.Context, w *walker, members []descend.Node) (descend.Node, bool) {
	for _, m := range members {
		if !diagnostic.HasErrors(validate.Node(ctx, w.Descent, m, e.opts)) {
			return m, true
		}
	}
	return descend.Node{}, false
}

// effective replaces a composition schema of n by the member n satisfies.
func (e *editor) effective(ctx context.Context, w *walker, n descend.Node) descend.Node {
	for range maxRounds {
		s := n.ValueSchema()
		if s == nil || !s.Type.IsComposition() {
			return n
		}
		if n.Value == nil {
			return n.With(nil)
		}
		ms := w.Members(ctx, n.Schema, n.Path)
		nodes := make([]descend.Node, len(ms))
		for i, m := range ms {
			nodes[i] = n.With(m)
		}
		m, ok := e.satisfied(ctx, w, nodes)
		if !ok {
			return n.With(nil)
		}
		n = m
	}
	return n.With(nil)
}

func disabled(v *doctree.Value) bool {
	for _, d := range v.Directives {
		if d.Format.Disabled {
			return true
		}
	}
	return false
}

// keysOrder is the order of the keys of the table v: a directive on v, else
// its schema's.
func keysOrder(v *doctree.Value, s *schema.ValueSchema) *schema.TableKeysOrder {
	if v != nil {
		for i := len(v.Directives) - 1; i >= 0; i-- {
			o := v.Directives[i].Format.TableKeysOrder
			if o == "" {
				continue
			}
			ko, err := schema.ParseKeysOrder(o)
			if err != nil {
				log().Warn("ignoring directive", "range", v.Directives[i].Range.String(), "error", err)
				continue
			}
			return &schema.TableKeysOrder{All: ko}
		}
	}
	if s != nil && s.Type == schema.TableType {
		return s.KeysOrder
	}
	return nil
}

func valuesOrder(v *doctree.Value, s *schema.ValueSchema) *schema.ArrayValuesOrder {
	for i := len(v.Directives) - 1; i >= 0; i-- {
		o := v.Directives[i].Format.ArrayValuesOrder
		if o == "" {
			continue
		}
		ko, err := schema.ParseKeysOrder(o)
		if err != nil || ko == schema.SchemaOrder {
			log().Warn("ignoring directive", "range", v.Directives[i].Range.String(), "order", o)
			continue
		}
		return &schema.ArrayValuesOrder{All: ko}
	}
	if s != nil && s.Type == schema.ArrayType {
		return s.ValuesOrder
	}
	return nil
}

func (e *editor) table(ctx context.Context, w *walker, n descend.Node) []Change {
	t := n.Value
	if disabled(t) {
		return nil
	}
	var res []Change
	if order := keysOrder(t, n.ValueSchema()); order != nil {
		for _, sec := range e.doc.Sections {
			if !sec.Path.Equal(n.Path) {
				continue
			}
			if c, ok := e.sortSection(ctx, w, n, sec, order); ok {
				res = append(res, c)
			}
		}
		if len(n.Path) == 0 {
			if c, ok := e.sortHeaders(n, order); ok {
				res = append(res, c)
			}
		}
	}
	for _, en := range t.Entries {
		child, _ := w.Key(ctx, n, en.Key.Name)
		res = append(res, w.Visit(ctx, child)...)
	}
	return res
}

func (e *editor) sortSection(ctx context.Context, w *walker, n descend.Node, sec *doctree.Section, order *schema.TableKeysOrder) (Change, bool) {
	kvs := sec.KeyValues
	if len(kvs) < 2 {
		return Change{}, false
	}
	sorted := e.sortStatements(ctx, w, n, order, kvs, 0)
	perm := make([]int, len(sorted))
	for i, kv := range sorted {
		perm[i] = slices.Index(kvs, kv)
	}
	var spans []text.Range
	if sec.Kind == doctree.InlineSection {
		spans = make([]text.Range, len(kvs))
		for i, kv := range kvs {
			spans[i] = kv.Range
		}
		if commented(e.doc.Source, spans) {
			return Change{}, false
		}
	} else {
		floor := sec.Header.End
		if sec.Kind == doctree.RootSection {
			floor = 0
		}
		spans = e.statementSpans(kvs, floor)
	}
	return reorder(e.doc.Source, spans, perm, n)
}

// sortStatements orders the key/values of a section by their key at
// depth. Statements sharing that key, as dotted keys do, stay together and
// are ordered among themselves by the table they define.
func (e *editor) sortStatements(ctx context.Context, w *walker, n descend.Node, order *schema.TableKeysOrder, kvs []*doctree.KeyValue, depth int) []*doctree.KeyValue {
	if order == nil {
		return kvs
	}
	var names []string
	groups := map[string][]*doctree.KeyValue{}
	for _, kv := range kvs {
		if len(kv.Keys) <= depth {
			return kvs
		}
		k := kv.Keys[depth].Name
		if _, ok := groups[k]; !ok {
			names = append(names, k)
		}
		groups[k] = append(groups[k], kv)
	}
	res := make([]*doctree.KeyValue, 0, len(kvs))
	for _, k := range sortNames(names, order, n.ValueSchema()) {
		g := groups[k]
		if len(g) > 1 {
			child, _ := w.Key(ctx, n, k)
			child = e.effective(ctx, w, child)
			g = e.sortStatements(ctx, w, child, keysOrder(child.Value, child.ValueSchema()), g, depth+1)
		}
		res = append(res, g...)
	}
	return res
}

// sortHeaders moves the header sections of the document as groups
// sharing their first key.
func (e *editor) sortHeaders(n descend.Node, order *schema.TableKeysOrder) (Change, bool) {
	var (
		secs  []*doctree.Section
		names []string
		floor int
	)
	groups := map[string][]int{}
	for _, sec := range e.doc.Sections {
		switch sec.Kind {
		case doctree.RootSection:
			if k := len(sec.KeyValues); k > 0 {
				floor = e.lineEnd(sec.KeyValues[k-1].Range.End)
			}
			continue
		case doctree.InlineSection:
			continue
		}
		if len(sec.HeaderKey) == 0 {
			continue
		}
		k := sec.HeaderKey[0].Name
		if _, ok := groups[k]; !ok {
			names = append(names, k)
		}
		groups[k] = append(groups[k], len(secs))
		secs = append(secs, sec)
	}
	if len(names) < 2 {
		return Change{}, false
	}
	spans := make([]text.Range, len(secs))
	for i, sec := range secs {
		end := sec.Header.End
		if k := len(sec.KeyValues); k > 0 {
			end = max(end, sec.KeyValues[k-1].Range.End)
		}
		spans[i] = text.Range{Start: e.leading(sec.Header.Start, floor), End: e.lineEnd(end)}
		floor = spans[i].End
	}
	var perm []int
	for _, k := range sortNames(names, order, n.ValueSchema()) {
		perm = append(perm, groups[k]...)
	}
	return reorder(e.doc.Source, spans, perm, n)
}

func (e *editor) statementSpans(kvs []*doctree.KeyValue, floor int) []text.Range {
	spans := make([]text.Range, len(kvs))
	for i, kv := range kvs {
		spans[i] = text.Range{Start: e.leading(kv.Range.Start, floor), End: e.lineEnd(kv.Range.End)}
		floor = spans[i].End
	}
	return spans
}

// lineEnd is the end of the line containing off, trailing comment
// included and line terminator excluded.
func (e *editor) lineEnd(off int) int {
	line, _ := e.doc.Lines.LineCol(off)
	end := e.doc.Lines.LineEnd(line)
	if end > off && e.doc.Source[end-1] == '\r' {
		end--
	}
	return end
}

// leading extends a statement starting at off to the comment lines right
// above it, not crossing floor. The schema directive stays in place.
func (e *editor) leading(off, floor int) int {
	src, lines := e.doc.Source, e.doc.Lines
	line, _ := lines.LineCol(off)
	res := off
	for l := line - 1; l >= 0; l-- {
		s := lines.LineStart(l)
		if s < floor {
			break
		}
		raw := string(src[s:lines.LineEnd(l)])
		t := strings.TrimSpace(raw)
		if !strings.HasPrefix(t, "#") || strings.HasPrefix(t, "#"+doctree.SchemaDirective) {
			break
		}
		res = s + strings.Index(raw, "#")
	}
	return res
}

// commented reports whether a comment lies between spans.
func commented(src []byte, spans []text.Range) bool {
	for i := 1; i < len(spans); i++ {
		if strings.Contains(string(src[spans[i-1].End:spans[i].Start]), "#") {
			return true
		}
	}
	return false
}

// reorder rewrites spans in the order perm gives, leaving the text between
// them in place. It reports false when perm changes nothing.
func reorder(src []byte, spans []text.Range, perm []int, n descend.Node) (Change, bool) {
	if len(perm) != len(spans) || slices.IsSorted(perm) {
		return Change{}, false
	}
	var b strings.Builder
	for j, i := range perm {
		if j > 0 {
			b.Write(src[spans[j-1].End:spans[j].Start])
		}
		b.Write(src[spans[i].Start:spans[i].End])
	}
	return Change{
		Kind:  Replace,
		Range: text.Range{Start: spans[0].Start, End: spans[len(spans)-1].End},
		Text:  b.String(),
		Path:  n.Path,
	}, true
}

func (e *editor) array(ctx context.Context, w *walker, n descend.Node) []Change {
	a := n.Value
	if disabled(a) {
		return nil
	}
	var res []Change
	if a.ArrayKind == doctree.LiteralArray && len(a.Values) > 1 {
		if c, ok := e.sortArray(ctx, w, n, valuesOrder(a, n.ValueSchema())); ok {
			res = append(res, c)
		}
	}
	for i := range a.Values {
		res = append(res, w.Visit(ctx, w.Index(ctx, n, i))...)
	}
	return res
}

func (e *editor) sortArray(ctx context.Context, w *walker, n descend.Node, o *schema.ArrayValuesOrder) (Change, bool) {
	if o == nil {
		return Change{}, false
	}
	a := n.Value
	spans := make([]text.Range, len(a.Values))
	all := make([]int, len(a.Values))
	for i, v := range a.Values {
		spans[i], all[i] = v.Range, i
	}
	if commented(e.doc.Source, spans) {
		return Change{}, false
	}
	if o.All != 0 {
		perm, ok := e.sortValues(ctx, w, n, all, o.All)
		if !ok {
			return Change{}, false
		}
		return reorder(e.doc.Source, spans, perm, n)
	}
	groups := make([][]int, len(o.Groups))
	var rest []int
	for i := range a.Values {
		g := e.member(ctx, w, w.Index(ctx, n, i))
		if g < 0 || g >= len(groups) {
			rest = append(rest, i)
			continue
		}
		groups[g] = append(groups[g], i)
	}
	var perm []int
	for g, idx := range groups {
		if sorted, ok := e.sortValues(ctx, w, n, idx, o.Groups[g]); ok {
			idx = sorted
		}
		perm = append(perm, idx...)
	}
	return reorder(e.doc.Source, spans, append(perm, rest...), n)
}

// member returns the index of the first composition member the element n
// satisfies, -1 if none does or n has no composition schema.
func (e *editor) member(ctx context.Context, w *walker, n descend.Node) int {
	s := n.ValueSchema()
	if s == nil || !s.Type.IsComposition() {
		return -1
	}
	for i, m := range w.Members(ctx, n.Schema, n.Path) {
		if !diagnostic.HasErrors(validate.Node(ctx, w.Descent, n.With(m), e.opts)) {
			return i
		}
	}
	return -1
}

// sortValues orders the elements idx of the array n. Scalars sort by
// value and inline tables by the value of their x-tombi-array-values-order-by
// key. All keys must be of one kind.
func (e *editor) sortValues(ctx context.Context, w *walker, n descend.Node, idx []int, o schema.KeysOrder) ([]int, bool) {
	keys := make(map[int]sortKey, len(idx))
	var class keyClass
	for _, i := range idx {
		v := n.Value.Values[i]
		if v.Kind == doctree.Table {
			el := e.effective(ctx, w, w.Index(ctx, n, i))
			s := el.ValueSchema()
			if s == nil || s.ValuesOrderBy == "" {
				return nil, false
			}
			if v = v.Get(s.ValuesOrderBy); v == nil {
				return nil, false
			}
		}
		k, ok := keyOf(v)
		if !ok || (class != 0 && k.class != class) {
			return nil, false
		}
		class, keys[i] = k.class, k
	}
	res := slices.Clone(idx)
	slices.SortStableFunc(res, func(a, b int) int { return compareKeys(keys[a], keys[b], o) })
	return res, true
}
