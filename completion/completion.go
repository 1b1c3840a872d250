// Package completion computes the completion candidates at a cursor in a
// TOML document.
package completion

import (
	"context"
	"slices"
	"strings"

	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/debug"
	"github.com/signadot/tomlkit/descend"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
	"github.com/signadot/tomlkit/schemastore"
	"github.com/signadot/tomlkit/text"
	"github.com/signadot/tomlkit/validate"
)

// Find returns the completion items at offset off of doc, ordered by
// priority.
func Find(ctx context.Context, doc *doctree.Document, sc *schemastore.SchemaContext, off int, opts validate.Options) []Item {
	cur, ok := analyze(doc, off)
	if !ok {
		return nil
	}
	if debug.Completion() {
		debug.Logf("completion at %d: target %s prefix %q hint %s\n", off, cur.target, cur.prefix, cur.hint.Kind)
	}
	c := &completer{cur: cur, opts: opts}
	w := descend.NewWalker[[]Item](descend.New(sc), c)
	return dedup(w.Visit(ctx, w.RootNode(ctx, doc.Root)))
}

type walker = descend.Walker[[]Item]

type completer struct {
	cur  cursor
	opts validate.Options
}

func (c *completer) atTarget(n descend.Node) bool {
	return len(n.Path) >= len(c.cur.target)
}

// next continues from n toward the target. A key below an array, as in
// the header of an array of tables, addresses its last element.
func (c *completer) next(ctx context.Context, w *walker, n descend.Node) []Item {
	a := c.cur.target[len(n.Path)]
	if a.IsKey() && c.isArray(n) {
		i := 0
		if n.Value != nil && n.Value.Kind == doctree.Array && len(n.Value.Values) > 0 {
			i = len(n.Value.Values) - 1
		}
		c.cur.target = slices.Insert(slices.Clone(c.cur.target), len(n.Path), accessor.Index(i))
		a = c.cur.target[len(n.Path)]
	}
	if a.IsKey() {
		child, step := w.Key(ctx, n, a.KeyName())
		if step.Match == descend.NotAllowed {
			return nil
		}
		return w.Visit(ctx, child)
	}
	return w.Visit(ctx, w.Index(ctx, n, a.IndexValue()))
}

func (c *completer) isArray(n descend.Node) bool {
	if n.Value != nil {
		return n.Value.Kind == doctree.Array
	}
	s := n.ValueSchema()
	return s != nil && s.Type == schema.ArrayType
}

func (c *completer) Unconstrained(ctx context.Context, w *walker, n descend.Node) []Item {
	if c.atTarget(n) {
		return nil
	}
	return c.next(ctx, w, n.With(nil))
}

func (c *completer) Absent(ctx context.Context, w *walker, n descend.Node) []Item {
	if c.atTarget(n) {
		return c.items(ctx, w, n)
	}
	return c.next(ctx, w, n)
}

func (c *completer) Mismatch(ctx context.Context, w *walker, n descend.Node) []Item {
	if c.atTarget(n) {
		return c.items(ctx, w, n)
	}
	return nil
}

func (c *completer) Scalar(ctx context.Context, w *walker, n descend.Node) []Item {
	if c.atTarget(n) {
		return c.items(ctx, w, n)
	}
	return nil
}

func (c *completer) Array(ctx context.Context, w *walker, n descend.Node) []Item {
	if c.atTarget(n) {
		return c.items(ctx, w, n)
	}
	return c.next(ctx, w, n)
}

func (c *completer) Table(ctx context.Context, w *walker, n descend.Node) []Item {
	if c.atTarget(n) {
		return c.items(ctx, w, n)
	}
	return c.next(ctx, w, n)
}

func (c *completer) Composition(ctx context.Context, w *walker, n descend.Node, members []descend.Node) []Item {
	if !c.atTarget(n) && n.Value != nil && n.Value.Kind == doctree.Array {
		elem := c.cur.target[len(n.Path)]
		presented := func(i int) schema.ValueType {
			if !elem.IsIndex() {
				return schema.Simple(schema.ArrayType)
			}
			return w.Index(ctx, members[i], elem.IndexValue()).ValueSchema().ValueType()
		}
		if i := descend.ArrayShortcut(n.Value, members, presented); i >= 0 {
			return w.Visit(ctx, members[i])
		}
	}
	var res []Item
	for _, m := range c.narrow(ctx, w, n, members) {
		res = append(res, w.Visit(ctx, m)...)
	}
	if c.atTarget(n) && c.cur.mode == valueMode {
		res = append(res, c.literals(n)...)
	}
	return res
}

// narrow selects the members worth completing from: the only member a oneOf
// value satisfies, else those whose type accepts the value.
func (c *completer) narrow(ctx context.Context, w *walker, n descend.Node, members []descend.Node) []descend.Node {
	if n.Value == nil || n.Value.Kind == doctree.Incomplete {
		return members
	}
	valid := make([]bool, len(members))
	for i, m := range members {
		valid[i] = !diagnostic.HasErrors(validate.Node(ctx, w.Descent, m, c.opts))
	}
	v := descend.Evaluate(n.ValueSchema().Type, valid)
	if i := v.Chosen(); i >= 0 && v.Kind == schema.OneOfType {
		return members[i : i+1]
	}
	var res []descend.Node
	for _, m := range members {
		s := m.ValueSchema()
		if s.Type.IsComposition() || s.Type.Accepts(n.Value.Kind) {
			res = append(res, m)
		}
	}
	if len(res) == 0 {
		return members
	}
	return res
}

// items are the candidates at the target node n.
func (c *completer) items(ctx context.Context, w *walker, n descend.Node) []Item {
	s := n.ValueSchema()
	if c.cur.mode == keyMode {
		switch {
		case s.Type == schema.TableType:
			return c.keys(ctx, w, n, c.cur.hint)
		case c.cur.hint.Kind == DotTrigger:
			return c.values(ctx, w, n)
		}
		return nil
	}
	return c.values(ctx, w, n)
}

// keys suggests the keys of the table schema of n that are not present yet.
func (c *completer) keys(ctx context.Context, w *walker, n descend.Node, h Hint) []Item {
	s := n.ValueSchema()
	header := h.Kind == InTableHeader
	var present *doctree.Value
	if n.Value != nil && n.Value.Kind == doctree.Table && !header {
		present = n.Value
	}
	r := c.cur.replace
	var res []Item
	for _, key := range s.PropertyKeys() {
		if present.Get(key) != nil || !strings.HasPrefix(key, c.cur.prefix) {
			continue
		}
		child, _ := w.Key(ctx, n, key)
		ps := child.ValueSchema()
		if header && !tableLike(ps) {
			continue
		}
		it := Item{
			Label:     accessor.QuoteKey(key),
			Kind:      KindKey,
			Priority:  PriorityOptionalKey,
			Edit:      keyEdit(accessor.QuoteKey(key), r, h),
			SchemaURI: n.Schema.URI,
			Required:  s.IsRequired(key),
		}
		if it.Required {
			it.Priority = PriorityKey
		}
		if ps != nil {
			it.Detail = ps.Title
			if it.Detail == "" {
				it.Detail = ps.ValueType().String()
			}
			it.Documentation = ps.Description
			it.Deprecated = ps.IsDeprecated()
		}
		res = append(res, it)
	}
	label := s.AdditionalKeyLabel
	if label == "" {
		label = "key"
	}
	if len(s.PatternProperties) > 0 {
		var doc strings.Builder
		doc.WriteString("Allowed Patterns:\n\n")
		for _, p := range s.PatternProperties {
			doc.WriteString("- `" + p.Pattern + "`\n")
		}
		res = append(res, Item{
			Label:         "$" + label,
			Kind:          KindKey,
			Priority:      PriorityAdditionalKey,
			Detail:        "Pattern Key",
			Documentation: doc.String(),
			Edit:          placeholderEdit(label, r, h),
			SchemaURI:     n.Schema.URI,
		})
	}
	if s.AdditionalSchema != nil || s.AdditionalProperties != nil && *s.AdditionalProperties {
		res = append(res, Item{
			Label:     "$" + label,
			Kind:      KindKey,
			Priority:  PriorityAdditionalKey,
			Detail:    "Additional Key",
			Edit:      placeholderEdit(label, r, h),
			SchemaURI: n.Schema.URI,
		})
	}
	if c.cur.prefix != "" && h.Kind == NoHint && s.Property(c.cur.prefix) != nil {
		res = append(res, magicTriggers(c.cur.prefix, r.End, n.Schema.URI)...)
	}
	return res
}

func tableLike(s *schema.ValueSchema) bool {
	if s == nil {
		return true
	}
	switch s.Type {
	case schema.TableType, schema.ArrayType, schema.OneOfType, schema.AnyOfType, schema.AllOfType:
		return true
	}
	return false
}

// literals are the const, enumerated and default values of the schema of n.
func (c *completer) literals(n descend.Node) []Item {
	s := n.ValueSchema()
	var res []Item
	add := func(lit any, p Priority, detail string) {
		label := schema.FormatTyped(lit, s.Type)
		t := s.Type
		if t.IsComposition() {
			t = literalType(lit)
		}
		res = append(res, Item{
			Label:         label,
			Kind:          kindOf(t),
			Priority:      p,
			Detail:        detail,
			Documentation: s.Description,
			Edit:          literalEdit(label, c.cur.replace, c.cur.hint),
			SchemaURI:     n.Schema.URI,
			Deprecated:    s.IsDeprecated(),
			Preselect:     p == PriorityDefault,
		})
	}
	if s.Const != nil {
		add(s.Const, PriorityConst, "const")
	}
	for _, e := range s.Enum {
		add(e, PriorityEnum, "enum")
	}
	if s.Default != nil {
		add(s.Default, PriorityDefault, "default")
	}
	return res
}

func literalType(lit any) schema.Type {
	switch lit.(type) {
	case bool:
		return schema.BooleanType
	case int64:
		return schema.IntegerType
	case float64:
		return schema.FloatType
	case []any:
		return schema.ArrayType
	case schema.Object:
		return schema.TableType
	}
	return schema.StringType
}

// values suggests values for the schema of n: its literals, and type hints
// when it does not restrict the value to a fixed set.
func (c *completer) values(ctx context.Context, w *walker, n descend.Node) []Item {
	s := n.ValueSchema()
	res := c.literals(n)
	if s.Const != nil || len(s.Enum) > 0 {
		return res
	}
	r, h, uri := c.cur.replace, c.cur.hint, n.Schema.URI
	hint := func(label string, k Kind, p Priority, detail string, e *Edit) {
		res = append(res, Item{Label: label, Kind: k, Priority: p, Detail: detail, Edit: e, SchemaURI: uri})
	}
	switch s.Type {
	case schema.BooleanType:
		hint("true", KindBoolean, PriorityTypeHintTrue, "Boolean", literalEdit("true", r, h))
		hint("false", KindBoolean, PriorityTypeHintFalse, "Boolean", literalEdit("false", r, h))
	case schema.StringType:
		hint(`""`, KindString, PriorityTypeHint, "String", shapeEdit(`"`, `"`, r, h))
	case schema.ArrayType:
		hint("[]", KindArray, PriorityTypeHint, "Array", shapeEdit("[", "]", r, h))
	case schema.TableType:
		if h.Kind == InTableHeader {
			break
		}
		hint("{}", KindTable, PriorityTypeHint, "InlineTable", shapeEdit("{ ", " }", r, h))
		if h.Kind == EqualTrigger || h.Kind == InArray {
			for _, it := range c.keys(ctx, w, n, h) {
				if it.Kind == KindKey {
					res = append(res, it)
				}
			}
		}
	default:
		for _, ex := range s.Examples {
			label := schema.FormatTyped(ex, s.Type)
			hint(label, kindOf(s.Type), PriorityTypeHint, "example", literalEdit(label, r, h))
		}
	}
	return res
}

func sortItems(items []Item) {
	slices.SortStableFunc(items, func(a, b Item) int {
		return int(a.Priority) - int(b.Priority)
	})
}

// Range returns the range an item edit replaces, the cursor if it has none.
func (it Item) Range(off int) text.Range {
	if it.Edit != nil {
		return it.Edit.Range
	}
	return text.Range{Start: off, End: off}
}
