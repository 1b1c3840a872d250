// Package hover describes the schema of the key or value under a cursor.
package hover

import (
	"context"

	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/descend"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
	"github.com/signadot/tomlkit/schemastore"
	"github.com/signadot/tomlkit/text"
	"github.com/signadot/tomlkit/validate"
)

// Content is what is shown when hovering over a key or value.
type Content struct {
	Title       string
	Description string
	Path        accessor.Path
	ValueType   schema.ValueType
	Constraints *Constraints
	// SchemaURI is the document the describing schema comes from, empty
	// when no schema applies.
	SchemaURI string
	Range     text.Range
}

func (c *Content) same(o *Content) bool {
	return c.Title == o.Title && c.Description == o.Description &&
		c.ValueType.Equal(o.ValueType) && c.SchemaURI == o.SchemaURI && c.Path.Equal(o.Path)
}

// Find returns the content for the key or value of doc at offset off. It
// reports false when off is on neither.
func Find(ctx context.Context, doc *doctree.Document, sc *schemastore.SchemaContext, off int, opts validate.Options) (*Content, bool) {
	loc := doc.Locate(off)
	if loc.Value == nil || (loc.Range.IsZero() && loc.Key == nil) {
		return nil, false
	}
	d := descend.New(sc)
	h := &hoverer{target: loc.Path, opts: opts}
	w := descend.NewWalker[*Content](d, h)
	c := w.Visit(ctx, w.RootNode(ctx, doc.Root))
	if c == nil {
		return nil, false
	}
	c.Range = loc.Range
	return c, true
}

type walker = descend.Walker[*Content]

type hoverer struct {
	target accessor.Path
	opts   validate.Options
}

func (h *hoverer) atTarget(n descend.Node) bool {
	return len(n.Path) >= len(h.target)
}

// next continues from n toward the target.
func (h *hoverer) next(ctx context.Context, w *walker, n descend.Node) *Content {
	a := h.target[len(n.Path)]
	if a.IsKey() {
		child, _ := w.Key(ctx, n, a.KeyName())
		return w.Visit(ctx, child)
	}
	return w.Visit(ctx, w.Index(ctx, n, a.IndexValue()))
}

// valueContent describes the target below n by its value alone.
func (h *hoverer) valueContent(n descend.Node) *Content {
	c := &Content{Path: h.target}
	if v := n.Value.Lookup(h.target[len(n.Path):]); v != nil {
		c.ValueType = schema.Simple(schema.TypeOfKind(v.Kind))
	}
	if n.Schema != nil {
		c.SchemaURI = n.Schema.URI
	}
	return c
}

func describe(n descend.Node) *Content {
	s := n.ValueSchema()
	return &Content{
		Title:       s.Title,
		Description: s.Description,
		Path:        n.Path,
		ValueType:   s.ValueType(),
		Constraints: constraintsOf(s),
		SchemaURI:   n.Schema.URI,
	}
}

func (h *hoverer) Unconstrained(ctx context.Context, w *walker, n descend.Node) *Content {
	if h.atTarget(n) || n.Value == nil {
		return h.valueContent(n)
	}
	return h.next(ctx, w, n.With(nil))
}

func (h *hoverer) Absent(_ context.Context, _ *walker, n descend.Node) *Content {
	if h.atTarget(n) {
		return describe(n)
	}
	return nil
}

func (h *hoverer) Mismatch(ctx context.Context, w *walker, n descend.Node) *Content {
	if h.atTarget(n) {
		return describe(n)
	}
	return h.next(ctx, w, n.With(nil))
}

func (h *hoverer) Scalar(_ context.Context, _ *walker, n descend.Node) *Content {
	return describe(n)
}

func (h *hoverer) Array(ctx context.Context, w *walker, n descend.Node) *Content {
	if h.atTarget(n) {
		return describe(n)
	}
	return h.next(ctx, w, n)
}

func (h *hoverer) Table(ctx context.Context, w *walker, n descend.Node) *Content {
	if h.atTarget(n) {
		return describe(n)
	}
	return h.next(ctx, w, n)
}

func (h *hoverer) Composition(ctx context.Context, w *walker, n descend.Node, members []descend.Node) *Content {
	s := n.ValueSchema()
	if s.Type == schema.AllOfType && h.atTarget(n) {
		title, description := descend.Meta(s, members)
		c := &Content{
			Title:       title,
			Description: description,
			Path:        n.Path,
			ValueType:   descend.PresentedType(s, members),
			SchemaURI:   n.Schema.URI,
		}
		for _, m := range members {
			c.Constraints = c.Constraints.merge(constraintsOf(m.ValueSchema()))
		}
		return h.withValues(c, n, members)
	}

	contents := make([]*Content, len(members))
	for i, m := range members {
		c := w.Visit(ctx, m)
		if c != nil && c.Path.Equal(n.Path) && c.Title == "" && c.Description == "" {
			c.Title, c.Description = s.Title, s.Description
		}
		contents[i] = c
	}
	presented := func(i int) schema.ValueType {
		if contents[i] == nil {
			return schema.Simple(schema.ArrayType)
		}
		return contents[i].ValueType
	}
	if i := descend.ArrayShortcut(n.Value, members, presented); i >= 0 {
		return contents[i]
	}

	res := only(contents, nil)
	if res == nil && n.Value != nil {
		valid := make([]bool, len(members))
		for i, m := range members {
			valid[i] = contents[i] != nil && !diagnostic.HasErrors(validate.Node(ctx, w.Descent, m, h.opts))
		}
		res = only(contents, valid)
	}
	if res == nil {
		if !anyContent(contents) && h.atTarget(n) {
			title, description := descend.Meta(s, members)
			res = &Content{Title: title, Description: description, Path: n.Path,
				ValueType: descend.PresentedType(s, members), SchemaURI: n.Schema.URI}
		} else if n.Value != nil {
			res = h.valueContent(n)
			res.SchemaURI = n.Schema.URI
		}
	}
	return h.withValues(res, n, members)
}

// only returns the single distinct content among those selected by keep,
// nil if there are none or several.
func only(contents []*Content, keep []bool) *Content {
	var res *Content
	for i, c := range contents {
		if c == nil || keep != nil && !keep[i] {
			continue
		}
		if res != nil && !res.same(c) {
			return nil
		}
		res = c
	}
	return res
}

func anyContent(contents []*Content) bool {
	for _, c := range contents {
		if c != nil {
			return true
		}
	}
	return false
}

// withValues adds the enumerated and default values of a composition to
// content describing it.
func (h *hoverer) withValues(c *Content, n descend.Node, members []descend.Node) *Content {
	if c == nil || !c.Path.Equal(n.Path) {
		return c
	}
	enum, defaults := descend.Values(n.ValueSchema(), members)
	if len(enum) == 0 && len(defaults) == 0 {
		return c
	}
	cs := &Constraints{}
	if c.Constraints != nil {
		*cs = *c.Constraints
	}
	cs.Enum = unionLiterals(cs.Enum, enum)
	cs.Default = unionLiterals(cs.Default, defaults)
	res := *c
	res.Constraints = cs
	return &res
}

func unionLiterals(a, b []any) []any {
	res := append([]any(nil), a...)
	for _, x := range b {
		found := false
		for _, y := range res {
			found = found || schema.LiteralEqual(x, y)
		}
		if !found {
			res = append(res, x)
		}
	}
	return res
}
