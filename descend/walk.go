package descend

import (
	"context"

	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
)

// Node is a document value together with its path and the schema applying
// to it. Value is nil where the document has nothing yet, as when
// completing past the last element of an array.
type Node struct {
	Value  *doctree.Value
	Path   accessor.Path
	Schema *schema.Current
}

// ValueSchema returns the schema node of n, nil when unconstrained.
func (n Node) ValueSchema() *schema.ValueSchema {
	if n.Schema == nil {
		return nil
	}
	return n.Schema.Schema
}

// With returns n under another schema.
func (n Node) With(cur *schema.Current) Node {
	n.Schema = cur
	return n
}

// Visitor is what a consumer supplies to a Walker: one method per outcome
// of dispatching a node. Each method returns the consumer result for the
// node, and recurses, if at all, through the walker.
type Visitor[R any] interface {
	// Unconstrained is called when no schema applies to the value, and
	// for Null schemas, which accept anything.
	Unconstrained(ctx context.Context, w *Walker[R], n Node) R
	// Absent is called for a schema without a value, or with an
	// incomplete one.
	Absent(ctx context.Context, w *Walker[R], n Node) R
	// Mismatch is called when the value does not have the schema type.
	Mismatch(ctx context.Context, w *Walker[R], n Node) R
	Scalar(ctx context.Context, w *Walker[R], n Node) R
	Array(ctx context.Context, w *Walker[R], n Node) R
	Table(ctx context.Context, w *Walker[R], n Node) R
	// Composition is called for oneOf, anyOf and allOf schemas with the
	// value under each resolved member.
	Composition(ctx context.Context, w *Walker[R], n Node, members []Node) R
}

type visit struct {
	schema *schema.ValueSchema
	value  *doctree.Value
}

// Walker is the schema guided descent shared by all consumers: it resolves
// schemas, follows redirects, expands compositions and leaves what to do
// at each node to its visitor.
type Walker[R any] struct {
	*Descent
	v      Visitor[R]
	active map[visit]bool
}

func NewWalker[R any](d *Descent, v Visitor[R]) *Walker[R] {
	return &Walker[R]{Descent: d, v: v, active: map[visit]bool{}}
}

// RootNode is the document root under the root schema.
func (w *Walker[R]) RootNode(ctx context.Context, root *doctree.Value) Node {
	return Node{Value: root, Schema: w.Root(ctx)}
}

// Visit dispatches n to the visitor. A schema met again for the same value
// while it is being visited, through a composition referring to itself, is
// treated as unconstrained.
func (w *Walker[R]) Visit(ctx context.Context, n Node) R {
	s := n.ValueSchema()
	if s == nil || s.Type == schema.NullType {
		return w.v.Unconstrained(ctx, w, n)
	}
	k := visit{s, n.Value}
	if w.active[k] {
		return w.v.Unconstrained(ctx, w, n)
	}
	w.active[k] = true
	defer delete(w.active, k)

	if s.Type.IsComposition() {
		members := w.Members(ctx, n.Schema, n.Path)
		nodes := make([]Node, len(members))
		for i, m := range members {
			nodes[i] = n.With(m)
		}
		return w.v.Composition(ctx, w, n, nodes)
	}
	if n.Value == nil || n.Value.Kind == doctree.Incomplete {
		return w.v.Absent(ctx, w, n)
	}
	if !s.Type.Accepts(n.Value.Kind) {
		return w.v.Mismatch(ctx, w, n)
	}
	switch s.Type {
	case schema.TableType:
		return w.v.Table(ctx, w, n)
	case schema.ArrayType:
		return w.v.Array(ctx, w, n)
	}
	return w.v.Scalar(ctx, w, n)
}

// Key descends from the table node n to its entry key, which need not be
// present in the document.
func (w *Walker[R]) Key(ctx context.Context, n Node, key string) (Node, Step) {
	step := w.Descend(ctx, n.Schema, n.Path, accessor.Key(key))
	var v *doctree.Value
	if n.Value != nil {
		v = n.Value.Get(key)
	}
	return Node{Value: v, Path: step.Path, Schema: step.Schema}, step
}

// Index descends from the array node n to element i, or past the last
// element when i is out of range.
func (w *Walker[R]) Index(ctx context.Context, n Node, i int) Node {
	step := w.Descend(ctx, n.Schema, n.Path, accessor.Index(i))
	var v *doctree.Value
	if n.Value != nil && n.Value.Kind == doctree.Array && i < len(n.Value.Values) {
		v = n.Value.Values[i]
	}
	return Node{Value: v, Path: step.Path, Schema: step.Schema}
}
