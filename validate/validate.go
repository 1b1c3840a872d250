// Package validate checks TOML documents against their schemas.
//
// Validation never fails as a Go error: schema problems make the affected
// locations unconstrained and everything found in the document is returned
// as diagnostics, ordered by range.
package validate

import (
	"context"

	"github.com/signadot/tomlkit/descend"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
	"github.com/signadot/tomlkit/schemastore"
)

type Options struct {
	// Rules overrides the level of diagnostics by code.
	Rules diagnostic.Rules
	// Strict forbids undeclared keys in tables whose schema does not
	// say whether additional properties are allowed.
	Strict bool
}

// Document validates doc against the schemas of sc, which may be nil.
// Structural errors recorded while loading doc are included.
func Document(ctx context.Context, doc *doctree.Document, sc *schemastore.SchemaContext, opts Options) []diagnostic.Diagnostic {
	var res []diagnostic.Diagnostic
	for _, e := range doc.Errors {
		res = append(res, diagnostic.FromDocError(e))
	}
	res = append(res, directiveErrors(doc.Root)...)
	res = append(res, Value(ctx, descend.New(sc), doc.Root, opts)...)
	return diagnostic.Normalize(res)
}

// Value validates the tree rooted at root, the document root, using d.
func Value(ctx context.Context, d *descend.Descent, root *doctree.Value, opts Options) []diagnostic.Diagnostic {
	v := &validator{opts: opts}
	w := descend.NewWalker[[]diagnostic.Diagnostic](d, v)
	v.push(root.Directives)
	return w.Visit(ctx, w.RootNode(ctx, root))
}

// Node validates the value of n against its schema. Other consumers use it
// to tell which members of a composition a value satisfies.
func Node(ctx context.Context, d *descend.Descent, n descend.Node, opts Options) []diagnostic.Diagnostic {
	v := &validator{opts: opts}
	w := descend.NewWalker[[]diagnostic.Diagnostic](d, v)
	return w.Visit(ctx, n)
}

func directiveErrors(v *doctree.Value) []diagnostic.Diagnostic {
	var res []diagnostic.Diagnostic
	for _, d := range v.Directives {
		if d.Err != nil {
			res = append(res, diagnostic.Diagnostic{
				Kind:    diagnostic.ParseError,
				Level:   diagnostic.LevelWarn,
				Range:   d.Range,
				Message: d.Err.Error(),
			})
		}
	}
	switch v.Kind {
	case doctree.Array:
		for _, x := range v.Values {
			res = append(res, directiveErrors(x)...)
		}
	case doctree.Table:
		for _, e := range v.Entries {
			res = append(res, directiveErrors(e.Value)...)
		}
	}
	return res
}

type (
	diags  = []diagnostic.Diagnostic
	walker = descend.Walker[diags]
)

type validator struct {
	opts Options
	// directives in effect, outermost first
	directives []*doctree.Directive
}

func (v *validator) push(ds []*doctree.Directive) int {
	n := len(v.directives)
	v.directives = append(v.directives, ds...)
	return n
}

func (v *validator) pop(n int) {
	v.directives = v.directives[:n]
}

// add appends d at the level configured for its kind, dropping it when the
// rule is off. Comment directives take precedence over options.
func (v *validator) add(res diags, d diagnostic.Diagnostic) diags {
	d.Level = v.opts.Rules.Level(d.Kind)
	if !d.Kind.Structural() {
		if lvl, ok := doctree.RuleLevel(v.directives, d.Code()); ok {
			if l, err := diagnostic.ParseLevel(lvl); err == nil {
				d.Level = l
			}
		}
	}
	if d.Level == diagnostic.LevelOff {
		return res
	}
	return append(res, d)
}

func (v *validator) Unconstrained(ctx context.Context, w *walker, n descend.Node) diags {
	// Unconstrained subtrees are only walked for sub-schema redirects.
	if n.Value == nil || len(w.Context().SubSchemas) == 0 {
		return nil
	}
	n = n.With(nil)
	var res diags
	switch n.Value.Kind {
	case doctree.Table:
		for _, e := range n.Value.Entries {
			child, _ := w.Key(ctx, n, e.Key.Name)
			res = append(res, v.child(ctx, w, child)...)
		}
	case doctree.Array:
		for i := range n.Value.Values {
			res = append(res, v.child(ctx, w, w.Index(ctx, n, i))...)
		}
	}
	return res
}

func (v *validator) child(ctx context.Context, w *walker, n descend.Node) diags {
	if n.Value == nil {
		return nil
	}
	defer v.pop(v.push(n.Value.Directives))
	return w.Visit(ctx, n)
}

func (v *validator) Absent(context.Context, *walker, descend.Node) diags {
	return nil
}

func (v *validator) Mismatch(_ context.Context, _ *walker, n descend.Node) diags {
	return v.add(nil, diagnostic.NewTypeMismatch(n.Value.Range,
		n.ValueSchema().ValueType().String(), schema.TypeOfKind(n.Value.Kind).String()))
}

func (v *validator) Scalar(ctx context.Context, w *walker, n descend.Node) diags {
	s, val := n.ValueSchema(), n.Value
	var res diags
	if s.Const != nil && !schema.MatchesLiteral(val, s.Const) {
		res = v.add(res, diagnostic.NewConst(val.Range, schema.FormatTyped(s.Const, s.Type), val.Display()))
	}
	if len(s.Enum) > 0 && !matchesAny(val, s.Enum) {
		expected := make([]string, len(s.Enum))
		for i, e := range s.Enum {
			expected[i] = schema.FormatTyped(e, s.Type)
		}
		res = v.add(res, diagnostic.NewEnumerate(val.Range, expected, val.Display()))
	}
	switch s.Type {
	case schema.IntegerType:
		res = v.integer(res, s, val)
	case schema.FloatType:
		res = v.float(res, s, val)
	case schema.StringType:
		res = v.str(res, s, val)
	}
	res = append(res, v.not(ctx, w, n)...)
	return v.deprecated(res, n)
}

func matchesAny(val *doctree.Value, lits []any) bool {
	for _, l := range lits {
		if schema.MatchesLiteral(val, l) {
			return true
		}
	}
	return false
}

func (v *validator) Array(ctx context.Context, w *walker, n descend.Node) diags {
	s, arr := n.ValueSchema(), n.Value
	var res diags
	if s.MaxItems != nil && len(arr.Values) > *s.MaxItems {
		res = v.add(res, diagnostic.NewArrayMaxValues(arr.Range, *s.MaxItems, len(arr.Values)))
	}
	if s.MinItems != nil && len(arr.Values) < *s.MinItems {
		res = v.add(res, diagnostic.NewArrayMinValues(arr.Range, *s.MinItems, len(arr.Values)))
	}
	if s.UniqueItems {
		for _, x := range duplicates(arr) {
			res = v.add(res, diagnostic.NewArrayUniqueValues(x.Range, x.Display()))
		}
	}
	for i := range arr.Values {
		res = append(res, v.child(ctx, w, w.Index(ctx, n, i))...)
	}
	res = append(res, v.not(ctx, w, n)...)
	return v.deprecated(res, n)
}

// duplicates returns every literal element equal to another element.
// Tables and arrays are not compared.
func duplicates(arr *doctree.Value) []*doctree.Value {
	counts := map[string]int{}
	for _, x := range arr.Values {
		if k := x.LiteralKey(); k != "" {
			counts[k]++
		}
	}
	var res []*doctree.Value
	for _, x := range arr.Values {
		if k := x.LiteralKey(); k != "" && counts[k] > 1 {
			res = append(res, x)
		}
	}
	return res
}

func (v *validator) Table(ctx context.Context, w *walker, n descend.Node) diags {
	s, t := n.ValueSchema(), n.Value
	var res diags
	for _, key := range s.Required {
		if t.Entry(key) == nil {
			res = v.add(res, diagnostic.NewKeyRequired(t.Range, key))
		}
	}
	if s.MaxProperties != nil && t.Len() > *s.MaxProperties {
		res = v.add(res, diagnostic.NewTableMaxKeys(t.Range, *s.MaxProperties, t.Len()))
	}
	if s.MinProperties != nil && t.Len() < *s.MinProperties {
		res = v.add(res, diagnostic.NewTableMinKeys(t.Range, *s.MinProperties, t.Len()))
	}
	for _, e := range t.Entries {
		res = append(res, v.entry(ctx, w, n, e)...)
	}
	res = append(res, v.not(ctx, w, n)...)
	return v.deprecated(res, n)
}

func (v *validator) entry(ctx context.Context, w *walker, n descend.Node, e *doctree.Entry) diags {
	child, step := w.Key(ctx, n, e.Key.Name)
	defer v.pop(v.push(e.Value.Directives))
	var res diags
	r := e.Key.Range.Union(e.Value.Range)
	switch step.Match {
	case descend.NotAllowed:
		if len(step.Patterns) > 0 {
			return v.add(res, diagnostic.NewKeyPattern(e.Key.Range, e.Key.Name, step.Patterns))
		}
		return v.add(res, diagnostic.NewKeyNotAllowed(r, e.Key.Name))
	case descend.Unconstrained:
		s := n.ValueSchema()
		if v.opts.Strict && s.AdditionalProperties == nil {
			res = v.add(res, diagnostic.NewStrictAdditionalProperties(r, n.Path.String(), e.Key.Name, n.Schema.URI))
		}
	}
	return append(res, w.Visit(ctx, child)...)
}

func (v *validator) Composition(ctx context.Context, w *walker, n descend.Node, members []descend.Node) diags {
	if n.Value == nil || n.Value.Kind == doctree.Incomplete {
		return nil
	}
	s := n.ValueSchema()
	res := v.not(ctx, w, n)
	results := make([]diags, len(members))
	valid := make([]bool, len(members))
	for i, m := range members {
		results[i] = w.Visit(ctx, m)
		valid[i] = !diagnostic.HasErrors(results[i])
	}
	verdict := descend.Evaluate(s.Type, valid)
	switch {
	case verdict.Total == 0:
	case s.Type == schema.AllOfType:
		for _, r := range results {
			res = append(res, r...)
		}
	case verdict.Chosen() >= 0:
		res = append(res, results[verdict.Chosen()]...)
	case verdict.MultipleMatch():
		return v.add(res, diagnostic.NewOneOfMultipleMatch(n.Value.Range, len(verdict.Valid), verdict.Total))
	default:
		if d, ok := collapseMismatch(n, members, results); ok {
			return v.add(res, d)
		}
		for _, r := range results {
			res = append(res, r...)
		}
	}
	return v.deprecated(res, n)
}

// collapseMismatch turns a failed composition whose members all rejected
// the value's type into one type mismatch naming the composed type.
func collapseMismatch(n descend.Node, members []descend.Node, results []diags) (diagnostic.Diagnostic, bool) {
	for _, r := range results {
		if len(r) != 1 || r[0].Kind != diagnostic.TypeMismatch || r[0].Range != n.Value.Range {
			return diagnostic.Diagnostic{}, false
		}
	}
	expected := descend.PresentedType(n.ValueSchema(), members).String()
	return diagnostic.NewTypeMismatch(n.Value.Range, expected, schema.TypeOfKind(n.Value.Kind).String()), true
}

func (v *validator) not(ctx context.Context, w *walker, n descend.Node) diags {
	cur := w.Not(ctx, n.Schema, n.Path)
	if cur == nil {
		return nil
	}
	if diagnostic.HasErrors(w.Visit(ctx, n.With(cur))) {
		return nil
	}
	return v.add(nil, diagnostic.NewNotSchema(n.Value.Range, n.Value.Display()))
}

// deprecated adds a deprecation warning for n when nothing else was found.
func (v *validator) deprecated(res diags, n descend.Node) diags {
	if len(res) > 0 || !n.ValueSchema().IsDeprecated() {
		return res
	}
	if n.Value.Kind.IsLiteral() {
		return v.add(res, diagnostic.NewDeprecatedValue(n.Value.Range, n.Path.String(), n.Value.Display()))
	}
	return v.add(res, diagnostic.NewDeprecated(n.Value.Range, n.Path.String()))
}
