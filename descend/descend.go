package descend

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/debug"
	"github.com/signadot/tomlkit/schema"
	"github.com/signadot/tomlkit/schemastore"
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

// Match tells how an accessor was matched against a schema.
type Match int

const (
	// Unconstrained means no schema has an opinion about the location.
	Unconstrained Match = iota
	Property
	PatternProperty
	AdditionalProperty
	// NotAllowed is an undeclared key of a table forbidding additional
	// properties.
	NotAllowed
	Items
	// Redirected means the path is mapped to another schema document.
	Redirected
	// Composite means the schema is a composition whose members must be
	// matched individually.
	Composite
)

func (m Match) String() string {
	switch m {
	case Unconstrained:
		return "unconstrained"
	case Property:
		return "property"
	case PatternProperty:
		return "pattern property"
	case AdditionalProperty:
		return "additional property"
	case NotAllowed:
		return "not allowed"
	case Items:
		return "items"
	case Redirected:
		return "redirected"
	case Composite:
		return "composite"
	}
	return "<unknown match>"
}

// Step is the result of matching one accessor.
type Step struct {
	Path   accessor.Path
	Schema *schema.Current
	Match  Match
	// Patterns lists the pattern properties of a table when a key matched
	// none of them.
	Patterns []string
}

// Descent matches accessor paths against the schemas of one schema
// context. A Descent serves one traversal and is not safe for concurrent
// use; the schema graph it walks is.
type Descent struct {
	sc *schemastore.SchemaContext
}

func New(sc *schemastore.SchemaContext) *Descent {
	if sc == nil {
		sc = &schemastore.SchemaContext{}
	}
	return &Descent{sc: sc}
}

func (d *Descent) Context() *schemastore.SchemaContext {
	return d.sc
}

// Root returns the schema of the document root, nil without a schema.
func (d *Descent) Root(ctx context.Context) *schema.Current {
	if cur, ok := d.redirect(ctx, nil); ok {
		return cur
	}
	return d.sc.Root
}

type failureRecorder interface {
	ResolveFailed(uri, path string, err error)
}

// Resolve resolves r in the document of cur. A failure is reported and
// makes the location unconstrained.
func (d *Descent) Resolve(ctx context.Context, r *schema.Referable, cur *schema.Current, path accessor.Path) *schema.Current {
	if r == nil {
		return nil
	}
	var (
		uri  string
		defs *schema.Definitions
	)
	if cur != nil {
		uri, defs = cur.URI, cur.Definitions
	}
	res, err := r.Resolve(ctx, uri, defs, d.sc.Loader)
	if err == nil {
		return res
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if fr, ok := d.sc.Loader.(failureRecorder); ok {
		fr.ResolveFailed(uri, path.String(), err)
	} else {
		log().Warn("schema unresolved", "uri", uri, "path", path.String(), "error", err)
	}
	return nil
}

func (d *Descent) redirect(ctx context.Context, path accessor.Path) (*schema.Current, bool) {
	cur, ok, err := d.sc.SubSchema(ctx, path)
	if err != nil {
		log().Warn("sub schema unavailable", "path", path.String(), "error", err)
	}
	return cur, ok
}

// Descend matches the accessor a, following path, against cur. The
// sub-schema map is consulted first at every step.
func (d *Descent) Descend(ctx context.Context, cur *schema.Current, path accessor.Path, a accessor.Accessor) Step {
	step := d.descend(ctx, cur, path, a)
	if debug.Match() {
		debug.Logf("descend %s: %s\n", step.Path, step.Match)
	}
	return step
}

func (d *Descent) descend(ctx context.Context, cur *schema.Current, path accessor.Path, a accessor.Accessor) Step {
	step := Step{Path: path.Append(a)}
	if sub, ok := d.redirect(ctx, step.Path); ok {
		step.Schema, step.Match = sub, Redirected
		return step
	}
	if cur == nil || cur.Schema == nil {
		return step
	}
	s := cur.Schema
	if s.Type.IsComposition() {
		step.Match = Composite
		return step
	}
	switch {
	case a.IsKey() && s.Type == schema.TableType:
		key := a.KeyName()
		if r := s.Property(key); r != nil {
			step.Schema, step.Match = d.Resolve(ctx, r, cur, step.Path), Property
			return step
		}
		for _, p := range s.PatternProperties {
			if p.Match(key) {
				step.Schema, step.Match = d.Resolve(ctx, p.Schema, cur, step.Path), PatternProperty
				return step
			}
		}
		for _, p := range s.PatternProperties {
			step.Patterns = append(step.Patterns, p.Pattern)
		}
		switch {
		case s.AdditionalSchema != nil:
			step.Schema, step.Match = d.Resolve(ctx, s.AdditionalSchema, cur, step.Path), AdditionalProperty
		case s.AdditionalProperties != nil && !*s.AdditionalProperties:
			step.Match = NotAllowed
		}
	case a.IsIndex() && s.Type == schema.ArrayType:
		if s.Items != nil {
			step.Schema, step.Match = d.Resolve(ctx, s.Items, cur, step.Path), Items
		}
	}
	return step
}

// Members resolves the members of the composition cur. Null members and
// members that fail to resolve are left out.
func (d *Descent) Members(ctx context.Context, cur *schema.Current, path accessor.Path) []*schema.Current {
	if cur == nil || !cur.Schema.Type.IsComposition() {
		return nil
	}
	res := make([]*schema.Current, 0, len(cur.Schema.Schemas))
	for _, r := range cur.Schema.Schemas {
		m := d.Resolve(ctx, r, cur, path)
		if m == nil || m.Schema.Type == schema.NullType {
			continue
		}
		res = append(res, m)
	}
	return res
}

// Not resolves the not schema of cur, nil if there is none.
func (d *Descent) Not(ctx context.Context, cur *schema.Current, path accessor.Path) *schema.Current {
	if cur == nil || cur.Schema.Not == nil {
		return nil
	}
	return d.Resolve(ctx, cur.Schema.Not, cur, path)
}
