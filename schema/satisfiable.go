package schema

// SAT-based satisfiability of schema definitions.
//
// A definition can be impossible to satisfy in two ways: contradictory
// constraints (allOf of a string and an integer schema), or a reference
// cycle with no escape (a table that requires a property of its own type).
//
// For each definition a boolean formula is built and checked with a SAT
// solver. References are expanded inline. While checking definition d, a
// reference to d, or to any definition currently being expanded, is the
// constant false, so a cycle only satisfies the formula when another branch
// does.
//
// Variables are allocated per (position, kind) pair, where positions are
// required property paths and "[]" for array items. Different kinds at the
// same position are mutually exclusive. Optional properties and items of
// arrays without minItems never constrain their parent.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

type varDef struct {
	position string
	kind     string
}

type formulaBuilder struct {
	c         *logic.C
	path      string
	vars      map[varDef]z.Lit
	mutexes   map[string][]z.Lit
	defs      *Definitions
	expanding map[string]bool
}

func newFormulaBuilder(defs *Definitions) *formulaBuilder {
	return &formulaBuilder{
		c:         logic.NewC(),
		vars:      map[varDef]z.Lit{},
		mutexes:   map[string][]z.Lit{},
		defs:      defs,
		expanding: map[string]bool{},
	}
}

func (b *formulaBuilder) cell(r *Referable) z.Lit {
	if r == nil {
		return b.c.T
	}
	if r.ref == "" {
		return b.build(r.Value())
	}
	if !strings.HasPrefix(r.ref, "#") {
		// other documents are assumed satisfiable
		return b.c.T
	}
	if b.expanding[r.ref] {
		return b.c.F
	}
	target, err := b.defs.Lookup(r.ref)
	if err != nil {
		return b.c.F
	}
	b.expanding[r.ref] = true
	defer delete(b.expanding, r.ref)
	return b.cell(target)
}

func (b *formulaBuilder) build(s *ValueSchema) z.Lit {
	if s == nil {
		return b.c.T
	}
	var f z.Lit
	switch s.Type {
	case NullType:
		return b.c.T
	case OneOfType, AnyOfType:
		lits := make([]z.Lit, 0, len(s.Schemas))
		for _, m := range s.Schemas {
			lits = append(lits, b.cell(m))
		}
		if len(lits) == 0 {
			f = b.c.T
		} else {
			f = b.c.Ors(lits...)
		}
	case AllOfType:
		lits := make([]z.Lit, 0, len(s.Schemas))
		for _, m := range s.Schemas {
			lits = append(lits, b.cell(m))
		}
		f = b.c.Ands(lits...)
	case FloatType:
		f = b.c.Or(b.getVar(FloatType.String()), b.getVar(IntegerType.String()))
	case ArrayType:
		f = b.getVar(s.Type.String())
		if s.MinItems != nil && *s.MinItems > 0 && s.Items != nil {
			saved := b.path
			b.path = saved + "[]"
			f = b.c.And(f, b.cell(s.Items))
			b.path = saved
		}
	case TableType:
		lits := []z.Lit{b.getVar(s.Type.String())}
		saved := b.path
		for _, k := range s.Required {
			r := s.Property(k)
			if r == nil {
				continue
			}
			b.path = saved + "." + k
			lits = append(lits, b.cell(r))
		}
		b.path = saved
		f = b.c.Ands(lits...)
	default:
		f = b.getVar(s.Type.String())
	}
	if s.Not != nil {
		f = b.c.And(f, b.cell(s.Not).Not())
	}
	return f
}

func (b *formulaBuilder) getVar(kind string) z.Lit {
	key := varDef{b.path, kind}
	if lit, ok := b.vars[key]; ok {
		return lit
	}
	lit := b.c.Lit()
	b.vars[key] = lit
	b.mutexes[b.path] = append(b.mutexes[b.path], lit)
	return lit
}

func (b *formulaBuilder) addMutexClauses(g *gini.Gini) {
	for _, lits := range b.mutexes {
		for i := 0; i < len(lits); i++ {
			for j := i + 1; j < len(lits); j++ {
				g.Add(lits[i].Not())
				g.Add(lits[j].Not())
				g.Add(0)
			}
		}
	}
}

func (b *formulaBuilder) satisfiable(formula z.Lit) bool {
	g := gini.New()
	b.c.ToCnf(g)
	b.addMutexClauses(g)
	g.Assume(formula)
	return g.Solve() == 1
}

// CheckDefinitions reports every definition of doc, and its root schema,
// that no value can satisfy. The errors wrap ErrUnsatisfiable.
func CheckDefinitions(doc *Document) error {
	var errs []error
	for _, ref := range doc.Definitions.Refs() {
		b := newFormulaBuilder(doc.Definitions)
		b.expanding[ref] = true
		if !b.satisfiable(b.cell(doc.Definitions.Get(ref))) {
			errs = append(errs, fmt.Errorf("%w: definition %q has an impossible cycle or contradiction", ErrUnsatisfiable, ref))
		}
	}
	if doc.Root != nil {
		b := newFormulaBuilder(doc.Definitions)
		if !b.satisfiable(b.cell(doc.Root)) {
			errs = append(errs, fmt.Errorf("%w: root schema of %s accepts no value", ErrUnsatisfiable, doc.URI))
		}
	}
	return errors.Join(errs...)
}
