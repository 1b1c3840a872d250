package schema

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/signadot/tomlkit/debug"
)

// maxRefDepth bounds chains of references to references.
const maxRefDepth = 64

// Loader gives access to schema documents by URI. A nil document with a nil
// error means the document is not available, as when offline.
type Loader interface {
	Load(ctx context.Context, uri string) (*Document, error)
}

// Referable is a cell of the schema graph holding either a resolved
// ValueSchema or a $ref. A cell is resolved at most once: resolution only
// ever moves it from unresolved to resolved. Each cell has its own lock, so
// readers of one cell never wait on another.
type Referable struct {
	mu    sync.RWMutex
	value *ValueSchema
	// uri of the document value was found in, when not the document
	// containing the cell.
	uri string

	ref         string
	title       string
	description string
	deprecated  *bool
}

func Resolved(v *ValueSchema) *Referable {
	return &Referable{value: v}
}

func NewRef(ref string) *Referable {
	return &Referable{ref: ref}
}

// Ref returns the reference of the cell, "" for cells parsed resolved.
func (r *Referable) Ref() string {
	return r.ref
}

// Value returns the resolved schema, nil while unresolved.
func (r *Referable) Value() *ValueSchema {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

func (r *Referable) IsResolved() bool {
	return r.Value() != nil
}

// Current is a resolved schema together with the document it lives in.
// It is valid for one descent step.
type Current struct {
	Schema      *ValueSchema
	URI         string
	Definitions *Definitions
}

// Resolve resolves r against the document uri with definitions defs. Other
// documents are loaded through l. A nil Current with a nil error means the
// schema is unavailable and the location is unconstrained.
//
// Resolving a composition also resolves its direct members; failures there
// are logged and leave the member unresolved.
func (r *Referable) Resolve(ctx context.Context, uri string, defs *Definitions, l Loader) (*Current, error) {
	return r.resolve(ctx, uri, defs, l, 0, true)
}

func (r *Referable) resolve(ctx context.Context, uri string, defs *Definitions, l Loader, depth int, members bool) (*Current, error) {
	if r == nil {
		return nil, nil
	}
	if depth > maxRefDepth {
		return nil, fmt.Errorf("%w: %s", ErrRefCycle, r.ref)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	v, vuri := r.value, r.uri
	r.mu.RUnlock()
	if v == nil {
		var err error
		v, vuri, err = r.lookup(ctx, uri, defs, l, depth)
		if err != nil || v == nil {
			return nil, err
		}
		v = v.withMeta(r.title, r.description, r.deprecated)
		if vuri == uri {
			vuri = ""
		}
		r.mu.Lock()
		if r.value == nil {
			r.value, r.uri = v, vuri
		} else {
			v, vuri = r.value, r.uri
		}
		r.mu.Unlock()
	}
	cur := &Current{Schema: v, URI: uri, Definitions: defs}
	if vuri != "" {
		if l == nil {
			return nil, fmt.Errorf("%w: no loader for %s", ErrUnsupportedRef, vuri)
		}
		doc, err := l.Load(ctx, vuri)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			cur.URI, cur.Definitions = doc.URI, doc.Definitions
		}
	}
	if members && v.Type.IsComposition() {
		for _, m := range v.Schemas {
			if _, err := m.resolve(ctx, cur.URI, cur.Definitions, l, depth+1, false); err != nil {
				log().Warn("schema member unresolved", "uri", cur.URI, "ref", m.ref, "error", err)
			}
		}
	}
	return cur, nil
}

func (r *Referable) lookup(ctx context.Context, uri string, defs *Definitions, l Loader, depth int) (*ValueSchema, string, error) {
	ref := r.ref
	if debug.Resolve() {
		debug.Logf("resolve %s in %s\n", ref, uri)
	}
	if strings.HasPrefix(ref, "#") {
		target, err := defs.Lookup(ref)
		if err != nil {
			return nil, "", fmt.Errorf("%w in %s", err, uri)
		}
		return resolveTarget(ctx, target, uri, defs, l, depth)
	}
	abs, err := resolveURI(uri, ref)
	if err != nil {
		return nil, "", err
	}
	if l == nil {
		return nil, "", fmt.Errorf("%w: no loader for %s", ErrUnsupportedRef, abs)
	}
	docURI, frag, _ := strings.Cut(abs, "#")
	doc, err := l.Load(ctx, docURI)
	if err != nil || doc == nil {
		return nil, "", err
	}
	target := doc.Root
	if frag != "" {
		target, err = doc.Definitions.Lookup("#" + frag)
		if err != nil {
			return nil, "", fmt.Errorf("%w in %s", err, doc.URI)
		}
	}
	if target == nil {
		return nil, "", fmt.Errorf("%w: %s has no root schema", ErrRefNotFound, doc.URI)
	}
	return resolveTarget(ctx, target, doc.URI, doc.Definitions, l, depth)
}

func resolveTarget(ctx context.Context, target *Referable, uri string, defs *Definitions, l Loader, depth int) (*ValueSchema, string, error) {
	cur, err := target.resolve(ctx, uri, defs, l, depth+1, false)
	if err != nil || cur == nil {
		return nil, "", err
	}
	return cur.Schema, cur.URI, nil
}

// resolveURI makes ref absolute against the document base. Whether its
// scheme can be loaded is up to the Loader.
func resolveURI(base, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnsupportedRef, ref, err)
	}
	if !u.IsAbs() {
		b, err := url.Parse(base)
		if err != nil || !b.IsAbs() {
			return "", fmt.Errorf("%w: relative %s without a base", ErrUnsupportedRef, ref)
		}
		u = b.ResolveReference(u)
	}
	return u.String(), nil
}

// Definitions holds the named definitions of one schema document, and the
// decoded document for references by JSON pointer.
type Definitions struct {
	defs map[string]*Referable
	raw  any
	p    *parser

	mu       sync.Mutex
	pointers map[string]*Referable
}

// Get returns a definition by reference, such as "#/definitions/x".
func (d *Definitions) Get(ref string) *Referable {
	if d == nil {
		return nil
	}
	return d.defs[ref]
}

// Refs returns the references of all definitions, sorted.
func (d *Definitions) Refs() []string {
	if d == nil {
		return nil
	}
	res := make([]string, 0, len(d.defs))
	for k := range d.defs {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}

// Lookup finds the cell for a fragment reference, first among definitions,
// then by following it as a JSON pointer into the document. Cells found by
// pointer are cached so a pointer always yields the same cell.
func (d *Definitions) Lookup(ref string) (*Referable, error) {
	if r := d.Get(ref); r != nil {
		return r, nil
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrRefNotFound, ref)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if r, ok := d.pointers[ref]; ok {
		return r, nil
	}
	v, ok := followPointer(d.raw, ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRefNotFound, ref)
	}
	r := d.p.referable(v, strings.TrimPrefix(ref, "#"))
	if r == nil {
		return nil, fmt.Errorf("%w: %s is not a schema", ErrRefNotFound, ref)
	}
	if d.pointers == nil {
		d.pointers = map[string]*Referable{}
	}
	d.pointers[ref] = r
	return r, nil
}

// followPointer follows a "#/a/b" JSON pointer. Segments are percent
// decoded, then "~1" and "~0" are unescaped.
func followPointer(doc any, ref string) (any, bool) {
	p := strings.TrimPrefix(ref, "#")
	if dec, err := url.PathUnescape(p); err == nil {
		p = dec
	}
	cur := doc
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		switch x := cur.(type) {
		case Object:
			v, ok := x.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(x) {
				return nil, false
			}
			cur = x[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
