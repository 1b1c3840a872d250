package schemastore

import (
	"context"
	"net/url"
	"path/filepath"

	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schema"
	lspuri "go.lsp.dev/uri"
)

const DefaultTOMLVersion = "v1.0.0"

// SchemaContext is what a traversal of one document needs from schemas: the
// root schema, the subtrees redirected to other schema documents and the
// loader for referenced documents.
type SchemaContext struct {
	TOMLVersion string
	// Root is nil when the document has no schema.
	Root *schema.Current
	// SubSchemas maps schema paths (indices as [*]) to document URIs.
	SubSchemas map[string]string
	Loader     schema.Loader
}

// SubSchema reports whether path is redirected to another schema
// document, and the root of that document. The schema is nil when the
// document is unavailable.
func (c *SchemaContext) SubSchema(ctx context.Context, path accessor.Path) (*schema.Current, bool, error) {
	if c == nil || len(c.SubSchemas) == 0 {
		return nil, false, nil
	}
	uri, ok := c.SubSchemas[path.Schema().String()]
	if !ok {
		return nil, false, nil
	}
	cur, err := loadRoot(ctx, c.Loader, uri)
	return cur, true, err
}

func loadRoot(ctx context.Context, l schema.Loader, uri string) (*schema.Current, error) {
	if l == nil {
		return nil, nil
	}
	doc, err := l.Load(ctx, uri)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.Root.Resolve(ctx, doc.URI, doc.Definitions, l)
}

// Context builds the schema context of the document loaded from the file
// at name. A #:schema directive in the document overrides associations;
// relative directive paths are relative to the file.
func (s *Store) Context(ctx context.Context, name string, doc *doctree.Document) (*SchemaContext, error) {
	sc := &SchemaContext{TOMLVersion: DefaultTOMLVersion, Loader: s}
	rootURI := ""
	if doc != nil && doc.SchemaURI != "" {
		rootURI = DirectiveURI(name, doc.SchemaURI)
	}
	for _, a := range s.Associations(name) {
		if len(a.Root) != 0 {
			if sc.SubSchemas == nil {
				sc.SubSchemas = map[string]string{}
			}
			k := a.Root.Schema().String()
			if _, ok := sc.SubSchemas[k]; !ok {
				sc.SubSchemas[k] = a.SchemaURI
			}
			continue
		}
		if rootURI == "" {
			rootURI = a.SchemaURI
		}
	}
	if rootURI == "" {
		return sc, nil
	}
	cur, err := loadRoot(ctx, s, rootURI)
	if err != nil {
		return sc, err
	}
	sc.Root = cur
	if d, err := s.Load(ctx, rootURI); err == nil && d != nil && d.TOMLVersion != "" {
		sc.TOMLVersion = d.TOMLVersion
	}
	return sc, nil
}

// DirectiveURI makes the target of a #:schema directive absolute. Plain
// paths are taken relative to the directory of the file at name.
func DirectiveURI(name, target string) string {
	if u, err := url.Parse(target); err == nil && u.IsAbs() && len(u.Scheme) > 1 {
		return target
	}
	p := filepath.FromSlash(target)
	if !filepath.IsAbs(p) && name != "" {
		p = filepath.Join(filepath.Dir(name), p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return FileURI(p)
}

// FileURI returns the file URI of a local path.
func FileURI(p string) string {
	return string(lspuri.File(p))
}
