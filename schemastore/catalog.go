package schemastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// Catalog is a schema catalog in the format of the JSON Schema Store.
type Catalog struct {
	Schemas []CatalogEntry `json:"schemas"`
}

type CatalogEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	FileMatch   []string `json:"fileMatch,omitempty"`
	URL         string   `json:"url"`
}

func ParseCatalog(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: bad catalog: %w", ErrFetch, err)
	}
	return c, nil
}

// LoadCatalog fetches the catalog at uri and associates the schemas it
// lists for TOML files. Catalog associations rank below those added with
// Associate. It returns the number of associations added.
func (s *Store) LoadCatalog(ctx context.Context, uri string) (int, error) {
	data, err := s.Fetch(ctx, uri)
	if err != nil {
		return 0, err
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", uri, err)
	}
	var add []*Association
	for _, e := range c.Schemas {
		var globs []string
		for _, m := range e.FileMatch {
			if strings.HasSuffix(m, ".toml") {
				globs = append(globs, m)
			}
		}
		if len(globs) == 0 || e.URL == "" {
			continue
		}
		add = append(add, &Association{SchemaURI: e.URL, Include: globs, Title: e.Name})
	}
	s.mu.Lock()
	s.catalog = append(s.catalog, add...)
	s.mu.Unlock()
	return len(add), nil
}
