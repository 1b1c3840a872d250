package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/schemastore"
	"golang.org/x/sync/errgroup"
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

// StoreOptions returns the schema store settings. reg receives the store
// metrics and may be nil.
func (c *Config) StoreOptions(reg prometheus.Registerer) schemastore.Options {
	dir := c.Schema.CacheDir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(c.Dir, dir)
	}
	return schemastore.Options{
		CacheDir:     dir,
		CacheTTL:     time.Duration(c.Schema.CacheTTL),
		Offline:      c.Schema.Offline,
		FetchRate:    c.Schema.FetchRate,
		FetchTimeout: time.Duration(c.Schema.FetchTimeout),
		Registerer:   reg,
	}
}

// NewStore creates a schema store with the associations, overlays and
// catalogs of c. Catalogs that cannot be fetched are logged and skipped,
// so that an offline store still serves the configured schemas.
func (c *Config) NewStore(ctx context.Context, reg prometheus.Registerer) (*schemastore.Store, error) {
	st := schemastore.New(c.StoreOptions(reg))
	if !c.SchemaEnabled() {
		return st, nil
	}
	for _, o := range c.Overlays {
		p := o.Patch
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.Dir, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: overlay: %w", ErrBadConfig, err)
		}
		if err := st.AddOverlay(c.resolve(o.Schema), data); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadConfig, err)
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, uri := range c.Schema.Catalog {
		g.Go(func() error {
			n, err := st.LoadCatalog(gctx, uri)
			if err != nil {
				log().Warn("catalog unavailable", "uri", uri, "error", err)
				return nil
			}
			log().Debug("catalog loaded", "uri", uri, "schemas", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Associated last, configured schemas rank first.
	uris := c.SchemaURIs()
	for i := len(c.Schemas) - 1; i >= 0; i-- {
		it := c.Schemas[i]
		a := &schemastore.Association{SchemaURI: uris[i], Include: it.Include}
		if it.Root != "" {
			root, err := accessor.Parse(it.Root)
			if err != nil {
				return nil, fmt.Errorf("%w: schemas[%d].root: %w", ErrBadConfig, i, err)
			}
			a.Root = root
		}
		st.Associate(a)
	}
	return st, nil
}
