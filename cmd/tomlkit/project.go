package main

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/scott-cotton/cli"
	"github.com/signadot/tomlkit/config"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/schemastore"
	"github.com/signadot/tomlkit/validate"
)

// project is what commands working on documents share.
type project struct {
	cfg   *config.Config
	store *schemastore.Store
	vopts validate.Options
}

func (cfg *MainConfig) project() (*project, error) {
	c, err := cfg.load()
	if err != nil {
		return nil, err
	}
	vopts, err := c.ValidateOptions()
	if err != nil {
		return nil, err
	}
	st, err := c.NewStore(cfg.ctx, nil)
	if err != nil {
		return nil, err
	}
	return &project{cfg: c, store: st, vopts: vopts}, nil
}

// schemaContext returns the schemas for doc, read from the file at name.
// It is nil when schemas are disabled.
func (p *project) schemaContext(ctx context.Context, name string, doc *doctree.Document) *schemastore.SchemaContext {
	if !p.cfg.SchemaEnabled() {
		return nil
	}
	if name == "-" {
		name = ""
	}
	sc, err := p.store.Context(ctx, name, doc)
	if err != nil {
		theLog.Warn("schema unavailable", "file", name, "error", err)
	}
	return sc
}

// files expands directories in args to the TOML files below them. No
// arguments means standard input, named "-".
func files(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"-"}, nil
	}
	var res []string
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil || !fi.IsDir() {
			res = append(res, a)
			continue
		}
		err = filepath.WalkDir(a, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && p != a && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if !d.IsDir() && strings.HasSuffix(p, ".toml") {
				res = append(res, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func readInput(cc *cli.Context, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cc.In)
	}
	return os.ReadFile(name)
}
