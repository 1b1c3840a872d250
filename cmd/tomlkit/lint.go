package main

import (
	"github.com/scott-cotton/cli"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/validate"
	"golang.org/x/sync/errgroup"
)

type lintResult struct {
	src []byte
	ds  []diagnostic.Diagnostic
}

func lint(cfg *LintConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Lint.Parse(cc, args)
	if err != nil {
		return err
	}
	p, err := cfg.project()
	if err != nil {
		return err
	}
	names, err := files(args)
	if err != nil {
		return err
	}
	results := make([]lintResult, len(names))
	g, ctx := errgroup.WithContext(cfg.ctx)
	g.SetLimit(cfg.jobs())
	for i, name := range names {
		g.Go(func() error {
			src, err := readInput(cc, name)
			if err != nil {
				return err
			}
			doc := doctree.Load(src)
			ds := validate.Document(ctx, doc, p.schemaContext(ctx, name, doc), p.vopts)
			results[i] = lintResult{src: src, ds: ds}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	pr := diagnostic.NewPrinter(cc.Out)
	var all []diagnostic.Diagnostic
	for i, r := range results {
		if err := pr.Print(names[i], r.src, r.ds); err != nil {
			return err
		}
		all = append(all, r.ds...)
	}
	if err := pr.Summary(len(names), all); err != nil {
		return err
	}
	if diagnostic.HasErrors(all) {
		return cli.ExitCodeErr(1)
	}
	return nil
}
