package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/scott-cotton/cli"
	"github.com/signadot/tomlkit/doctree"
	"github.com/signadot/tomlkit/edit"
	"golang.org/x/sync/errgroup"
)

type formatResult struct {
	src, out []byte
	err      error
}

func format(cfg *FormatConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Format.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Diff && cfg.Check {
		return fmt.Errorf("%w: at most one of -diff and -check", cli.ErrUsage)
	}
	p, err := cfg.project()
	if err != nil {
		return err
	}
	names, err := files(args)
	if err != nil {
		return err
	}
	results := make([]formatResult, len(names))
	g, ctx := errgroup.WithContext(cfg.ctx)
	g.SetLimit(cfg.jobs())
	for i, name := range names {
		g.Go(func() error {
			src, err := readInput(cc, name)
			if err != nil {
				return err
			}
			sc := p.schemaContext(ctx, name, doctree.Load(src))
			out, err := edit.Format(ctx, src, sc, p.vopts)
			results[i] = formatResult{src: src, out: out, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	failed := false
	for i, r := range results {
		name := names[i]
		if r.err != nil {
			theLog.Error("not formatted", "file", name, "error", r.err)
			failed = true
			continue
		}
		changed := !bytes.Equal(r.src, r.out)
		switch {
		case cfg.Diff:
			if changed {
				if err := printDiff(cc.Out, name, r.src, r.out); err != nil {
					return err
				}
			}
		case cfg.Check:
			if changed {
				fmt.Fprintf(cc.Out, "%s: not formatted\n", name)
				failed = true
			}
		case name == "-":
			if _, err := cc.Out.Write(r.out); err != nil {
				return err
			}
		case changed:
			fi, err := os.Stat(name)
			if err != nil {
				return err
			}
			if err := os.WriteFile(name, r.out, fi.Mode().Perm()); err != nil {
				return err
			}
			theLog.Info("formatted", "file", name)
		}
	}
	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}
