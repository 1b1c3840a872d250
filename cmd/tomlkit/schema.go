package main

import (
	"errors"
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/signadot/tomlkit/schema"
	"github.com/signadot/tomlkit/schemastore"
)

func schemaCheck(cfg *SchemaCheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: schema check requires at least one schema", cli.ErrUsage)
	}
	p, err := cfg.project()
	if err != nil {
		return err
	}
	failed := false
	for _, a := range args {
		uri := schemastore.DirectiveURI("", a)
		doc, err := p.store.Load(cfg.ctx, uri)
		if err != nil {
			fmt.Fprintf(cc.Out, "%s: %v\n", a, err)
			failed = true
			continue
		}
		for _, w := range doc.Warnings {
			fmt.Fprintf(cc.Out, "%s: warning: %v\n", a, w)
		}
		if err := schema.CheckDefinitions(doc); err != nil {
			for _, e := range unjoin(err) {
				fmt.Fprintf(cc.Out, "%s: %v\n", a, e)
			}
			failed = true
			continue
		}
		fmt.Fprintf(cc.Out, "%s: ok\n", a)
	}
	if failed {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func schemaFetch(cfg *SchemaFetchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Fetch.Parse(cc, args)
	if err != nil {
		return err
	}
	p, err := cfg.project()
	if err != nil {
		return err
	}
	uris := p.cfg.SchemaURIs()
	if len(args) > 0 {
		uris = uris[:0]
		for _, a := range args {
			uris = append(uris, schemastore.DirectiveURI("", a))
		}
	}
	if len(uris) == 0 {
		return fmt.Errorf("%w: no schemas configured or given", cli.ErrUsage)
	}
	err = p.store.Prefetch(cfg.ctx, uris...)
	for _, e := range unjoin(err) {
		if e != nil {
			theLog.Error("fetch failed", "error", e)
		}
	}
	for _, u := range p.store.Loaded() {
		if c := p.store.CachePath(u); c != "" {
			fmt.Fprintf(cc.Out, "%s -> %s\n", u, c)
		} else {
			fmt.Fprintln(cc.Out, u)
		}
	}
	if err != nil {
		return errors.New("some schemas could not be fetched")
	}
	return nil
}
