package main

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/scott-cotton/cli"
	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/doctree"
)

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		cfg.Get.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: get requires one argument, a path", cli.ErrUsage)
	}
	path, err := accessor.Parse(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	names, err := files(args[1:])
	if err != nil {
		return err
	}
	for _, name := range names {
		src, err := readInput(cc, name)
		if err != nil {
			return err
		}
		doc := doctree.Load(src)
		if len(doc.Errors) > 0 {
			return fmt.Errorf("%s: %w", name, doc.Errors[0])
		}
		v := doc.Root.Lookup(path)
		if v == nil {
			return fmt.Errorf("%s: %s not found", name, path)
		}
		d, err := json.MarshalIndent(v.Any(), "", "  ")
		if err != nil {
			return err
		}
		if _, err := cc.Out.Write(append(d, '\n')); err != nil {
			return err
		}
	}
	return nil
}
