package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func MainCommand(ctx context.Context) *cli.Command {
	cfg := &MainConfig{ctx: ctx}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, "tomlkit").
		WithSynopsis("tomlkit [opts] command [opts]").
		WithDescription("tomlkit lints and formats TOML files against JSON schemas.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return tomlkitMain(cfg, cc, args)
		}).
		WithSubs(
			LintCommand(cfg),
			FormatCommand(cfg),
			GetCommand(cfg),
			SchemaCommand(cfg))
}

func LintCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &LintConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Lint, "lint").
		WithAliases("l").
		WithSynopsis("lint [files]").
		WithDescription("validate TOML files against their schemas").
		WithRun(func(cc *cli.Context, args []string) error {
			return lint(cfg, cc, args)
		})
}

func FormatCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &FormatConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Format, "format").
		WithAliases("f", "fmt").
		WithSynopsis("format [-diff] [-check] [files]").
		WithDescription(formatDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return format(cfg, cc, args)
		})
}

const formatDescription = `format sorts table keys and array values as schemas ask.

Schemas declare orders with x-tombi-table-keys-order and
x-tombi-array-values-order. A comment directive overrides the schema for one
table or array:

  [dependencies] # tomlkit: format.table-keys-order = "ascending"

and "# tomlkit: format.disabled = true" leaves a value as written.

Files are rewritten in place; with no files, standard input is formatted to
standard output.`

func GetCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GetConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Get, "get").
		WithAliases("g").
		WithSynopsis("get <path> [files]").
		WithDescription("print the value at a path such as tool.poetry.dependencies or bin[0].name as JSON").
		WithRun(func(cc *cli.Context, args []string) error {
			return get(cfg, cc, args)
		})
}

func SchemaCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SchemaConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Schema, "schema").
		WithSynopsis("schema <subcommand>").
		WithDescription("schema commands").
		WithSubs(
			SchemaCheckCommand(cfg.MainConfig),
			SchemaFetchCommand(cfg.MainConfig))
}

func SchemaCheckCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SchemaCheckConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Check, "check").
		WithSynopsis("check <schema-files-or-urls>").
		WithDescription("report invalid keywords and definitions no value can satisfy").
		WithRun(func(cc *cli.Context, args []string) error {
			return schemaCheck(cfg, cc, args)
		})
}

func SchemaFetchCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SchemaFetchConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Fetch, "fetch").
		WithSynopsis("fetch [urls]").
		WithDescription("fetch schemas into the cache, by default those configured").
		WithRun(func(cc *cli.Context, args []string) error {
			return schemaFetch(cfg, cc, args)
		})
}
