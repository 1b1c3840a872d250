package main

import (
	"context"

	"github.com/scott-cotton/cli"
	"github.com/signadot/tomlkit/config"
)

type MainConfig struct {
	Config  string `cli:"name=config desc='configuration file (default: tomlkit.toml found from the working directory)'"`
	Offline bool   `cli:"name=offline desc='use cached remote schemas only'"`
	NoColor bool   `cli:"name=no-color desc='disable colored output'"`
	Jobs    int    `cli:"name=j aliases=jobs desc='files processed concurrently'"`

	ctx  context.Context
	Main *cli.Command
}

// load returns the project configuration.
func (cfg *MainConfig) load() (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if cfg.Config != "" {
		c, err = config.Load(cfg.Config)
	} else {
		c, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}
	if cfg.Offline {
		c.Schema.Offline = true
	}
	return c, nil
}

func (cfg *MainConfig) jobs() int {
	if cfg.Jobs > 0 {
		return cfg.Jobs
	}
	return 8
}

type LintConfig struct {
	*MainConfig
	Lint *cli.Command
}

type FormatConfig struct {
	*MainConfig
	Diff  bool `cli:"name=diff desc='print the changes instead of writing them'"`
	Check bool `cli:"name=check desc='fail when a file is not formatted'"`

	Format *cli.Command
}

type GetConfig struct {
	*MainConfig
	Get *cli.Command
}

type SchemaConfig struct {
	*MainConfig
	Schema *cli.Command
}

type SchemaCheckConfig struct {
	*MainConfig
	Check *cli.Command
}

type SchemaFetchConfig struct {
	*MainConfig
	Fetch *cli.Command
}
