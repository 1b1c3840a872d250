// Package config reads project configuration from tomlkit.toml.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/signadot/tomlkit/accessor"
	"github.com/signadot/tomlkit/diagnostic"
	"github.com/signadot/tomlkit/schemastore"
	"github.com/signadot/tomlkit/validate"
)

const (
	FileName       = "tomlkit.toml"
	DefaultCatalog = "https://www.schemastore.org/api/json/catalog.json"
)

var tomlVersions = []string{"v1.0.0", "v1.1.0-preview"}

type Config struct {
	TOMLVersion string    `toml:"toml-version"`
	Lint        Lint      `toml:"lint"`
	Schema      Schema    `toml:"schema"`
	Schemas     []Item    `toml:"schemas"`
	Overlays    []Overlay `toml:"overlays"`

	// Dir is the directory relative paths are resolved against, the
	// directory of the file the configuration was loaded from.
	Dir string `toml:"-"`
}

type Lint struct {
	// Strict forbids undeclared keys where a schema leaves additional
	// properties unspecified.
	Strict bool              `toml:"strict"`
	Rules  map[string]string `toml:"rules"`
}

type Schema struct {
	Enabled *bool `toml:"enabled"`
	// Catalog lists catalog URLs, nil for the default catalog.
	Catalog      []string `toml:"catalog"`
	CacheDir     string   `toml:"cache-dir"`
	CacheTTL     Duration `toml:"cache-ttl"`
	Offline      bool     `toml:"offline"`
	FetchRate    float64  `toml:"fetch-rate"`
	FetchTimeout Duration `toml:"fetch-timeout"`
}

// Item associates a schema with files.
type Item struct {
	Path    string   `toml:"path"`
	Include []string `toml:"include"`
	// Root is an accessor path; the schema then applies to that subtree.
	Root string `toml:"root"`
}

type Overlay struct {
	Schema string `toml:"schema"`
	Patch  string `toml:"patch"`
}

// Duration is a time.Duration written as a string, such as "10s".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	x, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(x)
	return nil
}

func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.TOMLVersion == "" {
		c.TOMLVersion = schemastore.DefaultTOMLVersion
	}
	if c.Schema.Enabled == nil {
		t := true
		c.Schema.Enabled = &t
	}
	if c.Schema.Catalog == nil {
		c.Schema.Catalog = []string{DefaultCatalog}
	}
	if c.Schema.CacheDir == "" {
		if d, err := os.UserCacheDir(); err == nil {
			c.Schema.CacheDir = filepath.Join(d, "tomlkit", "schemas")
		}
	}
	if c.Dir == "" {
		c.Dir, _ = os.Getwd()
	}
}

// Parse decodes a configuration. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	c := &Config{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return nil, fmt.Errorf("%w: %s", ErrBadConfig, sme.String())
		}
		return nil, fmt.Errorf("%w: %w", ErrBadConfig, err)
	}
	c.setDefaults()
	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) check() error {
	if !slices.Contains(tomlVersions, c.TOMLVersion) {
		return fmt.Errorf("%w: toml-version %q is not one of %v", ErrBadConfig, c.TOMLVersion, tomlVersions)
	}
	if _, err := diagnostic.ParseRules(c.Lint.Rules); err != nil {
		return fmt.Errorf("%w: lint.rules: %w", ErrBadConfig, err)
	}
	for i, it := range c.Schemas {
		if it.Path == "" {
			return fmt.Errorf("%w: schemas[%d] has no path", ErrBadConfig, i)
		}
		if _, err := accessor.Parse(it.Root); it.Root != "" && err != nil {
			return fmt.Errorf("%w: schemas[%d].root: %w", ErrBadConfig, i, err)
		}
	}
	for i, o := range c.Overlays {
		if o.Schema == "" || o.Patch == "" {
			return fmt.Errorf("%w: overlays[%d] needs schema and patch", ErrBadConfig, i)
		}
	}
	return nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	c.Dir = filepath.Dir(abs)
	return c, nil
}

// Find looks for tomlkit.toml in dir and its parents.
func Find(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		p := filepath.Join(dir, FileName)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Discover loads the configuration found from dir, or the defaults when
// there is none.
func Discover(dir string) (*Config, error) {
	p, ok := Find(dir)
	if !ok {
		c := Default()
		if abs, err := filepath.Abs(dir); err == nil {
			c.Dir = abs
		}
		return c, nil
	}
	return Load(p)
}

// ValidateOptions returns the lint settings as validation options.
func (c *Config) ValidateOptions() (validate.Options, error) {
	rules, err := diagnostic.ParseRules(c.Lint.Rules)
	if err != nil {
		return validate.Options{}, fmt.Errorf("%w: lint.rules: %w", ErrBadConfig, err)
	}
	return validate.Options{Rules: rules, Strict: c.Lint.Strict}, nil
}

// SchemaEnabled reports whether documents are matched against schemas.
func (c *Config) SchemaEnabled() bool {
	return c.Schema.Enabled == nil || *c.Schema.Enabled
}

// resolve makes a path relative to the configuration directory absolute.
// URLs are returned unchanged.
func (c *Config) resolve(p string) string {
	return schemastore.DirectiveURI(filepath.Join(c.Dir, FileName), p)
}

// SchemaURIs returns the URIs of the configured schemas.
func (c *Config) SchemaURIs() []string {
	res := make([]string, 0, len(c.Schemas))
	for _, it := range c.Schemas {
		res = append(res, c.resolve(it.Path))
	}
	return res
}
