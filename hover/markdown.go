package hover

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/signadot/tomlkit/schema"
)

// Markdown renders c for an editor hover.
func (c *Content) Markdown() string {
	b := &strings.Builder{}
	if c.Title != "" {
		fmt.Fprintf(b, "#### %s\n\n", c.Title)
	}
	if c.Description != "" {
		fmt.Fprintf(b, "%s\n\n", c.Description)
	}
	b.WriteString("```toml\n")
	if len(c.Path) > 0 {
		fmt.Fprintf(b, "Keys: %s\n", c.Path.String())
	}
	fmt.Fprintf(b, "Value: %s\n```\n", c.ValueType)
	if c.Constraints != nil {
		b.WriteString("\n")
		c.Constraints.markdown(b, c.ValueType.Simplify().Type)
	}
	if c.SchemaURI != "" {
		fmt.Fprintf(b, "\nSchema: [%s](%s)\n", path.Base(c.SchemaURI), c.SchemaURI)
	}
	return b.String()
}

func (c *Constraints) markdown(b *strings.Builder, t schema.Type) {
	item := func(name, val string) {
		fmt.Fprintf(b, "- %s: %s\n", name, val)
	}
	literals := func(name string, vs []any) {
		if len(vs) == 0 {
			return
		}
		parts := make([]string, len(vs))
		for i, v := range vs {
			parts[i] = "`" + schema.FormatTyped(v, t) + "`"
		}
		item(name, strings.Join(parts, ", "))
	}
	number := func(name string, f *float64) {
		if f != nil {
			item(name, "`"+strconv.FormatFloat(*f, 'g', -1, 64)+"`")
		}
	}
	count := func(name string, n *int) {
		if n != nil {
			item(name, "`"+strconv.Itoa(*n)+"`")
		}
	}
	code := func(name, s string) {
		if s != "" {
			item(name, "`"+s+"`")
		}
	}
	if c.Const != nil {
		item("const", "`"+schema.FormatTyped(c.Const, t)+"`")
	}
	literals("enum", c.Enum)
	literals("default", c.Default)
	literals("examples", c.Examples)
	number("minimum", c.Minimum)
	number("maximum", c.Maximum)
	number("exclusive minimum", c.ExclusiveMinimum)
	number("exclusive maximum", c.ExclusiveMaximum)
	number("multiple of", c.MultipleOf)
	count("min length", c.MinLength)
	count("max length", c.MaxLength)
	code("pattern", c.Pattern)
	code("format", c.Format)
	count("min values", c.MinItems)
	count("max values", c.MaxItems)
	if c.UniqueItems {
		item("unique values", "`true`")
	}
	code("values order", c.ValuesOrder)
	count("min keys", c.MinKeys)
	count("max keys", c.MaxKeys)
	code("keys order", c.KeysOrder)
	for _, p := range c.PatternKeys {
		code("key pattern", p)
	}
	if c.AdditionalKeys {
		item("additional keys", "`true`")
	}
}
