package doctree

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/signadot/tomlkit/text"
)

const (
	// DirectivePrefix starts a value comment directive, as in
	//   key = 1 # tomlkit: lint.rules.integer-maximum = "off"
	DirectivePrefix = "tomlkit:"
	// SchemaDirective selects the document schema on a leading comment line.
	SchemaDirective = ":schema"
)

// Directive is a structured comment attached to a value. Its body is TOML.
type Directive struct {
	Range   text.Range
	Content string
	Lint    LintDirective
	Format  FormatDirective
	Err     error
}

type LintDirective struct {
	Rules map[string]string `toml:"rules"`
}

type FormatDirective struct {
	Disabled         bool   `toml:"disabled"`
	TableKeysOrder   string `toml:"table-keys-order"`
	ArrayValuesOrder string `toml:"array-values-order"`
}

type directiveBody struct {
	Lint   LintDirective   `toml:"lint"`
	Format FormatDirective `toml:"format"`
}

// ParseDirective parses the text of a comment. It returns nil when the
// comment is not a directive.
func ParseDirective(comment string, r text.Range) *Directive {
	body := strings.TrimSpace(strings.TrimPrefix(comment, "#"))
	if !strings.HasPrefix(body, DirectivePrefix) {
		return nil
	}
	content := strings.TrimSpace(strings.TrimPrefix(body, DirectivePrefix))
	d := &Directive{Range: r, Content: content}
	b := directiveBody{}
	if err := toml.Unmarshal([]byte(content), &b); err != nil {
		d.Err = fmt.Errorf("%w: bad comment directive: %w", ErrParse, err)
		return d
	}
	d.Lint = b.Lint
	d.Format = b.Format
	return d
}

// RuleLevel returns the level a directive assigns to a lint rule code.
func RuleLevel(ds []*Directive, code string) (string, bool) {
	for i := len(ds) - 1; i >= 0; i-- {
		if lvl, ok := ds[i].Lint.Rules[code]; ok {
			return lvl, true
		}
	}
	return "", false
}

func trailingComment(src []byte, end int) (string, text.Range, bool) {
	i := skipSpace(src, end)
	if i >= len(src) || src[i] != '#' {
		return "", text.Range{}, false
	}
	j := bytes.IndexByte(src[i:], '\n')
	if j < 0 {
		j = len(src) - i
	}
	c := strings.TrimRight(string(src[i:i+j]), "\r")
	return c, text.Range{Start: i, End: i + len(c)}, true
}

// leadingComments returns the comment lines directly above the line
// containing off, nearest last.
func leadingComments(src []byte, lines *text.LineIndex, off int) ([]string, []text.Range) {
	line, _ := lines.LineCol(off)
	var cs []string
	var rs []text.Range
	for l := line - 1; l >= 0; l-- {
		s, e := lines.LineStart(l), lines.LineEnd(l)
		raw := string(src[s:e])
		t := strings.TrimSpace(raw)
		if !strings.HasPrefix(t, "#") {
			break
		}
		start := s + strings.Index(raw, "#")
		cs = append([]string{t}, cs...)
		rs = append([]text.Range{{Start: start, End: start + len(t)}}, rs...)
	}
	return cs, rs
}

// schemaDirective finds #:schema in the leading comment block of a file.
func schemaDirective(src []byte, lines *text.LineIndex) (string, text.Range) {
	for l := 0; l < lines.Lines(); l++ {
		s, e := lines.LineStart(l), lines.LineEnd(l)
		raw := string(src[s:e])
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") {
			break
		}
		body := strings.TrimPrefix(t, "#")
		if strings.HasPrefix(body, SchemaDirective) {
			uri := strings.TrimSpace(strings.TrimPrefix(body, SchemaDirective))
			start := s + strings.Index(raw, "#")
			return uri, text.Range{Start: start, End: start + len(t)}
		}
	}
	return "", text.Range{}
}
