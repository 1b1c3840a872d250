package diagnostic

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/signadot/tomlkit/text"
)

// Printer writes diagnostics for people, with the offending source line
// underlined.
type Printer struct {
	W     io.Writer
	Color bool

	errc, warnc, pathc, linec *color.Color
}

// NewPrinter returns a printer writing to w, colored when w is a terminal.
func NewPrinter(w io.Writer) *Printer {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd())
	}
	return NewPrinterColor(w, useColor)
}

func NewPrinterColor(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		W:     w,
		Color: useColor,
		errc:  color.New(color.FgRed, color.Bold),
		warnc: color.New(color.FgYellow, color.Bold),
		pathc: color.New(color.FgCyan),
		linec: color.RGB(96, 96, 96),
	}
	if !useColor {
		for _, c := range []*color.Color{p.errc, p.warnc, p.pathc, p.linec} {
			c.DisableColor()
		}
	} else {
		for _, c := range []*color.Color{p.errc, p.warnc, p.pathc, p.linec} {
			c.EnableColor()
		}
	}
	return p
}

// Print writes ds for the document at path with source src.
func (p *Printer) Print(path string, src []byte, ds []Diagnostic) error {
	lines := text.NewLineIndex(src)
	for _, d := range ds {
		if d.Level == LevelOff {
			continue
		}
		c := p.errc
		if d.Level == LevelWarn {
			c = p.warnc
		}
		pos := lines.Position(d.Range.Start)
		_, err := fmt.Fprintf(p.W, "%s: %s\n  %s %s\n",
			c.Sprintf("%s[%s]", d.Level, d.Kind),
			d.Message,
			p.linec.Sprint("-->"),
			p.pathc.Sprintf("%s:%d:%d", path, pos.Line+1, pos.Column+1))
		if err != nil {
			return err
		}
		if err := p.snippet(lines, src, d, c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) snippet(lines *text.LineIndex, src []byte, d Diagnostic, c *color.Color) error {
	line, col := lines.LineCol(d.Range.Start)
	s, e := lines.LineStart(line), lines.LineEnd(line)
	if s > len(src) || e > len(src) || s > e {
		return nil
	}
	srcLine := strings.TrimRight(string(src[s:e]), "\r")
	n := min(d.Range.End, e) - d.Range.Start
	if n < 1 {
		n = 1
	}
	num := fmt.Sprintf("%d", line+1)
	pad := strings.Repeat(" ", len(num))
	_, err := fmt.Fprintf(p.W, "%s %s\n%s %s %s\n%s %s %s%s\n",
		pad, p.linec.Sprint("|"),
		p.linec.Sprint(num), p.linec.Sprint("|"), srcLine,
		pad, p.linec.Sprint("|"), strings.Repeat(" ", col), c.Sprint(strings.Repeat("^", n)))
	return err
}

// Summary writes a one line count of errors and warnings.
func (p *Printer) Summary(files int, ds []Diagnostic) error {
	var errs, warns int
	for _, d := range ds {
		switch d.Level {
		case LevelError:
			errs++
		case LevelWarn:
			warns++
		}
	}
	_, err := fmt.Fprintf(p.W, "%d file(s) checked: %s, %s\n", files,
		p.errc.Sprintf("%d error(s)", errs), p.warnc.Sprintf("%d warning(s)", warns))
	return err
}
