package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is how many unchanged lines are shown around a change.
const contextLines = 3

func printDiff(w io.Writer, name string, a, b []byte) error {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(string(a), string(b))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	bold := color.New(color.Bold)
	del, ins, hunk := color.New(color.FgRed), color.New(color.FgGreen), color.New(color.FgCyan)
	if _, err := bold.Fprintf(w, "--- %s\n+++ %s\n", name, name); err != nil {
		return err
	}
	for i, d := range diffs {
		ls := splitLines(d.Text)
		switch d.Type {
		case diffpatch.DiffDelete:
			for _, l := range ls {
				del.Fprintf(w, "-%s\n", l)
			}
		case diffpatch.DiffInsert:
			for _, l := range ls {
				ins.Fprintf(w, "+%s\n", l)
			}
		case diffpatch.DiffEqual:
			first, last := i == 0, i == len(diffs)-1
			if !first && !last && len(ls) <= 2*contextLines {
				printContext(w, ls)
				continue
			}
			if !first {
				printContext(w, ls[:min(contextLines, len(ls))])
			}
			if !last {
				if first || len(ls) > 2*contextLines {
					hunk.Fprintln(w, "@@")
				}
				printContext(w, ls[max(len(ls)-contextLines, 0):])
			}
		}
	}
	return nil
}

func printContext(w io.Writer, ls []string) {
	for _, l := range ls {
		fmt.Fprintf(w, " %s\n", l)
	}
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
