package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"typhon/internal/diag"
	"typhon/internal/source"
)

// Pretty renders diagnostics one after another. Each entry prints
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	    <source line>
//	    ^~~~~
//
// followed by notes and fix titles when enabled. The bag is expected
// to be sorted.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for i := range bag.Items() {
		d := &bag.Items()[i]
		printDiagnostic(w, d, fs, opts)
	}
}

func printDiagnostic(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	head := fmt.Sprintf("%s %s", d.Severity.String(), d.Code.ID())
	if opts.Color {
		head = severityColor(d.Severity).Sprint(head)
	}
	fmt.Fprintf(w, "%s: %s: %s\n", position(fs, d.Primary, opts.PathMode, opts.BaseDir), head, d.Message)
	printSourceLine(w, fs, d.Primary, opts)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  note: %s: %s\n", position(fs, n.Span, opts.PathMode, opts.BaseDir), n.Msg)
			printSourceLine(w, fs, n.Span, opts)
		}
	}
	if opts.ShowFixes {
		for _, f := range d.Fixes {
			fmt.Fprintf(w, "  fix: %s\n", f.Title)
			for _, e := range f.Edits {
				if pv, err := buildFixEditPreview(fs, e); err == nil {
					for _, line := range pv.before {
						fmt.Fprintf(w, "    - %s\n", line)
					}
					for _, line := range pv.after {
						fmt.Fprintf(w, "    + %s\n", line)
					}
				}
			}
		}
	}
}

// printSourceLine shows the first line of the span with a caret
// underline. Display width is measured with runewidth so wide glyphs
// before the span do not skew the carets.
func printSourceLine(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts) {
	if fs == nil || span.Empty() {
		return
	}
	f := fs.Get(span.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(span)
	line := f.Line(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "    %s\n", line)

	prefix := safeSlice(line, int(start.Col)-1)
	pad := runewidth.StringWidth(prefix)

	underLen := 1
	if end.Line == start.Line && end.Col > start.Col {
		seg := safeSegment(line, int(start.Col)-1, int(end.Col)-1)
		if width := runewidth.StringWidth(seg); width > 0 {
			underLen = width
		}
	}
	underline := "^" + strings.Repeat("~", underLen-1)
	if opts.Color {
		underline = color.New(color.FgHiGreen).Sprint(underline)
	}
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", pad), underline)
}

func position(fs *source.FileSet, span source.Span, mode PathMode, baseDir string) string {
	if fs == nil {
		return span.String()
	}
	f := fs.Get(span.File)
	if f == nil {
		return span.String()
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(mode.String(), baseDir), start.Line, start.Col)
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow)
	}
	return color.New(color.FgCyan)
}

func safeSlice(s string, end int) string {
	if end < 0 {
		return ""
	}
	if end > len(s) {
		end = len(s)
	}
	return s[:end]
}

func safeSegment(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}
