package diag

import (
	"fmt"
	"sort"
	"strings"

	"typhon/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatShortDiagnostics renders diagnostics into a stable
// one-line-per-entry representation used by tests and CLI short output.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		rendered = append(rendered, renderShort(d.Severity, d.Code, d.Primary, d.Message, fs))
		if includeNotes {
			for _, n := range d.Notes {
				rendered = append(rendered, renderShort(SevInfo, d.Code, n.Span, "note: "+n.Msg, fs))
			}
		}
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var sb strings.Builder
	for _, r := range rendered {
		fmt.Fprintf(&sb, "%s %s %s:%d:%d %s\n", r.Severity, r.Code, r.Path, r.Line, r.Column, r.Message)
	}
	return sb.String()
}

func renderShort(sev Severity, code Code, sp source.Span, msg string, fs *source.FileSet) shortDiagnostic {
	path := "<unknown>"
	line, col := uint32(1), uint32(1)
	if f := fs.Get(sp.File); f != nil {
		path = f.FormatPath("basename", "")
		start, _ := fs.Resolve(sp)
		line, col = start.Line, start.Col
	}
	return shortDiagnostic{
		Severity: sev.String(),
		Code:     code.ID(),
		Path:     path,
		Line:     line,
		Column:   col,
		Message:  msg,
	}
}
