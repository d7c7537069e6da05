package diagfmt

import (
	"encoding/json"
	"io"

	"typhon/internal/diag"
	"typhon/internal/source"
)

type jsonPosition struct {
	Path   string `json:"path"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

type jsonNote struct {
	Position jsonPosition `json:"position"`
	Message  string       `json:"message"`
}

type jsonEdit struct {
	Position jsonPosition `json:"position"`
	NewText  string       `json:"new_text"`
}

type jsonFix struct {
	Title string     `json:"title"`
	Edits []jsonEdit `json:"edits"`
}

type jsonDiagnostic struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Position jsonPosition `json:"position"`
	Notes    []jsonNote   `json:"notes,omitempty"`
	Fixes    []jsonFix    `json:"fixes,omitempty"`
}

type jsonReport struct {
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
	Truncated   bool             `json:"truncated,omitempty"`
}

// JSON writes the whole bag as one report object.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	report := jsonReport{Diagnostics: []jsonDiagnostic{}}
	for i, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			report.Errors++
		case diag.SevWarning:
			report.Warnings++
		}
		if opts.Max > 0 && i >= opts.Max {
			report.Truncated = true
			continue
		}
		report.Diagnostics = append(report.Diagnostics, renderJSON(&d, fs, opts))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func renderJSON(d *diag.Diagnostic, fs *source.FileSet, opts JSONOpts) jsonDiagnostic {
	out := jsonDiagnostic{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Message:  d.Message,
		Position: jsonPos(fs, d.Primary, opts),
	}
	if opts.IncludeNotes {
		for _, n := range d.Notes {
			out.Notes = append(out.Notes, jsonNote{
				Position: jsonPos(fs, n.Span, opts),
				Message:  n.Msg,
			})
		}
	}
	if opts.IncludeFixes {
		for _, f := range d.Fixes {
			jf := jsonFix{Title: f.Title}
			for _, e := range f.Edits {
				jf.Edits = append(jf.Edits, jsonEdit{
					Position: jsonPos(fs, e.Span, opts),
					NewText:  e.NewText,
				})
			}
			out.Fixes = append(out.Fixes, jf)
		}
	}
	return out
}

func jsonPos(fs *source.FileSet, span source.Span, opts JSONOpts) jsonPosition {
	pos := jsonPosition{Line: 1, Column: 1}
	if fs == nil {
		return pos
	}
	f := fs.Get(span.File)
	if f == nil {
		return pos
	}
	start, _ := fs.Resolve(span)
	pos.Path = f.FormatPath(opts.PathMode.String(), opts.BaseDir)
	pos.Line = start.Line
	pos.Column = start.Col
	return pos
}
