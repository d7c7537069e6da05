// Package fix builds and applies the suggested corrections attached
// to diagnostics.
package fix

import (
	"typhon/internal/diag"
	"typhon/internal/source"
)

// ReplaceText creates a fix that swaps the span for text.
func ReplaceText(title string, at source.Span, text string) diag.Fix {
	return diag.Fix{
		Title: title,
		Edits: []diag.FixEdit{{Span: at, NewText: text}},
	}
}

// InsertText creates a fix that inserts text at a point span
// (Span.Start == Span.End).
func InsertText(title string, at source.Span, text string) diag.Fix {
	at.End = at.Start
	return diag.Fix{
		Title: title,
		Edits: []diag.FixEdit{{Span: at, NewText: text}},
	}
}

// DeleteSpan creates a fix that removes the span.
func DeleteSpan(title string, at source.Span) diag.Fix {
	return diag.Fix{
		Title: title,
		Edits: []diag.FixEdit{{Span: at}},
	}
}

// Combine merges several single-edit fixes into one multi-edit fix.
func Combine(title string, fixes ...diag.Fix) diag.Fix {
	out := diag.Fix{Title: title}
	for _, f := range fixes {
		out.Edits = append(out.Edits, f.Edits...)
	}
	return out
}
