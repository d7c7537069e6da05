package diag

import (
	"typhon/internal/source"
)

// Note is a secondary span with extra context ("first defined here").
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit is a single text replacement inside a file.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested automated correction.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is the central record produced by all analysis passes.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
