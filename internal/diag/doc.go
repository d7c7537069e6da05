// Package diag defines the diagnostic model shared by all analysis passes.
//
// Diagnostic is the central record: a Severity, a stable numeric Code, a
// human oriented Message, the Primary source.Span, plus optional Notes
// (secondary spans with context) and Fixes (structured text edits).
//
// Passes aggregate into a Bag, which supports sorting, deduplication and
// merging with a hard capacity. Rendering lives in internal/diagfmt.
//
// Keep the data model deterministic and side-effect free so diagnostics can
// be serialized for caching and compared in tests.
package diag
