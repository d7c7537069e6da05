// Package ast defines the syntax tree consumed by the semantic analyzer.
//
// The tree is the input contract for an external parser: every node
// carries a source.Span, statements and expressions are separate
// interface families, and type annotations are ordinary expressions
// interpreted only during type checking. Traversal goes through Walk /
// Inspect so analysis passes never depend on parser internals.
package ast
