package sema

import (
	"fmt"

	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/source"
	"typhon/internal/symbols"
	"typhon/internal/types"
)

// Options tune one analysis run.
type Options struct {
	// MaxDiagnostics caps the bag; 0 means the default.
	MaxDiagnostics int
}

const defaultMaxDiagnostics = 256

// Context is the result of analyzing one compilation unit: the scope
// tree, the type interner, every resolved binding and inferred
// expression type, closure sets and the collected diagnostics.
// After Analyze returns the context is read-only.
type Context struct {
	Module *ast.Module
	File   source.FileID

	Table *symbols.Table
	Types *types.Interner

	// Bindings maps identifier references and declaration nodes to
	// their symbol. Unresolved references bind to Table.ErrSym.
	Bindings map[ast.Node]symbols.SymbolID
	// ScopeOf maps scope-owning nodes (functions, classes, lambdas,
	// comprehensions, with/except blocks, match cases) to their scope.
	ScopeOf map[ast.Node]symbols.ScopeID
	// ExprTypes records the inferred type of every expression.
	ExprTypes map[ast.Node]types.TypeID
	// Closures lists, per function-like scope, the enclosing-function
	// symbols it captures, in first-capture order.
	Closures map[symbols.ScopeID][]symbols.SymbolID

	Bag *diag.Bag

	aborted bool
}

// Analyze runs the four passes over module in order: symbol
// collection, name resolution, type checking, and control-flow
// validation. Passes are strictly sequential; a scope-tree invariant
// violation aborts the remaining passes for this unit only.
func Analyze(module *ast.Module, file source.FileID, opts Options) *Context {
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = defaultMaxDiagnostics
	}
	in := types.NewInterner()
	ctx := &Context{
		Module:    module,
		File:      file,
		Table:     symbols.NewTable(symbols.Hints{}, in, module.Span()),
		Types:     in,
		Bindings:  make(map[ast.Node]symbols.SymbolID),
		ScopeOf:   make(map[ast.Node]symbols.ScopeID),
		ExprTypes: make(map[ast.Node]types.TypeID),
		Closures:  make(map[symbols.ScopeID][]symbols.SymbolID),
		Bag:       diag.NewBag(maxDiags),
	}

	collect(ctx)
	if err := ctx.Table.Validate(); err != nil {
		ctx.internalError(module.Span(), err)
		ctx.Bag.Sort()
		return ctx
	}
	resolve(ctx)
	typecheck(ctx)
	validateFlow(ctx)

	ctx.Bag.Dedup()
	ctx.Bag.Sort()
	return ctx
}

// Aborted reports whether analysis stopped before completing all
// passes.
func (c *Context) Aborted() bool { return c.aborted }

// SymbolAt returns the symbol a reference or declaration node binds to.
func (c *Context) SymbolAt(n ast.Node) (*symbols.Symbol, bool) {
	id, ok := c.Bindings[n]
	if !ok {
		return nil, false
	}
	return c.Table.Symbols.Get(id), true
}

// TypeAt returns the inferred type of an expression node.
func (c *Context) TypeAt(n ast.Node) (types.TypeID, bool) {
	id, ok := c.ExprTypes[n]
	return id, ok
}

func (c *Context) internalError(span source.Span, err error) {
	c.aborted = true
	c.Bag.Add(diag.NewError(diag.SemaInternalAnalysis, span,
		fmt.Sprintf("analysis aborted: %v", err)))
}

func (c *Context) report(code diag.Code, sev diag.Severity, span source.Span, msg string) {
	c.Bag.Add(diag.New(sev, code, span, msg))
}

func (c *Context) errorf(code diag.Code, span source.Span, format string, args ...any) {
	c.report(code, diag.SevError, span, fmt.Sprintf(format, args...))
}

func (c *Context) warnf(code diag.Code, span source.Span, format string, args ...any) {
	c.report(code, diag.SevWarning, span, fmt.Sprintf(format, args...))
}

func (c *Context) infof(code diag.Code, span source.Span, format string, args ...any) {
	c.report(code, diag.SevInfo, span, fmt.Sprintf(format, args...))
}

func (c *Context) errorWithNote(code diag.Code, span source.Span, msg string, noteSpan source.Span, note string) {
	c.Bag.Add(diag.NewError(code, span, msg).WithNote(noteSpan, note))
}
