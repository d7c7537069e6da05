package sema

import (
	"fmt"

	"typhon/internal/diag"
	"typhon/internal/fix"
	"typhon/internal/symbols"
)

// reportUnreachable warns once per dead region: an unreachable block
// with no predecessors starts one (statements after return, raise,
// break, continue, or after an infinite loop without break).
func reportUnreachable(ctx *Context, g *flowGraph, reach []bool) {
	preds := make([]int, len(g.blocks))
	for _, blk := range g.blocks {
		for _, s := range blk.succs {
			preds[s]++
		}
	}
	for i, blk := range g.blocks {
		if reach[i] || preds[i] > 0 || blk.first.Empty() {
			continue
		}
		ctx.warnf(diag.SemaUnreachableCode, blk.first, "unreachable code")
	}
}

// reportUnused flags function locals that are never read. Names with a
// leading underscore opt out, as do parameters, globals and nonlocals.
func reportUnused(ctx *Context) {
	t := ctx.Table
	for i := 1; i <= t.Scopes.Len(); i++ {
		scope := symbols.ScopeID(i)
		sc := t.Scopes.Get(scope)
		if sc == nil || !inFunction(t, scope) {
			continue
		}
		for _, id := range sc.Order {
			sym := t.Symbols.Get(id)
			if sym == nil || sym.Kind != symbols.SymbolVariable {
				continue
			}
			if sym.Flags&(symbols.SymbolFlagUsed|symbols.SymbolFlagGlobal|symbols.SymbolFlagNonlocal) != 0 {
				continue
			}
			if sym.Flags&symbols.SymbolFlagPrivate != 0 {
				continue
			}
			d := diag.New(diag.SevInfo, diag.SemaUnusedVariable, sym.Span,
				fmt.Sprintf("%q is declared but never used", sym.Name))
			d.Fixes = append(d.Fixes, fix.InsertText(
				fmt.Sprintf("rename to %q", "_"+sym.Name), sym.Span, "_"))
			ctx.Bag.Add(d)
		}
	}
}

// inFunction reports whether a scope sits inside a function body.
func inFunction(t *symbols.Table, scope symbols.ScopeID) bool {
	for scope.IsValid() {
		sc := t.Scopes.Get(scope)
		if sc == nil {
			return false
		}
		if sc.Kind.IsFunctionLike() {
			return true
		}
		scope = sc.Parent
	}
	return false
}
