package sema

import (
	"testing"

	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/symbols"
)

func TestUndefinedName(t *testing.T) {
	b := &tb{}
	ref := b.name("mystery")
	ctx := Analyze(b.module(b.exprStmt(ref)), 1, Options{})
	wantCode(t, ctx, diag.SemaUndefinedName)

	// The reference still binds, to the error sentinel.
	id, ok := ctx.Bindings[ref]
	if !ok || id != ctx.Table.ErrSym {
		t.Fatalf("unresolved reference bound to %d, want error sentinel", id)
	}
}

func TestHoistedForwardReference(t *testing.T) {
	b := &tb{}
	caller := b.fn("caller", nil, nil,
		b.ret(b.call(b.name("callee"))),
	)
	callee := b.fn("callee", nil, b.name("int"),
		b.ret(b.intLit("1")),
	)
	ctx := analyzeModule(t, b.module(caller, callee, b.exprStmt(b.call(b.name("caller")))))
	if hasCode(ctx, diag.SemaUndefinedName) {
		t.Fatalf("forward reference to a hoisted function did not resolve: %v", ctx.Bag.Items())
	}
}

func TestBuiltinResolution(t *testing.T) {
	b := &tb{}
	ctx := analyzeModule(t, b.module(
		b.assign("n", b.call(b.name("len"), b.strLit("abc"))),
		b.exprStmt(b.call(b.name("print"), b.name("n"))),
	))
	wantClean(t, ctx)

	id, _ := ctx.Table.Lookup(ctx.Table.Module, "n")
	if sym := ctx.Table.Symbols.Get(id); sym.Type != ctx.Types.Builtins.Int {
		t.Fatalf("len result inferred as %s, want int", ctx.Types.String(sym.Type))
	}
}

func TestClosureCapture(t *testing.T) {
	b := &tb{}
	inner := b.fn("inner", nil, nil,
		b.ret(b.name("cell")),
	)
	outer := b.fn("outer", nil, nil,
		b.assign("cell", b.intLit("1")),
		inner,
		b.ret(b.name("inner")),
	)
	ctx := analyzeModule(t, b.module(outer))

	innerScope := ctx.ScopeOf[inner]
	outerScope := ctx.ScopeOf[outer]
	cellID, ok := ctx.Table.Lookup(outerScope, "cell")
	if !ok {
		t.Fatal("cell not declared in outer")
	}

	captured := ctx.Closures[innerScope]
	if len(captured) != 1 || captured[0] != cellID {
		t.Fatalf("inner closure set = %v, want [%d]", captured, cellID)
	}
	sym := ctx.Table.Symbols.Get(cellID)
	if sym.Flags&symbols.SymbolFlagCaptured == 0 {
		t.Fatal("cell not flagged captured")
	}
	if len(sym.CapturedBy) != 1 || sym.CapturedBy[0] != innerScope {
		t.Fatalf("cell CapturedBy = %v, want [%d]", sym.CapturedBy, innerScope)
	}
}

func TestModuleSymbolsNotCaptured(t *testing.T) {
	b := &tb{}
	user := b.fn("user", nil, nil,
		b.ret(b.name("shared")),
	)
	ctx := analyzeModule(t, b.module(
		b.assign("shared", b.intLit("7")),
		user,
	))
	if captured := ctx.Closures[ctx.ScopeOf[user]]; len(captured) != 0 {
		t.Fatalf("module symbol captured: %v", captured)
	}
}

func TestLambdaCapturesEnclosingLocal(t *testing.T) {
	b := &tb{}
	lam := &ast.Lambda{Body: b.name("seed"), Loc: b.span()}
	outer := b.fn("outer", nil, nil,
		b.assign("seed", b.intLit("3")),
		b.ret(lam),
	)
	ctx := analyzeModule(t, b.module(outer))

	lambdaScope := ctx.ScopeOf[lam]
	seedID, _ := ctx.Table.Lookup(ctx.ScopeOf[outer], "seed")
	captured := ctx.Closures[lambdaScope]
	if len(captured) != 1 || captured[0] != seedID {
		t.Fatalf("lambda closure set = %v, want [%d]", captured, seedID)
	}
}
