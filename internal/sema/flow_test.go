package sema

import (
	"strings"
	"testing"

	"typhon/internal/ast"
	"typhon/internal/diag"
)

func TestUseBeforeAssignmentDefinite(t *testing.T) {
	b := &tb{}
	fn := b.fn("f", nil, b.name("int"),
		b.ret(b.name("total")),
	)
	ctx := Analyze(b.module(fn), 1, Options{})
	// `total` is a local of f because something must declare it for the
	// resolver to bind it; an undeclared name is SemaUndefinedName instead.
	wantCode(t, ctx, diag.SemaUndefinedName)
}

func TestUseBeforeAssignmentMaybe(t *testing.T) {
	b := &tb{}
	fn := b.fn("f", []*ast.Param{b.param("flag", b.name("bool"))}, b.name("int"),
		&ast.If{
			Cond: b.name("flag"),
			Then: []ast.Stmt{b.assign("total", b.intLit("1"))},
			Loc:  b.span(),
		},
		b.ret(b.name("total")),
	)
	ctx := Analyze(b.module(fn), 1, Options{})
	wantCode(t, ctx, diag.SemaUseBeforeAssignment)

	d := findCode(ctx, diag.SemaUseBeforeAssignment)
	if !strings.Contains(d.Message, "may be used") {
		t.Fatalf("one-armed if should report the maybe form, got %q", d.Message)
	}
}

func TestUseAfterBothBranchesAssign(t *testing.T) {
	b := &tb{}
	fn := b.fn("f", []*ast.Param{b.param("flag", b.name("bool"))}, b.name("int"),
		&ast.If{
			Cond: b.name("flag"),
			Then: []ast.Stmt{b.assign("total", b.intLit("1"))},
			Else: []ast.Stmt{b.assign("total", b.intLit("2"))},
			Loc:  b.span(),
		},
		b.ret(b.name("total")),
	)
	ctx := analyzeModule(t, b.module(fn))
	wantClean(t, ctx)
}

func TestForTargetMaybeUnassigned(t *testing.T) {
	b := &tb{}
	loop := &ast.For{
		Target: b.name("item"),
		Iter:   &ast.ListLit{Elems: []ast.Expr{b.intLit("1")}, Loc: b.span()},
		Body:   []ast.Stmt{&ast.Pass{Loc: b.span()}},
		Loc:    b.span(),
	}
	fn := b.fn("f", nil, b.name("int"),
		loop,
		b.ret(b.name("item")),
	)
	ctx := Analyze(b.module(fn), 1, Options{})
	// A zero-trip loop never binds the target.
	wantCode(t, ctx, diag.SemaUseBeforeAssignment)
}

func TestTryHandlerSeesNoBodyAssigns(t *testing.T) {
	b := &tb{}
	try := &ast.Try{
		Body: []ast.Stmt{b.assign("v", b.intLit("1"))},
		Handlers: []*ast.ExceptClause{{
			Type: b.name("ValueError"),
			Body: []ast.Stmt{b.exprStmt(b.call(b.name("print"), b.name("v")))},
			Loc:  b.span(),
		}},
		Loc: b.span(),
	}
	fn := b.fn("f", nil, nil, try)
	ctx := Analyze(b.module(fn), 1, Options{})
	// The body may fail before the assignment, so the handler cannot
	// rely on it.
	wantCode(t, ctx, diag.SemaUseBeforeAssignment)
}

func TestUnreachableAfterReturn(t *testing.T) {
	b := &tb{}
	fn := b.fn("f", nil, b.name("int"),
		b.ret(b.intLit("1")),
		b.exprStmt(b.call(b.name("print"), b.strLit("never"))),
	)
	ctx := Analyze(b.module(fn), 1, Options{})
	wantCode(t, ctx, diag.SemaUnreachableCode)

	d := findCode(ctx, diag.SemaUnreachableCode)
	if d.Severity != diag.SevWarning {
		t.Fatalf("unreachable code is a warning, got %v", d.Severity)
	}
}

func TestUnreachableReportedOncePerRegion(t *testing.T) {
	b := &tb{}
	fn := b.fn("f", nil, nil,
		b.ret(nil),
		b.exprStmt(b.call(b.name("print"), b.strLit("a"))),
		b.exprStmt(b.call(b.name("print"), b.strLit("b"))),
		b.exprStmt(b.call(b.name("print"), b.strLit("c"))),
	)
	ctx := Analyze(b.module(fn), 1, Options{})
	count := 0
	for _, d := range ctx.Bag.Items() {
		if d.Code == diag.SemaUnreachableCode {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("straight-line dead tail reported %d times, want 1", count)
	}
}

func TestMissingReturn(t *testing.T) {
	b := &tb{}
	fn := b.fn("f", []*ast.Param{b.param("flag", b.name("bool"))}, b.name("int"),
		&ast.If{
			Cond: b.name("flag"),
			Then: []ast.Stmt{b.ret(b.intLit("1"))},
			Loc:  b.span(),
		},
	)
	ctx := Analyze(b.module(fn), 1, Options{})
	wantCode(t, ctx, diag.SemaMissingReturn)
}

func TestNoMissingReturnForNoneResult(t *testing.T) {
	b := &tb{}
	fn := b.fn("f", nil, b.noneLit(),
		b.exprStmt(b.call(b.name("print"), b.strLit("hi"))),
	)
	ctx := analyzeModule(t, b.module(fn))
	wantClean(t, ctx)
}

func TestWhileTrueReturnIsComplete(t *testing.T) {
	b := &tb{}
	loop := &ast.While{
		Cond: &ast.Literal{Kind: ast.LitBool, Value: "True", Loc: b.span()},
		Body: []ast.Stmt{b.ret(b.intLit("1"))},
		Loc:  b.span(),
	}
	fn := b.fn("f", nil, b.name("int"), loop)
	ctx := analyzeModule(t, b.module(fn))
	if hasCode(ctx, diag.SemaMissingReturn) {
		t.Fatalf("while True with return flagged as missing return: %v", ctx.Bag.Items())
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	b := &tb{}
	ctx := Analyze(b.module(&ast.Break{Loc: b.span()}), 1, Options{})
	wantCode(t, ctx, diag.SemaInvalidContext)
}

func TestContinueInsideLoopIsFine(t *testing.T) {
	b := &tb{}
	loop := &ast.While{
		Cond: &ast.Literal{Kind: ast.LitBool, Value: "True", Loc: b.span()},
		Body: []ast.Stmt{
			&ast.If{
				Cond: &ast.Literal{Kind: ast.LitBool, Value: "False", Loc: b.span()},
				Then: []ast.Stmt{&ast.Break{Loc: b.span()}},
				Loc:  b.span(),
			},
			&ast.Continue{Loc: b.span()},
		},
		Loc: b.span(),
	}
	ctx := Analyze(b.module(loop), 1, Options{})
	if hasCode(ctx, diag.SemaInvalidContext) {
		t.Fatalf("loop-nested break/continue flagged: %v", ctx.Bag.Items())
	}
}

func TestReturnOutsideFunction(t *testing.T) {
	b := &tb{}
	ctx := Analyze(b.module(b.ret(b.intLit("1"))), 1, Options{})
	wantCode(t, ctx, diag.SemaInvalidContext)
}

func TestYieldOutsideFunction(t *testing.T) {
	b := &tb{}
	y := &ast.Yield{Value: b.intLit("1"), Loc: b.span()}
	ctx := Analyze(b.module(b.exprStmt(y)), 1, Options{})
	wantCode(t, ctx, diag.SemaInvalidContext)
}

func TestUnusedVariable(t *testing.T) {
	b := &tb{}
	fn := b.fn("f", nil, nil,
		b.assign("scratch", b.intLit("1")),
		b.ret(nil),
	)
	ctx := Analyze(b.module(fn), 1, Options{})
	wantCode(t, ctx, diag.SemaUnusedVariable)

	d := findCode(ctx, diag.SemaUnusedVariable)
	if d.Severity != diag.SevInfo {
		t.Fatalf("unused variable is informational, got %v", d.Severity)
	}
}

func TestUnderscorePrefixSilencesUnused(t *testing.T) {
	b := &tb{}
	fn := b.fn("f", nil, nil,
		b.assign("_scratch", b.intLit("1")),
		b.ret(nil),
	)
	ctx := analyzeModule(t, b.module(fn))
	if hasCode(ctx, diag.SemaUnusedVariable) {
		t.Fatalf("underscore-prefixed local flagged: %v", ctx.Bag.Items())
	}
}

func TestModuleLevelUnusedNotReported(t *testing.T) {
	b := &tb{}
	ctx := analyzeModule(t, b.module(
		b.assign("exported", b.intLit("1")),
	))
	if hasCode(ctx, diag.SemaUnusedVariable) {
		t.Fatalf("module-level binding flagged as unused: %v", ctx.Bag.Items())
	}
}

func TestMutualRecursionNoFlowError(t *testing.T) {
	b := &tb{}
	even := b.fn("even", []*ast.Param{b.param("n", b.name("int"))}, b.name("bool"),
		b.ret(b.call(b.name("odd"), b.binary(ast.OpSub, b.name("n"), b.intLit("1")))),
	)
	odd := b.fn("odd", []*ast.Param{b.param("n", b.name("int"))}, b.name("bool"),
		b.ret(b.call(b.name("even"), b.binary(ast.OpSub, b.name("n"), b.intLit("1")))),
	)
	ctx := analyzeModule(t, b.module(even, odd))
	wantClean(t, ctx)
}
