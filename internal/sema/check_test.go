package sema

import (
	"testing"

	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/types"
)

func TestLiteralInference(t *testing.T) {
	b := &tb{}
	cases := []struct {
		name  string
		value ast.Expr
		want  func(*Context) types.TypeID
	}{
		{"int", b.intLit("42"), func(c *Context) types.TypeID { return c.Types.Builtins.Int }},
		{"str", b.strLit("x"), func(c *Context) types.TypeID { return c.Types.Builtins.Str }},
		{"none", b.noneLit(), func(c *Context) types.TypeID { return c.Types.Builtins.None }},
		{"float", &ast.Literal{Kind: ast.LitFloat, Value: "1.5", Loc: b.span()}, func(c *Context) types.TypeID { return c.Types.Builtins.Float }},
		{"list", &ast.ListLit{Elems: []ast.Expr{b.intLit("1"), b.intLit("2")}, Loc: b.span()}, func(c *Context) types.TypeID { return c.Types.List(c.Types.Builtins.Int) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bb := &tb{}
			m := bb.module(bb.assign("v", tc.value))
			ctx := analyzeModule(t, m)
			id, _ := ctx.Table.Lookup(ctx.Table.Module, "v")
			sym := ctx.Table.Symbols.Get(id)
			if want := tc.want(ctx); sym.Type != want {
				t.Fatalf("inferred %s, want %s", ctx.Types.String(sym.Type), ctx.Types.String(want))
			}
		})
	}
}

func TestIntDivisionIsFloat(t *testing.T) {
	b := &tb{}
	ctx := analyzeModule(t, b.module(
		b.assign("q", b.binary(ast.OpDiv, b.intLit("1"), b.intLit("2"))),
		b.assign("r", b.binary(ast.OpFloorDiv, b.intLit("7"), b.intLit("2"))),
	))
	wantClean(t, ctx)

	q, _ := ctx.Table.Lookup(ctx.Table.Module, "q")
	if sym := ctx.Table.Symbols.Get(q); sym.Type != ctx.Types.Builtins.Float {
		t.Fatalf("1/2 inferred as %s, want float", ctx.Types.String(sym.Type))
	}
	r, _ := ctx.Table.Lookup(ctx.Table.Module, "r")
	if sym := ctx.Table.Symbols.Get(r); sym.Type != ctx.Types.Builtins.Int {
		t.Fatalf("7//2 inferred as %s, want int", ctx.Types.String(sym.Type))
	}
}

func TestNoImplicitNumericCoercion(t *testing.T) {
	b := &tb{}
	mixed := b.binary(ast.OpAdd, b.intLit("1"), &ast.Literal{Kind: ast.LitFloat, Value: "2.0", Loc: b.span()})
	ctx := Analyze(b.module(b.assign("x", mixed)), 1, Options{})
	wantCode(t, ctx, diag.SemaUnsupportedOperator)
}

func TestAnnotatedAssignMismatch(t *testing.T) {
	b := &tb{}
	ctx := Analyze(b.module(
		b.varDecl("count", b.name("int"), b.strLit("oops")),
	), 1, Options{})
	wantCode(t, ctx, diag.SemaTypeMismatch)
}

func TestTypeAliasAnnotation(t *testing.T) {
	b := &tb{}
	alias := &ast.TypeAlias{
		Name:    "Names",
		NameLoc: b.span(),
		Value:   &ast.Subscript{X: b.name("list"), Index: b.name("str"), Loc: b.span()},
		Loc:     b.span(),
	}
	ctx := analyzeModule(t, b.module(
		alias,
		b.varDecl("xs", b.name("Names"), &ast.ListLit{Elems: []ast.Expr{b.strLit("a")}, Loc: b.span()}),
	))
	wantClean(t, ctx)

	id, _ := ctx.Table.Lookup(ctx.Table.Module, "xs")
	sym := ctx.Table.Symbols.Get(id)
	if want := ctx.Types.List(ctx.Types.Builtins.Str); sym.Type != want {
		t.Fatalf("alias resolved to %s, want list[str]", ctx.Types.String(sym.Type))
	}
}

func TestCallArity(t *testing.T) {
	b := &tb{}
	double := b.fn("double", []*ast.Param{b.param("n", b.name("int"))}, b.name("int"),
		b.ret(b.binary(ast.OpMul, b.name("n"), b.intLit("2"))),
	)
	ctx := Analyze(b.module(
		double,
		b.exprStmt(b.call(b.name("double"))),
		b.exprStmt(b.call(b.name("double"), b.intLit("1"), b.intLit("2"))),
		b.exprStmt(b.call(b.name("double"), b.strLit("no"))),
	), 1, Options{})
	wantCode(t, ctx, diag.SemaArityMismatch)
	wantCode(t, ctx, diag.SemaTypeMismatch)
}

func TestUnknownKeywordArgument(t *testing.T) {
	b := &tb{}
	greet := b.fn("greet", []*ast.Param{b.param("who", b.name("str"))}, nil,
		b.ret(nil),
	)
	call := &ast.Call{
		Fun:      b.name("greet"),
		Keywords: []*ast.Keyword{{Name: "whom", Value: b.strLit("x"), Loc: b.span()}},
		Loc:      b.span(),
	}
	ctx := Analyze(b.module(greet, b.exprStmt(call)), 1, Options{})
	wantCode(t, ctx, diag.SemaUnknownKeywordArg)
}

func TestNotCallable(t *testing.T) {
	b := &tb{}
	ctx := Analyze(b.module(
		b.assign("n", b.intLit("3")),
		b.exprStmt(b.call(b.name("n"))),
	), 1, Options{})
	wantCode(t, ctx, diag.SemaNotCallable)
}

func TestUnknownAttribute(t *testing.T) {
	b := &tb{}
	attr := &ast.Attribute{X: b.strLit("s"), Attr: "frobnicate", AttrLoc: b.span(), Loc: b.span()}
	ctx := Analyze(b.module(b.exprStmt(attr)), 1, Options{})
	wantCode(t, ctx, diag.SemaUnknownAttribute)
}

func TestDictGetIsOptional(t *testing.T) {
	b := &tb{}
	dict := &ast.DictLit{
		Keys:   []ast.Expr{b.strLit("a")},
		Values: []ast.Expr{b.intLit("1")},
		Loc:    b.span(),
	}
	get := b.call(&ast.Attribute{X: b.name("d"), Attr: "get", AttrLoc: b.span(), Loc: b.span()}, b.strLit("a"))
	ctx := analyzeModule(t, b.module(
		b.assign("d", dict),
		b.assign("v", get),
	))
	wantClean(t, ctx)

	id, _ := ctx.Table.Lookup(ctx.Table.Module, "v")
	sym := ctx.Table.Symbols.Get(id)
	if want := ctx.Types.Optional(ctx.Types.Builtins.Int); sym.Type != want {
		t.Fatalf("dict.get inferred as %s, want int | None", ctx.Types.String(sym.Type))
	}
}

func TestNarrowIsNone(t *testing.T) {
	b := &tb{}
	x := b.param("x", b.optional("int"))
	fn := b.fn("pick", []*ast.Param{x}, b.name("int"),
		&ast.If{
			Cond: b.isNone(b.name("x")),
			Then: []ast.Stmt{b.ret(b.intLit("0"))},
			Loc:  b.span(),
		},
		b.ret(b.name("x")),
	)
	ctx := analyzeModule(t, b.module(fn))
	wantClean(t, ctx)
}

func TestNarrowIsNotRequired(t *testing.T) {
	b := &tb{}
	fn := b.fn("pick", []*ast.Param{b.param("x", b.optional("int"))}, b.name("int"),
		b.ret(b.name("x")),
	)
	ctx := Analyze(b.module(fn), 1, Options{})
	wantCode(t, ctx, diag.SemaTypeMismatch)
}

func TestNarrowIsinstance(t *testing.T) {
	b := &tb{}
	point := b.class("Point", nil,
		b.varDecl("x", b.name("int"), nil),
	)
	probe := b.fn("probe", []*ast.Param{b.param("v", nil)}, b.name("int"),
		&ast.If{
			Cond: b.call(b.name("isinstance"), b.name("v"), b.name("Point")),
			Then: []ast.Stmt{
				b.ret(&ast.Attribute{X: b.name("v"), Attr: "x", AttrLoc: b.span(), Loc: b.span()}),
			},
			Loc: b.span(),
		},
		b.ret(b.intLit("0")),
	)
	ctx := analyzeModule(t, b.module(point, probe))
	wantClean(t, ctx)
}

func TestCyclicBaseClasses(t *testing.T) {
	b := &tb{}
	classA := b.class("A", []ast.Expr{b.name("B")},
		b.varDecl("x", b.name("int"), nil),
	)
	classB := b.class("B", []ast.Expr{b.name("A")},
		&ast.Pass{Loc: b.span()},
	)
	use := b.fn("f", []*ast.Param{b.param("a", b.name("A"))}, nil,
		b.exprStmt(&ast.Attribute{X: b.name("a"), Attr: "y", AttrLoc: b.span(), Loc: b.span()}),
	)
	// Analysis must terminate: the back edge is rejected, attribute
	// lookup still walks the remaining finite chain.
	ctx := Analyze(b.module(classA, classB, use), 1, Options{})
	wantCode(t, ctx, diag.SemaInvalidBaseClass)
	wantCode(t, ctx, diag.SemaUnknownAttribute)
}

func TestSelfInheritance(t *testing.T) {
	b := &tb{}
	classA := b.class("A", []ast.Expr{b.name("A")},
		&ast.Pass{Loc: b.span()},
	)
	ctx := Analyze(b.module(classA), 1, Options{})
	wantCode(t, ctx, diag.SemaInvalidBaseClass)
}

func TestProtocolConformance(t *testing.T) {
	b := &tb{}
	closer := b.protocol("Closer",
		b.fn("close", []*ast.Param{b.param("self", nil)}, b.noneLit(), &ast.Pass{Loc: b.span()}),
	)
	bad := b.class("Leaky", []ast.Expr{b.name("Closer")},
		&ast.Pass{Loc: b.span()},
	)
	ctx := Analyze(b.module(closer, bad), 1, Options{})
	wantCode(t, ctx, diag.SemaProtocolConformance)

	d := findCode(ctx, diag.SemaProtocolConformance)
	if len(d.Notes) == 0 {
		t.Fatal("conformance diagnostic missing the protocol method note")
	}
}

func TestProtocolConformanceSatisfied(t *testing.T) {
	b := &tb{}
	closer := b.protocol("Closer",
		b.fn("close", []*ast.Param{b.param("self", nil)}, b.noneLit(), &ast.Pass{Loc: b.span()}),
	)
	good := b.class("File", []ast.Expr{b.name("Closer")},
		b.fn("close", []*ast.Param{b.param("self", nil)}, b.noneLit(), b.ret(nil)),
	)
	ctx := analyzeModule(t, b.module(closer, good))
	if hasCode(ctx, diag.SemaProtocolConformance) {
		t.Fatalf("conforming class reported: %v", ctx.Bag.Items())
	}
}

func TestMatchExhaustiveness(t *testing.T) {
	b := &tb{}
	subject := b.param("v", b.optional("int"))
	incomplete := &ast.Match{
		Subject: b.name("v"),
		Cases: []*ast.MatchCase{
			{
				Pattern: &ast.LiteralPattern{Value: b.noneLit(), Loc: b.span()},
				Body:    []ast.Stmt{&ast.Pass{Loc: b.span()}},
				Loc:     b.span(),
			},
		},
		Loc: b.span(),
	}
	fn := b.fn("handle", []*ast.Param{subject}, nil, incomplete)
	ctx := Analyze(b.module(fn), 1, Options{})
	wantCode(t, ctx, diag.SemaNonExhaustiveMatch)
}

func TestMatchWildcardIsExhaustive(t *testing.T) {
	b := &tb{}
	full := &ast.Match{
		Subject: b.name("v"),
		Cases: []*ast.MatchCase{
			{
				Pattern: &ast.LiteralPattern{Value: b.noneLit(), Loc: b.span()},
				Body:    []ast.Stmt{&ast.Pass{Loc: b.span()}},
				Loc:     b.span(),
			},
			{
				Pattern: &ast.WildcardPattern{Loc: b.span()},
				Body:    []ast.Stmt{&ast.Pass{Loc: b.span()}},
				Loc:     b.span(),
			},
		},
		Loc: b.span(),
	}
	fn := b.fn("handle", []*ast.Param{b.param("v", b.optional("int"))}, nil, full)
	ctx := analyzeModule(t, b.module(fn))
	if hasCode(ctx, diag.SemaNonExhaustiveMatch) {
		t.Fatalf("wildcard match reported non-exhaustive: %v", ctx.Bag.Items())
	}
}

func TestConditionMustBeBool(t *testing.T) {
	b := &tb{}
	cond := &ast.If{
		Cond: b.intLit("1"),
		Then: []ast.Stmt{&ast.Pass{Loc: b.span()}},
		Loc:  b.span(),
	}
	ctx := Analyze(b.module(cond), 1, Options{})
	wantCode(t, ctx, diag.SemaConditionNotBool)
}

func TestInvalidAnnotation(t *testing.T) {
	b := &tb{}
	ctx := Analyze(b.module(
		b.varDecl("x", b.intLit("3"), nil),
	), 1, Options{})
	wantCode(t, ctx, diag.SemaInvalidAnnotation)
}
