package sema

import (
	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/symbols"
	"typhon/internal/types"
)

// validateFlow is pass 4: statement-placement rules, then per-body
// control-flow analysis (definite assignment, unreachable code,
// missing returns) and finally unused-local reporting.
func validateFlow(ctx *Context) {
	v := &flowValidator{ctx: ctx}
	v.stmts(ctx.Module.Body, placement{})

	for _, u := range flowUnits(ctx) {
		g := buildCFG(ctx, u.body)
		reach := g.reachable()
		checkAssignment(ctx, u.scope, g, reach)
		reportUnreachable(ctx, g, reach)
		if u.fn != nil {
			checkMissingReturn(ctx, u.fn, g, reach)
		}
	}

	reportUnused(ctx)
}

type flowUnit struct {
	scope symbols.ScopeID
	body  []ast.Stmt
	fn    *ast.FuncDecl // nil for the module body
}

// flowUnits lists the independently analyzed bodies: the module itself
// and every function, nested ones included.
func flowUnits(ctx *Context) []flowUnit {
	units := []flowUnit{{scope: ctx.Table.Module, body: ctx.Module.Body}}
	ast.Inspect(ctx.Module, func(n ast.Node) bool {
		if fn, ok := n.(*ast.FuncDecl); ok {
			if scope, ok := ctx.ScopeOf[fn]; ok {
				units = append(units, flowUnit{scope: scope, body: fn.Body, fn: fn})
			}
		}
		return true
	})
	return units
}

// placement tracks the syntactic context statement-placement rules
// depend on.
type placement struct {
	inLoop bool
	fn     *ast.FuncDecl
}

type flowValidator struct {
	ctx *Context
}

func (v *flowValidator) stmts(list []ast.Stmt, p placement) {
	for _, s := range list {
		v.stmt(s, p)
	}
}

func (v *flowValidator) stmt(s ast.Stmt, p placement) {
	ctx := v.ctx
	switch n := s.(type) {
	case *ast.Break:
		if !p.inLoop {
			ctx.errorf(diag.SemaInvalidContext, n.Loc, "break outside of a loop")
		}
	case *ast.Continue:
		if !p.inLoop {
			ctx.errorf(diag.SemaInvalidContext, n.Loc, "continue outside of a loop")
		}
	case *ast.Return:
		if p.fn == nil {
			ctx.errorf(diag.SemaInvalidContext, n.Loc, "return outside of a function")
		}
		v.checkYields(n.Value, p)

	case *ast.ExprStmt:
		v.checkYields(n.X, p)
	case *ast.Assign:
		v.checkYields(n.Value, p)
	case *ast.VarDecl:
		v.checkYields(n.Value, p)
	case *ast.AugAssign:
		v.checkYields(n.Value, p)

	case *ast.FuncDecl:
		inner := placement{fn: n}
		v.stmts(n.Body, inner)
	case *ast.ClassDecl:
		// A class body is neither a loop nor a function context.
		v.stmts(n.Body, placement{})

	case *ast.If:
		v.stmts(n.Then, p)
		v.stmts(n.Else, p)
	case *ast.While:
		loop := p
		loop.inLoop = true
		v.stmts(n.Body, loop)
		v.stmts(n.Else, p)
	case *ast.For:
		loop := p
		loop.inLoop = true
		v.stmts(n.Body, loop)
		v.stmts(n.Else, p)
	case *ast.With:
		v.stmts(n.Body, p)
	case *ast.Try:
		v.stmts(n.Body, p)
		for _, h := range n.Handlers {
			v.stmts(h.Body, p)
		}
		v.stmts(n.Else, p)
		v.stmts(n.Finally, p)
	case *ast.Match:
		for _, mc := range n.Cases {
			v.stmts(mc.Body, p)
		}
	}
}

// checkYields rejects yield expressions outside generator functions.
func (v *flowValidator) checkYields(x ast.Expr, p placement) {
	if x == nil {
		return
	}
	ast.Inspect(x, func(n ast.Node) bool {
		switch y := n.(type) {
		case *ast.Yield:
			if p.fn == nil {
				v.ctx.errorf(diag.SemaInvalidContext, y.Loc, "yield outside of a function")
			} else if !p.fn.IsGenerator {
				v.ctx.errorf(diag.SemaInvalidContext, y.Loc, "yield in a non-generator function")
			}
		case *ast.Lambda:
			// Lambda bodies cannot contain statements, and a yield
			// inside one is its own context error.
			return false
		}
		return true
	})
}

// checkMissingReturn reports functions whose declared return type
// requires a value but whose body can fall off the end.
func checkMissingReturn(ctx *Context, fn *ast.FuncDecl, g *flowGraph, reach []bool) {
	if fn.Result == nil || fn.IsGenerator {
		return
	}
	id, ok := ctx.Bindings[fn]
	if !ok {
		return
	}
	sym := ctx.Table.Symbols.Get(id)
	if sym == nil {
		return
	}
	d := ctx.Types.Get(sym.Type)
	if d.Kind != types.KindFunction {
		return
	}
	switch ctx.Types.KindOf(d.Result) {
	case types.KindNone, types.KindAny, types.KindError, types.KindInvalid:
		return
	}
	if reach[g.exit] {
		ctx.errorf(diag.SemaMissingReturn, fn.NameLoc,
			"function %q does not return %s on every path", fn.Name, ctx.Types.String(d.Result))
	}
}
