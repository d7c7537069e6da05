package sema

import (
	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/symbols"
)

// resolve is pass 2: every identifier reference is bound to a symbol
// via LEGB lookup. References crossing a function boundary mark the
// target captured and extend the capturing function's closure set.
// Unresolved names report SemaUndefinedName and bind to the error
// sentinel so later passes never see a dangling reference.
func resolve(ctx *Context) {
	r := &resolver{ctx: ctx}
	r.body(ctx.Table.Module, ctx.Module.Body)
}

type resolver struct {
	ctx *Context
}

// use binds a reference, records it on the symbol, and tracks closure
// capture. assigned distinguishes store from load references.
func (r *resolver) use(scope symbols.ScopeID, n *ast.Name, assigned bool) {
	ctx := r.ctx
	if _, done := ctx.Bindings[n]; done {
		// Declaration targets were bound in pass 1; still record flags.
		id := ctx.Bindings[n]
		if sym := ctx.Table.Symbols.Get(id); sym != nil && assigned {
			sym.Flags |= symbols.SymbolFlagAssigned
		}
		return
	}
	id, ok := ctx.Table.LookupLEGB(scope, n.Ident)
	if !ok {
		ctx.errorf(diag.SemaUndefinedName, n.Loc, "undefined name %q", n.Ident)
		ctx.Bindings[n] = ctx.Table.ErrSym
		return
	}
	ctx.Bindings[n] = id
	sym := ctx.Table.Symbols.Get(id)
	sym.Refs = append(sym.Refs, n.Loc)
	if assigned {
		sym.Flags |= symbols.SymbolFlagAssigned
	} else {
		sym.Flags |= symbols.SymbolFlagUsed
	}
	r.capture(scope, id, sym)
}

// capture walks from the use site up to the symbol's scope; every
// function-like scope crossed on the way closes over the symbol.
// Module-level and builtin symbols are never captured.
func (r *resolver) capture(from symbols.ScopeID, id symbols.SymbolID, sym *symbols.Symbol) {
	t := r.ctx.Table
	owner := t.Scopes.Get(sym.Scope)
	if owner == nil || owner.Kind == symbols.ScopeModule || owner.Kind == symbols.ScopeBuiltin {
		return
	}
	for scope := from; scope.IsValid() && scope != sym.Scope; {
		sc := t.Scopes.Get(scope)
		if sc == nil {
			return
		}
		if sc.Kind.IsFunctionLike() {
			r.addCapture(scope, id, sym)
		}
		scope = sc.Parent
	}
}

func (r *resolver) addCapture(fnScope symbols.ScopeID, id symbols.SymbolID, sym *symbols.Symbol) {
	set := r.ctx.Closures[fnScope]
	for _, existing := range set {
		if existing == id {
			return
		}
	}
	r.ctx.Closures[fnScope] = append(set, id)
	sym.Flags |= symbols.SymbolFlagCaptured
	for _, by := range sym.CapturedBy {
		if by == fnScope {
			return
		}
	}
	sym.CapturedBy = append(sym.CapturedBy, fnScope)
}

func (r *resolver) body(scope symbols.ScopeID, stmts []ast.Stmt) {
	for _, s := range stmts {
		r.stmt(scope, s)
	}
}

func (r *resolver) stmt(scope symbols.ScopeID, s ast.Stmt) {
	ctx := r.ctx
	switch n := s.(type) {
	case *ast.FuncDecl:
		fnScope := ctx.ScopeOf[n]
		for _, p := range n.Params {
			// Defaults evaluate in the enclosing scope; annotations
			// resolve against the type registry in pass 3.
			r.expr(scope, p.Default)
		}
		r.body(fnScope, n.Body)

	case *ast.ClassDecl:
		for _, base := range n.Bases {
			r.expr(scope, base)
		}
		r.body(ctx.ScopeOf[n], n.Body)

	case *ast.VarDecl:
		r.expr(scope, n.Value)

	case *ast.Assign:
		r.expr(scope, n.Value)
		for _, target := range n.Targets {
			r.target(scope, target)
		}

	case *ast.AugAssign:
		r.expr(scope, n.Value)
		// The target is both read and written.
		if name, ok := n.Target.(*ast.Name); ok {
			r.use(scope, name, false)
			if sym := ctx.Table.Symbols.Get(ctx.Bindings[name]); sym != nil {
				sym.Flags |= symbols.SymbolFlagAssigned
			}
		} else {
			r.expr(scope, n.Target)
		}

	case *ast.ExprStmt:
		r.expr(scope, n.X)
	case *ast.Return:
		r.expr(scope, n.Value)
	case *ast.Raise:
		r.expr(scope, n.Exc)

	case *ast.If:
		r.expr(scope, n.Cond)
		r.body(scope, n.Then)
		r.body(scope, n.Else)
	case *ast.While:
		r.expr(scope, n.Cond)
		r.body(scope, n.Body)
		r.body(scope, n.Else)
	case *ast.For:
		r.expr(scope, n.Iter)
		r.target(scope, n.Target)
		r.body(scope, n.Body)
		r.body(scope, n.Else)

	case *ast.With:
		r.expr(scope, n.Expr)
		bodyScope := scope
		if n.Alias != nil {
			bodyScope = ctx.ScopeOf[n]
		}
		r.body(bodyScope, n.Body)

	case *ast.Try:
		r.body(scope, n.Body)
		for _, h := range n.Handlers {
			r.expr(scope, h.Type)
			handlerScope := scope
			if h.Alias != nil {
				handlerScope = ctx.ScopeOf[h]
			}
			r.body(handlerScope, h.Body)
		}
		r.body(scope, n.Else)
		r.body(scope, n.Finally)

	case *ast.Match:
		r.expr(scope, n.Subject)
		for _, mc := range n.Cases {
			caseScope := ctx.ScopeOf[mc]
			r.pattern(caseScope, mc.Pattern)
			r.expr(caseScope, mc.Guard)
			r.body(caseScope, mc.Body)
		}

	case *ast.Import, *ast.TypeAlias, *ast.Global, *ast.Nonlocal,
		*ast.Break, *ast.Continue, *ast.Pass:
		// Nothing to resolve.
	}
}

func (r *resolver) target(scope symbols.ScopeID, target ast.Expr) {
	switch n := target.(type) {
	case *ast.Name:
		r.use(scope, n, true)
	case *ast.TupleLit:
		for _, elem := range n.Elems {
			r.target(scope, elem)
		}
	case *ast.ListLit:
		for _, elem := range n.Elems {
			r.target(scope, elem)
		}
	case *ast.Attribute:
		r.expr(scope, n.X)
	case *ast.Subscript:
		r.expr(scope, n.X)
		r.expr(scope, n.Index)
	}
}

func (r *resolver) pattern(scope symbols.ScopeID, p ast.Pattern) {
	switch n := p.(type) {
	case *ast.ClassPattern:
		r.expr(scope, n.Class)
		for _, f := range n.Fields {
			r.pattern(scope, f)
		}
	case *ast.OrPattern:
		for _, alt := range n.Alts {
			r.pattern(scope, alt)
		}
	case *ast.CapturePattern, *ast.LiteralPattern, *ast.WildcardPattern:
		// Captures were bound in pass 1; literals have no names.
	}
}

// expr resolves every name in an expression tree, entering lambda and
// comprehension scopes as it goes.
func (r *resolver) expr(scope symbols.ScopeID, x ast.Expr) {
	if x == nil {
		return
	}
	switch n := x.(type) {
	case *ast.Name:
		r.use(scope, n, false)
	case *ast.Literal:
		// Nothing.
	case *ast.Binary:
		r.expr(scope, n.X)
		r.expr(scope, n.Y)
	case *ast.Unary:
		r.expr(scope, n.X)
	case *ast.BoolOp:
		for _, v := range n.Values {
			r.expr(scope, v)
		}
	case *ast.Compare:
		r.expr(scope, n.X)
		for _, cmp := range n.Comparators {
			r.expr(scope, cmp)
		}
	case *ast.Call:
		r.expr(scope, n.Fun)
		for _, a := range n.Args {
			r.expr(scope, a)
		}
		for _, k := range n.Keywords {
			r.expr(scope, k.Value)
		}
	case *ast.Attribute:
		// Only the receiver resolves; the attribute name is looked up
		// on the receiver's type in pass 3.
		r.expr(scope, n.X)
	case *ast.Subscript:
		r.expr(scope, n.X)
		r.expr(scope, n.Index)
	case *ast.ListLit:
		for _, e := range n.Elems {
			r.expr(scope, e)
		}
	case *ast.TupleLit:
		for _, e := range n.Elems {
			r.expr(scope, e)
		}
	case *ast.SetLit:
		for _, e := range n.Elems {
			r.expr(scope, e)
		}
	case *ast.DictLit:
		for i := range n.Keys {
			r.expr(scope, n.Keys[i])
			r.expr(scope, n.Values[i])
		}
	case *ast.Lambda:
		lambdaScope := r.ctx.ScopeOf[n]
		for _, p := range n.Params {
			r.expr(scope, p.Default)
		}
		r.expr(lambdaScope, n.Body)
	case *ast.Comprehension:
		compScope := r.ctx.ScopeOf[n]
		for i, cl := range n.Clauses {
			iterScope := compScope
			if i == 0 {
				iterScope = scope
			}
			r.expr(iterScope, cl.Iter)
			r.target(compScope, cl.Target)
			for _, cond := range cl.Conds {
				r.expr(compScope, cond)
			}
		}
		r.expr(compScope, n.Elem)
		r.expr(compScope, n.Value)
	case *ast.Yield:
		r.expr(scope, n.Value)
	case *ast.Cond:
		r.expr(scope, n.Cond)
		r.expr(scope, n.Then)
		r.expr(scope, n.Else)
	}
}
