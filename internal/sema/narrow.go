package sema

import (
	"typhon/internal/ast"
	"typhon/internal/symbols"
	"typhon/internal/types"
)

// narrowEnv maps symbols to their flow-narrowed types within a branch.
// Lookups fall through to the symbol's declared type when absent.
type narrowEnv map[symbols.SymbolID]types.TypeID

func (e narrowEnv) clone() narrowEnv {
	out := make(narrowEnv, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// withEnv evaluates f under env and restores the previous environment.
func (ch *checker) withEnv(env narrowEnv, f func() types.TypeID) types.TypeID {
	saved := ch.env
	ch.env = env
	t := f()
	ch.env = saved
	return t
}

// withEnvNarrow returns env extended with the positive facts cond
// implies, evaluated relative to env.
func (ch *checker) withEnvNarrow(env narrowEnv, scope symbols.ScopeID, cond ast.Expr) narrowEnv {
	saved := ch.env
	ch.env = env
	then, _ := ch.narrowCondition(scope, cond)
	ch.env = saved
	return then
}

func (ch *checker) inEnv(env narrowEnv, f func()) {
	saved := ch.env
	ch.env = env
	f()
	ch.env = saved
}

// narrowCondition derives the branch environments a condition implies.
// Recognized forms: `x is None`, `x is not None`, `isinstance(x, T)`,
// and conjunctions of those with `and`. Anything else narrows nothing.
// Negation and `or` are deliberately not narrowed.
func (ch *checker) narrowCondition(scope symbols.ScopeID, cond ast.Expr) (then, els narrowEnv) {
	then = ch.env.clone()
	els = ch.env.clone()
	ch.applyNarrowing(cond, then, els)
	return then, els
}

func (ch *checker) applyNarrowing(cond ast.Expr, then, els narrowEnv) {
	in := ch.ctx.Types
	switch n := cond.(type) {
	case *ast.Compare:
		if len(n.Ops) != 1 || len(n.Comparators) != 1 {
			return
		}
		id, ok := ch.narrowTarget(n.X)
		if !ok {
			return
		}
		if lit, isLit := n.Comparators[0].(*ast.Literal); !isLit || lit.Kind != ast.LitNone {
			return
		}
		cur := ch.currentType(id)
		switch n.Ops[0] {
		case ast.OpIs:
			then[id] = in.Builtins.None
			els[id] = in.NonNone(cur)
		case ast.OpIsNot:
			then[id] = in.NonNone(cur)
			els[id] = in.Builtins.None
		}

	case *ast.Call:
		callee, ok := n.Fun.(*ast.Name)
		if !ok || callee.Ident != "isinstance" || len(n.Args) != 2 {
			return
		}
		id, ok := ch.narrowTarget(n.Args[0])
		if !ok {
			return
		}
		target := ch.isinstanceType(n.Args[1])
		if !target.IsValid() {
			return
		}
		then[id] = target
		// The negative branch keeps the wider type: the checked class
		// may not be a union member we can subtract.

	case *ast.BoolOp:
		if n.Op != ast.OpAnd {
			return
		}
		// Conjunction accumulates positive facts; the negative branch
		// cannot tell which conjunct failed, so it stays unnarrowed.
		for _, v := range n.Values {
			discard := ch.env.clone()
			ch.applyNarrowing(v, then, discard)
		}
		for k := range els {
			delete(els, k)
		}
		for k, v := range ch.env {
			els[k] = v
		}
	}
}

// narrowTarget accepts a plain name bound to a real symbol.
func (ch *checker) narrowTarget(x ast.Expr) (symbols.SymbolID, bool) {
	name, ok := x.(*ast.Name)
	if !ok {
		return symbols.NoSymbolID, false
	}
	id, ok := ch.ctx.Bindings[name]
	if !ok || id == ch.ctx.Table.ErrSym {
		return symbols.NoSymbolID, false
	}
	return id, true
}

func (ch *checker) currentType(id symbols.SymbolID) types.TypeID {
	if t, ok := ch.env[id]; ok {
		return t
	}
	sym := ch.ctx.Table.Symbols.Get(id)
	if sym == nil || !sym.Type.IsValid() {
		return ch.ctx.Types.Builtins.Any
	}
	return sym.Type
}

// isinstanceType resolves the class argument of an isinstance check.
func (ch *checker) isinstanceType(x ast.Expr) types.TypeID {
	name, ok := x.(*ast.Name)
	if !ok {
		return types.NoTypeID
	}
	id, ok := ch.ctx.Bindings[name]
	if !ok {
		return types.NoTypeID
	}
	sym := ch.ctx.Table.Symbols.Get(id)
	if sym == nil {
		return types.NoTypeID
	}
	if ch.ctx.Types.KindOf(sym.Type) == types.KindClass {
		return sym.Type
	}
	return types.NoTypeID
}

// blockTerminates reports whether control cannot fall off the end of a
// statement list. The test is syntactic; the dataflow pass does the
// precise reachability analysis.
func blockTerminates(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		if stmtTerminates(s) {
			return true
		}
	}
	return false
}

func stmtTerminates(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.Return, *ast.Raise, *ast.Break, *ast.Continue:
		return true
	case *ast.If:
		return len(n.Else) > 0 && blockTerminates(n.Then) && blockTerminates(n.Else)
	}
	return false
}
