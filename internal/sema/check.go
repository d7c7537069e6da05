package sema

import (
	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/source"
	"typhon/internal/symbols"
	"typhon/internal/types"
)

// checkUnit walks every statement, inferring expression types and
// enforcing declared types. Conditions narrow optional and union types
// in the branch they guard; a branch that cannot fall through leaves
// the complementary narrowing in effect after the statement.
func (ch *checker) checkUnit() {
	ch.env = make(narrowEnv)
	ch.checkBody(ch.ctx.Table.Module, ch.ctx.Module.Body)
}

func (ch *checker) checkBody(scope symbols.ScopeID, stmts []ast.Stmt) {
	for _, s := range stmts {
		ch.checkStmt(scope, s)
	}
}

func (ch *checker) checkStmt(scope symbols.ScopeID, s ast.Stmt) {
	ctx := ch.ctx
	in := ctx.Types
	switch n := s.(type) {
	case *ast.FuncDecl:
		ch.checkFunc(scope, n)

	case *ast.ClassDecl:
		classScope := ctx.ScopeOf[n]
		ch.checkBody(classScope, n.Body)

	case *ast.VarDecl:
		declared := ch.resolveAnnotation(scope, n.Annotation)
		if id, ok := ctx.Bindings[n]; ok {
			if sym := ctx.Table.Symbols.Get(id); sym != nil {
				sym.Type = declared
			}
		}
		if n.Value != nil {
			vt := ch.exprType(scope, n.Value)
			if !in.Assignable(vt, declared) {
				ctx.errorf(diag.SemaTypeMismatch, n.Value.Span(),
					"cannot use %s as %s", in.String(vt), in.String(declared))
			}
		}

	case *ast.Assign:
		vt := ch.exprType(scope, n.Value)
		for _, target := range n.Targets {
			ch.assignTarget(scope, target, vt)
		}

	case *ast.AugAssign:
		lt := ch.exprType(scope, n.Target)
		rt := ch.exprType(scope, n.Value)
		result := ch.binaryType(n.Op, lt, rt, n.Loc)
		if !in.Assignable(result, lt) {
			ctx.errorf(diag.SemaTypeMismatch, n.Loc,
				"result of %s= is %s, target is %s", n.Op, in.String(result), in.String(lt))
		}
		if name, ok := n.Target.(*ast.Name); ok {
			if id, ok := ctx.Bindings[name]; ok {
				delete(ch.env, id)
			}
		}

	case *ast.ExprStmt:
		ch.exprType(scope, n.X)

	case *ast.Return:
		vt := in.Builtins.None
		if n.Value != nil {
			vt = ch.exprType(scope, n.Value)
		}
		if ch.ret.IsValid() && !in.Assignable(vt, ch.ret) {
			ctx.errorf(diag.SemaTypeMismatch, n.Loc,
				"cannot return %s from a function returning %s", in.String(vt), in.String(ch.ret))
		}

	case *ast.If:
		ch.condition(scope, n.Cond)
		thenEnv, elseEnv := ch.narrowCondition(scope, n.Cond)
		ch.inEnv(thenEnv, func() { ch.checkBody(scope, n.Then) })
		ch.inEnv(elseEnv, func() { ch.checkBody(scope, n.Else) })
		// A branch that always exits leaves the opposite narrowing in
		// force for the rest of the block.
		if blockTerminates(n.Then) {
			ch.env = elseEnv
		} else if len(n.Else) > 0 && blockTerminates(n.Else) {
			ch.env = thenEnv
		}

	case *ast.While:
		ch.condition(scope, n.Cond)
		bodyEnv, exitEnv := ch.narrowCondition(scope, n.Cond)
		ch.inEnv(bodyEnv, func() { ch.checkBody(scope, n.Body) })
		ch.inEnv(exitEnv, func() { ch.checkBody(scope, n.Else) })

	case *ast.For:
		iterType := ch.exprType(scope, n.Iter)
		elem, ok := ch.elemOf(iterType)
		if !ok {
			ctx.errorf(diag.SemaNotIterable, n.Iter.Span(),
				"%s is not iterable", in.String(iterType))
			elem = in.Builtins.Error
		}
		ch.bindTarget(scope, n.Target, elem)
		ch.checkBody(scope, n.Body)
		ch.checkBody(scope, n.Else)

	case *ast.Raise:
		ch.checkRaise(scope, n)

	case *ast.With:
		valType := ch.exprType(scope, n.Expr)
		bodyScope := scope
		if n.Alias != nil {
			bodyScope = ctx.ScopeOf[n]
			ch.setSymbolType(n.Alias, valType)
		}
		ch.checkBody(bodyScope, n.Body)

	case *ast.Try:
		ch.checkBody(scope, n.Body)
		for _, h := range n.Handlers {
			handlerScope := scope
			if h.Alias != nil {
				handlerScope = ctx.ScopeOf[h]
			}
			caught := ch.checkExceptType(scope, h.Type)
			if h.Alias != nil {
				ch.setSymbolType(h.Alias, caught)
			}
			ch.checkBody(handlerScope, h.Body)
		}
		ch.checkBody(scope, n.Else)
		ch.checkBody(scope, n.Finally)

	case *ast.Match:
		ch.checkMatch(scope, n)

	case *ast.Import, *ast.TypeAlias, *ast.Global, *ast.Nonlocal,
		*ast.Break, *ast.Continue, *ast.Pass:
		// Nothing to type.
	}
}

func (ch *checker) checkFunc(scope symbols.ScopeID, n *ast.FuncDecl) {
	ctx := ch.ctx
	fnScope, ok := ctx.ScopeOf[n]
	if !ok {
		return
	}
	var ret types.TypeID
	if n.Result != nil {
		ret = ch.resolveAnnotation(scope, n.Result)
	}
	for _, p := range n.Params {
		if p.Default == nil {
			continue
		}
		dt := ch.exprType(scope, p.Default)
		pt := ch.paramDeclaredType(fnScope, p)
		if !ctx.Types.Assignable(dt, pt) {
			ctx.errorf(diag.SemaTypeMismatch, p.Default.Span(),
				"default value %s does not match parameter type %s",
				ctx.Types.String(dt), ctx.Types.String(pt))
		}
	}

	savedRet, savedEnv := ch.ret, ch.env
	ch.ret = ret
	ch.env = make(narrowEnv)
	ch.checkBody(fnScope, n.Body)
	ch.ret, ch.env = savedRet, savedEnv
}

func (ch *checker) paramDeclaredType(fnScope symbols.ScopeID, p *ast.Param) types.TypeID {
	if id, ok := ch.ctx.Table.Lookup(fnScope, p.Name); ok {
		if sym := ch.ctx.Table.Symbols.Get(id); sym != nil && sym.Type.IsValid() {
			return sym.Type
		}
	}
	return ch.ctx.Types.Builtins.Any
}

// assignTarget types one assignment target against the value type.
func (ch *checker) assignTarget(scope symbols.ScopeID, target ast.Expr, vt types.TypeID) {
	ctx := ch.ctx
	in := ctx.Types
	switch n := target.(type) {
	case *ast.Name:
		ch.assignName(n, vt)

	case *ast.TupleLit:
		ch.unpack(scope, n.Elems, vt, n.Loc)
	case *ast.ListLit:
		ch.unpack(scope, n.Elems, vt, n.Loc)

	case *ast.Attribute:
		recv := ch.exprType(scope, n.X)
		ft, ok := in.FieldOn(recv, n.Attr)
		if !ok {
			ctx.errorf(diag.SemaUnknownAttribute, n.AttrLoc,
				"%s has no attribute %q", in.String(recv), n.Attr)
			return
		}
		if !in.Assignable(vt, ft) {
			ctx.errorf(diag.SemaTypeMismatch, n.Loc,
				"cannot use %s as %s", in.String(vt), in.String(ft))
		}

	case *ast.Subscript:
		ch.assignSubscript(scope, n, vt)
	}
}

// assignName checks a store against the name's established type, or
// establishes it from this first assignment. Stores invalidate any
// active narrowing for the symbol.
func (ch *checker) assignName(n *ast.Name, vt types.TypeID) {
	ctx := ch.ctx
	in := ctx.Types
	id, ok := ctx.Bindings[n]
	if !ok || id == ctx.Table.ErrSym {
		return
	}
	sym := ctx.Table.Symbols.Get(id)
	if sym == nil {
		return
	}
	delete(ch.env, id)
	if !sym.Type.IsValid() {
		sym.Type = vt
		return
	}
	if !in.Assignable(vt, sym.Type) {
		ctx.errorf(diag.SemaTypeMismatch, n.Loc,
			"cannot use %s as %s", in.String(vt), in.String(sym.Type))
	}
}

func (ch *checker) unpack(scope symbols.ScopeID, targets []ast.Expr, vt types.TypeID, at source.Span) {
	ctx := ch.ctx
	in := ctx.Types
	d := in.Get(vt)
	if d.Kind == types.KindTuple {
		if len(d.Elems) != len(targets) {
			ctx.errorf(diag.SemaTypeMismatch, at,
				"cannot unpack %d values into %d targets", len(d.Elems), len(targets))
			return
		}
		for i, t := range targets {
			ch.assignTarget(scope, t, d.Elems[i])
		}
		return
	}
	elem, ok := ch.elemOf(vt)
	if !ok {
		ctx.errorf(diag.SemaNotIterable, at,
			"%s is not iterable", in.String(vt))
		elem = in.Builtins.Error
	}
	for _, t := range targets {
		ch.assignTarget(scope, t, elem)
	}
}

func (ch *checker) assignSubscript(scope symbols.ScopeID, n *ast.Subscript, vt types.TypeID) {
	ctx := ch.ctx
	in := ctx.Types
	recv := ch.exprType(scope, n.X)
	idx := ch.exprType(scope, n.Index)
	d := in.Get(recv)
	switch d.Kind {
	case types.KindAny, types.KindError:
		return
	case types.KindList:
		ch.requireIndex(idx, in.Builtins.Int, n.Index)
		if !in.Assignable(vt, d.Elem) {
			ctx.errorf(diag.SemaTypeMismatch, n.Loc,
				"cannot use %s as %s", in.String(vt), in.String(d.Elem))
		}
	case types.KindDict:
		if !in.Assignable(idx, d.Key) {
			ctx.errorf(diag.SemaTypeMismatch, n.Index.Span(),
				"cannot use %s as dict key type %s", in.String(idx), in.String(d.Key))
		}
		if !in.Assignable(vt, d.Value) {
			ctx.errorf(diag.SemaTypeMismatch, n.Loc,
				"cannot use %s as %s", in.String(vt), in.String(d.Value))
		}
	default:
		ctx.errorf(diag.SemaNotSubscriptable, n.Loc,
			"%s does not support item assignment", in.String(recv))
	}
}

// bindTarget gives loop and comprehension targets the iterated element
// type without the assignability check a store needs.
func (ch *checker) bindTarget(scope symbols.ScopeID, target ast.Expr, elem types.TypeID) {
	switch n := target.(type) {
	case *ast.Name:
		ch.setSymbolType(n, elem)
	case *ast.TupleLit:
		ch.unpack(scope, n.Elems, elem, n.Loc)
	case *ast.ListLit:
		ch.unpack(scope, n.Elems, elem, n.Loc)
	default:
		ch.assignTarget(scope, target, elem)
	}
}

func (ch *checker) setSymbolType(n *ast.Name, t types.TypeID) {
	id, ok := ch.ctx.Bindings[n]
	if !ok || id == ch.ctx.Table.ErrSym {
		return
	}
	if sym := ch.ctx.Table.Symbols.Get(id); sym != nil {
		sym.Type = t
	}
	delete(ch.env, id)
}

func (ch *checker) checkRaise(scope symbols.ScopeID, n *ast.Raise) {
	if n.Exc == nil {
		return
	}
	in := ch.ctx.Types
	et := ch.exprType(scope, n.Exc)
	switch in.KindOf(et) {
	case types.KindAny, types.KindError:
		return
	}
	exc := ch.exceptionType()
	if exc.IsValid() && in.Assignable(et, exc) {
		return
	}
	ch.ctx.errorf(diag.SemaTypeMismatch, n.Exc.Span(),
		"can only raise Exception instances, got %s", in.String(et))
}

// checkExceptType resolves `except T` / `except (A, B)` to the caught
// type.
func (ch *checker) checkExceptType(scope symbols.ScopeID, x ast.Expr) types.TypeID {
	in := ch.ctx.Types
	if x == nil {
		return ch.exceptionType()
	}
	if tup, ok := x.(*ast.TupleLit); ok {
		parts := make([]types.TypeID, len(tup.Elems))
		for i, e := range tup.Elems {
			parts[i] = ch.checkExceptType(scope, e)
		}
		return in.Union(parts...)
	}
	et := ch.exprType(scope, x)
	switch in.KindOf(et) {
	case types.KindAny, types.KindError:
		return in.Builtins.Any
	case types.KindClass:
		exc := ch.exceptionType()
		if !exc.IsValid() || in.Assignable(et, exc) {
			return et
		}
	}
	ch.ctx.errorf(diag.SemaTypeMismatch, x.Span(),
		"except clause requires an exception class, got %s", in.String(et))
	return in.Builtins.Error
}

func (ch *checker) exceptionType() types.TypeID {
	if id, ok := ch.ctx.Table.Lookup(ch.ctx.Table.Builtin, "Exception"); ok {
		if sym := ch.ctx.Table.Symbols.Get(id); sym != nil {
			return sym.Type
		}
	}
	return types.NoTypeID
}

func (ch *checker) checkMatch(scope symbols.ScopeID, n *ast.Match) {
	ctx := ch.ctx
	subject := ch.exprType(scope, n.Subject)
	for _, mc := range n.Cases {
		caseScope := ctx.ScopeOf[mc]
		ch.bindPattern(caseScope, mc.Pattern, subject)
		if mc.Guard != nil {
			ch.condition(caseScope, mc.Guard)
		}
		ch.checkBody(caseScope, mc.Body)
	}
	ch.checkExhaustive(n, subject)
}

// bindPattern types the names a pattern binds. Class pattern fields
// match the class's declared fields positionally.
func (ch *checker) bindPattern(scope symbols.ScopeID, p ast.Pattern, subject types.TypeID) {
	ctx := ch.ctx
	in := ctx.Types
	switch n := p.(type) {
	case *ast.CapturePattern:
		if id, ok := ctx.Bindings[n]; ok {
			if sym := ctx.Table.Symbols.Get(id); sym != nil {
				sym.Type = subject
			}
		}

	case *ast.ClassPattern:
		classType := ch.exprType(scope, n.Class)
		if in.KindOf(classType) != types.KindClass {
			if in.KindOf(classType) != types.KindError {
				ctx.errorf(diag.SemaTypeMismatch, n.Class.Span(),
					"class pattern requires a class, got %s", in.String(classType))
			}
			classType = in.Builtins.Error
		}
		info := in.ClassOf(classType)
		for i, f := range n.Fields {
			fieldType := in.Builtins.Error
			if info != nil && i < len(info.FieldOrder) {
				fieldType = info.Fields[info.FieldOrder[i]]
			} else if info != nil {
				ctx.errorf(diag.SemaArityMismatch, f.Span(),
					"class %s has %d fields, pattern has %d", info.Name, len(info.FieldOrder), len(n.Fields))
			}
			ch.bindPattern(scope, f, fieldType)
		}

	case *ast.OrPattern:
		for _, alt := range n.Alts {
			ch.bindPattern(scope, alt, subject)
		}

	case *ast.LiteralPattern, *ast.WildcardPattern:
		// No bindings.
	}
}

// checkExhaustive enforces closed-world coverage of union subjects: a
// wildcard or unguarded capture covers everything, a class pattern
// covers the union members it can match, and a None literal covers the
// None member. Guarded arms cover nothing.
func (ch *checker) checkExhaustive(n *ast.Match, subject types.TypeID) {
	in := ch.ctx.Types
	d := in.Get(subject)
	if d.Kind != types.KindUnion {
		return
	}
	covered := make(map[types.TypeID]bool, len(d.Elems))
	for _, mc := range n.Cases {
		if mc.Guard != nil {
			continue
		}
		if ch.coverPattern(mc.Pattern, d.Elems, covered) {
			return
		}
	}
	var missing []string
	for _, m := range d.Elems {
		if !covered[m] {
			missing = append(missing, in.String(m))
		}
	}
	if len(missing) == 0 {
		return
	}
	msg := "match is not exhaustive: missing " + missing[0]
	for _, m := range missing[1:] {
		msg += ", " + m
	}
	ch.ctx.errorf(diag.SemaNonExhaustiveMatch, n.Loc, "%s", msg)
}

// coverPattern marks covered union members; true means the pattern
// matches any subject.
func (ch *checker) coverPattern(p ast.Pattern, members []types.TypeID, covered map[types.TypeID]bool) bool {
	in := ch.ctx.Types
	switch n := p.(type) {
	case *ast.WildcardPattern, *ast.CapturePattern:
		return true
	case *ast.LiteralPattern:
		if n.Value.Kind == ast.LitNone {
			for _, m := range members {
				if in.KindOf(m) == types.KindNone {
					covered[m] = true
				}
			}
		}
	case *ast.ClassPattern:
		classType, ok := ch.ctx.ExprTypes[n.Class]
		if !ok || in.KindOf(classType) != types.KindClass {
			return false
		}
		for _, m := range members {
			if in.Assignable(m, classType) {
				covered[m] = true
			}
		}
	case *ast.OrPattern:
		for _, alt := range n.Alts {
			if ch.coverPattern(alt, members, covered) {
				return true
			}
		}
	}
	return false
}
