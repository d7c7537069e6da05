package sema

import (
	"strconv"

	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/source"
	"typhon/internal/symbols"
	"typhon/internal/types"
)

// exprType infers the type of an expression, records it in
// Context.ExprTypes and returns it. Inference never fails: every error
// path reports a diagnostic and yields the error sentinel so the walk
// continues.
func (ch *checker) exprType(scope symbols.ScopeID, x ast.Expr) types.TypeID {
	if x == nil {
		return ch.ctx.Types.Builtins.None
	}
	t := ch.infer(scope, x)
	if !t.IsValid() {
		t = ch.ctx.Types.Builtins.Error
	}
	ch.ctx.ExprTypes[x] = t
	return t
}

func (ch *checker) infer(scope symbols.ScopeID, x ast.Expr) types.TypeID {
	in := ch.ctx.Types
	b := in.Builtins
	switch n := x.(type) {
	case *ast.Name:
		return ch.nameType(n)

	case *ast.Literal:
		switch n.Kind {
		case ast.LitInt:
			return b.Int
		case ast.LitFloat:
			return b.Float
		case ast.LitStr:
			return b.Str
		case ast.LitBytes:
			return b.Bytes
		case ast.LitBool:
			return b.Bool
		case ast.LitNone:
			return b.None
		}
		return b.Error

	case *ast.Binary:
		lt := ch.exprType(scope, n.X)
		rt := ch.exprType(scope, n.Y)
		return ch.binaryType(n.Op, lt, rt, n.Loc)

	case *ast.Unary:
		return ch.unaryType(scope, n)

	case *ast.BoolOp:
		// `a and b` / `a or b` evaluates to one of its operands. In a
		// conjunction each operand sees the narrowing of those before
		// it, so `x is not None and x.upper()` checks.
		parts := make([]types.TypeID, len(n.Values))
		env := ch.env
		for i, v := range n.Values {
			parts[i] = ch.withEnv(env, func() types.TypeID {
				return ch.exprType(scope, v)
			})
			if n.Op == ast.OpAnd {
				env = ch.withEnvNarrow(env, scope, v)
			}
		}
		return in.Union(parts...)

	case *ast.Compare:
		return ch.compareType(scope, n)

	case *ast.Call:
		return ch.callType(scope, n)

	case *ast.Attribute:
		return ch.attributeType(scope, n)

	case *ast.Subscript:
		return ch.subscriptType(scope, n)

	case *ast.ListLit:
		return in.List(ch.elemUnion(scope, n.Elems))

	case *ast.SetLit:
		return in.Set(ch.elemUnion(scope, n.Elems))

	case *ast.TupleLit:
		elems := make([]types.TypeID, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = ch.exprType(scope, e)
		}
		return in.Tuple(elems)

	case *ast.DictLit:
		if len(n.Keys) == 0 {
			return in.Dict(b.Any, b.Any)
		}
		keys := make([]types.TypeID, len(n.Keys))
		values := make([]types.TypeID, len(n.Values))
		for i := range n.Keys {
			keys[i] = ch.exprType(scope, n.Keys[i])
			values[i] = ch.exprType(scope, n.Values[i])
		}
		return in.Dict(in.Union(keys...), in.Union(values...))

	case *ast.Lambda:
		return ch.lambdaType(scope, n)

	case *ast.Comprehension:
		return ch.comprehensionType(scope, n)

	case *ast.Yield:
		ch.exprType(scope, n.Value)
		return b.Any

	case *ast.Cond:
		ch.condition(scope, n.Cond)
		thenEnv, elseEnv := ch.narrowCondition(scope, n.Cond)
		thenType := ch.withEnv(thenEnv, func() types.TypeID {
			return ch.exprType(scope, n.Then)
		})
		elseType := ch.withEnv(elseEnv, func() types.TypeID {
			return ch.exprType(scope, n.Else)
		})
		return in.Union(thenType, elseType)
	}
	return b.Error
}

// nameType resolves a reference through the narrowing environment
// first, then falls back to the symbol's declared or inferred type.
// Symbols with no type yet (imports, unannotated names before their
// first assignment) read as Any.
func (ch *checker) nameType(n *ast.Name) types.TypeID {
	id, ok := ch.ctx.Bindings[n]
	if !ok {
		return ch.ctx.Types.Builtins.Error
	}
	if id == ch.ctx.Table.ErrSym {
		return ch.ctx.Types.Builtins.Error
	}
	if t, ok := ch.env[id]; ok {
		return t
	}
	sym := ch.ctx.Table.Symbols.Get(id)
	if sym == nil || !sym.Type.IsValid() {
		return ch.ctx.Types.Builtins.Any
	}
	return sym.Type
}

func (ch *checker) elemUnion(scope symbols.ScopeID, elems []ast.Expr) types.TypeID {
	if len(elems) == 0 {
		return ch.ctx.Types.Builtins.Any
	}
	parts := make([]types.TypeID, len(elems))
	for i, e := range elems {
		parts[i] = ch.exprType(scope, e)
	}
	return ch.ctx.Types.Union(parts...)
}

func (ch *checker) binaryType(op ast.BinOp, lt, rt types.TypeID, span source.Span) types.TypeID {
	in := ch.ctx.Types
	b := in.Builtins
	lk, rk := in.KindOf(lt), in.KindOf(rt)
	if lk == types.KindAny || lk == types.KindError || rk == types.KindAny || rk == types.KindError {
		return b.Any
	}

	bothInt := lk == types.KindInt && rk == types.KindInt
	bothFloat := lk == types.KindFloat && rk == types.KindFloat

	switch op {
	case ast.OpAdd:
		switch {
		case bothInt:
			return b.Int
		case bothFloat:
			return b.Float
		case lk == types.KindStr && rk == types.KindStr:
			return b.Str
		case lk == types.KindBytes && rk == types.KindBytes:
			return b.Bytes
		case lk == types.KindList && rk == types.KindList && lt == rt:
			return lt
		case lk == types.KindTuple && rk == types.KindTuple:
			return in.Tuple(append(append([]types.TypeID{}, in.Get(lt).Elems...), in.Get(rt).Elems...))
		}

	case ast.OpSub:
		switch {
		case bothInt:
			return b.Int
		case bothFloat:
			return b.Float
		case lk == types.KindSet && rk == types.KindSet && lt == rt:
			return lt
		}

	case ast.OpMul:
		switch {
		case bothInt:
			return b.Int
		case bothFloat:
			return b.Float
		case lk == types.KindStr && rk == types.KindInt:
			return b.Str
		case lk == types.KindList && rk == types.KindInt:
			return lt
		}

	case ast.OpDiv:
		// True division of integers produces float.
		switch {
		case bothInt:
			return b.Float
		case bothFloat:
			return b.Float
		}

	case ast.OpFloorDiv, ast.OpMod, ast.OpPow:
		switch {
		case bothInt:
			return b.Int
		case bothFloat:
			return b.Float
		}

	case ast.OpBitOr, ast.OpBitAnd, ast.OpBitXor:
		switch {
		case bothInt:
			return b.Int
		case lk == types.KindSet && rk == types.KindSet && lt == rt:
			return lt
		}

	case ast.OpLShift, ast.OpRShift:
		if bothInt {
			return b.Int
		}
	}

	ch.ctx.errorf(diag.SemaUnsupportedOperator, span,
		"operator %s is not defined for %s and %s", op, in.String(lt), in.String(rt))
	return b.Error
}

func (ch *checker) unaryType(scope symbols.ScopeID, n *ast.Unary) types.TypeID {
	in := ch.ctx.Types
	b := in.Builtins
	ot := ch.exprType(scope, n.X)
	ok := in.KindOf(ot)
	if ok == types.KindAny || ok == types.KindError {
		if n.Op == ast.OpNot {
			return b.Bool
		}
		return b.Any
	}
	switch n.Op {
	case ast.OpNeg, ast.OpPos:
		if ok == types.KindInt {
			return b.Int
		}
		if ok == types.KindFloat {
			return b.Float
		}
	case ast.OpNot:
		return b.Bool
	case ast.OpInvert:
		if ok == types.KindInt {
			return b.Int
		}
	}
	ch.ctx.errorf(diag.SemaUnsupportedOperator, n.Loc,
		"operator %s is not defined for %s", n.Op, in.String(ot))
	return b.Error
}

// compareType checks each link of a comparison chain and yields bool.
// Ordering requires both sides to share a primitive ordered type;
// identity and equality accept anything; membership requires an
// iterable right side.
func (ch *checker) compareType(scope symbols.ScopeID, n *ast.Compare) types.TypeID {
	in := ch.ctx.Types
	b := in.Builtins
	left := ch.exprType(scope, n.X)
	for i, op := range n.Ops {
		if i >= len(n.Comparators) {
			break
		}
		right := ch.exprType(scope, n.Comparators[i])
		switch op {
		case ast.OpLt, ast.OpLtE, ast.OpGt, ast.OpGtE:
			if !ch.ordered(left, right) {
				ch.ctx.errorf(diag.SemaUnsupportedOperator, n.Loc,
					"operator %s is not defined for %s and %s", op, in.String(left), in.String(right))
			}
		case ast.OpIn, ast.OpNotIn:
			if _, ok := ch.elemOf(right); !ok {
				ch.ctx.errorf(diag.SemaNotIterable, n.Comparators[i].Span(),
					"%s is not iterable", in.String(right))
			}
		}
		left = right
	}
	return b.Bool
}

func (ch *checker) ordered(lt, rt types.TypeID) bool {
	in := ch.ctx.Types
	lk, rk := in.KindOf(lt), in.KindOf(rt)
	if lk == types.KindAny || lk == types.KindError || rk == types.KindAny || rk == types.KindError {
		return true
	}
	if lk != rk {
		return false
	}
	switch lk {
	case types.KindInt, types.KindFloat, types.KindStr, types.KindBytes:
		return true
	}
	return false
}

// callType checks a call site against the callee's signature. Classes
// construct through __init__; Any and the error sentinel accept any
// argument list.
func (ch *checker) callType(scope symbols.ScopeID, n *ast.Call) types.TypeID {
	in := ch.ctx.Types
	b := in.Builtins
	callee := ch.exprType(scope, n.Fun)
	d := in.Get(callee)

	switch d.Kind {
	case types.KindAny, types.KindError:
		for _, a := range n.Args {
			ch.exprType(scope, a)
		}
		for _, kw := range n.Keywords {
			ch.exprType(scope, kw.Value)
		}
		return b.Any

	case types.KindFunction:
		ch.checkArgs(scope, n, d.Params)
		return d.Result

	case types.KindClass:
		var params []types.Param
		if init, ok := in.MethodOn(callee, "__init__"); ok {
			params = in.Get(init).Params
		}
		ch.checkArgs(scope, n, params)
		return callee
	}

	for _, a := range n.Args {
		ch.exprType(scope, a)
	}
	for _, kw := range n.Keywords {
		ch.exprType(scope, kw.Value)
	}
	ch.ctx.errorf(diag.SemaNotCallable, n.Fun.Span(),
		"%s is not callable", in.String(callee))
	return b.Error
}

// checkArgs matches positional then keyword arguments against params,
// verifying arity, keyword names and per-argument assignability.
func (ch *checker) checkArgs(scope symbols.ScopeID, n *ast.Call, params []types.Param) {
	in := ch.ctx.Types
	bound := make([]bool, len(params))

	if len(n.Args) > len(params) {
		ch.ctx.errorf(diag.SemaArityMismatch, n.Loc,
			"too many arguments: expected at most %d, got %d", len(params), len(n.Args))
	}
	for i, a := range n.Args {
		at := ch.exprType(scope, a)
		if i >= len(params) {
			continue
		}
		bound[i] = true
		if !in.Assignable(at, params[i].Type) {
			ch.ctx.errorf(diag.SemaTypeMismatch, a.Span(),
				"cannot use %s as %s", in.String(at), in.String(params[i].Type))
		}
	}

	for _, kw := range n.Keywords {
		vt := ch.exprType(scope, kw.Value)
		idx := -1
		for i, p := range params {
			if p.Name == kw.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			ch.ctx.errorf(diag.SemaUnknownKeywordArg, kw.Loc,
				"unknown keyword argument %q", kw.Name)
			continue
		}
		if bound[idx] {
			ch.ctx.errorf(diag.SemaArityMismatch, kw.Loc,
				"argument %q given more than once", kw.Name)
			continue
		}
		bound[idx] = true
		if !in.Assignable(vt, params[idx].Type) {
			ch.ctx.errorf(diag.SemaTypeMismatch, kw.Value.Span(),
				"cannot use %s as %s", in.String(vt), in.String(params[idx].Type))
		}
	}

	for i, p := range params {
		if !bound[i] && !p.HasDefault {
			name := p.Name
			if name == "" {
				name = strconv.Itoa(i + 1)
			}
			ch.ctx.errorf(diag.SemaArityMismatch, n.Loc,
				"missing required argument %q", name)
		}
	}
}

func (ch *checker) attributeType(scope symbols.ScopeID, n *ast.Attribute) types.TypeID {
	in := ch.ctx.Types
	recv := ch.exprType(scope, n.X)
	if t, ok := in.FieldOn(recv, n.Attr); ok {
		return t
	}
	if t, ok := in.MethodOn(recv, n.Attr); ok {
		return t
	}
	ch.ctx.errorf(diag.SemaUnknownAttribute, n.AttrLoc,
		"%s has no attribute %q", in.String(recv), n.Attr)
	return in.Builtins.Error
}

func (ch *checker) subscriptType(scope symbols.ScopeID, n *ast.Subscript) types.TypeID {
	in := ch.ctx.Types
	b := in.Builtins
	recv := ch.exprType(scope, n.X)
	idx := ch.exprType(scope, n.Index)
	d := in.Get(recv)

	switch d.Kind {
	case types.KindAny, types.KindError:
		return b.Any

	case types.KindList:
		ch.requireIndex(idx, b.Int, n.Index)
		return d.Elem

	case types.KindDict:
		if !in.Assignable(idx, d.Key) {
			ch.ctx.errorf(diag.SemaTypeMismatch, n.Index.Span(),
				"cannot use %s as dict key type %s", in.String(idx), in.String(d.Key))
		}
		return d.Value

	case types.KindTuple:
		ch.requireIndex(idx, b.Int, n.Index)
		if lit, ok := n.Index.(*ast.Literal); ok && lit.Kind == ast.LitInt {
			if i, err := strconv.Atoi(lit.Value); err == nil && i >= 0 && i < len(d.Elems) {
				return d.Elems[i]
			}
		}
		return in.Union(d.Elems...)

	case types.KindStr:
		ch.requireIndex(idx, b.Int, n.Index)
		return b.Str

	case types.KindBytes:
		ch.requireIndex(idx, b.Int, n.Index)
		return b.Int
	}

	ch.ctx.errorf(diag.SemaNotSubscriptable, n.Loc,
		"%s is not subscriptable", in.String(recv))
	return b.Error
}

func (ch *checker) requireIndex(got, want types.TypeID, at ast.Expr) {
	in := ch.ctx.Types
	if !in.Assignable(got, want) {
		ch.ctx.errorf(diag.SemaTypeMismatch, at.Span(),
			"index must be %s, got %s", in.String(want), in.String(got))
	}
}

func (ch *checker) lambdaType(scope symbols.ScopeID, n *ast.Lambda) types.TypeID {
	in := ch.ctx.Types
	lambdaScope, ok := ch.ctx.ScopeOf[n]
	if !ok {
		return in.Builtins.Error
	}
	params := make([]types.Param, len(n.Params))
	for i, p := range n.Params {
		pt := in.Builtins.Any
		if p.Annotation != nil {
			pt = ch.resolveAnnotation(scope, p.Annotation)
		}
		if p.Default != nil {
			dt := ch.exprType(scope, p.Default)
			if !in.Assignable(dt, pt) {
				ch.ctx.errorf(diag.SemaTypeMismatch, p.Default.Span(),
					"default value %s does not match parameter type %s", in.String(dt), in.String(pt))
			}
		}
		if id, ok := ch.ctx.Table.Lookup(lambdaScope, p.Name); ok {
			if sym := ch.ctx.Table.Symbols.Get(id); sym != nil {
				sym.Type = pt
			}
		}
		params[i] = types.Param{Name: p.Name, Type: pt, HasDefault: p.Default != nil}
	}
	result := ch.exprType(lambdaScope, n.Body)
	return in.Function(params, result)
}

func (ch *checker) comprehensionType(scope symbols.ScopeID, n *ast.Comprehension) types.TypeID {
	in := ch.ctx.Types
	compScope, ok := ch.ctx.ScopeOf[n]
	if !ok {
		return in.Builtins.Error
	}
	for i, cl := range n.Clauses {
		iterScope := compScope
		if i == 0 {
			iterScope = scope
		}
		iterType := ch.exprType(iterScope, cl.Iter)
		elem, iterable := ch.elemOf(iterType)
		if !iterable {
			ch.ctx.errorf(diag.SemaNotIterable, cl.Iter.Span(),
				"%s is not iterable", in.String(iterType))
			elem = in.Builtins.Error
		}
		ch.bindTarget(compScope, cl.Target, elem)
		for _, cond := range cl.Conds {
			ch.condition(compScope, cond)
		}
	}
	elemType := ch.exprType(compScope, n.Elem)
	switch n.Kind {
	case ast.CompSet:
		return in.Set(elemType)
	case ast.CompDict:
		return in.Dict(elemType, ch.exprType(compScope, n.Value))
	default:
		// Generator results are consumed like lists here.
		return in.List(elemType)
	}
}

// elemOf returns the element type produced by iterating id. Dicts
// iterate their keys.
func (ch *checker) elemOf(id types.TypeID) (types.TypeID, bool) {
	in := ch.ctx.Types
	d := in.Get(id)
	switch d.Kind {
	case types.KindAny, types.KindError:
		return in.Builtins.Any, true
	case types.KindList, types.KindSet:
		return d.Elem, true
	case types.KindDict:
		return d.Key, true
	case types.KindTuple:
		return in.Union(d.Elems...), true
	case types.KindStr:
		return in.Builtins.Str, true
	case types.KindBytes:
		return in.Builtins.Int, true
	case types.KindUnion:
		parts := make([]types.TypeID, 0, len(d.Elems))
		for _, m := range d.Elems {
			elem, ok := ch.elemOf(m)
			if !ok {
				return types.NoTypeID, false
			}
			parts = append(parts, elem)
		}
		return in.Union(parts...), true
	}
	return types.NoTypeID, false
}

// condition types a boolean context and reports non-bool conditions.
func (ch *checker) condition(scope symbols.ScopeID, x ast.Expr) {
	if x == nil {
		return
	}
	in := ch.ctx.Types
	t := ch.exprType(scope, x)
	switch in.KindOf(t) {
	case types.KindBool, types.KindAny, types.KindError:
	default:
		ch.ctx.errorf(diag.SemaConditionNotBool, x.Span(),
			"condition must be bool, got %s", in.String(t))
	}
}
