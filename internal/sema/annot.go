package sema

import (
	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/symbols"
	"typhon/internal/types"
)

// resolveAnnotation interprets annotation syntax as a type: names,
// `list[T]` style subscripts, `A | B` unions and `None`. Annotations
// resolve against the class/protocol/alias registry, so mutually
// recursive declarations succeed. Failures report SemaInvalidAnnotation
// and yield the error sentinel type.
func (ch *checker) resolveAnnotation(scope symbols.ScopeID, x ast.Expr) types.TypeID {
	in := ch.ctx.Types
	if x == nil {
		return in.Builtins.Any
	}
	switch n := x.(type) {
	case *ast.Name:
		return ch.resolveTypeName(scope, n)

	case *ast.Literal:
		if n.Kind == ast.LitNone {
			return in.Builtins.None
		}

	case *ast.Binary:
		if n.Op == ast.OpBitOr {
			return in.Union(
				ch.resolveAnnotation(scope, n.X),
				ch.resolveAnnotation(scope, n.Y),
			)
		}

	case *ast.Subscript:
		return ch.resolveGeneric(scope, n)
	}
	ch.ctx.errorf(diag.SemaInvalidAnnotation, x.Span(), "invalid type annotation")
	return in.Builtins.Error
}

func (ch *checker) resolveTypeName(scope symbols.ScopeID, n *ast.Name) types.TypeID {
	in := ch.ctx.Types
	switch n.Ident {
	case "Any":
		return in.Builtins.Any
	case "Never":
		return in.Builtins.Never
	case "None":
		return in.Builtins.None
	case "bool":
		return in.Builtins.Bool
	case "int":
		return in.Builtins.Int
	case "float":
		return in.Builtins.Float
	case "str":
		return in.Builtins.Str
	case "bytes":
		return in.Builtins.Bytes
	case "list":
		return in.List(in.Builtins.Any)
	case "set":
		return in.Set(in.Builtins.Any)
	case "dict":
		return in.Dict(in.Builtins.Any, in.Builtins.Any)
	case "tuple":
		return in.Builtins.Any
	}

	id, ok := ch.ctx.Table.LookupLEGB(scope, n.Ident)
	if !ok {
		ch.ctx.errorf(diag.SemaInvalidAnnotation, n.Loc, "unknown type %q", n.Ident)
		return in.Builtins.Error
	}
	sym := ch.ctx.Table.Symbols.Get(id)
	switch sym.Kind {
	case symbols.SymbolClass:
		ch.ctx.Bindings[n] = id
		return sym.Type
	case symbols.SymbolTypeAlias:
		ch.ctx.Bindings[n] = id
		return ch.resolveAlias(id)
	case symbols.SymbolBuiltin:
		// Exception classes from the prelude.
		if ch.ctx.Types.KindOf(sym.Type) == types.KindClass {
			ch.ctx.Bindings[n] = id
			return sym.Type
		}
	case symbols.SymbolVariable:
		// `T = TypeVar("T")` declarations.
		if ch.ctx.Types.KindOf(sym.Type) == types.KindTypeVar {
			ch.ctx.Bindings[n] = id
			return sym.Type
		}
	}
	ch.ctx.errorf(diag.SemaInvalidAnnotation, n.Loc, "%q is not a type", n.Ident)
	return in.Builtins.Error
}

func (ch *checker) resolveGeneric(scope symbols.ScopeID, n *ast.Subscript) types.TypeID {
	in := ch.ctx.Types
	base, ok := n.X.(*ast.Name)
	if !ok {
		ch.ctx.errorf(diag.SemaInvalidAnnotation, n.Loc, "invalid type annotation")
		return in.Builtins.Error
	}

	args := ch.annotationArgs(scope, n.Index)
	arity := func(want int) bool {
		if len(args) != want {
			ch.ctx.errorf(diag.SemaInvalidAnnotation, n.Loc,
				"%s[] expects %d type argument(s), got %d", base.Ident, want, len(args))
			return false
		}
		return true
	}

	switch base.Ident {
	case "list":
		if !arity(1) {
			return in.Builtins.Error
		}
		return in.List(args[0])
	case "set":
		if !arity(1) {
			return in.Builtins.Error
		}
		return in.Set(args[0])
	case "dict":
		if !arity(2) {
			return in.Builtins.Error
		}
		return in.Dict(args[0], args[1])
	case "tuple":
		return in.Tuple(args)
	case "Optional":
		if !arity(1) {
			return in.Builtins.Error
		}
		return in.Optional(args[0])
	case "Union":
		return in.Union(args...)
	}
	ch.ctx.errorf(diag.SemaInvalidAnnotation, n.Loc, "%q is not a generic type", base.Ident)
	return in.Builtins.Error
}

// annotationArgs splits `dict[str, int]` style argument lists: a tuple
// index is several arguments, anything else is one.
func (ch *checker) annotationArgs(scope symbols.ScopeID, index ast.Expr) []types.TypeID {
	if tup, ok := index.(*ast.TupleLit); ok {
		out := make([]types.TypeID, len(tup.Elems))
		for i, e := range tup.Elems {
			out[i] = ch.resolveAnnotation(scope, e)
		}
		return out
	}
	return []types.TypeID{ch.resolveAnnotation(scope, index)}
}

// resolveAlias resolves a type alias on demand, detecting cycles.
func (ch *checker) resolveAlias(id symbols.SymbolID) types.TypeID {
	in := ch.ctx.Types
	st, ok := ch.aliases[id]
	if !ok {
		return in.Builtins.Error
	}
	switch st.state {
	case aliasDone:
		return st.typ
	case aliasInProgress:
		ch.ctx.errorf(diag.SemaInvalidAnnotation, st.node.NameLoc,
			"type alias %q refers to itself", st.node.Name)
		st.state = aliasDone
		st.typ = in.Builtins.Error
		return st.typ
	}
	st.state = aliasInProgress
	st.typ = ch.resolveAnnotation(st.scope, st.node.Value)
	st.state = aliasDone
	if sym := ch.ctx.Table.Symbols.Get(id); sym != nil {
		sym.Type = st.typ
	}
	return st.typ
}
