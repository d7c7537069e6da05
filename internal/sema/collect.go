package sema

import (
	"errors"
	"fmt"

	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/symbols"
)

// collect is pass 1: it builds the scope tree and declares every name.
// Function and class declarations are hoisted within their body, so
// forward references inside the same scope resolve. No types are
// computed here.
func collect(ctx *Context) {
	c := &collector{ctx: ctx}
	ctx.ScopeOf[ctx.Module] = ctx.Table.Module
	c.body(ctx.Table.Module, ctx.Module.Body)
}

type collector struct {
	ctx *Context
}

// declare wraps Table.Declare with duplicate reporting and binding
// registration.
func (c *collector) declare(scope symbols.ScopeID, name string, kind symbols.SymbolKind, node ast.Node) symbols.SymbolID {
	span := node.Span()
	id, err := c.ctx.Table.Declare(scope, name, kind, span, node)
	if err != nil {
		var dup *symbols.DuplicateError
		if errors.As(err, &dup) {
			c.ctx.Bag.Add(diag.NewError(diag.SemaDuplicateDefinition, span,
				fmt.Sprintf("duplicate definition of %q", name)).
				WithNote(dup.PrevSpan, "first defined here"))
		} else {
			c.ctx.internalError(span, err)
		}
	}
	if id.IsValid() {
		c.ctx.Bindings[node] = id
	}
	return id
}

// body processes one scope body: global/nonlocal declarations first
// (they affect the whole body), then hoisted declarations, then the
// statements themselves.
func (c *collector) body(scope symbols.ScopeID, stmts []ast.Stmt) {
	c.scanScopeDirectives(scope, stmts)
	c.hoist(scope, stmts)
	for _, s := range stmts {
		c.stmt(scope, s)
	}
}

// scanScopeDirectives installs redirects for global/nonlocal names
// before any declaration in the body takes effect.
func (c *collector) scanScopeDirectives(scope symbols.ScopeID, stmts []ast.Stmt) {
	t := c.ctx.Table
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.Global:
			for i, name := range n.Names {
				span := n.Loc
				if i < len(n.NameLocs) {
					span = n.NameLocs[i]
				}
				if scope == t.Module {
					c.ctx.errorf(diag.SemaInvalidContext, span,
						"global declaration at module level has no effect")
					continue
				}
				// global creates the module binding if absent.
				id, _ := t.Declare(t.Module, name, symbols.SymbolVariable, span, n)
				if sym := t.Symbols.Get(id); sym != nil {
					sym.Flags |= symbols.SymbolFlagGlobal
				}
				t.Redirect(scope, name, t.Module)
			}
		case *ast.Nonlocal:
			for i, name := range n.Names {
				span := n.Loc
				if i < len(n.NameLocs) {
					span = n.NameLocs[i]
				}
				target := c.enclosingBinding(scope, name)
				if !target.IsValid() {
					c.ctx.errorf(diag.SemaInvalidNonlocal, span,
						"no binding for nonlocal %q found in an enclosing function", name)
					continue
				}
				if id, ok := t.Lookup(target, name); ok {
					if sym := t.Symbols.Get(id); sym != nil {
						sym.Flags |= symbols.SymbolFlagNonlocal
					}
				}
				t.Redirect(scope, name, target)
			}
		}
	}
}

// enclosingBinding finds the nearest enclosing function-like scope that
// already binds name: the target of a nonlocal declaration.
func (c *collector) enclosingBinding(from symbols.ScopeID, name string) symbols.ScopeID {
	t := c.ctx.Table
	sc := t.Scopes.Get(from)
	if sc == nil {
		return symbols.NoScopeID
	}
	for scope := sc.Parent; scope.IsValid() && scope != t.Module; {
		cur := t.Scopes.Get(scope)
		if cur == nil {
			return symbols.NoScopeID
		}
		if cur.Kind.IsFunctionLike() {
			if _, ok := cur.Names[name]; ok {
				return scope
			}
		}
		scope = cur.Parent
	}
	return symbols.NoScopeID
}

// hoist pre-declares functions, classes and type aliases so they are
// visible throughout their scope.
func (c *collector) hoist(scope symbols.ScopeID, stmts []ast.Stmt) {
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.FuncDecl:
			c.declare(scope, n.Name, symbols.SymbolFunction, n)
		case *ast.ClassDecl:
			c.declare(scope, n.Name, symbols.SymbolClass, n)
		case *ast.TypeAlias:
			c.declare(scope, n.Name, symbols.SymbolTypeAlias, n)
		}
	}
}

func (c *collector) stmt(scope symbols.ScopeID, s ast.Stmt) {
	t := c.ctx.Table
	switch n := s.(type) {
	case *ast.FuncDecl:
		fnScope := t.NewScope(symbols.ScopeFunction, scope, n, n.Loc)
		c.ctx.ScopeOf[n] = fnScope
		for _, p := range n.Params {
			c.declare(fnScope, p.Name, symbols.SymbolParameter, p)
			c.exprs(scope, p.Default) // defaults evaluate in the enclosing scope
		}
		c.body(fnScope, n.Body)

	case *ast.ClassDecl:
		classScope := t.NewScope(symbols.ScopeClass, scope, n, n.Loc)
		c.ctx.ScopeOf[n] = classScope
		c.body(classScope, n.Body)

	case *ast.VarDecl:
		c.declare(scope, n.Name, symbols.SymbolVariable, n)
		c.exprs(scope, n.Value)

	case *ast.Assign:
		for _, target := range n.Targets {
			c.target(scope, target)
		}
		c.exprs(scope, n.Value)

	case *ast.AugAssign:
		// Augmented assignment never declares; resolution happens in
		// pass 2.
		c.exprs(scope, n.Value)

	case *ast.ExprStmt:
		c.exprs(scope, n.X)
	case *ast.Return:
		c.exprs(scope, n.Value)
	case *ast.Raise:
		c.exprs(scope, n.Exc)

	case *ast.If:
		c.exprs(scope, n.Cond)
		c.stmts(scope, n.Then)
		c.stmts(scope, n.Else)
	case *ast.While:
		c.exprs(scope, n.Cond)
		c.stmts(scope, n.Body)
		c.stmts(scope, n.Else)
	case *ast.For:
		c.target(scope, n.Target)
		c.exprs(scope, n.Iter)
		c.stmts(scope, n.Body)
		c.stmts(scope, n.Else)

	case *ast.Import:
		for _, item := range n.Items {
			c.declare(scope, item.BoundName(), symbols.SymbolImport, item)
		}

	case *ast.With:
		c.exprs(scope, n.Expr)
		bodyScope := scope
		if n.Alias != nil {
			bodyScope = t.NewScope(symbols.ScopeBlock, scope, n, n.Loc)
			c.ctx.ScopeOf[n] = bodyScope
			c.declare(bodyScope, n.Alias.Ident, symbols.SymbolVariable, n.Alias)
		}
		c.stmts(bodyScope, n.Body)

	case *ast.Try:
		c.stmts(scope, n.Body)
		for _, h := range n.Handlers {
			c.exprs(scope, h.Type)
			handlerScope := scope
			if h.Alias != nil {
				handlerScope = t.NewScope(symbols.ScopeBlock, scope, h, h.Loc)
				c.ctx.ScopeOf[h] = handlerScope
				c.declare(handlerScope, h.Alias.Ident, symbols.SymbolVariable, h.Alias)
			}
			c.stmts(handlerScope, h.Body)
		}
		c.stmts(scope, n.Else)
		c.stmts(scope, n.Finally)

	case *ast.Match:
		c.exprs(scope, n.Subject)
		for _, mc := range n.Cases {
			caseScope := t.NewScope(symbols.ScopeBlock, scope, mc, mc.Loc)
			c.ctx.ScopeOf[mc] = caseScope
			c.pattern(caseScope, mc.Pattern)
			c.exprs(caseScope, mc.Guard)
			c.stmts(caseScope, mc.Body)
		}

	case *ast.TypeAlias, *ast.Global, *ast.Nonlocal,
		*ast.Break, *ast.Continue, *ast.Pass:
		// Hoisted or handled in scanScopeDirectives; nothing to walk.
	}
}

func (c *collector) stmts(scope symbols.ScopeID, list []ast.Stmt) {
	// Nested blocks share the enclosing scope; only the directive scan
	// and hoisting are body-level concerns.
	for _, s := range list {
		c.stmt(scope, s)
	}
}

// target declares assignment target names; tuple targets unpack
// recursively. Attribute and subscript targets never declare.
func (c *collector) target(scope symbols.ScopeID, target ast.Expr) {
	switch n := target.(type) {
	case *ast.Name:
		c.declare(scope, n.Ident, symbols.SymbolVariable, n)
	case *ast.TupleLit:
		for _, elem := range n.Elems {
			c.target(scope, elem)
		}
	case *ast.ListLit:
		for _, elem := range n.Elems {
			c.target(scope, elem)
		}
	case *ast.Attribute:
		c.exprs(scope, n.X)
	case *ast.Subscript:
		c.exprs(scope, n.X)
		c.exprs(scope, n.Index)
	default:
		c.ctx.errorf(diag.SemaInvalidTargetAssigns, target.Span(),
			"expression cannot be assigned to")
	}
}

func (c *collector) pattern(scope symbols.ScopeID, p ast.Pattern) {
	switch n := p.(type) {
	case *ast.CapturePattern:
		c.declare(scope, n.Name, symbols.SymbolVariable, n)
	case *ast.ClassPattern:
		for _, f := range n.Fields {
			c.pattern(scope, f)
		}
	case *ast.OrPattern:
		for _, alt := range n.Alts {
			c.pattern(scope, alt)
		}
	case *ast.LiteralPattern, *ast.WildcardPattern:
		// No bindings.
	}
}

// exprs descends into expressions to find the scope-creating ones:
// lambdas and comprehensions.
func (c *collector) exprs(scope symbols.ScopeID, roots ...ast.Expr) {
	t := c.ctx.Table
	for _, root := range roots {
		if root == nil {
			continue
		}
		ast.Inspect(root, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.Lambda:
				lambdaScope := t.NewScope(symbols.ScopeLambda, scope, x, x.Loc)
				c.ctx.ScopeOf[x] = lambdaScope
				for _, p := range x.Params {
					c.declare(lambdaScope, p.Name, symbols.SymbolParameter, p)
					c.exprs(scope, p.Default)
				}
				c.exprs(lambdaScope, x.Body)
				return false
			case *ast.Comprehension:
				compScope := t.NewScope(symbols.ScopeComprehension, scope, x, x.Loc)
				c.ctx.ScopeOf[x] = compScope
				for i, cl := range x.Clauses {
					// The first iterable evaluates in the enclosing
					// scope; the rest see the comprehension bindings.
					iterScope := compScope
					if i == 0 {
						iterScope = scope
					}
					c.exprs(iterScope, cl.Iter)
					c.target(compScope, cl.Target)
					c.exprs(compScope, cl.Conds...)
				}
				c.exprs(compScope, x.Elem, x.Value)
				return false
			}
			return true
		})
	}
}
