package sema

import (
	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/source"
	"typhon/internal/symbols"
	"typhon/internal/types"
)

// typecheck is pass 3. Types are built in two phases so mutually
// recursive declarations work: first every class and protocol is
// registered as a placeholder, then bodies are resolved against the
// full registry. Function signatures and statement checking follow.
func typecheck(ctx *Context) {
	ch := &checker{
		ctx:              ctx,
		aliases:          make(map[symbols.SymbolID]*aliasState),
		protoMethodSpans: make(map[types.TypeID]map[string]source.Span),
	}
	ch.collectDecls()
	ch.registerTypes()
	ch.defineTypes()
	ch.functionTypes()
	ch.checkConformance()
	ch.checkUnit()
}

type checker struct {
	ctx *Context

	classDecls []*ast.ClassDecl
	funcDecls  []*ast.FuncDecl

	aliases          map[symbols.SymbolID]*aliasState
	protoMethodSpans map[types.TypeID]map[string]source.Span

	// env is the active narrowing environment while statements are
	// checked; ret is the declared return type of the enclosing
	// function, NoTypeID when unannotated or at module level.
	env narrowEnv
	ret types.TypeID
}

const (
	aliasPending = iota
	aliasInProgress
	aliasDone
)

type aliasState struct {
	node  *ast.TypeAlias
	scope symbols.ScopeID
	state uint8
	typ   types.TypeID
}

// declScope returns the scope a declaration's name lives in.
func (ch *checker) declScope(decl ast.Node) symbols.ScopeID {
	id, ok := ch.ctx.Bindings[decl]
	if !ok {
		return ch.ctx.Table.Module
	}
	sym := ch.ctx.Table.Symbols.Get(id)
	if sym == nil {
		return ch.ctx.Table.Module
	}
	return sym.Scope
}

// collectDecls gathers every class, function and alias declaration in
// lexical order, plus `T = TypeVar("T")` type-variable definitions.
func (ch *checker) collectDecls() {
	ast.Inspect(ch.ctx.Module, func(n ast.Node) bool {
		switch d := n.(type) {
		case *ast.ClassDecl:
			ch.classDecls = append(ch.classDecls, d)
		case *ast.FuncDecl:
			ch.funcDecls = append(ch.funcDecls, d)
		case *ast.TypeAlias:
			if id, ok := ch.ctx.Bindings[d]; ok {
				ch.aliases[id] = &aliasState{node: d, scope: ch.declScope(d)}
			}
		case *ast.Assign:
			ch.maybeTypeVar(d)
		}
		return true
	})
}

// maybeTypeVar recognizes the `T = TypeVar("T")` idiom and gives the
// symbol a type-variable type. An optional `bound=` keyword constrains
// the variable.
func (ch *checker) maybeTypeVar(n *ast.Assign) {
	if len(n.Targets) != 1 {
		return
	}
	target, ok := n.Targets[0].(*ast.Name)
	if !ok {
		return
	}
	call, ok := n.Value.(*ast.Call)
	if !ok {
		return
	}
	callee, ok := call.Fun.(*ast.Name)
	if !ok || callee.Ident != "TypeVar" || len(call.Args) != 1 {
		return
	}
	id, ok := ch.ctx.Bindings[target]
	if !ok {
		return
	}
	sym := ch.ctx.Table.Symbols.Get(id)
	if sym == nil {
		return
	}
	bound := types.NoTypeID
	for _, kw := range call.Keywords {
		if kw.Name == "bound" {
			bound = ch.resolveAnnotation(sym.Scope, kw.Value)
		}
	}
	sym.Type = ch.ctx.Types.TypeVar(target.Ident, bound)
}

// registerTypes is phase A: allocate a nominal TypeID per class and
// protocol so annotations in any body can refer to any declaration.
func (ch *checker) registerTypes() {
	for _, d := range ch.classDecls {
		id, ok := ch.ctx.Bindings[d]
		if !ok {
			continue
		}
		sym := ch.ctx.Table.Symbols.Get(id)
		if sym == nil {
			continue
		}
		if d.IsProtocol {
			sym.Type = ch.ctx.Types.RegisterProtocol(d.Name)
		} else {
			sym.Type = ch.ctx.Types.RegisterClass(d.Name)
		}
	}
}

// defineTypes is phase B: resolve bases, fields and method signatures
// against the now-complete registry, and force every alias.
func (ch *checker) defineTypes() {
	for _, d := range ch.classDecls {
		id, ok := ch.ctx.Bindings[d]
		if !ok {
			continue
		}
		sym := ch.ctx.Table.Symbols.Get(id)
		if sym == nil || !sym.Type.IsValid() {
			continue
		}
		if d.IsProtocol {
			ch.defineProtocol(d, sym.Type)
		} else {
			ch.defineClass(d, sym.Type)
		}
	}
	for id := range ch.aliases {
		ch.resolveAlias(id)
	}
}

func (ch *checker) defineClass(d *ast.ClassDecl, classType types.TypeID) {
	in := ch.ctx.Types
	scope := ch.declScope(d)
	classScope := ch.ctx.ScopeOf[d]

	bases := make([]types.TypeID, 0, len(d.Bases))
	for _, b := range d.Bases {
		base := ch.resolveAnnotation(scope, b)
		switch in.KindOf(base) {
		case types.KindClass, types.KindProtocol, types.KindError:
			if in.KindOf(base) == types.KindClass && in.CyclicBase(classType, base) {
				ch.ctx.errorf(diag.SemaInvalidBaseClass, b.Span(),
					"base %s creates an inheritance cycle", in.String(base))
				continue
			}
			bases = append(bases, base)
		default:
			ch.ctx.errorf(diag.SemaInvalidBaseClass, b.Span(),
				"base must be a class or protocol, got %s", in.String(base))
		}
	}

	info := in.DefineClass(classType, bases)
	if info == nil {
		return
	}
	for _, s := range d.Body {
		switch m := s.(type) {
		case *ast.VarDecl:
			fieldType := ch.resolveAnnotation(classScope, m.Annotation)
			if _, exists := info.Fields[m.Name]; !exists {
				info.FieldOrder = append(info.FieldOrder, m.Name)
			}
			info.Fields[m.Name] = fieldType
		case *ast.FuncDecl:
			info.Methods[m.Name] = ch.methodSignature(classScope, m)
		}
	}
}

func (ch *checker) defineProtocol(d *ast.ClassDecl, protoType types.TypeID) {
	in := ch.ctx.Types
	classScope := ch.ctx.ScopeOf[d]
	for _, b := range d.Bases {
		ch.ctx.errorf(diag.SemaInvalidBaseClass, b.Span(),
			"protocols cannot declare bases")
	}
	info := in.DefineProtocol(protoType)
	if info == nil {
		return
	}
	spans := make(map[string]source.Span)
	for _, s := range d.Body {
		m, ok := s.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if _, exists := info.Methods[m.Name]; !exists {
			info.MethodOrder = append(info.MethodOrder, m.Name)
		}
		info.Methods[m.Name] = ch.methodSignature(classScope, m)
		spans[m.Name] = m.NameLoc
	}
	ch.protoMethodSpans[protoType] = spans
}

// methodSignature builds a method type with the self receiver dropped;
// call sites and conformance checks never see it.
func (ch *checker) methodSignature(scope symbols.ScopeID, d *ast.FuncDecl) types.TypeID {
	params := d.Params
	if len(params) > 0 && params[0].Name == "self" {
		params = params[1:]
	}
	return ch.signature(scope, params, d.Result)
}

func (ch *checker) signature(scope symbols.ScopeID, params []*ast.Param, result ast.Expr) types.TypeID {
	in := ch.ctx.Types
	typed := make([]types.Param, len(params))
	for i, p := range params {
		pt := in.Builtins.Any
		if p.Annotation != nil {
			pt = ch.resolveAnnotation(scope, p.Annotation)
		}
		typed[i] = types.Param{Name: p.Name, Type: pt, HasDefault: p.Default != nil}
	}
	rt := in.Builtins.Any
	if result != nil {
		rt = ch.resolveAnnotation(scope, result)
	}
	return in.Function(typed, rt)
}

// functionTypes assigns signature types to every function symbol and
// annotation types to its parameters. Methods drop self and self gets
// the class type.
func (ch *checker) functionTypes() {
	t := ch.ctx.Table
	for _, d := range ch.funcDecls {
		id, ok := ch.ctx.Bindings[d]
		if !ok {
			continue
		}
		sym := t.Symbols.Get(id)
		if sym == nil {
			continue
		}
		scope := sym.Scope
		owner := t.Scopes.Get(scope)
		isMethod := owner != nil && owner.Kind == symbols.ScopeClass

		params := d.Params
		var selfType types.TypeID
		if isMethod && len(params) > 0 && params[0].Name == "self" {
			if classSym, ok := ch.classSymbolOf(scope); ok {
				selfType = classSym.Type
			}
			ch.paramType(d, params[0], selfType)
			params = params[1:]
		}
		sym.Type = ch.signature(scope, params, d.Result)
		for _, p := range params {
			pt := ch.ctx.Types.Builtins.Any
			if p.Annotation != nil {
				pt = ch.resolveAnnotation(scope, p.Annotation)
			}
			ch.paramType(d, p, pt)
		}
	}
}

// paramType stores the resolved type on the parameter's symbol.
func (ch *checker) paramType(fn *ast.FuncDecl, p *ast.Param, typ types.TypeID) {
	if !typ.IsValid() {
		typ = ch.ctx.Types.Builtins.Any
	}
	fnScope, ok := ch.ctx.ScopeOf[fn]
	if !ok {
		return
	}
	if id, ok := ch.ctx.Table.Lookup(fnScope, p.Name); ok {
		if sym := ch.ctx.Table.Symbols.Get(id); sym != nil {
			sym.Type = typ
		}
	}
}

// classSymbolOf maps a class scope back to the class symbol.
func (ch *checker) classSymbolOf(classScope symbols.ScopeID) (*symbols.Symbol, bool) {
	sc := ch.ctx.Table.Scopes.Get(classScope)
	if sc == nil {
		return nil, false
	}
	decl, ok := sc.Owner.(*ast.ClassDecl)
	if !ok {
		return nil, false
	}
	id, ok := ch.ctx.Bindings[decl]
	if !ok {
		return nil, false
	}
	sym := ch.ctx.Table.Symbols.Get(id)
	return sym, sym != nil
}

// checkConformance verifies every class against its protocol bases.
func (ch *checker) checkConformance() {
	in := ch.ctx.Types
	for _, d := range ch.classDecls {
		if d.IsProtocol {
			continue
		}
		id, ok := ch.ctx.Bindings[d]
		if !ok {
			continue
		}
		sym := ch.ctx.Table.Symbols.Get(id)
		if sym == nil {
			continue
		}
		info := in.ClassOf(sym.Type)
		if info == nil {
			continue
		}
		for _, base := range info.Bases {
			if in.KindOf(base) != types.KindProtocol {
				continue
			}
			fail := in.Conforms(sym.Type, base)
			if fail == nil {
				continue
			}
			proto := in.ProtocolOf(base)
			protoName := "protocol"
			if proto != nil {
				protoName = proto.Name
			}
			var msg string
			if !fail.Got.IsValid() {
				msg = "class " + d.Name + " does not conform to " + protoName +
					": missing method " + fail.Method
			} else {
				msg = "class " + d.Name + " does not conform to " + protoName +
					": method " + fail.Method + " has type " + in.String(fail.Got) +
					", protocol requires " + in.String(fail.Want)
			}
			if span, ok := ch.protoMethodSpans[base][fail.Method]; ok {
				ch.ctx.errorWithNote(diag.SemaProtocolConformance, d.NameLoc, msg,
					span, "required here")
			} else {
				ch.ctx.errorf(diag.SemaProtocolConformance, d.NameLoc, "%s", msg)
			}
		}
	}
}
