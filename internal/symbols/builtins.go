package symbols

import (
	"typhon/internal/source"
	"typhon/internal/types"
)

// registerPrelude declares the built-in names every module sees. Typed
// signatures follow the runtime's builtins; helpers with variadic or
// overloaded shapes get Any and are checked loosely.
func registerPrelude(t *Table, in *types.Interner) {
	b := in.Builtins
	fn := func(result types.TypeID, params ...types.Param) types.TypeID {
		return in.Function(params, result)
	}
	p := func(name string, typ types.TypeID) types.Param {
		return types.Param{Name: name, Type: typ}
	}

	typed := map[string]types.TypeID{
		"len":        fn(b.Int, p("obj", b.Any)),
		"abs":        fn(b.Any, p("x", b.Any)),
		"repr":       fn(b.Str, p("obj", b.Any)),
		"str":        fn(b.Str, p("obj", b.Any)),
		"int":        fn(b.Int, p("obj", b.Any)),
		"float":      fn(b.Float, p("obj", b.Any)),
		"bool":       fn(b.Bool, p("obj", b.Any)),
		"bytes":      fn(b.Bytes, p("obj", b.Any)),
		"hash":       fn(b.Int, p("obj", b.Any)),
		"id":         fn(b.Int, p("obj", b.Any)),
		"callable":   fn(b.Bool, p("obj", b.Any)),
		"isinstance": fn(b.Bool, p("obj", b.Any), p("classinfo", b.Any)),
		"issubclass": fn(b.Bool, p("cls", b.Any), p("classinfo", b.Any)),
		"hasattr":    fn(b.Bool, p("obj", b.Any), p("name", b.Str)),
		"input":      fn(b.Str, types.Param{Name: "prompt", Type: b.Str, HasDefault: true}),
		"any":        fn(b.Bool, p("iterable", b.Any)),
		"all":        fn(b.Bool, p("iterable", b.Any)),
		"round":      fn(b.Int, p("number", b.Float)),
		"ord":        fn(b.Int, p("c", b.Str)),
		"chr":        fn(b.Str, p("i", b.Int)),
		"range": fn(in.List(b.Int),
			p("start", b.Int),
			types.Param{Name: "stop", Type: b.Int, HasDefault: true},
			types.Param{Name: "step", Type: b.Int, HasDefault: true}),
	}
	for _, name := range []string{
		"print", "min", "max", "sum", "sorted", "reversed", "enumerate",
		"zip", "map", "filter", "list", "dict", "set", "tuple", "type",
		"open", "next", "iter", "getattr", "setattr",
	} {
		typed[name] = b.Any
	}

	for name, typ := range typed {
		id, _ := t.Declare(t.Builtin, name, SymbolBuiltin, source.Span{}, nil)
		sym := t.Symbols.Get(id)
		sym.Type = typ
		sym.Flags |= SymbolFlagBuiltin | SymbolFlagAssigned
		// Prelude names are lowercase; drop convention-derived flags.
		sym.Flags &^= SymbolFlagConstant | SymbolFlagPrivate
	}

	registerExceptions(t, in)
}

// registerExceptions installs the exception hierarchy as real classes
// so except clauses and raise statements type-check against it.
func registerExceptions(t *Table, in *types.Interner) {
	exc := in.RegisterClass("Exception")
	ctor := in.Function([]types.Param{
		{Name: "message", Type: in.Builtins.Any, HasDefault: true},
	}, in.Builtins.None)
	in.DefineClass(exc, nil).Methods["__init__"] = ctor
	declClass := func(name string, id types.TypeID) {
		symID, _ := t.Declare(t.Builtin, name, SymbolBuiltin, source.Span{}, nil)
		sym := t.Symbols.Get(symID)
		sym.Type = id
		sym.Flags |= SymbolFlagBuiltin | SymbolFlagAssigned
		sym.Flags &^= SymbolFlagConstant | SymbolFlagPrivate
	}
	declClass("Exception", exc)
	for _, name := range []string{
		"ValueError", "TypeError", "KeyError", "IndexError",
		"RuntimeError", "StopIteration", "ZeroDivisionError",
		"NotImplementedError", "AttributeError",
	} {
		sub := in.RegisterClass(name)
		in.DefineClass(sub, []types.TypeID{exc})
		declClass(name, sub)
	}
}
