package types

// MethodOn looks up a method on a receiver type: class methods through
// the base chain, then the built-in method tables of the container and
// string types.
func (in *Interner) MethodOn(recv TypeID, name string) (TypeID, bool) {
	d := in.Get(recv)
	switch d.Kind {
	case KindClass:
		seen := make(map[*ClassInfo]struct{})
		for info := in.ClassOf(recv); info != nil; info = in.nextBase(info) {
			if _, dup := seen[info]; dup {
				break
			}
			seen[info] = struct{}{}
			if m, ok := info.Methods[name]; ok {
				return m, true
			}
		}
		return NoTypeID, false
	case KindProtocol:
		info := in.ProtocolOf(recv)
		if info == nil {
			return NoTypeID, false
		}
		m, ok := info.Methods[name]
		return m, ok
	case KindStr:
		return in.strMethod(name)
	case KindBytes:
		return in.bytesMethod(name)
	case KindList:
		return in.listMethod(d.Elem, name)
	case KindSet:
		return in.setMethod(d.Elem, name)
	case KindDict:
		return in.dictMethod(d.Key, d.Value, name)
	case KindAny, KindError:
		// Unknown receivers accept any method without a diagnostic.
		return in.Builtins.Any, true
	}
	return NoTypeID, false
}

// FieldOn looks up a declared field on a class through its base chain.
func (in *Interner) FieldOn(recv TypeID, name string) (TypeID, bool) {
	d := in.Get(recv)
	switch d.Kind {
	case KindClass:
		seen := make(map[*ClassInfo]struct{})
		for info := in.ClassOf(recv); info != nil; info = in.nextBase(info) {
			if _, dup := seen[info]; dup {
				break
			}
			seen[info] = struct{}{}
			if f, ok := info.Fields[name]; ok {
				return f, true
			}
		}
		return NoTypeID, false
	case KindAny, KindError:
		return in.Builtins.Any, true
	}
	return NoTypeID, false
}

// nextBase follows single inheritance; with several bases the first
// class base wins (the rest are typically protocols).
func (in *Interner) nextBase(info *ClassInfo) *ClassInfo {
	for _, base := range info.Bases {
		if in.KindOf(base) == KindClass {
			return in.ClassOf(base)
		}
	}
	return nil
}

func (in *Interner) method(params []Param, result TypeID) TypeID {
	return in.Function(params, result)
}

func (in *Interner) strMethod(name string) (TypeID, bool) {
	b := in.Builtins
	switch name {
	case "upper", "lower", "strip", "lstrip", "rstrip", "capitalize", "title":
		return in.method(nil, b.Str), true
	case "split":
		return in.method([]Param{{Name: "sep", Type: b.Str, HasDefault: true}}, in.List(b.Str)), true
	case "join":
		return in.method([]Param{{Name: "items", Type: in.List(b.Str)}}, b.Str), true
	case "startswith", "endswith":
		return in.method([]Param{{Name: "affix", Type: b.Str}}, b.Bool), true
	case "replace":
		return in.method([]Param{{Name: "old", Type: b.Str}, {Name: "new", Type: b.Str}}, b.Str), true
	case "find", "rfind", "count", "index":
		return in.method([]Param{{Name: "sub", Type: b.Str}}, b.Int), true
	case "isdigit", "isalpha", "isalnum", "isspace", "isupper", "islower":
		return in.method(nil, b.Bool), true
	case "encode":
		return in.method(nil, b.Bytes), true
	}
	return NoTypeID, false
}

func (in *Interner) bytesMethod(name string) (TypeID, bool) {
	b := in.Builtins
	switch name {
	case "decode":
		return in.method(nil, b.Str), true
	case "hex":
		return in.method(nil, b.Str), true
	}
	return NoTypeID, false
}

func (in *Interner) listMethod(elem TypeID, name string) (TypeID, bool) {
	b := in.Builtins
	switch name {
	case "append", "remove":
		return in.method([]Param{{Name: "x", Type: elem}}, b.None), true
	case "pop":
		return in.method(nil, elem), true
	case "extend":
		return in.method([]Param{{Name: "other", Type: in.List(elem)}}, b.None), true
	case "insert":
		return in.method([]Param{{Name: "i", Type: b.Int}, {Name: "x", Type: elem}}, b.None), true
	case "count", "index":
		return in.method([]Param{{Name: "x", Type: elem}}, b.Int), true
	case "sort", "reverse", "clear":
		return in.method(nil, b.None), true
	case "copy":
		return in.method(nil, in.List(elem)), true
	}
	return NoTypeID, false
}

func (in *Interner) setMethod(elem TypeID, name string) (TypeID, bool) {
	b := in.Builtins
	switch name {
	case "add", "remove", "discard":
		return in.method([]Param{{Name: "x", Type: elem}}, b.None), true
	case "union", "intersection", "difference":
		return in.method([]Param{{Name: "other", Type: in.Set(elem)}}, in.Set(elem)), true
	case "issubset", "issuperset":
		return in.method([]Param{{Name: "other", Type: in.Set(elem)}}, b.Bool), true
	case "clear":
		return in.method(nil, b.None), true
	case "copy":
		return in.method(nil, in.Set(elem)), true
	}
	return NoTypeID, false
}

func (in *Interner) dictMethod(key, value TypeID, name string) (TypeID, bool) {
	b := in.Builtins
	switch name {
	case "get":
		return in.method([]Param{{Name: "key", Type: key}}, in.Optional(value)), true
	case "pop":
		return in.method([]Param{{Name: "key", Type: key}}, value), true
	case "keys":
		return in.method(nil, in.List(key)), true
	case "values":
		return in.method(nil, in.List(value)), true
	case "items":
		return in.method(nil, in.List(in.Tuple([]TypeID{key, value}))), true
	case "update":
		return in.method([]Param{{Name: "other", Type: in.Dict(key, value)}}, b.None), true
	case "clear":
		return in.method(nil, b.None), true
	case "copy":
		return in.method(nil, in.Dict(key, value)), true
	}
	return NoTypeID, false
}
