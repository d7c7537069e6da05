package types

// Assignable reports whether a value of type from can be used where to
// is expected. The relation is reflexive; Never converts to anything,
// Any converts in both directions (gradual boundary), and the Error
// sentinel converts in both directions so recovery does not cascade.
// There is no implicit numeric coercion: int is not assignable to float.
func (in *Interner) Assignable(from, to TypeID) bool {
	if !from.IsValid() || !to.IsValid() {
		return true
	}
	if from == to {
		return true
	}

	df, dt := in.Get(from), in.Get(to)
	switch {
	case df.Kind == KindError || dt.Kind == KindError:
		return true
	case df.Kind == KindAny || dt.Kind == KindAny:
		return true
	case df.Kind == KindNever:
		return true
	}

	// A union source must convert member-wise; a union target accepts
	// any member match.
	if df.Kind == KindUnion {
		for _, m := range df.Elems {
			if !in.Assignable(m, to) {
				return false
			}
		}
		return true
	}
	if dt.Kind == KindUnion {
		for _, m := range dt.Elems {
			if in.Assignable(from, m) {
				return true
			}
		}
		return false
	}

	if df.Kind == KindTypeVar {
		if info := in.TypeVarOf(from); info != nil && info.Bound.IsValid() {
			return in.Assignable(info.Bound, to)
		}
		return false
	}

	switch dt.Kind {
	case KindList, KindSet:
		if df.Kind != dt.Kind {
			return false
		}
		return in.equivalent(df.Elem, dt.Elem)
	case KindDict:
		if df.Kind != KindDict {
			return false
		}
		return in.equivalent(df.Key, dt.Key) && in.equivalent(df.Value, dt.Value)
	case KindTuple:
		if df.Kind != KindTuple || len(df.Elems) != len(dt.Elems) {
			return false
		}
		for i := range df.Elems {
			if !in.Assignable(df.Elems[i], dt.Elems[i]) {
				return false
			}
		}
		return true
	case KindFunction:
		if df.Kind != KindFunction {
			return false
		}
		return in.functionAssignable(df, dt)
	case KindClass:
		if df.Kind != KindClass {
			return false
		}
		return in.inheritsFrom(from, to)
	case KindProtocol:
		return in.Conforms(from, to) == nil
	case KindTypeVar:
		if info := in.TypeVarOf(to); info != nil && info.Bound.IsValid() {
			return in.Assignable(from, info.Bound)
		}
		return false
	}
	return false
}

// equivalent is assignability in both directions; containers are
// invariant in their element types.
func (in *Interner) equivalent(a, b TypeID) bool {
	return in.Assignable(a, b) && in.Assignable(b, a)
}

// functionAssignable: contravariant parameters, covariant result.
func (in *Interner) functionAssignable(df, dt Descriptor) bool {
	if len(df.Params) != len(dt.Params) {
		return false
	}
	for i := range df.Params {
		if !in.Assignable(dt.Params[i].Type, df.Params[i].Type) {
			return false
		}
	}
	return in.Assignable(df.Result, dt.Result)
}

// inheritsFrom walks the base chain of a class looking for target.
func (in *Interner) inheritsFrom(class, target TypeID) bool {
	return in.baseChainReaches(class, target, make(map[TypeID]struct{}))
}

// baseChainReaches is inheritsFrom with a seen set, so a cyclic base
// graph terminates instead of recursing forever.
func (in *Interner) baseChainReaches(class, target TypeID, seen map[TypeID]struct{}) bool {
	if class == target {
		return true
	}
	if _, dup := seen[class]; dup {
		return false
	}
	seen[class] = struct{}{}
	info := in.ClassOf(class)
	if info == nil {
		return false
	}
	for _, base := range info.Bases {
		if in.KindOf(base) != KindClass {
			continue
		}
		if in.baseChainReaches(base, target, seen) {
			return true
		}
	}
	return false
}

// CyclicBase reports whether making base a base of class would close an
// inheritance cycle.
func (in *Interner) CyclicBase(class, base TypeID) bool {
	if class == base {
		return true
	}
	return in.baseChainReaches(base, class, make(map[TypeID]struct{}))
}

// ConformanceError describes one way a type fails a protocol.
type ConformanceError struct {
	Method string
	Want   TypeID // method type required by the protocol
	Got    TypeID // NoTypeID when the method is missing entirely
}

// Conforms checks structural conformance of from against a protocol.
// nil means conformant; otherwise the first failing method is returned
// in declaration order.
func (in *Interner) Conforms(from, protocol TypeID) *ConformanceError {
	info := in.ProtocolOf(protocol)
	if info == nil {
		return &ConformanceError{}
	}
	for _, name := range info.MethodOrder {
		want := info.Methods[name]
		got, ok := in.MethodOn(from, name)
		if !ok {
			return &ConformanceError{Method: name, Want: want}
		}
		if !in.Assignable(got, want) {
			return &ConformanceError{Method: name, Want: want, Got: got}
		}
	}
	return nil
}
