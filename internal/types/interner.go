package types

import (
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"
)

// Builtins holds the interned primitive types every unit starts with.
type Builtins struct {
	Any   TypeID
	Never TypeID
	None  TypeID
	Bool  TypeID
	Int   TypeID
	Float TypeID
	Str   TypeID
	Bytes TypeID
	Error TypeID
}

// Interner deduplicates type descriptors: structurally equal types get
// the same TypeID, so compatibility checks start with a cheap ID
// comparison. Index 0 is reserved.
type Interner struct {
	descs []Descriptor
	index map[string]TypeID

	classes   []ClassInfo
	protocols []ProtocolInfo
	typeVars  []TypeVarInfo

	Builtins Builtins
}

func NewInterner() *Interner {
	in := &Interner{
		descs:     make([]Descriptor, 1),
		index:     make(map[string]TypeID),
		classes:   make([]ClassInfo, 1),
		protocols: make([]ProtocolInfo, 1),
		typeVars:  make([]TypeVarInfo, 1),
	}
	in.Builtins = Builtins{
		Any:   in.primitive(KindAny),
		Never: in.primitive(KindNever),
		None:  in.primitive(KindNone),
		Bool:  in.primitive(KindBool),
		Int:   in.primitive(KindInt),
		Float: in.primitive(KindFloat),
		Str:   in.primitive(KindStr),
		Bytes: in.primitive(KindBytes),
		Error: in.primitive(KindError),
	}
	return in
}

func (in *Interner) intern(key string, desc Descriptor) TypeID {
	if id, ok := in.index[key]; ok {
		return id
	}
	raw, err := safecast.Conv[uint32](len(in.descs))
	if err != nil {
		panic(fmt.Errorf("type interner overflow: %w", err))
	}
	id := TypeID(raw)
	in.descs = append(in.descs, desc)
	in.index[key] = id
	return id
}

func (in *Interner) primitive(k Kind) TypeID {
	return in.intern(fmt.Sprintf("p%d", k), Descriptor{Kind: k})
}

// Get returns the descriptor for id; the zero descriptor for invalid IDs.
func (in *Interner) Get(id TypeID) Descriptor {
	if !id.IsValid() || int(id) >= len(in.descs) {
		return Descriptor{}
	}
	return in.descs[id]
}

// KindOf is shorthand for Get(id).Kind.
func (in *Interner) KindOf(id TypeID) Kind {
	return in.Get(id).Kind
}

func (in *Interner) List(elem TypeID) TypeID {
	return in.intern(fmt.Sprintf("l%d", elem), Descriptor{Kind: KindList, Elem: elem})
}

func (in *Interner) Set(elem TypeID) TypeID {
	return in.intern(fmt.Sprintf("s%d", elem), Descriptor{Kind: KindSet, Elem: elem})
}

func (in *Interner) Dict(key, value TypeID) TypeID {
	return in.intern(fmt.Sprintf("d%d,%d", key, value), Descriptor{Kind: KindDict, Key: key, Value: value})
}

func (in *Interner) Tuple(elems []TypeID) TypeID {
	var sb strings.Builder
	sb.WriteByte('t')
	for _, e := range elems {
		fmt.Fprintf(&sb, "%d,", e)
	}
	return in.intern(sb.String(), Descriptor{Kind: KindTuple, Elems: elems})
}

func (in *Interner) Function(params []Param, result TypeID) TypeID {
	var sb strings.Builder
	sb.WriteByte('f')
	for _, p := range params {
		def := 0
		if p.HasDefault {
			def = 1
		}
		fmt.Fprintf(&sb, "%d:%d,", p.Type, def)
	}
	fmt.Fprintf(&sb, "->%d", result)
	return in.intern(sb.String(), Descriptor{Kind: KindFunction, Params: params, Result: result})
}

// Union interns a normalized union: nested unions are flattened, members
// deduplicated and sorted by ID. A single surviving member collapses to
// itself; Any absorbs everything.
func (in *Interner) Union(members ...TypeID) TypeID {
	flat := make([]TypeID, 0, len(members))
	seen := make(map[TypeID]bool, len(members))
	var gather func(id TypeID)
	gather = func(id TypeID) {
		if !id.IsValid() || seen[id] {
			return
		}
		d := in.Get(id)
		if d.Kind == KindUnion {
			for _, m := range d.Elems {
				gather(m)
			}
			return
		}
		if d.Kind == KindNever {
			return
		}
		seen[id] = true
		flat = append(flat, id)
	}
	for _, m := range members {
		gather(m)
	}
	if seen[in.Builtins.Any] {
		return in.Builtins.Any
	}
	switch len(flat) {
	case 0:
		return in.Builtins.Never
	case 1:
		return flat[0]
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i] < flat[j] })

	var sb strings.Builder
	sb.WriteByte('u')
	for _, m := range flat {
		fmt.Fprintf(&sb, "%d,", m)
	}
	return in.intern(sb.String(), Descriptor{Kind: KindUnion, Elems: flat})
}

// Optional is sugar for Union(t, None).
func (in *Interner) Optional(t TypeID) TypeID {
	return in.Union(t, in.Builtins.None)
}

// NonNone strips None from a union; None itself collapses to Never.
func (in *Interner) NonNone(id TypeID) TypeID {
	d := in.Get(id)
	switch d.Kind {
	case KindNone:
		return in.Builtins.Never
	case KindUnion:
		kept := make([]TypeID, 0, len(d.Elems))
		for _, m := range d.Elems {
			if in.KindOf(m) != KindNone {
				kept = append(kept, m)
			}
		}
		return in.Union(kept...)
	}
	return id
}

// ContainsNone reports whether id is None or a union with a None member.
func (in *Interner) ContainsNone(id TypeID) bool {
	d := in.Get(id)
	if d.Kind == KindNone {
		return true
	}
	if d.Kind != KindUnion {
		return false
	}
	for _, m := range d.Elems {
		if in.KindOf(m) == KindNone {
			return true
		}
	}
	return false
}

// TypeVar interns a named type variable. Identity is nominal: two
// variables with the same name in different declarations stay distinct.
func (in *Interner) TypeVar(name string, bound TypeID) TypeID {
	raw, err := safecast.Conv[uint32](len(in.typeVars))
	if err != nil {
		panic(fmt.Errorf("type variable overflow: %w", err))
	}
	in.typeVars = append(in.typeVars, TypeVarInfo{Name: name, Bound: bound})
	return in.intern(fmt.Sprintf("v%d", raw), Descriptor{Kind: KindTypeVar, Payload: raw})
}

// TypeVarOf returns the payload of a type variable.
func (in *Interner) TypeVarOf(id TypeID) *TypeVarInfo {
	d := in.Get(id)
	if d.Kind != KindTypeVar || int(d.Payload) >= len(in.typeVars) {
		return nil
	}
	return &in.typeVars[d.Payload]
}

// RegisterClass allocates a nominal class type before its body is
// resolved. Identity keys on the payload index, so the placeholder and
// the later defined type share one TypeID; mutually recursive classes
// resolve against each other's placeholders.
func (in *Interner) RegisterClass(name string) TypeID {
	raw, err := safecast.Conv[uint32](len(in.classes))
	if err != nil {
		panic(fmt.Errorf("class registry overflow: %w", err))
	}
	in.classes = append(in.classes, ClassInfo{
		Name:    name,
		Fields:  make(map[string]TypeID),
		Methods: make(map[string]TypeID),
	})
	return in.intern(fmt.Sprintf("c%d", raw), Descriptor{Kind: KindClass, Payload: raw})
}

// DefineClass fills in a registered class. Bases that would close an
// inheritance cycle are dropped, keeping every base chain finite; the
// caller diagnoses them via CyclicBase before defining.
func (in *Interner) DefineClass(id TypeID, bases []TypeID) *ClassInfo {
	info := in.ClassOf(id)
	if info == nil {
		return nil
	}
	kept := make([]TypeID, 0, len(bases))
	for _, b := range bases {
		if in.KindOf(b) == KindClass && in.CyclicBase(id, b) {
			continue
		}
		kept = append(kept, b)
	}
	info.Bases = kept
	info.Defined = true
	return info
}

// ClassOf returns the mutable payload of a class type.
func (in *Interner) ClassOf(id TypeID) *ClassInfo {
	d := in.Get(id)
	if d.Kind != KindClass || d.Payload == 0 || int(d.Payload) >= len(in.classes) {
		return nil
	}
	return &in.classes[d.Payload]
}

// RegisterProtocol allocates a nominal protocol type; DefineProtocol
// fills it in once the body resolves.
func (in *Interner) RegisterProtocol(name string) TypeID {
	raw, err := safecast.Conv[uint32](len(in.protocols))
	if err != nil {
		panic(fmt.Errorf("protocol registry overflow: %w", err))
	}
	in.protocols = append(in.protocols, ProtocolInfo{
		Name:    name,
		Methods: make(map[string]TypeID),
	})
	return in.intern(fmt.Sprintf("pr%d", raw), Descriptor{Kind: KindProtocol, Payload: raw})
}

// DefineProtocol marks a registered protocol as fully resolved.
func (in *Interner) DefineProtocol(id TypeID) *ProtocolInfo {
	info := in.ProtocolOf(id)
	if info == nil {
		return nil
	}
	info.Defined = true
	return info
}

// ProtocolOf returns the mutable payload of a protocol type.
func (in *Interner) ProtocolOf(id TypeID) *ProtocolInfo {
	d := in.Get(id)
	if d.Kind != KindProtocol || d.Payload == 0 || int(d.Payload) >= len(in.protocols) {
		return nil
	}
	return &in.protocols[d.Payload]
}

// Len reports the number of interned descriptors including the
// reserved slot.
func (in *Interner) Len() int { return len(in.descs) }
