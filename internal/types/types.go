package types

// TypeID is a handle into the interner. The zero value is invalid.
type TypeID uint32

const NoTypeID TypeID = 0

func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind discriminates type descriptors.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindAny
	KindNever
	KindNone
	KindBool
	KindInt
	KindFloat
	KindStr
	KindBytes
	// KindError is the recovery sentinel: compatible in both directions
	// so one mistake does not cascade.
	KindError
	KindList
	KindSet
	KindDict
	KindTuple
	KindFunction
	KindClass
	KindProtocol
	KindUnion
	KindTypeVar
)

// Param is one parameter of a function type.
type Param struct {
	Name       string
	Type       TypeID
	HasDefault bool
}

// Descriptor is the structural shape of a type. Field use depends on
// Kind: Elem for list/set, Key/Value for dict, Elems for tuple and
// union members, Params/Result for functions, Payload for the
// class/protocol/typevar registry index.
type Descriptor struct {
	Kind    Kind
	Elem    TypeID
	Key     TypeID
	Value   TypeID
	Elems   []TypeID
	Params  []Param
	Result  TypeID
	Payload uint32
}

// ClassInfo is the nominal payload of a class type. Registered before
// the body resolves; Defined flips once bases, fields and methods are
// filled in.
type ClassInfo struct {
	Name       string
	Bases      []TypeID
	Fields     map[string]TypeID
	FieldOrder []string
	Methods    map[string]TypeID
	Defined    bool
}

// ProtocolInfo is the payload of a structural protocol.
type ProtocolInfo struct {
	Name        string
	Methods     map[string]TypeID
	MethodOrder []string
	Defined     bool
}

// TypeVarInfo is the payload of a type variable.
type TypeVarInfo struct {
	Name  string
	Bound TypeID
}
