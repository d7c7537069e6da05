// Package astcodec serializes syntax trees to the flat `.tyast`
// document format the external parser emits. The format is a msgpack
// encoded Doc: a version header plus one Rec per node, children stored
// as record indices. Index 0 is reserved so 0 can mean "absent" in
// single-child slots.
package astcodec

// Version is the current document format version.
const Version uint32 = 1

// Kind identifies the node type of a Rec.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindModule
	KindParam
	KindKeyword
	KindImportItem

	KindFuncDecl
	KindClassDecl
	KindVarDecl
	KindAssign
	KindAugAssign
	KindExprStmt
	KindReturn
	KindIf
	KindWhile
	KindFor
	KindBreak
	KindContinue
	KindPass
	KindRaise
	KindGlobal
	KindNonlocal
	KindImport
	KindWith
	KindTry
	KindExceptClause
	KindMatch
	KindMatchCase
	KindTypeAlias

	KindName
	KindLiteral
	KindBinary
	KindUnary
	KindBoolOp
	KindCompare
	KindCall
	KindAttribute
	KindSubscript
	KindListLit
	KindTupleLit
	KindSetLit
	KindDictLit
	KindLambda
	KindComprehension
	KindCompClause
	KindYield
	KindCond

	KindLiteralPattern
	KindCapturePattern
	KindClassPattern
	KindWildcardPattern
	KindOrPattern
)

// Rec is one flattened node. Field meaning depends on Kind:
//
//   - Str/Str2 hold names, literal text, attribute names, import paths
//     and aliases.
//   - Num holds operator codes, literal kinds and comprehension kinds.
//   - Flag marks generator functions and protocol classes.
//   - X/Y/Z are single-child slots (0 = absent).
//   - A/B/C/D are ordered child-list slots (params/body/else/finally,
//     args/keywords, keys/values and so on).
//   - Strs/Offs carry the name lists of global/nonlocal (Offs as
//     start,end pairs) and the operator list of chained comparisons.
//   - NStart/NEnd is the secondary span (declared name, attribute).
type Rec struct {
	Kind   Kind     `msgpack:"k"`
	Start  uint32   `msgpack:"s"`
	End    uint32   `msgpack:"e"`
	NStart uint32   `msgpack:"ns,omitempty"`
	NEnd   uint32   `msgpack:"ne,omitempty"`
	Str    string   `msgpack:"t,omitempty"`
	Str2   string   `msgpack:"t2,omitempty"`
	Num    uint32   `msgpack:"n,omitempty"`
	Flag   bool     `msgpack:"f,omitempty"`
	X      uint32   `msgpack:"x,omitempty"`
	Y      uint32   `msgpack:"y,omitempty"`
	Z      uint32   `msgpack:"z,omitempty"`
	A      []uint32 `msgpack:"a,omitempty"`
	B      []uint32 `msgpack:"b,omitempty"`
	C      []uint32 `msgpack:"c,omitempty"`
	D      []uint32 `msgpack:"d,omitempty"`
	Strs   []string `msgpack:"ts,omitempty"`
	Offs   []uint32 `msgpack:"o,omitempty"`
}

// Doc is one serialized compilation unit. Nodes[0] is a reserved
// padding record; Root indexes the module record.
type Doc struct {
	Version uint32 `msgpack:"version"`
	Module  string `msgpack:"module"`
	Path    string `msgpack:"path"`
	Root    uint32 `msgpack:"root"`
	Nodes   []Rec  `msgpack:"nodes"`
}
