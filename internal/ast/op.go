package ast

// BinOp identifies a binary arithmetic or bitwise operator.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpBitOr // also union sugar in annotations: int | None
	OpBitAnd
	OpBitXor
	OpLShift
	OpRShift
)

var binOpNames = [...]string{
	OpAdd:      "+",
	OpSub:      "-",
	OpMul:      "*",
	OpDiv:      "/",
	OpFloorDiv: "//",
	OpMod:      "%",
	OpPow:      "**",
	OpBitOr:    "|",
	OpBitAnd:   "&",
	OpBitXor:   "^",
	OpLShift:   "<<",
	OpRShift:   ">>",
}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "?"
}

// UnOp identifies a unary operator.
type UnOp uint8

const (
	OpNeg UnOp = iota
	OpPos
	OpNot
	OpInvert
)

func (op UnOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpPos:
		return "+"
	case OpNot:
		return "not"
	case OpInvert:
		return "~"
	}
	return "?"
}

// CmpOp identifies a comparison operator.
type CmpOp uint8

const (
	OpEq CmpOp = iota
	OpNotEq
	OpLt
	OpLtE
	OpGt
	OpGtE
	OpIs
	OpIsNot
	OpIn
	OpNotIn
)

var cmpOpNames = [...]string{
	OpEq:    "==",
	OpNotEq: "!=",
	OpLt:    "<",
	OpLtE:   "<=",
	OpGt:    ">",
	OpGtE:   ">=",
	OpIs:    "is",
	OpIsNot: "is not",
	OpIn:    "in",
	OpNotIn: "not in",
}

func (op CmpOp) String() string {
	if int(op) < len(cmpOpNames) {
		return cmpOpNames[op]
	}
	return "?"
}

// BoolOpKind distinguishes `and` from `or`.
type BoolOpKind uint8

const (
	OpAnd BoolOpKind = iota
	OpOr
)

func (op BoolOpKind) String() string {
	if op == OpAnd {
		return "and"
	}
	return "or"
}
