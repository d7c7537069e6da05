package ast

import "typhon/internal/source"

// LitKind identifies the lexical class of a literal.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitStr
	LitBytes
	LitBool
	LitNone
)

func (k LitKind) String() string {
	switch k {
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitStr:
		return "str"
	case LitBytes:
		return "bytes"
	case LitBool:
		return "bool"
	case LitNone:
		return "None"
	}
	return "?"
}

// Name is an identifier reference.
type Name struct {
	Ident string
	Loc   source.Span
}

// Literal is a constant: number, string, bytes, bool or None.
// Value keeps the source text; analysis only needs the kind.
type Literal struct {
	Kind  LitKind
	Value string
	Loc   source.Span
}

// Binary is `x op y`.
type Binary struct {
	Op   BinOp
	X, Y Expr
	Loc  source.Span
}

// Unary is `op x`.
type Unary struct {
	Op  UnOp
	X   Expr
	Loc source.Span
}

// BoolOp is `a and b and c` / `a or b`; the parser flattens chains.
type BoolOp struct {
	Op     BoolOpKind
	Values []Expr
	Loc    source.Span
}

// Compare is a (possibly chained) comparison: `a < b <= c`,
// `x is None`, `k in d`. len(Ops) == len(Comparators).
type Compare struct {
	X           Expr
	Ops         []CmpOp
	Comparators []Expr
	Loc         source.Span
}

// Call is `fun(args..., name=value...)`.
type Call struct {
	Fun      Expr
	Args     []Expr
	Keywords []*Keyword
	Loc      source.Span
}

// Attribute is `x.attr`.
type Attribute struct {
	X       Expr
	Attr    string
	AttrLoc source.Span
	Loc     source.Span
}

// Subscript is `x[index]`; in annotations it spells generics
// (`list[int]`, `dict[str, int]` with a TupleLit index).
type Subscript struct {
	X     Expr
	Index Expr
	Loc   source.Span
}

// ListLit is `[a, b, c]`.
type ListLit struct {
	Elems []Expr
	Loc   source.Span
}

// TupleLit is `(a, b)` or a bare `a, b`.
type TupleLit struct {
	Elems []Expr
	Loc   source.Span
}

// SetLit is `{a, b}`.
type SetLit struct {
	Elems []Expr
	Loc   source.Span
}

// DictLit is `{k: v, ...}`; Keys and Values run in parallel.
type DictLit struct {
	Keys   []Expr
	Values []Expr
	Loc    source.Span
}

// Lambda is `lambda params: body`.
type Lambda struct {
	Params []*Param
	Body   Expr
	Loc    source.Span
}

// CompKind distinguishes the four comprehension forms.
type CompKind uint8

const (
	CompList CompKind = iota
	CompSet
	CompDict
	CompGenerator
)

// CompClause is one `for target in iter [if cond...]` clause.
type CompClause struct {
	Target Expr
	Iter   Expr
	Conds  []Expr
	Loc    source.Span
}

func (c *CompClause) Span() source.Span { return c.Loc }

// Comprehension is `[elem for x in xs if cond]` and friends.
// Value is set only for CompDict (`{k: v for ...}` pairs Elem with Value).
type Comprehension struct {
	Kind    CompKind
	Elem    Expr
	Value   Expr
	Clauses []*CompClause
	Loc     source.Span
}

// Yield is `yield value` (value optional) inside a generator.
type Yield struct {
	Value Expr
	Loc   source.Span
}

// Cond is the ternary `then if cond else els`.
type Cond struct {
	Cond Expr
	Then Expr
	Else Expr
	Loc  source.Span
}

func (x *Name) Span() source.Span          { return x.Loc }
func (x *Literal) Span() source.Span       { return x.Loc }
func (x *Binary) Span() source.Span        { return x.Loc }
func (x *Unary) Span() source.Span         { return x.Loc }
func (x *BoolOp) Span() source.Span        { return x.Loc }
func (x *Compare) Span() source.Span       { return x.Loc }
func (x *Call) Span() source.Span          { return x.Loc }
func (x *Attribute) Span() source.Span     { return x.Loc }
func (x *Subscript) Span() source.Span     { return x.Loc }
func (x *ListLit) Span() source.Span       { return x.Loc }
func (x *TupleLit) Span() source.Span      { return x.Loc }
func (x *SetLit) Span() source.Span        { return x.Loc }
func (x *DictLit) Span() source.Span       { return x.Loc }
func (x *Lambda) Span() source.Span        { return x.Loc }
func (x *Comprehension) Span() source.Span { return x.Loc }
func (x *Yield) Span() source.Span         { return x.Loc }
func (x *Cond) Span() source.Span          { return x.Loc }

func (*Name) exprNode()          {}
func (*Literal) exprNode()       {}
func (*Binary) exprNode()        {}
func (*Unary) exprNode()         {}
func (*BoolOp) exprNode()        {}
func (*Compare) exprNode()       {}
func (*Call) exprNode()          {}
func (*Attribute) exprNode()     {}
func (*Subscript) exprNode()     {}
func (*ListLit) exprNode()       {}
func (*TupleLit) exprNode()      {}
func (*SetLit) exprNode()        {}
func (*DictLit) exprNode()       {}
func (*Lambda) exprNode()        {}
func (*Comprehension) exprNode() {}
func (*Yield) exprNode()         {}
func (*Cond) exprNode()          {}
