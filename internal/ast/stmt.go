package ast

import "typhon/internal/source"

// FuncDecl is `def name(params) -> result:` with an optional generator
// marker (the body contains yield).
type FuncDecl struct {
	Name        string
	NameLoc     source.Span
	Params      []*Param
	Result      Expr // return annotation, nil when omitted
	Body        []Stmt
	IsGenerator bool
	Loc         source.Span
}

// ClassDecl is `class Name(bases):`. IsProtocol marks protocol
// declarations (structural interfaces).
type ClassDecl struct {
	Name       string
	NameLoc    source.Span
	Bases      []Expr
	IsProtocol bool
	Body       []Stmt
	Loc        source.Span
}

// VarDecl is an annotated assignment `name: annotation = value`;
// Value may be nil (`name: annotation`).
type VarDecl struct {
	Name       string
	NameLoc    source.Span
	Annotation Expr
	Value      Expr
	Loc        source.Span
}

// Assign is `target = value` (targets may be Name, Attribute,
// Subscript or TupleLit for unpacking; chained `a = b = v` yields
// several targets).
type Assign struct {
	Targets []Expr
	Value   Expr
	Loc     source.Span
}

// AugAssign is `target op= value`.
type AugAssign struct {
	Target Expr
	Op     BinOp
	Value  Expr
	Loc    source.Span
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	X   Expr
	Loc source.Span
}

// Return is `return value` (value optional).
type Return struct {
	Value Expr
	Loc   source.Span
}

// If is `if cond: then else: els`. The parser normalizes elif chains
// into a nested If in Else.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
	Loc  source.Span
}

// While is `while cond:` with an optional else clause.
type While struct {
	Cond Expr
	Body []Stmt
	Else []Stmt
	Loc  source.Span
}

// For is `for target in iter:` with an optional else clause.
type For struct {
	Target Expr
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
	Loc    source.Span
}

type Break struct {
	Loc source.Span
}

type Continue struct {
	Loc source.Span
}

type Pass struct {
	Loc source.Span
}

// Raise is `raise exc` (exc optional for bare re-raise).
type Raise struct {
	Exc Expr
	Loc source.Span
}

// Global is `global a, b`.
type Global struct {
	Names    []string
	NameLocs []source.Span
	Loc      source.Span
}

// Nonlocal is `nonlocal a, b`.
type Nonlocal struct {
	Names    []string
	NameLocs []source.Span
	Loc      source.Span
}

// ImportItem is one imported module with an optional alias.
type ImportItem struct {
	Path  string
	Alias string
	Loc   source.Span
}

func (i *ImportItem) Span() source.Span { return i.Loc }

// BoundName returns the name the import introduces into scope.
func (i *ImportItem) BoundName() string {
	if i.Alias != "" {
		return i.Alias
	}
	return i.Path
}

// Import is `import a, b as c`.
type Import struct {
	Items []*ImportItem
	Loc   source.Span
}

// With is `with expr as alias:`; Alias may be nil.
type With struct {
	Expr  Expr
	Alias *Name
	Body  []Stmt
	Loc   source.Span
}

// ExceptClause is `except Type as alias:`; Type and Alias may be nil.
type ExceptClause struct {
	Type  Expr
	Alias *Name
	Body  []Stmt
	Loc   source.Span
}

func (c *ExceptClause) Span() source.Span { return c.Loc }

// Try is `try:` with handlers and optional else/finally blocks.
type Try struct {
	Body     []Stmt
	Handlers []*ExceptClause
	Else     []Stmt
	Finally  []Stmt
	Loc      source.Span
}

// MatchCase is one `case pattern if guard:` arm.
type MatchCase struct {
	Pattern Pattern
	Guard   Expr // nil when absent
	Body    []Stmt
	Loc     source.Span
}

func (c *MatchCase) Span() source.Span { return c.Loc }

// Match is `match subject:` with its case arms.
type Match struct {
	Subject Expr
	Cases   []*MatchCase
	Loc     source.Span
}

// TypeAlias is `type Name = value`.
type TypeAlias struct {
	Name    string
	NameLoc source.Span
	Value   Expr
	Loc     source.Span
}

func (s *FuncDecl) Span() source.Span  { return s.Loc }
func (s *ClassDecl) Span() source.Span { return s.Loc }
func (s *VarDecl) Span() source.Span   { return s.Loc }
func (s *Assign) Span() source.Span    { return s.Loc }
func (s *AugAssign) Span() source.Span { return s.Loc }
func (s *ExprStmt) Span() source.Span  { return s.Loc }
func (s *Return) Span() source.Span    { return s.Loc }
func (s *If) Span() source.Span        { return s.Loc }
func (s *While) Span() source.Span     { return s.Loc }
func (s *For) Span() source.Span       { return s.Loc }
func (s *Break) Span() source.Span     { return s.Loc }
func (s *Continue) Span() source.Span  { return s.Loc }
func (s *Pass) Span() source.Span      { return s.Loc }
func (s *Raise) Span() source.Span     { return s.Loc }
func (s *Global) Span() source.Span    { return s.Loc }
func (s *Nonlocal) Span() source.Span  { return s.Loc }
func (s *Import) Span() source.Span    { return s.Loc }
func (s *With) Span() source.Span      { return s.Loc }
func (s *Try) Span() source.Span       { return s.Loc }
func (s *Match) Span() source.Span     { return s.Loc }
func (s *TypeAlias) Span() source.Span { return s.Loc }

func (*FuncDecl) stmtNode()  {}
func (*ClassDecl) stmtNode() {}
func (*VarDecl) stmtNode()   {}
func (*Assign) stmtNode()    {}
func (*AugAssign) stmtNode() {}
func (*ExprStmt) stmtNode()  {}
func (*Return) stmtNode()    {}
func (*If) stmtNode()        {}
func (*While) stmtNode()     {}
func (*For) stmtNode()       {}
func (*Break) stmtNode()     {}
func (*Continue) stmtNode()  {}
func (*Pass) stmtNode()      {}
func (*Raise) stmtNode()     {}
func (*Global) stmtNode()    {}
func (*Nonlocal) stmtNode()  {}
func (*Import) stmtNode()    {}
func (*With) stmtNode()      {}
func (*Try) stmtNode()       {}
func (*Match) stmtNode()     {}
func (*TypeAlias) stmtNode() {}
