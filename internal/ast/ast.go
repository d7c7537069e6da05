package ast

import "typhon/internal/source"

// Node is the common interface of all syntax tree nodes.
type Node interface {
	Span() source.Span
}

// Stmt is implemented by all statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by all expression nodes. Type annotations are
// ordinary expressions and are interpreted during type checking.
type Expr interface {
	Node
	exprNode()
}

// Pattern is implemented by all match-case pattern nodes.
type Pattern interface {
	Node
	patternNode()
}

// Module is the root of a parsed compilation unit.
type Module struct {
	Name string
	File source.FileID
	Body []Stmt
	Loc  source.Span
}

func (m *Module) Span() source.Span { return m.Loc }

// Param is one function or lambda parameter.
type Param struct {
	Name       string
	Annotation Expr // nil when omitted
	Default    Expr // nil when omitted
	Loc        source.Span
}

func (p *Param) Span() source.Span { return p.Loc }

// Keyword is a keyword argument at a call site.
type Keyword struct {
	Name  string
	Value Expr
	Loc   source.Span
}

func (k *Keyword) Span() source.Span { return k.Loc }
