package ast

import "typhon/internal/source"

// LiteralPattern matches a constant: `case 0:`, `case "x":`, `case None:`.
type LiteralPattern struct {
	Value *Literal
	Loc   source.Span
}

// CapturePattern binds the subject to a name: `case err:`.
type CapturePattern struct {
	Name string
	Loc  source.Span
}

// ClassPattern matches an instance of a class: `case Point(x, y):`.
type ClassPattern struct {
	Class  Expr
	Fields []Pattern
	Loc    source.Span
}

// WildcardPattern is `case _:`.
type WildcardPattern struct {
	Loc source.Span
}

// OrPattern is `case a | b | c:`.
type OrPattern struct {
	Alts []Pattern
	Loc  source.Span
}

func (p *LiteralPattern) Span() source.Span  { return p.Loc }
func (p *CapturePattern) Span() source.Span  { return p.Loc }
func (p *ClassPattern) Span() source.Span    { return p.Loc }
func (p *WildcardPattern) Span() source.Span { return p.Loc }
func (p *OrPattern) Span() source.Span       { return p.Loc }

func (*LiteralPattern) patternNode()  {}
func (*CapturePattern) patternNode()  {}
func (*ClassPattern) patternNode()    {}
func (*WildcardPattern) patternNode() {}
func (*OrPattern) patternNode()       {}
