package ast

import (
	"reflect"
	"testing"

	"typhon/internal/source"
)

func sp(start, end uint32) source.Span {
	return source.Span{File: 0, Start: start, End: end}
}

// def f(x: int) -> int:
//     if x > 0:
//         return x
//     return -x
func sampleFunc() *FuncDecl {
	return &FuncDecl{
		Name:    "f",
		NameLoc: sp(4, 5),
		Params: []*Param{
			{Name: "x", Annotation: &Name{Ident: "int", Loc: sp(9, 12)}, Loc: sp(6, 12)},
		},
		Result: &Name{Ident: "int", Loc: sp(17, 20)},
		Body: []Stmt{
			&If{
				Cond: &Compare{
					X:           &Name{Ident: "x", Loc: sp(29, 30)},
					Ops:         []CmpOp{OpGt},
					Comparators: []Expr{&Literal{Kind: LitInt, Value: "0", Loc: sp(33, 34)}},
					Loc:         sp(29, 34),
				},
				Then: []Stmt{
					&Return{Value: &Name{Ident: "x", Loc: sp(51, 52)}, Loc: sp(44, 52)},
				},
				Loc: sp(26, 52),
			},
			&Return{
				Value: &Unary{Op: OpNeg, X: &Name{Ident: "x", Loc: sp(65, 66)}, Loc: sp(64, 66)},
				Loc:   sp(57, 66),
			},
		},
		Loc: sp(0, 66),
	}
}

func TestWalkVisitsAllNames(t *testing.T) {
	var idents []string
	Inspect(sampleFunc(), func(n Node) bool {
		if name, ok := n.(*Name); ok {
			idents = append(idents, name.Ident)
		}
		return true
	})
	want := []string{"int", "int", "x", "x", "x"}
	if !reflect.DeepEqual(idents, want) {
		t.Errorf("idents = %v, want %v", idents, want)
	}
}

func TestWalkPrunes(t *testing.T) {
	count := 0
	Inspect(sampleFunc(), func(n Node) bool {
		count++
		_, isIf := n.(*If)
		return !isIf // do not descend into the if statement
	})
	// FuncDecl, Param, Param annotation, Result, If, final Return,
	// Unary, Name.
	if count != 8 {
		t.Errorf("visited %d nodes, want 8", count)
	}
}

func TestWalkMatchAndPatterns(t *testing.T) {
	m := &Match{
		Subject: &Name{Ident: "shape", Loc: sp(6, 11)},
		Cases: []*MatchCase{
			{
				Pattern: &ClassPattern{
					Class:  &Name{Ident: "Circle", Loc: sp(22, 28)},
					Fields: []Pattern{&CapturePattern{Name: "r", Loc: sp(29, 30)}},
					Loc:    sp(22, 31),
				},
				Body: []Stmt{&Pass{Loc: sp(41, 45)}},
				Loc:  sp(17, 45),
			},
			{
				Pattern: &OrPattern{
					Alts: []Pattern{
						&LiteralPattern{Value: &Literal{Kind: LitNone, Value: "None", Loc: sp(55, 59)}, Loc: sp(55, 59)},
						&WildcardPattern{Loc: sp(62, 63)},
					},
					Loc: sp(55, 63),
				},
				Body: []Stmt{&Pass{Loc: sp(73, 77)}},
				Loc:  sp(50, 77),
			},
		},
		Loc: sp(0, 77),
	}

	var kinds []string
	Inspect(m, func(n Node) bool {
		kinds = append(kinds, reflect.TypeOf(n).Elem().Name())
		return true
	})
	want := []string{
		"Match", "Name", "MatchCase", "ClassPattern", "Name",
		"CapturePattern", "Pass", "MatchCase", "OrPattern",
		"LiteralPattern", "Literal", "WildcardPattern", "Pass",
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v\nwant    %v", kinds, want)
	}
}

func TestComprehensionClauseOrder(t *testing.T) {
	// [x * x for x in xs if x]
	comp := &Comprehension{
		Kind: CompList,
		Elem: &Binary{
			Op:  OpMul,
			X:   &Name{Ident: "x", Loc: sp(1, 2)},
			Y:   &Name{Ident: "x", Loc: sp(5, 6)},
			Loc: sp(1, 6),
		},
		Clauses: []*CompClause{
			{
				Target: &Name{Ident: "x", Loc: sp(11, 12)},
				Iter:   &Name{Ident: "xs", Loc: sp(16, 18)},
				Conds:  []Expr{&Name{Ident: "x", Loc: sp(22, 23)}},
				Loc:    sp(7, 23),
			},
		},
		Loc: sp(0, 24),
	}

	var order []uint32
	Inspect(comp, func(n Node) bool {
		if name, ok := n.(*Name); ok {
			order = append(order, name.Loc.Start)
		}
		return true
	})
	// Clauses are walked before the element expression: binding sites
	// come first.
	want := []uint32{11, 16, 22, 1, 5}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestOpStrings(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{OpFloorDiv.String(), "//"},
		{OpBitOr.String(), "|"},
		{OpIsNot.String(), "is not"},
		{OpNotIn.String(), "not in"},
		{OpNot.String(), "not"},
		{OpAnd.String(), "and"},
		{LitNone.String(), "None"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}

func TestImportBoundName(t *testing.T) {
	plain := &ImportItem{Path: "math"}
	if plain.BoundName() != "math" {
		t.Errorf("BoundName = %q", plain.BoundName())
	}
	aliased := &ImportItem{Path: "collections", Alias: "col"}
	if aliased.BoundName() != "col" {
		t.Errorf("BoundName = %q", aliased.BoundName())
	}
}
