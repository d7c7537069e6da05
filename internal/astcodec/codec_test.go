package astcodec

import (
	"reflect"
	"testing"

	"typhon/internal/ast"
	"typhon/internal/source"
)

func sp(start, end uint32) source.Span {
	return source.Span{Start: start, End: end}
}

func sampleModule() *ast.Module {
	return &ast.Module{
		Name: "shapes",
		Body: []ast.Stmt{
			&ast.Import{
				Items: []*ast.ImportItem{{Path: "math", Loc: sp(7, 11)}},
				Loc:   sp(0, 11),
			},
			&ast.VarDecl{
				Name:       "LIMIT",
				NameLoc:    sp(13, 18),
				Annotation: &ast.Name{Ident: "int", Loc: sp(20, 23)},
				Value:      &ast.Literal{Kind: ast.LitInt, Value: "10", Loc: sp(26, 28)},
				Loc:        sp(13, 28),
			},
			&ast.FuncDecl{
				Name:    "area",
				NameLoc: sp(34, 38),
				Params: []*ast.Param{
					{Name: "r", Annotation: &ast.Name{Ident: "float", Loc: sp(42, 47)}, Loc: sp(39, 47)},
				},
				Result: &ast.Name{Ident: "float", Loc: sp(52, 57)},
				Body: []ast.Stmt{
					&ast.If{
						Cond: &ast.Compare{
							X:           &ast.Name{Ident: "r", Loc: sp(66, 67)},
							Ops:         []ast.CmpOp{ast.OpLt},
							Comparators: []ast.Expr{&ast.Literal{Kind: ast.LitFloat, Value: "0.0", Loc: sp(70, 73)}},
							Loc:         sp(66, 73),
						},
						Then: []ast.Stmt{
							&ast.Raise{Exc: &ast.Call{
								Fun: &ast.Name{Ident: "ValueError", Loc: sp(89, 99)},
								Loc: sp(89, 101),
							}, Loc: sp(83, 101)},
						},
						Loc: sp(63, 101),
					},
					&ast.Return{
						Value: &ast.Binary{
							Op: ast.OpMul,
							X: &ast.Attribute{
								X:       &ast.Name{Ident: "math", Loc: sp(113, 117)},
								Attr:    "pi",
								AttrLoc: sp(118, 120),
								Loc:     sp(113, 120),
							},
							Y: &ast.Binary{
								Op:  ast.OpPow,
								X:   &ast.Name{Ident: "r", Loc: sp(123, 124)},
								Y:   &ast.Literal{Kind: ast.LitInt, Value: "2", Loc: sp(128, 129)},
								Loc: sp(123, 129),
							},
							Loc: sp(113, 129),
						},
						Loc: sp(106, 129),
					},
				},
				Loc: sp(30, 129),
			},
		},
		Loc: sp(0, 130),
	}
}

func TestRoundTrip(t *testing.T) {
	original := sampleModule()
	data, err := Encode(original, "shapes.ty")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip mismatch\n got: %#v\nwant: %#v", decoded, original)
	}
}

func TestRoundTripMatchPatterns(t *testing.T) {
	original := &ast.Module{
		Name: "m",
		Body: []ast.Stmt{
			&ast.Match{
				Subject: &ast.Name{Ident: "v", Loc: sp(6, 7)},
				Cases: []*ast.MatchCase{
					{
						Pattern: &ast.OrPattern{
							Alts: []ast.Pattern{
								&ast.LiteralPattern{Value: &ast.Literal{Kind: ast.LitInt, Value: "0", Loc: sp(18, 19)}, Loc: sp(18, 19)},
								&ast.LiteralPattern{Value: &ast.Literal{Kind: ast.LitInt, Value: "1", Loc: sp(22, 23)}, Loc: sp(22, 23)},
							},
							Loc: sp(18, 23),
						},
						Body: []ast.Stmt{&ast.Pass{Loc: sp(33, 37)}},
						Loc:  sp(13, 37),
					},
					{
						Pattern: &ast.CapturePattern{Name: "other", Loc: sp(47, 52)},
						Guard:   &ast.Name{Ident: "other", Loc: sp(56, 61)},
						Body:    []ast.Stmt{&ast.Pass{Loc: sp(71, 75)}},
						Loc:     sp(42, 75),
					},
				},
				Loc: sp(0, 75),
			},
		},
		Loc: sp(0, 76),
	}

	data, err := Encode(original, "m.ty")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Errorf("round trip mismatch\n got: %#v\nwant: %#v", decoded, original)
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	doc := &Doc{Version: Version + 1, Root: 1, Nodes: make([]Rec, 2)}
	if _, err := FromDoc(doc, 0); err == nil {
		t.Errorf("expected version error")
	}
}

func TestDecodeRejectsBadRoot(t *testing.T) {
	doc := &Doc{Version: Version, Root: 5, Nodes: make([]Rec, 2)}
	if _, err := FromDoc(doc, 0); err == nil {
		t.Errorf("expected root range error")
	}
}

func TestDecodeRejectsForwardReference(t *testing.T) {
	// A child index >= its parent index must be rejected: well-formed
	// documents store children first.
	doc := &Doc{
		Version: Version,
		Root:    1,
		Nodes: []Rec{
			{},
			{Kind: KindModule, A: []uint32{2}},
			{Kind: KindPass},
		},
	}
	if _, err := FromDoc(doc, 0); err == nil {
		t.Errorf("expected forward reference error")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not msgpack"), 0); err == nil {
		t.Errorf("expected decode error")
	}
}
