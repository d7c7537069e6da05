package astcodec

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/vmihailenco/msgpack/v5"

	"typhon/internal/ast"
	"typhon/internal/source"
)

// Encode serializes a module into a `.tyast` document. Children are
// emitted before their parent, so every child index is smaller than the
// index of the record referring to it.
func Encode(m *ast.Module, path string) ([]byte, error) {
	e := &encoder{nodes: make([]Rec, 1)} // index 0 reserved
	root := e.node(m)
	doc := Doc{
		Version: Version,
		Module:  m.Name,
		Path:    path,
		Root:    root,
		Nodes:   e.nodes,
	}
	out, err := msgpack.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encode syntax tree: %w", err)
	}
	return out, nil
}

type encoder struct {
	nodes []Rec
}

func (e *encoder) add(r Rec) uint32 {
	idx, err := safecast.Conv[uint32](len(e.nodes))
	if err != nil {
		panic(fmt.Errorf("syntax tree document overflow: %w", err))
	}
	e.nodes = append(e.nodes, r)
	return idx
}

func (e *encoder) expr(x ast.Expr) uint32 {
	if x == nil {
		return 0
	}
	return e.node(x)
}

func (e *encoder) exprs(list []ast.Expr) []uint32 {
	if len(list) == 0 {
		return nil
	}
	out := make([]uint32, len(list))
	for i, x := range list {
		out[i] = e.node(x)
	}
	return out
}

func (e *encoder) stmts(list []ast.Stmt) []uint32 {
	if len(list) == 0 {
		return nil
	}
	out := make([]uint32, len(list))
	for i, s := range list {
		out[i] = e.node(s)
	}
	return out
}

func (e *encoder) params(list []*ast.Param) []uint32 {
	if len(list) == 0 {
		return nil
	}
	out := make([]uint32, len(list))
	for i, p := range list {
		out[i] = e.node(p)
	}
	return out
}

func (e *encoder) patterns(list []ast.Pattern) []uint32 {
	if len(list) == 0 {
		return nil
	}
	out := make([]uint32, len(list))
	for i, p := range list {
		out[i] = e.node(p)
	}
	return out
}

func flattenSpans(spans []source.Span) []uint32 {
	if len(spans) == 0 {
		return nil
	}
	out := make([]uint32, 0, len(spans)*2)
	for _, s := range spans {
		out = append(out, s.Start, s.End)
	}
	return out
}

func (e *encoder) node(n ast.Node) uint32 {
	sp := n.Span()
	r := Rec{Start: sp.Start, End: sp.End}

	switch n := n.(type) {
	case *ast.Module:
		r.Kind = KindModule
		r.Str = n.Name
		r.A = e.stmts(n.Body)
	case *ast.Param:
		r.Kind = KindParam
		r.Str = n.Name
		r.X = e.expr(n.Annotation)
		r.Y = e.expr(n.Default)
	case *ast.Keyword:
		r.Kind = KindKeyword
		r.Str = n.Name
		r.X = e.node(n.Value)
	case *ast.ImportItem:
		r.Kind = KindImportItem
		r.Str = n.Path
		r.Str2 = n.Alias

	case *ast.FuncDecl:
		r.Kind = KindFuncDecl
		r.Str = n.Name
		r.NStart, r.NEnd = n.NameLoc.Start, n.NameLoc.End
		r.Flag = n.IsGenerator
		r.A = e.params(n.Params)
		r.X = e.expr(n.Result)
		r.B = e.stmts(n.Body)
	case *ast.ClassDecl:
		r.Kind = KindClassDecl
		r.Str = n.Name
		r.NStart, r.NEnd = n.NameLoc.Start, n.NameLoc.End
		r.Flag = n.IsProtocol
		r.A = e.exprs(n.Bases)
		r.B = e.stmts(n.Body)
	case *ast.VarDecl:
		r.Kind = KindVarDecl
		r.Str = n.Name
		r.NStart, r.NEnd = n.NameLoc.Start, n.NameLoc.End
		r.X = e.expr(n.Annotation)
		r.Y = e.expr(n.Value)
	case *ast.Assign:
		r.Kind = KindAssign
		r.A = e.exprs(n.Targets)
		r.X = e.node(n.Value)
	case *ast.AugAssign:
		r.Kind = KindAugAssign
		r.Num = uint32(n.Op)
		r.X = e.node(n.Target)
		r.Y = e.node(n.Value)
	case *ast.ExprStmt:
		r.Kind = KindExprStmt
		r.X = e.node(n.X)
	case *ast.Return:
		r.Kind = KindReturn
		r.X = e.expr(n.Value)
	case *ast.If:
		r.Kind = KindIf
		r.X = e.node(n.Cond)
		r.A = e.stmts(n.Then)
		r.B = e.stmts(n.Else)
	case *ast.While:
		r.Kind = KindWhile
		r.X = e.node(n.Cond)
		r.A = e.stmts(n.Body)
		r.B = e.stmts(n.Else)
	case *ast.For:
		r.Kind = KindFor
		r.X = e.node(n.Target)
		r.Y = e.node(n.Iter)
		r.A = e.stmts(n.Body)
		r.B = e.stmts(n.Else)
	case *ast.Break:
		r.Kind = KindBreak
	case *ast.Continue:
		r.Kind = KindContinue
	case *ast.Pass:
		r.Kind = KindPass
	case *ast.Raise:
		r.Kind = KindRaise
		r.X = e.expr(n.Exc)
	case *ast.Global:
		r.Kind = KindGlobal
		r.Strs = n.Names
		r.Offs = flattenSpans(n.NameLocs)
	case *ast.Nonlocal:
		r.Kind = KindNonlocal
		r.Strs = n.Names
		r.Offs = flattenSpans(n.NameLocs)
	case *ast.Import:
		r.Kind = KindImport
		r.A = make([]uint32, len(n.Items))
		for i, item := range n.Items {
			r.A[i] = e.node(item)
		}
	case *ast.With:
		r.Kind = KindWith
		r.X = e.node(n.Expr)
		if n.Alias != nil {
			r.Y = e.node(n.Alias)
		}
		r.A = e.stmts(n.Body)
	case *ast.Try:
		r.Kind = KindTry
		r.A = e.stmts(n.Body)
		r.B = make([]uint32, len(n.Handlers))
		for i, h := range n.Handlers {
			r.B[i] = e.node(h)
		}
		r.C = e.stmts(n.Else)
		r.D = e.stmts(n.Finally)
	case *ast.ExceptClause:
		r.Kind = KindExceptClause
		r.X = e.expr(n.Type)
		if n.Alias != nil {
			r.Y = e.node(n.Alias)
		}
		r.A = e.stmts(n.Body)
	case *ast.Match:
		r.Kind = KindMatch
		r.X = e.node(n.Subject)
		r.A = make([]uint32, len(n.Cases))
		for i, c := range n.Cases {
			r.A[i] = e.node(c)
		}
	case *ast.MatchCase:
		r.Kind = KindMatchCase
		r.X = e.node(n.Pattern)
		r.Y = e.expr(n.Guard)
		r.A = e.stmts(n.Body)
	case *ast.TypeAlias:
		r.Kind = KindTypeAlias
		r.Str = n.Name
		r.NStart, r.NEnd = n.NameLoc.Start, n.NameLoc.End
		r.X = e.node(n.Value)

	case *ast.Name:
		r.Kind = KindName
		r.Str = n.Ident
	case *ast.Literal:
		r.Kind = KindLiteral
		r.Num = uint32(n.Kind)
		r.Str = n.Value
	case *ast.Binary:
		r.Kind = KindBinary
		r.Num = uint32(n.Op)
		r.X = e.node(n.X)
		r.Y = e.node(n.Y)
	case *ast.Unary:
		r.Kind = KindUnary
		r.Num = uint32(n.Op)
		r.X = e.node(n.X)
	case *ast.BoolOp:
		r.Kind = KindBoolOp
		r.Num = uint32(n.Op)
		r.A = e.exprs(n.Values)
	case *ast.Compare:
		r.Kind = KindCompare
		r.X = e.node(n.X)
		r.A = e.exprs(n.Comparators)
		r.Offs = make([]uint32, len(n.Ops))
		for i, op := range n.Ops {
			r.Offs[i] = uint32(op)
		}
	case *ast.Call:
		r.Kind = KindCall
		r.X = e.node(n.Fun)
		r.A = e.exprs(n.Args)
		r.B = make([]uint32, len(n.Keywords))
		for i, k := range n.Keywords {
			r.B[i] = e.node(k)
		}
	case *ast.Attribute:
		r.Kind = KindAttribute
		r.X = e.node(n.X)
		r.Str = n.Attr
		r.NStart, r.NEnd = n.AttrLoc.Start, n.AttrLoc.End
	case *ast.Subscript:
		r.Kind = KindSubscript
		r.X = e.node(n.X)
		r.Y = e.node(n.Index)
	case *ast.ListLit:
		r.Kind = KindListLit
		r.A = e.exprs(n.Elems)
	case *ast.TupleLit:
		r.Kind = KindTupleLit
		r.A = e.exprs(n.Elems)
	case *ast.SetLit:
		r.Kind = KindSetLit
		r.A = e.exprs(n.Elems)
	case *ast.DictLit:
		r.Kind = KindDictLit
		r.A = e.exprs(n.Keys)
		r.B = e.exprs(n.Values)
	case *ast.Lambda:
		r.Kind = KindLambda
		r.A = e.params(n.Params)
		r.X = e.node(n.Body)
	case *ast.Comprehension:
		r.Kind = KindComprehension
		r.Num = uint32(n.Kind)
		r.X = e.node(n.Elem)
		r.Y = e.expr(n.Value)
		r.A = make([]uint32, len(n.Clauses))
		for i, c := range n.Clauses {
			r.A[i] = e.node(c)
		}
	case *ast.CompClause:
		r.Kind = KindCompClause
		r.X = e.node(n.Target)
		r.Y = e.node(n.Iter)
		r.A = e.exprs(n.Conds)
	case *ast.Yield:
		r.Kind = KindYield
		r.X = e.expr(n.Value)
	case *ast.Cond:
		r.Kind = KindCond
		r.X = e.node(n.Cond)
		r.Y = e.node(n.Then)
		r.Z = e.node(n.Else)

	case *ast.LiteralPattern:
		r.Kind = KindLiteralPattern
		r.X = e.node(n.Value)
	case *ast.CapturePattern:
		r.Kind = KindCapturePattern
		r.Str = n.Name
	case *ast.ClassPattern:
		r.Kind = KindClassPattern
		r.X = e.node(n.Class)
		r.A = e.patterns(n.Fields)
	case *ast.WildcardPattern:
		r.Kind = KindWildcardPattern
	case *ast.OrPattern:
		r.Kind = KindOrPattern
		r.A = e.patterns(n.Alts)

	default:
		panic(fmt.Sprintf("astcodec: unexpected node type %T", n))
	}

	return e.add(r)
}
