package astcodec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"typhon/internal/ast"
	"typhon/internal/source"
)

// Decode parses a `.tyast` document and rebuilds the syntax tree,
// stamping every span with file.
func Decode(data []byte, file source.FileID) (*ast.Module, error) {
	var doc Doc
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode syntax tree: %w", err)
	}
	return FromDoc(&doc, file)
}

// DecodeDoc unmarshals a document without rebuilding the tree, so
// callers can inspect the header before choosing a file ID.
func DecodeDoc(data []byte) (*Doc, error) {
	var doc Doc
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode syntax tree: %w", err)
	}
	return &doc, nil
}

// FromDoc rebuilds the syntax tree from an already unmarshaled document.
func FromDoc(doc *Doc, file source.FileID) (*ast.Module, error) {
	if doc.Version != Version {
		return nil, fmt.Errorf("syntax tree document version %d, want %d", doc.Version, Version)
	}
	if doc.Root == 0 || int(doc.Root) >= len(doc.Nodes) {
		return nil, fmt.Errorf("syntax tree document: root index %d out of range", doc.Root)
	}
	d := &decoder{doc: doc, file: file}
	node, err := d.node(doc.Root, doc.Root)
	if err != nil {
		return nil, err
	}
	m, ok := node.(*ast.Module)
	if !ok {
		return nil, fmt.Errorf("syntax tree document: root is %T, want module", node)
	}
	if m.Name == "" {
		m.Name = doc.Module
	}
	return m, nil
}

type decoder struct {
	doc  *Doc
	file source.FileID
}

// rec fetches a child record. Children always precede their parent in a
// well-formed document; enforcing idx < parent makes decoding terminate
// on corrupted input.
func (d *decoder) rec(idx, parent uint32) (*Rec, error) {
	if idx == 0 || idx >= parent || int(idx) >= len(d.doc.Nodes) {
		return nil, fmt.Errorf("syntax tree document: bad child index %d (parent %d)", idx, parent)
	}
	return &d.doc.Nodes[idx], nil
}

func (d *decoder) span(r *Rec) source.Span {
	return source.Span{File: d.file, Start: r.Start, End: r.End}
}

func (d *decoder) nameSpan(r *Rec) source.Span {
	return source.Span{File: d.file, Start: r.NStart, End: r.NEnd}
}

func (d *decoder) expr(idx, parent uint32) (ast.Expr, error) {
	if idx == 0 {
		return nil, nil
	}
	n, err := d.node(idx, parent)
	if err != nil {
		return nil, err
	}
	x, ok := n.(ast.Expr)
	if !ok {
		return nil, fmt.Errorf("syntax tree document: node %d is %T, want expression", idx, n)
	}
	return x, nil
}

func (d *decoder) exprs(idxs []uint32, parent uint32) ([]ast.Expr, error) {
	if len(idxs) == 0 {
		return nil, nil
	}
	out := make([]ast.Expr, len(idxs))
	for i, idx := range idxs {
		x, err := d.expr(idx, parent)
		if err != nil {
			return nil, err
		}
		if x == nil {
			return nil, fmt.Errorf("syntax tree document: nil entry in expression list of node %d", parent)
		}
		out[i] = x
	}
	return out, nil
}

func (d *decoder) stmt(idx, parent uint32) (ast.Stmt, error) {
	n, err := d.node(idx, parent)
	if err != nil {
		return nil, err
	}
	s, ok := n.(ast.Stmt)
	if !ok {
		return nil, fmt.Errorf("syntax tree document: node %d is %T, want statement", idx, n)
	}
	return s, nil
}

func (d *decoder) stmts(idxs []uint32, parent uint32) ([]ast.Stmt, error) {
	if len(idxs) == 0 {
		return nil, nil
	}
	out := make([]ast.Stmt, len(idxs))
	for i, idx := range idxs {
		s, err := d.stmt(idx, parent)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (d *decoder) pattern(idx, parent uint32) (ast.Pattern, error) {
	n, err := d.node(idx, parent)
	if err != nil {
		return nil, err
	}
	p, ok := n.(ast.Pattern)
	if !ok {
		return nil, fmt.Errorf("syntax tree document: node %d is %T, want pattern", idx, n)
	}
	return p, nil
}

func (d *decoder) patterns(idxs []uint32, parent uint32) ([]ast.Pattern, error) {
	if len(idxs) == 0 {
		return nil, nil
	}
	out := make([]ast.Pattern, len(idxs))
	for i, idx := range idxs {
		p, err := d.pattern(idx, parent)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (d *decoder) params(idxs []uint32, parent uint32) ([]*ast.Param, error) {
	if len(idxs) == 0 {
		return nil, nil
	}
	out := make([]*ast.Param, len(idxs))
	for i, idx := range idxs {
		n, err := d.node(idx, parent)
		if err != nil {
			return nil, err
		}
		p, ok := n.(*ast.Param)
		if !ok {
			return nil, fmt.Errorf("syntax tree document: node %d is %T, want parameter", idx, n)
		}
		out[i] = p
	}
	return out, nil
}

func (d *decoder) alias(idx, parent uint32) (*ast.Name, error) {
	if idx == 0 {
		return nil, nil
	}
	n, err := d.node(idx, parent)
	if err != nil {
		return nil, err
	}
	name, ok := n.(*ast.Name)
	if !ok {
		return nil, fmt.Errorf("syntax tree document: node %d is %T, want name", idx, n)
	}
	return name, nil
}

func unflattenSpans(file source.FileID, offs []uint32, count int) ([]source.Span, error) {
	if len(offs) != count*2 {
		return nil, fmt.Errorf("syntax tree document: %d span offsets for %d names", len(offs), count)
	}
	out := make([]source.Span, count)
	for i := range out {
		out[i] = source.Span{File: file, Start: offs[i*2], End: offs[i*2+1]}
	}
	return out, nil
}

//nolint:gocyclo // one arm per node kind
func (d *decoder) node(idx, parent uint32) (ast.Node, error) {
	var r *Rec
	if idx == parent {
		// Root access; bounds already checked by FromDoc.
		r = &d.doc.Nodes[idx]
	} else {
		var err error
		if r, err = d.rec(idx, parent); err != nil {
			return nil, err
		}
	}
	loc := d.span(r)

	switch r.Kind {
	case KindModule:
		body, err := d.stmts(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Module{Name: r.Str, File: d.file, Body: body, Loc: loc}, nil

	case KindParam:
		ann, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		def, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Param{Name: r.Str, Annotation: ann, Default: def, Loc: loc}, nil

	case KindKeyword:
		value, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Keyword{Name: r.Str, Value: value, Loc: loc}, nil

	case KindImportItem:
		return &ast.ImportItem{Path: r.Str, Alias: r.Str2, Loc: loc}, nil

	case KindFuncDecl:
		params, err := d.params(r.A, idx)
		if err != nil {
			return nil, err
		}
		result, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(r.B, idx)
		if err != nil {
			return nil, err
		}
		return &ast.FuncDecl{
			Name: r.Str, NameLoc: d.nameSpan(r),
			Params: params, Result: result, Body: body,
			IsGenerator: r.Flag, Loc: loc,
		}, nil

	case KindClassDecl:
		bases, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(r.B, idx)
		if err != nil {
			return nil, err
		}
		return &ast.ClassDecl{
			Name: r.Str, NameLoc: d.nameSpan(r),
			Bases: bases, IsProtocol: r.Flag, Body: body, Loc: loc,
		}, nil

	case KindVarDecl:
		ann, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		return &ast.VarDecl{
			Name: r.Str, NameLoc: d.nameSpan(r),
			Annotation: ann, Value: value, Loc: loc,
		}, nil

	case KindAssign:
		targets, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Targets: targets, Value: value, Loc: loc}, nil

	case KindAugAssign:
		target, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		return &ast.AugAssign{Target: target, Op: ast.BinOp(r.Num), Value: value, Loc: loc}, nil

	case KindExprStmt:
		x, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{X: x, Loc: loc}, nil

	case KindReturn:
		value, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: value, Loc: loc}, nil

	case KindIf:
		cond, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		then, err := d.stmts(r.A, idx)
		if err != nil {
			return nil, err
		}
		els, err := d.stmts(r.B, idx)
		if err != nil {
			return nil, err
		}
		return &ast.If{Cond: cond, Then: then, Else: els, Loc: loc}, nil

	case KindWhile:
		cond, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(r.A, idx)
		if err != nil {
			return nil, err
		}
		els, err := d.stmts(r.B, idx)
		if err != nil {
			return nil, err
		}
		return &ast.While{Cond: cond, Body: body, Else: els, Loc: loc}, nil

	case KindFor:
		target, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		iter, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(r.A, idx)
		if err != nil {
			return nil, err
		}
		els, err := d.stmts(r.B, idx)
		if err != nil {
			return nil, err
		}
		return &ast.For{Target: target, Iter: iter, Body: body, Else: els, Loc: loc}, nil

	case KindBreak:
		return &ast.Break{Loc: loc}, nil
	case KindContinue:
		return &ast.Continue{Loc: loc}, nil
	case KindPass:
		return &ast.Pass{Loc: loc}, nil

	case KindRaise:
		exc, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Raise{Exc: exc, Loc: loc}, nil

	case KindGlobal:
		spans, err := unflattenSpans(d.file, r.Offs, len(r.Strs))
		if err != nil {
			return nil, err
		}
		return &ast.Global{Names: r.Strs, NameLocs: spans, Loc: loc}, nil

	case KindNonlocal:
		spans, err := unflattenSpans(d.file, r.Offs, len(r.Strs))
		if err != nil {
			return nil, err
		}
		return &ast.Nonlocal{Names: r.Strs, NameLocs: spans, Loc: loc}, nil

	case KindImport:
		items := make([]*ast.ImportItem, len(r.A))
		for i, childIdx := range r.A {
			n, err := d.node(childIdx, idx)
			if err != nil {
				return nil, err
			}
			item, ok := n.(*ast.ImportItem)
			if !ok {
				return nil, fmt.Errorf("syntax tree document: node %d is %T, want import item", childIdx, n)
			}
			items[i] = item
		}
		return &ast.Import{Items: items, Loc: loc}, nil

	case KindWith:
		x, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		alias, err := d.alias(r.Y, idx)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.With{Expr: x, Alias: alias, Body: body, Loc: loc}, nil

	case KindTry:
		body, err := d.stmts(r.A, idx)
		if err != nil {
			return nil, err
		}
		handlers := make([]*ast.ExceptClause, len(r.B))
		for i, childIdx := range r.B {
			n, err := d.node(childIdx, idx)
			if err != nil {
				return nil, err
			}
			h, ok := n.(*ast.ExceptClause)
			if !ok {
				return nil, fmt.Errorf("syntax tree document: node %d is %T, want except clause", childIdx, n)
			}
			handlers[i] = h
		}
		els, err := d.stmts(r.C, idx)
		if err != nil {
			return nil, err
		}
		fin, err := d.stmts(r.D, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Try{Body: body, Handlers: handlers, Else: els, Finally: fin, Loc: loc}, nil

	case KindExceptClause:
		typ, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		alias, err := d.alias(r.Y, idx)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.ExceptClause{Type: typ, Alias: alias, Body: body, Loc: loc}, nil

	case KindMatch:
		subject, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		cases := make([]*ast.MatchCase, len(r.A))
		for i, childIdx := range r.A {
			n, err := d.node(childIdx, idx)
			if err != nil {
				return nil, err
			}
			c, ok := n.(*ast.MatchCase)
			if !ok {
				return nil, fmt.Errorf("syntax tree document: node %d is %T, want match case", childIdx, n)
			}
			cases[i] = c
		}
		return &ast.Match{Subject: subject, Cases: cases, Loc: loc}, nil

	case KindMatchCase:
		pat, err := d.pattern(r.X, idx)
		if err != nil {
			return nil, err
		}
		guard, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		body, err := d.stmts(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.MatchCase{Pattern: pat, Guard: guard, Body: body, Loc: loc}, nil

	case KindTypeAlias:
		value, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.TypeAlias{Name: r.Str, NameLoc: d.nameSpan(r), Value: value, Loc: loc}, nil

	case KindName:
		return &ast.Name{Ident: r.Str, Loc: loc}, nil

	case KindLiteral:
		return &ast.Literal{Kind: ast.LitKind(r.Num), Value: r.Str, Loc: loc}, nil

	case KindBinary:
		x, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		y, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Op: ast.BinOp(r.Num), X: x, Y: y, Loc: loc}, nil

	case KindUnary:
		x, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: ast.UnOp(r.Num), X: x, Loc: loc}, nil

	case KindBoolOp:
		values, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.BoolOp{Op: ast.BoolOpKind(r.Num), Values: values, Loc: loc}, nil

	case KindCompare:
		x, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		comparators, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		if len(r.Offs) != len(comparators) {
			return nil, fmt.Errorf("syntax tree document: %d operators for %d comparators", len(r.Offs), len(comparators))
		}
		ops := make([]ast.CmpOp, len(r.Offs))
		for i, op := range r.Offs {
			ops[i] = ast.CmpOp(op)
		}
		return &ast.Compare{X: x, Ops: ops, Comparators: comparators, Loc: loc}, nil

	case KindCall:
		fun, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		keywords := make([]*ast.Keyword, len(r.B))
		for i, childIdx := range r.B {
			n, err := d.node(childIdx, idx)
			if err != nil {
				return nil, err
			}
			k, ok := n.(*ast.Keyword)
			if !ok {
				return nil, fmt.Errorf("syntax tree document: node %d is %T, want keyword argument", childIdx, n)
			}
			keywords[i] = k
		}
		if len(keywords) == 0 {
			keywords = nil
		}
		return &ast.Call{Fun: fun, Args: args, Keywords: keywords, Loc: loc}, nil

	case KindAttribute:
		x, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Attribute{X: x, Attr: r.Str, AttrLoc: d.nameSpan(r), Loc: loc}, nil

	case KindSubscript:
		x, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		index, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Subscript{X: x, Index: index, Loc: loc}, nil

	case KindListLit:
		elems, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.ListLit{Elems: elems, Loc: loc}, nil

	case KindTupleLit:
		elems, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.TupleLit{Elems: elems, Loc: loc}, nil

	case KindSetLit:
		elems, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.SetLit{Elems: elems, Loc: loc}, nil

	case KindDictLit:
		keys, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		values, err := d.exprs(r.B, idx)
		if err != nil {
			return nil, err
		}
		if len(keys) != len(values) {
			return nil, fmt.Errorf("syntax tree document: dict literal with %d keys, %d values", len(keys), len(values))
		}
		return &ast.DictLit{Keys: keys, Values: values, Loc: loc}, nil

	case KindLambda:
		params, err := d.params(r.A, idx)
		if err != nil {
			return nil, err
		}
		body, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{Params: params, Body: body, Loc: loc}, nil

	case KindComprehension:
		elem, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		value, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		clauses := make([]*ast.CompClause, len(r.A))
		for i, childIdx := range r.A {
			n, err := d.node(childIdx, idx)
			if err != nil {
				return nil, err
			}
			c, ok := n.(*ast.CompClause)
			if !ok {
				return nil, fmt.Errorf("syntax tree document: node %d is %T, want comprehension clause", childIdx, n)
			}
			clauses[i] = c
		}
		return &ast.Comprehension{
			Kind: ast.CompKind(r.Num), Elem: elem, Value: value,
			Clauses: clauses, Loc: loc,
		}, nil

	case KindCompClause:
		target, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		iter, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		conds, err := d.exprs(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.CompClause{Target: target, Iter: iter, Conds: conds, Loc: loc}, nil

	case KindYield:
		value, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Yield{Value: value, Loc: loc}, nil

	case KindCond:
		cond, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		then, err := d.expr(r.Y, idx)
		if err != nil {
			return nil, err
		}
		els, err := d.expr(r.Z, idx)
		if err != nil {
			return nil, err
		}
		return &ast.Cond{Cond: cond, Then: then, Else: els, Loc: loc}, nil

	case KindLiteralPattern:
		n, err := d.node(r.X, idx)
		if err != nil {
			return nil, err
		}
		lit, ok := n.(*ast.Literal)
		if !ok {
			return nil, fmt.Errorf("syntax tree document: node %d is %T, want literal", r.X, n)
		}
		return &ast.LiteralPattern{Value: lit, Loc: loc}, nil

	case KindCapturePattern:
		return &ast.CapturePattern{Name: r.Str, Loc: loc}, nil

	case KindClassPattern:
		class, err := d.expr(r.X, idx)
		if err != nil {
			return nil, err
		}
		fields, err := d.patterns(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.ClassPattern{Class: class, Fields: fields, Loc: loc}, nil

	case KindWildcardPattern:
		return &ast.WildcardPattern{Loc: loc}, nil

	case KindOrPattern:
		alts, err := d.patterns(r.A, idx)
		if err != nil {
			return nil, err
		}
		return &ast.OrPattern{Alts: alts, Loc: loc}, nil
	}

	return nil, fmt.Errorf("syntax tree document: unknown node kind %d at index %d", r.Kind, idx)
}
