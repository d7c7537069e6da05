package ast

import "fmt"

// Visitor drives a traversal. Visit is called for each node; a non-nil
// result continues the walk into the node's children with that visitor,
// a nil result prunes the subtree.
type Visitor interface {
	Visit(node Node) Visitor
}

func walkStmts(v Visitor, list []Stmt) {
	for _, s := range list {
		Walk(v, s)
	}
}

func walkExprs(v Visitor, list []Expr) {
	for _, x := range list {
		Walk(v, x)
	}
}

func walkExpr(v Visitor, x Expr) {
	if x != nil {
		Walk(v, x)
	}
}

func walkParams(v Visitor, params []*Param) {
	for _, p := range params {
		Walk(v, p)
	}
}

// Walk traverses the tree rooted at node in depth-first order, calling
// v.Visit for node itself and then recursively for its children.
func Walk(v Visitor, node Node) {
	if node == nil {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}

	switch n := node.(type) {
	case *Module:
		walkStmts(v, n.Body)

	case *Param:
		walkExpr(v, n.Annotation)
		walkExpr(v, n.Default)

	case *Keyword:
		walkExpr(v, n.Value)

	// Statements.
	case *FuncDecl:
		walkParams(v, n.Params)
		walkExpr(v, n.Result)
		walkStmts(v, n.Body)
	case *ClassDecl:
		walkExprs(v, n.Bases)
		walkStmts(v, n.Body)
	case *VarDecl:
		walkExpr(v, n.Annotation)
		walkExpr(v, n.Value)
	case *Assign:
		walkExprs(v, n.Targets)
		walkExpr(v, n.Value)
	case *AugAssign:
		walkExpr(v, n.Target)
		walkExpr(v, n.Value)
	case *ExprStmt:
		walkExpr(v, n.X)
	case *Return:
		walkExpr(v, n.Value)
	case *If:
		walkExpr(v, n.Cond)
		walkStmts(v, n.Then)
		walkStmts(v, n.Else)
	case *While:
		walkExpr(v, n.Cond)
		walkStmts(v, n.Body)
		walkStmts(v, n.Else)
	case *For:
		walkExpr(v, n.Target)
		walkExpr(v, n.Iter)
		walkStmts(v, n.Body)
		walkStmts(v, n.Else)
	case *Break, *Continue, *Pass, *Global, *Nonlocal:
		// Leaves.
	case *Raise:
		walkExpr(v, n.Exc)
	case *Import:
		for _, item := range n.Items {
			Walk(v, item)
		}
	case *ImportItem:
		// Leaf.
	case *With:
		walkExpr(v, n.Expr)
		if n.Alias != nil {
			Walk(v, n.Alias)
		}
		walkStmts(v, n.Body)
	case *Try:
		walkStmts(v, n.Body)
		for _, h := range n.Handlers {
			Walk(v, h)
		}
		walkStmts(v, n.Else)
		walkStmts(v, n.Finally)
	case *ExceptClause:
		walkExpr(v, n.Type)
		if n.Alias != nil {
			Walk(v, n.Alias)
		}
		walkStmts(v, n.Body)
	case *Match:
		walkExpr(v, n.Subject)
		for _, c := range n.Cases {
			Walk(v, c)
		}
	case *MatchCase:
		Walk(v, n.Pattern)
		walkExpr(v, n.Guard)
		walkStmts(v, n.Body)
	case *TypeAlias:
		walkExpr(v, n.Value)

	// Expressions.
	case *Name, *Literal:
		// Leaves.
	case *Binary:
		Walk(v, n.X)
		Walk(v, n.Y)
	case *Unary:
		Walk(v, n.X)
	case *BoolOp:
		walkExprs(v, n.Values)
	case *Compare:
		Walk(v, n.X)
		walkExprs(v, n.Comparators)
	case *Call:
		Walk(v, n.Fun)
		walkExprs(v, n.Args)
		for _, k := range n.Keywords {
			Walk(v, k)
		}
	case *Attribute:
		Walk(v, n.X)
	case *Subscript:
		Walk(v, n.X)
		Walk(v, n.Index)
	case *ListLit:
		walkExprs(v, n.Elems)
	case *TupleLit:
		walkExprs(v, n.Elems)
	case *SetLit:
		walkExprs(v, n.Elems)
	case *DictLit:
		walkExprs(v, n.Keys)
		walkExprs(v, n.Values)
	case *Lambda:
		walkParams(v, n.Params)
		Walk(v, n.Body)
	case *Comprehension:
		for _, c := range n.Clauses {
			Walk(v, c)
		}
		walkExpr(v, n.Elem)
		walkExpr(v, n.Value)
	case *CompClause:
		walkExpr(v, n.Target)
		walkExpr(v, n.Iter)
		walkExprs(v, n.Conds)
	case *Yield:
		walkExpr(v, n.Value)
	case *Cond:
		Walk(v, n.Cond)
		Walk(v, n.Then)
		Walk(v, n.Else)

	// Patterns.
	case *LiteralPattern:
		Walk(v, n.Value)
	case *CapturePattern, *WildcardPattern:
		// Leaves.
	case *ClassPattern:
		Walk(v, n.Class)
		for _, f := range n.Fields {
			Walk(v, f)
		}
	case *OrPattern:
		for _, alt := range n.Alts {
			Walk(v, alt)
		}

	default:
		panic(fmt.Sprintf("ast.Walk: unexpected node type %T", n))
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses the tree, calling f for each node; if f returns
// false the node's children are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}
