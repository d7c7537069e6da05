package sema

import (
	"typhon/internal/ast"
	"typhon/internal/source"
	"typhon/internal/symbols"
)

// The flow graph is an event list per basic block: loads and stores of
// local symbols in evaluation order. Nested function and comprehension
// bodies are separate units and contribute nothing to the enclosing
// graph.

type eventKind uint8

const (
	evUse eventKind = iota
	evAssign
)

type flowEvent struct {
	kind eventKind
	sym  symbols.SymbolID
	span source.Span
}

type flowBlock struct {
	events []flowEvent
	succs  []int
	// first is the span of the first statement, used to place
	// unreachable-code diagnostics. Empty for synthetic blocks.
	first source.Span
}

type flowGraph struct {
	blocks []*flowBlock
	entry  int
	// exit is the block control falls into when the body ends without
	// an explicit return.
	exit int
}

// reachable marks every block reachable from entry.
func (g *flowGraph) reachable() []bool {
	seen := make([]bool, len(g.blocks))
	stack := []int{g.entry}
	seen[g.entry] = true
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.blocks[b].succs {
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	return seen
}

type loopFrame struct {
	breakTo    int
	continueTo int
}

type cfgBuilder struct {
	ctx   *Context
	g     *flowGraph
	cur   int
	loops []loopFrame
}

// buildCFG lowers a statement body to a flow graph. Exceptions are
// modeled conservatively: every handler is reachable from the block
// preceding the try body, so assignments inside the body never count
// as definite in a handler.
func buildCFG(ctx *Context, body []ast.Stmt) *flowGraph {
	b := &cfgBuilder{ctx: ctx, g: &flowGraph{}}
	b.cur = b.newBlock()
	b.g.entry = b.cur
	b.stmts(body)
	b.g.exit = b.cur
	return b.g
}

func (b *cfgBuilder) newBlock() int {
	b.g.blocks = append(b.g.blocks, &flowBlock{})
	return len(b.g.blocks) - 1
}

func (b *cfgBuilder) link(from, to int) {
	blk := b.g.blocks[from]
	for _, s := range blk.succs {
		if s == to {
			return
		}
	}
	blk.succs = append(blk.succs, to)
}

func (b *cfgBuilder) emit(kind eventKind, sym symbols.SymbolID, span source.Span) {
	blk := b.g.blocks[b.cur]
	blk.events = append(blk.events, flowEvent{kind: kind, sym: sym, span: span})
}

func (b *cfgBuilder) markFirst(s ast.Stmt) {
	blk := b.g.blocks[b.cur]
	if blk.first.Empty() && len(blk.events) == 0 {
		blk.first = s.Span()
	}
}

func (b *cfgBuilder) stmts(list []ast.Stmt) {
	for _, s := range list {
		b.stmt(s)
	}
}

func (b *cfgBuilder) stmt(s ast.Stmt) {
	b.markFirst(s)
	switch n := s.(type) {
	case *ast.FuncDecl:
		// Defaults evaluate here; the body is its own unit. The name
		// itself becomes assigned.
		for _, p := range n.Params {
			b.uses(p.Default)
		}
		b.assignNode(n)

	case *ast.ClassDecl:
		for _, base := range n.Bases {
			b.uses(base)
		}
		b.assignNode(n)

	case *ast.VarDecl:
		b.uses(n.Value)
		if n.Value != nil {
			b.assignNode(n)
		}

	case *ast.Assign:
		b.uses(n.Value)
		for _, t := range n.Targets {
			b.assignTarget(t)
		}

	case *ast.AugAssign:
		b.uses(n.Value)
		b.uses(n.Target)
		if name, ok := n.Target.(*ast.Name); ok {
			b.assignNode(name)
		}

	case *ast.ExprStmt:
		b.uses(n.X)

	case *ast.Return:
		b.uses(n.Value)
		b.terminate()

	case *ast.Raise:
		b.uses(n.Exc)
		b.terminate()

	case *ast.Break:
		if len(b.loops) > 0 {
			b.link(b.cur, b.loops[len(b.loops)-1].breakTo)
		}
		b.terminate()

	case *ast.Continue:
		if len(b.loops) > 0 {
			b.link(b.cur, b.loops[len(b.loops)-1].continueTo)
		}
		b.terminate()

	case *ast.If:
		b.uses(n.Cond)
		head := b.cur
		join := b.newBlock()

		thenB := b.newBlock()
		b.link(head, thenB)
		b.cur = thenB
		b.stmts(n.Then)
		b.link(b.cur, join)

		if len(n.Else) > 0 {
			elseB := b.newBlock()
			b.link(head, elseB)
			b.cur = elseB
			b.stmts(n.Else)
			b.link(b.cur, join)
		} else {
			b.link(head, join)
		}
		b.cur = join

	case *ast.While:
		head := b.newBlock()
		b.link(b.cur, head)
		b.cur = head
		b.uses(n.Cond)

		exit := b.newBlock()
		body := b.newBlock()
		b.link(head, body)

		b.loops = append(b.loops, loopFrame{breakTo: exit, continueTo: head})
		b.cur = body
		b.stmts(n.Body)
		b.link(b.cur, head)
		b.loops = b.loops[:len(b.loops)-1]

		// `while True` exits only through break.
		if !isLiteralTrue(n.Cond) {
			if len(n.Else) > 0 {
				elseB := b.newBlock()
				b.link(head, elseB)
				b.cur = elseB
				b.stmts(n.Else)
				b.link(b.cur, exit)
			} else {
				b.link(head, exit)
			}
		}
		b.cur = exit

	case *ast.For:
		b.uses(n.Iter)
		head := b.newBlock()
		b.link(b.cur, head)

		exit := b.newBlock()
		body := b.newBlock()
		b.link(head, body)

		b.loops = append(b.loops, loopFrame{breakTo: exit, continueTo: head})
		b.cur = body
		// The target binds once per iteration; a zero-trip loop leaves
		// it unassigned.
		b.assignTarget(n.Target)
		b.stmts(n.Body)
		b.link(b.cur, head)
		b.loops = b.loops[:len(b.loops)-1]

		if len(n.Else) > 0 {
			elseB := b.newBlock()
			b.link(head, elseB)
			b.cur = elseB
			b.stmts(n.Else)
			b.link(b.cur, exit)
		} else {
			b.link(head, exit)
		}
		b.cur = exit

	case *ast.With:
		b.uses(n.Expr)
		if n.Alias != nil {
			b.assignNode(n.Alias)
		}
		b.stmts(n.Body)

	case *ast.Try:
		pre := b.cur
		join := b.newBlock()

		bodyB := b.newBlock()
		b.link(pre, bodyB)
		b.cur = bodyB
		b.stmts(n.Body)
		bodyEnd := b.cur
		if len(n.Else) > 0 {
			elseB := b.newBlock()
			b.link(bodyEnd, elseB)
			b.cur = elseB
			b.stmts(n.Else)
			b.link(b.cur, join)
		} else {
			b.link(bodyEnd, join)
		}

		for _, h := range n.Handlers {
			handlerB := b.newBlock()
			// Handlers can run after any prefix of the body.
			b.link(pre, handlerB)
			b.cur = handlerB
			b.uses(h.Type)
			if h.Alias != nil {
				b.assignNode(h.Alias)
			}
			b.stmts(h.Body)
			b.link(b.cur, join)
		}

		b.cur = join
		b.stmts(n.Finally)

	case *ast.Match:
		b.uses(n.Subject)
		head := b.cur
		join := b.newBlock()
		for _, mc := range n.Cases {
			caseB := b.newBlock()
			b.link(head, caseB)
			b.cur = caseB
			b.patternEvents(mc.Pattern)
			b.uses(mc.Guard)
			b.stmts(mc.Body)
			b.link(b.cur, join)
		}
		// No arm may match.
		b.link(head, join)
		b.cur = join

	case *ast.Import:
		for _, item := range n.Items {
			b.assignNode(item)
		}

	case *ast.TypeAlias:
		b.assignNode(n)

	case *ast.Global, *ast.Nonlocal, *ast.Pass:
		// No flow effect.
	}
}

func isLiteralTrue(x ast.Expr) bool {
	lit, ok := x.(*ast.Literal)
	return ok && lit.Kind == ast.LitBool && lit.Value == "True"
}

// terminate cuts the current block off and continues in a fresh,
// initially unreachable block.
func (b *cfgBuilder) terminate() {
	b.cur = b.newBlock()
}

// assignNode emits a store for the symbol a declaration node binds.
func (b *cfgBuilder) assignNode(n ast.Node) {
	if id, ok := b.ctx.Bindings[n]; ok && id != b.ctx.Table.ErrSym {
		b.emit(evAssign, id, n.Span())
	}
}

func (b *cfgBuilder) assignTarget(t ast.Expr) {
	switch n := t.(type) {
	case *ast.Name:
		b.assignNode(n)
	case *ast.TupleLit:
		for _, e := range n.Elems {
			b.assignTarget(e)
		}
	case *ast.ListLit:
		for _, e := range n.Elems {
			b.assignTarget(e)
		}
	case *ast.Attribute:
		b.uses(n.X)
	case *ast.Subscript:
		b.uses(n.X)
		b.uses(n.Index)
	}
}

func (b *cfgBuilder) patternEvents(p ast.Pattern) {
	switch n := p.(type) {
	case *ast.CapturePattern:
		b.assignNode(n)
	case *ast.ClassPattern:
		b.uses(n.Class)
		for _, f := range n.Fields {
			b.patternEvents(f)
		}
	case *ast.OrPattern:
		for _, alt := range n.Alts {
			b.patternEvents(alt)
		}
	case *ast.LiteralPattern, *ast.WildcardPattern:
	}
}

// uses emits a load event per name reference in evaluation order.
// Lambda and comprehension bodies are separate analysis units; only a
// comprehension's first iterable evaluates in this one.
func (b *cfgBuilder) uses(x ast.Expr) {
	if x == nil {
		return
	}
	switch n := x.(type) {
	case *ast.Name:
		if id, ok := b.ctx.Bindings[n]; ok && id != b.ctx.Table.ErrSym {
			b.emit(evUse, id, n.Loc)
		}
	case *ast.Literal:
	case *ast.Binary:
		b.uses(n.X)
		b.uses(n.Y)
	case *ast.Unary:
		b.uses(n.X)
	case *ast.BoolOp:
		for _, v := range n.Values {
			b.uses(v)
		}
	case *ast.Compare:
		b.uses(n.X)
		for _, c := range n.Comparators {
			b.uses(c)
		}
	case *ast.Call:
		b.uses(n.Fun)
		for _, a := range n.Args {
			b.uses(a)
		}
		for _, kw := range n.Keywords {
			b.uses(kw.Value)
		}
	case *ast.Attribute:
		b.uses(n.X)
	case *ast.Subscript:
		b.uses(n.X)
		b.uses(n.Index)
	case *ast.ListLit:
		for _, e := range n.Elems {
			b.uses(e)
		}
	case *ast.TupleLit:
		for _, e := range n.Elems {
			b.uses(e)
		}
	case *ast.SetLit:
		for _, e := range n.Elems {
			b.uses(e)
		}
	case *ast.DictLit:
		for i := range n.Keys {
			b.uses(n.Keys[i])
			b.uses(n.Values[i])
		}
	case *ast.Lambda:
		for _, p := range n.Params {
			b.uses(p.Default)
		}
	case *ast.Comprehension:
		if len(n.Clauses) > 0 {
			b.uses(n.Clauses[0].Iter)
		}
	case *ast.Yield:
		b.uses(n.Value)
	case *ast.Cond:
		b.uses(n.Cond)
		b.uses(n.Then)
		b.uses(n.Else)
	}
}
