package sema

import (
	"typhon/internal/diag"
	"typhon/internal/source"
	"typhon/internal/symbols"
)

// Definite assignment runs a forward dataflow over the flow graph with
// a three-value lattice per local: unassigned, maybe-assigned and
// assigned. Joins take the pessimistic meet, so a name assigned on one
// branch only reads as maybe-assigned afterwards.

type assignState uint8

const (
	stUnassigned assignState = iota
	stMaybe
	stAssigned
)

func meetState(a, b assignState) assignState {
	if a == b {
		return a
	}
	return stMaybe
}

// checkAssignment reports every load of a local that is not definitely
// assigned on all paths reaching it.
func checkAssignment(ctx *Context, unitScope symbols.ScopeID, g *flowGraph, reach []bool) {
	tracked := trackedLocals(ctx, unitScope, g)
	if len(tracked) == 0 {
		return
	}

	entry := make(map[symbols.SymbolID]assignState, len(tracked))
	for id := range tracked {
		sym := ctx.Table.Symbols.Get(id)
		if sym != nil && sym.Kind == symbols.SymbolParameter {
			entry[id] = stAssigned
		} else {
			entry[id] = stUnassigned
		}
	}

	in := make([]map[symbols.SymbolID]assignState, len(g.blocks))
	in[g.entry] = entry

	work := []int{g.entry}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		out := transfer(in[b], g.blocks[b], nil)
		for _, s := range g.blocks[b].succs {
			if next := joinInto(in[s], out); next != nil {
				in[s] = next
				work = append(work, s)
			}
		}
	}

	// Reporting pass once the fixpoint is stable.
	seen := make(map[reportKey]bool)
	for b, blk := range g.blocks {
		if !reach[b] || in[b] == nil {
			continue
		}
		transfer(in[b], blk, func(ev flowEvent, st assignState) {
			key := reportKey{sym: ev.sym, span: ev.span}
			if seen[key] {
				return
			}
			seen[key] = true
			sym := ctx.Table.Symbols.Get(ev.sym)
			name := "?"
			if sym != nil {
				name = sym.Name
			}
			if st == stMaybe {
				ctx.errorf(diag.SemaUseBeforeAssignment, ev.span,
					"%q may be used before assignment", name)
			} else {
				ctx.errorf(diag.SemaUseBeforeAssignment, ev.span,
					"%q is used before assignment", name)
			}
		})
	}
}

type reportKey struct {
	sym  symbols.SymbolID
	span source.Span
}

// transfer applies a block's events to a copy of the entry state. When
// onBadUse is set it fires for loads that are not definitely assigned.
func transfer(in map[symbols.SymbolID]assignState, blk *flowBlock, onBadUse func(flowEvent, assignState)) map[symbols.SymbolID]assignState {
	out := make(map[symbols.SymbolID]assignState, len(in))
	for k, v := range in {
		out[k] = v
	}
	for _, ev := range blk.events {
		st, tracked := out[ev.sym]
		if !tracked {
			continue
		}
		switch ev.kind {
		case evAssign:
			out[ev.sym] = stAssigned
		case evUse:
			if st != stAssigned && onBadUse != nil {
				onBadUse(ev, st)
			}
		}
	}
	return out
}

// joinInto meets out into the successor's entry state; nil means no
// change.
func joinInto(cur, out map[symbols.SymbolID]assignState) map[symbols.SymbolID]assignState {
	if cur == nil {
		next := make(map[symbols.SymbolID]assignState, len(out))
		for k, v := range out {
			next[k] = v
		}
		return next
	}
	changed := false
	next := make(map[symbols.SymbolID]assignState, len(cur))
	for k, v := range cur {
		m := meetState(v, out[k])
		next[k] = m
		if m != v {
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return next
}

// trackedLocals selects the symbols this unit's dataflow covers:
// variables and parameters declared in the unit scope or a block scope
// nested under it. Globals, nonlocals and anything owned by another
// function are resolved dynamically and exempt.
func trackedLocals(ctx *Context, unitScope symbols.ScopeID, g *flowGraph) map[symbols.SymbolID]bool {
	tracked := make(map[symbols.SymbolID]bool)
	for _, blk := range g.blocks {
		for _, ev := range blk.events {
			if _, done := tracked[ev.sym]; done {
				continue
			}
			tracked[ev.sym] = false
			sym := ctx.Table.Symbols.Get(ev.sym)
			if sym == nil {
				continue
			}
			if sym.Flags&(symbols.SymbolFlagGlobal|symbols.SymbolFlagNonlocal|symbols.SymbolFlagBuiltin) != 0 {
				continue
			}
			switch sym.Kind {
			case symbols.SymbolVariable, symbols.SymbolParameter,
				symbols.SymbolFunction, symbols.SymbolClass, symbols.SymbolImport:
			default:
				continue
			}
			if scopeWithin(ctx.Table, sym.Scope, unitScope) {
				tracked[ev.sym] = true
			}
		}
	}
	for id, ok := range tracked {
		if !ok {
			delete(tracked, id)
		}
	}
	return tracked
}

// scopeWithin reports whether scope is target or a block scope chain
// under it; any other boundary on the way up disqualifies.
func scopeWithin(t *symbols.Table, scope, target symbols.ScopeID) bool {
	for scope.IsValid() {
		if scope == target {
			return true
		}
		sc := t.Scopes.Get(scope)
		if sc == nil || sc.Kind != symbols.ScopeBlock {
			return false
		}
		scope = sc.Parent
	}
	return false
}
