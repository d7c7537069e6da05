package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"typhon/internal/ast"
	"typhon/internal/source"
	"typhon/internal/types"
)

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates the scope and symbol arenas for one compilation
// unit, plus the builtin pseudo-scope and the error sentinel symbol
// unresolved references bind to.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols

	Builtin ScopeID
	Module  ScopeID

	// ErrSym is the sentinel every unresolved reference binds to, so
	// downstream passes always see a valid symbol.
	ErrSym SymbolID
}

// NewTable builds a table with the builtin prelude and a module root
// scope. The interner supplies types for the prelude.
func NewTable(h Hints, in *types.Interner, moduleSpan source.Span) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	t := &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
	}
	t.Builtin = t.Scopes.New(ScopeBuiltin, NoScopeID, nil, source.Span{})
	registerPrelude(t, in)
	t.ErrSym = t.Symbols.New(Symbol{
		Name:  "<error>",
		Kind:  SymbolBuiltin,
		Flags: SymbolFlagBuiltin | SymbolFlagAssigned,
		Scope: t.Builtin,
		Type:  in.Builtins.Error,
	})
	t.Module = t.Scopes.New(ScopeModule, t.Builtin, nil, moduleSpan)
	return t
}

// NewScope allocates a child scope.
func (t *Table) NewScope(kind ScopeKind, parent ScopeID, owner ast.Node, span source.Span) ScopeID {
	return t.Scopes.New(kind, parent, owner, span)
}

// DuplicateError reports a conflicting re-declaration.
type DuplicateError struct {
	Name     string
	Prev     SymbolID
	PrevKind SymbolKind
	PrevSpan source.Span
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate definition of %q (previously a %s)", e.Name, e.PrevKind)
}

// kindCompatible reports whether re-declaring name as kind b over an
// existing a is a plain re-binding rather than a conflict. Variables
// and parameters re-bind freely; declaration kinds do not.
func kindCompatible(a, b SymbolKind) bool {
	bindable := func(k SymbolKind) bool {
		return k == SymbolVariable || k == SymbolParameter
	}
	return bindable(a) && bindable(b)
}

// Declare inserts name into scope. A same-kind (or variable-over-
// parameter) repeat returns the existing symbol; an incompatible
// repeat returns the existing symbol plus a DuplicateError.
func (t *Table) Declare(scope ScopeID, name string, kind SymbolKind, span source.Span, decl ast.Node) (SymbolID, error) {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return NoSymbolID, fmt.Errorf("declare %q: invalid scope %d", name, scope)
	}
	// global/nonlocal redirect assignments to the target scope.
	if target, ok := sc.Redirects[name]; ok && target != scope {
		return t.Declare(target, name, kind, span, decl)
	}
	if prev, ok := sc.Names[name]; ok {
		prevSym := t.Symbols.Get(prev)
		if kindCompatible(prevSym.Kind, kind) {
			return prev, nil
		}
		return prev, &DuplicateError{
			Name:     name,
			Prev:     prev,
			PrevKind: prevSym.Kind,
			PrevSpan: prevSym.Span,
		}
	}
	id := t.Symbols.New(Symbol{
		Name:  name,
		Kind:  kind,
		Flags: ConventionFlags(name),
		Scope: scope,
		Span:  span,
		Decl:  decl,
	})
	sc.Names[name] = id
	sc.Order = append(sc.Order, id)
	return id, nil
}

// Lookup resolves name in exactly one scope, honoring global/nonlocal
// redirects installed there.
func (t *Table) Lookup(scope ScopeID, name string) (SymbolID, bool) {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return NoSymbolID, false
	}
	if target, ok := sc.Redirects[name]; ok && target != scope {
		return t.Lookup(target, name)
	}
	id, ok := sc.Names[name]
	return id, ok
}

// Redirect makes lookups for name in scope target another scope
// (global/nonlocal declarations).
func (t *Table) Redirect(scope ScopeID, name string, target ScopeID) {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return
	}
	if sc.Redirects == nil {
		sc.Redirects = make(map[string]ScopeID)
	}
	sc.Redirects[name] = target
}

// LookupLEGB resolves name starting at from and walking the parent
// chain: local, enclosing functions, module (global), then builtins.
// Class scopes are skipped unless they are the starting scope; class
// bodies do not form closures.
func (t *Table) LookupLEGB(from ScopeID, name string) (SymbolID, bool) {
	scope := from
	for scope.IsValid() {
		sc := t.Scopes.Get(scope)
		if sc == nil {
			return NoSymbolID, false
		}
		if sc.Kind != ScopeClass || scope == from {
			if id, ok := t.Lookup(scope, name); ok {
				return id, true
			}
		}
		scope = sc.Parent
	}
	return NoSymbolID, false
}

// EnclosingFunction returns the nearest function-like scope at or
// above scope, or NoScopeID.
func (t *Table) EnclosingFunction(scope ScopeID) ScopeID {
	for scope.IsValid() {
		sc := t.Scopes.Get(scope)
		if sc == nil {
			return NoScopeID
		}
		if sc.Kind.IsFunctionLike() {
			return scope
		}
		scope = sc.Parent
	}
	return NoScopeID
}

// Validate checks the scope-tree invariant: every scope except the
// builtin root has a valid parent, chains terminate at the builtin
// scope without cycles, and every named symbol belongs to the scope
// that lists it.
func (t *Table) Validate() error {
	for i := 1; i <= t.Scopes.Len(); i++ {
		id := ScopeID(i)
		sc := t.Scopes.Get(id)
		if id == t.Builtin {
			if sc.Parent.IsValid() {
				return fmt.Errorf("builtin scope has a parent")
			}
			continue
		}
		seen := map[ScopeID]bool{id: true}
		cur := sc.Parent
		for {
			if !cur.IsValid() {
				return fmt.Errorf("scope %d (%s): parent chain does not reach the builtin scope", id, sc.Kind)
			}
			if seen[cur] {
				return fmt.Errorf("scope %d (%s): parent cycle", id, sc.Kind)
			}
			if cur == t.Builtin {
				break
			}
			seen[cur] = true
			cur = t.Scopes.Get(cur).Parent
		}
		for name, symID := range sc.Names {
			sym := t.Symbols.Get(symID)
			if sym == nil {
				return fmt.Errorf("scope %d: name %q points at invalid symbol %d", id, name, symID)
			}
			if sym.Scope != id {
				return fmt.Errorf("scope %d: symbol %q recorded in scope %d", id, name, sym.Scope)
			}
		}
	}
	return nil
}
