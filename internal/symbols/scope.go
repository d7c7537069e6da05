package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"typhon/internal/ast"
	"typhon/internal/source"
)

// ScopeKind enumerates the lexical scope categories. Loop and
// conditional bodies share their enclosing scope; with/except bindings
// and comprehensions introduce scopes of their own.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeBuiltin
	ScopeModule
	ScopeClass
	ScopeFunction
	ScopeLambda
	ScopeComprehension
	ScopeBlock // with/except `as` bindings, match-case bindings
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBuiltin:
		return "builtin"
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeLambda:
		return "lambda"
	case ScopeComprehension:
		return "comprehension"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// IsFunctionLike reports whether crossing into this scope is a closure
// boundary.
func (k ScopeKind) IsFunctionLike() bool {
	return k == ScopeFunction || k == ScopeLambda
}

// Scope models one lexical scope with a parent-child hierarchy. Names
// map to symbols; Order keeps per-scope insertion order for
// deterministic iteration.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Owner    ast.Node // declaring node; nil for module and builtin scopes
	Span     source.Span
	Children []ScopeID
	Names    map[string]SymbolID
	Order    []SymbolID

	// Redirects installed by global/nonlocal declarations: lookups and
	// assignments for these names target the recorded scope instead.
	Redirects map[string]ScopeID
}

// Scopes stores all allocated scopes in a compact slice-based arena.
// Index 0 is reserved for NoScopeID.
type Scopes struct {
	data []Scope
}

func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 32
	}
	return &Scopes{
		data: make([]Scope, 1, capacity+1),
	}
}

// New allocates a scope and links it under parent.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, owner ast.Node, span source.Span) ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	id := ScopeID(value)
	s.data = append(s.data, Scope{
		Kind:   kind,
		Parent: parent,
		Owner:  owner,
		Span:   span,
		Names:  make(map[string]SymbolID),
	})
	if parent.IsValid() {
		if parentScope := s.Get(parent); parentScope != nil {
			parentScope.Children = append(parentScope.Children, id)
		}
	}
	return id
}

// Get returns the scope pointer or nil if the ID is invalid.
func (s *Scopes) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports the number of scopes excluding the sentinel.
func (s *Scopes) Len() int { return len(s.data) - 1 }
