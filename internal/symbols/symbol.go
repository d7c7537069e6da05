package symbols

import (
	"fmt"
	"strings"
	"unicode"

	"fortio.org/safecast"

	"typhon/internal/ast"
	"typhon/internal/source"
	"typhon/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolVariable
	SymbolParameter
	SymbolFunction
	SymbolClass
	SymbolImport
	SymbolBuiltin
	SymbolTypeAlias
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	case SymbolClass:
		return "class"
	case SymbolImport:
		return "import"
	case SymbolBuiltin:
		return "builtin"
	case SymbolTypeAlias:
		return "type alias"
	default:
		return "invalid"
	}
}

// SymbolFlags encode attributes for quick checks.
type SymbolFlags uint16

const (
	SymbolFlagMutable SymbolFlags = 1 << iota
	SymbolFlagConstant
	SymbolFlagPrivate
	SymbolFlagGlobal
	SymbolFlagNonlocal
	SymbolFlagUsed
	SymbolFlagAssigned
	SymbolFlagBuiltin
	SymbolFlagCaptured
)

// Strings returns textual flag labels, used in debug dumps.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	for _, e := range [...]struct {
		flag SymbolFlags
		name string
	}{
		{SymbolFlagMutable, "mutable"},
		{SymbolFlagConstant, "constant"},
		{SymbolFlagPrivate, "private"},
		{SymbolFlagGlobal, "global"},
		{SymbolFlagNonlocal, "nonlocal"},
		{SymbolFlagUsed, "used"},
		{SymbolFlagAssigned, "assigned"},
		{SymbolFlagBuiltin, "builtin"},
		{SymbolFlagCaptured, "captured"},
	} {
		if f&e.flag != 0 {
			labels = append(labels, e.name)
		}
	}
	return labels
}

// ConventionFlags derives constant/private markers from naming
// convention: ALL_CAPS names are constants, a leading underscore means
// private.
func ConventionFlags(name string) SymbolFlags {
	var f SymbolFlags
	if strings.HasPrefix(name, "_") {
		f |= SymbolFlagPrivate
	}
	hasLetter := false
	allCaps := true
	for _, r := range name {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				allCaps = false
				break
			}
		}
	}
	if hasLetter && allCaps {
		f |= SymbolFlagConstant
	}
	return f
}

// Symbol is one declared name.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Flags SymbolFlags
	Scope ScopeID
	Type  types.TypeID
	Span  source.Span
	Decl  ast.Node

	// Refs collects the spans of every resolved reference.
	Refs []source.Span
	// CapturedBy lists the function-like scopes that close over this
	// symbol, in first-capture order.
	CapturedBy []ScopeID
}

// Symbols stores all allocated symbols in a slice arena; index 0 is
// reserved for NoSymbolID.
type Symbols struct {
	data []Symbol
}

func NewSymbols(capacity uint32) *Symbols {
	if capacity == 0 {
		capacity = 64
	}
	return &Symbols{
		data: make([]Symbol, 1, capacity+1),
	}
}

func (s *Symbols) New(sym Symbol) SymbolID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("symbols arena overflow: %w", err))
	}
	id := SymbolID(value)
	s.data = append(s.data, sym)
	return id
}

// Get returns the symbol pointer or nil if the ID is invalid.
func (s *Symbols) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports the number of symbols excluding the sentinel.
func (s *Symbols) Len() int { return len(s.data) - 1 }
