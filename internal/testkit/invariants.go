// Package testkit holds shared assertions for syntax tree fixtures.
package testkit

import (
	"fmt"

	"typhon/internal/ast"
	"typhon/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a
// decoded module:
//  1. the module span is non-empty
//  2. every node span carries the module's file ID
//  3. every top-level statement span is contained in the module span
func CheckSpanInvariants(m *ast.Module) error {
	if m == nil {
		return fmt.Errorf("nil module")
	}
	if m.Loc.End <= m.Loc.Start {
		return fmt.Errorf("module span is empty: %v", m.Loc)
	}

	var bad error
	ast.Inspect(m, func(n ast.Node) bool {
		if bad != nil {
			return false
		}
		sp := n.Span()
		if sp.File != m.File {
			bad = fmt.Errorf("node %T span points to file %d, module is file %d", n, sp.File, m.File)
			return false
		}
		if sp.End < sp.Start {
			bad = fmt.Errorf("node %T has inverted span %v", n, sp)
			return false
		}
		return true
	})
	if bad != nil {
		return bad
	}

	var union source.Span
	have := false
	for _, st := range m.Body {
		sp := st.Span()
		if sp.End <= sp.Start {
			return fmt.Errorf("empty statement span: %v", sp)
		}
		if sp.Start < m.Loc.Start || sp.End > m.Loc.End {
			return fmt.Errorf("statement span %v is outside module span %v", sp, m.Loc)
		}
		if !have {
			union = sp
			have = true
		} else {
			union = union.Cover(sp)
		}
	}
	if have && (union.Start < m.Loc.Start || union.End > m.Loc.End) {
		return fmt.Errorf("module span %v does not cover its statements %v", m.Loc, union)
	}
	return nil
}
