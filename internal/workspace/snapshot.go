// Package workspace coordinates analysis across many compilation
// units: parallel whole-workspace runs, incremental per-file sessions
// and the published snapshot readers see.
package workspace

import (
	"sort"
	"sync"

	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/sema"
	"typhon/internal/source"
	"typhon/internal/symbols"
)

// Unit is one decoded document awaiting analysis.
type Unit struct {
	Path   string
	File   source.FileID
	Module *ast.Module
}

// UnitResult pairs a unit with its analysis context.
type UnitResult struct {
	Unit Unit
	Ctx  *sema.Context
}

// IndexEntry describes one public module-scope declaration.
type IndexEntry struct {
	Path string
	Name string
	Kind symbols.SymbolKind
	Type string
	Span source.Span
	// Refs are the resolved reference spans inside the declaring unit.
	Refs []source.Span
}

// Snapshot is an immutable view of the workspace after analysis.
// Readers holding a snapshot never observe later edits.
type Snapshot struct {
	Version uint64
	Units   []UnitResult
	// Bag merges every unit's diagnostics, sorted by position.
	Bag   *diag.Bag
	Index []IndexEntry
}

// ErrorCount reports how many merged diagnostics are errors.
func (s *Snapshot) ErrorCount() int {
	n := 0
	for _, d := range s.Bag.Items() {
		if d.Severity == diag.SevError {
			n++
		}
	}
	return n
}

// Store owns the published snapshot. Publication is single-writer;
// Current hands out the latest snapshot without blocking writers for
// long.
type Store struct {
	mu      sync.RWMutex
	version uint64
	units   map[string]UnitResult
	snap    *Snapshot
}

func NewStore() *Store {
	return &Store{units: make(map[string]UnitResult)}
}

// Current returns the latest published snapshot, or nil before the
// first publication.
func (st *Store) Current() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.snap
}

// Version returns the latest published version.
func (st *Store) Version() uint64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.version
}

// Replace publishes a whole-workspace result, dropping units that are
// no longer present.
func (st *Store) Replace(results []UnitResult) *Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.units = make(map[string]UnitResult, len(results))
	for _, r := range results {
		st.units[r.Unit.Path] = r
	}
	return st.publishLocked()
}

// Update publishes a single re-analyzed unit. The ok callback runs
// under the publish lock; returning false discards the result without
// bumping the version, which is how stale revisions die.
func (st *Store) Update(r UnitResult, ok func() bool) (*Snapshot, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if ok != nil && !ok() {
		return st.snap, false
	}
	st.units[r.Unit.Path] = r
	return st.publishLocked(), true
}

// Remove drops a unit and republishes without it, so deleted files
// stop contributing diagnostics and index entries. The ok callback runs
// under the publish lock like Update's; an unknown path publishes
// nothing.
func (st *Store) Remove(path string, ok func() bool) (*Snapshot, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if ok != nil && !ok() {
		return st.snap, false
	}
	if _, present := st.units[path]; !present {
		return st.snap, false
	}
	delete(st.units, path)
	return st.publishLocked(), true
}

func (st *Store) publishLocked() *Snapshot {
	st.version++
	snap := &Snapshot{Version: st.version}

	paths := make([]string, 0, len(st.units))
	for p := range st.units {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	snap.Bag = diag.NewBag(0)
	for _, p := range paths {
		r := st.units[p]
		snap.Units = append(snap.Units, r)
		snap.Bag.Merge(r.Ctx.Bag)
		snap.Index = append(snap.Index, unitIndex(r)...)
	}
	snap.Bag.Sort()

	st.snap = snap
	return snap
}

// unitIndex lists the unit's public module-scope declarations in
// name order.
func unitIndex(r UnitResult) []IndexEntry {
	tab := r.Ctx.Table
	scope := tab.Scopes.Get(tab.Module)

	names := make([]string, 0, len(scope.Names))
	for name := range scope.Names {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []IndexEntry
	for _, name := range names {
		sym := tab.Symbols.Get(scope.Names[name])
		if sym.Flags&symbols.SymbolFlagPrivate != 0 {
			continue
		}
		out = append(out, IndexEntry{
			Path: r.Unit.Path,
			Name: name,
			Kind: sym.Kind,
			Type: r.Ctx.Types.String(sym.Type),
			Span: sym.Span,
			Refs: sym.Refs,
		})
	}
	return out
}
