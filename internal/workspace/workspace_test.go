package workspace

import (
	"context"
	"reflect"
	"testing"

	"typhon/internal/ast"
	"typhon/internal/diag"
	"typhon/internal/source"
	"typhon/internal/symbols"
)

// mb builds small single-file modules for workspace tests.
type mb struct {
	file source.FileID
	off  uint32
}

func (b *mb) span() source.Span {
	b.off += 8
	return source.Span{File: b.file, Start: b.off - 8, End: b.off - 1}
}

func (b *mb) name(s string) *ast.Name {
	return &ast.Name{Ident: s, Loc: b.span()}
}

func (b *mb) assign(target string, value ast.Expr) *ast.Assign {
	return &ast.Assign{Targets: []ast.Expr{b.name(target)}, Value: value, Loc: b.span()}
}

func (b *mb) intLit(v string) *ast.Literal {
	return &ast.Literal{Kind: ast.LitInt, Value: v, Loc: b.span()}
}

func (b *mb) module(name string, stmts ...ast.Stmt) *ast.Module {
	return &ast.Module{Name: name, File: b.file, Body: stmts, Loc: source.Span{File: b.file, End: b.off}}
}

// cleanUnit is a module with one public and one private binding.
func cleanUnit(path string, file source.FileID) Unit {
	b := &mb{file: file}
	m := b.module(path,
		b.assign("answer", b.intLit("42")),
		b.assign("_hidden", b.intLit("1")),
	)
	return Unit{Path: path, File: file, Module: m}
}

// brokenUnit references an undefined name.
func brokenUnit(path string, file source.FileID) Unit {
	b := &mb{file: file}
	m := b.module(path,
		&ast.ExprStmt{X: b.name("missing"), Loc: b.span()},
	)
	return Unit{Path: path, File: file, Module: m}
}

func TestAnalyzeAllMergesInPathOrder(t *testing.T) {
	units := []Unit{
		brokenUnit("b.tyast", 2),
		cleanUnit("a.tyast", 1),
	}
	results, err := AnalyzeAll(context.Background(), units, Options{Jobs: 2})
	if err != nil {
		t.Fatalf("AnalyzeAll: %v", err)
	}

	st := NewStore()
	snap := st.Replace(results)
	if snap.Version != 1 {
		t.Fatalf("first publication version = %d", snap.Version)
	}
	if got := len(snap.Units); got != 2 {
		t.Fatalf("snapshot holds %d units", got)
	}
	if snap.Units[0].Unit.Path != "a.tyast" || snap.Units[1].Unit.Path != "b.tyast" {
		t.Fatalf("units not in path order: %s, %s", snap.Units[0].Unit.Path, snap.Units[1].Unit.Path)
	}
	if snap.ErrorCount() == 0 {
		t.Fatal("broken unit contributed no errors")
	}
}

func TestAnalyzeAllDeterministic(t *testing.T) {
	build := func() []Unit {
		return []Unit{
			cleanUnit("a.tyast", 1),
			brokenUnit("b.tyast", 2),
			brokenUnit("c.tyast", 3),
		}
	}
	first, err := AnalyzeAll(context.Background(), build(), Options{Jobs: 3})
	if err != nil {
		t.Fatal(err)
	}
	second, err := AnalyzeAll(context.Background(), build(), Options{Jobs: 1})
	if err != nil {
		t.Fatal(err)
	}

	fst := NewStore().Replace(first)
	snd := NewStore().Replace(second)
	if !reflect.DeepEqual(fst.Bag.Items(), snd.Bag.Items()) {
		t.Fatalf("merged diagnostics differ:\n%v\n%v", fst.Bag.Items(), snd.Bag.Items())
	}
}

func TestAnalyzeAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	units := []Unit{cleanUnit("a.tyast", 1)}
	if _, err := AnalyzeAll(ctx, units, Options{}); err == nil {
		t.Fatal("cancelled context did not stop analysis")
	}
}

func TestSnapshotIndexSkipsPrivate(t *testing.T) {
	results, err := AnalyzeAll(context.Background(), []Unit{cleanUnit("a.tyast", 1)}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	snap := NewStore().Replace(results)

	var names []string
	for _, e := range snap.Index {
		names = append(names, e.Name)
	}
	if !reflect.DeepEqual(names, []string{"answer"}) {
		t.Fatalf("index = %v, want only the public binding", names)
	}
	if snap.Index[0].Kind != symbols.SymbolVariable {
		t.Fatalf("index kind = %v", snap.Index[0].Kind)
	}
	if snap.Index[0].Type != "int" {
		t.Fatalf("index type = %q, want int", snap.Index[0].Type)
	}
}

func TestSessionLatestRevisionWins(t *testing.T) {
	st := NewStore()
	st.Replace(nil)
	s := NewSession(context.Background(), st, Options{})

	s.Update(brokenUnit("a.tyast", 1))
	s.Update(cleanUnit("a.tyast", 1))
	s.Wait()

	snap := st.Current()
	if snap == nil {
		t.Fatal("nothing published")
	}
	// The second edit publishes last regardless of scheduling; the
	// first is either discarded as stale or overwritten.
	for _, d := range snap.Bag.Items() {
		if d.Code == diag.SemaUndefinedName {
			t.Fatalf("stale result survived: %v", snap.Bag.Items())
		}
	}
	if s.Revision("a.tyast") != 2 {
		t.Fatalf("revision = %d, want 2", s.Revision("a.tyast"))
	}
	s.Close()
}

func TestSessionRemoveDiscardsInFlight(t *testing.T) {
	st := NewStore()
	st.Replace(nil)
	s := NewSession(context.Background(), st, Options{})

	s.Update(cleanUnit("gone.tyast", 1))
	s.Remove("gone.tyast")
	s.Wait()

	// Whether or not the in-flight run won the race to publish, the
	// removed unit must not survive in the settled snapshot.
	if snap := st.Current(); snap != nil {
		for _, r := range snap.Units {
			if r.Unit.Path == "gone.tyast" {
				t.Fatalf("removed unit still published in snapshot v%d", snap.Version)
			}
		}
	}
	s.Close()
}

func TestSessionRemoveDropsPublishedUnit(t *testing.T) {
	results, err := AnalyzeAll(context.Background(), []Unit{brokenUnit("gone.tyast", 1)}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	st := NewStore()
	st.Replace(results)
	s := NewSession(context.Background(), st, Options{})

	s.Remove("gone.tyast")

	snap := st.Current()
	if len(snap.Units) != 0 || snap.Bag.Len() != 0 || len(snap.Index) != 0 {
		t.Fatalf("deleted unit still published: %d units, %d diagnostics, %d index entries",
			len(snap.Units), snap.Bag.Len(), len(snap.Index))
	}
	if snap.Version != 2 {
		t.Fatalf("version = %d, want 2", snap.Version)
	}
	s.Close()
}

func TestStoreRemoveUnknownPath(t *testing.T) {
	st := NewStore()
	st.Replace(nil)
	if _, published := st.Remove("nope.tyast", nil); published {
		t.Fatal("removing an unknown path published a snapshot")
	}
	if st.Version() != 1 {
		t.Fatalf("version = %d, want 1", st.Version())
	}
}
