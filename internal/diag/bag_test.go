package diag

import (
	"strings"
	"testing"

	"typhon/internal/source"
)

func span(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(SemaUndefinedName, span(0, 0, 1), "a")) {
		t.Fatalf("first Add rejected")
	}
	if !b.Add(NewError(SemaUndefinedName, span(0, 1, 2), "b")) {
		t.Fatalf("second Add rejected")
	}
	if b.Add(NewError(SemaUndefinedName, span(0, 2, 3), "c")) {
		t.Errorf("Add over the limit must return false")
	}
	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}
}

func TestBagHasErrors(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevWarning, SemaUnreachableCode, span(0, 0, 1), "dead"))
	if b.HasErrors() {
		t.Errorf("warning-only bag must not report errors")
	}
	if !b.HasWarnings() {
		t.Errorf("expected HasWarnings")
	}
	b.Add(NewError(SemaTypeMismatch, span(0, 1, 2), "boom"))
	if !b.HasErrors() {
		t.Errorf("expected HasErrors after adding an error")
	}
}

func TestBagSort(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(SemaTypeMismatch, span(1, 5, 6), "later file"))
	b.Add(New(SevWarning, SemaUnreachableCode, span(0, 10, 12), "w"))
	b.Add(NewError(SemaUndefinedName, span(0, 10, 12), "e"))
	b.Add(NewError(SemaDuplicateDefinition, span(0, 2, 4), "first"))
	b.Sort()

	items := b.Items()
	if items[0].Code != SemaDuplicateDefinition {
		t.Errorf("items[0] = %v", items[0].Code)
	}
	// Same span: error sorts before warning.
	if items[1].Code != SemaUndefinedName || items[2].Code != SemaUnreachableCode {
		t.Errorf("severity ordering broken: %v then %v", items[1].Code, items[2].Code)
	}
	if items[3].Primary.File != 1 {
		t.Errorf("file ordering broken")
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(10)
	d := NewError(SemaUndefinedName, span(0, 3, 7), "undefined name 'x'")
	b.Add(d)
	b.Add(d)
	b.Add(NewError(SemaUndefinedName, span(0, 9, 10), "undefined name 'y'"))
	b.Dedup()
	if b.Len() != 2 {
		t.Errorf("Len after Dedup = %d, want 2", b.Len())
	}
}

func TestBagMergeGrowsLimit(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(SemaTypeMismatch, span(0, 0, 1), "a"))
	other := NewBag(2)
	other.Add(NewError(SemaTypeMismatch, span(0, 1, 2), "b"))
	other.Add(NewError(SemaTypeMismatch, span(0, 2, 3), "c"))
	a.Merge(other)
	if a.Len() != 3 {
		t.Errorf("Len after Merge = %d, want 3", a.Len())
	}
	if a.Cap() != 3 {
		t.Errorf("Cap after Merge = %d, want 3", a.Cap())
	}
}

func TestBagLimitPast16Bits(t *testing.T) {
	const n = 1<<16 + 5
	b := NewBag(n)
	if b.Cap() != n {
		t.Fatalf("Cap = %d, want %d", b.Cap(), n)
	}
	d := NewError(SemaTypeMismatch, span(0, 0, 1), "x")
	for i := 0; i < n; i++ {
		if !b.Add(d) {
			t.Fatalf("Add rejected at %d under a %d limit", i, n)
		}
	}
	if b.Add(d) {
		t.Errorf("Add accepted past the limit")
	}
	if b.Len() != n {
		t.Errorf("Len = %d, want %d", b.Len(), n)
	}
}

func TestDiagnosticWithNote(t *testing.T) {
	d := NewError(SemaDuplicateDefinition, span(0, 4, 8), "duplicate definition of 'f'").
		WithNote(span(0, 0, 2), "first defined here")
	if len(d.Notes) != 1 || d.Notes[0].Msg != "first defined here" {
		t.Errorf("notes not carried: %+v", d.Notes)
	}
}

func TestCodeID(t *testing.T) {
	if got := SemaTypeMismatch.ID(); got != "SEM3004" {
		t.Errorf("ID = %q", got)
	}
	if got := IODecodeFailed.ID(); got != "IO4002" {
		t.Errorf("ID = %q", got)
	}
	if got := UnknownCode.ID(); got != "E0000" {
		t.Errorf("ID = %q", got)
	}
	if !strings.Contains(SemaUndefinedName.String(), "Undefined name") {
		t.Errorf("String = %q", SemaUndefinedName.String())
	}
}

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.ty", []byte("x = y\n"))
	diags := []Diagnostic{
		NewError(SemaUndefinedName, source.Span{File: id, Start: 4, End: 5}, "undefined name 'y'"),
	}
	got := FormatShortDiagnostics(diags, fs, false)
	want := "ERROR SEM3003 m.ty:1:5 undefined name 'y'\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
