package diagfmt

import (
	"strings"
	"testing"

	"typhon/internal/diag"
	"typhon/internal/source"
)

func testFileSet(t *testing.T, content string) (*source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.ty", []byte(content))
	return fs, id
}

func oneDiag(t *testing.T, d diag.Diagnostic) *diag.Bag {
	t.Helper()
	bag := diag.NewBag(4)
	bag.Add(d)
	return bag
}

func TestPrettyHeaderAndUnderline(t *testing.T) {
	fs, id := testFileSet(t, "x = frobnicate()\n")
	bag := oneDiag(t, diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SemaUndefinedName,
		Message:  `undefined name "frobnicate"`,
		Primary:  source.Span{File: id, Start: 4, End: 14},
	})

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	out := sb.String()

	if !strings.Contains(out, `main.ty:1:5: ERROR SEM3003: undefined name "frobnicate"`) {
		t.Fatalf("missing header line:\n%s", out)
	}
	if !strings.Contains(out, "x = frobnicate()") {
		t.Fatalf("missing source line:\n%s", out)
	}
	if !strings.Contains(out, "    ^~~~~~~~~") {
		t.Fatalf("missing caret underline:\n%s", out)
	}
}

func TestPrettyNotes(t *testing.T) {
	fs, id := testFileSet(t, "def f():\n    pass\ndef f():\n    pass\n")
	bag := oneDiag(t, diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SemaDuplicateDefinition,
		Message:  `"f" is already defined in this scope`,
		Primary:  source.Span{File: id, Start: 22, End: 23},
		Notes: []diag.Note{
			{Span: source.Span{File: id, Start: 4, End: 5}, Msg: "first defined here"},
		},
	})

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	out := sb.String()

	if !strings.Contains(out, "note: main.ty:1:5: first defined here") {
		t.Fatalf("note not rendered:\n%s", out)
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs, id := testFileSet(t, "value = 1\nprint(vlaue)\n")
	bag := oneDiag(t, diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SemaUndefinedName,
		Message:  `undefined name "vlaue"`,
		Primary:  source.Span{File: id, Start: 16, End: 21},
		Fixes: []diag.Fix{{
			Title: `replace with "value"`,
			Edits: []diag.FixEdit{{
				Span:    source.Span{File: id, Start: 16, End: 21},
				NewText: "value",
			}},
		}},
	})

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowFixes: true})
	out := sb.String()

	if !strings.Contains(out, `fix: replace with "value"`) {
		t.Fatalf("fix title missing:\n%s", out)
	}
	if !strings.Contains(out, "- print(vlaue)") || !strings.Contains(out, "+ print(value)") {
		t.Fatalf("fix preview missing:\n%s", out)
	}
}

func TestPrettyEmptySpanSkipsSource(t *testing.T) {
	fs, _ := testFileSet(t, "x = 1\n")
	bag := oneDiag(t, diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.IOReadFailed,
		Message:  "failed to read document",
	})

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{})
	out := sb.String()

	if strings.Contains(out, "^") {
		t.Fatalf("underline rendered for empty span:\n%s", out)
	}
	if !strings.Contains(out, "IO4001") {
		t.Fatalf("code missing:\n%s", out)
	}
}
