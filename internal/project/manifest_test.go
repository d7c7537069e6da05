package project

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[package]
name = "demo"

[check]
roots = ["src", "lib"]
jobs = 4
max_diagnostics = 50
`)

	m, ok, err := Load(dir)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if m.Config.Package.Name != "demo" {
		t.Fatalf("package name = %q", m.Config.Package.Name)
	}
	if m.Config.Check.Jobs != 4 || m.Config.Check.MaxDiagnostics != 50 {
		t.Fatalf("check config = %+v", m.Config.Check)
	}

	roots := m.DocRoots()
	want := []string{filepath.Join(dir, "src"), filepath.Join(dir, "lib")}
	if len(roots) != 2 || roots[0] != want[0] || roots[1] != want[1] {
		t.Fatalf("roots = %v, want %v", roots, want)
	}
}

func TestLoadFindsManifestInParent(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, ok, err := Load(nested)
	if err != nil || !ok {
		t.Fatalf("Load from nested dir: ok=%v err=%v", ok, err)
	}
	if m.Root != dir {
		t.Fatalf("root = %q, want %q", m.Root, dir)
	}
	if got := m.DocRoots(); len(got) != 1 || got[0] != dir {
		t.Fatalf("default roots = %v", got)
	}
}

func TestLoadMissingManifestIsNotError(t *testing.T) {
	_, ok, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("reported a manifest where none exists")
	}
}

func TestLoadRejectsMissingName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\n")
	if _, _, err := Load(dir); err == nil {
		t.Fatal("missing [package].name accepted")
	}
}

func TestLoadRejectsNegativeJobs(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"demo\"\n\n[check]\njobs = -1\n")
	if _, _, err := Load(dir); err == nil {
		t.Fatal("negative jobs accepted")
	}
}
