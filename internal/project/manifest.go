// Package project locates and loads the typhon.toml manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file that marks a project root.
const ManifestName = "typhon.toml"

// Config is the decoded manifest.
type Config struct {
	Package PackageConfig `toml:"package"`
	Check   CheckConfig   `toml:"check"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

// CheckConfig tunes workspace analysis.
type CheckConfig struct {
	// Roots are directories searched for documents, relative to the
	// manifest. Empty means the project root itself.
	Roots []string `toml:"roots"`
	// Jobs caps concurrent unit analyses; 0 means all CPUs.
	Jobs int `toml:"jobs"`
	// MaxDiagnostics caps per-unit diagnostics; 0 means the default.
	MaxDiagnostics int `toml:"max_diagnostics"`
}

// Manifest is a loaded typhon.toml with its location.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Find walks up from startDir to locate the manifest.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load locates and parses the manifest starting at startDir. The
// second result is false when no manifest exists, which is not an
// error.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := parse(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

func parse(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if cfg.Check.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [check].jobs must not be negative", path)
	}
	if cfg.Check.MaxDiagnostics < 0 {
		return Config{}, fmt.Errorf("%s: [check].max_diagnostics must not be negative", path)
	}
	return cfg, nil
}

// DocRoots resolves the configured document roots against the project
// root.
func (m *Manifest) DocRoots() []string {
	if len(m.Config.Check.Roots) == 0 {
		return []string{m.Root}
	}
	out := make([]string, 0, len(m.Config.Check.Roots))
	for _, r := range m.Config.Check.Roots {
		if filepath.IsAbs(r) {
			out = append(out, filepath.Clean(r))
			continue
		}
		out = append(out, filepath.Join(m.Root, r))
	}
	return out
}
