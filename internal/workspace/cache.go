package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"typhon/internal/diag"
	"typhon/internal/symbols"
)

// Bump when CachePayload changes shape; stale schemas read as misses.
const cacheSchemaVersion uint16 = 1

// Digest keys cache entries by document content.
type Digest [sha256.Size]byte

// DigestOf hashes raw document bytes.
func DigestOf(data []byte) Digest {
	return sha256.Sum256(data)
}

// CacheExport is one public declaration preserved across runs.
type CacheExport struct {
	Name string
	Kind uint8
	Type string
}

// CachePayload is the per-unit analysis summary written to disk. It is
// enough to skip re-analysis of unchanged documents when only the
// export surface matters.
type CachePayload struct {
	Schema   uint16
	Path     string
	Exports  []CacheExport
	Errors   int
	Warnings int
}

// Cache stores analysis summaries keyed by content digest. Safe for
// concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// OpenCache initializes the cache under the user cache directory, or
// at dir when non-empty.
func OpenCache(app, dir string) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) pathFor(key Digest) string {
	return filepath.Join(c.dir, "units", hex.EncodeToString(key[:])+".mp")
}

// Put writes a payload atomically: encode to a temp file, then rename
// over the final path.
func (c *Cache) Put(key Digest, payload *CachePayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry or a foreign schema is a miss,
// not an error.
func (c *Cache) Get(key Digest, out *CachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every cached entry, used after schema changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "units"))
}

// PayloadFor summarizes an analyzed unit for the cache.
func PayloadFor(r UnitResult) *CachePayload {
	p := &CachePayload{
		Schema: cacheSchemaVersion,
		Path:   r.Unit.Path,
	}
	for _, e := range unitIndex(r) {
		p.Exports = append(p.Exports, CacheExport{
			Name: e.Name,
			Kind: uint8(e.Kind),
			Type: e.Type,
		})
	}
	for _, d := range r.Ctx.Bag.Items() {
		switch d.Severity {
		case diag.SevError:
			p.Errors++
		case diag.SevWarning:
			p.Warnings++
		}
	}
	return p
}

// ExportKind recovers the symbol kind stored in a cache export.
func (e CacheExport) ExportKind() symbols.SymbolKind {
	return symbols.SymbolKind(e.Kind)
}
