package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DocExt is the on-disk extension of encoded module documents.
const DocExt = ".tyast"

const defaultDebounce = 200 * time.Millisecond

// Watcher follows document directories and reports changed paths in
// debounced batches. Events for a path that keeps changing collapse
// into one callback once it settles.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(changed, removed []string)

	mu      sync.Mutex
	pending map[string]fsnotify.Op
	timer   *time.Timer

	done chan struct{}
}

// NewWatcher creates a watcher delivering batches to onChange. A zero
// debounce uses the default.
func NewWatcher(debounce time.Duration, onChange func(changed, removed []string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce,
		onChange: onChange,
		pending:  make(map[string]fsnotify.Op),
		done:     make(chan struct{}),
	}, nil
}

// Watch registers the roots recursively and starts the event loop.
func (w *Watcher) Watch(roots ...string) error {
	for _, root := range roots {
		if err := w.watchRecursive(root); err != nil {
			return err
		}
	}
	go w.run()
	return nil
}

// Close stops the event loop. Pending batches are dropped.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					// New subdirectories join the watch set.
					_ = w.watchRecursive(ev.Name)
					continue
				}
			}
			if filepath.Ext(ev.Name) != DocExt {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
				ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
				w.schedule(ev.Name, ev.Op)
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) schedule(path string, op fsnotify.Op) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] |= op
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.mu.Unlock()

	var changed, removed []string
	for path, op := range pending {
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			if _, err := os.Stat(path); err != nil {
				removed = append(removed, path)
				continue
			}
		}
		changed = append(changed, path)
	}
	sort.Strings(changed)
	sort.Strings(removed)
	if len(changed) > 0 || len(removed) > 0 {
		w.onChange(changed, removed)
	}
}
