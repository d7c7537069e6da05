package workspace

import (
	"context"
	"sync"

	"typhon/internal/sema"
)

// Session re-analyzes single files as they change. Every edit bumps
// the file's revision and cancels the in-flight analysis of the
// previous one; a finished analysis publishes only if its revision is
// still current, so stale results never reach the store.
type Session struct {
	store *Store
	opts  Options
	base  context.Context

	mu      sync.Mutex
	revs    map[string]uint64
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func NewSession(base context.Context, store *Store, opts Options) *Session {
	if base == nil {
		base = context.Background()
	}
	return &Session{
		store:   store,
		opts:    opts,
		base:    base,
		revs:    make(map[string]uint64),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Update schedules analysis of a changed unit. It returns the revision
// assigned to this edit.
func (s *Session) Update(u Unit) uint64 {
	s.mu.Lock()
	s.revs[u.Path]++
	rev := s.revs[u.Path]
	if cancel := s.cancels[u.Path]; cancel != nil {
		cancel()
	}
	ctx, cancel := context.WithCancel(s.base)
	s.cancels[u.Path] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(ctx, u, rev)
	return rev
}

// Remove cancels any analysis still running for a deleted file and
// drops its unit from the published snapshot.
func (s *Session) Remove(path string) {
	s.mu.Lock()
	s.revs[path]++
	rev := s.revs[path]
	if cancel := s.cancels[path]; cancel != nil {
		cancel()
		delete(s.cancels, path)
	}
	s.mu.Unlock()

	// Same lock ordering as run's publish: store lock, then session
	// lock inside the callback.
	s.store.Remove(path, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.revs[path] == rev
	})
}

// Wait blocks until every scheduled analysis has finished or been
// discarded.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels all in-flight work and waits for it to drain.
func (s *Session) Close() {
	s.mu.Lock()
	for path, cancel := range s.cancels {
		cancel()
		delete(s.cancels, path)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) run(ctx context.Context, u Unit, rev uint64) {
	defer s.wg.Done()
	if ctx.Err() != nil {
		return
	}

	res := UnitResult{
		Unit: u,
		Ctx:  sema.Analyze(u.Module, u.File, sema.Options{MaxDiagnostics: s.opts.MaxDiagnostics}),
	}

	// The revision check runs under the publish lock, so a newer edit
	// that lands after analysis finished still wins.
	s.store.Update(res, func() bool {
		if ctx.Err() != nil {
			return false
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.revs[u.Path] == rev
	})
}

// Revision returns the latest revision assigned to path.
func (s *Session) Revision(path string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revs[path]
}
