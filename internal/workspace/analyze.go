package workspace

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"typhon/internal/sema"
)

// Options tune workspace-wide analysis.
type Options struct {
	// Jobs caps concurrent unit analyses; 0 means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics is the per-unit bag limit passed to sema.
	MaxDiagnostics int
}

// AnalyzeAll analyzes every unit concurrently. Each unit owns its own
// table and interner, so no cross-unit locking is needed; results land
// at the unit's own index and the merge order is the input order, which
// keeps the run deterministic. Cancellation of ctx stops scheduling and
// returns the context error.
func AnalyzeAll(ctx context.Context, units []Unit, opts Options) ([]UnitResult, error) {
	if len(units) == 0 {
		return nil, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(units) {
		jobs = len(units)
	}

	results := make([]UnitResult, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, u := range units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = UnitResult{
				Unit: u,
				Ctx:  sema.Analyze(u.Module, u.File, sema.Options{MaxDiagnostics: opts.MaxDiagnostics}),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
