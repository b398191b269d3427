// Package portfolio drives N sat.Solver workers over a shared
// satdb.Database, following spec.md §5's parallel portfolio model: workers
// search independently from the same root instance, exchange learnt
// clauses opportunistically, and the first one to reach a result wins.
package portfolio

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arborsat/cdsat/internal/sat"
	"github.com/arborsat/cdsat/internal/satdb"
)

// compactInterval is how often the portfolio driver asks the shared
// database to drop dead learnt clauses from its bookkeeping, independent
// of any single worker's search loop (SPEC_FULL.md §10, "database
// compaction timing is left to the caller").
const compactInterval = 50 * time.Millisecond

// WorkerResult pairs a worker's final statistics with its id, for callers
// that want per-worker reporting (e.g. --stats-csv).
type WorkerResult struct {
	WorkerID int
	Stats    *sat.Stats
}

// Portfolio owns a root solver's clones and the database they share.
type Portfolio struct {
	db      *satdb.Database
	workers []*sat.Solver
}

// New builds a Portfolio of n workers from root, which must be at the root
// decision level with its clauses already loaded (spec.md §4.6's
// replicate(n)). n is clamped to at least 1; 1 reproduces single-threaded
// behavior (testable property I7).
func New(root *sat.Solver, n int) *Portfolio {
	if n < 1 {
		n = 1
	}
	db := satdb.NewDatabase(n)
	workers := make([]*sat.Solver, n)

	rootID := db.NextID()
	root.SetPeer(rootID, db)
	workers[rootID] = root

	for i := 1; i < n; i++ {
		id := db.NextID()
		clone := root.Clone(id)
		clone.SetPeer(id, db)
		workers[id] = clone
	}
	return &Portfolio{db: db, workers: workers}
}

// DefaultWorkerCount mirrors the CLI's --workers default (SPEC_FULL.md
// §6): one worker per logical CPU.
func DefaultWorkerCount() int {
	return runtime.NumCPU()
}

// Run solves the instance with every worker concurrently, returning the
// first result any worker reaches together with every worker's final
// statistics (in worker-id order, for --stats-csv reporting). Workers that
// have not yet finished when another reports a result notice it on their
// next propagation cycle via Solver.syncWithPeer and return promptly; Run
// itself waits for all of them to unwind before returning.
func Run(ctx context.Context, p *Portfolio) (sat.LBool, []bool, []WorkerResult, error) {
	if err := ctx.Err(); err != nil {
		return sat.Unknown, nil, nil, err
	}

	var solvers errgroup.Group
	results := make([]WorkerResult, len(p.workers))

	for i, w := range p.workers {
		i, w := i, w
		solvers.Go(func() error {
			result, model := w.Solve()
			p.db.Resolve(result, model)
			results[i] = WorkerResult{WorkerID: w.WorkerID(), Stats: w.Stats()}
			return nil
		})
	}

	stopCompact := make(chan struct{})
	compactDone := make(chan struct{})
	go func() {
		defer close(compactDone)
		ticker := time.NewTicker(compactInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCompact:
				return
			case <-ticker.C:
				p.db.Compact()
			}
		}
	}()

	err := solvers.Wait()
	close(stopCompact)
	<-compactDone
	if err != nil {
		return sat.Unknown, nil, nil, err
	}

	result, model := p.db.PollSolution()
	return result, model, results, nil
}
