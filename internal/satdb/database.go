// Package satdb implements the shared clause database a portfolio of
// sat.Solver workers publish learnt clauses through and race to report a
// result on, grounded on original_source's src/database.rs (the Arc/RwLock/
// Weak ClauseDatabase this spec's §4.2 was distilled from).
package satdb

import (
	"sync"

	"github.com/arborsat/cdsat/internal/sat"
)

// slot holds one worker's published learnt clauses. total counts every
// clause ever appended (a monotonically increasing clock); deleted counts
// how many have since been compacted away. A consumer's cursor into this
// slot is always "total as of its last read", and cursor-deleted is used as
// the skip index into clauses after compaction shifts it (the same trick
// src/database.rs uses to reconcile per-consumer read cursors against a
// vector that shrinks underneath them). The index is exact when every
// compacted clause lay before the cursor; when some lay after it, the index
// is smaller and already-read clauses are offered again. An unread clause
// is never skipped.
type slot struct {
	mu      sync.RWMutex
	total   uint64
	deleted uint64
	clauses []*sat.Clause
}

// solutionSlot is the nested-Option result cell from src/database.rs:
// undecided until the first worker to finish writes to it, after which
// every later write is dropped (first writer wins, spec.md §4.4).
type solutionSlot struct {
	mu     sync.Mutex
	result sat.LBool
	model  []bool
}

// Database is the clause-sharing and result-reporting hub a Portfolio wires
// every cloned Solver to via sat.Peer. Each worker only ever writes its own
// slot (via Publish) and only ever reads its own cursor row (via Import),
// so the hot path needs no exclusive locking beyond each slot's own mutex.
type Database struct {
	mu      sync.RWMutex // guards slots/cursors length, touched only by Resize/NextID
	slots   []*slot
	cursors [][]uint64 // cursors[workerID][sourceSlot]

	nextWorker int
	solution   solutionSlot
}

// NewDatabase returns a Database provisioned for n workers. n may be 0, in
// which case NextID adds slots as it hands out ids; the database can also be
// grown with Resize before any worker starts searching.
func NewDatabase(n int) *Database {
	db := &Database{solution: solutionSlot{result: sat.Unknown}}
	db.resizeLocked(n)
	return db
}

// NextID hands out the next unused worker slot index, growing the database
// by one slot. Called by Portfolio while spawning clones, before any
// worker's Solve has started.
func (db *Database) NextID() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.nextWorker
	if id >= len(db.slots) {
		db.resizeLocked(id + 1)
	}
	db.nextWorker++
	return id
}

// Resize grows the database to support n workers. It must only be called
// before any worker begins searching: growing a cursor row out from under a
// worker that is already calling Import would race.
func (db *Database) Resize(n int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.resizeLocked(n)
}

func (db *Database) resizeLocked(n int) {
	for len(db.slots) < n {
		db.slots = append(db.slots, &slot{})
	}
	for i, row := range db.cursors {
		for len(row) < len(db.slots) {
			row = append(row, db.slots[i].total)
		}
		db.cursors[i] = row
	}
	for len(db.cursors) < len(db.slots) {
		row := make([]uint64, len(db.slots))
		for i, s := range db.slots {
			row[i] = s.total
		}
		db.cursors = append(db.cursors, row)
	}
}

// NumWorkers reports how many worker slots the database currently serves.
func (db *Database) NumWorkers() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.slots)
}

// Publish appends workerID's newly learnt clauses to its own slot under an
// exclusive lock on that slot alone (spec.md §4.2: a worker only ever
// writes its own slot, never another's).
func (db *Database) Publish(workerID int, learnts []*sat.Clause) {
	if len(learnts) == 0 {
		return
	}
	db.mu.RLock()
	s := db.slots[workerID]
	db.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clauses = append(s.clauses, learnts...)
	s.total += uint64(len(learnts))
}

// Import returns every clause published by another worker since workerID's
// last Import call, following the per-consumer incremental read spec.md
// §4.2 describes. A slot currently being compacted or published to is
// skipped for this call rather than blocked on (spec.md §5: best-effort
// reader/writer locking), so the same clauses may simply show up on a
// later Import instead.
func (db *Database) Import(workerID int) []*sat.Clause {
	db.mu.RLock()
	slots := db.slots
	cursor := db.cursors[workerID]
	db.mu.RUnlock()

	var out []*sat.Clause
	for i, s := range slots {
		if i == workerID {
			continue
		}
		if !s.mu.TryRLock() {
			continue
		}
		skip := uint64(0)
		if cursor[i] > s.deleted {
			skip = cursor[i] - s.deleted
		}
		if skip < uint64(len(s.clauses)) {
			out = append(out, s.clauses[skip:]...)
		}
		cursor[i] = s.total
		s.mu.RUnlock()
	}
	return out
}

// Compact drops every clause every slot has marked dead (sat.Clause.IsDead,
// spec.md §4.2/§10's weak-reference stand-in) from the database's own
// bookkeeping, so it stops re-offering them to consumers that have not read
// them yet. It does not touch any solver's own watch list: a clause a
// worker still has installed locally stays usable there regardless of
// whether the shared database has forgotten about it.
func (db *Database) Compact() {
	db.mu.RLock()
	slots := append([]*slot(nil), db.slots...)
	db.mu.RUnlock()

	for _, s := range slots {
		if !s.mu.TryLock() {
			continue
		}
		kept := s.clauses[:0]
		removed := uint64(0)
		for _, c := range s.clauses {
			if c.IsDead() {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		s.clauses = kept
		s.deleted += removed
		s.mu.Unlock()
	}
}

// Resolve records a worker's result, winning only if no result has been
// recorded yet. It reports whether this call's result is the one now
// published. Called by the portfolio driver once a worker's Solve returns,
// never by the solver itself.
func (db *Database) Resolve(result sat.LBool, model []bool) bool {
	db.solution.mu.Lock()
	defer db.solution.mu.Unlock()
	if db.solution.result != sat.Unknown {
		return false
	}
	db.solution.result = result
	db.solution.model = model
	return true
}

// PollSolution reports the first result any worker has recorded, or
// sat.Unknown with a nil model if none has yet.
func (db *Database) PollSolution() (sat.LBool, []bool) {
	db.solution.mu.Lock()
	defer db.solution.mu.Unlock()
	return db.solution.result, db.solution.model
}
