package sat

import (
	"fmt"
	"time"
)

// Learnt-clause budget constants (spec.md §6): the solver keeps at most
// roughly LearntFactor * len(constraints) learnt clauses before running a
// reduction pass, and grows that budget by LearntGrowth after every
// restart.
const (
	LearntFactor = 1.0 / 3.0
	LearntGrowth = 1.3
)

// Peer is the portfolio-facing side of a solver worker: importing clauses
// published by other workers, publishing its own batched learnts, and
// polling for a solution any worker may have already found. A Solver run
// single-threaded (Peer == nil) never touches it.
type Peer interface {
	Import(workerID int) []*Clause
	Publish(workerID int, learnts []*Clause)
	PollSolution() (LBool, []bool)
}

// Options configures a Solver's heuristics. Zero-value Options is not
// usable directly; start from DefaultOptions.
type Options struct {
	ClauseDecay float64
	VarDecay    float64
	PhaseSaving bool
}

// DefaultOptions mirrors spec.md §6's named constants where the spec gives
// one (VarDecay, 1.2) and otherwise uses conventional CDCL defaults.
var DefaultOptions = Options{
	ClauseDecay: 0.999,
	VarDecay:    1.2,
	PhaseSaving: true,
}

// Solver is one worker's CDCL search state: the two-watched-literal
// propagation structure, the VSIDS order, the trail, and the Luby restart
// schedule (spec.md §3/§4.6). A Solver is only ever driven by the
// goroutine that owns it; sharing happens through the immutable initial
// clauses and through Peer, never by touching another Solver's fields.
type Solver struct {
	workerID int
	opts     Options

	constraints []*Clause
	learnts     []*Clause
	clauseInc   float64

	watches *WatchList
	order   *VarOrder

	assigns  []LBool
	trail    []Literal
	trailLim []int
	reason   []*Clause
	level    []int

	propQueue *Queue[Literal]
	seen      *ResetSet

	restarts *RestartPolicy
	stats    *Stats
	unsat    bool

	peer           Peer
	pendingPublish []*Clause

	tmpLearnt []Literal
	tmpReason []Literal
}

// NewSolver returns a Solver with numVars variables and no clauses yet.
func NewSolver(numVars int, opts Options) *Solver {
	s := &Solver{
		opts:      opts,
		clauseInc: 1,
		watches:   NewWatchList(numVars),
		order:     NewVarOrder(opts.VarDecay, opts.PhaseSaving),
		assigns:   make([]LBool, 2*numVars),
		reason:    make([]*Clause, numVars),
		level:     make([]int, numVars),
		propQueue: NewQueue[Literal](128),
		seen:      &ResetSet{},
		restarts:  NewRestartPolicy(),
		stats:     NewStats(0.9),
	}
	for v := 0; v < numVars; v++ {
		s.level[v] = -1
		s.order.AddVar(0, true)
		s.seen.Expand()
	}
	return s
}

// WorkerID reports the index this solver was constructed or cloned with;
// single-worker solvers default to 0.
func (s *Solver) WorkerID() int {
	return s.workerID
}

// SetPeer wires the solver to a shared database collaborator. Called once
// by the portfolio driver before Solve.
func (s *Solver) SetPeer(workerID int, peer Peer) {
	s.workerID = workerID
	s.peer = peer
}

// Stats returns the solver's running statistics.
func (s *Solver) Stats() *Stats {
	return s.stats
}

func (s *Solver) NumVariables() int { return len(s.level) }
func (s *Solver) NumAssigns() int   { return len(s.trail) }
func (s *Solver) NumConstraints() int { return len(s.constraints) }
func (s *Solver) NumLearnts() int   { return len(s.learnts) }

func (s *Solver) decisionLevel() int { return len(s.trailLim) }

// VarValue reports the current value of variable v.
func (s *Solver) VarValue(v int) LBool { return s.assigns[PositiveLiteral(v)] }

// LitValue reports the current value of literal l.
func (s *Solver) LitValue(l Literal) LBool { return s.assigns[l] }

// VarLevel reports the decision level variable v was assigned at, or -1 if
// it is unassigned.
func (s *Solver) VarLevel(v int) int { return s.level[v] }

// VarReason reports the clause that forced variable v's assignment, or nil
// if v is unassigned or was a decision.
func (s *Solver) VarReason(v int) *Clause { return s.reason[v] }

// Unsat reports whether the solver has already proven the instance
// unsatisfiable at the root level.
func (s *Solver) Unsat() bool { return s.unsat }

// AddClause installs a clause from the input CNF. It must only be called
// at the root decision level, before Solve has started searching.
func (s *Solver) AddClause(lits []Literal) error {
	if s.decisionLevel() != 0 {
		return fmt.Errorf("sat: AddClause called below the root level")
	}
	c, ok := NewInitialClause(lits)
	if !ok {
		s.unsat = true
		return nil
	}
	for _, l := range c.Literals {
		s.order.Bump(l.Var())
	}
	if len(c.Literals) == 1 {
		if !s.enqueue(c.Literals[0], nil) {
			s.unsat = true
		}
		return nil
	}
	s.watches.InstallInitial(c)
	s.constraints = append(s.constraints, c)
	return nil
}

// Simplify propagates any pending root-level facts and drops learnt
// clauses the root assignment has permanently satisfied. It must only be
// called at the root decision level.
func (s *Solver) Simplify() bool {
	if s.decisionLevel() != 0 {
		panic("sat: Simplify called above the root level")
	}
	if s.unsat {
		return false
	}
	if conflict := s.Propagate(); conflict != nil {
		s.unsat = true
		return false
	}
	s.learnts = s.watches.RemoveSatisfied(s, s.learnts)
	return true
}

// enqueue assigns l true with from as its cause (nil for a decision),
// returning false if l was already assigned false.
func (s *Solver) enqueue(l Literal, from *Clause) bool {
	switch s.assigns[l] {
	case False:
		return false
	case True:
		return true
	default:
		v := l.Var()
		s.assigns[l] = True
		s.assigns[l.Opposite()] = False
		s.level[v] = s.decisionLevel()
		s.reason[v] = from
		s.trail = append(s.trail, l)
		s.propQueue.Push(l)
		return true
	}
}

func (s *Solver) assume(l Literal) bool {
	s.trailLim = append(s.trailLim, len(s.trail))
	return s.enqueue(l, nil)
}

func (s *Solver) undoOne() {
	l := s.trail[len(s.trail)-1]
	v := l.Var()
	s.order.Reinsert(v, s.assigns[PositiveLiteral(v)])
	s.assigns[l] = Unknown
	s.assigns[l.Opposite()] = Unknown
	s.reason[v] = nil
	s.level[v] = -1
	s.trail = s.trail[:len(s.trail)-1]
}

func (s *Solver) cancel() {
	n := len(s.trail) - s.trailLim[len(s.trailLim)-1]
	for ; n > 0; n-- {
		s.undoOne()
	}
	s.trailLim = s.trailLim[:len(s.trailLim)-1]
}

func (s *Solver) cancelUntil(level int) {
	for s.decisionLevel() > level {
		s.cancel()
	}
}

// Propagate drains the propagation queue via the watch list's BCP,
// re-checking every forced unit against the current assignment before
// applying it (spec.md §4.6.1). It returns the first clause found
// conflicting, or nil once the queue empties without one.
func (s *Solver) Propagate() *Clause {
	for s.propQueue.Size() > 0 {
		l := s.propQueue.Pop()
		s.stats.Propagations++

		forced, conflict := s.watches.Set(s, l)
		if conflict != nil {
			s.propQueue.Clear()
			return conflict
		}
		for _, f := range forced {
			switch s.assigns[f.Lit] {
			case True:
				continue
			case False:
				s.propQueue.Clear()
				return f.Clause
			default:
				s.enqueue(f.Lit, f.Clause)
			}
		}
	}
	return nil
}

// explain returns the negation of every literal of c other than excluded
// (all of them, if hasExcluded is false), bumping c's activity if it is a
// learnt clause. This realizes both "explain a conflict" (hasExcluded
// false, called on the conflicting clause itself) and "explain why l was
// forced" (hasExcluded true) from spec.md §4.6.2.
func (s *Solver) explain(c *Clause, excluded Literal, hasExcluded bool) []Literal {
	s.tmpReason = s.tmpReason[:0]
	for _, lit := range c.Literals {
		if hasExcluded && lit == excluded {
			continue
		}
		s.tmpReason = append(s.tmpReason, lit.Opposite())
	}
	if !c.Initial {
		s.bumpClauseActivity(c)
	}
	return s.tmpReason
}

// analyze walks the implication graph backward from a conflict to its
// first unique implication point, following spec.md §4.6.2. It returns the
// learnt clause's literals (the asserting literal first) and the level to
// backjump to.
func (s *Solver) analyze(conflict *Clause) ([]Literal, int) {
	remaining := 0
	s.tmpLearnt = append(s.tmpLearnt[:0], 0) // placeholder for the asserting literal
	s.seen.Clear()
	backtrackLevel := 0

	nextIdx := len(s.trail) - 1
	c := conflict
	var pivot Literal
	hasPivot := false

	for {
		for _, q := range s.explain(c, pivot, hasPivot) {
			v := q.Var()
			if s.seen.Contains(v) {
				continue
			}
			s.seen.Add(v)
			if s.level[v] == s.decisionLevel() {
				remaining++
				continue
			}
			s.tmpLearnt = append(s.tmpLearnt, q.Opposite())
			if lvl := s.level[v]; lvl > backtrackLevel {
				backtrackLevel = lvl
			}
		}

		for {
			pivot = s.trail[nextIdx]
			nextIdx--
			v := pivot.Var()
			c = s.reason[v]
			if s.seen.Contains(v) {
				hasPivot = true
				break
			}
		}

		remaining--
		if remaining <= 0 {
			break
		}
	}

	s.tmpLearnt[0] = pivot.Opposite()
	learnt := append([]Literal(nil), s.tmpLearnt...)
	return learnt, backtrackLevel
}

// record installs a freshly learnt clause (or, if it reduced to a single
// literal, enqueues it directly) and queues it for publication to peers.
func (s *Solver) record(lits []Literal) {
	s.stats.ClausesLearned++
	if len(lits) == 1 {
		s.enqueue(lits[0], nil)
		return
	}
	c := NewLearntClause(lits)
	asserting := s.watches.InstallLearnt(c)
	s.enqueue(asserting, c)
	s.learnts = append(s.learnts, c)
	s.pendingPublish = append(s.pendingPublish, c)
}

const (
	clauseActivityRescaleThreshold = 1e100
	clauseActivityRescaleFactor    = 1e-100
)

func (s *Solver) bumpClauseActivity(c *Clause) {
	c.BumpActivity(s.clauseInc)
	if c.Activity() > clauseActivityRescaleThreshold {
		for _, l := range s.learnts {
			l.RescaleActivity(clauseActivityRescaleFactor)
		}
		s.clauseInc *= clauseActivityRescaleFactor
	}
}

func (s *Solver) decayClauseActivity() {
	s.clauseInc /= s.opts.ClauseDecay
}

// ReduceDB discards the lower half of learnt clause activity, keeping
// locked and short clauses (spec.md §4.3.4).
func (s *Solver) ReduceDB() {
	s.learnts = s.watches.Clean(s, s.learnts)
}

func (s *Solver) resolveConflict(conflict *Clause) bool {
	if s.decisionLevel() == 0 {
		s.unsat = true
		return false
	}
	learnt, backtrackLevel := s.analyze(conflict)
	s.cancelUntil(backtrackLevel)
	s.record(learnt)
	s.order.Decay()
	s.decayClauseActivity()
	s.restarts.OnConflict()
	return true
}

// importFromPeer installs every clause the peer has for this worker,
// enqueueing forced units directly and backjumping when a transferred
// clause turns out to be conflicting under the local trail (spec.md
// §4.3.3). Per SPEC_FULL.md §10 this deliberately does not attempt to
// resolve that conflict through analyze: it only rewinds to the pivot's
// level and lets ordinary search rediscover whatever follows.
func (s *Solver) importFromPeer() {
	imported := s.peer.Import(s.workerID)
	s.stats.TransferredClauses += uint64(len(imported))
	for _, c := range imported {
		result, pivot := s.watches.InstallTransferred(s, c)
		switch result {
		case TransferForced:
			s.enqueue(pivot, c)
		case TransferConflictPivot:
			if lvl := s.level[pivot.Var()]; lvl < s.decisionLevel() {
				s.cancelUntil(lvl)
			}
		}
	}
}

func (s *Solver) syncWithPeer() (result LBool, done bool) {
	if s.peer == nil {
		return Unknown, false
	}
	if result, _ := s.peer.PollSolution(); result != Unknown {
		return result, true
	}
	if len(s.pendingPublish) > 0 {
		s.peer.Publish(s.workerID, s.pendingPublish)
		s.stats.WrittenClauses += uint64(len(s.pendingPublish))
		s.pendingPublish = s.pendingPublish[:0]
	}
	s.importFromPeer()
	return Unknown, false
}

// search runs one restart episode: propagate/decide until either a result
// is reached, the solution is learned from a peer, or the Luby schedule
// calls for a restart (in which case it returns Unknown after rewinding to
// the root level).
func (s *Solver) search(maxLearnts int) LBool {
	if s.unsat {
		return False
	}
	for {
		if conflict := s.Propagate(); conflict != nil {
			if !s.resolveConflict(conflict) {
				return False
			}
			continue
		}

		if result, done := s.syncWithPeer(); done {
			return result
		}

		if s.decisionLevel() == 0 {
			if !s.Simplify() {
				return False
			}
		}

		if len(s.learnts) >= maxLearnts {
			s.ReduceDB()
		}

		if len(s.trail) == s.NumVariables() {
			return True
		}

		if s.restarts.ShouldRestart() {
			s.cancelUntil(0)
			return Unknown
		}

		s.assume(s.order.Next(s))
	}
}

// Solve runs the solver to completion: SAT with a satisfying model, or
// UNSAT. It drives restarts and learnt-clause budget growth itself
// (spec.md §4.6.3); the caller only needs to call it once per worker.
func (s *Solver) Solve() (LBool, []bool) {
	s.stats.StartTime = time.Now()
	maxLearnts := int(float64(len(s.constraints)) * LearntFactor)
	if maxLearnts < 1 {
		maxLearnts = 1
	}

	for {
		result := s.search(maxLearnts)
		switch result {
		case True:
			if len(s.trail) < s.NumVariables() {
				// A peer reported SAT first (syncWithPeer): its model is
				// the satisfying one, this worker's trail is partial.
				_, model := s.peer.PollSolution()
				return True, model
			}
			return True, s.currentModel()
		case False:
			return False, nil
		default:
			s.restarts.Reset()
			s.stats.Restarts++
			maxLearnts = int(float64(maxLearnts) * LearntGrowth)
		}
	}
}

func (s *Solver) currentModel() []bool {
	model := make([]bool, s.NumVariables())
	for v := range model {
		model[v] = s.assigns[PositiveLiteral(v)] == True
	}
	return model
}

// Clone returns a fresh solver for workerID sharing this solver's
// immutable initial clauses and root-level assignment, following
// spec.md §4.2's replicate(n): "each clone's VSIDS/polarity state starts
// identical; divergence comes from the database's publication timing and
// unspecified propagation order." It must only be called at the root
// decision level, before any search has taken place.
func (s *Solver) Clone(workerID int) *Solver {
	if s.decisionLevel() != 0 {
		panic("sat: Clone called above the root level")
	}
	clone := NewSolver(s.NumVariables(), s.opts)
	clone.workerID = workerID
	clone.unsat = s.unsat

	clone.constraints = append([]*Clause(nil), s.constraints...)
	for _, c := range clone.constraints {
		clone.watches.InstallInitial(c)
	}
	clone.order.CopyScoresFrom(s.order)

	clone.assigns = append([]LBool(nil), s.assigns...)
	clone.level = append([]int(nil), s.level...)
	clone.reason = append([]*Clause(nil), s.reason...)
	clone.trail = append([]Literal(nil), s.trail...)
	// Root-level units are enqueued but not yet propagated by AddClause;
	// queue them so the clone's first Propagate rewires its own watches.
	for _, l := range clone.trail {
		clone.propQueue.Push(l)
	}

	return clone
}
