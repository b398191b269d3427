package sat

import "sort"

// Assignment is the view of solver state the watch list needs in order to
// propagate and reduce clauses, without needing to import the Solver type
// itself. *Solver satisfies it.
type Assignment interface {
	LitValue(l Literal) LBool
	VarLevel(v int) int
	VarReason(v int) *Clause
}

// Forced is a unit implication produced while re-wiring the watch list for
// a literal that just became true (spec.md §4.3.1): clause c has exactly
// one non-false literal left, lit, which the caller must assign (after
// re-checking it against the current assignment, since earlier items in
// the same batch may have changed it).
type Forced struct {
	Clause *Clause
	Lit    Literal
}

// TransferResult describes the outcome of installing a clause received
// from a peer worker (spec.md §4.3.3).
type TransferResult int

const (
	// TransferNoop covers: the clause was already watched locally, it has
	// two or more non-false literals, its single non-false literal is
	// already true, or (conservatively, per SPEC_FULL.md §10) it was
	// fully falsified with no literal at a strictly lower level to pair
	// against and was therefore discarded rather than guessed at.
	TransferNoop TransferResult = iota
	// TransferForced: the clause had exactly one non-false literal, and
	// it was unassigned; the caller must assign it with c as the cause.
	TransferForced
	// TransferConflictPivot: every literal was falsified locally; Lit is
	// the chosen pivot literal the caller must use to backjump to its
	// level and re-propagate.
	TransferConflictPivot
)

// WatchList is the two-watched-literal occurrence index for a single
// solver worker (spec.md §4.3). It is never accessed from more than one
// goroutine, so its maps need no synchronization of their own (spec.md §9,
// "Concurrent map in watch list").
type WatchList struct {
	// occs[l] maps a clause watching literal l to the clause's other
	// watched literal.
	occs []map[*Clause]Literal
	// pair records the two literals currently watching each installed
	// clause; its keys also double as the "is c currently watched here"
	// membership test used by InstallTransferred and Clean.
	pair map[*Clause][2]Literal
}

// NewWatchList returns an empty watch list sized for maxVar variables.
func NewWatchList(maxVar int) *WatchList {
	return &WatchList{
		occs: make([]map[*Clause]Literal, 2*maxVar),
		pair: make(map[*Clause][2]Literal),
	}
}

func (wl *WatchList) slot(l Literal) map[*Clause]Literal {
	if wl.occs[l.Raw()] == nil {
		wl.occs[l.Raw()] = make(map[*Clause]Literal)
	}
	return wl.occs[l.Raw()]
}

func (wl *WatchList) installPair(c *Clause, a, b Literal) {
	wl.slot(a)[c] = b
	wl.slot(b)[c] = a
	wl.pair[c] = [2]Literal{a, b}
}

// IsWatched reports whether c currently has two watched literals in this
// watch list.
func (wl *WatchList) IsWatched(c *Clause) bool {
	_, ok := wl.pair[c]
	return ok
}

// InstallInitial installs a clause built directly from the input CNF,
// watching its first two literals. The caller is responsible for handling
// clauses with fewer than two literals directly (spec.md §4.3.2 note: a
// unit clause bypasses the watch list entirely).
func (wl *WatchList) InstallInitial(c *Clause) {
	if len(c.Literals) < 2 {
		panic("sat: InstallInitial requires at least two literals")
	}
	wl.installPair(c, c.Literals[0], c.Literals[1])
}

// InstallLearnt installs a freshly learnt clause, watching its asserting
// literal (Literals[0], by analyze's construction) together with any
// falsified literal, and returns the asserting literal for the solver to
// enqueue with c as its cause (spec.md §4.3.2).
func (wl *WatchList) InstallLearnt(c *Clause) Literal {
	if len(c.Literals) < 2 {
		panic("sat: InstallLearnt requires at least two literals")
	}
	wl.installPair(c, c.Literals[0], c.Literals[1])
	return c.Literals[0]
}

// InstallTransferred installs a clause received from a peer worker,
// following spec.md §4.3.3.
func (wl *WatchList) InstallTransferred(a Assignment, c *Clause) (TransferResult, Literal) {
	if wl.IsWatched(c) {
		return TransferNoop, 0
	}

	nonFalseCount := 0
	var first, second Literal
	for _, l := range c.Literals {
		if a.LitValue(l) == False {
			continue
		}
		nonFalseCount++
		switch nonFalseCount {
		case 1:
			first = l
		case 2:
			second = l
		}
	}

	switch {
	case nonFalseCount >= 2:
		wl.installPair(c, first, second)
		return TransferNoop, 0

	case nonFalseCount == 1:
		falseLit, ok := anyLiteral(c, first, func(l Literal) bool { return a.LitValue(l) == False })
		if !ok {
			return TransferNoop, 0
		}
		wl.installPair(c, first, falseLit)
		if a.LitValue(first) == Unknown {
			return TransferForced, first
		}
		return TransferNoop, 0 // first is already true: nothing to do.

	default: // every literal falsified locally
		pivot, partner, ok := choosePivotAndPartner(a, c)
		if !ok {
			return TransferNoop, 0 // see SPEC_FULL.md §10: discard, don't guess.
		}
		wl.installPair(c, pivot, partner)
		return TransferConflictPivot, pivot
	}
}

// anyLiteral returns the first literal of c (other than exclude) for which
// pred holds.
func anyLiteral(c *Clause, exclude Literal, pred func(Literal) bool) (Literal, bool) {
	for _, l := range c.Literals {
		if l == exclude || !pred(l) {
			continue
		}
		return l, true
	}
	return 0, false
}

// choosePivotAndPartner implements spec.md §4.3.3's all-literals-false
// branch: prefer a literal at the highest decision level that was forced
// (has a cause); otherwise fall back to any highest-level literal. The
// partner is any literal strictly below the pivot's level.
func choosePivotAndPartner(a Assignment, c *Clause) (pivot, partner Literal, ok bool) {
	haveForced := false
	bestAnyLevel, bestForcedLevel := -1, -1
	var bestAny, bestForced Literal

	for _, l := range c.Literals {
		lvl := a.VarLevel(l.Var())
		if lvl > bestAnyLevel {
			bestAnyLevel, bestAny = lvl, l
		}
		if a.VarReason(l.Var()) != nil && lvl > bestForcedLevel {
			bestForcedLevel, bestForced = lvl, l
			haveForced = true
		}
	}

	pivot = bestAny
	if haveForced {
		pivot = bestForced
	}
	pivotLevel := a.VarLevel(pivot.Var())

	for _, l := range c.Literals {
		if l == pivot {
			continue
		}
		if a.VarLevel(l.Var()) < pivotLevel {
			return pivot, l, true
		}
	}
	return pivot, 0, false
}

// Set implements BCP for a literal that just became true (spec.md
// §4.3.1). It returns the forced unit literals discovered while rewiring
// clauses that watch lTrue's negation, or the first clause found already
// conflicting.
func (wl *WatchList) Set(a Assignment, lTrue Literal) ([]Forced, *Clause) {
	falseLit := lTrue.Opposite()
	m := wl.occs[falseLit.Raw()]
	if len(m) == 0 {
		return nil, nil
	}

	type entry struct {
		clause *Clause
		other  Literal
	}
	entries := make([]entry, 0, len(m))
	for c, other := range m {
		entries = append(entries, entry{c, other})
	}
	clear(m)

	var forced []Forced
	for i, e := range entries {
		c, other := e.clause, e.other

		if a.LitValue(other) == True {
			m[c] = other // clause already satisfied; keep the pair as-is.
			continue
		}

		if next, ok := findReplacement(a, c, other); ok {
			wl.slot(other)[c] = next
			wl.slot(next)[c] = other
			wl.pair[c] = [2]Literal{other, next}
			continue
		}

		// No replacement: c is unit on `other`, or already conflicting.
		m[c] = other
		wl.pair[c] = [2]Literal{falseLit, other}
		if a.LitValue(other) == False {
			for _, rest := range entries[i+1:] {
				m[rest.clause] = rest.other
			}
			return forced, c
		}
		forced = append(forced, Forced{Clause: c, Lit: other})
	}
	return forced, nil
}

// findReplacement scans c's literals (other than `other`) for a literal
// that is not falsified, preferring one that is already true.
func findReplacement(a Assignment, c *Clause, other Literal) (Literal, bool) {
	haveUnassigned := false
	var unassigned Literal
	for _, lit := range c.Literals {
		if lit == other {
			continue
		}
		switch a.LitValue(lit) {
		case True:
			return lit, true
		case Unknown:
			if !haveUnassigned {
				unassigned, haveUnassigned = lit, true
			}
		}
	}
	if haveUnassigned {
		return unassigned, true
	}
	return 0, false
}

func (wl *WatchList) remove(c *Clause) {
	p, ok := wl.pair[c]
	if !ok {
		return
	}
	delete(wl.occs[p[0].Raw()], c)
	delete(wl.occs[p[1].Raw()], c)
	delete(wl.pair, c)
}

func (wl *WatchList) locked(a Assignment, c *Clause) bool {
	p, ok := wl.pair[c]
	if !ok {
		return false
	}
	for _, lit := range p {
		if a.LitValue(lit) == True && a.VarReason(lit.Var()) == c {
			return true
		}
	}
	return false
}

// RemoveSatisfied drops watches for learnt clauses permanently satisfied
// by the current (root-level) assignment; initial clauses are left
// untouched (spec.md §4.3.4). Dropped clauses are marked dead so that
// Database.Compact can reclaim them.
func (wl *WatchList) RemoveSatisfied(a Assignment, learnts []*Clause) []*Clause {
	kept := learnts[:0]
	for _, c := range learnts {
		p, ok := wl.pair[c]
		if ok && (a.LitValue(p[0]) == True || a.LitValue(p[1]) == True) {
			wl.remove(c)
			c.MarkDead()
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// Clean reduces the set of learnt clauses this watch list tracks (spec.md
// §4.3.4): a clause survives if it has two or fewer literals, is locked,
// or its activity is at or above the median of the clauses currently
// held; everything else is unwatched and marked dead.
func (wl *WatchList) Clean(a Assignment, learnts []*Clause) []*Clause {
	if len(learnts) == 0 {
		return learnts
	}
	median := medianActivity(learnts)

	kept := learnts[:0]
	for _, c := range learnts {
		if c.Len() <= 2 || wl.locked(a, c) || c.Activity() >= median {
			kept = append(kept, c)
			continue
		}
		wl.remove(c)
		c.MarkDead()
	}
	return kept
}

func medianActivity(learnts []*Clause) float64 {
	activities := make([]float64, len(learnts))
	for i, c := range learnts {
		activities[i] = c.Activity()
	}
	sort.Float64s(activities)
	return activities[len(activities)/2]
}
