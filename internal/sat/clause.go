package sat

import (
	"math"
	"sort"
	"strings"
	"sync/atomic"
)

// Clause is an ordered, duplicate-free sequence of literals, plus the
// bookkeeping a CDCL solver needs to treat it as either an input constraint
// or a learnt one.
//
// A Clause is constructed once and its Literals slice never changes length
// or order afterward (the watch list records watched literals in its own
// maps and never touches the slice) — this lets multiple watch lists and the
// shared clause database all hold the same *Clause safely without a lock
// on the literal slice itself.
type Clause struct {
	// Literals always has at least two entries for any clause reachable
	// through a watch list; unit and empty clauses are handled directly by
	// the solver/database and never installed in a WatchList.
	Literals []Literal

	// Initial is true iff this clause came from the input CNF rather than
	// from conflict analysis.
	Initial bool

	// activity is a monotonically bumped heuristic counter shared by every
	// holder of this *Clause. It is stored as the bit pattern of a
	// float64 behind an atomic so that multiple workers can bump the
	// activity of a clause they both learnt/imported without a mutex (see
	// SPEC_FULL.md §5).
	activity atomic.Uint64

	// dead stands in for the "weak reference became unreachable" signal
	// the original design expresses with Arc/Weak (see SPEC_FULL.md §10,
	// Open Questions). It is set when one worker's watch list drops this
	// clause (WatchList.Clean or RemoveSatisfied), whether or not other
	// workers that imported it still watch it, and is checked by
	// Database.Compact.
	dead atomic.Bool
}

// NewInitialClause builds a Clause from a raw, possibly unsorted and
// duplicate-laden, literal slice read from DIMACS input. It sorts and
// deduplicates the literals (spec.md §3/§4.1: "sorted for canonical
// equality and binary search"). Tautological clauses (containing a literal
// and its negation) are retained whole, per spec.md §6, rather than
// collapsed: the two-watched-literal scheme satisfies them for free the
// first time either polarity is assigned.
//
// ok is false iff the clause is empty after deduplication, which signals
// immediate unsatisfiability to the caller.
func NewInitialClause(lits []Literal) (c *Clause, ok bool) {
	ls := append([]Literal(nil), lits...)
	sort.Slice(ls, func(i, j int) bool { return ls[i] < ls[j] })

	j := 0
	for i := 0; i < len(ls); i++ {
		if j > 0 && ls[j-1] == ls[i] {
			continue // exact duplicate literal
		}
		ls[j] = ls[i]
		j++
	}
	ls = ls[:j]

	if len(ls) == 0 {
		return nil, false
	}
	return &Clause{Literals: ls, Initial: true}, true
}

// NewLearntClause wraps the literals produced by analyze (see
// solver.go:analyze) into a Clause. The slice is expected to already be the
// asserting literal followed by the negated reason literals, with no
// duplicates (conflict analysis's seen-set rules that out) — it is used
// as-is, unsorted, so that the caller keeps control of which two literals
// are installed as the initial watched pair (spec.md §4.3.2).
func NewLearntClause(lits []Literal) *Clause {
	ls := append([]Literal(nil), lits...)
	return &Clause{Literals: ls, Initial: false}
}

// Activity returns the clause's current heuristic activity.
func (c *Clause) Activity() float64 {
	return math.Float64frombits(c.activity.Load())
}

// BumpActivity adds the clause-activity increment atomically, so that two
// workers racing to bump the same imported learnt clause's activity never
// lose an update (spec.md §5: "Clause activity counters are atomic
// integers").
func (c *Clause) BumpActivity(inc float64) {
	for {
		old := c.activity.Load()
		next := math.Float64bits(math.Float64frombits(old) + inc)
		if c.activity.CompareAndSwap(old, next) {
			return
		}
	}
}

// RescaleActivity multiplies the clause's activity by factor atomically.
// Used to keep activity values in a representable range when a solver's
// bump increment has grown very large (see solver.go's bumpClauseActivity).
func (c *Clause) RescaleActivity(factor float64) {
	for {
		old := c.activity.Load()
		next := math.Float64bits(math.Float64frombits(old) * factor)
		if c.activity.CompareAndSwap(old, next) {
			return
		}
	}
}

// MarkDead records that a worker's watch list has dropped c, after which
// Database.Compact stops offering c to peers. It does not track whether
// other workers, or reason slots, still hold c. See SPEC_FULL.md §10.
func (c *Clause) MarkDead() {
	c.dead.Store(true)
}

// IsDead reports whether MarkDead has been called on c.
func (c *Clause) IsDead() bool {
	return c.dead.Load()
}

// Len is a convenience accessor used by reduction/locking logic.
func (c *Clause) Len() int {
	return len(c.Literals)
}

func (c *Clause) String() string {
	if len(c.Literals) == 0 {
		return "()"
	}
	sb := strings.Builder{}
	sb.WriteByte('(')
	sb.WriteString(c.Literals[0].String())
	for _, l := range c.Literals[1:] {
		sb.WriteString(" | ")
		sb.WriteString(l.String())
	}
	sb.WriteByte(')')
	return sb.String()
}
