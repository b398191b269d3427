package sat

import "github.com/rhartert/yagh"

// DecisionSource is the view of solver state VarOrder needs to skip
// already-assigned variables when picking the next decision.
type DecisionSource interface {
	VarValue(v int) LBool
}

const (
	initialScoreIncrement = 1.0
	scoreRescaleThreshold = 1e100
	scoreRescaleFactor    = 1e-100
)

// VarOrder is the VSIDS decision heuristic: a max-heap of variables keyed by
// activity score, with phase saving so a reinserted variable is first tried
// at the polarity it last held.
type VarOrder struct {
	order *yagh.IntMap[float64]

	scores     []float64 // activity, in [0, 1e100)
	scoreInc   float64   // current bump size, in (0, 1e100)
	scoreDecay float64   // decay factor applied between conflicts, e.g. 1.2

	phases      []LBool
	phaseSaving bool
}

// NewVarOrder returns an empty VarOrder. decay is the VSIDS decay factor
// (spec.md §6: 1.2); phaseSaving enables remembering each variable's last
// polarity across reinsertion.
func NewVarOrder(decay float64, phaseSaving bool) *VarOrder {
	return &VarOrder{
		order:       yagh.New[float64](0),
		scoreInc:    initialScoreIncrement,
		scoreDecay:  decay,
		phaseSaving: phaseSaving,
	}
}

// AddVar registers a new variable with the given initial score and phase.
// Variables must be added in order, 0, 1, 2, ..., matching literal.Var().
func (vo *VarOrder) AddVar(initScore float64, initPhase bool) {
	v := len(vo.phases)
	vo.scores = append(vo.scores, initScore)
	vo.phases = append(vo.phases, Lift(initPhase))
	vo.order.GrowBy(1)
	vo.order.Put(v, -initScore)
}

// Reinsert makes v a candidate for selection again, recording val as its
// saved phase if phase saving is enabled. Called whenever backtracking
// unassigns v.
func (vo *VarOrder) Reinsert(v int, val LBool) {
	if vo.phaseSaving {
		vo.phases[v] = val
	}
	vo.order.Put(v, -vo.scores[v])
}

// Decay shrinks the relative weight of past activity bumps by inflating the
// bump increment, the standard VSIDS trick that avoids rescaling every
// variable's score on every conflict.
func (vo *VarOrder) Decay() {
	vo.scoreInc /= vo.scoreDecay
	if vo.scoreInc > scoreRescaleThreshold {
		vo.rescale()
	}
}

// Bump increases v's activity score, moving it up the heap if it is
// currently a candidate.
func (vo *VarOrder) Bump(v int) {
	next := vo.scores[v] + vo.scoreInc
	vo.scores[v] = next
	if vo.order.Contains(v) {
		vo.order.Put(v, -next)
	}
	if next > scoreRescaleThreshold {
		vo.rescale()
	}
}

// Next pops the highest-activity unassigned variable and returns the
// literal to try first: its saved phase if phase saving kept one, otherwise
// the initial phase given to AddVar. It panics if every variable is already assigned — callers
// must check for a full assignment before calling Next.
func (vo *VarOrder) Next(a DecisionSource) Literal {
	for {
		item, ok := vo.order.Pop()
		if !ok {
			panic("sat: VarOrder.Next called with no unassigned variables left")
		}
		if a.VarValue(item.Elem) != Unknown {
			continue
		}
		if vo.phases[item.Elem] == False {
			return NegativeLiteral(item.Elem)
		}
		return PositiveLiteral(item.Elem)
	}
}

// CopyScoresFrom overwrites vo's per-variable activity (and scoreInc, so
// later Bump calls stay on the same scale) with src's, repositioning every
// still-candidate variable in the heap. Used by Solver.Clone so a cloned
// worker's VSIDS state starts identical to its source's, including the
// occurrence-count activity from clauses that never reach a constraints
// slice (unit clauses resolved straight onto the trail).
func (vo *VarOrder) CopyScoresFrom(src *VarOrder) {
	vo.scoreInc = src.scoreInc
	copy(vo.scores, src.scores)
	for v, sc := range vo.scores {
		if vo.order.Contains(v) {
			vo.order.Put(v, -sc)
		}
	}
}

func (vo *VarOrder) rescale() {
	vo.scoreInc *= scoreRescaleFactor
	for v, s := range vo.scores {
		next := s * scoreRescaleFactor
		vo.scores[v] = next
		if vo.order.Contains(v) {
			vo.order.Put(v, -next)
		}
	}
}
