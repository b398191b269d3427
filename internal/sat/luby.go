package sat

const (
	// RestartBase and RestartIncrement are the Luby restart schedule
	// constants (spec.md §6): the solver restarts every
	// luby(n, RestartIncrement) * RestartBase conflicts, where n counts
	// restarts taken so far.
	RestartBase      = 100
	RestartIncrement = 2
)

// luby computes the x-th term of the base-y Luby sequence, grounded on
// original_source's src/luby.rs (itself a direct transcription of the
// textbook recursive definition) and cross-checked against the iterative
// form in the vendored github.com/operator-framework/gini restart
// scheduler: luby(i, 2) for i = 0..14 is
// 1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8.
func luby(x, y uint64) uint64 {
	size, seq := uint64(1), uint64(0)
	for size < x+1 {
		seq++
		size = 2*size + 1
	}
	for size-1 != x {
		size = (size - 1) >> 1
		seq--
		x = x % size
	}
	return ipow(y, seq)
}

func ipow(base, exp uint64) uint64 {
	result := uint64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

// RestartPolicy tracks conflicts since the last restart and decides when
// the solver should give up its current search tree and restart from the
// root, following the Luby schedule scaled by RestartBase.
type RestartPolicy struct {
	conflictsSinceRestart uint64
	restartsTaken         uint64
}

// NewRestartPolicy returns a policy with no restarts taken yet.
func NewRestartPolicy() *RestartPolicy {
	return &RestartPolicy{}
}

// OnConflict records one conflict. Call it once per conflict found during
// search.
func (r *RestartPolicy) OnConflict() {
	r.conflictsSinceRestart++
}

// ShouldRestart reports whether the conflict count since the last restart
// has reached the current Luby-scheduled threshold.
func (r *RestartPolicy) ShouldRestart() bool {
	threshold := luby(r.restartsTaken, RestartIncrement) * RestartBase
	return r.conflictsSinceRestart >= threshold
}

// Reset is called once the solver actually restarts: it clears the
// conflict counter and advances the schedule to its next term.
func (r *RestartPolicy) Reset() {
	r.conflictsSinceRestart = 0
	r.restartsTaken++
}
