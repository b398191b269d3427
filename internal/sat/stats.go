package sat

import "time"

// EMA is an exponential moving average, used to report smoothed rates
// (e.g. conflicts/sec) without keeping a full history.
type EMA struct {
	decay float64
	value float64
	init  bool
}

// NewEMA returns an EMA with the given decay factor in (0, 1); larger
// values weight history more heavily against new samples.
func NewEMA(decay float64) EMA {
	return EMA{decay: decay}
}

// Add folds one new sample into the average.
func (e *EMA) Add(x float64) {
	if !e.init {
		e.init = true
		e.value = x
		return
	}
	e.value = e.decay*e.value + x*(1-e.decay)
}

// Val returns the current smoothed value.
func (e *EMA) Val() float64 {
	return e.value
}

// Stats collects the plain counters a solver worker accumulates over a
// run (spec.md §4.7). Every field here is only ever touched by the
// worker that owns this Stats value; the portfolio driver collects each
// worker's Stats (one WorkerResult per worker) after that worker returns,
// rather than sharing this struct.
type Stats struct {
	Restarts           uint64
	ClausesLearned     uint64
	Propagations       uint64
	WrittenClauses     uint64
	TransferredClauses uint64
	StartTime          time.Time

	conflictRate EMA
}

// NewStats returns a zeroed Stats with a conflict-rate EMA of the given
// decay.
func NewStats(conflictRateDecay float64) *Stats {
	return &Stats{conflictRate: NewEMA(conflictRateDecay)}
}

// Elapsed reports the wall-clock time since StartTime was set; it is zero
// until Solve starts a run.
func (s *Stats) Elapsed() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	return time.Since(s.StartTime)
}

// RecordConflict folds one conflict, occurring secondsSinceLast after the
// previous one, into the smoothed conflict rate.
func (s *Stats) RecordConflict(secondsSinceLast float64) {
	if secondsSinceLast <= 0 {
		return
	}
	s.conflictRate.Add(1 / secondsSinceLast)
}

// ConflictRate reports the current smoothed conflicts-per-second figure.
func (s *Stats) ConflictRate() float64 {
	return s.conflictRate.Val()
}
