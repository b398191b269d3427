package sat

import (
	"testing"
	"time"
)

func TestEMA_FirstSampleIsExact(t *testing.T) {
	e := NewEMA(0.9)
	e.Add(5)
	if got, want := e.Val(), 5.0; got != want {
		t.Errorf("Val() = %v, want %v", got, want)
	}
}

func TestEMA_FoldsSubsequentSamples(t *testing.T) {
	e := NewEMA(0.5)
	e.Add(10)
	e.Add(20)
	if got, want := e.Val(), 15.0; got != want {
		t.Errorf("Val() = %v, want %v", got, want)
	}
}

func TestStats_ElapsedZeroUntilStarted(t *testing.T) {
	s := NewStats(0.9)
	if got := s.Elapsed(); got != 0 {
		t.Errorf("Elapsed() = %v before StartTime is set, want 0", got)
	}
	s.StartTime = time.Now().Add(-time.Second)
	if got := s.Elapsed(); got < time.Second {
		t.Errorf("Elapsed() = %v, want at least 1s", got)
	}
}

func TestStats_RecordConflictIgnoresNonPositiveDelta(t *testing.T) {
	s := NewStats(0.9)
	s.RecordConflict(0)
	s.RecordConflict(-1)
	if got, want := s.ConflictRate(), 0.0; got != want {
		t.Errorf("ConflictRate() = %v, want %v (non-positive deltas ignored)", got, want)
	}
	s.RecordConflict(0.5)
	if got, want := s.ConflictRate(), 2.0; got != want {
		t.Errorf("ConflictRate() = %v, want %v", got, want)
	}
}
