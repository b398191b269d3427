package portfolio

import (
	"context"
	"testing"

	"github.com/arborsat/cdsat/internal/sat"
)

// trivialSatisfiable builds a small, obviously satisfiable instance: three
// variables constrained only so that v0 must be true and v1 must differ
// from v2, leaving multiple models.
func trivialSatisfiable(t *testing.T) *sat.Solver {
	t.Helper()
	s := sat.NewSolver(3, sat.DefaultOptions)
	clauses := [][]sat.Literal{
		{sat.PositiveLiteral(0)},
		{sat.PositiveLiteral(1), sat.PositiveLiteral(2)},
		{sat.NegativeLiteral(1), sat.NegativeLiteral(2)},
	}
	for _, cl := range clauses {
		if err := s.AddClause(cl); err != nil {
			t.Fatalf("AddClause(%v): %v", cl, err)
		}
	}
	return s
}

func TestPortfolio_SingleWorkerMatchesDirectSolve(t *testing.T) {
	s := trivialSatisfiable(t)
	p := New(s, 1)

	result, model, results, err := Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != sat.True {
		t.Fatalf("result = %v, want True", result)
	}
	if len(model) != 3 {
		t.Fatalf("model length = %d, want 3", len(model))
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
}

func TestPortfolio_MultipleWorkersAgreeOnSatisfiability(t *testing.T) {
	s := trivialSatisfiable(t)
	p := New(s, 4)

	result, model, results, err := Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != sat.True {
		t.Fatalf("result = %v, want True", result)
	}
	if len(results) != 4 {
		t.Fatalf("len(results) = %d, want 4", len(results))
	}
	for i, wr := range results {
		if wr.WorkerID != i {
			t.Errorf("results[%d].WorkerID = %d, want %d", i, wr.WorkerID, i)
		}
		if wr.Stats == nil {
			t.Errorf("results[%d].Stats is nil", i)
		}
	}
	if len(model) != 3 {
		t.Fatalf("model length = %d, want 3", len(model))
	}
}

func TestPortfolio_CancelledContextReturnsImmediately(t *testing.T) {
	s := trivialSatisfiable(t)
	p := New(s, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err := Run(ctx, p)
	if err == nil {
		t.Fatalf("Run with cancelled context: want error, got nil")
	}
}

func TestPortfolio_UnsatisfiableInstanceReturnsFalse(t *testing.T) {
	s := sat.NewSolver(1, sat.DefaultOptions)
	if err := s.AddClause([]sat.Literal{sat.PositiveLiteral(0)}); err != nil {
		t.Fatalf("AddClause: %v", err)
	}
	if err := s.AddClause([]sat.Literal{sat.NegativeLiteral(0)}); err != nil {
		t.Fatalf("AddClause: %v", err)
	}

	p := New(s, 2)
	result, model, _, err := Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result != sat.False {
		t.Fatalf("result = %v, want False", result)
	}
	if model != nil {
		t.Errorf("model = %v, want nil", model)
	}
}
