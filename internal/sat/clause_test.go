package sat

import "testing"

func TestNewInitialClause_SortsAndDedups(t *testing.T) {
	lits := []Literal{PositiveLiteral(2), NegativeLiteral(0), PositiveLiteral(0), NegativeLiteral(0)}
	c, ok := NewInitialClause(lits)
	if !ok {
		t.Fatalf("NewInitialClause(%v) = not ok, want ok", lits)
	}
	want := []Literal{PositiveLiteral(0), NegativeLiteral(0), PositiveLiteral(2)}
	if len(c.Literals) != len(want) {
		t.Fatalf("Literals = %v, want %v", c.Literals, want)
	}
	for i := range want {
		if c.Literals[i] != want[i] {
			t.Errorf("Literals[%d] = %v, want %v", i, c.Literals[i], want[i])
		}
	}
	if !c.Initial {
		t.Errorf("Initial = false, want true")
	}
}

func TestNewInitialClause_EmptyAfterDedupIsNotOK(t *testing.T) {
	_, ok := NewInitialClause(nil)
	if ok {
		t.Errorf("NewInitialClause(nil) = ok, want not ok")
	}
}

func TestNewLearntClause_KeepsOrderUnsorted(t *testing.T) {
	lits := []Literal{PositiveLiteral(3), NegativeLiteral(1)}
	c := NewLearntClause(lits)
	if c.Initial {
		t.Errorf("Initial = true, want false")
	}
	if c.Literals[0] != lits[0] || c.Literals[1] != lits[1] {
		t.Errorf("Literals = %v, want %v (unsorted, asserting literal first)", c.Literals, lits)
	}
}

func TestClause_BumpActivity(t *testing.T) {
	c := NewLearntClause([]Literal{PositiveLiteral(0), NegativeLiteral(1)})
	c.BumpActivity(1.5)
	c.BumpActivity(2.5)
	if got, want := c.Activity(), 4.0; got != want {
		t.Errorf("Activity() = %v, want %v", got, want)
	}
}

func TestClause_RescaleActivity(t *testing.T) {
	c := NewLearntClause([]Literal{PositiveLiteral(0), NegativeLiteral(1)})
	c.BumpActivity(10)
	c.RescaleActivity(0.1)
	if got, want := c.Activity(), 1.0; got != want {
		t.Errorf("Activity() = %v, want %v", got, want)
	}
}

func TestClause_MarkDeadIsDead(t *testing.T) {
	c := NewLearntClause([]Literal{PositiveLiteral(0), NegativeLiteral(1)})
	if c.IsDead() {
		t.Fatalf("IsDead() = true before MarkDead, want false")
	}
	c.MarkDead()
	if !c.IsDead() {
		t.Errorf("IsDead() = false after MarkDead, want true")
	}
}

func TestClause_Len(t *testing.T) {
	c, _ := NewInitialClause([]Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)})
	if got, want := c.Len(), 3; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestClause_String(t *testing.T) {
	c := NewLearntClause([]Literal{PositiveLiteral(0), NegativeLiteral(1)})
	if got, want := c.String(), "(1 | !2)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
