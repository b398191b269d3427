package sat

import "testing"

// fakeTrail is a minimal Assignment used to drive WatchList directly,
// without a full Solver.
type fakeTrail struct {
	values  map[Literal]LBool
	levels  map[int]int
	reasons map[int]*Clause
}

func newFakeTrail() *fakeTrail {
	return &fakeTrail{
		values:  map[Literal]LBool{},
		levels:  map[int]int{},
		reasons: map[int]*Clause{},
	}
}

func (f *fakeTrail) set(l Literal, level int, reason *Clause) {
	f.values[l] = True
	f.values[l.Opposite()] = False
	f.levels[l.Var()] = level
	f.reasons[l.Var()] = reason
}

func (f *fakeTrail) LitValue(l Literal) LBool {
	if v, ok := f.values[l]; ok {
		return v
	}
	return Unknown
}

func (f *fakeTrail) VarLevel(v int) int {
	if lvl, ok := f.levels[v]; ok {
		return lvl
	}
	return -1
}

func (f *fakeTrail) VarReason(v int) *Clause { return f.reasons[v] }

func TestWatchList_InstallInitialIsWatched(t *testing.T) {
	wl := NewWatchList(4)
	c, _ := NewInitialClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)})
	wl.InstallInitial(c)
	if !wl.IsWatched(c) {
		t.Fatalf("IsWatched() = false right after InstallInitial, want true")
	}
}

func TestWatchList_Set_ForcesUnitLiteral(t *testing.T) {
	wl := NewWatchList(4)
	c, _ := NewInitialClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)})
	wl.InstallInitial(c)

	a := newFakeTrail()
	a.set(NegativeLiteral(0), 0, nil)

	forced, conflict := wl.Set(a, NegativeLiteral(0))
	if conflict != nil {
		t.Fatalf("Set() returned a conflict, want none")
	}
	if len(forced) != 1 || forced[0].Lit != PositiveLiteral(1) || forced[0].Clause != c {
		t.Fatalf("Set() forced = %+v, want a single forced literal 2 caused by c", forced)
	}
}

func TestWatchList_Set_DetectsConflict(t *testing.T) {
	wl := NewWatchList(4)
	c, _ := NewInitialClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)})
	wl.InstallInitial(c)

	a := newFakeTrail()
	a.set(NegativeLiteral(0), 0, nil)
	a.set(NegativeLiteral(1), 0, nil)

	wl.Set(a, NegativeLiteral(0))
	_, conflict := wl.Set(a, NegativeLiteral(1))
	if conflict != c {
		t.Fatalf("Set() conflict = %v, want %v", conflict, c)
	}
}

func TestWatchList_Set_FindsReplacementWatch(t *testing.T) {
	wl := NewWatchList(4)
	c, _ := NewInitialClause([]Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)})
	wl.InstallInitial(c)

	a := newFakeTrail()
	a.set(NegativeLiteral(0), 0, nil)

	forced, conflict := wl.Set(a, NegativeLiteral(0))
	if conflict != nil {
		t.Fatalf("Set() returned a conflict, want none")
	}
	if len(forced) != 0 {
		t.Fatalf("Set() forced = %+v, want none (a third literal absorbed the watch)", forced)
	}
	if wl.IsWatched(c) == false {
		t.Fatalf("IsWatched() = false, want true")
	}
}

func TestWatchList_InstallTransferred_AlreadyWatchedIsNoop(t *testing.T) {
	wl := NewWatchList(4)
	c, _ := NewInitialClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)})
	wl.InstallInitial(c)

	a := newFakeTrail()
	result, _ := wl.InstallTransferred(a, c)
	if result != TransferNoop {
		t.Errorf("InstallTransferred() on an already-watched clause = %v, want TransferNoop", result)
	}
}

func TestWatchList_InstallTransferred_ForcesUnassignedLiteral(t *testing.T) {
	wl := NewWatchList(4)
	c := NewLearntClause([]Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)})

	a := newFakeTrail()
	a.set(NegativeLiteral(1), 0, nil)
	a.set(NegativeLiteral(2), 0, nil)

	result, lit := wl.InstallTransferred(a, c)
	if result != TransferForced || lit != PositiveLiteral(0) {
		t.Fatalf("InstallTransferred() = (%v, %v), want (TransferForced, 1)", result, lit)
	}
}

func TestWatchList_InstallTransferred_AllFalseChoosesPivot(t *testing.T) {
	wl := NewWatchList(4)
	c := NewLearntClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)})

	a := newFakeTrail()
	a.set(NegativeLiteral(0), 1, nil)
	a.set(NegativeLiteral(1), 2, c)

	result, pivot := wl.InstallTransferred(a, c)
	if result != TransferConflictPivot {
		t.Fatalf("InstallTransferred() = %v, want TransferConflictPivot", result)
	}
	if got, want := pivot.Var(), 1; got != want {
		t.Errorf("pivot var = %d, want %d (highest level, forced)", got, want)
	}
}

func TestWatchList_InstallTransferred_AllFalseNoLowerLevelPartnerIsNoop(t *testing.T) {
	wl := NewWatchList(4)
	c := NewLearntClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)})

	a := newFakeTrail()
	a.set(NegativeLiteral(0), 3, nil)
	a.set(NegativeLiteral(1), 3, nil)

	result, _ := wl.InstallTransferred(a, c)
	if result != TransferNoop {
		t.Errorf("InstallTransferred() with no lower-level partner = %v, want TransferNoop (discarded)", result)
	}
	if wl.IsWatched(c) {
		t.Errorf("IsWatched() = true, want false: a discarded clause must not be installed")
	}
}

func TestWatchList_RemoveSatisfied_DropsAndMarksDead(t *testing.T) {
	wl := NewWatchList(4)
	satisfied := NewLearntClause([]Literal{PositiveLiteral(0), PositiveLiteral(1)})
	unsat := NewLearntClause([]Literal{PositiveLiteral(2), PositiveLiteral(3)})
	wl.installPair(satisfied, satisfied.Literals[0], satisfied.Literals[1])
	wl.installPair(unsat, unsat.Literals[0], unsat.Literals[1])

	a := newFakeTrail()
	a.set(PositiveLiteral(0), 0, nil)

	kept := wl.RemoveSatisfied(a, []*Clause{satisfied, unsat})
	if len(kept) != 1 || kept[0] != unsat {
		t.Fatalf("RemoveSatisfied() kept = %v, want only the unsatisfied clause", kept)
	}
	if !satisfied.IsDead() {
		t.Errorf("satisfied clause IsDead() = false, want true")
	}
	if unsat.IsDead() {
		t.Errorf("unsatisfied clause IsDead() = true, want false")
	}
}

func TestWatchList_Clean_KeepsLockedDropsLowActivity(t *testing.T) {
	wl := NewWatchList(4)
	locked := NewLearntClause([]Literal{PositiveLiteral(0), PositiveLiteral(1), PositiveLiteral(2)})
	low := NewLearntClause([]Literal{PositiveLiteral(0), PositiveLiteral(3), PositiveLiteral(1)})
	wl.installPair(locked, locked.Literals[0], locked.Literals[1])
	wl.installPair(low, low.Literals[0], low.Literals[1])
	locked.BumpActivity(10)

	a := newFakeTrail()
	a.set(PositiveLiteral(0), 0, locked)

	kept := wl.Clean(a, []*Clause{locked, low})
	found := false
	for _, c := range kept {
		if c == locked {
			found = true
		}
	}
	if !found {
		t.Errorf("Clean() dropped the locked clause, want it kept")
	}
	if low.Len() > 2 && !low.IsDead() {
		for _, c := range kept {
			if c == low {
				t.Errorf("Clean() kept the low-activity unlocked clause, want it dropped")
			}
		}
	}
}
