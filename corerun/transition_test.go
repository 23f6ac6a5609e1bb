package corerun

import "testing"

func TestRegionTransitionTableTotality(t *testing.T) {
	states := []RegionState{RegionOpen, RegionClosing, RegionDraining, RegionFinalizing, RegionClosed}
	legal := map[[2]RegionState]bool{
		{RegionOpen, RegionClosing}:         true,
		{RegionClosing, RegionDraining}:     true,
		{RegionClosing, RegionFinalizing}:   true,
		{RegionDraining, RegionFinalizing}:  true,
		{RegionFinalizing, RegionClosed}:    true,
	}
	for _, from := range states {
		for _, to := range states {
			st := regionTransitionCheck(from, to)
			if st != StatusOK && st != StatusInvalidTransition {
				t.Fatalf("regionTransitionCheck(%v,%v) = %v, want OK or invalid-transition", from, to, st)
			}
			want := legal[[2]RegionState{from, to}]
			got := st == StatusOK
			if got != want {
				t.Fatalf("regionTransitionCheck(%v,%v) = %v, legal=%v", from, to, st, want)
			}
			if got && !(to > from) {
				t.Fatalf("region transition %v->%v is legal but not strictly increasing", from, to)
			}
		}
	}
}

func TestRegionClosedIsTerminal(t *testing.T) {
	for _, to := range []RegionState{RegionOpen, RegionClosing, RegionDraining, RegionFinalizing, RegionClosed} {
		if st := regionTransitionCheck(RegionClosed, to); st != StatusInvalidTransition {
			t.Fatalf("regionTransitionCheck(CLOSED,%v) = %v, want invalid-transition", to, st)
		}
	}
}

func TestTaskTransitionTableTotality(t *testing.T) {
	states := []TaskState{TaskCreated, TaskRunning, TaskCancelRequested, TaskCancelling, TaskFinalizing, TaskCompleted}
	legal := map[[2]TaskState]bool{
		{TaskCreated, TaskRunning}:                 true,
		{TaskRunning, TaskCancelRequested}:         true,
		{TaskRunning, TaskCompleted}:               true,
		{TaskCancelRequested, TaskCancelling}:      true,
		{TaskCancelling, TaskFinalizing}:            true,
		{TaskFinalizing, TaskCompleted}:             true,
	}
	for _, from := range states {
		for _, to := range states {
			st := taskTransitionCheck(from, to)
			if st != StatusOK && st != StatusInvalidTransition {
				t.Fatalf("taskTransitionCheck(%v,%v) = %v, want OK or invalid-transition", from, to, st)
			}
			want := legal[[2]TaskState{from, to}]
			got := st == StatusOK
			if got != want {
				t.Fatalf("taskTransitionCheck(%v,%v) = %v, legal=%v", from, to, st, want)
			}
			if got && !(to >= from) {
				t.Fatalf("task transition %v->%v is legal but to < from", from, to)
			}
		}
	}
}

func TestTaskCompletedIsTerminal(t *testing.T) {
	for _, to := range []TaskState{TaskCreated, TaskRunning, TaskCancelRequested, TaskCancelling, TaskFinalizing, TaskCompleted} {
		if st := taskTransitionCheck(TaskCompleted, to); st != StatusInvalidTransition {
			t.Fatalf("taskTransitionCheck(COMPLETED,%v) = %v, want invalid-transition", to, st)
		}
	}
}

func TestObligationTerminalsRejectAllOutgoing(t *testing.T) {
	terminals := []ObligationState{ObligationCommitted, ObligationAborted, ObligationLeaked}
	all := []ObligationState{ObligationReserved, ObligationCommitted, ObligationAborted, ObligationLeaked}
	for _, from := range terminals {
		for _, to := range all {
			if st := obligationTransitionCheck(from, to); st != StatusInvalidTransition {
				t.Fatalf("obligationTransitionCheck(%v,%v) = %v, want invalid-transition", from, to, st)
			}
		}
	}
}

func TestObligationReservedCanResolveEitherWay(t *testing.T) {
	for _, to := range []ObligationState{ObligationCommitted, ObligationAborted, ObligationLeaked} {
		if st := obligationTransitionCheck(ObligationReserved, to); st != StatusOK {
			t.Fatalf("obligationTransitionCheck(RESERVED,%v) = %v, want OK", to, st)
		}
	}
}

func TestCanSpawnAndCanAcceptWork(t *testing.T) {
	if !canSpawn(RegionOpen) {
		t.Fatal("canSpawn(OPEN) should be true")
	}
	for _, s := range []RegionState{RegionClosing, RegionDraining, RegionFinalizing, RegionClosed} {
		if canSpawn(s) {
			t.Fatalf("canSpawn(%v) should be false", s)
		}
	}
	if !canAcceptWork(RegionOpen) || !canAcceptWork(RegionFinalizing) {
		t.Fatal("canAcceptWork should be true for OPEN and FINALIZING")
	}
	for _, s := range []RegionState{RegionClosing, RegionDraining, RegionClosed} {
		if canAcceptWork(s) {
			t.Fatalf("canAcceptWork(%v) should be false", s)
		}
	}
}
