package corerun

import "testing"

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return rt
}

func TestRegionOpenAndClose(t *testing.T) {
	rt := newTestRuntime(t)
	h, err := rt.RegionOpen()
	if err != nil {
		t.Fatalf("RegionOpen() error = %v", err)
	}
	st, err := rt.RegionGetState(h)
	if err != nil {
		t.Fatalf("RegionGetState() error = %v", err)
	}
	if st != RegionOpen {
		t.Fatalf("state = %v, want OPEN", st)
	}
	if err := rt.RegionClose(h); err != nil {
		t.Fatalf("RegionClose() error = %v", err)
	}
	st, _ = rt.RegionGetState(h)
	if st != RegionClosing {
		t.Fatalf("state after close = %v, want CLOSING", st)
	}
}

func TestRegionOpenExhaustion(t *testing.T) {
	rt, err := New(WithRegionCapacity(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := rt.RegionOpen(); err != nil {
		t.Fatalf("first RegionOpen() error = %v", err)
	}
	if _, err := rt.RegionOpen(); err == nil {
		t.Fatal("second RegionOpen() should fail: arena exhausted")
	}
}

func TestRegionPoisonBlocksSpawnButNotQueries(t *testing.T) {
	rt := newTestRuntime(t)
	h, err := rt.RegionOpen()
	if err != nil {
		t.Fatalf("RegionOpen() error = %v", err)
	}
	if err := rt.RegionPoison(h); err != nil {
		t.Fatalf("RegionPoison() error = %v", err)
	}
	poisoned, err := rt.RegionIsPoisoned(h)
	if err != nil || !poisoned {
		t.Fatalf("RegionIsPoisoned() = (%v,%v), want (true,nil)", poisoned, err)
	}
	if _, err := rt.TaskSpawn(h, func(any, TaskHandle) (PollResult, error) { return PollOK, nil }, nil, ""); err == nil {
		t.Fatal("TaskSpawn on a poisoned region should fail")
	}
	if _, err := rt.RegionGetState(h); err != nil {
		t.Fatalf("RegionGetState should still work on a poisoned region, got %v", err)
	}
}

func TestRegionCloseRejectsPoisonedRegion(t *testing.T) {
	rt := newTestRuntime(t)
	h, _ := rt.RegionOpen()
	if err := rt.RegionPoison(h); err != nil {
		t.Fatalf("RegionPoison() error = %v", err)
	}
	if err := rt.RegionClose(h); err == nil {
		t.Fatal("RegionClose on a poisoned region should fail")
	}
}

func TestRegionCloseRejectsIllegalTransition(t *testing.T) {
	rt := newTestRuntime(t)
	h, _ := rt.RegionOpen()
	if err := rt.RegionClose(h); err != nil {
		t.Fatalf("first RegionClose() error = %v", err)
	}
	if err := rt.RegionClose(h); err == nil {
		t.Fatal("second RegionClose() on an already-CLOSING region should fail")
	}
}

func TestRegionHandleGoesStaleAfterReclaim(t *testing.T) {
	rt, err := New(WithRegionCapacity(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h1, err := rt.RegionOpen()
	if err != nil {
		t.Fatalf("RegionOpen() error = %v", err)
	}
	budget := InfiniteBudget()
	if err := rt.RegionDrain(h1, &budget); err != nil {
		t.Fatalf("RegionDrain() error = %v", err)
	}

	h2, err := rt.RegionOpen()
	if err != nil {
		t.Fatalf("RegionOpen() (reclaim) error = %v", err)
	}
	if h1 == h2 {
		t.Fatal("reclaimed region handle should differ (generation bump)")
	}
	if _, err := rt.RegionGetState(h1); err == nil {
		t.Fatal("stale region handle should fail lookup")
	}
}

func TestRegionLiveTaskCount(t *testing.T) {
	rt := newTestRuntime(t)
	h, _ := rt.RegionOpen()
	if n, err := rt.RegionLiveTaskCount(h); err != nil || n != 0 {
		t.Fatalf("RegionLiveTaskCount() = (%d,%v), want (0,nil)", n, err)
	}
	if _, err := rt.TaskSpawn(h, func(any, TaskHandle) (PollResult, error) { return PollPending, nil }, nil, ""); err != nil {
		t.Fatalf("TaskSpawn() error = %v", err)
	}
	if n, err := rt.RegionLiveTaskCount(h); err != nil || n != 1 {
		t.Fatalf("RegionLiveTaskCount() = (%d,%v), want (1,nil)", n, err)
	}
}
