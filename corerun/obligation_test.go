package corerun

import "testing"

func TestObligationReserveCommitAbort(t *testing.T) {
	rt := newTestRuntime(t)
	region, _ := rt.RegionOpen()

	h, err := rt.ObligationReserve(region, "db-handle")
	if err != nil {
		t.Fatalf("ObligationReserve() error = %v", err)
	}
	if st, err := rt.ObligationGetState(h); err != nil || st != ObligationReserved {
		t.Fatalf("ObligationGetState() = (%v,%v), want (RESERVED,nil)", st, err)
	}
	if err := rt.ObligationCommit(h); err != nil {
		t.Fatalf("ObligationCommit() error = %v", err)
	}
	if st, _ := rt.ObligationGetState(h); st != ObligationCommitted {
		t.Fatalf("state after commit = %v, want COMMITTED", st)
	}

	h2, err := rt.ObligationReserve(region, "db-handle")
	if err != nil {
		t.Fatalf("second ObligationReserve() error = %v", err)
	}
	if err := rt.ObligationAbort(h2); err != nil {
		t.Fatalf("ObligationAbort() error = %v", err)
	}
	if st, _ := rt.ObligationGetState(h2); st != ObligationAborted {
		t.Fatalf("state after abort = %v, want ABORTED", st)
	}
}

func TestObligationLinearResolutionIsOneShot(t *testing.T) {
	rt := newTestRuntime(t)
	region, _ := rt.RegionOpen()
	h, err := rt.ObligationReserve(region, "")
	if err != nil {
		t.Fatalf("ObligationReserve() error = %v", err)
	}
	if err := rt.ObligationCommit(h); err != nil {
		t.Fatalf("first ObligationCommit() error = %v", err)
	}
	if err := rt.ObligationCommit(h); err == nil {
		t.Fatal("second ObligationCommit() on an already-resolved obligation should fail")
	}
	if err := rt.ObligationAbort(h); err == nil {
		t.Fatal("ObligationAbort() on an already-committed obligation should fail")
	}
}

func TestObligationReserveRejectsPoisonedOrNonOpenRegion(t *testing.T) {
	rt := newTestRuntime(t)
	region, _ := rt.RegionOpen()
	if err := rt.RegionPoison(region); err != nil {
		t.Fatalf("RegionPoison() error = %v", err)
	}
	if _, err := rt.ObligationReserve(region, ""); err == nil {
		t.Fatal("ObligationReserve on a poisoned region should fail")
	}

	closing, _ := rt.RegionOpen()
	if err := rt.RegionClose(closing); err != nil {
		t.Fatalf("RegionClose() error = %v", err)
	}
	if _, err := rt.ObligationReserve(closing, ""); err == nil {
		t.Fatal("ObligationReserve on a CLOSING region should fail")
	}
}

func TestObligationArenaExhaustion(t *testing.T) {
	rt, err := New(WithObligationCapacity(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	region, _ := rt.RegionOpen()
	if _, err := rt.ObligationReserve(region, ""); err != nil {
		t.Fatalf("first ObligationReserve() error = %v", err)
	}
	if _, err := rt.ObligationReserve(region, ""); err == nil {
		t.Fatal("second ObligationReserve() should fail: arena exhausted")
	}
}

func TestObligationSlotReclaimAfterTerminalGoesStale(t *testing.T) {
	rt, err := New(WithObligationCapacity(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	region, _ := rt.RegionOpen()
	h1, err := rt.ObligationReserve(region, "")
	if err != nil {
		t.Fatalf("ObligationReserve() error = %v", err)
	}
	if err := rt.ObligationCommit(h1); err != nil {
		t.Fatalf("ObligationCommit() error = %v", err)
	}

	h2, err := rt.ObligationReserve(region, "")
	if err != nil {
		t.Fatalf("ObligationReserve() (reclaim) error = %v", err)
	}
	if h1 == h2 {
		t.Fatal("reclaimed obligation handle should differ (generation bump)")
	}
	if _, err := rt.ObligationGetState(h1); err == nil {
		t.Fatal("stale obligation handle should fail lookup")
	}
}
