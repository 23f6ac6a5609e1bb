package corerun

import "testing"

func TestResourceKindString(t *testing.T) {
	cases := map[ResourceKind]string{
		ResourceRegions:     "regions",
		ResourceTasks:       "tasks",
		ResourceObligations: "obligations",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestSnapshotGetReflectsUsage(t *testing.T) {
	rt, err := New(WithRegionCapacity(4))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	snap := rt.SnapshotGet(ResourceRegions)
	if snap.Capacity != 4 || snap.Used != 0 || snap.Remaining != 4 {
		t.Fatalf("SnapshotGet() = %+v, want capacity 4 used 0 remaining 4", snap)
	}

	if _, err := rt.RegionOpen(); err != nil {
		t.Fatalf("RegionOpen() error = %v", err)
	}
	snap = rt.SnapshotGet(ResourceRegions)
	if snap.Used != 1 || snap.Remaining != 3 {
		t.Fatalf("SnapshotGet() after one open = %+v, want used 1 remaining 3", snap)
	}
}

func TestAdmitIsNonMutatingPredicate(t *testing.T) {
	rt, err := New(WithRegionCapacity(2))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := rt.Admit(ResourceRegions, 2); err != nil {
		t.Fatalf("Admit(2) against capacity 2 should succeed, got %v", err)
	}
	if err := rt.Admit(ResourceRegions, 3); err == nil {
		t.Fatal("Admit(3) against capacity 2 should fail")
	}
	if rt.Used(ResourceRegions) != 0 {
		t.Fatal("Admit must not mutate usage")
	}
}

func TestAdmitRejectsNegativeCount(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.Admit(ResourceTasks, -1); err == nil {
		t.Fatal("Admit with a negative count should fail")
	}
}

func TestRegionCaptureRemainingTracksBumpAllocator(t *testing.T) {
	rt, err := New(WithCaptureArenaSize(16))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	region, err := rt.RegionOpen()
	if err != nil {
		t.Fatalf("RegionOpen() error = %v", err)
	}
	before, err := rt.RegionCaptureRemaining(region)
	if err != nil || before != 16 {
		t.Fatalf("RegionCaptureRemaining() = (%d,%v), want (16,nil)", before, err)
	}
	if _, _, err := rt.TaskSpawnCaptured(region, func(any, TaskHandle) (PollResult, error) { return PollOK, nil }, 5, nil, ""); err != nil {
		t.Fatalf("TaskSpawnCaptured() error = %v", err)
	}
	after, err := rt.RegionCaptureRemaining(region)
	if err != nil {
		t.Fatalf("RegionCaptureRemaining() error = %v", err)
	}
	if after >= before {
		t.Fatalf("RegionCaptureRemaining() after spawn = %d, want less than %d", after, before)
	}
}

func TestRegionCleanupRemainingDefaultsBeforeFirstUse(t *testing.T) {
	rt, err := New(WithCleanupStackDepth(7))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	region, err := rt.RegionOpen()
	if err != nil {
		t.Fatalf("RegionOpen() error = %v", err)
	}
	remaining, err := rt.RegionCleanupRemaining(region)
	if err != nil || remaining != 7 {
		t.Fatalf("RegionCleanupRemaining() = (%d,%v), want (7,nil)", remaining, err)
	}
}
