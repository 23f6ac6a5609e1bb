package corerun

// RegionHandle, TaskHandle and ObligationHandle are the three core entity
// kinds; they are all the same underlying Handle representation,
// discriminated by Handle.Tag().
type (
	RegionHandle     = Handle
	TaskHandle       = Handle
	ObligationHandle = Handle
)

// regionStateMask returns the state-admission bitset to embed in a
// region handle produced while the region is in the given state.
func regionStateMask(s RegionState) uint16 { return uint16(1) << uint(s) }

// regionSlot is one arena slot. alive is set when the slot is first
// opened and is not cleared afterwards (only Reset clears it); a CLOSED
// slot stays alive and is reclaimed by RegionOpen based on its state.
type regionSlot struct {
	alive          bool
	generation     uint16
	state          RegionState
	poisoned       bool
	liveTaskCount  uint32
	totalSpawned   uint64
	captureArena   []byte
	captureUsed    int
	cleanup        *cleanupStack
}

func (rt *Runtime) regionHandle(slot uint16) RegionHandle {
	s := &rt.regions[slot]
	return packHandle(TagRegion, regionStateMask(s.state), s.generation, slot)
}

// lookupRegion performs the gated handle lookup for a region handle,
// returning the slot pointer and a Status (StatusOK on success).
func (rt *Runtime) lookupRegion(h RegionHandle) (*regionSlot, Status) {
	slot := h.Slot()
	inBounds := int(slot) < len(rt.regions)
	var s *regionSlot
	var alive bool
	var gen uint16
	if inBounds {
		s = &rt.regions[slot]
		alive = s.alive
		gen = s.generation
	}
	st := lookupStatus(h, TagRegion, alive, inBounds, gen)
	if st != StatusOK {
		return nil, st
	}
	return s, StatusOK
}

// RegionOpen scans the region arena for a reusable slot (a never-used
// slot, or — unless quarantine forbids it — a CLOSED slot with zero live
// tasks) and opens a new region in it, per spec.md 4.6.
func (rt *Runtime) RegionOpen() (RegionHandle, error) {
	rt.checkSingleWriter()

	everUsed := func(s *regionSlot) bool { return s.generation != 0 || s.alive }

	freeSlot := -1
	for i := range rt.regions {
		s := &rt.regions[i]
		if !everUsed(s) {
			freeSlot = i
			break
		}
	}
	if freeSlot < 0 && !rt.quarantine {
		for i := range rt.regions {
			s := &rt.regions[i]
			if s.alive && s.state == RegionClosed && s.liveTaskCount == 0 {
				freeSlot = i
				break
			}
		}
	}
	if freeSlot < 0 {
		return invalidHandle, fault("region_open", StatusResourceExhausted)
	}

	s := &rt.regions[freeSlot]
	reclaimed := everUsed(s)
	if reclaimed {
		s.generation++
	}
	s.alive = true
	s.state = RegionOpen
	s.poisoned = false
	s.liveTaskCount = 0
	s.totalSpawned = 0
	s.captureArena = make([]byte, rt.captureArenaBytes)
	s.captureUsed = 0
	if s.cleanup == nil {
		s.cleanup = newCleanupStack(rt.cleanupStackDepth)
	} else {
		s.cleanup.reset()
	}

	return rt.regionHandle(uint16(freeSlot)), nil
}

// RegionClose validates the handle, rejects a poisoned region, and
// transitions OPEN -> CLOSING. It does not drain; callers invoke
// RegionDrain for that.
func (rt *Runtime) RegionClose(h RegionHandle) error {
	rt.checkSingleWriter()
	s, st := rt.lookupRegion(h)
	if st != StatusOK {
		return fault("region_close", st)
	}
	if s.poisoned {
		return fault("region_close", StatusRegionPoisoned)
	}
	if tst := regionTransitionCheck(s.state, RegionClosing); tst != StatusOK {
		return fault("region_close", tst)
	}
	s.state = RegionClosing
	return nil
}

// RegionPoison sets the region's poisoned flag. Poison blocks subsequent
// spawns and obligation reservations, but not state queries or draining.
func (rt *Runtime) RegionPoison(h RegionHandle) error {
	rt.checkSingleWriter()
	s, st := rt.lookupRegion(h)
	if st != StatusOK {
		return fault("region_poison", st)
	}
	s.poisoned = true
	return nil
}

// RegionIsPoisoned reports the region's poisoned flag.
func (rt *Runtime) RegionIsPoisoned(h RegionHandle) (bool, error) {
	s, st := rt.lookupRegion(h)
	if st != StatusOK {
		return false, fault("region_is_poisoned", st)
	}
	return s.poisoned, nil
}

// RegionGetState returns the region's current lifecycle state.
func (rt *Runtime) RegionGetState(h RegionHandle) (RegionState, error) {
	s, st := rt.lookupRegion(h)
	if st != StatusOK {
		return 0, fault("region_get_state", st)
	}
	return s.state, nil
}

// RegionLiveTaskCount returns the region's live-task count.
func (rt *Runtime) RegionLiveTaskCount(h RegionHandle) (uint32, error) {
	s, st := rt.lookupRegion(h)
	if st != StatusOK {
		return 0, fault("region_live_task_count", st)
	}
	return s.liveTaskCount, nil
}

// RegionCleanupPush pushes a cleanup callback onto the region's cleanup
// stack. Callbacks pushed while OPEN (the ordinary case) or while
// FINALIZING (late registration by a task's own teardown path) are drained
// in strict reverse-push order when the region reaches FINALIZING via
// RegionDrain or RegionForceFinalize. It returns the callback's depth-index
// or an error if the region cannot currently accept work or the stack is
// full.
func (rt *Runtime) RegionCleanupPush(h RegionHandle, fn CleanupFunc, ctx any) (int, error) {
	rt.checkSingleWriter()
	s, st := rt.lookupRegion(h)
	if st != StatusOK {
		return 0, fault("region_cleanup_push", st)
	}
	if !canAcceptWork(s.state) {
		return 0, fault("region_cleanup_push", StatusInvalidTransition)
	}
	idx, err := s.cleanup.push(fn, ctx)
	if err != nil {
		return 0, err
	}
	return idx, nil
}
