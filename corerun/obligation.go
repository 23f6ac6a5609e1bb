package corerun

type obligationSlot struct {
	alive      bool
	everUsed   bool
	generation uint16
	state      ObligationState
	region     RegionHandle
	category   string
}

func obligationStateMask(s ObligationState) uint16 { return uint16(1) << uint(s) }

func (rt *Runtime) obligationHandle(slot uint16) ObligationHandle {
	s := &rt.obligations[slot]
	return packHandle(TagObligation, obligationStateMask(s.state), s.generation, slot)
}

func (rt *Runtime) lookupObligation(h ObligationHandle) (*obligationSlot, Status) {
	slot := h.Slot()
	inBounds := int(slot) < len(rt.obligations)
	var s *obligationSlot
	var alive bool
	var gen uint16
	if inBounds {
		s = &rt.obligations[slot]
		alive = s.alive
		gen = s.generation
	}
	st := lookupStatus(h, TagObligation, alive, inBounds, gen)
	if st != StatusOK {
		return nil, st
	}
	return s, StatusOK
}

func obligationTerminal(s ObligationState) bool {
	return s == ObligationCommitted || s == ObligationAborted || s == ObligationLeaked
}

func (rt *Runtime) allocObligationSlot() (int, bool) {
	for i := range rt.obligations {
		s := &rt.obligations[i]
		if !s.everUsed || (s.alive && obligationTerminal(s.state)) {
			return i, true
		}
	}
	return -1, false
}

// ObligationReserve creates a RESERVED obligation owned by region. It
// fails if the region is poisoned or not OPEN (can_spawn), or if the
// obligation arena is exhausted.
func (rt *Runtime) ObligationReserve(region RegionHandle, category string) (ObligationHandle, error) {
	rt.checkSingleWriter()
	rs, st := rt.lookupRegion(region)
	if st != StatusOK {
		return invalidHandle, fault("obligation_reserve", st)
	}
	if rs.poisoned {
		return invalidHandle, fault("obligation_reserve", StatusRegionPoisoned)
	}
	if !canSpawn(rs.state) {
		return invalidHandle, fault("obligation_reserve", StatusRegionNotOpen)
	}
	idx, ok := rt.allocObligationSlot()
	if !ok {
		return invalidHandle, fault("obligation_reserve", StatusResourceExhausted)
	}
	s := &rt.obligations[idx]
	gen := s.generation
	if s.everUsed {
		gen++
	}
	*s = obligationSlot{
		alive:      true,
		everUsed:   true,
		generation: gen,
		state:      ObligationReserved,
		region:     region,
		category:   category,
	}
	return rt.obligationHandle(uint16(idx)), nil
}

func (rt *Runtime) resolveObligation(h ObligationHandle, to ObligationState, op string) error {
	rt.checkSingleWriter()
	s, st := rt.lookupObligation(h)
	if st != StatusOK {
		return fault(op, st)
	}
	if obligationTerminal(s.state) {
		return fault(op, StatusObligationAlreadyResolved)
	}
	if tst := obligationTransitionCheck(s.state, to); tst != StatusOK {
		return fault(op, tst)
	}
	s.state = to
	return nil
}

// ObligationCommit resolves the obligation as COMMITTED. Linear: once
// terminal, every subsequent call fails with obligation-already-resolved.
func (rt *Runtime) ObligationCommit(h ObligationHandle) error {
	return rt.resolveObligation(h, ObligationCommitted, "obligation_commit")
}

// ObligationAbort resolves the obligation as ABORTED.
func (rt *Runtime) ObligationAbort(h ObligationHandle) error {
	return rt.resolveObligation(h, ObligationAborted, "obligation_abort")
}

// ObligationGetState returns the obligation's current state.
func (rt *Runtime) ObligationGetState(h ObligationHandle) (ObligationState, error) {
	s, st := rt.lookupObligation(h)
	if st != StatusOK {
		return 0, fault("obligation_get_state", st)
	}
	return s.state, nil
}
