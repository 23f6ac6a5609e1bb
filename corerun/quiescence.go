package corerun

// QuiescenceCheck succeeds iff region is CLOSED, its live-task count is
// zero, and no obligation it owns is still RESERVED.
func (rt *Runtime) QuiescenceCheck(h RegionHandle) error {
	s, st := rt.lookupRegion(h)
	if st != StatusOK {
		return fault("quiescence_check", st)
	}
	if s.state != RegionClosed {
		return fault("quiescence_check", StatusQuiescenceNotReached)
	}
	if s.liveTaskCount != 0 {
		return fault("quiescence_check", StatusQuiescenceTasksLive)
	}
	for i := range rt.obligations {
		o := &rt.obligations[i]
		if o.alive && o.region == h && o.state == ObligationReserved {
			return fault("quiescence_check", StatusObligationsUnresolved)
		}
	}
	return nil
}

func (rt *Runtime) regionHasUnresolvedObligations(h RegionHandle) bool {
	for i := range rt.obligations {
		o := &rt.obligations[i]
		if o.alive && o.region == h && o.state == ObligationReserved {
			return true
		}
	}
	return false
}

// RegionDrain drives region towards CLOSED, per spec.md 4.9:
//
//  1. If OPEN: transition to CLOSING and propagate a parent-kind cancel
//     to all live tasks.
//  2. If live tasks remain: run the scheduler under budget; a
//     poll-budget-exhausted fault bubbles up as-is; if tasks still
//     remain afterwards, report quiescence-tasks-live.
//  3. If CLOSING (or DRAINING): advance to FINALIZING (DRAINING is
//     skipped on the walking-skeleton fast path — there are no child
//     regions to wait on).
//  4. In FINALIZING: drain the cleanup stack in LIFO order, then
//     advance to CLOSED. Unresolved obligations fail this step with
//     obligations-unresolved while the region remains in FINALIZING;
//     the caller may resolve them and retry.
func (rt *Runtime) RegionDrain(h RegionHandle, budget *Budget) error {
	rt.checkSingleWriter()
	s, st := rt.lookupRegion(h)
	if st != StatusOK {
		return fault("region_drain", st)
	}

	if s.state == RegionOpen {
		if tst := regionTransitionCheck(s.state, RegionClosing); tst != StatusOK {
			return fault("region_drain", tst)
		}
		s.state = RegionClosing
		if _, err := rt.CancelPropagate(h, CancelParent); err != nil {
			return faultWrap("region_drain", StatusInvalidState, err)
		}
	}

	if s.liveTaskCount > 0 {
		if err := rt.SchedulerRun(h, budget); err != nil {
			return err
		}
		if s.liveTaskCount > 0 {
			return fault("region_drain", StatusQuiescenceTasksLive)
		}
	}

	if s.state == RegionClosing || s.state == RegionDraining {
		if tst := regionTransitionCheck(s.state, RegionFinalizing); tst != StatusOK {
			return fault("region_drain", tst)
		}
		s.state = RegionFinalizing
	}

	if s.state == RegionFinalizing {
		if rt.regionHasUnresolvedObligations(h) {
			return fault("region_drain", StatusObligationsUnresolved)
		}
		if s.cleanup != nil {
			s.cleanup.drain()
		}
		if tst := regionTransitionCheck(s.state, RegionClosed); tst != StatusOK {
			return fault("region_drain", tst)
		}
		s.state = RegionClosed
	}

	return nil
}

// RegionForceFinalize advances a region stuck in FINALIZING with
// permanently-unresolvable obligations straight to CLOSED, marking each
// of its still-RESERVED obligations LEAKED rather than leaving the
// region undrainable forever. This is a supplemented operation for the
// obligation LEAKED terminal, which spec.md 9 notes has well-defined
// semantics but no hot-path transition in the walking skeleton; it is
// an explicit, auditable escape hatch, not part of the ordinary drain
// sequence, and callers should prefer resolving obligations and calling
// RegionDrain again whenever that is possible.
func (rt *Runtime) RegionForceFinalize(h RegionHandle) error {
	rt.checkSingleWriter()
	s, st := rt.lookupRegion(h)
	if st != StatusOK {
		return fault("region_force_finalize", st)
	}
	if s.state != RegionFinalizing {
		return fault("region_force_finalize", StatusInvalidState)
	}
	for i := range rt.obligations {
		o := &rt.obligations[i]
		if o.alive && o.region == h && o.state == ObligationReserved {
			o.state = ObligationLeaked
		}
	}
	if s.cleanup != nil {
		s.cleanup.drain()
	}
	if tst := regionTransitionCheck(s.state, RegionClosed); tst != StatusOK {
		return fault("region_force_finalize", tst)
	}
	s.state = RegionClosed
	return nil
}
