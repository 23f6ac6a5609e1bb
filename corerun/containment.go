package corerun

// ContainmentPolicy selects what happens when a task poll returns a
// non-OK, non-PENDING status, per spec.md 4.10.
type ContainmentPolicy int

const (
	// ContainmentFailFast aborts the scheduler run: SchedulerRun returns
	// an error carrying the task's fault as its cause.
	ContainmentFailFast ContainmentPolicy = iota
	// ContainmentPoisonRegion marks the owning region poisoned and
	// propagates a resource-kind cancel to its surviving tasks; the run
	// continues and the fault stays on the task (see TaskGetError).
	ContainmentPoisonRegion
	// ContainmentErrorOnly has no side effects; the run continues and
	// the fault stays on the task (see TaskGetError).
	ContainmentErrorOnly
)

// containmentForProfile maps a safety profile onto its containment
// policy: debug -> fail-fast, hardened -> poison-region, release ->
// error-only.
func containmentForProfile(p SafetyProfile) ContainmentPolicy {
	switch p {
	case SafetyDebug:
		return ContainmentFailFast
	case SafetyHardened:
		return ContainmentPoisonRegion
	default:
		return ContainmentErrorOnly
	}
}

// applyContainment is invoked by the scheduler whenever a task poll
// completes with outcome ERR. The task's own fault is always preserved
// on its slot (TaskGetError surfaces it regardless of policy); this
// method only decides the policy's side effects, and whether the
// scheduler run as a whole must abort immediately.
//
//   - fail-fast: abort is true; the caller of SchedulerRun aborts.
//   - poison-region: the owning region is poisoned and a resource-kind
//     cancel is propagated to its surviving tasks; the run continues.
//   - error-only: no side effects; the run continues.
func (rt *Runtime) applyContainment(region RegionHandle, task TaskHandle) (abort bool) {
	switch containmentForProfile(rt.safety) {
	case ContainmentFailFast:
		return true
	case ContainmentPoisonRegion:
		rs, st := rt.lookupRegion(region)
		if st != StatusOK {
			return false
		}
		rs.poisoned = true
		now := rt.NowNS()
		for i := range rt.tasks {
			s := &rt.tasks[i]
			if !s.alive || s.region != region || s.taskHandleIsSelf(task, uint16(i)) || s.state == TaskCompleted {
				continue
			}
			cancelInto(s, CancelResourceExhausted, CancelReason{OriginRegion: region, OriginTask: task}, now)
		}
		return false
	default: // ContainmentErrorOnly
		return false
	}
}

// taskHandleIsSelf reports whether slot idx is the task that just
// faulted, so containment doesn't redundantly re-cancel it.
func (s *taskSlot) taskHandleIsSelf(self TaskHandle, idx uint16) bool {
	return self.Slot() == idx
}
