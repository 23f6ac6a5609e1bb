package corerun

// CancelKind is one of eleven cancellation reasons, each mapped onto a
// six-level severity lattice (0=USER ... 5=SHUTDOWN), per spec.md 3.5.
type CancelKind int

const (
	CancelUser CancelKind = iota
	CancelParent
	CancelSibling
	CancelTimeout
	CancelDeadlineExceeded
	CancelResourceExhausted
	CancelBudgetExceeded
	CancelFault
	CancelPoison
	CancelShutdown
	CancelPanicPropagated
)

func (k CancelKind) String() string {
	switch k {
	case CancelUser:
		return "USER"
	case CancelParent:
		return "PARENT"
	case CancelSibling:
		return "SIBLING"
	case CancelTimeout:
		return "TIMEOUT"
	case CancelDeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case CancelResourceExhausted:
		return "RESOURCE_EXHAUSTED"
	case CancelBudgetExceeded:
		return "BUDGET_EXCEEDED"
	case CancelFault:
		return "FAULT"
	case CancelPoison:
		return "POISON"
	case CancelShutdown:
		return "SHUTDOWN"
	case CancelPanicPropagated:
		return "PANIC_PROPAGATED"
	default:
		return "UNKNOWN"
	}
}

// Severity maps a CancelKind onto its six-level severity (0..5).
func (k CancelKind) Severity() int {
	switch k {
	case CancelUser:
		return 0
	case CancelParent, CancelSibling:
		return 1
	case CancelTimeout, CancelDeadlineExceeded:
		return 2
	case CancelResourceExhausted, CancelBudgetExceeded:
		return 3
	case CancelFault, CancelPoison:
		return 4
	case CancelShutdown, CancelPanicPropagated:
		return 5
	default:
		return 0
	}
}

// cleanupPollsDefault is the per-severity cleanup-poll budget default
// table from spec.md 4.8: severity 0..5 -> 1000, 500, 300, 200, 200, 50.
var cleanupPollsDefault = [6]uint32{1000, 500, 300, 200, 200, 50}

// cancelPriority is the per-severity scheduler priority table from
// spec.md 4.8: severity 0..5 -> 200, 210, 215, 220, 220, 255.
var cancelPriority = [6]uint32{200, 210, 215, 220, 220, 255}

// MaxCauseChainDepth bounds how many causes a CancelReason's attribution
// chain retains; causes beyond this depth are dropped and Truncated is
// set (spec.md 9, "Cyclic graphs").
const MaxCauseChainDepth = defaultCauseChainDepthCap

// CancelReason records why a task is being cancelled: the kind, its
// attribution (origin region/task, if any), a timestamp and message, and
// a bounded-depth cause chain.
type CancelReason struct {
	Kind         CancelKind
	OriginRegion RegionHandle
	OriginTask   TaskHandle
	TimestampNS  int64
	Message      string
	Causes       []string
	Truncated    bool
}

func newCancelReason(kind CancelKind, now int64) CancelReason {
	return CancelReason{Kind: kind, TimestampNS: now}
}

// pushCause appends msg to the reason's cause chain, bounded by
// MaxCauseChainDepth; beyond the bound it is dropped and Truncated is
// set rather than growing without limit.
func (r *CancelReason) pushCause(msg string) {
	if len(r.Causes) >= MaxCauseChainDepth {
		r.Truncated = true
		return
	}
	r.Causes = append(r.Causes, msg)
}

// strengthenReason implements strengthen(a,b): the higher-severity
// reason wins; on a severity tie, the earlier timestamp wins (spec.md
// 3.5). It returns the winning reason, which may be a (unchanged)
// copy of cur.
func strengthenReason(cur CancelReason, next CancelReason) CancelReason {
	curSev, nextSev := cur.Kind.Severity(), next.Kind.Severity()
	if nextSev > curSev {
		return next
	}
	if nextSev == curSev && next.TimestampNS < cur.TimestampNS {
		return next
	}
	return cur
}

// cancelInto applies a cancel of the given kind (with optional
// attribution) to task slot s, implementing task_cancel / strengthen
// per spec.md 4.8. It returns false if the task is already terminal (a
// no-op, not an error).
func cancelInto(s *taskSlot, kind CancelKind, origin CancelReason, now int64) bool {
	if s.state == TaskCompleted {
		return false
	}

	reason := origin
	reason.Kind = kind
	reason.TimestampNS = now

	if s.cancelPending {
		winner := strengthenReason(s.reason, reason)
		sev := winner.Kind.Severity()
		budget := cleanupPollsDefault[sev]
		if s.cleanupPollsRemaining < budget {
			budget = s.cleanupPollsRemaining
		}
		s.reason = winner
		s.cleanupPollsRemaining = budget
		s.epoch++
		return true
	}

	if s.state == TaskCreated {
		s.state = TaskRunning
	}
	// RUNNING -> CANCEL_REQUESTED; if the task is in any later
	// non-terminal phase (CANCEL_REQUESTED, CANCELLING, FINALIZING) the
	// pending flag already covers it above, so only RUNNING reaches
	// here in practice.
	if s.state == TaskRunning {
		s.state = TaskCancelRequested
	}
	s.cancelPending = true
	s.reason = reason
	s.epoch++
	sev := kind.Severity()
	s.cleanupPollsRemaining = cleanupPollsDefault[sev]
	return true
}

// TaskCancel requests cancellation of task with the given kind. A
// terminal task is unaffected (no-op, not an error).
func (rt *Runtime) TaskCancel(h TaskHandle, kind CancelKind) error {
	rt.checkSingleWriter()
	s, st := rt.lookupTask(h)
	if st != StatusOK {
		return fault("task_cancel", st)
	}
	cancelInto(s, kind, CancelReason{}, rt.NowNS())
	return nil
}

// TaskCancelWithOrigin requests cancellation of task with the given kind
// and records attribution to the cancelling region/task.
func (rt *Runtime) TaskCancelWithOrigin(h TaskHandle, kind CancelKind, originRegion RegionHandle, originTask TaskHandle) error {
	rt.checkSingleWriter()
	s, st := rt.lookupTask(h)
	if st != StatusOK {
		return fault("task_cancel_with_origin", st)
	}
	cancelInto(s, kind, CancelReason{OriginRegion: originRegion, OriginTask: originTask}, rt.NowNS())
	return nil
}

// CancelPropagate cancels every live non-terminal task owned by region,
// recording the region as origin, and returns the count successfully
// cancelled.
func (rt *Runtime) CancelPropagate(region RegionHandle, kind CancelKind) (int, error) {
	rt.checkSingleWriter()
	_, st := rt.lookupRegion(region)
	if st != StatusOK {
		return 0, fault("cancel_propagate", st)
	}
	now := rt.NowNS()
	count := 0
	for i := range rt.tasks {
		s := &rt.tasks[i]
		if !s.alive || s.region != region || s.state == TaskCompleted {
			continue
		}
		if cancelInto(s, kind, CancelReason{OriginRegion: region}, now) {
			count++
		}
	}
	return count, nil
}

// CheckpointResult is what checkpoint reports to a task's poll function.
type CheckpointResult struct {
	Cancelled      bool
	Phase          CancelPhase
	PollsRemaining uint32
	Kind           CancelKind
}

// Checkpoint observes the cancellation state of self from inside its own
// poll function. If a cancel is pending and the task is still at
// CANCEL_REQUESTED, it advances it to CANCELLING. The checkpoint only
// observes; the scheduler enforces the cleanup-poll budget.
func (rt *Runtime) Checkpoint(self TaskHandle) (CheckpointResult, error) {
	s, st := rt.lookupTask(self)
	if st != StatusOK {
		return CheckpointResult{}, fault("checkpoint", st)
	}
	if !s.cancelPending {
		return CheckpointResult{}, nil
	}
	if s.state == TaskCancelRequested {
		s.state = TaskCancelling
	}
	return CheckpointResult{
		Cancelled:      true,
		Phase:          s.state,
		PollsRemaining: s.cleanupPollsRemaining,
		Kind:           s.reason.Kind,
	}, nil
}

// TaskFinalize voluntarily advances a CANCELLING task to FINALIZING,
// signalling that cleanup is complete and the task wants to be torn
// down at the next scheduler pass. Any other starting state fails with
// invalid-state.
func (rt *Runtime) TaskFinalize(self TaskHandle) error {
	rt.checkSingleWriter()
	s, st := rt.lookupTask(self)
	if st != StatusOK {
		return fault("task_finalize", st)
	}
	if s.state != TaskCancelling {
		return fault("task_finalize", StatusInvalidState)
	}
	s.state = TaskFinalizing
	return nil
}
