package corerun

// RegionState is the lifecycle state of a Region.
type RegionState int

const (
	RegionOpen RegionState = iota
	RegionClosing
	RegionDraining
	RegionFinalizing
	RegionClosed
)

func (s RegionState) String() string {
	switch s {
	case RegionOpen:
		return "OPEN"
	case RegionClosing:
		return "CLOSING"
	case RegionDraining:
		return "DRAINING"
	case RegionFinalizing:
		return "FINALIZING"
	case RegionClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// TaskState is the lifecycle state of a Task.
type TaskState int

const (
	TaskCreated TaskState = iota
	TaskRunning
	TaskCancelRequested
	TaskCancelling
	TaskFinalizing
	TaskCompleted
)

func (s TaskState) String() string {
	switch s {
	case TaskCreated:
		return "CREATED"
	case TaskRunning:
		return "RUNNING"
	case TaskCancelRequested:
		return "CANCEL_REQUESTED"
	case TaskCancelling:
		return "CANCELLING"
	case TaskFinalizing:
		return "FINALIZING"
	case TaskCompleted:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// ObligationState is the lifecycle state of an Obligation.
type ObligationState int

const (
	ObligationReserved ObligationState = iota
	ObligationCommitted
	ObligationAborted
	ObligationLeaked
)

func (s ObligationState) String() string {
	switch s {
	case ObligationReserved:
		return "RESERVED"
	case ObligationCommitted:
		return "COMMITTED"
	case ObligationAborted:
		return "ABORTED"
	case ObligationLeaked:
		return "LEAKED"
	default:
		return "UNKNOWN"
	}
}

// regionTransitionCheck is the pure predicate from spec.md 4.2: is this
// region transition legal? OPEN -> CLOSING; CLOSING -> {DRAINING,
// FINALIZING}; DRAINING -> FINALIZING; FINALIZING -> CLOSED. CLOSED is
// terminal. Every legal transition strictly increases the state ordinal.
func regionTransitionCheck(from, to RegionState) Status {
	switch {
	case from == RegionOpen && to == RegionClosing,
		from == RegionClosing && to == RegionDraining,
		from == RegionClosing && to == RegionFinalizing,
		from == RegionDraining && to == RegionFinalizing,
		from == RegionFinalizing && to == RegionClosed:
		return StatusOK
	default:
		return StatusInvalidTransition
	}
}

// taskTransitionCheck is the pure predicate for task transitions. Every
// legal transition satisfies to >= from; COMPLETED is terminal.
func taskTransitionCheck(from, to TaskState) Status {
	switch {
	case from == TaskCreated && to == TaskRunning,
		from == TaskRunning && to == TaskCancelRequested,
		from == TaskRunning && to == TaskCompleted,
		from == TaskCancelRequested && to == TaskCancelling,
		from == TaskCancelling && to == TaskFinalizing,
		from == TaskFinalizing && to == TaskCompleted:
		return StatusOK
	default:
		return StatusInvalidTransition
	}
}

// obligationTransitionCheck is the pure predicate for obligation
// transitions. RESERVED -> {COMMITTED, ABORTED, LEAKED}. All terminals
// reject every outgoing transition, including self-loops.
func obligationTransitionCheck(from, to ObligationState) Status {
	switch {
	case from == ObligationReserved && to == ObligationCommitted,
		from == ObligationReserved && to == ObligationAborted,
		from == ObligationReserved && to == ObligationLeaked:
		return StatusOK
	default:
		return StatusInvalidTransition
	}
}

// canSpawn reports whether a region in the given state accepts task_spawn
// and obligation_reserve calls.
func canSpawn(state RegionState) bool { return state == RegionOpen }

// canAcceptWork reports whether a region in the given state accepts late
// admission of cleanup-handler work (not user spawns).
func canAcceptWork(state RegionState) bool {
	return state == RegionOpen || state == RegionFinalizing
}
