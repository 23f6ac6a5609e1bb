package corerun

// PollResult is the result of a single poll_fn invocation.
type PollResult int

const (
	// PollOK means the task completed successfully.
	PollOK PollResult = iota
	// PollPending means the task is not ready; it will be polled again.
	PollPending
	// PollError means the task completed with an error (any non-OK,
	// non-PENDING result is an error, per spec.md 4.6).
	PollError
)

// PollFunc is a task's unit of cooperative work. It must not block; it
// returns PollOK/PollPending/PollError, and when it returns PollError
// the accompanying error is the task's terminal fault.
type PollFunc func(userData any, self TaskHandle) (PollResult, error)

// Outcome is a task's terminal result, ordered by the severity lattice
// OK < ERR < CANCELLED < PANICKED (spec.md 4.7).
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeErr
	OutcomeCancelled
	OutcomePanicked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "OK"
	case OutcomeErr:
		return "ERR"
	case OutcomeCancelled:
		return "CANCELLED"
	case OutcomePanicked:
		return "PANICKED"
	default:
		return "UNKNOWN"
	}
}

// joinOutcome returns the higher-severity of a and b, per the severity
// lattice.
func joinOutcome(a, b Outcome) Outcome {
	if b > a {
		return b
	}
	return a
}

// CancelPhase is which of the cancel-protocol phases a task is currently
// observing via checkpoint; it mirrors (a subset of) TaskState.
type CancelPhase = TaskState

type taskSlot struct {
	alive      bool
	everUsed   bool
	generation uint16
	state      TaskState
	region     RegionHandle

	pollFn   PollFunc
	userData any

	outcome Outcome
	err     error

	capturedState []byte
	destructor    func([]byte)

	cancelPending         bool
	reason                CancelReason
	epoch                 uint64
	cleanupPollsRemaining uint32

	category string
}

func taskStateMask(s TaskState) uint16 { return uint16(1) << uint(s) }

func (rt *Runtime) taskHandle(slot uint16) TaskHandle {
	s := &rt.tasks[slot]
	return packHandle(TagTask, taskStateMask(s.state), s.generation, slot)
}

func (rt *Runtime) lookupTask(h TaskHandle) (*taskSlot, Status) {
	slot := h.Slot()
	inBounds := int(slot) < len(rt.tasks)
	var s *taskSlot
	var alive bool
	var gen uint16
	if inBounds {
		s = &rt.tasks[slot]
		alive = s.alive
		gen = s.generation
	}
	st := lookupStatus(h, TagTask, alive, inBounds, gen)
	if st != StatusOK {
		return nil, st
	}
	return s, StatusOK
}

// allocTaskSlot finds a slot to spawn into: either never used, or a
// previously-alive slot whose task has already reached COMPLETED (which
// is safe to recycle — any handle a caller still holds to it will go
// stale via the generation bump in spawnInto, per the handle model's
// staleness guarantee, rather than silently reading the new task's
// state).
func (rt *Runtime) allocTaskSlot() (int, bool) {
	for i := range rt.tasks {
		s := &rt.tasks[i]
		if !s.everUsed || (s.alive && s.state == TaskCompleted) {
			return i, true
		}
	}
	return -1, false
}

func (rt *Runtime) spawnInto(slotIdx int, region RegionHandle, regionSlotPtr *regionSlot, pollFn PollFunc, userData any, category string) TaskHandle {
	s := &rt.tasks[slotIdx]
	gen := s.generation
	if s.everUsed {
		gen++
	}
	*s = taskSlot{
		alive:      true,
		everUsed:   true,
		generation: gen,
		state:      TaskCreated,
		region:     region,
		pollFn:     pollFn,
		userData:   userData,
		category:   category,
	}
	regionSlotPtr.liveTaskCount++
	regionSlotPtr.totalSpawned++
	return rt.taskHandle(uint16(slotIdx))
}

// TaskSpawn allocates a task in region, installing pollFn/userData. It
// fails if the region is poisoned or not OPEN (can_spawn), or if the task
// arena is exhausted. category is an optional debug label (used by
// corefault's rate-limited fault injection, for example); pass "" if
// unused.
func (rt *Runtime) TaskSpawn(region RegionHandle, pollFn PollFunc, userData any, category string) (TaskHandle, error) {
	rt.checkSingleWriter()
	if pollFn == nil {
		return invalidHandle, fault("task_spawn", StatusInvalidArgument)
	}
	rs, st := rt.lookupRegion(region)
	if st != StatusOK {
		return invalidHandle, fault("task_spawn", st)
	}
	if rs.poisoned {
		return invalidHandle, fault("task_spawn", StatusRegionPoisoned)
	}
	if !canSpawn(rs.state) {
		return invalidHandle, fault("task_spawn", StatusRegionNotOpen)
	}
	idx, ok := rt.allocTaskSlot()
	if !ok {
		return invalidHandle, fault("task_spawn", StatusResourceExhausted)
	}
	return rt.spawnInto(idx, region, rs, pollFn, userData, category), nil
}

// TaskSpawnCaptured bump-allocates stateSize bytes (8-byte aligned) from
// the region's capture arena, zero-fills them, and spawns a task that
// owns the captured slice plus an optional destructor run exactly once
// on terminal transition. On failure the bump pointer is rolled back.
func (rt *Runtime) TaskSpawnCaptured(region RegionHandle, pollFn PollFunc, stateSize int, dtor func([]byte), category string) (TaskHandle, []byte, error) {
	rt.checkSingleWriter()
	if pollFn == nil || stateSize < 0 {
		return invalidHandle, nil, fault("task_spawn_captured", StatusInvalidArgument)
	}
	rs, st := rt.lookupRegion(region)
	if st != StatusOK {
		return invalidHandle, nil, fault("task_spawn_captured", st)
	}
	if rs.poisoned {
		return invalidHandle, nil, fault("task_spawn_captured", StatusRegionPoisoned)
	}
	if !canSpawn(rs.state) {
		return invalidHandle, nil, fault("task_spawn_captured", StatusRegionNotOpen)
	}

	prevUsed := rs.captureUsed
	aligned := (prevUsed + 7) &^ 7
	if aligned+stateSize > len(rs.captureArena) {
		return invalidHandle, nil, fault("task_spawn_captured", StatusResourceExhausted)
	}
	captured := rs.captureArena[aligned : aligned+stateSize : aligned+stateSize]
	for i := range captured {
		captured[i] = 0
	}
	rs.captureUsed = aligned + stateSize

	idx, ok := rt.allocTaskSlot()
	if !ok {
		rs.captureUsed = prevUsed
		return invalidHandle, nil, fault("task_spawn_captured", StatusResourceExhausted)
	}
	h := rt.spawnInto(idx, region, rs, pollFn, nil, category)
	s := &rt.tasks[idx]
	s.capturedState = captured
	s.destructor = dtor
	return h, captured, nil
}

// releaseCapturedState runs the task's destructor (if any) exactly once
// and clears the captured-state reference.
func (s *taskSlot) releaseCapturedState() {
	if s.capturedState != nil && s.destructor != nil {
		s.destructor(s.capturedState)
	}
	s.capturedState = nil
	s.destructor = nil
}

// TaskGetState returns the task's current lifecycle state.
func (rt *Runtime) TaskGetState(h TaskHandle) (TaskState, error) {
	s, st := rt.lookupTask(h)
	if st != StatusOK {
		return 0, fault("task_get_state", st)
	}
	return s.state, nil
}

// TaskGetOutcome returns the task's terminal outcome, failing with
// task-not-completed until the task reaches COMPLETED.
func (rt *Runtime) TaskGetOutcome(h TaskHandle) (Outcome, error) {
	s, st := rt.lookupTask(h)
	if st != StatusOK {
		return 0, fault("task_get_outcome", st)
	}
	if s.state != TaskCompleted {
		return 0, fault("task_get_outcome", StatusTaskNotCompleted)
	}
	return s.outcome, nil
}

// TaskGetError returns the error captured from a PollError result, if
// any. It is nil for tasks that completed OK or were CANCELLED without
// an underlying fault.
func (rt *Runtime) TaskGetError(h TaskHandle) (error, error) {
	s, st := rt.lookupTask(h)
	if st != StatusOK {
		return nil, fault("task_get_error", st)
	}
	return s.err, nil
}

// TaskGetCancelPhase returns the task's current state, which doubles as
// its cancel phase observation point (CANCEL_REQUESTED, CANCELLING, or
// FINALIZING while a cancel is in flight).
func (rt *Runtime) TaskGetCancelPhase(h TaskHandle) (CancelPhase, error) {
	s, st := rt.lookupTask(h)
	if st != StatusOK {
		return 0, fault("task_get_cancel_phase", st)
	}
	return s.state, nil
}
