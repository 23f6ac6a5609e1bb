package corerun

// EventKind discriminates the scheduler's deterministic event stream.
type EventKind int

const (
	// EventPoll is emitted immediately before a task's poll_fn is
	// invoked for a normal (non-forced) poll.
	EventPoll EventKind = iota
	// EventComplete is emitted when a task reaches COMPLETED.
	EventComplete
	// EventCancelForced is emitted when a task is torn down because its
	// cleanup-poll budget reached zero while a cancel was pending.
	EventCancelForced
	// EventBudget is emitted when the scheduler's shared budget is
	// exhausted.
	EventBudget
	// EventQuiescent is emitted when a round visits zero active tasks.
	EventQuiescent
	// EventHook marks a dispatch through a nondeterministic-boundary
	// hook (allocator, clock, entropy, reactor); it lets an attached
	// observer account for every crossing into platform-specific code
	// without the core itself depending on wall-clock time or OS
	// entropy.
	EventHook
)

func (k EventKind) String() string {
	switch k {
	case EventPoll:
		return "POLL"
	case EventComplete:
		return "COMPLETE"
	case EventCancelForced:
		return "CANCEL_FORCED"
	case EventBudget:
		return "BUDGET"
	case EventQuiescent:
		return "QUIESCENT"
	case EventHook:
		return "HOOK"
	default:
		return "UNKNOWN"
	}
}

// Event is one entry in the scheduler's deterministic event log. For
// identical input, hooks, and seed the emitted stream is byte-identical
// across runs and platforms (spec.md 4.7).
type Event struct {
	Seq     uint64
	Round   int
	Kind    EventKind
	Region  RegionHandle
	Task    TaskHandle
	Outcome Outcome
	Status  Status
}

// EventObserver receives every Event as it is emitted, in sequence
// order.
type EventObserver interface {
	Observe(Event)
}

func (rt *Runtime) emitEvent(round int, kind EventKind, region RegionHandle, task TaskHandle, outcome Outcome, status Status) {
	ev := Event{
		Seq:     rt.eventSeq,
		Round:   round,
		Kind:    kind,
		Region:  region,
		Task:    task,
		Outcome: outcome,
		Status:  status,
	}
	rt.eventSeq++
	rt.events = append(rt.events, ev)
	if rt.observer != nil {
		rt.observer.Observe(ev)
	}
}

// emitHookEvent records a crossing into a platform hook (allocator,
// clock, entropy, reactor), without associating it with any particular
// region or task.
func (rt *Runtime) emitHookEvent(kind EventKind) {
	rt.emitEvent(-1, kind, invalidHandle, invalidHandle, OutcomeOK, StatusOK)
}

// EventCount returns the number of events recorded since the last reset.
func (rt *Runtime) EventCount() int { return len(rt.events) }

// EventAt returns the event at index i (0-based, in emission order).
func (rt *Runtime) EventAt(i int) (Event, error) {
	if i < 0 || i >= len(rt.events) {
		return Event{}, fault("event_at", StatusInvalidArgument)
	}
	return rt.events[i], nil
}

// EventReset clears the recorded event log and resets the sequence
// counter to zero, without touching the attached observer.
func (rt *Runtime) EventReset() {
	rt.eventSeq = 0
	rt.events = nil
}

// applyPollResult folds a poll_fn result into task slot s, per the
// match arm of scheduler_run's pseudocode in spec.md 4.7. recovered is
// set when the poll_fn panicked; in that case result/err are ignored
// and the task completes with OutcomePanicked, subject to the severity
// join with CANCELLED exactly like the ERR case. faulted reports
// whether this was the "else" (error) arm — panicked or PollError —
// which is the trigger for applying the containment policy,
// independent of whether the outcome was then joined up to CANCELLED.
func applyPollResult(s *taskSlot, result PollResult, err error, recovered any) (terminal bool, faulted bool) {
	switch {
	case recovered != nil:
		s.state = TaskCompleted
		s.outcome = OutcomePanicked
		s.err = faultWrap("task_poll", StatusInvalidState, panicError{recovered})
		if s.cancelPending {
			s.outcome = joinOutcome(s.outcome, OutcomeCancelled)
		}
		return true, true
	case result == PollOK:
		s.state = TaskCompleted
		s.outcome = OutcomeOK
		if s.cancelPending {
			s.outcome = joinOutcome(s.outcome, OutcomeCancelled)
		}
		return true, false
	case result == PollPending:
		if s.cancelPending && s.cleanupPollsRemaining > 0 {
			s.cleanupPollsRemaining--
		}
		return false, false
	default: // PollError or any unrecognized code
		s.state = TaskCompleted
		s.outcome = OutcomeErr
		s.err = err
		if s.cancelPending {
			s.outcome = joinOutcome(s.outcome, OutcomeCancelled)
		}
		return true, true
	}
}

// panicError wraps a recovered panic value as an error.
type panicError struct{ value any }

func (p panicError) Error() string { return "task poll_fn panicked" }

// SchedulerRun drives every live task owned by region forward under
// budget, implementing the round-robin loop of spec.md 4.7. It returns
// StatusOK when the region reaches quiescence (zero active tasks visited
// in a round) and StatusPollBudgetExhausted when the budget runs out
// first; budget is mutated in place by consumption.
func (rt *Runtime) SchedulerRun(region RegionHandle, budget *Budget) error {
	rt.checkSingleWriter()
	if _, st := rt.lookupRegion(region); st != StatusOK {
		return fault("scheduler_run", st)
	}

	for round := 0; ; round++ {
		if budget.IsExhausted() {
			rt.emitEvent(round, EventBudget, region, invalidHandle, OutcomeOK, StatusPollBudgetExhausted)
			return fault("scheduler_run", StatusPollBudgetExhausted)
		}

		active := 0
		for i := range rt.tasks {
			s := &rt.tasks[i]
			if !s.alive || s.region != region || s.state == TaskCompleted {
				continue
			}
			active++
			handle := rt.taskHandle(uint16(i))

			if s.state == TaskFinalizing {
				s.releaseCapturedState()
				rt.regions[region.Slot()].liveTaskCount--
				s.state = TaskCompleted
				s.outcome = joinOutcome(s.outcome, OutcomeCancelled)
				rt.emitEvent(round, EventComplete, region, handle, s.outcome, StatusOK)
				continue
			}

			if s.cancelPending && (s.state == TaskCancelRequested || s.state == TaskCancelling) && s.cleanupPollsRemaining == 0 {
				s.state = TaskCompleted
				s.outcome = joinOutcome(s.outcome, OutcomeCancelled)
				rt.emitEvent(round, EventCancelForced, region, handle, s.outcome, StatusOK)
				s.releaseCapturedState()
				rt.regions[region.Slot()].liveTaskCount--
				rt.emitEvent(round, EventComplete, region, handle, s.outcome, StatusOK)
				continue
			}

			if budget.ConsumePoll() == 0 {
				rt.emitEvent(round, EventBudget, region, handle, OutcomeOK, StatusPollBudgetExhausted)
				return fault("scheduler_run", StatusPollBudgetExhausted)
			}
			if s.state == TaskCreated {
				s.state = TaskRunning
			}
			rt.emitEvent(round, EventPoll, region, handle, OutcomeOK, StatusOK)

			result, err := rt.invokePoll(s, handle)
			if terminal, faulted := applyPollResult(s, result, err, rt.lastRecovered); terminal {
				abort := false
				if faulted {
					abort = rt.applyContainment(region, handle)
				}
				s.releaseCapturedState()
				rt.regions[region.Slot()].liveTaskCount--
				rt.emitEvent(round, EventComplete, region, handle, s.outcome, StatusOK)
				if abort {
					return faultWrap("scheduler_run", StatusInvalidState, s.err)
				}
			}
		}

		if active == 0 {
			rt.emitEvent(round, EventQuiescent, region, invalidHandle, OutcomeOK, StatusOK)
			return nil
		}
	}
}

// invokePoll calls s.pollFn, recovering a panic into rt.lastRecovered
// (cleared on every call) rather than letting it unwind across the
// scheduler loop, per spec.md 9 ("Exceptions/panics: do not use").
func (rt *Runtime) invokePoll(s *taskSlot, self TaskHandle) (result PollResult, err error) {
	rt.lastRecovered = nil
	defer func() {
		if r := recover(); r != nil {
			rt.lastRecovered = r
		}
	}()
	return s.pollFn(s.userData, self)
}
