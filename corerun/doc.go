// Package corerun implements a deterministic, bounded, single-threaded
// structured-concurrency runtime core.
//
// The core ties together four subsystems that only make sense together:
// a lifecycle engine (regions, tasks, obligations, each a generation-tagged
// handle over a fixed-capacity arena), a round-robin scheduler that polls
// tasks under an explicit budget, a cancellation protocol with a severity
// lattice and bounded cleanup budget, and a quiescence/drain driver that
// takes a region through close -> drain -> finalize -> closed.
//
// There is no implicit parallelism anywhere in this package: every
// operation assumes exclusive access by the calling goroutine, and the
// Runtime value is not safe for concurrent use without external
// synchronization. This mirrors a single-threaded cooperative scheduler,
// not a pool of worker goroutines.
package corerun
