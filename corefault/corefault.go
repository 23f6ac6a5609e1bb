// Package corefault provides rate-limited synthetic fault injection for
// corerun tasks, wrapping a corerun.PollFunc so that a category of tasks
// fails at a bounded rate. It is grounded on
// github.com/joeycumines/go-catrate, the multi-window per-category rate
// limiter the teacher pack already uses for its own back-pressure
// concerns; here the "category" is a task's category label (the same
// string passed to corerun.TaskSpawn) rather than a log or request
// class.
package corefault

import (
	"errors"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-corerun/corerun"
)

// ErrInjected is the error a wrapped poll function returns, alongside
// corerun.PollError, when a fault is injected.
var ErrInjected = errors.New("corefault: injected fault")

// Injector rate-limits synthetic faults per task category.
type Injector struct {
	limiter *catrate.Limiter
}

// New constructs an Injector whose injection rate for any given category
// never exceeds the given rates (e.g. {time.Second: 1} permits at most
// one injected fault per category per second).
func New(rates map[time.Duration]int) *Injector {
	return &Injector{limiter: catrate.NewLimiter(rates)}
}

// Allow reports whether a fault may be injected for category right now,
// consuming one unit of its budget if so. Safe to call even when no
// injection will actually occur (e.g. to drive a dry-run counter),
// though each true result does consume budget.
func (inj *Injector) Allow(category string) bool {
	_, ok := inj.limiter.Allow(category)
	return ok
}

// Wrap returns a corerun.PollFunc that delegates to fn, except that when
// Allow(category) permits it, the wrapped function short-circuits with a
// synthetic PollError instead of calling fn. Use a distinct category per
// failure mode to keep their rate budgets independent.
func (inj *Injector) Wrap(category string, fn corerun.PollFunc) corerun.PollFunc {
	return func(userData any, self corerun.TaskHandle) (corerun.PollResult, error) {
		if inj.Allow(category) {
			return corerun.PollError, ErrInjected
		}
		return fn(userData, self)
	}
}
