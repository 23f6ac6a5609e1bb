package corefault

import (
	"errors"
	"testing"
	"time"

	"github.com/joeycumines/go-corerun/corerun"
)

func TestInjectorAllowRespectsRateBudget(t *testing.T) {
	inj := New(map[time.Duration]int{time.Hour: 1})

	if !inj.Allow("db") {
		t.Fatal("first Allow() should succeed: budget not yet consumed")
	}
	if inj.Allow("db") {
		t.Fatal("second Allow() should fail: hourly budget of 1 already consumed")
	}
}

func TestInjectorAllowBudgetsAreIndependentPerCategory(t *testing.T) {
	inj := New(map[time.Duration]int{time.Hour: 1})

	if !inj.Allow("db") {
		t.Fatal("first Allow(db) should succeed")
	}
	if !inj.Allow("cache") {
		t.Fatal("Allow(cache) should succeed: a different category has its own budget")
	}
}

func TestWrapShortCircuitsWhenInjectionAllowed(t *testing.T) {
	inj := New(map[time.Duration]int{time.Hour: 100})
	called := false
	wrapped := inj.Wrap("flaky", func(any, corerun.TaskHandle) (corerun.PollResult, error) {
		called = true
		return corerun.PollOK, nil
	})

	result, err := wrapped(nil, corerun.TaskHandle(0))
	if called {
		t.Fatal("wrapped fn should not be called when injection is allowed")
	}
	if result != corerun.PollError {
		t.Fatalf("result = %v, want PollError", result)
	}
	if !errors.Is(err, ErrInjected) {
		t.Fatalf("err = %v, want ErrInjected", err)
	}
}

func TestWrapDelegatesWhenInjectionExhausted(t *testing.T) {
	inj := New(map[time.Duration]int{time.Hour: 1})
	inj.Allow("flaky") // consume the only budget unit up front

	called := false
	wrapped := inj.Wrap("flaky", func(any, corerun.TaskHandle) (corerun.PollResult, error) {
		called = true
		return corerun.PollOK, nil
	})

	result, err := wrapped(nil, corerun.TaskHandle(0))
	if !called {
		t.Fatal("wrapped fn should be called once injection budget is exhausted")
	}
	if err != nil || result != corerun.PollOK {
		t.Fatalf("result,err = (%v,%v), want (PollOK,nil)", result, err)
	}
}
