package corerun

import (
	"math"

	"github.com/joeycumines/floater"
)

// Budget is the quadruple (deadline, poll_quota, cost_quota, priority) that
// bounds how much work the scheduler (or the cancel protocol's cleanup
// phase) may perform before giving up.
//
// Budgets are copyable value types; Consume* methods mutate in place.
type Budget struct {
	// Deadline is a logical-clock nanosecond timestamp; 0 means
	// unconstrained.
	Deadline int64
	// PollQuota bounds the number of scheduler polls; UINT32_MAX means
	// unconstrained.
	PollQuota uint32
	// CostQuota bounds an arbitrary caller-defined cost unit; UINT64_MAX
	// means unconstrained.
	CostQuota uint64
	// Priority is an opaque scheduling priority, not consumed.
	Priority uint32
}

// InfiniteBudget returns a Budget with no constraints.
func InfiniteBudget() Budget {
	return Budget{Deadline: 0, PollQuota: math.MaxUint32, CostQuota: math.MaxUint64}
}

// ZeroBudget returns a Budget that is already exhausted.
func ZeroBudget() Budget {
	return Budget{}
}

// BudgetFromPolls returns a Budget constrained only by the given poll
// count; deadline and cost are unconstrained.
func BudgetFromPolls(n uint32) Budget {
	return Budget{Deadline: 0, PollQuota: n, CostQuota: math.MaxUint64}
}

func meetDeadline(a, b int64) int64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a < b:
		return a
	default:
		return b
	}
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// Meet mutates b to the componentwise meet (greatest lower bound) of b and
// other, treating a zero deadline as "no constraint" (top).
func (b *Budget) Meet(other Budget) {
	b.Deadline = meetDeadline(b.Deadline, other.Deadline)
	b.PollQuota = minU32(b.PollQuota, other.PollQuota)
	b.CostQuota = minU64(b.CostQuota, other.CostQuota)
	b.Priority = minU32(b.Priority, other.Priority)
}

// BudgetMeet is the pure, non-mutating form of Meet.
func BudgetMeet(a, b Budget) Budget {
	a.Meet(b)
	return a
}

// ConsumePoll decrements PollQuota by one and returns the pre-decrement
// value. A return of 0 means the budget was already exhausted and no
// mutation occurred.
func (b *Budget) ConsumePoll() uint32 {
	pre := b.PollQuota
	if pre == 0 {
		return 0
	}
	b.PollQuota--
	return pre
}

// ConsumeCost attempts to subtract n from CostQuota. It mutates the budget
// and returns true only on success; on failure (n > CostQuota) the budget
// is left unchanged.
func (b *Budget) ConsumeCost(n uint64) bool {
	if n > b.CostQuota {
		return false
	}
	b.CostQuota -= n
	return true
}

// IsExhausted reports whether the budget has no remaining polls or cost.
func (b *Budget) IsExhausted() bool {
	return b.PollQuota == 0 || b.CostQuota == 0
}

// IsPastDeadline reports whether now (a logical-clock nanosecond
// timestamp) is at or past the budget's deadline. An unconstrained
// (zero) deadline is never past.
func (b *Budget) IsPastDeadline(now int64) bool {
	return b.Deadline != 0 && now >= b.Deadline
}

// String renders the budget for diagnostics and test failure messages.
// It is never called from the scheduler hot path. The deadline is
// rendered via floater, which avoids the float64 rounding error an
// ad-hoc "seconds := ns / 1e9" conversion would introduce for large
// nanosecond counts.
func (b Budget) String() string {
	if b.Deadline == 0 {
		return "Budget{deadline:none, polls:" + u32s(b.PollQuota) + ", cost:" + u64s(b.CostQuota) + "}"
	}
	units := b.Deadline / 1_000_000_000
	nanos := int32(b.Deadline % 1_000_000_000)
	if nanos < 0 {
		nanos = -nanos
	}
	return "Budget{deadline:" + floater.FormatUnitsNanos(units, nanos) + "s, polls:" + u32s(b.PollQuota) + ", cost:" + u64s(b.CostQuota) + "}"
}

func u32s(v uint32) string { return uintToString(uint64(v)) }
func u64s(v uint64) string { return uintToString(v) }

func uintToString(v uint64) string {
	if v == math.MaxUint32 || v == math.MaxUint64 {
		return "inf"
	}
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
