package intelligence

import "time"

// MinRetrySeconds is the floor below which no further LLM call is started.
// A structuring call plus parsing rarely completes in less, so starting one
// with less budget just burns the caller's deadline.
const MinRetrySeconds = 15

// TimeoutBudget tracks remaining time against an absolute deadline and
// drives budget-aware retry decisions for multi-step LLM operations.
type TimeoutBudget struct {
	deadline time.Time
	now      func() time.Time
}

// NewTimeoutBudget creates a budget expiring at the given deadline.
func NewTimeoutBudget(deadline time.Time) *TimeoutBudget {
	return &TimeoutBudget{deadline: deadline, now: time.Now}
}

// RemainingSeconds reports seconds until the deadline. Negative once the
// deadline has passed.
func (b *TimeoutBudget) RemainingSeconds() float64 {
	return b.deadline.Sub(b.now()).Seconds()
}

// HasTime reports whether at least minSeconds remain before the deadline.
func (b *TimeoutBudget) HasTime(minSeconds float64) bool {
	return b.RemainingSeconds() >= minSeconds
}
