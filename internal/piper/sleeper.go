package piper

import (
	"context"
	"time"
)

// maxIterations caps how finely a wait is sliced so that each
// individual sleep stays coarse enough for the scheduler.
const maxIterations = 10000

// Sleeper implements bounded waiting for a condition by repeated short
// sleeps. The pipe transport has no blocking read with a timeout, so
// callers poll a readiness predicate instead.
type Sleeper struct {
	sleep func(time.Duration)
}

// NewSleeper returns a Sleeper backed by time.Sleep.
func NewSleeper() *Sleeper {
	return &Sleeper{sleep: time.Sleep}
}

func newSleeper(sleep func(time.Duration)) *Sleeper {
	return &Sleeper{sleep: sleep}
}

// Wait blocks until pred is true or d has elapsed, whichever comes
// first, and reports the final value of pred. The duration is split
// into at most maxIterations slices; pred is re-checked after every
// slice. A predicate that is already true returns without sleeping.
// Cancelling ctx stops the wait early after one final pred check.
func (s *Sleeper) Wait(ctx context.Context, d time.Duration, pred func() bool) bool {
	if pred() {
		return true
	}
	if d <= 0 {
		return false
	}

	iterations := int64(d / time.Millisecond)
	if iterations < 1 {
		// Sub-millisecond wait: slice by nanoseconds instead.
		iterations = int64(d)
	}
	if iterations > maxIterations {
		iterations = maxIterations
	}
	slice := d / time.Duration(iterations)

	for i := int64(0); i < iterations; i++ {
		select {
		case <-ctx.Done():
			return pred()
		default:
		}
		s.sleep(slice)
		if pred() {
			return true
		}
	}
	return pred()
}

// Pause sleeps for d using the Sleeper's clock.
func (s *Sleeper) Pause(d time.Duration) {
	if d > 0 {
		s.sleep(d)
	}
}
