package piper

import (
	"context"
	"testing"
	"time"
)

func TestWaitImmediatePredicateDoesNotSleep(t *testing.T) {
	slept := 0
	s := newSleeper(func(time.Duration) { slept++ })

	ok := s.Wait(context.Background(), time.Second, func() bool { return true })

	if !ok {
		t.Fatal("Wait() = false, want true")
	}
	if slept != 0 {
		t.Fatalf("sleep called %d times, want 0", slept)
	}
}

func TestWaitNeverExceedsDeadline(t *testing.T) {
	var total time.Duration
	s := newSleeper(func(d time.Duration) { total += d })

	ok := s.Wait(context.Background(), 250*time.Millisecond, func() bool { return false })

	if ok {
		t.Fatal("Wait() = true, want false")
	}
	if total > 250*time.Millisecond {
		t.Fatalf("slept %s total, want <= 250ms", total)
	}
}

func TestWaitStopsOncePredicateBecomesTrue(t *testing.T) {
	slept := 0
	s := newSleeper(func(time.Duration) { slept++ })

	checks := 0
	ok := s.Wait(context.Background(), time.Second, func() bool {
		checks++
		return checks > 3
	})

	if !ok {
		t.Fatal("Wait() = false, want true")
	}
	if slept != 3 {
		t.Fatalf("sleep called %d times, want 3", slept)
	}
}

func TestWaitIterationCount(t *testing.T) {
	tests := []struct {
		name   string
		d      time.Duration
		slices int
	}{
		{name: "one millisecond", d: time.Millisecond, slices: 1},
		{name: "ten milliseconds", d: 10 * time.Millisecond, slices: 10},
		{name: "capped at ten thousand", d: time.Minute, slices: maxIterations},
		{name: "sub-millisecond", d: 500 * time.Nanosecond, slices: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slept := 0
			s := newSleeper(func(time.Duration) { slept++ })
			s.Wait(context.Background(), tt.d, func() bool { return false })
			if slept != tt.slices {
				t.Errorf("slept %d slices, want %d", slept, tt.slices)
			}
		})
	}
}

func TestWaitCancelledContextChecksPredicateOnceMore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slept := 0
	s := newSleeper(func(time.Duration) { slept++ })

	checks := 0
	ok := s.Wait(ctx, time.Second, func() bool {
		checks++
		return checks == 2
	})

	if !ok {
		t.Fatal("Wait() = false, want true after final predicate check")
	}
	if slept != 0 {
		t.Fatalf("sleep called %d times after cancellation, want 0", slept)
	}
}

func TestWaitZeroDuration(t *testing.T) {
	s := newSleeper(func(time.Duration) { t.Fatal("sleep called for zero duration") })
	if s.Wait(context.Background(), 0, func() bool { return false }) {
		t.Fatal("Wait() = true, want false")
	}
}
