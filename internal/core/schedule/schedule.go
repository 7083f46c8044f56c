// Package schedule holds the one polling primitive used by nexus: wait until a
// condition holds or a timeout passes. The queue idle wait and the response
// stabilizer both go through it, so timing can be driven by a fake clock in tests.
package schedule

import (
	"context"
	"time"
)

// Clock abstracts the passage of time
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

// Real returns the wall clock
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Tick is passed to a condition on every evaluation.
type Tick struct {
	// Elapsed is the time since Until started
	Elapsed time.Duration
	// Woken is true when this evaluation was triggered by the wake channel
	// rather than the interval
	Woken bool
}

// Wait describes how often a condition is evaluated and for how long.
type Wait struct {
	// Interval between evaluations
	Interval time.Duration
	// Timeout bounds the whole wait; zero means no bound
	Timeout time.Duration
	// Wake, when non-nil, triggers an early evaluation on receive
	Wake <-chan struct{}
}

// Scheduler evaluates conditions on a clock.
type Scheduler struct {
	clock Clock
}

// New creates a Scheduler on the given clock. A nil clock means the wall clock.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = Real()
	}
	return &Scheduler{clock: clock}
}

// Clock returns the scheduler's clock
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Until evaluates cond immediately and then after every interval (or wake)
// until cond returns true, the timeout has elapsed, or ctx is done.
// It reports whether cond was satisfied. A ctx error is returned as-is.
func (s *Scheduler) Until(ctx context.Context, w Wait, cond func(Tick) bool) (bool, error) {
	start := s.clock.Now()
	woken := false

	for {
		elapsed := s.clock.Now().Sub(start)
		if cond(Tick{Elapsed: elapsed, Woken: woken}) {
			return true, nil
		}
		if w.Timeout > 0 && elapsed >= w.Timeout {
			return false, nil
		}

		// a fake clock's channel is always ready, so check before selecting
		if err := ctx.Err(); err != nil {
			return false, err
		}

		woken = false
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-s.clock.After(w.Interval):
		case <-w.Wake:
			woken = true
		}
	}
}

// Sleep blocks for d or until ctx is done.
func (s *Scheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(d):
		return nil
	}
}
