// Package pacing keeps a loop running at a target rate by sleeping off
// whatever is left of each cycle's time budget.
package pacing

import (
	"context"
	"time"
)

// Scheduler paces cycles to a fixed rate. A cycle that overruns its budget
// is not compensated for; the next one simply starts late.
type Scheduler struct {
	interval time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewScheduler returns a Scheduler for rate cycles per second. A
// non-positive rate disables pacing.
func NewScheduler(rate float64) *Scheduler {
	var interval time.Duration
	if rate > 0 {
		interval = time.Duration(float64(time.Second) / rate)
	}
	return &Scheduler{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Interval returns the per-cycle budget.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Cycle is one paced iteration, started by Start and ended by Wait.
type Cycle struct {
	s     *Scheduler
	start time.Time
}

// Start marks the beginning of a cycle.
func (s *Scheduler) Start() Cycle {
	return Cycle{s: s, start: s.now()}
}

// Elapsed returns the time spent in the cycle so far.
func (c Cycle) Elapsed() time.Duration {
	return c.s.now().Sub(c.start)
}

// Remaining returns the unused part of the cycle's budget, never negative.
func (c Cycle) Remaining() time.Duration {
	left := c.s.interval - c.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

// Wait sleeps for the remaining budget. It returns early with ctx.Err()
// when ctx is cancelled.
func (c Cycle) Wait(ctx context.Context) error {
	left := c.Remaining()
	if left <= 0 {
		return ctx.Err()
	}
	return c.s.sleep(ctx, left)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
