// Package scheduler implements a non-overlapping, fixed-interval callback
// runner (spec.md §4.6): it fires a callback at cadence P from an arbitrary
// starting instant, never re-entering the callback while a previous
// invocation is still running, and stops cleanly on cancellation without
// interrupting an in-flight tick.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler fires Callback every Period, starting only once Start is
// called (construction never schedules work).
type Scheduler struct {
	period   time.Duration
	callback func(ctx context.Context)

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New creates a Scheduler. It does not start ticking until Start is called.
func New(period time.Duration, callback func(ctx context.Context)) *Scheduler {
	return &Scheduler{period: period, callback: callback}
}

// Start launches the scheduler's goroutine. Calling Start twice on the same
// Scheduler without an intervening Stop is a programmer error and panics,
// matching the "construction does not schedule work, startup is explicit"
// contract.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		panic("scheduler: Start called while already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.mu.Unlock()

	go s.run(runCtx)
}

// run is the scheduler's only goroutine: it waits Period, then (if not
// cancelled) invokes callback synchronously and to completion before
// waiting again. A callback that overruns Period delays the next tick by
// the full Period measured from its own completion — there is no catch-up
// bursting (spec.md §4.6).
func (s *Scheduler) run(ctx context.Context) {
	defer close(s.stopped)

	timer := time.NewTimer(s.period)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.callback(ctx)
			select {
			case <-ctx.Done():
				return
			default:
			}
			timer.Reset(s.period)
		}
	}
}

// Stop cancels future ticks. Any tick currently executing runs to
// completion; Stop does not wait for it. Call Wait afterward to block for
// that completion if needed.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the scheduler's goroutine has exited, i.e. until any
// in-flight callback has finished running after Stop.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped != nil {
		<-stopped
	}
}
