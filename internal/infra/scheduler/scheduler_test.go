package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_FiresAtCadence(t *testing.T) {
	var count int32
	s := New(20*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&count, 1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	time.Sleep(95 * time.Millisecond)
	cancel()
	s.Wait()

	got := atomic.LoadInt32(&count)
	if got < 3 || got > 6 {
		t.Errorf("fired %d times in ~95ms at 20ms cadence, want roughly 4", got)
	}
}

func TestScheduler_DoesNotOverlap(t *testing.T) {
	var running int32
	var overlapped int32
	s := New(5*time.Millisecond, func(ctx context.Context) {
		if !atomic.CompareAndSwapInt32(&running, 0, 1) {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(15 * time.Millisecond)
		atomic.StoreInt32(&running, 0)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(80 * time.Millisecond)
	cancel()
	s.Wait()

	if atomic.LoadInt32(&overlapped) != 0 {
		t.Error("callback was re-entered while a previous tick was still running")
	}
}

func TestScheduler_StopAllowsInFlightToComplete(t *testing.T) {
	done := make(chan struct{})
	s := New(5*time.Millisecond, func(ctx context.Context) {
		time.Sleep(30 * time.Millisecond)
		close(done)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(8 * time.Millisecond) // let the first tick start
	cancel()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("in-flight callback never completed after cancellation")
	}
	s.Wait()
}

func TestScheduler_StartTwiceWithoutStopPanics(t *testing.T) {
	s := New(time.Second, func(ctx context.Context) {})
	ctx := context.Background()
	s.Start(ctx)
	defer s.Stop()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double Start")
		}
	}()
	s.Start(ctx)
}
