// Package controller implements the AutoscalerController (spec.md §4.7):
// three concurrent PeriodicScheduler-driven loops — ScalingLoop,
// ThresholdLoop, StabilizationLoop — that read and mutate a shared
// SharedControlState under per-field guards, fusing the forecast,
// threshold, stabilization, and scheduler packages with the
// MetricsGateway/ScalerGateway boundary.
package controller

import (
	"sync"
	"time"

	"github.com/kdgyun/lare-hpa-go/internal/infra/forecast"
)

// SharedControlState holds the mutable control variables the three loops
// share (spec.md §3). Every field is guarded individually rather than by
// one monolithic lock, matching spec.md §5's ownership model:
//
//   - targetCPU: single writer (ThresholdLoop), read by ScalingLoop.
//   - currentCDT: single writer (ScalingLoop); decrement-then-reset is a
//     compound read-modify-write, so it gets its own lock.
//   - desiredCDT: single writer (StabilizationLoop); read by ScalingLoop
//     at reset time under its own lock, never nested inside currentCDT's
//     lock (the documented lock-ordering rule that keeps the two gates
//     deadlock-free).
//   - forecaster/startTime/active: touched only by ThresholdLoop.
//     startTime/active are guarded for the benefit of readers elsewhere
//     (ops surface, logging); the forecaster has no lock.
type SharedControlState struct {
	targetCPUMu sync.RWMutex
	targetCPU   float64

	currentCDTMu sync.Mutex
	currentCDT   int

	desiredCDTMu sync.Mutex
	desiredCDT   int

	activationMu sync.Mutex
	startTime    time.Time
	active       bool

	forecaster *forecast.ARIMA
}

// NewSharedControlState seeds target_cpu from the config's initial value
// and desired_cdt at 1 tick (the minimum of its [1, 60] range), with the
// forecaster constructed at its spec.md §3 defaults.
func NewSharedControlState(initialTargetCPU float64) *SharedControlState {
	return &SharedControlState{
		targetCPU:  initialTargetCPU,
		desiredCDT: 1,
		forecaster: forecast.New(forecast.DefaultConfig()),
	}
}

// TargetCPU returns the current dynamically adjusted target.
func (s *SharedControlState) TargetCPU() float64 {
	s.targetCPUMu.RLock()
	defer s.targetCPUMu.RUnlock()
	return s.targetCPU
}

// setTargetCPU is called only by ThresholdLoop.
func (s *SharedControlState) setTargetCPU(v float64) {
	s.targetCPUMu.Lock()
	defer s.targetCPUMu.Unlock()
	s.targetCPU = v
}

// decrementCurrentCDT floors current_cdt at 0 and returns the post-
// decrement value, atomically (spec.md §4.7 ScalingLoop step 1).
func (s *SharedControlState) decrementCurrentCDT() int {
	s.currentCDTMu.Lock()
	defer s.currentCDTMu.Unlock()
	if s.currentCDT > 0 {
		s.currentCDT--
	}
	return s.currentCDT
}

// resetCurrentCDT snapshots desired_cdt under its own lock, then writes it
// to current_cdt under currentCDTMu. The two acquisitions are sequential,
// never nested — desiredCDTMu is released before currentCDTMu is taken.
func (s *SharedControlState) resetCurrentCDT() {
	s.desiredCDTMu.Lock()
	desired := s.desiredCDT
	s.desiredCDTMu.Unlock()

	s.currentCDTMu.Lock()
	s.currentCDT = desired
	s.currentCDTMu.Unlock()
}

// CurrentCDT returns the current cool-down counter (read-only view).
func (s *SharedControlState) CurrentCDT() int {
	s.currentCDTMu.Lock()
	defer s.currentCDTMu.Unlock()
	return s.currentCDT
}

// DesiredCDT returns the stabilization loop's current recommendation.
func (s *SharedControlState) DesiredCDT() int {
	s.desiredCDTMu.Lock()
	defer s.desiredCDTMu.Unlock()
	return s.desiredCDT
}

// adjustDesiredCDT nudges desired_cdt by delta, clamped to [1, 60]
// (spec.md §4.7 StabilizationLoop tick).
func (s *SharedControlState) adjustDesiredCDT(delta int) {
	s.desiredCDTMu.Lock()
	defer s.desiredCDTMu.Unlock()
	s.desiredCDT += delta
	if s.desiredCDT < 1 {
		s.desiredCDT = 1
	}
	if s.desiredCDT > 60 {
		s.desiredCDT = 60
	}
}

// setActive latches active permanently (spec.md §4.7 ThresholdLoop step 3:
// set on every tick that is not the early "not yet activated" return, ahead
// of start_time which is only set once the forecaster turns stable).
func (s *SharedControlState) setActive() {
	s.activationMu.Lock()
	defer s.activationMu.Unlock()
	s.active = true
}

// setStartTimeIfUnset records the activation instant the first time the
// forecaster reports stable (spec.md §4.7 ThresholdLoop step 4). A no-op
// on every subsequent call.
func (s *SharedControlState) setStartTimeIfUnset(now time.Time) {
	s.activationMu.Lock()
	defer s.activationMu.Unlock()
	if s.startTime.IsZero() {
		s.startTime = now
	}
}

// Active reports whether the first non-zero request sample has been seen.
func (s *SharedControlState) Active() bool {
	s.activationMu.Lock()
	defer s.activationMu.Unlock()
	return s.active
}

// StartTime returns the activation instant (zero value if not yet set).
func (s *SharedControlState) StartTime() time.Time {
	s.activationMu.Lock()
	defer s.activationMu.Unlock()
	return s.startTime
}
