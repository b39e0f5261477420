package controller

import (
	"context"
	"math"
	"time"

	"github.com/kdgyun/lare-hpa-go/internal/domain"
	"github.com/kdgyun/lare-hpa-go/internal/infra/decisionlog"
	"github.com/kdgyun/lare-hpa-go/internal/infra/obslog"
	"github.com/kdgyun/lare-hpa-go/internal/infra/observability"
	"github.com/kdgyun/lare-hpa-go/internal/infra/scheduler"
	"github.com/kdgyun/lare-hpa-go/internal/infra/stabilization"
	"github.com/kdgyun/lare-hpa-go/internal/infra/threshold"
)

// Controller is the AutoscalerController of spec.md §4.7: it orchestrates
// the forecast/threshold/stabilization/scheduler packages and mediates
// access to SharedControlState across three concurrently ticking loops.
type Controller struct {
	cfg     domain.AutoscalerConfig
	metrics domain.MetricsGateway
	scaler  domain.ScalerGateway

	state *SharedControlState

	logs      *obslog.Loggers
	tracer    *observability.Tracer
	decisions *decisionlog.Log // nil disables audit persistence

	period time.Duration

	scalingSched       *scheduler.Scheduler
	thresholdSched     *scheduler.Scheduler
	stabilizationSched *scheduler.Scheduler
}

// New builds a Controller ready to Start. decisions may be nil (no audit
// persistence); tracer may be nil (tracing disabled, per
// observability.TracerConfig{Enabled: false}).
func New(cfg domain.AutoscalerConfig, metrics domain.MetricsGateway, scaler domain.ScalerGateway, logs *obslog.Loggers, tracer *observability.Tracer, decisions *decisionlog.Log) *Controller {
	return &Controller{
		cfg:       cfg,
		metrics:   metrics,
		scaler:    scaler,
		state:     NewSharedControlState(cfg.InitialTargetCPU),
		logs:      logs,
		tracer:    tracer,
		decisions: decisions,
		period:    time.Duration(cfg.Period) * time.Second,
	}
}

// Start launches the three independent PeriodicSchedulers (spec.md §4.7),
// all at cadence P. Each runs until ctx is cancelled or Stop is called.
func (c *Controller) Start(ctx context.Context) {
	c.scalingSched = scheduler.New(c.period, c.scalingLoopTick)
	c.thresholdSched = scheduler.New(c.period, c.thresholdLoopTick)
	c.stabilizationSched = scheduler.New(c.period, c.stabilizationLoopTick)

	c.scalingSched.Start(ctx)
	c.thresholdSched.Start(ctx)
	c.stabilizationSched.Start(ctx)
}

// Stop cancels all three schedulers; any in-flight tick runs to completion.
func (c *Controller) Stop() {
	c.scalingSched.Stop()
	c.thresholdSched.Stop()
	c.stabilizationSched.Stop()
}

// Wait blocks until all three loops have fully stopped.
func (c *Controller) Wait() {
	c.scalingSched.Wait()
	c.thresholdSched.Wait()
	c.stabilizationSched.Wait()
}

// State exposes the shared control state for the ops surface (read-only
// accessors only).
func (c *Controller) State() *SharedControlState { return c.state }

// ─── ScalingLoop ─────────────────────────────────────────────────────────────

func (c *Controller) scalingLoopTick(ctx context.Context) {
	span := c.startSpan(ctx, "ScalingLoop")
	start := time.Now()
	defer func() {
		observability.LoopTickDuration.WithLabelValues("scaling").Observe(time.Since(start).Seconds())
	}()

	// Step 1: atomically decrement current_cdt, floor at 0.
	currentCDT := c.state.decrementCurrentCDT()
	observability.CurrentCDT.Set(float64(currentCDT))

	// Step 2: fetch cpu and current replicas.
	cpuQuery := cpuUtilizationQuery(c.cfg.Deployment, c.cfg.Container, c.cfg.Period)
	cpu, err := c.metrics.PointQuery(ctx, cpuQuery, c.period)
	if err != nil {
		c.logErr("scaling: fetch cpu: %v", err)
		observability.MetricFetchErrors.WithLabelValues("scaling").Inc()
		c.endSpan(span, err)
		return
	}

	current, err := c.scaler.GetReplicas(ctx, c.cfg.Namespace, c.cfg.Deployment, c.period)
	if err != nil {
		c.logErr("scaling: fetch replicas: %v", err)
		observability.MetricFetchErrors.WithLabelValues("scaling").Inc()
		c.endSpan(span, err)
		return
	}

	targetCPU := c.state.TargetCPU()
	observability.TargetCPU.Set(targetCPU)

	// Step 3: desired = ceil(current * cpu / target_cpu), clamped.
	desired := int(math.Ceil(float64(current) * cpu / targetCPU))
	if desired < c.cfg.MinReplicas {
		desired = c.cfg.MinReplicas
	}
	if desired > c.cfg.MaxReplicas {
		desired = c.cfg.MaxReplicas
	}
	observability.DesiredReplicas.Set(float64(desired))

	applied := false
	trend := 0
	reason := "no-op"

	switch {
	case desired > current:
		// Step 4: scale up unconditionally.
		if err := c.scaler.SetReplicas(ctx, c.cfg.Namespace, c.cfg.Deployment, desired); err != nil {
			c.logErr("scaling: set replicas up: %v", err)
			observability.ScaleWriteErrors.Inc()
		} else {
			applied = true
			reason = "scale-up"
			observability.ScaleActions.WithLabelValues("up").Inc()
			c.logAutoscaler("scale up %d -> %d (cpu=%.2f target=%.2f)", current, desired, cpu, targetCPU)
		}
		c.state.resetCurrentCDT()

	case desired < current:
		// Step 5: scale-down gated by cool-down and stabilization slope.
		if currentCDT == 0 {
			trend = stabilization.Evaluate(c.stabilizationSeries(ctx))
			if trend <= 0 {
				if err := c.scaler.SetReplicas(ctx, c.cfg.Namespace, c.cfg.Deployment, desired); err != nil {
					c.logErr("scaling: set replicas down: %v", err)
					observability.ScaleWriteErrors.Inc()
				} else {
					applied = true
					reason = "scale-down"
					observability.ScaleActions.WithLabelValues("down").Inc()
					c.logAutoscaler("scale down %d -> %d (cpu=%.2f target=%.2f)", current, desired, cpu, targetCPU)
				}
			} else {
				reason = "scale-down-blocked-trend"
				observability.ScaleDownBlocked.WithLabelValues("rising-trend").Inc()
				c.logCDT("scale-down suppressed: rising request trend")
			}
			c.state.resetCurrentCDT()
		} else {
			reason = "scale-down-blocked-cooldown"
			observability.ScaleDownBlocked.WithLabelValues("cooldown").Inc()
			c.logCDT("scale-down suppressed: cool-down=%d", currentCDT)
		}

	default:
		// Step 6: no-op.
	}

	c.recordDecision(ctx, current, desired, targetCPU, currentCDT, c.state.DesiredCDT(), trend, applied, reason)
	c.endSpan(span, nil)
}

// stabilizationSeries pulls the last 60 request-count samples, dropping
// the boundary sample (spec.md §4.5).
func (c *Controller) stabilizationSeries(ctx context.Context) []float64 {
	query := requestCountQuery(c.cfg.AppName, c.cfg.Period)
	samples, err := c.metrics.WindowQuery(ctx, query, c.period, 60)
	if err != nil {
		c.logErr("scaling: stabilization window query: %v", err)
		observability.MetricFetchErrors.WithLabelValues("scaling").Inc()
		return nil
	}
	return dropFirst(samples)
}

// ─── ThresholdLoop ───────────────────────────────────────────────────────────

func (c *Controller) thresholdLoopTick(ctx context.Context) {
	span := c.startSpan(ctx, "ThresholdLoop")
	start := time.Now()
	defer func() {
		observability.LoopTickDuration.WithLabelValues("threshold").Observe(time.Since(start).Seconds())
	}()

	query := requestCountQuery(c.cfg.AppName, c.cfg.Period)
	latest, err := c.metrics.PointQuery(ctx, query, c.period)
	if err != nil {
		c.logErr("threshold: fetch latest: %v", err)
		observability.MetricFetchErrors.WithLabelValues("threshold").Inc()
		c.endSpan(span, err)
		return
	}
	if latest < 0 {
		latest = 0
	}

	if latest == 0 && c.state.StartTime().IsZero() && !c.state.Active() {
		c.endSpan(span, nil)
		return
	}

	c.state.setActive()

	forecastVal, stable, ferr := c.state.forecaster.Update(latest)
	observability.ForecastValue.Set(forecastVal)
	if stable {
		observability.ForecasterStable.Set(1)
	} else {
		observability.ForecasterStable.Set(0)
	}
	if ferr != nil {
		c.logErr("threshold: forecaster update: %v", ferr)
	}

	if !stable {
		c.logThreshold("forecaster not yet stable, target_cpu unchanged")
		c.endSpan(span, nil)
		return
	}

	now := time.Now()
	c.state.setStartTimeIfUnset(now)

	series, err := c.requestSeriesSinceStart(ctx)
	if err != nil {
		c.logErr("threshold: fetch request series: %v", err)
		observability.MetricFetchErrors.WithLabelValues("threshold").Inc()
		c.endSpan(span, err)
		return
	}
	series = append(series, forecastVal)

	newTarget := threshold.NewTarget(series)
	c.state.setTargetCPU(newTarget)
	observability.TargetCPU.Set(newTarget)
	c.logThreshold("target_cpu -> %.2f (forecast=%.2f)", newTarget, forecastVal)

	c.endSpan(span, nil)
}

// requestSeriesSinceStart fetches R over [start_time, now] at step period,
// dropping the boundary sample (spec.md §4.4 step 1).
func (c *Controller) requestSeriesSinceStart(ctx context.Context) ([]float64, error) {
	query := requestCountQuery(c.cfg.AppName, c.cfg.Period)
	samples, err := c.metrics.RangeQuery(ctx, query, c.state.StartTime(), c.period)
	if err != nil {
		return nil, err
	}
	return dropFirst(samples), nil
}

// ─── StabilizationLoop ───────────────────────────────────────────────────────

func (c *Controller) stabilizationLoopTick(ctx context.Context) {
	span := c.startSpan(ctx, "StabilizationLoop")
	start := time.Now()
	defer func() {
		observability.LoopTickDuration.WithLabelValues("stabilization").Observe(time.Since(start).Seconds())
	}()

	trend := stabilization.Evaluate(c.stabilizationSeries(ctx))
	switch {
	case trend > 0:
		c.state.adjustDesiredCDT(1)
	case trend < 0:
		c.state.adjustDesiredCDT(-1)
	}
	observability.DesiredCDT.Set(float64(c.state.DesiredCDT()))

	c.endSpan(span, nil)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func dropFirst(samples []domain.Sample) []float64 {
	if len(samples) <= 1 {
		return nil
	}
	out := make([]float64, 0, len(samples)-1)
	for _, s := range samples[1:] {
		out = append(out, s.Value)
	}
	return out
}

func (c *Controller) startSpan(ctx context.Context, op string) *observability.Span {
	if c.tracer == nil {
		return nil
	}
	return c.tracer.StartSpan(ctx, op, nil)
}

func (c *Controller) endSpan(span *observability.Span, err error) {
	if c.tracer == nil || span == nil {
		return
	}
	c.tracer.EndSpan(span, err)
}

func (c *Controller) recordDecision(ctx context.Context, current, desired int, targetCPU float64, currentCDT, desiredCDT, trend int, applied bool, reason string) {
	if c.decisions == nil {
		return
	}
	d := decisionlog.Decision{
		Namespace:       c.cfg.Namespace,
		Deployment:      c.cfg.Deployment,
		CurrentReplicas: current,
		DesiredReplicas: desired,
		TargetCPU:       targetCPU,
		CurrentCDT:      float64(currentCDT),
		DesiredCDT:      float64(desiredCDT),
		Trend:           trend,
		Applied:         applied,
		Reason:          reason,
	}
	if err := c.decisions.Record(ctx, d); err != nil {
		c.logErr("decisionlog: record: %v", err)
	}
}

func (c *Controller) logErr(format string, args ...any) {
	if c.logs == nil {
		return
	}
	c.logs.Err().Printf(format, args...)
}

func (c *Controller) logAutoscaler(format string, args ...any) {
	if c.logs == nil {
		return
	}
	c.logs.Autoscaler().Printf(format, args...)
}

func (c *Controller) logThreshold(format string, args ...any) {
	if c.logs == nil {
		return
	}
	c.logs.Thresh().Printf(format, args...)
}

func (c *Controller) logCDT(format string, args ...any) {
	if c.logs == nil {
		return
	}
	c.logs.CDTLog().Printf(format, args...)
}
