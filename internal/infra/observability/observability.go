// Package observability provides the autoscaler controller's own
// telemetry: a lightweight in-memory span tracer for the three control
// loops, and the Prometheus metrics an operator scrapes alongside the
// workload being scaled.
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ═══════════════════════════════════════════════════════════════════════════
// Trace Spans — Lightweight span tracking without external OTel SDK dependency
// ═══════════════════════════════════════════════════════════════════════════

// SpanKind classifies a span.
type SpanKind int

const (
	SpanInternal SpanKind = iota
	SpanServer
	SpanClient
)

// Span represents one control-loop tick.
type Span struct {
	TraceID   string            `json:"trace_id"`
	SpanID    string            `json:"span_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	Operation string            `json:"operation"`
	Kind      SpanKind          `json:"kind"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
	Duration  time.Duration     `json:"duration,omitempty"`
	Status    SpanStatus        `json:"status"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// SpanStatus indicates success/failure.
type SpanStatus int

const (
	SpanOK SpanStatus = iota
	SpanError
)

// ─── Tracer ─────────────────────────────────────────────────────────────────

// Tracer records spans for the ScalingLoop, ThresholdLoop, and
// StabilizationLoop ticks in a ring buffer for inspection and export.
type Tracer struct {
	mu       sync.Mutex
	spans    []Span
	maxSpans int
	enabled  bool
}

// TracerConfig configures the tracer.
type TracerConfig struct {
	Enabled  bool
	MaxSpans int // ring buffer size (default 10_000)
}

// DefaultTracerConfig returns production defaults.
func DefaultTracerConfig() TracerConfig {
	return TracerConfig{
		Enabled:  true,
		MaxSpans: 10_000,
	}
}

// NewTracer creates a new tracer.
func NewTracer(cfg TracerConfig) *Tracer {
	return &Tracer{
		spans:    make([]Span, 0, cfg.MaxSpans),
		maxSpans: cfg.MaxSpans,
		enabled:  cfg.Enabled,
	}
}

// StartSpan begins a new span for the given loop tick. Returns the span
// (caller must call EndSpan when done).
func (t *Tracer) StartSpan(ctx context.Context, operation string, attrs map[string]string) *Span {
	if !t.enabled {
		return &Span{Operation: operation}
	}

	return &Span{
		TraceID:   traceIDFromContext(ctx),
		SpanID:    generateID(),
		ParentID:  spanIDFromContext(ctx),
		Operation: operation,
		Kind:      SpanInternal,
		StartTime: time.Now(),
		Status:    SpanOK,
		Attrs:     attrs,
	}
}

// EndSpan completes a span and records it.
func (t *Tracer) EndSpan(span *Span, err error) {
	if !t.enabled || span == nil {
		return
	}

	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	if err != nil {
		span.Status = SpanError
		if span.Attrs == nil {
			span.Attrs = make(map[string]string)
		}
		span.Attrs["error"] = err.Error()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Ring buffer: overwrite oldest if at capacity
	if len(t.spans) >= t.maxSpans {
		t.spans = t.spans[1:]
	}
	t.spans = append(t.spans, *span)
}

// Spans returns a copy of the recent spans.
func (t *Tracer) Spans(limit int) []Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	if limit <= 0 || limit > len(t.spans) {
		limit = len(t.spans)
	}

	start := len(t.spans) - limit
	out := make([]Span, limit)
	copy(out, t.spans[start:])
	return out
}

// SpanCount returns the number of recorded spans.
func (t *Tracer) SpanCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.spans)
}

// Reset clears all recorded spans.
func (t *Tracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = t.spans[:0]
}

// ─── Context Helpers ────────────────────────────────────────────────────────

type contextKey string

const (
	traceIDKey contextKey = "lare-hpa-trace-id"
	spanIDKey  contextKey = "lare-hpa-span-id"
)

// WithTraceID returns a context with the given trace ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// WithSpanID returns a context with the given span ID.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey, spanID)
}

func traceIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return generateID()
}

func spanIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(spanIDKey).(string); ok {
		return v
	}
	return ""
}

// generateID creates a unique tick-correlation ID.
func generateID() string {
	return uuid.NewString()
}

// ═══════════════════════════════════════════════════════════════════════════
// Controller Prometheus Metrics
// ═══════════════════════════════════════════════════════════════════════════

// TargetCPU tracks the current dynamically adjusted target CPU utilization.
var TargetCPU = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lare_hpa",
	Subsystem: "controller",
	Name:      "target_cpu_utilization",
	Help:      "Current target CPU utilization percent, written by the ThresholdLoop.",
})

// CurrentCDT tracks the current cool-down counter.
var CurrentCDT = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lare_hpa",
	Subsystem: "controller",
	Name:      "current_cdt",
	Help:      "Remaining cool-down ticks before a down-scale is permitted.",
})

// DesiredCDT tracks the desired cool-down counter.
var DesiredCDT = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lare_hpa",
	Subsystem: "controller",
	Name:      "desired_cdt",
	Help:      "Cool-down length the stabilization loop currently recommends.",
})

// ForecastValue tracks the forecaster's most recent one-step-ahead forecast.
var ForecastValue = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lare_hpa",
	Subsystem: "forecaster",
	Name:      "forecast_value",
	Help:      "Most recent one-step-ahead request-count forecast.",
})

// ForecasterStable tracks whether the forecaster considers itself stable.
var ForecasterStable = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lare_hpa",
	Subsystem: "forecaster",
	Name:      "stable",
	Help:      "1 if the forecaster has observed enough history to trust its forecast, else 0.",
})

// DesiredReplicas tracks the replica count the ScalingLoop last computed.
var DesiredReplicas = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "lare_hpa",
	Subsystem: "controller",
	Name:      "desired_replicas",
	Help:      "Most recently computed desired replica count.",
})

// ScaleActions counts replica-count changes applied to the orchestrator, by
// direction.
var ScaleActions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lare_hpa",
	Subsystem: "controller",
	Name:      "scale_actions_total",
	Help:      "Total SetReplicas calls applied, labeled by direction.",
}, []string{"direction"})

// ScaleDownBlocked counts scale-down attempts suppressed by the cool-down
// or stabilization gate.
var ScaleDownBlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lare_hpa",
	Subsystem: "controller",
	Name:      "scale_down_blocked_total",
	Help:      "Total scale-down attempts suppressed, labeled by reason.",
}, []string{"reason"})

// MetricFetchErrors counts MetricsGateway failures, by loop.
var MetricFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lare_hpa",
	Subsystem: "controller",
	Name:      "metric_fetch_errors_total",
	Help:      "Total metric fetch failures, labeled by loop.",
}, []string{"loop"})

// ScaleWriteErrors counts ScalerGateway write failures.
var ScaleWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "lare_hpa",
	Subsystem: "controller",
	Name:      "scale_write_errors_total",
	Help:      "Total SetReplicas failures.",
})

// LoopTickDuration tracks per-loop tick latency.
var LoopTickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lare_hpa",
	Subsystem: "controller",
	Name:      "loop_tick_duration_seconds",
	Help:      "Duration of one control-loop tick.",
	Buckets:   prometheus.DefBuckets,
}, []string{"loop"})
