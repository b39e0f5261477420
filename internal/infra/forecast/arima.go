// Package forecast implements an online ARIMA-style forecaster updated by
// recursive least squares (Sherman-Morrison rank-one update), one sample at
// a time. It is the "Online ARIMA" leaf of the autoscaler control system
// (spec.md §4.3): it has no knowledge of CPU, replicas, or Prometheus — it
// just consumes a scalar stream and emits a one-step-ahead forecast plus a
// stability flag.
package forecast

import (
	"math/rand"

	"github.com/kdgyun/lare-hpa-go/internal/domain"
)

const (
	// DefaultMK is the default history window length (spec.md §3).
	DefaultMK = 10
	// DefaultLearningRate is the default gradient-descent step size.
	DefaultLearningRate = 0.1
	// DefaultEpsilon seeds the initial A matrix as epsilon*I.
	DefaultEpsilon = 1e-4
	// seed fixes the initial weight vector for reproducibility (spec.md §3,
	// original_source: np.random.seed(42)).
	seed = 42
)

// Config parameterizes an ARIMA model.
type Config struct {
	MK      int     // history window length
	LRate   float64 // gradient-descent learning rate
	Epsilon float64 // initial A = Epsilon * I
}

// DefaultConfig returns the spec.md §3 defaults.
func DefaultConfig() Config {
	return Config{MK: DefaultMK, LRate: DefaultLearningRate, Epsilon: DefaultEpsilon}
}

// ARIMA is a single-writer online forecaster. Per spec.md §5, it must only
// ever be touched from within one loop (the ThresholdLoop); it carries no
// internal locking of its own.
type ARIMA struct {
	cfg Config

	w []float64   // coefficient vector, length mk
	a [][]float64 // mk x mk running pseudo-inverse

	dataStream     []float64 // append-only observed samples
	forecastStream []float64 // append-only emitted forecasts
}

// New creates an ARIMA model with the given config, initializing w to small
// random values from a fixed-seed RNG (never the global RNG) and A to
// Epsilon*I, per spec.md §3.
func New(cfg Config) *ARIMA {
	if cfg.MK <= 0 {
		cfg.MK = DefaultMK
	}
	if cfg.LRate <= 0 {
		cfg.LRate = DefaultLearningRate
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = DefaultEpsilon
	}

	rng := rand.New(rand.NewSource(seed))
	w := make([]float64, cfg.MK)
	for i := range w {
		w[i] = rng.Float64() / 1000
	}

	a := make([][]float64, cfg.MK)
	for i := range a {
		a[i] = make([]float64, cfg.MK)
		a[i][i] = cfg.Epsilon
	}

	return &ARIMA{cfg: cfg, w: w, a: a}
}

// Stable reports whether the model has observed enough history to produce
// a model-based forecast (spec.md §8: false for the first mk updates, true
// thereafter, monotonically).
func (m *ARIMA) Stable() bool {
	return len(m.dataStream) > m.cfg.MK
}

// Update consumes one new observation and returns the model's one-step-
// ahead forecast plus the stability flag, following spec.md §4.3 exactly:
//
//  1. append x to data_stream; if too short, return (x, false)
//  2. prev = the mk samples immediately preceding x
//  3. prev_forecast = last forecast, or w.prev if none yet
//  4. diff = prev_forecast - x; grad = 2 * diff * prev
//  5. Sherman-Morrison update of A
//  6. w -= lrate * (grad . A)
//  7. forecast = max(0, w . data_stream[-mk:])
//
// Step 5 runs before step 6: the updated A feeds the same tick's gradient
// descent (spec.md §4.3, "order ... is essential").
func (m *ARIMA) Update(x float64) (forecast float64, stable bool, err error) {
	m.dataStream = append(m.dataStream, x)

	if len(m.dataStream) <= m.cfg.MK {
		return x, false, nil
	}

	n := len(m.dataStream)
	prev := m.dataStream[n-m.cfg.MK-1 : n-1]

	var prevForecast float64
	if len(m.forecastStream) > 0 {
		prevForecast = m.forecastStream[len(m.forecastStream)-1]
	} else {
		prevForecast = dot(m.w, prev)
	}

	diff := prevForecast - x
	grad := make([]float64, m.cfg.MK)
	for i, p := range prev {
		grad[i] = 2 * diff * p
	}

	// Sherman-Morrison: A <- A - (A.gradT.grad.A) / (1 + grad.A.gradT)
	ag := matVec(m.a, grad) // A . gradT  (A is symmetric so this also serves as gradT.A)
	denom := 1 + dot(grad, ag)
	if closeToZero(denom) {
		// Numerically unsafe to update this tick; skip per spec.md §9 and
		// leave w/A untouched. The forecaster remains usable next tick.
		return m.lastForecastOrZero(), true, &domain.ForecasterError{Op: "sherman-morrison", Err: domain.ErrSingularUpdate}
	}

	newA := make([][]float64, m.cfg.MK)
	for i := range newA {
		newA[i] = make([]float64, m.cfg.MK)
		for j := range newA[i] {
			newA[i][j] = m.a[i][j] - (ag[i]*ag[j])/denom
		}
	}
	m.a = newA

	// w <- w - lrate * (grad . A)
	gA := vecMat(grad, m.a)
	for i := range m.w {
		m.w[i] -= m.cfg.LRate * gA[i]
	}

	forecast = dot(m.w, m.dataStream[n-m.cfg.MK:])
	if forecast < 0 {
		forecast = 0
	}
	m.forecastStream = append(m.forecastStream, forecast)

	return forecast, true, nil
}

func (m *ARIMA) lastForecastOrZero() float64 {
	if len(m.forecastStream) == 0 {
		return 0
	}
	return m.forecastStream[len(m.forecastStream)-1]
}

// ─── Small linear algebra helpers (mk is always small, ~10) ─────────────────

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// matVec returns A . v.
func matVec(a [][]float64, v []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = dot(a[i], v)
	}
	return out
}

// vecMat returns v . A (row vector times matrix).
func vecMat(v []float64, a [][]float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		var s float64
		for i := 0; i < n; i++ {
			s += v[i] * a[i][j]
		}
		out[j] = s
	}
	return out
}

func closeToZero(x float64) bool {
	const eps = 1e-12
	return x < eps && x > -eps
}
