// Package threshold implements the ThresholdCoordinator (spec.md §4.4): it
// turns recent request-volatility into a new target CPU utilization value
// via a rolling z-score and a reverse-sigmoid squash. High volatility pushes
// the target down (aggressive scale-up); steady load leaves it near 95
// (tolerant of higher CPU).
package threshold

import "math"

// RollingWindow is the window size for the rolling mean of absolute
// request-count differences (spec.md §4.4 step 2). It is intentionally
// independent of the forecaster's mk (spec.md §9 Open Question) even though
// both default to 10.
const RollingWindow = 10

// MinTarget and MaxTarget bound the reverse-sigmoid squash's open range
// (50, 95) (spec.md §4.4).
const (
	MinTarget = 50.0
	MaxTarget = 95.0
	spread    = MaxTarget - MinTarget
)

// NewTarget computes the new target CPU utilization from a request-count
// series (the series already has its forecast value appended by the
// caller, per spec.md §4.7 step 4). It returns a value strictly inside
// (50, 95).
//
// Steps (spec.md §4.4):
//  1. D = rolling mean of |R[i] - R[i-1]| over a window of RollingWindow.
//  2. mu, sigma = mean(D), stddev(D); Z = (D - mu) / sigma, undefined -> 0.
//  3. target = f(Z[-1]) where f(z) = 50 + 45*(1 - sigmoid(z)).
func NewTarget(requests []float64) float64 {
	d := rollingMeanAbsDiff(requests, RollingWindow)
	z := zScores(d)
	last := 0.0
	if len(z) > 0 {
		last = z[len(z)-1]
	}
	return reverseSigmoid(last)
}

// rollingMeanAbsDiff returns, for each index i >= window-1 in the first-
// difference series, the mean of |diff| over the trailing window. Entries
// with fewer than window prior differences are simply omitted (spec.md:
// "entries with fewer than 10 prior samples are undefined").
func rollingMeanAbsDiff(r []float64, window int) []float64 {
	if len(r) < 2 {
		return nil
	}
	diffs := make([]float64, len(r)-1)
	for i := 1; i < len(r); i++ {
		diffs[i-1] = math.Abs(r[i] - r[i-1])
	}
	if len(diffs) < window {
		return nil
	}
	out := make([]float64, 0, len(diffs)-window+1)
	for i := window - 1; i < len(diffs); i++ {
		var sum float64
		for j := i - window + 1; j <= i; j++ {
			sum += diffs[j]
		}
		out = append(out, sum/float64(window))
	}
	return out
}

// zScores standardizes d by its own mean/stddev, substituting 0 where the
// standardization is undefined (zero variance, or fewer than two points).
func zScores(d []float64) []float64 {
	if len(d) == 0 {
		return nil
	}
	mu := mean(d)
	sigma := stddev(d, mu)

	z := make([]float64, len(d))
	if sigma == 0 {
		return z // all zero
	}
	for i, v := range d {
		z[i] = (v - mu) / sigma
	}
	return z
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := x - mu
		sumSq += d * d
	}
	// Sample standard deviation (ddof=1), matching pandas' default .std().
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// reverseSigmoid maps z onto (50, 95), strictly decreasing in z (spec.md
// §4.4: f(z) = 50 + 45*(1 - sigmoid(z))). For large |z| the float64 result
// rounds onto a bound; it is then moved to the nearest value inside the
// open range.
func reverseSigmoid(z float64) float64 {
	v := MinTarget + spread*(1-1/(1+math.Exp(-z)))
	if v <= MinTarget {
		v = math.Nextafter(MinTarget, MaxTarget)
	}
	if v >= MaxTarget {
		v = math.Nextafter(MaxTarget, MinTarget)
	}
	return v
}
