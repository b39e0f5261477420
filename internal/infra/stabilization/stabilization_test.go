package stabilization

import "testing"

func TestEvaluate_ZeroResidualsReturnsZero(t *testing.T) {
	// A perfectly linear series has residuals of exactly 0 -> DW = 0,
	// outside the acceptance band -> Flat (spec.md §8 testable property).
	y := make([]float64, 60)
	for i := range y {
		y[i] = float64(i) * 2
	}
	if got := Evaluate(y); got != Flat {
		t.Errorf("Evaluate(perfect line) = %d, want %d (DW gate should hold)", got, Flat)
	}
}

func TestEvaluate_FlatSeries(t *testing.T) {
	y := make([]float64, 60)
	for i := range y {
		y[i] = 42
	}
	if got := Evaluate(y); got != Flat {
		t.Errorf("Evaluate(flat) = %d, want %d", got, Flat)
	}
}

func TestDurbinWatson_ZeroResidualSumOfSquares(t *testing.T) {
	e := []float64{0, 0, 0, 0, 0}
	if got := durbinWatson(e); got != 0 {
		t.Errorf("durbinWatson(all-zero residuals) = %f, want 0", got)
	}
}

func TestOLS_RecoversKnownSlope(t *testing.T) {
	y := make([]float64, 10)
	for i := range y {
		y[i] = 3*float64(i) + 7
	}
	slope, intercept := ols(y)
	if diff := slope - 3; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("slope = %f, want 3", slope)
	}
	if diff := intercept - 7; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("intercept = %f, want 7", intercept)
	}
}

func TestEvaluate_ShortSeries(t *testing.T) {
	if got := Evaluate(nil); got != Flat {
		t.Errorf("Evaluate(nil) = %d, want %d", got, Flat)
	}
	if got := Evaluate([]float64{5}); got != Flat {
		t.Errorf("Evaluate(single sample) = %d, want %d", got, Flat)
	}
}
