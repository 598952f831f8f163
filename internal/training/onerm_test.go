package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOneRepMaxSingleRep verifies that a single rep returns the weight unchanged in every estimator.
func TestOneRepMaxSingleRep(t *testing.T) {
	for _, w := range []float64{0.5, 20, 62.5, 100, 137.3, 1e6} {
		assert.Equal(t, w, OneRepMax(w, 1), "OneRepMax(%v, 1)", w)
		assert.Equal(t, w, Epley(w, 1), "Epley(%v, 1)", w)
		assert.Equal(t, w, Brzycki(w, 1), "Brzycki(%v, 1)", w)
	}
}

// TestOneRepMaxInvalid verifies the zero sentinel for out-of-range reps and unusable weights.
func TestOneRepMaxInvalid(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
		reps   int
	}{
		{"zero reps", 100, 0},
		{"negative reps", 100, -3},
		{"too many reps", 100, 31},
		{"zero weight", 0, 5},
		{"negative weight", -20, 5},
		{"nan weight", math.NaN(), 5},
		{"inf weight", math.Inf(1), 5},
		{"negative inf weight", math.Inf(-1), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, OneRepMax(tt.weight, tt.reps))
		})
	}
}

// TestOneRepMaxFormulas checks the estimators against hand-computed values.
func TestOneRepMaxFormulas(t *testing.T) {
	assert.InDelta(t, 133.3, Epley(100, 10), 1e-9)
	assert.InDelta(t, 133.3, Brzycki(100, 10), 1e-9)
	assert.InDelta(t, 133.3, OneRepMax(100, 10), 1e-9)

	assert.InDelta(t, 116.7, Epley(100, 5), 1e-9)
	assert.InDelta(t, 112.5, Brzycki(100, 5), 1e-9)
	assert.InDelta(t, 114.6, OneRepMax(100, 5), 1e-9)

	assert.Positive(t, OneRepMax(100, MaxEstimateReps), "upper bound of the valid range")
	assert.InDelta(t, 300.0, Epley(100, 60), 1e-9, "Epley does not cap reps")
}

// TestBrzyckiLargeReps verifies the estimate stays finite at and past the denominator's zero.
func TestBrzyckiLargeReps(t *testing.T) {
	for _, reps := range []int{1, 30, 36, 37, 38, 100, math.MaxInt32} {
		got := Brzycki(100, reps)
		require.False(t, math.IsInf(got, 0) || math.IsNaN(got), "Brzycki(100, %d) = %v", reps, got)
		assert.Positive(t, got)
	}
	assert.Equal(t, 3600.0, Brzycki(100, 36))
	assert.Equal(t, 200.0, Brzycki(100, 37))
	assert.Equal(t, 200.0, Brzycki(100, 50))
}

// TestOneRepMaxIdempotent verifies that repeated calls with the same input agree.
func TestOneRepMaxIdempotent(t *testing.T) {
	for reps := 1; reps <= MaxEstimateReps; reps++ {
		assert.Equal(t, OneRepMax(87.5, reps), OneRepMax(87.5, reps))
	}
}

// TestOneRepMaxHugeWeight verifies that rounding does not overflow near the float limit.
func TestOneRepMaxHugeWeight(t *testing.T) {
	got := OneRepMax(math.MaxFloat64/2, 2)
	assert.False(t, math.IsInf(got, 0))
}
