package training

import "math"

// MaxEstimateReps is the highest rep count OneRepMax accepts. Above it the
// formulas drift too far from a real single to be useful.
const MaxEstimateReps = 30

// brzyckiFallbackReps is where Brzycki's denominator (37 - reps) stops being positive.
const brzyckiFallbackReps = 37

// Epley estimates a one-rep max as weight × (1 + reps/30), rounded to one decimal.
// Returns 0 for non-positive or non-finite weight and for reps < 1.
func Epley(weight float64, reps int) float64 {
	if !validLoad(weight, reps) {
		return 0
	}
	if reps == 1 {
		return weight
	}
	return round1(weight * (1 + float64(reps)/30))
}

// Brzycki estimates a one-rep max as weight × 36 / (37 - reps), rounded to one decimal.
// At 37 reps and beyond it returns weight × 2 instead of dividing by a non-positive number.
func Brzycki(weight float64, reps int) float64 {
	if !validLoad(weight, reps) {
		return 0
	}
	if reps == 1 {
		return weight
	}
	if reps >= brzyckiFallbackReps {
		return round1(weight * 2)
	}
	return round1(weight * (36 / float64(brzyckiFallbackReps-reps)))
}

// OneRepMax is the mean of Epley and Brzycki, rounded to one decimal.
// Valid for reps in [1, 30]; anything else returns 0.
func OneRepMax(weight float64, reps int) float64 {
	if !validLoad(weight, reps) || reps > MaxEstimateReps {
		return 0
	}
	if reps == 1 {
		return weight
	}
	return round1(Epley(weight, reps)/2 + Brzycki(weight, reps)/2)
}

func validLoad(weight float64, reps int) bool {
	return reps >= 1 && weight > 0 && !math.IsInf(weight, 0) && !math.IsNaN(weight)
}

// round1 rounds to one decimal place. Values too large to scale are returned as is.
func round1(v float64) float64 {
	scaled := v * 10
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / 10
}
