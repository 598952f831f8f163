package training

import (
	"iter"
	"math"
	"slices"
)

// RepMax is one row of a rep-max table: the load expected for a given number of reps.
type RepMax struct {
	Reps    int     `json:"reps"`
	Percent int     `json:"percent"`
	Weight  float64 `json:"weight"`
}

// Empirical table, not derived from either 1RM formula.
var repPercents = [...]struct{ reps, percent int }{
	{1, 100}, {2, 95}, {3, 93}, {4, 90}, {5, 87},
	{6, 85}, {8, 80}, {10, 75}, {12, 70}, {15, 65},
}

// RepPercentages yields the canonical rep-max rows for oneRM, lightest rep count first.
// Weights are rounded to the nearest whole kilogram. A negative or non-finite oneRM is
// treated as 0. The sequence can be ranged over any number of times.
func RepPercentages(oneRM float64) iter.Seq[RepMax] {
	if oneRM < 0 || math.IsNaN(oneRM) || math.IsInf(oneRM, 0) {
		oneRM = 0
	}
	return func(yield func(RepMax) bool) {
		for _, row := range repPercents {
			rm := RepMax{
				Reps:    row.reps,
				Percent: row.percent,
				Weight:  math.Round(oneRM * float64(row.percent) / 100),
			}
			if !yield(rm) {
				return
			}
		}
	}
}

// RepPercentageTable collects RepPercentages into a slice.
func RepPercentageTable(oneRM float64) []RepMax {
	return slices.Collect(RepPercentages(oneRM))
}
