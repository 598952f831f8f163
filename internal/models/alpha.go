package models

import "time"

// AlphaSession is one workout parsed from an Alpha Progression CSV export.
type AlphaSession struct {
	Name      string
	Date      time.Time
	Duration  time.Duration
	Exercises []AlphaExercise
}

// AlphaExercise is one exercise block within an Alpha session.
type AlphaExercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	// Modifiers is the free text after the target reps, e.g. "2 dropsets".
	Modifiers  string
	Sets       []AlphaSet
}

// AlphaSet is a warmup or working set. RIR is -1 when the export did not track it.
type AlphaSet struct {
	Number           int
	WeightKg         float64
	IsBodyweightPlus bool
	Reps             int
	RIR              float64
	IsWarmup         bool
}
