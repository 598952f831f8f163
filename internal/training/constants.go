package training

import (
	"strings"
	"time"
)

// Rest timer presets offered between sets.
var RestTimerPresets = []time.Duration{
	60 * time.Second,
	90 * time.Second,
	120 * time.Second,
	150 * time.Second,
}

const (
	DefaultRestPreset = 90 * time.Second

	// WeightIncrement is the kg step of one weight adjustment.
	WeightIncrement = 2.5
	RepsIncrement   = 1

	DefaultStreakGapDays = 2
)

// SetType classifies a logged set.
type SetType string

const (
	SetNormal    SetType = "normal"
	SetWarmup    SetType = "warmup"
	SetDropset   SetType = "dropset"
	SetRestPause SetType = "restpause"
)

var setTypeLabels = map[SetType]string{
	SetNormal:    "Normal",
	SetWarmup:    "Warmup",
	SetDropset:   "Drop set",
	SetRestPause: "Rest-pause",
}

// SetTypes lists every set type in display order.
func SetTypes() []SetType {
	return []SetType{SetNormal, SetWarmup, SetDropset, SetRestPause}
}

// ParseSetType maps s to a SetType. Unknown or empty values are normal sets.
func ParseSetType(s string) SetType {
	st := SetType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := setTypeLabels[st]; ok {
		return st
	}
	return SetNormal
}

func (t SetType) Label() string {
	if l, ok := setTypeLabels[t]; ok {
		return l
	}
	return setTypeLabels[SetNormal]
}
