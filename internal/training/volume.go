package training

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// LoggedSet is one performed set. Reps and WeightKg are always finite and non-negative;
// build it with NewLoggedSet or decode it from JSON so untrusted input is coerced once.
type LoggedSet struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	Reps       int       `json:"reps"`
	WeightKg   float64   `json:"weight_kg"`
	SetNumber  int       `json:"set_number"`
	SetType    SetType   `json:"set_type"`
	IsWarmup   bool      `json:"is_warmup"`
	Notes      string    `json:"notes,omitempty"`
}

// NewLoggedSet coerces raw reps and weight values into a LoggedSet.
// Anything that is not a finite, non-negative number becomes 0.
func NewLoggedSet(reps, weight any) LoggedSet {
	r := coerce(reps)
	if r > math.MaxInt32 {
		r = math.MaxInt32
	}
	return LoggedSet{
		Reps:     int(r),
		WeightKg: coerce(weight),
		SetType:  SetNormal,
	}
}

// Empty reports whether the set was never filled in. Empty sets are not persisted.
func (s LoggedSet) Empty() bool {
	return s.Reps == 0 && s.WeightKg == 0
}

// Warmup reports whether the set counts as a warmup by type or flag.
func (s LoggedSet) Warmup() bool {
	return s.SetType == SetWarmup || s.IsWarmup
}

type rawLoggedSet struct {
	ExerciseID string `json:"exercise_id"`
	Reps       any    `json:"reps"`
	WeightKg   any    `json:"weight_kg"`
	SetNumber  any    `json:"set_number"`
	SetType    string `json:"set_type"`
	IsWarmup   bool   `json:"is_warmup"`
	Notes      string `json:"notes"`
}

// UnmarshalJSON accepts numbers, numeric strings and null for the numeric fields.
func (s *LoggedSet) UnmarshalJSON(data []byte) error {
	var raw rawLoggedSet
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decoding logged set: %w", err)
	}
	var exerciseID uuid.UUID
	if raw.ExerciseID != "" {
		id, err := uuid.Parse(raw.ExerciseID)
		if err != nil {
			return fmt.Errorf("parsing exercise_id: %w", err)
		}
		exerciseID = id
	}
	*s = NewLoggedSet(raw.Reps, raw.WeightKg)
	s.ExerciseID = exerciseID
	s.SetNumber = int(min(coerce(raw.SetNumber), math.MaxInt32))
	s.SetType = ParseSetType(raw.SetType)
	s.IsWarmup = raw.IsWarmup
	s.Notes = raw.Notes
	return nil
}

func coerce(v any) float64 {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// SetVolume is reps × weight for one set.
func SetVolume(s LoggedSet) float64 {
	v := float64(s.Reps) * s.WeightKg
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return math.MaxFloat64
	}
	return v
}

// Volume sums reps × weight over sets. The total saturates at math.MaxFloat64.
func Volume(sets []LoggedSet) float64 {
	var total float64
	for _, s := range sets {
		total = saturatingAdd(total, SetVolume(s))
	}
	return total
}

func saturatingAdd(a, b float64) float64 {
	if b > math.MaxFloat64-a {
		return math.MaxFloat64
	}
	return a + b
}
