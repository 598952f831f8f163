package training

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExerciseSet is a logged set together with when it was performed.
type ExerciseSet struct {
	LoggedSet
	PerformedAt time.Time `json:"performed_at"`
}

func (s *ExerciseSet) UnmarshalJSON(data []byte) error {
	var set LoggedSet
	if err := set.UnmarshalJSON(data); err != nil {
		return err
	}
	var at struct {
		PerformedAt time.Time `json:"performed_at"`
	}
	if err := json.Unmarshal(data, &at); err != nil {
		return fmt.Errorf("decoding exercise set: %w", err)
	}
	*s = ExerciseSet{LoggedSet: set, PerformedAt: at.PerformedAt}
	return nil
}

// Record is the heaviest weight ever logged for an exercise.
type Record struct {
	ExerciseID uuid.UUID `json:"exercise_id"`
	WeightKg   float64   `json:"weight_kg"`
	Reps       int       `json:"reps"`
	AchievedAt time.Time `json:"achieved_at"`
}

// PersonalRecord is the max weight across history. Pass the full history;
// a single session only yields that session's best.
func PersonalRecord(history []LoggedSet) float64 {
	var best float64
	for _, s := range history {
		best = max(best, s.WeightKg)
	}
	return best
}

// PersonalRecords returns the best weight per exercise and the earliest time it was reached.
// Sets with zero weight never produce a record.
func PersonalRecords(sets []ExerciseSet) map[uuid.UUID]Record {
	out := make(map[uuid.UUID]Record)
	for _, s := range sets {
		if s.WeightKg <= 0 {
			continue
		}
		cur, ok := out[s.ExerciseID]
		switch {
		case !ok, s.WeightKg > cur.WeightKg:
		case s.WeightKg == cur.WeightKg && s.PerformedAt.Before(cur.AchievedAt):
		default:
			continue
		}
		out[s.ExerciseID] = Record{
			ExerciseID: s.ExerciseID,
			WeightKg:   s.WeightKg,
			Reps:       s.Reps,
			AchievedAt: s.PerformedAt,
		}
	}
	return out
}

// IsNewRecord reports whether weight beats the current record.
func IsNewRecord(currentPR, weight float64) bool {
	return weight > 0 && weight > currentPR
}
