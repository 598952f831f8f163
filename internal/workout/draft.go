package workout

import (
	"slices"
	"time"

	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
)

// Draft is a workout in progress. It lives in a DraftStore until it is
// finished or discarded.
type Draft struct {
	ID          uuid.UUID       `json:"id"`
	UserID      int             `json:"user_id"`
	RoutineID   uuid.UUID       `json:"routine_id"`
	RoutineName string          `json:"routine_name"`
	StartedAt   time.Time       `json:"started_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Current     int             `json:"current"`
	Exercises   []DraftExercise `json:"exercises"`
}

// DraftExercise holds the editable sets of one exercise in a draft.
//
// StartRecord is the full-history PR when the draft was started and never
// changes. Record follows it upward as heavier sets are entered.
type DraftExercise struct {
	ExerciseID  uuid.UUID            `json:"exercise_id"`
	Name        string               `json:"name"`
	Category    string               `json:"category,omitempty"`
	Sets        []training.LoggedSet `json:"sets"`
	Completed   bool                 `json:"completed"`
	StartRecord float64              `json:"start_record"`
	Record      float64              `json:"record"`
}

// RecordEvent announces a weight above the exercise's personal record.
type RecordEvent struct {
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	Weight       float64   `json:"weight_kg"`
}

// Summary describes a finished workout.
type Summary struct {
	SessionID   uuid.UUID     `json:"session_id"`
	TotalVolume float64       `json:"total_volume"`
	SetCount    int           `json:"set_count"`
	Duration    time.Duration `json:"duration"`
	NewRecords  []RecordEvent `json:"new_records"`
}

func (d Draft) clone() Draft {
	out := d
	out.Exercises = make([]DraftExercise, len(d.Exercises))
	for i, ex := range d.Exercises {
		ex.Sets = slices.Clone(ex.Sets)
		out.Exercises[i] = ex
	}
	return out
}

// Volume is the total volume of the draft's sets.
func (d Draft) Volume() float64 {
	var sets []training.LoggedSet
	for _, ex := range d.Exercises {
		sets = append(sets, ex.Sets...)
	}
	return training.Volume(sets)
}

// hasData reports whether any set of the exercise has been filled in.
func (e DraftExercise) hasData() bool {
	return slices.ContainsFunc(e.Sets, func(s training.LoggedSet) bool { return !s.Empty() })
}

// best is the heaviest weight entered for the exercise.
func (e DraftExercise) best() float64 {
	return training.PersonalRecord(e.Sets)
}

func (e *DraftExercise) renumber() {
	for i := range e.Sets {
		e.Sets[i].SetNumber = i + 1
		e.Sets[i].ExerciseID = e.ExerciseID
	}
}

// prefill builds an exercise's opening sets from the previous session's logs
// for that exercise. Without history the exercise starts with one empty set.
func prefill(exerciseID uuid.UUID, previous []training.LoggedSet) []training.LoggedSet {
	if len(previous) == 0 {
		return []training.LoggedSet{{ExerciseID: exerciseID, SetNumber: 1, SetType: training.SetNormal}}
	}
	sets := make([]training.LoggedSet, len(previous))
	for i, p := range previous {
		sets[i] = training.LoggedSet{
			ExerciseID: exerciseID,
			Reps:       p.Reps,
			WeightKg:   p.WeightKg,
			SetNumber:  i + 1,
			SetType:    p.SetType,
			IsWarmup:   p.IsWarmup,
		}
	}
	return sets
}
