package models

import (
	"time"

	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
)

// Category groups exercises by muscle group.
type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Exercise is a movement that sets are logged against.
type Exercise struct {
	ID           uuid.UUID  `json:"id"`
	UserID       int        `json:"-"`
	Name         string     `json:"name"`
	CategoryID   *uuid.UUID `json:"category_id"`
	CategoryName string     `json:"category_name,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Routine is an ordered template of exercises.
type Routine struct {
	ID          uuid.UUID         `json:"id"`
	UserID      int               `json:"-"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Exercises   []RoutineExercise `json:"exercises"`
	CreatedAt   time.Time         `json:"created_at"`
}

// RoutineExercise places an exercise at a position within a routine.
type RoutineExercise struct {
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Order        int       `json:"order"`
}

// Session is one completed workout.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	UserID          int        `json:"-"`
	RoutineID       *uuid.UUID `json:"routine_id"`
	RoutineName     string     `json:"routine_name,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	DurationSeconds int        `json:"duration_seconds"`
	Notes           string     `json:"notes,omitempty"`
}

// SetLog is a persisted set.
type SetLog struct {
	ID           uuid.UUID        `json:"id"`
	SessionID    uuid.UUID        `json:"session_id"`
	ExerciseID   uuid.UUID        `json:"exercise_id"`
	ExerciseName string           `json:"exercise_name,omitempty"`
	Reps         int              `json:"reps"`
	WeightKg     float64          `json:"weight_kg"`
	SetNumber    int              `json:"set_number"`
	SetType      training.SetType `json:"set_type"`
	IsWarmup     bool             `json:"is_warmup"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Logged converts the row to the arithmetic value type.
func (s SetLog) Logged() training.LoggedSet {
	return training.LoggedSet{
		ExerciseID: s.ExerciseID,
		Reps:       max(s.Reps, 0),
		WeightKg:   max(s.WeightKg, 0),
		SetNumber:  s.SetNumber,
		SetType:    training.ParseSetType(string(s.SetType)),
		IsWarmup:   s.IsWarmup,
		Notes:      s.Notes,
	}
}

// Goal is a target weight for an exercise.
type Goal struct {
	ID           uuid.UUID  `json:"id"`
	UserID       int        `json:"-"`
	ExerciseID   uuid.UUID  `json:"exercise_id"`
	ExerciseName string     `json:"exercise_name,omitempty"`
	TargetWeight float64    `json:"target_weight"`
	Achieved     bool       `json:"achieved"`
	AchievedAt   *time.Time `json:"achieved_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Profile is the public face of a user.
type Profile struct {
	UserID      int       `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
}

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is a directed request from UserID to FriendID.
type Friendship struct {
	ID        uuid.UUID        `json:"id"`
	UserID    int              `json:"user_id"`
	FriendID  int              `json:"friend_id"`
	Status    FriendshipStatus `json:"status"`
	Friend    *Profile         `json:"friend,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// BodyMeasurement holds one day's body readings. Unset readings are nil.
type BodyMeasurement struct {
	ID         uuid.UUID `json:"id"`
	UserID     int       `json:"-"`
	Date       time.Time `json:"date"`
	WeightKg   *float64  `json:"weight_kg"`
	BodyFatPct *float64  `json:"body_fat_pct"`
	ChestCm    *float64  `json:"chest_cm"`
	WaistCm    *float64  `json:"waist_cm"`
	HipsCm     *float64  `json:"hips_cm"`
	ArmsCm     *float64  `json:"arms_cm"`
	ThighsCm   *float64  `json:"thighs_cm"`
	Notes      string    `json:"notes,omitempty"`
}

// SharedRoutine is a routine published for other users to import.
type SharedRoutine struct {
	ID            uuid.UUID `json:"id"`
	RoutineID     uuid.UUID `json:"routine_id"`
	OwnerID       int       `json:"owner_id"`
	OwnerUsername string    `json:"owner_username,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	IsPublic      bool      `json:"is_public"`
	ImportCount   int       `json:"import_count"`
	LikeCount     int       `json:"like_count"`
	Liked         bool      `json:"liked"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExerciseMax is one user's heaviest logged weight for an exercise.
type ExerciseMax struct {
	UserID       int     `json:"user_id"`
	Username     string  `json:"username"`
	ExerciseName string  `json:"exercise_name"`
	MaxWeight    float64 `json:"max_weight"`
}

// SessionFilter selects completed sessions. Zero From/To leave that side open.
type SessionFilter struct {
	UserIDs []int
	From    time.Time
	To      time.Time
	Limit   int
}
