package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
)

// ExerciseSets returns every logged set of the user's completed sessions, oldest first.
// When exerciseIDs is non-empty only those exercises are returned.
func (db *DB) ExerciseSets(ctx context.Context, userID int, exerciseIDs ...uuid.UUID) ([]training.ExerciseSet, error) {
	var filter []string
	if len(exerciseIDs) > 0 {
		filter = uuidStrings(exerciseIDs)
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT sl.exercise_id, sl.reps, sl.weight_kg, sl.set_number, sl.set_type, sl.is_warmup, sl.notes, s.completed_at
		 FROM set_logs sl
		 JOIN sessions s ON s.id = sl.session_id
		 WHERE s.user_id = $1 AND s.completed_at IS NOT NULL
		   AND ($2::uuid[] IS NULL OR sl.exercise_id = ANY($2::uuid[]))
		 ORDER BY s.completed_at, sl.set_number`, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("querying exercise sets: %w", err)
	}
	defer rows.Close()

	result := []training.ExerciseSet{}
	for rows.Next() {
		var es training.ExerciseSet
		var setType string
		if err := rows.Scan(&es.ExerciseID, &es.Reps, &es.WeightKg, &es.SetNumber, &setType,
			&es.IsWarmup, &es.Notes, &es.PerformedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise set: %w", err)
		}
		es.SetType = training.ParseSetType(setType)
		result = append(result, es)
	}
	return result, rows.Err()
}

// MaxWeights returns the heaviest weight ever logged for each of the given exercises.
// Exercises never logged are absent from the map.
func (db *DB) MaxWeights(ctx context.Context, userID int, exerciseIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	out := make(map[uuid.UUID]float64, len(exerciseIDs))
	if len(exerciseIDs) == 0 {
		return out, nil
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT sl.exercise_id, MAX(sl.weight_kg)
		 FROM set_logs sl
		 JOIN sessions s ON s.id = sl.session_id
		 WHERE s.user_id = $1 AND sl.exercise_id = ANY($2::uuid[])
		 GROUP BY sl.exercise_id`, userID, uuidStrings(exerciseIDs))
	if err != nil {
		return nil, fmt.Errorf("querying max weights: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var w float64
		if err := rows.Scan(&id, &w); err != nil {
			return nil, fmt.Errorf("scanning max weight: %w", err)
		}
		out[id] = w
	}
	return out, rows.Err()
}

// ExerciseMaxes returns each user's heaviest weight per exercise name.
func (db *DB) ExerciseMaxes(ctx context.Context, userIDs []int) ([]models.ExerciseMax, error) {
	if len(userIDs) == 0 {
		return []models.ExerciseMax{}, nil
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT s.user_id, COALESCE(p.username, u.login), e.name, MAX(sl.weight_kg)
		 FROM set_logs sl
		 JOIN sessions s ON s.id = sl.session_id
		 JOIN exercises e ON e.id = sl.exercise_id
		 JOIN users u ON u.id = s.user_id
		 LEFT JOIN profiles p ON p.user_id = s.user_id
		 WHERE s.user_id = ANY($1) AND s.completed_at IS NOT NULL AND sl.weight_kg > 0
		 GROUP BY s.user_id, p.username, u.login, e.name
		 ORDER BY e.name, MAX(sl.weight_kg) DESC`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("querying exercise maxes: %w", err)
	}
	defer rows.Close()

	result := []models.ExerciseMax{}
	for rows.Next() {
		var m models.ExerciseMax
		if err := rows.Scan(&m.UserID, &m.Username, &m.ExerciseName, &m.MaxWeight); err != nil {
			return nil, fmt.Errorf("scanning exercise max: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
