package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// ListGoals returns a user's goals, open ones first.
func (db *DB) ListGoals(ctx context.Context, userID int) ([]models.Goal, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT g.id, g.user_id, g.exercise_id, e.name, g.target_weight, g.achieved, g.achieved_at, g.created_at
		 FROM goals g
		 JOIN exercises e ON e.id = g.exercise_id
		 WHERE g.user_id = $1
		 ORDER BY g.achieved, g.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer rows.Close()

	result := []models.Goal{}
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.ExerciseID, &g.ExerciseName, &g.TargetWeight,
			&g.Achieved, &g.AchievedAt, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning goal: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// CreateGoal adds a target weight for one of the user's exercises.
func (db *DB) CreateGoal(ctx context.Context, userID int, exerciseID uuid.UUID, target float64) (models.Goal, error) {
	g := models.Goal{UserID: userID, ExerciseID: exerciseID, TargetWeight: target}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO goals (user_id, exercise_id, target_weight)
		 SELECT $1, e.id, $3 FROM exercises e WHERE e.id = $2 AND e.user_id = $1
		 RETURNING id, created_at, (SELECT name FROM exercises WHERE id = $2)`,
		userID, exerciseID, target).Scan(&g.ID, &g.CreatedAt, &g.ExerciseName)
	if err != nil {
		return models.Goal{}, noRows(err, "inserting goal")
	}
	return g, nil
}

// MarkGoalAchieved flags a goal as reached. Already achieved goals keep their original time.
func (db *DB) MarkGoalAchieved(ctx context.Context, goalID uuid.UUID, at time.Time) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE goals SET achieved = TRUE, achieved_at = $2 WHERE id = $1 AND NOT achieved`, goalID, at)
	if err != nil {
		return fmt.Errorf("marking goal %s achieved: %w", goalID, err)
	}
	return nil
}

// DeleteGoal removes a goal.
func (db *DB) DeleteGoal(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting goal %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting goal %s: %w", id, ErrNotFound)
	}
	return nil
}
