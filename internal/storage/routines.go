package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListRoutines returns a user's routines, newest first, with their exercises in order.
// limit <= 0 returns all of them.
func (db *DB) ListRoutines(ctx context.Context, userID, limit int) ([]models.Routine, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, description, created_at FROM routines
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, userID, nullLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying routines: %w", err)
	}
	defer rows.Close()

	result := []models.Routine{}
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var r models.Routine
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning routine: %w", err)
		}
		r.Exercises = []models.RoutineExercise{}
		index[r.ID] = len(result)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]uuid.UUID, 0, len(result))
	for _, r := range result {
		ids = append(ids, r.ID)
	}
	members, err := db.routineExercises(ctx, db.Pool, ids)
	if err != nil {
		return nil, err
	}
	for id, exs := range members {
		result[index[id]].Exercises = exs
	}
	return result, nil
}

// GetRoutine returns one routine with its exercises ordered by position.
func (db *DB) GetRoutine(ctx context.Context, userID int, id uuid.UUID) (models.Routine, error) {
	var r models.Routine
	err := db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, description, created_at FROM routines WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&r.ID, &r.UserID, &r.Name, &r.Description, &r.CreatedAt)
	if err != nil {
		return models.Routine{}, noRows(err, "querying routine")
	}
	members, err := db.routineExercises(ctx, db.Pool, []uuid.UUID{id})
	if err != nil {
		return models.Routine{}, err
	}
	r.Exercises = members[id]
	if r.Exercises == nil {
		r.Exercises = []models.RoutineExercise{}
	}
	return r, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (db *DB) routineExercises(ctx context.Context, q querier, routineIDs []uuid.UUID) (map[uuid.UUID][]models.RoutineExercise, error) {
	rows, err := q.Query(ctx,
		`SELECT re.routine_id, re.exercise_id, e.name, COALESCE(c.name, ''), re."order"
		 FROM routine_exercises re
		 JOIN exercises e ON e.id = re.exercise_id
		 LEFT JOIN categories c ON c.id = e.category_id
		 WHERE re.routine_id = ANY($1::uuid[])
		 ORDER BY re.routine_id, re."order"`, uuidStrings(routineIDs))
	if err != nil {
		return nil, fmt.Errorf("querying routine exercises: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.RoutineExercise)
	for rows.Next() {
		var routineID uuid.UUID
		var re models.RoutineExercise
		if err := rows.Scan(&routineID, &re.ExerciseID, &re.ExerciseName, &re.CategoryName, &re.Order); err != nil {
			return nil, fmt.Errorf("scanning routine exercise: %w", err)
		}
		out[routineID] = append(out[routineID], re)
	}
	return out, rows.Err()
}

// CreateRoutine inserts a routine with its exercises in the given order.
func (db *DB) CreateRoutine(ctx context.Context, userID int, name, description string, exerciseIDs []uuid.UUID) (models.Routine, error) {
	var id uuid.UUID
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO routines (user_id, name, description) VALUES ($1, $2, $3) RETURNING id`,
			userID, strings.TrimSpace(name), description).Scan(&id); err != nil {
			return fmt.Errorf("inserting routine: %w", err)
		}
		return setRoutineExercises(ctx, tx, userID, id, exerciseIDs)
	})
	if err != nil {
		return models.Routine{}, err
	}
	return db.GetRoutine(ctx, userID, id)
}

// UpdateRoutine renames a routine and replaces its exercise list.
func (db *DB) UpdateRoutine(ctx context.Context, userID int, id uuid.UUID, name, description string, exerciseIDs []uuid.UUID) (models.Routine, error) {
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE routines SET name = $3, description = $4 WHERE id = $1 AND user_id = $2`,
			id, userID, strings.TrimSpace(name), description)
		if err != nil {
			return fmt.Errorf("updating routine %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("updating routine %s: %w", id, ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM routine_exercises WHERE routine_id = $1`, id); err != nil {
			return fmt.Errorf("clearing routine exercises: %w", err)
		}
		return setRoutineExercises(ctx, tx, userID, id, exerciseIDs)
	})
	if err != nil {
		return models.Routine{}, err
	}
	return db.GetRoutine(ctx, userID, id)
}

// setRoutineExercises inserts membership rows, ordered from 1. Duplicate exercises keep their first position
// and exercises the user does not own are skipped.
func setRoutineExercises(ctx context.Context, tx pgx.Tx, userID int, routineID uuid.UUID, exerciseIDs []uuid.UUID) error {
	seen := make(map[uuid.UUID]bool, len(exerciseIDs))
	args := make([]any, 0, len(exerciseIDs)*3)
	n := 0
	for _, exID := range exerciseIDs {
		if seen[exID] {
			continue
		}
		seen[exID] = true
		n++
		args = append(args, routineID, exID, n)
	}
	if n == 0 {
		return nil
	}
	query := `INSERT INTO routine_exercises (routine_id, exercise_id, "order")
		SELECT v.routine_id, v.exercise_id, v.ord
		FROM (VALUES ` + placeholders(n, "uuid", "uuid", "int") + `) AS v(routine_id, exercise_id, ord)
		JOIN exercises e ON e.id = v.exercise_id AND e.user_id = $` + fmt.Sprint(len(args)+1)
	args = append(args, userID)
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting routine exercises: %w", err)
	}
	return nil
}

// DeleteRoutine removes a routine. Past sessions keep their sets but lose the routine link.
func (db *DB) DeleteRoutine(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM routines WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting routine %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting routine %s: %w", id, ErrNotFound)
	}
	return nil
}
