package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListCategories returns a user's categories ordered by name.
func (db *DB) ListCategories(ctx context.Context, userID int) ([]models.Category, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, created_at FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	result := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// CreateCategory inserts a category and returns it with its generated id.
func (db *DB) CreateCategory(ctx context.Context, userID int, name string) (models.Category, error) {
	c := models.Category{UserID: userID, Name: strings.TrimSpace(name)}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO categories (user_id, name) VALUES ($1, $2) RETURNING id, created_at`,
		userID, c.Name).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return models.Category{}, fmt.Errorf("inserting category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category. Its exercises become uncategorized.
func (db *DB) DeleteCategory(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting category %s: %w", id, ErrNotFound)
	}
	return nil
}

const exerciseSelect = `SELECT e.id, e.user_id, e.name, e.category_id, COALESCE(c.name, ''), e.created_at
	FROM exercises e LEFT JOIN categories c ON c.id = e.category_id`

func scanExercise(row interface{ Scan(...any) error }) (models.Exercise, error) {
	var e models.Exercise
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.CategoryID, &e.CategoryName, &e.CreatedAt)
	return e, err
}

// ListExercises returns a user's exercises ordered by name.
func (db *DB) ListExercises(ctx context.Context, userID int) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx, exerciseSelect+` WHERE e.user_id = $1 ORDER BY e.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	result := []models.Exercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetExercise returns one of the user's exercises.
func (db *DB) GetExercise(ctx context.Context, userID int, id uuid.UUID) (models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx, exerciseSelect+` WHERE e.id = $1 AND e.user_id = $2`, id, userID))
	if err != nil {
		return models.Exercise{}, noRows(err, "querying exercise")
	}
	return e, nil
}

// CreateExercise inserts an exercise.
func (db *DB) CreateExercise(ctx context.Context, userID int, name string, categoryID *uuid.UUID) (models.Exercise, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (user_id, name, category_id) VALUES ($1, $2, $3) RETURNING id`,
		userID, strings.TrimSpace(name), categoryID).Scan(&id)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("inserting exercise: %w", err)
	}
	return db.GetExercise(ctx, userID, id)
}

// UpdateExercise renames or recategorizes an exercise.
func (db *DB) UpdateExercise(ctx context.Context, userID int, id uuid.UUID, name string, categoryID *uuid.UUID) (models.Exercise, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercises SET name = $3, category_id = $4 WHERE id = $1 AND user_id = $2`,
		id, userID, strings.TrimSpace(name), categoryID)
	if err != nil {
		return models.Exercise{}, fmt.Errorf("updating exercise %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.Exercise{}, fmt.Errorf("updating exercise %s: %w", id, ErrNotFound)
	}
	return db.GetExercise(ctx, userID, id)
}

// DeleteExercise removes an exercise. Routine membership and logged sets go with it.
func (db *DB) DeleteExercise(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM exercises WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting exercise %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting exercise %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindOrCreateExercise resolves an exercise by case-insensitive name, creating it when missing.
func (db *DB) FindOrCreateExercise(ctx context.Context, userID int, name string) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`SELECT id FROM exercises WHERE user_id = $1 AND lower(name) = lower($2) ORDER BY created_at LIMIT 1`,
		userID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("finding exercise %q: %w", name, err)
	}
	e, err := db.CreateExercise(ctx, userID, name, nil)
	if err != nil {
		return uuid.Nil, err
	}
	return e.ID, nil
}
