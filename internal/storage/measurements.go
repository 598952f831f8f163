package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// UpsertMeasurement stores the readings for a day, replacing any earlier entry for the same date.
func (db *DB) UpsertMeasurement(ctx context.Context, m models.BodyMeasurement) (models.BodyMeasurement, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO body_measurements (user_id, date, weight_kg, body_fat_pct, chest_cm, waist_cm, hips_cm, arms_cm, thighs_cm, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (user_id, date) DO UPDATE SET
			weight_kg = EXCLUDED.weight_kg, body_fat_pct = EXCLUDED.body_fat_pct,
			chest_cm = EXCLUDED.chest_cm, waist_cm = EXCLUDED.waist_cm, hips_cm = EXCLUDED.hips_cm,
			arms_cm = EXCLUDED.arms_cm, thighs_cm = EXCLUDED.thighs_cm, notes = EXCLUDED.notes
		 RETURNING id`,
		m.UserID, m.Date, m.WeightKg, m.BodyFatPct, m.ChestCm, m.WaistCm, m.HipsCm, m.ArmsCm, m.ThighsCm, m.Notes,
	).Scan(&m.ID)
	if err != nil {
		return models.BodyMeasurement{}, fmt.Errorf("upserting measurement: %w", err)
	}
	return m, nil
}

// ListMeasurements returns the user's most recent measurements, newest first.
func (db *DB) ListMeasurements(ctx context.Context, userID, limit int) ([]models.BodyMeasurement, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, date, weight_kg, body_fat_pct, chest_cm, waist_cm, hips_cm, arms_cm, thighs_cm, notes
		 FROM body_measurements
		 WHERE user_id = $1
		 ORDER BY date DESC
		 LIMIT $2`, userID, nullLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	result := []models.BodyMeasurement{}
	for rows.Next() {
		var m models.BodyMeasurement
		if err := rows.Scan(&m.ID, &m.UserID, &m.Date, &m.WeightKg, &m.BodyFatPct, &m.ChestCm,
			&m.WaistCm, &m.HipsCm, &m.ArmsCm, &m.ThighsCm, &m.Notes); err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// DeleteMeasurement removes one day's readings.
func (db *DB) DeleteMeasurement(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM body_measurements WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting measurement %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting measurement %s: %w", id, ErrNotFound)
	}
	return nil
}
