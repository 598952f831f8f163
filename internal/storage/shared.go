package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ImportedSuffix is appended to the title of an imported routine.
const ImportedSuffix = " (imported)"

// ShareRoutine publishes one of the user's routines.
func (db *DB) ShareRoutine(ctx context.Context, userID int, routineID uuid.UUID, title, description string, public bool) (models.SharedRoutine, error) {
	sr := models.SharedRoutine{RoutineID: routineID, OwnerID: userID, Description: description, IsPublic: public}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO shared_routines (routine_id, owner_id, title, description, is_public)
		 SELECT r.id, r.user_id, COALESCE(NULLIF($3, ''), r.name), $4, $5
		 FROM routines r WHERE r.id = $1 AND r.user_id = $2
		 RETURNING id, title, created_at`,
		routineID, userID, strings.TrimSpace(title), description, public).Scan(&sr.ID, &sr.Title, &sr.CreatedAt)
	if err != nil {
		return models.SharedRoutine{}, noRows(err, "sharing routine")
	}
	return sr, nil
}

// ListSharedRoutines returns public shared routines, most imported first.
// Liked reports whether viewerID has liked each one.
func (db *DB) ListSharedRoutines(ctx context.Context, viewerID, limit int) ([]models.SharedRoutine, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT sr.id, sr.routine_id, sr.owner_id, COALESCE(p.username, u.login), sr.title, sr.description,
		        sr.is_public, sr.import_count, sr.like_count,
		        EXISTS (SELECT 1 FROM shared_routine_likes l WHERE l.shared_routine_id = sr.id AND l.user_id = $1),
		        sr.created_at
		 FROM shared_routines sr
		 JOIN users u ON u.id = sr.owner_id
		 LEFT JOIN profiles p ON p.user_id = sr.owner_id
		 WHERE sr.is_public
		 ORDER BY sr.import_count DESC, sr.created_at DESC
		 LIMIT $2`, viewerID, nullLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying shared routines: %w", err)
	}
	defer rows.Close()

	result := []models.SharedRoutine{}
	for rows.Next() {
		var sr models.SharedRoutine
		if err := rows.Scan(&sr.ID, &sr.RoutineID, &sr.OwnerID, &sr.OwnerUsername, &sr.Title, &sr.Description,
			&sr.IsPublic, &sr.ImportCount, &sr.LikeCount, &sr.Liked, &sr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning shared routine: %w", err)
		}
		result = append(result, sr)
	}
	return result, rows.Err()
}

// ImportSharedRoutine copies a shared routine into the user's routines as "<title> (imported)".
// Exercises are matched to the importer's own by name and created when missing.
func (db *DB) ImportSharedRoutine(ctx context.Context, userID int, sharedID uuid.UUID) (models.Routine, error) {
	var newID uuid.UUID
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		var routineID uuid.UUID
		var title, description string
		err := tx.QueryRow(ctx,
			`UPDATE shared_routines SET import_count = import_count + 1
			 WHERE id = $1 AND (is_public OR owner_id = $2)
			 RETURNING routine_id, title, description`, sharedID, userID).Scan(&routineID, &title, &description)
		if err != nil {
			return noRows(err, "claiming shared routine")
		}

		if err := tx.QueryRow(ctx,
			`INSERT INTO routines (user_id, name, description) VALUES ($1, $2, $3) RETURNING id`,
			userID, title+ImportedSuffix, description).Scan(&newID); err != nil {
			return fmt.Errorf("inserting imported routine: %w", err)
		}

		// Reuse the importer's exercises by name, creating the missing ones.
		_, err = tx.Exec(ctx,
			`INSERT INTO exercises (user_id, name)
			 SELECT DISTINCT $2::int, e.name
			 FROM routine_exercises re JOIN exercises e ON e.id = re.exercise_id
			 WHERE re.routine_id = $1
			   AND NOT EXISTS (SELECT 1 FROM exercises mine WHERE mine.user_id = $2 AND lower(mine.name) = lower(e.name))`,
			routineID, userID)
		if err != nil {
			return fmt.Errorf("creating imported exercises: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO routine_exercises (routine_id, exercise_id, "order")
			 SELECT DISTINCT ON (mine_id) $3::uuid, mine_id, ord FROM (
				SELECT re."order" AS ord,
				       (SELECT mine.id FROM exercises mine
				        WHERE mine.user_id = $2 AND lower(mine.name) = lower(e.name)
				        ORDER BY mine.created_at LIMIT 1) AS mine_id
				FROM routine_exercises re JOIN exercises e ON e.id = re.exercise_id
				WHERE re.routine_id = $1
			 ) src
			 ORDER BY mine_id, ord`,
			routineID, userID, newID)
		if err != nil {
			return fmt.Errorf("copying routine exercises: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Routine{}, fmt.Errorf("importing shared routine %s: %w", sharedID, err)
	}
	return db.GetRoutine(ctx, userID, newID)
}

// ToggleLike likes or unlikes a shared routine for the user and reports the new state.
func (db *DB) ToggleLike(ctx context.Context, userID int, sharedID uuid.UUID) (bool, error) {
	var liked bool
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shared_routines WHERE id = $1)`, sharedID).Scan(&exists); err != nil {
			return fmt.Errorf("checking shared routine: %w", err)
		}
		if !exists {
			return fmt.Errorf("shared routine %s: %w", sharedID, ErrNotFound)
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM shared_routine_likes WHERE shared_routine_id = $1 AND user_id = $2`, sharedID, userID)
		if err != nil {
			return fmt.Errorf("removing like: %w", err)
		}
		delta := -1
		if tag.RowsAffected() == 0 {
			if _, err := tx.Exec(ctx,
				`INSERT INTO shared_routine_likes (shared_routine_id, user_id) VALUES ($1, $2)`, sharedID, userID); err != nil {
				return fmt.Errorf("adding like: %w", err)
			}
			delta = 1
			liked = true
		}
		if _, err := tx.Exec(ctx,
			`UPDATE shared_routines SET like_count = GREATEST(like_count + $2, 0) WHERE id = $1`, sharedID, delta); err != nil {
			return fmt.Errorf("updating like count: %w", err)
		}
		return nil
	})
	return liked, err
}
