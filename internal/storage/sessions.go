package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const setLogColumns = 10

// SaveSession writes a completed session and its set logs in one transaction.
// Empty sets (no reps and no weight) are skipped. On error nothing is stored.
// Returns the number of set logs written.
func (db *DB) SaveSession(ctx context.Context, s models.Session, sets []models.SetLog) (int64, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	var inserted int64
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO sessions (id, user_id, routine_id, created_at, completed_at, duration_seconds, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			s.ID, s.UserID, s.RoutineID, s.CreatedAt, s.CompletedAt, s.DurationSeconds, s.Notes)
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}

		args := make([]any, 0, len(sets)*setLogColumns)
		n := 0
		for _, sl := range sets {
			if sl.Reps <= 0 && sl.WeightKg <= 0 {
				continue
			}
			if sl.ID == uuid.Nil {
				sl.ID = uuid.New()
			}
			setType := training.ParseSetType(string(sl.SetType))
			args = append(args, sl.ID, s.ID, sl.ExerciseID, max(sl.Reps, 0), max(sl.WeightKg, 0),
				max(sl.SetNumber, 1), string(setType), sl.IsWarmup || setType == training.SetWarmup, sl.Notes, s.CreatedAt)
			n++
		}
		if n == 0 {
			return nil
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO set_logs (id, session_id, exercise_id, reps, weight_kg, set_number,
			 set_type, is_warmup, notes, created_at) VALUES `+placeholders(n, make([]string, setLogColumns)...),
			args...)
		if err != nil {
			return fmt.Errorf("inserting set logs: %w", err)
		}
		inserted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("saving session %s: %w", s.ID, err)
	}
	return inserted, nil
}

// DeleteSession removes a session and its set logs.
func (db *DB) DeleteSession(ctx context.Context, userID int, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting session %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteSessionAt removes sessions started at createdAt with the given notes.
// Imports use it to replace a previously imported session. Returns the number removed.
func (db *DB) DeleteSessionAt(ctx context.Context, userID int, createdAt time.Time, notes string) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND created_at = $2 AND notes = $3`,
		userID, createdAt, notes)
	if err != nil {
		return 0, fmt.Errorf("deleting sessions at %s: %w", createdAt.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

// LastRoutineSets returns the set logs of the routine's most recent completed session,
// ordered by exercise and set number. No prior session yields an empty slice.
func (db *DB) LastRoutineSets(ctx context.Context, userID int, routineID uuid.UUID) ([]models.SetLog, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT sl.id, sl.session_id, sl.exercise_id, e.name, sl.reps, sl.weight_kg, sl.set_number,
		 sl.set_type, sl.is_warmup, sl.notes, sl.created_at
		 FROM set_logs sl
		 JOIN exercises e ON e.id = sl.exercise_id
		 WHERE sl.session_id = (
			SELECT id FROM sessions
			WHERE user_id = $1 AND routine_id = $2 AND completed_at IS NOT NULL
			ORDER BY created_at DESC
			LIMIT 1
		 )
		 ORDER BY sl.exercise_id, sl.set_number`, userID, routineID)
	if err != nil {
		return nil, fmt.Errorf("querying last routine sets: %w", err)
	}
	defer rows.Close()

	result := []models.SetLog{}
	for rows.Next() {
		var sl models.SetLog
		var setType string
		if err := rows.Scan(&sl.ID, &sl.SessionID, &sl.ExerciseID, &sl.ExerciseName, &sl.Reps, &sl.WeightKg,
			&sl.SetNumber, &setType, &sl.IsWarmup, &sl.Notes, &sl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning set log: %w", err)
		}
		sl.SetType = training.ParseSetType(setType)
		result = append(result, sl)
	}
	return result, rows.Err()
}

// CompletedSessions returns completed sessions with their sets, newest first.
func (db *DB) CompletedSessions(ctx context.Context, f models.SessionFilter) ([]training.Session, error) {
	if len(f.UserIDs) == 0 {
		return []training.Session{}, nil
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.user_id, COALESCE(r.name, ''), s.completed_at, s.duration_seconds
		 FROM sessions s
		 LEFT JOIN routines r ON r.id = s.routine_id
		 WHERE s.user_id = ANY($1) AND s.completed_at IS NOT NULL
		   AND ($2::timestamptz IS NULL OR s.completed_at >= $2)
		   AND ($3::timestamptz IS NULL OR s.completed_at < $3)
		 ORDER BY s.completed_at DESC
		 LIMIT $4`,
		f.UserIDs, nullTime(f.From), nullTime(f.To), nullLimit(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if err := db.attachSets(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns one completed session of the user with its sets.
func (db *DB) GetSession(ctx context.Context, userID int, id uuid.UUID) (training.Session, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.user_id, COALESCE(r.name, ''), s.completed_at, s.duration_seconds
		 FROM sessions s
		 LEFT JOIN routines r ON r.id = s.routine_id
		 WHERE s.id = $1 AND s.user_id = $2 AND s.completed_at IS NOT NULL`, id, userID)
	if err != nil {
		return training.Session{}, fmt.Errorf("querying session %s: %w", id, err)
	}
	sessions, err := scanSessions(rows)
	if err != nil {
		return training.Session{}, err
	}
	if len(sessions) == 0 {
		return training.Session{}, fmt.Errorf("querying session %s: %w", id, ErrNotFound)
	}
	if err := db.attachSets(ctx, sessions); err != nil {
		return training.Session{}, err
	}
	return sessions[0], nil
}

func scanSessions(rows pgx.Rows) ([]training.Session, error) {
	defer rows.Close()
	result := []training.Session{}
	for rows.Next() {
		var s training.Session
		var durationSec int
		if err := rows.Scan(&s.ID, &s.UserID, &s.RoutineName, &s.CompletedAt, &durationSec); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.Duration = time.Duration(durationSec) * time.Second
		s.Sets = []training.NamedSet{}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (db *DB) attachSets(ctx context.Context, sessions []training.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(sessions))
	index := make(map[uuid.UUID]int, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
		index[s.ID] = i
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT sl.session_id, sl.exercise_id, e.name, COALESCE(c.name, ''), sl.reps, sl.weight_kg,
		 sl.set_number, sl.set_type, sl.is_warmup, sl.notes
		 FROM set_logs sl
		 JOIN exercises e ON e.id = sl.exercise_id
		 LEFT JOIN categories c ON c.id = e.category_id
		 WHERE sl.session_id = ANY($1::uuid[])
		 ORDER BY sl.session_id, sl.exercise_id, sl.set_number`, uuidStrings(ids))
	if err != nil {
		return fmt.Errorf("querying session sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID uuid.UUID
		var ns training.NamedSet
		var setType string
		if err := rows.Scan(&sessionID, &ns.ExerciseID, &ns.ExerciseName, &ns.Category, &ns.Reps, &ns.WeightKg,
			&ns.SetNumber, &setType, &ns.IsWarmup, &ns.Notes); err != nil {
			return fmt.Errorf("scanning session set: %w", err)
		}
		ns.SetType = training.ParseSetType(setType)
		i := index[sessionID]
		sessions[i].Sets = append(sessions[i].Sets, ns)
	}
	return rows.Err()
}

// SessionTimes returns the completion time of every completed session of the user.
func (db *DB) SessionTimes(ctx context.Context, userID int) ([]time.Time, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT completed_at FROM sessions WHERE user_id = $1 AND completed_at IS NOT NULL ORDER BY completed_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying session times: %w", err)
	}
	defer rows.Close()

	result := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning session time: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// CountSessions counts the user's completed sessions.
func (db *DB) CountSessions(ctx context.Context, userID int) (int, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM sessions WHERE user_id = $1 AND completed_at IS NOT NULL`, userID)
}

// CountRoutines counts the user's routines.
func (db *DB) CountRoutines(ctx context.Context, userID int) (int, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM routines WHERE user_id = $1`, userID)
}

// CountExercises counts the user's exercises.
func (db *DB) CountExercises(ctx context.Context, userID int) (int, error) {
	return db.count(ctx, `SELECT COUNT(*) FROM exercises WHERE user_id = $1`, userID)
}

func (db *DB) count(ctx context.Context, query string, userID int) (int, error) {
	var n int
	if err := db.Pool.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting: %w", err)
	}
	return n, nil
}
