package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists drafts in a local SQLite file so a workout in progress
// survives a server restart. Each draft is stored as one JSON document.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the draft database at dir/drafts.db.
func OpenSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating drafts dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "drafts.db"))
	if err != nil {
		return nil, fmt.Errorf("opening drafts db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS drafts (
		id         TEXT PRIMARY KEY,
		user_id    INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		body       TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating drafts table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Draft, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM drafts WHERE id = ?`, id.String()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrDraftNotFound
	}
	if err != nil {
		return Draft{}, fmt.Errorf("querying draft %s: %w", id, err)
	}
	return decodeDraft(body)
}

func (s *SQLiteStore) Put(ctx context.Context, d Draft) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft %s: %w", d.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO drafts (id, user_id, started_at, body, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		d.ID.String(), d.UserID, d.StartedAt.UTC(), string(body),
	)
	if err != nil {
		return fmt.Errorf("storing draft %s: %w", d.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("deleting draft %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// List returns the user's drafts, most recently started first.
func (s *SQLiteStore) List(ctx context.Context, userID int) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM drafts WHERE user_id = ? ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying drafts: %w", err)
	}
	defer rows.Close()

	out := []Draft{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning draft: %w", err)
		}
		d, err := decodeDraft(body)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count returns the number of stored drafts across all users.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting drafts: %w", err)
	}
	return n, nil
}

// Close closes the draft database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeDraft(body string) (Draft, error) {
	var d Draft
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return Draft{}, fmt.Errorf("decoding draft: %w", err)
	}
	return d, nil
}
