package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Export is one Alpha Progression export the server accepted.
type Export struct {
	// Hash is the hex SHA-256 of the file content.
	Hash       string
	Path       string
	Size       int64
	Sessions   int
	Sets       int64
	UploadedAt time.Time
}

// StateDB remembers accepted exports by content hash. A renamed or re-downloaded
// copy of an export is recognised; an edited file is not.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/liftctl.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "liftctl.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS exports (
		hash        TEXT PRIMARY KEY,
		path        TEXT NOT NULL,
		size        INTEGER NOT NULL,
		sessions    INTEGER NOT NULL,
		sets        INTEGER NOT NULL,
		uploaded_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating exports table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// Lookup returns the earlier upload of the content with this hash, if any.
func (s *StateDB) Lookup(ctx context.Context, hash string) (Export, bool, error) {
	e := Export{Hash: hash}
	var uploaded int64
	err := s.db.QueryRowContext(ctx,
		`SELECT path, size, sessions, sets, uploaded_at FROM exports WHERE hash = ?`, hash,
	).Scan(&e.Path, &e.Size, &e.Sessions, &e.Sets, &uploaded)
	if errors.Is(err, sql.ErrNoRows) {
		return Export{}, false, nil
	}
	if err != nil {
		return Export{}, false, fmt.Errorf("looking up export: %w", err)
	}
	e.UploadedAt = time.Unix(uploaded, 0)
	return e, true, nil
}

// Record stores an accepted export with the counts the server returned.
func (s *StateDB) Record(ctx context.Context, e Export) error {
	if e.UploadedAt.IsZero() {
		e.UploadedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO exports (hash, path, size, sessions, sets, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Hash, e.Path, e.Size, e.Sessions, e.Sets, e.UploadedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording export: %w", err)
	}
	return nil
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashBytes returns the hex SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
