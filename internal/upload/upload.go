package upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	SessionsInserted int
	SessionsReplaced int64
	SetsInserted     int64
}

// Sender delivers one CSV export. *Client implements it.
type Sender interface {
	SendCSV(ctx context.Context, data []byte) (*ingest.Result, error)
}

// Uploader sends Alpha Progression CSV exports to the LiftLog server, skipping
// exports whose content was already accepted.
type Uploader struct {
	sender Sender
	state  *StateDB
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader. sender may be nil in dry-run mode.
func New(sender Sender, state *StateDB, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		sender: sender,
		state:  state,
		dryRun: dryRun,
		log:    log,
	}
}

// Run uploads every path. Directories are searched (non-recursively) for .csv files.
// A file that fails to parse or upload is counted and logged; the rest still run.
func (u *Uploader) Run(ctx context.Context, paths []string) (*Stats, error) {
	files, err := collectFiles(paths)
	if err != nil {
		return &u.stats, err
	}
	u.stats.FilesTotal = len(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		if err := u.processFile(ctx, path); err != nil {
			u.stats.FilesErrored++
			u.log.Error("upload failed", "file", path, "error", err)
		}
	}
	return &u.stats, nil
}

func (u *Uploader) processFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	hash := HashBytes(data)

	prev, done, err := u.state.Lookup(ctx, hash)
	if err != nil {
		return fmt.Errorf("checking state: %w", err)
	}
	if done {
		u.stats.FilesSkipped++
		u.log.Debug("already uploaded", "file", path, "as", prev.Path,
			"sessions", prev.Sessions, "at", prev.UploadedAt.Format(time.DateTime))
		return nil
	}

	// Parse locally first so broken exports never reach the server.
	sessions, err := alpha.Parse(strings.NewReader(string(data)))
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		u.log.Warn("no sessions in file", "file", path)
	}

	if u.dryRun {
		sets := 0
		for _, s := range sessions {
			for _, ex := range s.Exercises {
				sets += len(ex.Sets)
			}
		}
		u.log.Info("dry run", "file", path, "sessions", len(sessions), "sets", sets)
		return nil
	}

	result, err := u.sender.SendCSV(ctx, data)
	if err != nil {
		return err
	}
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	err = u.state.Record(ctx, Export{
		Hash:     hash,
		Path:     key,
		Size:     int64(len(data)),
		Sessions: result.SessionsInserted,
		Sets:     result.SetsInserted,
	})
	if err != nil {
		return err
	}

	u.stats.FilesUploaded++
	u.stats.SessionsInserted += result.SessionsInserted
	u.stats.SessionsReplaced += result.SessionsReplaced
	u.stats.SetsInserted += result.SetsInserted
	u.log.Info("uploaded", "file", path, "sessions", result.SessionsInserted, "sets", result.SetsInserted)
	return nil
}

// collectFiles expands directories into their .csv files, sorted by name.
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		for _, e := range entries {
			if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}
