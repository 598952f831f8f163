package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
)

// ErrInvalidCSV is returned when the export cannot be parsed.
var ErrInvalidCSV = errors.New("invalid Alpha Progression CSV")

// Store is the persistence the importer needs. *storage.DB satisfies it.
type Store interface {
	FindOrCreateExercise(ctx context.Context, userID int, name string) (uuid.UUID, error)
	SaveSession(ctx context.Context, s models.Session, sets []models.SetLog) (int64, error)
	DeleteSessionAt(ctx context.Context, userID int, createdAt time.Time, notes string) (int64, error)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	store Store
	log   *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(store Store, log *slog.Logger) *Provider {
	return &Provider{store: store, log: log}
}

// Ingest parses a CSV export and stores every session as a completed workout.
// A session already imported with the same start time and name is replaced.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, userID int) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w: %w", ErrInvalidCSV, err)
	}

	result := &ingest.Result{SessionsReceived: len(sessions)}
	exerciseIDs := map[string]uuid.UUID{}

	for _, s := range sessions {
		sets, err := p.setLogs(ctx, userID, s, exerciseIDs)
		if err != nil {
			return result, err
		}
		result.SetsReceived += len(sets)

		replaced, err := p.store.DeleteSessionAt(ctx, userID, s.Date, s.Name)
		if err != nil {
			return result, fmt.Errorf("replacing session %s: %w", s.Date.Format("2006-01-02"), err)
		}
		result.SessionsReplaced += replaced

		completed := s.Date.Add(s.Duration)
		inserted, err := p.store.SaveSession(ctx, models.Session{
			UserID:          userID,
			CreatedAt:       s.Date,
			CompletedAt:     &completed,
			DurationSeconds: int(s.Duration / time.Second),
			Notes:           s.Name,
		}, sets)
		if err != nil {
			return result, fmt.Errorf("saving session %s: %w", s.Date.Format("2006-01-02"), err)
		}
		result.SessionsInserted++
		result.SetsInserted += inserted
	}
	result.Exercises = len(exerciseIDs)

	p.log.Info("alpha import finished",
		"user_id", userID,
		"sessions", result.SessionsInserted,
		"replaced", result.SessionsReplaced,
		"sets", result.SetsInserted,
	)
	return result, nil
}

func (p *Provider) setLogs(ctx context.Context, userID int, s models.AlphaSession, ids map[string]uuid.UUID) ([]models.SetLog, error) {
	var sets []models.SetLog
	for _, ex := range s.Exercises {
		key := strings.ToLower(ex.Name)
		id, ok := ids[key]
		if !ok {
			var err error
			id, err = p.store.FindOrCreateExercise(ctx, userID, ex.Name)
			if err != nil {
				return nil, fmt.Errorf("resolving exercise %q: %w", ex.Name, err)
			}
			ids[key] = id
		}

		workType := modifierSetType(ex.Modifiers)
		warmups, working := 0, 0
		for _, set := range ex.Sets {
			sl := models.SetLog{
				ExerciseID: id,
				Reps:       set.Reps,
				WeightKg:   set.WeightKg,
				SetType:    workType,
				Notes:      setNotes(ex, set),
			}
			if set.IsWarmup {
				warmups++
				sl.SetType = training.SetWarmup
				sl.IsWarmup = true
				sl.SetNumber = warmups
			} else {
				working++
				sl.SetNumber = warmups + working
			}
			sets = append(sets, sl)
		}
	}
	return sets, nil
}

// modifierSetType maps the exercise modifier text to the type of its working sets.
func modifierSetType(modifiers string) training.SetType {
	m := strings.ToLower(modifiers)
	switch {
	case strings.Contains(m, "dropset"):
		return training.SetDropset
	case strings.Contains(m, "rest-pause"), strings.Contains(m, "rest pause"), strings.Contains(m, "myo"):
		return training.SetRestPause
	}
	return training.SetNormal
}

func setNotes(ex models.AlphaExercise, set models.AlphaSet) string {
	var parts []string
	if ex.Equipment != "" {
		parts = append(parts, ex.Equipment)
	}
	if set.IsBodyweightPlus {
		parts = append(parts, "bodyweight +")
	}
	if set.RIR >= 0 {
		parts = append(parts, fmt.Sprintf("RIR %g", set.RIR))
	}
	if !set.IsWarmup && ex.Modifiers != "" {
		parts = append(parts, ex.Modifiers)
	}
	return strings.Join(parts, " · ")
}
