package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
)

var (
	// ErrInvalidIndex is returned for an exercise or set index outside the draft.
	ErrInvalidIndex = errors.New("index out of range")
	// ErrInvalidField is returned when UpdateSet names an unknown field.
	ErrInvalidField = errors.New("unknown set field")
	// ErrEmptyRoutine is returned when starting a routine that has no exercises.
	ErrEmptyRoutine = errors.New("routine has no exercises")
)

// Set fields accepted by UpdateSet.
const (
	FieldReps   = "reps"
	FieldWeight = "weight_kg"
	FieldType   = "set_type"
	FieldWarmup = "is_warmup"
	FieldNotes  = "notes"
)

// Repository is the storage the workout flow reads from and writes to.
type Repository interface {
	GetRoutine(ctx context.Context, userID int, id uuid.UUID) (models.Routine, error)
	LastRoutineSets(ctx context.Context, userID int, routineID uuid.UUID) ([]models.SetLog, error)
	MaxWeights(ctx context.Context, userID int, exerciseIDs []uuid.UUID) (map[uuid.UUID]float64, error)
	SaveSession(ctx context.Context, s models.Session, sets []models.SetLog) (int64, error)
}

// Invalidator drops cached results derived from a user's sessions.
type Invalidator interface {
	Invalidate(userID int)
}

// Service runs the active-session flow: start from a routine, edit sets, finish or discard.
type Service struct {
	repo        Repository
	store       DraftStore
	log         *slog.Logger
	metrics     *metrics.Manager
	invalidator Invalidator
	now         func() time.Time

	// mu serializes read-modify-write cycles on drafts.
	mu sync.Mutex
}

// NewService creates a Service. invalidator may be nil.
// The active-drafts gauge starts from the drafts already in store.
func NewService(repo Repository, store DraftStore, m *metrics.Manager, invalidator Invalidator, logger *slog.Logger) *Service {
	s := &Service{
		repo:        repo,
		store:       store,
		log:         logger,
		metrics:     m,
		invalidator: invalidator,
		now:         time.Now,
	}
	s.syncDraftGauge(context.Background())
	return s
}

// syncDraftGauge sets the active-drafts gauge to the stored draft count.
func (s *Service) syncDraftGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		s.log.Warn("counting drafts", "error", err)
		return
	}
	s.metrics.GaugeActiveDrafts.Set(float64(n))
}

// Start opens a draft for the routine. Each exercise is pre-filled with the sets
// of the routine's most recent session, or one empty set when there is none.
// Personal records are loaded from the full history.
func (s *Service) Start(ctx context.Context, userID int, routineID uuid.UUID) (Draft, error) {
	routine, err := s.repo.GetRoutine(ctx, userID, routineID)
	if err != nil {
		return Draft{}, fmt.Errorf("loading routine: %w", err)
	}
	if len(routine.Exercises) == 0 {
		return Draft{}, ErrEmptyRoutine
	}

	last, err := s.repo.LastRoutineSets(ctx, userID, routineID)
	if err != nil {
		return Draft{}, fmt.Errorf("loading previous sets: %w", err)
	}
	previous := make(map[uuid.UUID][]training.LoggedSet)
	for _, sl := range last {
		previous[sl.ExerciseID] = append(previous[sl.ExerciseID], sl.Logged())
	}

	ids := make([]uuid.UUID, len(routine.Exercises))
	for i, re := range routine.Exercises {
		ids[i] = re.ExerciseID
	}
	records, err := s.repo.MaxWeights(ctx, userID, ids)
	if err != nil {
		return Draft{}, fmt.Errorf("loading records: %w", err)
	}

	now := s.now()
	d := Draft{
		ID:          uuid.New(),
		UserID:      userID,
		RoutineID:   routine.ID,
		RoutineName: routine.Name,
		StartedAt:   now,
		UpdatedAt:   now,
		Exercises:   make([]DraftExercise, len(routine.Exercises)),
	}
	for i, re := range routine.Exercises {
		d.Exercises[i] = DraftExercise{
			ExerciseID:  re.ExerciseID,
			Name:        re.ExerciseName,
			Category:    re.CategoryName,
			Sets:        prefill(re.ExerciseID, previous[re.ExerciseID]),
			StartRecord: records[re.ExerciseID],
			Record:      records[re.ExerciseID],
		}
	}

	if err := s.store.Put(ctx, d); err != nil {
		return Draft{}, fmt.Errorf("storing draft: %w", err)
	}
	s.syncDraftGauge(ctx)
	s.log.Info("workout started", "user_id", userID, "draft", d.ID, "routine", routine.Name,
		"exercises", len(d.Exercises), "prefilled", len(last))
	return d, nil
}

// Get returns one of the user's drafts.
func (s *Service) Get(ctx context.Context, userID int, id uuid.UUID) (Draft, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return Draft{}, err
	}
	if d.UserID != userID {
		return Draft{}, ErrDraftNotFound
	}
	return d, nil
}

// List returns the user's open drafts.
func (s *Service) List(ctx context.Context, userID int) ([]Draft, error) {
	return s.store.List(ctx, userID)
}

// mutate loads a draft, applies fn and stores the result.
func (s *Service) mutate(ctx context.Context, userID int, id uuid.UUID, fn func(*Draft) error) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return Draft{}, err
	}
	if err := fn(&d); err != nil {
		return Draft{}, err
	}
	d.UpdatedAt = s.now()
	if err := s.store.Put(ctx, d); err != nil {
		return Draft{}, fmt.Errorf("storing draft: %w", err)
	}
	return d, nil
}

func exerciseAt(d *Draft, exercise int) (*DraftExercise, error) {
	if exercise < 0 || exercise >= len(d.Exercises) {
		return nil, fmt.Errorf("exercise %d: %w", exercise, ErrInvalidIndex)
	}
	return &d.Exercises[exercise], nil
}

func setAt(d *Draft, exercise, set int) (*DraftExercise, *training.LoggedSet, error) {
	ex, err := exerciseAt(d, exercise)
	if err != nil {
		return nil, nil, err
	}
	if set < 0 || set >= len(ex.Sets) {
		return nil, nil, fmt.Errorf("set %d: %w", set, ErrInvalidIndex)
	}
	return ex, &ex.Sets[set], nil
}

// checkRecord raises the exercise's live record when weight beats it.
func checkRecord(ex *DraftExercise, weight float64) *RecordEvent {
	if !training.IsNewRecord(ex.Record, weight) {
		return nil
	}
	ex.Record = weight
	return &RecordEvent{ExerciseID: ex.ExerciseID, ExerciseName: ex.Name, Weight: weight}
}

// UpdateSet sets one field of a set. Numeric values are coerced: anything that is
// not a finite, non-negative number becomes 0. A weight above the exercise's
// record returns a RecordEvent.
func (s *Service) UpdateSet(ctx context.Context, userID int, id uuid.UUID, exercise, set int, field string, value any) (Draft, *RecordEvent, error) {
	var event *RecordEvent
	d, err := s.mutate(ctx, userID, id, func(d *Draft) error {
		ex, ls, err := setAt(d, exercise, set)
		if err != nil {
			return err
		}
		switch field {
		case FieldReps:
			ls.Reps = training.NewLoggedSet(value, 0).Reps
		case FieldWeight:
			ls.WeightKg = training.NewLoggedSet(0, value).WeightKg
			event = checkRecord(ex, ls.WeightKg)
		case FieldType:
			str, _ := value.(string)
			ls.SetType = training.ParseSetType(str)
		case FieldWarmup:
			b, _ := value.(bool)
			ls.IsWarmup = b
		case FieldNotes:
			str, _ := value.(string)
			ls.Notes = str
		default:
			return fmt.Errorf("%q: %w", field, ErrInvalidField)
		}
		return nil
	})
	if err != nil {
		return Draft{}, nil, err
	}
	return d, event, nil
}

// AdjustWeight moves a set's weight by steps × 2.5 kg, clamped at 0.
func (s *Service) AdjustWeight(ctx context.Context, userID int, id uuid.UUID, exercise, set, steps int) (Draft, *RecordEvent, error) {
	var event *RecordEvent
	d, err := s.mutate(ctx, userID, id, func(d *Draft) error {
		ex, ls, err := setAt(d, exercise, set)
		if err != nil {
			return err
		}
		ls.WeightKg = max(ls.WeightKg+float64(steps)*training.WeightIncrement, 0)
		event = checkRecord(ex, ls.WeightKg)
		return nil
	})
	if err != nil {
		return Draft{}, nil, err
	}
	return d, event, nil
}

// AdjustReps moves a set's reps by steps, clamped at 0.
func (s *Service) AdjustReps(ctx context.Context, userID int, id uuid.UUID, exercise, set, steps int) (Draft, error) {
	return s.mutate(ctx, userID, id, func(d *Draft) error {
		_, ls, err := setAt(d, exercise, set)
		if err != nil {
			return err
		}
		ls.Reps = max(ls.Reps+steps*training.RepsIncrement, 0)
		return nil
	})
}

// AddSet appends a set that copies the reps and weight of the exercise's last set.
func (s *Service) AddSet(ctx context.Context, userID int, id uuid.UUID, exercise int) (Draft, error) {
	return s.mutate(ctx, userID, id, func(d *Draft) error {
		ex, err := exerciseAt(d, exercise)
		if err != nil {
			return err
		}
		next := training.LoggedSet{SetType: training.SetNormal}
		if n := len(ex.Sets); n > 0 {
			last := ex.Sets[n-1]
			next.Reps, next.WeightKg = last.Reps, last.WeightKg
		}
		ex.Sets = append(ex.Sets, next)
		ex.renumber()
		return nil
	})
}

// RemoveSet drops a set and renumbers the rest. The last remaining set is kept.
func (s *Service) RemoveSet(ctx context.Context, userID int, id uuid.UUID, exercise, set int) (Draft, error) {
	return s.mutate(ctx, userID, id, func(d *Draft) error {
		ex, _, err := setAt(d, exercise, set)
		if err != nil {
			return err
		}
		if len(ex.Sets) <= 1 {
			return nil
		}
		ex.Sets = append(ex.Sets[:set], ex.Sets[set+1:]...)
		ex.renumber()
		return nil
	})
}

// SetCurrent moves focus to another exercise. The exercise being left is marked
// completed when any of its sets has data.
func (s *Service) SetCurrent(ctx context.Context, userID int, id uuid.UUID, exercise int) (Draft, error) {
	return s.mutate(ctx, userID, id, func(d *Draft) error {
		if _, err := exerciseAt(d, exercise); err != nil {
			return err
		}
		if exercise != d.Current && d.Current >= 0 && d.Current < len(d.Exercises) {
			prev := &d.Exercises[d.Current]
			if prev.hasData() {
				prev.Completed = true
			}
		}
		d.Current = exercise
		return nil
	})
}

// Finish saves the draft as a completed session with its non-empty sets and
// removes the draft. If saving fails the draft is left untouched.
// New records are judged against the history as it is at finish time.
func (s *Service) Finish(ctx context.Context, userID int, id uuid.UUID, notes string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return Summary{}, err
	}

	now := s.now()
	duration := max(now.Sub(d.StartedAt), 0).Truncate(time.Second)
	routineID := d.RoutineID
	session := models.Session{
		ID:              uuid.New(),
		UserID:          userID,
		CreatedAt:       d.StartedAt,
		CompletedAt:     &now,
		DurationSeconds: int(duration / time.Second),
		Notes:           notes,
	}
	if routineID != uuid.Nil {
		session.RoutineID = &routineID
	}

	// Another session may have been saved since Start.
	ids := make([]uuid.UUID, len(d.Exercises))
	for i, ex := range d.Exercises {
		ids[i] = ex.ExerciseID
	}
	current, err := s.repo.MaxWeights(ctx, userID, ids)
	if err != nil {
		s.log.Warn("reloading records, using values from start", "draft", id, "error", err)
		current = nil
	}

	var (
		logs    []models.SetLog
		logged  []training.LoggedSet
		records []RecordEvent
	)
	for _, ex := range d.Exercises {
		prior := ex.StartRecord
		if current != nil {
			prior = current[ex.ExerciseID]
		}
		n := 0
		for _, set := range ex.Sets {
			if set.Empty() {
				continue
			}
			n++
			logs = append(logs, models.SetLog{
				SessionID:    session.ID,
				ExerciseID:   ex.ExerciseID,
				ExerciseName: ex.Name,
				Reps:         set.Reps,
				WeightKg:     set.WeightKg,
				SetNumber:    n,
				SetType:      set.SetType,
				IsWarmup:     set.Warmup(),
				Notes:        set.Notes,
			})
			logged = append(logged, set)
		}
		if best := ex.best(); training.IsNewRecord(prior, best) {
			records = append(records, RecordEvent{ExerciseID: ex.ExerciseID, ExerciseName: ex.Name, Weight: best})
		}
	}

	inserted, err := s.repo.SaveSession(ctx, session, logs)
	if err != nil {
		s.log.Error("saving session", "user_id", userID, "draft", id, "error", err)
		return Summary{}, fmt.Errorf("finishing workout: %w", err)
	}

	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrDraftNotFound) {
		s.log.Warn("removing finished draft", "draft", id, "error", err)
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}

	summary := Summary{
		SessionID:   session.ID,
		TotalVolume: training.Volume(logged),
		SetCount:    len(logs),
		Duration:    duration,
		NewRecords:  records,
	}
	if summary.NewRecords == nil {
		summary.NewRecords = []RecordEvent{}
	}
	s.syncDraftGauge(ctx)
	if s.metrics != nil {
		s.metrics.CounterSessionsFinished.Inc()
		s.metrics.CounterSetsLogged.Add(float64(inserted))
		s.metrics.CounterRecords.Add(float64(len(records)))
		s.metrics.HistSessionVolume.Observe(summary.TotalVolume)
	}
	s.log.Info("workout finished", "user_id", userID, "session", session.ID,
		"sets", inserted, "volume", summary.TotalVolume, "records", len(records))
	return summary, nil
}

// Discard drops a draft without saving anything.
func (s *Service) Discard(ctx context.Context, userID int, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("discarding draft: %w", err)
	}
	s.syncDraftGauge(ctx)
	s.log.Info("workout discarded", "user_id", userID, "draft", id)
	return nil
}
