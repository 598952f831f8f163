package stats

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// RecentRoutines is how many routines the dashboard lists.
	RecentRoutines = 3
	// TopRecords is how many personal records the overview lists.
	TopRecords = 10
	// TopRoutines is how many routines the overview frequency chart lists.
	TopRoutines = 5
	// OverviewWeeks is how many weeks of volume the overview charts.
	OverviewWeeks = 8
	// FeedSize is how many sessions the activity feed shows.
	FeedSize = 30
	// ProfileRecords is how many records a profile shows.
	ProfileRecords = 5
)

// Source is the storage the statistics are computed from.
type Source interface {
	CountRoutines(ctx context.Context, userID int) (int, error)
	CountExercises(ctx context.Context, userID int) (int, error)
	CountSessions(ctx context.Context, userID int) (int, error)
	ListRoutines(ctx context.Context, userID, limit int) ([]models.Routine, error)
	ListExercises(ctx context.Context, userID int) ([]models.Exercise, error)
	GetExercise(ctx context.Context, userID int, id uuid.UUID) (models.Exercise, error)
	SessionTimes(ctx context.Context, userID int) ([]time.Time, error)
	CompletedSessions(ctx context.Context, f models.SessionFilter) ([]training.Session, error)
	GetSession(ctx context.Context, userID int, id uuid.UUID) (training.Session, error)
	ExerciseSets(ctx context.Context, userID int, exerciseIDs ...uuid.UUID) ([]training.ExerciseSet, error)
	MaxWeights(ctx context.Context, userID int, exerciseIDs []uuid.UUID) (map[uuid.UUID]float64, error)
	ListGoals(ctx context.Context, userID int) ([]models.Goal, error)
	MarkGoalAchieved(ctx context.Context, goalID uuid.UUID, at time.Time) error
	FriendIDs(ctx context.Context, userID int) ([]int, error)
	ExerciseMaxes(ctx context.Context, userIDs []int) ([]models.ExerciseMax, error)
	Usernames(ctx context.Context, userIDs []int) (map[int]string, error)
	GetProfile(ctx context.Context, userID int) (models.Profile, error)
	ListMeasurements(ctx context.Context, userID, limit int) ([]models.BodyMeasurement, error)
}

// Service computes derived statistics for the dashboard, stats and social pages.
type Service struct {
	src   Source
	cache *Cache
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a Service. cache may be nil to disable caching.
func NewService(src Source, cache *Cache, logger *slog.Logger) *Service {
	return &Service{src: src, cache: cache, log: logger, now: time.Now}
}

// Invalidate drops the cached statistics of the user and of their friends,
// whose feed and leaderboard include the user's sessions.
func (s *Service) Invalidate(userID int) {
	if s.cache == nil {
		return
	}
	users, err := s.circle(context.Background(), userID)
	if err != nil {
		s.log.Warn("loading friends for cache invalidation", "user_id", userID, "error", err)
		users = []int{userID}
	}
	s.cache.Invalidate(users...)
}

type Dashboard struct {
	Routines       int              `json:"routines"`
	Exercises      int              `json:"exercises"`
	Sessions       int              `json:"sessions"`
	RecentRoutines []models.Routine `json:"recent_routines"`
	DayStreak      int              `json:"day_streak"`
	WeekStreak     int              `json:"week_streak"`
}

// Dashboard gathers counts, recent routines and streaks. The queries run concurrently.
func (s *Service) Dashboard(ctx context.Context, userID int) (Dashboard, error) {
	return cached(s.cache, userID, "dashboard", func() (Dashboard, error) {
		var (
			d     Dashboard
			times []time.Time
		)
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			d.Routines, err = s.src.CountRoutines(ctx, userID)
			return err
		})
		g.Go(func() (err error) {
			d.Exercises, err = s.src.CountExercises(ctx, userID)
			return err
		})
		g.Go(func() (err error) {
			d.Sessions, err = s.src.CountSessions(ctx, userID)
			return err
		})
		g.Go(func() (err error) {
			d.RecentRoutines, err = s.src.ListRoutines(ctx, userID, RecentRoutines)
			return err
		})
		g.Go(func() (err error) {
			times, err = s.src.SessionTimes(ctx, userID)
			return err
		})
		if err := g.Wait(); err != nil {
			return Dashboard{}, fmt.Errorf("loading dashboard: %w", err)
		}

		now := s.now()
		d.DayStreak = training.CurrentDayStreak(times, training.DefaultStreakGapDays, now)
		d.WeekStreak = training.CurrentWeekStreak(times, now)
		return d, nil
	})
}

// RecordRow is a personal record with its exercise name.
type RecordRow struct {
	training.Record
	ExerciseName string  `json:"exercise_name"`
	OneRepMax    float64 `json:"one_rep_max"`
}

type Overview struct {
	TotalSessions int                   `json:"total_sessions"`
	TotalVolume   float64               `json:"total_volume"`
	TotalSets     int                   `json:"total_sets"`
	LongestStreak int                   `json:"longest_streak"`
	Records       []RecordRow           `json:"records"`
	TopRoutines   []training.Frequency  `json:"top_routines"`
	WeeklyVolume  []training.WeekVolume `json:"weekly_volume"`
}

// Overview summarises the user's whole history.
func (s *Service) Overview(ctx context.Context, userID int) (Overview, error) {
	return cached(s.cache, userID, "overview", func() (Overview, error) {
		sessions, err := s.src.CompletedSessions(ctx, models.SessionFilter{UserIDs: []int{userID}})
		if err != nil {
			return Overview{}, fmt.Errorf("loading sessions: %w", err)
		}
		records, err := s.records(ctx, userID, TopRecords)
		if err != nil {
			return Overview{}, err
		}

		o := Overview{TotalSessions: len(sessions), Records: records}
		routines := make([]string, 0, len(sessions))
		times := make([]time.Time, 0, len(sessions))
		for _, sess := range sessions {
			o.TotalVolume += sess.Volume()
			o.TotalSets += len(sess.Sets)
			routines = append(routines, cmp.Or(sess.RoutineName, training.UnknownRoutine))
			times = append(times, sess.CompletedAt)
		}
		o.LongestStreak = training.LongestDayStreak(times, training.DefaultStreakGapDays)
		o.TopRoutines = training.Frequencies(routines, TopRoutines)
		o.WeeklyVolume = training.WeeklyVolume(sessions, OverviewWeeks)
		return o, nil
	})
}

// Records lists every personal record of the user, heaviest first.
func (s *Service) Records(ctx context.Context, userID int) ([]RecordRow, error) {
	return cached(s.cache, userID, "records", func() ([]RecordRow, error) {
		return s.records(ctx, userID, 0)
	})
}

// records returns the user's personal records, heaviest first.
func (s *Service) records(ctx context.Context, userID, limit int) ([]RecordRow, error) {
	sets, err := s.src.ExerciseSets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}
	exercises, err := s.src.ListExercises(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading exercises: %w", err)
	}
	names := make(map[uuid.UUID]string, len(exercises))
	for _, e := range exercises {
		names[e.ID] = e.Name
	}

	rows := []RecordRow{}
	for id, r := range training.PersonalRecords(sets) {
		rows = append(rows, RecordRow{
			Record:       r,
			ExerciseName: cmp.Or(names[id], training.UnknownExercise),
			OneRepMax:    training.OneRepMax(r.WeightKg, r.Reps),
		})
	}
	slices.SortFunc(rows, func(a, b RecordRow) int {
		return cmp.Or(cmp.Compare(b.WeightKg, a.WeightKg), cmp.Compare(a.ExerciseName, b.ExerciseName))
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

type YearReview struct {
	Year int `json:"year"`
	training.YearSummary
}

// YearReview summarises the sessions completed in the given calendar year (UTC).
func (s *Service) YearReview(ctx context.Context, userID, year int) (YearReview, error) {
	return cached(s.cache, userID, fmt.Sprintf("year::%d", year), func() (YearReview, error) {
		sessions, err := s.src.CompletedSessions(ctx, models.SessionFilter{
			UserIDs: []int{userID},
			From:    time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			To:      time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			return YearReview{}, fmt.Errorf("loading sessions for %d: %w", year, err)
		}
		return YearReview{Year: year, YearSummary: training.YearReview(sessions)}, nil
	})
}

type ExerciseProgress struct {
	Exercise  models.Exercise          `json:"exercise"`
	Points    []training.ProgressPoint `json:"points"`
	Record    *training.Record         `json:"record"`
	OneRepMax float64                  `json:"one_rep_max"`
	RepTable  []training.RepMax        `json:"rep_table"`
}

// ExerciseProgress charts one exercise over time with its record and a 1RM
// estimate taken from the best day.
func (s *Service) ExerciseProgress(ctx context.Context, userID int, exerciseID uuid.UUID) (ExerciseProgress, error) {
	return cached(s.cache, userID, "progress::"+exerciseID.String(), func() (ExerciseProgress, error) {
		ex, err := s.src.GetExercise(ctx, userID, exerciseID)
		if err != nil {
			return ExerciseProgress{}, fmt.Errorf("loading exercise: %w", err)
		}
		sets, err := s.src.ExerciseSets(ctx, userID, exerciseID)
		if err != nil {
			return ExerciseProgress{}, fmt.Errorf("loading sets: %w", err)
		}

		p := ExerciseProgress{Exercise: ex, Points: training.ExerciseProgression(sets)}
		if r, ok := training.PersonalRecords(sets)[exerciseID]; ok {
			p.Record = &r
		}
		for _, set := range sets {
			p.OneRepMax = max(p.OneRepMax, training.OneRepMax(set.WeightKg, set.Reps))
		}
		p.RepTable = training.RepPercentageTable(p.OneRepMax)
		return p, nil
	})
}

type SessionSummary struct {
	ID          uuid.UUID `json:"id"`
	RoutineName string    `json:"routine_name"`
	CompletedAt time.Time `json:"completed_at"`
	Volume      float64   `json:"volume"`
	MaxWeight   float64   `json:"max_weight"`
	Sets        int       `json:"sets"`
}

// Summarize reduces a session to its headline numbers.
func Summarize(s training.Session) SessionSummary {
	return SessionSummary{
		ID:          s.ID,
		RoutineName: cmp.Or(s.RoutineName, training.UnknownRoutine),
		CompletedAt: s.CompletedAt,
		Volume:      s.Volume(),
		MaxWeight:   s.MaxWeight(),
		Sets:        len(s.Sets),
	}
}

type Comparison struct {
	Older     SessionSummary                `json:"older"`
	Newer     SessionSummary                `json:"newer"`
	Exercises []training.ExerciseComparison `json:"exercises"`
}

// CompareSessions lines up two of the user's sessions, older first regardless of argument order.
func (s *Service) CompareSessions(ctx context.Context, userID int, a, b uuid.UUID) (Comparison, error) {
	var sa, sb training.Session
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sa, err = s.src.GetSession(gctx, userID, a)
		return err
	})
	g.Go(func() (err error) {
		sb, err = s.src.GetSession(gctx, userID, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return Comparison{}, fmt.Errorf("loading sessions: %w", err)
	}
	if sb.CompletedAt.Before(sa.CompletedAt) {
		sa, sb = sb, sa
	}
	return Comparison{
		Older:     Summarize(sa),
		Newer:     Summarize(sb),
		Exercises: training.CompareSessions(sa, sb),
	}, nil
}

// MuscleVolume splits the volume of the last weeks by muscle category.
func (s *Service) MuscleVolume(ctx context.Context, userID, weeks int) ([]training.CategoryVolume, error) {
	if weeks <= 0 {
		weeks = 4
	}
	return cached(s.cache, userID, fmt.Sprintf("muscle::%d", weeks), func() ([]training.CategoryVolume, error) {
		sessions, err := s.src.CompletedSessions(ctx, models.SessionFilter{
			UserIDs: []int{userID},
			From:    s.now().AddDate(0, 0, -7*weeks),
		})
		if err != nil {
			return nil, fmt.Errorf("loading sessions: %w", err)
		}
		var sets []training.NamedSet
		for _, sess := range sessions {
			sets = append(sets, sess.Sets...)
		}
		return training.VolumeByCategory(sets), nil
	})
}

type GoalStatus struct {
	models.Goal
	Current  float64 `json:"current"`
	Progress int     `json:"progress"`
}

// Goals reports progress towards each goal. Goals reached since the last check
// are marked achieved.
func (s *Service) Goals(ctx context.Context, userID int) ([]GoalStatus, error) {
	goals, err := s.src.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading goals: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(goals))
	for _, g := range goals {
		ids = append(ids, g.ExerciseID)
	}
	maxes, err := s.src.MaxWeights(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("loading max weights: %w", err)
	}

	out := make([]GoalStatus, 0, len(goals))
	for _, g := range goals {
		current := maxes[g.ExerciseID]
		if !g.Achieved && g.TargetWeight > 0 && current >= g.TargetWeight {
			now := s.now()
			if err := s.src.MarkGoalAchieved(ctx, g.ID, now); err != nil {
				return nil, fmt.Errorf("marking goal %s achieved: %w", g.ID, err)
			}
			g.Achieved, g.AchievedAt = true, &now
			s.log.Info("goal achieved", "user_id", userID, "goal", g.ID, "exercise", g.ExerciseName, "target", g.TargetWeight)
		}
		out = append(out, GoalStatus{Goal: g, Current: current, Progress: training.GoalProgress(current, g.TargetWeight)})
	}
	return out, nil
}

type LeaderboardEntry struct {
	ExerciseName string               `json:"exercise_name"`
	Entries      []models.ExerciseMax `json:"entries"`
}

// Leaderboard ranks the user and accepted friends by max weight per exercise name.
func (s *Service) Leaderboard(ctx context.Context, userID int) ([]LeaderboardEntry, error) {
	return cached(s.cache, userID, "leaderboard", func() ([]LeaderboardEntry, error) {
		users, err := s.circle(ctx, userID)
		if err != nil {
			return nil, err
		}
		maxes, err := s.src.ExerciseMaxes(ctx, users)
		if err != nil {
			return nil, fmt.Errorf("loading exercise maxes: %w", err)
		}

		byName := make(map[string][]models.ExerciseMax)
		for _, m := range maxes {
			byName[m.ExerciseName] = append(byName[m.ExerciseName], m)
		}
		out := make([]LeaderboardEntry, 0, len(byName))
		for name, entries := range byName {
			slices.SortFunc(entries, func(a, b models.ExerciseMax) int {
				return cmp.Or(cmp.Compare(b.MaxWeight, a.MaxWeight), cmp.Compare(a.Username, b.Username))
			})
			out = append(out, LeaderboardEntry{ExerciseName: name, Entries: entries})
		}
		slices.SortFunc(out, func(a, b LeaderboardEntry) int { return cmp.Compare(a.ExerciseName, b.ExerciseName) })
		return out, nil
	})
}

// circle is the user followed by their accepted friends.
func (s *Service) circle(ctx context.Context, userID int) ([]int, error) {
	friends, err := s.src.FriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading friends: %w", err)
	}
	return append([]int{userID}, friends...), nil
}

type FeedItem struct {
	SessionID     uuid.UUID     `json:"session_id"`
	UserID        int           `json:"user_id"`
	Username      string        `json:"username"`
	RoutineName   string        `json:"routine_name"`
	CompletedAt   time.Time     `json:"completed_at"`
	Duration      time.Duration `json:"duration"`
	Volume        float64       `json:"volume"`
	ExerciseCount int           `json:"exercise_count"`
	SetCount      int           `json:"set_count"`
	MaxWeight     float64       `json:"max_weight"`
}

// Feed lists the latest sessions of the user and their friends, newest first.
func (s *Service) Feed(ctx context.Context, userID int) ([]FeedItem, error) {
	return cached(s.cache, userID, "feed", func() ([]FeedItem, error) {
		users, err := s.circle(ctx, userID)
		if err != nil {
			return nil, err
		}
		sessions, err := s.src.CompletedSessions(ctx, models.SessionFilter{UserIDs: users, Limit: FeedSize})
		if err != nil {
			return nil, fmt.Errorf("loading feed sessions: %w", err)
		}
		names, err := s.src.Usernames(ctx, users)
		if err != nil {
			return nil, fmt.Errorf("loading usernames: %w", err)
		}

		out := make([]FeedItem, 0, len(sessions))
		for _, sess := range sessions {
			out = append(out, FeedItem{
				SessionID:     sess.ID,
				UserID:        sess.UserID,
				Username:      names[sess.UserID],
				RoutineName:   cmp.Or(sess.RoutineName, training.UnknownRoutine),
				CompletedAt:   sess.CompletedAt,
				Duration:      sess.Duration,
				Volume:        sess.Volume(),
				ExerciseCount: sess.ExerciseCount(),
				SetCount:      len(sess.Sets),
				MaxWeight:     sess.MaxWeight(),
			})
		}
		slices.SortStableFunc(out, func(a, b FeedItem) int { return b.CompletedAt.Compare(a.CompletedAt) })
		return out, nil
	})
}

type ProfileStats struct {
	Profile     models.Profile `json:"profile"`
	Sessions    int            `json:"sessions"`
	TotalVolume float64        `json:"total_volume"`
	Records     []RecordRow    `json:"records"`
}

// ProfileStats is the public summary shown on a user's profile.
func (s *Service) ProfileStats(ctx context.Context, userID int) (ProfileStats, error) {
	return cached(s.cache, userID, "profile", func() (ProfileStats, error) {
		profile, err := s.src.GetProfile(ctx, userID)
		if err != nil {
			return ProfileStats{}, fmt.Errorf("loading profile: %w", err)
		}
		sessions, err := s.src.CompletedSessions(ctx, models.SessionFilter{UserIDs: []int{userID}})
		if err != nil {
			return ProfileStats{}, fmt.Errorf("loading sessions: %w", err)
		}
		records, err := s.records(ctx, userID, ProfileRecords)
		if err != nil {
			return ProfileStats{}, err
		}
		ps := ProfileStats{Profile: profile, Sessions: len(sessions), Records: records}
		for _, sess := range sessions {
			ps.TotalVolume += sess.Volume()
		}
		return ps, nil
	})
}

type Measurements struct {
	Latest  *models.BodyMeasurement   `json:"latest"`
	History []models.BodyMeasurement  `json:"history"`
	Trends  map[string]training.Trend `json:"trends"`
}

// Measurements returns the user's body measurements, newest first, with the
// change of each reading between the two latest entries.
func (s *Service) Measurements(ctx context.Context, userID, limit int) (Measurements, error) {
	history, err := s.src.ListMeasurements(ctx, userID, limit)
	if err != nil {
		return Measurements{}, fmt.Errorf("loading measurements: %w", err)
	}
	m := Measurements{History: history, Trends: map[string]training.Trend{}}
	if len(history) == 0 {
		return m, nil
	}
	m.Latest = &history[0]
	if len(history) < 2 {
		return m, nil
	}
	latest, prev := history[0], history[1]
	for name, pair := range map[string][2]*float64{
		"weight_kg":    {latest.WeightKg, prev.WeightKg},
		"body_fat_pct": {latest.BodyFatPct, prev.BodyFatPct},
		"chest_cm":     {latest.ChestCm, prev.ChestCm},
		"waist_cm":     {latest.WaistCm, prev.WaistCm},
		"hips_cm":      {latest.HipsCm, prev.HipsCm},
		"arms_cm":      {latest.ArmsCm, prev.ArmsCm},
		"thighs_cm":    {latest.ThighsCm, prev.ThighsCm},
	} {
		if t, ok := training.MeasurementTrend(pair[0], pair[1]); ok {
			m.Trends[name] = t
		}
	}
	return m, nil
}
