package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	benchID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	squatID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	now     = time.Date(2024, 6, 12, 20, 0, 0, 0, time.UTC) // Wednesday
)

const (
	me     = 1
	friend = 2
)

type sourceMock struct {
	mu        sync.Mutex
	calls     map[string]int
	sessions  []training.Session
	sets      []training.ExerciseSet
	exercises []models.Exercise
	goals     []models.Goal
	achieved  []uuid.UUID
	friends   []int
	maxes     []models.ExerciseMax
	measure   []models.BodyMeasurement
	failCount error
}

func (s *sourceMock) hit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[name]++
}

func (s *sourceMock) called(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *sourceMock) CountRoutines(context.Context, int) (int, error) {
	s.hit("CountRoutines")
	return 2, s.failCount
}

func (s *sourceMock) CountExercises(context.Context, int) (int, error) {
	s.hit("CountExercises")
	return len(s.exercises), nil
}

func (s *sourceMock) CountSessions(_ context.Context, userID int) (int, error) {
	s.hit("CountSessions")
	return len(s.userSessions(userID)), nil
}

func (s *sourceMock) ListRoutines(_ context.Context, _ int, limit int) ([]models.Routine, error) {
	s.hit("ListRoutines")
	all := []models.Routine{{Name: "Push"}, {Name: "Pull"}, {Name: "Legs"}, {Name: "Arms"}}
	return all[:min(limit, len(all))], nil
}

func (s *sourceMock) ListExercises(context.Context, int) ([]models.Exercise, error) {
	return s.exercises, nil
}

func (s *sourceMock) GetExercise(_ context.Context, _ int, id uuid.UUID) (models.Exercise, error) {
	for _, e := range s.exercises {
		if e.ID == id {
			return e, nil
		}
	}
	return models.Exercise{}, errors.New("not found")
}

func (s *sourceMock) SessionTimes(_ context.Context, userID int) ([]time.Time, error) {
	var out []time.Time
	for _, sess := range s.userSessions(userID) {
		out = append(out, sess.CompletedAt)
	}
	return out, nil
}

func (s *sourceMock) userSessions(userID int) []training.Session {
	var out []training.Session
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	return out
}

func (s *sourceMock) CompletedSessions(_ context.Context, f models.SessionFilter) ([]training.Session, error) {
	s.hit("CompletedSessions")
	out := []training.Session{}
	for _, sess := range s.sessions {
		keep := false
		for _, id := range f.UserIDs {
			keep = keep || sess.UserID == id
		}
		if !keep || (!f.From.IsZero() && sess.CompletedAt.Before(f.From)) || (!f.To.IsZero() && !sess.CompletedAt.Before(f.To)) {
			continue
		}
		out = append(out, sess)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *sourceMock) GetSession(_ context.Context, userID int, id uuid.UUID) (training.Session, error) {
	for _, sess := range s.sessions {
		if sess.ID == id && sess.UserID == userID {
			return sess, nil
		}
	}
	return training.Session{}, errors.New("not found")
}

func (s *sourceMock) ExerciseSets(_ context.Context, _ int, ids ...uuid.UUID) ([]training.ExerciseSet, error) {
	if len(ids) == 0 {
		return s.sets, nil
	}
	var out []training.ExerciseSet
	for _, set := range s.sets {
		for _, id := range ids {
			if set.ExerciseID == id {
				out = append(out, set)
			}
		}
	}
	return out, nil
}

func (s *sourceMock) MaxWeights(_ context.Context, _ int, ids []uuid.UUID) (map[uuid.UUID]float64, error) {
	out := map[uuid.UUID]float64{}
	for _, set := range s.sets {
		for _, id := range ids {
			if set.ExerciseID == id {
				out[id] = max(out[id], set.WeightKg)
			}
		}
	}
	return out, nil
}

func (s *sourceMock) ListGoals(context.Context, int) ([]models.Goal, error) { return s.goals, nil }

func (s *sourceMock) MarkGoalAchieved(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.achieved = append(s.achieved, id)
	return nil
}

func (s *sourceMock) FriendIDs(context.Context, int) ([]int, error) { return s.friends, nil }

func (s *sourceMock) ExerciseMaxes(context.Context, []int) ([]models.ExerciseMax, error) {
	return s.maxes, nil
}

func (s *sourceMock) Usernames(context.Context, []int) (map[int]string, error) {
	return map[int]string{me: "alice", friend: "bob"}, nil
}

func (s *sourceMock) GetProfile(_ context.Context, userID int) (models.Profile, error) {
	return models.Profile{UserID: userID, Username: "alice"}, nil
}

func (s *sourceMock) ListMeasurements(context.Context, int, int) ([]models.BodyMeasurement, error) {
	return s.measure, nil
}

func set(id uuid.UUID, name, cat string, reps int, kg float64) training.NamedSet {
	return training.NamedSet{
		LoggedSet:    training.LoggedSet{ExerciseID: id, Reps: reps, WeightKg: kg},
		ExerciseName: name,
		Category:     cat,
	}
}

func newSource() *sourceMock {
	return &sourceMock{
		exercises: []models.Exercise{{ID: benchID, Name: "Bench Press"}, {ID: squatID, Name: "Squat"}},
		sessions: []training.Session{
			{
				ID: uuid.New(), UserID: me, RoutineName: "Push", CompletedAt: now.AddDate(0, 0, -1),
				Sets: []training.NamedSet{
					set(benchID, "Bench Press", "Chest", 10, 80),
					set(benchID, "Bench Press", "Chest", 8, 90),
					set(benchID, "Bench Press", "Chest", 6, 100),
				},
			},
			{
				ID: uuid.New(), UserID: friend, RoutineName: "Legs", CompletedAt: now.AddDate(0, 0, -2),
				Sets: []training.NamedSet{set(squatID, "Squat", "Legs", 5, 140)},
			},
			{
				ID: uuid.New(), UserID: me, RoutineName: "Legs", CompletedAt: now.AddDate(0, 0, -3),
				Sets: []training.NamedSet{set(squatID, "Squat", "Legs", 5, 120)},
			},
		},
		sets: []training.ExerciseSet{
			{LoggedSet: training.LoggedSet{ExerciseID: benchID, Reps: 10, WeightKg: 80}, PerformedAt: now.AddDate(0, 0, -1)},
			{LoggedSet: training.LoggedSet{ExerciseID: benchID, Reps: 6, WeightKg: 100}, PerformedAt: now.AddDate(0, 0, -1)},
			{LoggedSet: training.LoggedSet{ExerciseID: squatID, Reps: 5, WeightKg: 120}, PerformedAt: now.AddDate(0, 0, -3)},
		},
	}
}

func newTestService(src Source, cache *Cache) *Service {
	svc := NewService(src, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return now }
	return svc
}

// TestDashboard verifies counts, recent routines and streaks from concurrent queries.
func TestDashboard(t *testing.T) {
	svc := newTestService(newSource(), nil)
	d, err := svc.Dashboard(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Routines)
	assert.Equal(t, 2, d.Exercises)
	assert.Equal(t, 2, d.Sessions)
	assert.Len(t, d.RecentRoutines, RecentRoutines)
	assert.Equal(t, 2, d.DayStreak)
	assert.Equal(t, 2, d.WeekStreak, "sessions on Sunday and Tuesday span two ISO weeks")
}

// TestDashboardError verifies that a failing query fails the whole dashboard.
func TestDashboardError(t *testing.T) {
	src := newSource()
	src.failCount = errors.New("db down")
	_, err := newTestService(src, nil).Dashboard(context.Background(), me)
	assert.ErrorIs(t, err, src.failCount)
}

// TestOverview verifies totals, records and routine frequencies.
func TestOverview(t *testing.T) {
	o, err := newTestService(newSource(), nil).Overview(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, 2, o.TotalSessions)
	assert.Equal(t, 2120.0+600, o.TotalVolume)
	assert.Equal(t, 4, o.TotalSets)
	require.Len(t, o.Records, 2)
	assert.Equal(t, "Squat", o.Records[0].ExerciseName)
	assert.Equal(t, 120.0, o.Records[0].WeightKg)
	assert.Equal(t, "Bench Press", o.Records[1].ExerciseName)
	assert.Equal(t, 100.0, o.Records[1].WeightKg)
	assert.Equal(t, training.OneRepMax(100, 6), o.Records[1].OneRepMax)
	assert.Len(t, o.TopRoutines, 2)
	assert.NotEmpty(t, o.WeeklyVolume)
}

// TestRecords verifies every record is listed with its exercise name.
func TestRecords(t *testing.T) {
	rows, err := newTestService(newSource(), nil).Records(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, squatID, rows[0].ExerciseID)
	assert.Equal(t, "Bench Press", rows[1].ExerciseName)
	assert.Equal(t, 6, rows[1].Reps)
}

// TestExerciseProgress verifies the record, 1RM estimate and rep table for one exercise.
func TestExerciseProgress(t *testing.T) {
	p, err := newTestService(newSource(), nil).ExerciseProgress(context.Background(), me, benchID)
	require.NoError(t, err)
	assert.Equal(t, "Bench Press", p.Exercise.Name)
	require.NotNil(t, p.Record)
	assert.Equal(t, 100.0, p.Record.WeightKg)
	assert.Equal(t, max(training.OneRepMax(80, 10), training.OneRepMax(100, 6)), p.OneRepMax)
	assert.Len(t, p.Points, 1)
	assert.NotEmpty(t, p.RepTable)
}

// TestCompareSessions verifies that sessions are ordered oldest first regardless of argument order.
func TestCompareSessions(t *testing.T) {
	src := newSource()
	svc := newTestService(src, nil)
	newer, older := src.sessions[0], src.sessions[2]
	c, err := svc.CompareSessions(context.Background(), me, newer.ID, older.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, c.Older.ID)
	assert.Equal(t, newer.ID, c.Newer.ID)
	assert.Equal(t, 2120.0, c.Newer.Volume)
	assert.Len(t, c.Exercises, 2)

	_, err = svc.CompareSessions(context.Background(), me, newer.ID, src.sessions[1].ID)
	assert.Error(t, err, "friend's session is not visible")
}

// TestMuscleVolume verifies the split of recent volume by category.
func TestMuscleVolume(t *testing.T) {
	cv, err := newTestService(newSource(), nil).MuscleVolume(context.Background(), me, 4)
	require.NoError(t, err)
	require.Len(t, cv, 2)
	assert.Equal(t, "Chest", cv[0].Category)
	assert.Equal(t, 2120.0, cv[0].Volume)
	assert.Equal(t, "Legs", cv[1].Category)
}

// TestGoalsMarksAchieved verifies progress and that reached goals are marked once.
func TestGoalsMarksAchieved(t *testing.T) {
	src := newSource()
	reached := models.Goal{ID: uuid.New(), ExerciseID: benchID, TargetWeight: 100}
	open := models.Goal{ID: uuid.New(), ExerciseID: squatID, TargetWeight: 160}
	done := models.Goal{ID: uuid.New(), ExerciseID: benchID, TargetWeight: 60, Achieved: true}
	src.goals = []models.Goal{reached, open, done}

	got, err := newTestService(src, nil).Goals(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Achieved)
	require.NotNil(t, got[0].AchievedAt)
	assert.Equal(t, 100, got[0].Progress)
	assert.False(t, got[1].Achieved)
	assert.Equal(t, 75, got[1].Progress)
	assert.Equal(t, 120.0, got[1].Current)
	assert.Equal(t, []uuid.UUID{reached.ID}, src.achieved)
}

// TestLeaderboard verifies grouping by exercise name and descending order.
func TestLeaderboard(t *testing.T) {
	src := newSource()
	src.friends = []int{friend}
	src.maxes = []models.ExerciseMax{
		{UserID: me, Username: "alice", ExerciseName: "Squat", MaxWeight: 120},
		{UserID: friend, Username: "bob", ExerciseName: "Squat", MaxWeight: 140},
		{UserID: me, Username: "alice", ExerciseName: "Bench Press", MaxWeight: 100},
	}
	board, err := newTestService(src, nil).Leaderboard(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "Bench Press", board[0].ExerciseName)
	assert.Equal(t, "Squat", board[1].ExerciseName)
	require.Len(t, board[1].Entries, 2)
	assert.Equal(t, "bob", board[1].Entries[0].Username)
}

// TestFeed verifies that friends' sessions appear with usernames, newest first.
func TestFeed(t *testing.T) {
	src := newSource()
	src.friends = []int{friend}
	feed, err := newTestService(src, nil).Feed(context.Background(), me)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, "alice", feed[0].Username)
	assert.Equal(t, 2120.0, feed[0].Volume)
	assert.Equal(t, 1, feed[0].ExerciseCount)
	assert.Equal(t, 3, feed[0].SetCount)
	assert.Equal(t, 100.0, feed[0].MaxWeight)
	assert.Equal(t, "bob", feed[1].Username)
}

// TestProfileStats verifies session count, volume and top records.
func TestProfileStats(t *testing.T) {
	ps, err := newTestService(newSource(), nil).ProfileStats(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, "alice", ps.Profile.Username)
	assert.Equal(t, 2, ps.Sessions)
	assert.Equal(t, 2720.0, ps.TotalVolume)
	assert.Len(t, ps.Records, 2)
}

// TestYearReview verifies that only the requested year is summarised.
func TestYearReview(t *testing.T) {
	y, err := newTestService(newSource(), nil).YearReview(context.Background(), me, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2024, y.Year)
	assert.Equal(t, 2, y.Sessions)

	y, err = newTestService(newSource(), nil).YearReview(context.Background(), me, 2023)
	require.NoError(t, err)
	assert.Zero(t, y.Sessions)
}

// TestMeasurements verifies the latest entry and trends between the two newest readings.
func TestMeasurements(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	src := newSource()
	src.measure = []models.BodyMeasurement{
		{Date: now, WeightKg: f(81.5), WaistCm: f(84)},
		{Date: now.AddDate(0, 0, -7), WeightKg: f(82), WaistCm: f(84.05), ArmsCm: f(38)},
	}
	m, err := newTestService(src, nil).Measurements(context.Background(), me, 10)
	require.NoError(t, err)
	require.NotNil(t, m.Latest)
	assert.Equal(t, training.Trend{Diff: -0.5, Direction: training.TrendDown}, m.Trends["weight_kg"])
	assert.NotContains(t, m.Trends, "waist_cm")
	assert.NotContains(t, m.Trends, "arms_cm")
}

// TestCacheHitsAndInvalidation verifies that cached results skip the source until invalidated.
func TestCacheHitsAndInvalidation(t *testing.T) {
	src := newSource()
	m := metrics.NewTestManager()
	cache := NewCache(1, time.Minute, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := newTestService(src, cache)
	ctx := context.Background()

	first, err := svc.Overview(ctx, me)
	require.NoError(t, err)
	second, err := svc.Overview(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 1, src.called("CompletedSessions"))
	assert.Equal(t, first.TotalVolume, second.TotalVolume)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterCache.WithLabelValues("hit")))

	_, err = svc.Overview(ctx, friend)
	require.NoError(t, err)
	assert.Equal(t, 2, src.called("CompletedSessions"), "cache is per user")

	svc.Invalidate(me)
	_, err = svc.Overview(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, 3, src.called("CompletedSessions"))
}

// TestInvalidateReachesFriends verifies a user's new session clears the friends' cached feed.
func TestInvalidateReachesFriends(t *testing.T) {
	src := newSource()
	src.friends = []int{friend}
	cache := NewCache(1, time.Minute, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := newTestService(src, cache)
	ctx := context.Background()

	_, err := svc.Feed(ctx, friend)
	require.NoError(t, err)
	_, err = svc.Feed(ctx, friend)
	require.NoError(t, err)
	assert.Equal(t, 1, src.called("CompletedSessions"))

	svc.Invalidate(me)
	_, err = svc.Feed(ctx, friend)
	require.NoError(t, err)
	assert.Equal(t, 2, src.called("CompletedSessions"))
}

// TestCacheSkipsErrors verifies that failed computations are not cached.
func TestCacheSkipsErrors(t *testing.T) {
	src := newSource()
	src.failCount = errors.New("db down")
	cache := NewCache(1, time.Minute, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := newTestService(src, cache)

	_, err := svc.Dashboard(context.Background(), me)
	require.Error(t, err)
	src.failCount = nil
	d, err := svc.Dashboard(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Routines)
}
