package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/training"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var benchID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// dataSourceFake records the user and arguments it was asked for.
type dataSourceFake struct {
	userID int
	year   int
	id     uuid.UUID
	err    error
}

func (f *dataSourceFake) Overview(_ context.Context, userID int) (stats.Overview, error) {
	f.userID = userID
	return stats.Overview{TotalSessions: 12, TotalVolume: 34500}, f.err
}

func (f *dataSourceFake) Records(_ context.Context, userID int) ([]stats.RecordRow, error) {
	f.userID = userID
	return []stats.RecordRow{{
		Record:       training.Record{ExerciseID: benchID, WeightKg: 100, Reps: 5},
		ExerciseName: "Bench Press",
		OneRepMax:    114.6,
	}}, f.err
}

func (f *dataSourceFake) YearReview(_ context.Context, userID, year int) (stats.YearReview, error) {
	f.userID, f.year = userID, year
	return stats.YearReview{Year: year}, f.err
}

func (f *dataSourceFake) ExerciseProgress(_ context.Context, userID int, id uuid.UUID) (stats.ExerciseProgress, error) {
	f.userID, f.id = userID, id
	return stats.ExerciseProgress{OneRepMax: 114.6}, f.err
}

func (f *dataSourceFake) Leaderboard(_ context.Context, userID int) ([]stats.LeaderboardEntry, error) {
	f.userID = userID
	return []stats.LeaderboardEntry{{ExerciseName: "Bench Press"}}, f.err
}

func newTestHandlers(ds DataSource) *handlers {
	h := newHandlers(ds, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return h
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content type %T", res.Content[0])
	return ""
}

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	assert.Equal(t, 1, UserIDFromContext(context.Background()))
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	assert.Equal(t, 42, UserIDFromContext(WithUserID(context.Background(), 42)))
}

// TestNew verifies the server can be constructed with every tool and resource.
func TestNew(t *testing.T) {
	assert.NotNil(t, New(&dataSourceFake{}, "test", slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// TestEstimateOneRepMax verifies the calculator tool returns both formulas and their average.
func TestEstimateOneRepMax(t *testing.T) {
	h := newTestHandlers(&dataSourceFake{})

	res, err := h.estimateOneRepMax(context.Background(), callRequest(map[string]any{"weight": 100.0, "reps": 5.0}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var got map[string]float64
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
	assert.Equal(t, 116.7, got["epley"])
	assert.Equal(t, 112.5, got["brzycki"])
	assert.Equal(t, 114.6, got["one_rep_max"])
}

// TestEstimateOneRepMaxInvalid verifies missing or out-of-range inputs produce tool errors.
func TestEstimateOneRepMaxInvalid(t *testing.T) {
	h := newTestHandlers(&dataSourceFake{})

	for _, args := range []map[string]any{
		{"reps": 5.0},
		{"weight": 100.0},
		{"weight": 1e9, "reps": 5.0},
	} {
		res, err := h.estimateOneRepMax(context.Background(), callRequest(args))
		require.NoError(t, err)
		assert.True(t, res.IsError, "%v", args)
	}
}

// TestRepMaxTable verifies the table tool returns the percentage rows.
func TestRepMaxTable(t *testing.T) {
	h := newTestHandlers(&dataSourceFake{})

	res, err := h.repMaxTable(context.Background(), callRequest(map[string]any{"one_rep_max": 200.0}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var rows []training.RepMax
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rows))
	require.Len(t, rows, 10)
	assert.Equal(t, training.RepMax{Reps: 5, Percent: 87, Weight: 174}, rows[4])
}

// TestDataToolsUseContextUser verifies data tools query the user from the context.
func TestDataToolsUseContextUser(t *testing.T) {
	ds := &dataSourceFake{}
	h := newTestHandlers(ds)
	ctx := WithUserID(context.Background(), 7)

	tools := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"get_personal_records":  h.getPersonalRecords,
		"get_training_overview": h.getTrainingOverview,
		"get_leaderboard":       h.getLeaderboard,
	}
	for name, tool := range tools {
		ds.userID = 0
		res, err := tool(ctx, callRequest(nil))
		require.NoError(t, err, name)
		assert.False(t, res.IsError, name)
		assert.Equal(t, 7, ds.userID, name)
	}

	res, err := h.getPersonalRecords(ctx, callRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "Bench Press")
}

// TestGetYearReview verifies the year defaults to the current one and is range checked.
func TestGetYearReview(t *testing.T) {
	ds := &dataSourceFake{}
	h := newTestHandlers(ds)

	res, err := h.getYearReview(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, 2025, ds.year)

	_, err = h.getYearReview(context.Background(), callRequest(map[string]any{"year": 2023.0}))
	require.NoError(t, err)
	assert.Equal(t, 2023, ds.year)

	res, err = h.getYearReview(context.Background(), callRequest(map[string]any{"year": 12.0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

// TestGetExerciseProgress verifies the exercise ID is parsed and passed through.
func TestGetExerciseProgress(t *testing.T) {
	ds := &dataSourceFake{}
	h := newTestHandlers(ds)

	res, err := h.getExerciseProgress(context.Background(), callRequest(map[string]any{"exercise_id": benchID.String()}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, benchID, ds.id)

	res, err = h.getExerciseProgress(context.Background(), callRequest(map[string]any{"exercise_id": "bench"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

// TestToolQueryError verifies data source failures become tool errors, not protocol errors.
func TestToolQueryError(t *testing.T) {
	h := newTestHandlers(&dataSourceFake{err: errors.New("db down")})

	res, err := h.getTrainingOverview(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "db down")
}

// TestOverviewResource verifies the overview resource is served as JSON.
func TestOverviewResource(t *testing.T) {
	h := newTestHandlers(&dataSourceFake{})

	var req mcp.ReadResourceRequest
	req.Params.URI = "liftlog://overview"
	contents, err := h.overview(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "liftlog://overview", text.URI)
	assert.Equal(t, "application/json", text.MIMEType)

	var o stats.Overview
	require.NoError(t, json.Unmarshal([]byte(text.Text), &o))
	assert.Equal(t, 12, o.TotalSessions)
}
