package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestClientOverview verifies the overview endpoint is decoded into stats.Overview.
func TestClientOverview(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/overview": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, stats.Overview{TotalSessions: 3, TotalVolume: 4500, LongestStreak: 2})
		},
	})
	defer ts.Close()

	o, err := NewHTTPClient(ts.URL+"/").Overview(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, o.TotalSessions)
	assert.Equal(t, 4500.0, o.TotalVolume)
}

// TestClientRecords verifies records keep their embedded record fields.
func TestClientRecords(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/records": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []stats.RecordRow{{
				Record:       training.Record{ExerciseID: benchID, WeightKg: 140, Reps: 3},
				ExerciseName: "Bench Press",
			}})
		},
	})
	defer ts.Close()

	rows, err := NewHTTPClient(ts.URL).Records(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, benchID, rows[0].ExerciseID)
	assert.Equal(t, 140.0, rows[0].WeightKg)
}

// TestClientPaths verifies the year and exercise arguments end up in the request path.
func TestClientPaths(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/year/2024": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, stats.YearReview{Year: 2024})
		},
		"/api/v1/stats/exercises/" + benchID.String(): func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, stats.ExerciseProgress{OneRepMax: 150})
		},
		"/api/v1/leaderboard": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []stats.LeaderboardEntry{{ExerciseName: "Squat"}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL)
	ctx := context.Background()

	y, err := client.YearReview(ctx, 1, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2024, y.Year)

	p, err := client.ExerciseProgress(ctx, 1, benchID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, p.OneRepMax)

	board, err := client.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "Squat", board[0].ExerciseName)
}

// TestClientErrorStatus verifies non-200 responses are returned as errors with the body.
func TestClientErrorStatus(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/stats/overview": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unknown tailnet peer"}`))
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).Overview(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "unknown tailnet peer")
}

// TestClientBadJSON verifies undecodable bodies are reported.
func TestClientBadJSON(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/leaderboard": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		},
	})
	defer ts.Close()

	_, err := NewHTTPClient(ts.URL).Leaderboard(context.Background(), 1)
	assert.ErrorContains(t, err, "decode")
}
