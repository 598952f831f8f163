package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

const pushCSV = `"Push";"2026-02-17 5:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 60 kg · 8 reps"
#;KG;REPS;RIR
1;100;6;1
2;100;5;0
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type senderFake struct {
	calls int
	err   error
}

func (s *senderFake) SendCSV(_ context.Context, data []byte) (*ingest.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &ingest.Result{SessionsInserted: 1, SetsInserted: 3}, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openState(t *testing.T) *StateDB {
	t.Helper()
	state, err := OpenStateDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { state.Close() })
	return state
}

// TestRunSkipsUploadedFiles verifies unchanged files are sent once and changed files again.
func TestRunSkipsUploadedFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "export.csv", pushCSV)
	writeFile(t, dir, "notes.txt", "ignored")
	state := openState(t)
	sender := &senderFake{}

	stats, err := New(sender, state, false, discardLogger()).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesTotal)
	assert.Equal(t, 1, stats.FilesUploaded)
	assert.Equal(t, 1, stats.SessionsInserted)
	assert.Equal(t, int64(3), stats.SetsInserted)

	stats, err = New(sender, state, false, discardLogger()).Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 1, sender.calls)

	writeFile(t, dir, "export.csv", pushCSV+"3;100;4;0\n")
	stats, err = New(sender, state, false, discardLogger()).Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesUploaded)
	assert.Equal(t, 2, sender.calls)
}

// TestRunRecordsServerCounts verifies the state keeps what the server reported and
// that a renamed copy of an export is not sent again.
func TestRunRecordsServerCounts(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "export.csv", pushCSV)
	state := openState(t)
	sender := &senderFake{}

	_, err := New(sender, state, false, discardLogger()).Run(context.Background(), []string{path})
	require.NoError(t, err)

	e, done, err := state.Lookup(context.Background(), HashBytes([]byte(pushCSV)))
	require.NoError(t, err)
	require.True(t, done)
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	assert.Equal(t, abs, e.Path)
	assert.Equal(t, int64(len(pushCSV)), e.Size)
	assert.Equal(t, 1, e.Sessions)
	assert.Equal(t, int64(3), e.Sets)
	assert.WithinDuration(t, time.Now(), e.UploadedAt, time.Minute)

	copyPath := writeFile(t, dir, "export (1).csv", pushCSV)
	stats, err := New(sender, state, false, discardLogger()).Run(context.Background(), []string{copyPath})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 1, sender.calls)
}

// TestRunDryRun verifies dry runs parse files without sending or recording them.
func TestRunDryRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "export.csv", pushCSV)
	state := openState(t)

	stats, err := New(nil, state, true, discardLogger()).Run(context.Background(), []string{path})
	require.NoError(t, err)
	assert.Zero(t, stats.FilesUploaded)
	assert.Zero(t, stats.FilesErrored)

	_, done, err := state.Lookup(context.Background(), HashBytes([]byte(pushCSV)))
	require.NoError(t, err)
	assert.False(t, done)
}

// TestRunCountsFailures verifies bad exports and send errors are counted and not recorded.
func TestRunCountsFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "1;100;5;1\n")
	writeFile(t, dir, "b.csv", pushCSV)
	sender := &senderFake{err: errors.New("connection refused")}

	stats, err := New(sender, openState(t), false, discardLogger()).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesTotal)
	assert.Equal(t, 2, stats.FilesErrored)
	assert.Equal(t, 1, sender.calls, "unparseable file is never sent")
}

// TestRunMissingPath verifies a missing input path aborts the run.
func TestRunMissingPath(t *testing.T) {
	_, err := New(&senderFake{}, openState(t), false, discardLogger()).
		Run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)
}

// TestSendCSV verifies the export is posted with the API key and the result decoded.
func TestSendCSV(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/import/alpha", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, pushCSV, string(body))
		json.NewEncoder(w).Encode(ingest.Result{SessionsInserted: 1, SetsInserted: 3})
	}))
	defer ts.Close()

	res, err := NewClient(ts.URL+"/", "secret").SendCSV(context.Background(), []byte(pushCSV))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.SetsInserted)
}

// TestSendCSVRetries verifies server errors are retried and client errors are not.
func TestSendCSVRetries(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("X-API-Key") {
		case "flaky":
			if hits.Add(1) < 3 {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(ingest.Result{SessionsInserted: 2})
		default:
			hits.Add(1)
			http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "flaky")
	c.backoff = time.Millisecond
	res, err := c.SendCSV(context.Background(), []byte(pushCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, res.SessionsInserted)
	assert.Equal(t, int32(3), hits.Load())

	hits.Store(0)
	c = NewClient(ts.URL, "wrong")
	c.backoff = time.Millisecond
	_, err = c.SendCSV(context.Background(), []byte(pushCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), hits.Load())
}
