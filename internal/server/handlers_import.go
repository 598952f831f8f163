package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/storage"
)

const (
	importSourceAlpha = "alpha"
	// maxImportBytes bounds an uploaded export.
	maxImportBytes = 32 << 20
)

// handleAlphaImport accepts an Alpha Progression CSV either as the raw body or as
// the "file" field of a multipart form.
func (s *Server) handleAlphaImport(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	body, err := importBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer body.Close()

	start := time.Now()
	result, err := s.alpha.Ingest(r.Context(), body, uid)
	if result == nil {
		result = &ingest.Result{}
	}
	s.logImport(uid, importSourceAlpha, result, err, int(time.Since(start).Milliseconds()))
	if result.SessionsInserted > 0 {
		s.invalidate(uid)
	}
	if s.metrics != nil {
		s.metrics.CounterImportedSets.Add(float64(result.SetsInserted))
	}
	if errors.Is(err, alpha.ErrInvalidCSV) {
		s.log.Warn("alpha import rejected", "user_id", uid, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func importBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, nil
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("missing file: %v", err)
	}
	return f, nil
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	logs, err := s.store.QueryImportLogs(r.Context(), uid, queryInt(r, "limit", 50))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// logImport records an import operation's result to the import_logs table.
func (s *Server) logImport(uid int, source string, result *ingest.Result, importErr error, durationMs int) {
	status := "success"
	var errMsg *string
	if importErr != nil {
		status = "error"
		msg := importErr.Error()
		errMsg = &msg
	}

	log := storage.ImportLog{
		UserID:           uid,
		Source:           source,
		Status:           status,
		SessionsReceived: result.SessionsReceived,
		SessionsInserted: result.SessionsInserted,
		SetsReceived:     result.SetsReceived,
		SetsInserted:     result.SetsInserted,
		DurationMs:       &durationMs,
		ErrorMessage:     errMsg,
	}

	ctx, cancel := contextWithTimeout()
	defer cancel()

	if _, err := s.store.InsertImportLog(ctx, log); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

// contextWithTimeout returns a background context with a 5-second timeout for import logging.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
}
