package server

import (
	"encoding/json"
	"net/http"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/workout"
	"github.com/google/uuid"
)

// draftResponse is a draft plus the record it just set, if any.
type draftResponse struct {
	workout.Draft
	Record *workout.RecordEvent `json:"record,omitempty"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sessions, err := s.store.CompletedSessions(r.Context(), models.SessionFilter{
		UserIDs: []int{uid},
		From:    start,
		To:      end,
		Limit:   queryInt(r, "limit", 50),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]stats.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, stats.Summarize(sess))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.store.GetSession(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"summary": stats.Summarize(sess),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err == nil {
		err = s.store.DeleteSession(r.Context(), uid, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompareSessions(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	a, errA := uuid.Parse(r.URL.Query().Get("a"))
	b, errB := uuid.Parse(r.URL.Query().Get("b"))
	if errA != nil || errB != nil {
		s.writeError(w, r, badRequest("a and b must be session ids"))
		return
	}
	cmp, err := s.stats.CompareSessions(r.Context(), uid, a, b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req struct {
		RoutineID uuid.UUID `json:"routine_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.RoutineID == uuid.Nil {
		s.writeError(w, r, badRequest("routine_id is required"))
		return
	}
	d, err := s.workouts.Start(r.Context(), uid, req.RoutineID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	drafts, err := s.workouts.List(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.workouts.Get(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleUpdateSet edits one field of one set. Value is passed through untyped so
// "80", 80 and null all reach the coercion rules.
func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Exercise int             `json:"exercise"`
		Set      int             `json:"set"`
		Field    string          `json:"field"`
		Value    json.RawMessage `json:"value"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var value any
	if len(req.Value) > 0 {
		if err := json.Unmarshal(req.Value, &value); err != nil {
			s.writeError(w, r, badRequest("invalid value"))
			return
		}
	}
	d, rec, err := s.workouts.UpdateSet(r.Context(), uid, id, req.Exercise, req.Set, req.Field, value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Draft: d, Record: rec})
}

// handleAdjust applies ± steps to weight or reps. Steps default to +1.
func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Exercise int    `json:"exercise"`
		Set      int    `json:"set"`
		Field    string `json:"field"`
		Steps    *int   `json:"steps"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	steps := 1
	if req.Steps != nil {
		steps = *req.Steps
	}

	var (
		d   workout.Draft
		rec *workout.RecordEvent
	)
	switch req.Field {
	case workout.FieldWeight:
		d, rec, err = s.workouts.AdjustWeight(r.Context(), uid, id, req.Exercise, req.Set, steps)
	case workout.FieldReps:
		d, err = s.workouts.AdjustReps(r.Context(), uid, id, req.Exercise, req.Set, steps)
	default:
		err = badRequest("field must be %q or %q", workout.FieldWeight, workout.FieldReps)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Draft: d, Record: rec})
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Exercise int `json:"exercise"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.workouts.AddSet(r.Context(), uid, id, req.Exercise)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	exercise, err := pathInt(r, "exercise")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	set, err := pathInt(r, "set")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.workouts.RemoveSet(r.Context(), uid, id, exercise, set)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Exercise int `json:"exercise"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.workouts.SetCurrent(r.Context(), uid, id, req.Exercise)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	// The body is optional.
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	summary, err := s.workouts.Finish(r.Context(), uid, id, req.Notes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err == nil {
		err = s.workouts.Discard(r.Context(), uid, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
