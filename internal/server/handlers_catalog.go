package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type exerciseRequest struct {
	Name       string     `json:"name"`
	CategoryID *uuid.UUID `json:"category_id"`
}

type routineRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	ExerciseIDs []uuid.UUID `json:"exercise_ids"`
}

// invalidate drops cached statistics after the user's data changed.
func (s *Server) invalidate(uid int) {
	if s.stats != nil {
		s.stats.Invalidate(uid)
	}
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", badRequest("name is required")
	}
	return name, nil
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	cats, err := s.store.ListCategories(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name, err := requireName(req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cat, err := s.store.CreateCategory(r.Context(), uid, name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err == nil {
		err = s.store.DeleteCategory(r.Context(), uid, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	exercises, err := s.store.ListExercises(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.store.GetExercise(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req exerciseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name, err := requireName(req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.store.CreateExercise(r.Context(), uid, name, req.CategoryID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req exerciseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name, err := requireName(req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.store.UpdateExercise(r.Context(), uid, id, name, req.CategoryID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err == nil {
		err = s.store.DeleteExercise(r.Context(), uid, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRoutines(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	routines, err := s.store.ListRoutines(r.Context(), uid, queryInt(r, "limit", 0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routines)
}

func (s *Server) handleGetRoutine(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	routine, err := s.store.GetRoutine(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

func (s *Server) handleCreateRoutine(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req routineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name, err := requireName(req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	routine, err := s.store.CreateRoutine(r.Context(), uid, name, req.Description, req.ExerciseIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusCreated, routine)
}

func (s *Server) handleUpdateRoutine(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req routineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name, err := requireName(req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	routine, err := s.store.UpdateRoutine(r.Context(), uid, id, name, req.Description, req.ExerciseIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, routine)
}

func (s *Server) handleDeleteRoutine(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err == nil {
		err = s.store.DeleteRoutine(r.Context(), uid, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}
