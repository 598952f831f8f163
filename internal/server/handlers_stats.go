package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/training"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	d, err := s.stats.Dashboard(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	o, err := s.stats.Overview(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	rows, err := s.stats.Records(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleYearReview(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	year, err := pathInt(r, "year")
	if err == nil && (year < 1970 || year > 9999) {
		err = badRequest("year out of range")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	review, err := s.stats.YearReview(r.Context(), uid, year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleExerciseProgress(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.stats.ExerciseProgress(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleMuscleVolume(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	vol, err := s.stats.MuscleVolume(r.Context(), uid, queryInt(r, "weeks", 0))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vol)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	goals, err := s.stats.Goals(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req struct {
		ExerciseID   string  `json:"exercise_id"`
		TargetWeight float64 `json:"target_weight"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.TargetWeight <= 0 {
		s.writeError(w, r, badRequest("target_weight must be positive"))
		return
	}
	ex, err := s.exerciseByID(r, uid, req.ExerciseID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.store.CreateGoal(r.Context(), uid, ex.ID, req.TargetWeight)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g.ExerciseName = ex.Name
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) exerciseByID(r *http.Request, uid int, raw string) (models.Exercise, error) {
	id, err := parseUUID(raw, "exercise_id")
	if err != nil {
		return models.Exercise{}, err
	}
	return s.store.GetExercise(r.Context(), uid, id)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err == nil {
		err = s.store.DeleteGoal(r.Context(), uid, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	m, err := s.stats.Measurements(r.Context(), uid, queryInt(r, "limit", 30))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpsertMeasurement(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date       string   `json:"date"`
		WeightKg   *float64 `json:"weight_kg"`
		BodyFatPct *float64 `json:"body_fat_pct"`
		ChestCm    *float64 `json:"chest_cm"`
		WaistCm    *float64 `json:"waist_cm"`
		HipsCm     *float64 `json:"hips_cm"`
		ArmsCm     *float64 `json:"arms_cm"`
		ThighsCm   *float64 `json:"thighs_cm"`
		Notes      string   `json:"notes"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	date := s.now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		d, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			s.writeError(w, r, badRequest("date must be YYYY-MM-DD"))
			return
		}
		date = d
	}
	for _, v := range []*float64{req.WeightKg, req.BodyFatPct, req.ChestCm, req.WaistCm, req.HipsCm, req.ArmsCm, req.ThighsCm} {
		if v != nil && *v < 0 {
			s.writeError(w, r, badRequest("measurements must not be negative"))
			return
		}
	}
	m, err := s.store.UpsertMeasurement(r.Context(), models.BodyMeasurement{
		UserID:     uid,
		Date:       date,
		WeightKg:   req.WeightKg,
		BodyFatPct: req.BodyFatPct,
		ChestCm:    req.ChestCm,
		WaistCm:    req.WaistCm,
		HipsCm:     req.HipsCm,
		ArmsCm:     req.ArmsCm,
		ThighsCm:   req.ThighsCm,
		Notes:      req.Notes,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err == nil {
		err = s.store.DeleteMeasurement(r.Context(), uid, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}

// maxCalcWeight bounds calculator inputs so results stay finite.
const maxCalcWeight = 100_000

func (s *Server) handleCalcOneRepMax(w http.ResponseWriter, r *http.Request) {
	weight, err := queryFloat(r, "weight")
	if err == nil && !(weight <= maxCalcWeight) {
		err = badRequest("weight out of range")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := strconv.Atoi(r.URL.Query().Get("reps"))
	if err != nil {
		s.writeError(w, r, badRequest("reps must be an integer"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"epley":       training.Epley(weight, n),
		"brzycki":     training.Brzycki(weight, n),
		"one_rep_max": training.OneRepMax(weight, n),
	})
}

func (s *Server) handleCalcTable(w http.ResponseWriter, r *http.Request) {
	oneRM, err := queryFloat(r, "one_rm")
	if err == nil && !(oneRM <= maxCalcWeight) {
		err = badRequest("one_rm out of range")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, training.RepPercentageTable(oneRM))
}

type setTypeInfo struct {
	Value training.SetType `json:"value"`
	Label string           `json:"label"`
}

// handleMeta serves the constants clients need to render the session screen.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	types := make([]setTypeInfo, 0, len(training.SetTypes()))
	for _, t := range training.SetTypes() {
		types = append(types, setTypeInfo{Value: t, Label: t.Label()})
	}
	presets := make([]int, 0, len(training.RestTimerPresets))
	for _, p := range training.RestTimerPresets {
		presets = append(presets, int(p/time.Second))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"set_types":           types,
		"rest_presets_sec":    presets,
		"default_rest_sec":    int(training.DefaultRestPreset / time.Second),
		"weight_increment_kg": training.WeightIncrement,
		"reps_increment":      training.RepsIncrement,
	})
}
