package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/repcycle/internal/coach"
	"github.com/claude/repcycle/internal/models"
)

type createMesocycleRequest struct {
	Name       string               `json:"name"`
	TotalWeeks int                  `json:"total_weeks"`
	StartDate  string               `json:"start_date"`
	TemplateID *int                 `json:"template_id,omitempty"`
	Days       []models.TemplateDay `json:"days,omitempty"`
}

func (s *Server) handleCreateMesocycle(w http.ResponseWriter, r *http.Request) {
	var req createMesocycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.StartDate == "" {
		writeError(w, models.Missing("start_date"))
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date, expected YYYY-MM-DD"})
		return
	}

	detail, err := s.coach.CreateMesocycle(r.Context(), userIDFromContext(r), coach.CreateMesocycleInput{
		Name:       req.Name,
		TotalWeeks: req.TotalWeeks,
		StartDate:  start,
		TemplateID: req.TemplateID,
		Days:       req.Days,
	})
	if err != nil {
		s.fail(w, r, "create mesocycle", err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (s *Server) handleActiveMesocycle(w http.ResponseWriter, r *http.Request) {
	detail, err := s.coach.GetActiveMesocycle(r.Context(), userIDFromContext(r))
	if err != nil {
		s.fail(w, r, "active mesocycle", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleGetMesocycle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	detail, err := s.coach.GetMesocycle(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.fail(w, r, "get mesocycle", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleMesocycleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	summary, err := s.coach.MesocycleSummary(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.fail(w, r, "mesocycle summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleAdvanceWeek(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	result, err := s.coach.AdvanceWeek(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.fail(w, r, "advance week", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteMesocycle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.coach.DeleteMesocycle(r.Context(), userIDFromContext(r), id); err != nil {
		s.fail(w, r, "delete mesocycle", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	sess, err := s.coach.GetSession(r.Context(), userIDFromContext(r), id)
	if err != nil {
		s.fail(w, r, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type completeSessionRequest struct {
	DurationSec int `json:"duration_sec"`
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	// The body is optional.
	var req completeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	sess, err := s.coach.CompleteSession(r.Context(), userIDFromContext(r), id, req.DurationSec)
	if err != nil {
		s.fail(w, r, "complete session", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRecordFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var in models.FeedbackInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	result, err := s.coach.RecordFeedback(r.Context(), userIDFromContext(r), id, in)
	if err != nil {
		s.fail(w, r, "record feedback", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleLogExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var log coach.ExerciseLog
	if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	ex, err := s.coach.LogExercise(r.Context(), userIDFromContext(r), id, log)
	if err != nil {
		s.fail(w, r, "log exercise", err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	rec, err := s.coach.GetRecommendations(r.Context(), userIDFromContext(r))
	if err != nil {
		s.fail(w, r, "recommendations", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListLandmarks(w http.ResponseWriter, r *http.Request) {
	landmarks, err := s.coach.ListLandmarks(r.Context(), userIDFromContext(r))
	if err != nil {
		s.fail(w, r, "list landmarks", err)
		return
	}
	writeJSON(w, http.StatusOK, landmarks)
}

type setLandmarkRequest struct {
	MEV *int `json:"mev"`
	MAV *int `json:"mav"`
	MRV *int `json:"mrv"`
}

func (s *Server) handleSetLandmark(w http.ResponseWriter, r *http.Request) {
	mgID, err := strconv.Atoi(chi.URLParam(r, "muscleGroupID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid muscle group ID"})
		return
	}
	var req setLandmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	switch {
	case req.MEV == nil:
		writeError(w, models.Missing("mev"))
		return
	case req.MAV == nil:
		writeError(w, models.Missing("mav"))
		return
	case req.MRV == nil:
		writeError(w, models.Missing("mrv"))
		return
	}
	l, err := s.coach.SetLandmark(r.Context(), userIDFromContext(r), mgID, *req.MEV, *req.MAV, *req.MRV)
	if err != nil {
		s.fail(w, r, "set landmark", err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// fail logs unexpected errors and writes the mapped response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		s.log.Error(op+" error", "user_id", userIDFromContext(r), "error", err)
	}
	writeError(w, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvariantViolation):
		return http.StatusConflict
	case errors.Is(err, models.ErrIncompleteInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
