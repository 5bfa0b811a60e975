package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xolan/worktime/internal/reconcile"
	"github.com/xolan/worktime/internal/service"
	"github.com/xolan/worktime/internal/timeutil"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHours(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}

	daily, err := s.hours.Daily(r.Context(), day)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to compute daily hours")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"date":  timeutil.DayKey(daily.Date),
		"hours": daily.Hours,
	})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}

	plan, err := s.allocation.Plan(r.Context(), day)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to plan allocation")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	day, ok := s.parseDay(w, r)
	if !ok {
		return
	}

	result, err := s.allocation.RunDailyAllocation(r.Context(), day)
	if err == nil {
		s.writeJSON(w, http.StatusOK, result)
		return
	}

	switch {
	case errors.Is(err, service.ErrRunInProgress):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNoGateway):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, reconcile.ErrGateway):
		s.writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":  err.Error(),
			"result": result,
		})
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	history, err := s.history.Runs(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(history.Warnings) > 0 {
		s.log.Warn().Int("corrupted_lines", len(history.Warnings)).Msg("Run history has unreadable lines")
	}

	s.writeJSON(w, http.StatusOK, history.Runs)
}

// parseDay reads the {date} URL parameter; "today" and "yesterday" are accepted.
func (s *Server) parseDay(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	day, err := timeutil.ParseDay(chi.URLParam(r, "date"), s.now().In(s.loc))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return time.Time{}, false
	}
	return day, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
