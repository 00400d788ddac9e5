package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}

	if s.repo != nil {
		cycles, err := s.repo.ListCycles(r.Context(), 1)
		if err != nil {
			s.logger.Error("Failed to load last cycle", zap.Error(err))
		} else if len(cycles) > 0 {
			status["last_cycle"] = cycles[0]
			status["scale_ratio"] = cycles[0].ScaleRatio.String()
		}
	}

	s.writeJSON(w, status)
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		http.Error(w, "History not enabled", http.StatusNotFound)
		return
	}

	cycles, err := s.repo.ListCycles(r.Context(), 50)
	if err != nil {
		s.logger.Error("Failed to list cycles", zap.Error(err))
		http.Error(w, "Failed to list cycles", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, cycles)
}

func (s *Server) handleCycleDetail(w http.ResponseWriter, r *http.Request) {
	if s.repo == nil {
		http.Error(w, "History not enabled", http.StatusNotFound)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Bad cycle id", http.StatusBadRequest)
		return
	}

	actions, err := s.repo.ListActions(r.Context(), id)
	if err != nil {
		s.logger.Error("Failed to list actions", zap.Error(err))
		http.Error(w, "Failed to list actions", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, map[string]any{"cycle_id": id, "actions": actions})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.service.BuildPlan(r.Context())
	if err != nil {
		s.logger.Error("Failed to build plan", zap.Error(err))
		http.Error(w, "Failed to build plan", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, map[string]any{
		"plan":        plan,
		"description": plan.Describe(),
	})
}
