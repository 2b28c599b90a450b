package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/quantfolio/internal/domain"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "quantfolio",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleTriggerRun runs the pipeline synchronously and publishes the result.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	cfg := s.runCfg
	cfg.End = time.Now().UTC()

	result, err := s.runner.Run(r.Context(), cfg)
	if err != nil {
		s.log.Error().Err(err).Msg("Manual pipeline run failed")
		s.writeRunError(w, err)
		return
	}

	s.Publish(result)
	s.writeJSON(w, http.StatusOK, result)
}

// handleLatestRun serves the most recent pipeline result.
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	latest := s.Latest()
	if latest == nil {
		s.writeError(w, http.StatusNotFound, "no pipeline run available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, latest)
}

// handleWeights serves the optimized weights of the latest run.
func (s *Server) handleWeights(w http.ResponseWriter, r *http.Request) {
	latest := s.Latest()
	if latest == nil {
		s.writeError(w, http.StatusNotFound, "no pipeline run available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  latest.ID,
		"weights": latest.Weights,
	})
}

// handleReport serves the performance metrics of the latest run.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	latest := s.Latest()
	if latest == nil {
		s.writeError(w, http.StatusNotFound, "no pipeline run available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":         latest.ID,
		"report":         latest.Report,
		"outperformance": latest.Outperformance,
	})
}

// handleAllocation serves the discrete allocation of the latest run.
func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
	latest := s.Latest()
	if latest == nil {
		s.writeError(w, http.StatusNotFound, "no pipeline run available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":     latest.ID,
		"allocation": latest.Allocation,
	})
}

// handleMomentum serves the momentum table of the latest run.
func (s *Server) handleMomentum(w http.ResponseWriter, r *http.Request) {
	latest := s.Latest()
	if latest == nil {
		s.writeError(w, http.StatusNotFound, "no pipeline run available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":   latest.ID,
		"momentum": latest.Momentum,
		"excluded": latest.Excluded,
		"selected": latest.Selected,
	})
}

// writeRunError maps pipeline failures to HTTP statuses. Domain failures
// (infeasible budget, failed optimization) are client-visible 422s; anything
// else is a 502 since the run depends on upstream market data.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	var optErr *domain.OptimizationError
	var budgetErr *domain.BudgetError
	switch {
	case errors.As(err, &optErr), errors.As(err, &budgetErr):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
