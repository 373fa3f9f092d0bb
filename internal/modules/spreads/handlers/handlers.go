// Package handlers provides HTTP handlers for credit spread operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/internal/modules/spreads"
)

// defaultStart matches the dashboard's default observation window.
var defaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Handler handles spreads HTTP requests
type Handler struct {
	service *spreads.Service
	log     zerolog.Logger
}

// NewHandler creates a new spreads handler
func NewHandler(service *spreads.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "spreads").Logger(),
	}
}

// HandleIndexOAS handles GET /api/spreads/index
func (h *Handler) HandleIndexOAS(w http.ResponseWriter, r *http.Request) {
	start := parseStart(r.URL.Query().Get("start"), defaultStart)

	oas, err := h.service.IndexOAS(r.Context(), start)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get index OAS")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"spreads": oas,
			"unit":    "bp",
		},
		"metadata": metadata(start),
	})
}

// HandleHistory handles GET /api/spreads/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	start := parseStart(r.URL.Query().Get("start"), defaultStart)

	table, err := h.service.History(r.Context(), start)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get OAS history")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":     table,
		"metadata": metadata(start),
	})
}

// HandleByRating handles GET /api/spreads/by-rating
func (h *Handler) HandleByRating(w http.ResponseWriter, r *http.Request) {
	start := parseStart(r.URL.Query().Get("start"), defaultStart)

	table, err := h.service.ByRating(r.Context(), start)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get OAS by rating")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":     table,
		"metadata": metadata(start),
	})
}

// HandleYieldsByRating handles GET /api/spreads/yields-by-rating
func (h *Handler) HandleYieldsByRating(w http.ResponseWriter, r *http.Request) {
	start := parseStart(r.URL.Query().Get("start"), defaultStart)

	table, err := h.service.YieldsByRating(r.Context(), start)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get yields by rating")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":     table,
		"metadata": metadata(start),
	})
}

func metadata(start time.Time) map[string]interface{} {
	return map[string]interface{}{
		"start":     start.Format("2006-01-02"),
		"timestamp": time.Now().Format(time.RFC3339),
	}
}

func parseStart(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	switch {
	case domain.IsConfig(err):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case domain.IsUpstream(err):
		http.Error(w, msg, http.StatusBadGateway)
	default:
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
