// Package handlers provides HTTP handlers for rate operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/internal/modules/rates"
)

// Handler handles rates HTTP requests
type Handler struct {
	service *rates.Service
	log     zerolog.Logger
}

// NewHandler creates a new rates handler
func NewHandler(service *rates.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rates").Logger(),
	}
}

// HandleCoreRates handles GET /api/rates/core
func (h *Handler) HandleCoreRates(w http.ResponseWriter, r *http.Request) {
	coreRates, err := h.service.CoreRates(r.Context())
	if err != nil {
		h.writeDomainError(w, err, "Failed to get core rates")
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"rates": coreRates,
			"count": len(coreRates),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCurve handles GET /api/rates/curve
func (h *Handler) HandleCurve(w http.ResponseWriter, r *http.Request) {
	start := parseStart(r.URL.Query().Get("start"), time.Now().AddDate(-5, 0, 0))
	freq, err := rates.ParseFrequency(r.URL.Query().Get("freq"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	table, err := h.service.Curve(r.Context(), start, freq)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get yield curve")
		return
	}

	response := map[string]interface{}{
		"data": table,
		"metadata": map[string]interface{}{
			"start":     start.Format("2006-01-02"),
			"frequency": string(freq),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTreasury10Y handles GET /api/rates/treasury10y
func (h *Handler) HandleTreasury10Y(w http.ResponseWriter, r *http.Request) {
	start := parseStart(r.URL.Query().Get("start"), time.Now().AddDate(-1, 0, 0))

	series, err := h.service.Treasury10Y(r.Context(), start)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get 10Y treasury series")
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"series": series,
			"unit":   "bp",
		},
		"metadata": map[string]interface{}{
			"start":     start.Format("2006-01-02"),
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
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
