// Package handlers provides HTTP handlers for quant analysis.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/internal/modules/quant"
)

// Handler handles quant HTTP requests
type Handler struct {
	service *quant.Service
	log     zerolog.Logger
}

// NewHandler creates a new quant handler
func NewHandler(service *quant.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "quant").Logger(),
	}
}

// HandleMovingAverages handles GET /api/quant/ma/{symbol}
func (h *Handler) HandleMovingAverages(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		http.Error(w, "symbol is required", http.StatusBadRequest)
		return
	}

	windows, err := parseWindows(r.URL.Query().Get("windows"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	analysis, err := h.service.MovingAverageAnalysis(r.Context(), strings.ToUpper(symbol), r.URL.Query().Get("range"), windows)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Moving average analysis failed")
		switch {
		case domain.IsParse(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case domain.IsUpstream(err):
			http.Error(w, "market data unavailable", http.StatusBadGateway)
		default:
			http.Error(w, "analysis failed", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": analysis,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func parseWindows(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, &domain.ParseError{Source: "quant", Err: err}
		}
		out = append(out, w)
	}
	return out, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
