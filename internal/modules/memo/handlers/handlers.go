// Package handlers provides HTTP handlers for credit memo generation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/internal/modules/memo"
)

// Handler handles memo HTTP requests
type Handler struct {
	service *memo.Service
	log     zerolog.Logger
}

// NewHandler creates a new memo handler
func NewHandler(service *memo.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "memo").Logger(),
	}
}

// HandleGenerate handles POST /api/memo/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req memo.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("issuer", req.IssuerName).Msg("Memo generation failed")
		switch {
		case domain.IsConfig(err):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		case domain.IsParse(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case domain.IsUpstream(err):
			http.Error(w, "memo generation failed upstream", http.StatusBadGateway)
		default:
			http.Error(w, "memo generation failed", http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"issuer":    req.IssuerName,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
