// Package handlers provides HTTP handlers for news operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/domain"
	"github.com/creditdesk/creditdesk/internal/modules/news"
)

// Handler handles news HTTP requests
type Handler struct {
	service *news.Service
	log     zerolog.Logger
}

// NewHandler creates a new news handler
func NewHandler(service *news.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "news").Logger(),
	}
}

// HandleHeadlines handles GET /api/news/headlines
func (h *Handler) HandleHeadlines(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	items, err := h.service.Headlines(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, err, "Failed to get headlines")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"articles": items,
			"count":    len(items),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleSearch handles GET /api/news/search
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := news.SearchRequest{
		Query: q.Get("q"),
		Theme: q.Get("theme"),
		From:  q.Get("from"),
		To:    q.Get("to"),
	}
	if raw := q.Get("sources"); raw != "" {
		req.Sources = strings.Split(raw, ",")
	}

	items, err := h.service.Search(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, err, "Failed to search news")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"articles": items,
			"count":    len(items),
		},
		"metadata": map[string]interface{}{
			"query":     req.Query,
			"theme":     req.Theme,
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleThemes handles GET /api/news/themes
func (h *Handler) HandleThemes(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"themes": h.service.Themes(),
		},
	})
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	switch {
	case domain.IsConfig(err):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case domain.IsParse(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
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
