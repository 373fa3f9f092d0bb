package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all news routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/news", func(r chi.Router) {
		r.Get("/headlines", h.HandleHeadlines)
		r.Get("/search", h.HandleSearch)
		r.Get("/themes", h.HandleThemes)
	})
}
