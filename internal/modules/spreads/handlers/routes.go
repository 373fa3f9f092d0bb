package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all spreads routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/spreads", func(r chi.Router) {
		r.Get("/index", h.HandleIndexOAS)
		r.Get("/history", h.HandleHistory)
		r.Get("/by-rating", h.HandleByRating)
		r.Get("/yields-by-rating", h.HandleYieldsByRating)
	})
}
