package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all quant routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/quant", func(r chi.Router) {
		r.Get("/ma/{symbol}", h.HandleMovingAverages)
	})
}
