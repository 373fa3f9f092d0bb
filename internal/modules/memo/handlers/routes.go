package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all memo routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/memo", func(r chi.Router) {
		r.Post("/generate", h.HandleGenerate)
	})
}
