package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all markets routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/markets", func(r chi.Router) {
		r.Get("/move", h.HandleMove)
		r.Get("/cds-proxy", h.HandleCDSProxy)
		r.Get("/history/{symbol}", h.HandleHistory)
		r.Get("/compare", h.HandleCompare)
		r.Get("/quotes", h.HandleQuotes)
		r.Get("/stream", h.HandleStream)
	})
}
