package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all rates routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/rates", func(r chi.Router) {
		r.Get("/core", h.HandleCoreRates)
		r.Get("/curve", h.HandleCurve)
		r.Get("/treasury10y", h.HandleTreasury10Y)
	})
}
