package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleGetHoldings)
		r.Get("/summary", h.HandleGetSummary)
		r.Get("/metrics", h.HandleGetMetrics)
		r.Get("/snapshots", h.HandleGetSnapshots)

		r.Get("/transactions", h.HandleGetTransactions)
		r.Post("/transactions", h.HandleAddTransaction)
		r.Delete("/transactions/{id}", h.HandleDeleteTransaction)
	})
}
