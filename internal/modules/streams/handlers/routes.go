package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all stream analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/streams", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
	})
}
