package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all pattern learner routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/patterns", func(r chi.Router) {
		r.Post("/score", h.HandleScore)
		r.Post("/train", h.HandleTrain)
		r.Post("/predict", h.HandlePredict)
	})
}
