package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all fusion routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/fusion", func(r chi.Router) {
		r.Post("/superposition", h.HandleSuperposition)
		r.Post("/interference", h.HandleInterference)
		r.Post("/decide", h.HandleDecide)
	})
}
