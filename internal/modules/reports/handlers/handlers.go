// Package handlers provides HTTP handlers for stored analysis reports.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/fusor/internal/modules/reports"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles report HTTP requests
type Handler struct {
	repo *reports.Repository
	log  zerolog.Logger
}

// NewHandler creates a new reports handler
func NewHandler(repo *reports.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "reports").Logger(),
	}
}

// HandleList handles GET /api/reports
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	list, err := h.repo.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list reports")
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []reports.StoredReport{}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"reports": list,
			"count":   len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGet handles GET /api/reports/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.repo.Get(id)
	if err != nil {
		if errors.Is(err, reports.ErrNotFound) {
			http.Error(w, "Report not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to load report")
		http.Error(w, "Failed to load report", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
