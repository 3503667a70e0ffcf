// Package handlers provides HTTP handlers for stream analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/fusor/internal/modules/fusion"
	"github.com/aristath/fusor/internal/modules/streams"
	"github.com/rs/zerolog"
)

// Handler handles stream analysis HTTP requests
type Handler struct {
	service *streams.Service
	log     zerolog.Logger
}

// NewHandler creates a new streams handler
func NewHandler(service *streams.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "streams").Logger(),
	}
}

// AnalyzeRequest represents a request to analyze a batch of streams
type AnalyzeRequest struct {
	Streams []streams.Stream `json:"streams"`
}

// HandleAnalyze handles POST /api/streams/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.AnalyzeStreams(req.Streams)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, fusion.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	response := map[string]interface{}{
		"data": result,
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
