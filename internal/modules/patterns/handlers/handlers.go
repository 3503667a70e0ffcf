// Package handlers provides HTTP handlers for pattern learning operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/fusor/internal/modules/fusion"
	"github.com/aristath/fusor/internal/modules/patterns"
	"github.com/rs/zerolog"
)

// Handler handles pattern learner HTTP requests
type Handler struct {
	learner *patterns.Learner
	log     zerolog.Logger
}

// NewHandler creates a new patterns handler
func NewHandler(learner *patterns.Learner, log zerolog.Logger) *Handler {
	return &Handler{
		learner: learner,
		log:     log.With().Str("handler", "patterns").Logger(),
	}
}

// ScoreRequest represents a request to score a series against pattern templates.
// Omitting names scores every known pattern.
type ScoreRequest struct {
	Series []float64 `json:"series"`
	Names  []string  `json:"names,omitempty"`
}

// TrainRequest represents a request to train the pattern model
type TrainRequest struct {
	Features [][]float64 `json:"features"`
	Labels   []string    `json:"labels"`
}

// PredictRequest represents a request to classify a feature vector
type PredictRequest struct {
	Features []float64 `json:"features"`
}

// HandleScore handles POST /api/patterns/score
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	names := req.Names
	if len(names) == 0 {
		names = patterns.KnownPatterns
	}

	scores := h.learner.ScorePatterns(req.Series, names)

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"scores":        scores,
			"series_length": len(req.Series),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTrain handles POST /api/patterns/train
func (h *Handler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.learner.Train(req.Features, req.Labels); err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"trained": true,
			"rows":    len(req.Features),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandlePredict handles POST /api/patterns/predict
func (h *Handler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	label, confidence, err := h.learner.Predict(req.Features)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"label":      label,
			"confidence": confidence,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeError maps learner errors to HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fusion.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, patterns.ErrNotTrained):
		status = http.StatusConflict
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
