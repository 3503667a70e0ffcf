// Package handlers provides HTTP handlers for decision fusion operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/fusor/internal/modules/fusion"
	"github.com/rs/zerolog"
)

// Handler handles fusion HTTP requests
type Handler struct {
	engine *fusion.Engine
	log    zerolog.Logger
}

// NewHandler creates a new fusion handler
func NewHandler(engine *fusion.Engine, log zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		log:    log.With().Str("handler", "fusion").Logger(),
	}
}

// ContextRequest carries optional market context fields.
// Missing fields fall back to neutral values: volatility 0, momentum 0,
// volume ratio 1.
type ContextRequest struct {
	Volatility  *float64 `json:"volatility,omitempty"`
	Momentum    *float64 `json:"momentum,omitempty"`
	VolumeRatio *float64 `json:"volume_ratio,omitempty"`
}

// ToMarketContext resolves optional fields to their neutral defaults
func (c *ContextRequest) ToMarketContext() fusion.MarketContext {
	ctx := fusion.MarketContext{VolumeRatio: 1.0}
	if c == nil {
		return ctx
	}
	if c.Volatility != nil {
		ctx.Volatility = *c.Volatility
	}
	if c.Momentum != nil {
		ctx.Momentum = *c.Momentum
	}
	if c.VolumeRatio != nil {
		ctx.VolumeRatio = *c.VolumeRatio
	}
	return ctx
}

// SuperpositionRequest represents a request to build an amplitude state
type SuperpositionRequest struct {
	Candidates []fusion.CandidateDecision `json:"candidates"`
}

// InterferenceRequest represents a request to apply market interference
type InterferenceRequest struct {
	Candidates []fusion.CandidateDecision `json:"candidates"`
	Context    *ContextRequest            `json:"context,omitempty"`
}

// DecideRequest represents a request for a full fusion decision
type DecideRequest struct {
	Candidates []fusion.CandidateDecision `json:"candidates"`
	Context    *ContextRequest            `json:"context,omitempty"`
}

// HandleSuperposition handles POST /api/fusion/superposition
func (h *Handler) HandleSuperposition(w http.ResponseWriter, r *http.Request) {
	var req SuperpositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	state, err := h.engine.CreateSuperposition(req.Candidates)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": state,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleInterference handles POST /api/fusion/interference
func (h *Handler) HandleInterference(w http.ResponseWriter, r *http.Request) {
	var req InterferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	state, err := h.engine.CreateSuperposition(req.Candidates)
	if err != nil {
		h.writeError(w, err)
		return
	}
	adjusted := h.engine.Interference(state, req.Context.ToMarketContext())

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"before": state,
			"after":  adjusted,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDecide handles POST /api/fusion/decide
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	decision, err := h.engine.Decide(req.Candidates, req.Context.ToMarketContext())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": decision,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeError maps engine errors to HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, fusion.ErrInvalidInput) {
		status = http.StatusBadRequest
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
