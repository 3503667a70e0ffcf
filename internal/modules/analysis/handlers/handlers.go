// Package handlers provides HTTP handlers for market analysis.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/fusor/internal/modules/analysis"
	"github.com/aristath/fusor/internal/modules/fusion"
	"github.com/aristath/fusor/internal/modules/streams"
	"github.com/rs/zerolog"
)

// ReportStore persists finished analysis reports
type ReportStore interface {
	Save(report *analysis.Report) (string, error)
}

// Handler handles analysis HTTP requests
type Handler struct {
	service *analysis.Service
	store   ReportStore // nil disables persistence
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, store ReportStore, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		store:   store,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// MarketRequest represents a market analysis request. Optional context
// fields fall back to neutral values.
type MarketRequest struct {
	Volatility  *float64         `json:"volatility,omitempty"`
	Momentum    *float64         `json:"momentum,omitempty"`
	VolumeRatio *float64         `json:"volume_ratio,omitempty"`
	PriceData   []float64        `json:"price_data,omitempty"`
	Streams     []streams.Stream `json:"streams,omitempty"`
}

// ToMarketData resolves optional fields to their neutral defaults
func (r *MarketRequest) ToMarketData() analysis.MarketData {
	data := analysis.MarketData{
		VolumeRatio: 1.0,
		PriceData:   r.PriceData,
		Streams:     r.Streams,
	}
	if r.Volatility != nil {
		data.Volatility = *r.Volatility
	}
	if r.Momentum != nil {
		data.Momentum = *r.Momentum
	}
	if r.VolumeRatio != nil {
		data.VolumeRatio = *r.VolumeRatio
	}
	return data
}

// HandleMarket handles POST /api/analysis/market
func (h *Handler) HandleMarket(w http.ResponseWriter, r *http.Request) {
	var req MarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	report, err := h.service.Analyze(req.ToMarketData())
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

	reportID := ""
	if h.store != nil {
		id, err := h.store.Save(report)
		if err != nil {
			// Persistence failure does not invalidate the analysis
			h.log.Error().Err(err).Msg("Failed to persist analysis report")
		} else {
			reportID = id
		}
	}

	response := map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"report_id": reportID,
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleCapabilities handles GET /api/analysis/capabilities
func (h *Handler) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"data": map[string]interface{}{
			"active_version": h.service.Version(),
			"active":         h.service.Capability(),
			"versions":       analysis.Capabilities(),
		},
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
