// Package analysis composes the fusion engine, pattern learner and stream
// aggregator into a versioned market analysis facade.
package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/fusor/internal/modules/fusion"
	"github.com/aristath/fusor/internal/modules/patterns"
	"github.com/aristath/fusor/internal/modules/streams"
	"github.com/rs/zerolog"
)

// recognitionThreshold filters weak pattern scores out of the decision report
const recognitionThreshold = 0.5

// Service is the versioned analysis facade
type Service struct {
	version    string
	capability Capability
	engine     *fusion.Engine
	learner    *patterns.Learner
	streams    *streams.Service
	log        zerolog.Logger
}

// NewService builds an analysis service for the given version tag.
// The capability profile sizes the fusion engine and the stream pool;
// streamWorkers > 0 overrides the profile's stream budget.
func NewService(version string, streamWorkers int, learner *patterns.Learner, log zerolog.Logger) (*Service, error) {
	capability, ok := capabilities[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, version)
	}

	if streamWorkers <= 0 {
		streamWorkers = capability.ParallelStreams
	}

	engine := fusion.NewEngine(capability.MaxQubits, log)

	return &Service{
		version:    version,
		capability: capability,
		engine:     engine,
		learner:    learner,
		streams:    streams.NewService(engine, streamWorkers, log),
		log:        log.With().Str("service", "analysis").Str("version", version).Logger(),
	}, nil
}

// Version returns the service's version tag
func (s *Service) Version() string {
	return s.version
}

// Capability returns the service's capability profile
func (s *Service) Capability() Capability {
	return s.capability
}

// Engine exposes the fusion engine for direct endpoint wiring
func (s *Service) Engine() *fusion.Engine {
	return s.engine
}

// Streams exposes the stream aggregator for direct endpoint wiring
func (s *Service) Streams() *streams.Service {
	return s.streams
}

// Analyze runs a full market analysis: candidate derivation, pattern
// recognition over the price series, fused decision, optional multi-stream
// analysis, and a combined recommendation.
func (s *Service) Analyze(data MarketData) (*Report, error) {
	candidates := candidatesFromMarket(data)

	recognized := map[string]float64{}
	if len(data.PriceData) > 0 {
		for name, score := range s.learner.ScorePatterns(data.PriceData, patterns.KnownPatterns) {
			if score >= recognitionThreshold {
				recognized[name] = score
			}
		}
	}

	ctx := fusion.MarketContext{
		Volatility:  data.Volatility,
		Momentum:    data.Momentum,
		VolumeRatio: volumeRatioOrNeutral(data.VolumeRatio),
	}

	decision, err := s.engine.Decide(candidates, ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Version:   s.version,
		Timestamp: time.Now().UTC(),
		Decision: DecisionReport{
			Action:             decision.Action,
			QuantumProbability: decision.QuantumProbability,
			QuantumCoherence:   decision.QuantumCoherence,
			RecognizedPatterns: recognized,
		},
		Coherence:       decision.QuantumCoherence,
		ConfidenceLevel: decision.QuantumProbability,
		Recommendation:  decision.Action,
	}

	if len(data.Streams) > 0 {
		realtime, err := s.streams.AnalyzeStreams(data.Streams)
		if err != nil {
			return nil, err
		}
		report.RealtimeAnalysis = realtime

		agreement := streamAgreement(realtime)
		report.ConfidenceLevel = math.Sqrt(decision.QuantumProbability * agreement)

		// Disagreeing sub-results with weak combined confidence downgrade
		// the recommendation to HOLD
		if realtime.AggregatedSignal != decision.Action && report.ConfidenceLevel < 0.5 {
			report.Recommendation = fusion.ActionHold
		}
	}

	s.log.Info().
		Str("action", report.Decision.Action).
		Str("recommendation", report.Recommendation).
		Float64("confidence", report.ConfidenceLevel).
		Int("patterns", len(recognized)).
		Bool("realtime", report.RealtimeAnalysis != nil).
		Msg("Market analysis complete")

	return report, nil
}

// Train delegates to the pattern learner
func (s *Service) Train(X [][]float64, y []string) error {
	return s.learner.Train(X, y)
}

// Predict delegates to the pattern learner
func (s *Service) Predict(x []float64) (string, float64, error) {
	return s.learner.Predict(x)
}

// candidatesFromMarket derives BUY/SELL/HOLD candidates from the market
// context: momentum drives direction, volatility drives uncertainty.
func candidatesFromMarket(data MarketData) []fusion.CandidateDecision {
	signal := math.Tanh(data.Momentum)
	damp := 1.0 / (1.0 + math.Abs(data.Volatility))

	buy := math.Max(0.0, signal) * damp
	sell := math.Max(0.0, -signal) * damp
	hold := 1.0 - math.Abs(signal)*damp

	return []fusion.CandidateDecision{
		{Action: fusion.ActionBuy, Confidence: buy},
		{Action: fusion.ActionSell, Confidence: sell},
		{Action: fusion.ActionHold, Confidence: hold},
	}
}

// streamAgreement is the fraction of streams voting for the aggregated signal
func streamAgreement(result *streams.Result) float64 {
	if result.StreamsProcessed == 0 {
		return 0.0
	}
	agreeing := 0
	for _, a := range result.Analyses {
		if a.Action == result.AggregatedSignal {
			agreeing++
		}
	}
	return float64(agreeing) / float64(result.StreamsProcessed)
}

func volumeRatioOrNeutral(v float64) float64 {
	if v == 0 {
		return 1.0
	}
	return v
}
