// Package streams implements parallel multi-stream analysis: each stream of
// observations is reduced to statistical features, fused into a per-stream
// action, and the per-stream actions are aggregated into one signal.
package streams

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/aristath/fusor/internal/modules/fusion"
	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// smaPeriod is the lookback for the moving-average momentum feature
const smaPeriod = 10

// signalGain stretches the combined trend features so a double-digit
// percentage move saturates the tanh squash
const signalGain = 4.0

// Service analyzes batches of data streams
type Service struct {
	engine *fusion.Engine
	pool   *WorkerPool
	log    zerolog.Logger
}

// NewService creates a stream analysis service.
// numWorkers <= 0 selects a CPU-derived default.
func NewService(engine *fusion.Engine, numWorkers int, log zerolog.Logger) *Service {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Service{
		engine: engine,
		pool:   NewWorkerPool(numWorkers),
		log:    log.With().Str("service", "streams").Logger(),
	}
}

// AnalyzeStreams analyzes every stream in parallel and aggregates the
// per-stream actions into a single signal. Per-stream analysis is pure, so
// concurrent and sequential execution agree.
func (s *Service) AnalyzeStreams(streamList []Stream) (*Result, error) {
	if len(streamList) == 0 {
		return nil, fmt.Errorf("%w: no streams", fusion.ErrInvalidInput)
	}

	analyses := s.pool.AnalyzeBatch(streamList, s.analyzeStream)

	result := &Result{
		Timestamp:        time.Now().UTC(),
		StreamsProcessed: len(streamList),
		Analyses:         analyses,
		AggregatedSignal: aggregateSignal(analyses),
	}

	s.log.Debug().
		Int("streams", result.StreamsProcessed).
		Str("signal", result.AggregatedSignal).
		Msg("Stream batch analyzed")

	return result, nil
}

// analyzeStream reduces one stream to candidate decisions, applies
// interference from the stream's own statistics, and picks the most probable
// action. Deterministic: no measurement draw is involved.
func (s *Service) analyzeStream(stream Stream) StreamAnalysis {
	features := extractFeatures(stream.Data)
	candidates := candidatesFromFeatures(features)

	state, err := s.engine.CreateSuperposition(candidates)
	if err != nil {
		// Unreachable: candidatesFromFeatures always returns three candidates
		return StreamAnalysis{Source: stream.Source, Action: fusion.ActionHold}
	}

	state = s.engine.Interference(state, fusion.MarketContext{
		Volatility:  features.dispersion,
		Momentum:    features.trend + features.smaGap,
		VolumeRatio: 1.0,
	})

	best := 0
	for i, p := range state.Probabilities {
		if p > state.Probabilities[best] {
			best = i
		}
	}

	return StreamAnalysis{
		Source:     stream.Source,
		Action:     state.Candidates[best].Action,
		Confidence: state.Probabilities[best],
		Coherence:  state.Coherence,
	}
}

// streamFeatures are the statistical features driving per-stream candidates
type streamFeatures struct {
	trend      float64 // Normalized least-squares slope
	dispersion float64 // Coefficient of variation
	smaGap     float64 // Relative gap between last value and its moving average
}

// extractFeatures computes trend, dispersion and moving-average features.
// Short or degenerate series produce neutral features.
func extractFeatures(data []float64) streamFeatures {
	if len(data) < 2 {
		return streamFeatures{}
	}

	xs := make([]float64, len(data))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, data, nil, false)

	mean := stat.Mean(data, nil)
	var features streamFeatures
	if mean != 0 {
		// Slope per step relative to the series level, stretched so modest
		// trends register after the tanh squash downstream
		features.trend = slope / math.Abs(mean) * float64(len(data))
		features.dispersion = stat.StdDev(data, nil) / math.Abs(mean)
	}

	if len(data) >= smaPeriod {
		sma := talib.Sma(data, smaPeriod)
		last := sma[len(sma)-1]
		if last != 0 {
			features.smaGap = (data[len(data)-1] - last) / last
		}
	}

	return features
}

// candidatesFromFeatures maps features to BUY/SELL/HOLD confidences
func candidatesFromFeatures(f streamFeatures) []fusion.CandidateDecision {
	signal := math.Tanh(signalGain * (f.trend + f.smaGap))
	uncertainty := math.Min(1.0, f.dispersion)

	buy := math.Max(0.0, signal) * (1.0 - 0.5*uncertainty)
	sell := math.Max(0.0, -signal) * (1.0 - 0.5*uncertainty)
	hold := 1.0 - math.Abs(signal)*(1.0-0.5*uncertainty)

	return []fusion.CandidateDecision{
		{Action: fusion.ActionBuy, Confidence: buy},
		{Action: fusion.ActionSell, Confidence: sell},
		{Action: fusion.ActionHold, Confidence: hold},
	}
}

// aggregateSignal reduces per-stream actions to one signal:
// majority vote, then summed confidence, then HOLD on a full tie.
func aggregateSignal(analyses []StreamAnalysis) string {
	votes := make(map[string]int)
	confidence := make(map[string]float64)
	for _, a := range analyses {
		votes[a.Action]++
		confidence[a.Action] += a.Confidence
	}

	actions := []string{fusion.ActionBuy, fusion.ActionSell, fusion.ActionHold}

	maxVotes := 0
	for _, action := range actions {
		if votes[action] > maxVotes {
			maxVotes = votes[action]
		}
	}

	var leaders []string
	for _, action := range actions {
		if votes[action] == maxVotes {
			leaders = append(leaders, action)
		}
	}
	if len(leaders) == 1 {
		return leaders[0]
	}

	signal := ""
	bestConfidence := 0.0
	tied := false
	for _, action := range leaders {
		c := confidence[action]
		switch {
		case signal == "" || c > bestConfidence:
			signal = action
			bestConfidence = c
			tied = false
		case c == bestConfidence:
			tied = true
		}
	}
	if tied {
		return fusion.ActionHold
	}
	return signal
}
