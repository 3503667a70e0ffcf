// Package fusion implements the quantum-inspired decision fusion engine.
// The quantum vocabulary (amplitudes, superposition, interference, measurement)
// describes a classical weighted ensemble: confidences become amplitudes,
// squared amplitudes become selection probabilities, and market context applies
// bounded multiplicative adjustments before a weighted random draw.
package fusion

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// amplitudeFloor keeps zero-confidence candidates selectable
const amplitudeFloor = 0.05

// Interference adjustment factors are clamped to this band so a single
// context pass can never erase or explode a candidate.
const (
	minInterferenceFactor = 0.25
	maxInterferenceFactor = 1.75
)

// Engine fuses candidate decisions into a single probabilistic decision.
// Safe for concurrent use: the only mutable state is the rand source,
// guarded by rngMu.
type Engine struct {
	numQubits      int
	stateSpaceSize int // 2^numQubits, capacity ceiling for documentation purposes
	rngMu          sync.Mutex
	rng            *rand.Rand
	log            zerolog.Logger
}

// NewEngine creates an engine with a time-seeded random source
func NewEngine(numQubits int, log zerolog.Logger) *Engine {
	return NewEngineWithSource(numQubits, rand.NewSource(time.Now().UnixNano()), log)
}

// NewEngineWithSource creates an engine with an explicit random source,
// used by tests that need reproducible measurements
func NewEngineWithSource(numQubits int, src rand.Source, log zerolog.Logger) *Engine {
	if numQubits < 1 {
		numQubits = 1
	}
	return &Engine{
		numQubits:      numQubits,
		stateSpaceSize: 1 << numQubits,
		rng:            rand.New(src),
		log:            log.With().Str("component", "fusion_engine").Logger(),
	}
}

// NumQubits returns the configured qubit count
func (e *Engine) NumQubits() int {
	return e.numQubits
}

// StateSpaceSize returns 2^numQubits
func (e *Engine) StateSpaceSize() int {
	return e.stateSpaceSize
}

// CreateSuperposition builds a normalized amplitude state from candidate
// decisions. Each candidate's amplitude is its clamped confidence plus a
// small floor, normalized so the squared amplitudes sum to 1.
func (e *Engine) CreateSuperposition(candidates []CandidateDecision) (*AmplitudeState, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate decisions", ErrInvalidInput)
	}

	n := len(candidates)
	clamped := make([]CandidateDecision, n)
	amplitudes := make([]float64, n)
	for i, c := range candidates {
		conf := clamp01(c.Confidence)
		clamped[i] = CandidateDecision{Action: c.Action, Confidence: conf}
		amplitudes[i] = conf + amplitudeFloor
	}

	normalizeAmplitudes(amplitudes)

	state := &AmplitudeState{
		Candidates:    clamped,
		Amplitudes:    amplitudes,
		Probabilities: squaredProbabilities(amplitudes),
	}
	state.Coherence = coherence(state.Probabilities)

	return state, nil
}

// Interference applies a bounded multiplicative adjustment to each candidate's
// amplitude based on the market context, then renormalizes. The input state is
// left untouched; a new state is returned.
//
// The adjustment rewards directional agreement between a candidate's action
// and the market momentum, scaled by volume ratio and dampened by volatility.
// The clamp and the renormalization make repeated application non-associative:
// two passes with the same context are not one pass with a doubled context.
func (e *Engine) Interference(state *AmplitudeState, ctx MarketContext) *AmplitudeState {
	n := len(state.Amplitudes)
	out := &AmplitudeState{
		Candidates:    append([]CandidateDecision(nil), state.Candidates...),
		Amplitudes:    make([]float64, n),
		Probabilities: make([]float64, n),
	}

	signal := math.Tanh(ctx.Momentum) * ctx.VolumeRatio / (1.0 + math.Abs(ctx.Volatility))
	for i, amp := range state.Amplitudes {
		factor := 1.0 + 0.5*actionDirection(state.Candidates[i].Action)*signal
		factor = math.Max(minInterferenceFactor, math.Min(maxInterferenceFactor, factor))
		out.Amplitudes[i] = amp * factor
	}

	normalizeAmplitudes(out.Amplitudes)
	out.Probabilities = squaredProbabilities(out.Amplitudes)
	out.Coherence = coherence(out.Probabilities)

	return out
}

// Measure performs a single weighted draw over the state's probabilities
// and returns the index of the selected candidate.
func (e *Engine) Measure(state *AmplitudeState) int {
	e.rngMu.Lock()
	r := e.rng.Float64()
	e.rngMu.Unlock()
	cumulative := 0.0
	for i, p := range state.Probabilities {
		cumulative += p
		if r < cumulative {
			return i
		}
	}
	// Floating point slack: the CDF may land a hair under 1
	return len(state.Probabilities) - 1
}

// Decide runs the full pipeline: superposition, interference, measurement.
func (e *Engine) Decide(candidates []CandidateDecision, ctx MarketContext) (Decision, error) {
	state, err := e.CreateSuperposition(candidates)
	if err != nil {
		return Decision{}, err
	}

	state = e.Interference(state, ctx)
	idx := e.Measure(state)

	decision := Decision{
		Action:             state.Candidates[idx].Action,
		QuantumProbability: state.Probabilities[idx],
		QuantumCoherence:   state.Coherence,
		Index:              idx,
	}

	e.log.Debug().
		Str("action", decision.Action).
		Float64("probability", decision.QuantumProbability).
		Float64("coherence", decision.QuantumCoherence).
		Msg("Decision measured")

	return decision, nil
}

// actionDirection maps an action to its momentum alignment sign
func actionDirection(action string) float64 {
	switch action {
	case ActionBuy:
		return 1.0
	case ActionSell:
		return -1.0
	default:
		return 0.0
	}
}

// normalizeAmplitudes rescales amplitudes in place so Σ amp² = 1
func normalizeAmplitudes(amplitudes []float64) {
	sumSquares := 0.0
	for _, a := range amplitudes {
		sumSquares += a * a
	}
	if sumSquares <= 0 {
		// Degenerate state: fall back to uniform amplitudes
		uniform := 1.0 / math.Sqrt(float64(len(amplitudes)))
		for i := range amplitudes {
			amplitudes[i] = uniform
		}
		return
	}
	norm := math.Sqrt(sumSquares)
	for i := range amplitudes {
		amplitudes[i] /= norm
	}
}

// squaredProbabilities applies the Born rule: P = amp²
func squaredProbabilities(amplitudes []float64) []float64 {
	probs := make([]float64, len(amplitudes))
	for i, a := range amplitudes {
		probs[i] = a * a
	}
	return probs
}

// coherence measures how peaked a probability distribution is:
// 1 − H(p)/ln(n). A single-candidate state is fully coherent;
// a uniform distribution has coherence 0.
func coherence(probs []float64) float64 {
	n := len(probs)
	if n <= 1 {
		return 1.0
	}
	entropy := stat.Entropy(probs)
	return clamp01(1.0 - entropy/math.Log(float64(n)))
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
