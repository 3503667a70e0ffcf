package fusion

// Action constants for candidate decisions
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// CandidateDecision is one possible action with an associated confidence
type CandidateDecision struct {
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"` // Clamped to [0, 1] on ingestion
}

// AmplitudeState is a normalized superposition over candidate decisions.
// Amplitudes satisfy Σ amp² = 1 (Born rule); Probabilities are the squared
// amplitudes and sum to 1.
type AmplitudeState struct {
	Candidates    []CandidateDecision `json:"candidates"`
	Amplitudes    []float64           `json:"amplitudes"`
	Probabilities []float64           `json:"probabilities"`
	Coherence     float64             `json:"coherence"` // 1 = fully peaked, 0 = uniform
}

// MarketContext carries the market features that drive interference
type MarketContext struct {
	Volatility  float64 `json:"volatility"`   // >= 0, dampens adjustments
	Momentum    float64 `json:"momentum"`     // Signed, squashed through tanh
	VolumeRatio float64 `json:"volume_ratio"` // Current/average volume, 1 = neutral
}

// Decision is the outcome of a full fusion pass
type Decision struct {
	Action             string  `json:"action"`
	QuantumProbability float64 `json:"quantum_probability"`
	QuantumCoherence   float64 `json:"quantum_coherence"`
	Index              int     `json:"index"` // Position of the chosen candidate in the input
}
