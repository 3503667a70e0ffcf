package analysis

import (
	"time"

	"github.com/aristath/fusor/internal/modules/streams"
)

// Capability describes the resource profile of one engine version
type Capability struct {
	MaxQubits       int `json:"max_qubits"`
	ParallelStreams int `json:"parallel_streams"`
}

// Engine version tags
const (
	VersionV30 = "3.0"
	VersionV34 = "3.4"
	VersionV40 = "4.0"
)

// capabilities maps version tags to their resource profiles.
// Versions differ only in capacity; behavior is identical.
var capabilities = map[string]Capability{
	VersionV30: {MaxQubits: 8, ParallelStreams: 5},
	VersionV34: {MaxQubits: 12, ParallelStreams: 10},
	VersionV40: {MaxQubits: 16, ParallelStreams: 20},
}

// Capabilities returns the full version table
func Capabilities() map[string]Capability {
	out := make(map[string]Capability, len(capabilities))
	for k, v := range capabilities {
		out[k] = v
	}
	return out
}

// MarketData is the input to a full market analysis
type MarketData struct {
	Volatility  float64          `json:"volatility"`
	Momentum    float64          `json:"momentum"`
	VolumeRatio float64          `json:"volume_ratio"`
	PriceData   []float64        `json:"price_data,omitempty"`
	Streams     []streams.Stream `json:"streams,omitempty"`
}

// DecisionReport is the decision section of an analysis report
type DecisionReport struct {
	Action             string             `json:"action"`
	QuantumProbability float64            `json:"quantum_probability"`
	QuantumCoherence   float64            `json:"quantum_coherence"`
	RecognizedPatterns map[string]float64 `json:"recognized_patterns"`
}

// Report is the full market analysis output
type Report struct {
	Version          string          `json:"version"`
	Timestamp        time.Time       `json:"timestamp"`
	Decision         DecisionReport  `json:"decision"`
	RealtimeAnalysis *streams.Result `json:"realtime_analysis,omitempty"`
	ConfidenceLevel  float64         `json:"confidence_level"`
	Coherence        float64         `json:"coherence"`
	Recommendation   string          `json:"recommendation"`
}
