package streams

import "time"

// Stream is one named series of observations to analyze
type Stream struct {
	Source string    `json:"source"`
	Data   []float64 `json:"data"`
}

// StreamAnalysis is the per-stream outcome
type StreamAnalysis struct {
	Source     string  `json:"source"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Coherence  float64 `json:"coherence"`
}

// Result aggregates per-stream analyses into a single signal
type Result struct {
	Timestamp        time.Time        `json:"timestamp"`
	StreamsProcessed int              `json:"streams_processed"`
	Analyses         []StreamAnalysis `json:"analyses"`
	AggregatedSignal string           `json:"aggregated_signal"`
}
