package patterns

// Known pattern template names
const (
	PatternBullishMomentum = "BULLISH_MOMENTUM"
	PatternBearishMomentum = "BEARISH_MOMENTUM"
	PatternConsolidation   = "CONSOLIDATION"
	PatternBreakout        = "BREAKOUT"
	PatternReversal        = "REVERSAL"
)

// KnownPatterns lists every pattern name with a template
var KnownPatterns = []string{
	PatternBullishMomentum,
	PatternBearishMomentum,
	PatternConsolidation,
	PatternBreakout,
	PatternReversal,
}

// classInfo holds the learned representation of one label
type classInfo struct {
	Centroid []float64 `msgpack:"centroid"`
	Weight   float64   `msgpack:"weight"` // Fraction of training rows with this label
	Count    int       `msgpack:"count"`
}

// store is an immutable trained model. Train builds a complete store and
// swaps the reference; readers never observe a partial one.
type store struct {
	Dim     int                   `msgpack:"dim"`
	Mean    []float64             `msgpack:"mean"` // Batch mean used for the entangling transform
	Classes map[string]*classInfo `msgpack:"classes"`
}
