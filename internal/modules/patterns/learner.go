// Package patterns implements the pattern learner: an entangling feature
// transform, correlation-based pattern recognition, and a centroid
// classifier over entangled features.
package patterns

import (
	"fmt"
	"math"
	"sync"

	"github.com/aristath/fusor/internal/modules/fusion"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// entangleAlpha controls how strongly rows are mixed toward the batch mean
const entangleAlpha = 0.25

// Learner learns labeled feature patterns and recognizes named price patterns
type Learner struct {
	mu    sync.RWMutex
	model *store // nil until the first successful Train
	log   zerolog.Logger
}

// NewLearner creates an untrained pattern learner
func NewLearner(log zerolog.Logger) *Learner {
	return &Learner{
		log: log.With().Str("component", "pattern_learner").Logger(),
	}
}

// Entangle applies a deterministic shape-preserving mixing transform:
// every row is pulled toward the batch mean direction through
// T = (1−α)·I + α·mmᵀ/‖m‖², making rows statistically correlated.
// Returns a new matrix; the input is untouched.
func (l *Learner) Entangle(X [][]float64) ([][]float64, error) {
	if err := validateMatrix(X); err != nil {
		return nil, err
	}

	mean := columnMean(X)
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = entangleRow(row, mean)
	}
	return out, nil
}

// entangleRow applies (1−α)v + α·(m·v/‖m‖²)·m via gonum. A zero mean
// direction degenerates to the identity.
func entangleRow(row, mean []float64) []float64 {
	d := len(row)
	m := mat.NewVecDense(d, mean)
	normSq := mat.Dot(m, m)
	if normSq == 0 {
		return append([]float64(nil), row...)
	}

	v := mat.NewVecDense(d, row)
	projection := mat.Dot(m, v) / normSq

	out := mat.NewVecDense(d, nil)
	out.AddScaledVec(out, 1.0-entangleAlpha, v)
	out.AddScaledVec(out, entangleAlpha*projection, m)

	result := make([]float64, d)
	copy(result, out.RawVector().Data)
	return result
}

// ScorePatterns correlates a price series against a synthetic template per
// requested pattern name. Scores are Pearson correlations clipped to [0, 1];
// unknown names and degenerate series score 0. Every requested name appears
// in the result.
func (l *Learner) ScorePatterns(series []float64, names []string) map[string]float64 {
	scores := make(map[string]float64, len(names))
	for _, name := range names {
		scores[name] = 0.0
	}

	if len(series) < 3 || stat.StdDev(series, nil) == 0 {
		return scores
	}

	for _, name := range names {
		template := patternTemplate(name, len(series))
		if template == nil {
			continue
		}
		corr := stat.Correlation(series, template, nil)
		if math.IsNaN(corr) {
			continue
		}
		scores[name] = math.Max(0.0, math.Min(1.0, corr))
	}

	return scores
}

// patternTemplate returns the synthetic shape for a known pattern name,
// sampled at n points. Unknown names return nil.
func patternTemplate(name string, n int) []float64 {
	t := make([]float64, n)
	span := float64(n - 1)

	switch name {
	case PatternBullishMomentum:
		for i := range t {
			t[i] = float64(i) / span
		}
	case PatternBearishMomentum:
		for i := range t {
			t[i] = 1.0 - float64(i)/span
		}
	case PatternConsolidation:
		// Oscillation around a level
		for i := range t {
			t[i] = math.Sin(4.0 * math.Pi * float64(i) / span)
		}
	case PatternBreakout:
		// Flat base, then a sharp rise over the final third
		base := 2 * n / 3
		for i := range t {
			if i < base {
				t[i] = 0.0
			} else {
				t[i] = float64(i-base) / math.Max(1, float64(n-1-base))
			}
		}
	case PatternReversal:
		// Decline into a trough, then recovery
		for i := range t {
			t[i] = math.Abs(float64(i)/span - 0.5)
		}
	default:
		return nil
	}

	return t
}

// Train fits per-label centroids over entangled rows and swaps the learned
// store atomically. A failed Train leaves the previous model in place.
func (l *Learner) Train(X [][]float64, y []string) error {
	if err := validateMatrix(X); err != nil {
		return err
	}
	if len(y) != len(X) {
		return fmt.Errorf("%w: %d rows but %d labels", fusion.ErrInvalidInput, len(X), len(y))
	}

	entangled, err := l.Entangle(X)
	if err != nil {
		return err
	}

	dim := len(X[0])
	classes := make(map[string]*classInfo)
	for i, label := range y {
		info, ok := classes[label]
		if !ok {
			info = &classInfo{Centroid: make([]float64, dim)}
			classes[label] = info
		}
		for j, v := range entangled[i] {
			info.Centroid[j] += v
		}
		info.Count++
	}

	total := float64(len(X))
	for _, info := range classes {
		for j := range info.Centroid {
			info.Centroid[j] /= float64(info.Count)
		}
		info.Weight = float64(info.Count) / total
	}

	model := &store{
		Dim:     dim,
		Mean:    columnMean(X),
		Classes: classes,
	}

	l.mu.Lock()
	l.model = model
	l.mu.Unlock()

	l.log.Info().
		Int("rows", len(X)).
		Int("classes", len(classes)).
		Int("dim", dim).
		Msg("Pattern model trained")

	return nil
}

// Predict classifies a feature vector against the learned centroids.
// Confidence is the relative closeness of the nearest centroid over the
// runner-up; a single-class store uses 1/(1+d).
func (l *Learner) Predict(x []float64) (string, float64, error) {
	l.mu.RLock()
	model := l.model
	l.mu.RUnlock()

	if model == nil || len(model.Classes) == 0 {
		return "", 0, ErrNotTrained
	}
	if len(x) != model.Dim {
		return "", 0, fmt.Errorf("%w: expected %d features, got %d", fusion.ErrInvalidInput, model.Dim, len(x))
	}

	entangled := entangleRow(x, model.Mean)

	bestLabel := ""
	bestDist := math.Inf(1)
	secondDist := math.Inf(1)
	for label, info := range model.Classes {
		d := euclidean(entangled, info.Centroid)
		if d < bestDist {
			secondDist = bestDist
			bestDist = d
			bestLabel = label
		} else if d < secondDist {
			secondDist = d
		}
	}

	var confidence float64
	if math.IsInf(secondDist, 1) {
		confidence = 1.0 / (1.0 + bestDist)
	} else if bestDist+secondDist == 0 {
		confidence = 0.5
	} else {
		confidence = secondDist / (bestDist + secondDist)
	}

	return bestLabel, math.Max(0.0, math.Min(1.0, confidence)), nil
}

// Trained reports whether a model is available
func (l *Learner) Trained() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.model != nil && len(l.model.Classes) > 0
}

// validateMatrix checks for a non-empty rectangular matrix with d >= 1
func validateMatrix(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: empty matrix", fusion.ErrInvalidInput)
	}
	dim := len(X[0])
	if dim < 1 {
		return fmt.Errorf("%w: zero-width rows", fusion.ErrInvalidInput)
	}
	for i, row := range X {
		if len(row) != dim {
			return fmt.Errorf("%w: row %d has %d features, expected %d", fusion.ErrInvalidInput, i, len(row), dim)
		}
	}
	return nil
}

// columnMean computes the per-column mean of a rectangular matrix
func columnMean(X [][]float64) []float64 {
	dim := len(X[0])
	mean := make([]float64, dim)
	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(X))
	}
	return mean
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
