package patterns

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/aristath/fusor/internal/modules/fusion"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLearner() *Learner {
	return NewLearner(zerolog.Nop())
}

func TestLearner_Entangle(t *testing.T) {
	l := testLearner()

	X := [][]float64{
		{1.0, 2.0, 3.0},
		{4.0, 5.0, 6.0},
	}

	out, err := l.Entangle(X)
	require.NoError(t, err)

	// Shape preserved
	require.Len(t, out, 2)
	for _, row := range out {
		assert.Len(t, row, 3)
	}

	// Input untouched
	assert.Equal(t, [][]float64{{1.0, 2.0, 3.0}, {4.0, 5.0, 6.0}}, X)

	// Deterministic
	again, err := l.Entangle(X)
	require.NoError(t, err)
	assert.Equal(t, out, again)

	// Entangling pulls rows toward a shared direction: the angle between
	// the two output rows is smaller than between the inputs
	assert.Greater(t, cosine(out[0], out[1]), cosine(X[0], X[1]))
}

func TestLearner_Entangle_InvalidInput(t *testing.T) {
	l := testLearner()

	_, err := l.Entangle(nil)
	assert.ErrorIs(t, err, fusion.ErrInvalidInput)

	_, err = l.Entangle([][]float64{{}})
	assert.ErrorIs(t, err, fusion.ErrInvalidInput)

	_, err = l.Entangle([][]float64{{1, 2}, {1, 2, 3}})
	assert.ErrorIs(t, err, fusion.ErrInvalidInput)
}

func TestLearner_Entangle_ZeroMean(t *testing.T) {
	l := testLearner()

	// Rows cancel out: zero batch mean degenerates to the identity
	X := [][]float64{
		{1.0, -1.0},
		{-1.0, 1.0},
	}
	out, err := l.Entangle(X)
	require.NoError(t, err)
	assert.Equal(t, X, out)
}

func TestLearner_ScorePatterns(t *testing.T) {
	l := testLearner()

	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = 100.0 + float64(i)*0.5
	}

	names := []string{PatternBullishMomentum, PatternBearishMomentum, "NOT_A_PATTERN"}
	scores := l.ScorePatterns(rising, names)

	// Every requested name is present
	require.Len(t, scores, 3)

	assert.Greater(t, scores[PatternBullishMomentum], 0.9)
	assert.Equal(t, 0.0, scores[PatternBearishMomentum]) // Negative correlation clips to 0
	assert.Equal(t, 0.0, scores["NOT_A_PATTERN"])
}

func TestLearner_ScorePatterns_DegenerateSeries(t *testing.T) {
	l := testLearner()

	// Constant series has no variance; everything scores 0
	flat := []float64{5, 5, 5, 5, 5}
	scores := l.ScorePatterns(flat, KnownPatterns)
	for name, score := range scores {
		assert.Equal(t, 0.0, score, "pattern %s", name)
	}

	// Too-short series likewise
	scores = l.ScorePatterns([]float64{1, 2}, KnownPatterns)
	for name, score := range scores {
		assert.Equal(t, 0.0, score, "pattern %s", name)
	}
}

func TestLearner_TrainPredict(t *testing.T) {
	l := testLearner()

	// Predict before train
	_, _, err := l.Predict([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrNotTrained)
	assert.False(t, l.Trained())

	X := [][]float64{
		{1.0, 1.0, 1.0},
		{1.1, 0.9, 1.0},
		{10.0, 10.0, 10.0},
		{9.8, 10.2, 10.0},
	}
	y := []string{"low", "low", "high", "high"}

	require.NoError(t, l.Train(X, y))
	assert.True(t, l.Trained())

	// Exact training rows classify to their own label with confidence > 0.5
	for i, row := range X {
		label, conf, err := l.Predict(row)
		require.NoError(t, err)
		assert.Equal(t, y[i], label, "row %d", i)
		assert.Greater(t, conf, 0.5, "row %d", i)
		assert.LessOrEqual(t, conf, 1.0, "row %d", i)
	}

	// Dimension mismatch
	_, _, err = l.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, fusion.ErrInvalidInput)
}

func TestLearner_Train_InvalidInput(t *testing.T) {
	l := testLearner()

	assert.ErrorIs(t, l.Train(nil, nil), fusion.ErrInvalidInput)
	assert.ErrorIs(t, l.Train([][]float64{{1, 2}}, []string{"a", "b"}), fusion.ErrInvalidInput)

	// Failed train leaves the learner untrained
	assert.False(t, l.Trained())
}

func TestLearner_Predict_SingleClass(t *testing.T) {
	l := testLearner()

	require.NoError(t, l.Train([][]float64{{1, 2}, {1.2, 1.8}}, []string{"only", "only"}))

	label, conf, err := l.Predict([]float64{1.1, 1.9})
	require.NoError(t, err)
	assert.Equal(t, "only", label)
	assert.Greater(t, conf, 0.0)
	assert.LessOrEqual(t, conf, 1.0)
}

func TestLearner_SnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.msgpack")

	l := testLearner()

	// Nothing to save yet
	assert.ErrorIs(t, l.SaveSnapshot(path), ErrNotTrained)

	X := [][]float64{{1, 1}, {9, 9}}
	y := []string{"a", "b"}
	require.NoError(t, l.Train(X, y))
	require.NoError(t, l.SaveSnapshot(path))

	restored := testLearner()
	require.NoError(t, restored.LoadSnapshot(path))
	assert.True(t, restored.Trained())

	wantLabel, wantConf, err := l.Predict([]float64{1.2, 0.8})
	require.NoError(t, err)
	gotLabel, gotConf, err := restored.Predict([]float64{1.2, 0.8})
	require.NoError(t, err)

	assert.Equal(t, wantLabel, gotLabel)
	assert.InDelta(t, wantConf, gotConf, 1e-12)
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	return dot / math.Sqrt(na*nb)
}
