package streams

import (
	"math/rand"
	"testing"

	"github.com/aristath/fusor/internal/modules/fusion"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(numWorkers int) *Service {
	engine := fusion.NewEngineWithSource(8, rand.NewSource(1), zerolog.Nop())
	return NewService(engine, numWorkers, zerolog.Nop())
}

func trendingSeries(start, step float64, n int) []float64 {
	data := make([]float64, n)
	for i := range data {
		data[i] = start + step*float64(i)
	}
	return data
}

func TestAnalyzeStreams_Empty(t *testing.T) {
	svc := testService(4)

	_, err := svc.AnalyzeStreams(nil)
	assert.ErrorIs(t, err, fusion.ErrInvalidInput)

	_, err = svc.AnalyzeStreams([]Stream{})
	assert.ErrorIs(t, err, fusion.ErrInvalidInput)
}

func TestAnalyzeStreams_MajorityBuy(t *testing.T) {
	svc := testService(4)

	streamList := []Stream{
		{Source: "alpha", Data: trendingSeries(100, 0.8, 30)},
		{Source: "beta", Data: trendingSeries(50, 0.5, 30)},
		{Source: "gamma", Data: trendingSeries(200, -1.2, 30)},
	}

	result, err := svc.AnalyzeStreams(streamList)
	require.NoError(t, err)

	assert.Equal(t, 3, result.StreamsProcessed)
	require.Len(t, result.Analyses, 3)

	// Two rising streams vote BUY, one falling votes SELL
	assert.Equal(t, fusion.ActionBuy, result.Analyses[0].Action)
	assert.Equal(t, fusion.ActionBuy, result.Analyses[1].Action)
	assert.Equal(t, fusion.ActionSell, result.Analyses[2].Action)
	assert.Equal(t, fusion.ActionBuy, result.AggregatedSignal)

	// Per-stream metadata survives the pool
	assert.Equal(t, "alpha", result.Analyses[0].Source)
	assert.Equal(t, "gamma", result.Analyses[2].Source)

	for _, a := range result.Analyses {
		assert.GreaterOrEqual(t, a.Confidence, 0.0)
		assert.LessOrEqual(t, a.Confidence, 1.0)
		assert.GreaterOrEqual(t, a.Coherence, 0.0)
		assert.LessOrEqual(t, a.Coherence, 1.0)
	}
}

func TestAnalyzeStreams_ShortSeriesHolds(t *testing.T) {
	svc := testService(2)

	result, err := svc.AnalyzeStreams([]Stream{
		{Source: "tiny", Data: []float64{100}},
		{Source: "empty", Data: nil},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.StreamsProcessed)
	for _, a := range result.Analyses {
		assert.Equal(t, fusion.ActionHold, a.Action)
	}
	assert.Equal(t, fusion.ActionHold, result.AggregatedSignal)
}

func TestAnalyzeStreams_ConcurrentMatchesSequential(t *testing.T) {
	streamList := make([]Stream, 20)
	for i := range streamList {
		step := 0.5
		if i%2 == 0 {
			step = -0.5
		}
		streamList[i] = Stream{
			Source: "s",
			Data:   trendingSeries(100+float64(i), step, 25),
		}
	}

	sequential := testService(1)
	concurrent := testService(8)

	seqResult, err := sequential.AnalyzeStreams(streamList)
	require.NoError(t, err)
	conResult, err := concurrent.AnalyzeStreams(streamList)
	require.NoError(t, err)

	assert.Equal(t, seqResult.AggregatedSignal, conResult.AggregatedSignal)
	require.Len(t, conResult.Analyses, len(seqResult.Analyses))
	for i := range seqResult.Analyses {
		assert.Equal(t, seqResult.Analyses[i], conResult.Analyses[i], "analysis %d diverged", i)
	}
}

func TestExtractFeatures(t *testing.T) {
	rising := extractFeatures(trendingSeries(100, 1.0, 30))
	assert.Greater(t, rising.trend, 0.0)
	assert.Greater(t, rising.smaGap, 0.0)

	falling := extractFeatures(trendingSeries(100, -1.0, 30))
	assert.Less(t, falling.trend, 0.0)
	assert.Less(t, falling.smaGap, 0.0)

	neutral := extractFeatures([]float64{5})
	assert.Equal(t, streamFeatures{}, neutral)
}

func TestAggregateSignal_TieBreaksOnConfidence(t *testing.T) {
	analyses := []StreamAnalysis{
		{Action: fusion.ActionBuy, Confidence: 0.4},
		{Action: fusion.ActionSell, Confidence: 0.9},
	}
	assert.Equal(t, fusion.ActionSell, aggregateSignal(analyses))

	// Equal votes and equal summed confidence resolve to HOLD
	fullTie := []StreamAnalysis{
		{Action: fusion.ActionBuy, Confidence: 0.6},
		{Action: fusion.ActionSell, Confidence: 0.6},
	}
	assert.Equal(t, fusion.ActionHold, aggregateSignal(fullTie))

	// The tie rule also applies when confidences tie across two votes each
	mirrored := []StreamAnalysis{
		{Action: fusion.ActionBuy, Confidence: 0.3},
		{Action: fusion.ActionBuy, Confidence: 0.5},
		{Action: fusion.ActionSell, Confidence: 0.5},
		{Action: fusion.ActionSell, Confidence: 0.3},
	}
	assert.Equal(t, fusion.ActionHold, aggregateSignal(mirrored))
}
