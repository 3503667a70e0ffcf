package fusion

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func testEngine(seed int64) *Engine {
	return NewEngineWithSource(8, rand.NewSource(seed), zerolog.Nop())
}

func TestEngine_CreateSuperposition(t *testing.T) {
	engine := testEngine(1)

	tests := []struct {
		name       string
		candidates []CandidateDecision
		wantErr    bool
	}{
		{"Empty input", nil, true},
		{"Single candidate", []CandidateDecision{{Action: ActionBuy, Confidence: 0.9}}, false},
		{"Three candidates", []CandidateDecision{
			{Action: ActionBuy, Confidence: 0.8},
			{Action: ActionSell, Confidence: 0.3},
			{Action: ActionHold, Confidence: 0.5},
		}, false},
		{"Out-of-range confidences", []CandidateDecision{
			{Action: ActionBuy, Confidence: 1.7},
			{Action: ActionSell, Confidence: -0.4},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := engine.CreateSuperposition(tt.candidates)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("CreateSuperposition() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateSuperposition() unexpected error: %v", err)
			}

			sum := 0.0
			for _, p := range state.Probabilities {
				if p <= 0 {
					t.Errorf("probability %v not strictly positive", p)
				}
				sum += p
			}
			if math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("probabilities sum = %v, want 1.0", sum)
			}
			if state.Coherence < 0 || state.Coherence > 1 {
				t.Errorf("coherence = %v, want within [0, 1]", state.Coherence)
			}
		})
	}
}

func TestEngine_CreateSuperposition_Coherence(t *testing.T) {
	engine := testEngine(1)

	// Single candidate is fully coherent
	single, err := engine.CreateSuperposition([]CandidateDecision{{Action: ActionBuy, Confidence: 0.5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if single.Coherence != 1.0 {
		t.Errorf("single candidate coherence = %v, want 1.0", single.Coherence)
	}

	// Equal confidences give a uniform distribution, coherence near 0
	uniform, err := engine.CreateSuperposition([]CandidateDecision{
		{Action: ActionBuy, Confidence: 0.5},
		{Action: ActionSell, Confidence: 0.5},
		{Action: ActionHold, Confidence: 0.5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uniform.Coherence > 1e-9 {
		t.Errorf("uniform coherence = %v, want ~0", uniform.Coherence)
	}

	// A peaked distribution sits strictly between
	peaked, err := engine.CreateSuperposition([]CandidateDecision{
		{Action: ActionBuy, Confidence: 1.0},
		{Action: ActionSell, Confidence: 0.0},
		{Action: ActionHold, Confidence: 0.0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peaked.Coherence <= uniform.Coherence || peaked.Coherence >= single.Coherence {
		t.Errorf("peaked coherence = %v, want between %v and %v",
			peaked.Coherence, uniform.Coherence, single.Coherence)
	}

	// Zero-confidence candidates remain selectable through the floor
	for i, p := range peaked.Probabilities {
		if p <= 0 {
			t.Errorf("probability[%d] = %v, want > 0", i, p)
		}
	}
}

func TestEngine_Interference(t *testing.T) {
	engine := testEngine(1)

	candidates := []CandidateDecision{
		{Action: ActionBuy, Confidence: 0.5},
		{Action: ActionSell, Confidence: 0.5},
		{Action: ActionHold, Confidence: 0.5},
	}

	state, err := engine.CreateSuperposition(candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bullish := MarketContext{Volatility: 0.2, Momentum: 1.5, VolumeRatio: 1.2}
	adjusted := engine.Interference(state, bullish)

	// Input state untouched
	for i, p := range state.Probabilities {
		if math.Abs(p-1.0/3.0) > 1e-9 {
			t.Errorf("input probability[%d] mutated to %v", i, p)
		}
	}

	// Bullish context shifts probability mass toward BUY and away from SELL
	if adjusted.Probabilities[0] <= state.Probabilities[0] {
		t.Errorf("BUY probability = %v, want > %v", adjusted.Probabilities[0], state.Probabilities[0])
	}
	if adjusted.Probabilities[1] >= state.Probabilities[1] {
		t.Errorf("SELL probability = %v, want < %v", adjusted.Probabilities[1], state.Probabilities[1])
	}

	// Still normalized
	sum := 0.0
	for _, p := range adjusted.Probabilities {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("adjusted probabilities sum = %v, want 1.0", sum)
	}

	// Deterministic: same inputs, same output
	again := engine.Interference(state, bullish)
	for i := range adjusted.Probabilities {
		if adjusted.Probabilities[i] != again.Probabilities[i] {
			t.Errorf("interference not deterministic at index %d", i)
		}
	}
}

func TestEngine_Interference_NonAssociative(t *testing.T) {
	engine := testEngine(1)

	state, err := engine.CreateSuperposition([]CandidateDecision{
		{Action: ActionBuy, Confidence: 0.6},
		{Action: ActionSell, Confidence: 0.4},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := MarketContext{Volatility: 0.1, Momentum: 0.8, VolumeRatio: 1.5}
	doubled := MarketContext{Volatility: 0.1, Momentum: 1.6, VolumeRatio: 1.5}

	twice := engine.Interference(engine.Interference(state, ctx), ctx)
	once := engine.Interference(state, doubled)

	diff := math.Abs(twice.Probabilities[0] - once.Probabilities[0])
	if diff < 1e-6 {
		t.Errorf("two passes matched one doubled pass (diff = %v), expected divergence", diff)
	}
}

func TestEngine_Measure_Distribution(t *testing.T) {
	engine := testEngine(42)

	state, err := engine.CreateSuperposition([]CandidateDecision{
		{Action: ActionBuy, Confidence: 0.9},
		{Action: ActionSell, Confidence: 0.2},
		{Action: ActionHold, Confidence: 0.4},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const draws = 10000
	counts := make([]int, len(state.Probabilities))
	for i := 0; i < draws; i++ {
		idx := engine.Measure(state)
		if idx < 0 || idx >= len(counts) {
			t.Fatalf("Measure() returned out-of-range index %d", idx)
		}
		counts[idx]++
	}

	for i, p := range state.Probabilities {
		observed := float64(counts[i]) / draws
		if math.Abs(observed-p) > 0.03 {
			t.Errorf("candidate %d observed frequency %v, want ~%v", i, observed, p)
		}
	}
}

func TestEngine_Decide(t *testing.T) {
	engine := testEngine(7)

	if _, err := engine.Decide(nil, MarketContext{VolumeRatio: 1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Decide(empty) error = %v, want ErrInvalidInput", err)
	}

	decision, err := engine.Decide([]CandidateDecision{
		{Action: ActionBuy, Confidence: 0.95},
		{Action: ActionSell, Confidence: 0.05},
	}, MarketContext{Volatility: 0.1, Momentum: 1.0, VolumeRatio: 1.2})
	if err != nil {
		t.Fatalf("Decide() unexpected error: %v", err)
	}

	if decision.Action != ActionBuy && decision.Action != ActionSell {
		t.Errorf("Decide() action = %q, want a candidate action", decision.Action)
	}
	if decision.QuantumProbability <= 0 || decision.QuantumProbability > 1 {
		t.Errorf("probability = %v, want within (0, 1]", decision.QuantumProbability)
	}
	if decision.QuantumCoherence < 0 || decision.QuantumCoherence > 1 {
		t.Errorf("coherence = %v, want within [0, 1]", decision.QuantumCoherence)
	}

	// High-confidence BUY amplified by bullish context should dominate
	buys := 0
	const trials = 1000
	for i := 0; i < trials; i++ {
		d, err := engine.Decide([]CandidateDecision{
			{Action: ActionBuy, Confidence: 0.95},
			{Action: ActionSell, Confidence: 0.05},
		}, MarketContext{Volatility: 0.1, Momentum: 1.0, VolumeRatio: 1.2})
		if err != nil {
			t.Fatalf("Decide() unexpected error: %v", err)
		}
		if d.Action == ActionBuy {
			buys++
		}
	}
	if float64(buys)/trials < 0.8 {
		t.Errorf("BUY chosen %d/%d times, expected clear dominance", buys, trials)
	}
}

func TestEngine_Decide_Concurrent(t *testing.T) {
	engine := testEngine(3)

	candidates := []CandidateDecision{
		{Action: ActionBuy, Confidence: 0.7},
		{Action: ActionSell, Confidence: 0.2},
		{Action: ActionHold, Confidence: 0.4},
	}
	ctx := MarketContext{Volatility: 0.2, Momentum: 0.5, VolumeRatio: 1.1}

	// One engine shared across goroutines, as the HTTP layer does.
	// Run with -race to verify the measurement draw is synchronized.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				d, err := engine.Decide(candidates, ctx)
				if err != nil {
					t.Errorf("Decide() unexpected error: %v", err)
					return
				}
				if d.Index < 0 || d.Index >= len(candidates) {
					t.Errorf("Decide() index = %d, want within [0, %d)", d.Index, len(candidates))
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestActionDirection(t *testing.T) {
	tests := []struct {
		action string
		want   float64
	}{
		{ActionBuy, 1.0},
		{ActionSell, -1.0},
		{ActionHold, 0.0},
		{"UNKNOWN", 0.0},
	}

	for _, tt := range tests {
		if got := actionDirection(tt.action); got != tt.want {
			t.Errorf("actionDirection(%q) = %v, want %v", tt.action, got, tt.want)
		}
	}
}
