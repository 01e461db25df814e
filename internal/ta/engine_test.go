package ta

import (
	"context"
	"math"
	"testing"

	"coin-compass/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func testEngine() *Engine {
	return NewEngine(trace.NewNoopTracerProvider().Tracer("test"))
}

func hourlyCloses(n int, start float64, step func(i int) float64) []float64 {
	out := make([]float64, n)
	price := start
	for i := range out {
		price += step(i)
		out[i] = price
	}
	return out
}

func TestAnalyzeRejectsShortHistory(t *testing.T) {
	coin := domain.Coin{ID: "bitcoin", CurrentPrice: 97000}
	_, err := testEngine().Analyze(context.Background(), coin, make([]float64, MinHistory-1))
	if err == nil {
		t.Fatal("expected error for short close series")
	}
}

func TestAnalyzeUptrend(t *testing.T) {
	closes := hourlyCloses(168, 90000, func(i int) float64 { return 50 })
	coin := domain.Coin{
		ID: "bitcoin", CurrentPrice: closes[len(closes)-1],
		High24h: closes[len(closes)-1] * 1.02, Low24h: closes[len(closes)-1] * 0.98,
	}

	a, err := testEngine().Analyze(context.Background(), coin, closes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Trends.Short != domain.TrendBullish || a.Trends.Long != domain.TrendBullish {
		t.Fatalf("steady uptrend must classify bullish, got %+v", a.Trends)
	}
	if a.RSI < 70 {
		t.Fatalf("steady gains must push RSI high, got %f", a.RSI)
	}
	if a.TechnicalScore < 0 || a.TechnicalScore > 100 {
		t.Fatalf("score out of range: %f", a.TechnicalScore)
	}
	if a.Prediction24h > 0 == (a.TechnicalScore < 50) {
		t.Fatalf("prediction sign must follow score side: score=%f pred=%f", a.TechnicalScore, a.Prediction24h)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	closes := hourlyCloses(168, 3000, func(i int) float64 {
		if i%3 == 0 {
			return -7
		}
		return 5
	})
	coin := domain.Coin{ID: "ethereum", CurrentPrice: closes[len(closes)-1], High24h: 3600, Low24h: 3400}

	first, err := testEngine().Analyze(context.Background(), coin, closes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := testEngine().Analyze(context.Background(), coin, closes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TechnicalScore != second.TechnicalScore || first.Prediction24h != second.Prediction24h {
		t.Fatal("same inputs must give identical outputs")
	}
}

func TestFindLevelsMergesAndStrengthens(t *testing.T) {
	// Build a series with repeated local minima near 100 and maxima near 110.
	closes := make([]float64, 0, 120)
	for cycle := 0; cycle < 6; cycle++ {
		for i := 0; i < 10; i++ {
			closes = append(closes, 100+float64(i))
		}
		for i := 10; i > 0; i-- {
			closes = append(closes, 100+float64(i))
		}
	}

	levels := FindLevels(closes, 105)
	if len(levels) == 0 {
		t.Fatal("expected levels from repeated extrema")
	}

	var sawStrong bool
	for _, level := range levels {
		if level.Strength > 40 {
			sawStrong = true
		}
		if level.Strength > 95 {
			t.Fatalf("strength must cap at 95, got %f", level.Strength)
		}
		wantKind := domain.LevelSupport
		if level.Price > 105 {
			wantKind = domain.LevelResistance
		}
		if level.Kind != wantKind {
			t.Fatalf("level at %f misclassified as %s", level.Price, level.Kind)
		}
	}
	if !sawStrong {
		t.Fatal("repeated touches must strengthen a level")
	}
}

func TestClassifyTrendsFlat(t *testing.T) {
	flat := make([]float64, 168)
	for i := range flat {
		flat[i] = 100
	}
	trends := ClassifyTrends(flat)
	if trends.Short != domain.TrendNeutral || trends.Medium != domain.TrendNeutral || trends.Long != domain.TrendNeutral {
		t.Fatalf("flat series must be neutral everywhere, got %+v", trends)
	}
}

func TestBaselinePredictionRangeClamp(t *testing.T) {
	closes := hourlyCloses(168, 100, func(i int) float64 { return 0.01 })

	// Huge observed range clamps to 8%.
	wide := domain.Coin{CurrentPrice: 100, High24h: 150, Low24h: 50}
	pred := baselinePrediction(100, wide, closes)
	if !almostEqual(pred, 8, 1e-9) {
		t.Fatalf("expected clamp to 8%% at full conviction, got %f", pred)
	}

	// Tiny observed range clamps to 1.5%.
	narrow := domain.Coin{CurrentPrice: 100, High24h: 100.1, Low24h: 99.9}
	pred = baselinePrediction(0, narrow, closes)
	if !almostEqual(pred, -1.5, 1e-9) {
		t.Fatalf("expected clamp to 1.5%% floor, got %f", pred)
	}

	// Neutral score predicts zero regardless of range.
	if got := baselinePrediction(50, wide, closes); !almostEqual(got, 0, 1e-9) {
		t.Fatalf("neutral score must predict 0, got %f", got)
	}
}

func TestNanHelpers(t *testing.T) {
	if got := lastValid([]float64{math.NaN(), 42, math.NaN()}, 0); got != 42 {
		t.Fatalf("expected last non-NaN value, got %f", got)
	}
	if got := lastValid([]float64{math.NaN()}, 7); got != 7 {
		t.Fatalf("expected fallback, got %f", got)
	}
	if got := nanTo(math.NaN(), 50); got != 50 {
		t.Fatalf("expected fallback, got %f", got)
	}
}
