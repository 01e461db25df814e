package analysis

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"coin-compass/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// scriptedAnalyzer returns a canned analysis per coin ID and records order.
type scriptedAnalyzer struct {
	results map[string]*domain.CryptoAnalysis
	errs    map[string]error
	seen    []string
}

func (s *scriptedAnalyzer) Analyze(ctx context.Context, coin domain.Coin) (*domain.CryptoAnalysis, error) {
	s.seen = append(s.seen, coin.ID)
	if err, ok := s.errs[coin.ID]; ok {
		return nil, err
	}
	if a, ok := s.results[coin.ID]; ok {
		return a, nil
	}
	return nil, errors.New("no script for " + coin.ID)
}

func analysisWith(id string, pred24, score float64) *domain.CryptoAnalysis {
	return &domain.CryptoAnalysis{
		Coin:          domain.Coin{ID: id, CurrentPrice: 100, MarketCap: 1e11, TotalVolume: 5e9},
		RSI:           50,
		ADX:           30,
		TechnicalScore: score,
		Prediction24h:  pred24,
	}
}

func newTestRanker(analyzer Analyzer, th Thresholds) *Ranker {
	r := NewRanker(trace.NewNoopTracerProvider().Tracer("test"), analyzer, th)
	r.sleep = func(ctx context.Context, d time.Duration) {}
	return r
}

func rankedIDs(ranked []domain.EnhancedCryptoAnalysis) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Coin.ID
	}
	return ids
}

func TestRankFiltersWeakCandidates(t *testing.T) {
	th := DefaultThresholds()
	analyzer := &scriptedAnalyzer{results: map[string]*domain.CryptoAnalysis{
		"flat":     analysisWith("flat", 0.05, 80),    // |pred| below 0.1
		"lowscore": analysisWith("lowscore", 2.0, 25), // score below 30
		"bearish":  analysisWith("bearish", -0.5, 32), // negative but significant: kept
		"solid":    analysisWith("solid", 1.5, 60),
	}}
	ranker := newTestRanker(analyzer, th)

	ranked := ranker.Rank(context.Background(), []domain.Coin{
		{ID: "flat"}, {ID: "lowscore"}, {ID: "bearish"}, {ID: "solid"},
	})

	got := rankedIDs(ranked)
	want := []string{"solid", "bearish"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRankComparatorTiers(t *testing.T) {
	th := DefaultThresholds()
	analyzer := &scriptedAnalyzer{results: map[string]*domain.CryptoAnalysis{
		// Magnitudes 2.05 vs 2.0 sit inside the 0.1 tie band, so the
		// score tier decides and the bearish call loses to the higher
		// score despite the slightly larger magnitude.
		"a": analysisWith("a", -2.05, 50),
		"b": analysisWith("b", 2.0, 90),
		// Clearly larger magnitude wins tier one outright.
		"c": analysisWith("c", 5.0, 31),
	}}
	ranker := newTestRanker(analyzer, th)

	ranked := ranker.Rank(context.Background(), []domain.Coin{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	got := rankedIDs(ranked)
	want := []string{"c", "b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRankConvictionBeatsScoreOutsideTieBand(t *testing.T) {
	th := DefaultThresholds()
	analyzer := &scriptedAnalyzer{results: map[string]*domain.CryptoAnalysis{
		// |−2.0| vs |+1.9| differs by more than the 0.1 band, so the
		// stronger conviction wins even against a much higher score.
		"a": analysisWith("a", -2.0, 50),
		"b": analysisWith("b", 1.9, 90),
	}}
	ranker := newTestRanker(analyzer, th)

	ranked := ranker.Rank(context.Background(), []domain.Coin{{ID: "b"}, {ID: "a"}})

	got := rankedIDs(ranked)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRankTimeframeConfidenceBreaksScoreTies(t *testing.T) {
	th := DefaultThresholds()
	agree := analysisWith("agree", 2.0, 60)
	agree.Trends = domain.TimeframeTrends{Short: domain.TrendBullish, Medium: domain.TrendBullish, Long: domain.TrendBullish}
	split := analysisWith("split", 2.05, 61)
	split.Trends = domain.TimeframeTrends{Short: domain.TrendBullish, Medium: domain.TrendBearish, Long: domain.TrendNeutral}

	analyzer := &scriptedAnalyzer{results: map[string]*domain.CryptoAnalysis{
		"agree": agree, "split": split,
	}}
	ranker := newTestRanker(analyzer, th)

	// Prediction within 0.1 band, score within 3-point band: the third
	// tier decides on timeframe confidence.
	ranked := ranker.Rank(context.Background(), []domain.Coin{{ID: "split"}, {ID: "agree"}})

	got := rankedIDs(ranked)
	want := []string{"agree", "split"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRankSkipsFailedCoins(t *testing.T) {
	th := DefaultThresholds()
	analyzer := &scriptedAnalyzer{
		results: map[string]*domain.CryptoAnalysis{
			"good": analysisWith("good", 2.0, 60),
		},
		errs: map[string]error{
			"broken": errors.New("no history"),
		},
	}
	ranker := newTestRanker(analyzer, th)

	ranked := ranker.Rank(context.Background(), []domain.Coin{{ID: "broken"}, {ID: "good"}})

	if len(ranked) != 1 || ranked[0].Coin.ID != "good" {
		t.Fatalf("failed coin must be skipped, not fatal: %v", rankedIDs(ranked))
	}
	if len(analyzer.seen) != 2 {
		t.Fatal("both coins must be attempted")
	}
}

func TestRankEarlyStop(t *testing.T) {
	th := DefaultThresholds()
	th.TopK = 2
	th.BatchSize = 5
	th.EarlyStopMultiplier = 2 // stop once 4 valid accumulate

	results := map[string]*domain.CryptoAnalysis{}
	var coins []domain.Coin
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("coin-%02d", i)
		coins = append(coins, domain.Coin{ID: id})
		results[id] = analysisWith(id, 1.0+float64(i)*0.01, 60)
	}
	analyzer := &scriptedAnalyzer{results: results}
	ranker := newTestRanker(analyzer, th)

	ranked := ranker.Rank(context.Background(), coins)

	if len(ranked) != 2 {
		t.Fatalf("expected top-K result, got %d", len(ranked))
	}
	// First batch of 5 already exceeds the target of 4; the second and
	// third batches must never run.
	if len(analyzer.seen) != 5 {
		t.Fatalf("expected early stop after one batch, analyzed %d coins", len(analyzer.seen))
	}
}

func TestRankBatchesSequentially(t *testing.T) {
	th := DefaultThresholds()
	th.BatchSize = 3
	th.TopK = 50
	th.EarlyStopMultiplier = 10 // never early-stop in this test

	results := map[string]*domain.CryptoAnalysis{}
	var coins []domain.Coin
	for i := 0; i < 7; i++ {
		id := fmt.Sprintf("coin-%d", i)
		coins = append(coins, domain.Coin{ID: id})
		results[id] = analysisWith(id, 1.0, 60)
	}
	analyzer := &scriptedAnalyzer{results: results}
	ranker := newTestRanker(analyzer, th)

	var sleeps int
	ranker.sleep = func(ctx context.Context, d time.Duration) { sleeps++ }

	ranker.Rank(context.Background(), coins)

	// Coins are visited in input order, one at a time.
	for i, id := range analyzer.seen {
		if id != fmt.Sprintf("coin-%d", i) {
			t.Fatalf("expected sequential order, got %v", analyzer.seen)
		}
	}
	// 3 batches (3+3+1) with a delay before every batch but the first.
	if sleeps != 2 {
		t.Fatalf("expected 2 inter-batch delays, got %d", sleeps)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	th := DefaultThresholds()
	results := map[string]*domain.CryptoAnalysis{}
	var coins []domain.Coin
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("coin-%02d", i)
		coins = append(coins, domain.Coin{ID: id})
		results[id] = analysisWith(id, 1.0+float64(i%4), 40+float64(i))
	}
	analyzer := &scriptedAnalyzer{results: results}
	ranker := newTestRanker(analyzer, th)

	first := rankedIDs(ranker.Rank(context.Background(), coins))
	second := rankedIDs(ranker.Rank(context.Background(), coins))

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input must rank identically: %v vs %v", first, second)
	}
}

func TestRankEmptyInput(t *testing.T) {
	ranker := newTestRanker(&scriptedAnalyzer{}, DefaultThresholds())
	if ranked := ranker.Rank(context.Background(), nil); len(ranked) != 0 {
		t.Fatalf("empty candidates must rank empty, got %d", len(ranked))
	}
}
