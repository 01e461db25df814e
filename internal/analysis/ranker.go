package analysis

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"coin-compass/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Analyzer produces the indicator snapshot for one coin. Failures are
// per-coin: the ranker logs and skips, the batch continues.
type Analyzer interface {
	Analyze(ctx context.Context, coin domain.Coin) (*domain.CryptoAnalysis, error)
}

// Ranker batches the candidate set through enrichment and produces the
// final ranked top-K list.
type Ranker struct {
	tracer   trace.Tracer
	analyzer Analyzer
	th       Thresholds
	sleep    func(ctx context.Context, d time.Duration)
}

func NewRanker(tracer trace.Tracer, analyzer Analyzer, th Thresholds) *Ranker {
	return &Ranker{
		tracer:   tracer,
		analyzer: analyzer,
		th:       th,
		sleep:    sleepWithContext,
	}
}

// Rank enriches candidates batch by batch, sequentially within each batch,
// and returns the sorted top-K. Processing stops early once accumulated
// valid analyses reach EarlyStopMultiplier x TopK, trading completeness for
// latency. A fixed inter-batch delay smooths load on rate-limited upstreams.
func (r *Ranker) Rank(ctx context.Context, coins []domain.Coin) []domain.EnhancedCryptoAnalysis {
	ctx, span := r.tracer.Start(ctx, "ranker.rank")
	defer span.End()
	span.SetAttributes(attribute.Int("candidates", len(coins)))

	target := r.th.EarlyStopMultiplier * r.th.TopK
	var valid []domain.EnhancedCryptoAnalysis

	for start := 0; start < len(coins); start += r.th.BatchSize {
		if start > 0 {
			r.sleep(ctx, r.th.InterBatchDelay)
		}
		end := start + r.th.BatchSize
		if end > len(coins) {
			end = len(coins)
		}

		for _, coin := range coins[start:end] {
			a, err := r.analyzer.Analyze(ctx, coin)
			if err != nil {
				log.Printf("analysis failed for %s, skipping: %v", coin.ID, err)
				continue
			}
			enhanced := Enrich(*a, r.th)
			if !r.passesFilters(enhanced) {
				continue
			}
			valid = append(valid, enhanced)
		}

		if len(valid) >= target {
			break
		}
	}

	sort.SliceStable(valid, func(i, j int) bool { return r.less(valid[i], valid[j]) })

	if len(valid) > r.th.TopK {
		valid = valid[:r.th.TopK]
	}
	span.SetAttributes(attribute.Int("ranked", len(valid)))
	return valid
}

// passesFilters applies the two post-enrichment hard filters: predictions
// below the significance floor and scores below the confidence floor are
// dropped.
func (r *Ranker) passesFilters(a domain.EnhancedCryptoAnalysis) bool {
	if math.Abs(a.Predictions[domain.Horizon24h]) < r.th.MinAbsPrediction {
		return false
	}
	if a.TechnicalScore < r.th.MinTechnicalScore {
		return false
	}
	return true
}

// less is the three-tier comparator. Primary: descending |prediction_24h| —
// conviction strength, not direction. Secondary (within the prediction tie
// band): descending technical score. Tertiary (within the score tie band):
// descending multi-timeframe confidence.
func (r *Ranker) less(a, b domain.EnhancedCryptoAnalysis) bool {
	magA := math.Abs(a.Predictions[domain.Horizon24h])
	magB := math.Abs(b.Predictions[domain.Horizon24h])
	if math.Abs(magA-magB) > r.th.PredictionTieBand {
		return magA > magB
	}

	if math.Abs(a.TechnicalScore-b.TechnicalScore) > r.th.ScoreTieBand {
		return a.TechnicalScore > b.TechnicalScore
	}

	return a.Confidence.Timeframe > b.Confidence.Timeframe
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
