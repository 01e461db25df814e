package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"coin-compass/internal/analysis"
	"coin-compass/internal/domain"
	"coin-compass/internal/failover"
	"coin-compass/internal/filter"
	"coin-compass/internal/provider"
	"coin-compass/internal/ta"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	recommendationsCacheKey = "recommendations:latest"
	coinsCacheKey           = "coins:latest"
	cacheTTL                = 10 * time.Minute
)

// MarketSource is the failover orchestrator surface this service consumes.
type MarketSource interface {
	ListCoins(ctx context.Context, req provider.ListRequest) (*failover.ListResult, error)
	PriceHistory(ctx context.Context, coinID string, days int) (*failover.HistoryResult, error)
	OHLC(ctx context.Context, coinID string, days int) (*failover.OHLCResult, error)
	CurrentSource() string
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// CycleSummary reports one completed recommendation cycle.
type CycleSummary struct {
	Candidates int           `json:"candidates"`
	Filtered   int           `json:"filtered"`
	Ranked     int           `json:"ranked"`
	Source     string        `json:"source"`
	Duration   time.Duration `json:"duration_ns"`
	At         time.Time     `json:"at"`
}

// RecommendationService runs the acquisition, filtering, and ranking cycle
// and serves its output. The working set of enhanced analyses belongs to
// this service for exactly one cycle and is replaced wholesale on refresh.
type RecommendationService struct {
	tracer trace.Tracer
	source MarketSource
	ranker *analysis.Ranker
	redis  RedisClient
	th     analysis.Thresholds

	// CandidateCount is how many coins one refresh pulls from the listing.
	candidateCount int

	mu      sync.RWMutex
	latest  []domain.EnhancedCryptoAnalysis
	summary CycleSummary
}

func NewRecommendationService(
	tracer trace.Tracer,
	source MarketSource,
	engine *ta.Engine,
	th analysis.Thresholds,
	redisClient RedisClient,
	candidateCount int,
) *RecommendationService {
	if candidateCount <= 0 {
		candidateCount = 100
	}
	s := &RecommendationService{
		tracer:         tracer,
		source:         source,
		redis:          redisClient,
		th:             th,
		candidateCount: candidateCount,
	}
	s.ranker = analysis.NewRanker(tracer, &coinAnalyzer{source: source, engine: engine}, th)
	return s
}

// Refresh runs one full recommendation cycle. Zero surviving coins is a
// valid (if undesirable) outcome, reported as an empty list, not an error.
func (s *RecommendationService) Refresh(ctx context.Context) (CycleSummary, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation-service.refresh")
	defer span.End()

	started := time.Now()

	listing, err := s.source.ListCoins(ctx, provider.ListRequest{
		Page:      1,
		PerPage:   s.candidateCount,
		Order:     domain.OrderMarketCapDesc,
		Sparkline: true,
	})
	if err != nil {
		return CycleSummary{}, fmt.Errorf("acquire candidates: %w", err)
	}

	// No provider in the chain serves category metadata; the symbol, name,
	// and peg-heuristic rules carry the exclusion until one does.
	candidates := filter.Apply(listing.Coins, nil)
	ranked := s.ranker.Rank(ctx, candidates)
	if ranked == nil {
		// Zero survivors is a completed cycle, not an unrefreshed state;
		// Recommendations must serve it instead of re-running acquisition.
		ranked = []domain.EnhancedCryptoAnalysis{}
	}

	summary := CycleSummary{
		Candidates: len(listing.Coins),
		Filtered:   len(listing.Coins) - len(candidates),
		Ranked:     len(ranked),
		Source:     listing.Source,
		Duration:   time.Since(started),
		At:         time.Now().UTC(),
	}
	span.SetAttributes(
		attribute.Int("candidates", summary.Candidates),
		attribute.Int("ranked", summary.Ranked),
		attribute.String("source", summary.Source),
	)

	s.mu.Lock()
	s.latest = ranked
	s.summary = summary
	s.mu.Unlock()

	s.cacheSet(ctx, recommendationsCacheKey, ranked)
	s.cacheSet(ctx, coinsCacheKey, listing.Coins)

	return summary, nil
}

// Recommendations returns the current cycle's ranked list, falling back to
// the redis copy and finally to a fresh cycle.
func (s *RecommendationService) Recommendations(ctx context.Context) ([]domain.EnhancedCryptoAnalysis, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation-service.recommendations")
	defer span.End()

	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	var cached []domain.EnhancedCryptoAnalysis
	if s.cacheGet(ctx, recommendationsCacheKey, &cached) {
		return cached, nil
	}

	if _, err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, nil
}

// Coins returns the most recent canonical listing.
func (s *RecommendationService) Coins(ctx context.Context) ([]domain.Coin, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation-service.coins")
	defer span.End()

	var cached []domain.Coin
	if s.cacheGet(ctx, coinsCacheKey, &cached) {
		return cached, nil
	}

	listing, err := s.source.ListCoins(ctx, provider.ListRequest{
		Page:      1,
		PerPage:   s.candidateCount,
		Order:     domain.OrderMarketCapDesc,
		Sparkline: false,
	})
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, coinsCacheKey, listing.Coins)
	return listing.Coins, nil
}

// History returns the price series for one coin through the failover chain.
func (s *RecommendationService) History(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation-service.history")
	defer span.End()

	result, err := s.source.PriceHistory(ctx, coinID, days)
	if err != nil {
		return nil, err
	}
	return result.Points, nil
}

// LastSummary returns the summary of the most recent completed cycle.
func (s *RecommendationService) LastSummary() CycleSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// DataSource reports which upstream source answered most recently.
func (s *RecommendationService) DataSource() string {
	return s.source.CurrentSource()
}

func (s *RecommendationService) cacheSet(ctx context.Context, key string, value any) {
	if s.redis == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, payload, cacheTTL).Err(); err != nil {
		log.Printf("redis cache write error for %s: %v", key, err)
	}
}

func (s *RecommendationService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.redis == nil {
		return false
	}
	payload, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("redis cache read error for %s: %v", key, err)
		}
		return false
	}
	return json.Unmarshal(payload, out) == nil
}

// coinAnalyzer feeds the ranker: it resolves a close series for each coin
// (sparkline first, history fetch as fallback) and runs the indicator
// engine over it.
type coinAnalyzer struct {
	source MarketSource
	engine *ta.Engine
}

func (a *coinAnalyzer) Analyze(ctx context.Context, coin domain.Coin) (*domain.CryptoAnalysis, error) {
	closes := coin.Sparkline
	if len(closes) < ta.MinHistory {
		result, err := a.source.PriceHistory(ctx, coin.ID, 7)
		if err != nil {
			return nil, fmt.Errorf("no usable history for %s: %w", coin.ID, err)
		}
		closes = make([]float64, 0, len(result.Points))
		for _, pt := range result.Points {
			closes = append(closes, pt.Price)
		}
	}
	return a.engine.Analyze(ctx, coin, closes)
}
