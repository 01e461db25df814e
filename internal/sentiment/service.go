package sentiment

import (
	"context"
	"math"
	"sync"
	"time"

	"coin-compass/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

type FearGreedReader interface {
	FetchLatest(ctx context.Context) (*provider.FearGreedPoint, error)
}

type RedditReader interface {
	FetchHot(ctx context.Context, subreddit string, limit int) ([]provider.ContentItem, error)
}

type RSSReader interface {
	FetchFeed(ctx context.Context, feedURL string, maxItems int) ([]provider.ContentItem, error)
}

type Config struct {
	NewsFeeds       []string
	RedditSubs      []string
	RedditPostLimit int
	FeedItemLimit   int
}

// Snapshot is one market sentiment reading with per-platform detail.
type Snapshot struct {
	Composite
	FearGreedValue *int                      `json:"fear_greed_value,omitempty"`
	Platforms      map[string]PlatformResult `json:"platforms"`
	FetchedAt      time.Time                 `json:"fetched_at"`
}

// Service fans out to every configured platform concurrently and fans the
// settled results back into a composite. A failed platform contributes its
// neutral default; it never aborts the others.
type Service struct {
	tracer    trace.Tracer
	fearGreed FearGreedReader
	reddit    RedditReader
	rss       RSSReader
	scorer    *Scorer
	cfg       Config
}

func NewService(tracer trace.Tracer, fearGreed FearGreedReader, reddit RedditReader, rss RSSReader, scorer *Scorer, cfg Config) *Service {
	if cfg.RedditPostLimit <= 0 {
		cfg.RedditPostLimit = 40
	}
	if cfg.FeedItemLimit <= 0 {
		cfg.FeedItemLimit = 40
	}
	if scorer == nil {
		scorer = NewScorer(nil, 24)
	}
	return &Service{
		tracer:    tracer,
		fearGreed: fearGreed,
		reddit:    reddit,
		rss:       rss,
		scorer:    scorer,
		cfg:       cfg,
	}
}

// Fetch issues all platform queries concurrently and builds the composite
// from whichever answered.
func (s *Service) Fetch(ctx context.Context) Snapshot {
	ctx, span := s.tracer.Start(ctx, "sentiment.fetch")
	defer span.End()

	platforms := map[string]PlatformResult{
		PlatformFearGreed: {},
		PlatformNews:      {},
		PlatformReddit:    {},
	}
	var fearGreedValue *int
	var mu sync.Mutex
	var wg sync.WaitGroup

	settle := func(name string, result PlatformResult, fgValue *int) {
		mu.Lock()
		platforms[name] = result
		if fgValue != nil {
			fearGreedValue = fgValue
		}
		mu.Unlock()
	}

	if s.fearGreed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, value := s.fetchFearGreed(ctx)
			settle(PlatformFearGreed, result, value)
		}()
	}

	if s.rss != nil && len(s.cfg.NewsFeeds) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			settle(PlatformNews, s.fetchNews(ctx), nil)
		}()
	}

	if s.reddit != nil && len(s.cfg.RedditSubs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			settle(PlatformReddit, s.fetchReddit(ctx), nil)
		}()
	}

	wg.Wait()

	return Snapshot{
		Composite:      BuildComposite(platforms),
		FearGreedValue: fearGreedValue,
		Platforms:      platforms,
		FetchedAt:      time.Now().UTC(),
	}
}

func (s *Service) fetchFearGreed(ctx context.Context) (PlatformResult, *int) {
	point, err := s.fearGreed.FetchLatest(ctx)
	if err != nil {
		return PlatformResult{Error: err.Error()}, nil
	}
	score := clamp((float64(point.Value)-50.0)/50.0, -1, 1)
	confidence := clamp(0.4+0.6*math.Abs(score), 0, 1)
	value := point.Value
	return PlatformResult{
		Score:      score,
		Confidence: confidence,
		Available:  true,
		Items:      1,
	}, &value
}

func (s *Service) fetchNews(ctx context.Context) PlatformResult {
	var items []provider.ContentItem
	var lastErr error
	for _, feed := range s.cfg.NewsFeeds {
		rows, err := s.rss.FetchFeed(ctx, feed, s.cfg.FeedItemLimit)
		if err != nil {
			lastErr = err
			continue
		}
		items = append(items, rows...)
	}
	return s.scoreItems(ctx, items, lastErr)
}

func (s *Service) fetchReddit(ctx context.Context) PlatformResult {
	var items []provider.ContentItem
	var lastErr error
	for _, subreddit := range s.cfg.RedditSubs {
		rows, err := s.reddit.FetchHot(ctx, subreddit, s.cfg.RedditPostLimit)
		if err != nil {
			lastErr = err
			continue
		}
		items = append(items, rows...)
	}
	return s.scoreItems(ctx, items, lastErr)
}

// scoreItems averages per-item scores weighted by their confidence.
func (s *Service) scoreItems(ctx context.Context, items []provider.ContentItem, lastErr error) PlatformResult {
	if len(items) == 0 {
		result := PlatformResult{}
		if lastErr != nil {
			result.Error = lastErr.Error()
		}
		return result
	}

	scores := s.scorer.Score(ctx, items)
	var weightedSum, weightSum, confidenceSum float64
	for _, row := range scores {
		weightedSum += row.Value * row.Confidence
		weightSum += row.Confidence
		confidenceSum += row.Confidence
	}
	if weightSum == 0 {
		return PlatformResult{Available: true, Items: len(items)}
	}
	return PlatformResult{
		Score:      clamp(weightedSum/weightSum, -1, 1),
		Confidence: clamp(confidenceSum/float64(len(scores)), 0, 1),
		Available:  true,
		Items:      len(items),
	}
}
