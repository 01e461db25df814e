// Package failover tries market-data sources in a fixed priority order and
// returns the first success, recording which source answered.
package failover

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"coin-compass/internal/domain"
	"coin-compass/internal/provider"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SourceNone is the current-source sentinel before any request has succeeded.
const SourceNone = "none"

// ErrNoSources is the underlying cause when an orchestrator with an empty
// source list receives a request.
var ErrNoSources = errors.New("no sources configured")

// ListResult carries a successful listing plus the source that produced it.
type ListResult struct {
	Source string
	Coins  []domain.Coin
}

// HistoryResult carries a successful price-history fetch plus its source.
type HistoryResult struct {
	Source string
	Points []domain.PricePoint
}

// OHLCResult carries a successful OHLC fetch plus its source.
type OHLCResult struct {
	Source  string
	Candles []domain.OHLC
}

// Orchestrator owns the ordered list of source adapters. Attempts are
// strictly sequential: precedence is fixed at construction and never
// reordered by completion time.
type Orchestrator struct {
	tracer  trace.Tracer
	sources []provider.Source

	mu      sync.RWMutex
	current string
}

func New(tracer trace.Tracer, sources ...provider.Source) *Orchestrator {
	return &Orchestrator{
		tracer:  tracer,
		sources: sources,
		current: SourceNone,
	}
}

// CurrentSource reports the name of the most recent source that answered a
// request, or SourceNone if none has yet. Diagnostic only.
func (o *Orchestrator) CurrentSource() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

func (o *Orchestrator) setCurrent(name string) {
	o.mu.Lock()
	o.current = name
	o.mu.Unlock()
}

// ListCoins tries each source in priority order until one returns a listing.
func (o *Orchestrator) ListCoins(ctx context.Context, req provider.ListRequest) (*ListResult, error) {
	ctx, span := o.tracer.Start(ctx, "failover.list-coins")
	defer span.End()

	lastErr := ErrNoSources
	for i, src := range o.sources {
		coins, err := src.ListCoins(ctx, req)
		if err != nil {
			log.Printf("source %d/%d (%s) listing failed: %v", i+1, len(o.sources), src.Name(), err)
			lastErr = err
			continue
		}
		o.setCurrent(src.Name())
		span.SetAttributes(attribute.String("source", src.Name()))
		return &ListResult{Source: src.Name(), Coins: coins}, nil
	}
	return nil, fmt.Errorf("all %d sources failed listing coins: %w", len(o.sources), lastErr)
}

// PriceHistory tries each source in priority order for a price series.
func (o *Orchestrator) PriceHistory(ctx context.Context, coinID string, days int) (*HistoryResult, error) {
	ctx, span := o.tracer.Start(ctx, "failover.price-history")
	defer span.End()

	lastErr := ErrNoSources
	for i, src := range o.sources {
		points, err := src.PriceHistory(ctx, coinID, days)
		if err != nil {
			log.Printf("source %d/%d (%s) history failed for %s: %v", i+1, len(o.sources), src.Name(), coinID, err)
			lastErr = err
			continue
		}
		o.setCurrent(src.Name())
		span.SetAttributes(attribute.String("source", src.Name()))
		return &HistoryResult{Source: src.Name(), Points: points}, nil
	}
	return nil, fmt.Errorf("all %d sources failed history for %s: %w", len(o.sources), coinID, lastErr)
}

// OHLC tries each source in priority order for candle data.
func (o *Orchestrator) OHLC(ctx context.Context, coinID string, days int) (*OHLCResult, error) {
	ctx, span := o.tracer.Start(ctx, "failover.ohlc")
	defer span.End()

	lastErr := ErrNoSources
	for i, src := range o.sources {
		candles, err := src.OHLC(ctx, coinID, days)
		if err != nil {
			log.Printf("source %d/%d (%s) ohlc failed for %s: %v", i+1, len(o.sources), src.Name(), coinID, err)
			lastErr = err
			continue
		}
		o.setCurrent(src.Name())
		span.SetAttributes(attribute.String("source", src.Name()))
		return &OHLCResult{Source: src.Name(), Candles: candles}, nil
	}
	return nil, fmt.Errorf("all %d sources failed ohlc for %s: %w", len(o.sources), coinID, lastErr)
}
