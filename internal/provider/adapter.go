package provider

import (
	"context"
	"errors"

	"coin-compass/internal/domain"
)

// ErrUnsupported is returned by adapters for request types their provider has
// no endpoint for. The failover orchestrator treats it like any other
// transient failure and advances to the next source.
var ErrUnsupported = errors.New("request type not supported by this source")

// ListRequest describes one logical coin-listing request.
type ListRequest struct {
	Page      int
	PerPage   int
	Order     string
	Sparkline bool
}

func (r ListRequest) withDefaults() ListRequest {
	if r.Page <= 0 {
		r.Page = 1
	}
	if r.PerPage <= 0 {
		r.PerPage = 100
	}
	if r.Order == "" {
		r.Order = domain.OrderMarketCapDesc
	}
	return r
}

// Source is one upstream market-data provider: it fetches raw responses and
// converts them into the canonical Coin shape. Conversions are pure; records
// without a usable price are dropped, never partially filled.
type Source interface {
	Name() string
	ListCoins(ctx context.Context, req ListRequest) ([]domain.Coin, error)
	PriceHistory(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error)
	OHLC(ctx context.Context, coinID string, days int) ([]domain.OHLC, error)
}
