package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coin-compass/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoAdapter fetches listings, price history, and OHLC data from the
// CoinGecko free API. With a relay attached it issues the same requests
// through a CORS-relay proxy instead of hitting the API directly.
type CoinGeckoAdapter struct {
	name    string
	client  *http.Client
	baseURL string
	relay   Relay
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoAdapter creates the direct (primary) adapter with built-in
// rate limiting: 8 requests per minute, one token every 7.5 seconds.
func NewCoinGeckoAdapter(tracer trace.Tracer) *CoinGeckoAdapter {
	return &CoinGeckoAdapter{
		name:    "coingecko",
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

// NewCoinGeckoViaRelay creates a CoinGecko adapter that routes every request
// through the given relay. Used as a fallback transport when direct access
// is blocked.
func NewCoinGeckoViaRelay(tracer trace.Tracer, relay Relay) *CoinGeckoAdapter {
	return &CoinGeckoAdapter{
		name:    "coingecko-" + relay.Name(),
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		relay:   relay,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

func (a *CoinGeckoAdapter) Name() string { return a.name }

// cgMarketRow is one row of the /coins/markets response.
type cgMarketRow struct {
	ID                string   `json:"id"`
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Image             string   `json:"image"`
	CurrentPrice      float64  `json:"current_price"`
	MarketCap         float64  `json:"market_cap"`
	MarketCapRank     int      `json:"market_cap_rank"`
	TotalVolume       float64  `json:"total_volume"`
	High24h           float64  `json:"high_24h"`
	Low24h            float64  `json:"low_24h"`
	PriceChange24h    float64  `json:"price_change_24h"`
	PriceChangePct24h float64  `json:"price_change_percentage_24h"`
	CirculatingSupply float64  `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	MaxSupply         *float64 `json:"max_supply"`
	ATH               float64  `json:"ath"`
	ATHDate           string   `json:"ath_date"`
	ATL               float64  `json:"atl"`
	ATLDate           string   `json:"atl_date"`
	LastUpdated       string   `json:"last_updated"`
	SparklineIn7d     *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

// ListCoins fetches one page of the markets listing.
func (a *CoinGeckoAdapter) ListCoins(ctx context.Context, req ListRequest) ([]domain.Coin, error) {
	_, span := a.tracer.Start(ctx, a.name+".list-coins")
	defer span.End()

	req = req.withDefaults()
	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=%s&per_page=%d&page=%d&sparkline=%t",
		a.baseURL, req.Order, req.PerPage, req.Page, req.Sparkline)

	body, err := a.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("list coins: %w", err)
	}

	var rows []cgMarketRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse markets listing: %w", err)
	}

	return convertCGMarketRows(a.name, rows), nil
}

// convertCGMarketRows is a pure conversion from provider rows to the
// canonical shape. Rows without a positive price are dropped.
func convertCGMarketRows(source string, rows []cgMarketRow) []domain.Coin {
	coins := make([]domain.Coin, 0, len(rows))
	for _, row := range rows {
		if row.CurrentPrice <= 0 {
			continue
		}
		coin := domain.Coin{
			ID:                row.ID,
			Symbol:            row.Symbol,
			Name:              row.Name,
			Image:             row.Image,
			CurrentPrice:      row.CurrentPrice,
			MarketCap:         row.MarketCap,
			MarketCapRank:     row.MarketCapRank,
			TotalVolume:       row.TotalVolume,
			High24h:           row.High24h,
			Low24h:            row.Low24h,
			PriceChange24h:    row.PriceChange24h,
			PriceChangePct24h: row.PriceChangePct24h,
			CirculatingSupply: row.CirculatingSupply,
			ATH:               row.ATH,
			ATHDate:           parseRFC3339(row.ATHDate),
			ATL:               row.ATL,
			ATLDate:           parseRFC3339(row.ATLDate),
			LastUpdated:       parseRFC3339(row.LastUpdated),
			Source:            source,
		}
		if row.TotalSupply != nil {
			coin.TotalSupply = *row.TotalSupply
		}
		if row.MaxSupply != nil {
			coin.MaxSupply = *row.MaxSupply
		}
		if row.SparklineIn7d != nil {
			coin.Sparkline = append([]float64(nil), row.SparklineIn7d.Price...)
		}
		coins = append(coins, coin)
	}
	return coins
}

// PriceHistory fetches the market_chart price series for a coin.
func (a *CoinGeckoAdapter) PriceHistory(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error) {
	_, span := a.tracer.Start(ctx, a.name+".price-history")
	defer span.End()

	if days <= 0 {
		days = 7
	}
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d", a.baseURL, coinID, days)

	body, err := a.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("price history for %s: %w", coinID, err)
	}

	var raw struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse market chart for %s: %w", coinID, err)
	}

	points := make([]domain.PricePoint, 0, len(raw.Prices))
	for _, pt := range raw.Prices {
		if len(pt) < 2 || pt[1] <= 0 {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(int64(pt[0])).UTC(),
			Price:     pt[1],
		})
	}
	return points, nil
}

// OHLC fetches candle rows from the /ohlc endpoint. Each row is
// [timestamp_ms, open, high, low, close].
func (a *CoinGeckoAdapter) OHLC(ctx context.Context, coinID string, days int) ([]domain.OHLC, error) {
	_, span := a.tracer.Start(ctx, a.name+".ohlc")
	defer span.End()

	if days <= 0 {
		days = 7
	}
	url := fmt.Sprintf("%s/coins/%s/ohlc?vs_currency=usd&days=%d", a.baseURL, coinID, days)

	body, err := a.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("ohlc for %s: %w", coinID, err)
	}

	var rows [][]float64
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse ohlc for %s: %w", coinID, err)
	}

	candles := make([]domain.OHLC, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		candles = append(candles, domain.OHLC{
			Timestamp: time.UnixMilli(int64(row[0])).UTC(),
			Open:      row[1],
			High:      row[2],
			Low:       row[3],
			Close:     row[4],
		})
	}
	return candles, nil
}

func (a *CoinGeckoAdapter) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	requestURL := url
	if a.relay != nil {
		requestURL = a.relay.WrapURL(url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s API error %d: %s", a.name, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if a.relay != nil {
		return a.relay.Unwrap(body)
	}
	return body, nil
}

func parseRFC3339(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
