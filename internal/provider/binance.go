package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"coin-compass/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const binanceBaseURL = "https://api.binance.com/api/v3"

// BinanceAdapter derives a coin listing from the 24hr ticker array over USDT
// spot pairs. Binance has no market-cap notion, so rank is approximated by
// quote-volume order and market cap is left at zero.
type BinanceAdapter struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewBinanceAdapter(tracer trace.Tracer) *BinanceAdapter {
	return &BinanceAdapter{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: binanceBaseURL,
		tracer:  tracer,
	}
}

func (a *BinanceAdapter) Name() string { return "binance" }

type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
}

// ListCoins fetches the full ticker array and pages through USDT pairs
// ordered by quote volume.
func (a *BinanceAdapter) ListCoins(ctx context.Context, req ListRequest) ([]domain.Coin, error) {
	_, span := a.tracer.Start(ctx, "binance.list-coins")
	defer span.End()

	req = req.withDefaults()
	body, err := a.doRequest(ctx, a.baseURL+"/ticker/24hr")
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}

	var rows []binanceTicker
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse tickers: %w", err)
	}

	coins := convertBinanceTickers("binance", rows)

	start := (req.Page - 1) * req.PerPage
	if start >= len(coins) {
		return []domain.Coin{}, nil
	}
	end := start + req.PerPage
	if end > len(coins) {
		end = len(coins)
	}
	return coins[start:end], nil
}

func convertBinanceTickers(source string, rows []binanceTicker) []domain.Coin {
	now := time.Now().UTC()
	coins := make([]domain.Coin, 0, len(rows))
	for _, row := range rows {
		base, ok := strings.CutSuffix(row.Symbol, "USDT")
		if !ok || base == "" {
			continue
		}
		price := parseFloat(row.LastPrice)
		if price <= 0 {
			continue
		}
		coins = append(coins, domain.Coin{
			ID:                strings.ToLower(base),
			Symbol:            strings.ToLower(base),
			Name:              base,
			CurrentPrice:      price,
			TotalVolume:       parseFloat(row.QuoteVolume),
			High24h:           parseFloat(row.HighPrice),
			Low24h:            parseFloat(row.LowPrice),
			PriceChange24h:    parseFloat(row.PriceChange),
			PriceChangePct24h: parseFloat(row.PriceChangePercent),
			LastUpdated:       now,
			Source:            source,
		})
	}

	sort.SliceStable(coins, func(i, j int) bool {
		return coins[i].TotalVolume > coins[j].TotalVolume
	})
	for i := range coins {
		coins[i].MarketCapRank = i + 1
	}
	return coins
}

// PriceHistory builds an hourly price series from kline closes.
func (a *BinanceAdapter) PriceHistory(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error) {
	_, span := a.tracer.Start(ctx, "binance.price-history")
	defer span.End()

	candles, err := a.fetchKlines(ctx, coinID, days)
	if err != nil {
		return nil, err
	}
	points := make([]domain.PricePoint, 0, len(candles))
	for _, c := range candles {
		points = append(points, domain.PricePoint{Timestamp: c.Timestamp, Price: c.Close})
	}
	return points, nil
}

// OHLC fetches hourly klines for the USDT pair of the given coin.
func (a *BinanceAdapter) OHLC(ctx context.Context, coinID string, days int) ([]domain.OHLC, error) {
	_, span := a.tracer.Start(ctx, "binance.ohlc")
	defer span.End()

	return a.fetchKlines(ctx, coinID, days)
}

func (a *BinanceAdapter) fetchKlines(ctx context.Context, coinID string, days int) ([]domain.OHLC, error) {
	if days <= 0 {
		days = 7
	}
	limit := days * 24
	if limit > 1000 {
		limit = 1000
	}
	pair := strings.ToUpper(strings.TrimSpace(coinID)) + "USDT"
	url := fmt.Sprintf("%s/klines?symbol=%s&interval=1h&limit=%d", a.baseURL, pair, limit)

	body, err := a.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("klines for %s: %w", pair, err)
	}

	// Kline rows are mixed arrays: [openTime, "open", "high", "low", "close", ...].
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse klines for %s: %w", pair, err)
	}

	candles := make([]domain.OHLC, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			continue
		}
		var o, h, l, c string
		if json.Unmarshal(row[1], &o) != nil || json.Unmarshal(row[2], &h) != nil ||
			json.Unmarshal(row[3], &l) != nil || json.Unmarshal(row[4], &c) != nil {
			continue
		}
		candles = append(candles, domain.OHLC{
			Timestamp: time.UnixMilli(openTime).UTC(),
			Open:      parseFloat(o),
			High:      parseFloat(h),
			Low:       parseFloat(l),
			Close:     parseFloat(c),
		})
	}
	return candles, nil
}

func (a *BinanceAdapter) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
		return nil, fmt.Errorf("binance API error %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}
