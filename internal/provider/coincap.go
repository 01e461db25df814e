package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"coin-compass/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coincapBaseURL = "https://api.coincap.io/v2"

// coincapBandPct is the fixed band used to approximate the 24h high/low.
// CoinCap does not expose a 24h range, so the adapter derives one from the
// last price +/- this fraction. A deliberate accuracy trade-off.
const coincapBandPct = 0.05

// CoinCapAdapter fetches assets from the CoinCap API, whose payloads carry
// every numeric value as a quoted string under a "data" key.
type CoinCapAdapter struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewCoinCapAdapter(tracer trace.Tracer) *CoinCapAdapter {
	return &CoinCapAdapter{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: coincapBaseURL,
		tracer:  tracer,
	}
}

func (a *CoinCapAdapter) Name() string { return "coincap" }

type coincapAsset struct {
	ID                string `json:"id"`
	Rank              string `json:"rank"`
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	Supply            string `json:"supply"`
	MaxSupply         string `json:"maxSupply"`
	MarketCapUSD      string `json:"marketCapUsd"`
	VolumeUSD24Hr     string `json:"volumeUsd24Hr"`
	PriceUSD          string `json:"priceUsd"`
	ChangePercent24Hr string `json:"changePercent24Hr"`
}

// ListCoins fetches one page of assets ordered by rank.
func (a *CoinCapAdapter) ListCoins(ctx context.Context, req ListRequest) ([]domain.Coin, error) {
	_, span := a.tracer.Start(ctx, "coincap.list-coins")
	defer span.End()

	req = req.withDefaults()
	offset := (req.Page - 1) * req.PerPage
	url := fmt.Sprintf("%s/assets?limit=%d&offset=%d", a.baseURL, req.PerPage, offset)

	body, err := a.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	var payload struct {
		Data []coincapAsset `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse assets listing: %w", err)
	}

	return convertCoinCapAssets("coincap", payload.Data), nil
}

// convertCoinCapAssets converts string-valued asset rows to the canonical
// shape. Rows whose price does not parse to a positive number are dropped.
func convertCoinCapAssets(source string, rows []coincapAsset) []domain.Coin {
	now := time.Now().UTC()
	coins := make([]domain.Coin, 0, len(rows))
	for _, row := range rows {
		price := parseFloat(row.PriceUSD)
		if price <= 0 {
			continue
		}
		changePct := parseFloat(row.ChangePercent24Hr)
		coins = append(coins, domain.Coin{
			ID:                row.ID,
			Symbol:            row.Symbol,
			Name:              row.Name,
			CurrentPrice:      price,
			MarketCap:         parseFloat(row.MarketCapUSD),
			MarketCapRank:     int(parseFloat(row.Rank)),
			TotalVolume:       parseFloat(row.VolumeUSD24Hr),
			High24h:           price * (1 + coincapBandPct),
			Low24h:            price * (1 - coincapBandPct),
			PriceChange24h:    price * changePct / 100,
			PriceChangePct24h: changePct,
			CirculatingSupply: parseFloat(row.Supply),
			MaxSupply:         parseFloat(row.MaxSupply),
			LastUpdated:       now,
			Source:            source,
		})
	}
	return coins
}

// PriceHistory fetches the hourly price series for an asset.
func (a *CoinCapAdapter) PriceHistory(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error) {
	_, span := a.tracer.Start(ctx, "coincap.price-history")
	defer span.End()

	if days <= 0 {
		days = 7
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)
	url := fmt.Sprintf("%s/assets/%s/history?interval=h1&start=%d&end=%d",
		a.baseURL, coinID, start.UnixMilli(), end.UnixMilli())

	body, err := a.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("asset history for %s: %w", coinID, err)
	}

	var payload struct {
		Data []struct {
			PriceUSD string `json:"priceUsd"`
			Time     int64  `json:"time"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse asset history for %s: %w", coinID, err)
	}

	points := make([]domain.PricePoint, 0, len(payload.Data))
	for _, row := range payload.Data {
		price := parseFloat(row.PriceUSD)
		if price <= 0 {
			continue
		}
		points = append(points, domain.PricePoint{
			Timestamp: time.UnixMilli(row.Time).UTC(),
			Price:     price,
		})
	}
	return points, nil
}

// OHLC is not offered by CoinCap.
func (a *CoinCapAdapter) OHLC(ctx context.Context, coinID string, days int) ([]domain.OHLC, error) {
	return nil, ErrUnsupported
}

func (a *CoinCapAdapter) doRequest(ctx context.Context, url string) ([]byte, error) {
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
		return nil, fmt.Errorf("coincap API error %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}
