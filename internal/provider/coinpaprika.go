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

const coinpaprikaBaseURL = "https://api.coinpaprika.com/v1"

// paprikaBandPct approximates the missing 24h high/low range, same
// trade-off as the CoinCap adapter.
const paprikaBandPct = 0.05

// CoinPaprikaAdapter fetches the tickers array from the CoinPaprika API.
// Paprika returns one flat array with USD figures nested under quotes.USD.
type CoinPaprikaAdapter struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewCoinPaprikaAdapter(tracer trace.Tracer) *CoinPaprikaAdapter {
	return &CoinPaprikaAdapter{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: coinpaprikaBaseURL,
		tracer:  tracer,
	}
}

func (a *CoinPaprikaAdapter) Name() string { return "coinpaprika" }

type paprikaTicker struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Symbol            string  `json:"symbol"`
	Rank              int     `json:"rank"`
	CirculatingSupply float64 `json:"circulating_supply"`
	TotalSupply       float64 `json:"total_supply"`
	MaxSupply         float64 `json:"max_supply"`
	LastUpdated       string  `json:"last_updated"`
	Quotes            struct {
		USD struct {
			Price            float64 `json:"price"`
			Volume24h        float64 `json:"volume_24h"`
			MarketCap        float64 `json:"market_cap"`
			PercentChange24h float64 `json:"percent_change_24h"`
			ATHPrice         float64 `json:"ath_price"`
			ATHDate          string  `json:"ath_date"`
		} `json:"USD"`
	} `json:"quotes"`
}

// ListCoins fetches the tickers array and slices out the requested page.
// Paprika has no server-side paging on this endpoint.
func (a *CoinPaprikaAdapter) ListCoins(ctx context.Context, req ListRequest) ([]domain.Coin, error) {
	_, span := a.tracer.Start(ctx, "coinpaprika.list-coins")
	defer span.End()

	req = req.withDefaults()
	url := fmt.Sprintf("%s/tickers?quotes=USD", a.baseURL)

	body, err := a.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}

	var rows []paprikaTicker
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse tickers: %w", err)
	}

	coins := convertPaprikaTickers("coinpaprika", rows)

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

func convertPaprikaTickers(source string, rows []paprikaTicker) []domain.Coin {
	coins := make([]domain.Coin, 0, len(rows))
	for _, row := range rows {
		usd := row.Quotes.USD
		if usd.Price <= 0 {
			continue
		}
		coins = append(coins, domain.Coin{
			ID:                row.ID,
			Symbol:            row.Symbol,
			Name:              row.Name,
			CurrentPrice:      usd.Price,
			MarketCap:         usd.MarketCap,
			MarketCapRank:     row.Rank,
			TotalVolume:       usd.Volume24h,
			High24h:           usd.Price * (1 + paprikaBandPct),
			Low24h:            usd.Price * (1 - paprikaBandPct),
			PriceChange24h:    usd.Price * usd.PercentChange24h / 100,
			PriceChangePct24h: usd.PercentChange24h,
			CirculatingSupply: row.CirculatingSupply,
			TotalSupply:       row.TotalSupply,
			MaxSupply:         row.MaxSupply,
			ATH:               usd.ATHPrice,
			ATHDate:           parseRFC3339(usd.ATHDate),
			LastUpdated:       parseRFC3339(row.LastUpdated),
			Source:            source,
		})
	}
	return coins
}

// PriceHistory is behind a paid tier on CoinPaprika.
func (a *CoinPaprikaAdapter) PriceHistory(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error) {
	return nil, ErrUnsupported
}

// OHLC is behind a paid tier on CoinPaprika.
func (a *CoinPaprikaAdapter) OHLC(ctx context.Context, coinID string, days int) ([]domain.OHLC, error) {
	return nil, ErrUnsupported
}

func (a *CoinPaprikaAdapter) doRequest(ctx context.Context, url string) ([]byte, error) {
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
		return nil, fmt.Errorf("coinpaprika API error %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}
