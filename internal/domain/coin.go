package domain

import "time"

// Coin is the canonical market record every source adapter converts its
// provider-native payload into. Records with a non-positive CurrentPrice are
// dropped at conversion time and never reach filtering or ranking.
type Coin struct {
	ID                string    `json:"id"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Image             string    `json:"image,omitempty"`
	CurrentPrice      float64   `json:"current_price"`
	MarketCap         float64   `json:"market_cap"`
	MarketCapRank     int       `json:"market_cap_rank"`
	TotalVolume       float64   `json:"total_volume"`
	High24h           float64   `json:"high_24h"`
	Low24h            float64   `json:"low_24h"`
	PriceChange24h    float64   `json:"price_change_24h"`
	PriceChangePct24h float64   `json:"price_change_percentage_24h"`
	CirculatingSupply float64   `json:"circulating_supply,omitempty"`
	TotalSupply       float64   `json:"total_supply,omitempty"`
	MaxSupply         float64   `json:"max_supply,omitempty"`
	ATH               float64   `json:"ath,omitempty"`
	ATHDate           time.Time `json:"ath_date,omitempty"`
	ATL               float64   `json:"atl,omitempty"`
	ATLDate           time.Time `json:"atl_date,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`

	// Sparkline holds chronological price samples for the trailing week.
	// May be empty when the source does not supply one.
	Sparkline []float64 `json:"sparkline,omitempty"`

	// Source names the adapter that produced this record.
	Source string `json:"source"`
}

// PricePoint is one sample of a historical price series.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// OHLC is one open/high/low/close row from a provider's candle endpoint.
type OHLC struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// ListOrder values accepted by the coin listing request.
const (
	OrderMarketCapDesc = "market_cap_desc"
	OrderVolumeDesc    = "volume_desc"
)
