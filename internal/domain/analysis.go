package domain

// TrendDirection classifies the slope of a single timeframe.
type TrendDirection string

const (
	TrendBullish TrendDirection = "bullish"
	TrendBearish TrendDirection = "bearish"
	TrendNeutral TrendDirection = "neutral"
)

// Timeframe keys used by the multi-timeframe trend classification.
const (
	TimeframeShort  = "short"
	TimeframeMedium = "medium"
	TimeframeLong   = "long"
)

// MACD holds the 12/26/9 EMA triple.
type MACD struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// MovingAverages holds the pair of simple moving averages the scoring
// pipeline consumes.
type MovingAverages struct {
	SMA20 float64 `json:"sma_20"`
	SMA50 float64 `json:"sma_50"`
}

// Stochastic holds the %K/%D oscillator pair.
type Stochastic struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// LevelKind tags a price level as support or resistance.
type LevelKind string

const (
	LevelSupport    LevelKind = "support"
	LevelResistance LevelKind = "resistance"
)

// Level is one support/resistance price level with a 0-100 strength.
type Level struct {
	Price    float64   `json:"price"`
	Kind     LevelKind `json:"kind"`
	Strength float64   `json:"strength"`
}

// TimeframeTrends is the per-timeframe trend classification.
type TimeframeTrends struct {
	Short  TrendDirection `json:"short"`
	Medium TrendDirection `json:"medium"`
	Long   TrendDirection `json:"long"`
}

// Majority returns the direction shared by most timeframes and how many
// timeframes agree with it. A three-way split counts as neutral with one vote.
func (t TimeframeTrends) Majority() (TrendDirection, int) {
	counts := map[TrendDirection]int{}
	for _, d := range []TrendDirection{t.Short, t.Medium, t.Long} {
		counts[d]++
	}
	best := TrendNeutral
	bestCount := 0
	for _, d := range []TrendDirection{TrendBullish, TrendBearish, TrendNeutral} {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best, bestCount
}

// CryptoAnalysis wraps a Coin with its computed indicator snapshot, the
// aggregate technical score, and the baseline 24h prediction. Instances are
// immutable after creation; enrichment produces a new EnhancedCryptoAnalysis.
type CryptoAnalysis struct {
	Coin           Coin            `json:"coin"`
	RSI            float64         `json:"rsi"`
	MACD           MACD            `json:"macd"`
	MovingAverages MovingAverages  `json:"moving_averages"`
	Stochastic     Stochastic      `json:"stochastic"`
	ADX            float64         `json:"adx"`
	Levels         []Level         `json:"levels"`
	Trends         TimeframeTrends `json:"trends"`

	// TechnicalScore is the 0-100 aggregate produced by the indicator engine.
	TechnicalScore float64 `json:"technical_score"`

	// Prediction24h is the baseline 24h percentage-change prediction and the
	// authoritative source of truth for the 24h horizon.
	Prediction24h float64 `json:"prediction_24h"`
}

// Horizon is a prediction timeframe.
type Horizon string

const (
	Horizon1h  Horizon = "1h"
	Horizon4h  Horizon = "4h"
	Horizon24h Horizon = "24h"
	Horizon7d  Horizon = "7d"
)

// MarketCycle classifies where a coin sits in the accumulation cycle.
type MarketCycle string

const (
	CycleAccumulation MarketCycle = "ACCUMULATION"
	CycleMarkup       MarketCycle = "MARKUP"
	CycleDistribution MarketCycle = "DISTRIBUTION"
	CycleMarkdown     MarketCycle = "MARKDOWN"
)

// ConfidenceBreakdown holds the per-indicator-family confidence sub-scores,
// each normalized to its floor..95 band.
type ConfidenceBreakdown struct {
	RSI               float64 `json:"rsi"`
	MACD              float64 `json:"macd"`
	MovingAverage     float64 `json:"moving_average"`
	SupportResistance float64 `json:"support_resistance"`
	Timeframe         float64 `json:"timeframe"`
}

// EnhancedCryptoAnalysis is a CryptoAnalysis plus the scoring-engine output.
// Instances live for one recommendation cycle and are replaced wholesale on
// the next refresh.
type EnhancedCryptoAnalysis struct {
	CryptoAnalysis

	Confidence         ConfidenceBreakdown `json:"confidence"`
	LiquidityScore     float64             `json:"liquidity_score"`
	VolatilityRisk     float64             `json:"volatility_risk"`
	MarketCycle        MarketCycle         `json:"market_cycle"`
	RiskFactors        []string            `json:"risk_factors"`
	OpportunityFactors []string            `json:"opportunity_factors"`
	Predictions        map[Horizon]float64 `json:"predictions"`
}
