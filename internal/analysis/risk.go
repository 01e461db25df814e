package analysis

import (
	"fmt"
	"math"

	"coin-compass/internal/domain"
)

// RiskFactors lists the human-readable risk factors a coin accumulates.
// Rules are independent and non-exclusive.
func RiskFactors(a domain.CryptoAnalysis, th Thresholds) []string {
	var factors []string
	coin := a.Coin

	if coin.MarketCap > 0 && coin.MarketCap < th.SmallCapUSD {
		factors = append(factors, "small market cap increases manipulation risk")
	}
	if ratio := liquidityRatio(coin); ratio >= 0 && ratio < th.LiquidityRatioLow {
		factors = append(factors, "thin liquidity relative to market cap")
	}
	if a.RSI > th.RSIOverbought {
		factors = append(factors, fmt.Sprintf("RSI %.0f in extreme overbought territory", a.RSI))
	}
	if a.ADX < th.WeakADX {
		factors = append(factors, "weak trend strength (low ADX)")
	}
	if _, count := a.Trends.Majority(); 3-count > 1 {
		factors = append(factors, "conflicting trends across timeframes")
	}
	if nearLevel(a, domain.LevelResistance, th) {
		factors = append(factors, "price near strong resistance")
	}

	return factors
}

// OpportunityFactors mirrors RiskFactors for the bullish side.
func OpportunityFactors(a domain.CryptoAnalysis, th Thresholds) []string {
	var factors []string
	coin := a.Coin

	if a.RSI < th.RSIOversold {
		factors = append(factors, fmt.Sprintf("RSI %.0f oversold, rebound potential", a.RSI))
	}
	if a.MACD.Line > a.MACD.Signal && a.MACD.Histogram > 0 {
		factors = append(factors, "bullish MACD crossover with positive histogram")
	}
	if a.Trends.Short == domain.TrendBullish && a.Trends.Medium == domain.TrendBullish && a.Trends.Long == domain.TrendBullish {
		factors = append(factors, "all three timeframes aligned bullish")
	}
	if nearLevel(a, domain.LevelSupport, th) {
		factors = append(factors, "price near strong support")
	}
	if ratio := liquidityRatio(coin); ratio > th.LiquidityRatioHigh {
		factors = append(factors, "high liquidity relative to market cap")
	}
	if coin.MarketCapRank > 0 && coin.MarketCapRank <= th.TopRankOpportunity {
		factors = append(factors, fmt.Sprintf("top-%d market cap rank", th.TopRankOpportunity))
	}

	return factors
}

// LiquidityScore normalizes the volume/market-cap ratio to 0-100 against
// the high-liquidity threshold.
func LiquidityScore(coin domain.Coin, th Thresholds) float64 {
	ratio := liquidityRatio(coin)
	if ratio < 0 {
		return 0
	}
	return clampRange(ratio/th.LiquidityRatioHigh*100, 0, 100)
}

// VolatilityRisk scores 0-100 from the 24h range and absolute daily move.
func VolatilityRisk(coin domain.Coin) float64 {
	if coin.CurrentPrice <= 0 {
		return 0
	}
	rangePct := 0.0
	if coin.High24h > coin.Low24h {
		rangePct = (coin.High24h - coin.Low24h) / coin.CurrentPrice * 100
	}
	return clampRange(rangePct*5+math.Abs(coin.PriceChangePct24h)*3, 0, 100)
}

// ClassifyCycle places a coin in one of the four market-cycle phases from
// RSI posture, trend direction, and MACD momentum.
func ClassifyCycle(a domain.CryptoAnalysis) domain.MarketCycle {
	majority, _ := a.Trends.Majority()
	switch {
	case a.RSI >= 70, a.RSI >= 60 && a.MACD.Histogram < 0:
		return domain.CycleDistribution
	case majority == domain.TrendBearish && a.RSI < 45:
		return domain.CycleMarkdown
	case a.RSI < 50 && a.MACD.Histogram > 0:
		return domain.CycleAccumulation
	case majority == domain.TrendBullish:
		return domain.CycleMarkup
	case a.RSI < 45:
		return domain.CycleMarkdown
	default:
		return domain.CycleAccumulation
	}
}

// liquidityRatio returns volume/market-cap, or -1 when market cap is unknown.
func liquidityRatio(coin domain.Coin) float64 {
	if coin.MarketCap <= 0 {
		return -1
	}
	return coin.TotalVolume / coin.MarketCap
}

// nearLevel reports whether price sits within the proximity band of a
// strong level of the given kind.
func nearLevel(a domain.CryptoAnalysis, kind domain.LevelKind, th Thresholds) bool {
	price := a.Coin.CurrentPrice
	if price <= 0 {
		return false
	}
	for _, level := range a.Levels {
		if level.Kind != kind || level.Strength <= th.StrongLevel {
			continue
		}
		if math.Abs(level.Price-price)/price*100 <= th.LevelProximityPct {
			return true
		}
	}
	return false
}
