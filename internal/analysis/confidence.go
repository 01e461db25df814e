package analysis

import (
	"math"

	"coin-compass/internal/domain"
)

// Confidence sub-scores are each computed independently and clamped to a
// [floor, 95] band. No cross-normalization across coins: every coin's
// confidence is self-relative, not rank-relative.

const confidenceCap = 95

// RSIConfidence scales distance from the neutral 50 line, floor 20.
func RSIConfidence(rsi float64) float64 {
	return clampBand(math.Abs(rsi-50)*2, 20, confidenceCap)
}

// MACDConfidence scales histogram magnitude on top of a base 50.
func MACDConfidence(macd domain.MACD) float64 {
	return clampBand(50+math.Abs(macd.Histogram)*100, 50, confidenceCap)
}

// MAConfidence scales the separation between the two moving averages,
// normalized to price, on top of a base 40.
func MAConfidence(mas domain.MovingAverages, price float64) float64 {
	if price <= 0 || math.IsNaN(mas.SMA20) || math.IsNaN(mas.SMA50) {
		return 40
	}
	separationPct := math.Abs(mas.SMA20-mas.SMA50) / price * 100
	return clampBand(40+separationPct*10, 40, confidenceCap)
}

// SupportResistanceConfidence counts strong levels, 15 points each on a
// base 30.
func SupportResistanceConfidence(levels []domain.Level, strongThreshold float64) float64 {
	strong := 0
	for _, level := range levels {
		if level.Strength > strongThreshold {
			strong++
		}
	}
	return clampBand(30+float64(strong)*15, 30, confidenceCap)
}

// TimeframeConfidence counts timeframes agreeing on the majority direction,
// 30 points each on a base 10.
func TimeframeConfidence(trends domain.TimeframeTrends) float64 {
	_, count := trends.Majority()
	return clampBand(10+float64(count)*30, 10, confidenceCap)
}

func clampBand(v, floor, ceil float64) float64 {
	if math.IsNaN(v) || v < floor {
		return floor
	}
	if v > ceil {
		return ceil
	}
	return v
}
