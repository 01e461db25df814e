package analysis

import (
	"math"

	"coin-compass/internal/domain"
)

// Predict derives the percentage-change predictions for every horizon from
// one analysis. Short horizons weight instantaneous oscillator extremity;
// long horizons weight trend persistence and strength. The 24h horizon is
// passed through unchanged from the baseline and stays authoritative.
func Predict(a domain.CryptoAnalysis) map[domain.Horizon]float64 {
	return map[domain.Horizon]float64{
		domain.Horizon1h:  predict1h(a),
		domain.Horizon4h:  predict4h(a),
		domain.Horizon24h: a.Prediction24h,
		domain.Horizon7d:  predict7d(a),
	}
}

// predict1h combines short-term RSI/MACD/stochastic extremity signals,
// clamped to +/-5 percentage points.
func predict1h(a domain.CryptoAnalysis) float64 {
	p := 0.0

	switch {
	case a.RSI > 70:
		p -= (a.RSI - 70) * 0.05
	case a.RSI < 30:
		p += (30 - a.RSI) * 0.05
	}

	p += clampRange(a.MACD.Histogram*10, -2, 2)

	switch {
	case a.Stochastic.K > 80:
		p -= 0.5
	case a.Stochastic.K < 20:
		p += 0.5
	}

	return clampRange(p, -5, 5)
}

// predict4h takes 30% of the baseline 24h prediction plus a fixed adjustment
// from the shortest observed timeframe trend. Unclamped beyond the natural
// combination bounds.
func predict4h(a domain.CryptoAnalysis) float64 {
	p := a.Prediction24h * 0.3
	switch a.Trends.Short {
	case domain.TrendBullish:
		p += 0.8
	case domain.TrendBearish:
		p -= 0.8
	}
	return p
}

// predict7d doubles the baseline, adjusts for the weekly-timeframe trend and
// for trend strength (ADX/100) signed by RSI side, clamped to +/-20.
func predict7d(a domain.CryptoAnalysis) float64 {
	p := a.Prediction24h * 2

	switch a.Trends.Long {
	case domain.TrendBullish:
		p += 2
	case domain.TrendBearish:
		p -= 2
	}

	strength := a.ADX / 100
	if a.RSI < 50 {
		strength = -strength
	}
	p += strength

	return clampRange(p, -20, 20)
}

func clampRange(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
