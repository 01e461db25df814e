package ta

import (
	"context"
	"fmt"
	"math"

	"coin-compass/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MinHistory is the shortest close series Analyze accepts. A week of hourly
// sparkline samples clears it comfortably.
const MinHistory = 60

// Engine computes the per-coin indicator snapshot, the aggregate technical
// score, and the baseline 24h prediction consumed by the scoring pipeline.
type Engine struct {
	tracer trace.Tracer
}

func NewEngine(tracer trace.Tracer) *Engine {
	return &Engine{tracer: tracer}
}

// Analyze computes a CryptoAnalysis for one coin from its chronological
// close series. Pure given the same coin and closes.
func (e *Engine) Analyze(ctx context.Context, coin domain.Coin, closes []float64) (*domain.CryptoAnalysis, error) {
	_, span := e.tracer.Start(ctx, "ta.analyze")
	defer span.End()
	span.SetAttributes(attribute.String("coin", coin.ID))

	if len(closes) < MinHistory {
		return nil, fmt.Errorf("insufficient history for %s: %d samples, need %d", coin.ID, len(closes), MinHistory)
	}

	rsiSeries := RSISeries(closes, 14)
	rsi := lastValid(rsiSeries, 50)

	macdLine, signalLine := MACDSeries(closes, 12, 26, 9)
	macd := domain.MACD{
		Line:      macdLine[len(macdLine)-1],
		Signal:    signalLine[len(signalLine)-1],
		Histogram: macdLine[len(macdLine)-1] - signalLine[len(signalLine)-1],
	}

	mas := domain.MovingAverages{
		SMA20: SMA(closes, 20),
		SMA50: SMA(closes, 50),
	}

	k, d := StochasticKD(closes, 14, 3)
	stoch := domain.Stochastic{K: nanTo(k, 50), D: nanTo(d, 50)}

	adx := nanTo(ADX(closes, 14), 0)

	price := closes[len(closes)-1]
	levels := FindLevels(closes, price)
	trends := ClassifyTrends(closes)

	score := technicalScore(rsi, macd, mas, stoch, adx, trends, price)
	prediction := baselinePrediction(score, coin, closes)

	return &domain.CryptoAnalysis{
		Coin:           coin,
		RSI:            rsi,
		MACD:           macd,
		MovingAverages: mas,
		Stochastic:     stoch,
		ADX:            adx,
		Levels:         levels,
		Trends:         trends,
		TechnicalScore: score,
		Prediction24h:  prediction,
	}, nil
}

// FindLevels extracts support/resistance levels from local extrema, merging
// levels within 1.5% of each other and growing their strength per touch.
func FindLevels(closes []float64, currentPrice float64) []domain.Level {
	const window = 5
	const mergeBand = 0.015

	var levels []domain.Level
	add := func(price float64) {
		for i := range levels {
			if math.Abs(levels[i].Price-price)/levels[i].Price < mergeBand {
				levels[i].Strength = math.Min(95, levels[i].Strength+20)
				return
			}
		}
		kind := domain.LevelSupport
		if price > currentPrice {
			kind = domain.LevelResistance
		}
		levels = append(levels, domain.Level{Price: price, Kind: kind, Strength: 40})
	}

	for i := window; i < len(closes)-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if closes[j] > closes[i] {
				isHigh = false
			}
			if closes[j] < closes[i] {
				isLow = false
			}
		}
		if isHigh || isLow {
			add(closes[i])
		}
	}
	return levels
}

// ClassifyTrends classifies the short/medium/long timeframes from EMA slope
// over progressively longer lookbacks. On hourly samples the long lookback
// spans roughly three days.
func ClassifyTrends(closes []float64) domain.TimeframeTrends {
	return domain.TimeframeTrends{
		Short:  trendOf(closes, 10, 12, 0.3),
		Medium: trendOf(closes, 20, 24, 0.5),
		Long:   trendOf(closes, 50, 72, 1.0),
	}
}

func trendOf(closes []float64, emaPeriod, lookback int, thresholdPct float64) domain.TrendDirection {
	ema := EMASeries(closes, emaPeriod)
	if len(ema) <= lookback {
		return domain.TrendNeutral
	}
	from := ema[len(ema)-1-lookback]
	to := ema[len(ema)-1]
	if from == 0 {
		return domain.TrendNeutral
	}
	slopePct := (to - from) / from * 100
	switch {
	case slopePct > thresholdPct:
		return domain.TrendBullish
	case slopePct < -thresholdPct:
		return domain.TrendBearish
	default:
		return domain.TrendNeutral
	}
}

// technicalScore aggregates indicator posture into a 0-100 score. 50 is
// neutral; trend contribution scales with ADX strength.
func technicalScore(rsi float64, macd domain.MACD, mas domain.MovingAverages, stoch domain.Stochastic, adx float64, trends domain.TimeframeTrends, price float64) float64 {
	score := 50.0

	// RSI: mean-reversion tilt at extremes, mild drift otherwise.
	switch {
	case rsi < 30:
		score += 12
	case rsi > 70:
		score -= 12
	default:
		score += (50 - rsi) * 0.2
	}

	// MACD posture.
	switch {
	case macd.Histogram > 0 && macd.Line > macd.Signal:
		score += 10
	case macd.Histogram < 0 && macd.Line < macd.Signal:
		score -= 10
	}

	// Moving-average alignment.
	if !math.IsNaN(mas.SMA20) && !math.IsNaN(mas.SMA50) {
		switch {
		case price > mas.SMA20 && mas.SMA20 > mas.SMA50:
			score += 10
		case price < mas.SMA20 && mas.SMA20 < mas.SMA50:
			score -= 10
		}
	}

	// Stochastic extremes.
	switch {
	case stoch.K < 20:
		score += 5
	case stoch.K > 80:
		score -= 5
	}

	// Trend votes, weighted by ADX strength.
	majority, count := trends.Majority()
	trendComponent := 0.0
	switch majority {
	case domain.TrendBullish:
		trendComponent = float64(count) * 5
	case domain.TrendBearish:
		trendComponent = float64(count) * -5
	}
	score += trendComponent * (0.5 + adx/100)

	return clampScore(score)
}

// baselinePrediction derives the baseline 24h percentage-change prediction:
// score conviction scaled by the coin's observed daily range.
func baselinePrediction(score float64, coin domain.Coin, closes []float64) float64 {
	rangePct := 3.0
	if coin.CurrentPrice > 0 && coin.High24h > coin.Low24h {
		rangePct = (coin.High24h - coin.Low24h) / coin.CurrentPrice * 100
	} else if len(closes) >= 24 {
		day := closes[len(closes)-24:]
		lo, hi := day[0], day[0]
		for _, v := range day {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if day[len(day)-1] > 0 {
			rangePct = (hi - lo) / day[len(day)-1] * 100
		}
	}
	rangePct = math.Min(8, math.Max(1.5, rangePct))

	return (score - 50) / 50 * rangePct
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func lastValid(series []float64, fallback float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) {
			return series[i]
		}
	}
	return fallback
}

func nanTo(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return v
}
