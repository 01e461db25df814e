// Package analysis converts indicator snapshots into confidence scores,
// horizon predictions, risk/opportunity factors, and the final ranked
// recommendation list.
package analysis

import "time"

// Thresholds consolidates every tunable constant in the scoring and ranking
// pipeline so tuning never touches algorithm code.
type Thresholds struct {
	// Risk/opportunity rule thresholds.
	SmallCapUSD        float64
	LiquidityRatioLow  float64
	LiquidityRatioHigh float64
	RSIOverbought      float64
	RSIOversold        float64
	WeakADX            float64
	StrongLevel        float64
	LevelProximityPct  float64
	TopRankOpportunity int

	// Hard filters applied post-enrichment.
	MinAbsPrediction  float64
	MinTechnicalScore float64

	// Comparator tie bands.
	PredictionTieBand float64
	ScoreTieBand      float64

	// Batch processing.
	BatchSize           int
	InterBatchDelay     time.Duration
	TopK                int
	EarlyStopMultiplier int
}

// DefaultThresholds returns the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SmallCapUSD:        50_000_000,
		LiquidityRatioLow:  0.02,
		LiquidityRatioHigh: 0.15,
		RSIOverbought:      75,
		RSIOversold:        30,
		WeakADX:            20,
		StrongLevel:        70,
		LevelProximityPct:  3,
		TopRankOpportunity: 50,

		MinAbsPrediction:  0.1,
		MinTechnicalScore: 30,

		PredictionTieBand: 0.1,
		ScoreTieBand:      3,

		BatchSize:           10,
		InterBatchDelay:     time.Second,
		TopK:                10,
		EarlyStopMultiplier: 2,
	}
}
