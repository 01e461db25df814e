package analysis

import "coin-compass/internal/domain"

// Enrich converts a CryptoAnalysis into a new EnhancedCryptoAnalysis. The
// input is never mutated; each enrichment produces a fresh value that lives
// for one recommendation cycle.
func Enrich(a domain.CryptoAnalysis, th Thresholds) domain.EnhancedCryptoAnalysis {
	return domain.EnhancedCryptoAnalysis{
		CryptoAnalysis: a,
		Confidence: domain.ConfidenceBreakdown{
			RSI:               RSIConfidence(a.RSI),
			MACD:              MACDConfidence(a.MACD),
			MovingAverage:     MAConfidence(a.MovingAverages, a.Coin.CurrentPrice),
			SupportResistance: SupportResistanceConfidence(a.Levels, th.StrongLevel),
			Timeframe:         TimeframeConfidence(a.Trends),
		},
		LiquidityScore:     LiquidityScore(a.Coin, th),
		VolatilityRisk:     VolatilityRisk(a.Coin),
		MarketCycle:        ClassifyCycle(a),
		RiskFactors:        RiskFactors(a, th),
		OpportunityFactors: OpportunityFactors(a, th),
		Predictions:        Predict(a),
	}
}
