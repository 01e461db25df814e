package sentiment

import "math"

// Platform keys in the composite.
const (
	PlatformFearGreed = "fear_greed"
	PlatformNews      = "news"
	PlatformReddit    = "reddit"
)

// PlatformResult is the settled outcome for one platform: either a score or
// the documented neutral default with Available=false.
type PlatformResult struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Available  bool    `json:"available"`
	Items      int     `json:"items"`
	Error      string  `json:"error,omitempty"`
}

// Composite is the market-wide sentiment reading.
type Composite struct {
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Label      string             `json:"label"`
	Weights    map[string]float64 `json:"weights"`
}

var platformWeights = map[string]float64{
	PlatformFearGreed: 0.25,
	PlatformNews:      0.40,
	PlatformReddit:    0.35,
}

// BuildComposite folds per-platform results into one score. Weights are
// renormalized over the platforms that answered; with none available the
// composite is the neutral default with zero confidence.
func BuildComposite(platforms map[string]PlatformResult) Composite {
	activeWeight := 0.0
	for name, p := range platforms {
		if p.Available {
			activeWeight += platformWeights[name]
		}
	}

	if activeWeight <= 0 {
		return Composite{Label: "neutral", Weights: map[string]float64{}}
	}

	normalized := make(map[string]float64, len(platformWeights))
	for name, w := range platformWeights {
		if p, ok := platforms[name]; ok && p.Available {
			normalized[name] = w / activeWeight
		}
	}

	score := 0.0
	confidence := 0.0
	for name, w := range normalized {
		score += w * clamp(platforms[name].Score, -1, 1)
		confidence += w * clamp(platforms[name].Confidence, 0, 1)
	}
	score = clamp(score, -1, 1)
	confidence = clamp(confidence, 0, 1)

	label := "neutral"
	if score > 0.2 {
		label = "bullish"
	} else if score < -0.2 {
		label = "bearish"
	}

	return Composite{
		Score:      score,
		Confidence: confidence,
		Label:      label,
		Weights:    normalized,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
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
