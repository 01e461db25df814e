package provider

import "time"

// FearGreedPoint is one reading of the alternative.me fear & greed index.
type FearGreedPoint struct {
	Value            int
	Classification   string
	Timestamp        time.Time
	TimeUntilUpdateS int
}

// ContentItem is one sentiment-bearing post or headline from a platform.
type ContentItem struct {
	Source       string
	SourceItemID string
	Title        string
	URL          string
	Excerpt      string
	Author       string
	PublishedAt  time.Time
	Metadata     map[string]any
}
