// Package filter excludes stablecoins, wrapped/staked derivatives, and
// pegged assets from the candidate set before analysis.
package filter

import (
	"math"
	"strings"

	"coin-compass/internal/domain"
)

// Category labels excluded by bidirectional substring match.
var excludedCategories = []string{
	"stablecoin",
	"stablecoins",
	"wrapped tokens",
	"wrapped-tokens",
	"liquid staking",
	"liquid staking tokens",
	"liquid staking governance tokens",
	"synthetic asset",
	"tokenized gold",
	"tokenized commodities",
	"fiat-backed stablecoin",
	"crypto-backed stablecoin",
	"bridged stablecoins",
}

// Symbols that are stablecoins regardless of any category metadata.
var stablecoinSymbols = map[string]struct{}{
	"usdt": {}, "usdc": {}, "busd": {}, "dai": {}, "tusd": {},
	"usdp": {}, "gusd": {}, "frax": {}, "lusd": {}, "usdd": {},
	"fdusd": {}, "pyusd": {}, "usde": {}, "eurt": {}, "eurc": {},
	"usds": {}, "usd1": {}, "susd": {}, "husd": {}, "ustc": {},
}

// Name substrings that indicate a stablecoin or fiat-tracking asset.
var stablecoinNamePatterns = []string{
	"usd", "stable", "dollar", "tether", "euro", "pound sterling", "peso", "franc",
}

// Name/symbol substrings that indicate wrapped or staked derivatives.
var wrappedPatterns = []string{
	"wrapped", "wbtc", "weth", "wbnb", "steth", "wsteth", "reth", "cbeth",
	"staked", "restaked",
}

// Pegged-asset heuristic bounds: quiet price action in a narrow band around
// 1.0 is treated as evidence of a peg even without category metadata.
// May false-positive on genuinely low-volatility assets near $1; that
// precision/recall trade-off favors exclusion.
const (
	pegMaxAbsChangePct = 2.0
	pegBandLow         = 0.85
	pegBandHigh        = 1.15
)

// ShouldExclude reports whether a coin should be dropped from analysis.
// Pure predicate; any single rule firing is enough.
func ShouldExclude(coin domain.Coin, categories []string) bool {
	for _, category := range categories {
		if matchesExcludedCategory(category) {
			return true
		}
	}

	symbol := strings.ToLower(strings.TrimSpace(coin.Symbol))
	if _, ok := stablecoinSymbols[symbol]; ok {
		return true
	}

	name := strings.ToLower(coin.Name)
	for _, pattern := range stablecoinNamePatterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}

	for _, pattern := range wrappedPatterns {
		if strings.Contains(name, pattern) || strings.Contains(symbol, pattern) {
			return true
		}
	}

	if math.Abs(coin.PriceChangePct24h) < pegMaxAbsChangePct &&
		coin.CurrentPrice >= pegBandLow && coin.CurrentPrice <= pegBandHigh {
		return true
	}

	return false
}

// matchesExcludedCategory does a case-insensitive bidirectional substring
// match against the excluded-category list.
func matchesExcludedCategory(category string) bool {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return false
	}
	for _, excluded := range excludedCategories {
		if strings.Contains(category, excluded) || strings.Contains(excluded, category) {
			return true
		}
	}
	return false
}

// Apply returns the coins that survive ShouldExclude. categoriesByID may be
// nil when no category metadata is available. Idempotent.
func Apply(coins []domain.Coin, categoriesByID map[string][]string) []domain.Coin {
	kept := make([]domain.Coin, 0, len(coins))
	for _, coin := range coins {
		if ShouldExclude(coin, categoriesByID[coin.ID]) {
			continue
		}
		kept = append(kept, coin)
	}
	return kept
}
