package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"coin-compass/internal/domain"
	"coin-compass/internal/sentiment"
	"coin-compass/internal/service"

	tele "gopkg.in/telebot.v3"
)

type RecommendationSource interface {
	Recommendations(ctx context.Context) ([]domain.EnhancedCryptoAnalysis, error)
	Coins(ctx context.Context) ([]domain.Coin, error)
	LastSummary() service.CycleSummary
	DataSource() string
}

type SentimentSource interface {
	Fetch(ctx context.Context) sentiment.Snapshot
}

// StartTelegramBot brings up the long-polling bot. An empty token skips
// startup so the rest of the process runs without Telegram.
func StartTelegramBot(token string, recs RecommendationSource, sentimentSvc SentimentSource) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/top", func(c tele.Context) error {
		ranked, err := recs.Recommendations(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching recommendations: %v", err))
		}
		return c.Send(formatTop(ranked))
	})

	b.Handle("/price", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /price bitcoin")
		}
		coins, err := recs.Coins(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching coins: %v", err))
		}
		coin, ok := findCoin(coins, args[0])
		if !ok {
			return c.Send(fmt.Sprintf("Unknown coin: %s", args[0]))
		}
		return c.Send(formatCoin(coin))
	})

	b.Handle("/sentiment", func(c tele.Context) error {
		if sentimentSvc == nil {
			return c.Send("Sentiment is not configured")
		}
		return c.Send(formatSentiment(sentimentSvc.Fetch(context.Background())))
	})

	b.Handle("/source", func(c tele.Context) error {
		summary := recs.LastSummary()
		return c.Send(fmt.Sprintf(
			"Data source: %s\nLast cycle: %d candidates, %d ranked (%s ago)",
			recs.DataSource(), summary.Candidates, summary.Ranked,
			time.Since(summary.At).Round(time.Second),
		))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func findCoin(coins []domain.Coin, query string) (domain.Coin, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, c := range coins {
		if c.ID == q || strings.ToLower(c.Symbol) == q {
			return c, true
		}
	}
	return domain.Coin{}, false
}

func formatCoin(c domain.Coin) string {
	return fmt.Sprintf(
		"%s (%s)\nPrice: $%.4f\n24h Change: %.2f%%\n24h Volume: $%.0f\nRank: #%d",
		c.Name, strings.ToUpper(c.Symbol), c.CurrentPrice, c.PriceChangePct24h, c.TotalVolume, c.MarketCapRank,
	)
}

func formatTop(ranked []domain.EnhancedCryptoAnalysis) string {
	if len(ranked) == 0 {
		return "No recommendations this cycle"
	}
	var sb strings.Builder
	sb.WriteString("Top picks:\n")
	for i, r := range ranked {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&sb, "%d. %s (%s) 24h %+.2f%% score %.0f [%s]\n",
			i+1, r.Coin.Name, strings.ToUpper(r.Coin.Symbol),
			r.Predictions[domain.Horizon24h], r.TechnicalScore, r.MarketCycle,
		)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatSentiment(snap sentiment.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Market sentiment: %s (%.2f, confidence %.0f%%)\n",
		snap.Label, snap.Score, snap.Confidence*100)
	if snap.FearGreedValue != nil {
		fmt.Fprintf(&sb, "Fear & Greed index: %d\n", *snap.FearGreedValue)
	}
	for name, res := range snap.Platforms {
		if !res.Available {
			fmt.Fprintf(&sb, "%s: unavailable\n", name)
			continue
		}
		fmt.Fprintf(&sb, "%s: %.2f over %d items\n", name, res.Score, res.Items)
	}
	return strings.TrimRight(sb.String(), "\n")
}
