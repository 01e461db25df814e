package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port   string
	APIKey string

	RedisURL         string
	TelegramBotToken string

	OpenAIAPIKey string
	OpenAIModel  string

	// Recommendation cycle tuning.
	RefreshSecs         int
	CandidateCount      int
	TopK                int
	BatchSize           int
	EarlyStopMultiplier int
	InterBatchDelayMS   int

	// Sentiment inputs.
	NewsFeeds       []string
	RedditSubs      []string
	RedditPostLimit int
}

var defaultNewsFeeds = []string{
	"https://cointelegraph.com/rss",
	"https://www.coindesk.com/arc/outboundfeeds/rss/",
	"https://decrypt.co/feed",
}

var defaultRedditSubs = []string{
	"CryptoCurrency",
	"Bitcoin",
	"ethtrader",
}

func Load() *Config {
	cfg := &Config{
		APIKey:           os.Getenv("API_KEY"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, bot disabled")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, sentiment falls back to keyword scoring")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.RefreshSecs = intEnv("REFRESH_SECS", 600)
	cfg.CandidateCount = intEnv("CANDIDATE_COUNT", 100)
	cfg.TopK = intEnv("TOP_K", 10)
	cfg.BatchSize = intEnv("BATCH_SIZE", 10)
	cfg.EarlyStopMultiplier = intEnv("EARLY_STOP_MULTIPLIER", 2)
	cfg.InterBatchDelayMS = intEnv("INTER_BATCH_DELAY_MS", 1000)

	cfg.NewsFeeds = listEnv("NEWS_FEEDS", defaultNewsFeeds)
	cfg.RedditSubs = listEnv("REDDIT_SUBS", defaultRedditSubs)
	cfg.RedditPostLimit = intEnv("REDDIT_POST_LIMIT", 40)

	return cfg
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Warning: invalid %s=%q, defaulting to %d", key, v, fallback)
		return fallback
	}
	return n
}

func listEnv(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
