package config

import (
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "API_KEY", "REDIS_URL", "TELEGRAM_BOT_TOKEN",
		"OPENAI_API_KEY", "OPENAI_MODEL",
		"REFRESH_SECS", "CANDIDATE_COUNT", "TOP_K", "BATCH_SIZE",
		"EARLY_STOP_MULTIPLIER", "INTER_BATCH_DELAY_MS",
		"NEWS_FEEDS", "REDDIT_SUBS", "REDDIT_POST_LIMIT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port, got %s", cfg.Port)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Errorf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("expected default model, got %s", cfg.OpenAIModel)
	}
	if cfg.RefreshSecs != 600 || cfg.TopK != 10 || cfg.BatchSize != 10 {
		t.Errorf("unexpected cycle defaults: %+v", cfg)
	}
	if cfg.EarlyStopMultiplier != 2 {
		t.Errorf("expected early stop multiplier 2, got %d", cfg.EarlyStopMultiplier)
	}
	if !reflect.DeepEqual(cfg.NewsFeeds, defaultNewsFeeds) {
		t.Errorf("expected default news feeds, got %v", cfg.NewsFeeds)
	}
	if cfg.RedditPostLimit != 40 {
		t.Errorf("expected default reddit post limit, got %d", cfg.RedditPostLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("TOP_K", "5")
	t.Setenv("BATCH_SIZE", "20")
	t.Setenv("NEWS_FEEDS", "https://a.example/rss, https://b.example/rss")
	t.Setenv("REDDIT_SUBS", "CryptoMarkets")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.RedisURL != "redis://cache:6379" {
		t.Errorf("expected overridden redis url, got %s", cfg.RedisURL)
	}
	if cfg.TopK != 5 || cfg.BatchSize != 20 {
		t.Errorf("unexpected overrides: topK=%d batch=%d", cfg.TopK, cfg.BatchSize)
	}
	want := []string{"https://a.example/rss", "https://b.example/rss"}
	if !reflect.DeepEqual(cfg.NewsFeeds, want) {
		t.Errorf("expected parsed feed list, got %v", cfg.NewsFeeds)
	}
	if !reflect.DeepEqual(cfg.RedditSubs, []string{"CryptoMarkets"}) {
		t.Errorf("expected parsed sub list, got %v", cfg.RedditSubs)
	}
}

func TestLoadRejectsInvalidInts(t *testing.T) {
	t.Setenv("TOP_K", "zero")
	t.Setenv("REFRESH_SECS", "-5")

	cfg := Load()

	if cfg.TopK != 10 {
		t.Errorf("expected fallback topK, got %d", cfg.TopK)
	}
	if cfg.RefreshSecs != 600 {
		t.Errorf("expected fallback refresh secs, got %d", cfg.RefreshSecs)
	}
}
