package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"coin-compass/internal/bot"
	"coin-compass/internal/config"
	"coin-compass/internal/job"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestNewMarketSourceBuildsChain(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	source := newMarketSource(tp.Tracer("test"))
	if source == nil {
		t.Fatal("expected an orchestrator")
	}
	if got := source.CurrentSource(); got != "none" {
		t.Fatalf("expected no source before first success, got %s", got)
	}
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origConnectRedis := connectRedis
	origInitTracer := initTracerFunc
	origNewRouter := newRouterFunc
	origStartRefresh := startRefreshJob
	origStartTelegram := startTelegramBotFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{Port: "8080", RefreshSecs: 600, TopK: 10, BatchSize: 10, EarlyStopMultiplier: 2}
	}
	connectRedis = func(context.Context, string) (*redis.Client, error) {
		return nil, errors.New("redis down")
	}
	initTracerFunc = func(ctx context.Context, _ string) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	startRefreshJob = func(*job.RefreshJob, context.Context) {}
	startTelegramBotFunc = func(string, bot.RecommendationSource, bot.SentimentSource) {}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		connectRedis = origConnectRedis
		initTracerFunc = origInitTracer
		newRouterFunc = origNewRouter
		startRefreshJob = origStartRefresh
		startTelegramBotFunc = origStartTelegram
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
