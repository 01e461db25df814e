package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coin-compass/internal/analysis"
	"coin-compass/internal/bot"
	"coin-compass/internal/cache"
	"coin-compass/internal/config"
	"coin-compass/internal/failover"
	"coin-compass/internal/handler"
	"coin-compass/internal/job"
	"coin-compass/internal/provider"
	"coin-compass/internal/sentiment"
	"coin-compass/internal/service"
	"coin-compass/internal/ta"
	"coin-compass/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "coin-compass/docs"
)

var (
	loadEnvFunc     = godotenv.Load
	loadConfigFunc  = config.Load
	connectRedis    = cache.Connect
	initTracerFunc  = tracing.Init
	newRouterFunc   = gin.Default
	startRefreshJob = func(j *job.RefreshJob, ctx context.Context) { go j.Start(ctx) }

	startTelegramBotFunc   = bot.StartTelegramBot
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// newMarketSource builds the failover chain in strict priority order:
// CoinGecko direct, CoinGecko through each relay, then the independent
// providers with their own schemas.
func newMarketSource(tracer trace.Tracer) *failover.Orchestrator {
	return failover.New(tracer,
		provider.NewCoinGeckoAdapter(tracer),
		provider.NewCoinGeckoViaRelay(tracer, provider.NewAllOriginsRelay()),
		provider.NewCoinGeckoViaRelay(tracer, provider.NewCorsProxyRelay()),
		provider.NewCoinCapAdapter(tracer),
		provider.NewCoinPaprikaAdapter(tracer),
		provider.NewBinanceAdapter(tracer),
	)
}

func newSentimentService(tracer trace.Tracer, cfg *config.Config) *sentiment.Service {
	var llm sentiment.BatchLLMScorer
	if cfg.OpenAIAPIKey != "" {
		llm = sentiment.NewOpenAIScorer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	return sentiment.NewService(
		tracer,
		provider.NewFearGreedProvider(tracer),
		provider.NewRedditProvider(tracer),
		provider.NewRSSProvider(tracer),
		sentiment.NewScorer(llm, 10),
		sentiment.Config{
			NewsFeeds:       cfg.NewsFeeds,
			RedditSubs:      cfg.RedditSubs,
			RedditPostLimit: cfg.RedditPostLimit,
		},
	)
}

// @title           Coin Compass API
// @version         1.0
// @description     Multi-source crypto market data with failover and ranked trading recommendations.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx, "coin-compass")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var redisClient service.RedisClient
	if client, err := connectRedis(ctx, cfg.RedisURL); err != nil {
		log.Printf("Warning: redis unavailable, running memory-only: %v", err)
	} else {
		redisClient = client
	}

	th := analysis.DefaultThresholds()
	th.TopK = cfg.TopK
	th.BatchSize = cfg.BatchSize
	th.EarlyStopMultiplier = cfg.EarlyStopMultiplier
	th.InterBatchDelay = time.Duration(cfg.InterBatchDelayMS) * time.Millisecond

	source := newMarketSource(tracer)
	recService := service.NewRecommendationService(
		tracer, source, ta.NewEngine(tracer), th, redisClient, cfg.CandidateCount,
	)
	sentimentService := newSentimentService(tracer, cfg)

	refreshJob := job.NewRefreshJob(tracer, recService, time.Duration(cfg.RefreshSecs)*time.Second)
	startRefreshJob(refreshJob, ctx)

	startTelegramBotFunc(cfg.TelegramBotToken, recService, sentimentService)

	h := handler.New(tracer, recService, sentimentService)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("coin-compass"))
	if cfg.APIKey != "" {
		r.Use(handler.APIKeyAuth(cfg.APIKey))
	}

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
