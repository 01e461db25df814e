package handler

import (
	"context"

	"coin-compass/internal/domain"
	"coin-compass/internal/sentiment"
	"coin-compass/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// RecommendationReader is the service surface the HTTP layer consumes.
type RecommendationReader interface {
	Recommendations(ctx context.Context) ([]domain.EnhancedCryptoAnalysis, error)
	Coins(ctx context.Context) ([]domain.Coin, error)
	History(ctx context.Context, coinID string, days int) ([]domain.PricePoint, error)
	Refresh(ctx context.Context) (service.CycleSummary, error)
	LastSummary() service.CycleSummary
	DataSource() string
}

// SentimentFetcher produces a market-wide sentiment snapshot on demand.
type SentimentFetcher interface {
	Fetch(ctx context.Context) sentiment.Snapshot
}

type Handler struct {
	tracer    trace.Tracer
	recs      RecommendationReader
	sentiment SentimentFetcher
}

func New(tracer trace.Tracer, recs RecommendationReader, sentimentSvc SentimentFetcher) *Handler {
	return &Handler{
		tracer:    tracer,
		recs:      recs,
		sentiment: sentimentSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/recommendations", h.GetRecommendations)
	r.POST("/api/recommendations/refresh", h.TriggerRefresh)
	r.GET("/api/coins", h.GetCoins)
	r.GET("/api/coins/:id/history", h.GetHistory)
	r.GET("/api/datasource", h.GetDataSource)
	r.GET("/api/sentiment", h.GetSentiment)
}
