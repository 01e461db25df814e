package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetRecommendations godoc
// @Summary      Get the current ranked trading recommendations
// @Description  Returns the latest recommendation cycle's ranked analysis list. An empty list is a valid outcome.
// @Tags         recommendations
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/recommendations [get]
func (h *Handler) GetRecommendations(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-recommendations")
	defer span.End()

	recommendations, err := h.recs.Recommendations(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recommendations": recommendations,
		"count":           len(recommendations),
		"source":          h.recs.DataSource(),
		"last_cycle":      h.recs.LastSummary(),
	})
}

// TriggerRefresh godoc
// @Summary      Run one recommendation cycle immediately
// @Description  Forces a full acquisition, filtering, and ranking cycle and returns its summary
// @Tags         recommendations
// @Produce      json
// @Success      200  {object}  service.CycleSummary
// @Failure      502  {object}  map[string]string
// @Router       /api/recommendations/refresh [post]
func (h *Handler) TriggerRefresh(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trigger-refresh")
	defer span.End()

	summary, err := h.recs.Refresh(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetCoins godoc
// @Summary      Get the canonical coin listing
// @Description  Returns the most recent canonical coin records with source provenance
// @Tags         coins
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Router       /api/coins [get]
func (h *Handler) GetCoins(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-coins")
	defer span.End()

	coins, err := h.recs.Coins(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"coins": coins, "count": len(coins)})
}

// GetHistory godoc
// @Summary      Get historical prices for a coin
// @Description  Returns the daily price series through the failover chain
// @Tags         coins
// @Produce      json
// @Param        id    path   string  true   "Coin identifier (e.g., bitcoin)"
// @Param        days  query  int     false  "History window in days"  default(7)
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Router       /api/coins/{id}/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	coinID := c.Param("id")
	span.SetAttributes(attribute.String("coin", coinID))

	days := 7
	if d := c.Query("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}

	points, err := h.recs.History(ctx, coinID, days)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": coinID, "days": days, "prices": points})
}

// GetDataSource godoc
// @Summary      Report the current upstream data source
// @Description  Names the most recent source that answered a request, or "none"
// @Tags         diagnostics
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/datasource [get]
func (h *Handler) GetDataSource(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"source": h.recs.DataSource()})
}
