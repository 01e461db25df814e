package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSentiment godoc
// @Summary      Get the composite market sentiment snapshot
// @Description  Fetches fear/greed, news, and reddit sentiment concurrently and blends them into a weighted composite
// @Tags         sentiment
// @Produce      json
// @Success      200  {object}  sentiment.Snapshot
// @Router       /api/sentiment [get]
func (h *Handler) GetSentiment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()

	snap := h.sentiment.Fetch(ctx)
	span.SetAttributes(attribute.String("sentiment.label", snap.Composite.Label))

	c.JSON(http.StatusOK, snap)
}
