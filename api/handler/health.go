package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scout-labs/tradescout/config"
	"github.com/scout-labs/tradescout/models"
	"github.com/scout-labs/tradescout/scraper"
)

// Health returns a handler for GET /api/health.
func Health(sc *scraper.Scraper, cfg *config.Config, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:           "healthy",
			Timestamp:        time.Now().Format(time.RFC3339),
			ScraperReady:     sc != nil,
			APIKeyConfigured: cfg.Serp.APIKey != "",
			Uptime:           time.Since(startTime).Round(time.Second).String(),
			Version:          "0.1.0",
		})
	}
}
