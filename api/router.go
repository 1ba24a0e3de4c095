package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scout-labs/tradescout/api/handler"
	"github.com/scout-labs/tradescout/api/middleware"
	"github.com/scout-labs/tradescout/cache"
	"github.com/scout-labs/tradescout/config"
	"github.com/scout-labs/tradescout/scraper"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     RateLimit
//
// Health and metrics endpoints sit outside the rate limiter so monitoring
// probes always work.
func NewRouter(sc *scraper.Scraper, metrics *scraper.Metrics, cfg *config.Config, cc *cache.Cache, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}

	apiGroup := r.Group("/api")

	apiGroup.GET("/health", handler.Health(sc, cfg, startTime))

	limited := apiGroup.Group("")
	limited.Use(middleware.RateLimit(cfg.RateLimit))

	limited.POST("/search", handler.Search(sc, cc, cfg.Cache.MaxAge))
	limited.GET("/search", handler.SearchGet(sc, cc, cfg.Cache.MaxAge))
	limited.POST("/download", handler.Download())

	return r
}
