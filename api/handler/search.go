package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scout-labs/tradescout/cache"
	"github.com/scout-labs/tradescout/models"
	"github.com/scout-labs/tradescout/scraper"
)

const apiVersion = "1.0"

// Search returns a handler for POST /api/search.
//
// Flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup on (product_name, max_results).
//  3. Scraper.ScrapeProduct → result set.
//  4. Attach response metadata, store in cache, return 200.
func Search(sc *scraper.Scraper, cc *cache.Cache, cacheMaxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Product name is required"})
			return
		}
		runSearch(c, sc, cc, cacheMaxAge, req)
	}
}

// SearchGet returns a handler for GET /api/search, accepting the same
// parameters as query strings. Kept for quick manual testing.
func SearchGet(sc *scraper.Scraper, cc *cache.Cache, cacheMaxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := models.SearchRequest{
			ProductName: c.Query("product_name"),
		}
		if v := c.Query("max_results"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				req.MaxResults = n
			}
		}
		if v := c.Query("include_detailed_info"); v != "" {
			b := strings.EqualFold(v, "true")
			req.IncludeDetailedInfo = &b
		}
		runSearch(c, sc, cc, cacheMaxAge, req)
	}
}

func runSearch(c *gin.Context, sc *scraper.Scraper, cc *cache.Cache, cacheMaxAge time.Duration, req models.SearchRequest) {
	req.ProductName = strings.TrimSpace(req.ProductName)
	if req.ProductName == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Product name is required"})
		return
	}
	req.Defaults()

	// The GET route bypasses the JSON binding bounds, so both routes are
	// checked here.
	if req.MaxResults < 1 || req.MaxResults > 50 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "max_results must be between 1 and 50"})
		return
	}

	requestID := time.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8]

	if cc != nil && cacheMaxAge > 0 {
		key := cache.Key(req.ProductName, req.MaxResults)
		if cached, hit := cc.Get(key, cacheMaxAge); hit {
			c.JSON(http.StatusOK, models.SearchResponse{
				SearchResults: *cached,
				APIVersion:    apiVersion,
				RequestID:     requestID,
				CacheStatus:   "hit",
			})
			return
		}
	}

	slog.Info("searching for product", "product", req.ProductName, "request_id", requestID)

	results, err := sc.ScrapeProduct(c.Request.Context(), req.ProductName, req.MaxResults)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.SearchResponse{
		SearchResults: *results,
		APIVersion:    apiVersion,
		RequestID:     requestID,
	}
	if cc != nil && cacheMaxAge > 0 {
		cc.Set(cache.Key(req.ProductName, req.MaxResults), results)
		resp.CacheStatus = "miss"
	}

	slog.Info("search completed",
		"product", req.ProductName,
		"total_results", results.TotalResults,
		"request_id", requestID,
	)
	c.JSON(http.StatusOK, resp)
}

// respondError maps an APIError to the correct HTTP status code and writes
// the {"error": ...} body clients key on.
func respondError(c *gin.Context, err error) {
	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		apiErr = models.NewAPIError(models.ErrCodeInternal, err.Error(), err)
	}

	slog.Error("request failed", "code", apiErr.Code, "error", err)
	c.JSON(mapErrorToStatus(apiErr), models.ErrorResponse{Error: apiErr.Message})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.APIError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNoResults:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUpstream:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
