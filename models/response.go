package models

// SearchResponse is the response for POST /api/search. It embeds the
// result set and adds response metadata.
type SearchResponse struct {
	SearchResults

	// APIVersion identifies the response schema.
	APIVersion string `json:"api_version"`

	// RequestID uniquely identifies this search for log correlation.
	RequestID string `json:"request_id"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching disabled).
	CacheStatus string `json:"cache_status,omitempty"`
}

// ErrorResponse is the body returned on any failed request. Clients key on
// the presence of "error" to distinguish backend-reported failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status           string `json:"status"`
	Timestamp        string `json:"timestamp"`
	ScraperReady     bool   `json:"scraper_ready"`
	APIKeyConfigured bool   `json:"api_key_configured"`
	Uptime           string `json:"uptime"`
	Version          string `json:"version"`
}
