package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Serp      SerpConfig
	Scraper   ScraperConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// SerpConfig controls the SerpAPI search provider used for product page
// discovery.
type SerpConfig struct {
	// APIKey is the SerpAPI key. Discovery fails fast when unset.
	APIKey string

	// BaseURL is the SerpAPI endpoint; overridable for tests.
	BaseURL string // default: "https://serpapi.com/search"

	// PageSize is the number of organic results requested per query.
	PageSize int // default: 10

	// QueriesPerSecond paces consecutive SerpAPI calls.
	QueriesPerSecond float64 // default: 1
}

// ScraperConfig controls product page fetching and extraction.
type ScraperConfig struct {
	// PageTimeout is the per-page fetch deadline.
	PageTimeout time.Duration // default: 15s

	// MaxConcurrency caps concurrent page fetches.
	MaxConcurrency int // default: 4

	// FetchesPerSecond paces page fetches against the target site.
	FetchesPerSecond float64 // default: 1

	// MaxBodyBytes caps the size of a fetched page body.
	MaxBodyBytes int64 // default: 10 MB

	// Proxy is an optional proxy URL for page fetches.
	Proxy string
}

// RateLimitConfig controls per-client API rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client IP.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per client IP.
	Burst int // default: 10
}

// CacheConfig controls the search response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached result sets.
	MaxEntries int // default: 256

	// MaxAge is how long a cached result set stays servable.
	// Zero disables the cache.
	MaxAge time.Duration // default: 10m
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: envOr("TRADESCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("TRADESCOUT_PORT", 8080),
			Mode: envOr("TRADESCOUT_MODE", "release"),
		},
		Serp: SerpConfig{
			APIKey:           os.Getenv("SERPAPI_KEY"),
			BaseURL:          envOr("SERPAPI_BASE_URL", "https://serpapi.com/search"),
			PageSize:         envIntOr("SERPAPI_PAGE_SIZE", 10),
			QueriesPerSecond: envFloatOr("SERPAPI_QPS", 1.0),
		},
		Scraper: ScraperConfig{
			PageTimeout:      envDurationOr("TRADESCOUT_PAGE_TIMEOUT", 15*time.Second),
			MaxConcurrency:   envIntOr("TRADESCOUT_MAX_CONCURRENCY", 4),
			FetchesPerSecond: envFloatOr("TRADESCOUT_FETCH_RPS", 1.0),
			MaxBodyBytes:     int64(envIntOr("TRADESCOUT_MAX_BODY_BYTES", 10*1024*1024)),
			Proxy:            os.Getenv("TRADESCOUT_PROXY"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("TRADESCOUT_RATE_RPS", 5.0),
			Burst:             envIntOr("TRADESCOUT_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("TRADESCOUT_CACHE_MAX_ENTRIES", 256),
			MaxAge:     envDurationOr("TRADESCOUT_CACHE_MAX_AGE", 10*time.Minute),
		},
		Log: LogConfig{
			Level:  envOr("TRADESCOUT_LOG_LEVEL", "info"),
			Format: envOr("TRADESCOUT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
