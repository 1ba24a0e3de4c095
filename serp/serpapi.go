package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/scout-labs/tradescout/config"
)

// SerpAPI discovers TradeIndia product pages through the SerpAPI Google
// engine. Several query strategies are tried in order until enough valid
// product links have been collected; calls are paced by a token bucket to
// stay inside the provider's rate limits.
type SerpAPI struct {
	cfg     config.SerpConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewSerpAPI creates a SerpAPI provider from configuration.
func NewSerpAPI(cfg config.SerpConfig) (*SerpAPI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("serp: SERPAPI_KEY not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://serpapi.com/search"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	qps := cfg.QueriesPerSecond
	if qps <= 0 {
		qps = 1
	}
	return &SerpAPI{
		cfg:     cfg,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(qps), 1),
	}, nil
}

// queries returns the search strategies tried for a product name, from the
// most to the least specific.
func queries(productName string) []string {
	return []string{
		fmt.Sprintf("%q site:tradeindia.com/products", productName),
		fmt.Sprintf("%s supplier site:tradeindia.com", productName),
		fmt.Sprintf("%s manufacturer site:tradeindia.com", productName),
		fmt.Sprintf("%s site:tradeindia.com -question -answer -blog", productName),
		fmt.Sprintf("%s site:tradeindia.com filetype:html", productName),
	}
}

// Search implements Provider. Individual query failures are logged and
// skipped; an error is returned only when every strategy fails outright.
func (s *SerpAPI) Search(ctx context.Context, productName string, limit int) ([]Link, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("serp: limit must be positive, got %d", limit)
	}

	var links []Link
	var lastErr error
	failures := 0

	strategies := queries(productName)
	for _, q := range strategies {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("serp: %w", err)
		}

		found, err := s.runQuery(ctx, q)
		if err != nil {
			slog.Warn("serp query failed", "query", q, "error", err)
			lastErr = err
			failures++
			continue
		}

		slog.Debug("serp query completed", "query", q, "valid_links", len(found))
		links = dedupe(append(links, found...))
		if len(links) >= limit {
			break
		}
	}

	if failures == len(strategies) && lastErr != nil {
		return nil, fmt.Errorf("serp: all query strategies failed: %w", lastErr)
	}
	if len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

// organicResult is the subset of a SerpAPI organic result we read.
type organicResult struct {
	Link  string `json:"link"`
	Title string `json:"title"`
}

type serpResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
	Error          string          `json:"error"`
}

// runQuery executes one SerpAPI request and returns the valid product links.
func (s *SerpAPI) runQuery(ctx context.Context, query string) ([]Link, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", s.cfg.APIKey)
	params.Set("num", strconv.Itoa(s.cfg.PageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	var parsed serpResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("provider error: %s", parsed.Error)
	}

	links := make([]Link, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		if onTradeIndia(r.Link) && IsProductPage(r.Link, r.Title) {
			links = append(links, Link{URL: r.Link, Title: r.Title})
		}
	}
	return links, nil
}
