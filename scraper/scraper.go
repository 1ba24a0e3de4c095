package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/scout-labs/tradescout/config"
	"github.com/scout-labs/tradescout/models"
	"github.com/scout-labs/tradescout/serp"
)

// Scraper discovers TradeIndia product pages for a query and extracts a
// record from each. Discovery goes through the serp.Provider; page fetches
// run with bounded concurrency and are paced by a shared token bucket.
type Scraper struct {
	provider serp.Provider
	fetcher  *httpFetcher
	cfg      config.ScraperConfig
	limiter  *rate.Limiter
	metrics  *Metrics

	now func() time.Time // injectable clock for tests
}

// New creates a Scraper. metrics may be nil to disable instrumentation.
func New(provider serp.Provider, cfg config.ScraperConfig, metrics *Metrics) *Scraper {
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 15 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	rps := cfg.FetchesPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Scraper{
		provider: provider,
		fetcher:  newHTTPFetcher(cfg.Proxy, cfg.MaxBodyBytes),
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		metrics:  metrics,
		now:      time.Now,
	}
}

// ScrapeProduct runs the full pipeline for one product query: SERP
// discovery, then per-page fetch and extraction. Pages that fail to fetch
// or parse are skipped; the result order follows the discovery ranking.
// It returns a models.APIError with code NO_RESULTS when discovery yields
// no valid product pages.
func (s *Scraper) ScrapeProduct(ctx context.Context, productName string, maxResults int) (*models.SearchResults, error) {
	slog.Info("starting product scrape", "product", productName, "max_results", maxResults)

	links, err := s.provider.Search(ctx, productName, maxResults)
	if err != nil {
		s.metrics.observeSearch("discovery_error", 0)
		return nil, models.NewAPIError(models.ErrCodeUpstream, "product page discovery failed", err)
	}
	if len(links) == 0 {
		s.metrics.observeSearch("no_results", 0)
		return nil, models.NewAPIError(models.ErrCodeNoResults,
			fmt.Sprintf("no valid product pages found for '%s'", productName), nil)
	}

	records := make([]models.ProductRecord, len(links))
	sem := make(chan struct{}, s.cfg.MaxConcurrency)
	var wg sync.WaitGroup

	for i, link := range links {
		wg.Add(1)
		go func(idx int, l serp.Link) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			records[idx] = s.scrapePage(ctx, l)
		}(i, link)
	}
	wg.Wait()

	products := make([]models.ProductRecord, 0, len(records))
	for _, r := range records {
		if r != nil {
			products = append(products, r)
		}
	}

	results := &models.SearchResults{
		ProductName:  productName,
		TotalResults: len(products),
		ScrapedAt:    s.now().Format("2006-01-02 15:04:05"),
		Products:     products,
	}

	s.metrics.observeSearch("ok", len(products))
	slog.Info("product scrape completed",
		"product", productName,
		"links", len(links),
		"products", len(products),
	)
	return results, nil
}

// scrapePage fetches and extracts a single product page. Returns nil when
// the page cannot be used; the caller drops nil entries.
func (s *Scraper) scrapePage(ctx context.Context, link serp.Link) models.ProductRecord {
	start := time.Now()

	pageCtx, cancel := context.WithTimeout(ctx, s.cfg.PageTimeout)
	defer cancel()

	body, err := s.fetcher.fetch(pageCtx, link.URL)
	if err != nil {
		slog.Warn("page fetch failed", "url", link.URL, "error", err)
		s.metrics.observePage(start, "fetch_error")
		return nil
	}

	record, err := extractProduct(body, link.URL, s.now())
	if err != nil {
		slog.Warn("page extraction failed", "url", link.URL, "error", err)
		s.metrics.observePage(start, "parse_error")
		return nil
	}

	s.metrics.observePage(start, "ok")
	slog.Debug("extracted product",
		"url", link.URL,
		"name", record["Product Name"],
		"company", record["Company Name"],
	)
	return record
}
