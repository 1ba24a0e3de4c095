package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scout-labs/tradescout/config"
	"github.com/scout-labs/tradescout/models"
	"github.com/scout-labs/tradescout/serp"
)

// fakeProvider returns a canned link list.
type fakeProvider struct {
	links []serp.Link
	err   error
}

func (f *fakeProvider) Search(_ context.Context, _ string, limit int) ([]serp.Link, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.links) > limit {
		return f.links[:limit], nil
	}
	return f.links, nil
}

func testConfig() config.ScraperConfig {
	return config.ScraperConfig{
		PageTimeout:      5 * time.Second,
		MaxConcurrency:   2,
		FetchesPerSecond: 1000,
	}
}

func TestScrapeProduct_AssemblesResultsInDiscoveryOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/p1.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><h1 class="product-title">First Product</h1></body></html>`))
	})
	mux.HandleFunc("/p2.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><h1 class="product-title">Second Product</h1></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	provider := &fakeProvider{links: []serp.Link{
		{URL: srv.URL + "/p1.html", Title: "First"},
		{URL: srv.URL + "/p2.html", Title: "Second"},
	}}

	s := New(provider, testConfig(), NewMetrics())
	s.now = func() time.Time { return fixedTime }

	results, err := s.ScrapeProduct(context.Background(), "widgets", 10)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if results.TotalResults != 2 || len(results.Products) != 2 {
		t.Fatalf("got %d results, want 2", results.TotalResults)
	}
	if results.Products[0]["Product Name"] != "First Product" {
		t.Errorf("first product = %q", results.Products[0]["Product Name"])
	}
	if results.Products[1]["Product Name"] != "Second Product" {
		t.Errorf("second product = %q", results.Products[1]["Product Name"])
	}
	if results.ProductName != "widgets" {
		t.Errorf("ProductName = %q", results.ProductName)
	}
	if results.ScrapedAt != fixedTime.Format("2006-01-02 15:04:05") {
		t.Errorf("ScrapedAt = %q", results.ScrapedAt)
	}
}

func TestScrapeProduct_SkipsFailedPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><h1>Survivor</h1></body></html>`))
	})
	mux.HandleFunc("/broken.html", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	provider := &fakeProvider{links: []serp.Link{
		{URL: srv.URL + "/broken.html"},
		{URL: srv.URL + "/ok.html"},
	}}

	s := New(provider, testConfig(), nil)
	s.fetcher.retryWait = 0
	results, err := s.ScrapeProduct(context.Background(), "widgets", 10)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if results.TotalResults != 1 {
		t.Fatalf("got %d results, want 1", results.TotalResults)
	}
	if results.Products[0]["Product Name"] != "Survivor" {
		t.Errorf("product = %q", results.Products[0]["Product Name"])
	}
}

func TestScrapeProduct_RecoversFromTransient503(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/flaky.html", func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`<html><body><h1 class="product-title">Flaky Product</h1></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	provider := &fakeProvider{links: []serp.Link{{URL: srv.URL + "/flaky.html"}}}
	s := New(provider, testConfig(), nil)
	s.fetcher.retryWait = 0

	results, err := s.ScrapeProduct(context.Background(), "widgets", 10)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if results.TotalResults != 1 {
		t.Fatalf("got %d results, want the page recovered on retry", results.TotalResults)
	}
	if results.Products[0]["Product Name"] != "Flaky Product" {
		t.Errorf("product = %q", results.Products[0]["Product Name"])
	}
	if calls.Load() != 2 {
		t.Errorf("got %d fetch attempts, want 2", calls.Load())
	}
}

func TestScrapeProduct_NoLinksIsNoResultsError(t *testing.T) {
	s := New(&fakeProvider{}, testConfig(), nil)

	_, err := s.ScrapeProduct(context.Background(), "unobtainium", 10)
	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.Code != models.ErrCodeNoResults {
		t.Errorf("code = %q, want %q", apiErr.Code, models.ErrCodeNoResults)
	}
}

func TestScrapeProduct_DiscoveryFailureIsUpstreamError(t *testing.T) {
	s := New(&fakeProvider{err: errors.New("serp exploded")}, testConfig(), nil)

	_, err := s.ScrapeProduct(context.Background(), "widgets", 10)
	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.Code != models.ErrCodeUpstream {
		t.Errorf("code = %q, want %q", apiErr.Code, models.ErrCodeUpstream)
	}
}
