package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesTotal      *prometheus.CounterVec
	PageDuration    prometheus.Histogram
	SearchesTotal   *prometheus.CounterVec
	ProductsScraped prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradescout_pages_total",
			Help: "Product page fetches by outcome.",
		},
		[]string{"outcome"},
	)
	pageDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tradescout_page_duration_seconds",
			Help:    "Product page fetch and extraction latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	searches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradescout_searches_total",
			Help: "Product searches by outcome.",
		},
		[]string{"outcome"},
	)
	products := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tradescout_products_scraped_total",
			Help: "Total product records assembled.",
		},
	)

	registry.MustRegister(pages, pageDuration, searches, products)

	return &Metrics{
		Registry:        registry,
		PagesTotal:      pages,
		PageDuration:    pageDuration,
		SearchesTotal:   searches,
		ProductsScraped: products,
	}
}

func (m *Metrics) observePage(start time.Time, outcome string) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(outcome).Inc()
	m.PageDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeSearch(outcome string, products int) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.ProductsScraped.Add(float64(products))
}
