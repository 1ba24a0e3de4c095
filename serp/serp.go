package serp

import "context"

// Link is a candidate product page discovered through a SERP query.
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Provider abstracts a search engine that can discover TradeIndia product
// pages for a product name. Implementations may use official APIs or
// scraping. The limit parameter caps the number of links returned.
type Provider interface {
	Search(ctx context.Context, productName string, limit int) ([]Link, error)
}
