package models

// SearchRequest is the payload for POST /api/search.
type SearchRequest struct {
	// ProductName is the free-text product query. Required.
	ProductName string `json:"product_name" binding:"required"`

	// MaxResults caps the number of product pages scraped.
	// Default: 30. Max: 50.
	MaxResults int `json:"max_results,omitempty" binding:"omitempty,min=1,max=50"`

	// IncludeDetailedInfo requests per-page field extraction.
	// Default: true.
	IncludeDetailedInfo *bool `json:"include_detailed_info,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *SearchRequest) Defaults() {
	if r.MaxResults == 0 {
		r.MaxResults = 30
	}
	if r.IncludeDetailedInfo == nil {
		t := true
		r.IncludeDetailedInfo = &t
	}
}

// DownloadRequest is the payload for POST /api/download. Results is the
// result set exactly as returned by /api/search; it is rendered as-is,
// never re-fetched.
type DownloadRequest struct {
	Results *SearchResults `json:"results" binding:"required"`

	// Format selects the rendered file type: "excel" or "json".
	// Default: "excel".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=excel json"`
}

// Defaults applies default values to unset fields.
func (r *DownloadRequest) Defaults() {
	if r.Format == "" {
		r.Format = "excel"
	}
}
