package client

import (
	"fmt"
	"io"
	"strings"

	"github.com/scout-labs/tradescout/models"
)

// DefaultMaxResults is applied when the caller passes 0.
const DefaultMaxResults = 20

// AllowedMaxResults is the fixed set of result caps the search surface
// offers.
var AllowedMaxResults = []int{10, 20, 30, 50}

// SearchQuery is a validated product search. Build one with NewSearchQuery;
// it is immutable once sent.
type SearchQuery struct {
	ProductName         string `json:"product_name"`
	MaxResults          int    `json:"max_results"`
	IncludeDetailedInfo bool   `json:"include_detailed_info"`
}

// NewSearchQuery validates and normalizes raw user input into a
// SearchQuery. The product name is trimmed and must be non-empty;
// maxResults must be 0 (meaning DefaultMaxResults) or one of
// AllowedMaxResults. Validation failures are *ErrorInfo with
// ErrKindValidation and never issue a network call.
func NewSearchQuery(productName string, maxResults int) (SearchQuery, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return SearchQuery{}, validationErr("empty query")
	}

	if maxResults == 0 {
		maxResults = DefaultMaxResults
	}
	valid := false
	for _, n := range AllowedMaxResults {
		if maxResults == n {
			valid = true
			break
		}
	}
	if !valid {
		return SearchQuery{}, validationErr(fmt.Sprintf("max results must be one of %v", AllowedMaxResults))
	}

	return SearchQuery{
		ProductName:         name,
		MaxResults:          maxResults,
		IncludeDetailedInfo: true,
	}, nil
}

// Format selects the rendered export file type.
type Format string

const (
	FormatExcel Format = "excel"
	FormatJSON  Format = "json"
)

// ParseFormat converts a raw token into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "excel":
		return FormatExcel, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", validationErr(fmt.Sprintf("unknown export format %q", s))
	}
}

// ExportRequest asks for one rendered export of a result set. Results is
// the exact set to render; it is sent to the backend, never re-fetched.
type ExportRequest struct {
	Results *models.SearchResults `json:"results"`
	Format  Format                `json:"format"`
}

// DownloadedFile is a rendered export ready to be persisted: the resolved
// filename and the binary payload. The payload must be closed exactly once;
// Orchestrator.Export drains and releases it as part of saving, after which
// Payload is nil.
type DownloadedFile struct {
	Filename string
	Payload  io.ReadCloser
}
