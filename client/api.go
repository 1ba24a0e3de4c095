package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/scout-labs/tradescout/models"
)

// DefaultTimeout bounds one request/response exchange when the Policy does
// not specify a timeout.
const DefaultTimeout = 30 * time.Second

// Policy makes the transport behavior explicit instead of inheriting
// ambient HTTP client defaults. The zero value means DefaultTimeout and no
// retries; neither workflow retries internally — retry is a user action.
type Policy struct {
	Timeout time.Duration
}

// API is the HTTP client for the tradescout backend. The base URL is an
// explicit constructor parameter; there is no package-level configuration.
type API struct {
	baseURL    string
	httpClient *http.Client

	now func() time.Time // injectable clock for filename synthesis
}

// NewAPI creates a backend client for the given base address, e.g.
// "http://localhost:8080/api".
func NewAPI(baseURL string, policy Policy) *API {
	timeout := policy.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Search issues the query against POST {base}/search and parses the result
// set. Failures are classified: non-2xx statuses and error payloads on a
// 2xx become backend errors carrying the service message; network and
// parse failures become transport errors.
func (a *API) Search(ctx context.Context, query SearchQuery) (*models.SearchResults, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, transportErr(fmt.Sprintf("encode search request: %v", err))
	}

	resp, err := a.post(ctx, "/search", body)
	if err != nil {
		return nil, transportErr(fmt.Sprintf("search request failed: %v", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportErr(fmt.Sprintf("read search response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, backendErr(backendMessage(payload, "search failed"))
	}

	// A 2xx body may still signal a backend-reported failure.
	var check models.ErrorResponse
	if json.Unmarshal(payload, &check) == nil && check.Error != "" {
		return nil, backendErr(check.Error)
	}

	var results models.SearchResults
	if err := json.Unmarshal(payload, &results); err != nil {
		return nil, transportErr(fmt.Sprintf("malformed search response: %v", err))
	}
	if results.Products == nil {
		results.Products = []models.ProductRecord{}
	}
	return &results, nil
}

// Download requests a rendered export from POST {base}/download. On
// success the returned payload is the response body; the caller must close
// it exactly once. The filename comes from the Content-Disposition header
// when present, otherwise it is synthesized as
// tradeindia_{product}_{date}.{format}.
func (a *API) Download(ctx context.Context, req ExportRequest) (*DownloadedFile, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, transportErr(fmt.Sprintf("encode export request: %v", err))
	}

	resp, err := a.post(ctx, "/download", body)
	if err != nil {
		return nil, transportErr(fmt.Sprintf("export request failed: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, transportErr(fmt.Sprintf("read export response: %v", err))
		}
		return nil, backendErr(backendMessage(payload, "export failed"))
	}

	return &DownloadedFile{
		Filename: a.resolveFilename(resp.Header.Get("Content-Disposition"), req),
		Payload:  resp.Body,
	}, nil
}

// resolveFilename prefers the backend's Content-Disposition filename hint,
// used verbatim. Without one it synthesizes
// tradeindia_{productName}_{YYYY-MM-DD}.{formatToken} — note the extension
// is the raw format token ("excel"/"json"), matching the established
// download naming rather than a real file extension.
func (a *API) resolveFilename(disposition string, req ExportRequest) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := params["filename"]; name != "" {
				return name
			}
		}
	}

	product := "products"
	if req.Results != nil && req.Results.ProductName != "" {
		product = req.Results.ProductName
	}
	return fmt.Sprintf("tradeindia_%s_%s.%s", product, a.now().Format("2006-01-02"), req.Format)
}

func (a *API) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.httpClient.Do(req)
}

// backendMessage extracts the {"error": ...} message from a failure body,
// falling back to a generic message when the body is not structured.
func backendMessage(payload []byte, fallback string) string {
	var er models.ErrorResponse
	if json.Unmarshal(payload, &er) == nil && er.Error != "" {
		return er.Error
	}
	return fallback
}
