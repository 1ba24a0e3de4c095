package models

// NotAvailable is the sentinel written for product fields that could not be
// extracted from a listing page. Consumers must treat it as "unset".
const NotAvailable = "N/A"

// ProductRecord holds the named attributes extracted from a single
// TradeIndia product page. Keys are the human-readable column names used in
// exports; values are taken verbatim from the page or set to NotAvailable.
type ProductRecord map[string]string

// Columns is the canonical column order for exports and tabular output.
var Columns = []string{
	"Product Name",
	"Company Name",
	"Company Link",
	"Location",
	"Price (INR)",
	"Trust Status",
	"Super Seller",
	"Established Year",
	"Business Type",
	"Product Link",
	"Scraped At",
}

// Field returns the value for key and whether it is usable for display:
// absent keys and the NotAvailable sentinel both report ok == false.
func (p ProductRecord) Field(key string) (string, bool) {
	v, ok := p[key]
	if !ok || v == "" || v == NotAvailable {
		return "", false
	}
	return v, true
}

// SearchResults is the outcome of one product search: the echoed query
// subject, the backend-assigned scrape timestamp, and the extracted
// products in ranking order. Products may be empty on a successful search.
type SearchResults struct {
	ProductName  string          `json:"product_name"`
	TotalResults int             `json:"total_results"`
	ScrapedAt    string          `json:"scraped_at"`
	Products     []ProductRecord `json:"products"`
}

// Clone returns a deep copy. Exports operate on a snapshot so a concurrent
// search replacing the live result set cannot change an in-flight export.
func (r *SearchResults) Clone() *SearchResults {
	if r == nil {
		return nil
	}
	out := &SearchResults{
		ProductName:  r.ProductName,
		TotalResults: r.TotalResults,
		ScrapedAt:    r.ScrapedAt,
	}
	if r.Products != nil {
		out.Products = make([]ProductRecord, len(r.Products))
		for i, p := range r.Products {
			cp := make(ProductRecord, len(p))
			for k, v := range p {
				cp[k] = v
			}
			out.Products[i] = cp
		}
	}
	return out
}
