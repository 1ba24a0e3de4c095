package scraper

import (
	"bytes"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/scout-labs/tradescout/models"
)

// TradeIndia serves several page templates; each field is resolved through
// a fallback chain of selectors tried in order. Chains are compiled once at
// package load.
var (
	productNameChain = compileChain(
		"h1.product-title",
		"h1",
		".product-title",
		".product-name",
		"h2.product-title",
		".product-details h1",
		".product-info h1",
		"h1[class*='title']",
		".product-header h1",
		".product-name h1",
		"h1.product-name",
	)

	companyChain = compileChain(
		"a.company-url",
		".company-name",
		".supplier-name",
		".seller-name",
		"a[href*='/seller/']",
		".product-supplier",
		".company-info a",
		".supplier-info a",
		"a[class*='company']",
		"a[class*='supplier']",
		".seller-info a",
		".company-details a",
	)

	locationChain = compileChain(
		"h3.erNFE",
		".location",
		".company-location",
		".supplier-location",
		".product-location",
		"[class*='location']",
		".address",
		".company-address",
		".supplier-address",
		".location-info",
		".company-location-info",
	)

	priceChain = compileChain(
		"span.price-text",
		".price",
		".product-price",
		".price-value",
		"[class*='price']",
		".cost",
		".product-cost",
		".price-info",
		".product-price-info",
	)

	businessTypeSel = cascadia.MustCompile("span.fSXCQo")
)

func compileChain(selectors ...string) []cascadia.Selector {
	chain := make([]cascadia.Selector, len(selectors))
	for i, s := range selectors {
		chain[i] = cascadia.MustCompile(s)
	}
	return chain
}

// firstText returns the trimmed text of the first element matched by the
// chain, in chain order.
func firstText(doc *goquery.Document, chain []cascadia.Selector) string {
	for _, sel := range chain {
		if s := strings.TrimSpace(doc.FindMatcher(sel).First().Text()); s != "" {
			return s
		}
	}
	return ""
}

// extractProduct parses a TradeIndia product page and assembles the record
// exposed through the API and exports. Fields that cannot be resolved are
// set to models.NotAvailable rather than omitted, so downstream consumers
// see a stable key set.
func extractProduct(body []byte, pageURL string, scrapedAt time.Time) (models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	record := models.ProductRecord{}

	name := firstText(doc, productNameChain)
	if name == "" {
		// Fall back to the page title, trimmed at the site-name separator.
		if title := extractTitle(body); title != "" {
			if idx := strings.Index(title, " - "); idx >= 0 {
				name = strings.TrimSpace(title[:idx])
			} else {
				name = title
			}
		}
	}
	record["Product Name"] = orNA(name)

	companyName, companyLink := extractCompany(doc)
	record["Company Name"] = orNA(companyName)
	record["Company Link"] = companyLink

	record["Location"] = orNA(firstText(doc, locationChain))
	record["Price (INR)"] = orNA(firstText(doc, priceChain))

	record["Trust Status"] = badgeStatus(doc, "Trusted Seller", "Not Trusted")
	record["Super Seller"] = badgeStatus(doc, "Super Seller", "Not Super Seller")

	record["Established Year"] = orNA(establishedYear(doc))

	if bt := strings.TrimSpace(doc.FindMatcher(businessTypeSel).First().Text()); bt != "" {
		record["Business Type"] = bt
	} else {
		record["Business Type"] = models.NotAvailable
	}

	record["Product Link"] = pageURL
	record["Scraped At"] = scrapedAt.Format("2006-01-02 15:04:05")

	return record, nil
}

// extractCompany resolves the supplier name and link through the company
// chain. Relative seller links are made absolute against tradeindia.com.
func extractCompany(doc *goquery.Document) (name, link string) {
	for _, sel := range companyChain {
		el := doc.FindMatcher(sel).First()
		text := strings.TrimSpace(el.Text())
		if text == "" {
			continue
		}
		name = text
		if href, ok := el.Attr("href"); ok && href != "" {
			if !strings.HasPrefix(href, "http") {
				href = "https://www.tradeindia.com" + href
			}
			link = href
		}
		return name, link
	}
	return "", ""
}

// badgeStatus reports whether the page carries a seller badge, identified
// either by an image alt text or a span with the exact badge label.
func badgeStatus(doc *goquery.Document, badge, absent string) string {
	if doc.Find("img[alt='"+badge+"']").Length() > 0 {
		return badge
	}
	found := false
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) == badge {
			found = true
			return false
		}
		return true
	})
	if found {
		return badge
	}
	return absent
}

// establishedYear finds the "Established In:" label span and returns the
// text of the span that follows it.
func establishedYear(doc *goquery.Document) string {
	year := ""
	doc.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.TrimSpace(s.Text()) != "Established In:" {
			return true
		}
		next := s.NextAllFiltered("span").First()
		if next.Length() == 0 {
			// Label and value may be siblings of different parents.
			next = s.Parent().Find("span").Eq(1)
		}
		year = strings.TrimSpace(next.Text())
		return false
	})
	return year
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
