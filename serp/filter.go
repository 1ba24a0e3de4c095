package serp

import (
	"regexp"
	"strings"
)

// Patterns that identify pages which are definitely not product listings:
// Q&A threads, blog posts, category indexes, bare seller/supplier
// directories, and document downloads.
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/question-answer/`),
	regexp.MustCompile(`(?i)/blog/`),
	regexp.MustCompile(`(?i)/us/`),
	regexp.MustCompile(`(?i)/city-`),
	regexp.MustCompile(`(?i)/products/$`),
	regexp.MustCompile(`(?i)/products\?`),
	regexp.MustCompile(`(?i)/category/`),
	regexp.MustCompile(`(?i)/manufacturers/`),
	regexp.MustCompile(`(?i)/suppliers/`),
	regexp.MustCompile(`(?i)/seller/$`),
	regexp.MustCompile(`(?i)/seller\?`),
	regexp.MustCompile(`(?i)\.pdf$`),
	regexp.MustCompile(`(?i)\.doc$`),
	regexp.MustCompile(`(?i)\.docx$`),
	regexp.MustCompile(`(?i)Q\.`),
	regexp.MustCompile(`(?i)Question`),
	regexp.MustCompile(`(?i)Answer`),
}

// Patterns that positively identify product detail pages.
var includePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/products/.*\.html$`),
	regexp.MustCompile(`\.tradeindia\.com/.*\.html$`),
	regexp.MustCompile(`/seller/.*\.html$`),
}

// IsProductPage reports whether the URL and result title look like a
// TradeIndia product detail page. Both the URL and the title are checked
// against the exclusion list before the URL is matched against the known
// product page shapes.
func IsProductPage(url, title string) bool {
	for _, re := range excludePatterns {
		if re.MatchString(url) || re.MatchString(title) {
			return false
		}
	}
	for _, re := range includePatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// dedupe removes duplicate URLs while preserving first-seen order.
func dedupe(links []Link) []Link {
	seen := make(map[string]struct{}, len(links))
	out := links[:0]
	for _, l := range links {
		if _, ok := seen[l.URL]; ok {
			continue
		}
		seen[l.URL] = struct{}{}
		out = append(out, l)
	}
	return out
}

// onTradeIndia reports whether the URL belongs to tradeindia.com.
func onTradeIndia(url string) bool {
	return strings.Contains(url, "tradeindia.com")
}
