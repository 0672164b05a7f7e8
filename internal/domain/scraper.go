package domain

import "strings"

// Logical field names a scraper may extract.
const (
	FieldTitle     = "title"
	FieldSalePrice = "sale_price"
	FieldListPrice = "list_price"
)

const codePlaceholder = "{code}"

// Scraper describes how to fetch and read one scraped-reference source.
type Scraper struct {
	Source         string
	ScrapeTemplate string
	HrefTemplate   string
	Fields         map[string]string
	Headers        map[string]string
}

// TargetURL is the page fetched for details.
func (s Scraper) TargetURL(code string) string {
	return strings.ReplaceAll(s.ScrapeTemplate, codePlaceholder, code)
}

// RedirectURL is the link shown to the giver.
func (s Scraper) RedirectURL(code string) string {
	return strings.ReplaceAll(s.HrefTemplate, codePlaceholder, code)
}

// CacheKey identifies one cached product record.
type CacheKey struct {
	Source string
	Code   string
}

func (k CacheKey) String() string {
	return k.Source + "." + k.Code
}
