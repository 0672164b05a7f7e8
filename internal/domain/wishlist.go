package domain

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

const sourcePattern = `[a-z][a-z0-9_-]*`

var (
	scrapedRefExpr = regexp.MustCompile(`^(?P<source>` + sourcePattern + `)/(?P<code>[A-Z0-9]{10})$`)
	sourceExpr     = regexp.MustCompile(`^` + sourcePattern + `$`)
	urlExpr        = regexp.MustCompile(`^https?://`)
)

// ValidSource reports whether name can appear in a scraped reference.
func ValidSource(name string) bool {
	return sourceExpr.MatchString(name)
}

// WishlistItem is one of PlainText, DirectLink or ScrapedReference.
type WishlistItem interface {
	wishlistItem()
}

// PlainText is rendered verbatim.
type PlainText struct {
	Text string
}

// DirectLink is a URL linked to itself.
type DirectLink struct {
	URL string
}

// ScrapedReference points at a product that a Scraper can enrich.
type ScrapedReference struct {
	Source string
	Code   string
}

func (PlainText) wishlistItem()        {}
func (DirectLink) wishlistItem()       {}
func (ScrapedReference) wishlistItem() {}

// Classify picks the item variant for a raw wishlist line. Scraped references are tried
// before links so that "source/CODE" entries are never treated as plain URLs.
func Classify(raw string) WishlistItem {
	trimmed := strings.TrimSpace(raw)
	if m := scrapedRefExpr.FindStringSubmatch(trimmed); m != nil {
		return ScrapedReference{
			Source: m[scrapedRefExpr.SubexpIndex("source")],
			Code:   m[scrapedRefExpr.SubexpIndex("code")],
		}
	}
	if urlExpr.MatchString(trimmed) {
		return DirectLink{URL: trimmed}
	}
	return PlainText{Text: raw}
}

// Render returns the literal text; escaping is left to the template layer.
func (p PlainText) Render() string {
	return p.Text
}

// Render links the URL to itself.
func (d DirectLink) Render() string {
	return anchor(d.URL, d.URL)
}

// Key is the cache key for this reference.
func (r ScrapedReference) Key() CacheKey {
	return CacheKey{Source: r.Source, Code: r.Code}
}

func (r ScrapedReference) String() string {
	return r.Source + "/" + r.Code
}

// Render links the redirect URL to the product summary, or to itself when the
// resolution degraded.
func (r ScrapedReference) Render(s Scraper, res Resolution) string {
	href := s.RedirectURL(r.Code)
	if !res.OK() {
		return anchor(href, href)
	}
	return anchor(href, res.Details.Summary())
}

func anchor(href, text string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), html.EscapeString(text))
}
