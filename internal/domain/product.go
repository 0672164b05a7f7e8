package domain

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	currencySymbol  = "$"
	unknownPrice    = "???"
	titleWordsLimit = 8
)

var pricePrinter = message.NewPrinter(language.English)

// ScrapedPrice is a price as an extractor or cache record produced it: absent,
// already numeric, or raw text.
type ScrapedPrice struct {
	text  *string
	value *float64
}

// NoPrice is the absent price.
var NoPrice = ScrapedPrice{}

// PriceText wraps scraped text.
func PriceText(s string) ScrapedPrice {
	return ScrapedPrice{text: &s}
}

// PriceValue wraps an already numeric price.
func PriceValue(v float64) ScrapedPrice {
	return ScrapedPrice{value: &v}
}

// OptionalPriceText maps a missing selector match to NoPrice.
func OptionalPriceText(s *string) ScrapedPrice {
	if s == nil {
		return NoPrice
	}
	return PriceText(*s)
}

// OptionalPriceValue maps a missing cached value to NoPrice.
func OptionalPriceValue(v *float64) ScrapedPrice {
	if v == nil {
		return NoPrice
	}
	return PriceValue(*v)
}

// ParsePrice normalizes a scraped price. Text that fails to parse returns ErrPriceParse.
func ParsePrice(p ScrapedPrice) (*float64, error) {
	if p.value != nil {
		v := *p.value
		return &v, nil
	}
	if p.text == nil {
		return nil, nil
	}

	text := lastPriceSegment(*p.text)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	cleaned := strings.TrimSpace(strings.ReplaceAll(text, currencySymbol, ""))
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrPriceParse, *p.text)
	}
	return &v, nil
}

// lastPriceSegment keeps only the text after the last currency symbol when a scrape
// glued several prices together ("$20$5" reads as 5). It is a heuristic for one observed
// page layout, not a general rule.
func lastPriceSegment(text string) string {
	if strings.Count(text, currencySymbol) <= 1 {
		return text
	}
	return text[strings.LastIndex(text, currencySymbol)+len(currencySymbol):]
}

// ProductDetails are the resolved attributes of one scraped reference.
type ProductDetails struct {
	Title     string
	SalePrice *float64
	ListPrice *float64
}

// NewProductDetails validates the title and normalizes both prices.
func NewProductDetails(title *string, sale, list ScrapedPrice) (ProductDetails, error) {
	if title == nil || strings.TrimSpace(*title) == "" {
		return ProductDetails{}, ErrMissingTitle
	}

	salePrice, err := ParsePrice(sale)
	if err != nil {
		return ProductDetails{}, fmt.Errorf("sale price: %w", err)
	}
	listPrice, err := ParsePrice(list)
	if err != nil {
		return ProductDetails{}, fmt.Errorf("list price: %w", err)
	}

	return ProductDetails{
		Title:     strings.TrimSpace(*title),
		SalePrice: salePrice,
		ListPrice: listPrice,
	}, nil
}

// ShortTitle keeps the first eight words of long titles.
func (d ProductDetails) ShortTitle() string {
	words := strings.Split(d.Title, " ")
	if len(words) <= titleWordsLimit {
		return d.Title
	}
	return strings.Join(words[:titleWordsLimit], " ") + "..."
}

// Summary combines the short title with a price clause.
func (d ProductDetails) Summary() string {
	sale, list := d.SalePrice, d.ListPrice
	if sale == nil && list == nil {
		return d.ShortTitle()
	}

	var clause string
	switch {
	case sale != nil && list != nil && *sale < *list:
		clause = fmt.Sprintf("On sale for %s, usually %s!", FormatPrice(sale), FormatPrice(list))
	case sale != nil && list != nil && *sale > *list:
		clause = fmt.Sprintf("Be aware, selling for %s, usually %s.", FormatPrice(sale), FormatPrice(list))
	case sale != nil:
		clause = FormatPrice(sale)
	default:
		clause = FormatPrice(list)
	}

	return fmt.Sprintf("%s (%s)", d.ShortTitle(), clause)
}

// Record converts the details into their cache representation.
func (d ProductDetails) Record() ProductRecord {
	return ProductRecord{Title: d.Title, SalePrice: d.SalePrice, ListPrice: d.ListPrice}
}

// FormatPrice renders dollars with grouping, or ??? when unknown.
func FormatPrice(v *float64) string {
	if v == nil {
		return unknownPrice
	}
	return pricePrinter.Sprintf("$%.2f", *v)
}

// ProductRecord is the persisted form of ProductDetails.
type ProductRecord struct {
	Title     string   `yaml:"title"`
	SalePrice *float64 `yaml:"sale_price"`
	ListPrice *float64 `yaml:"list_price"`
}

// Details rebuilds ProductDetails from a cache record.
func (r ProductRecord) Details() (ProductDetails, error) {
	title := r.Title
	return NewProductDetails(&title, OptionalPriceValue(r.SalePrice), OptionalPriceValue(r.ListPrice))
}

// Resolution is the outcome of enriching one scraped reference.
type Resolution struct {
	Details ProductDetails
	Cause   error
	ok      bool
}

// Resolved wraps successfully enriched details.
func Resolved(d ProductDetails) Resolution {
	return Resolution{Details: d, ok: true}
}

// Degraded records why enrichment failed; the item falls back to a plain link.
func Degraded(cause error) Resolution {
	return Resolution{Cause: cause}
}

// OK reports whether details are available.
func (r Resolution) OK() bool {
	return r.ok
}
