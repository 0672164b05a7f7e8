package product

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/infrastructure/storage"
)

const productPage = `
<html><body>
  <span id="productTitle">  Cozy Wool Socks  </span>
  <span class="a-price priceToPay">$5.00</span>
  <span class="a-text-price">$10.00</span>
</body></html>`

func testScraper(baseURL string) domain.Scraper {
	return domain.Scraper{
		Source:         "amazon",
		ScrapeTemplate: baseURL + "/dp/{code}",
		HrefTemplate:   "https://shop.example/dp/{code}",
		Fields: map[string]string{
			domain.FieldTitle:     "#productTitle",
			domain.FieldSalePrice: ".priceToPay",
			domain.FieldListPrice: ".a-text-price",
		},
		Headers: map[string]string{"Accept-Language": "en-US"},
	}
}

func pageServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("Accept-Language") != "en-US" {
			t.Errorf("configured header not forwarded: %v", r.Header)
		}
		if !strings.HasPrefix(r.URL.Path, "/dp/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractFields(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(productPage))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	fields := extractFields(doc, map[string]string{
		"title":      "#productTitle",
		"sale_price": ".priceToPay",
		"list_price": ".missing",
	})

	if fields["title"] == nil || *fields["title"] != "Cozy Wool Socks" {
		t.Fatalf("unexpected title: %v", fields["title"])
	}
	if fields["sale_price"] == nil || *fields["sale_price"] != "$5.00" {
		t.Fatalf("unexpected sale price: %v", fields["sale_price"])
	}
	if v, ok := fields["list_price"]; !ok || v != nil {
		t.Fatalf("missing selector should yield an absent value, got %v", v)
	}
}

func TestResolveCachesAfterFirstFetch(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := pageServer(t, productPage, &hits)
	store := storage.NewMemory()
	cache := NewCache(CacheDeps{Store: store, Fetcher: NewFetcher(server.Client(), nil)})
	scraper := testScraper(server.URL)

	ctx := context.Background()
	first, err := cache.Resolve(ctx, scraper, "AB12CD34EF")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !first.OK() {
		t.Fatalf("expected resolved details, got cause %v", first.Cause)
	}
	if got := first.Details.Summary(); got != "Cozy Wool Socks (On sale for $5.00, usually $10.00!)" {
		t.Fatalf("unexpected summary: %s", got)
	}

	second, err := cache.Resolve(ctx, scraper, "AB12CD34EF")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one network fetch, got %d", hits.Load())
	}
	if second.Details.Title != first.Details.Title || *second.Details.SalePrice != *first.Details.SalePrice {
		t.Fatalf("cached details differ: %+v vs %+v", second.Details, first.Details)
	}

	record, found, err := store.Get(ctx, domain.CacheKey{Source: "amazon", Code: "AB12CD34EF"})
	if err != nil || !found {
		t.Fatalf("record not persisted: found=%v err=%v", found, err)
	}
	if record.Title != "Cozy Wool Socks" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestResolveDisabled(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := pageServer(t, productPage, &hits)
	cache := NewCache(CacheDeps{
		Store:    storage.NewMemory(),
		Fetcher:  NewFetcher(server.Client(), nil),
		Disabled: true,
	})

	res, err := cache.Resolve(context.Background(), testScraper(server.URL), "AB12CD34EF")
	if err != nil {
		t.Fatalf("kill-switch must not be fatal: %v", err)
	}
	if res.OK() || !errors.Is(res.Cause, domain.ErrScrapeDisabled) {
		t.Fatalf("expected ScrapeDisabled degradation, got %+v", res)
	}
	if hits.Load() != 0 {
		t.Fatalf("no fetch expected, got %d", hits.Load())
	}
}

func TestResolveMissingTitleDegrades(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := pageServer(t, `<html><body><span class="priceToPay">$5</span></body></html>`, &hits)
	store := storage.NewMemory()
	cache := NewCache(CacheDeps{Store: store, Fetcher: NewFetcher(server.Client(), nil)})

	res, err := cache.Resolve(context.Background(), testScraper(server.URL), "AB12CD34EF")
	if err != nil {
		t.Fatalf("missing title must not be fatal: %v", err)
	}
	if res.OK() || !errors.Is(res.Cause, domain.ErrMissingTitle) {
		t.Fatalf("expected missing title, got %+v", res)
	}
	if _, found, _ := store.Get(context.Background(), domain.CacheKey{Source: "amazon", Code: "AB12CD34EF"}); found {
		t.Fatal("failed scrape must not be cached")
	}
}

func TestResolveHTTPErrorDegrades(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cache := NewCache(CacheDeps{Store: storage.NewMemory(), Fetcher: NewFetcher(server.Client(), nil)})
	res, err := cache.Resolve(context.Background(), testScraper(server.URL), "AB12CD34EF")
	if err != nil {
		t.Fatalf("http failure must not be fatal: %v", err)
	}
	if res.OK() || !errors.Is(res.Cause, domain.ErrScrapeFailure) {
		t.Fatalf("expected scrape failure, got %+v", res)
	}
}

func TestResolveMalformedPriceIsFatal(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := pageServer(t, `<html><body><span id="productTitle">Lamp</span><span class="priceToPay">call us</span></body></html>`, &hits)
	cache := NewCache(CacheDeps{Store: storage.NewMemory(), Fetcher: NewFetcher(server.Client(), nil)})

	_, err := cache.Resolve(context.Background(), testScraper(server.URL), "AB12CD34EF")
	if !errors.Is(err, domain.ErrPriceParse) {
		t.Fatalf("expected price parse error, got %v", err)
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, domain.CacheKey) (domain.ProductRecord, bool, error) {
	return domain.ProductRecord{}, false, errors.New("disk on fire")
}

func (failingStore) Put(context.Context, domain.CacheKey, domain.ProductRecord) error {
	return errors.New("disk on fire")
}

func TestResolveUnreadableCacheDegrades(t *testing.T) {
	t.Parallel()

	cache := NewCache(CacheDeps{Store: failingStore{}})
	res, err := cache.Resolve(context.Background(), testScraper("http://unused"), "AB12CD34EF")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if res.OK() || !errors.Is(res.Cause, domain.ErrScrapeFailure) {
		t.Fatalf("expected degraded resolution, got %+v", res)
	}
}
