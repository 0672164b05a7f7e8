package product

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"SecretSanta/internal/domain"
)

const defaultUserAgent = "SecretSanta/1.0"

// Fields maps a logical field name to its extracted text; nil means the selector matched nothing.
type Fields map[string]*string

// Fetcher downloads a product page and applies a scraper's selectors to it.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewFetcher wires an HTTP client and an optional limiter; the client defaults to a 20s timeout.
func NewFetcher(client *http.Client, limiter *rate.Limiter) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Fetcher{client: client, limiter: limiter, userAgent: defaultUserAgent}
}

// Extract fetches the scraper's target page for code and reads every configured field.
func (f *Fetcher) Extract(ctx context.Context, s domain.Scraper, code string) (Fields, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	doc, err := f.fetchDocument(ctx, s.TargetURL(code), s.Headers)
	if err != nil {
		return nil, err
	}

	return extractFields(doc, s.Fields), nil
}

func (f *Fetcher) fetchDocument(ctx context.Context, pageURL string, headers map[string]string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractFields(doc *goquery.Document, selectors map[string]string) Fields {
	fields := make(Fields, len(selectors))
	for name, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			fields[name] = nil
			continue
		}
		text := strings.TrimSpace(sel.Text())
		fields[name] = &text
	}
	return fields
}
