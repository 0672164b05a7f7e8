// Package product resolves scraped references into product details, reading through a
// persistent cache so repeated runs do not refetch known codes.
package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/ports"
)

// Extractor reads the configured fields of one product page.
type Extractor interface {
	Extract(ctx context.Context, s domain.Scraper, code string) (Fields, error)
}

// CacheDeps wires the collaborators of Cache.
type CacheDeps struct {
	Store    ports.ProductCache
	Fetcher  Extractor
	Disabled bool
	Logger   *slog.Logger
}

// Cache implements ports.ProductResolver on top of a keyed record store.
type Cache struct {
	store    ports.ProductCache
	fetcher  Extractor
	disabled bool
	logger   *slog.Logger
}

var _ ports.ProductResolver = (*Cache)(nil)

// NewCache constructs the resolver.
func NewCache(deps CacheDeps) *Cache {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		store:    deps.Store,
		fetcher:  deps.Fetcher,
		disabled: deps.Disabled,
		logger:   logger,
	}
}

// Resolve returns cached details when present and otherwise scrapes and stores them.
// Only ErrPriceParse is returned as an error; every other failure degrades the Resolution.
func (c *Cache) Resolve(ctx context.Context, s domain.Scraper, code string) (domain.Resolution, error) {
	if c.disabled {
		return domain.Degraded(fmt.Errorf("%w: %s/%s", domain.ErrScrapeDisabled, s.Source, code)), nil
	}

	key := domain.CacheKey{Source: s.Source, Code: code}

	if c.store != nil {
		record, found, err := c.store.Get(ctx, key)
		if err != nil {
			return domain.Degraded(fmt.Errorf("%w: read cache %s: %v", domain.ErrScrapeFailure, key, err)), nil
		}
		if found {
			details, err := record.Details()
			if err != nil {
				return domain.Degraded(fmt.Errorf("%w: cached record %s: %v", domain.ErrScrapeFailure, key, err)), nil
			}
			c.logger.Info("using cached scrape", "source", s.Source, "code", code)
			return domain.Resolved(details), nil
		}
	}

	if c.fetcher == nil {
		return domain.Degraded(fmt.Errorf("%w: no fetcher configured", domain.ErrScrapeFailure)), nil
	}

	fields, err := c.fetcher.Extract(ctx, s, code)
	if err != nil {
		return domain.Degraded(fmt.Errorf("%w: %v", domain.ErrScrapeFailure, err)), nil
	}

	details, err := domain.NewProductDetails(
		fields[domain.FieldTitle],
		domain.OptionalPriceText(fields[domain.FieldSalePrice]),
		domain.OptionalPriceText(fields[domain.FieldListPrice]),
	)
	if errors.Is(err, domain.ErrPriceParse) {
		return domain.Resolution{}, fmt.Errorf("%s/%s: %w", s.Source, code, err)
	}
	if err != nil {
		return domain.Degraded(err), nil
	}

	if c.store != nil {
		if err := c.store.Put(ctx, key, details.Record()); err != nil {
			c.logger.Warn("cache write failed", "key", key.String(), "error", err)
		}
	}

	return domain.Resolved(details), nil
}
