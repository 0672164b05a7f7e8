package usecase

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/ports"
	"SecretSanta/internal/scraper"
)

// BuilderDeps wires the wishlist resolution collaborators.
type BuilderDeps struct {
	Scrapers *scraper.Registry
	Resolver ports.ProductResolver
	Logger   *slog.Logger
}

// Builder composes the render contexts for one pair.
type Builder struct {
	scrapers *scraper.Registry
	resolver ports.ProductResolver
	logger   *slog.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(deps BuilderDeps) *Builder {
	scrapers := deps.Scrapers
	if scrapers == nil {
		scrapers = scraper.NewRegistry()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{scrapers: scrapers, resolver: deps.Resolver, logger: logger}
}

// Build resolves the receiver's wishlist and returns the primary context (with the
// wishlist) and the visual one (without it).
func (b *Builder) Build(ctx context.Context, pair domain.Pair) (domain.Envelope, error) {
	wishlist, err := b.Wishlist(ctx, pair.Receiver)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("wishlist of %s: %w", pair.Receiver.Name, err)
	}

	return domain.Envelope{
		Pair: pair,
		Primary: domain.RenderContext{
			Giver:           pair.Giver,
			Receiver:        pair.Receiver,
			Wishlist:        wishlist,
			IncludeWishlist: true,
		},
		Visual: domain.RenderContext{
			Giver:    pair.Giver,
			Receiver: pair.Receiver,
		},
	}, nil
}

// Wishlist renders every entry of the participant's wishlist in order. Plain text is
// escaped here since the entries reach the template as trusted HTML.
func (b *Builder) Wishlist(ctx context.Context, p domain.Participant) ([]template.HTML, error) {
	items := p.Items()
	rendered := make([]template.HTML, 0, len(items))
	for _, raw := range items {
		html, err := b.renderItem(ctx, domain.Classify(raw))
		if err != nil {
			return nil, err
		}
		rendered = append(rendered, template.HTML(html))
	}
	return rendered, nil
}

func (b *Builder) renderItem(ctx context.Context, item domain.WishlistItem) (string, error) {
	switch it := item.(type) {
	case domain.PlainText:
		return template.HTMLEscapeString(it.Render()), nil
	case domain.DirectLink:
		return it.Render(), nil
	case domain.ScrapedReference:
		return b.renderScraped(ctx, it)
	default:
		return "", fmt.Errorf("unsupported wishlist item %T", item)
	}
}

func (b *Builder) renderScraped(ctx context.Context, ref domain.ScrapedReference) (string, error) {
	s, err := b.scrapers.Resolve(ref.Source)
	if err != nil {
		return "", err
	}

	res := domain.Degraded(fmt.Errorf("%w: no resolver configured", domain.ErrScrapeFailure))
	if b.resolver != nil {
		res, err = b.resolver.Resolve(ctx, s, ref.Code)
		if err != nil {
			return "", err
		}
	}

	if !res.OK() {
		b.logger.Warn("scrape failed, falling back to link",
			"source", ref.Source,
			"code", ref.Code,
			"url", s.TargetURL(ref.Code),
			"error", res.Cause,
		)
	}

	return ref.Render(s, res), nil
}
