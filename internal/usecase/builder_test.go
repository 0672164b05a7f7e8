package usecase

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/scraper"
)

type stubResolver struct {
	results map[string]domain.Resolution
	err     error
	calls   int
}

func (s *stubResolver) Resolve(_ context.Context, sc domain.Scraper, code string) (domain.Resolution, error) {
	s.calls++
	if s.err != nil {
		return domain.Resolution{}, s.err
	}
	if res, ok := s.results[sc.Source+"/"+code]; ok {
		return res, nil
	}
	return domain.Degraded(fmt.Errorf("%w: connection reset", domain.ErrScrapeFailure)), nil
}

func amazon() domain.Scraper {
	return domain.Scraper{
		Source:         "amazon",
		ScrapeTemplate: "https://www.amazon.com/dp/{code}",
		HrefTemplate:   "https://amzn.example/{code}",
		Fields:         map[string]string{domain.FieldTitle: "#productTitle"},
	}
}

func resolved(title string, sale, list float64) domain.Resolution {
	return domain.Resolved(domain.ProductDetails{Title: title, SalePrice: &sale, ListPrice: &list})
}

func TestBuildRendersEveryVariant(t *testing.T) {
	t.Parallel()

	resolver := &stubResolver{results: map[string]domain.Resolution{
		"amazon/AB12CD34EF": resolved("PRODUCT", 5, 10),
	}}
	b := NewBuilder(BuilderDeps{Scrapers: scraper.NewRegistry(amazon()), Resolver: resolver})

	pair := domain.Pair{
		Giver: domain.Participant{Name: "Ann", Email: "ann@example.com"},
		Receiver: domain.Participant{Name: "Bob", Email: "bob@example.com", Wishlist: []string{
			"amazon/AB12CD34EF",
			"https://example.com/lamp",
			"a warm scarf",
			"amazon/ZZZZZZZZZZ",
		}},
	}

	env, err := b.Build(context.Background(), pair)
	require.NoError(t, err)

	assert.Equal(t, []template.HTML{
		`<a href="https://amzn.example/AB12CD34EF">PRODUCT (On sale for $5.00, usually $10.00!)</a>`,
		`<a href="https://example.com/lamp">https://example.com/lamp</a>`,
		"a warm scarf",
		`<a href="https://amzn.example/ZZZZZZZZZZ">https://amzn.example/ZZZZZZZZZZ</a>`,
	}, env.Primary.Wishlist)
	assert.Equal(t, pair, env.Pair)
	assert.True(t, env.Primary.IncludeWishlist)
	assert.False(t, env.Visual.IncludeWishlist)
	assert.Nil(t, env.Visual.Wishlist)
	assert.Equal(t, "Ann", env.Visual.Giver.Name)
	assert.Equal(t, "Bob", env.Primary.Receiver.Name)
	assert.Equal(t, 2, resolver.calls)
}

func TestBuildWithoutWishlist(t *testing.T) {
	t.Parallel()

	b := NewBuilder(BuilderDeps{})
	env, err := b.Build(context.Background(), domain.Pair{
		Giver:    domain.Participant{Name: "Ann", Email: "ann@example.com"},
		Receiver: domain.Participant{Name: "Bob", Email: "bob@example.com"},
	})
	require.NoError(t, err)
	assert.NotNil(t, env.Primary.Wishlist)
	assert.Empty(t, env.Primary.Wishlist)
}

func TestBuildUndeclaredSourceIsConfigurationError(t *testing.T) {
	t.Parallel()

	b := NewBuilder(BuilderDeps{Scrapers: scraper.NewRegistry(amazon()), Resolver: &stubResolver{}})
	_, err := b.Build(context.Background(), domain.Pair{
		Giver:    domain.Participant{Name: "Ann", Email: "ann@example.com"},
		Receiver: domain.Participant{Name: "Bob", Email: "bob@example.com", Wishlist: []string{"etsy/AB12CD34EF"}},
	})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestBuildPropagatesFatalResolverErrors(t *testing.T) {
	t.Parallel()

	parseErr := fmt.Errorf("amazon/AB12CD34EF: %w", domain.ErrPriceParse)
	b := NewBuilder(BuilderDeps{Scrapers: scraper.NewRegistry(amazon()), Resolver: &stubResolver{err: parseErr}})
	_, err := b.Build(context.Background(), domain.Pair{
		Giver:    domain.Participant{Name: "Ann", Email: "ann@example.com"},
		Receiver: domain.Participant{Name: "Bob", Email: "bob@example.com", Wishlist: []string{"amazon/AB12CD34EF"}},
	})
	assert.True(t, errors.Is(err, domain.ErrPriceParse))
}

func TestBuildFallsBackWhenScrapingDisabled(t *testing.T) {
	t.Parallel()

	resolver := &stubResolver{results: map[string]domain.Resolution{
		"amazon/AB12CD34EF": domain.Degraded(domain.ErrScrapeDisabled),
	}}
	b := NewBuilder(BuilderDeps{Scrapers: scraper.NewRegistry(amazon()), Resolver: resolver})

	list, err := b.Wishlist(context.Background(), domain.Participant{Wishlist: []string{"amazon/AB12CD34EF"}})
	require.NoError(t, err)
	assert.Equal(t, []template.HTML{`<a href="https://amzn.example/AB12CD34EF">https://amzn.example/AB12CD34EF</a>`}, list)
}

func TestWishlistEscapesPlainText(t *testing.T) {
	t.Parallel()

	b := NewBuilder(BuilderDeps{})
	list, err := b.Wishlist(context.Background(), domain.Participant{Wishlist: []string{
		`socks <img src=x onerror=alert(1)> & "gloves"`,
	}})
	require.NoError(t, err)
	assert.Equal(t, []template.HTML{
		`socks &lt;img src=x onerror=alert(1)&gt; &amp; &#34;gloves&#34;`,
	}, list)
}
