package ports

import (
	"context"

	"SecretSanta/internal/domain"
)

// ProductResolver enriches a scraped reference. Degraded outcomes come back inside the
// Resolution; the error is reserved for failures that must abort the run.
type ProductResolver interface {
	Resolve(ctx context.Context, scraper domain.Scraper, code string) (domain.Resolution, error)
}

// ProductCache stores resolved product records across runs.
type ProductCache interface {
	Get(ctx context.Context, key domain.CacheKey) (domain.ProductRecord, bool, error)
	Put(ctx context.Context, key domain.CacheKey, record domain.ProductRecord) error
}

// Renderer turns a render context into an HTML body fragment and wraps fragments
// into standalone documents.
type Renderer interface {
	Render(rc domain.RenderContext) (string, error)
	Document(body string) string
	Style() string
}

// Snapshotter captures a finalized HTML document as a PNG image.
type Snapshotter interface {
	Capture(ctx context.Context, html string) ([]byte, error)
}

// Mailer delivers a finished notification.
type Mailer interface {
	Send(ctx context.Context, n domain.Notification, image []byte) error
}

// Previewer shows notifications without delivering them.
type Previewer interface {
	Preview(ctx context.Context, notifications []domain.Notification) error
}
