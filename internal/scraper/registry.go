// Package scraper keeps the configured scraper definitions addressable by source name.
package scraper

import (
	"fmt"
	"sort"

	"SecretSanta/internal/domain"
)

// Registry keeps a mapping from source names to scraper definitions.
type Registry struct {
	scrapers map[string]domain.Scraper
}

// NewRegistry builds a registry from configured scrapers; later duplicates replace earlier ones.
func NewRegistry(scrapers ...domain.Scraper) *Registry {
	r := &Registry{scrapers: map[string]domain.Scraper{}}
	for _, s := range scrapers {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scraper definition.
func (r *Registry) Register(s domain.Scraper) {
	if r.scrapers == nil {
		r.scrapers = map[string]domain.Scraper{}
	}
	r.scrapers[s.Source] = s
}

// Resolve returns the scraper for a source or a configuration error if none was declared.
func (r *Registry) Resolve(source string) (domain.Scraper, error) {
	if s, ok := r.scrapers[source]; ok {
		return s, nil
	}
	return domain.Scraper{}, fmt.Errorf("%w: wishlist references undeclared scraper source %q", domain.ErrConfiguration, source)
}

// Sources lists registered source names in order.
func (r *Registry) Sources() []string {
	names := make([]string, 0, len(r.scrapers))
	for name := range r.scrapers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
