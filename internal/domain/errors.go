package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks a run that cannot start: duplicate participants, fewer than two
	// participants, undeclared scraper sources or a malformed configuration document.
	ErrConfiguration = errors.New("configuration error")

	// ErrPairingInvariant is returned when generated pairs violate the single-cycle guarantees.
	ErrPairingInvariant = errors.New("pairing invariant violated")

	// ErrScrapeDisabled is returned for every scrape attempt while the kill-switch is set.
	ErrScrapeDisabled = errors.New("scraping disabled")

	// ErrScrapeFailure covers network errors, bad statuses and unreadable cache records.
	ErrScrapeFailure = errors.New("scrape failed")

	// ErrMissingTitle is returned when a product page yields no title.
	ErrMissingTitle = fmt.Errorf("%w: title is missing", ErrScrapeFailure)

	// ErrPriceParse signals that a scraped price no longer looks like a number.
	ErrPriceParse = errors.New("price parse error")
)
