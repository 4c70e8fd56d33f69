package config

import "errors"

// Validation errors returned by Config.Validate and Provider.Validate.
// They are sentinels so callers can match them with errors.Is.
var (
	// ErrNoProvider is returned when discovery has nothing to discover.
	ErrNoProvider = errors.New("no provider configured")

	// ErrNoPage is returned when analysis has no page to analyze.
	ErrNoPage = errors.New("no page configured")

	// ErrInvalidTimeout is returned when any request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when page concurrency is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidLinkWorkers is returned when the link checker pool size is not positive.
	ErrInvalidLinkWorkers = errors.New("invalid link workers: must be positive")

	// ErrInvalidCrawlDelay is returned when the delay between sitemap fetches is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidRetries is returned when the fetch retry count is negative.
	ErrInvalidRetries = errors.New("invalid fetch retries: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownFormat is returned for an output format docscout cannot write.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrUnknownProvider is returned when --provider names a provider that is not configured.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrInvalidProvider is returned when a provider entry is incomplete or inconsistent.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrUnknownStrategy is returned for a strategy other than plain or protected.
	ErrUnknownStrategy = errors.New("unknown strategy")
)
