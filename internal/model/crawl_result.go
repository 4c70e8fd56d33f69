package model

import "time"

// CrawlResult is the outcome of discovering one provider's documentation URLs.
//
// A failed discovery still yields a CrawlResult, with no URLs and the error
// recorded, so one provider's failure never hides the others' results.
type CrawlResult struct {
	// Provider is the configured provider name.
	Provider string `json:"provider"`

	// DocPrefix is the prefix the URLs were filtered by.
	DocPrefix string `json:"doc_prefix"`

	// Strategy is the discovery strategy that ran (plain or protected).
	Strategy string `json:"strategy"`

	// URLs are the unique documentation URLs, sorted lexicographically.
	URLs []string `json:"urls"`

	// SitemapsVisited counts sitemap documents fetched during traversal.
	SitemapsVisited int `json:"sitemaps_visited"`

	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewCrawlResult starts a result for provider. It stays Failed until Succeed is called.
func NewCrawlResult(provider, docPrefix, strategy string) *CrawlResult {
	return &CrawlResult{
		Provider:  provider,
		DocPrefix: docPrefix,
		Strategy:  strategy,
		URLs:      []string{},
		Status:    StatusFailed,
		StartedAt: time.Now(),
	}
}

// Succeed records the discovered URLs.
func (r *CrawlResult) Succeed(urls []string) {
	if urls == nil {
		urls = []string{}
	}
	r.URLs = urls
	r.Status = StatusSuccess
	r.Error = ""
	r.FinishedAt = time.Now()
}

// Fail records err and clears the URL list.
func (r *CrawlResult) Fail(err error) {
	r.URLs = []string{}
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.FinishedAt = time.Now()
}

// Duration is the wall time the discovery took.
func (r *CrawlResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// URLsByProvider maps provider names to their URLs, the shape of the
// discovery JSON export.
func URLsByProvider(results []*CrawlResult) map[string][]string {
	out := make(map[string][]string, len(results))
	for _, r := range results {
		out[r.Provider] = r.URLs
	}
	return out
}
