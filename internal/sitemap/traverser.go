package sitemap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/docscout/internal/transport"
)

// DefaultFetchTimeout bounds one sitemap fetch.
const DefaultFetchTimeout = 20 * time.Second

// Traverser resolves sitemap trees.
type Traverser struct {
	timeout time.Duration
	logger  *slog.Logger
	trace   io.Writer
}

// Option configures a Traverser.
type Option func(*Traverser)

// WithFetchTimeout overrides DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(t *Traverser) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithLogger sets the logger for traversal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Traverser) {
		t.logger = logger
	}
}

// WithTrace prints one line per visited sitemap and per failure to w.
func WithTrace(w io.Writer) Option {
	return func(t *Traverser) {
		t.trace = w
	}
}

// NewTraverser returns a Traverser.
func NewTraverser(opts ...Option) *Traverser {
	t := &Traverser{
		timeout: DefaultFetchTimeout,
		logger:  slog.Default(),
		trace:   io.Discard,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Resolve returns every page URL reachable from entryURL, in document order
// and with duplicates kept. URLs already in visited are skipped, and every
// URL fetched is added to it. A failing branch contributes nothing.
func (t *Traverser) Resolve(ctx context.Context, entryURL string, tr transport.Transport, visited *VisitedSet) []string {
	if !visited.Add(entryURL) {
		return nil
	}
	fmt.Fprintf(t.trace, "    - processing %s\n", entryURL)
	t.logger.Info("sitemap visited", "url", entryURL)

	if err := ctx.Err(); err != nil {
		t.fail(entryURL, "cancelled", err)
		return nil
	}

	resp, err := tr.Get(ctx, entryURL, t.timeout)
	if err != nil {
		t.fail(entryURL, "network error", err)
		return nil
	}
	if err := transport.CheckStatus(resp); err != nil {
		t.fail(entryURL, "network error", err)
		return nil
	}
	if len(resp.Body) == 0 {
		t.fail(entryURL, "empty response", nil)
		return nil
	}

	root, err := Parse(resp.Body)
	if err != nil {
		t.fail(entryURL, "xml parse error", err)
		return nil
	}

	if IsIndex(root) {
		var urls []string
		for _, child := range ChildSitemaps(root) {
			urls = append(urls, t.Resolve(ctx, child, tr, visited)...)
		}
		return urls
	}
	return PageURLs(root)
}

func (t *Traverser) fail(url, reason string, err error) {
	if err != nil {
		fmt.Fprintf(t.trace, "      x %s: %v\n", reason, err)
		t.logger.Warn("sitemap skipped", "url", url, "reason", reason, "error", err)
		return
	}
	fmt.Fprintf(t.trace, "      x %s for %s\n", reason, url)
	t.logger.Warn("sitemap skipped", "url", url, "reason", reason)
}
