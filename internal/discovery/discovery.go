package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/temoto/robotstxt"

	"github.com/nao1215/docscout/internal/bootstrap"
	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/model"
	"github.com/nao1215/docscout/internal/sitemap"
	"github.com/nao1215/docscout/internal/transport"
)

// DefaultRobotsTimeout bounds the robots.txt fetch.
const DefaultRobotsTimeout = 10 * time.Second

// Bootstrapper obtains an authenticated session for a protected provider.
type Bootstrapper interface {
	Bootstrap(ctx context.Context) (*bootstrap.Result, error)
}

// BootstrapFactory returns the Bootstrapper for a protected provider.
type BootstrapFactory func(p config.Provider) Bootstrapper

// TransportFactory returns the transport used for a plain provider.
type TransportFactory func(p config.Provider) (transport.Transport, error)

// Discoverer runs the discovery strategy of each provider.
type Discoverer struct {
	traverser       *sitemap.Traverser
	newTransport    TransportFactory
	newBootstrapper BootstrapFactory
	robotsTimeout   time.Duration
	logger          *slog.Logger
	out             io.Writer
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithTraverser replaces the default sitemap traverser.
func WithTraverser(t *sitemap.Traverser) Option {
	return func(d *Discoverer) {
		d.traverser = t
	}
}

// WithRobotsTimeout overrides DefaultRobotsTimeout.
func WithRobotsTimeout(timeout time.Duration) Option {
	return func(d *Discoverer) {
		if timeout > 0 {
			d.robotsTimeout = timeout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		d.logger = logger
	}
}

// WithOutput sets where progress lines are printed.
func WithOutput(w io.Writer) Option {
	return func(d *Discoverer) {
		d.out = w
	}
}

// NewDiscoverer returns a Discoverer. newBootstrapper may be nil when no
// provider is protected.
func NewDiscoverer(newTransport TransportFactory, newBootstrapper BootstrapFactory, opts ...Option) *Discoverer {
	d := &Discoverer{
		traverser:       sitemap.NewTraverser(),
		newTransport:    newTransport,
		newBootstrapper: newBootstrapper,
		robotsTimeout:   DefaultRobotsTimeout,
		logger:          slog.Default(),
		out:             io.Discard,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover returns the provider's documentation URLs. The returned result
// is never nil; on error it is marked failed with no URLs.
func (d *Discoverer) Discover(ctx context.Context, p config.Provider) (*model.CrawlResult, error) {
	result := model.NewCrawlResult(p.Name, p.DocPrefix, string(p.Strategy))

	excludes, err := compileExcludes(p.Exclude)
	if err != nil {
		result.Fail(err)
		return result, err
	}

	var (
		urls    []string
		visited *sitemap.VisitedSet
	)
	switch p.Strategy {
	case config.StrategyPlain:
		urls, visited, err = d.discoverPlain(ctx, p)
	case config.StrategyProtected:
		urls, visited, err = d.discoverProtected(ctx, p)
	default:
		err = fmt.Errorf("%w %q", config.ErrUnknownStrategy, p.Strategy)
	}
	if err == nil {
		err = ctx.Err()
	}
	if visited != nil {
		result.SitemapsVisited = visited.Len()
	}
	if err != nil {
		result.Fail(err)
		return result, err
	}

	result.Succeed(FilterURLs(urls, p.DocPrefix, excludes))
	d.logger.Debug("provider discovered", "provider", p.Name, "raw", len(urls), "kept", len(result.URLs))
	return result, nil
}

func (d *Discoverer) discoverPlain(ctx context.Context, p config.Provider) ([]string, *sitemap.VisitedSet, error) {
	fmt.Fprintln(d.out, "  - plain strategy")
	tr, err := d.newTransport(p)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transport for %s: %w", p.Name, err)
	}

	visited := sitemap.NewVisitedSet()
	var urls []string
	for _, entry := range d.EntryPoints(ctx, tr, p) {
		urls = append(urls, d.traverser.Resolve(ctx, entry, tr, visited)...)
	}
	return urls, visited, nil
}

func (d *Discoverer) discoverProtected(ctx context.Context, p config.Provider) ([]string, *sitemap.VisitedSet, error) {
	fmt.Fprintln(d.out, "  - protected strategy: browser-assisted session")
	if d.newBootstrapper == nil {
		return nil, nil, fmt.Errorf("provider %s needs a browser session but no bootstrapper is configured", p.Name)
	}

	res, err := d.newBootstrapper(p).Bootstrap(ctx)
	if err != nil {
		return nil, nil, err
	}

	visited := sitemap.NewVisitedSet()
	var urls []string
	for _, child := range sitemap.ChildSitemaps(res.Root) {
		urls = append(urls, d.traverser.Resolve(ctx, child, res.Transport, visited)...)
	}
	return urls, visited, nil
}

// EntryPoints returns the sitemap URLs robots.txt declares for p, or the
// conventional <root>/sitemap.xml when it declares none or cannot be read.
func (d *Discoverer) EntryPoints(ctx context.Context, tr transport.Transport, p config.Provider) []string {
	fallback := []string{p.FallbackSitemapURL()}

	resp, err := tr.Get(ctx, p.RobotsURL(), d.robotsTimeout)
	if err != nil {
		d.logger.Warn("robots.txt unavailable", "provider", p.Name, "error", err)
		return fallback
	}
	if err := transport.CheckStatus(resp); err != nil {
		d.logger.Warn("robots.txt unavailable", "provider", p.Name, "error", err)
		return fallback
	}

	robots, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		d.logger.Warn("robots.txt unparsable", "provider", p.Name, "error", err)
		return fallback
	}

	var entries []string
	for _, s := range robots.Sitemaps {
		if s = strings.TrimSpace(s); s != "" {
			entries = append(entries, s)
		}
	}
	if len(entries) == 0 {
		return fallback
	}
	return entries
}

func compileExcludes(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// FilterURLs keeps urls starting with prefix and matching no exclude
// pattern, removes duplicates and sorts the rest.
func FilterURLs(urls []string, prefix string, excludes []glob.Glob) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !strings.HasPrefix(u, prefix) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		if excluded(u, excludes) {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func excluded(u string, excludes []glob.Glob) bool {
	for _, g := range excludes {
		if g.Match(u) {
			return true
		}
	}
	return false
}

// NewHTTPTransportFactory returns a TransportFactory building an
// HTTPTransport with opts plus the provider's own headers.
func NewHTTPTransportFactory(opts ...transport.Option) TransportFactory {
	return func(p config.Provider) (transport.Transport, error) {
		all := append(append([]transport.Option(nil), opts...), transport.WithHeaders(p.Headers))
		tr, err := transport.New(all...)
		if err != nil {
			return nil, err
		}
		return tr, nil
	}
}
