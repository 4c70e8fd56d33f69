package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "docscout"

	// DefaultSitemapTimeout bounds a single sitemap fetch. Sitemap files of
	// large providers are several megabytes, so this is the most generous
	// of the timeouts.
	DefaultSitemapTimeout = 20 * time.Second

	// DefaultRobotsTimeout bounds the robots.txt fetch.
	DefaultRobotsTimeout = 10 * time.Second

	// DefaultPageTimeout bounds fetching a page for analysis.
	DefaultPageTimeout = 15 * time.Second

	// DefaultLinkTimeout bounds one link liveness probe. A link slower than
	// this is reported as broken.
	DefaultLinkTimeout = 5 * time.Second

	// DefaultLinkWorkers is the number of concurrent link probes.
	DefaultLinkWorkers = 10

	// DefaultBatchSize is the number of pages analyzed at once.
	DefaultBatchSize = 1

	// DefaultCrawlDelay spaces out sitemap fetches against one provider.
	DefaultCrawlDelay = 200 * time.Millisecond

	// DefaultFetchRetries is how many times a sitemap fetch is retried after a
	// network error or a 5xx response.
	DefaultFetchRetries = 2

	// DefaultUserAgent is a desktop browser string. Several documentation
	// CDNs answer unknown agents with 403.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36"

	// DefaultMaxBodySize caps a response body. A sitemap holds at most
	// 50,000 URLs, which fits comfortably.
	DefaultMaxBodySize = 50 * 1024 * 1024

	// DefaultOutputDir receives the exports.
	DefaultOutputDir = "analysis_results"

	// DefaultSnapshotDir receives raw page snapshots.
	DefaultSnapshotDir = "downloaded_pages"

	// FormatJSON, FormatMarkdown and FormatCSV name the file exports.
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// Config holds every option of a docscout run. It is built by NewConfig,
// merged with the config file via ApplyFile and then overridden by CLI flags.
type Config struct {
	// ConfigFilePath is an explicit config file; empty means search.
	ConfigFilePath string

	// Providers are the documentation sites to discover.
	Providers []Provider

	// Pages are the URLs to analyze.
	Pages []string

	// Tools are the keywords counted on analyzed pages.
	Tools []string

	// Verbose switches logging to Debug.
	Verbose bool

	// OutputDir receives the JSON, Markdown and CSV exports.
	OutputDir string

	// Formats selects the exports written to OutputDir.
	Formats []string

	// SnapshotDir receives the raw text of every analyzed page.
	SnapshotDir string

	// DBDir holds the SQLite history database. Used only when SaveToDB is set.
	DBDir string

	// SaveToDB records runs in the history database.
	SaveToDB bool

	SitemapTimeout time.Duration
	RobotsTimeout  time.Duration
	PageTimeout    time.Duration
	LinkTimeout    time.Duration

	// LinkWorkers bounds concurrent link probes.
	LinkWorkers int

	// BatchSize bounds concurrently analyzed pages.
	BatchSize int

	// CrawlDelay is the minimum interval between sitemap requests.
	CrawlDelay time.Duration

	// FetchRetries is the retry budget for transient sitemap fetch failures.
	FetchRetries int

	UserAgent   string
	MaxBodySize int64

	// ChromePath overrides the browser executable used for protected providers.
	ChromePath string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Providers:      DefaultProviders(),
		Pages:          DefaultPages(),
		Tools:          DefaultTools(),
		OutputDir:      DefaultOutputDir,
		Formats:        []string{FormatJSON, FormatMarkdown, FormatCSV},
		SnapshotDir:    DefaultSnapshotDir,
		DBDir:          XDGDataDir(),
		SitemapTimeout: DefaultSitemapTimeout,
		RobotsTimeout:  DefaultRobotsTimeout,
		PageTimeout:    DefaultPageTimeout,
		LinkTimeout:    DefaultLinkTimeout,
		LinkWorkers:    DefaultLinkWorkers,
		BatchSize:      DefaultBatchSize,
		CrawlDelay:     DefaultCrawlDelay,
		FetchRetries:   DefaultFetchRetries,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
	}
}

// ApplyFile replaces providers, pages and tools with the non-empty sections of f.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if len(f.Providers) > 0 {
		c.Providers = f.Providers
	}
	if len(f.Pages) > 0 {
		c.Pages = f.Pages
	}
	if len(f.Tools) > 0 {
		c.Tools = f.Tools
	}
}

// SelectProviders narrows Providers to the given names (case-insensitive).
// An empty list keeps all providers.
func (c *Config) SelectProviders(names []string) error {
	if len(names) == 0 {
		return nil
	}
	selected := make([]Provider, 0, len(names))
	for _, name := range names {
		idx := slices.IndexFunc(c.Providers, func(p Provider) bool {
			return strings.EqualFold(p.Name, name)
		})
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownProvider, name)
		}
		selected = append(selected, c.Providers[idx])
	}
	c.Providers = selected
	return nil
}

// XDGDataDir returns the per-user data directory for docscout.
// On Linux: ~/.local/share/docscout
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the per-user config directory for docscout.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by every command. The first problem
// found is returned.
func (c *Config) Validate() error {
	for _, d := range []time.Duration{c.SitemapTimeout, c.RobotsTimeout, c.PageTimeout, c.LinkTimeout} {
		if d <= 0 {
			return ErrInvalidTimeout
		}
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.LinkWorkers <= 0 {
		return ErrInvalidLinkWorkers
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.FetchRetries < 0 {
		return ErrInvalidRetries
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	for _, f := range c.Formats {
		switch f {
		case FormatJSON, FormatMarkdown, FormatCSV:
		default:
			return fmt.Errorf("%w: %s", ErrUnknownFormat, f)
		}
	}
	return nil
}

// ValidateDiscovery additionally checks the provider list.
func (c *Config) ValidateDiscovery() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Providers) == 0 {
		return ErrNoProvider
	}
	for _, p := range c.Providers {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAnalysis additionally checks the page list.
func (c *Config) ValidateAnalysis() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Pages) == 0 {
		return ErrNoPage
	}
	return nil
}
