package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// Strategy selects how a provider's sitemap tree is reached.
type Strategy string

const (
	// StrategyPlain reads robots.txt and fetches sitemaps with a plain HTTP client.
	StrategyPlain Strategy = "plain"
	// StrategyProtected borrows a browser session cleared by a human operator
	// before fetching sitemaps.
	StrategyProtected Strategy = "protected"
)

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	return s == StrategyPlain || s == StrategyProtected
}

// Provider describes one documentation site.
type Provider struct {
	// Name is the human-readable provider name used as the result key.
	Name string `yaml:"name"`

	// RootURL is where robots.txt and the fallback sitemap.xml live.
	RootURL string `yaml:"root_url"`

	// DocPrefix keeps only discovered URLs that start with it.
	DocPrefix string `yaml:"doc_prefix"`

	// Strategy is plain or protected.
	Strategy Strategy `yaml:"strategy"`

	// BootstrapURL is the sitemap index the operator opens in the browser.
	// Required for protected providers.
	BootstrapURL string `yaml:"bootstrap_url,omitempty"`

	// Exclude lists glob patterns; matching URLs are dropped after the prefix filter.
	Exclude []string `yaml:"exclude,omitempty"`

	// Headers are extra HTTP headers sent with every sitemap request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Validate checks that the provider can be discovered.
func (p Provider) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidProvider)
	}
	if !p.Strategy.Valid() {
		return fmt.Errorf("%w %q for provider %s", ErrUnknownStrategy, p.Strategy, p.Name)
	}
	if p.DocPrefix == "" {
		return fmt.Errorf("%w: %s has no doc_prefix", ErrInvalidProvider, p.Name)
	}
	switch p.Strategy {
	case StrategyPlain:
		if !isAbsoluteHTTPURL(p.RootURL) {
			return fmt.Errorf("%w: %s root_url %q is not an absolute http(s) URL", ErrInvalidProvider, p.Name, p.RootURL)
		}
	case StrategyProtected:
		if !isAbsoluteHTTPURL(p.BootstrapURL) {
			return fmt.Errorf("%w: %s bootstrap_url %q is not an absolute http(s) URL", ErrInvalidProvider, p.Name, p.BootstrapURL)
		}
	}
	for _, pattern := range p.Exclude {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("%w: %s exclude pattern %q: %w", ErrInvalidProvider, p.Name, pattern, err)
		}
	}
	return nil
}

// RobotsURL returns <root>/robots.txt.
func (p Provider) RobotsURL() string {
	return strings.TrimRight(p.RootURL, "/") + "/robots.txt"
}

// FallbackSitemapURL returns <root>/sitemap.xml, used when robots.txt names no sitemap.
func (p Provider) FallbackSitemapURL() string {
	return strings.TrimRight(p.RootURL, "/") + "/sitemap.xml"
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// DefaultProviders returns the providers discovered when no config file
// declares any.
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name:      "Selectel",
			RootURL:   "https://docs.selectel.ru/",
			DocPrefix: "https://docs.selectel.ru/",
			Strategy:  StrategyPlain,
		},
		{
			Name:         "Yandex Cloud",
			RootURL:      "https://cloud.yandex.ru/",
			DocPrefix:    "https://yandex.cloud/ru/docs/",
			Strategy:     StrategyProtected,
			BootstrapURL: "https://yandex.cloud/sitemap_index.xml",
		},
		{
			Name:      "VK Cloud",
			RootURL:   "https://cloud.vk.com/",
			DocPrefix: "https://cloud.vk.com/docs/",
			Strategy:  StrategyPlain,
		},
	}
}

// DefaultPages returns the pages analyzed when no config file declares any.
func DefaultPages() []string {
	return []string{
		"https://docs.selectel.ru/cloud-servers/create/create-server/",
		"https://docs.selectel.ru/managed-kubernetes/clusters/create-cluster/",
		"https://docs.selectel.ru/terraform/quickstart/",
	}
}

// DefaultTools returns the keywords counted on analyzed pages.
func DefaultTools() []string {
	return []string{"API", "Terraform", "CLI", "Ansible", "Kubernetes", "Docker", "SDK"}
}
