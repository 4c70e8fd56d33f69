package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("timeouts", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 20*time.Second, cfg.SitemapTimeout)
		assert.Equal(t, 10*time.Second, cfg.RobotsTimeout)
		assert.Equal(t, 15*time.Second, cfg.PageTimeout)
		assert.Equal(t, 5*time.Second, cfg.LinkTimeout)
	})

	t.Run("link workers is 10", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 10, cfg.LinkWorkers)
	})

	t.Run("three built-in providers", func(t *testing.T) {
		t.Parallel()
		require.Len(t, cfg.Providers, 3)
		assert.Equal(t, "Selectel", cfg.Providers[0].Name)
		assert.Equal(t, StrategyProtected, cfg.Providers[1].Strategy)
		assert.Equal(t, "https://yandex.cloud/sitemap_index.xml", cfg.Providers[1].BootstrapURL)
		assert.Equal(t, "https://cloud.vk.com/docs/", cfg.Providers[2].DocPrefix)
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, NewConfig().ValidateDiscovery())
		assert.NoError(t, NewConfig().ValidateAnalysis())
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "zero sitemap timeout", modify: func(c *Config) { c.SitemapTimeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative link timeout", modify: func(c *Config) { c.LinkTimeout = -time.Second }, wantErr: ErrInvalidTimeout},
		{name: "zero batch size", modify: func(c *Config) { c.BatchSize = 0 }, wantErr: ErrInvalidBatchSize},
		{name: "zero link workers", modify: func(c *Config) { c.LinkWorkers = 0 }, wantErr: ErrInvalidLinkWorkers},
		{name: "negative crawl delay", modify: func(c *Config) { c.CrawlDelay = -1 }, wantErr: ErrInvalidCrawlDelay},
		{name: "negative retries", modify: func(c *Config) { c.FetchRetries = -1 }, wantErr: ErrInvalidRetries},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, wantErr: ErrInvalidMaxBodySize},
		{name: "unknown format", modify: func(c *Config) { c.Formats = []string{"xlsx"} }, wantErr: ErrUnknownFormat},
		{name: "zero crawl delay is fine", modify: func(c *Config) { c.CrawlDelay = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_ValidateDiscovery(t *testing.T) {
	t.Parallel()

	t.Run("no providers", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Providers = nil
		assert.ErrorIs(t, cfg.ValidateDiscovery(), ErrNoProvider)
	})

	t.Run("invalid provider", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		cfg.Providers = []Provider{{Name: "x", Strategy: "stealth", DocPrefix: "https://x/"}}
		assert.ErrorIs(t, cfg.ValidateDiscovery(), ErrUnknownStrategy)
	})
}

func TestConfig_ValidateAnalysis(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Pages = nil
	assert.ErrorIs(t, cfg.ValidateAnalysis(), ErrNoPage)
}

func TestProvider_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider Provider
		wantErr  error
	}{
		{
			name:     "plain ok",
			provider: Provider{Name: "a", RootURL: "https://a.test/", DocPrefix: "https://a.test/docs/", Strategy: StrategyPlain},
		},
		{
			name:     "protected ok",
			provider: Provider{Name: "b", DocPrefix: "https://b.test/", Strategy: StrategyProtected, BootstrapURL: "https://b.test/sitemap_index.xml"},
		},
		{
			name:     "empty name",
			provider: Provider{RootURL: "https://a.test/", DocPrefix: "https://a.test/", Strategy: StrategyPlain},
			wantErr:  ErrInvalidProvider,
		},
		{
			name:     "plain without root",
			provider: Provider{Name: "a", DocPrefix: "https://a.test/", Strategy: StrategyPlain},
			wantErr:  ErrInvalidProvider,
		},
		{
			name:     "protected without bootstrap url",
			provider: Provider{Name: "b", RootURL: "https://b.test/", DocPrefix: "https://b.test/", Strategy: StrategyProtected},
			wantErr:  ErrInvalidProvider,
		},
		{
			name:     "missing prefix",
			provider: Provider{Name: "a", RootURL: "https://a.test/", Strategy: StrategyPlain},
			wantErr:  ErrInvalidProvider,
		},
		{
			name:     "bad exclude glob",
			provider: Provider{Name: "a", RootURL: "https://a.test/", DocPrefix: "https://a.test/", Strategy: StrategyPlain, Exclude: []string{"[unclosed"}},
			wantErr:  ErrInvalidProvider,
		},
		{
			name:     "unknown strategy",
			provider: Provider{Name: "a", RootURL: "https://a.test/", DocPrefix: "https://a.test/", Strategy: "headless"},
			wantErr:  ErrUnknownStrategy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.provider.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProvider_URLs(t *testing.T) {
	t.Parallel()

	p := Provider{RootURL: "https://docs.selectel.ru/"}
	assert.Equal(t, "https://docs.selectel.ru/robots.txt", p.RobotsURL())
	assert.Equal(t, "https://docs.selectel.ru/sitemap.xml", p.FallbackSitemapURL())

	p = Provider{RootURL: "https://example.test"}
	assert.Equal(t, "https://example.test/robots.txt", p.RobotsURL())
}

func TestConfig_SelectProviders(t *testing.T) {
	t.Parallel()

	t.Run("case-insensitive selection keeps order of names", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		require.NoError(t, cfg.SelectProviders([]string{"vk cloud", "selectel"}))
		require.Len(t, cfg.Providers, 2)
		assert.Equal(t, "VK Cloud", cfg.Providers[0].Name)
		assert.Equal(t, "Selectel", cfg.Providers[1].Name)
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		err := cfg.SelectProviders([]string{"nope"})
		assert.True(t, errors.Is(err, ErrUnknownProvider))
	})

	t.Run("empty keeps all", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		require.NoError(t, cfg.SelectProviders(nil))
		assert.Len(t, cfg.Providers, 3)
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("providers pages and tools", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `providers:
  - name: Example
    root_url: https://example.test/
    doc_prefix: https://example.test/docs/
    strategy: plain
    exclude:
      - "*/archive/*"
    headers:
      Accept-Language: ru
pages:
  - https://example.test/docs/a
tools:
  - Pulumi
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		f, err := LoadConfigFile(path)
		require.NoError(t, err)
		require.Len(t, f.Providers, 1)
		assert.Equal(t, StrategyPlain, f.Providers[0].Strategy)
		assert.Equal(t, []string{"*/archive/*"}, f.Providers[0].Exclude)
		assert.Equal(t, "ru", f.Providers[0].Headers["Accept-Language"])

		cfg := NewConfig()
		cfg.ApplyFile(f)
		assert.Len(t, cfg.Providers, 1)
		assert.Equal(t, []string{"https://example.test/docs/a"}, cfg.Pages)
		assert.Equal(t, []string{"Pulumi"}, cfg.Tools)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		require.NoError(t, os.WriteFile(path, []byte("providers: [:"), 0o600))
		_, err := LoadConfigFile(path)
		assert.Error(t, err)
	})
}

func TestConfig_ApplyFileKeepsDefaultsForEmptySections(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.ApplyFile(&File{Tools: []string{"Helm"}})
	assert.Len(t, cfg.Providers, 3)
	assert.Len(t, cfg.Pages, 3)
	assert.Equal(t, []string{"Helm"}, cfg.Tools)

	cfg.ApplyFile(nil)
	assert.Equal(t, []string{"Helm"}, cfg.Tools)
}

func TestFindConfigFile_Explicit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	assert.Equal(t, path, FindConfigFile(path))
	assert.Empty(t, FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
