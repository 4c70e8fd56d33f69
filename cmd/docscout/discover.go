package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docscout/internal/bootstrap"
	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/database"
	"github.com/nao1215/docscout/internal/discovery"
	"github.com/nao1215/docscout/internal/model"
	"github.com/nao1215/docscout/internal/pipeline"
	"github.com/nao1215/docscout/internal/report"
	"github.com/nao1215/docscout/internal/sitemap"
	"github.com/nao1215/docscout/internal/transport"
)

func newDiscoverCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Collect documentation URLs from provider sitemaps",
		Long: `Discover walks the sitemap tree of every configured provider and collects
the documentation URLs below the provider's doc prefix.

Plain providers are read over HTTP starting from robots.txt. For protected
providers a browser window opens the sitemap index; pass the bot check in
that window, wait for the XML to show, then press Enter in this terminal.

Results are printed per provider and exported to the output directory as
documentation_urls.json, .md and .csv.

Examples:
  # Discover every configured provider
  docscout discover

  # Only Selectel, JSON export only
  docscout discover --provider Selectel --format json

  # Record the run for "docscout history"
  docscout discover --save-db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildDiscoverConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateDiscovery(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = runDiscover(ctx, cfg, a, a.logger(cfg.Verbose))
			return err
		},
	}

	cmd.Flags().StringSliceP("provider", "p", nil, "Discover only the named providers (repeatable)")
	cmd.Flags().Duration("sitemap-timeout", config.DefaultSitemapTimeout, "Timeout of one sitemap fetch")
	cmd.Flags().Duration("robots-timeout", config.DefaultRobotsTimeout, "Timeout of the robots.txt fetch")
	cmd.Flags().Duration("crawl-delay", config.DefaultCrawlDelay, "Minimum interval between sitemap requests")
	cmd.Flags().Int("retries", config.DefaultFetchRetries, "Retries of a sitemap fetch after a network error or 5xx")
	cmd.Flags().String("chrome-path", "", "Chrome executable used for protected providers")
	addOutputFlags(cmd)

	return cmd
}

func buildDiscoverConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.SitemapTimeout, err = flags.GetDuration("sitemap-timeout"); err != nil {
		return nil, err
	}
	if cfg.RobotsTimeout, err = flags.GetDuration("robots-timeout"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("crawl-delay"); err != nil {
		return nil, err
	}
	if cfg.FetchRetries, err = flags.GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
		return nil, err
	}

	names, err := flags.GetStringSlice("provider")
	if err != nil {
		return nil, err
	}
	if err := cfg.SelectProviders(names); err != nil {
		return nil, err
	}
	return cfg, nil
}

// announcingDiscoverer prints the provider header before delegating.
type announcingDiscoverer struct {
	next    pipeline.ProviderDiscoverer
	console *report.ConsoleWriter
}

func (d announcingDiscoverer) Discover(ctx context.Context, p config.Provider) (*model.CrawlResult, error) {
	d.console.ProviderHeader(p.Name)
	return d.next.Discover(ctx, p)
}

// runDiscover discovers every provider of cfg, exports the results and
// optionally records them. A provider failure is reported, not returned.
func runDiscover(ctx context.Context, cfg *config.Config, a *app, logger *slog.Logger) ([]*model.CrawlResult, error) {
	started := time.Now()
	logger.Info("starting discovery", "providers", len(cfg.Providers), "saveToDB", cfg.SaveToDB)

	topts := []transport.Option{
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithRateLimit(cfg.CrawlDelay),
		transport.WithRetries(cfg.FetchRetries, 0),
		transport.WithMaxBodySize(cfg.MaxBodySize),
		transport.WithLogger(logger),
	}
	if a.roundTripper != nil {
		topts = append(topts, transport.WithRoundTripper(a.roundTripper))
	}

	traverser := sitemap.NewTraverser(
		sitemap.WithFetchTimeout(cfg.SitemapTimeout),
		sitemap.WithLogger(logger),
		sitemap.WithTrace(a.out),
	)

	newBootstrapper := func(p config.Provider) discovery.Bootstrapper {
		opts := append(append([]transport.Option(nil), topts...), transport.WithHeaders(p.Headers))
		return bootstrap.New(
			a.newLauncher(cfg),
			bootstrap.NewConsoleAcknowledger(a.in),
			p.BootstrapURL,
			bootstrap.WithOutput(a.out),
			bootstrap.WithLogger(logger),
			bootstrap.WithTransportOptions(opts...),
		)
	}

	d := discovery.NewDiscoverer(
		discovery.NewHTTPTransportFactory(topts...),
		newBootstrapper,
		discovery.WithTraverser(traverser),
		discovery.WithRobotsTimeout(cfg.RobotsTimeout),
		discovery.WithLogger(logger),
		discovery.WithOutput(a.out),
	)

	console := report.NewConsoleWriter(a.out)
	results := pipeline.DiscoverProviders(ctx, announcingDiscoverer{next: d, console: console}, cfg.Providers, logger,
		func(r *model.CrawlResult, _ int) {
			if _, err := console.ProviderResult(r); err != nil {
				logger.Error("failed to print result", "provider", r.Provider, "error", err)
			}
		})

	var errs []error
	if len(cfg.Formats) > 0 {
		fmt.Fprintf(a.out, "\nSaving results to %s...\n", cfg.OutputDir)
		if _, err := report.NewExporter(cfg.OutputDir, cfg.Formats, console).ExportDiscovery(results); err != nil {
			errs = append(errs, fmt.Errorf("export failed: %w", err))
		}
	}

	if cfg.SaveToDB {
		if err := saveDiscoveryRun(ctx, cfg, started, results, logger); err != nil {
			errs = append(errs, err)
		} else {
			fmt.Fprintf(a.out, "  - ✅ Recorded run in %s\n", cfg.DBDir)
		}
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, fmt.Errorf("discovery interrupted: %w", err))
	}
	return results, errors.Join(errs...)
}

func saveDiscoveryRun(ctx context.Context, cfg *config.Config, started time.Time, results []*model.CrawlResult, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The run is recorded even when ctx was cancelled.
	id, err := db.SaveDiscoveryRun(context.WithoutCancel(ctx), started, results)
	if err != nil {
		return fmt.Errorf("failed to save discovery run: %w", err)
	}
	logger.Info("discovery run saved", "id", id, "dir", cfg.DBDir)
	return nil
}
