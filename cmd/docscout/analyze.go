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

	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/database"
	"github.com/nao1215/docscout/internal/linkcheck"
	"github.com/nao1215/docscout/internal/model"
	"github.com/nao1215/docscout/internal/pipeline"
	"github.com/nao1215/docscout/internal/report"
	"github.com/nao1215/docscout/internal/transport"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [page-url]...",
		Short: "Audit documentation pages",
		Long: `Analyze fetches documentation pages and reports, per page:
- title, meta description and last update date
- number of tables and code blocks, with code block languages
- how often each configured keyword is mentioned
- internal, external and broken links

Links are checked with HEAD requests. Every unique link is checked once per
run, however many pages share it.

Pages given as arguments replace the configured page list. Reports are
printed and exported to the output directory as page_analysis.json, .md
and .csv; the raw text of every page is saved to the snapshot directory.

Examples:
  # Analyze the configured pages
  docscout analyze

  # Analyze two pages, four at a time, with 20 link workers
  docscout analyze -b 4 --link-workers 20 https://docs.example.com/a/ https://docs.example.com/b/

  # Count other keywords
  docscout analyze --tools Terraform,Pulumi,Helm`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildAnalyzeConfig(cmd, args)
			if err != nil {
				return err
			}
			if err := cfg.ValidateAnalysis(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = runAnalyze(ctx, cfg, a, a.logger(cfg.Verbose))
			return err
		},
	}

	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Number of pages analyzed at once")
	cmd.Flags().Int("link-workers", config.DefaultLinkWorkers, "Number of concurrent link checks")
	cmd.Flags().Duration("link-timeout", config.DefaultLinkTimeout, "Timeout of one link check")
	cmd.Flags().Duration("page-timeout", config.DefaultPageTimeout, "Timeout of a page fetch")
	cmd.Flags().String("snapshot-dir", config.DefaultSnapshotDir, "Directory receiving the raw page text")
	cmd.Flags().StringSlice("tools", nil, "Keywords to count (default: configured keywords)")
	addOutputFlags(cmd)

	return cmd
}

func buildAnalyzeConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.LinkWorkers, err = flags.GetInt("link-workers"); err != nil {
		return nil, err
	}
	if cfg.LinkTimeout, err = flags.GetDuration("link-timeout"); err != nil {
		return nil, err
	}
	if cfg.PageTimeout, err = flags.GetDuration("page-timeout"); err != nil {
		return nil, err
	}
	if flags.Changed("snapshot-dir") {
		if cfg.SnapshotDir, err = flags.GetString("snapshot-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("tools") {
		if cfg.Tools, err = flags.GetStringSlice("tools"); err != nil {
			return nil, err
		}
	}
	if len(args) > 0 {
		cfg.Pages = args
	}
	return cfg, nil
}

// runAnalyze analyzes every page of cfg with one shared link cache, exports
// the reports and optionally records them. A page failure is reported, not
// returned.
func runAnalyze(ctx context.Context, cfg *config.Config, a *app, logger *slog.Logger) ([]*model.PageReport, error) {
	started := time.Now()
	logger.Info("starting analysis", "pages", len(cfg.Pages), "batchSize", cfg.BatchSize, "linkWorkers", cfg.LinkWorkers)

	topts := []transport.Option{
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithMaxBodySize(cfg.MaxBodySize),
		transport.WithLogger(logger),
	}
	if a.roundTripper != nil {
		topts = append(topts, transport.WithRoundTripper(a.roundTripper))
	}
	tr, err := transport.New(topts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	cache := linkcheck.NewCache(linkcheck.WithWorkers(cfg.LinkWorkers), linkcheck.WithLogger(logger))
	checker := linkcheck.NewHTTPChecker(
		linkcheck.WithClient(a.httpClient()),
		linkcheck.WithTimeout(cfg.LinkTimeout),
		linkcheck.WithUserAgent(cfg.UserAgent),
	)

	// The database is opened up front so each report can be compared with
	// the previous analysis of its page.
	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
	}

	console := report.NewConsoleWriter(a.out)
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			p := pipeline.New(pipeline.WithLogger(logger))
			p.AddSteps(pipeline.PageSteps(tr, cfg, cache, checker, a.out, logger)...)
			return p
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
		pipeline.WithBeforeEach(func(_ int, url string) {
			console.PageHeader(url)
		}),
	)

	reports := make([]*model.PageReport, len(cfg.Pages))
	batchErr := bp.ProcessBatchWithCallback(ctx, cfg.Pages, func(r *model.PageReport, i int) {
		reports[i] = r
		if db != nil {
			printContentChange(ctx, a, db, r, logger)
		}
		if _, err := console.Page(r); err != nil {
			logger.Error("failed to print report", "url", r.URL, "error", err)
		}
	})

	console.LinkCacheSummary(cache.Len())

	var errs []error
	if len(cfg.Formats) > 0 {
		fmt.Fprintf(a.out, "\nSaving results to %s...\n", cfg.OutputDir)
		if _, err := report.NewExporter(cfg.OutputDir, cfg.Formats, console).ExportPages(reports); err != nil {
			errs = append(errs, fmt.Errorf("export failed: %w", err))
		}
	}

	if db != nil {
		id, err := db.SaveAnalysisRun(context.WithoutCancel(ctx), started, reports)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to save analysis run: %w", err))
		} else {
			logger.Info("analysis run saved", "id", id, "dir", cfg.DBDir)
			fmt.Fprintf(a.out, "  - ✅ Recorded run in %s\n", cfg.DBDir)
		}
	}

	if batchErr != nil {
		errs = append(errs, fmt.Errorf("analysis interrupted: %w", batchErr))
	}
	return reports, errors.Join(errs...)
}

// printContentChange tells whether the page text changed since the last
// recorded analysis of the same page.
func printContentChange(ctx context.Context, a *app, db *database.HistoryDB, r *model.PageReport, logger *slog.Logger) {
	if !r.Status.IsSuccess() || r.ContentHash == "" {
		return
	}
	prev, ok, err := db.LatestContentHash(ctx, r.URL)
	if err != nil {
		logger.Warn("failed to read previous analysis", "url", r.URL, "error", err)
		return
	}
	switch {
	case !ok:
		fmt.Fprintln(a.out, "  -> first recorded analysis of this page.")
	case prev == r.ContentHash:
		fmt.Fprintln(a.out, "  -> content unchanged since the last recorded analysis.")
	default:
		fmt.Fprintln(a.out, "  -> content changed since the last recorded analysis.")
	}
}
