package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/docscout/internal/analyzer"
	"github.com/nao1215/docscout/internal/config"
	"github.com/nao1215/docscout/internal/linkcheck"
	"github.com/nao1215/docscout/internal/model"
	"github.com/nao1215/docscout/internal/transport"
)

// FetchStep downloads the page and decodes it.
type FetchStep struct {
	tr      transport.Transport
	timeout time.Duration
}

// NewFetchStep returns a FetchStep using tr. A non-positive timeout means
// config.DefaultPageTimeout.
func NewFetchStep(tr transport.Transport, timeout time.Duration) *FetchStep {
	if timeout <= 0 {
		timeout = config.DefaultPageTimeout
	}
	return &FetchStep{tr: tr, timeout: timeout}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches report.URL. Network errors and non-2xx responses fail the page.
func (s *FetchStep) Do(ctx context.Context, report *model.PageReport) error {
	resp, err := s.tr.Get(ctx, report.URL, s.timeout)
	if err != nil {
		return err
	}
	if err := transport.CheckStatus(resp); err != nil {
		return err
	}

	report.Body = resp.Body
	report.ContentType = resp.Header.Get("Content-Type")
	report.Text, report.Charset = analyzer.Decode(resp.Body, report.ContentType)
	report.ContentHash = analyzer.ContentHash(resp.Body)
	return nil
}

// SnapshotStep saves the decoded page text.
type SnapshotStep struct {
	dir string
}

// NewSnapshotStep returns a SnapshotStep writing under dir.
func NewSnapshotStep(dir string) *SnapshotStep {
	return &SnapshotStep{dir: dir}
}

// Name returns the step name.
func (s *SnapshotStep) Name() string {
	return "snapshot"
}

// Do writes report.Text to the snapshot directory.
func (s *SnapshotStep) Do(_ context.Context, report *model.PageReport) error {
	path, err := analyzer.SaveSnapshot(s.dir, report.URL, report.Text)
	if err != nil {
		return err
	}
	report.SnapshotPath = path
	return nil
}

// ExtractStep fills the page metadata and link tallies.
type ExtractStep struct {
	tools []string
}

// NewExtractStep returns an ExtractStep counting the given tool keywords.
func NewExtractStep(tools []string) *ExtractStep {
	return &ExtractStep{tools: tools}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do parses report.Text. The page counts as analyzed once this succeeds.
func (s *ExtractStep) Do(_ context.Context, report *model.PageReport) error {
	parser, err := analyzer.NewParser(report.URL)
	if err != nil {
		return err
	}
	res, err := parser.Parse(strings.NewReader(report.Text))
	if err != nil {
		return fmt.Errorf("failed to parse page: %w", err)
	}

	report.Title = res.Title
	report.Description = res.Description
	report.LastUpdateDate = res.LastUpdateDate
	report.TablesCount = res.TablesCount
	report.CodeBlocksCount = res.CodeBlocksCount
	report.CodeLanguages = res.CodeLanguages
	report.FoundTools = analyzer.CountTools(res.Text, s.tools)
	report.Links = res.UniqueTargets()
	report.LinksSummary = &model.LinkSummary{
		TotalLinks:    res.TotalLinks,
		InternalLinks: res.InternalCount(),
		ExternalLinks: res.ExternalCount(),
	}
	report.Status = model.StatusSuccess
	return nil
}

// LinkCheckStep probes the page's links through a shared cache.
type LinkCheckStep struct {
	cache   *linkcheck.Cache
	checker linkcheck.Checker
	out     io.Writer
	logger  *slog.Logger
}

// LinkCheckStepOption configures a LinkCheckStep.
type LinkCheckStepOption func(*LinkCheckStep)

// WithLinkOutput sets where progress lines are printed.
func WithLinkOutput(w io.Writer) LinkCheckStepOption {
	return func(s *LinkCheckStep) {
		if w != nil {
			s.out = w
		}
	}
}

// WithLinkLogger sets the logger.
func WithLinkLogger(logger *slog.Logger) LinkCheckStepOption {
	return func(s *LinkCheckStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewLinkCheckStep returns a LinkCheckStep. cache is meant to be shared by
// every page of a run.
func NewLinkCheckStep(cache *linkcheck.Cache, checker linkcheck.Checker, opts ...LinkCheckStepOption) *LinkCheckStep {
	s := &LinkCheckStep{
		cache:   cache,
		checker: checker,
		out:     io.Discard,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *LinkCheckStep) Name() string {
	return "link_check"
}

// Do checks report.Links and records the broken ones. It never fails the page.
func (s *LinkCheckStep) Do(ctx context.Context, report *model.PageReport) error {
	if report.LinksSummary == nil {
		report.LinksSummary = &model.LinkSummary{}
	}
	if len(report.Links) == 0 {
		return nil
	}

	fresh := 0
	for _, u := range report.Links {
		if _, ok := s.cache.Lookup(u); !ok {
			fresh++
		}
	}
	if fresh > 0 {
		fmt.Fprintf(s.out, "  -> checking %d new unique links with %d workers...\n", fresh, s.cache.Workers())
	}
	s.cache.CheckAll(ctx, report.Links, s.checker)
	if fresh > 0 {
		fmt.Fprintln(s.out, "  -> link check finished.")
	}

	report.BrokenURLs = s.cache.Broken(report.Links)
	report.LinksSummary.BrokenLinks = len(report.BrokenURLs)
	s.logger.Debug("links checked", "url", report.URL, "unique", len(report.Links), "broken", len(report.BrokenURLs))
	return nil
}

// PageSteps returns the standard analysis steps in order.
func PageSteps(tr transport.Transport, cfg *config.Config, cache *linkcheck.Cache, checker linkcheck.Checker, out io.Writer, logger *slog.Logger) []Step {
	return []Step{
		NewFetchStep(tr, cfg.PageTimeout),
		NewSnapshotStep(cfg.SnapshotDir),
		NewExtractStep(cfg.Tools),
		NewLinkCheckStep(cache, checker, WithLinkOutput(out), WithLinkLogger(logger)),
	}
}
