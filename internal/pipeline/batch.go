package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/docscout/internal/model"
)

// DefaultConcurrency is the number of pages analyzed at once.
const DefaultConcurrency = 1

// BatchProcessor analyzes many pages, each with a fresh Pipeline.
type BatchProcessor struct {
	pipelineFactory func() *Pipeline
	concurrency     int
	logger          *slog.Logger

	before func(index int, url string)

	// mu serializes callbacks.
	mu sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of pages analyzed at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBeforeEach registers fn to be called before a page is analyzed.
func WithBeforeEach(fn func(index int, url string)) BatchOption {
	return func(b *BatchProcessor) {
		b.before = fn
	}
}

// NewBatchProcessor creates a BatchProcessor. pipelineFactory is called once
// per page.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyzes urls and returns one report per url, in input order.
// Pages that fail are returned as failed reports. The error is non-nil only
// when ctx was cancelled; pages not started by then are failed with it.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.PageReport, error) {
	reports := make([]*model.PageReport, len(urls))
	err := bp.ProcessBatchWithCallback(ctx, urls, func(report *model.PageReport, index int) {
		reports[index] = report
	})
	return reports, err
}

// ProcessBatchWithCallback analyzes urls and calls callback with every
// finished report, including those skipped because ctx was cancelled.
// Callbacks never run concurrently.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(report *model.PageReport, index int),
) error {
	bp.logger.Info("starting batch processing", "total_pages", len(urls), "concurrency", bp.concurrency)
	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(bp.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			report := model.NewPageReport(u)
			if err := ctx.Err(); err != nil {
				report.Fail(err)
			} else {
				bp.notifyBefore(i, u)
				bp.run(ctx, report)
			}
			report.Release()

			bp.mu.Lock()
			defer bp.mu.Unlock()
			callback(report, i)
			return nil
		})
	}
	_ = g.Wait()

	bp.logger.Info("batch processing complete", "total_pages", len(urls), "elapsed", time.Since(startTime))
	return ctx.Err()
}

func (bp *BatchProcessor) notifyBefore(index int, url string) {
	if bp.before == nil {
		return
	}
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.before(index, url)
}

// run executes a fresh pipeline and turns a panic into a failed report.
func (bp *BatchProcessor) run(ctx context.Context, report *model.PageReport) {
	defer func() {
		if r := recover(); r != nil {
			bp.logger.Error("page analysis panicked", "url", report.URL, "panic", r)
			report.Fail(fmt.Errorf("analysis panicked: %v", r))
		}
	}()
	if err := bp.pipelineFactory().Execute(ctx, report); err != nil {
		bp.logger.Warn("page analysis failed", "url", report.URL, "error", err)
	}
}
