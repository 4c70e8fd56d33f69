package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/docscout/internal/model"
)

// Step is one stage of page analysis.
type Step interface {
	// Do fills its part of report. A returned error fails the page.
	Do(ctx context.Context, report *model.PageReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order against one report.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps running later steps after a failure.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing steps after one fails. The report
// still ends up failed.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a Pipeline. Steps are added with AddStep or AddSteps.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in sequence. Cancellation is checked before each
// step. The first error is recorded on report and returned.
func (p *Pipeline) Execute(ctx context.Context, report *model.PageReport) error {
	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "url", report.URL, "reason", err)
			report.Fail(err)
			return err
		}

		p.logger.Debug("executing step", "step", step.Name(), "url", report.URL)
		if err := step.Do(ctx, report); err != nil {
			p.logger.Warn("step failed", "step", step.Name(), "url", report.URL, "error", err)
			if firstErr == nil {
				firstErr = err
				report.Fail(err)
			}
			if !p.continueOnError {
				return err
			}
		}
	}
	if firstErr != nil {
		report.Fail(firstErr)
	}
	return firstErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
