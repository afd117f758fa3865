package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/commitmine/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the run modified by the
// previous steps.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails; the error is recorded on the run.
	Do(ctx context.Context, run *model.CrawlRun) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of regular steps.
	steps []Step

	// finalSteps always run after the regular steps.
	finalSteps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:      make([]Step, 0),
		finalSteps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a regular step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddFinalStep appends a step that runs after the regular steps even when
// one of them failed or ctx was cancelled.
func (p *Pipeline) AddFinalStep(step Step) {
	p.finalSteps = append(p.finalSteps, step)
}

// Execute runs the regular steps, then the final steps.
//
// Cancellation of ctx is checked before each regular step. Final steps
// receive a context detached from ctx's cancellation. The first error of
// any step is recorded on the run and returned.
func (p *Pipeline) Execute(ctx context.Context, run *model.CrawlRun) error {
	var firstErr error
	record := func(err error) {
		run.SetError(err)
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			record(err)
			break
		}

		if err := p.runStep(ctx, step, run); err != nil {
			record(err)
			break
		}
	}

	finalCtx := context.WithoutCancel(ctx)
	for _, step := range p.finalSteps {
		if err := p.runStep(finalCtx, step, run); err != nil {
			record(err)
		}
	}

	return firstErr
}

// runStep executes one step and tracks it on the run.
func (p *Pipeline) runStep(ctx context.Context, step Step, run *model.CrawlRun) error {
	p.logger.Info("executing step",
		"step", step.Name(),
		"run", run.ID,
	)

	if err := step.Do(ctx, run); err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"run", run.ID,
			"error", err,
		)
		return err
	}

	p.logger.Debug("step completed",
		"step", step.Name(),
		"run", run.ID,
	)
	run.PerformedSteps = append(run.PerformedSteps, step.Name())
	return nil
}

// StepCount returns the number of steps in the pipeline, final steps included.
func (p *Pipeline) StepCount() int {
	return len(p.steps) + len(p.finalSteps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, p.StepCount())
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.finalSteps {
		names = append(names, step.Name())
	}
	return names
}
