package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/wcagscan/internal/browser"
	"github.com/nao1215/wcagscan/internal/login"
	"github.com/nao1215/wcagscan/internal/model"
)

// TargetRun carries the state of one target through the pipeline.
type TargetRun struct {
	// Target is the page being processed.
	Target model.TargetSite

	// Page is the open tab for Target.
	Page browser.Page

	// LoginState is the final state of the login step.
	LoginState login.State

	// Result is set by the scan step.
	Result *model.ScanResult

	// PerformedSteps lists the steps that completed, in order.
	PerformedSteps []string
}

// NewTargetRun creates the run state for target on page.
func NewTargetRun(target model.TargetSite, page browser.Page) *TargetRun {
	return &TargetRun{
		Target:         target,
		Page:           page,
		PerformedSteps: make([]string, 0),
	}
}

// Step is one stage of the per-target sequence.
type Step interface {
	// Do executes the step. A returned error ends the target's pipeline.
	Do(ctx context.Context, run *TargetRun) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order on one target.
type Pipeline struct {
	steps  []Step
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

// Execute runs the steps in order and stops at the first error, which it
// returns unchanged. Cancellation of ctx is checked before every step.
func (p *Pipeline) Execute(ctx context.Context, run *TargetRun) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"url", run.Target.URL,
				"reason", err,
			)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", run.Target.URL,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Debug("step ended target",
				"step", step.Name(),
				"url", run.Target.URL,
				"error", err,
			)
			return err
		}

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}
	return nil
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
