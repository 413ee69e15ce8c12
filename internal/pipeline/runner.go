package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/wcagscan/internal/aggregate"
	"github.com/nao1215/wcagscan/internal/browser"
	"github.com/nao1215/wcagscan/internal/model"
)

// Test naming used in outcomes.
const (
	// SuiteTitle prefixes every test's full name.
	SuiteTitle = "WCAG Accessibility Tests"

	// DefaultTargetTimeout bounds one target's complete sequence.
	DefaultTargetTimeout = 30 * time.Second
)

// TestTitle returns the short test title for url.
func TestTitle(url string) string {
	return "Check accessibility for " + url
}

// PageOpener opens a page for a target. *browser.Session implements it.
type PageOpener interface {
	OpenPage(ctx context.Context, target model.TargetSite) (browser.Page, error)
}

// Runner processes targets sequentially, one pipeline per target.
type Runner struct {
	opener          PageOpener
	pipelineFactory func() *Pipeline
	report          *aggregate.Report
	targetTimeout   time.Duration
	logger          *slog.Logger
	onStart         func(target model.TargetSite, index, total int)
	onFinish        func(run *TargetRun, outcome model.TestOutcome)
	now             func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTargetTimeout sets the per-target timeout. Every wait inside the
// target's sequence is nested in it.
func WithTargetTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.targetTimeout = d
		}
	}
}

// WithOnStart registers a callback invoked before each target.
func WithOnStart(fn func(target model.TargetSite, index, total int)) RunnerOption {
	return func(r *Runner) {
		r.onStart = fn
	}
}

// WithOnFinish registers a callback invoked after each target, once its
// page is closed.
func WithOnFinish(fn func(run *TargetRun, outcome model.TestOutcome)) RunnerOption {
	return func(r *Runner) {
		r.onFinish = fn
	}
}

// NewRunner creates a Runner. pipelineFactory is called once per target so
// no step state leaks between targets. report receives the scan results
// and is sealed when Run returns.
func NewRunner(opener PageOpener, pipelineFactory func() *Pipeline, report *aggregate.Report, opts ...RunnerOption) *Runner {
	r := &Runner{
		opener:          opener,
		pipelineFactory: pipelineFactory,
		report:          report,
		targetTimeout:   DefaultTargetTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run processes targets in order. Per-target failures become failed
// outcomes and never stop the loop. Cancellation of ctx stops the loop
// before the next target; the targets attempted so far are still returned,
// together with ctx.Err().
func (r *Runner) Run(ctx context.Context, targets []model.TargetSite) (*model.RunReport, error) {
	run := &model.RunReport{
		StartedAt: r.now(),
		Outcomes:  make([]model.TestOutcome, 0, len(targets)),
	}

	var runErr error
	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run cancelled", "remaining", len(targets)-i, "reason", err)
			runErr = err
			break
		}
		if r.onStart != nil {
			r.onStart(target, i, len(targets))
		}

		targetRun, outcome := r.runTarget(ctx, target)
		run.Outcomes = append(run.Outcomes, outcome)

		if r.onFinish != nil {
			r.onFinish(targetRun, outcome)
		}
	}

	r.report.Seal()
	run.Results = r.report.Results()
	run.FinishedAt = r.now()

	r.logger.Info("run complete",
		"targets", len(run.Outcomes),
		"failed", run.FailedCount(),
		"elapsed", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, runErr
}

// runTarget executes one target under the per-target timeout. The page is
// closed on every path before it returns.
func (r *Runner) runTarget(ctx context.Context, target model.TargetSite) (*TargetRun, model.TestOutcome) {
	start := r.now()
	title := TestTitle(target.URL)
	r.logger.Info("testing accessibility", "url", target.URL)

	targetCtx, cancel := context.WithTimeout(ctx, r.targetTimeout)
	defer cancel()

	targetRun := NewTargetRun(target, nil)
	err := r.process(targetCtx, targetRun)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && errors.Is(targetCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("exceeded target timeout of %s: %w", r.targetTimeout, err)
	}

	outcome := model.TestOutcome{
		Title:    title,
		FullName: SuiteTitle + " " + title,
		URL:      target.URL,
		Status:   model.StatusPassed,
		Duration: r.now().Sub(start),
	}
	if err != nil {
		outcome.Status = model.StatusFailed
		outcome.FailureMessages = failureMessages(err, targetRun.Result)
		r.logger.Warn("target failed", "url", target.URL, "error", err)
	}
	return targetRun, outcome
}

func (r *Runner) process(ctx context.Context, targetRun *TargetRun) error {
	page, err := r.opener.OpenPage(ctx, targetRun.Target)
	if err != nil {
		return err
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Warn("failed to close page", "url", targetRun.Target.URL, "error", err)
		}
	}()

	targetRun.Page = page
	return r.pipelineFactory().Execute(ctx, targetRun)
}

// failureMessages describes a failed target: the error itself, followed by
// one line per violation when the failure is a verdict.
func failureMessages(err error, result *model.ScanResult) []string {
	messages := []string{err.Error()}

	var af *aggregate.AssertionFailure
	if !errors.As(err, &af) || result == nil {
		return messages
	}
	for _, v := range result.Violations {
		messages = append(messages, fmt.Sprintf("%s (%s): %s [%d element(s)]",
			v.RuleID, v.Impact, v.Description, len(v.Elements)))
	}
	return messages
}
