package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/wcagscan/internal/aggregate"
	"github.com/nao1215/wcagscan/internal/login"
	"github.com/nao1215/wcagscan/internal/scanner"
)

// errNoResult is returned when a step needs a scan result that no earlier
// step produced.
var errNoResult = errors.New("no scan result to process")

// errNotSignedIn is returned when the page is scanned before login settled.
var errNotSignedIn = errors.New("login did not complete")

// LoginStep signs in to the target when credentials are configured and the
// page asks for them.
type LoginStep struct {
	automator *login.Automator
	logger    *slog.Logger
}

// NewLoginStep creates a login step around automator.
func NewLoginStep(automator *login.Automator, logger *slog.Logger) *LoginStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginStep{automator: automator, logger: logger}
}

// Name returns the step name.
func (s *LoginStep) Name() string {
	return "login"
}

// Do runs the login state machine on the target page.
func (s *LoginStep) Do(ctx context.Context, run *TargetRun) error {
	if s.automator.Enabled() {
		s.logger.Info("credentials provided, checking for login form", "url", run.Target.URL)
	}
	state, err := s.automator.Login(ctx, run.Page)
	run.LoginState = state
	if err != nil {
		return err
	}
	if state == login.NoLoginNeeded {
		s.logger.Debug("skipping login process", "url", run.Target.URL)
	}
	return nil
}

// ScanStep runs axe-core on the page in its final login state.
type ScanStep struct {
	scanner *scanner.Scanner
}

// NewScanStep creates a scan step.
func NewScanStep(s *scanner.Scanner) *ScanStep {
	return &ScanStep{scanner: s}
}

// Name returns the step name.
func (s *ScanStep) Name() string {
	return "axe_scan"
}

// Do scans the page and stores the result in run.
func (s *ScanStep) Do(ctx context.Context, run *TargetRun) error {
	if !run.LoginState.ReadyToScan() {
		return fmt.Errorf("%w: page is in state %s", errNotSignedIn, run.LoginState)
	}
	result, err := s.scanner.Scan(ctx, run.Page, run.Target)
	if err != nil {
		return err
	}
	run.Result = result
	return nil
}

// RecordStep appends the scan result to the run-wide report.
type RecordStep struct {
	report *aggregate.Report
}

// NewRecordStep creates a record step writing to report.
func NewRecordStep(report *aggregate.Report) *RecordStep {
	return &RecordStep{report: report}
}

// Name returns the step name.
func (s *RecordStep) Name() string {
	return "record"
}

// Do records run.Result.
func (s *RecordStep) Do(_ context.Context, run *TargetRun) error {
	if run.Result == nil {
		return errNoResult
	}
	return s.report.Record(run.Result)
}

// VerdictStep fails the target when its scan found violations.
type VerdictStep struct {
	report *aggregate.Report
}

// NewVerdictStep creates a verdict step.
func NewVerdictStep(report *aggregate.Report) *VerdictStep {
	return &VerdictStep{report: report}
}

// Name returns the step name.
func (s *VerdictStep) Name() string {
	return "verdict"
}

// Do returns an *aggregate.AssertionFailure when run.Result has violations.
func (s *VerdictStep) Do(_ context.Context, run *TargetRun) error {
	if run.Result == nil {
		return errNoResult
	}
	return s.report.Assert(run.Result)
}

// DefaultSteps returns the standard per-target sequence.
func DefaultSteps(automator *login.Automator, sc *scanner.Scanner, report *aggregate.Report, logger *slog.Logger) []Step {
	return []Step{
		NewLoginStep(automator, logger),
		NewScanStep(sc),
		NewRecordStep(report),
		NewVerdictStep(report),
	}
}
