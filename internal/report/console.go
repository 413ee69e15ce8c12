package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/nao1215/wcagscan/internal/aggregate"
	"github.com/nao1215/wcagscan/internal/model"
)

// Console status labels of a rule in the per-target table.
const (
	StatusPassed   = "✔ Passed"
	StatusViolated = "✖ Violated"
)

// ConsoleWriter prints run progress, per-target results and the run summary
// to a terminal. Tables are rendered with pterm; call pterm.DisableStyling
// when the output is not a terminal.
type ConsoleWriter struct {
	baseWriter

	// showPasses lists passed rules in the per-target table.
	showPasses bool
}

// ConsoleOption configures a ConsoleWriter.
type ConsoleOption func(*ConsoleWriter)

// WithShowPasses controls whether passed rules are listed per target.
func WithShowPasses(show bool) ConsoleOption {
	return func(w *ConsoleWriter) {
		w.showPasses = show
	}
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given writer.
func NewConsoleWriter(output io.Writer, opts ...ConsoleOption) *ConsoleWriter {
	w := &ConsoleWriter{
		baseWriter: newBaseWriter(output),
		showPasses: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// TargetStarted announces the target about to be tested.
func (w *ConsoleWriter) TargetStarted(target model.TargetSite, index, total int) error {
	_, err := fmt.Fprintf(w.output, "Testing accessibility for: %s (%d/%d)\n", target.URL, index+1, total)
	return err
}

// TargetResults prints every evaluated rule of one scan with its status.
func (w *ConsoleWriter) TargetResults(result *model.ScanResult) error {
	if _, err := fmt.Fprintf(w.output, "Results for %s:\n", result.URL); err != nil {
		return err
	}

	data := pterm.TableData{{"Rule", "Status", "Description"}}
	if w.showPasses {
		for _, p := range result.Passes {
			data = append(data, []string{p.RuleID, pterm.Green(StatusPassed), p.Description})
		}
	}
	for _, v := range result.Violations {
		data = append(data, []string{v.RuleID, pterm.Red(StatusViolated), v.Description})
	}
	if len(data) == 1 {
		_, err := fmt.Fprintln(w.output, "No rules evaluated.")
		return err
	}

	return w.table(data)
}

// TargetFailed prints a test that failed before its scan could complete.
func (w *ConsoleWriter) TargetFailed(outcome model.TestOutcome) error {
	msg := "unknown error"
	if len(outcome.FailureMessages) > 0 {
		msg = outcome.FailureMessages[0]
	}
	_, err := fmt.Fprintf(w.output, "%s %s: %s\n", pterm.Red("✖"), outcome.Title, msg)
	return err
}

// WriteSummary prints one row per violation of the run, or a single line
// when no violation was found.
func (w *ConsoleWriter) WriteSummary(summary aggregate.Summary) error {
	if _, err := fmt.Fprintln(w.output, "Summary of Accessibility Tests:"); err != nil {
		return err
	}
	if summary.Empty() {
		_, err := fmt.Fprintln(w.output, "No violations detected.")
		return err
	}

	data := pterm.TableData{{"URL", "Rule", "Description", "Impact", "Elements"}}
	for _, row := range summary.Rows {
		data = append(data, []string{
			row.URL,
			row.Rule,
			row.Description,
			colorImpact(row.Impact),
			row.Elements,
		})
	}
	return w.table(data)
}

// Write prints the run totals.
func (w *ConsoleWriter) Write(run *model.RunReport) (int, error) {
	total := len(run.Outcomes)
	failed := run.FailedCount()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Tests: %d, passed: %d, failed: %d, violations: %d\n",
		total, total-failed, failed, run.ViolationCount())
	if !run.StartedAt.IsZero() && !run.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	return io.WriteString(w.output, sb.String())
}

// ArtifactWritten confirms that a report artifact was written.
func (w *ConsoleWriter) ArtifactWritten(kind, path string) error {
	_, err := fmt.Fprintf(w.output, "%s report generated at: %s\n", kind, path)
	return err
}

func (w *ConsoleWriter) table(data pterm.TableData) error {
	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w.output, out)
	return err
}

func colorImpact(impact model.Impact) string {
	switch impact {
	case model.ImpactCritical:
		return pterm.Red(impact.String())
	case model.ImpactSerious:
		return pterm.LightRed(impact.String())
	case model.ImpactModerate:
		return pterm.Yellow(impact.String())
	default:
		return impact.String()
	}
}
