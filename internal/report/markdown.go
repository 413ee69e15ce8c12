package report

import (
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/wcagscan/internal/model"
)

// DefaultTitle is the heading of Markdown and HTML reports.
const DefaultTitle = "Accessibility Test Report"

// timeLayout formats run timestamps in reports.
const timeLayout = "2006-01-02 15:04:05 MST"

// MarkdownWriter outputs run reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
	doc document
}

// MarkdownOption configures a MarkdownWriter.
type MarkdownOption func(*MarkdownWriter)

// WithMarkdownTitle sets the report heading.
func WithMarkdownTitle(title string) MarkdownOption {
	return func(w *MarkdownWriter) {
		if title != "" {
			w.doc.title = title
		}
	}
}

// WithMarkdownFailureMessages includes the failure text of every failed test.
func WithMarkdownFailureMessages(include bool) MarkdownOption {
	return func(w *MarkdownWriter) {
		w.doc.failureMessages = include
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		doc: document{
			title:           DefaultTitle,
			failureMessages: true,
			alerts:          true,
			chart:           true,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	w.doc.build(md, run)
	return len(md.String()), md.Build()
}

// document lays out the Markdown shared by the Markdown and HTML reports.
type document struct {
	title           string
	failureMessages bool
	// alerts renders GitHub alert blocks; plain renderers show them as quotes.
	alerts bool
	// chart renders a mermaid pie chart of violations per impact.
	chart bool
}

func (d document) build(md *markdown.Markdown, run *model.RunReport) {
	d.writeHeader(md, run)
	d.writeImpactSummary(md, run)
	d.writeResults(md, run)
	d.writeViolations(md, run)
	if d.failureMessages {
		d.writeFailureMessages(md, run)
	}
	d.writeFooter(md)
}

// writeHeader writes the title and the run totals.
func (d document) writeHeader(md *markdown.Markdown, run *model.RunReport) {
	md.H1(d.title)
	md.PlainText("")

	passed := len(run.Outcomes) - run.FailedCount()
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Started", formatTime(run.StartedAt)},
			{"Finished", formatTime(run.FinishedAt)},
			{"Tests", strconv.Itoa(len(run.Outcomes))},
			{"Passed", strconv.Itoa(passed)},
			{"Failed", strconv.Itoa(run.FailedCount())},
			{"Violations", strconv.Itoa(run.ViolationCount())},
		},
	})
	md.PlainText("")
}

// writeImpactSummary writes violation counts per impact level.
func (d document) writeImpactSummary(md *markdown.Markdown, run *model.RunReport) {
	md.H2("Impact Summary")
	md.PlainText("")

	counts := impactCounts(run)
	rows := make([][]string, 0, len(model.Impacts())+1)
	for _, impact := range model.Impacts() {
		rows = append(rows, []string{impactLabel(impact), strconv.Itoa(counts[impact])})
	}
	if n := counts[model.ImpactNone]; n > 0 {
		rows = append(rows, []string{impactLabel(model.ImpactNone), strconv.Itoa(n)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(run.ViolationCount()) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Impact", "Violations"},
		Rows:   rows,
	})
	md.PlainText("")

	if d.chart && run.ViolationCount() > 0 {
		d.writePieChart(md, counts)
	}
	if d.alerts {
		d.writeAlert(md, run, counts)
	}
}

// writePieChart writes a mermaid pie chart of the impact distribution.
func (d document) writePieChart(md *markdown.Markdown, counts map[model.Impact]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Violations by Impact"),
		piechart.WithShowData(true),
	)
	for _, impact := range model.Impacts() {
		if counts[impact] > 0 {
			chart.LabelAndIntValue(impactLabel(impact), uint64(counts[impact])) //nolint:gosec // counts are never negative
		}
	}
	if counts[model.ImpactNone] > 0 {
		chart.LabelAndIntValue(impactLabel(model.ImpactNone), uint64(counts[model.ImpactNone])) //nolint:gosec // counts are never negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert keyed on the most severe impact found.
func (d document) writeAlert(md *markdown.Markdown, run *model.RunReport, counts map[model.Impact]int) {
	switch {
	case counts[model.ImpactCritical] > 0:
		md.Cautionf("%d critical violation(s) block users of assistive technology.", counts[model.ImpactCritical])
	case counts[model.ImpactSerious] > 0:
		md.Warningf("%d serious violation(s) should be fixed before release.", counts[model.ImpactSerious])
	case counts[model.ImpactModerate] > 0:
		md.Importantf("%d moderate violation(s) found.", counts[model.ImpactModerate])
	case run.ViolationCount() > 0:
		md.Note("Only minor violations detected.")
	case run.FailedCount() > 0:
		md.Warningf("%d test(s) failed before a scan could complete.", run.FailedCount())
	default:
		md.Tip("No accessibility violations detected.")
	}
	md.PlainText("")
}

// writeResults writes one row per test outcome.
func (d document) writeResults(md *markdown.Markdown, run *model.RunReport) {
	md.H2("Results")
	md.PlainText("")

	if len(run.Outcomes) == 0 {
		md.PlainText("No targets were tested.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Outcomes))
	for i, o := range run.Outcomes {
		violations := "-"
		if res := run.ResultFor(o.URL); res != nil {
			violations = strconv.Itoa(len(res.Violations))
		}
		rows[i] = []string{
			cell(o.Title),
			statusText(o),
			violations,
			o.Duration.Round(time.Millisecond).String(),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Test", "Status", "Violations", "Duration"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeViolations writes the violations of every scanned target.
func (d document) writeViolations(md *markdown.Markdown, run *model.RunReport) {
	md.H2("Violations")
	md.PlainText("")

	if run.ViolationCount() == 0 {
		md.PlainText("No violations detected.")
		md.PlainText("")
		return
	}

	for _, res := range run.Results {
		if !res.HasViolations() {
			continue
		}
		md.H3(cell(res.URL))
		md.PlainText("")

		rows := make([][]string, len(res.Violations))
		for i, v := range res.Violations {
			rule := cell(v.RuleID)
			if v.HelpURL != "" {
				rule = "[" + rule + "](" + v.HelpURL + ")"
			}
			rows[i] = []string{
				rule,
				impactLabel(v.Impact),
				cell(v.Description),
				cell(strings.Join(v.Elements, ", ")),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Rule", "Impact", "Description", "Elements"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFailureMessages writes the failure text of every failed test.
func (d document) writeFailureMessages(md *markdown.Markdown, run *model.RunReport) {
	if run.FailedCount() == 0 {
		return
	}

	md.H2("Failure Messages")
	md.PlainText("")
	for _, o := range run.Outcomes {
		if !o.Failed() || len(o.FailureMessages) == 0 {
			continue
		}
		md.H3(cell(o.Title))
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightText, strings.Join(o.FailureMessages, "\n"))
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (d document) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [wcagscan](https://github.com/nao1215/wcagscan)*")
}

func impactCounts(run *model.RunReport) map[model.Impact]int {
	counts := make(map[model.Impact]int)
	for _, res := range run.Results {
		for impact, n := range res.CountByImpact() {
			counts[impact] += n
		}
	}
	return counts
}

// impactLabel renders an impact for display ("serious" -> "Serious").
// A Caser keeps state, so one is built per call.
func impactLabel(impact model.Impact) string {
	if !impact.Present() {
		return "Unspecified"
	}
	return cases.Title(language.English).String(string(impact))
}

func statusText(o model.TestOutcome) string {
	if o.Failed() {
		return "❌ Failed"
	}
	return "✅ Passed"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

// cell escapes engine-provided text for a Markdown table cell. Rule
// descriptions routinely name HTML elements ("<img>") that must stay text.
func cell(s string) string {
	s = html.EscapeString(s)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
