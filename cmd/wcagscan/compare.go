package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nao1215/wcagscan/internal/database"
	"github.com/nao1215/wcagscan/internal/model"
)

// Directions of the change between two runs.
const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the violations of two stored runs",
		Long: `Compare shows which violations appeared and which were fixed between
two runs stored in the history database.

A violation is identified by its page URL and rule. By default the latest
run is compared with the run before it.

Examples:
  # Compare the latest two runs
  wcagscan compare

  # Compare run 3 with the latest run
  wcagscan compare --base 3

  # Compare two specific runs as JSON
  wcagscan compare --base 3 --head 7 --json`,
		Args: cobra.NoArgs,
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64P("base", "b", 0,
		"Run ID to compare from (default: the run before --head)")
	cmd.Flags().Int64P("head", "H", 0,
		"Run ID to compare to (default: the latest run)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison as JSON")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the comparison as Markdown")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, _ []string) error {
	baseID, err := cmd.Flags().GetInt64("base")
	if err != nil {
		return err
	}
	headID, err := cmd.Flags().GetInt64("head")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown cannot be used together")
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	baseID, headID, err = selectRuns(ctx, db, baseID, headID)
	if err != nil {
		return err
	}

	base, err := db.GetRun(ctx, baseID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", baseID, err)
	}
	head, err := db.GetRun(ctx, headID)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", headID, err)
	}

	result := compareRuns(baseID, base, headID, head)

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case markdownOutput:
		return writeComparisonMarkdown(out, result)
	default:
		return writeComparisonText(out, result)
	}
}

// selectRuns fills in unset run IDs: head defaults to the latest run and
// base to the run stored just before head.
func selectRuns(ctx context.Context, db *database.HistoryDB, baseID, headID int64) (int64, int64, error) {
	if baseID > 0 && headID > 0 {
		return baseID, headID, nil
	}

	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		return 0, 0, err
	}
	if len(runs) == 0 {
		return 0, 0, errors.New("no runs stored yet (use 'wcagscan scan' first)")
	}

	if headID == 0 {
		headID = runs[0].ID
	}
	if baseID == 0 {
		for _, run := range runs {
			if run.ID < headID {
				baseID = run.ID
				break
			}
		}
		if baseID == 0 {
			return 0, 0, fmt.Errorf("no run stored before run %d; at least 2 runs are required for comparison", headID)
		}
	}
	return baseID, headID, nil
}

// RunSnapshot summarizes one side of a comparison.
type RunSnapshot struct {
	// ID is the stored run ID.
	ID int64 `json:"id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Tests is the number of attempted targets.
	Tests int `json:"tests"`

	// Failures is the number of failed targets.
	Failures int `json:"failures"`

	// Violations counts violations by impact.
	Violations map[model.Impact]int `json:"violations"`

	// Total is the number of violations.
	Total int `json:"total"`
}

// ViolationChange is one violation that appeared or was fixed.
type ViolationChange struct {
	URL         string       `json:"url"`
	Rule        string       `json:"rule"`
	Impact      model.Impact `json:"impact,omitempty"`
	Description string       `json:"description"`
	Elements    int          `json:"elements"`
}

// Comparison is the difference between two stored runs.
type Comparison struct {
	Base      RunSnapshot       `json:"base"`
	Head      RunSnapshot       `json:"head"`
	New       []ViolationChange `json:"new,omitempty"`
	Resolved  []ViolationChange `json:"resolved,omitempty"`
	Unchanged int               `json:"unchanged"`

	// Direction is "improved", "worsened" or "unchanged".
	Direction string `json:"direction"`
}

// compareRuns diffs the violations of two runs by page URL and rule.
func compareRuns(baseID int64, base *model.RunReport, headID int64, head *model.RunReport) *Comparison {
	baseViolations := violationIndex(base)
	headViolations := violationIndex(head)

	result := &Comparison{
		Base: snapshot(baseID, base),
		Head: snapshot(headID, head),
	}

	for key, change := range headViolations {
		if _, ok := baseViolations[key]; !ok {
			result.New = append(result.New, change)
		}
	}
	for key, change := range baseViolations {
		if _, ok := headViolations[key]; ok {
			result.Unchanged++
			continue
		}
		result.Resolved = append(result.Resolved, change)
	}
	sortChanges(result.New)
	sortChanges(result.Resolved)

	result.Direction = direction(result.Base, result.Head)
	return result
}

func violationIndex(run *model.RunReport) map[string]ViolationChange {
	index := make(map[string]ViolationChange)
	for _, result := range run.Results {
		for _, v := range result.Violations {
			index[result.URL+"|"+v.RuleID] = ViolationChange{
				URL:         result.URL,
				Rule:        v.RuleID,
				Impact:      v.Impact,
				Description: v.Description,
				Elements:    len(v.Elements),
			}
		}
	}
	return index
}

func snapshot(id int64, run *model.RunReport) RunSnapshot {
	s := RunSnapshot{
		ID:         id,
		StartedAt:  run.StartedAt,
		Tests:      len(run.Outcomes),
		Failures:   run.FailedCount(),
		Violations: make(map[model.Impact]int),
	}
	for _, result := range run.Results {
		for impact, n := range result.CountByImpact() {
			s.Violations[impact] += n
			s.Total += n
		}
	}
	return s
}

// sortChanges orders changes by URL, then most severe first, then rule.
func sortChanges(changes []ViolationChange) {
	sort.Slice(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.URL != b.URL {
			return a.URL < b.URL
		}
		if a.Impact.Rank() != b.Impact.Rank() {
			return a.Impact.Rank() > b.Impact.Rank()
		}
		return a.Rule < b.Rule
	})
}

// direction weighs violations by impact so that one fixed critical issue
// outweighs one new minor issue.
func direction(base, head RunSnapshot) string {
	score := func(s RunSnapshot) int {
		total := 0
		for impact, n := range s.Violations {
			total += n * (impact.Rank() + 1)
		}
		return total
	}

	switch b, h := score(base), score(head); {
	case h < b:
		return directionImproved
	case h > b:
		return directionWorsened
	default:
		return directionUnchanged
	}
}

func formatDirection(d string) string {
	switch d {
	case directionImproved:
		return pterm.Green("IMPROVED (fewer or less severe violations)")
	case directionWorsened:
		return pterm.Red("WORSENED (more or more severe violations)")
	default:
		return "UNCHANGED"
	}
}

func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

// impactRows returns one row per impact level plus a total row.
func impactRows(c *Comparison) [][]string {
	var rows [][]string
	for _, impact := range model.Impacts() {
		b, h := c.Base.Violations[impact], c.Head.Violations[impact]
		rows = append(rows, []string{impact.String(), strconv.Itoa(b), strconv.Itoa(h), formatDelta(h - b)})
	}
	rows = append(rows, []string{"total",
		strconv.Itoa(c.Base.Total), strconv.Itoa(c.Head.Total), formatDelta(c.Head.Total - c.Base.Total)})
	return rows
}

// writeComparisonText prints the comparison as terminal tables.
func writeComparisonText(out io.Writer, c *Comparison) error {
	fmt.Fprintf(out, "Run Comparison: #%d → #%d\n", c.Base.ID, c.Head.ID)
	fmt.Fprintf(out, "\nStatus: %s\n", formatDirection(c.Direction))
	fmt.Fprintf(out, "\nBase run: %s (%d tests, %d failed)\n",
		c.Base.StartedAt.Local().Format(historyTimeFormat), c.Base.Tests, c.Base.Failures)
	fmt.Fprintf(out, "Head run: %s (%d tests, %d failed)\n\n",
		c.Head.StartedAt.Local().Format(historyTimeFormat), c.Head.Tests, c.Head.Failures)

	data := pterm.TableData{{"Impact", "Base", "Head", "Change"}}
	data = append(data, impactRows(c)...)
	if err := renderTable(out, data); err != nil {
		return err
	}

	if len(c.New) > 0 {
		fmt.Fprintf(out, "\nNew Violations (%d):\n", len(c.New))
		if err := renderTable(out, changeTable(c.New)); err != nil {
			return err
		}
	}
	if len(c.Resolved) > 0 {
		fmt.Fprintf(out, "\nResolved Violations (%d):\n", len(c.Resolved))
		if err := renderTable(out, changeTable(c.Resolved)); err != nil {
			return err
		}
	}
	if c.Unchanged > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d violations\n", c.Unchanged)
	}
	return nil
}

func changeTable(changes []ViolationChange) pterm.TableData {
	data := pterm.TableData{{"URL", "Rule", "Impact", "Elements"}}
	for _, ch := range changes {
		data = append(data, []string{ch.URL, ch.Rule, ch.Impact.String(), strconv.Itoa(ch.Elements)})
	}
	return data
}

// writeComparisonMarkdown renders the comparison as a Markdown document.
func writeComparisonMarkdown(out io.Writer, c *Comparison) error {
	md := markdown.NewMarkdown(out).
		H1f("Run Comparison: #%d → #%d", c.Base.ID, c.Head.ID).
		PlainTextf("**Status:** %s", directionLabel(c.Direction)).
		Table(markdown.TableSet{
			Header: []string{"Impact", "Base", "Head", "Change"},
			Rows:   impactRows(c),
		})

	section := func(title string, changes []ViolationChange) {
		if len(changes) == 0 {
			return
		}
		rows := make([][]string, 0, len(changes))
		for _, ch := range changes {
			rows = append(rows, []string{ch.URL, "`" + ch.Rule + "`", ch.Impact.String(), strconv.Itoa(ch.Elements)})
		}
		md.H2f("%s (%d)", title, len(changes)).
			Table(markdown.TableSet{Header: []string{"URL", "Rule", "Impact", "Elements"}, Rows: rows})
	}
	section("New Violations", c.New)
	section("Resolved Violations", c.Resolved)

	if c.Unchanged > 0 {
		md.HorizontalRule().PlainTextf("*%d violations unchanged*", c.Unchanged)
	}
	return md.Build()
}

func directionLabel(d string) string {
	switch d {
	case directionImproved:
		return "IMPROVED"
	case directionWorsened:
		return "WORSENED"
	default:
		return "UNCHANGED"
	}
}
