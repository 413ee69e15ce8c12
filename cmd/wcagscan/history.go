package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nao1215/wcagscan/internal/config"
	"github.com/nao1215/wcagscan/internal/database"
	"github.com/nao1215/wcagscan/internal/model"
)

// historyTimeFormat is used for every timestamp in history tables.
const historyTimeFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show stored runs or the history of one page",
		Long: `History lists the runs stored by 'wcagscan scan'.

Without an argument it prints one line per run, newest first. With a URL it
prints the result of that page in every run that tested it.

Examples:
  # List the ten most recent runs
  wcagscan history -n 10

  # Show how one page evolved
  wcagscan history https://example.com/about

  # List every page that was ever tested
  wcagscan history --targets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().Bool("targets", false,
		"List every tested URL")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	listTargets, err := cmd.Flags().GetBool("targets")
	if err != nil {
		return err
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
	out := cmd.OutOrStdout()

	switch {
	case listTargets:
		return printTargets(ctx, out, db)
	case len(args) == 1:
		return printTargetHistory(ctx, out, db, args[0])
	default:
		return printRuns(ctx, out, db, limit)
	}
}

// openHistory opens the existing history database named by --db-dir.
func openHistory(cmd *cobra.Command) (*database.HistoryDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database in %s (run 'wcagscan scan' first): %w", dbDir, err)
	}
	return db, nil
}

// printRuns prints stored runs, newest first.
func printRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, limit int) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs stored yet.")
		fmt.Fprintln(out, "\nUse 'wcagscan scan' to run the accessibility tests.")
		return nil
	}

	data := pterm.TableData{{"ID", "Started", "Duration", "Tests", "Failed", "Violations"}}
	for _, run := range runs {
		data = append(data, []string{
			strconv.FormatInt(run.ID, 10),
			run.StartedAt.Local().Format(historyTimeFormat),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
			strconv.Itoa(run.Tests),
			strconv.Itoa(run.Failures),
			strconv.Itoa(run.Violations),
		})
	}

	fmt.Fprintf(out, "Stored runs (%d):\n", len(runs))
	if err := renderTable(out, data); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nUse 'wcagscan compare' to compare the latest two runs.")
	return nil
}

// printTargets prints every URL with stored results.
func printTargets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	urls, err := db.ListTargets(ctx)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintln(out, "No tested pages found in the history database.")
		return nil
	}

	fmt.Fprintf(out, "Tested pages (%d):\n\n", len(urls))
	for _, url := range urls {
		fmt.Fprintf(out, "  • %s\n", url)
	}
	fmt.Fprintln(out, "\nUse 'wcagscan history <url>' to see the history of a page.")
	return nil
}

// printTargetHistory prints every stored record of url.
func printTargetHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, url string) error {
	records, err := db.TargetHistory(ctx, url)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "No history found for %s\n", url)
		return nil
	}

	data := pterm.TableData{{"Run", "Tested", "Status", "Violations", "Impacts"}}
	for _, r := range records {
		data = append(data, []string{
			strconv.FormatInt(r.RunID, 10),
			r.TestedAt.Local().Format(historyTimeFormat),
			string(r.Status),
			strconv.Itoa(r.Violations),
			formatImpactSummary(r.ImpactSummary),
		})
	}

	fmt.Fprintf(out, "History for %s (%d runs):\n", url, len(records))
	return renderTable(out, data)
}

// formatImpactSummary renders counts as "critical:2 serious:1", most severe
// first. Impacts outside the known levels follow in name order.
func formatImpactSummary(summary map[string]int) string {
	if len(summary) == 0 {
		return "-"
	}

	var parts []string
	seen := make(map[string]bool, len(summary))
	for _, impact := range model.Impacts() {
		key := impact.String()
		seen[key] = true
		if n := summary[key]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", key, n))
		}
	}

	var rest []string
	for key, n := range summary {
		if !seen[key] && n > 0 {
			rest = append(rest, fmt.Sprintf("%s:%d", key, n))
		}
	}
	sort.Strings(rest)
	parts = append(parts, rest...)

	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// renderTable prints a boxed table with a header row.
func renderTable(out io.Writer, data pterm.TableData) error {
	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, table)
	return err
}
