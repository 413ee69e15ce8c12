package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wcagscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wcagscan",
		Short: "Automated WCAG accessibility testing for web pages",
		Long: `wcagscan opens each target page in a Chrome browser, optionally logs in
through the page's login form, and audits the page with the axe-core rule
engine against the WCAG 2 A and AA rule sets.

Every target becomes one test case: it passes when the page has no
violation. Results are written as a JUnit XML report for CI, an HTML report
and a console summary.

Targets and credentials are read from the environment (TEST_SITE_URLS,
TEST_USERNAME, TEST_PASSWORD, ...) or from a .env file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
