package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/wcagscan/internal/aggregate"
	"github.com/nao1215/wcagscan/internal/browser"
	"github.com/nao1215/wcagscan/internal/config"
	"github.com/nao1215/wcagscan/internal/database"
	wlog "github.com/nao1215/wcagscan/internal/log"
	"github.com/nao1215/wcagscan/internal/login"
	"github.com/nao1215/wcagscan/internal/model"
	"github.com/nao1215/wcagscan/internal/pipeline"
	"github.com/nao1215/wcagscan/internal/report"
	"github.com/nao1215/wcagscan/internal/scanner"
)

// defaultEnvFile is read when present; --env-file makes it mandatory.
const defaultEnvFile = ".env"

// historySaveTimeout bounds storing a run, even after cancellation.
const historySaveTimeout = 10 * time.Second

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan web pages for WCAG accessibility violations",
		Long: `Scan opens every target page in Chrome and audits it with axe-core
against the WCAG 2 A and AA rules.

Targets are read from TEST_SITE_URLS (comma-separated) or --url. When
TEST_USERNAME and TEST_PASSWORD are both set, pages that show a login form
are logged in to before the audit.

Each target is one test: it passes when no violation is found. The command
exits non-zero when any test fails or any report cannot be written.

Examples:
  # Scan the pages listed in TEST_SITE_URLS (or .env)
  wcagscan scan

  # Scan explicit pages with a visible browser
  wcagscan scan --url https://example.com --url https://example.com/about --headless=false

  # Use a local axe-core build and write a JSON run report
  wcagscan scan --axe-script ./vendor/axe.min.js --json-output reports/run.json

Environment:
  TEST_SITE_URLS        comma-separated target URLs
  TEST_USERNAME         login username
  TEST_PASSWORD         login password
  TEST_USERNAME_FIELD   CSS selector of the username input
  TEST_PASSWORD_FIELD   CSS selector of the password input
  TEST_SUBMIT_BUTTON    CSS selector of the submit control
  TEST_HEADLESS         run Chrome headless (default true)`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Target and input flags
	cmd.Flags().StringSliceP("url", "u", nil,
		"Target URL (repeatable; overrides TEST_SITE_URLS)")
	cmd.Flags().String("env-file", defaultEnvFile,
		"dotenv file merged under the process environment")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wcagscan in current or home directory)")

	// Browser flags
	cmd.Flags().Bool("headless", config.DefaultHeadless,
		"Run Chrome headless (overrides TEST_HEADLESS)")
	cmd.Flags().String("chrome-path", "",
		"Chrome executable (default: search the usual install locations)")

	// Timeout flags
	cmd.Flags().DurationP("target-timeout", "t", config.DefaultTargetTimeout,
		"Upper bound for opening, logging in to and scanning one target")
	cmd.Flags().Duration("login-field-timeout", config.DefaultLoginFieldTimeout,
		"How long to wait for the username field")
	cmd.Flags().Duration("login-navigation-timeout", config.DefaultLoginNavigationTimeout,
		"How long to wait for navigation after submitting the login form")

	// Rule engine flags
	cmd.Flags().String("axe-script", "",
		"Local axe-core build to inject")
	cmd.Flags().String("axe-script-url", config.DefaultAxeScriptURL,
		"axe-core build loaded through a script tag")

	// Report flags
	cmd.Flags().StringP("junit-output", "o", config.DefaultJUnitOutput,
		"JUnit XML report path")
	cmd.Flags().String("suite-name", config.DefaultSuiteName,
		"JUnit test-suite name")
	cmd.Flags().String("class-name", config.DefaultClassName,
		"JUnit class name of every test case")
	cmd.Flags().String("html-output", config.DefaultHTMLOutput,
		"HTML report path")
	cmd.Flags().Bool("no-html", false,
		"Do not write the HTML report")
	cmd.Flags().String("html-title", config.DefaultHTMLTitle,
		"HTML report title")
	cmd.Flags().String("html-theme", config.DefaultHTMLTheme,
		"HTML report theme: "+strings.Join(config.HTMLThemes, ", "))
	cmd.Flags().Bool("html-include-failure-msg", true,
		"Include failure messages in the HTML report")
	cmd.Flags().String("json-output", "",
		"Also write the run as JSON to this path")
	cmd.Flags().String("markdown-output", "",
		"Also write the run as Markdown to this path")
	cmd.Flags().Bool("hide-passes", false,
		"List only violated rules in the per-target tables")

	// Logging and history flags
	cmd.Flags().Bool("json-log", false,
		"Write logs as JSON")
	cmd.Flags().Bool("no-history", false,
		"Do not store the run in the history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd, os.Environ())
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	jsonLog, err := cmd.Flags().GetBool("json-log")
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, jsonLog)
	slog.SetDefault(logger)

	hidePasses, err := cmd.Flags().GetBool("hide-passes")
	if err != nil {
		return err
	}
	console := report.NewConsoleWriter(cmd.OutOrStdout(), report.WithShowPasses(!hidePasses))

	// Set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, console, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig layers defaults, the config file, the environment (with the
// dotenv file beneath it) and the command flags, in that order.
func buildConfig(cmd *cobra.Command, environ []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	var file *config.File
	if configPath := config.FindConfigFile(cfg.ConfigFilePath); configPath != "" {
		file, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.EnvFile, err = flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	values, err := config.LoadEnvFile(cfg.EnvFile, config.EnvironMap(environ), !flags.Changed("env-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load env file %s: %w", cfg.EnvFile, err)
	}
	if file != nil {
		file.FillDefaults(values)
	}

	if flags.Changed("url") {
		urls, err := flags.GetStringSlice("url")
		if err != nil {
			return nil, err
		}
		values[config.EnvSiteURLs] = strings.Join(urls, ",")
	}

	resolved, err := config.Resolve(values)
	if err != nil {
		return nil, err
	}
	cfg.ApplyResolved(resolved)

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// applyFlags copies every explicitly set flag onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	setters := []error{
		boolFlag(cmd, "headless", &cfg.Headless),
		stringFlag(cmd, "chrome-path", &cfg.BrowserExecPath),
		durationFlag(cmd, "target-timeout", &cfg.TargetTimeout),
		durationFlag(cmd, "login-field-timeout", &cfg.LoginFieldTimeout),
		durationFlag(cmd, "login-navigation-timeout", &cfg.LoginNavigationTimeout),
		stringFlag(cmd, "junit-output", &cfg.JUnitOutput),
		stringFlag(cmd, "suite-name", &cfg.SuiteName),
		stringFlag(cmd, "class-name", &cfg.ClassName),
		stringFlag(cmd, "html-output", &cfg.HTMLOutput),
		stringFlag(cmd, "html-title", &cfg.HTMLTitle),
		stringFlag(cmd, "html-theme", &cfg.HTMLTheme),
		boolFlag(cmd, "html-include-failure-msg", &cfg.HTMLIncludeFailureMsg),
		stringFlag(cmd, "json-output", &cfg.JSONOutput),
		stringFlag(cmd, "markdown-output", &cfg.MarkdownOutput),
	}
	if err := errors.Join(setters...); err != nil {
		return err
	}

	// A script path given on the command line replaces any URL from the
	// defaults or the file, unless a URL is given on the command line too.
	if flags.Changed("axe-script") {
		if err := stringFlag(cmd, "axe-script", &cfg.AxeScriptPath); err != nil {
			return err
		}
		if !flags.Changed("axe-script-url") {
			cfg.AxeScriptURL = ""
		}
	}
	if flags.Changed("axe-script-url") {
		if err := stringFlag(cmd, "axe-script-url", &cfg.AxeScriptURL); err != nil {
			return err
		}
		if !flags.Changed("axe-script") {
			cfg.AxeScriptPath = ""
		}
	}

	noHTML, err := flags.GetBool("no-html")
	if err != nil {
		return err
	}
	if noHTML {
		cfg.HTMLOutput = ""
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return err
	}
	if noHistory {
		cfg.SaveToDB = false
	}
	return nil
}

func stringFlag(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func boolFlag(cmd *cobra.Command, name string, dst *bool) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func durationFlag(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// setupLogger creates a structured logger that never prints the configured
// credentials.
func setupLogger(cfg *config.Config, jsonLog bool) *slog.Logger {
	var secrets []string
	if cfg.Credentials != nil {
		secrets = append(secrets, cfg.Credentials.Password, cfg.Credentials.Username)
	}
	if jsonLog {
		return wlog.NewSecureJSONLogger(os.Stderr, cfg.Verbose, wlog.WithSecrets(secrets...))
	}
	return wlog.NewSecureLogger(os.Stderr, cfg.Verbose, wlog.WithSecrets(secrets...))
}

// newInjector selects the axe-core source.
func newInjector(cfg *config.Config) (*scanner.ScriptInjector, error) {
	if cfg.AxeScriptPath != "" {
		return scanner.NewFileInjector(cfg.AxeScriptPath)
	}
	return scanner.NewURLInjector(cfg.AxeScriptURL), nil
}

// runScan executes a validated configuration: one browser session, one
// pipeline per target, then the reports.
func runScan(ctx context.Context, cfg *config.Config, console *report.ConsoleWriter, logger *slog.Logger) error {
	injector, err := newInjector(cfg)
	if err != nil {
		return err
	}

	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"headless", cfg.Headless,
		"login", cfg.Credentials != nil,
		"axe", injector.Source(),
	)

	session := browser.NewSession(
		browser.WithLogger(logger),
		browser.WithExecPath(cfg.BrowserExecPath),
	)
	if err := session.Start(ctx, cfg.Headless); err != nil {
		return err
	}
	defer stopSession(session, logger)

	results := aggregate.NewReport(len(cfg.Targets))
	automator := login.New(cfg.Credentials,
		login.WithFieldTimeout(cfg.LoginFieldTimeout),
		login.WithNavigationTimeout(cfg.LoginNavigationTimeout),
		login.WithLogger(logger),
	)
	sc := scanner.New(injector, scanner.WithLogger(logger))

	runner := pipeline.NewRunner(
		session,
		func() *pipeline.Pipeline {
			p := pipeline.New(pipeline.WithLogger(logger))
			p.AddSteps(pipeline.DefaultSteps(automator, sc, results, logger)...)
			return p
		},
		results,
		pipeline.WithRunnerLogger(logger),
		pipeline.WithTargetTimeout(cfg.TargetTimeout),
		pipeline.WithOnStart(func(target model.TargetSite, index, total int) {
			consoleErr(logger, console.TargetStarted(target, index, total))
		}),
		pipeline.WithOnFinish(func(run *pipeline.TargetRun, outcome model.TestOutcome) {
			switch {
			case run.Result != nil:
				consoleErr(logger, console.TargetResults(run.Result))
			case outcome.Failed():
				consoleErr(logger, console.TargetFailed(outcome))
			}
		}),
	)

	run, runErr := runner.Run(ctx, cfg.Targets)

	consoleErr(logger, console.WriteSummary(results.Summarize()))
	_, err = console.Write(run)
	consoleErr(logger, err)

	stopSession(session, logger)

	reportErr := writeArtifacts(cfg, run, console, logger)
	saveHistory(ctx, cfg, run, logger)

	if runErr != nil {
		return errors.Join(fmt.Errorf("scan interrupted: %w", runErr), reportErr)
	}
	if reportErr != nil {
		return reportErr
	}
	if failed := run.FailedCount(); failed > 0 {
		return fmt.Errorf("%d of %d accessibility tests failed", failed, len(run.Outcomes))
	}
	return nil
}

// stopSession closes the browser. It is safe to call more than once.
func stopSession(session *browser.Session, logger *slog.Logger) {
	if err := session.Stop(); err != nil {
		logger.Error("failed to stop browser", "error", err)
	}
}

// saveHistory stores the run when history is enabled. A failure is logged
// and does not affect the exit status.
func saveHistory(ctx context.Context, cfg *config.Config, run *model.RunReport, logger *slog.Logger) {
	if !cfg.SaveToDB || len(run.Outcomes) == 0 {
		return
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open history database", "dir", cfg.DBDir, "error", err)
		return
	}
	defer db.Close()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historySaveTimeout)
	defer cancel()

	id, err := db.SaveRun(saveCtx, run)
	if err != nil {
		logger.Warn("failed to save run history", "error", err)
		return
	}
	logger.Info("run saved to history", "id", id, "path", db.Path())
}

func consoleErr(logger *slog.Logger, err error) {
	if err != nil {
		logger.Warn("failed to write console output", "error", err)
	}
}

