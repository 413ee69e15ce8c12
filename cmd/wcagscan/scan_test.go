package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pterm/pterm"

	"github.com/nao1215/wcagscan/internal/config"
	"github.com/nao1215/wcagscan/internal/junit"
	"github.com/nao1215/wcagscan/internal/model"
	"github.com/nao1215/wcagscan/internal/report"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

// writeFile creates a file with content in a temporary directory.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func targetURLs(cfg *config.Config) []string {
	urls := make([]string, len(cfg.Targets))
	for i, target := range cfg.Targets {
		urls[i] = target.URL
	}
	return urls
}

// TestBuildConfig tests how defaults, the config file, the environment, the
// dotenv file and flags are layered.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	const fileContent = `
timeouts:
  target: 45s
login:
  usernameField: '#user'
axe:
  scriptURL: https://cdn.test/axe.js
html:
  theme: darkTheme
history:
  enabled: false
`

	t.Run("environment supplies targets and credentials", func(t *testing.T) {
		t.Parallel()

		configPath := writeFile(t, "wcagscan.yaml", fileContent)
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"--config", configPath}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{
			"TEST_SITE_URLS=https://a.test, https://b.test",
			"TEST_USERNAME=alice",
			"TEST_PASSWORD=secret",
			"TEST_HEADLESS=false",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]string{"https://a.test", "https://b.test"}, targetURLs(cfg)); diff != "" {
			t.Errorf("targets mismatch (-want +got):\n%s", diff)
		}
		if cfg.Credentials == nil {
			t.Fatal("expected credentials")
		}
		if cfg.Credentials.UsernameSelector != "#user" {
			t.Errorf("UsernameSelector = %q, want file value", cfg.Credentials.UsernameSelector)
		}
		if cfg.Headless {
			t.Error("expected headless to be disabled by the environment")
		}
		if cfg.TargetTimeout != 45*time.Second {
			t.Errorf("TargetTimeout = %v, want 45s from file", cfg.TargetTimeout)
		}
		if cfg.AxeScriptURL != "https://cdn.test/axe.js" {
			t.Errorf("AxeScriptURL = %q", cfg.AxeScriptURL)
		}
		if cfg.HTMLTheme != "darkTheme" {
			t.Errorf("HTMLTheme = %q", cfg.HTMLTheme)
		}
		if cfg.SaveToDB {
			t.Error("expected history to be disabled by the file")
		}
	})

	t.Run("process environment wins over env file", func(t *testing.T) {
		t.Parallel()

		configPath := writeFile(t, "wcagscan.yaml", fileContent)
		envPath := writeFile(t, ".env", "TEST_SITE_URLS=https://file.test\nTEST_HEADLESS=false\n")
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"--config", configPath, "--env-file", envPath}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"TEST_SITE_URLS=https://proc.test"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]string{"https://proc.test"}, targetURLs(cfg)); diff != "" {
			t.Errorf("targets mismatch (-want +got):\n%s", diff)
		}
		if cfg.Headless {
			t.Error("expected TEST_HEADLESS from the env file")
		}
		if cfg.Credentials != nil {
			t.Error("expected no credentials")
		}
	})

	t.Run("flags win over file and environment", func(t *testing.T) {
		t.Parallel()

		configPath := writeFile(t, "wcagscan.yaml", fileContent)
		cmd := NewScanCmd()
		err := cmd.ParseFlags([]string{
			"--config", configPath,
			"--url", "https://flag.test",
			"--url", "https://flag.test/about",
			"--headless=true",
			"--target-timeout", "5s",
			"--axe-script", "./axe.min.js",
			"--chrome-path", "/opt/chrome",
			"--json-output", "out/run.json",
			"--no-html",
		})
		if err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{
			"TEST_SITE_URLS=https://env.test",
			"TEST_HEADLESS=false",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]string{"https://flag.test", "https://flag.test/about"}, targetURLs(cfg)); diff != "" {
			t.Errorf("targets mismatch (-want +got):\n%s", diff)
		}
		if !cfg.Headless {
			t.Error("expected --headless to win over TEST_HEADLESS")
		}
		if cfg.TargetTimeout != 5*time.Second {
			t.Errorf("TargetTimeout = %v, want 5s", cfg.TargetTimeout)
		}
		if cfg.AxeScriptPath != "./axe.min.js" || cfg.AxeScriptURL != "" {
			t.Errorf("axe source = %q / %q, want path only", cfg.AxeScriptPath, cfg.AxeScriptURL)
		}
		if cfg.BrowserExecPath != "/opt/chrome" {
			t.Errorf("BrowserExecPath = %q", cfg.BrowserExecPath)
		}
		if cfg.JSONOutput != "out/run.json" {
			t.Errorf("JSONOutput = %q", cfg.JSONOutput)
		}
		if cfg.HTMLOutput != "" {
			t.Errorf("HTMLOutput = %q, want disabled", cfg.HTMLOutput)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})

	t.Run("both axe sources on the command line conflict", func(t *testing.T) {
		t.Parallel()

		configPath := writeFile(t, "wcagscan.yaml", fileContent)
		cmd := NewScanCmd()
		err := cmd.ParseFlags([]string{
			"--config", configPath,
			"--axe-script", "./axe.min.js",
			"--axe-script-url", "https://cdn.test/axe.js",
		})
		if err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := cfg.Validate(); !errors.Is(err, config.ErrConflictingScriptSource) {
			t.Errorf("expected ErrConflictingScriptSource, got %v", err)
		}
	})

	t.Run("unset flags keep defaults", func(t *testing.T) {
		t.Parallel()

		configPath := writeFile(t, "wcagscan.yaml", "{}\n")
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"--config", configPath}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]string{config.DefaultTargetURL}, targetURLs(cfg)); diff != "" {
			t.Errorf("targets mismatch (-want +got):\n%s", diff)
		}
		if cfg.JUnitOutput != config.DefaultJUnitOutput || cfg.HTMLOutput != config.DefaultHTMLOutput {
			t.Errorf("outputs = %q, %q", cfg.JUnitOutput, cfg.HTMLOutput)
		}
		if !cfg.SaveToDB {
			t.Error("expected history enabled by default")
		}
	})

	errTests := []struct {
		name    string
		args    func(t *testing.T) []string
		environ []string
		wantErr error
	}{
		{
			name: "explicit config file is missing",
			args: func(t *testing.T) []string {
				return []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}
			},
			wantErr: config.ErrConfigNotFound,
		},
		{
			name: "invalid headless value",
			args: func(t *testing.T) []string {
				return []string{"--config", writeFile(t, "wcagscan.yaml", "{}\n")}
			},
			environ: []string{"TEST_HEADLESS=maybe"},
			wantErr: config.ErrInvalidHeadless,
		},
		{
			name: "non-http target",
			args: func(t *testing.T) []string {
				return []string{"--config", writeFile(t, "wcagscan.yaml", "{}\n"), "--url", "ftp://a.test"}
			},
			wantErr: config.ErrInvalidTargetURL,
		},
		{
			name: "same url flag twice",
			args: func(t *testing.T) []string {
				return []string{"--config", writeFile(t, "wcagscan.yaml", "{}\n"), "--url", "https://a.test", "--url", "https://a.test"}
			},
			wantErr: config.ErrDuplicateTarget,
		},
	}

	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewScanCmd()
			if err := cmd.ParseFlags(tt.args(t)); err != nil {
				t.Fatal(err)
			}

			_, err := buildConfig(cmd, tt.environ)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("explicit env file is missing", func(t *testing.T) {
		t.Parallel()

		cmd := NewScanCmd()
		err := cmd.ParseFlags([]string{
			"--config", writeFile(t, "wcagscan.yaml", "{}\n"),
			"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		})
		if err != nil {
			t.Fatal(err)
		}

		if _, err := buildConfig(cmd, nil); err == nil {
			t.Error("expected error for missing env file")
		}
	})
}

// createTestRun creates a run with one passing and one failing target.
func createTestRun() *model.RunReport {
	started := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	clean := model.NewScanResult("https://a.test")
	clean.ScannedAt = started.Add(time.Second)

	dirty := model.NewScanResult("https://b.test")
	dirty.ScannedAt = started.Add(2 * time.Second)
	dirty.Violations = []model.Finding{
		{RuleID: "image-alt", Description: "Images must have alternate text", Impact: model.ImpactCritical, Elements: []string{"img"}},
	}

	return &model.RunReport{
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Results:    []model.ScanResult{*clean, *dirty},
		Outcomes: []model.TestOutcome{
			{Title: "Check accessibility for https://a.test", URL: "https://a.test", Status: model.StatusPassed},
			{Title: "Check accessibility for https://b.test", URL: "https://b.test", Status: model.StatusFailed, FailureMessages: []string{"1 violation"}},
		},
	}
}

// TestWriteArtifacts tests that every enabled report is written.
func TestWriteArtifacts(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.DiscardHandler)

	t.Run("writes every enabled artifact", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfg := config.NewConfig()
		cfg.JUnitOutput = filepath.Join(dir, "junit.xml")
		cfg.HTMLOutput = filepath.Join(dir, "reports", "report.html")
		cfg.JSONOutput = filepath.Join(dir, "run.json")
		cfg.MarkdownOutput = filepath.Join(dir, "run.md")

		var out strings.Builder
		if err := writeArtifacts(cfg, createTestRun(), report.NewConsoleWriter(&out), logger); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, path := range []string{cfg.JUnitOutput, cfg.HTMLOutput, cfg.JSONOutput, cfg.MarkdownOutput} {
			if _, err := os.Stat(path); err != nil {
				t.Errorf("expected %s to exist: %v", path, err)
			}
			if !strings.Contains(out.String(), "report generated at: "+path) {
				t.Errorf("expected console to announce %s, got %q", path, out.String())
			}
		}

		data, err := os.ReadFile(cfg.JSONOutput)
		if err != nil {
			t.Fatal(err)
		}
		var got report.JSONReport
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON report: %v", err)
		}
		if got.Tests != 2 || got.Failures != 1 || got.Violations != 1 {
			t.Errorf("counters = %d/%d/%d, want 2/1/1", got.Tests, got.Failures, got.Violations)
		}
	})

	t.Run("disabled artifacts are skipped", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		cfg := config.NewConfig()
		cfg.JUnitOutput = filepath.Join(dir, "junit.xml")
		cfg.HTMLOutput = ""

		var out strings.Builder
		if err := writeArtifacts(cfg, createTestRun(), report.NewConsoleWriter(&out), logger); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if !strings.HasPrefix(e.Name(), ".") && e.Name() != "junit.xml" {
				t.Errorf("unexpected file %s", e.Name())
			}
		}
	})

	t.Run("one failed artifact does not stop the others", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		if err := os.WriteFile(blocker, []byte("file"), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg := config.NewConfig()
		cfg.JUnitOutput = filepath.Join(blocker, "junit.xml")
		cfg.HTMLOutput = filepath.Join(dir, "report.html")

		var out strings.Builder
		err := writeArtifacts(cfg, createTestRun(), report.NewConsoleWriter(&out), logger)
		if err == nil {
			t.Fatal("expected error")
		}

		var writeErr *junit.WriteError
		if !errors.As(err, &writeErr) {
			t.Errorf("expected *junit.WriteError, got %T: %v", err, err)
		}
		if _, err := os.Stat(cfg.HTMLOutput); err != nil {
			t.Errorf("expected HTML report despite JUnit failure: %v", err)
		}
		if strings.Contains(out.String(), "JUnit report generated") {
			t.Error("failed artifact must not be announced")
		}
	})
}
