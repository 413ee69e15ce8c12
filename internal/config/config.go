package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/wcagscan/internal/model"
)

// Default configuration values.
const (
	// DefaultTargetTimeout bounds the whole page-open, login and scan
	// sequence of one target. It is the outer bound: every inner wait runs
	// under it and is cut short when it expires.
	DefaultTargetTimeout = 30 * time.Second

	// DefaultLoginFieldTimeout is how long the login step waits for the
	// username field to appear.
	DefaultLoginFieldTimeout = 60 * time.Second

	// DefaultLoginNavigationTimeout is how long the login step waits for
	// navigation to settle after the form is submitted.
	DefaultLoginNavigationTimeout = 60 * time.Second

	// DefaultAxeScriptURL is the axe-core build injected when no local
	// script is configured.
	DefaultAxeScriptURL = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js"

	// DefaultJUnitOutput is the JUnit artifact path.
	DefaultJUnitOutput = "junit-axe-report.xml"

	// DefaultSuiteName is the JUnit test-suite name.
	DefaultSuiteName = "Accessibility Tests (JUnit)"

	// DefaultClassName is the class name applied to every JUnit test case.
	DefaultClassName = "WCAG-Accessibility"

	// DefaultHTMLOutput is the HTML report path.
	DefaultHTMLOutput = "./reports/test-report.html"

	// DefaultHTMLTitle is the HTML report page title.
	DefaultHTMLTitle = "Accessibility Test Report"

	// DefaultHTMLTheme is the HTML report theme.
	DefaultHTMLTheme = "defaultTheme"

	// AppName is the application name used for XDG directory paths.
	AppName = "wcagscan"
)

// HTMLThemes lists the accepted HTML report themes.
var HTMLThemes = []string{"defaultTheme", "darkTheme", "lightTheme"}

// Config holds every tunable of a run. It is built once at startup from
// defaults, the config file, the environment and CLI flags, validated once,
// and then passed down explicitly.
type Config struct {
	// Targets are the pages to scan, in order.
	Targets []model.TargetSite

	// Credentials enables the login step when non-nil.
	Credentials *model.Credentials

	// Headless selects headless browser mode.
	Headless bool

	// BrowserExecPath is the Chrome executable. Empty lets chromedp
	// search the usual install locations.
	BrowserExecPath string

	// TargetTimeout bounds the complete sequence of one target.
	TargetTimeout time.Duration

	// LoginFieldTimeout bounds the wait for the username field.
	LoginFieldTimeout time.Duration

	// LoginNavigationTimeout bounds the wait for post-login navigation.
	LoginNavigationTimeout time.Duration

	// AxeScriptPath is a local axe-core build to inject. Takes precedence
	// over AxeScriptURL when set.
	AxeScriptPath string

	// AxeScriptURL is the axe-core build loaded through a script tag.
	AxeScriptURL string

	// JUnitOutput is where the JUnit XML artifact is written.
	JUnitOutput string

	// SuiteName is the JUnit test-suite name.
	SuiteName string

	// ClassName is applied to every JUnit test case.
	ClassName string

	// HTMLOutput is where the HTML report is written. Empty disables it.
	HTMLOutput string

	// HTMLTitle is the HTML report title.
	HTMLTitle string

	// HTMLTheme is one of HTMLThemes.
	HTMLTheme string

	// HTMLIncludeFailureMsg adds failure messages to the HTML report.
	HTMLIncludeFailureMsg bool

	// JSONOutput is where the JSON run report is written. Empty disables it.
	JSONOutput string

	// MarkdownOutput is where the Markdown run report is written. Empty disables it.
	MarkdownOutput string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the YAML config file, if any.
	ConfigFilePath string

	// EnvFile is the dotenv file merged under the process environment.
	EnvFile string

	// SaveToDB stores the run in the history database.
	SaveToDB bool

	// DBDir is the history database directory.
	DBDir string
}

// NewConfig creates a Config with default values and the default target.
func NewConfig() *Config {
	return &Config{
		Targets:                []model.TargetSite{model.NewTargetSite(DefaultTargetURL)},
		Headless:               DefaultHeadless,
		TargetTimeout:          DefaultTargetTimeout,
		LoginFieldTimeout:      DefaultLoginFieldTimeout,
		LoginNavigationTimeout: DefaultLoginNavigationTimeout,
		AxeScriptURL:           DefaultAxeScriptURL,
		JUnitOutput:            DefaultJUnitOutput,
		SuiteName:              DefaultSuiteName,
		ClassName:              DefaultClassName,
		HTMLOutput:             DefaultHTMLOutput,
		HTMLTitle:              DefaultHTMLTitle,
		HTMLTheme:              DefaultHTMLTheme,
		HTMLIncludeFailureMsg:  true,
		SaveToDB:               true,
		DBDir:                  XDGDataDir(),
	}
}

// ApplyResolved copies resolver output into the config.
func (c *Config) ApplyResolved(r *Resolved) {
	c.Targets = r.Targets
	c.Credentials = r.Credentials
	c.Headless = r.Headless
}

// XDGDataDir returns the XDG data directory for wcagscan.
// On Linux: ~/.local/share/wcagscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for wcagscan.
// On Linux: ~/.config/wcagscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration once, before any target runs.
// It returns the first problem found as a *ConfigError.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return newConfigError("targets", "", ErrNoTarget)
	}
	seen := make(map[string]bool, len(c.Targets))
	for _, t := range c.Targets {
		if err := ValidateTargetURL(t.URL); err != nil {
			return newConfigError("targets", t.URL, err)
		}
		if seen[t.URL] {
			return newConfigError("targets", t.URL, ErrDuplicateTarget)
		}
		seen[t.URL] = true
	}

	timeouts := []struct {
		key string
		d   time.Duration
	}{
		{"target-timeout", c.TargetTimeout},
		{"login-field-timeout", c.LoginFieldTimeout},
		{"login-navigation-timeout", c.LoginNavigationTimeout},
	}
	for _, tt := range timeouts {
		if tt.d <= 0 {
			return newConfigError(tt.key, tt.d.String(), ErrInvalidTimeout)
		}
	}

	if c.JUnitOutput == "" {
		return newConfigError("junit-output", "", ErrNoJUnitOutput)
	}

	if c.HTMLOutput != "" && !slices.Contains(HTMLThemes, c.HTMLTheme) {
		return newConfigError("html-theme", c.HTMLTheme, ErrInvalidTheme)
	}

	if c.AxeScriptPath != "" && c.AxeScriptURL != "" {
		return newConfigError("axe-script", c.AxeScriptPath, ErrConflictingScriptSource)
	}

	return nil
}
