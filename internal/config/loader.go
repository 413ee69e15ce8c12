package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".wcagscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .wcagscan configuration file.
// Targets and credentials are not part of the file: they come from the
// environment so that secrets stay out of version control.
type File struct {
	Browser  BrowserFile  `yaml:"browser,omitempty"`
	Timeouts TimeoutsFile `yaml:"timeouts,omitempty"`
	Login    LoginFile    `yaml:"login,omitempty"`
	Axe      AxeFile      `yaml:"axe,omitempty"`
	JUnit    JUnitFile    `yaml:"junit,omitempty"`
	HTML     HTMLFile     `yaml:"html,omitempty"`
	History  HistoryFile  `yaml:"history,omitempty"`
}

// BrowserFile configures the browser process.
type BrowserFile struct {
	ExecPath string `yaml:"execPath,omitempty"`
}

// TimeoutsFile holds timeout overrides. Zero means "keep the default".
type TimeoutsFile struct {
	Target          time.Duration `yaml:"target,omitempty"`
	LoginField      time.Duration `yaml:"loginField,omitempty"`
	LoginNavigation time.Duration `yaml:"loginNavigation,omitempty"`
}

// LoginFile holds login form selectors. Environment values win over these.
type LoginFile struct {
	UsernameField string `yaml:"usernameField,omitempty"`
	PasswordField string `yaml:"passwordField,omitempty"`
	SubmitButton  string `yaml:"submitButton,omitempty"`
}

// AxeFile selects the axe-core payload.
type AxeFile struct {
	ScriptPath string `yaml:"scriptPath,omitempty"`
	ScriptURL  string `yaml:"scriptURL,omitempty"`
}

// JUnitFile configures the JUnit artifact.
type JUnitFile struct {
	OutputPath string `yaml:"outputPath,omitempty"`
	SuiteName  string `yaml:"suiteName,omitempty"`
	ClassName  string `yaml:"className,omitempty"`
}

// HTMLFile configures the HTML report.
type HTMLFile struct {
	OutputPath        string `yaml:"outputPath,omitempty"`
	PageTitle         string `yaml:"pageTitle,omitempty"`
	Theme             string `yaml:"theme,omitempty"`
	IncludeFailureMsg *bool  `yaml:"includeFailureMsg,omitempty"`
}

// HistoryFile toggles the run history database.
type HistoryFile struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .wcagscan in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .wcagscan in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Apply copies every value set in the file onto cfg.
func (f *File) Apply(cfg *Config) {
	setString(&cfg.BrowserExecPath, f.Browser.ExecPath)

	if f.Timeouts.Target > 0 {
		cfg.TargetTimeout = f.Timeouts.Target
	}
	if f.Timeouts.LoginField > 0 {
		cfg.LoginFieldTimeout = f.Timeouts.LoginField
	}
	if f.Timeouts.LoginNavigation > 0 {
		cfg.LoginNavigationTimeout = f.Timeouts.LoginNavigation
	}

	if f.Axe.ScriptPath != "" {
		cfg.AxeScriptPath = f.Axe.ScriptPath
		cfg.AxeScriptURL = ""
	}
	if f.Axe.ScriptURL != "" {
		cfg.AxeScriptURL = f.Axe.ScriptURL
	}

	setString(&cfg.JUnitOutput, f.JUnit.OutputPath)
	setString(&cfg.SuiteName, f.JUnit.SuiteName)
	setString(&cfg.ClassName, f.JUnit.ClassName)

	setString(&cfg.HTMLOutput, f.HTML.OutputPath)
	setString(&cfg.HTMLTitle, f.HTML.PageTitle)
	setString(&cfg.HTMLTheme, f.HTML.Theme)
	if f.HTML.IncludeFailureMsg != nil {
		cfg.HTMLIncludeFailureMsg = *f.HTML.IncludeFailureMsg
	}

	if f.History.Enabled != nil {
		cfg.SaveToDB = *f.History.Enabled
	}
}

// FillDefaults adds the file's login selectors to values for every selector
// key the environment left unset, so that Resolve sees them as configured.
func (f *File) FillDefaults(values map[string]string) {
	fill := func(key, v string) {
		if v == "" {
			return
		}
		if _, ok := values[key]; !ok {
			values[key] = v
		}
	}
	fill(EnvUsernameField, f.Login.UsernameField)
	fill(EnvPasswordField, f.Login.PasswordField)
	fill(EnvSubmitButton, f.Login.SubmitButton)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
