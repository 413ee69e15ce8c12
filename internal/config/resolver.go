package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nao1215/wcagscan/internal/model"
)

// Environment keys read by Resolve.
const (
	EnvSiteURLs      = "TEST_SITE_URLS"
	EnvUsername      = "TEST_USERNAME"
	EnvPassword      = "TEST_PASSWORD"
	EnvUsernameField = "TEST_USERNAME_FIELD"
	EnvPasswordField = "TEST_PASSWORD_FIELD"
	EnvSubmitButton  = "TEST_SUBMIT_BUTTON"
	EnvHeadless      = "TEST_HEADLESS"
)

// Defaults applied by Resolve when a key is absent.
const (
	DefaultTargetURL        = "https://google.com"
	DefaultUsernameSelector = `input[name="username"]`
	DefaultPasswordSelector = `input[name="password"]`
	DefaultSubmitSelector   = `button[name="action"]`
	DefaultHeadless         = true
)

// Resolved is the outcome of resolving raw key/value configuration.
type Resolved struct {
	// Targets holds at least one target, in configured order.
	Targets []model.TargetSite

	// Credentials is nil unless both username and password are non-empty.
	Credentials *model.Credentials

	// Headless selects headless browser mode.
	Headless bool
}

// Resolve turns raw configuration pairs (typically the process environment)
// into targets, credentials and the headless flag.
//
// It performs no I/O. Missing keys fall back to defaults; only structurally
// invalid input (an empty list after splitting, a non-http target, a
// non-boolean headless value) yields a *ConfigError.
func Resolve(values map[string]string) (*Resolved, error) {
	targets, err := resolveTargets(values[EnvSiteURLs])
	if err != nil {
		return nil, err
	}

	headless, err := resolveHeadless(values[EnvHeadless])
	if err != nil {
		return nil, err
	}

	return &Resolved{
		Targets:     targets,
		Credentials: resolveCredentials(values),
		Headless:    headless,
	}, nil
}

// resolveTargets splits a comma-separated list into targets.
// A blank value means "not configured" and yields the default target.
func resolveTargets(raw string) ([]model.TargetSite, error) {
	if strings.TrimSpace(raw) == "" {
		return []model.TargetSite{model.NewTargetSite(DefaultTargetURL)}, nil
	}

	urls := SplitTargets(raw)
	if len(urls) == 0 {
		return nil, newConfigError(EnvSiteURLs, raw, ErrEmptyTargetList)
	}

	targets := make([]model.TargetSite, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if err := ValidateTargetURL(u); err != nil {
			return nil, newConfigError(EnvSiteURLs, u, err)
		}
		if seen[u] {
			return nil, newConfigError(EnvSiteURLs, u, ErrDuplicateTarget)
		}
		seen[u] = true
		targets = append(targets, model.NewTargetSite(u))
	}
	return targets, nil
}

// SplitTargets splits a comma-separated URL list, trimming whitespace and
// dropping empty entries.
func SplitTargets(raw string) []string {
	parts := strings.Split(raw, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

// ValidateTargetURL reports whether raw is an absolute http or https URL.
func ValidateTargetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Join(ErrInvalidTargetURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidTargetURL
	}
	return nil
}

// resolveCredentials returns credentials only when both username and
// password are non-empty; partial credentials degrade to no login.
func resolveCredentials(values map[string]string) *model.Credentials {
	creds := &model.Credentials{
		Username:         values[EnvUsername],
		Password:         values[EnvPassword],
		UsernameSelector: valueOr(values, EnvUsernameField, DefaultUsernameSelector),
		PasswordSelector: valueOr(values, EnvPasswordField, DefaultPasswordSelector),
		SubmitSelector:   valueOr(values, EnvSubmitButton, DefaultSubmitSelector),
	}
	if !creds.Complete() {
		return nil
	}
	return creds
}

func resolveHeadless(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultHeadless, nil
	}
	headless, err := strconv.ParseBool(raw)
	if err != nil {
		return false, newConfigError(EnvHeadless, raw, ErrInvalidHeadless)
	}
	return headless, nil
}

func valueOr(values map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(values[key]); v != "" {
		return v
	}
	return fallback
}

// EnvironMap converts os.Environ-style "KEY=value" entries into a map.
// Entries without '=' are ignored.
func EnvironMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}

// LoadEnvFile reads a dotenv file and merges it under the given values:
// keys already present in values win, matching dotenv's no-override rule.
// A missing file is not an error when optional is true.
func LoadEnvFile(path string, values map[string]string, optional bool) (map[string]string, error) {
	merged := make(map[string]string, len(values))
	for k, v := range values {
		merged[k] = v
	}

	fileValues, err := godotenv.Read(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return merged, nil
		}
		return nil, err
	}

	for k, v := range fileValues {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return merged, nil
}
