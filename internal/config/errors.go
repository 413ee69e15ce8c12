package config

import (
	"errors"
	"fmt"
)

// Configuration errors.
// Resolve and Config.Validate wrap these in a *ConfigError so callers can
// use errors.Is for the reason and errors.As for the offending key.
var (
	// ErrEmptyTargetList is returned when the target list is set but
	// contains no URL once split and trimmed (e.g. TEST_SITE_URLS=",").
	ErrEmptyTargetList = errors.New("target list is empty after splitting")

	// ErrInvalidTargetURL is returned when a target is not an absolute http(s) URL.
	ErrInvalidTargetURL = errors.New("target must be an absolute http or https URL")

	// ErrDuplicateTarget is returned when the same URL is configured twice.
	ErrDuplicateTarget = errors.New("target is configured more than once")

	// ErrInvalidHeadless is returned when the headless flag is not a boolean.
	ErrInvalidHeadless = errors.New("headless must be a boolean")

	// ErrNoTarget is returned when the configuration holds no target at all.
	ErrNoTarget = errors.New("no target specified")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrInvalidTheme is returned when the HTML report theme is unknown.
	ErrInvalidTheme = errors.New("unknown HTML report theme")

	// ErrNoJUnitOutput is returned when the JUnit output path is empty.
	ErrNoJUnitOutput = errors.New("JUnit output path must not be empty")

	// ErrConflictingScriptSource is returned when both a local axe-core
	// script path and a script URL are configured.
	ErrConflictingScriptSource = errors.New("axe script path and axe script URL cannot be used together")
)

// ConfigError reports structurally invalid configuration. It is fatal:
// a run never starts with a configuration that produced one.
type ConfigError struct {
	// Key is the configuration key or field at fault.
	Key string

	// Value is the offending raw value, if any.
	Value string

	// Err is the underlying reason, usually one of the sentinel errors above.
	Err error
}

// Error implements error.
func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid configuration %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("invalid configuration %s=%q: %v", e.Key, e.Value, e.Err)
}

// Unwrap returns the underlying reason.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(key, value string, err error) *ConfigError {
	return &ConfigError{Key: key, Value: value, Err: err}
}
