package browser

import (
	"errors"
	"fmt"
)

// Sentinel errors for session state.
var (
	// ErrNotStarted is returned when a page is requested before Start.
	ErrNotStarted = errors.New("browser session not started")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("browser session already started")

	// ErrPageClosed is returned by Page methods after Close.
	ErrPageClosed = errors.New("page closed")

	// ErrElementNotFound is returned when a selector matches nothing.
	ErrElementNotFound = errors.New("element not found")
)

// SessionStartError reports that the browser could not be launched.
// It is fatal for the run.
type SessionStartError struct {
	Headless bool
	Cause    error
}

func (e *SessionStartError) Error() string {
	return fmt.Sprintf("failed to start browser (headless=%t): %v", e.Headless, e.Cause)
}

func (e *SessionStartError) Unwrap() error {
	return e.Cause
}

// NavigationError reports that a target page could not be opened.
// It aborts the affected target only.
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Cause)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}
