package login

import (
	"errors"
	"fmt"
)

// Timeout scopes.
const (
	// ScopeWait means the step's own wait timeout expired.
	ScopeWait = "wait"
	// ScopeTarget means the enclosing per-target timeout expired first.
	ScopeTarget = "target"
)

// ErrLoginFailed wraps non-timeout failures of the login sequence, such as
// a missing password field.
var ErrLoginFailed = errors.New("login failed")

// TimeoutError reports that the login sequence ended in LoginTimeout.
// It fails the current target only.
type TimeoutError struct {
	// From is the state whose wait expired.
	From State
	// Selector is the awaited selector, empty for the navigation wait.
	Selector string
	// Scope is ScopeWait or ScopeTarget.
	Scope string
	Cause error
}

func (e *TimeoutError) Error() string {
	what := "navigation to settle"
	if e.Selector != "" {
		what = fmt.Sprintf("selector %q", e.Selector)
	}
	return fmt.Sprintf("%s: timed out in %s waiting for %s (%s timeout)", LoginTimeout, e.From, what, e.Scope)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}
