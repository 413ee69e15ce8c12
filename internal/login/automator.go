package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/wcagscan/internal/browser"
	"github.com/nao1215/wcagscan/internal/model"
)

// Default wait timeouts.
const (
	DefaultFieldTimeout      = 60 * time.Second
	DefaultNavigationTimeout = 60 * time.Second
)

// Automator runs the login sequence on a page.
type Automator struct {
	creds             *model.Credentials
	fieldTimeout      time.Duration
	navigationTimeout time.Duration
	logger            *slog.Logger
}

// Option configures an Automator.
type Option func(*Automator)

// WithFieldTimeout sets how long to wait for the username field.
func WithFieldTimeout(d time.Duration) Option {
	return func(a *Automator) {
		if d > 0 {
			a.fieldTimeout = d
		}
	}
}

// WithNavigationTimeout sets how long to wait for post-submit navigation.
func WithNavigationTimeout(d time.Duration) Option {
	return func(a *Automator) {
		if d > 0 {
			a.navigationTimeout = d
		}
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Automator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Automator. Incomplete credentials, including nil, disable
// login: every page then ends in NoLoginNeeded.
func New(creds *model.Credentials, opts ...Option) *Automator {
	a := &Automator{
		fieldTimeout:      DefaultFieldTimeout,
		navigationTimeout: DefaultNavigationTimeout,
		logger:            slog.Default(),
	}
	if creds.Complete() {
		a.creds = creds
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Enabled reports whether credentials are configured.
func (a *Automator) Enabled() bool {
	return a.creds != nil
}

// Login drives page through the login sequence and returns the final state.
// The error is nil for NoLoginNeeded and Authenticated, a *TimeoutError for
// LoginTimeout, and wraps ErrLoginFailed or the context error otherwise.
func (a *Automator) Login(ctx context.Context, page browser.Page) (State, error) {
	if a.creds == nil {
		a.logger.Debug("no credentials configured, skipping login")
		return NoLoginNeeded, nil
	}

	state := Unauthenticated
	a.logger.Debug("login state", "state", state)

	required, err := page.Exists(ctx, a.creds.SubmitSelector)
	if err != nil {
		return a.fail(ctx, state, a.creds.SubmitSelector, err)
	}
	if !required {
		a.transition(state, NoLoginNeeded)
		a.logger.Debug("submit control not found, skipping login", "selector", a.creds.SubmitSelector)
		return NoLoginNeeded, nil
	}

	state = a.transition(state, AwaitingUsernameField)
	if err := a.waitFor(ctx, a.fieldTimeout, func(waitCtx context.Context) error {
		return page.WaitForSelector(waitCtx, a.creds.UsernameSelector)
	}); err != nil {
		return a.fail(ctx, state, a.creds.UsernameSelector, err)
	}
	a.logger.Debug("login page detected")

	if err := page.Type(ctx, a.creds.UsernameSelector, a.creds.Username); err != nil {
		return a.fail(ctx, state, a.creds.UsernameSelector, err)
	}
	if err := page.Type(ctx, a.creds.PasswordSelector, a.creds.Password); err != nil {
		return a.fail(ctx, state, a.creds.PasswordSelector, err)
	}
	if err := page.Click(ctx, a.creds.SubmitSelector); err != nil {
		return a.fail(ctx, state, a.creds.SubmitSelector, err)
	}
	state = a.transition(state, CredentialsSubmitted)

	if err := a.waitFor(ctx, a.navigationTimeout, page.WaitForNavigation); err != nil {
		return a.fail(ctx, state, "", err)
	}
	state = a.transition(state, Authenticated)

	if location, err := page.URL(ctx); err == nil {
		a.logger.Info("successfully redirected", "url", location)
	}
	return state, nil
}

// waitFor runs fn under its own timeout nested in ctx.
func (a *Automator) waitFor(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(waitCtx)
}

// fail classifies err raised in state from. Deadline expiries become a
// *TimeoutError; cancellation of ctx is returned as is.
func (a *Automator) fail(ctx context.Context, from State, selector string, err error) (State, error) {
	if errors.Is(err, context.DeadlineExceeded) {
		scope := ScopeWait
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			scope = ScopeTarget
		}
		a.transition(from, LoginTimeout)
		return LoginTimeout, &TimeoutError{From: from, Selector: selector, Scope: scope, Cause: err}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return from, ctxErr
	}
	return from, fmt.Errorf("%w in %s: %w", ErrLoginFailed, from, err)
}

func (a *Automator) transition(from, to State) State {
	a.logger.Debug("login state", "from", from, "to", to, "terminal", to.Terminal())
	return to
}
