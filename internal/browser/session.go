package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/nao1215/wcagscan/internal/model"
)

// Session owns the single browser shared by every target of a run.
// It is safe for concurrent use, but the scan runner drives it from one
// goroutine and keeps at most one Page open at a time.
type Session struct {
	mu            sync.Mutex
	logger        *slog.Logger
	execPath      string
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger routes chromedp's diagnostics to logger at debug level.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExecPath launches the Chrome binary at path instead of looking one up.
func WithExecPath(path string) SessionOption {
	return func(s *Session) {
		s.execPath = path
	}
}

// NewSession creates a Session. No browser is launched until Start.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// allocatorOptions builds the exec allocator flags for one launch.
func (s *Session) allocatorOptions(headless bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	)
	if s.execPath != "" {
		opts = append(opts, chromedp.ExecPath(s.execPath))
	}
	return opts
}

// Start launches the browser. A failure is reported as *SessionStartError
// and leaves the Session stopped; Stop is still safe to call.
func (s *Session) Start(ctx context.Context, headless bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil {
		return &SessionStartError{Headless: headless, Cause: ErrAlreadyStarted}
	}

	// The browser outlives the caller's ctx deadline, only cancellation
	// of the run tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), s.allocatorOptions(headless)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(s.debugf),
		chromedp.WithDebugf(s.debugf),
		chromedp.WithErrorf(s.errorf),
	)

	stop := context.AfterFunc(ctx, func() {
		browserCancel()
		allocCancel()
	})

	if err := chromedp.Run(browserCtx); err != nil {
		stop()
		browserCancel()
		allocCancel()
		return &SessionStartError{Headless: headless, Cause: err}
	}

	s.allocCancel = func() {
		stop()
		allocCancel()
	}
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel
	s.logger.Debug("browser started", "headless", headless)
	return nil
}

// OpenPage opens target in a new tab and waits for it to load. Navigation
// failures are reported as *NavigationError; the tab is already closed in
// that case. On success the caller owns the Page and must Close it.
func (s *Session) OpenPage(ctx context.Context, target model.TargetSite) (Page, error) {
	s.mu.Lock()
	browserCtx := s.browserCtx
	s.mu.Unlock()

	if browserCtx == nil {
		return nil, &NavigationError{URL: target.URL, Cause: ErrNotStarted}
	}

	tabCtx, tabCancel := chromedp.NewContext(browserCtx)
	page := newChromePage(tabCtx, tabCancel)

	// The first Run attaches the tab. It runs on tabCtx so the caller's
	// deadline does not bound the tab's lifetime, but ctx still aborts it.
	if err := attachTab(ctx, tabCancel, func() error { return chromedp.Run(tabCtx) }); err != nil {
		_ = page.Close()
		return nil, &NavigationError{URL: target.URL, Cause: fmt.Errorf("open tab: %w", err)}
	}

	if err := page.Navigate(ctx, target.URL); err != nil {
		_ = page.Close()
		return nil, &NavigationError{URL: target.URL, Cause: err}
	}

	s.logger.Debug("page opened", "url", target.URL)
	return page, nil
}

// attachTab runs attach and cancels the tab if ctx is done first.
func attachTab(ctx context.Context, cancel context.CancelFunc, attach func() error) error {
	stop := context.AfterFunc(ctx, cancel)
	err := attach()
	if !stop() {
		return ctx.Err()
	}
	return err
}

// Stop closes the browser. It is idempotent and safe to call when Start
// was never called or failed.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx == nil {
		return nil
	}

	err := chromedp.Cancel(s.browserCtx)
	s.browserCancel()
	s.allocCancel()

	s.browserCtx = nil
	s.browserCancel = nil
	s.allocCancel = nil
	s.logger.Debug("browser stopped")

	if err != nil {
		return fmt.Errorf("failed to stop browser: %w", err)
	}
	return nil
}

// Started reports whether the browser is running.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.browserCtx != nil
}

func (s *Session) debugf(format string, args ...any) {
	s.logger.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
}

func (s *Session) errorf(format string, args ...any) {
	s.logger.Warn(fmt.Sprintf(format, args...), "component", "chromedp")
}
