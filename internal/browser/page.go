package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Page is one open tab. Every blocking method honors ctx: it returns when
// the operation completes, or with ctx.Err() when ctx is done first.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// Exists reports whether selector currently matches an element.
	Exists(ctx context.Context, selector string) (bool, error)

	// WaitForSelector blocks until selector matches an element.
	WaitForSelector(ctx context.Context, selector string) error

	// Type sends text as key strokes to the element matched by selector.
	Type(ctx context.Context, selector, text string) error

	// Click clicks the element matched by selector.
	Click(ctx context.Context, selector string) error

	// WaitForNavigation blocks until a page load completes after the
	// most recent Click.
	WaitForNavigation(ctx context.Context) error

	// URL returns the current document location.
	URL(ctx context.Context) (string, error)

	// Evaluate runs expression, awaiting it when it yields a promise, and
	// stores the raw JSON result in out when out is non-nil.
	Evaluate(ctx context.Context, expression string, out *[]byte) error

	// InjectScript makes script available in the document.
	InjectScript(ctx context.Context, script Script) error

	// Close releases the tab. It is idempotent.
	Close() error
}

// Script is a JavaScript payload to inject, given either inline or by URL.
// Source wins when both are set.
type Script struct {
	Source string
	URL    string
}

// chromePage is a Page backed by a chromedp tab context.
type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	loads  chan struct{}

	mu     sync.Mutex
	closed bool
}

func newChromePage(tabCtx context.Context, cancel context.CancelFunc) *chromePage {
	p := &chromePage{
		ctx:    tabCtx,
		cancel: cancel,
		loads:  make(chan struct{}, 8),
	}
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			select {
			case p.loads <- struct{}{}:
			default:
			}
		}
	})
	return p
}

// run executes actions on the tab, bounded by both the tab lifetime and ctx.
// Cancelling the derived context aborts the actions without closing the tab.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	if p.isClosed() {
		return ErrPageClosed
	}

	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return context.DeadlineExceeded
		}
		return err
	}
	return nil
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return err
	}
	p.drainLoads()
	return nil
}

func (p *chromePage) Exists(ctx context.Context, selector string) (bool, error) {
	var found bool
	expr := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector))
	if err := p.run(ctx, chromedp.Evaluate(expr, &found)); err != nil {
		return false, err
	}
	return found, nil
}

func (p *chromePage) WaitForSelector(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (p *chromePage) Type(ctx context.Context, selector, text string) error {
	return p.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (p *chromePage) Click(ctx context.Context, selector string) error {
	p.drainLoads()

	var clicked bool
	expr := fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (!el) { return false; } el.click(); return true; })()`, jsString(selector))
	if err := p.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return nil
}

func (p *chromePage) WaitForNavigation(ctx context.Context) error {
	if p.isClosed() {
		return ErrPageClosed
	}
	select {
	case <-p.loads:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPageClosed
	}
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var location string
	if err := p.run(ctx, chromedp.Location(&location)); err != nil {
		return "", err
	}
	return location, nil
}

func (p *chromePage) Evaluate(ctx context.Context, expression string, out *[]byte) error {
	var res any
	if out != nil {
		res = out
	}
	return p.run(ctx, chromedp.Evaluate(expression, res, awaitPromise))
}

func (p *chromePage) InjectScript(ctx context.Context, script Script) error {
	switch {
	case script.Source != "":
		return p.Evaluate(ctx, script.Source, nil)
	case script.URL != "":
		return p.Evaluate(ctx, scriptTagLoader(script.URL), nil)
	default:
		return errors.New("empty script")
	}
}

func (p *chromePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close page: %w", err)
	}
	return nil
}

func (p *chromePage) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// drainLoads discards load events observed so far, so WaitForNavigation
// only sees loads that follow.
func (p *chromePage) drainLoads() {
	for {
		select {
		case <-p.loads:
		default:
			return
		}
	}
}

func awaitPromise(params *runtime.EvaluateParams) *runtime.EvaluateParams {
	return params.WithAwaitPromise(true)
}

// scriptTagLoader returns an expression that appends a script tag for src
// and resolves once it has loaded.
func scriptTagLoader(src string) string {
	return fmt.Sprintf(`new Promise((resolve, reject) => {
	const s = document.createElement('script');
	s.src = %s;
	s.onload = () => resolve(true);
	s.onerror = () => reject(new Error('failed to load ' + s.src));
	document.head.appendChild(s);
})`, jsString(src))
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
