// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/nao1215/wcagscan/internal/browser"
)

// FakePage is a browser.Page whose DOM is a set of selectors.
// Waits on selectors that are not present, or on a navigation that never
// settles, block until ctx is done.
type FakePage struct {
	mu sync.Mutex

	// Selectors lists the selectors that match an element.
	Selectors map[string]bool

	// Settles makes WaitForNavigation return immediately.
	Settles bool

	// Location is returned by URL.
	Location string

	// EvaluateFunc answers Evaluate. A nil func yields a JSON null.
	EvaluateFunc func(expression string) ([]byte, error)

	// InjectErr is returned by InjectScript.
	InjectErr error

	// Recorded interactions.
	Typed    map[string]string
	Clicked  []string
	Injected []browser.Script
	Calls    []string
	closed   int
}

var _ browser.Page = (*FakePage)(nil)

// NewFakePage returns a page at location matching selectors.
func NewFakePage(location string, selectors ...string) *FakePage {
	p := &FakePage{
		Selectors: make(map[string]bool),
		Location:  location,
		Typed:     make(map[string]string),
	}
	for _, s := range selectors {
		p.Selectors[s] = true
	}
	return p
}

func (p *FakePage) record(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, fmt.Sprintf(format, args...))
}

func (p *FakePage) has(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Selectors[selector]
}

// Navigate records the call and moves the page to url.
func (p *FakePage) Navigate(_ context.Context, url string) error {
	p.record("navigate %s", url)
	p.mu.Lock()
	p.Location = url
	p.mu.Unlock()
	return nil
}

// Exists reports whether selector is in Selectors.
func (p *FakePage) Exists(_ context.Context, selector string) (bool, error) {
	p.record("exists %s", selector)
	return p.has(selector), nil
}

// WaitForSelector returns when selector is present or ctx is done.
func (p *FakePage) WaitForSelector(ctx context.Context, selector string) error {
	p.record("wait %s", selector)
	if p.has(selector) {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

// Type records text typed into selector.
func (p *FakePage) Type(_ context.Context, selector, text string) error {
	p.record("type %s", selector)
	if !p.has(selector) {
		return fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	p.mu.Lock()
	p.Typed[selector] = text
	p.mu.Unlock()
	return nil
}

// Click records a click on selector.
func (p *FakePage) Click(_ context.Context, selector string) error {
	p.record("click %s", selector)
	if !p.has(selector) {
		return fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
	}
	p.mu.Lock()
	p.Clicked = append(p.Clicked, selector)
	p.mu.Unlock()
	return nil
}

// WaitForNavigation returns at once when Settles is set, otherwise when
// ctx is done.
func (p *FakePage) WaitForNavigation(ctx context.Context) error {
	p.record("wait navigation")
	p.mu.Lock()
	settles := p.Settles
	p.mu.Unlock()
	if settles {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

// URL returns Location.
func (p *FakePage) URL(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Location, nil
}

// Evaluate answers through EvaluateFunc.
func (p *FakePage) Evaluate(ctx context.Context, expression string, out *[]byte) error {
	p.record("evaluate")
	if err := ctx.Err(); err != nil {
		return err
	}
	res := []byte("null")
	if p.EvaluateFunc != nil {
		var err error
		if res, err = p.EvaluateFunc(expression); err != nil {
			return err
		}
	}
	if out != nil {
		*out = res
	}
	return nil
}

// InjectScript records script and returns InjectErr.
func (p *FakePage) InjectScript(_ context.Context, script browser.Script) error {
	p.record("inject")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.InjectErr != nil {
		return p.InjectErr
	}
	p.Injected = append(p.Injected, script)
	return nil
}

// Close counts calls.
func (p *FakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

// Closed reports how many times Close was called.
func (p *FakePage) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
