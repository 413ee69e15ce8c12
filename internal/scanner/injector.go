package scanner

import (
	"context"
	"fmt"
	"os"

	"github.com/nao1215/wcagscan/internal/browser"
)

// Injector makes the axe-core engine available in a page.
type Injector interface {
	Inject(ctx context.Context, page browser.Page) error
}

// ScriptInjector injects a fixed axe-core build.
type ScriptInjector struct {
	script browser.Script
}

// NewFileInjector reads the axe-core build at path once; every Inject
// evaluates that source in the page.
func NewFileInjector(path string) (*ScriptInjector, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read axe script: %w", err)
	}
	if len(src) == 0 {
		return nil, fmt.Errorf("axe script %s is empty", path)
	}
	return &ScriptInjector{script: browser.Script{Source: string(src)}}, nil
}

// NewURLInjector loads axe-core from url through a script tag.
func NewURLInjector(url string) *ScriptInjector {
	return &ScriptInjector{script: browser.Script{URL: url}}
}

// Inject implements Injector.
func (i *ScriptInjector) Inject(ctx context.Context, page browser.Page) error {
	return page.InjectScript(ctx, i.script)
}

// Source describes where the script comes from, for logs.
func (i *ScriptInjector) Source() string {
	if i.script.Source != "" {
		return "file"
	}
	return i.script.URL
}
