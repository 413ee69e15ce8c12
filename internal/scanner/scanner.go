package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/wcagscan/internal/browser"
	"github.com/nao1215/wcagscan/internal/model"
)

// DefaultTags restricts the engine to WCAG 2 levels A and AA.
var DefaultTags = []string{"wcag2a", "wcag2aa"}

// nestedSelectorSeparator joins the selectors that locate a node through
// shadow roots.
const nestedSelectorSeparator = " >>> "

// Scanner runs axe-core against pages.
type Scanner struct {
	injector Injector
	tags     []string
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scanner that injects the engine with injector and
// evaluates DefaultTags.
func New(injector Injector, opts ...Option) *Scanner {
	s := &Scanner{
		injector: injector,
		tags:     DefaultTags,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan injects the engine into page, runs it, and returns the classified
// result for target. Any failure is an *ExecutionError.
func (s *Scanner) Scan(ctx context.Context, page browser.Page, target model.TargetSite) (*model.ScanResult, error) {
	if err := s.injector.Inject(ctx, page); err != nil {
		return nil, &ExecutionError{URL: target.URL, Cause: fmt.Errorf("inject axe-core: %w", err)}
	}

	expr, err := runExpression(s.tags)
	if err != nil {
		return nil, &ExecutionError{URL: target.URL, Cause: err}
	}

	var raw []byte
	if err := page.Evaluate(ctx, expr, &raw); err != nil {
		return nil, &ExecutionError{URL: target.URL, Cause: fmt.Errorf("run axe-core: %w", err)}
	}

	result, err := decodeResult(target.URL, raw)
	if err != nil {
		return nil, &ExecutionError{URL: target.URL, Cause: err}
	}
	result.ScannedAt = s.now()

	s.logger.Debug("scan completed",
		"url", target.URL,
		"tags", s.tags,
		"passes", len(result.Passes),
		"violations", len(result.Violations))
	return result, nil
}

// runExpression builds the awaited axe.run call for tags. The engine result
// is trimmed in the page to the fields the scanner maps.
func runExpression(tags []string) (string, error) {
	values, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return fmt.Sprintf(`(async () => {
	if (typeof axe === 'undefined') {
		throw new Error('axe is not defined');
	}
	const results = await axe.run(document, { runOnly: { type: 'tag', values: %s } });
	const trim = (r) => ({
		id: r.id,
		description: r.description,
		help: r.help,
		helpUrl: r.helpUrl,
		impact: r.impact,
		tags: r.tags,
		nodes: r.nodes.map((n) => ({ target: n.target })),
	});
	return { passes: results.passes.map(trim), violations: results.violations.map(trim) };
})()`, values), nil
}

type rawResults struct {
	Passes     []rawRule `json:"passes"`
	Violations []rawRule `json:"violations"`
}

type rawRule struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"` //nolint:tagliatelle // axe-core field name
	Impact      *string   `json:"impact"`
	Tags        []string  `json:"tags"`
	Nodes       []rawNode `json:"nodes"`
}

type rawNode struct {
	// Target has one item per frame level. An item is a selector or, for
	// nodes inside shadow roots, a list of selectors.
	Target []json.RawMessage `json:"target"`
}

// decodeResult maps the engine output for url into a ScanResult.
func decodeResult(url string, raw []byte) (*model.ScanResult, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, ErrEngineUnavailable
	}

	var rr rawResults
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, fmt.Errorf("decode axe-core output: %w", err)
	}

	result := model.NewScanResult(url)
	for _, r := range rr.Passes {
		f, err := r.finding()
		if err != nil {
			return nil, err
		}
		result.Passes = append(result.Passes, f)
	}
	for _, r := range rr.Violations {
		f, err := r.finding()
		if err != nil {
			return nil, err
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		result.Violations = append(result.Violations, f)
	}
	return result, nil
}

func (r rawRule) finding() (model.Finding, error) {
	f := model.Finding{
		RuleID:      r.ID,
		Description: r.Description,
		Help:        r.Help,
		HelpURL:     r.HelpURL,
		Tags:        r.Tags,
	}
	if r.Impact != nil {
		f.Impact = model.Impact(*r.Impact)
	}
	for _, n := range r.Nodes {
		locator, err := n.locator()
		if err != nil {
			return model.Finding{}, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		f.Elements = append(f.Elements, locator)
	}
	return f, nil
}

// locator renders a node target as one display string.
func (n rawNode) locator() (string, error) {
	parts := make([]string, 0, len(n.Target))
	for _, item := range n.Target {
		var selector string
		if err := json.Unmarshal(item, &selector); err == nil {
			parts = append(parts, selector)
			continue
		}
		var nested []string
		if err := json.Unmarshal(item, &nested); err != nil {
			return "", fmt.Errorf("unexpected node target %s", item)
		}
		parts = append(parts, strings.Join(nested, nestedSelectorSeparator))
	}
	return strings.Join(parts, ","), nil
}
