package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/wcagscan/internal/browser/browsertest"
	"github.com/nao1215/wcagscan/internal/model"
)

const engineOutput = `{
	"passes": [
		{"id": "document-title", "description": "Ensures each HTML document contains a non-empty <title> element", "help": "Documents must have <title>", "helpUrl": "https://dequeuniversity.com/rules/axe/4.10/document-title", "impact": null, "tags": ["wcag2a"], "nodes": [{"target": ["html"]}]}
	],
	"violations": [
		{"id": "color-contrast", "description": "Ensures the contrast between foreground and background colors meets WCAG 2 AA", "help": "Elements must meet minimum color contrast ratio thresholds", "helpUrl": "https://dequeuniversity.com/rules/axe/4.10/color-contrast", "impact": "serious", "tags": ["wcag2aa", "wcag143"], "nodes": [{"target": [".btn"]}, {"target": ["#iframe", ".inner"]}, {"target": [["#host", ".shadow"]]}]},
		{"id": "image-alt", "description": "Ensures <img> elements have alternate text", "impact": "critical", "tags": ["wcag2a"], "nodes": [{"target": ["img"]}]}
	]
}`

func fixedNow() time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
}

func newTestScanner() *Scanner {
	s := New(NewURLInjector("https://cdn.test/axe.min.js"))
	s.now = fixedNow
	return s
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	page := browsertest.NewFakePage("https://a.test")
	page.EvaluateFunc = func(string) ([]byte, error) { return []byte(engineOutput), nil }

	result, err := newTestScanner().Scan(context.Background(), page, model.NewTargetSite("https://a.test"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if result.URL != "https://a.test" {
		t.Errorf("URL = %q", result.URL)
	}
	if !result.ScannedAt.Equal(fixedNow()) {
		t.Errorf("ScannedAt = %v", result.ScannedAt)
	}
	if len(result.Passes) != 1 || result.Passes[0].Impact != model.ImpactNone {
		t.Errorf("Passes = %+v", result.Passes)
	}
	if !slices.Equal(result.ViolatedRules(), []string{"color-contrast", "image-alt"}) {
		t.Errorf("ViolatedRules() = %v", result.ViolatedRules())
	}

	contrast := result.Violations[0]
	if contrast.Impact != model.ImpactSerious {
		t.Errorf("Impact = %q, want serious", contrast.Impact)
	}
	wantElements := []string{".btn", "#iframe,.inner", "#host >>> .shadow"}
	if !slices.Equal(contrast.Elements, wantElements) {
		t.Errorf("Elements = %q, want %q", contrast.Elements, wantElements)
	}
	if contrast.HelpURL == "" || contrast.Help == "" {
		t.Errorf("help fields not mapped: %+v", contrast)
	}

	if len(page.Injected) != 1 || page.Injected[0].URL != "https://cdn.test/axe.min.js" {
		t.Errorf("Injected = %+v", page.Injected)
	}
}

func TestScanner_Scan_NoViolationsIsNotAnError(t *testing.T) {
	t.Parallel()

	page := browsertest.NewFakePage("https://a.test")
	page.EvaluateFunc = func(string) ([]byte, error) { return []byte(`{"passes": [], "violations": []}`), nil }

	result, err := newTestScanner().Scan(context.Background(), page, model.NewTargetSite("https://a.test"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if result.HasViolations() {
		t.Error("HasViolations() = true")
	}
}

func TestScanner_Scan_Errors(t *testing.T) {
	t.Parallel()

	evalErr := errors.New("Uncaught ReferenceError: axe is not defined")
	injectErr := errors.New("failed to load script")

	tests := []struct {
		name      string
		setup     func(p *browsertest.FakePage)
		wantCause error
	}{
		{
			name:      "injection fails",
			setup:     func(p *browsertest.FakePage) { p.InjectErr = injectErr },
			wantCause: injectErr,
		},
		{
			name: "evaluation fails",
			setup: func(p *browsertest.FakePage) {
				p.EvaluateFunc = func(string) ([]byte, error) { return nil, evalErr }
			},
			wantCause: evalErr,
		},
		{
			name: "engine returns null",
			setup: func(p *browsertest.FakePage) {
				p.EvaluateFunc = func(string) ([]byte, error) { return []byte("null"), nil }
			},
			wantCause: ErrEngineUnavailable,
		},
		{
			name: "violation with impact and no nodes",
			setup: func(p *browsertest.FakePage) {
				p.EvaluateFunc = func(string) ([]byte, error) {
					return []byte(`{"passes": [], "violations": [{"id": "label", "impact": "minor", "nodes": []}]}`), nil
				}
			},
			wantCause: model.ErrViolationWithoutElements,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			page := browsertest.NewFakePage("https://a.test")
			tt.setup(page)

			_, err := newTestScanner().Scan(context.Background(), page, model.NewTargetSite("https://a.test"))
			var execErr *ExecutionError
			if !errors.As(err, &execErr) {
				t.Fatalf("Scan() error = %v, want *ExecutionError", err)
			}
			if execErr.URL != "https://a.test" {
				t.Errorf("URL = %q", execErr.URL)
			}
			if !errors.Is(err, tt.wantCause) {
				t.Errorf("Scan() error = %v, want cause %v", err, tt.wantCause)
			}
		})
	}
}

func TestRunExpression(t *testing.T) {
	t.Parallel()

	expr, err := runExpression(DefaultTags)
	if err != nil {
		t.Fatalf("runExpression() error = %v", err)
	}
	for _, want := range []string{`values: ["wcag2a","wcag2aa"]`, "axe.run(document", "type: 'tag'"} {
		if !strings.Contains(expr, want) {
			t.Errorf("expression missing %q:\n%s", want, expr)
		}
	}
}

func TestNewFileInjector(t *testing.T) {
	t.Parallel()

	t.Run("reads source", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "axe.min.js")
		if err := os.WriteFile(path, []byte("window.axe = {};"), 0o600); err != nil {
			t.Fatal(err)
		}
		inj, err := NewFileInjector(path)
		if err != nil {
			t.Fatalf("NewFileInjector() error = %v", err)
		}
		if inj.Source() != "file" {
			t.Errorf("Source() = %q", inj.Source())
		}

		page := browsertest.NewFakePage("https://a.test")
		if err := inj.Inject(context.Background(), page); err != nil {
			t.Fatalf("Inject() error = %v", err)
		}
		if page.Injected[0].Source != "window.axe = {};" {
			t.Errorf("Injected = %+v", page.Injected)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		if _, err := NewFileInjector(filepath.Join(t.TempDir(), "missing.js")); err == nil {
			t.Error("NewFileInjector() error = nil")
		}
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "empty.js")
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFileInjector(path); err == nil {
			t.Error("NewFileInjector() error = nil")
		}
	})
}
