package model

import (
	"errors"
	"testing"
)

func TestFindingValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		finding Finding
		wantErr bool
	}{
		{
			name:    "violation with impact and elements is valid",
			finding: Finding{RuleID: "image-alt", Impact: ImpactCritical, Elements: []string{"img"}},
		},
		{
			name:    "violation with impact and no elements is invalid",
			finding: Finding{RuleID: "image-alt", Impact: ImpactCritical},
			wantErr: true,
		},
		{
			name:    "pass without impact or elements is valid",
			finding: Finding{RuleID: "document-title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.finding.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrViolationWithoutElements) {
					t.Errorf("expected ErrViolationWithoutElements, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestScanResult(t *testing.T) {
	t.Parallel()

	t.Run("new result has no violations", func(t *testing.T) {
		t.Parallel()

		r := NewScanResult("https://a.test")
		if r.HasViolations() {
			t.Error("expected no violations")
		}
		if r.URL != "https://a.test" {
			t.Errorf("expected URL https://a.test, got %q", r.URL)
		}
	})

	t.Run("violated rules keep engine order", func(t *testing.T) {
		t.Parallel()

		r := NewScanResult("https://a.test")
		r.Violations = append(r.Violations,
			Finding{RuleID: "label", Impact: ImpactCritical, Elements: []string{"#a"}},
			Finding{RuleID: "color-contrast", Impact: ImpactSerious, Elements: []string{"#b"}},
			Finding{RuleID: "link-name", Impact: ImpactSerious, Elements: []string{"#c"}},
		)

		rules := r.ViolatedRules()
		want := []string{"label", "color-contrast", "link-name"}
		if len(rules) != len(want) {
			t.Fatalf("expected %d rules, got %d", len(want), len(rules))
		}
		for i := range want {
			if rules[i] != want[i] {
				t.Errorf("rule %d: expected %q, got %q", i, want[i], rules[i])
			}
		}

		counts := r.CountByImpact()
		if counts[ImpactSerious] != 2 || counts[ImpactCritical] != 1 {
			t.Errorf("unexpected impact counts: %v", counts)
		}
	})
}

func TestImpact(t *testing.T) {
	t.Parallel()

	if ImpactNone.String() != "-" {
		t.Errorf("expected '-', got %q", ImpactNone.String())
	}
	if ImpactSerious.String() != "serious" {
		t.Errorf("expected 'serious', got %q", ImpactSerious.String())
	}
	if ImpactCritical.Rank() <= ImpactMinor.Rank() {
		t.Error("expected critical to rank above minor")
	}
	if Impact("unknown").Rank() != 0 {
		t.Error("expected unknown impact to rank 0")
	}
}

func TestRunReport(t *testing.T) {
	t.Parallel()

	run := &RunReport{
		Results: []ScanResult{
			{URL: "https://a.test", Violations: []Finding{{RuleID: "label"}}},
			{URL: "https://b.test"},
		},
		Outcomes: []TestOutcome{
			{URL: "https://a.test", Status: StatusFailed},
			{URL: "https://b.test", Status: StatusPassed},
			{URL: "https://c.test", Status: StatusFailed},
		},
	}

	if got := run.FailedCount(); got != 2 {
		t.Errorf("expected 2 failed outcomes, got %d", got)
	}
	if got := run.ViolationCount(); got != 1 {
		t.Errorf("expected 1 violation, got %d", got)
	}
	if run.ResultFor("https://c.test") != nil {
		t.Error("expected no result for an unscanned target")
	}
	if res := run.ResultFor("https://b.test"); res == nil || res.URL != "https://b.test" {
		t.Error("expected result for https://b.test")
	}
}

func TestCredentialsComplete(t *testing.T) {
	t.Parallel()

	var nilCreds *Credentials
	if nilCreds.Complete() {
		t.Error("nil credentials must not be complete")
	}
	if (&Credentials{Username: "u"}).Complete() {
		t.Error("credentials without password must not be complete")
	}
	if !(&Credentials{Username: "u", Password: "p"}).Complete() {
		t.Error("expected complete credentials")
	}
}
