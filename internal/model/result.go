package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrViolationWithoutElements is returned by Finding.Validate when a
// violation carries an impact but implicates no page element.
var ErrViolationWithoutElements = errors.New("violation with impact implicates no elements")

// Finding is one rule evaluated by the rule engine against one page.
// The same shape is used for passes and violations; which list a Finding
// sits in decides its meaning.
type Finding struct {
	// RuleID is the engine's rule identifier (e.g. "color-contrast").
	RuleID string `json:"rule_id"`

	// Description explains what the rule checks.
	Description string `json:"description"`

	// Help is the engine's short remediation hint.
	Help string `json:"help,omitempty"`

	// HelpURL links to the engine's documentation for the rule.
	HelpURL string `json:"help_url,omitempty"`

	// Impact is the severity reported by the engine, verbatim.
	Impact Impact `json:"impact,omitempty"`

	// Tags are the engine's rule tags (e.g. "wcag2aa").
	Tags []string `json:"tags,omitempty"`

	// Elements are DOM locators of the implicated nodes, one per node.
	// Empty for a pure pass.
	Elements []string `json:"elements,omitempty"`
}

// Validate checks the invariant that applies to violations: when an impact
// is present, at least one element must be implicated.
// Passes have no element requirement and are not validated.
func (f Finding) Validate() error {
	if f.Impact.Present() && len(f.Elements) == 0 {
		return fmt.Errorf("rule %s: %w", f.RuleID, ErrViolationWithoutElements)
	}
	return nil
}

// ScanResult is the outcome of one accessibility scan of one target.
// It is created once per target by the scanner and not modified afterwards.
type ScanResult struct {
	// URL is the scanned target.
	URL string `json:"url"`

	// Passes are the rules the page satisfied.
	Passes []Finding `json:"passes"`

	// Violations are the rules the page failed, in engine order.
	Violations []Finding `json:"violations"`

	// ScannedAt is when the engine finished evaluating the page.
	ScannedAt time.Time `json:"scanned_at"`
}

// NewScanResult creates a ScanResult for the given URL with empty lists.
func NewScanResult(url string) *ScanResult {
	return &ScanResult{
		URL:        url,
		Passes:     make([]Finding, 0),
		Violations: make([]Finding, 0),
		ScannedAt:  time.Now(),
	}
}

// HasViolations reports whether the engine found any violation.
func (r *ScanResult) HasViolations() bool {
	return len(r.Violations) > 0
}

// ViolatedRules returns the rule IDs of all violations, in engine order.
func (r *ScanResult) ViolatedRules() []string {
	rules := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		rules[i] = v.RuleID
	}
	return rules
}

// CountByImpact returns the number of violations for each impact level.
func (r *ScanResult) CountByImpact() map[Impact]int {
	counts := make(map[Impact]int)
	for _, v := range r.Violations {
		counts[v.Impact]++
	}
	return counts
}
