package model

import "time"

// TestStatus is the final status of one executed test.
type TestStatus string

const (
	// StatusPassed means the target was scanned and had no violations.
	StatusPassed TestStatus = "passed"

	// StatusFailed means the target had violations or could not be scanned.
	StatusFailed TestStatus = "failed"
)

// TestOutcome is the per-test result produced by the run orchestration.
// One is produced for every attempted target, scanned or not.
type TestOutcome struct {
	// Title is the short test title (e.g. "Check accessibility for https://a.test").
	Title string `json:"title"`

	// FullName is the title qualified by its suite name. May be empty.
	FullName string `json:"full_name,omitempty"`

	// URL is the target the test covered.
	URL string `json:"url"`

	// Status is passed or failed.
	Status TestStatus `json:"status"`

	// FailureMessages holds every failure recorded for the test, in order.
	FailureMessages []string `json:"failure_messages,omitempty"`

	// Duration is the wall time spent on the target.
	Duration time.Duration `json:"duration"`
}

// Failed reports whether the outcome status is failed.
func (o TestOutcome) Failed() bool {
	return o.Status == StatusFailed
}

// ReportCase is the unit rendered into the JUnit artifact.
type ReportCase struct {
	Name        string
	ClassName   string
	Failed      bool
	FailureText string
}

// RunReport is the complete record of one run: every scan result that was
// recorded and every test outcome, in target order.
type RunReport struct {
	// StartedAt is when the first target began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last target completed.
	FinishedAt time.Time `json:"finished_at"`

	// Results are the recorded scan results.
	Results []ScanResult `json:"results"`

	// Outcomes are the test outcomes, one per attempted target.
	Outcomes []TestOutcome `json:"outcomes"`
}

// FailedCount returns the number of failed outcomes.
func (r *RunReport) FailedCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// ViolationCount returns the total number of violations across all results.
func (r *RunReport) ViolationCount() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Violations)
	}
	return n
}

// ResultFor returns the scan result recorded for url, or nil.
func (r *RunReport) ResultFor(url string) *ScanResult {
	for i := range r.Results {
		if r.Results[i].URL == url {
			return &r.Results[i]
		}
	}
	return nil
}
