package aggregate

import (
	"fmt"
	"sync"

	"github.com/nao1215/wcagscan/internal/model"
)

// Report is the run-wide, append-only collection of scan results.
// Results keep the order in which they were recorded.
type Report struct {
	mu      sync.RWMutex
	results []model.ScanResult
	seen    map[string]struct{}
	sealed  bool
}

// NewReport creates an empty Report sized for the expected target count.
func NewReport(capacity int) *Report {
	if capacity < 0 {
		capacity = 0
	}
	return &Report{
		results: make([]model.ScanResult, 0, capacity),
		seen:    make(map[string]struct{}, capacity),
	}
}

// Record appends result. Each target may be recorded once, and nothing may
// be recorded after Seal.
func (r *Report) Record(result *model.ScanResult) error {
	if result == nil {
		return ErrNilResult
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("record %s: %w", result.URL, ErrSealed)
	}
	if _, ok := r.seen[result.URL]; ok {
		return fmt.Errorf("record %s: %w", result.URL, ErrDuplicateTarget)
	}
	r.seen[result.URL] = struct{}{}
	r.results = append(r.results, *result)
	return nil
}

// Seal ends the recording phase. It is idempotent.
func (r *Report) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal was called.
func (r *Report) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Len returns the number of recorded results.
func (r *Report) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.results)
}

// Results returns a copy of the recorded results in record order.
func (r *Report) Results() []model.ScanResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ScanResult, len(r.results))
	copy(out, r.results)
	return out
}

// Assert is the verdict of one target: it passes iff the scan found no
// violation. Impact levels play no part.
func (r *Report) Assert(result *model.ScanResult) error {
	if result == nil || !result.HasViolations() {
		return nil
	}
	return &AssertionFailure{URL: result.URL, Rules: result.ViolatedRules()}
}
