package scanner

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable is returned when axe is not defined after injection.
var ErrEngineUnavailable = errors.New("axe-core is not available in the page")

// ExecutionError reports that the rule engine could not be run on a page,
// or returned output that cannot be mapped. It aborts that target only.
type ExecutionError struct {
	URL   string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("accessibility scan of %s failed: %v", e.URL, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
