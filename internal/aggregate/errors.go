package aggregate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateTarget is returned when a second result is recorded for a URL.
	ErrDuplicateTarget = errors.New("result already recorded for target")

	// ErrSealed is returned when a result is recorded after Seal.
	ErrSealed = errors.New("report is sealed")

	// ErrNilResult is returned when Record receives nil.
	ErrNilResult = errors.New("nil scan result")
)

// AssertionFailure is the failed verdict of a target that has violations.
// It is an expected outcome of a scan, not a system error.
type AssertionFailure struct {
	URL string
	// Rules are the violated rule IDs, in engine order.
	Rules []string
}

func (e *AssertionFailure) Error() string {
	return fmt.Sprintf("expected 0 accessibility violations on %s, found %d: %s",
		e.URL, len(e.Rules), strings.Join(e.Rules, ", "))
}
