package harness

import (
	"fmt"
	"strings"
)

// Group runs independent checks and collects every failure.
//
// Unlike sequential fail-fast assertions, all checks run even when an
// earlier one fails; the returned *GroupError lists each failure. Returns
// nil when every check passes.
//
// The name labels the group in the aggregate message; it has no other
// effect.
func Group(name string, checks ...func() error) error {
	var failures []error
	for _, check := range checks {
		if err := check(); err != nil {
			failures = append(failures, err)
		}
	}

	if len(failures) == 0 {
		return nil
	}

	return &GroupError{
		Name:     name,
		Total:    len(checks),
		Failures: failures,
	}
}

// GroupError aggregates the failures of a check group.
type GroupError struct {
	Name     string  // Group label
	Total    int     // Number of checks that ran
	Failures []error // One entry per failed check
}

// Error implements the error interface.
func (e *GroupError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "%s: %d of %d check(s) failed", e.Name, len(e.Failures), e.Total)
	for _, failure := range e.Failures {
		buf.WriteString("\n  - ")
		buf.WriteString(strings.ReplaceAll(strings.TrimRight(failure.Error(), "\n"), "\n", "\n    "))
	}

	return buf.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *GroupError) Unwrap() []error {
	return e.Failures
}
