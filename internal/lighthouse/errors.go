// Package lighthouse runs the Lighthouse CLI against an already running Chrome
// and turns its result into scores.
package lighthouse

import "fmt"

// AuditError represents a Lighthouse run that did not produce a usable report.
type AuditError struct {
	URL     string
	Message string
	Cause   error
}

func (e *AuditError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("audit error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("audit error for %s: %s", e.URL, e.Message)
}

func (e *AuditError) Unwrap() error {
	return e.Cause
}
