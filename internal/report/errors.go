// Package report persists Lighthouse results as HTML, JSON and score summary artifacts.
package report

import "fmt"

// WriteError represents an artifact that could not be persisted.
type WriteError struct {
	Path    string
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("report write error for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("report write error for %s: %s", e.Path, e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
