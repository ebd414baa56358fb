// Package browser drives a Chrome instance through chromedp so that pages can be
// prepared (logged in, clicked through) before they are audited.
package browser

import "fmt"

// SessionError represents a failure launching or closing the browser.
type SessionError struct {
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser session error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("browser session error: %s", e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// NavigationError represents a failed navigation step.
type NavigationError struct {
	Step    int
	Action  string
	Message string
	Cause   error
}

func (e *NavigationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("navigation error at step %d (%s): %s: %v", e.Step, e.Action, e.Message, e.Cause)
	}
	return fmt.Sprintf("navigation error at step %d (%s): %s", e.Step, e.Action, e.Message)
}

func (e *NavigationError) Unwrap() error {
	return e.Cause
}
