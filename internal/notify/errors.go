// Package notify delivers breach alerts to a chat channel.
package notify

import "fmt"

// DeliveryError represents an alert that could not be delivered.
type DeliveryError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *DeliveryError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("delivery error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("delivery error: %s", msg)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}
