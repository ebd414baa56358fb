package types

import (
	"fmt"
	"time"
)

// StepAction names a browser navigation step.
type StepAction string

const (
	StepGoto       StepAction = "goto"
	StepClick      StepAction = "click"
	StepType       StepAction = "type"
	StepWait       StepAction = "wait"
	StepSleep      StepAction = "sleep"
	StepFollowLink StepAction = "follow_link"
)

// Step is one browser action performed before a page is audited.
type Step struct {
	Action StepAction `json:"action" mapstructure:"action" validate:"required,oneof=goto click type wait sleep follow_link"`
	// URL is the target of a goto step.
	URL string `json:"url,omitempty" mapstructure:"url"`
	// Selector is a CSS selector for click, type and wait steps.
	Selector string `json:"selector,omitempty" mapstructure:"selector"`
	// Value is the text typed by a type step.
	Value string `json:"value,omitempty" mapstructure:"value"`
	// Text is the visible link text matched by a follow_link step.
	Text string `json:"text,omitempty" mapstructure:"text"`
	// WaitNavigation makes a click step block until the page location changes.
	WaitNavigation bool          `json:"wait_navigation,omitempty" mapstructure:"wait_navigation"`
	Duration       time.Duration `json:"duration,omitempty" mapstructure:"duration"`
}

// Validate checks the fields each action depends on.
func (s Step) Validate() error {
	switch s.Action {
	case StepGoto:
		if s.URL == "" {
			return fmt.Errorf("goto step requires url")
		}
	case StepClick, StepWait, StepType:
		if s.Selector == "" {
			return fmt.Errorf("%s step requires selector", s.Action)
		}
	case StepSleep:
		if s.Duration <= 0 {
			return fmt.Errorf("sleep step requires a positive duration")
		}
	case StepFollowLink:
		if s.Text == "" {
			return fmt.Errorf("follow_link step requires text")
		}
	default:
		return fmt.Errorf("unknown step action %q", s.Action)
	}
	return nil
}

// Page is a single audit target.
type Page struct {
	URL        string `json:"url" mapstructure:"url" validate:"required,url"`
	ReportName string `json:"report_name" mapstructure:"report_name" validate:"required"`
	Steps      []Step `json:"steps,omitempty" mapstructure:"steps" validate:"dive"`
}

// NavigationSteps returns the steps to perform for the page. A page without
// explicit steps is simply loaded.
func (p Page) NavigationSteps() []Step {
	if len(p.Steps) == 0 {
		return []Step{{Action: StepGoto, URL: p.URL}}
	}
	return p.Steps
}

// String describes the step for logs and errors.
func (s Step) String() string {
	switch s.Action {
	case StepGoto:
		return "goto " + s.URL
	case StepClick:
		if s.WaitNavigation {
			return "click " + s.Selector + " and wait for navigation"
		}
		return "click " + s.Selector
	case StepType:
		return "type into " + s.Selector
	case StepWait:
		return "wait for " + s.Selector
	case StepSleep:
		return "sleep " + s.Duration.String()
	case StepFollowLink:
		return fmt.Sprintf("follow link %q", s.Text)
	default:
		return string(s.Action)
	}
}
