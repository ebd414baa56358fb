// Package audit orchestrates an audit run: it drives the browser session page by
// page, audits, persists reports, evaluates scores and dispatches alerts.
package audit

import (
	"fmt"
	"strings"

	"github.com/jonathan/lighthouse-audit/internal/types"
)

// Stages at which a run can be aborted.
const (
	StageSession  = "session"
	StageNavigate = "navigate"
	StageAudit    = "audit"
)

// AbortError represents a failure that stopped the run before all pages were processed.
type AbortError struct {
	Stage      string
	ReportName string
	Cause      error
}

func (e *AbortError) Error() string {
	if e.ReportName != "" {
		return fmt.Sprintf("run aborted during %s of %q: %v", e.Stage, e.ReportName, e.Cause)
	}
	return fmt.Sprintf("run aborted during %s: %v", e.Stage, e.Cause)
}

func (e *AbortError) Unwrap() error {
	return e.Cause
}

// BreachError is returned for a completed run in which at least one page fell
// below its baseline.
type BreachError struct {
	Pages []types.PageOutcome
}

func (e *BreachError) Error() string {
	names := make([]string, 0, len(e.Pages))
	for _, p := range e.Pages {
		names = append(names, p.ReportName)
	}
	return fmt.Sprintf("scores below baseline on %d page(s): %s", len(e.Pages), strings.Join(names, ", "))
}

// Verdict reduces a run to its final error: the abort error if the run did
// not complete, a BreachError if any page breached, nil otherwise.
func Verdict(result *types.RunResult, runErr error) error {
	if runErr != nil {
		return runErr
	}
	if result != nil && result.Failed() {
		return &BreachError{Pages: result.BreachedPages()}
	}
	return nil
}

// ExitCode maps a run to the process exit status: 0 when every page passed, 1 otherwise.
func ExitCode(result *types.RunResult, runErr error) int {
	if Verdict(result, runErr) != nil {
		return 1
	}
	return 0
}
