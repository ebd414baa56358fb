package types

import (
	"time"

	"github.com/google/uuid"
)

// Artifact kinds written per page.
const (
	ArtifactHTML   = "html"
	ArtifactJSON   = "json"
	ArtifactScores = "scores"
)

// ArtifactResult records the outcome of writing one report artifact.
type ArtifactResult struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
	// Skipped is set when the audit produced no content for the artifact.
	Skipped bool  `json:"skipped,omitempty"`
	Err     error `json:"-"`
}

// PageOutcome accumulates everything that happened for one audited page.
type PageOutcome struct {
	ReportName   string            `json:"report_name"`
	RequestedURL string            `json:"requested_url"`
	AuditedURL   string            `json:"audited_url"`
	Scores       Scores            `json:"scores"`
	Evaluation   EvaluationOutcome `json:"evaluation"`
	Artifacts    []ArtifactResult  `json:"artifacts"`
	AlertSent    bool              `json:"alert_sent"`
	AlertError   error             `json:"-"`
	PersistError error             `json:"-"`
}

// ArtifactErrors returns the artifacts that could not be written.
func (p *PageOutcome) ArtifactErrors() []ArtifactResult {
	var failed []ArtifactResult
	for _, a := range p.Artifacts {
		if a.Err != nil {
			failed = append(failed, a)
		}
	}
	return failed
}

// RunResult is the ordered accumulation of page outcomes for one run.
type RunResult struct {
	RunID      uuid.UUID     `json:"run_id"`
	AppName    string        `json:"app_name"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Pages      []PageOutcome `json:"pages"`
}

// Failed reports whether any page fell below its baseline.
func (r *RunResult) Failed() bool {
	return len(r.BreachedPages()) > 0
}

// BreachedPages returns the pages whose evaluation failed, in run order.
func (r *RunResult) BreachedPages() []PageOutcome {
	var breached []PageOutcome
	for _, p := range r.Pages {
		if p.Evaluation.Failed {
			breached = append(breached, p)
		}
	}
	return breached
}

// AlertsSent counts delivered alerts.
func (r *RunResult) AlertsSent() int {
	n := 0
	for _, p := range r.Pages {
		if p.AlertSent {
			n++
		}
	}
	return n
}
