package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/lighthouse-audit/internal/types"
)

// Session is an exclusively owned browser session.
type Session interface {
	// Perform runs navigation steps and returns the URL the page ends on.
	Perform(ctx context.Context, steps []types.Step) (string, error)
	Close() error
}

// SessionFactory acquires a browser session for one run.
type SessionFactory func(ctx context.Context) (Session, error)

// Auditor produces scores for a URL.
type Auditor interface {
	Audit(ctx context.Context, url string) (*types.AuditResult, error)
}

// ReportWriter persists report artifacts, reporting failures per artifact.
type ReportWriter interface {
	Write(name string, result *types.AuditResult) []types.ArtifactResult
}

// Notifier delivers breach alerts.
type Notifier interface {
	Send(ctx context.Context, payload *types.AlertPayload) error
}

// Recorder keeps score history.
type Recorder interface {
	StartRun(ctx context.Context, runID uuid.UUID, appName string) error
	RecordPage(ctx context.Context, runID uuid.UUID, page *types.PageOutcome) error
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
}

// Run statuses passed to Recorder.CompleteRun.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusAborted = "aborted"
)
