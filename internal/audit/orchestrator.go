package audit

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/lighthouse-audit/internal/evaluation"
	"github.com/jonathan/lighthouse-audit/internal/types"
)

// Options configures the evaluation side of a run.
type Options struct {
	AppName  string
	Baseline types.Baseline
	// Out receives progress lines; defaults to stdout.
	Out     io.Writer
	Verbose bool
}

// Orchestrator runs pages strictly one after another in a single browser session.
type Orchestrator struct {
	opts       Options
	newSession SessionFactory
	auditor    Auditor
	writer     ReportWriter
	notifier   Notifier
	recorder   Recorder
}

// New creates an Orchestrator. Notifier and Recorder are optional.
func New(opts Options, newSession SessionFactory, auditor Auditor, writer ReportWriter) *Orchestrator {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Baseline == nil {
		opts.Baseline = types.DefaultBaseline()
	}
	return &Orchestrator{
		opts:       opts,
		newSession: newSession,
		auditor:    auditor,
		writer:     writer,
	}
}

// WithNotifier sets the alert dispatcher.
func (o *Orchestrator) WithNotifier(n Notifier) *Orchestrator {
	o.notifier = n
	return o
}

// WithRecorder sets the score history store.
func (o *Orchestrator) WithRecorder(r Recorder) *Orchestrator {
	o.recorder = r
	return o
}

// NewRun starts an empty run result.
func (o *Orchestrator) NewRun() *types.RunResult {
	return &types.RunResult{
		RunID:     uuid.New(),
		AppName:   o.opts.AppName,
		StartedAt: time.Now(),
	}
}

// Run audits every page in order. The browser session is released on every
// exit path. A failure to acquire the session, navigate or audit aborts the
// run; the pages completed so far are still returned.
func (o *Orchestrator) Run(ctx context.Context, pages []types.Page) (*types.RunResult, error) {
	result := o.NewRun()
	o.startRun(ctx, result)

	runErr := o.runPages(ctx, result, pages)

	result.FinishedAt = time.Now()
	o.completeRun(ctx, result, runErr)
	return result, runErr
}

func (o *Orchestrator) runPages(ctx context.Context, result *types.RunResult, pages []types.Page) error {
	o.printf("Starting audit run %s (%d page(s))\n", result.RunID, len(pages))

	session, err := o.newSession(ctx)
	if err != nil {
		return &AbortError{Stage: StageSession, Cause: err}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Printf("[BROWSER] Warning: failed to release browser session: %v", cerr)
		}
	}()

	for i, page := range pages {
		o.printf("Page %d/%d: %s\n", i+1, len(pages), page.ReportName)

		currentURL, err := session.Perform(ctx, page.NavigationSteps())
		if err != nil {
			return &AbortError{Stage: StageNavigate, ReportName: page.ReportName, Cause: err}
		}
		if o.opts.Verbose {
			log.Printf("[AUDIT] Auditing current URL %s", currentURL)
		}

		auditResult, err := o.auditor.Audit(ctx, currentURL)
		if err != nil {
			return &AbortError{Stage: StageAudit, ReportName: page.ReportName, Cause: err}
		}

		o.Process(ctx, result, page, auditResult)
	}
	return nil
}

// Process reports, evaluates and notifies for one audited page and appends the
// outcome to result. Nothing here aborts the run.
func (o *Orchestrator) Process(ctx context.Context, result *types.RunResult, page types.Page, auditResult *types.AuditResult) *types.PageOutcome {
	pageURL := auditResult.AuditedURL()
	if pageURL == "" {
		pageURL = page.URL
	}

	outcome := types.PageOutcome{
		ReportName:   page.ReportName,
		RequestedURL: page.URL,
		AuditedURL:   pageURL,
		Scores:       auditResult.Scores,
	}

	outcome.Artifacts = o.writer.Write(page.ReportName, auditResult)
	if failed := outcome.ArtifactErrors(); len(failed) > 0 {
		o.printf("  Warning: %d of %d report artifact(s) could not be written\n", len(failed), len(outcome.Artifacts))
	}

	outcome.Evaluation = evaluation.Evaluate(evaluation.Input{
		AppName:    o.opts.AppName,
		PageURL:    pageURL,
		ReportName: page.ReportName,
		Scores:     auditResult.Scores,
		Baseline:   o.opts.Baseline,
	})

	if alert := outcome.Evaluation.Alert; alert != nil {
		alert.RunID = result.RunID.String()
		o.printf("  %s\n", evaluation.Summary(alert))
		o.dispatch(ctx, &outcome)
	} else {
		o.printf("  All scores at or above baseline\n")
	}

	if o.recorder != nil {
		if err := o.recorder.RecordPage(ctx, result.RunID, &outcome); err != nil {
			outcome.PersistError = err
			log.Printf("[DB] Warning: failed to record %s: %v", page.ReportName, err)
		}
	}

	result.Pages = append(result.Pages, outcome)
	return &result.Pages[len(result.Pages)-1]
}

func (o *Orchestrator) dispatch(ctx context.Context, outcome *types.PageOutcome) {
	if o.notifier == nil {
		log.Printf("[NOTIFY] No notification destination configured; alert for %s not sent", outcome.ReportName)
		return
	}
	if err := o.notifier.Send(ctx, outcome.Evaluation.Alert); err != nil {
		outcome.AlertError = err
		log.Printf("[NOTIFY] Warning: alert for %s not delivered: %v", outcome.ReportName, err)
		return
	}
	outcome.AlertSent = true
	o.printf("  Alert sent: scores below baseline\n")
}

func (o *Orchestrator) startRun(ctx context.Context, result *types.RunResult) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.StartRun(ctx, result.RunID, result.AppName); err != nil {
		log.Printf("[DB] Warning: failed to record run start: %v", err)
	}
}

func (o *Orchestrator) completeRun(ctx context.Context, result *types.RunResult, runErr error) {
	if o.recorder == nil {
		return
	}
	status := StatusPassed
	switch {
	case runErr != nil:
		status = StatusAborted
	case result.Failed():
		status = StatusFailed
	}
	if err := o.recorder.CompleteRun(ctx, result.RunID, status); err != nil {
		log.Printf("[DB] Warning: failed to record run completion: %v", err)
	}
}

//nolint:errcheck // progress output; errors are not recoverable
func (o *Orchestrator) printf(format string, args ...any) {
	fmt.Fprintf(o.opts.Out, format, args...)
}
