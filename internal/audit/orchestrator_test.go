package audit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/lighthouse-audit/internal/report"
	"github.com/jonathan/lighthouse-audit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	performed [][]types.Step
	failOn    int // 1-based call that fails; 0 never
	closed    int
}

func (s *fakeSession) Perform(_ context.Context, steps []types.Step) (string, error) {
	s.performed = append(s.performed, steps)
	if s.failOn == len(s.performed) {
		return "", errors.New("element not found")
	}
	last := steps[len(steps)-1]
	if last.URL != "" {
		return last.URL, nil
	}
	return steps[0].URL + "/next", nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeAuditor struct {
	scores map[string]types.Scores
	err    error
	urls   []string
}

func (a *fakeAuditor) Audit(_ context.Context, url string) (*types.AuditResult, error) {
	a.urls = append(a.urls, url)
	if a.err != nil {
		return nil, a.err
	}
	return &types.AuditResult{
		RequestedURL: url,
		FinalURL:     url,
		Scores:       a.scores[url],
		JSON:         []byte(`{}`),
		HTML:         []byte(`<html></html>`),
	}, nil
}

type fakeWriter struct {
	names []string
}

func (w *fakeWriter) Write(name string, _ *types.AuditResult) []types.ArtifactResult {
	w.names = append(w.names, name)
	return []types.ArtifactResult{{Kind: types.ArtifactHTML}, {Kind: types.ArtifactJSON}, {Kind: types.ArtifactScores}}
}

type fakeNotifier struct {
	sent []*types.AlertPayload
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, p *types.AlertPayload) error {
	n.sent = append(n.sent, p)
	return n.err
}

type fakeRecorder struct {
	started   []uuid.UUID
	pages     []string
	completed []string
	pageErr   error
}

func (r *fakeRecorder) StartRun(_ context.Context, id uuid.UUID, _ string) error {
	r.started = append(r.started, id)
	return nil
}

func (r *fakeRecorder) RecordPage(_ context.Context, _ uuid.UUID, p *types.PageOutcome) error {
	r.pages = append(r.pages, p.ReportName)
	return r.pageErr
}

func (r *fakeRecorder) CompleteRun(_ context.Context, _ uuid.UUID, status string) error {
	r.completed = append(r.completed, status)
	return nil
}

const (
	homeURL     = "https://www.nature.com"
	subjectsURL = "https://www.nature.com/subjects"
)

var (
	passingScores = types.Scores{
		types.CategoryPerformance:   0.95,
		types.CategoryAccessibility: 0.90,
		types.CategoryBestPractices: 0.85,
		types.CategorySEO:           0.92,
	}
	failingScores = types.Scores{
		types.CategoryPerformance:   0.70,
		types.CategoryAccessibility: 0.90,
		types.CategoryBestPractices: 0.85,
		types.CategorySEO:           0.92,
	}
)

func homePage() types.Page {
	return types.Page{URL: homeURL, ReportName: "Nature Homepage"}
}

func subjectsPage() types.Page {
	return types.Page{URL: subjectsURL, ReportName: "Nature Subjects"}
}

type harness struct {
	session  *fakeSession
	auditor  *fakeAuditor
	writer   *fakeWriter
	notifier *fakeNotifier
	out      *bytes.Buffer
	orch     *Orchestrator
}

func newHarness(scores map[string]types.Scores) *harness {
	h := &harness{
		session:  &fakeSession{},
		auditor:  &fakeAuditor{scores: scores},
		writer:   &fakeWriter{},
		notifier: &fakeNotifier{},
		out:      &bytes.Buffer{},
	}
	factory := func(context.Context) (Session, error) { return h.session, nil }
	h.orch = New(Options{AppName: "Nature", Out: h.out}, factory, h.auditor, h.writer).WithNotifier(h.notifier)
	return h
}

func TestRun_AllPagesPass(t *testing.T) {
	h := newHarness(map[string]types.Scores{homeURL: passingScores})

	result, err := h.orch.Run(context.Background(), []types.Page{homePage()})
	require.NoError(t, err)

	require.Len(t, result.Pages, 1)
	assert.False(t, result.Pages[0].Evaluation.Failed)
	assert.Empty(t, h.notifier.sent)
	assert.False(t, result.Failed())
	assert.Equal(t, 0, ExitCode(result, err))
	assert.NoError(t, Verdict(result, err))
	assert.Equal(t, 1, h.session.closed)
	assert.Contains(t, h.out.String(), "All scores at or above baseline")
}

func TestRun_PerformanceBreach(t *testing.T) {
	h := newHarness(map[string]types.Scores{homeURL: failingScores})

	result, err := h.orch.Run(context.Background(), []types.Page{homePage()})
	require.NoError(t, err)

	require.Len(t, h.notifier.sent, 1)
	alert := h.notifier.sent[0]
	assert.Equal(t, types.CategoryPerformance, alert.Category)
	assert.Equal(t, result.RunID.String(), alert.RunID)
	require.Len(t, alert.Fields, 4)
	assert.True(t, result.Pages[0].AlertSent)
	assert.True(t, result.Failed())
	assert.Equal(t, 1, ExitCode(result, err))

	var breach *BreachError
	require.True(t, errors.As(Verdict(result, err), &breach))
	assert.Len(t, breach.Pages, 1)
	assert.Contains(t, h.out.String(), "Nature: Performance score 70% for Nature Homepage is less than the defined baseline of 80%")
}

func TestRun_SecondPageFails(t *testing.T) {
	h := newHarness(map[string]types.Scores{
		homeURL:     passingScores,
		subjectsURL: failingScores,
	})

	result, err := h.orch.Run(context.Background(), []types.Page{homePage(), subjectsPage()})
	require.NoError(t, err)

	require.Len(t, result.Pages, 2)
	assert.False(t, result.Pages[0].Evaluation.Failed)
	assert.True(t, result.Pages[1].Evaluation.Failed)
	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, "Nature Subjects", h.notifier.sent[0].ReportName)
	assert.Equal(t, 1, ExitCode(result, err))
	assert.Equal(t, []string{"Nature Homepage", "Nature Subjects"}, h.writer.names)
	assert.Equal(t, 1, h.session.closed)
}

func TestRun_ReportWriteFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ReportHTML-NatureHomepage.html"), 0755))

	h := newHarness(map[string]types.Scores{homeURL: passingScores})
	factory := func(context.Context) (Session, error) { return h.session, nil }
	orch := New(Options{AppName: "Nature", Out: h.out}, factory, h.auditor, report.NewWriter(dir, false)).WithNotifier(h.notifier)

	result, err := orch.Run(context.Background(), []types.Page{homePage()})
	require.NoError(t, err)

	page := result.Pages[0]
	failed := page.ArtifactErrors()
	require.Len(t, failed, 1)
	assert.Equal(t, types.ArtifactHTML, failed[0].Kind)
	assert.FileExists(t, filepath.Join(dir, "ReportJSON-NatureHomepage.json"))
	assert.FileExists(t, filepath.Join(dir, "ReportScores-NatureHomepage.txt"))
	assert.False(t, page.Evaluation.Failed)
	assert.Equal(t, 0, ExitCode(result, err))
	assert.Contains(t, h.out.String(), "1 of 3 report artifact(s) could not be written")
}

func TestRun_DeliveryFailureDoesNotChangeOutcome(t *testing.T) {
	h := newHarness(map[string]types.Scores{homeURL: failingScores, subjectsURL: passingScores})
	h.notifier.err = errors.New("webhook down")

	result, err := h.orch.Run(context.Background(), []types.Page{homePage(), subjectsPage()})
	require.NoError(t, err)

	require.Len(t, result.Pages, 2)
	assert.False(t, result.Pages[0].AlertSent)
	assert.ErrorContains(t, result.Pages[0].AlertError, "webhook down")
	assert.True(t, result.Failed())
	assert.Equal(t, 1, ExitCode(result, err))
}

func TestRun_NoNotifierConfigured(t *testing.T) {
	h := newHarness(map[string]types.Scores{homeURL: failingScores})
	h.orch.notifier = nil

	result, err := h.orch.Run(context.Background(), []types.Page{homePage()})
	require.NoError(t, err)

	assert.True(t, result.Failed())
	assert.False(t, result.Pages[0].AlertSent)
	assert.NoError(t, result.Pages[0].AlertError)
}

func TestRun_SessionAcquisitionFailureAborts(t *testing.T) {
	h := newHarness(nil)
	factory := func(context.Context) (Session, error) { return nil, errors.New("chrome not found") }
	orch := New(Options{AppName: "Nature", Out: h.out}, factory, h.auditor, h.writer)

	result, err := orch.Run(context.Background(), []types.Page{homePage()})
	require.Error(t, err)

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, StageSession, abort.Stage)
	assert.Empty(t, result.Pages)
	assert.Empty(t, h.auditor.urls)
	assert.Equal(t, 1, ExitCode(result, err))
}

func TestRun_NavigationFailureAbortsAndReleasesSession(t *testing.T) {
	h := newHarness(map[string]types.Scores{homeURL: passingScores})
	h.session.failOn = 2

	result, err := h.orch.Run(context.Background(), []types.Page{homePage(), subjectsPage()})
	require.Error(t, err)

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, StageNavigate, abort.Stage)
	assert.Equal(t, "Nature Subjects", abort.ReportName)
	assert.Len(t, result.Pages, 1)
	assert.Equal(t, 1, h.session.closed)
	assert.Equal(t, 1, ExitCode(result, err))
}

func TestRun_AuditFailureAbortsAndReleasesSession(t *testing.T) {
	h := newHarness(nil)
	h.auditor.err = errors.New("lighthouse crashed")

	result, err := h.orch.Run(context.Background(), []types.Page{homePage(), subjectsPage()})
	require.Error(t, err)

	var abort *AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, StageAudit, abort.Stage)
	assert.ErrorContains(t, err, "lighthouse crashed")
	assert.Empty(t, result.Pages)
	assert.Len(t, h.auditor.urls, 1)
	assert.Equal(t, 1, h.session.closed)
}

func TestRun_AuditsCurrentURLAfterSteps(t *testing.T) {
	h := newHarness(nil)
	page := types.Page{
		URL:        subjectsURL,
		ReportName: "Nature Subjects Cancer",
		Steps: []types.Step{
			{Action: types.StepGoto, URL: subjectsURL},
			{Action: types.StepClick, Selector: "a[data-track-label='Cancer']", WaitNavigation: true},
		},
	}

	result, err := h.orch.Run(context.Background(), []types.Page{page})
	require.NoError(t, err)

	assert.Equal(t, []string{subjectsURL + "/next"}, h.auditor.urls)
	assert.Equal(t, subjectsURL+"/next", result.Pages[0].AuditedURL)
	assert.Equal(t, subjectsURL, result.Pages[0].RequestedURL)
	require.Len(t, h.session.performed, 1)
	assert.Len(t, h.session.performed[0], 2)
}

func TestRun_RecorderLifecycle(t *testing.T) {
	h := newHarness(map[string]types.Scores{homeURL: passingScores, subjectsURL: failingScores})
	rec := &fakeRecorder{pageErr: errors.New("db down")}
	h.orch.WithRecorder(rec)

	result, err := h.orch.Run(context.Background(), []types.Page{homePage(), subjectsPage()})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{result.RunID}, rec.started)
	assert.Equal(t, []string{"Nature Homepage", "Nature Subjects"}, rec.pages)
	assert.Equal(t, []string{StatusFailed}, rec.completed)
	assert.ErrorContains(t, result.Pages[0].PersistError, "db down")
	assert.Equal(t, 1, ExitCode(result, err))
}

func TestRun_RecorderMarksAbortedRun(t *testing.T) {
	h := newHarness(nil)
	h.auditor.err = errors.New("boom")
	rec := &fakeRecorder{}
	h.orch.WithRecorder(rec)

	_, err := h.orch.Run(context.Background(), []types.Page{homePage()})
	require.Error(t, err)

	assert.Equal(t, []string{StatusAborted}, rec.completed)
}

func TestProcess_CustomBaseline(t *testing.T) {
	h := newHarness(nil)
	orch := New(Options{AppName: "Nature", Out: h.out, Baseline: types.Baseline{types.CategorySEO: 0.95}}, nil, h.auditor, h.writer)
	run := orch.NewRun()

	outcome := orch.Process(context.Background(), run, homePage(), &types.AuditResult{RequestedURL: homeURL, Scores: failingScores})

	require.True(t, outcome.Evaluation.Failed)
	assert.Equal(t, types.CategorySEO, outcome.Evaluation.Alert.Category)
	assert.Len(t, outcome.Evaluation.Alert.Fields, 1)
	assert.Len(t, run.Pages, 1)
}

func TestBreachError_Message(t *testing.T) {
	err := &BreachError{Pages: []types.PageOutcome{{ReportName: "A"}, {ReportName: "B"}}}
	assert.Equal(t, "scores below baseline on 2 page(s): A, B", err.Error())
}
