package lighthouse

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/lighthouse-audit/internal/types"
)

// DefaultBinary is the Lighthouse CLI looked up on PATH.
const DefaultBinary = "lighthouse"

// DefaultTimeout bounds a single Lighthouse run.
const DefaultTimeout = 3 * time.Minute

// maxStderrInError caps how much CLI output is copied into an AuditError.
const maxStderrInError = 2000

// Options configures the Lighthouse CLI invocation.
type Options struct {
	Binary string
	// Port is the remote debugging port of the Chrome instance to attach to.
	Port int
	// Preset is passed as --preset (e.g. "desktop"); empty uses Lighthouse's mobile default.
	Preset    string
	ExtraArgs []string
	Timeout   time.Duration
	Verbose   bool
}

// DefaultOptions returns the desktop audit configuration.
func DefaultOptions() Options {
	return Options{
		Binary:  DefaultBinary,
		Port:    9222,
		Preset:  "desktop",
		Timeout: DefaultTimeout,
	}
}

// Runner audits URLs by shelling out to the Lighthouse CLI.
type Runner struct {
	opts        Options
	execCommand func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// NewRunner creates a Runner. Zero-valued options fall back to defaults.
func NewRunner(opts Options) *Runner {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Runner{opts: opts, execCommand: exec.CommandContext}
}

// Audit runs Lighthouse against url, attached to the browser's debugging
// port, and returns the parsed scores together with the JSON and HTML reports.
func (r *Runner) Audit(ctx context.Context, url string) (*types.AuditResult, error) {
	workDir, err := os.MkdirTemp("", "lighthouse-")
	if err != nil {
		return nil, &AuditError{URL: url, Message: "failed to create work directory", Cause: err}
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	outputBase := filepath.Join(workDir, "lighthouse")
	args := r.args(url, outputBase)

	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	if r.opts.Verbose {
		log.Printf("[AUDIT] %s %s", r.opts.Binary, strings.Join(args, " "))
	}

	var stderr bytes.Buffer
	cmd := r.execCommand(runCtx, r.opts.Binary, args...)
	cmd.Stderr = &stderr
	if r.opts.Verbose {
		cmd.Stdout = os.Stdout
	}

	start := time.Now()
	if err := cmd.Run(); err != nil {
		msg := "lighthouse exited with an error"
		if runCtx.Err() == context.DeadlineExceeded {
			msg = fmt.Sprintf("lighthouse timed out after %s", r.opts.Timeout)
		}
		if tail := tailOf(stderr.String(), maxStderrInError); tail != "" {
			msg += ": " + tail
		}
		return nil, &AuditError{URL: url, Message: msg, Cause: err}
	}

	jsonReport, err := os.ReadFile(outputBase + ".report.json")
	if err != nil {
		return nil, &AuditError{URL: url, Message: "JSON report not produced", Cause: err}
	}
	htmlReport, err := os.ReadFile(outputBase + ".report.html")
	if err != nil {
		return nil, &AuditError{URL: url, Message: "HTML report not produced", Cause: err}
	}

	report, err := ParseReport(jsonReport)
	if err != nil {
		return nil, &AuditError{URL: url, Message: "invalid JSON report", Cause: err}
	}
	if report.RuntimeError != nil && report.RuntimeError.Code != "" {
		return nil, &AuditError{URL: url, Message: fmt.Sprintf("lighthouse runtime error %s: %s", report.RuntimeError.Code, report.RuntimeError.Message)}
	}

	if r.opts.Verbose {
		log.Printf("[AUDIT] Completed %s in %s", report.AuditedURL(), time.Since(start).Round(time.Millisecond))
	}

	return report.Result(jsonReport, htmlReport), nil
}

// args builds the CLI arguments. Requesting two outputs makes Lighthouse write
// <outputBase>.report.json and <outputBase>.report.html.
func (r *Runner) args(url, outputBase string) []string {
	args := []string{
		url,
		"--port=" + strconv.Itoa(r.opts.Port),
		"--output=json",
		"--output=html",
		"--output-path=" + outputBase,
	}
	if r.opts.Preset != "" {
		args = append(args, "--preset="+r.opts.Preset)
	}
	if !r.opts.Verbose {
		args = append(args, "--quiet")
	}
	return append(args, r.opts.ExtraArgs...)
}

func tailOf(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
