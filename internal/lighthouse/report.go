package lighthouse

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/lighthouse-audit/internal/types"
)

// Report is the subset of the Lighthouse result (LHR) the audit needs.
type Report struct {
	LighthouseVersion string                    `json:"lighthouseVersion"`
	RequestedURL      string                    `json:"requestedUrl"`
	FinalURL          string                    `json:"finalUrl"`
	FinalDisplayedURL string                    `json:"finalDisplayedUrl"`
	FetchTime         time.Time                 `json:"fetchTime"`
	Categories        map[string]ReportCategory `json:"categories"`
	RuntimeError      *RuntimeError             `json:"runtimeError,omitempty"`
}

// ReportCategory is one entry of the LHR categories object. Score is null when
// Lighthouse could not compute it.
type ReportCategory struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Score *float64 `json:"score"`
}

// RuntimeError is set by Lighthouse when the page could not be loaded.
type RuntimeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseReport decodes an LHR document.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse Lighthouse JSON: %w", err)
	}
	return &r, nil
}

// Scores extracts the known category scores. Categories that are absent or
// have a null score are left out.
func (r *Report) Scores() types.Scores {
	scores := make(types.Scores, len(types.Categories))
	for _, c := range types.Categories {
		cat, ok := r.Categories[string(c)]
		if !ok || cat.Score == nil {
			continue
		}
		scores[c] = *cat.Score
	}
	return scores
}

// AuditedURL returns the final URL the report describes.
func (r *Report) AuditedURL() string {
	switch {
	case r.FinalDisplayedURL != "":
		return r.FinalDisplayedURL
	case r.FinalURL != "":
		return r.FinalURL
	default:
		return r.RequestedURL
	}
}

// Result converts a parsed report and its raw artifacts into an AuditResult.
func (r *Report) Result(jsonReport, htmlReport []byte) *types.AuditResult {
	return &types.AuditResult{
		RequestedURL: r.RequestedURL,
		FinalURL:     r.AuditedURL(),
		FetchTime:    r.FetchTime,
		Scores:       r.Scores(),
		JSON:         jsonReport,
		HTML:         htmlReport,
	}
}
