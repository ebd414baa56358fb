package types

import "time"

// AuditResult is the outcome of one Lighthouse run against a page.
type AuditResult struct {
	RequestedURL string    `json:"requested_url"`
	FinalURL     string    `json:"final_url"`
	FetchTime    time.Time `json:"fetch_time"`
	Scores       Scores    `json:"scores"`
	// JSON is the raw Lighthouse result (LHR) document.
	JSON []byte `json:"-"`
	// HTML is the rendered Lighthouse HTML report.
	HTML []byte `json:"-"`
}

// AuditedURL returns the URL Lighthouse ended up auditing.
func (r *AuditResult) AuditedURL() string {
	if r.FinalURL != "" {
		return r.FinalURL
	}
	return r.RequestedURL
}
