package db

import (
	"time"

	"github.com/google/uuid"
)

// Run represents an audit run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	AppName     string     `json:"app_name"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PageScore represents the scores recorded for one page of a run. Nil scores
// were not produced by the audit.
type PageScore struct {
	RunID          uuid.UUID `json:"run_id"`
	ReportName     string    `json:"report_name"`
	RequestedURL   string    `json:"requested_url"`
	AuditedURL     string    `json:"audited_url"`
	Performance    *float64  `json:"performance,omitempty"`
	Accessibility  *float64  `json:"accessibility,omitempty"`
	BestPractices  *float64  `json:"best_practices,omitempty"`
	SEO            *float64  `json:"seo,omitempty"`
	Failed         bool      `json:"failed"`
	FailedCategory string    `json:"failed_category,omitempty"`
	AlertSent      bool      `json:"alert_sent"`
	CreatedAt      time.Time `json:"created_at"`
}
