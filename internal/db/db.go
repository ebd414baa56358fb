// Package db provides PostgreSQL storage for audit run history.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/lighthouse-audit/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the audit tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// StartRun inserts a run record in the running state
func (db *DB) StartRun(ctx context.Context, runID uuid.UUID, appName string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO audit_runs (id, app_name, status) VALUES ($1, $2, 'running')`,
		runID, appName,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun marks a run as finished with the given status
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE audit_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// RecordPage stores the scores and evaluation of one page
func (db *DB) RecordPage(ctx context.Context, runID uuid.UUID, page *types.PageOutcome) error {
	ps := NewPageScore(runID, page)
	_, err := db.pool.Exec(ctx,
		`INSERT INTO page_scores (run_id, report_name, requested_url, audited_url,
		     performance, accessibility, best_practices, seo, failed, failed_category, alert_sent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11)
		 ON CONFLICT (run_id, report_name) DO UPDATE SET
		     audited_url = $4, performance = $5, accessibility = $6, best_practices = $7, seo = $8,
		     failed = $9, failed_category = NULLIF($10, ''), alert_sent = $11, created_at = NOW()`,
		ps.RunID, ps.ReportName, ps.RequestedURL, ps.AuditedURL,
		ps.Performance, ps.Accessibility, ps.BestPractices, ps.SEO,
		ps.Failed, ps.FailedCategory, ps.AlertSent,
	)
	if err != nil {
		return fmt.Errorf("failed to record scores for %s: %w", page.ReportName, err)
	}
	return nil
}

// NewPageScore flattens a page outcome into a row
func NewPageScore(runID uuid.UUID, page *types.PageOutcome) PageScore {
	ps := PageScore{
		RunID:        runID,
		ReportName:   page.ReportName,
		RequestedURL: page.RequestedURL,
		AuditedURL:   page.AuditedURL,
		Failed:       page.Evaluation.Failed,
		AlertSent:    page.AlertSent,
	}
	if alert := page.Evaluation.Alert; alert != nil {
		ps.FailedCategory = string(alert.Category)
	}
	ps.Performance = scorePtr(page.Scores, types.CategoryPerformance)
	ps.Accessibility = scorePtr(page.Scores, types.CategoryAccessibility)
	ps.BestPractices = scorePtr(page.Scores, types.CategoryBestPractices)
	ps.SEO = scorePtr(page.Scores, types.CategorySEO)
	return ps
}

func scorePtr(scores types.Scores, c types.Category) *float64 {
	score, ok := scores.Get(c)
	if !ok {
		return nil
	}
	return &score
}

// GetRun retrieves an audit run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, app_name, status, created_at, completed_at FROM audit_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.AppName, &run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// RecentScores returns the latest recorded scores for a report name, newest first
func (db *DB) RecentScores(ctx context.Context, reportName string, limit int) ([]PageScore, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT run_id, report_name, requested_url, audited_url,
		        performance, accessibility, best_practices, seo,
		        failed, COALESCE(failed_category, ''), alert_sent, created_at
		 FROM page_scores WHERE report_name = $1
		 ORDER BY created_at DESC LIMIT $2`,
		reportName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []PageScore
	for rows.Next() {
		var ps PageScore
		if err := rows.Scan(&ps.RunID, &ps.ReportName, &ps.RequestedURL, &ps.AuditedURL,
			&ps.Performance, &ps.Accessibility, &ps.BestPractices, &ps.SEO,
			&ps.Failed, &ps.FailedCategory, &ps.AlertSent, &ps.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scores: %w", err)
		}
		scores = append(scores, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}
