package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"regdiag/domain/core"
	"regdiag/domain/diagnostics"
)

// RunRepository stores diagnostics run reports in Postgres.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the diagnostic_runs table if it does not exist.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS diagnostic_runs (
			run_id          TEXT PRIMARY KEY,
			dataset         TEXT NOT NULL,
			response        TEXT NOT NULL,
			drop_fraction   DOUBLE PRECISION NOT NULL,
			alternative     TEXT NOT NULL,
			alpha           DOUBLE PRECISION NOT NULL,
			sample_size     INTEGER NOT NULL,
			predictor_count INTEGER NOT NULL,
			fingerprint     TEXT NOT NULL,
			report          JSONB NOT NULL,
			started_at      TIMESTAMPTZ NOT NULL,
			completed_at    TIMESTAMPTZ NOT NULL
		)`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create diagnostic_runs table: %w", err)
	}
	return nil
}

// SaveReport stores a completed run report.
func (r *RunRepository) SaveReport(ctx context.Context, report *diagnostics.RunReport) error {
	query := `
		INSERT INTO diagnostic_runs (
			run_id, dataset, response, drop_fraction, alternative, alpha,
			sample_size, predictor_count, fingerprint, report,
			started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}

	_, err = r.db.ExecContext(ctx, query,
		report.RunID.String(),
		report.Dataset,
		report.Response.String(),
		report.DropFraction,
		string(report.Alternative),
		report.Alpha,
		report.SampleSize,
		len(report.Predictors),
		report.Fingerprint.String(),
		reportJSON,
		report.StartedAt.Time(),
		report.CompletedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", report.RunID, err)
	}

	return nil
}

// GetReport fetches a stored report by run ID.
func (r *RunRepository) GetReport(ctx context.Context, runID core.RunID) (*diagnostics.RunReport, error) {
	query := `SELECT report FROM diagnostic_runs WHERE run_id = $1`

	var reportJSON []byte
	err := r.db.QueryRowContext(ctx, query, runID.String()).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("run", runID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run %s: %w", runID, err)
	}

	var report diagnostics.RunReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", runID, err)
	}
	return &report, nil
}

// ListReports returns run summaries, newest first.
func (r *RunRepository) ListReports(ctx context.Context, limit, offset int) ([]diagnostics.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT run_id, dataset, response, predictor_count, sample_size, started_at
		FROM diagnostic_runs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var summaries []diagnostics.RunSummary
	for rows.Next() {
		var (
			runID      string
			dataset    string
			response   string
			predictors int
			sampleSize int
			startedAt  time.Time
		)
		if err := rows.Scan(&runID, &dataset, &response, &predictors, &sampleSize, &startedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summaries = append(summaries, diagnostics.RunSummary{
			RunID:      core.RunID(runID),
			Dataset:    dataset,
			Response:   core.VariableKey(response),
			Predictors: predictors,
			SampleSize: sampleSize,
			StartedAt:  core.NewTimestamp(startedAt),
		})
	}
	return summaries, rows.Err()
}
