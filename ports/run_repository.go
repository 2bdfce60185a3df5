package ports

import (
	"context"

	"regdiag/domain/core"
	"regdiag/domain/diagnostics"
)

// RunRepositoryPort persists diagnostics run reports.
type RunRepositoryPort interface {
	// SaveReport stores a completed run report.
	SaveReport(ctx context.Context, report *diagnostics.RunReport) error

	// GetReport fetches a stored report by run ID.
	// Returns core.ErrRunNotFound when absent.
	GetReport(ctx context.Context, runID core.RunID) (*diagnostics.RunReport, error)

	// ListReports returns run summaries, newest first.
	ListReports(ctx context.Context, limit, offset int) ([]diagnostics.RunSummary, error)
}
