package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"regdiag/adapters/stats/hetero"
	"regdiag/domain/core"
	"regdiag/domain/diagnostics"
	"regdiag/internal"
	"regdiag/internal/profiling"
	"regdiag/ports"
)

// DiagnosticsService fits a single-predictor OLS model per predictor,
// profiles its residuals, and runs the Goldfeld-Quandt heteroscedasticity
// test, collecting everything into a RunReport.
type DiagnosticsService struct {
	fitter   ports.LineFitterPort
	tester   *hetero.Tester
	profiler *profiling.ResidualAnalyzer
	repo     ports.RunRepositoryPort // nil disables persistence
	logger   *internal.Logger
}

// RunRequest defines the inputs for one diagnostics run.
type RunRequest struct {
	Source       ports.DatasetSourcePort
	Response     core.VariableKey
	Predictors   []core.VariableKey
	DropFraction float64
	Alternative  diagnostics.Alternative
	Alpha        float64 // defaults to 0.05 when zero
}

// NewDiagnosticsService creates a diagnostics service. repo may be nil when
// persistence is disabled.
func NewDiagnosticsService(fitter ports.LineFitterPort, repo ports.RunRepositoryPort, logger *internal.Logger) *DiagnosticsService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DiagnosticsService{
		fitter:   fitter,
		tester:   hetero.NewTester(fitter),
		profiler: profiling.NewResidualAnalyzer(),
		repo:     repo,
		logger:   logger,
	}
}

// Run executes diagnostics for every requested predictor. Predictors are
// independent, so they run concurrently; report order matches request order.
func (s *DiagnosticsService) Run(ctx context.Context, req RunRequest) (*diagnostics.RunReport, error) {
	startedAt := time.Now()

	if req.Source == nil {
		return nil, core.NewInvalidArgumentError("source", "dataset source is required")
	}
	if len(req.Predictors) == 0 {
		return nil, core.NewInvalidArgumentError("predictors", "at least one predictor is required")
	}
	alt := req.Alternative
	if alt == "" {
		alt = diagnostics.AlternativeTwoSided
	}
	if _, err := diagnostics.ParseAlternative(string(alt)); err != nil {
		return nil, err
	}
	alpha := req.Alpha
	if alpha == 0 {
		alpha = 0.05
	}
	if alpha < 0 || alpha >= 1 {
		return nil, core.NewInvalidArgumentError("alpha", fmt.Sprintf("must be in (0, 1), got %g", alpha))
	}

	response, err := req.Source.Column(req.Response)
	if err != nil {
		return nil, err
	}

	s.logger.Info("diagnostics run: dataset=%s response=%s predictors=%d drop=%.3f alt=%s",
		req.Source.Name(), req.Response, len(req.Predictors), req.DropFraction, alt)

	results := make([]diagnostics.PredictorDiagnostic, len(req.Predictors))

	g, gctx := errgroup.WithContext(ctx)
	for i, key := range req.Predictors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			diag, err := s.diagnosePredictor(key, response, req.Source, req.DropFraction, alt, alpha)
			if err != nil {
				return fmt.Errorf("predictor %s: %w", key, err)
			}
			results[i] = *diag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	completedAt := time.Now()
	report := &diagnostics.RunReport{
		RunID:        core.RunID(core.NewID()),
		Dataset:      req.Source.Name(),
		Response:     req.Response,
		DropFraction: req.DropFraction,
		Alternative:  alt,
		Alpha:        alpha,
		SampleSize:   len(response),
		Predictors:   results,
		StartedAt:    core.NewTimestamp(startedAt),
		CompletedAt:  core.NewTimestamp(completedAt),
		RuntimeMs:    completedAt.Sub(startedAt).Milliseconds(),
	}
	report.Fingerprint = fingerprint(report)

	if s.repo != nil {
		if err := s.repo.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to persist run %s: %w", report.RunID, err)
		}
	}

	return report, nil
}

func (s *DiagnosticsService) diagnosePredictor(key core.VariableKey, response []float64, source ports.DatasetSourcePort, drop float64, alt diagnostics.Alternative, alpha float64) (*diagnostics.PredictorDiagnostic, error) {
	x, err := source.Column(key)
	if err != nil {
		return nil, err
	}

	fit, err := s.fitter.Fit(x, response)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiler.Profile(fit.Residuals)
	if err != nil {
		return nil, err
	}

	gq, err := s.tester.GoldfeldQuandt(x, response, drop, alt)
	if err != nil {
		return nil, err
	}

	decision := diagnostics.DecisionFailToReject
	if gq.PValue < alpha {
		decision = diagnostics.DecisionReject
	}

	return &diagnostics.PredictorDiagnostic{
		Predictor:      key,
		Fit:            fit.Summary,
		Residuals:      profile,
		GoldfeldQuandt: gq,
		Decision:       decision,
	}, nil
}

// fingerprint hashes the run's inputs and results so identical inputs are
// verifiably reproducible. RunID and wall-clock fields are excluded.
func fingerprint(r *diagnostics.RunReport) core.Hash {
	payload := struct {
		Dataset      string                            `json:"dataset"`
		Response     core.VariableKey                  `json:"response"`
		DropFraction float64                           `json:"drop_fraction"`
		Alternative  diagnostics.Alternative           `json:"alternative"`
		Alpha        float64                           `json:"alpha"`
		SampleSize   int                               `json:"sample_size"`
		Predictors   []diagnostics.PredictorDiagnostic `json:"predictors"`
	}{
		Dataset:      r.Dataset,
		Response:     r.Response,
		DropFraction: r.DropFraction,
		Alternative:  r.Alternative,
		Alpha:        r.Alpha,
		SampleSize:   r.SampleSize,
		Predictors:   r.Predictors,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return core.NewHash(data)
}
