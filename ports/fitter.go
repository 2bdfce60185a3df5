package ports

import (
	"regdiag/domain/diagnostics"
)

// FitResult carries the full output of one single-predictor OLS fit.
// Fitted and Residuals are index-aligned with the input series; both may
// be nil when a caller only needs the summary (the Goldfeld-Quandt test
// consumes RSS and residual degrees of freedom alone).
type FitResult struct {
	Summary   diagnostics.FitSummary
	Fitted    []float64
	Residuals []float64
}

// LineFitterPort abstracts the ordinary-least-squares fitting capability
// (intercept plus one predictor) so the variance-ratio logic can be tested
// against a stub with hand-computed residual sums.
type LineFitterPort interface {
	// Fit regresses y on x with an intercept. Returns
	// core.ErrInvalidArgument on mismatched lengths,
	// core.ErrInsufficientData for fewer than two observations, and
	// core.ErrDegenerateFit when the design matrix is singular
	// (zero variance in x).
	Fit(x, y []float64) (*FitResult, error)
}
