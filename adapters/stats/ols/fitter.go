package ols

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"regdiag/domain/core"
	"regdiag/domain/diagnostics"
	"regdiag/ports"
)

// fitParams is the parameter count of the intercept-plus-slope model.
const fitParams = 2

// Fitter implements ports.LineFitterPort with an ordinary-least-squares
// fit of y on x (with intercept) backed by gonum.
type Fitter struct{}

// NewFitter creates a new OLS line fitter
func NewFitter() *Fitter {
	return &Fitter{}
}

// Fit regresses y on x with an intercept and returns the fitted line,
// fitted values, residuals and residual bookkeeping.
func (f *Fitter) Fit(x, y []float64) (*ports.FitResult, error) {
	if len(x) != len(y) {
		return nil, core.NewInvalidArgumentError("series",
			fmt.Sprintf("x has %d observations, y has %d", len(x), len(y)))
	}
	n := len(x)
	if n < fitParams {
		return nil, fmt.Errorf("%w: need at least %d observations, got %d",
			core.ErrInsufficientData, fitParams, n)
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			return nil, core.NewInvalidArgumentError("series",
				fmt.Sprintf("NaN at index %d", i))
		}
	}
	if constantSeries(x) {
		return nil, core.NewDegenerateFitError("predictor has zero variance")
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		return nil, core.NewDegenerateFitError("singular design matrix")
	}

	fitted := make([]float64, n)
	residuals := make([]float64, n)
	rss := 0.0
	tss := 0.0
	yMean := stat.Mean(y, nil)
	for i := range x {
		fitted[i] = alpha + beta*x[i]
		residuals[i] = y[i] - fitted[i]
		rss += residuals[i] * residuals[i]
		dev := y[i] - yMean
		tss += dev * dev
	}

	r2 := 0.0
	if tss > 0 {
		r2 = 1 - rss/tss
	}

	return &ports.FitResult{
		Summary: diagnostics.FitSummary{
			Intercept:  alpha,
			Slope:      beta,
			RSS:        rss,
			ResidualDF: n - fitParams,
			N:          n,
			RSquared:   r2,
		},
		Fitted:    fitted,
		Residuals: residuals,
	}, nil
}

func constantSeries(x []float64) bool {
	for i := 1; i < len(x); i++ {
		if x[i] != x[0] {
			return false
		}
	}
	return true
}
