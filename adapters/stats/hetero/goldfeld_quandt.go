// Package hetero quantifies whether the error variance of a fitted
// single-predictor model differs systematically between the low and high
// ends of the predictor's range (the Goldfeld-Quandt test).
package hetero

import (
	"fmt"
	"math"
	"sort"

	"regdiag/domain/core"
	"regdiag/domain/diagnostics"
	"regdiag/internal/analysis"
	"regdiag/ports"
)

// groupParams is the parameter count of each per-group OLS sub-fit
// (intercept + slope).
const groupParams = 2

// Tester runs Goldfeld-Quandt heteroscedasticity tests. It is stateless
// and safe for concurrent use: every invocation allocates only local
// working storage around two independent sub-fits.
type Tester struct {
	fitter ports.LineFitterPort
	dist   *analysis.Distributions
}

// NewTester creates a Goldfeld-Quandt tester over the given OLS fitter.
func NewTester(fitter ports.LineFitterPort) *Tester {
	return &Tester{
		fitter: fitter,
		dist:   analysis.NewDistributions(),
	}
}

// SplitIndices partitions observations for the Goldfeld-Quandt test.
//
// Indices 0..n-1 are ordered by x ascending with ties broken by original
// index (stable sort), so the partition is deterministic. With
// k = floor(n * dropFraction / 2), the middle 2k sorted observations are
// discarded; of the remaining m = n - 2k, the low group takes the first
// floor(m/2) and the high group the trailing m - floor(m/2). For even n
// the groups are equal; for odd n the high group is one larger. The three
// parts always sum to n exactly.
func SplitIndices(x []float64, dropFraction float64) (diagnostics.SplitPlan, error) {
	n := len(x)
	if dropFraction < 0 || dropFraction >= 1 {
		return diagnostics.SplitPlan{}, core.NewInvalidArgumentError("dropFraction",
			fmt.Sprintf("must be in [0, 1), got %g", dropFraction))
	}
	if n < 2 {
		return diagnostics.SplitPlan{}, fmt.Errorf("%w: need at least 2 observations, got %d",
			core.ErrInsufficientData, n)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[order[a]] < x[order[b]]
	})

	k := int(math.Floor(float64(n) * dropFraction / 2))
	m := n - 2*k
	lowSize := m / 2
	highSize := m - lowSize

	low := make([]int, lowSize)
	copy(low, order[:lowSize])
	high := make([]int, highSize)
	copy(high, order[n-highSize:])

	return diagnostics.SplitPlan{
		Low:     low,
		High:    high,
		Dropped: 2 * k,
	}, nil
}

// GoldfeldQuandt tests equality of error variance between the low and high
// partitions of (x, y) ordered by x. The drop fraction is taken of the
// whole sorted sample, never of a pre-filtered subset.
//
// Each group is fit independently by OLS (intercept + slope); the statistic
// is the ratio of the groups' residual mean squares, referenced against the
// F distribution with the groups' residual degrees of freedom. For the
// decreasing alternative the ratio is inverted; for two-sided the smaller
// tail is doubled and capped at 1.
func (t *Tester) GoldfeldQuandt(x, y []float64, dropFraction float64, alt diagnostics.Alternative) (diagnostics.GQResult, error) {
	var zero diagnostics.GQResult

	if _, err := diagnostics.ParseAlternative(string(alt)); err != nil {
		return zero, err
	}
	if len(x) != len(y) {
		return zero, core.NewInvalidArgumentError("series",
			fmt.Sprintf("x has %d observations, y has %d", len(x), len(y)))
	}

	plan, err := SplitIndices(x, dropFraction)
	if err != nil {
		return zero, err
	}

	// Each sub-fit must leave at least one residual degree of freedom,
	// otherwise the variance ratio is undefined.
	if len(plan.Low) < groupParams+1 || len(plan.High) < groupParams+1 {
		return zero, core.NewInvalidArgumentError("dropFraction",
			fmt.Sprintf("group sizes %d/%d leave no residual degrees of freedom for %d-parameter fits",
				len(plan.Low), len(plan.High), groupParams))
	}

	lowFit, err := t.fitGroup(x, y, plan.Low)
	if err != nil {
		return zero, fmt.Errorf("low group: %w", err)
	}
	highFit, err := t.fitGroup(x, y, plan.High)
	if err != nil {
		return zero, fmt.Errorf("high group: %w", err)
	}

	if degenerateRSS(lowFit) || degenerateRSS(highFit) {
		return zero, core.NewDegenerateFitError("zero residual sum of squares in a sub-fit")
	}

	msLow := lowFit.RSS / float64(lowFit.ResidualDF)
	msHigh := highFit.RSS / float64(highFit.ResidualDF)

	var f float64
	var dfNum, dfDen int
	var pValue float64

	switch alt {
	case diagnostics.AlternativeDecreasing:
		f = msLow / msHigh
		dfNum, dfDen = lowFit.ResidualDF, highFit.ResidualDF
		pValue = t.dist.FUpperTail(f, dfNum, dfDen)
	case diagnostics.AlternativeTwoSided:
		f = msHigh / msLow
		dfNum, dfDen = highFit.ResidualDF, lowFit.ResidualDF
		pValue = t.dist.FTwoSided(f, dfNum, dfDen)
	default: // increasing
		f = msHigh / msLow
		dfNum, dfDen = highFit.ResidualDF, lowFit.ResidualDF
		pValue = t.dist.FUpperTail(f, dfNum, dfDen)
	}

	return diagnostics.GQResult{
		Statistic:     f,
		PValue:        pValue,
		Alternative:   alt,
		DFNumerator:   dfNum,
		DFDenominator: dfDen,
		LowSize:       len(plan.Low),
		HighSize:      len(plan.High),
		Dropped:       plan.Dropped,
		RSSLow:        lowFit.RSS,
		RSSHigh:       highFit.RSS,
	}, nil
}

// degenerateRSS reports whether a sub-fit left no usable residual
// variance. An exact linear relationship rarely yields a residual sum of
// squares of literal zero in floating point, so a fit that explains its
// group to machine precision is treated the same way.
func degenerateRSS(s diagnostics.FitSummary) bool {
	return s.RSS == 0 || 1-s.RSquared <= 1e-12
}

// fitGroup runs the OLS sub-fit over the selected observation indices.
func (t *Tester) fitGroup(x, y []float64, idx []int) (diagnostics.FitSummary, error) {
	gx := make([]float64, len(idx))
	gy := make([]float64, len(idx))
	for i, j := range idx {
		gx[i] = x[j]
		gy[i] = y[j]
	}

	res, err := t.fitter.Fit(gx, gy)
	if err != nil {
		return diagnostics.FitSummary{}, err
	}
	if res.Summary.ResidualDF < 1 {
		return diagnostics.FitSummary{}, core.NewDegenerateFitError("sub-fit left no residual degrees of freedom")
	}
	return res.Summary, nil
}
