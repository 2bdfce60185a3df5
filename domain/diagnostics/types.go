package diagnostics

import (
	"fmt"

	"regdiag/domain/core"
)

// Alternative selects which direction of variance change the
// Goldfeld-Quandt test evaluates.
type Alternative string

const (
	// AlternativeIncreasing tests for variance growing with the predictor.
	AlternativeIncreasing Alternative = "increasing"
	// AlternativeDecreasing tests for variance shrinking with the predictor.
	AlternativeDecreasing Alternative = "decreasing"
	// AlternativeTwoSided tests for any variance difference between groups.
	AlternativeTwoSided Alternative = "two-sided"
)

// ParseAlternative validates and normalizes an alternative-hypothesis name.
func ParseAlternative(s string) (Alternative, error) {
	switch Alternative(s) {
	case AlternativeIncreasing, AlternativeDecreasing, AlternativeTwoSided:
		return Alternative(s), nil
	}
	return "", core.NewInvalidArgumentError("alternative",
		fmt.Sprintf("must be one of increasing, decreasing, two-sided; got %q", s))
}

// SplitPlan describes how a sorted sample was partitioned for the
// Goldfeld-Quandt test. Low and High hold indices into the original
// (unsorted) series; Dropped counts the discarded middle observations.
// INVARIANTS:
// - Low and High are disjoint and non-empty
// - len(Low) + len(High) + Dropped == n exactly
// - len(High) - len(Low) is 0 for even remainders and 1 for odd ones
type SplitPlan struct {
	Low     []int `json:"low"`
	High    []int `json:"high"`
	Dropped int   `json:"dropped"`
}

// FitSummary captures what a single-predictor OLS fit exposes to the
// diagnostics layer: the fitted line plus residual bookkeeping.
type FitSummary struct {
	Intercept  float64 `json:"intercept"`
	Slope      float64 `json:"slope"`
	RSS        float64 `json:"rss"`         // residual sum of squares
	ResidualDF int     `json:"residual_df"` // n minus fitted parameters
	N          int     `json:"n"`
	RSquared   float64 `json:"r_squared"`
}

// GQResult is the immutable outcome of one Goldfeld-Quandt invocation,
// valid only for the partition that produced it.
type GQResult struct {
	Statistic     float64     `json:"statistic"`
	PValue        float64     `json:"p_value"`
	Alternative   Alternative `json:"alternative"`
	DFNumerator   int         `json:"df_numerator"`
	DFDenominator int         `json:"df_denominator"`
	LowSize       int         `json:"low_size"`
	HighSize      int         `json:"high_size"`
	Dropped       int         `json:"dropped"`
	RSSLow        float64     `json:"rss_low"`
	RSSHigh       float64     `json:"rss_high"`
}

// ResidualProfile holds descriptive statistics of one fit's residual series.
type ResidualProfile struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Median       float64 `json:"median"`
	Skewness     float64 `json:"skewness"`
	Kurtosis     float64 `json:"kurtosis"` // excess kurtosis
	OutlierCount int     `json:"outlier_count"`
}

// Decision encodes the verdict at the run's significance level.
type Decision string

const (
	DecisionReject       Decision = "reject_homoscedasticity"
	DecisionFailToReject Decision = "fail_to_reject_homoscedasticity"
)

// PredictorDiagnostic bundles everything computed for one predictor column.
type PredictorDiagnostic struct {
	Predictor      core.VariableKey `json:"predictor"`
	Fit            FitSummary       `json:"fit"`
	Residuals      ResidualProfile  `json:"residuals"`
	GoldfeldQuandt GQResult         `json:"goldfeld_quandt"`
	Decision       Decision         `json:"decision"`
}

// RunReport is the persisted artifact of one diagnostics run.
type RunReport struct {
	RunID        core.RunID            `json:"run_id"`
	Dataset      string                `json:"dataset"`
	Response     core.VariableKey      `json:"response"`
	DropFraction float64               `json:"drop_fraction"`
	Alternative  Alternative           `json:"alternative"`
	Alpha        float64               `json:"alpha"`
	SampleSize   int                   `json:"sample_size"`
	Predictors   []PredictorDiagnostic `json:"predictors"`
	Fingerprint  core.Hash             `json:"fingerprint"`
	StartedAt    core.Timestamp        `json:"started_at"`
	CompletedAt  core.Timestamp        `json:"completed_at"`
	RuntimeMs    int64                 `json:"runtime_ms"`
}

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	RunID      core.RunID       `json:"run_id"`
	Dataset    string           `json:"dataset"`
	Response   core.VariableKey `json:"response"`
	Predictors int              `json:"predictor_count"`
	SampleSize int              `json:"sample_size"`
	StartedAt  core.Timestamp   `json:"started_at"`
}
