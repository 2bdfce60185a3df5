package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"regdiag/domain/core"
	"regdiag/domain/diagnostics"
)

// ResidualAnalyzer computes descriptive statistics over a fitted model's
// residual series. Descriptive only: no normality test is performed here.
type ResidualAnalyzer struct{}

// NewResidualAnalyzer creates a new residual analyzer
func NewResidualAnalyzer() *ResidualAnalyzer {
	return &ResidualAnalyzer{}
}

// Profile summarizes the residual series: moments plus IQR-based outliers.
func (ra *ResidualAnalyzer) Profile(residuals []float64) (diagnostics.ResidualProfile, error) {
	profile := diagnostics.ResidualProfile{}

	if len(residuals) < 2 {
		return profile, core.ErrInsufficientData
	}

	mean, err := stats.Mean(residuals)
	if err != nil {
		return profile, err
	}
	stdDev, err := stats.StandardDeviation(residuals)
	if err != nil {
		return profile, err
	}
	min, err := stats.Min(residuals)
	if err != nil {
		return profile, err
	}
	max, err := stats.Max(residuals)
	if err != nil {
		return profile, err
	}
	median, err := stats.Median(residuals)
	if err != nil {
		return profile, err
	}
	q25, err := stats.Percentile(residuals, 25)
	if err != nil {
		return profile, err
	}
	q75, err := stats.Percentile(residuals, 75)
	if err != nil {
		return profile, err
	}

	profile.Mean = mean
	profile.StdDev = stdDev
	profile.Min = min
	profile.Max = max
	profile.Median = median
	profile.Skewness = sampleSkewness(residuals, mean, stdDev)
	profile.Kurtosis = sampleExcessKurtosis(residuals, mean, stdDev)
	profile.OutlierCount = countIQROutliers(residuals, q25, q75)

	return profile, nil
}

// sampleSkewness computes the third standardized moment.
func sampleSkewness(data []float64, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		z := (v - mean) / stdDev
		sum += z * z * z
	}
	return sum / float64(len(data))
}

// sampleExcessKurtosis computes the fourth standardized moment minus 3.
func sampleExcessKurtosis(data []float64, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		z := (v - mean) / stdDev
		sum += z * z * z * z
	}
	return sum/float64(len(data)) - 3
}

// countIQROutliers counts points outside 1.5 IQR fences.
func countIQROutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lower := q25 - 1.5*iqr
	upper := q75 + 1.5*iqr

	count := 0
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		if v < lower || v > upper {
			count++
		}
	}
	return count
}
