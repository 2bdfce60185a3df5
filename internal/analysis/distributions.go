package analysis

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// Distributions provides unified access to the reference distributions the
// diagnostics layer needs, so CDF arithmetic is not scattered across tests.
type Distributions struct{}

// NewDistributions creates a new distributions utility
func NewDistributions() *Distributions {
	return &Distributions{}
}

// FUpperTail computes P(F(d1, d2) > f), the one-sided p-value for an
// observed variance ratio.
func (d *Distributions) FUpperTail(f float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 {
		return 1.0
	}

	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return 1 - fDist.CDF(f)
}

// FLowerTail computes P(F(d1, d2) <= f).
func (d *Distributions) FLowerTail(f float64, df1, df2 int) float64 {
	if df1 <= 0 || df2 <= 0 {
		return 1.0
	}

	fDist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return fDist.CDF(f)
}

// FTwoSided doubles the smaller tail of the F distribution at f,
// capped at 1.0.
func (d *Distributions) FTwoSided(f float64, df1, df2 int) float64 {
	upper := d.FUpperTail(f, df1, df2)
	lower := d.FLowerTail(f, df1, df2)

	p := 2 * upper
	if lower < upper {
		p = 2 * lower
	}
	if p > 1.0 {
		p = 1.0
	}
	return p
}
