package hetero

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"

	"regdiag/adapters/stats/ols"
	"regdiag/domain/core"
	"regdiag/domain/diagnostics"
	"regdiag/ports"
)

// stubFitter returns canned fit summaries in call order, so the variance
// ratio arithmetic can be checked against hand-computed values without a
// real regression solver behind it.
type stubFitter struct {
	results []diagnostics.FitSummary
	calls   int
}

func (s *stubFitter) Fit(x, y []float64) (*ports.FitResult, error) {
	if s.calls >= len(s.results) {
		return nil, errors.New("stub fitter exhausted")
	}
	res := s.results[s.calls]
	s.calls++
	return &ports.FitResult{Summary: res}, nil
}

func seq(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i + 1)
	}
	return x
}

func TestSplitIndices_EvenSample(t *testing.T) {
	plan, err := SplitIndices(seq(10), 0.2)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	if len(plan.Low) != 4 || len(plan.High) != 4 || plan.Dropped != 2 {
		t.Fatalf("expected 4/4 with 2 dropped, got %d/%d with %d dropped",
			len(plan.Low), len(plan.High), plan.Dropped)
	}
	if got := len(plan.Low) + len(plan.High) + plan.Dropped; got != 10 {
		t.Fatalf("partition does not cover sample: %d != 10", got)
	}
	if !reflect.DeepEqual(plan.Low, []int{0, 1, 2, 3}) {
		t.Fatalf("unexpected low indices: %v", plan.Low)
	}
	if !reflect.DeepEqual(plan.High, []int{6, 7, 8, 9}) {
		t.Fatalf("unexpected high indices: %v", plan.High)
	}
}

func TestSplitIndices_OddSampleHighGroupOneLarger(t *testing.T) {
	plan, err := SplitIndices(seq(11), 0.2)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	if len(plan.Low) != 4 || len(plan.High) != 5 || plan.Dropped != 2 {
		t.Fatalf("expected 4/5 with 2 dropped, got %d/%d with %d dropped",
			len(plan.Low), len(plan.High), plan.Dropped)
	}
	if got := len(plan.Low) + len(plan.High) + plan.Dropped; got != 11 {
		t.Fatalf("partition does not cover sample: %d != 11", got)
	}
	if diff := len(plan.High) - len(plan.Low); diff > 1 {
		t.Fatalf("group sizes differ by more than 1: %d", diff)
	}
}

func TestSplitIndices_DropOfWholeSortedSample(t *testing.T) {
	// drop is taken of the whole sample: n=200, drop=0.1 discards exactly
	// 20 middle observations, leaving 90/90.
	plan, err := SplitIndices(seq(200), 0.1)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(plan.Low) != 90 || len(plan.High) != 90 || plan.Dropped != 20 {
		t.Fatalf("expected 90/90 with 20 dropped, got %d/%d with %d",
			len(plan.Low), len(plan.High), plan.Dropped)
	}
}

func TestSplitIndices_StableTieBreak(t *testing.T) {
	x := []float64{3, 1, 2, 1}
	plan, err := SplitIndices(x, 0)
	if err != nil {
		t.Fatalf("split: %v", err)
	}

	// Sorted order is 1(idx 1), 1(idx 3), 2(idx 2), 3(idx 0): ties keep
	// original order.
	if !reflect.DeepEqual(plan.Low, []int{1, 3}) {
		t.Fatalf("unexpected low indices: %v", plan.Low)
	}
	if !reflect.DeepEqual(plan.High, []int{2, 0}) {
		t.Fatalf("unexpected high indices: %v", plan.High)
	}
}

func TestSplitIndices_InvalidDropFraction(t *testing.T) {
	for _, drop := range []float64{-0.1, 1.0, 1.5} {
		if _, err := SplitIndices(seq(20), drop); !core.IsInvalidArgumentError(err) {
			t.Fatalf("drop=%g: expected invalid argument, got %v", drop, err)
		}
	}
}

func TestGoldfeldQuandt_HandComputedRatio(t *testing.T) {
	stub := &stubFitter{results: []diagnostics.FitSummary{
		{RSS: 4, ResidualDF: 8, N: 10},
		{RSS: 8, ResidualDF: 8, N: 10},
	}}
	tester := NewTester(stub)

	res, err := tester.GoldfeldQuandt(seq(20), seq(20), 0, diagnostics.AlternativeIncreasing)
	if err != nil {
		t.Fatalf("goldfeld-quandt: %v", err)
	}

	// F = (8/8) / (4/8) = 2 with (8, 8) degrees of freedom.
	if math.Abs(res.Statistic-2.0) > 1e-12 {
		t.Fatalf("expected F=2, got %g", res.Statistic)
	}
	if res.DFNumerator != 8 || res.DFDenominator != 8 {
		t.Fatalf("expected df (8, 8), got (%d, %d)", res.DFNumerator, res.DFDenominator)
	}

	fDist := distuv.F{D1: 8, D2: 8}
	wantP := 1 - fDist.CDF(2.0)
	if math.Abs(res.PValue-wantP) > 1e-12 {
		t.Fatalf("expected p=%g, got %g", wantP, res.PValue)
	}
}

func TestGoldfeldQuandt_ZeroDropReproducesTwoSampleFRatio(t *testing.T) {
	// With drop=0 and a dataset split exactly in half, the statistic is the
	// classical two-sample F ratio of the halves' residual variances.
	fitter := ols.NewFitter()
	tester := NewTester(fitter)

	x := seq(12)
	y := []float64{1.2, 2.4, 2.9, 4.3, 4.8, 6.4, 6.2, 9.1, 7.5, 11.2, 9.9, 13.4}

	res, err := tester.GoldfeldQuandt(x, y, 0, diagnostics.AlternativeIncreasing)
	if err != nil {
		t.Fatalf("goldfeld-quandt: %v", err)
	}

	lowFit, err := fitter.Fit(x[:6], y[:6])
	if err != nil {
		t.Fatalf("low fit: %v", err)
	}
	highFit, err := fitter.Fit(x[6:], y[6:])
	if err != nil {
		t.Fatalf("high fit: %v", err)
	}

	want := (highFit.Summary.RSS / float64(highFit.Summary.ResidualDF)) /
		(lowFit.Summary.RSS / float64(lowFit.Summary.ResidualDF))
	if math.Abs(res.Statistic-want) > 1e-12 {
		t.Fatalf("expected F=%g, got %g", want, res.Statistic)
	}
	if res.LowSize != 6 || res.HighSize != 6 || res.Dropped != 0 {
		t.Fatalf("unexpected partition: %d/%d/%d", res.LowSize, res.HighSize, res.Dropped)
	}
}

func TestGoldfeldQuandt_AlternativesAreReciprocal(t *testing.T) {
	fitter := ols.NewFitter()
	tester := NewTester(fitter)

	x := seq(30)
	y := make([]float64, 30)
	for i := range y {
		scale := 1.0
		if i >= 15 {
			scale = 3.0
		}
		y[i] = x[i] + scale*math.Sin(7.31*float64(i+1))
	}

	inc, err := tester.GoldfeldQuandt(x, y, 0.1, diagnostics.AlternativeIncreasing)
	if err != nil {
		t.Fatalf("increasing: %v", err)
	}
	dec, err := tester.GoldfeldQuandt(x, y, 0.1, diagnostics.AlternativeDecreasing)
	if err != nil {
		t.Fatalf("decreasing: %v", err)
	}

	if math.Abs(dec.Statistic-1/inc.Statistic) > 1e-12 {
		t.Fatalf("expected reciprocal statistics: inc=%g dec=%g", inc.Statistic, dec.Statistic)
	}
	// Complementary tails of a continuous distribution sum to 1.
	if math.Abs(inc.PValue+dec.PValue-1) > 1e-9 {
		t.Fatalf("expected complementary p-values: inc=%g dec=%g", inc.PValue, dec.PValue)
	}
	if inc.DFNumerator != dec.DFDenominator || inc.DFDenominator != dec.DFNumerator {
		t.Fatalf("expected swapped degrees of freedom: inc=(%d,%d) dec=(%d,%d)",
			inc.DFNumerator, inc.DFDenominator, dec.DFNumerator, dec.DFDenominator)
	}
}

func TestGoldfeldQuandt_TwoSidedDoublesSmallerTail(t *testing.T) {
	stub := &stubFitter{results: []diagnostics.FitSummary{
		{RSS: 4, ResidualDF: 8, N: 10},
		{RSS: 8, ResidualDF: 8, N: 10},
	}}
	tester := NewTester(stub)

	res, err := tester.GoldfeldQuandt(seq(20), seq(20), 0, diagnostics.AlternativeTwoSided)
	if err != nil {
		t.Fatalf("goldfeld-quandt: %v", err)
	}

	fDist := distuv.F{D1: 8, D2: 8}
	upper := 1 - fDist.CDF(2.0)
	lower := fDist.CDF(2.0)
	want := 2 * math.Min(upper, lower)
	if math.Abs(res.PValue-want) > 1e-12 {
		t.Fatalf("expected p=%g, got %g", want, res.PValue)
	}
	if res.PValue > 1 {
		t.Fatalf("two-sided p-value must be capped at 1, got %g", res.PValue)
	}
}

func TestGoldfeldQuandt_TwoSidedCapAtOne(t *testing.T) {
	// Equal residual mean squares put F at exactly 1; doubling the tail
	// would exceed 1 without the cap.
	stub := &stubFitter{results: []diagnostics.FitSummary{
		{RSS: 5, ResidualDF: 10, N: 12},
		{RSS: 5, ResidualDF: 10, N: 12},
	}}
	tester := NewTester(stub)

	res, err := tester.GoldfeldQuandt(seq(24), seq(24), 0, diagnostics.AlternativeTwoSided)
	if err != nil {
		t.Fatalf("goldfeld-quandt: %v", err)
	}
	if res.PValue > 1.0 || res.PValue < 1.0-1e-9 {
		t.Fatalf("expected p capped at 1, got %g", res.PValue)
	}
}

func TestGoldfeldQuandt_InvalidArguments(t *testing.T) {
	tester := NewTester(ols.NewFitter())

	if _, err := tester.GoldfeldQuandt(seq(20), seq(20), 1.0, diagnostics.AlternativeIncreasing); !core.IsInvalidArgumentError(err) {
		t.Fatalf("drop=1: expected invalid argument, got %v", err)
	}
	if _, err := tester.GoldfeldQuandt(seq(20), seq(20), -0.2, diagnostics.AlternativeIncreasing); !core.IsInvalidArgumentError(err) {
		t.Fatalf("drop<0: expected invalid argument, got %v", err)
	}
	if _, err := tester.GoldfeldQuandt(seq(20), seq(19), 0.1, diagnostics.AlternativeIncreasing); !core.IsInvalidArgumentError(err) {
		t.Fatalf("mismatched lengths: expected invalid argument, got %v", err)
	}
	if _, err := tester.GoldfeldQuandt(seq(20), seq(20), 0.1, diagnostics.Alternative("sideways")); !core.IsInvalidArgumentError(err) {
		t.Fatalf("bad alternative: expected invalid argument, got %v", err)
	}
	// Groups of 2 leave no residual degrees of freedom for a 2-parameter fit.
	if _, err := tester.GoldfeldQuandt(seq(4), seq(4), 0, diagnostics.AlternativeIncreasing); !core.IsInvalidArgumentError(err) {
		t.Fatalf("tiny groups: expected invalid argument, got %v", err)
	}
}

func TestGoldfeldQuandt_ZeroRSSIsDegenerate(t *testing.T) {
	// A perfectly linear relationship leaves both sub-fits with RSS 0;
	// the ratio is undefined and must surface as a degenerate fit, not NaN.
	tester := NewTester(ols.NewFitter())

	x := seq(12)
	y := make([]float64, 12)
	for i := range y {
		y[i] = 2*x[i] + 1
	}

	_, err := tester.GoldfeldQuandt(x, y, 0, diagnostics.AlternativeIncreasing)
	if !core.IsDegenerateFitError(err) {
		t.Fatalf("expected degenerate fit, got %v", err)
	}
}

func TestGoldfeldQuandt_Deterministic(t *testing.T) {
	tester := NewTester(ols.NewFitter())

	x := seq(40)
	y := make([]float64, 40)
	for i := range y {
		y[i] = 0.5*x[i] + math.Sin(7.31*float64(i+1))
	}

	first, err := tester.GoldfeldQuandt(x, y, 0.15, diagnostics.AlternativeTwoSided)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := tester.GoldfeldQuandt(x, y, 0.15, diagnostics.AlternativeTwoSided)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected bit-identical results, got %+v vs %+v", first, second)
	}
}
