// Package testkit provides deterministic fixture data for the diagnostics
// test suites.
package testkit

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
)

// UniformPredictor returns 1, 2, ..., n.
func UniformPredictor(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i + 1)
	}
	return x
}

// QuasiNoise returns a deterministic, zero-mean noise series with standard
// deviation close to sigma. Built from an irrational-frequency sine so the
// two halves of the series have near-identical variance; used where a test
// asserts "no variance change" and a random draw could land in the tail.
func QuasiNoise(n int, sigma float64) []float64 {
	// sd of sin over a full cycle is 1/sqrt(2)
	scale := sigma * math.Sqrt2
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = scale * math.Sin(7.31*float64(i+1))
	}
	return noise
}

// GaussianNoise returns n seeded N(0, sigma^2) draws.
func GaussianNoise(n int, sigma float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = sigma * rng.NormFloat64()
	}
	return noise
}

// HomoscedasticSeries builds y = x + noise with constant error variance.
// The sample "fails to reject" homoscedasticity for any sound test.
func HomoscedasticSeries(n int) (x, y []float64) {
	x = UniformPredictor(n)
	noise := QuasiNoise(n, 1.0)
	y = make([]float64, n)
	for i := range y {
		y[i] = x[i] + noise[i]
	}
	return x, y
}

// VarianceStepSeries builds y = x + noise where the second half's noise
// variance is ratio times the first half's. The sample "rejects"
// homoscedasticity under the increasing alternative.
func VarianceStepSeries(n int, ratio float64, seed int64) (x, y []float64) {
	x = UniformPredictor(n)
	noise := GaussianNoise(n, 1.0, seed)
	y = make([]float64, n)
	step := math.Sqrt(ratio)
	for i := range y {
		scale := 1.0
		if i >= n/2 {
			scale = step
		}
		y[i] = x[i] + scale*noise[i]
	}
	return x, y
}

// WriteCSV writes index-aligned columns to a CSV file with a header row.
func WriteCSV(path string, headers []string, columns [][]float64) error {
	if len(headers) != len(columns) {
		return fmt.Errorf("headers/columns mismatch: %d vs %d", len(headers), len(columns))
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(headers); err != nil {
		return err
	}

	rows := 0
	if len(columns) > 0 {
		rows = len(columns[0])
	}
	record := make([]string, len(columns))
	for i := 0; i < rows; i++ {
		for j := range columns {
			record[j] = strconv.FormatFloat(columns[j][i], 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
