package ports

import (
	"regdiag/domain/core"
)

// DatasetSourcePort provides read-only access to a loaded tabular dataset.
// Columns are immutable once loaded; callers must not mutate returned slices.
type DatasetSourcePort interface {
	// Name identifies the dataset (typically the source file name).
	Name() string

	// Rows returns the number of observations.
	Rows() int

	// Columns lists the numeric column keys in file order.
	Columns() []core.VariableKey

	// Column returns the values for one column, index-aligned across the
	// whole dataset. Returns core.ErrVariableNotFound for unknown keys.
	Column(key core.VariableKey) ([]float64, error)
}
