package tabular

import (
	"fmt"

	"regdiag/domain/core"
)

// Table is an immutable, column-oriented view of a loaded dataset.
// It implements ports.DatasetSourcePort.
type Table struct {
	name    string
	headers []core.VariableKey
	columns map[core.VariableKey][]float64
	rows    int
}

// Name identifies the dataset (the source file name).
func (t *Table) Name() string {
	return t.name
}

// Rows returns the number of observations.
func (t *Table) Rows() int {
	return t.rows
}

// Columns lists the numeric column keys in file order.
func (t *Table) Columns() []core.VariableKey {
	out := make([]core.VariableKey, len(t.headers))
	copy(out, t.headers)
	return out
}

// Column returns the values for one column.
func (t *Table) Column(key core.VariableKey) ([]float64, error) {
	col, ok := t.columns[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s in dataset %s", core.ErrVariableNotFound, key, t.name)
	}
	return col, nil
}
