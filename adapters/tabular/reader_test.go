package tabular

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"regdiag/domain/core"
	"regdiag/internal/testkit"
)

func TestReadTable_CSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ads.csv")

	err := testkit.WriteCSV(path,
		[]string{"TV", "radio", "sales"},
		[][]float64{
			{230.1, 44.5, 17.2},
			{37.8, 39.3, 45.9},
			{22.1, 10.4, 9.3},
		})
	require.NoError(t, err)

	table, err := NewReader(path).ReadTable()
	require.NoError(t, err)

	require.Equal(t, "ads.csv", table.Name())
	require.Equal(t, 3, table.Rows())
	require.Equal(t,
		[]core.VariableKey{"TV", "radio", "sales"},
		table.Columns())

	tv, err := table.Column("TV")
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{230.1, 37.8, 22.1}, tv, 1e-12)

	_, err = table.Column("newspaper")
	require.ErrorIs(t, err, core.ErrVariableNotFound)
}

func TestReadTable_CSVNonNumericCellsBecomeNaN(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messy.csv")
	content := ",x,y\n0,1.5,ok\n1,,2.5\n"
	require.NoError(t, writeFile(path, content))

	table, err := NewReader(path).ReadTable()
	require.NoError(t, err)

	// Leading unnamed index column is kept under "index".
	require.Equal(t, []core.VariableKey{"index", "x", "y"}, table.Columns())

	x, err := table.Column("x")
	require.NoError(t, err)
	require.InDelta(t, 1.5, x[0], 1e-12)
	require.True(t, math.IsNaN(x[1]))

	y, err := table.Column("y")
	require.NoError(t, err)
	require.True(t, math.IsNaN(y[0]))
	require.InDelta(t, 2.5, y[1], 1e-12)
}

func TestReadTable_Excel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ads.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"TV", "sales"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{230.1, 22.1}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{44.5, 10.4}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := NewReader(path).ReadTable()
	require.NoError(t, err)

	require.Equal(t, 2, table.Rows())
	sales, err := table.Column("sales")
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{22.1, 10.4}, sales, 1e-12)
}

func TestReadTable_MissingFile(t *testing.T) {
	_, err := NewReader("/nonexistent/ads.csv").ReadTable()
	require.Error(t, err)
}

func TestReadTable_HeaderOnlyIsInsufficient(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")
	require.NoError(t, writeFile(path, "x,y\n"))

	_, err := NewReader(path).ReadTable()
	require.ErrorIs(t, err, core.ErrInsufficientData)
}
