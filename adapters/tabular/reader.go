package tabular

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"regdiag/domain/core"
)

// Reader loads Excel and CSV files into column-oriented tables.
type Reader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewReader creates a reader that handles both Excel and CSV files,
// dispatching on the file extension.
func NewReader(filePath string) *Reader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// ReadTable reads the file into an immutable Table. Cells that do not
// parse as numbers become NaN; downstream fits reject NaN explicitly
// rather than silently skipping rows.
func (r *Reader) ReadTable() (*Table, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	case "xlsx":
		return r.readExcel()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

func (r *Reader) readCSV() (*Table, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}

	return buildTable(filepath.Base(r.filePath), records)
}

func (r *Reader) readExcel() (*Table, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets: %s", r.filePath)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	return buildTable(filepath.Base(r.filePath), rows)
}

// buildTable converts header+rows records into a column-oriented table.
// A leading unnamed index column (as pandas-exported CSVs carry) is kept
// under the key "index".
func buildTable(name string, records [][]string) (*Table, error) {
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: dataset %s needs a header and at least one row", core.ErrInsufficientData, name)
	}

	header := records[0]
	keys := make([]core.VariableKey, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "index"
		}
		keys[i] = core.VariableKey(h)
	}

	nRows := len(records) - 1
	columns := make(map[core.VariableKey][]float64, len(keys))
	for _, key := range keys {
		columns[key] = make([]float64, nRows)
	}

	for i, row := range records[1:] {
		for j, key := range keys {
			val := math.NaN()
			if j < len(row) {
				if parsed, err := strconv.ParseFloat(strings.TrimSpace(row[j]), 64); err == nil {
					val = parsed
				}
			}
			columns[key][i] = val
		}
	}

	return &Table{
		name:    name,
		headers: keys,
		columns: columns,
		rows:    nRows,
	}, nil
}
