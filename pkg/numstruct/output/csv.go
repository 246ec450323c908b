package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/models"
)

// TableToCSV writes the cell values of a table as CSV, one record per
// table row. Empty cells are empty fields.
func TableToCSV(w io.Writer, table *models.TableData) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(TableRecords(table, false)); err != nil {
		return err
	}
	return cw.Error()
}

// TableRecords returns the text of every cell of a table, row by row.
// With formulas set, cells holding a formula show its text instead of its
// value.
func TableRecords(table *models.TableData, formulas bool) [][]string {
	byRow := make(map[int]models.CellRow, len(table.Rows))
	for _, r := range table.Rows {
		byRow[r.R] = r
	}
	out := make([][]string, table.NumRows)
	for r := range out {
		row := byRow[r+1]
		rec := make([]string, table.NumColumns)
		for c := range rec {
			col := strconv.Itoa(c + 1)
			if f, ok := row.Formulas[col]; formulas && ok {
				rec[c] = f
				continue
			}
			rec[c] = FormatValue(row.C[col])
		}
		out[r] = rec
	}
	return out
}

// FormatValue renders an exported cell value as text.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(v)
	}
}
