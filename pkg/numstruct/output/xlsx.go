package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/models"
)

// maxSheetName is the longest worksheet name a workbook accepts.
const maxSheetName = 31

// ToXLSX builds a workbook with one worksheet per table, holding the
// table's cell values and merged ranges. Formulas are not carried over.
func ToXLSX(doc *models.DocumentData) (*excelize.File, error) {
	f := excelize.NewFile()
	first := f.GetSheetName(0)
	used := make(map[string]bool)
	n := 0
	for _, sheet := range doc.Sheets {
		for i := range sheet.Tables {
			table := &sheet.Tables[i]
			name := worksheetName(sheet.Name, table.Name, used)
			if n == 0 {
				if err := f.SetSheetName(first, name); err != nil {
					return nil, err
				}
			} else if _, err := f.NewSheet(name); err != nil {
				return nil, err
			}
			n++
			if err := writeTable(f, name, table); err != nil {
				return nil, fmt.Errorf("table %q of sheet %q: %w", table.Name, sheet.Name, err)
			}
		}
	}
	return f, nil
}

// WriteXLSX writes the workbook built by ToXLSX to w.
func WriteXLSX(w io.Writer, doc *models.DocumentData) error {
	f, err := ToXLSX(doc)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeTable(f *excelize.File, ws string, table *models.TableData) error {
	for _, row := range table.Rows {
		for col, v := range row.C {
			c, err := strconv.Atoi(col)
			if err != nil {
				return fmt.Errorf("column %q: %w", col, err)
			}
			cell, err := excelize.CoordinatesToCellName(c, row.R)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(ws, cell, v); err != nil {
				return err
			}
		}
	}
	for _, m := range table.Merges {
		top, err := excelize.CoordinatesToCellName(m.C1, m.R1)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(m.C2, m.R2)
		if err != nil {
			return err
		}
		if err := f.MergeCell(ws, top, bottom); err != nil {
			return err
		}
	}
	return nil
}

// worksheetName derives a unique worksheet name from a sheet and table
// name.
func worksheetName(sheet, table string, used map[string]bool) string {
	base := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, sheet+" - "+table)
	base = truncate(base, maxSheetName)
	name := base
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
