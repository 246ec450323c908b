package numstruct

import (
	"strconv"
	"time"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/models"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/parser"
)

// Extract extracts structured data from a Numbers document.
func Extract(path string, opts Options) (*models.DocumentData, error) {
	d, err := Open(path, opts)
	if err != nil {
		return nil, err
	}
	return d.Export()
}

// Export builds the exported view of the document. Parts that fail to
// build beyond the cell grid are left out and reported as diagnostics.
func (d *Document) Export() (*models.DocumentData, error) {
	sheets, err := d.Sheets()
	if err != nil {
		return nil, err
	}
	out := &models.DocumentData{BookName: d.name}
	for _, s := range sheets {
		sd := models.SheetData{Name: s.Name()}
		tables, err := s.Tables()
		if err != nil {
			return nil, NewExtractionError(s.Name(), "", "tables", err)
		}
		for _, t := range tables {
			td, err := d.exportTable(t)
			if err != nil {
				return nil, err
			}
			sd.Tables = append(sd.Tables, td)
		}
		out.Sheets = append(out.Sheets, sd)
	}
	for _, diag := range d.Diagnostics() {
		out.Diagnostics = append(out.Diagnostics, exportDiagnostic(diag))
	}
	return out, nil
}

func (d *Document) exportTable(t *Table) (models.TableData, error) {
	info, err := t.info()
	if err != nil {
		return models.TableData{}, NewExtractionError(t.sheet, "", "tables", err)
	}
	td := models.TableData{
		Name:          info.Name,
		Key:           info.Key.String(),
		KeyFallback:   info.Fallback,
		NumRows:       int(info.Rows),
		NumColumns:    int(info.Columns),
		HeaderRows:    int(info.HeaderRows),
		HeaderColumns: int(info.HeaderColumns),
		FooterRows:    int(info.FooterRows),
	}

	grid, err := d.model.Cells(t.model)
	if err != nil {
		return td, NewExtractionError(t.sheet, info.Name, "cells", err)
	}
	var row *models.CellRow
	for _, at := range grid.Stored() {
		c := grid.Cell(at)
		if c.Kind == parser.CellEmpty && c.Formula == nil {
			continue
		}
		if row == nil || row.R != int(at.Row)+1 {
			td.Rows = append(td.Rows, models.CellRow{R: int(at.Row) + 1, C: make(map[string]interface{})})
			row = &td.Rows[len(td.Rows)-1]
		}
		col := strconv.Itoa(int(at.Column) + 1)
		row.C[col] = cellValue(c)

		if c.Formula != nil && d.opts.ShouldIncludeFormulas() {
			res, err := d.model.TranslateCell(d.tr, info, c)
			if err != nil {
				d.model.Diagnose(graph.Diagnostic{
					Kind:    graph.Unsupported,
					Record:  t.model,
					Field:   "formula",
					Message: NewExtractionError(t.sheet, info.Name, "formulas", err).Error(),
				})
				continue
			}
			if row.Formulas == nil {
				row.Formulas = make(map[string]string)
			}
			row.Formulas[col] = res.Text
		}
	}

	if !d.opts.ShouldIncludeMerges() {
		return td, nil
	}
	if merges, err := d.model.Merges(t.model); err == nil {
		for _, r := range merges.Ranges() {
			td.Merges = append(td.Merges, models.MergeRange{
				R1: int(r.TopLeft.Row) + 1,
				C1: int(r.TopLeft.Column) + 1,
				R2: int(r.BottomRight.Row) + 1,
				C2: int(r.BottomRight.Column) + 1,
			})
		}
	} else {
		d.model.Diagnose(graph.Diagnostic{Kind: graph.Unsupported, Record: t.model, Message: NewExtractionError(t.sheet, info.Name, "merges", err).Error()})
	}
	if names, err := d.model.HeaderNames(t.model); err == nil {
		for _, h := range names {
			td.HeaderNames = append(td.HeaderNames, models.HeaderName{
				Name:    h.Name,
				Columns: oneBased(h.Columns),
				Rows:    oneBased(h.Rows),
			})
		}
	} else {
		d.model.Diagnose(graph.Diagnostic{Kind: graph.Unsupported, Record: t.model, Message: NewExtractionError(t.sheet, info.Name, "header_names", err).Error()})
	}
	return td, nil
}

// cellValue returns the exported value of a cell.
func cellValue(c parser.Cell) interface{} {
	switch v := c.Value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case time.Duration:
		return v.String()
	case nil:
		if c.Kind == parser.CellError {
			return "#ERROR!"
		}
		return nil
	default:
		return v
	}
}

func oneBased(xs []uint32) []int {
	if len(xs) == 0 {
		return nil
	}
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = int(x) + 1
	}
	return out
}

func exportDiagnostic(d graph.Diagnostic) models.Diagnostic {
	return models.Diagnostic{
		Kind:    d.Kind.String(),
		Record:  uint64(d.Record),
		Field:   d.Field,
		Message: d.Message,
	}
}
