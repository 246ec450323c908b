package numstruct

import (
	"fmt"
	"slices"
	"time"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/formula"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/parser"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/storage"
)

// Table is one table of a Document. It holds only the table model
// identifier, so it stays valid across edits of the document.
type Table struct {
	doc   *Document
	sheet string
	model archive.Identifier
}

func (t *Table) info() (parser.Table, error) {
	return t.doc.model.Table(t.model)
}

// Name returns the table name.
func (t *Table) Name() (string, error) {
	info, err := t.info()
	return info.Name, err
}

// SheetName returns the name of the sheet holding the table.
func (t *Table) SheetName() string {
	if info, err := t.info(); err == nil {
		if s, ok := t.doc.model.SheetOf(info); ok {
			return s.Name
		}
	}
	return t.sheet
}

// Size returns the number of columns and rows.
func (t *Table) Size() (columns, rows uint32, err error) {
	info, err := t.info()
	return info.Columns, info.Rows, err
}

// Cell returns the cell at a zero-based column and row.
func (t *Table) Cell(column, row uint32) (parser.Cell, error) {
	info, err := t.info()
	if err != nil {
		return parser.Cell{}, err
	}
	if column >= info.Columns || row >= info.Rows {
		return parser.Cell{}, fmt.Errorf("%w: %s in %dx%d table", ErrOutOfRange, parser.Coord{Column: column, Row: row}.Name(), info.Columns, info.Rows)
	}
	grid, err := t.doc.model.Cells(t.model)
	if err != nil {
		return parser.Cell{}, err
	}
	return grid.Cell(parser.Coord{Column: column, Row: row}), nil
}

// Formula returns the formula text of a cell, or "" for cells without a
// formula.
func (t *Table) Formula(column, row uint32) (string, error) {
	c, err := t.Cell(column, row)
	if err != nil {
		return "", err
	}
	info, err := t.info()
	if err != nil {
		return "", err
	}
	res, err := t.doc.model.TranslateCell(t.doc.tr, info, c)
	return res.Text, err
}

// Merges returns the merged regions of the table.
func (t *Table) Merges() (*parser.MergeMap, error) {
	return t.doc.model.Merges(t.model)
}

// HeaderNames returns the header names applied to the table's cells.
func (t *Table) HeaderNames() ([]parser.HeaderName, error) {
	return t.doc.model.HeaderNames(t.model)
}

// SetNumber stores a number.
func (t *Table) SetNumber(column, row uint32, v float64) error {
	return t.set(column, row, func(*archive.Message) (storage.Cell, error) {
		return storage.NumberCell(v), nil
	})
}

// SetBool stores a boolean.
func (t *Table) SetBool(column, row uint32, v bool) error {
	return t.set(column, row, func(*archive.Message) (storage.Cell, error) {
		return storage.BoolCell(v), nil
	})
}

// SetDate stores a date.
func (t *Table) SetDate(column, row uint32, v time.Time) error {
	return t.set(column, row, func(*archive.Message) (storage.Cell, error) {
		return storage.DateCell(v), nil
	})
}

// SetDuration stores a duration.
func (t *Table) SetDuration(column, row uint32, v time.Duration) error {
	return t.set(column, row, func(*archive.Message) (storage.Cell, error) {
		return storage.DurationCell(v), nil
	})
}

// SetText stores a string, adding it to the table's string list.
func (t *Table) SetText(column, row uint32, s string) error {
	return t.set(column, row, func(model *archive.Message) (storage.Cell, error) {
		key, err := t.intern(model, s)
		if err != nil {
			return storage.Cell{}, err
		}
		return storage.TextCell(key), nil
	})
}

// Clear empties a cell.
func (t *Table) Clear(column, row uint32) error {
	return t.set(column, row, nil)
}

// SetFormula always fails: formulas are read only.
func (t *Table) SetFormula(column, row uint32, text string) error {
	info, err := t.info()
	if err != nil {
		return err
	}
	_, err = t.doc.tr.Encode(text, formulaHost(info, column, row))
	return err
}

func formulaHost(info parser.Table, column, row uint32) formula.Host {
	return formula.Host{Table: info.Key, Column: column, Row: row}
}

// set replaces one cell. build returns the new cell, or is nil to clear
// it. Formula cells are left alone since their dependency bookkeeping
// cannot be rewritten.
func (t *Table) set(column, row uint32, build func(model *archive.Message) (storage.Cell, error)) error {
	old, err := t.Cell(column, row)
	if err != nil {
		return err
	}
	if old.Formula != nil {
		return fmt.Errorf("%w: cell %s holds a formula", ErrUnsupported, old.At.Name())
	}
	info, err := t.info()
	if err != nil {
		return err
	}
	model, err := t.modelFields()
	if err != nil {
		return err
	}

	var buf []byte
	if build != nil {
		c, err := build(model)
		if err != nil {
			return err
		}
		buf = c.Encode()
	}
	if key, ok := old.Storage.ID(storage.FlagString); ok && old.Kind == parser.CellText {
		if err := t.release(key); err != nil {
			return err
		}
	}
	if err := t.writeTile(info, column, row, buf); err != nil {
		return err
	}
	t.doc.log.Debug("set cell", "table", info.Name, "cell", old.At.Name())
	return nil
}

func (t *Table) modelFields() (*archive.Message, error) {
	rec, err := t.doc.store.Get(t.model)
	if err != nil {
		return nil, err
	}
	if rec.IsOpaque() || rec.Type != schema.TableModelArchive {
		return nil, fmt.Errorf("%w: record %d", parser.ErrNotTable, t.model)
	}
	return rec.Fields, nil
}

// replaceFields swaps the payload of a record, keeping its envelope.
func (t *Table) replaceFields(id archive.Identifier, fields *archive.Message) error {
	rec, err := t.doc.store.Get(id)
	if err != nil {
		return err
	}
	rec.Fields = fields
	return t.doc.store.Replace(id, rec)
}

// intern adds s to the string list, creating the list if the table has
// none, and returns its key.
func (t *Table) intern(model *archive.Message, s string) (uint32, error) {
	dataStore := model.Message("base_data_store")
	if dataStore == nil {
		dataStore = archive.New(schema.DataStore)
	}
	id := dataStore.Ref("stringTable")
	if id == 0 {
		list, key := parser.InternString(parser.NewDataList(parser.ListString), s)
		path, _ := t.doc.store.PathOf(t.model)
		id, err := t.doc.store.Insert(archive.Record{Type: schema.TableDataList, Fields: list}, path)
		if err != nil {
			return 0, err
		}
		return key, t.replaceFields(t.model, model.WithMessage("base_data_store", dataStore.WithRef("stringTable", id)))
	}
	rec, err := t.doc.store.Get(id)
	if err != nil {
		return 0, err
	}
	list, key := parser.InternString(rec.Fields, s)
	return key, t.replaceFields(id, list)
}

// release drops a string list reference held by a cell being replaced.
func (t *Table) release(key uint32) error {
	model, err := t.modelFields()
	if err != nil {
		return err
	}
	id := model.Message("base_data_store").Ref("stringTable")
	if id == 0 {
		return nil
	}
	rec, err := t.doc.store.Get(id)
	if err != nil {
		return err
	}
	return t.replaceFields(id, parser.ReleaseEntry(rec.Fields, key))
}

// writeTile stores buf in the tile holding the row, creating the tile when
// the row falls past the stored ones.
func (t *Table) writeTile(info parser.Table, column, row uint32, buf []byte) error {
	model, err := t.modelFields()
	if err != nil {
		return err
	}
	tiles := model.Message("base_data_store").Message("tiles")
	if tiles == nil {
		tiles = archive.New(schema.TileStorage)
	}
	size := uint32(tiles.Uint("tile_size"))
	if size == 0 {
		size = parser.DefaultTileSize
	}
	tileID := uint64(row / size)

	refs := tiles.Messages("tiles")
	i := slices.IndexFunc(refs, func(r *archive.Message) bool { return r.Uint("tileid") == tileID })
	if i < 0 {
		if buf == nil {
			return nil
		}
		tile, err := parser.SetTileCell(parser.NewTile(), row%size, column, info.Columns, buf)
		if err != nil {
			return err
		}
		path, _ := t.doc.store.PathOf(t.model)
		id, err := t.doc.store.Insert(archive.Record{Type: schema.TileArchive, Fields: tile}, path)
		if err != nil {
			return err
		}
		ref := archive.New(schema.TileRef).WithUint("tileid", tileID).WithRef("tile", id)
		tiles = tiles.AppendMessage("tiles", ref)
		if !tiles.Has("tile_size") {
			tiles = tiles.WithUint("tile_size", uint64(size))
		}
		dataStore := model.Message("base_data_store")
		if dataStore == nil {
			dataStore = archive.New(schema.DataStore)
		}
		return t.replaceFields(t.model, model.WithMessage("base_data_store", dataStore.WithMessage("tiles", tiles)))
	}

	id := refs[i].Ref("tile")
	rec, err := t.doc.store.Get(id)
	if err != nil {
		return err
	}
	if rec.IsOpaque() || !rec.Fields.Bool("last_saved_in_BNC") {
		return fmt.Errorf("%w: tile %d uses pre-BNC cell storage", ErrUnsupported, id)
	}
	tile, err := parser.SetTileCell(rec.Fields, row%size, column, info.Columns, buf)
	if err != nil {
		return err
	}
	return t.replaceFields(id, tile)
}
