package parser

import (
	"fmt"
	"slices"
	"time"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/storage"
)

// DefaultTileSize is the number of rows per cell storage tile.
const DefaultTileSize = 256

// CellKind is the logical type of a cell value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	CellDate
	CellBool
	CellDuration
	CellError
	CellRichText
)

func (k CellKind) String() string {
	switch k {
	case CellNumber:
		return "number"
	case CellText:
		return "text"
	case CellDate:
		return "date"
	case CellBool:
		return "bool"
	case CellDuration:
		return "duration"
	case CellError:
		return "error"
	case CellRichText:
		return "rich-text"
	default:
		return "empty"
	}
}

// Cell is one decoded cell.
type Cell struct {
	At   Coord
	Kind CellKind
	// Value is a float64, string, time.Time, bool or time.Duration, or nil
	// for empty and error cells.
	Value   any
	Storage storage.Cell
	// Formula is the formula archive of a formula cell, nil otherwise.
	Formula *archive.Message
}

// Grid is the dense cell view of a table. Coordinates without stored
// data are empty cells.
type Grid struct {
	Columns uint32
	Rows    uint32
	cells   map[Coord]Cell
}

// Cell returns the cell at c.
func (g *Grid) Cell(c Coord) Cell {
	if cell, ok := g.cells[c]; ok {
		return cell
	}
	return Cell{At: c}
}

// Stored returns the coordinates holding cell data, in row-major order.
func (g *Grid) Stored() []Coord {
	out := make([]Coord, 0, len(g.cells))
	for c := range g.cells {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Coord) int {
		switch {
		case a.less(b):
			return -1
		case b.less(a):
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of stored cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Cells decodes the cell storage tiles of a table.
func (b *Builder) Cells(model archive.Identifier) (*Grid, error) {
	return memoize(b, fmt.Sprintf("cells:%d", model), func() (*Grid, error) {
		t, err := b.Table(model)
		if err != nil {
			return nil, err
		}
		m, err := b.fields(model, schema.TableModelArchive)
		if err != nil {
			return nil, err
		}
		store := m.Message("base_data_store")

		buffers, err := b.storageTiles(model, store, t.Columns)
		if err != nil {
			return nil, err
		}
		g := &Grid{Columns: t.Columns, Rows: t.Rows, cells: make(map[Coord]Cell, len(buffers))}
		for at, buf := range buffers {
			sc, err := storage.Decode(buf)
			if err != nil {
				return nil, fmt.Errorf("table %d cell %s: %w", model, at.Name(), err)
			}
			cell := Cell{At: at, Storage: sc}
			if err := b.resolveCell(model, store, &cell); err != nil {
				return nil, err
			}
			g.cells[at] = cell
		}
		return g, nil
	})
}

// storageTiles merges the table's row tiles into per-cell buffers.
func (b *Builder) storageTiles(model archive.Identifier, store *archive.Message, columns uint32) (map[Coord][]byte, error) {
	tiles := store.Message("tiles")
	size := uint32(tiles.Uint("tile_size"))
	if size == 0 {
		size = DefaultTileSize
	}
	var parts []Tile[[]byte]
	for _, ref := range tiles.Messages("tiles") {
		id := ref.Ref("tile")
		tile, err := b.fields(id, schema.TileArchive)
		if err != nil {
			return nil, fmt.Errorf("table %d tile: %w", model, err)
		}
		if !tile.Bool("last_saved_in_BNC") {
			b.warn(graph.Diagnostic{
				Kind:    graph.Unsupported,
				Record:  id,
				Field:   "last_saved_in_BNC",
				Message: "pre-BNC cell storage is not read",
			})
			continue
		}
		part := Tile[[]byte]{Owner: id, Origin: Coord{Row: uint32(ref.Uint("tileid")) * size}}
		for _, row := range tile.Messages("rowInfos") {
			cells, err := storage.SplitRow(row.Bytes("cell_storage_buffer"), row.Bytes("cell_offsets"), row.Bool("has_wide_offsets"), int(columns))
			if err != nil {
				return nil, fmt.Errorf("tile %d row %d: %w", id, row.Uint("tile_row_index"), err)
			}
			r := uint32(row.Uint("tile_row_index"))
			for col, buf := range cells {
				if buf != nil {
					part.Entries = append(part.Entries, TileEntry[[]byte]{Offset: Coord{Column: uint32(col), Row: r}, Value: buf})
				}
			}
		}
		parts = append(parts, part)
	}
	return MergeTiles(parts)
}

func (b *Builder) resolveCell(model archive.Identifier, store *archive.Message, c *Cell) error {
	sc := c.Storage
	switch sc.Type {
	case storage.TypeEmpty:
		c.Kind = CellEmpty
	case storage.TypeNumber, storage.TypeCurrency:
		c.Kind, c.Value = CellNumber, sc.Number()
	case storage.TypeText:
		c.Kind = CellText
		key, _ := sc.ID(storage.FlagString)
		entry, err := b.listEntry(store.Ref("stringTable"), key)
		if err != nil {
			return err
		}
		c.Value = entry.String("string")
	case storage.TypeDate:
		c.Kind, c.Value = CellDate, sc.Time()
	case storage.TypeBool:
		c.Kind, c.Value = CellBool, sc.Double > 0
	case storage.TypeDuration:
		c.Kind, c.Value = CellDuration, time.Duration(sc.Double*float64(time.Second))
	case storage.TypeError:
		c.Kind = CellError
	case storage.TypeRichText:
		c.Kind, c.Value = CellRichText, ""
		key, _ := sc.ID(storage.FlagRichText)
		b.warn(graph.Diagnostic{
			Kind:    graph.Unsupported,
			Record:  model,
			Field:   "base_data_store.rich_text_table",
			Message: fmt.Sprintf("rich text payload %d at %s is not decoded", key, c.At.Name()),
		})
	default:
		return fmt.Errorf("table %d cell %s: unknown cell type %d", model, c.At.Name(), sc.Type)
	}

	if key, ok := sc.ID(storage.FlagFormula); ok {
		entry, err := b.listEntry(store.Ref("formula_table"), key)
		if err != nil {
			return err
		}
		c.Formula = entry.Message("formula")
	}
	return nil
}

// DataList returns the entries of a table data list keyed by entry key.
func (b *Builder) DataList(id archive.Identifier) (map[uint32]*archive.Message, error) {
	return memoize(b, fmt.Sprintf("list:%d", id), func() (map[uint32]*archive.Message, error) {
		out := make(map[uint32]*archive.Message)
		if id == 0 {
			return out, nil
		}
		list, err := b.fields(id, schema.TableDataList)
		if err != nil {
			return nil, err
		}
		for _, e := range list.Messages("entries") {
			out[uint32(e.Uint("key"))] = e
		}
		return out, nil
	})
}

// listEntry returns one data list entry. A missing entry reads as an empty
// message.
func (b *Builder) listEntry(list archive.Identifier, key uint32) (*archive.Message, error) {
	entries, err := b.DataList(list)
	if err != nil {
		return nil, err
	}
	if e, ok := entries[key]; ok {
		return e, nil
	}
	b.warn(graph.Diagnostic{
		Kind:    graph.DanglingReference,
		Record:  list,
		Field:   "entries",
		Message: fmt.Sprintf("no entry with key %d", key),
	})
	return archive.New(schema.ListEntry), nil
}
