package parser

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/storage"
)

// Table data list types.
const (
	ListString   = 1
	ListFormula  = 3
	ListRichText = 8
)

// NewTile returns an empty cell storage tile.
func NewTile() *archive.Message {
	return archive.New(schema.Tile).
		WithBool("last_saved_in_BNC", true).
		WithBool("should_use_wide_rows", true)
}

// NewDataList returns an empty data list of the given type.
func NewDataList(listType uint64) *archive.Message {
	return archive.New(schema.DataList).WithUint("listType", listType).WithUint("nextListID", 1)
}

// SetTileCell returns tile with the cell buffer at a tile row and column
// replaced. A nil buffer clears the cell. The touched row is rewritten
// with wide offsets; other rows are kept as stored.
func SetTileCell(tile *archive.Message, rowIndex, column, columns uint32, buf []byte) (*archive.Message, error) {
	if column >= columns {
		return nil, fmt.Errorf("parser: column %d outside %d columns", column, columns)
	}
	rows := tile.Messages("rowInfos")
	pos := slices.IndexFunc(rows, func(r *archive.Message) bool { return uint32(r.Uint("tile_row_index")) == rowIndex })

	cells := make([][]byte, columns)
	info := archive.New(schema.TileRowInfo)
	if pos >= 0 {
		info = rows[pos]
		stored, err := storage.SplitRow(info.Bytes("cell_storage_buffer"), info.Bytes("cell_offsets"), info.Bool("has_wide_offsets"), int(columns))
		if err != nil {
			return nil, err
		}
		copy(cells, stored)
	}
	cells[column] = buf

	buffer, offsets, count := storage.JoinRow(cells)
	rows = slices.Clone(rows)
	if count == 0 {
		if pos >= 0 {
			rows = slices.Delete(rows, pos, pos+1)
		}
	} else {
		info = info.
			WithUint("tile_row_index", uint64(rowIndex)).
			WithUint("cell_count", uint64(count)).
			WithBytes("cell_storage_buffer_pre_bnc", storage.PreBNCBytes).
			WithBytes("cell_offsets_pre_bnc", storage.PreBNCBytes).
			WithBytes("cell_storage_buffer", buffer).
			WithBytes("cell_offsets", offsets).
			WithBool("has_wide_offsets", true)
		if pos >= 0 {
			rows[pos] = info
		} else {
			rows = append(rows, info)
		}
	}
	slices.SortStableFunc(rows, func(a, b *archive.Message) int {
		return int(a.Uint("tile_row_index")) - int(b.Uint("tile_row_index"))
	})

	var cellCount, maxRow uint64
	for _, r := range rows {
		cellCount += r.Uint("cell_count")
		maxRow = max(maxRow, r.Uint("tile_row_index"))
	}
	maxColumn := tile.Uint("maxColumn")
	numRows := tile.Uint("numrows")
	if count > 0 {
		maxColumn = max(maxColumn, uint64(column))
		numRows = max(numRows, uint64(rowIndex)+1)
	}
	return tile.
		WithMessages("rowInfos", rows).
		WithUint("numCells", cellCount).
		WithUint("maxRow", maxRow).
		WithUint("maxColumn", maxColumn).
		WithUint("numrows", numRows).
		WithBool("last_saved_in_BNC", true), nil
}

// InternString returns list with s added, or with the refcount of its
// existing entry raised, and the entry key.
func InternString(list *archive.Message, s string) (*archive.Message, uint32) {
	entries := list.Messages("entries")
	for i, e := range entries {
		if e.Has("string") && e.String("string") == s {
			entries = slices.Clone(entries)
			entries[i] = e.WithUint("refcount", e.Uint("refcount")+1)
			return list.WithMessages("entries", entries), uint32(e.Uint("key"))
		}
	}
	key := list.Uint("nextListID")
	for _, e := range entries {
		key = max(key, e.Uint("key")+1)
	}
	if key == 0 {
		key = 1
	}
	entry := archive.New(schema.ListEntry).WithUint("key", key).WithUint("refcount", 1).WithString("string", s)
	return list.AppendMessage("entries", entry).WithUint("nextListID", key+1), uint32(key)
}

// ReleaseEntry drops one reference to a data list entry and removes the
// entry when none remain.
func ReleaseEntry(list *archive.Message, key uint32) *archive.Message {
	entries := list.Messages("entries")
	i := slices.IndexFunc(entries, func(e *archive.Message) bool { return uint32(e.Uint("key")) == key })
	if i < 0 {
		return list
	}
	entries = slices.Clone(entries)
	if rc := entries[i].Uint("refcount"); rc > 1 {
		entries[i] = entries[i].WithUint("refcount", rc-1)
	} else {
		entries = slices.Delete(entries, i, i+1)
	}
	return list.WithMessages("entries", entries)
}

// ShiftRows moves the stored rows of a table's tiles, keyed by tile id.
// Rows at or past start move by delta; a negative delta first drops the
// rows from start up to start-delta. Every input tile is in the result,
// emptied if it lost its rows, along with any tile the move fills.
func ShiftRows(tiles map[uint64]*archive.Message, size, start uint32, delta int) map[uint64]*archive.Message {
	moved := make(map[uint64][]*archive.Message)
	for id, tile := range tiles {
		for _, row := range tile.Messages("rowInfos") {
			at := int64(id)*int64(size) + int64(row.Uint("tile_row_index"))
			if at >= int64(start) {
				if delta < 0 && at < int64(start)-int64(delta) {
					continue
				}
				at += int64(delta)
			}
			tid := uint64(at) / uint64(size)
			moved[tid] = append(moved[tid], row.WithUint("tile_row_index", uint64(at)%uint64(size)))
		}
	}
	out := make(map[uint64]*archive.Message, len(tiles))
	for id, tile := range tiles {
		out[id] = withRows(tile, moved[id])
	}
	for id, rows := range moved {
		if _, ok := out[id]; !ok {
			out[id] = withRows(NewTile(), rows)
		}
	}
	return out
}

// withRows returns tile holding rows, with its counts recomputed.
func withRows(tile *archive.Message, rows []*archive.Message) *archive.Message {
	slices.SortFunc(rows, func(a, b *archive.Message) int {
		return cmp.Compare(a.Uint("tile_row_index"), b.Uint("tile_row_index"))
	})
	var cells, maxRow, numRows uint64
	for _, r := range rows {
		cells += r.Uint("cell_count")
		maxRow = max(maxRow, r.Uint("tile_row_index"))
	}
	if len(rows) > 0 {
		numRows = maxRow + 1
	}
	return tile.
		WithMessages("rowInfos", rows).
		WithUint("numCells", cells).
		WithUint("maxRow", maxRow).
		WithUint("numrows", numRows).
		WithBool("last_saved_in_BNC", true)
}
