package parser

import (
	"fmt"
	"slices"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// MergeMap holds the merged regions of a table.
type MergeMap struct {
	anchors map[Coord]Range
	members map[Coord]Coord
}

func newMergeMap() *MergeMap {
	return &MergeMap{anchors: make(map[Coord]Range), members: make(map[Coord]Coord)}
}

// add records a region. It reports false if the anchor is already part of
// another region.
func (m *MergeMap) add(r Range) bool {
	if _, taken := m.members[r.TopLeft]; taken {
		return false
	}
	m.anchors[r.TopLeft] = r
	for row := r.TopLeft.Row; row <= r.BottomRight.Row; row++ {
		for col := r.TopLeft.Column; col <= r.BottomRight.Column; col++ {
			c := Coord{Column: col, Row: row}
			if _, taken := m.members[c]; !taken {
				m.members[c] = r.TopLeft
			}
		}
	}
	return true
}

// Lookup returns the anchor of the region holding c.
func (m *MergeMap) Lookup(c Coord) (anchor Coord, ok bool) {
	anchor, ok = m.members[c]
	return anchor, ok
}

// IsAnchor reports whether c is the top-left cell of a region.
func (m *MergeMap) IsAnchor(c Coord) bool {
	_, ok := m.anchors[c]
	return ok
}

// Region returns the region anchored at c.
func (m *MergeMap) Region(c Coord) (Range, bool) {
	r, ok := m.anchors[c]
	return r, ok
}

// Size returns the number of columns and rows of the region anchored at c.
func (m *MergeMap) Size(c Coord) (columns, rows uint32, ok bool) {
	r, ok := m.anchors[c]
	if !ok {
		return 0, 0, false
	}
	columns, rows = r.Size()
	return columns, rows, true
}

// Ranges returns every region in row-major anchor order.
func (m *MergeMap) Ranges() []Range {
	out := make([]Range, 0, len(m.anchors))
	for _, r := range m.anchors {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Range) int {
		switch {
		case a.TopLeft.less(b.TopLeft):
			return -1
		case b.TopLeft.less(a.TopLeft):
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of regions.
func (m *MergeMap) Len() int {
	return len(m.anchors)
}

func rangeOf(rect *archive.Message) Range {
	return Range{
		TopLeft:     Coord{Column: uint32(rect.Uint("top_left_column")), Row: uint32(rect.Uint("top_left_row"))},
		BottomRight: Coord{Column: uint32(rect.Uint("bottom_right_column")), Row: uint32(rect.Uint("bottom_right_row"))},
	}
}

// Merges returns the merged regions of a table. Regions come from the
// range precedents of merge owners whose target resolves to the table, and
// from the table's legacy merge region map.
func (b *Builder) Merges(model archive.Identifier) (*MergeMap, error) {
	return memoize(b, fmt.Sprintf("merges:%d", model), func() (*MergeMap, error) {
		t, err := b.Table(model)
		if err != nil {
			return nil, err
		}
		m, err := b.fields(model, schema.TableModelArchive)
		if err != nil {
			return nil, err
		}
		out := newMergeMap()
		add := func(r Range, from archive.Identifier) {
			r = r.Clamp(t.Columns, t.Rows)
			if r.BottomRight.Column < r.TopLeft.Column || r.BottomRight.Row < r.TopLeft.Row {
				b.warn(graph.Diagnostic{Kind: graph.Unsupported, Record: from, Message: fmt.Sprintf("inverted merge range %s", r)})
				return
			}
			if prev, ok := out.Region(r.TopLeft); ok {
				if prev != r {
					b.warn(graph.Diagnostic{Kind: graph.Unsupported, Record: from, Message: fmt.Sprintf("merge %s conflicts with %s", r, prev)})
				}
				return
			}
			if !out.add(r) {
				b.warn(graph.Diagnostic{Kind: graph.Unsupported, Record: from, Message: fmt.Sprintf("merge %s starts inside another region", r)})
			}
		}

		matches := b.ownerMatcher(t, m)
		for _, rec := range b.ownerRecords() {
			if graph.OwnerKind(rec.Fields.Uint("owner_kind")) != graph.OwnerMerge {
				continue
			}
			regions, err := b.precedentTiles(rec, matches)
			if err != nil {
				return nil, err
			}
			for _, at := range sortedCoords(regions) {
				r := regions[at].Clamp(t.Columns, t.Rows)
				if r.BottomRight.Column < r.TopLeft.Column || r.BottomRight.Row < r.TopLeft.Row {
					add(r, rec.ID)
					continue
				}
				cols, rows := r.Size()
				add(Range{TopLeft: at, BottomRight: Coord{Column: at.Column + cols - 1, Row: at.Row + rows - 1}}, rec.ID)
			}
			for _, dep := range rec.Fields.Message("range_dependencies").Messages("back_dependency") {
				ref := dep.Message("internal_range_reference")
				if matches(uint32(ref.Uint("owner_id"))) {
					add(rangeOf(ref.Message("range")), rec.ID)
				}
			}
		}

		if id := m.Message("base_data_store").Ref("merge_region_map"); id != 0 {
			legacy, err := b.fields(id, schema.MergeRegionMap)
			if err != nil {
				b.warn(graph.Diagnostic{
					Kind:    graph.DanglingReference,
					Record:  model,
					Field:   "base_data_store.merge_region_map",
					Message: err.Error(),
				})
			}
			for _, r := range DecodeMergeRegions(legacy) {
				add(r, id)
			}
		}
		return out, nil
	})
}

// DecodeMergeRegions returns the regions of a merge region map. Cells are
// packed with the column in the high half and the row in the low half.
func DecodeMergeRegions(m *archive.Message) []Range {
	var out []Range
	for _, cr := range m.Messages("cell_range") {
		origin := uint32(cr.Message("origin").Uint("packedData"))
		size := uint32(cr.Message("size").Uint("packedData"))
		col, row := origin>>16, origin&0xffff
		cols, rows := size>>16, size&0xffff
		if cols == 0 || rows == 0 {
			continue
		}
		out = append(out, Range{
			TopLeft:     Coord{Column: col, Row: row},
			BottomRight: Coord{Column: col + cols - 1, Row: row + rows - 1},
		})
	}
	return out
}

// EncodeMergeRegions returns a merge region map holding rs.
func EncodeMergeRegions(rs []Range) *archive.Message {
	cells := make([]*archive.Message, 0, len(rs))
	for _, r := range rs {
		cols, rows := r.Size()
		cells = append(cells, archive.New(schema.CellRange).
			WithMessage("origin", archive.New(schema.CellID).WithUint("packedData", uint64(r.TopLeft.Column)<<16|uint64(r.TopLeft.Row))).
			WithMessage("size", archive.New(schema.CellID).WithUint("packedData", uint64(cols)<<16|uint64(rows))))
	}
	return archive.New(schema.MergeMap).WithMessages("cell_range", cells)
}

// precedentTiles merges the range precedents tiles of a merge owner that
// target the table. Each entry maps an anchor to the merged rectangle.
func (b *Builder) precedentTiles(owner archive.Record, matches func(uint32) bool) (map[Coord]Range, error) {
	var tiles []Tile[Range]
	for _, id := range owner.Fields.Message("tiled_range_dependencies").Refs("range_precedents_tile") {
		tile, err := b.fields(id, schema.RangePrecedentsTile)
		if err != nil {
			return nil, fmt.Errorf("formula owner %d precedents: %w", owner.ID, err)
		}
		if !matches(uint32(tile.Uint("to_owner_id"))) {
			continue
		}
		part := Tile[Range]{
			Owner:  id,
			Origin: Coord{Column: uint32(tile.Uint("tile_column_begin")), Row: uint32(tile.Uint("tile_row_begin"))},
		}
		for _, ftr := range tile.Messages("from_to_range") {
			from := ftr.Message("from_coord")
			part.Entries = append(part.Entries, TileEntry[Range]{
				Offset: Coord{Column: uint32(from.Uint("column")), Row: uint32(from.Uint("row"))},
				Value:  rangeOf(ftr.Message("refers_to_rect")),
			})
		}
		tiles = append(tiles, part)
	}
	return MergeTiles(tiles)
}

// ownerMatcher returns a predicate reporting whether an internal owner id
// of the calculation engine denotes the table.
func (b *Builder) ownerMatcher(t Table, m *archive.Message) func(uint32) bool {
	haunted, _ := m.Message("haunted_owner").UUID("owner_uid")
	return func(internal uint32) bool {
		u, ok := b.g.OwnerUUID(internal)
		if !ok {
			return false
		}
		if u == t.Key || (!haunted.IsZero() && u == haunted) {
			return true
		}
		id, err := b.g.ResolveUUID(u)
		if err != nil {
			return false
		}
		if id == t.Model || (t.Haunted != 0 && id == t.Haunted) {
			return true
		}
		// A table model owner shares the table's base owner UUID.
		rec, err := b.g.Get(id)
		if err != nil || rec.Type != schema.FormulaOwnerDependencies || rec.IsOpaque() {
			return false
		}
		base, ok := rec.Fields.UUID("base_owner_uid")
		return ok && base == t.Key
	}
}

func sortedCoords[E any](m map[Coord]E) []Coord {
	out := make([]Coord, 0, len(m))
	for c := range m {
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
