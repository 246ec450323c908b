package numstruct

import (
	"fmt"
	"slices"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/parser"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/storage"
)

// SetName renames the sheet. Sheet names are unique within a document.
func (s *Sheet) SetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty sheet name", ErrInvalidName)
	}
	sheets, err := s.doc.Sheets()
	if err != nil {
		return err
	}
	for _, o := range sheets {
		if o.sheet.ID != s.sheet.ID && o.Name() == name {
			return fmt.Errorf("%w: sheet %q already exists", ErrInvalidName, name)
		}
	}
	rec, err := s.doc.store.Get(s.sheet.ID)
	if err != nil {
		return err
	}
	rec.Fields = rec.Fields.WithString("name", name)
	if err := s.doc.store.Replace(s.sheet.ID, rec); err != nil {
		return err
	}
	s.doc.log.Debug("renamed sheet", "from", s.sheet.Name, "to", name)
	s.sheet.Name = name
	return nil
}

// SetName renames the table. Table names are unique within a sheet.
func (t *Table) SetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty table name", ErrInvalidName)
	}
	info, err := t.info()
	if err != nil {
		return err
	}
	if s, ok := t.doc.model.SheetOf(info); ok {
		for _, id := range s.Tables {
			o, err := t.doc.model.Table(id)
			if err == nil && id != t.model && o.Name == name {
				return fmt.Errorf("%w: table %q already exists on sheet %q", ErrInvalidName, name, s.Name)
			}
		}
	}
	model, err := t.modelFields()
	if err != nil {
		return err
	}
	if err := t.replaceFields(t.model, model.WithString("table_name", name)); err != nil {
		return err
	}
	t.doc.log.Debug("renamed table", "from", info.Name, "to", name)
	return nil
}

// AddRows inserts n empty rows before row start. A start equal to the
// row count appends them.
func (t *Table) AddRows(start, n uint32) error {
	info, err := t.info()
	if err != nil {
		return err
	}
	if start > info.Rows {
		return fmt.Errorf("%w: row %d in %d-row table", ErrOutOfRange, start, info.Rows)
	}
	if n == 0 {
		return nil
	}
	if err := t.checkRowMove(info, start, 0); err != nil {
		return err
	}
	return t.shiftRows(info, start, int(n))
}

// DeleteRows removes n rows starting at row start. A table keeps at least
// one row.
func (t *Table) DeleteRows(start, n uint32) error {
	info, err := t.info()
	if err != nil {
		return err
	}
	if start >= info.Rows || n > info.Rows-start {
		return fmt.Errorf("%w: rows %d to %d in %d-row table", ErrOutOfRange, start, uint64(start)+uint64(n), info.Rows)
	}
	if n == 0 {
		return nil
	}
	if n == info.Rows {
		return fmt.Errorf("%w: a table keeps at least one row", ErrOutOfRange)
	}
	if err := t.checkRowMove(info, start, n); err != nil {
		return err
	}

	grid, err := t.doc.model.Cells(t.model)
	if err != nil {
		return err
	}
	var texts []uint32
	for _, at := range grid.Stored() {
		c := grid.Cell(at)
		if at.Row < start || at.Row >= start+n || c.Kind != parser.CellText {
			continue
		}
		if key, ok := c.Storage.ID(storage.FlagString); ok {
			texts = append(texts, key)
		}
	}
	for _, key := range texts {
		if err := t.release(key); err != nil {
			return err
		}
	}
	return t.shiftRows(info, start, -int(n))
}

// checkRowMove rejects moving the rows from start on when they hold
// formulas, merged regions or, for deleted rows, header names: all of
// these are recorded by position in the calculation engine.
func (t *Table) checkRowMove(info parser.Table, start, deleted uint32) error {
	grid, err := t.doc.model.Cells(t.model)
	if err != nil {
		return err
	}
	for _, at := range grid.Stored() {
		if at.Row >= start && grid.Cell(at).Formula != nil {
			return fmt.Errorf("%w: formula at %s would move", ErrUnsupported, at.Name())
		}
	}
	merges, err := t.doc.model.Merges(t.model)
	if err != nil {
		return err
	}
	for _, r := range merges.Ranges() {
		if r.BottomRight.Row >= start {
			return fmt.Errorf("%w: merged region %s would move", ErrUnsupported, r)
		}
	}
	if deleted == 0 {
		return nil
	}
	names, err := t.doc.model.HeaderNames(t.model)
	if err != nil {
		return err
	}
	for _, h := range names {
		for _, row := range h.Rows {
			if row >= start && row < start+deleted {
				return fmt.Errorf("%w: header name %q uses row %d", ErrUnsupported, h.Name, row+1)
			}
		}
	}
	return nil
}

// shiftRows moves the stored rows from start on by delta and resizes the
// table to match.
func (t *Table) shiftRows(info parser.Table, start uint32, delta int) error {
	model, err := t.modelFields()
	if err != nil {
		return err
	}
	dataStore := model.Message("base_data_store")
	if dataStore == nil {
		dataStore = archive.New(schema.DataStore)
	}
	tiles := dataStore.Message("tiles")
	if tiles == nil {
		tiles = archive.New(schema.TileStorage).WithUint("tile_size", parser.DefaultTileSize)
	}
	size := uint32(tiles.Uint("tile_size"))
	if size == 0 {
		size = parser.DefaultTileSize
	}

	stored := make(map[uint64]*archive.Message)
	ids := make(map[uint64]archive.Identifier)
	for _, ref := range tiles.Messages("tiles") {
		id := ref.Ref("tile")
		rec, err := t.doc.store.Get(id)
		if err != nil {
			return err
		}
		if rec.IsOpaque() || !rec.Fields.Bool("last_saved_in_BNC") {
			return fmt.Errorf("%w: tile %d uses pre-BNC cell storage", ErrUnsupported, id)
		}
		stored[ref.Uint("tileid")] = rec.Fields
		ids[ref.Uint("tileid")] = id
	}

	shifted := parser.ShiftRows(stored, size, start, delta)
	keys := make([]uint64, 0, len(shifted))
	for k := range shifted {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	path, _ := t.doc.store.PathOf(t.model)
	for _, k := range keys {
		tile := shifted[k]
		if id, ok := ids[k]; ok {
			if err := t.replaceFields(id, tile); err != nil {
				return err
			}
			continue
		}
		if tile.Count("rowInfos") == 0 {
			continue
		}
		id, err := t.doc.store.Insert(archive.Record{Type: schema.TileArchive, Fields: tile}, path)
		if err != nil {
			return err
		}
		tiles = tiles.AppendMessage("tiles", archive.New(schema.TileRef).WithUint("tileid", k).WithRef("tile", id))
	}

	rows := uint32(int(info.Rows) + delta)
	model = model.
		WithMessage("base_data_store", dataStore.WithMessage("tiles", tiles)).
		WithUint("number_of_rows", uint64(rows))
	if uids := model.UUIDs("row_uids"); len(uids) == int(info.Rows) {
		if delta > 0 {
			fresh := make([]archive.UUID, delta)
			for i := range fresh {
				fresh[i] = archive.NewUUID()
			}
			uids = slices.Insert(uids, int(start), fresh...)
		} else {
			uids = slices.Delete(uids, int(start), int(start)-delta)
		}
		model = model.WithUUIDs("row_uids", uids)
	}
	if delta < 0 {
		end := start + uint32(-delta)
		header := info.HeaderRows - overlap(start, end, 0, info.HeaderRows)
		footer := info.FooterRows - overlap(start, end, info.Rows-min(info.FooterRows, info.Rows), info.Rows)
		model = model.
			WithUint("number_of_header_rows", uint64(header)).
			WithUint("number_of_footer_rows", uint64(footer))
	}
	if err := t.replaceFields(t.model, model); err != nil {
		return err
	}
	t.doc.log.Debug("moved rows", "table", info.Name, "start", start, "delta", delta, "rows", rows)
	return nil
}

// overlap returns the number of indexes [a, b) shares with [c, d).
func overlap(a, b, c, d uint32) uint32 {
	lo, hi := max(a, c), min(b, d)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Merge joins the cells of r into one region. The region must cover more
// than one cell, lie inside the table and not overlap another region.
func (t *Table) Merge(r parser.Range) error {
	info, err := t.info()
	if err != nil {
		return err
	}
	if r.BottomRight.Column < r.TopLeft.Column || r.BottomRight.Row < r.TopLeft.Row {
		return fmt.Errorf("%w: %s is inverted", ErrInvalidRange, r)
	}
	if r.BottomRight.Column >= info.Columns || r.BottomRight.Row >= info.Rows {
		return fmt.Errorf("%w: %s in %dx%d table", ErrOutOfRange, r, info.Columns, info.Rows)
	}
	if r.TopLeft == r.BottomRight {
		return fmt.Errorf("%w: %s is a single cell", ErrInvalidRange, r)
	}
	merges, err := t.doc.model.Merges(t.model)
	if err != nil {
		return err
	}
	for _, o := range merges.Ranges() {
		if o.Overlaps(r) {
			return fmt.Errorf("%w: %s overlaps %s", ErrInvalidRange, r, o)
		}
	}
	id, regions, err := t.mergeRegions()
	if err != nil {
		return err
	}
	return t.writeMergeRegions(id, append(regions, r))
}

// Unmerge splits the region anchored at anchor. Only regions kept in the
// table's merge region map can be split; regions recorded by a merge
// owner are left alone.
func (t *Table) Unmerge(anchor parser.Coord) error {
	merges, err := t.doc.model.Merges(t.model)
	if err != nil {
		return err
	}
	if !merges.IsAnchor(anchor) {
		return fmt.Errorf("%w: no merged region at %s", ErrNotFound, anchor.Name())
	}
	id, regions, err := t.mergeRegions()
	if err != nil {
		return err
	}
	i := slices.IndexFunc(regions, func(r parser.Range) bool { return r.TopLeft == anchor })
	if i < 0 {
		return fmt.Errorf("%w: region at %s is recorded by a merge owner", ErrUnsupported, anchor.Name())
	}
	return t.writeMergeRegions(id, slices.Delete(regions, i, i+1))
}

// mergeRegions returns the table's merge region map and its regions. The
// identifier is zero when the table has no map.
func (t *Table) mergeRegions() (archive.Identifier, []parser.Range, error) {
	model, err := t.modelFields()
	if err != nil {
		return 0, nil, err
	}
	id := model.Message("base_data_store").Ref("merge_region_map")
	if id == 0 {
		return 0, nil, nil
	}
	rec, err := t.doc.store.Get(id)
	if err != nil {
		return 0, nil, err
	}
	if rec.IsOpaque() || rec.Type != schema.MergeRegionMap {
		return 0, nil, fmt.Errorf("%w: merge region map %d has type %d", ErrUnsupported, id, rec.Type)
	}
	return id, parser.DecodeMergeRegions(rec.Fields), nil
}

// writeMergeRegions stores regions in the merge region map, creating the
// map next to the table model when it has none.
func (t *Table) writeMergeRegions(id archive.Identifier, regions []parser.Range) error {
	fields := parser.EncodeMergeRegions(regions)
	if id != 0 {
		return t.replaceFields(id, fields)
	}
	path, _ := t.doc.store.PathOf(t.model)
	id, err := t.doc.store.Insert(archive.Record{Type: schema.MergeRegionMap, Fields: fields}, path)
	if err != nil {
		return err
	}
	model, err := t.modelFields()
	if err != nil {
		return err
	}
	dataStore := model.Message("base_data_store")
	if dataStore == nil {
		dataStore = archive.New(schema.DataStore)
	}
	return t.replaceFields(t.model, model.WithMessage("base_data_store", dataStore.WithRef("merge_region_map", id)))
}
