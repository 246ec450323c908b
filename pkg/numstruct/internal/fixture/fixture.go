// Package fixture builds small synthetic documents for tests: sheets and
// tables with cells, merges, formulas and header names, laid out in the
// archive files and record shapes real documents use.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/container"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/iwa"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/storage"
)

// Archive file paths.
const (
	DocumentPath = "Index/Document.iwa"
	MetadataPath = "Index/Metadata.iwa"
	EnginePath   = "Index/CalculationEngine.iwa"
)

// TablePath returns the archive file holding a table's model and tiles.
func TablePath(model archive.Identifier) string {
	return fmt.Sprintf("Index/Tables/Tile-%d.iwa", model)
}

// Merge owner and tile kinds.
const (
	MergeTiled = iota
	MergeBackDependency
	MergeLegacy
)

type cellAt struct {
	col, row uint32
}

type merge struct {
	kind                 int
	col, row, cols, rows uint32
	tile, from           cellAt
	first, last          cellAt
}

// Doc accumulates the content of a document.
type Doc struct {
	next     archive.Identifier
	internal uint32
	sheets   []*Sheet
	headers  []header
	opaque   []placed
	uuidSeq  uint64
	noEngine bool
	built    []placed
}

type placed struct {
	rec  archive.Record
	path string
}

type header struct {
	name       string
	table      *Table
	cols, rows []uint32
	byIndex    bool
}

// Sheet is one sheet of a Doc.
type Sheet struct {
	doc    *Doc
	ID     archive.Identifier
	Name   string
	tables []*Table
}

// Table is one table of a Doc. Identifiers are assigned when the table is
// added.
type Table struct {
	doc   *Doc
	sheet *Sheet

	Model, Info, Tile, Strings, Formulas archive.Identifier
	// Owner is the table model formula owner and Haunted the owner the
	// haunted owner edge points at.
	Owner, Haunted archive.Identifier
	// MergeOwner is set once the document is laid out, for tables with
	// tiled or back-dependency merges.
	MergeOwner archive.Identifier
	// Key is the base owner UUID of the table; HauntedUID the haunted
	// owner edge.
	Key, HauntedUID archive.UUID

	Name          string
	Columns, Rows uint32
	ColumnUIDs    []archive.UUID
	RowUIDs       []archive.UUID

	noHaunted bool
	internal  uint32
	cells     map[cellAt]storage.Cell
	strings   []string
	formulas  []*archive.Message
	merges    []merge
}

// New returns an empty document.
func New() *Doc {
	return &Doc{next: 10, internal: 1}
}

func (d *Doc) id() archive.Identifier {
	id := d.next
	d.next++
	return id
}

func (d *Doc) uuid() archive.UUID {
	d.uuidSeq++
	return archive.UUID{Upper: 0xfeed, Lower: d.uuidSeq}
}

// WithoutEngine leaves the calculation engine out of the document.
func (d *Doc) WithoutEngine() *Doc {
	d.noEngine = true
	return d
}

// Sheet adds a sheet.
func (d *Doc) Sheet(name string) *Sheet {
	s := &Sheet{doc: d, ID: d.id(), Name: name}
	d.sheets = append(d.sheets, s)
	return s
}

// TableOption configures a new table.
type TableOption func(*Table)

// NoHaunted leaves the haunted owner edge out of the table model.
func NoHaunted() TableOption {
	return func(t *Table) { t.noHaunted = true }
}

// Table adds a table of the given size to the sheet.
func (s *Sheet) Table(name string, columns, rows uint32, opts ...TableOption) *Table {
	d := s.doc
	t := &Table{
		doc: d, sheet: s, Name: name, Columns: columns, Rows: rows,
		cells: make(map[cellAt]storage.Cell),
	}
	t.Info, t.Model, t.Tile, t.Strings, t.Formulas = d.id(), d.id(), d.id(), d.id(), d.id()
	t.Owner, t.Haunted = d.id(), d.id()
	t.Key, t.HauntedUID = d.uuid(), d.uuid()
	t.internal = d.internal
	d.internal += 2
	for range columns {
		t.ColumnUIDs = append(t.ColumnUIDs, d.uuid())
	}
	for range rows {
		t.RowUIDs = append(t.RowUIDs, d.uuid())
	}
	for _, opt := range opts {
		opt(t)
	}
	s.tables = append(s.tables, t)
	return t
}

// Internal returns the calculation engine's internal id of the table
// model owner.
func (t *Table) Internal() uint32 {
	return t.internal
}

// Number stores a number cell.
func (t *Table) Number(col, row uint32, v float64) *Table {
	t.cells[cellAt{col, row}] = storage.NumberCell(v)
	return t
}

// Bool stores a boolean cell.
func (t *Table) Bool(col, row uint32, b bool) *Table {
	t.cells[cellAt{col, row}] = storage.BoolCell(b)
	return t
}

// Text stores a text cell, adding s to the table's string list.
func (t *Table) Text(col, row uint32, s string) *Table {
	t.cells[cellAt{col, row}] = storage.TextCell(t.stringKey(s))
	return t
}

func (t *Table) stringKey(s string) uint32 {
	for i, have := range t.strings {
		if have == s {
			return uint32(i + 1)
		}
	}
	t.strings = append(t.strings, s)
	return uint32(len(t.strings))
}

// Formula stores a formula cell with a cached number result. Nodes are
// ASTNode messages in stored order.
func (t *Table) Formula(col, row uint32, cached float64, nodes ...*archive.Message) *Table {
	f := archive.New(schema.Formula).
		WithMessage("AST_node_array", archive.New(schema.ASTNodeArray).WithMessages("AST_node", nodes)).
		WithUint("host_column", uint64(col)).
		WithUint("host_row", uint64(row))
	t.formulas = append(t.formulas, f)
	t.cells[cellAt{col, row}] = storage.NumberCell(cached).WithID(storage.FlagFormula, uint32(len(t.formulas)))
	return t
}

// Merge adds a merged region recorded the given way.
func (t *Table) Merge(kind int, col, row, cols, rows uint32) *Table {
	t.merges = append(t.merges, merge{
		kind: kind, col: col, row: row, cols: cols, rows: rows,
		from:  cellAt{col, row},
		first: cellAt{col, row},
		last:  cellAt{col + cols - 1, row + rows - 1},
	})
	return t
}

// TileMerge adds a tiled merge entry with an explicit tile origin, from
// coordinate and rectangle.
func (t *Table) TileMerge(tileCol, tileRow, fromCol, fromRow, rectCol, rectRow, rectLastCol, rectLastRow uint32) *Table {
	t.merges = append(t.merges, merge{
		kind:  MergeTiled,
		tile:  cellAt{tileCol, tileRow},
		from:  cellAt{fromCol, fromRow},
		first: cellAt{rectCol, rectRow},
		last:  cellAt{rectLastCol, rectLastRow},
	})
	return t
}

// HeaderName names the cells of t at columns × rows. With byIndex set the
// UIDs are stored as indexes into the sorted UID array.
func (d *Doc) HeaderName(name string, t *Table, cols, rows []uint32, byIndex bool) *Doc {
	d.headers = append(d.headers, header{name: name, table: t, cols: cols, rows: rows, byIndex: byIndex})
	return d
}

// Opaque adds a record of a type outside the catalog.
func (d *Doc) Opaque(tag archive.TypeTag, payload []byte, path string) archive.Identifier {
	id := d.id()
	d.opaque = append(d.opaque, placed{rec: archive.Record{ID: id, Type: tag, Opaque: payload}, path: path})
	return id
}

// records returns every record of the document with its archive path.
// The document is laid out on the first call; later changes to d are not
// seen.
func (d *Doc) records() []placed {
	if d.built != nil {
		return d.built
	}
	var out []placed
	add := func(id archive.Identifier, tag archive.TypeTag, m *archive.Message, path string) {
		out = append(out, placed{rec: archive.Record{ID: id, Type: tag, Fields: m}, path: path})
	}

	doc := archive.New(schema.Document)
	var sheetIDs []archive.Identifier
	for _, s := range d.sheets {
		sheetIDs = append(sheetIDs, s.ID)
	}
	doc = doc.WithRefs("sheets", sheetIDs)
	engineID := d.id()
	managerID := d.id()
	if !d.noEngine {
		doc = doc.WithRef("calculation_engine", engineID)
	}
	add(archive.DocumentID, schema.DocumentArchive, doc, DocumentPath)

	var owners []archive.Identifier
	var idMap []*archive.Message
	mapEntry := func(internal uint32, u archive.UUID) {
		idMap = append(idMap, archive.New(schema.OwnerIDMapEntry).WithUint("internal_owner_id", uint64(internal)).WithUUID("owner_id", u))
	}
	var engineRecs []placed

	for _, s := range d.sheets {
		var infos []archive.Identifier
		for _, t := range s.tables {
			infos = append(infos, t.Info)
		}
		add(s.ID, schema.SheetArchive, archive.New(schema.Sheet).WithString("name", s.Name).WithRefs("drawable_infos", infos), DocumentPath)

		for _, t := range s.tables {
			path := TablePath(t.Model)
			add(t.Info, schema.TableInfoArchive, archive.New(schema.TableInfo).
				WithMessage("super", archive.New(schema.Drawable).WithRef("parent", s.ID)).
				WithRef("tableModel", t.Model), DocumentPath)

			store := archive.New(schema.DataStore).
				WithMessage("tiles", archive.New(schema.TileStorage).
					WithMessages("tiles", []*archive.Message{archive.New(schema.TileRef).WithUint("tileid", 0).WithRef("tile", t.Tile)}).
					WithUint("tile_size", 256)).
				WithRef("stringTable", t.Strings).
				WithRef("formula_table", t.Formulas)

			var legacy []*archive.Message
			for _, m := range t.merges {
				if m.kind == MergeLegacy {
					legacy = append(legacy, archive.New(schema.CellRange).
						WithMessage("origin", archive.New(schema.CellID).WithUint("packedData", uint64(m.col)<<16|uint64(m.row))).
						WithMessage("size", archive.New(schema.CellID).WithUint("packedData", uint64(m.cols)<<16|uint64(m.rows))))
				}
			}
			if len(legacy) > 0 {
				mapID := d.id()
				store = store.WithRef("merge_region_map", mapID)
				add(mapID, schema.MergeRegionMap, archive.New(schema.MergeMap).WithMessages("cell_range", legacy), path)
			}

			model := archive.New(schema.TableModel).
				WithString("table_id", fmt.Sprintf("table-%d", t.Model)).
				WithMessage("base_data_store", store).
				WithUint("number_of_rows", uint64(t.Rows)).
				WithUint("number_of_columns", uint64(t.Columns)).
				WithString("table_name", t.Name).
				WithUint("number_of_header_rows", 1).
				WithUUIDs("column_uids", t.ColumnUIDs).
				WithUUIDs("row_uids", t.RowUIDs)
			if !t.noHaunted {
				model = model.WithMessage("haunted_owner", archive.New(schema.HauntedOwnerRef).WithUUID("owner_uid", t.HauntedUID))
			}
			add(t.Model, schema.TableModelArchive, model, path)
			add(t.Tile, schema.TileArchive, t.tile(), path)
			add(t.Strings, schema.TableDataList, t.stringList(), path)
			add(t.Formulas, schema.TableDataList, t.formulaList(), path)

			// Table model owner and haunted owner.
			owners = append(owners, t.Owner, t.Haunted)
			engineRecs = append(engineRecs,
				placed{rec: archive.Record{ID: t.Owner, Type: schema.FormulaOwnerDependencies, Fields: archive.New(schema.FormulaOwner).
					WithUUID("formula_owner_uid", t.Key).
					WithUint("internal_formula_owner_id", uint64(t.internal)).
					WithUint("owner_kind", uint64(graph.OwnerTableModel))}, path: EnginePath},
				placed{rec: archive.Record{ID: t.Haunted, Type: schema.FormulaOwnerDependencies, Fields: archive.New(schema.FormulaOwner).
					WithUUID("formula_owner_uid", t.HauntedUID).
					WithUint("internal_formula_owner_id", uint64(t.internal+1)).
					WithUint("owner_kind", uint64(graph.OwnerHaunted)).
					WithUUID("base_owner_uid", t.Key)}, path: EnginePath},
			)
			mapEntry(t.internal, t.Key)
			mapEntry(t.internal+1, t.HauntedUID)

			if owner, tiles, internal, u := d.mergeOwner(t); owner != nil {
				owners = append(owners, owner.rec.ID)
				engineRecs = append(engineRecs, *owner)
				engineRecs = append(engineRecs, tiles...)
				mapEntry(internal, u)
				t.MergeOwner = owner.rec.ID
			}
		}
	}

	if !d.noEngine {
		tracker := archive.New(schema.DependencyTracker).
			WithRefs("formula_owner_dependencies", owners).
			WithMessage("owner_id_map", archive.New(schema.OwnerIDMap).WithMessages("map_entry", idMap))
		engine := archive.New(schema.CalcEngine).WithMessage("dependency_tracker", tracker)
		if len(d.headers) > 0 {
			engine = engine.WithRef("header_name_manager", managerID)
		}
		add(engineID, schema.CalculationEngine, engine, EnginePath)
		out = append(out, engineRecs...)
		if len(d.headers) > 0 {
			add(managerID, schema.HeaderNameManager, d.headerManager(), EnginePath)
		}
	}
	out = append(out, d.opaque...)

	meta := archive.New(schema.Metadata).
		WithUint("last_object_identifier", uint64(d.next)).
		WithMessages("components", components(out))
	add(archive.PackageID, schema.PackageMetadata, meta, MetadataPath)
	d.built = out
	return out
}

// mergeOwner builds the merge owner of a table and its range precedents
// tiles, if the table has tiled or back-dependency merges.
func (d *Doc) mergeOwner(t *Table) (owner *placed, tiles []placed, internal uint32, u archive.UUID) {
	var tiled, back []merge
	for _, m := range t.merges {
		switch m.kind {
		case MergeTiled:
			tiled = append(tiled, m)
		case MergeBackDependency:
			back = append(back, m)
		}
	}
	if len(tiled) == 0 && len(back) == 0 {
		return nil, nil, 0, archive.UUID{}
	}
	rect := func(m merge) *archive.Message {
		return archive.New(schema.RangeCoordinate).
			WithUint("top_left_column", uint64(m.first.col)).
			WithUint("top_left_row", uint64(m.first.row)).
			WithUint("bottom_right_column", uint64(m.last.col)).
			WithUint("bottom_right_row", uint64(m.last.row))
	}

	byOrigin := make(map[cellAt][]merge)
	for _, m := range tiled {
		byOrigin[m.tile] = append(byOrigin[m.tile], m)
	}
	origins := make([]cellAt, 0, len(byOrigin))
	for at := range byOrigin {
		origins = append(origins, at)
	}
	sort.Slice(origins, func(i, j int) bool {
		if origins[i].row != origins[j].row {
			return origins[i].row < origins[j].row
		}
		return origins[i].col < origins[j].col
	})
	var tileIDs []archive.Identifier
	for _, at := range origins {
		var ftr []*archive.Message
		for _, m := range byOrigin[at] {
			ftr = append(ftr, archive.New(schema.FromToRange).
				WithMessage("refers_to_rect", rect(m)).
				WithMessage("from_coord", archive.New(schema.CellCoordinate).WithUint("column", uint64(m.from.col)).WithUint("row", uint64(m.from.row))))
		}
		id := d.id()
		tileIDs = append(tileIDs, id)
		tiles = append(tiles, placed{rec: archive.Record{ID: id, Type: schema.RangePrecedentsTile, Fields: archive.New(schema.RangePrecedentsTileType).
			WithUint("to_owner_id", uint64(t.internal)).
			WithMessages("from_to_range", ftr).
			WithUint("tile_column_begin", uint64(at.col)).
			WithUint("tile_row_begin", uint64(at.row))}, path: EnginePath})
	}

	var deps []*archive.Message
	for _, m := range back {
		deps = append(deps, archive.New(schema.RangeBackDependency).
			WithMessage("cell_coord", archive.New(schema.CellCoordinate).WithUint("column", uint64(m.col)).WithUint("row", uint64(m.row))).
			WithMessage("internal_range_reference", archive.New(schema.InternalRangeReference).
				WithUint("owner_id", uint64(t.internal)).
				WithMessage("range", rect(m))))
	}

	internal = d.internal
	d.internal++
	u = d.uuid()
	fields := archive.New(schema.FormulaOwner).
		WithUUID("formula_owner_uid", u).
		WithUint("internal_formula_owner_id", uint64(internal)).
		WithUint("owner_kind", uint64(graph.OwnerMerge))
	if len(tileIDs) > 0 {
		fields = fields.WithMessage("tiled_range_dependencies", archive.New(schema.TiledRangeDependencies).WithRefs("range_precedents_tile", tileIDs))
	}
	if len(deps) > 0 {
		fields = fields.WithMessage("range_dependencies", archive.New(schema.RangeDependencies).WithMessages("back_dependency", deps))
	}
	owner = &placed{rec: archive.Record{ID: d.id(), Type: schema.FormulaOwnerDependencies, Fields: fields}, path: EnginePath}
	return owner, tiles, internal, u
}

func (t *Table) tile() *archive.Message {
	rows := make(map[uint32][][]byte)
	for at, c := range t.cells {
		if rows[at.row] == nil {
			rows[at.row] = make([][]byte, t.Columns)
		}
		rows[at.row][at.col] = c.Encode()
	}
	indexes := make([]uint32, 0, len(rows))
	for r := range rows {
		indexes = append(indexes, r)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	var infos []*archive.Message
	var cells, maxRow, maxCol uint64
	for _, r := range indexes {
		buffer, offsets, count := storage.JoinRow(rows[r])
		infos = append(infos, archive.New(schema.TileRowInfo).
			WithUint("tile_row_index", uint64(r)).
			WithUint("cell_count", uint64(count)).
			WithBytes("cell_storage_buffer_pre_bnc", storage.PreBNCBytes).
			WithBytes("cell_offsets_pre_bnc", storage.PreBNCBytes).
			WithBytes("cell_storage_buffer", buffer).
			WithBytes("cell_offsets", offsets).
			WithBool("has_wide_offsets", true))
		cells += uint64(count)
		maxRow = max(maxRow, uint64(r))
		for c, buf := range rows[r] {
			if buf != nil {
				maxCol = max(maxCol, uint64(c))
			}
		}
	}
	return archive.New(schema.Tile).
		WithUint("maxColumn", maxCol).
		WithUint("maxRow", maxRow).
		WithUint("numCells", cells).
		WithUint("numrows", uint64(len(indexes))).
		WithMessages("rowInfos", infos).
		WithBool("last_saved_in_BNC", true).
		WithBool("should_use_wide_rows", true)
}

func (t *Table) stringList() *archive.Message {
	var entries []*archive.Message
	for i, s := range t.strings {
		entries = append(entries, archive.New(schema.ListEntry).WithUint("key", uint64(i+1)).WithUint("refcount", 1).WithString("string", s))
	}
	return archive.New(schema.DataList).
		WithUint("listType", 1).
		WithUint("nextListID", uint64(len(t.strings)+1)).
		WithMessages("entries", entries)
}

func (t *Table) formulaList() *archive.Message {
	var entries []*archive.Message
	for i, f := range t.formulas {
		entries = append(entries, archive.New(schema.ListEntry).WithUint("key", uint64(i+1)).WithUint("refcount", 1).WithMessage("formula", f))
	}
	return archive.New(schema.DataList).
		WithUint("listType", 3).
		WithUint("nextListID", uint64(len(t.formulas)+1)).
		WithMessages("entries", entries)
}

func (d *Doc) headerManager() *archive.Message {
	var sorted []archive.UUID
	for _, s := range d.sheets {
		for _, t := range s.tables {
			sorted = append(sorted, t.ColumnUIDs...)
			sorted = append(sorted, t.RowUIDs...)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	index := make(map[archive.UUID]uint64, len(sorted))
	for i, u := range sorted {
		index[u] = uint64(i)
	}

	var frags []*archive.Message
	for _, h := range d.headers {
		use := archive.New(schema.NameUse).WithUUID("owner_uid", h.table.Key)
		cols := pick(h.table.ColumnUIDs, h.cols)
		rows := pick(h.table.RowUIDs, h.rows)
		if h.byIndex {
			use = use.WithUints("column_uid_indexes", indexesOf(index, cols)).WithUints("row_uid_indexes", indexesOf(index, rows))
		} else {
			use = use.WithUUIDs("column_uids", cols).WithUUIDs("row_uids", rows)
		}
		frags = append(frags, archive.New(schema.NameFragment).
			WithString("name", h.name).
			WithMessages("uses_of_name_fragment", []*archive.Message{use}))
	}
	return archive.New(schema.HeaderNames).
		WithUUID("header_name_owner_uid", d.uuid()).
		WithUUIDs("sorted_uids", sorted).
		WithMessages("name_fragments", frags)
}

func pick(uids []archive.UUID, at []uint32) []archive.UUID {
	var out []archive.UUID
	for _, i := range at {
		out = append(out, uids[i])
	}
	return out
}

func indexesOf(index map[archive.UUID]uint64, uids []archive.UUID) []uint64 {
	var out []uint64
	for _, u := range uids {
		out = append(out, index[u])
	}
	return out
}

// components lists one component per archive file, identified by its
// first record, with an external reference for each record of another
// file that the component refers to.
func components(recs []placed) []*archive.Message {
	root := make(map[string]archive.Identifier)
	home := make(map[archive.Identifier]string)
	for _, p := range recs {
		if _, ok := root[p.path]; !ok {
			root[p.path] = p.rec.ID
		}
		home[p.rec.ID] = p.path
	}
	var out []*archive.Message
	for _, path := range uniquePaths(recs) {
		var ext []*archive.Message
		seen := make(map[archive.Identifier]bool)
		for _, p := range recs {
			if p.path != path || p.rec.IsOpaque() {
				continue
			}
			for _, e := range p.rec.References() {
				to, ok := home[e.Target]
				if !ok || to == path || seen[e.Target] {
					continue
				}
				seen[e.Target] = true
				ext = append(ext, archive.New(schema.ComponentExternalReference).
					WithUint("component_identifier", uint64(root[to])).
					WithUint("object_identifier", uint64(e.Target)))
			}
		}
		c := archive.New(schema.ComponentInfo).
			WithUint("identifier", uint64(root[path])).
			WithString("preferred_locator", trimIndex(path)).
			WithString("locator", trimIndex(path))
		if len(ext) > 0 {
			c = c.WithMessages("external_references", ext)
		}
		out = append(out, c)
	}
	return out
}

func uniquePaths(recs []placed) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range recs {
		if !seen[p.path] {
			seen[p.path] = true
			out = append(out, p.path)
		}
	}
	return out
}

func trimIndex(p string) string {
	p = filepath.ToSlash(p)
	p = p[len("Index/"):]
	return p[:len(p)-len(".iwa")]
}

// Store loads the document into a sealed graph store.
func (d *Doc) Store(tb testing.TB) *graph.Store {
	tb.Helper()
	s := graph.New()
	for _, p := range d.records() {
		if _, err := s.Insert(p.rec, p.path); err != nil {
			tb.Fatalf("fixture: insert %d: %v", p.rec.ID, err)
		}
	}
	s.Seal()
	return s
}

// Package encodes the document into an in-memory package.
func (d *Doc) Package(tb testing.TB) *container.Package {
	tb.Helper()
	files := make(map[string][]archive.Record)
	recs := d.records()
	for _, p := range recs {
		files[p.path] = append(files[p.path], p.rec)
	}
	pkg := container.New()
	for _, path := range uniquePaths(recs) {
		if err := pkg.Write(path, iwa.EncodeFile(files[path])); err != nil {
			tb.Fatalf("fixture: write %s: %v", path, err)
		}
	}
	if err := pkg.Write("Metadata/Properties.plist", []byte("<plist/>")); err != nil {
		tb.Fatalf("fixture: %v", err)
	}
	return pkg
}

// Write saves the document as a package file in a temporary directory and
// returns its path.
func (d *Doc) Write(tb testing.TB) string {
	tb.Helper()
	name := filepath.Join(tb.TempDir(), "fixture.numbers")
	f, err := os.Create(name)
	if err != nil {
		tb.Fatalf("fixture: %v", err)
	}
	defer f.Close()
	if _, err := d.Package(tb).WriteTo(f); err != nil {
		tb.Fatalf("fixture: %v", err)
	}
	return name
}
