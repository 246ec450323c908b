package parser

import (
	"testing"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/formula"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/internal/fixture"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

func astNode(typ formula.NodeType) *archive.Message {
	return archive.New(schema.ASTNode).WithUint("AST_node_type", uint64(typ))
}

func astNumber(v uint64) *archive.Message {
	return astNode(formula.NodeNumber).
		WithUint("AST_number_node_decimal_low", v).
		WithUint("AST_number_node_decimal_high", 0x3040000000000000)
}

func hasDiagnostic(ds []graph.Diagnostic, kind graph.DiagnosticKind, record archive.Identifier) bool {
	for _, d := range ds {
		if d.Kind == kind && d.Record == record {
			return true
		}
	}
	return false
}

func twoSheetDoc() (*fixture.Doc, *fixture.Table, *fixture.Table) {
	doc := fixture.New()
	t1 := doc.Sheet("Sheet 1").Table("Table 1", 3, 5)
	t2 := doc.Sheet("Sheet 2").Table("Table 2", 2, 2)
	return doc, t1, t2
}

func TestSheetsAndTables(t *testing.T) {
	doc, t1, t2 := twoSheetDoc()
	b := New(doc.Store(t), nil)

	sheets, err := b.Sheets()
	if err != nil {
		t.Fatalf("Sheets failed: %v", err)
	}
	if len(sheets) != 2 {
		t.Fatalf("len(sheets) = %d, expected 2", len(sheets))
	}
	if sheets[0].Name != "Sheet 1" || sheets[1].Name != "Sheet 2" {
		t.Errorf("sheet names = %q, %q", sheets[0].Name, sheets[1].Name)
	}

	tables, err := b.Tables()
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("len(tables) = %d, expected 2", len(tables))
	}
	for i, want := range []*fixture.Table{t1, t2} {
		got := tables[i]
		if got.Model != want.Model || got.Info != want.Info || got.Name != want.Name {
			t.Errorf("table %d = %+v, expected model %d info %d name %q", i, got, want.Model, want.Info, want.Name)
		}
		if got.Columns != want.Columns || got.Rows != want.Rows {
			t.Errorf("table %d size = %dx%d, expected %dx%d", i, got.Columns, got.Rows, want.Columns, want.Rows)
		}
		if got.Key != want.Key || got.Haunted != want.Haunted || got.Fallback {
			t.Errorf("table %d key = %s haunted %d fallback %v, expected %s haunted %d", i, got.Key, got.Haunted, got.Fallback, want.Key, want.Haunted)
		}
		if got.HeaderRows != 1 {
			t.Errorf("table %d HeaderRows = %d, expected 1", i, got.HeaderRows)
		}
	}
	if tables[1].Sheet != sheets[1].ID {
		t.Errorf("table 2 sheet = %d, expected %d", tables[1].Sheet, sheets[1].ID)
	}
	if len(b.Diagnostics()) != 0 {
		t.Errorf("Diagnostics() = %v, expected none", b.Diagnostics())
	}
}

func TestTableByKey(t *testing.T) {
	doc, t1, t2 := twoSheetDoc()
	b := New(doc.Store(t), nil)

	tests := []struct {
		name string
		key  archive.UUID
		want archive.Identifier
	}{
		{"table key", t1.Key, t1.Model},
		{"haunted owner", t2.HauntedUID, t2.Model},
		{"unknown", archive.UUID{Upper: 0xdead, Lower: 1}, 0},
	}
	for _, tt := range tests {
		got, ok := b.TableByKey(tt.key)
		if ok != (tt.want != 0) || got.Model != tt.want {
			t.Errorf("%s: TableByKey(%s) = %d, %v, expected %d", tt.name, tt.key, got.Model, ok, tt.want)
		}
	}
	if n := len(b.TableNamed("Table 1")); n != 1 {
		t.Errorf("len(TableNamed(Table 1)) = %d, expected 1", n)
	}
}

func TestHauntedOwnerFallback(t *testing.T) {
	doc := fixture.New()
	tb := doc.Sheet("Sheet 1").Table("Orphan", 2, 2, fixture.NoHaunted())
	b := New(doc.Store(t), nil)

	got, err := b.Table(tb.Model)
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	if !got.Fallback || got.Key != FallbackKey(tb.Model) || got.Haunted != 0 {
		t.Errorf("Table = %+v, expected fallback key %s", got, FallbackKey(tb.Model))
	}
	if !hasDiagnostic(b.Diagnostics(), graph.OwnerFallback, tb.Model) {
		t.Errorf("Diagnostics() = %v, expected an owner fallback for %d", b.Diagnostics(), tb.Model)
	}
}

func TestNotTable(t *testing.T) {
	doc, _, _ := twoSheetDoc()
	b := New(doc.Store(t), nil)
	if _, err := b.Table(archive.DocumentID); err == nil {
		t.Error("Table(document) succeeded, expected an error")
	}
}

func TestCells(t *testing.T) {
	doc := fixture.New()
	tb := doc.Sheet("Sheet 1").Table("Table 1", 3, 4).
		Number(0, 1, 42).
		Text(1, 1, "hello").
		Bool(2, 1, true).
		Text(0, 2, "hello").
		Formula(2, 2, 3, astNumber(1), astNumber(2), astNode(formula.NodeAddition))
	b := New(doc.Store(t), nil)

	g, err := b.Cells(tb.Model)
	if err != nil {
		t.Fatalf("Cells failed: %v", err)
	}
	if g.Len() != 5 {
		t.Errorf("Len() = %d, expected 5", g.Len())
	}

	tests := []struct {
		at    Coord
		kind  CellKind
		value any
	}{
		{Coord{Column: 0, Row: 1}, CellNumber, 42.0},
		{Coord{Column: 1, Row: 1}, CellText, "hello"},
		{Coord{Column: 2, Row: 1}, CellBool, true},
		{Coord{Column: 0, Row: 2}, CellText, "hello"},
		{Coord{Column: 2, Row: 2}, CellNumber, 3.0},
		{Coord{Column: 1, Row: 3}, CellEmpty, nil},
	}
	for _, tt := range tests {
		c := g.Cell(tt.at)
		if c.Kind != tt.kind || c.Value != tt.value {
			t.Errorf("Cell(%s) = %s %v, expected %s %v", tt.at.Name(), c.Kind, c.Value, tt.kind, tt.value)
		}
	}

	stored := g.Stored()
	if len(stored) != 5 || stored[0] != (Coord{Column: 0, Row: 1}) || stored[4] != (Coord{Column: 2, Row: 2}) {
		t.Errorf("Stored() = %v, expected row-major order", stored)
	}

	c := g.Cell(Coord{Column: 2, Row: 2})
	if c.Formula == nil {
		t.Fatal("formula cell has no formula")
	}
	table, _ := b.Table(tb.Model)
	res, err := b.TranslateCell(formula.New(b.Resolver(), nil), table, c)
	if err != nil {
		t.Fatalf("TranslateCell failed: %v", err)
	}
	if res.Text != "1+2" {
		t.Errorf("TranslateCell(C3) = %q, expected %q", res.Text, "1+2")
	}
}

func TestTranslateCellReferences(t *testing.T) {
	doc := fixture.New()
	sheet := doc.Sheet("Sheet 1")
	host := sheet.Table("Table 1", 3, 3)
	peer := sheet.Table("Table 2", 2, 2)

	cross := astNode(formula.NodeCrossTableCellReference).
		WithMessage("AST_column", archive.New(schema.ASTColumn).WithInt("column", 0).WithBool("absolute", true)).
		WithMessage("AST_row", archive.New(schema.ASTRow).WithInt("row", 0).WithBool("absolute", true)).
		WithMessage("AST_cross_table_reference_extra_info", archive.New(schema.ASTCrossTable).WithUUID("table_id", peer.Key))
	byUID := astNode(formula.NodeUIDReference).
		WithMessage("AST_uid_reference", archive.New(schema.ASTUIDReference).
			WithMessage("begin", archive.New(schema.ASTUIDCoord).
				WithUUID("column_uid", host.ColumnUIDs[1]).
				WithUUID("row_uid", host.RowUIDs[2])))
	unknown := astNode(formula.NodeFunction).WithUint("AST_function_node_index", 9999)

	host.Formula(0, 1, 0, cross).Formula(0, 2, 0, byUID).Formula(1, 1, 0, unknown)
	b := New(doc.Store(t), nil)
	table, err := b.Table(host.Model)
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	g, err := b.Cells(host.Model)
	if err != nil {
		t.Fatalf("Cells failed: %v", err)
	}

	tr := formula.New(b.Resolver(), nil)
	tests := []struct {
		at       Coord
		want     string
		warnings int
	}{
		{Coord{Column: 0, Row: 1}, "Table 2::$A$1", 0},
		{Coord{Column: 0, Row: 2}, "B3", 0},
		{Coord{Column: 1, Row: 1}, "UNDEFINED!()", 1},
	}
	for _, tt := range tests {
		res, err := b.TranslateCell(tr, table, g.Cell(tt.at))
		if err != nil {
			t.Errorf("TranslateCell(%s) error: %v", tt.at.Name(), err)
			continue
		}
		if res.Text != tt.want || len(res.Warnings) != tt.warnings {
			t.Errorf("TranslateCell(%s) = %q with %d warnings, expected %q with %d", tt.at.Name(), res.Text, len(res.Warnings), tt.want, tt.warnings)
		}
	}
	if !hasDiagnostic(b.Diagnostics(), graph.Unsupported, host.Model) {
		t.Errorf("Diagnostics() = %v, expected the unknown function reported", b.Diagnostics())
	}
}

func TestMemoizedUntilGraphChanges(t *testing.T) {
	doc, t1, _ := twoSheetDoc()
	s := doc.Store(t)
	b := New(s, nil)

	before, _ := b.Table(t1.Model)
	rec, _ := s.Get(t1.Model)
	rec.Fields = rec.Fields.WithString("table_name", "Renamed")
	if err := s.Replace(t1.Model, rec); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	after, _ := b.Table(t1.Model)
	if before.Name != "Table 1" || after.Name != "Renamed" {
		t.Errorf("names = %q, %q, expected Table 1 then Renamed", before.Name, after.Name)
	}
}

func TestTableOwners(t *testing.T) {
	doc, t1, _ := twoSheetDoc()
	b := New(doc.Store(t), nil)

	owners, err := b.Owners()
	if err != nil {
		t.Fatalf("Owners failed: %v", err)
	}
	if len(owners) != 4 {
		t.Errorf("len(Owners()) = %d, expected 4", len(owners))
	}
	mine, err := b.TableOwners(t1.Model)
	if err != nil {
		t.Fatalf("TableOwners failed: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != t1.Owner || mine[1].ID != t1.Haunted || mine[1].Kind != graph.OwnerHaunted {
		t.Errorf("TableOwners = %+v, expected the table owner %d and the haunted owner %d", mine, t1.Owner, t1.Haunted)
	}
}

func TestScan(t *testing.T) {
	doc, t1, t2 := twoSheetDoc()
	s := doc.Store(t)

	tile := archive.New(schema.CellRecordTileType).
		WithUint("internal_owner_id", uint64(t1.Internal())).
		WithMessages("cell_records", []*archive.Message{
			archive.New(schema.CellRecord).WithUint("column", 1).WithUint("row", 1),
			archive.New(schema.CellRecord).WithUint("column", 7).WithUint("row", 0),
		})
	tileID, err := s.Insert(archive.Record{Type: schema.CellRecordTile, Fields: tile}, fixture.EnginePath)
	if err != nil {
		t.Fatal(err)
	}
	attach := func(owner archive.Identifier, tiles ...archive.Identifier) {
		rec, err := s.Get(owner)
		if err != nil {
			t.Fatal(err)
		}
		rec.Fields = rec.Fields.WithMessage("tiled_cell_dependencies", archive.New(schema.TiledCellDependencies).WithRefs("cell_record_tiles", tiles))
		if err := s.Replace(owner, rec); err != nil {
			t.Fatal(err)
		}
	}
	attach(t1.Owner, tileID)
	attach(t2.Owner, 4242)

	b := New(s, nil)
	b.Scan()
	if !hasDiagnostic(b.Diagnostics(), graph.Unsupported, t1.Owner) {
		t.Errorf("Diagnostics() = %v, expected the cell record outside table 1 reported", b.Diagnostics())
	}
	if !hasDiagnostic(b.Diagnostics(), graph.DanglingReference, t2.Owner) {
		t.Errorf("Diagnostics() = %v, expected the missing cell record tile reported", b.Diagnostics())
	}

	deps, err := b.CellDependencies(t1.Owner)
	if err != nil {
		t.Fatalf("CellDependencies failed: %v", err)
	}
	if len(deps) != 2 || deps[Coord{Column: 1, Row: 1}] == nil {
		t.Errorf("CellDependencies = %v, expected B2 and H1", deps)
	}

	rec, _ := s.Get(t2.Model)
	rec.Fields = rec.Fields.WithString("table_name", "Renamed")
	if err := s.Replace(t2.Model, rec); err != nil {
		t.Fatal(err)
	}
	if !hasDiagnostic(b.Diagnostics(), graph.Unsupported, t1.Owner) {
		t.Errorf("Diagnostics() after a change = %v, expected the scan warnings kept", b.Diagnostics())
	}
}
