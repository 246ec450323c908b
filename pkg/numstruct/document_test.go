package numstruct

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/container"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/formula"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/internal/fixture"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/iwa"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/parser"
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

// sampleDoc is a document with two sheets: a table holding values, a
// formula and a merge, and a second table on another sheet.
func sampleDoc() (*fixture.Doc, *fixture.Table, *fixture.Table) {
	doc := fixture.New()
	t1 := doc.Sheet("Sheet 1").Table("Table 1", 3, 4).
		Text(0, 0, "Item").
		Text(1, 0, "Qty").
		Text(0, 1, "Pen").
		Number(1, 1, 2).
		Bool(2, 1, true).
		Formula(1, 2, 3, astNumber(1), astNumber(2), astNode(formula.NodeAddition)).
		Merge(fixture.MergeTiled, 0, 3, 2, 1)
	t2 := doc.Sheet("Sheet 2").Table("Table 2", 2, 2).Number(0, 1, 7)
	doc.HeaderName("Qty", t1, []uint32{1}, nil, false)
	return doc, t1, t2
}

func openFixture(t *testing.T, doc *fixture.Doc, opts Options) *Document {
	t.Helper()
	d, err := Open(doc.Write(t), opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return d
}

func reopen(t *testing.T, d *Document) *Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saved.numbers")
	if err := d.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	again, err := Open(path, d.opts)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	return again
}

func findTable(t *testing.T, d *Document, sheet, table string) *Table {
	t.Helper()
	s, err := d.Sheet(sheet)
	if err != nil {
		t.Fatalf("Sheet(%q) failed: %v", sheet, err)
	}
	tb, err := s.Table(table)
	if err != nil {
		t.Fatalf("Table(%q) failed: %v", table, err)
	}
	return tb
}

func valueAt(t *testing.T, tb *Table, col, row uint32) any {
	t.Helper()
	c, err := tb.Cell(col, row)
	if err != nil {
		t.Fatalf("Cell(%d, %d) failed: %v", col, row, err)
	}
	return c.Value
}

func TestOpen(t *testing.T) {
	doc, _, _ := sampleDoc()
	d := openFixture(t, doc, DefaultOptions())

	if d.Name() != "fixture.numbers" {
		t.Errorf("Name() = %q, expected fixture.numbers", d.Name())
	}
	sheets, err := d.Sheets()
	if err != nil {
		t.Fatalf("Sheets failed: %v", err)
	}
	if len(sheets) != 2 || sheets[0].Name() != "Sheet 1" || sheets[1].Name() != "Sheet 2" {
		t.Fatalf("sheets = %v", sheets)
	}

	tb := findTable(t, d, "Sheet 1", "Table 1")
	cols, rows, err := tb.Size()
	if err != nil || cols != 3 || rows != 4 {
		t.Errorf("Size() = %d, %d, %v, expected 3, 4", cols, rows, err)
	}
	tests := []struct {
		col, row uint32
		want     any
	}{
		{0, 0, "Item"},
		{0, 1, "Pen"},
		{1, 1, 2.0},
		{2, 1, true},
		{1, 2, 3.0},
		{2, 2, nil},
	}
	for _, tt := range tests {
		if got := valueAt(t, tb, tt.col, tt.row); got != tt.want {
			t.Errorf("Cell(%d, %d) = %v, expected %v", tt.col, tt.row, got, tt.want)
		}
	}
	if f, err := tb.Formula(1, 2); err != nil || f != "1+2" {
		t.Errorf("Formula(B3) = %q, %v, expected 1+2", f, err)
	}
	if len(d.Diagnostics()) != 0 {
		t.Errorf("Diagnostics() = %v, expected none", d.Diagnostics())
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.numbers")
	if err := os.WriteFile(junk, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing", filepath.Join(dir, "missing.numbers"), ErrFileNotFound},
		{"not a package", junk, ErrInvalidFormat},
	}
	for _, tt := range tests {
		if _, err := Open(tt.path, DefaultOptions()); !errors.Is(err, tt.want) {
			t.Errorf("%s: Open error = %v, expected %v", tt.name, err, tt.want)
		}
	}
}

func TestLoadWithoutDocumentRoot(t *testing.T) {
	pkg := container.New()
	if err := pkg.Write("Index/Other.iwa", iwa.EncodeFile(nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(pkg, "empty.numbers", DefaultOptions()); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Load error = %v, expected ErrInvalidFormat", err)
	}
}

func TestLoadCorruptRecord(t *testing.T) {
	pkg := container.New()
	bad := archive.Record{ID: archive.DocumentID, Type: schema.DocumentArchive, Opaque: []byte{0xff, 0xff}}
	if err := pkg.Write(fixture.DocumentPath, iwa.EncodeFile([]archive.Record{bad})); err != nil {
		t.Fatal(err)
	}
	_, err := Load(pkg, "corrupt.numbers", DefaultOptions())
	if !errors.Is(err, archive.ErrCorrupt) {
		t.Fatalf("Load error = %v, expected a corrupt record", err)
	}
	var cre *archive.CorruptRecordError
	if !errors.As(err, &cre) || cre.ID != archive.DocumentID {
		t.Errorf("Load error = %#v, expected record %d", err, archive.DocumentID)
	}
}

func TestSetAndSave(t *testing.T) {
	doc, _, _ := sampleDoc()
	d := openFixture(t, doc, DefaultOptions())
	tb := findTable(t, d, "Sheet 1", "Table 1")

	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	steps := []struct {
		name string
		set  func() error
	}{
		{"number", func() error { return tb.SetNumber(1, 1, 12.5) }},
		{"new text", func() error { return tb.SetText(0, 1, "Pencil") }},
		{"shared text", func() error { return tb.SetText(2, 0, "Item") }},
		{"bool", func() error { return tb.SetBool(2, 1, false) }},
		{"date", func() error { return tb.SetDate(0, 2, when) }},
		{"duration", func() error { return tb.SetDuration(2, 2, 90*time.Minute) }},
		{"clear", func() error { return tb.Clear(1, 0) }},
	}
	for _, s := range steps {
		if err := s.set(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}

	again := reopen(t, d)
	tb = findTable(t, again, "Sheet 1", "Table 1")
	tests := []struct {
		col, row uint32
		want     any
	}{
		{1, 1, 12.5},
		{0, 1, "Pencil"},
		{2, 0, "Item"},
		{0, 0, "Item"},
		{2, 1, false},
		{2, 2, 90 * time.Minute},
		{1, 0, nil},
		{1, 2, 3.0},
	}
	for _, tt := range tests {
		if got := valueAt(t, tb, tt.col, tt.row); got != tt.want {
			t.Errorf("Cell(%d, %d) = %v, expected %v", tt.col, tt.row, got, tt.want)
		}
	}
	if got, ok := valueAt(t, tb, 0, 2).(time.Time); !ok || !got.Equal(when) {
		t.Errorf("Cell(0, 2) = %v, expected %v", valueAt(t, tb, 0, 2), when)
	}
	if err := again.Store().CheckWrite(); err != nil {
		t.Errorf("CheckWrite after reload: %v", err)
	}
}

func TestSetBeyondStoredRows(t *testing.T) {
	doc := fixture.New()
	doc.Sheet("Sheet 1").Table("Big", 2, 600).Number(0, 0, 1)
	d := openFixture(t, doc, DefaultOptions())
	tb := findTable(t, d, "Sheet 1", "Big")

	if err := tb.SetNumber(1, 599, 42); err != nil {
		t.Fatalf("SetNumber(B600) failed: %v", err)
	}
	again := reopen(t, d)
	tb = findTable(t, again, "Sheet 1", "Big")
	if got := valueAt(t, tb, 1, 599); got != 42.0 {
		t.Errorf("Cell(B600) = %v, expected 42", got)
	}
	if got := valueAt(t, tb, 0, 0); got != 1.0 {
		t.Errorf("Cell(A1) = %v, expected 1", got)
	}
}

func TestWriteErrors(t *testing.T) {
	doc, _, _ := sampleDoc()
	d := openFixture(t, doc, DefaultOptions())
	tb := findTable(t, d, "Sheet 1", "Table 1")

	if err := tb.SetFormula(0, 0, "=A2+1"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetFormula error = %v, expected ErrUnsupported", err)
	}
	if err := tb.SetNumber(1, 2, 5); !errors.Is(err, ErrUnsupported) {
		t.Errorf("SetNumber over a formula error = %v, expected ErrUnsupported", err)
	}
	if err := tb.SetNumber(3, 0, 5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetNumber(D1) error = %v, expected ErrOutOfRange", err)
	}
	if _, err := tb.Cell(0, 4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Cell(A5) error = %v, expected ErrOutOfRange", err)
	}
	if _, err := d.Sheet("Nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Sheet(Nope) error = %v, expected ErrNotFound", err)
	}
}

func TestRemoveTable(t *testing.T) {
	doc := fixture.New()
	sheet := doc.Sheet("Sheet 1")
	gone := sheet.Table("Gone", 2, 2).Text(0, 0, "x").Merge(fixture.MergeTiled, 0, 1, 2, 1)
	sheet.Table("Kept", 2, 2).Number(0, 0, 5)
	doc.HeaderName("H", gone, []uint32{0}, nil, false)
	d := openFixture(t, doc, DefaultOptions())

	if err := d.RemoveTable(findTable(t, d, "Sheet 1", "Gone")); err != nil {
		t.Fatalf("RemoveTable failed: %v", err)
	}
	for _, id := range []archive.Identifier{gone.Model, gone.Info, gone.Tile, gone.Owner} {
		if _, err := d.Store().Get(id); !errors.Is(err, graph.ErrNotFound) {
			t.Errorf("Get(%d) error = %v, expected ErrNotFound", id, err)
		}
	}

	again := reopen(t, d)
	s, err := again.Sheet("Sheet 1")
	if err != nil {
		t.Fatal(err)
	}
	tables, err := s.Tables()
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 {
		t.Fatalf("len(tables) = %d, expected 1", len(tables))
	}
	if name, _ := tables[0].Name(); name != "Kept" {
		t.Errorf("remaining table = %q, expected Kept", name)
	}
	if got := valueAt(t, tables[0], 0, 0); got != 5.0 {
		t.Errorf("Kept A1 = %v, expected 5", got)
	}
}

func TestVerify(t *testing.T) {
	doc, _, _ := sampleDoc()
	d := openFixture(t, doc, DefaultOptions())

	rep, err := d.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !rep.OK() || rep.Reachable == 0 {
		t.Errorf("Verify = %+v, expected a clean report", rep)
	}

	tb := findTable(t, d, "Sheet 2", "Table 2")
	if err := tb.SetText(1, 1, "edited"); err != nil {
		t.Fatal(err)
	}
	rep, err = d.Verify()
	if err != nil {
		t.Fatalf("Verify after edit failed: %v", err)
	}
	if !rep.OK() {
		t.Errorf("Verify after edit = %+v, expected a clean report", rep)
	}
}

func TestOpaqueRecordsPassThrough(t *testing.T) {
	doc, _, _ := sampleDoc()
	payload := []byte{0x08, 0x96, 0x01, 0x12, 0x02, 'h', 'i'}
	id := doc.Opaque(99999, payload, fixture.DocumentPath)
	d := openFixture(t, doc, DefaultOptions())

	rec, err := d.Store().Get(id)
	if err != nil || !rec.IsOpaque() {
		t.Fatalf("Get(%d) = %+v, %v, expected an opaque record", id, rec, err)
	}
	again := reopen(t, d)
	rec, err = again.Store().Get(id)
	if err != nil {
		t.Fatalf("Get(%d) after reload failed: %v", id, err)
	}
	if rec.Type != 99999 || !bytes.Equal(rec.Opaque, payload) {
		t.Errorf("record = type %d %x, expected type 99999 %x", rec.Type, rec.Opaque, payload)
	}
}

func TestMerges(t *testing.T) {
	doc := fixture.New()
	doc.Sheet("Sheet 1").Table("Table 1", 3, 3).Merge(fixture.MergeTiled, 0, 0, 2, 1)
	d := openFixture(t, doc, DefaultOptions())

	m, err := findTable(t, d, "Sheet 1", "Table 1").Merges()
	if err != nil {
		t.Fatalf("Merges failed: %v", err)
	}
	origin := parser.Coord{}
	cols, rows, ok := m.Size(origin)
	if !ok || cols != 2 || rows != 1 {
		t.Errorf("Size(A1) = %d, %d, %v, expected 2, 1", cols, rows, ok)
	}
	if anchor, ok := m.Lookup(parser.Coord{Column: 1}); !ok || anchor != origin {
		t.Errorf("Lookup(B1) = %v, %v, expected A1", anchor, ok)
	}
	if _, ok := m.Lookup(parser.Coord{Column: 2}); ok {
		t.Error("Lookup(C1) is merged, expected not")
	}
}

func TestExport(t *testing.T) {
	doc, _, _ := sampleDoc()
	out, err := Extract(doc.Write(t), Options{Mode: ModeVerbose})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if out.BookName != "fixture.numbers" || len(out.Sheets) != 2 {
		t.Fatalf("Extract = %+v", out)
	}
	sheet, ok := out.Sheet("Sheet 1")
	if !ok || len(sheet.Tables) != 1 {
		t.Fatalf("Sheet 1 = %+v", sheet)
	}
	table := sheet.Tables[0]
	if table.NumRows != 4 || table.NumColumns != 3 || table.KeyFallback {
		t.Errorf("table = %+v", table)
	}
	if len(table.Rows) != 3 || table.Rows[0].R != 1 || table.Rows[2].R != 3 {
		t.Fatalf("rows = %+v", table.Rows)
	}
	if got := table.Rows[1].C["1"]; got != "Pen" {
		t.Errorf("A2 = %v, expected Pen", got)
	}
	if got := table.Rows[2].Formulas["2"]; got != "1+2" {
		t.Errorf("B3 formula = %q, expected 1+2", got)
	}
	if len(table.Merges) != 1 || table.Merges[0].R1 != 4 || table.Merges[0].C2 != 2 {
		t.Errorf("merges = %+v", table.Merges)
	}
	if len(table.HeaderNames) != 1 || table.HeaderNames[0].Name != "Qty" || table.HeaderNames[0].Columns[0] != 2 {
		t.Errorf("header names = %+v", table.HeaderNames)
	}
}

func TestExportModes(t *testing.T) {
	doc, _, _ := sampleDoc()
	path := doc.Write(t)
	on := true

	tests := []struct {
		name             string
		opts             Options
		formulas, merges bool
	}{
		{"light", Options{Mode: ModeLight}, false, false},
		{"standard", Options{Mode: ModeStandard}, false, true},
		{"light with formulas", Options{Mode: ModeLight, IncludeFormulas: &on}, true, false},
	}
	for _, tt := range tests {
		out, err := Extract(path, tt.opts)
		if err != nil {
			t.Fatalf("%s: Extract failed: %v", tt.name, err)
		}
		table := out.Sheets[0].Tables[0]
		if got := table.Rows[2].Formulas != nil; got != tt.formulas {
			t.Errorf("%s: formulas present = %v, expected %v", tt.name, got, tt.formulas)
		}
		if got := len(table.Merges) > 0; got != tt.merges {
			t.Errorf("%s: merges present = %v, expected %v", tt.name, got, tt.merges)
		}
	}
}

func TestExportHauntedOwnerFallback(t *testing.T) {
	doc := fixture.New()
	tb := doc.Sheet("Sheet 1").Table("Orphan", 2, 2, fixture.NoHaunted()).Number(0, 0, 1)
	d := openFixture(t, doc, DefaultOptions())

	out, err := d.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	table := out.Sheets[0].Tables[0]
	if !table.KeyFallback || table.Key != parser.FallbackKey(tb.Model).String() {
		t.Errorf("table key = %s fallback %v, expected %s", table.Key, table.KeyFallback, parser.FallbackKey(tb.Model))
	}
	found := false
	for _, diag := range out.Diagnostics {
		if diag.Kind == graph.OwnerFallback.String() && diag.Record == uint64(tb.Model) {
			found = true
		}
	}
	if !found {
		t.Errorf("diagnostics = %+v, expected an owner fallback for %d", out.Diagnostics, tb.Model)
	}
}

func TestUnpack(t *testing.T) {
	doc, t1, _ := sampleDoc()
	d := openFixture(t, doc, DefaultOptions())

	files := d.Unpack()
	var model map[string]any
	for _, f := range files {
		for _, r := range f.Records {
			if r.Identifier == uint64(t1.Model) {
				if f.Path != fixture.TablePath(t1.Model) {
					t.Errorf("table model in %s, expected %s", f.Path, fixture.TablePath(t1.Model))
				}
				model = r.Fields
			}
		}
	}
	if model == nil {
		t.Fatalf("table model %d not unpacked", t1.Model)
	}
	if model["table_name"] != "Table 1" {
		t.Errorf("table_name = %v, expected Table 1", model["table_name"])
	}
}

func hasDiagnostic(ds []graph.Diagnostic, kind graph.DiagnosticKind, record archive.Identifier) bool {
	for _, d := range ds {
		if d.Kind == kind && d.Record == record {
			return true
		}
	}
	return false
}

func TestUnsupportedOwnerReported(t *testing.T) {
	doc, _, _ := sampleDoc()
	d := openFixture(t, doc, DefaultOptions())
	pivot := archive.New(schema.FormulaOwner).
		WithUUID("formula_owner_uid", archive.UUID{Upper: 0xbeef, Lower: 1}).
		WithUint("internal_formula_owner_id", 900).
		WithUint("owner_kind", uint64(graph.OwnerPivot))
	id, err := d.Store().Insert(archive.Record{Type: schema.FormulaOwnerDependencies, Fields: pivot}, fixture.EnginePath)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	again := reopen(t, d)
	if !hasDiagnostic(again.Diagnostics(), graph.Unsupported, id) {
		t.Errorf("Diagnostics() = %v, expected the pivot owner %d reported on load", again.Diagnostics(), id)
	}
	out, err := again.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	found := false
	for _, diag := range out.Diagnostics {
		if diag.Kind == graph.Unsupported.String() && diag.Record == uint64(id) {
			found = true
		}
	}
	if !found {
		t.Errorf("export diagnostics = %+v, expected the pivot owner %d", out.Diagnostics, id)
	}
}

func TestLoadWarningsSurviveEdits(t *testing.T) {
	doc := fixture.New()
	sheet := doc.Sheet("Sheet 1")
	orphan := sheet.Table("Orphan", 2, 2, fixture.NoHaunted())
	sheet.Table("Other", 2, 2)
	d := openFixture(t, doc, DefaultOptions())

	if !hasDiagnostic(d.Diagnostics(), graph.OwnerFallback, orphan.Model) {
		t.Fatalf("Diagnostics() = %v, expected an owner fallback for %d", d.Diagnostics(), orphan.Model)
	}
	if err := findTable(t, d, "Sheet 1", "Other").SetNumber(0, 0, 1); err != nil {
		t.Fatal(err)
	}
	if !hasDiagnostic(d.Diagnostics(), graph.OwnerFallback, orphan.Model) {
		t.Errorf("Diagnostics() after an edit = %v, expected the owner fallback kept", d.Diagnostics())
	}
}
