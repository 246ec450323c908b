package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/models"
)

func sampleDocument() *models.DocumentData {
	return &models.DocumentData{
		BookName: "sample.numbers",
		Sheets: []models.SheetData{{
			Name: "Sheet 1",
			Tables: []models.TableData{{
				Name:       "Table 1",
				NumRows:    3,
				NumColumns: 3,
				Rows: []models.CellRow{
					{R: 1, C: map[string]interface{}{"1": "Item", "2": "Qty"}},
					{R: 3, C: map[string]interface{}{"1": "Pen", "2": 2.5, "3": true}},
				},
				Merges: []models.MergeRange{{R1: 1, C1: 2, R2: 1, C2: 3}},
			}},
		}},
	}
}

func TestToJSON(t *testing.T) {
	doc := sampleDocument()
	for _, pretty := range []bool{false, true} {
		data, err := ToJSON(doc, pretty)
		if err != nil {
			t.Fatalf("ToJSON(pretty=%v) error: %v", pretty, err)
		}
		if got := bytes.Contains(data, []byte("\n  ")); got != pretty {
			t.Errorf("ToJSON(pretty=%v) indented = %v", pretty, got)
		}
		var back models.DocumentData
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal error: %v", err)
		}
		if back.BookName != doc.BookName || len(back.Sheets) != 1 || back.Sheets[0].Tables[0].Name != "Table 1" {
			t.Errorf("round trip = %+v", back)
		}
	}
}

func TestTableToCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := TableToCSV(&buf, &sampleDocument().Sheets[0].Tables[0]); err != nil {
		t.Fatalf("TableToCSV error: %v", err)
	}
	want := "Item,Qty,\n,,\nPen,2.5,TRUE\n"
	if buf.String() != want {
		t.Errorf("TableToCSV = %q, want %q", buf.String(), want)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{1.0, "1"},
		{0.125, "0.125"},
		{false, "FALSE"},
		{uint64(7), "7"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToXLSX(t *testing.T) {
	doc := sampleDocument()
	doc.Sheets[0].Tables = append(doc.Sheets[0].Tables, models.TableData{Name: "Table 1", NumRows: 1, NumColumns: 1})
	f, err := ToXLSX(doc)
	if err != nil {
		t.Fatalf("ToXLSX error: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Sheet 1 - Table 1" || sheets[1] != "Sheet 1 - Table 1 (2)" {
		t.Fatalf("sheets = %v", sheets)
	}
	v, err := f.GetCellValue(sheets[0], "B3")
	if err != nil || v != "2.5" {
		t.Errorf("B3 = %q, %v", v, err)
	}
	merges, err := f.GetMergeCells(sheets[0])
	if err != nil {
		t.Fatalf("GetMergeCells error: %v", err)
	}
	if len(merges) != 1 || merges[0].GetStartAxis() != "B1" || merges[0].GetEndAxis() != "C1" {
		t.Errorf("merges = %v", merges)
	}
}

func TestWorksheetName(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)
	tests := []struct {
		sheet, table, want string
	}{
		{"A/B", "T:1", "A_B - T_1"},
		{"A/B", "T:1", "A_B - T_1 (2)"},
		{long, "t", strings.Repeat("x", maxSheetName)},
	}
	for _, tt := range tests {
		if got := worksheetName(tt.sheet, tt.table, used); got != tt.want {
			t.Errorf("worksheetName(%q, %q) = %q, want %q", tt.sheet, tt.table, got, tt.want)
		}
	}
}

func TestArchiveFile(t *testing.T) {
	file := &models.ArchiveFile{
		Path: "Index/Document.iwa",
		Records: []models.RecordData{{
			Identifier: 1,
			Type:       1,
			TypeName:   "TN.DocumentArchive",
			Fields:     map[string]any{"sheets": []any{map[string]any{"identifier": uint64(3)}}},
		}},
	}

	data, err := ArchiveFile(file, FormatYAML)
	if err != nil {
		t.Fatalf("yaml error: %v", err)
	}
	var y map[string]any
	if err := yaml.Unmarshal(data, &y); err != nil || y["path"] != "Index/Document.iwa" {
		t.Errorf("yaml = %s (%v)", data, err)
	}

	data, err = ArchiveFile(file, FormatCBOR)
	if err != nil {
		t.Fatalf("cbor error: %v", err)
	}
	again, _ := ArchiveFile(file, FormatCBOR)
	if !bytes.Equal(data, again) {
		t.Error("cbor encoding is not deterministic")
	}
	var back models.ArchiveFile
	if err := cbor.Unmarshal(data, &back); err != nil || back.Records[0].TypeName != "TN.DocumentArchive" {
		t.Errorf("cbor round trip = %+v (%v)", back, err)
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) succeeded")
	}
}

func TestTableRecordsFormulas(t *testing.T) {
	table := &models.TableData{
		NumRows:    1,
		NumColumns: 2,
		Rows: []models.CellRow{{
			R:        1,
			C:        map[string]interface{}{"1": 1.0, "2": 2.0},
			Formulas: map[string]string{"2": "A1+1"},
		}},
	}
	tests := []struct {
		formulas bool
		want     []string
	}{
		{false, []string{"1", "2"}},
		{true, []string{"1", "A1+1"}},
	}
	for _, tt := range tests {
		got := TableRecords(table, tt.formulas)
		if len(got) != 1 || strings.Join(got[0], ",") != strings.Join(tt.want, ",") {
			t.Errorf("TableRecords(formulas=%v) = %v, want %v", tt.formulas, got, tt.want)
		}
	}
}
