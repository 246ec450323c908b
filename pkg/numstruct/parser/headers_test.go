package parser

import (
	"slices"
	"testing"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/internal/fixture"
)

func TestHeaderNames(t *testing.T) {
	doc := fixture.New()
	t1 := doc.Sheet("Sheet 1").Table("Table 1", 3, 4)
	t2 := doc.Sheet("Sheet 2").Table("Table 2", 2, 2)
	doc.HeaderName("Price", t1, []uint32{1}, nil, false).
		HeaderName("Q1", t1, nil, []uint32{2, 3}, true).
		HeaderName("Cell", t1, []uint32{0}, []uint32{0}, true).
		HeaderName("Other", t2, []uint32{0}, nil, false)
	b := New(doc.Store(t), nil)

	names, err := b.HeaderNames(t1.Model)
	if err != nil {
		t.Fatalf("HeaderNames failed: %v", err)
	}
	want := []HeaderName{
		{Name: "Price", Columns: []uint32{1}},
		{Name: "Q1", Rows: []uint32{2, 3}},
		{Name: "Cell", Columns: []uint32{0}, Rows: []uint32{0}},
	}
	if len(names) != len(want) {
		t.Fatalf("HeaderNames = %+v, expected %+v", names, want)
	}
	for i := range want {
		if names[i].Name != want[i].Name || !slices.Equal(names[i].Columns, want[i].Columns) || !slices.Equal(names[i].Rows, want[i].Rows) {
			t.Errorf("HeaderNames[%d] = %+v, expected %+v", i, names[i], want[i])
		}
	}

	tests := []struct {
		at   Coord
		want []string
	}{
		{Coord{Column: 0, Row: 0}, []string{"Cell"}},
		{Coord{Column: 1, Row: 2}, []string{"Price", "Q1"}},
		{Coord{Column: 2, Row: 1}, nil},
		{Coord{Column: 1, Row: 0}, []string{"Price"}},
		{Coord{Column: 0, Row: 3}, []string{"Q1"}},
	}
	for _, tt := range tests {
		if got := NamesAt(names, tt.at); !slices.Equal(got, tt.want) {
			t.Errorf("NamesAt(%s) = %v, expected %v", tt.at.Name(), got, tt.want)
		}
	}

	other, err := b.HeaderNames(t2.Model)
	if err != nil {
		t.Fatalf("HeaderNames(t2) failed: %v", err)
	}
	if len(other) != 1 || other[0].Name != "Other" {
		t.Errorf("HeaderNames(t2) = %+v, expected [Other]", other)
	}
	if len(b.Diagnostics()) != 0 {
		t.Errorf("Diagnostics() = %v, expected none", b.Diagnostics())
	}
}

func TestHeaderNamesWithoutManager(t *testing.T) {
	doc := fixture.New()
	tb := doc.Sheet("Sheet 1").Table("Table 1", 1, 1)
	b := New(doc.Store(t), nil)

	names, err := b.HeaderNames(tb.Model)
	if err != nil || len(names) != 0 {
		t.Errorf("HeaderNames = %v, %v, expected none", names, err)
	}
}
