package parser

import (
	"errors"
	"testing"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

func TestMergeTiles(t *testing.T) {
	a := Tile[string]{Owner: 20, Origin: Coord{Row: 0}, Entries: []TileEntry[string]{
		{Offset: Coord{Column: 0, Row: 0}, Value: "a1"},
		{Offset: Coord{Column: 1, Row: 3}, Value: "b4"},
	}}
	b := Tile[string]{Owner: 21, Origin: Coord{Row: 256}, Entries: []TileEntry[string]{
		{Offset: Coord{Column: 2, Row: 1}, Value: "c258"},
	}}

	for _, order := range [][]Tile[string]{{a, b}, {b, a}} {
		got, err := MergeTiles(order)
		if err != nil {
			t.Fatalf("MergeTiles failed: %v", err)
		}
		want := map[Coord]string{
			{Column: 0, Row: 0}:   "a1",
			{Column: 1, Row: 3}:   "b4",
			{Column: 2, Row: 257}: "c258",
		}
		if len(got) != len(want) {
			t.Errorf("MergeTiles = %v, expected %v", got, want)
		}
		for at, v := range want {
			if got[at] != v {
				t.Errorf("MergeTiles[%s] = %q, expected %q", at.Name(), got[at], v)
			}
		}
	}
}

func TestMergeTilesOverlap(t *testing.T) {
	tiles := []Tile[int]{
		{Owner: 31, Origin: Coord{Column: 2}, Entries: []TileEntry[int]{{Offset: Coord{Row: 1}, Value: 2}}},
		{Owner: 30, Origin: Coord{}, Entries: []TileEntry[int]{{Offset: Coord{Column: 2, Row: 1}, Value: 1}}},
	}
	_, err := MergeTiles(tiles)
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("MergeTiles error = %v, expected OverlapError", err)
	}
	want := OverlapError{At: Coord{Column: 2, Row: 1}, First: archive.Identifier(30), Then: archive.Identifier(31)}
	if *overlap != want {
		t.Errorf("OverlapError = %+v, expected %+v", *overlap, want)
	}
}
