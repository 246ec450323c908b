package parser

import (
	"fmt"
	"slices"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

// Tile is one fragment of a tiled collection. Entry offsets are relative
// to the tile origin.
type Tile[E any] struct {
	Owner   archive.Identifier
	Origin  Coord
	Entries []TileEntry[E]
}

// TileEntry is one element of a tile.
type TileEntry[E any] struct {
	Offset Coord
	Value  E
}

// OverlapError reports two tiles that place an entry at the same cell.
type OverlapError struct {
	At          Coord
	First, Then archive.Identifier
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("parser: tiles %d and %d both hold cell %s", e.First, e.Then, e.At.Name())
}

// MergeTiles flattens tiles into one collection keyed by absolute
// coordinate. The result does not depend on the order of tiles.
func MergeTiles[E any](tiles []Tile[E]) (map[Coord]E, error) {
	sorted := slices.Clone(tiles)
	slices.SortStableFunc(sorted, func(a, b Tile[E]) int {
		switch {
		case a.Origin.less(b.Origin):
			return -1
		case b.Origin.less(a.Origin):
			return 1
		case a.Owner < b.Owner:
			return -1
		case a.Owner > b.Owner:
			return 1
		}
		return 0
	})

	out := make(map[Coord]E)
	from := make(map[Coord]archive.Identifier)
	for _, t := range sorted {
		for _, e := range t.Entries {
			at := Coord{Column: t.Origin.Column + e.Offset.Column, Row: t.Origin.Row + e.Offset.Row}
			if prev, dup := from[at]; dup {
				return nil, &OverlapError{At: at, First: prev, Then: t.Owner}
			}
			from[at] = t.Owner
			out[at] = e.Value
		}
	}
	return out, nil
}
