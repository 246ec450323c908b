package parser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sentinels stored in range coordinates to mean "to the table edge".
const (
	UnboundedColumn uint32 = 0x7fff
	UnboundedRow    uint32 = 0x7fffffff
)

// Coord is a zero-based cell coordinate.
type Coord struct {
	Column uint32 `json:"column"`
	Row    uint32 `json:"row"`
}

// IsUnboundedColumn reports whether the column is the unbounded sentinel.
func (c Coord) IsUnboundedColumn() bool {
	return c.Column == UnboundedColumn
}

// IsUnboundedRow reports whether the row is the unbounded sentinel.
func (c Coord) IsUnboundedRow() bool {
	return c.Row == UnboundedRow
}

// Name returns the A1-style name of the cell.
func (c Coord) Name() string {
	name, err := excelize.CoordinatesToCellName(int(c.Column)+1, int(c.Row)+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", c.Row+1, c.Column+1)
	}
	return name
}

func (c Coord) less(o Coord) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Column < o.Column
}

// Range is an inclusive rectangle of cells. Either corner may carry the
// unbounded sentinels.
type Range struct {
	TopLeft     Coord `json:"top_left"`
	BottomRight Coord `json:"bottom_right"`
}

// IsUnbounded reports whether every coordinate of r is a sentinel, which
// addresses the whole table.
func (r Range) IsUnbounded() bool {
	return r.TopLeft.IsUnboundedColumn() && r.TopLeft.IsUnboundedRow() &&
		r.BottomRight.IsUnboundedColumn() && r.BottomRight.IsUnboundedRow()
}

// Clamp resolves sentinels against a table of the given size. An
// unbounded start becomes the first cell and an unbounded end the last.
func (r Range) Clamp(columns, rows uint32) Range {
	out := r
	if r.TopLeft.IsUnboundedColumn() {
		out.TopLeft.Column = 0
	}
	if r.TopLeft.IsUnboundedRow() {
		out.TopLeft.Row = 0
	}
	if r.BottomRight.IsUnboundedColumn() {
		out.BottomRight.Column = lastIndex(columns)
	}
	if r.BottomRight.IsUnboundedRow() {
		out.BottomRight.Row = lastIndex(rows)
	}
	return out
}

func lastIndex(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return n - 1
}

// Size returns the number of columns and rows. Sentinels must be resolved
// with Clamp first.
func (r Range) Size() (columns, rows uint32) {
	return r.BottomRight.Column - r.TopLeft.Column + 1, r.BottomRight.Row - r.TopLeft.Row + 1
}

// Contains reports whether c lies within a clamped range.
func (r Range) Contains(c Coord) bool {
	return c.Column >= r.TopLeft.Column && c.Column <= r.BottomRight.Column &&
		c.Row >= r.TopLeft.Row && c.Row <= r.BottomRight.Row
}

// Overlaps reports whether two clamped ranges share a cell.
func (r Range) Overlaps(o Range) bool {
	return r.TopLeft.Column <= o.BottomRight.Column && o.TopLeft.Column <= r.BottomRight.Column &&
		r.TopLeft.Row <= o.BottomRight.Row && o.TopLeft.Row <= r.BottomRight.Row
}

// String returns the range in A1 notation.
func (r Range) String() string {
	return r.TopLeft.Name() + ":" + r.BottomRight.Name()
}

// ParseRange parses an A1-style range such as "$A$1:$D$10". A single cell
// name is a one-cell range.
func ParseRange(s string) (Range, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "$", "")
	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return Range{}, fmt.Errorf("parser: bad range %q", s)
	}
	tl, err := ParseCoord(parts[0])
	if err != nil {
		return Range{}, err
	}
	br := tl
	if len(parts) == 2 {
		if br, err = ParseCoord(parts[1]); err != nil {
			return Range{}, err
		}
	}
	if br.Column < tl.Column || br.Row < tl.Row {
		return Range{}, fmt.Errorf("parser: range %q is inverted", s)
	}
	return Range{TopLeft: tl, BottomRight: br}, nil
}

// ParseCoord parses an A1-style cell name.
func ParseCoord(name string) (Coord, error) {
	col, row, err := excelize.CellNameToCoordinates(name)
	if err != nil {
		return Coord{}, err
	}
	return Coord{Column: uint32(col - 1), Row: uint32(row - 1)}, nil
}
