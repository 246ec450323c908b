package models

import "fmt"

// MergeRange represents cell coordinate bounds for a merged region.
type MergeRange struct {
	// R1 is the start row (1-based).
	R1 int `json:"r1"`
	// C1 is the start column (1-based).
	C1 int `json:"c1"`
	// R2 is the end row (1-based, inclusive).
	R2 int `json:"r2"`
	// C2 is the end column (1-based, inclusive).
	C2 int `json:"c2"`
}

// Size returns the number of columns and rows covered.
func (m MergeRange) Size() (columns, rows int) {
	return m.C2 - m.C1 + 1, m.R2 - m.R1 + 1
}

func (m MergeRange) String() string {
	return fmt.Sprintf("R%dC%d:R%dC%d", m.R1, m.C1, m.R2, m.C2)
}
