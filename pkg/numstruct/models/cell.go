package models

// CellRow represents a single row of cells with optional formulas.
type CellRow struct {
	// R is the row index (1-based).
	R int `json:"r"`
	// C maps column index (1-based, as a string) to cell value.
	C map[string]interface{} `json:"c"`
	// Formulas maps column index to formula text (optional).
	Formulas map[string]string `json:"formulas,omitempty"`
}
