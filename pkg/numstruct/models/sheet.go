package models

// SheetData represents structured data for a single sheet.
type SheetData struct {
	// Name is the sheet name.
	Name string `json:"name"`
	// Tables contains the tables placed on the sheet, in drawing order.
	Tables []TableData `json:"tables,omitempty"`
}

// TableData represents one table and its cells.
type TableData struct {
	// Name is the table name.
	Name string `json:"name"`
	// Key is the UUID other tables' formulas address this table by.
	Key string `json:"key"`
	// KeyFallback is set when Key was derived from the table identifier.
	KeyFallback bool `json:"key_fallback,omitempty"`
	// NumRows is the number of rows.
	NumRows int `json:"num_rows"`
	// NumColumns is the number of columns.
	NumColumns int `json:"num_columns"`
	// HeaderRows is the number of header rows.
	HeaderRows int `json:"header_rows,omitempty"`
	// HeaderColumns is the number of header columns.
	HeaderColumns int `json:"header_columns,omitempty"`
	// FooterRows is the number of footer rows.
	FooterRows int `json:"footer_rows,omitempty"`
	// Rows contains rows holding at least one non-empty cell.
	Rows []CellRow `json:"rows,omitempty"`
	// Merges contains the merged cell ranges.
	Merges []MergeRange `json:"merges,omitempty"`
	// HeaderNames contains the header name fragments of the table.
	HeaderNames []HeaderName `json:"header_names,omitempty"`
}

// HeaderName is a name applied to the cells at Columns × Rows.
type HeaderName struct {
	Name string `json:"name"`
	// Columns lists 1-based columns; empty means every column.
	Columns []int `json:"columns,omitempty"`
	// Rows lists 1-based rows; empty means every row.
	Rows []int `json:"rows,omitempty"`
}
