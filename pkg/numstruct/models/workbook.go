// Package models defines the data structures a document is exported as.
package models

// DocumentData represents document-level container with per-sheet data.
type DocumentData struct {
	// BookName is the document file name (no path).
	BookName string `json:"book_name"`
	// Sheets lists the sheets in document order.
	Sheets []SheetData `json:"sheets"`
	// Diagnostics lists the warnings raised while reading the document.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Sheet returns the sheet with the given name.
func (d *DocumentData) Sheet(name string) (*SheetData, bool) {
	for i := range d.Sheets {
		if d.Sheets[i].Name == name {
			return &d.Sheets[i], true
		}
	}
	return nil, false
}
