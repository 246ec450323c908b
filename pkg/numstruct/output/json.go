// Package output serializes exported documents.
package output

import (
	"encoding/json"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/models"
)

// ToJSON serializes a document to JSON.
func ToJSON(doc *models.DocumentData, pretty bool) ([]byte, error) {
	return marshalJSON(doc, pretty)
}

// SheetToJSON serializes a single sheet to JSON.
func SheetToJSON(sheet *models.SheetData, pretty bool) ([]byte, error) {
	return marshalJSON(sheet, pretty)
}

// TableToJSON serializes a single table to JSON.
func TableToJSON(table *models.TableData, pretty bool) ([]byte, error) {
	return marshalJSON(table, pretty)
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
