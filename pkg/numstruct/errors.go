package numstruct

import (
	"errors"
	"fmt"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/formula"
)

// ErrFileNotFound indicates the input file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrInvalidFormat indicates the input is not a valid document package.
var ErrInvalidFormat = errors.New("invalid document format")

// ErrUnsupported is returned by write operations the library does not
// implement, such as setting formulas.
var ErrUnsupported = formula.ErrUnsupported

// ErrNotFound indicates a sheet or table that the document does not have.
var ErrNotFound = errors.New("not found")

// ErrOutOfRange indicates a cell coordinate outside its table.
var ErrOutOfRange = errors.New("cell out of range")

// ErrInvalidName indicates an empty or duplicate sheet or table name.
var ErrInvalidName = errors.New("invalid name")

// ErrInvalidRange indicates a merge range that is empty, a single cell or
// overlaps another region.
var ErrInvalidRange = errors.New("invalid range")

// ExtractionError represents an error while exporting part of a document.
type ExtractionError struct {
	SheetName string
	TableName string
	Component string // "cells", "formulas", "merges", "header_names"
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error in table %q of sheet %q (%s): %v", e.TableName, e.SheetName, e.Component, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(sheetName, tableName, component string, err error) *ExtractionError {
	return &ExtractionError{
		SheetName: sheetName,
		TableName: tableName,
		Component: component,
		Err:       err,
	}
}
