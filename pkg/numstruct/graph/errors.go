package graph

import (
	"errors"
	"fmt"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

var (
	// ErrNotFound is returned for identifiers or UUIDs with no record.
	ErrNotFound = errors.New("graph: not found")
	// ErrDuplicateIdentifier is returned by Insert for an identifier in use.
	ErrDuplicateIdentifier = errors.New("graph: duplicate identifier")
	// ErrDangling is matched by every dangling edge error.
	ErrDangling = errors.New("graph: dangling edge")
)

// DanglingReferenceError reports a reference whose target is absent.
type DanglingReferenceError struct {
	From  archive.Identifier
	Field string
	To    archive.Identifier
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("record %d: %s refers to missing record %d", e.From, e.Field, e.To)
}

func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDangling
}

// DanglingUUIDError reports a UUID edge the owner map cannot resolve.
type DanglingUUIDError struct {
	From  archive.Identifier
	Field string
	UUID  archive.UUID
}

func (e *DanglingUUIDError) Error() string {
	return fmt.Sprintf("record %d: %s refers to unknown owner %s", e.From, e.Field, e.UUID)
}

func (e *DanglingUUIDError) Is(target error) bool {
	return target == ErrDangling
}
