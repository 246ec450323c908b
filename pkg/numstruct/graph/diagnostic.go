package graph

import (
	"fmt"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

// DiagnosticKind classifies document-level warnings.
type DiagnosticKind int

const (
	// DanglingReference is a reference to a missing record.
	DanglingReference DiagnosticKind = iota + 1
	// DanglingUUID is a UUID edge with no owner map entry.
	DanglingUUID
	// Unsupported is a recognized payload loaded with reduced fidelity.
	Unsupported
	// InconsistentOwnerMap is a conflicting owner registration.
	InconsistentOwnerMap
	// OwnerFallback marks a table keyed by its model identifier because
	// its haunted owner could not be followed.
	OwnerFallback
)

func (k DiagnosticKind) String() string {
	switch k {
	case DanglingReference:
		return "dangling-reference"
	case DanglingUUID:
		return "dangling-uuid"
	case Unsupported:
		return "unsupported"
	case InconsistentOwnerMap:
		return "inconsistent-owner-map"
	case OwnerFallback:
		return "owner-fallback"
	default:
		return fmt.Sprintf("diagnostic(%d)", int(k))
	}
}

// Diagnostic is one warning attached to a document.
type Diagnostic struct {
	Kind    DiagnosticKind
	Record  archive.Identifier
	Field   string
	Message string
}

func (d Diagnostic) String() string {
	if d.Field != "" {
		return fmt.Sprintf("%s: record %d: %s: %s", d.Kind, d.Record, d.Field, d.Message)
	}
	return fmt.Sprintf("%s: record %d: %s", d.Kind, d.Record, d.Message)
}
