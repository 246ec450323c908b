package graph

import (
	"errors"
	"fmt"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

// issue is one dangling edge.
type issue struct {
	Diagnostic
	to   archive.Identifier
	uuid archive.UUID
}

// key identifies an issue independently of its field position, which
// shifts as repeated fields are edited.
func (i issue) key() string {
	return fmt.Sprintf("%d|%d|%d|%s", i.Kind, i.Record, i.to, i.uuid)
}

func (i issue) err() error {
	if i.Kind == DanglingUUID {
		return &DanglingUUIDError{From: i.Record, Field: i.Field, UUID: i.uuid}
	}
	return &DanglingReferenceError{From: i.Record, Field: i.Field, To: i.to}
}

// Validate checks reference closure: every reference must name a present
// record and every UUID edge must resolve through the owner map.
func (s *Store) Validate() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	issues := s.issuesLocked()
	out := make([]Diagnostic, len(issues))
	for i, is := range issues {
		out[i] = is.Diagnostic
	}
	return out
}

func (s *Store) issuesLocked() []issue {
	owners := s.ownersLocked()
	var out []issue
	for _, e := range s.orderedLocked() {
		for _, ref := range e.rec.References() {
			if _, ok := s.records[ref.Target]; ok {
				continue
			}
			out = append(out, issue{
				Diagnostic: Diagnostic{
					Kind:    DanglingReference,
					Record:  e.rec.ID,
					Field:   ref.Path,
					Message: fmt.Sprintf("refers to missing record %d", ref.Target),
				},
				to: ref.Target,
			})
		}
		if e.rec.IsOpaque() {
			continue
		}
		for _, f := range e.rec.Fields.UUIDFields() {
			if f.Role != archive.RoleUUIDEdge {
				continue
			}
			if _, ok := owners.owners[f.Value]; ok {
				continue
			}
			out = append(out, issue{
				Diagnostic: Diagnostic{
					Kind:    DanglingUUID,
					Record:  e.rec.ID,
					Field:   f.Path,
					Message: fmt.Sprintf("refers to unknown owner %s", f.Value),
				},
				uuid: f.Value,
			})
		}
	}
	return out
}

// CheckWrite returns an error for every dangling edge introduced since
// Seal. Edges that were already dangling when the document was loaded are
// tolerated.
func (s *Store) CheckWrite() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, is := range s.issuesLocked() {
		if !s.baseline[is.key()] {
			errs = append(errs, is.err())
		}
	}
	return errors.Join(errs...)
}
