package graph

import (
	"fmt"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// ownerEntry is the first registration of a UUID.
type ownerEntry struct {
	id   archive.Identifier
	kind OwnerKind
	role string
}

type roleKey struct {
	id   archive.Identifier
	role string
}

// ownerMap resolves owner UUIDs to records. It is derived from the
// records and rebuilt after mutations.
type ownerMap struct {
	owners map[archive.UUID]ownerEntry
	roles  map[roleKey]archive.UUID
	// engine is the calculation engine's internal owner id to UUID table.
	engine map[uint32]archive.UUID
	// internal maps internal formula owner ids to their records.
	internal map[uint32]archive.Identifier
	diags    []Diagnostic
}

func newOwnerMap() *ownerMap {
	return &ownerMap{
		owners:   make(map[archive.UUID]ownerEntry),
		roles:    make(map[roleKey]archive.UUID),
		engine:   make(map[uint32]archive.UUID),
		internal: make(map[uint32]archive.Identifier),
	}
}

// register records that id owns u under role. The first registration of
// a UUID wins. Repeats and aliases from other records are confirmations
// as long as they agree on the kind of owner u names; a conflicting kind,
// or a second UUID for the same record and role, is flagged and ignored.
func (m *ownerMap) register(u archive.UUID, id archive.Identifier, kind OwnerKind, role string) {
	if u.IsZero() {
		return
	}
	kind = namedKind(kind, role)
	if e, ok := m.owners[u]; ok {
		if e.id != id && e.kind != kind {
			m.warn(id, role, fmt.Sprintf("owner %s already registered to record %d as %s, ignoring %s", u, e.id, e.kind, kind))
		}
		return
	}
	key := roleKey{id: id, role: role}
	if prev, ok := m.roles[key]; ok && prev != u {
		m.warn(id, role, fmt.Sprintf("second owner %s for record (first %s)", u, prev))
		return
	}
	m.owners[u] = ownerEntry{id: id, kind: kind, role: role}
	m.roles[key] = u
}

// namedKind returns the kind of owner a UUID registered under role names.
// A base owner UUID names the table the registering owner hangs off, not
// the registering owner itself.
func namedKind(kind OwnerKind, role string) OwnerKind {
	if role == "base_owner_uid" {
		return OwnerTableModel
	}
	return kind
}

func (m *ownerMap) warn(id archive.Identifier, field, msg string) {
	m.diags = append(m.diags, Diagnostic{Kind: InconsistentOwnerMap, Record: id, Field: field, Message: msg})
}

// kindOf returns the owner kind a record registers with.
func kindOf(rec archive.Record) OwnerKind {
	switch rec.Type {
	case schema.FormulaOwnerDependencies:
		return OwnerKind(rec.Fields.Uint("owner_kind"))
	case schema.HeaderNameManager:
		return OwnerHeaderNameManager
	case schema.TableModelArchive:
		return OwnerTableModel
	default:
		return 0
	}
}

// buildOwnersLocked derives the owner map from every record in load order.
func (s *Store) buildOwnersLocked() *ownerMap {
	m := newOwnerMap()
	ordered := s.orderedLocked()
	for _, e := range ordered {
		rec := e.rec
		if rec.IsOpaque() {
			continue
		}
		if rec.Type == schema.FormulaOwnerDependencies && rec.Fields.Has("internal_formula_owner_id") {
			in := uint32(rec.Fields.Uint("internal_formula_owner_id"))
			if _, dup := m.internal[in]; !dup {
				m.internal[in] = rec.ID
			}
		}
		kind := kindOf(rec)
		for _, f := range rec.Fields.UUIDFields() {
			if f.Role == archive.RoleOwnerUID {
				m.register(f.Value, rec.ID, kind, f.Path)
			}
		}
	}

	for _, e := range ordered {
		if e.rec.Type != schema.CalculationEngine || e.rec.IsOpaque() {
			continue
		}
		ids := e.rec.Fields.Message("dependency_tracker").Message("owner_id_map")
		for i, entry := range ids.Messages("map_entry") {
			in := uint32(entry.Uint("internal_owner_id"))
			u, ok := entry.UUID("owner_id")
			if !ok {
				continue
			}
			field := fmt.Sprintf("dependency_tracker.owner_id_map.map_entry[%d]", i)
			if prev, dup := m.engine[in]; dup {
				if prev != u {
					m.warn(e.rec.ID, field, fmt.Sprintf("internal owner %d mapped to %s and %s", in, prev, u))
				}
				continue
			}
			m.engine[in] = u
			if owner, ok := m.internal[in]; ok {
				m.register(u, owner, kindOf(s.records[owner].rec), "owner_id_map")
			}
		}
	}
	return m
}

func (s *Store) ownersLocked() *ownerMap {
	if s.owners == nil {
		s.owners = s.buildOwnersLocked()
	}
	return s.owners
}

// ResolveUUID returns the record registered for an owner UUID.
func (s *Store) ResolveUUID(u archive.UUID) (archive.Identifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.ownersLocked().owners[u]
	if !ok {
		return 0, fmt.Errorf("%w: owner %s", ErrNotFound, u)
	}
	return e.id, nil
}

// OwnerUUID returns the UUID the calculation engine assigns to an internal
// owner id.
func (s *Store) OwnerUUID(internal uint32) (archive.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.ownersLocked().engine[internal]
	return u, ok
}

// InternalOwner returns the formula owner record with the given internal id.
func (s *Store) InternalOwner(internal uint32) (archive.Identifier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.ownersLocked().internal[internal]
	return id, ok
}

// OwnerKindOf returns the owner kind of a formula owner record.
func (s *Store) OwnerKindOf(id archive.Identifier) (OwnerKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[id]
	if !ok {
		return 0, fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	return kindOf(e.rec), nil
}
