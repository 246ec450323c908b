// Package graph is the object graph store: the single owner of every
// record of an open document. It indexes records by identifier, resolves
// owner UUIDs, keeps a reverse reference index and funnels every mutation
// so derived state can be invalidated.
package graph

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

// idBlock is the granularity new identifiers start above.
const idBlock = 1000000

type entry struct {
	rec  archive.Record
	path string
	seq  uint64
}

// Store holds the records of one document. All methods are safe for
// concurrent use; one mutex serializes them.
type Store struct {
	mu  sync.Mutex
	log *slog.Logger

	records map[archive.Identifier]*entry
	files   map[string][]archive.Identifier
	paths   []string
	seq     uint64

	// referrers maps a target to the records referring to it and the
	// number of references each holds.
	referrers map[archive.Identifier]map[archive.Identifier]int

	maxID     archive.Identifier
	next      archive.Identifier
	sealedMax archive.Identifier
	allocated map[archive.Identifier]bool

	generation uint64
	owners     *ownerMap
	diags      []Diagnostic
	baseline   map[string]bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		records:   make(map[archive.Identifier]*entry),
		files:     make(map[string][]archive.Identifier),
		referrers: make(map[archive.Identifier]map[archive.Identifier]int),
		allocated: make(map[archive.Identifier]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Generation increases on every mutation.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Store) touchLocked() {
	s.generation++
	s.owners = nil
}

// Insert adds a record stored in the archive file path. A zero identifier
// is replaced by a newly allocated one.
func (s *Store) Insert(rec archive.Record, path string) (archive.Identifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == 0 {
		rec.ID = s.allocateLocked()
	} else if _, ok := s.records[rec.ID]; ok {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateIdentifier, rec.ID)
	}
	if rec.ID > s.maxID {
		s.maxID = rec.ID
	}
	s.seq++
	s.records[rec.ID] = &entry{rec: rec, path: path, seq: s.seq}
	if _, ok := s.files[path]; !ok {
		s.paths = append(s.paths, path)
	}
	s.files[path] = append(s.files[path], rec.ID)
	s.indexLocked(rec, 1)
	s.touchLocked()
	return rec.ID, nil
}

// Get returns the record with identifier id. The returned record shares
// immutable state with the store and is never modified by it.
func (s *Store) Get(id archive.Identifier) (archive.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[id]
	if !ok {
		return archive.Record{}, fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	return e.rec, nil
}

// Replace swaps the record stored under id. The record keeps its file and
// position.
func (s *Store) Replace(id archive.Identifier, rec archive.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(id, rec)
}

func (s *Store) replaceLocked(id archive.Identifier, rec archive.Record) error {
	e, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	if rec.ID != 0 && rec.ID != id {
		return fmt.Errorf("graph: replace %d with record %d", id, rec.ID)
	}
	rec.ID = id
	s.indexLocked(e.rec, -1)
	e.rec = rec
	s.indexLocked(rec, 1)
	s.touchLocked()
	return nil
}

// Remove unindexes a record. Records it refers to are left in place and
// references to it are left for Unlink.
func (s *Store) Remove(id archive.Identifier) (archive.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[id]
	if !ok {
		return archive.Record{}, fmt.Errorf("%w: record %d", ErrNotFound, id)
	}
	s.indexLocked(e.rec, -1)
	delete(s.records, id)
	delete(s.allocated, id)
	ids := s.files[e.path]
	if i := slices.Index(ids, id); i >= 0 {
		s.files[e.path] = slices.Delete(ids, i, i+1)
	}
	s.touchLocked()
	return e.rec, nil
}

// Unlink drops references to a removed record from every referrer.
// Repeated references are deleted; singular ones cannot be and are
// reported as dangling. It returns the referrers that were rewritten.
func (s *Store) Unlink(id archive.Identifier) []archive.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed []archive.Identifier
	for _, from := range sortedIDs(s.referrers[id]) {
		e, ok := s.records[from]
		if !ok {
			continue
		}
		fields, ch := e.rec.Fields.MapReferences(func(edge archive.Edge) (archive.Identifier, bool) {
			if edge.Target != id {
				return edge.Target, true
			}
			if !edge.Repeated {
				s.diags = append(s.diags, Diagnostic{
					Kind:    DanglingReference,
					Record:  from,
					Field:   edge.Path,
					Message: fmt.Sprintf("refers to removed record %d", id),
				})
				return edge.Target, true
			}
			return 0, false
		})
		if !ch {
			continue
		}
		rec := e.rec
		rec.Fields = fields
		_ = s.replaceLocked(from, rec)
		changed = append(changed, from)
	}
	if len(changed) > 0 {
		s.log.Debug("unlinked record", "id", uint64(id), "referrers", len(changed))
	}
	return changed
}

func (s *Store) indexLocked(rec archive.Record, delta int) {
	for _, e := range rec.References() {
		m := s.referrers[e.Target]
		if m == nil {
			if delta < 0 {
				continue
			}
			m = make(map[archive.Identifier]int)
			s.referrers[e.Target] = m
		}
		m[rec.ID] += delta
		if m[rec.ID] <= 0 {
			delete(m, rec.ID)
		}
		if len(m) == 0 {
			delete(s.referrers, e.Target)
		}
	}
}

// Referrers returns the records holding a reference to id.
func (s *Store) Referrers(id archive.Identifier) []archive.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedIDs(s.referrers[id])
}

func sortedIDs(m map[archive.Identifier]int) []archive.Identifier {
	ids := make([]archive.Identifier, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AllocateIdentifier returns a fresh identifier. Allocation starts above
// the largest identifier seen, rounded up to a multiple of one million,
// and never returns an identifier in use.
func (s *Store) AllocateIdentifier() archive.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocateLocked()
}

func (s *Store) allocateLocked() archive.Identifier {
	if s.next == 0 {
		s.next = roundUp(s.maxID)
	}
	for {
		s.next++
		if _, used := s.records[s.next]; !used {
			break
		}
	}
	s.allocated[s.next] = true
	if s.next > s.maxID {
		s.maxID = s.next
	}
	return s.next
}

func roundUp(id archive.Identifier) archive.Identifier {
	return (id + idBlock - 1) / idBlock * idBlock
}

// MaxIdentifier returns the largest identifier seen or allocated.
func (s *Store) MaxIdentifier() archive.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxID
}

// Renumber compacts identifiers allocated in this session into a dense
// block above the loaded records, rewriting every reference. It returns
// the identifiers that changed.
func (s *Store) Renumber() map[archive.Identifier]archive.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := make([]archive.Identifier, 0, len(s.allocated))
	for id := range s.allocated {
		if _, ok := s.records[id]; ok {
			live = append(live, id)
		}
	}
	slices.Sort(live)

	moved := make(map[archive.Identifier]archive.Identifier)
	next := roundUp(s.sealedMax)
	for _, id := range live {
		next++
		for {
			if _, used := s.records[next]; !used || s.allocated[next] {
				break
			}
			next++
		}
		if next != id {
			moved[id] = next
		}
	}
	if len(moved) == 0 {
		return moved
	}

	old := s.records
	s.records = make(map[archive.Identifier]*entry, len(old))
	s.referrers = make(map[archive.Identifier]map[archive.Identifier]int)
	s.allocated = make(map[archive.Identifier]bool)
	rename := func(id archive.Identifier) archive.Identifier {
		if n, ok := moved[id]; ok {
			return n
		}
		return id
	}
	for id, e := range old {
		e.rec.ID = rename(id)
		if fields, ch := e.rec.Fields.MapReferences(func(edge archive.Edge) (archive.Identifier, bool) {
			return rename(edge.Target), true
		}); ch {
			e.rec.Fields = fields
		}
		s.records[e.rec.ID] = e
		s.indexLocked(e.rec, 1)
	}
	for _, id := range live {
		s.allocated[rename(id)] = true
	}
	for path, ids := range s.files {
		for i, id := range ids {
			ids[i] = rename(id)
		}
		s.files[path] = ids
	}
	s.maxID = 0
	for id := range s.records {
		if id > s.maxID {
			s.maxID = id
		}
	}
	s.next = 0
	if s.maxID > roundUp(s.sealedMax) {
		s.next = s.maxID
	}
	s.touchLocked()
	s.log.Debug("renumbered records", "moved", len(moved))
	return moved
}

// Seal marks the end of loading. The largest identifier becomes the base
// for allocation and the dangling edges present now are remembered as
// tolerated.
func (s *Store) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealedMax = s.maxID
	s.baseline = make(map[string]bool)
	for _, is := range s.issuesLocked() {
		s.baseline[is.key()] = true
	}
	s.log.Debug("sealed store", "records", len(s.records), "max_id", uint64(s.maxID), "dangling", len(s.baseline))
}

// PathOf returns the archive file holding id.
func (s *Store) PathOf(id archive.Identifier) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.records[id]
	if !ok {
		return "", false
	}
	return e.path, true
}

// Paths returns every archive file path in first-seen order, including
// files whose records have all been removed.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// FileRecords returns the records of one archive file in stored order.
func (s *Store) FileRecords(path string) []archive.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.files[path]
	out := make([]archive.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id].rec)
	}
	return out
}

func (s *Store) orderedLocked() []*entry {
	out := make([]*entry, 0, len(s.records))
	for _, e := range s.records {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Records returns every record in insertion order.
func (s *Store) Records() []archive.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	ordered := s.orderedLocked()
	out := make([]archive.Record, len(ordered))
	for i, e := range ordered {
		out[i] = e.rec
	}
	return out
}

// FindByType returns the identifiers of records with the given type, in
// insertion order.
func (s *Store) FindByType(tag archive.TypeTag) []archive.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []archive.Identifier
	for _, e := range s.orderedLocked() {
		if e.rec.Type == tag {
			out = append(out, e.rec.ID)
		}
	}
	return out
}

// Diagnostics returns owner map warnings and warnings raised by mutations.
func (s *Store) Diagnostics() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Diagnostic(nil), s.ownersLocked().diags...)
	return append(out, s.diags...)
}
