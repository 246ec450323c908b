package numstruct

import (
	"fmt"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/container"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
)

// Mismatch is a record whose value changed across a round trip.
type Mismatch struct {
	ID     archive.Identifier
	Type   archive.TypeTag
	Before archive.Digest
	// After is zero when the record is missing from the reloaded graph.
	After archive.Digest
}

func (m Mismatch) String() string {
	if m.After == (archive.Digest{}) {
		return fmt.Sprintf("record %d (type %d) missing after reload", m.ID, m.Type)
	}
	return fmt.Sprintf("record %d (type %d) digest %s, reloaded %s", m.ID, m.Type, m.Before, m.After)
}

// Report is the outcome of a round trip check.
type Report struct {
	// Reachable is the number of records reachable from the document root.
	Reachable int
	// Mismatches lists reachable records that do not compare equal after
	// the document is encoded and read back.
	Mismatches []Mismatch
	// Dangling lists edges dangling after reload that were not dangling
	// before.
	Dangling []graph.Diagnostic
}

// OK reports whether the round trip preserved every reachable record.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0 && len(r.Dangling) == 0
}

// Verify encodes the document, reads a copy of the encoded package back
// and compares every record reachable from the document root by value.
// Identifiers must be stable, so CompactIdentifiers is
// ignored.
func (d *Document) Verify() (Report, error) {
	before := d.reachable()
	danglingBefore := make(map[string]bool)
	for _, diag := range d.store.Validate() {
		danglingBefore[diag.String()] = true
	}

	saved := d.opts.CompactIdentifiers
	d.opts.CompactIdentifiers = false
	pkg, err := d.Encode()
	d.opts.CompactIdentifiers = saved
	if err != nil {
		return Report{}, err
	}

	copied := container.New()
	for _, name := range pkg.ListEntries() {
		data, err := pkg.Read(name)
		if err != nil {
			return Report{}, err
		}
		if err := copied.Write(name, data); err != nil {
			return Report{}, err
		}
	}
	again, err := Load(copied, d.name, d.opts)
	if err != nil {
		return Report{}, fmt.Errorf("reload: %w", err)
	}

	rep := Report{Reachable: len(before)}
	for _, rec := range before {
		other, err := again.store.Get(rec.ID)
		if err != nil {
			rep.Mismatches = append(rep.Mismatches, Mismatch{ID: rec.ID, Type: rec.Type, Before: rec.Digest()})
			continue
		}
		if !rec.Equal(other) {
			rep.Mismatches = append(rep.Mismatches, Mismatch{ID: rec.ID, Type: rec.Type, Before: rec.Digest(), After: other.Digest()})
		}
	}
	for _, diag := range again.store.Validate() {
		if !danglingBefore[diag.String()] {
			rep.Dangling = append(rep.Dangling, diag)
		}
	}
	d.log.Debug("verified round trip", "reachable", rep.Reachable, "mismatches", len(rep.Mismatches), "dangling", len(rep.Dangling))
	return rep, nil
}

// reachable returns the records reachable from the document root through
// references, in visit order.
func (d *Document) reachable() []archive.Record {
	seen := map[archive.Identifier]bool{archive.DocumentID: true}
	queue := []archive.Identifier{archive.DocumentID}
	var out []archive.Record
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		rec, err := d.store.Get(id)
		if err != nil {
			continue
		}
		out = append(out, rec)
		for _, e := range rec.References() {
			if !seen[e.Target] {
				seen[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	return out
}
