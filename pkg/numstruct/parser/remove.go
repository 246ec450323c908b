package parser

import (
	"slices"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// Removal is the set of record changes that delete a table: the records
// owned by the table and rewritten copies of the shared records that
// mention it.
type Removal struct {
	Table Table
	// Remove lists the records owned by the table, in ascending order.
	Remove []archive.Identifier
	// Rewrite holds replacements for shared records.
	Rewrite []archive.Record
}

// PlanRemoval computes the changes that delete a table. The table info,
// the model and every record of its data store go, as do the formula
// owners keyed by the table together with the records they hold. Merge
// owners lose the precedents targeting the table, the calculation engine
// loses the owner map entries of removed owners and the header name
// manager loses the uses of the table. References from other records are
// left for the store to unlink.
func (b *Builder) PlanRemoval(model archive.Identifier) (Removal, error) {
	t, err := b.Table(model)
	if err != nil {
		return Removal{}, err
	}
	m, err := b.fields(model, schema.TableModelArchive)
	if err != nil {
		return Removal{}, err
	}
	owners, err := b.Owners()
	if err != nil {
		return Removal{}, err
	}

	remove := make(map[archive.Identifier]bool)
	add := func(id archive.Identifier) {
		if id != 0 {
			remove[id] = true
		}
	}
	add(model)
	add(t.Info)
	for _, e := range m.Message("base_data_store").References() {
		add(e.Target)
	}

	haunted, _ := m.Message("haunted_owner").UUID("owner_uid")
	mine := func(u archive.UUID) bool {
		return !u.IsZero() && (u == t.Key || u == haunted)
	}
	matches := b.ownerMatcher(t, m)
	gone := make(map[uint32]bool)
	var rewrite []archive.Record

	dropOwner := func(o Owner, rec archive.Record) {
		add(o.ID)
		gone[o.Internal] = true
		for _, e := range rec.References() {
			add(e.Target)
		}
	}
	for _, o := range owners {
		rec, err := b.g.Get(o.ID)
		if err != nil || rec.IsOpaque() {
			continue
		}
		if mine(o.UUID) || mine(o.Base) || (t.Haunted != 0 && o.ID == t.Haunted) {
			dropOwner(o, rec)
			continue
		}
		if o.Kind != graph.OwnerMerge {
			continue
		}
		fields, changed, empty := b.detachPrecedents(rec.Fields, matches, add)
		switch {
		case !changed:
		case empty:
			dropOwner(o, rec)
		default:
			rec.Fields = fields
			rewrite = append(rewrite, rec)
		}
	}

	if id, ce := b.engine(); ce != nil {
		tracker := ce.Message("dependency_tracker")
		entries := tracker.Message("owner_id_map").Messages("map_entry")
		kept := slices.DeleteFunc(slices.Clone(entries), func(e *archive.Message) bool {
			u, _ := e.UUID("owner_id")
			return gone[uint32(e.Uint("internal_owner_id"))] || mine(u)
		})
		if len(kept) != len(entries) {
			idMap := tracker.Message("owner_id_map").WithMessages("map_entry", kept)
			rewrite = append(rewrite, archive.Record{
				ID:     id,
				Type:   schema.CalculationEngine,
				Fields: ce.WithMessage("dependency_tracker", tracker.WithMessage("owner_id_map", idMap)),
			})
		}
	}

	if id, mgr := b.headerManager(); mgr != nil {
		if fields, changed := b.detachHeaderUses(mgr, model, mine); changed {
			rewrite = append(rewrite, archive.Record{ID: id, Type: schema.HeaderNameManager, Fields: fields})
		}
	}

	out := Removal{Table: t}
	for id := range remove {
		out.Remove = append(out.Remove, id)
	}
	slices.Sort(out.Remove)
	for _, rec := range rewrite {
		if !remove[rec.ID] {
			out.Rewrite = append(out.Rewrite, b.withEnvelope(rec))
		}
	}
	return out, nil
}

// withEnvelope carries the stored envelope over to a rewritten record.
func (b *Builder) withEnvelope(rec archive.Record) archive.Record {
	if old, err := b.g.Get(rec.ID); err == nil {
		rec.Envelope = old.Envelope
	}
	return rec
}

// detachPrecedents drops the range precedents tiles and back dependencies
// of a merge owner that target the table. Dropped tiles are passed to
// add. It reports whether anything changed and whether the owner holds
// no merges afterwards.
func (b *Builder) detachPrecedents(owner *archive.Message, matches func(uint32) bool, add func(archive.Identifier)) (*archive.Message, bool, bool) {
	changed := false
	tiled := owner.Message("tiled_range_dependencies")
	var tiles []archive.Identifier
	for _, id := range tiled.Refs("range_precedents_tile") {
		tile, err := b.fields(id, schema.RangePrecedentsTile)
		if err == nil && matches(uint32(tile.Uint("to_owner_id"))) {
			add(id)
			changed = true
			continue
		}
		tiles = append(tiles, id)
	}
	deps := owner.Message("range_dependencies")
	var back []*archive.Message
	for _, d := range deps.Messages("back_dependency") {
		if matches(uint32(d.Message("internal_range_reference").Uint("owner_id"))) {
			changed = true
			continue
		}
		back = append(back, d)
	}
	if !changed {
		return owner, false, false
	}
	if tiled != nil {
		owner = owner.WithMessage("tiled_range_dependencies", tiled.WithRefs("range_precedents_tile", tiles))
	}
	if deps != nil {
		owner = owner.WithMessage("range_dependencies", deps.WithMessages("back_dependency", back))
	}
	return owner, true, len(tiles) == 0 && len(back) == 0
}

// detachHeaderUses drops the name fragment uses of a table and the
// fragments left without uses. The sorted UID array is kept so the indexes
// of other uses stay valid.
func (b *Builder) detachHeaderUses(mgr *archive.Message, model archive.Identifier, mine func(archive.UUID) bool) (*archive.Message, bool) {
	changed := false
	var frags []*archive.Message
	for _, f := range mgr.Messages("name_fragments") {
		uses := f.Messages("uses_of_name_fragment")
		kept := slices.DeleteFunc(slices.Clone(uses), func(u *archive.Message) bool {
			owner, _ := u.UUID("owner_uid")
			if mine(owner) {
				return true
			}
			t, ok := b.TableByKey(owner)
			return ok && t.Model == model
		})
		switch {
		case len(kept) == len(uses):
			frags = append(frags, f)
		case len(kept) == 0:
			changed = true
		default:
			changed = true
			frags = append(frags, f.WithMessages("uses_of_name_fragment", kept))
		}
	}
	if !changed {
		return mgr, false
	}
	return mgr.WithMessages("name_fragments", frags), true
}
