package numstruct

import (
	"fmt"
	"slices"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/container"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/iwa"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// Encode writes the graph back into the document's package and returns
// it. It fails if an edit left a reference or UUID edge dangling; edges
// that were already dangling when the document was read are kept as they
// were.
func (d *Document) Encode() (*container.Package, error) {
	if err := d.store.CheckWrite(); err != nil {
		return nil, fmt.Errorf("document %s: %w", d.name, err)
	}
	var moved map[archive.Identifier]archive.Identifier
	if d.opts.CompactIdentifiers {
		if moved = d.store.Renumber(); len(moved) > 0 {
			d.log.Debug("compacted identifiers", "moved", len(moved))
		}
	}
	if err := d.updateMetadata(moved); err != nil {
		return nil, err
	}
	d.removed = nil
	for _, path := range d.store.Paths() {
		recs := d.store.FileRecords(path)
		if len(recs) == 0 {
			d.pkg.Remove(path)
			continue
		}
		if err := d.pkg.Write(path, iwa.EncodeFile(recs)); err != nil {
			return nil, err
		}
	}
	return d.pkg, nil
}

// Save encodes the document and writes it to path.
func (d *Document) Save(path string) error {
	pkg, err := d.Encode()
	if err != nil {
		return err
	}
	if err := pkg.Save(path); err != nil {
		return err
	}
	d.log.Info("saved document", "path", path, "records", d.store.Len())
	return nil
}

// updateMetadata keeps the package metadata in line with the graph: the
// last object identifier stays at or above every identifier in use and
// the component list follows removed and renumbered records.
func (d *Document) updateMetadata(moved map[archive.Identifier]archive.Identifier) error {
	rec, err := d.store.Get(archive.PackageID)
	if err != nil || rec.IsOpaque() || rec.Type != schema.PackageMetadata {
		return nil
	}
	fields, changed := remapComponents(rec.Fields, d.removed, moved)
	if last := uint64(d.store.MaxIdentifier()); fields.Uint("last_object_identifier") < last {
		fields = fields.WithUint("last_object_identifier", last)
		changed = true
	}
	if !changed {
		return nil
	}
	rec.Fields = fields
	return d.store.Replace(archive.PackageID, rec)
}

// remapComponents drops the components rooted at removed records and the
// external references to removed components or objects. Identifiers of
// the rest follow moved.
func remapComponents(meta *archive.Message, removed map[archive.Identifier]bool, moved map[archive.Identifier]archive.Identifier) (*archive.Message, bool) {
	if len(removed) == 0 && len(moved) == 0 {
		return meta, false
	}
	rename := func(x uint64) (uint64, bool) {
		id := archive.Identifier(x)
		if removed[id] {
			return 0, false
		}
		if n, ok := moved[id]; ok {
			return uint64(n), true
		}
		return x, true
	}

	changed := false
	var comps []*archive.Message
	for _, c := range meta.Messages("components") {
		id, ok := rename(c.Uint("identifier"))
		if !ok {
			changed = true
			continue
		}
		if id != c.Uint("identifier") {
			c = c.WithUint("identifier", id)
			changed = true
		}
		refs := c.Messages("external_references")
		kept := make([]*archive.Message, 0, len(refs))
		for _, r := range refs {
			comp, ok := rename(r.Uint("component_identifier"))
			if !ok {
				continue
			}
			if r.Has("object_identifier") {
				obj, ok := rename(r.Uint("object_identifier"))
				if !ok {
					continue
				}
				if obj != r.Uint("object_identifier") {
					r = r.WithUint("object_identifier", obj)
				}
			}
			if comp != r.Uint("component_identifier") {
				r = r.WithUint("component_identifier", comp)
			}
			kept = append(kept, r)
		}
		if !slices.Equal(kept, refs) {
			c = c.WithMessages("external_references", kept)
			changed = true
		}
		comps = append(comps, c)
	}
	if !changed {
		return meta, false
	}
	return meta.WithMessages("components", comps), true
}
