package parser

import (
	"fmt"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// Owner is one formula owner record of the calculation engine.
type Owner struct {
	ID       archive.Identifier
	Kind     graph.OwnerKind
	Internal uint32
	UUID     archive.UUID
	Base     archive.UUID
}

// Owners returns the formula owners in load order. Owners whose kind the
// model does not interpret are reported as unsupported.
func (b *Builder) Owners() ([]Owner, error) {
	return memoize(b, "owners", func() ([]Owner, error) {
		var out []Owner
		for _, rec := range b.ownerRecords() {
			o := Owner{
				ID:       rec.ID,
				Kind:     graph.OwnerKind(rec.Fields.Uint("owner_kind")),
				Internal: uint32(rec.Fields.Uint("internal_formula_owner_id")),
			}
			o.UUID, _ = rec.Fields.UUID("formula_owner_uid")
			o.Base, _ = rec.Fields.UUID("base_owner_uid")
			switch o.Kind {
			case graph.OwnerPivot, graph.OwnerPencilAnnotation:
				b.unsupportedOwner(o)
			default:
				if !o.Kind.Known() {
					b.unsupportedOwner(o)
				}
			}
			out = append(out, o)
		}
		return out, nil
	})
}

func (b *Builder) unsupportedOwner(o Owner) {
	b.warn(graph.Diagnostic{
		Kind:    graph.Unsupported,
		Record:  o.ID,
		Field:   "owner_kind",
		Message: fmt.Sprintf("formula owner of kind %s is carried but not interpreted", o.Kind),
	})
}

// TableOwners returns the formula owners attached to a table: the owner
// keyed by the table and those whose base owner is the table key.
func (b *Builder) TableOwners(model archive.Identifier) ([]Owner, error) {
	t, err := b.Table(model)
	if err != nil {
		return nil, err
	}
	owners, err := b.Owners()
	if err != nil {
		return nil, err
	}
	var out []Owner
	for _, o := range owners {
		if o.UUID == t.Key || o.Base == t.Key || (t.Haunted != 0 && o.ID == t.Haunted) {
			out = append(out, o)
		}
	}
	return out, nil
}

// CellDependencies merges the cell record tiles of a formula owner into
// one collection keyed by cell.
func (b *Builder) CellDependencies(owner archive.Identifier) (map[Coord]*archive.Message, error) {
	return memoize(b, fmt.Sprintf("celldeps:%d", owner), func() (map[Coord]*archive.Message, error) {
		f, err := b.fields(owner, schema.FormulaOwnerDependencies)
		if err != nil {
			return nil, err
		}
		var tiles []Tile[*archive.Message]
		for _, id := range f.Message("tiled_cell_dependencies").Refs("cell_record_tiles") {
			tile, err := b.fields(id, schema.CellRecordTile)
			if err != nil {
				return nil, fmt.Errorf("formula owner %d cell records: %w", owner, err)
			}
			part := Tile[*archive.Message]{
				Owner:  id,
				Origin: Coord{Column: uint32(tile.Uint("tile_column_begin")), Row: uint32(tile.Uint("tile_row_begin"))},
			}
			for _, rec := range tile.Messages("cell_records") {
				part.Entries = append(part.Entries, TileEntry[*archive.Message]{
					Offset: Coord{Column: uint32(rec.Uint("column")), Row: uint32(rec.Uint("row"))},
					Value:  rec,
				})
			}
			tiles = append(tiles, part)
		}
		return MergeTiles(tiles)
	})
}
