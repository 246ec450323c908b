package parser

import (
	"fmt"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// Sheet is one sheet of the document.
type Sheet struct {
	ID   archive.Identifier
	Name string
	// Tables lists the table model identifiers in drawing order.
	Tables []archive.Identifier
}

// Table describes one table model.
type Table struct {
	Model archive.Identifier
	Info  archive.Identifier
	Sheet archive.Identifier

	Name          string
	Columns       uint32
	Rows          uint32
	HeaderRows    uint32
	HeaderColumns uint32
	FooterRows    uint32

	// Key is the UUID other tables' formulas address this table by.
	Key archive.UUID
	// Haunted is the formula owner reached through the haunted owner edge.
	// It is zero when Fallback is set.
	Haunted archive.Identifier
	// Fallback is set when the haunted owner could not be followed and Key
	// was derived from the table model identifier.
	Fallback bool
}

// FallbackKey is the key assigned to a table whose haunted owner is
// missing.
func FallbackKey(model archive.Identifier) archive.UUID {
	return archive.UUID{Lower: uint64(model)}
}

// Sheets returns the document's sheets in order.
func (b *Builder) Sheets() ([]Sheet, error) {
	return memoize(b, "sheets", func() ([]Sheet, error) {
		doc, err := b.fields(archive.DocumentID, schema.DocumentArchive)
		if err != nil {
			return nil, fmt.Errorf("document root: %w", err)
		}
		var sheets []Sheet
		for _, id := range doc.Refs("sheets") {
			f, err := b.fields(id, schema.SheetArchive)
			if err != nil {
				return nil, fmt.Errorf("sheet: %w", err)
			}
			s := Sheet{ID: id, Name: f.String("name")}
			for _, d := range f.Refs("drawable_infos") {
				rec, err := b.g.Get(d)
				if err != nil || rec.Type != schema.TableInfoArchive || rec.IsOpaque() {
					// Other drawables are inert.
					continue
				}
				if model := rec.Fields.Ref("tableModel"); model != 0 {
					s.Tables = append(s.Tables, model)
				}
			}
			sheets = append(sheets, s)
		}
		return sheets, nil
	})
}

// Tables returns every table of the document, sheet by sheet.
func (b *Builder) Tables() ([]Table, error) {
	sheets, err := b.Sheets()
	if err != nil {
		return nil, err
	}
	var out []Table
	for _, s := range sheets {
		for _, id := range s.Tables {
			t, err := b.Table(id)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
	}
	return out, nil
}

// Table returns the table whose model is id.
func (b *Builder) Table(id archive.Identifier) (Table, error) {
	return memoize(b, fmt.Sprintf("table:%d", id), func() (Table, error) {
		m, err := b.fields(id, schema.TableModelArchive)
		if err != nil {
			return Table{}, fmt.Errorf("%w: %v", ErrNotTable, err)
		}
		t := Table{
			Model:         id,
			Name:          m.String("table_name"),
			Columns:       uint32(m.Uint("number_of_columns")),
			Rows:          uint32(m.Uint("number_of_rows")),
			HeaderRows:    uint32(m.Uint("number_of_header_rows")),
			HeaderColumns: uint32(m.Uint("number_of_header_columns")),
			FooterRows:    uint32(m.Uint("number_of_footer_rows")),
		}
		t.Sheet, t.Info = b.placement(id)
		t.Key, t.Haunted, t.Fallback = b.tableKey(id, m)
		return t, nil
	})
}

// placement finds the sheet and table info that hold a table model.
func (b *Builder) placement(model archive.Identifier) (sheet, info archive.Identifier) {
	sheets, err := b.Sheets()
	if err != nil {
		return 0, 0
	}
	for _, s := range sheets {
		for _, id := range s.Tables {
			if id != model {
				continue
			}
			f, err := b.fields(s.ID, schema.SheetArchive)
			if err != nil {
				return s.ID, 0
			}
			for _, d := range f.Refs("drawable_infos") {
				rec, err := b.g.Get(d)
				if err == nil && rec.Type == schema.TableInfoArchive && !rec.IsOpaque() && rec.Fields.Ref("tableModel") == model {
					return s.ID, d
				}
			}
			return s.ID, 0
		}
	}
	return 0, 0
}

// tableKey follows table_model.haunted_owner to the haunted formula owner
// and returns its base owner UUID.
func (b *Builder) tableKey(id archive.Identifier, m *archive.Message) (archive.UUID, archive.Identifier, bool) {
	fallback := func(why string) (archive.UUID, archive.Identifier, bool) {
		b.warn(graph.Diagnostic{
			Kind:    graph.OwnerFallback,
			Record:  id,
			Field:   "haunted_owner",
			Message: why + "; keyed by the table model identifier",
		})
		return FallbackKey(id), 0, true
	}

	haunted, ok := m.Message("haunted_owner").UUID("owner_uid")
	if !ok {
		return fallback("table has no haunted owner")
	}
	owner, err := b.g.ResolveUUID(haunted)
	if err != nil {
		return fallback(fmt.Sprintf("haunted owner %s not registered", haunted))
	}
	rec, err := b.g.Get(owner)
	if err != nil || rec.Type != schema.FormulaOwnerDependencies || rec.IsOpaque() {
		return fallback(fmt.Sprintf("haunted owner %s is not a formula owner", haunted))
	}
	base, ok := rec.Fields.UUID("base_owner_uid")
	if !ok {
		return fallback(fmt.Sprintf("formula owner %d has no base owner", owner))
	}
	return base, owner, false
}

// TableByKey returns the table addressed by a formula table UUID. Besides
// the table key it accepts the haunted owner UUID and any UUID the owner
// map resolves to the table's model or haunted owner.
func (b *Builder) TableByKey(u archive.UUID) (Table, bool) {
	tables, err := b.Tables()
	if err != nil {
		return Table{}, false
	}
	for _, t := range tables {
		if t.Key == u {
			return t, true
		}
	}
	if id, err := b.g.ResolveUUID(u); err == nil {
		for _, t := range tables {
			if id == t.Model || (t.Haunted != 0 && id == t.Haunted) {
				return t, true
			}
		}
	}
	return Table{}, false
}

// TableNamed returns the tables with the given name on any sheet.
func (b *Builder) TableNamed(name string) []Table {
	tables, _ := b.Tables()
	var out []Table
	for _, t := range tables {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}

// SheetOf returns the sheet holding a table.
func (b *Builder) SheetOf(t Table) (Sheet, bool) {
	sheets, _ := b.Sheets()
	for _, s := range sheets {
		if s.ID == t.Sheet {
			return s, true
		}
	}
	return Sheet{}, false
}
