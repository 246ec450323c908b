package parser

import (
	"fmt"
	"slices"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// HeaderName is a name fragment applied to the cells of a table at the
// cross product of Columns and Rows. An empty axis covers every index.
type HeaderName struct {
	Name    string
	Columns []uint32
	Rows    []uint32
}

// Applies reports whether the name covers c.
func (h HeaderName) Applies(c Coord) bool {
	return (len(h.Columns) == 0 || slices.Contains(h.Columns, c.Column)) &&
		(len(h.Rows) == 0 || slices.Contains(h.Rows, c.Row))
}

// NamesAt returns the names covering c, in order.
func NamesAt(names []HeaderName, c Coord) []string {
	var out []string
	for _, h := range names {
		if h.Applies(c) {
			out = append(out, h.Name)
		}
	}
	return out
}

// headerManager returns the document's header name manager.
func (b *Builder) headerManager() (archive.Identifier, *archive.Message) {
	if _, ce := b.engine(); ce != nil {
		if id := ce.Ref("header_name_manager"); id != 0 {
			if m, err := b.fields(id, schema.HeaderNameManager); err == nil {
				return id, m
			}
		}
	}
	for _, id := range b.g.FindByType(schema.HeaderNameManager) {
		if m, err := b.fields(id, schema.HeaderNameManager); err == nil {
			return id, m
		}
	}
	return 0, nil
}

// HeaderNames returns the header name fragments used by a table. UIDs are
// taken from each use directly or by index into the document-wide sorted
// UID array, then located in the table's column and row UID lists. A use
// listing no UIDs on an axis covers every index of that axis.
func (b *Builder) HeaderNames(model archive.Identifier) ([]HeaderName, error) {
	return memoize(b, fmt.Sprintf("headers:%d", model), func() ([]HeaderName, error) {
		if _, err := b.Table(model); err != nil {
			return nil, err
		}
		m, err := b.fields(model, schema.TableModelArchive)
		if err != nil {
			return nil, err
		}
		hid, mgr := b.headerManager()
		if mgr == nil {
			return nil, nil
		}
		sorted := mgr.UUIDs("sorted_uids")
		columns := indexUUIDs(m.UUIDs("column_uids"))
		rows := indexUUIDs(m.UUIDs("row_uids"))

		var out []HeaderName
		for fi, frag := range mgr.Messages("name_fragments") {
			for ui, use := range frag.Messages("uses_of_name_fragment") {
				owner, _ := use.UUID("owner_uid")
				t, ok := b.TableByKey(owner)
				if !ok || t.Model != model {
					continue
				}
				field := fmt.Sprintf("name_fragments[%d].uses_of_name_fragment[%d]", fi, ui)
				resolve := func(axis string, direct []archive.UUID, indexes []uint64, table map[archive.UUID]uint32) []uint32 {
					uids := slices.Clone(direct)
					for _, i := range indexes {
						if i >= uint64(len(sorted)) {
							b.warn(graph.Diagnostic{Kind: graph.DanglingUUID, Record: hid, Field: field, Message: fmt.Sprintf("%s uid index %d past %d sorted uids", axis, i, len(sorted))})
							continue
						}
						uids = append(uids, sorted[i])
					}
					var idx []uint32
					for _, u := range uids {
						n, ok := table[u]
						if !ok {
							b.warn(graph.Diagnostic{Kind: graph.DanglingUUID, Record: hid, Field: field, Message: fmt.Sprintf("%s uid %s is not in table %d", axis, u, model)})
							continue
						}
						idx = append(idx, n)
					}
					slices.Sort(idx)
					return slices.Compact(idx)
				}
				cols := resolve("column", use.UUIDs("column_uids"), use.Uints("column_uid_indexes"), columns)
				rws := resolve("row", use.UUIDs("row_uids"), use.Uints("row_uid_indexes"), rows)
				if (use.Count("column_uids")+use.Count("column_uid_indexes") > 0 && len(cols) == 0) ||
					(use.Count("row_uids")+use.Count("row_uid_indexes") > 0 && len(rws) == 0) {
					// Every listed UID was unknown; the name covers nothing.
					continue
				}
				out = append(out, HeaderName{Name: frag.String("name"), Columns: cols, Rows: rws})
			}
		}
		return out, nil
	})
}

func indexUUIDs(us []archive.UUID) map[archive.UUID]uint32 {
	out := make(map[archive.UUID]uint32, len(us))
	for i, u := range us {
		if _, dup := out[u]; !dup {
			out[u] = uint32(i)
		}
	}
	return out
}
