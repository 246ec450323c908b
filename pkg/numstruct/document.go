package numstruct

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/container"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/formula"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/iwa"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/parser"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// Document is an open document. It owns its object graph; all reads go
// through the model builder and all edits through the graph store.
type Document struct {
	name  string
	opts  Options
	log   *slog.Logger
	pkg   *container.Package
	store *graph.Store
	model *parser.Builder
	tr    *formula.Translator
	// removed holds the identifiers deleted since the last save, for
	// pruning the package metadata.
	removed map[archive.Identifier]bool
}

// Open reads the package at path.
func Open(path string, opts Options) (*Document, error) {
	pkg, err := container.Open(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		case errors.Is(err, container.ErrNotPackage):
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		return nil, err
	}
	return Load(pkg, filepath.Base(path), opts)
}

// Load indexes the archive files of an in-memory package. A record that
// does not decode fails the load; dangling edges are tolerated and show up
// in Diagnostics.
func Load(pkg *container.Package, name string, opts Options) (*Document, error) {
	log := opts.logger()
	cat := schema.Default()
	store := graph.New(graph.WithLogger(log))
	for _, path := range pkg.ListEntries() {
		if !strings.HasSuffix(path, ".iwa") {
			continue
		}
		blob, err := pkg.Read(path)
		if err != nil {
			return nil, err
		}
		recs, err := iwa.DecodeFile(cat, path, blob)
		if err != nil {
			if errors.Is(err, archive.ErrCorrupt) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		for _, rec := range recs {
			if _, err := store.Insert(rec, path); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
			}
		}
		log.Debug("loaded archive file", "path", path, "records", len(recs))
	}
	if _, err := store.Get(archive.DocumentID); err != nil {
		return nil, fmt.Errorf("%w: no document root", ErrInvalidFormat)
	}
	store.Seal()

	d := &Document{name: name, opts: opts, log: log, pkg: pkg, store: store}
	d.model = parser.New(store, log)
	d.tr = formula.New(d.model.Resolver(), opts.Functions)
	d.model.Scan()
	for _, diag := range store.Validate() {
		log.Warn("document diagnostic", "kind", diag.Kind.String(), "record", uint64(diag.Record), "field", diag.Field, "message", diag.Message)
	}
	log.Debug("opened document", "name", name, "records", store.Len())
	return d, nil
}

// Name returns the file name the document was opened from.
func (d *Document) Name() string {
	return d.name
}

// Store returns the document's object graph.
func (d *Document) Store() *graph.Store {
	return d.store
}

// Model returns the builder projecting the graph onto sheets and tables.
func (d *Document) Model() *parser.Builder {
	return d.model
}

// Diagnostics returns every warning known for the document: dangling
// edges in the current graph, owner map conflicts, the warnings found when
// the document was loaded and those raised while building the parts of
// the model read since.
func (d *Document) Diagnostics() []graph.Diagnostic {
	seen := make(map[string]bool)
	var out []graph.Diagnostic
	add := func(ds []graph.Diagnostic) {
		for _, diag := range ds {
			if key := diag.String(); !seen[key] {
				seen[key] = true
				out = append(out, diag)
			}
		}
	}
	add(d.store.Validate())
	add(d.store.Diagnostics())
	add(d.model.Diagnostics())
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Record != out[j].Record {
			return out[i].Record < out[j].Record
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Sheets returns the sheets in document order.
func (d *Document) Sheets() ([]*Sheet, error) {
	sheets, err := d.model.Sheets()
	if err != nil {
		return nil, err
	}
	out := make([]*Sheet, len(sheets))
	for i, s := range sheets {
		out[i] = &Sheet{doc: d, sheet: s}
	}
	return out, nil
}

// Sheet returns the first sheet with the given name.
func (d *Document) Sheet(name string) (*Sheet, error) {
	sheets, err := d.Sheets()
	if err != nil {
		return nil, err
	}
	for _, s := range sheets {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: sheet %q", ErrNotFound, name)
}

// Sheet is one sheet of a Document.
type Sheet struct {
	doc   *Document
	sheet parser.Sheet
}

// Name returns the sheet name.
func (s *Sheet) Name() string {
	return s.sheet.Name
}

// Tables returns the tables on the sheet in drawing order.
func (s *Sheet) Tables() ([]*Table, error) {
	out := make([]*Table, 0, len(s.sheet.Tables))
	for _, id := range s.sheet.Tables {
		t, err := s.doc.model.Table(id)
		if err != nil {
			return nil, err
		}
		out = append(out, &Table{doc: s.doc, sheet: s.sheet.Name, model: t.Model})
	}
	return out, nil
}

// Table returns the first table on the sheet with the given name.
func (s *Sheet) Table(name string) (*Table, error) {
	tables, err := s.Tables()
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if n, _ := t.Name(); n == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: table %q on sheet %q", ErrNotFound, name, s.Name())
}

// RemoveTable deletes a table with its cell storage and formula owners.
// References to the removed records are dropped from the sheet and from
// other owners; any that cannot be dropped are reported as dangling and
// make Save fail.
func (d *Document) RemoveTable(t *Table) error {
	plan, err := d.model.PlanRemoval(t.model)
	if err != nil {
		return err
	}
	for _, rec := range plan.Rewrite {
		if err := d.store.Replace(rec.ID, rec); err != nil {
			return err
		}
	}
	for _, id := range plan.Remove {
		if _, err := d.store.Remove(id); err != nil && !errors.Is(err, graph.ErrNotFound) {
			return err
		}
	}
	for _, id := range plan.Remove {
		d.store.Unlink(id)
	}
	if d.removed == nil {
		d.removed = make(map[archive.Identifier]bool)
	}
	for _, id := range plan.Remove {
		d.removed[id] = true
	}
	d.log.Debug("removed table", "name", plan.Table.Name, "records", len(plan.Remove), "rewritten", len(plan.Rewrite))
	return nil
}
