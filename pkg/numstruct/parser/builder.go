// Package parser projects the object graph of a document onto its logical
// model: sheets, tables, cells, merge ranges and header names. Everything
// is computed on first use and memoized until the graph changes.
package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// ErrNotTable is returned for identifiers that do not name a table model.
var ErrNotTable = errors.New("parser: not a table model")

// Graph is the view of the object graph store the builder reads.
type Graph interface {
	Get(id archive.Identifier) (archive.Record, error)
	ResolveUUID(u archive.UUID) (archive.Identifier, error)
	OwnerUUID(internal uint32) (archive.UUID, bool)
	FindByType(tag archive.TypeTag) []archive.Identifier
	Generation() uint64
}

// Builder materializes the logical model of one document.
type Builder struct {
	g   Graph
	log *slog.Logger

	mu    sync.Mutex
	gen   uint64
	memo  map[string]any
	diags map[string]graph.Diagnostic
	// scanned holds the warnings of the load-time scan. They outlive
	// graph changes while their record exists.
	scanned map[string]graph.Diagnostic
}

// New returns a builder over g. A nil logger discards output.
func New(g Graph, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{g: g, log: log, memo: make(map[string]any), diags: make(map[string]graph.Diagnostic)}
}

// memoize returns the cached result for key, computing it with fn if the
// graph changed since it was stored.
func memoize[T any](b *Builder, key string, fn func() (T, error)) (T, error) {
	b.mu.Lock()
	if gen := b.g.Generation(); gen != b.gen {
		b.gen = gen
		b.memo = make(map[string]any)
		b.diags = make(map[string]graph.Diagnostic)
	}
	if v, ok := b.memo[key]; ok {
		b.mu.Unlock()
		return v.(T), nil
	}
	b.mu.Unlock()

	v, err := fn()
	if err != nil {
		return v, err
	}
	b.mu.Lock()
	b.memo[key] = v
	b.mu.Unlock()
	return v, nil
}

func diagKey(d graph.Diagnostic) string {
	return fmt.Sprintf("%d|%d|%s|%s", d.Kind, d.Record, d.Field, d.Message)
}

func (b *Builder) warn(d graph.Diagnostic) {
	key := diagKey(d)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, seen := b.diags[key]; seen {
		return
	}
	if _, seen := b.scanned[key]; seen {
		return
	}
	b.diags[key] = d
	b.log.Warn("model diagnostic", "kind", d.Kind.String(), "record", uint64(d.Record), "field", d.Field, "message", d.Message)
}

// Diagnose records a warning raised by a caller reading the model. It is
// kept until the graph changes, like the builder's own warnings.
func (b *Builder) Diagnose(d graph.Diagnostic) {
	b.warn(d)
}

// Scan builds the tables and formula owners of the document once so that
// their warnings are known without reading the model: unsupported owner
// kinds, tables keyed by fallback and cell dependencies that cannot be
// read or fall outside their table. The warnings are kept until the
// record they concern is removed.
func (b *Builder) Scan() {
	owners, _ := b.Owners()
	tables, err := b.Tables()
	if err != nil {
		b.warn(graph.Diagnostic{Kind: graph.Unsupported, Record: archive.DocumentID, Message: err.Error()})
	}
	checked := make(map[archive.Identifier]bool)
	for _, t := range tables {
		mine, err := b.TableOwners(t.Model)
		if err != nil {
			continue
		}
		for _, o := range mine {
			checked[o.ID] = true
			b.checkCellDependencies(o, &t)
		}
	}
	for _, o := range owners {
		if !checked[o.ID] {
			b.checkCellDependencies(o, nil)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scanned == nil {
		b.scanned = make(map[string]graph.Diagnostic)
	}
	for key, d := range b.diags {
		b.scanned[key] = d
	}
	b.diags = make(map[string]graph.Diagnostic)
}

// checkCellDependencies reads the cell records of an owner. With a table
// given, records must fall inside it.
func (b *Builder) checkCellDependencies(o Owner, t *Table) {
	deps, err := b.CellDependencies(o.ID)
	if err != nil {
		b.warn(graph.Diagnostic{Kind: graph.DanglingReference, Record: o.ID, Field: "tiled_cell_dependencies", Message: err.Error()})
		return
	}
	if t == nil {
		return
	}
	for _, at := range sortedCoords(deps) {
		if at.Column >= t.Columns || at.Row >= t.Rows {
			b.warn(graph.Diagnostic{
				Kind:    graph.Unsupported,
				Record:  o.ID,
				Field:   "tiled_cell_dependencies",
				Message: fmt.Sprintf("cell record %s outside %dx%d table %q", at.Name(), t.Columns, t.Rows, t.Name),
			})
		}
	}
}

// Diagnostics returns the warnings of the load-time scan and those raised
// while building the parts of the model requested since the last change.
func (b *Builder) Diagnostics() []graph.Diagnostic {
	b.mu.Lock()
	scanned := make([]graph.Diagnostic, 0, len(b.scanned))
	for _, d := range b.scanned {
		scanned = append(scanned, d)
	}
	out := make([]graph.Diagnostic, 0, len(b.diags)+len(b.scanned))
	for _, d := range b.diags {
		out = append(out, d)
	}
	b.mu.Unlock()
	for _, d := range scanned {
		if _, err := b.g.Get(d.Record); err == nil {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Record != out[j].Record {
			return out[i].Record < out[j].Record
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Field < out[j].Field
	})
	return out
}

// fields returns the decoded fields of a record of the expected type.
func (b *Builder) fields(id archive.Identifier, tag archive.TypeTag) (*archive.Message, error) {
	rec, err := b.g.Get(id)
	if err != nil {
		return nil, err
	}
	if rec.Type != tag || rec.IsOpaque() {
		return nil, fmt.Errorf("parser: record %d has type %d, expected %d", id, rec.Type, tag)
	}
	return rec.Fields, nil
}

// engine returns the calculation engine record, or nil for documents
// without one.
func (b *Builder) engine() (archive.Identifier, *archive.Message) {
	doc, err := b.fields(archive.DocumentID, schema.DocumentArchive)
	if err == nil {
		if id := doc.Ref("calculation_engine"); id != 0 {
			if ce, err := b.fields(id, schema.CalculationEngine); err == nil {
				return id, ce
			}
		}
	}
	for _, id := range b.g.FindByType(schema.CalculationEngine) {
		if ce, err := b.fields(id, schema.CalculationEngine); err == nil {
			return id, ce
		}
	}
	return 0, nil
}

// ownerRecords returns the formula owner records in load order.
func (b *Builder) ownerRecords() []archive.Record {
	var out []archive.Record
	for _, id := range b.g.FindByType(schema.FormulaOwnerDependencies) {
		rec, err := b.g.Get(id)
		if err != nil || rec.IsOpaque() {
			continue
		}
		out = append(out, rec)
	}
	return out
}
