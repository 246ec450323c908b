package parser

import (
	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/formula"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/graph"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// Resolver returns the builder's view of tables for formula translation.
func (b *Builder) Resolver() formula.Resolver {
	return resolver{b}
}

type resolver struct {
	b *Builder
}

func (r resolver) Table(key archive.UUID) (formula.Table, bool) {
	t, ok := r.b.TableByKey(key)
	if !ok {
		return formula.Table{}, false
	}
	out := formula.Table{Key: t.Key, Name: t.Name, Unique: len(r.b.TableNamed(t.Name)) == 1}
	if s, ok := r.b.SheetOf(t); ok {
		out.Sheet = s.Name
	}
	return out, true
}

func (r resolver) Column(table, uid archive.UUID) (uint32, bool) {
	return r.index(table, "column_uids", uid)
}

func (r resolver) Row(table, uid archive.UUID) (uint32, bool) {
	return r.index(table, "row_uids", uid)
}

func (r resolver) index(table archive.UUID, field string, uid archive.UUID) (uint32, bool) {
	t, ok := r.b.TableByKey(table)
	if !ok {
		return 0, false
	}
	m, err := r.b.fields(t.Model, schema.TableModelArchive)
	if err != nil {
		return 0, false
	}
	i, ok := indexUUIDs(m.UUIDs(field))[uid]
	return i, ok
}

// TranslateCell renders the formula of a cell with tr. Cells without a
// formula yield an empty result.
func (b *Builder) TranslateCell(tr *formula.Translator, t Table, c Cell) (formula.Result, error) {
	if c.Formula == nil {
		return formula.Result{}, nil
	}
	res, err := tr.Translate(c.Formula, formula.Host{Table: t.Key, Column: c.At.Column, Row: c.At.Row})
	if err != nil {
		return res, err
	}
	for _, w := range res.Warnings {
		b.warn(graph.Diagnostic{Kind: graph.Unsupported, Record: t.Model, Field: "formula", Message: w})
	}
	return res, nil
}
