package formula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

// Sentinels for an unbounded axis in a colon tract.
const (
	unboundedColumn = 0x7fff
	unboundedRow    = 0x7fffffff
)

// Table describes a table a formula may address.
type Table struct {
	Key   archive.UUID
	Name  string
	Sheet string
	// Unique reports whether no other table in the document has Name.
	Unique bool
}

// Resolver looks up the tables and the row and column UIDs that formula
// references point at.
type Resolver interface {
	Table(key archive.UUID) (Table, bool)
	Column(table, uid archive.UUID) (uint32, bool)
	Row(table, uid archive.UUID) (uint32, bool)
}

// Host is the cell a formula belongs to. Relative references are offsets
// from it.
type Host struct {
	Table  archive.UUID
	Column uint32
	Row    uint32
}

// axis is one resolved end of a reference along rows or columns.
type axis struct {
	index    int64
	absolute bool
	set      bool
}

func columnText(a axis) (string, bool) {
	if a.index < 0 || a.index >= excelize.MaxColumns {
		return "", false
	}
	name, err := excelize.ColumnNumberToName(int(a.index) + 1)
	if err != nil {
		return "", false
	}
	if a.absolute {
		return "$" + name, true
	}
	return name, true
}

func rowText(a axis) (string, bool) {
	if a.index < 0 {
		return "", false
	}
	s := strconv.FormatInt(a.index+1, 10)
	if a.absolute {
		return "$" + s, true
	}
	return s, true
}

// corner renders a cell, a lone column or a lone row.
func corner(col, row axis) (string, bool) {
	var b strings.Builder
	if col.set {
		s, ok := columnText(col)
		if !ok {
			return "", false
		}
		b.WriteString(s)
	}
	if row.set {
		s, ok := rowText(row)
		if !ok {
			return "", false
		}
		b.WriteString(s)
	}
	return b.String(), true
}

// quoteName quotes a table or sheet name that would otherwise read as part
// of an expression.
func quoteName(s string) string {
	if strings.ContainsAny(s, "+-×÷*/^&=<>≠≤≥%:(),;{}\"") {
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	}
	return s
}

// prefixFor returns the qualifier placed before a reference into target.
// Tables on another sheet are qualified with the sheet name as well unless
// their name is unique in the document.
func prefixFor(host Table, target Table) string {
	if target.Key == host.Key {
		return ""
	}
	if target.Sheet == host.Sheet || target.Unique {
		return quoteName(target.Name) + "::"
	}
	return quoteName(target.Sheet) + "::" + quoteName(target.Name) + "::"
}

// tableName renders a reference to a whole table.
func tableName(host Table, target Table) string {
	if target.Key == host.Key || target.Sheet == host.Sheet || target.Unique {
		return quoteName(target.Name)
	}
	return quoteName(target.Sheet) + "::" + quoteName(target.Name)
}

// tractEnd resolves one end of a colon tract axis. Sticky ends take the
// absolute entry; an axis without a relative entry keeps its absolute
// entry, which may be the unbounded sentinel; otherwise the end is relative
// to the host.
func tractEnd(sticky bool, abs, rel []*archive.Message, host, sentinel int64, end bool) int64 {
	pick := func(m *archive.Message) int64 {
		if end && m.Has("range_end") {
			return m.Int("range_end")
		}
		return m.Int("range_begin")
	}
	switch {
	case sticky && len(abs) > 0:
		return pick(abs[0])
	case len(rel) > 0:
		return host + pick(rel[0])
	case len(abs) > 0:
		return pick(abs[0])
	}
	return sentinel
}

// span renders the reference from the begin corner to the end corner. An
// unset end repeats the begin. Lone rows always render as a pair, as in
// 3:3.
func span(prefix string, bc, br, ec, er axis) (*expr, bool) {
	if !ec.set && !er.set {
		ec, er = bc, br
	}
	var first, last string
	var ok1, ok2 bool
	switch {
	case bc.set && br.set:
		first, ok1 = corner(bc, br)
		last, ok2 = corner(ec, er)
	case bc.set:
		first, ok1 = columnText(bc)
		last, ok2 = columnText(ec)
	case br.set:
		first, ok1 = rowText(br)
		last, ok2 = rowText(er)
		if ok1 && ok2 {
			return ref(prefix, first+":"+last), true
		}
	}
	if !ok1 || !ok2 {
		return nil, false
	}
	if first == last {
		return ref(prefix, first), true
	}
	return ref(prefix, first+":"+last), true
}

// cellReference renders a CELL_REFERENCE_NODE or one of its local and
// cross-table variants.
func (s *state) cellReference(n *archive.Message) *expr {
	target, ok := s.target(n)
	if !ok {
		return atom("#REF!")
	}
	prefix := prefixFor(s.hostTable, target)
	if n.Has("AST_colon_tract") {
		return s.colonTract(n, n.Message("AST_colon_tract"), target, prefix)
	}

	var col, row axis
	if n.Has("AST_column") {
		c := n.Message("AST_column")
		col = axis{index: c.Int("column"), absolute: c.Bool("absolute"), set: true}
		if !col.absolute {
			col.index += int64(s.host.Column)
		}
	}
	if n.Has("AST_row") {
		r := n.Message("AST_row")
		row = axis{index: r.Int("row"), absolute: r.Bool("absolute"), set: true}
		if !row.absolute {
			row.index += int64(s.host.Row)
		}
	}
	if !col.set && !row.set {
		return s.badReference("cell reference without row or column")
	}
	e, ok := span(prefix, col, row, axis{}, axis{})
	if !ok {
		return s.badReference("reference outside the sheet")
	}
	return e
}

func (s *state) colonTract(n, tract *archive.Message, target Table, prefix string) *expr {
	sticky := n.Message("AST_sticky_bits")
	absRow, relRow := tract.Messages("absolute_row"), tract.Messages("relative_row")
	absCol, relCol := tract.Messages("absolute_column"), tract.Messages("relative_column")

	rowBegin := tractEnd(sticky.Bool("begin_row_is_absolute"), absRow, relRow, int64(s.host.Row), unboundedRow, false)
	rowEnd := tractEnd(sticky.Bool("end_row_is_absolute"), absRow, relRow, int64(s.host.Row), unboundedRow, true)
	colBegin := tractEnd(sticky.Bool("begin_column_is_absolute"), absCol, relCol, int64(s.host.Column), unboundedColumn, false)
	colEnd := tractEnd(sticky.Bool("end_column_is_absolute"), absCol, relCol, int64(s.host.Column), unboundedColumn, true)

	// An unbounded begin drops the axis. An unbounded end leaves the
	// reference at its begin corner.
	var bc, br, ec, er axis
	if colBegin != unboundedColumn {
		bc = axis{index: colBegin, absolute: sticky.Bool("begin_column_is_absolute"), set: true}
		if colEnd != unboundedColumn {
			ec = axis{index: colEnd, absolute: sticky.Bool("end_column_is_absolute"), set: true}
		}
	}
	if rowBegin != unboundedRow {
		br = axis{index: rowBegin, absolute: sticky.Bool("begin_row_is_absolute"), set: true}
		if rowEnd != unboundedRow {
			er = axis{index: rowEnd, absolute: sticky.Bool("end_row_is_absolute"), set: true}
		}
	}
	if !bc.set && !br.set {
		return atom(tableName(s.hostTable, target))
	}
	if bc.set != ec.set || br.set != er.set {
		ec, er = bc, br
	}
	e, ok := span(prefix, bc, br, ec, er)
	if !ok {
		return s.badReference("range outside the sheet")
	}
	return e
}

// uidReference renders a reference whose rows and columns are named by
// UID. Rows and columns no longer in the table render as a reference
// error.
func (s *state) uidReference(n *archive.Message) *expr {
	u := n.Message("AST_uid_reference")
	key, _ := u.UUID("table_id")
	if key.IsZero() {
		key = s.host.Table
	}
	target, ok := s.tables.Table(key)
	if !ok {
		s.warnf("reference to unknown table %s", key)
		return atom("#REF!")
	}

	resolve := func(c *archive.Message) (col, row axis, ok bool) {
		if cu, has := c.UUID("column_uid"); has {
			i, found := s.tables.Column(target.Key, cu)
			if !found {
				return col, row, false
			}
			col = axis{index: int64(i), absolute: c.Bool("column_absolute"), set: true}
		}
		if ru, has := c.UUID("row_uid"); has {
			i, found := s.tables.Row(target.Key, ru)
			if !found {
				return col, row, false
			}
			row = axis{index: int64(i), absolute: c.Bool("row_absolute"), set: true}
		}
		return col, row, col.set || row.set
	}

	bc, br, ok := resolve(u.Message("begin"))
	if !ok {
		return atom("#REF!")
	}
	var ec, er axis
	if u.Has("end") {
		if ec, er, ok = resolve(u.Message("end")); !ok {
			return atom("#REF!")
		}
	}
	e, ok := span(prefixFor(s.hostTable, target), bc, br, ec, er)
	if !ok {
		return atom("#REF!")
	}
	return e
}

// target returns the table a reference node addresses.
func (s *state) target(n *archive.Message) (Table, bool) {
	if !n.Has("AST_cross_table_reference_extra_info") {
		return s.hostTable, true
	}
	key, _ := n.Message("AST_cross_table_reference_extra_info").UUID("table_id")
	t, ok := s.tables.Table(key)
	if !ok {
		s.warnf("reference to unknown table %s", key)
	}
	return t, ok
}

func (s *state) badReference(msg string) *expr {
	s.warnf("%s", msg)
	return atom("#REF!")
}

func (s *state) warnf(format string, args ...any) {
	at, err := excelize.CoordinatesToCellName(int(s.host.Column)+1, int(s.host.Row)+1)
	if err != nil {
		at = fmt.Sprintf("[%d,%d]", s.host.Row, s.host.Column)
	}
	s.warnings = append(s.warnings, fmt.Sprintf("%s@%s: %s", s.hostTable.Name, at, fmt.Sprintf(format, args...)))
}
