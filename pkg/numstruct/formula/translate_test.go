package formula

import (
	"errors"
	"slices"
	"testing"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

var (
	hostKey   = archive.UUID{Upper: 1, Lower: 1}
	peerKey   = archive.UUID{Upper: 1, Lower: 2}
	farKey    = archive.UUID{Upper: 1, Lower: 3}
	uniqueKey = archive.UUID{Upper: 1, Lower: 4}

	col0 = archive.UUID{Upper: 2, Lower: 0}
	col1 = archive.UUID{Upper: 2, Lower: 1}
	row0 = archive.UUID{Upper: 3, Lower: 0}
	row1 = archive.UUID{Upper: 3, Lower: 1}
)

type fakeTables struct {
	tables map[archive.UUID]Table
	cols   map[archive.UUID][]archive.UUID
	rows   map[archive.UUID][]archive.UUID
}

func (f fakeTables) Table(key archive.UUID) (Table, bool) {
	t, ok := f.tables[key]
	return t, ok
}

func (f fakeTables) Column(table, uid archive.UUID) (uint32, bool) {
	i := slices.Index(f.cols[table], uid)
	return uint32(i), i >= 0
}

func (f fakeTables) Row(table, uid archive.UUID) (uint32, bool) {
	i := slices.Index(f.rows[table], uid)
	return uint32(i), i >= 0
}

func testTables() fakeTables {
	return fakeTables{
		tables: map[archive.UUID]Table{
			hostKey:   {Key: hostKey, Name: "Table 1", Sheet: "Sheet 1"},
			peerKey:   {Key: peerKey, Name: "Table 2", Sheet: "Sheet 1"},
			farKey:    {Key: farKey, Name: "Table 1", Sheet: "Sheet 2"},
			uniqueKey: {Key: uniqueKey, Name: "Totals", Sheet: "Sheet 2", Unique: true},
		},
		cols: map[archive.UUID][]archive.UUID{hostKey: {col0, col1}},
		rows: map[archive.UUID][]archive.UUID{hostKey: {row0, row1}},
	}
}

// The host cell is C4.
var testHost = Host{Table: hostKey, Column: 2, Row: 3}

func node(t NodeType) *archive.Message {
	return archive.New(schema.ASTNode).WithUint("AST_node_type", uint64(t))
}

// num is an integer literal as the editor stores it.
func num(v uint64) *archive.Message {
	return integer(v)
}

func float(v float64) *archive.Message {
	return node(NodeNumber).WithFloat64("AST_number_node_number", v)
}

func integer(v uint64) *archive.Message {
	return node(NodeNumber).
		WithUint("AST_number_node_decimal_low", v).
		WithUint("AST_number_node_decimal_high", integerDecimalHigh)
}

func str(s string) *archive.Message {
	return node(NodeString).WithString("AST_string_node_string", s)
}

func boolean(b bool) *archive.Message {
	return node(NodeBoolean).WithBool("AST_boolean_node_boolean", b)
}

func call(index, args uint64) *archive.Message {
	return node(NodeFunction).WithUint("AST_function_node_index", index).WithUint("AST_function_node_numArgs", args)
}

func ident(t NodeType, name string) *archive.Message {
	return node(t).WithString("AST_identifier", name)
}

func cell(col, row int64, absolute bool) *archive.Message {
	return node(NodeCellReference).
		WithMessage("AST_column", archive.New(schema.ASTColumn).WithInt("column", col).WithBool("absolute", absolute)).
		WithMessage("AST_row", archive.New(schema.ASTRow).WithInt("row", row).WithBool("absolute", absolute))
}

func crossTable(n *archive.Message, key archive.UUID) *archive.Message {
	return n.WithMessage("AST_cross_table_reference_extra_info", archive.New(schema.ASTCrossTable).WithUUID("table_id", key))
}

func tractRange(begin int64, end ...int64) *archive.Message {
	m := archive.New(schema.ASTTractRange).WithInt("range_begin", begin)
	if len(end) > 0 {
		m = m.WithInt("range_end", end[0])
	}
	return m
}

type tract struct {
	relRow, relCol, absRow, absCol []*archive.Message
	sticky                         bool
}

func (tr tract) node() *archive.Message {
	t := archive.New(schema.ASTColonTract).
		WithMessages("relative_row", tr.relRow).
		WithMessages("relative_column", tr.relCol).
		WithMessages("absolute_row", tr.absRow).
		WithMessages("absolute_column", tr.absCol)
	n := node(NodeColonTract).WithMessage("AST_colon_tract", t)
	if tr.sticky {
		n = n.WithMessage("AST_sticky_bits", archive.New(schema.ASTStickyBits).
			WithBool("begin_row_is_absolute", true).
			WithBool("begin_column_is_absolute", true).
			WithBool("end_row_is_absolute", true).
			WithBool("end_column_is_absolute", true))
	}
	return n
}

func uidCoord(col, row archive.UUID) *archive.Message {
	m := archive.New(schema.ASTUIDCoord)
	if !col.IsZero() {
		m = m.WithUUID("column_uid", col)
	}
	if !row.IsZero() {
		m = m.WithUUID("row_uid", row)
	}
	return m
}

func uidRef(table archive.UUID, begin, end *archive.Message) *archive.Message {
	u := archive.New(schema.ASTUIDReference).WithUUID("table_id", table).WithMessage("begin", begin)
	if end != nil {
		u = u.WithMessage("end", end)
	}
	return node(NodeUIDReference).WithMessage("AST_uid_reference", u)
}

func formulaOf(nodes ...*archive.Message) *archive.Message {
	return archive.New(schema.Formula).
		WithMessage("AST_node_array", archive.New(schema.ASTNodeArray).WithMessages("AST_node", nodes))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []*archive.Message
		expected string
		warnings int
	}{
		{"precedence", []*archive.Message{num(1), num(2), num(3), node(NodeMultiplication), node(NodeAddition)}, "1+2×3", 0},
		{"grouping", []*archive.Message{num(1), num(2), node(NodeAddition), num(3), node(NodeMultiplication)}, "(1+2)×3", 0},
		{"left associative", []*archive.Message{num(1), num(2), node(NodeSubtraction), num(3), node(NodeSubtraction)}, "1-2-3", 0},
		{"right operand grouped", []*archive.Message{num(1), num(2), num(3), node(NodeSubtraction), node(NodeSubtraction)}, "1-(2-3)", 0},
		{"negation", []*archive.Message{num(1), num(2), node(NodeAddition), node(NodeNegation)}, "-(1+2)", 0},
		{"plus sign", []*archive.Message{num(4), node(NodePlusSign)}, "+4", 0},
		{"percent", []*archive.Message{num(50), node(NodePercent)}, "50%", 0},
		{"division and power", []*archive.Message{num(8), num(2), num(2), node(NodePower), node(NodeDivision)}, "8÷2^2", 0},
		{"comparison over concatenation", []*archive.Message{str("a"), str("b"), node(NodeConcatenation), str("ab"), node(NodeEqualTo)}, `"a"&"b"="ab"`, 0},
		{"comparisons", []*archive.Message{num(1), num(2), node(NodeNotEqualTo)}, "1≠2", 0},
		{"greater or equal", []*archive.Message{num(1), num(2), node(NodeGreaterThanOrEqual)}, "1≥2", 0},
		{"less or equal", []*archive.Message{num(1), num(2), node(NodeLessThanOrEqual)}, "1≤2", 0},
		{"string quotes doubled", []*archive.Message{str(`say "hi"`)}, `"say ""hi"""`, 0},
		{"boolean", []*archive.Message{boolean(true)}, "TRUE", 0},
		{"date", []*archive.Message{node(NodeDate).WithFloat64("AST_date_node_dateNum", 31*86400)}, "DATE(2001,2,1)", 0},
		{"duration", []*archive.Message{node(NodeDuration).WithFloat64("AST_duration_node_seconds", 90061)}, "DURATION(0,1,1,1,1)", 0},
		{"decimal integer", []*archive.Message{integer(42)}, "42", 0},
		{"float", []*archive.Message{float(0.5)}, "0.5", 0},
		{"integral float", []*archive.Message{float(1)}, "1.0", 0},
		{"small float", []*archive.Message{float(1.5e-5)}, "0.000015", 0},
		{"large float", []*archive.Message{float(1e20)}, "100000000000000000000", 0},
		{"function", []*archive.Message{cell(-2, -3, false), cell(-1, -2, false), node(NodeColon), call(168, 1)}, "SUM(A1:B2)", 0},
		{"empty argument", []*archive.Message{boolean(true), node(NodeEmptyArgument), num(1), call(62, 3)}, "IF(TRUE,,1)", 0},
		{"unknown function", []*archive.Message{call(9999, 0)}, "UNDEFINED!()", 1},
		{"short stack", []*archive.Message{num(1), call(1, 2)}, "ABS(1)", 1},
		{"array", []*archive.Message{num(1), num(2), num(3), num(4), node(NodeArray).WithUint("AST_array_node_numCol", 2).WithUint("AST_array_node_numRow", 2)}, "{1,2;3,4}", 0},
		{"flat array", []*archive.Message{num(1), num(2), node(NodeArray).WithUint("AST_array_node_numCol", 2).WithUint("AST_array_node_numRow", 1)}, "{1,2}", 0},
		{"list", []*archive.Message{num(1), num(2), node(NodeList).WithUint("AST_list_node_numArgs", 2)}, "(1,2)", 0},
		{"absolute cell", []*archive.Message{cell(0, 0, true)}, "$A$1", 0},
		{"relative cell", []*archive.Message{cell(0, 0, false)}, "C4", 0},
		{"cell before the sheet", []*archive.Message{cell(-5, 0, false)}, "#REF!", 1},
		{"column only", []*archive.Message{node(NodeCellReference).WithMessage("AST_column", archive.New(schema.ASTColumn).WithInt("column", 1).WithBool("absolute", true))}, "$B", 0},
		{"row only", []*archive.Message{node(NodeCellReference).WithMessage("AST_row", archive.New(schema.ASTRow).WithInt("row", 0))}, "4:4", 0},
		{"same sheet table", []*archive.Message{crossTable(cell(1, 1, true), peerKey)}, "Table 2::$B$2", 0},
		{"cross table range", []*archive.Message{crossTable(cell(0, 0, true), peerKey), crossTable(cell(1, 1, true), peerKey), node(NodeColon)}, "Table 2::$A$1:$B$2", 0},
		{"other sheet duplicate name", []*archive.Message{crossTable(cell(0, 0, true), farKey)}, "Sheet 2::Table 1::$A$1", 0},
		{"other sheet unique name", []*archive.Message{crossTable(cell(0, 0, true), uniqueKey)}, "Totals::$A$1", 0},
		{"unknown table", []*archive.Message{crossTable(cell(0, 0, true), archive.UUID{Upper: 9})}, "#REF!", 1},
		{"own table named", []*archive.Message{crossTable(cell(0, 0, true), hostKey)}, "$A$1", 0},
		{"whole column", []*archive.Message{tract{relCol: []*archive.Message{tractRange(0)}, absRow: []*archive.Message{tractRange(unboundedRow)}}.node()}, "C", 0},
		{"column span", []*archive.Message{tract{relCol: []*archive.Message{tractRange(-2, -1)}, absRow: []*archive.Message{tractRange(unboundedRow)}}.node()}, "A:B", 0},
		{"row span", []*archive.Message{tract{relRow: []*archive.Message{tractRange(0, 2)}, absCol: []*archive.Message{tractRange(unboundedColumn)}}.node()}, "4:6", 0},
		{"open column end", []*archive.Message{tract{absCol: []*archive.Message{tractRange(1, unboundedColumn)}, absRow: []*archive.Message{tractRange(unboundedRow)}}.node()}, "B", 0},
		{"open row end", []*archive.Message{tract{absRow: []*archive.Message{tractRange(2, unboundedRow)}, absCol: []*archive.Message{tractRange(unboundedColumn)}}.node()}, "3:3", 0},
		{"open cell range end", []*archive.Message{tract{absRow: []*archive.Message{tractRange(0, unboundedRow)}, absCol: []*archive.Message{tractRange(0, 1)}}.node()}, "A1", 0},
		{"open column begin", []*archive.Message{tract{absCol: []*archive.Message{tractRange(unboundedColumn, 1)}, absRow: []*archive.Message{tractRange(0, 1)}}.node()}, "1:2", 0},
		{"open begin on both axes", []*archive.Message{crossTable(tract{absRow: []*archive.Message{tractRange(unboundedRow, 3)}, absCol: []*archive.Message{tractRange(unboundedColumn, 2)}}.node(), peerKey)}, "Table 2", 0},
		{"whole table", []*archive.Message{crossTable(tract{absRow: []*archive.Message{tractRange(unboundedRow)}, absCol: []*archive.Message{tractRange(unboundedColumn)}}.node(), peerKey)}, "Table 2", 0},
		{"sticky rectangle", []*archive.Message{tract{absRow: []*archive.Message{tractRange(0, 1)}, absCol: []*archive.Message{tractRange(0, 1)}, sticky: true}.node()}, "$A$1:$B$2", 0},
		{"relative rectangle", []*archive.Message{tract{relRow: []*archive.Message{tractRange(-3, -2)}, relCol: []*archive.Message{tractRange(-2, 0)}}.node()}, "A1:C2", 0},
		{"uid cell", []*archive.Message{uidRef(hostKey, uidCoord(col1, row0), nil)}, "B1", 0},
		{"uid range", []*archive.Message{uidRef(hostKey, uidCoord(col0, row0), uidCoord(col1, row1))}, "A1:B2", 0},
		{"uid rows", []*archive.Message{uidRef(hostKey, uidCoord(archive.UUID{}, row0), uidCoord(archive.UUID{}, row1))}, "1:2", 0},
		{"uid removed row", []*archive.Message{uidRef(hostKey, uidCoord(col0, archive.UUID{Upper: 7}), nil)}, "#REF!", 0},
		{"reference error", []*archive.Message{node(NodeReferenceErrorWithUIDs)}, "#REF!", 0},
		{"let", []*archive.Message{num(1), ident(NodeVariable, "x"), num(1), node(NodeAddition), ident(NodeLet, "x")}, "LET(x,1,x+1)", 0},
		{"lambda", []*archive.Message{ident(NodeVariable, "x"), ident(NodeVariable, "x"), num(2), node(NodeMultiplication), node(NodeLambda).WithUint("AST_lambda_node_numArgs", 1)}, "LAMBDA(x,x×2)", 0},
		{"thunk markers", []*archive.Message{node(NodeThunk), num(1), node(NodeEndThunk), node(NodeAppendWhitespace)}, "1", 0},
		{"leftover values", []*archive.Message{num(1), num(2)}, "21", 1},
		{"unrendered node", []*archive.Message{num(1), node(NodeType(99))}, "1", 1},
	}

	tr := New(testTables(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.Translate(formulaOf(tt.nodes...), testHost)
			if err != nil {
				t.Fatalf("Translate failed: %v", err)
			}
			if got.Text != tt.expected {
				t.Errorf("Translate() = %q, expected %q", got.Text, tt.expected)
			}
			if len(got.Warnings) != tt.warnings {
				t.Errorf("Translate() warnings = %q, expected %d", got.Warnings, tt.warnings)
			}
		})
	}
}

func TestTranslateMalformed(t *testing.T) {
	tr := New(testTables(), nil)
	tests := [][]*archive.Message{
		{node(NodeAddition)},
		{num(1), node(NodeColon)},
		{node(NodeNegation)},
		{num(1), node(NodeArray).WithUint("AST_array_node_numCol", 2)},
		{node(NodeLet)},
	}
	for i, nodes := range tests {
		_, err := tr.Translate(formulaOf(nodes...), testHost)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("case %d: Translate() error = %v, expected ErrMalformed", i, err)
		}
	}
}

func TestTranslateWarningNamesHost(t *testing.T) {
	got, err := New(testTables(), nil).Translate(formulaOf(call(9999, 0)), testHost)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	expected := "Table 1@C4: function ID 9999 is unsupported"
	if len(got.Warnings) != 1 || got.Warnings[0] != expected {
		t.Errorf("Warnings = %q, expected [%q]", got.Warnings, expected)
	}
}

func TestFunctionNames(t *testing.T) {
	custom := FunctionMap{200: "XLOOKUP", 1: "MYABS"}
	names := Chain(custom, DefaultFunctions)
	tests := []struct {
		index    uint32
		expected string
		ok       bool
	}{
		{1, "MYABS", true},
		{168, "SUM", true},
		{200, "XLOOKUP", true},
		{500, "", false},
	}
	for _, tt := range tests {
		got, ok := names.NameFor(tt.index)
		if got != tt.expected || ok != tt.ok {
			t.Errorf("NameFor(%d) = %q, %v, expected %q, %v", tt.index, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestEncodeUnsupported(t *testing.T) {
	_, err := New(testTables(), nil).Encode("=A1+1", testHost)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("Encode() error = %v, expected ErrUnsupported", err)
	}
}

func TestNodeTypeString(t *testing.T) {
	if got := NodeColonTract.String(); got != "COLON_TRACT_NODE" {
		t.Errorf("NodeColonTract.String() = %q", got)
	}
	if got := NodeType(99).String(); got != "NODE_99" {
		t.Errorf("NodeType(99).String() = %q", got)
	}
}
