package formula

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
)

var (
	// ErrUnsupported is returned for formula operations the translator
	// does not implement, such as writing formulas.
	ErrUnsupported = errors.New("formula: unsupported")
	// ErrMalformed is returned when a node array cannot be evaluated.
	ErrMalformed = errors.New("formula: malformed node array")
)

// integerDecimalHigh is the high word of a decimal128 number node holding
// an integer in its low word.
const integerDecimalHigh = 0x3040000000000000

var epoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Result is a translated formula.
type Result struct {
	Text     string
	Warnings []string
}

// Translator turns formula archives into formula text.
type Translator struct {
	tables    Resolver
	functions FunctionNames
}

// New returns a Translator resolving tables through r. A nil functions
// uses DefaultFunctions.
func New(r Resolver, functions FunctionNames) *Translator {
	if functions == nil {
		functions = DefaultFunctions
	}
	return &Translator{tables: r, functions: functions}
}

// Encode converts formula text into a node array. Writing formulas is not
// supported.
func (t *Translator) Encode(text string, host Host) (*archive.Message, error) {
	return nil, fmt.Errorf("%w: encoding formula %q", ErrUnsupported, text)
}

type state struct {
	*Translator
	host      Host
	hostTable Table
	stack     []*expr
	warnings  []string
}

func (s *state) push(e *expr) {
	s.stack = append(s.stack, e)
}

// popN pops n operands and returns them in evaluation order.
func (s *state) popN(n int) ([]*expr, bool) {
	if n > len(s.stack) {
		return nil, false
	}
	out := make([]*expr, n)
	copy(out, s.stack[len(s.stack)-n:])
	s.stack = s.stack[:len(s.stack)-n]
	return out, true
}

// Translate renders the formula stored in f for the cell host.
func (t *Translator) Translate(f *archive.Message, host Host) (Result, error) {
	s := &state{Translator: t, host: host}
	if ht, ok := t.tables.Table(host.Table); ok {
		s.hostTable = ht
	} else {
		s.hostTable = Table{Key: host.Table}
	}

	for i, n := range f.Message("AST_node_array").Messages("AST_node") {
		if err := s.eval(n); err != nil {
			return Result{}, fmt.Errorf("node %d (%s): %w", i, NodeType(n.Uint("AST_node_type")), err)
		}
	}

	var text string
	switch len(s.stack) {
	case 0:
	case 1:
		text = s.stack[0].String()
	default:
		s.warnf("%d values left after evaluation", len(s.stack))
		var b strings.Builder
		for i := len(s.stack) - 1; i >= 0; i-- {
			b.WriteString(s.stack[i].String())
		}
		text = b.String()
	}
	return Result{Text: text, Warnings: s.warnings}, nil
}

var binaryOps = map[NodeType]string{
	NodeAddition:           "+",
	NodeSubtraction:        "-",
	NodeMultiplication:     "×",
	NodeDivision:           "÷",
	NodePower:              "^",
	NodeConcatenation:      "&",
	NodeGreaterThan:        ">",
	NodeGreaterThanOrEqual: "≥",
	NodeLessThan:           "<",
	NodeLessThanOrEqual:    "≤",
	NodeEqualTo:            "=",
	NodeNotEqualTo:         "≠",
}

func (s *state) eval(n *archive.Message) error {
	typ := NodeType(n.Uint("AST_node_type"))
	if op, ok := binaryOps[typ]; ok {
		args, ok := s.popN(2)
		if !ok {
			return ErrMalformed
		}
		s.push(&expr{kind: exprBinary, op: op, args: args})
		return nil
	}

	switch typ {
	case NodeNegation, NodePlusSign:
		args, ok := s.popN(1)
		if !ok {
			return ErrMalformed
		}
		op := "-"
		if typ == NodePlusSign {
			op = "+"
		}
		s.push(&expr{kind: exprPrefix, op: op, args: args})
	case NodePercent:
		args, ok := s.popN(1)
		if !ok {
			return ErrMalformed
		}
		s.push(&expr{kind: exprPostfix, op: "%", args: args})

	case NodeNumber:
		s.push(atom(number(n)))
	case NodeBoolean, NodeToken:
		s.push(atom(strings.ToUpper(strconv.FormatBool(n.Bool("AST_boolean_node_boolean")))))
	case NodeString:
		s.push(atom(`"` + strings.ReplaceAll(n.String("AST_string_node_string"), `"`, `""`) + `"`))
	case NodeDate:
		d := epoch.Add(time.Duration(n.Float64("AST_date_node_dateNum") * float64(time.Second)))
		s.push(atom(fmt.Sprintf("DATE(%d,%d,%d)", d.Year(), int(d.Month()), d.Day())))
	case NodeDuration:
		s.push(atom(duration(n.Float64("AST_duration_node_seconds"))))
	case NodeEmptyArgument:
		s.push(atom(""))

	case NodeFunction, NodeUnknownFunction:
		s.function(n)
	case NodeList:
		args, ok := s.popN(int(n.Uint("AST_list_node_numArgs")))
		if !ok {
			return ErrMalformed
		}
		s.push(atom("(" + join(args, ",") + ")"))
	case NodeArray:
		return s.array(n)

	case NodeColon, NodeColonWithUIDs:
		args, ok := s.popN(2)
		if !ok {
			return ErrMalformed
		}
		s.push(rangeOf(args[0], args[1]))
	case NodeCellReference, NodeLocalCellReference, NodeCrossTableCellReference, NodeColonTract:
		s.push(s.cellReference(n))
	case NodeUIDReference:
		s.push(s.uidReference(n))
	case NodeReferenceError, NodeReferenceErrorWithUIDs:
		s.push(atom("#REF!"))

	case NodeVariable:
		s.push(atom(n.String("AST_identifier")))
	case NodeLet:
		args, ok := s.popN(2)
		if !ok {
			return ErrMalformed
		}
		s.push(atom(fmt.Sprintf("LET(%s,%s,%s)", n.String("AST_identifier"), args[0], args[1])))
	case NodeLambda:
		params := int(n.Uint("AST_lambda_node_numArgs"))
		args, ok := s.popN(params + 1)
		if !ok {
			return ErrMalformed
		}
		s.push(atom("LAMBDA(" + join(args, ",") + ")"))

	case NodeThunk, NodeEndThunk, NodeAppendWhitespace, NodePrependWhitespace,
		NodeBeginEmbeddedNodeArray, NodeEndEmbeddedNodeArray:
	default:
		s.warnf("node type %s is not rendered", typ)
	}
	return nil
}

// function renders a function call. A call with more arguments than the
// stack holds uses what is there.
func (s *state) function(n *archive.Message) {
	index := uint32(n.Uint("AST_function_node_index"))
	name, ok := s.functions.NameFor(index)
	if !ok {
		s.warnf("function ID %d is unsupported", index)
		name = "UNDEFINED!"
	}
	num := int(n.Uint("AST_function_node_numArgs"))
	if num > len(s.stack) {
		s.warnf("stack too small for %s", name)
		num = len(s.stack)
	}
	args, _ := s.popN(num)
	s.push(atom(name + "(" + join(args, ",") + ")"))
}

// array renders an array constant, rows separated by semicolons.
func (s *state) array(n *archive.Message) error {
	cols := int(n.Uint("AST_array_node_numCol"))
	rows := max(int(n.Uint("AST_array_node_numRow")), 1)
	args, ok := s.popN(cols * rows)
	if !ok {
		return ErrMalformed
	}
	lines := make([]string, rows)
	for r := range rows {
		lines[r] = join(args[r*cols:(r+1)*cols], ",")
	}
	s.push(atom("{" + strings.Join(lines, ";") + "}"))
	return nil
}

// number renders a number node. Integers stored as decimal128 print
// without a fraction. Other values print in the shortest form without an
// exponent, keeping a ".0" on integral values below 1e16.
func number(n *archive.Message) string {
	if n.Uint("AST_number_node_decimal_high") == integerDecimalHigh {
		return strconv.FormatUint(n.Uint("AST_number_node_decimal_low"), 10)
	}
	v := n.Float64("AST_number_node_number")
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.Abs(v) < 1e16 && !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// duration renders a duration literal by its weeks, days, hours, minutes
// and seconds.
func duration(seconds float64) string {
	total := int64(math.Round(seconds))
	neg := total < 0
	if neg {
		total = -total
	}
	w := total / (7 * 86400)
	total %= 7 * 86400
	d := total / 86400
	total %= 86400
	h := total / 3600
	total %= 3600
	m := total / 60
	sec := total % 60
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%sDURATION(%d,%d,%d,%d,%d)", sign, w, d, h, m, sec)
}
