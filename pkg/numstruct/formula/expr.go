package formula

import "strings"

// Operator precedence, lowest first.
const (
	precCompare = iota + 1
	precConcat
	precAdd
	precMul
	precPower
	precUnary
	precPercent
	precRange
	precAtom
)

type exprKind int

const (
	exprAtom exprKind = iota
	exprBinary
	exprPrefix
	exprPostfix
	exprRef
)

// expr is one node of the reconstructed expression tree.
type expr struct {
	kind exprKind
	op   string
	text string
	args []*expr

	// References keep the table prefix apart from the body so that a
	// range over two references of the same table names it once.
	prefix string
}

func atom(s string) *expr {
	return &expr{kind: exprAtom, text: s}
}

func ref(prefix, body string) *expr {
	return &expr{kind: exprRef, prefix: prefix, text: body}
}

var binaryPrec = map[string]int{
	"=": precCompare, "≠": precCompare, ">": precCompare, "<": precCompare, "≥": precCompare, "≤": precCompare,
	"&": precConcat,
	"+": precAdd, "-": precAdd,
	"×": precMul, "÷": precMul,
	"^": precPower,
	":": precRange,
}

func (e *expr) prec() int {
	switch e.kind {
	case exprBinary:
		return binaryPrec[e.op]
	case exprPrefix:
		return precUnary
	case exprPostfix:
		return precPercent
	}
	return precAtom
}

func (e *expr) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *expr) write(b *strings.Builder) {
	switch e.kind {
	case exprAtom:
		b.WriteString(e.text)
	case exprRef:
		b.WriteString(e.prefix)
		b.WriteString(e.text)
	case exprBinary:
		p := e.prec()
		writeOperand(b, e.args[0], e.args[0].prec() < p)
		b.WriteString(e.op)
		writeOperand(b, e.args[1], e.args[1].prec() <= p)
	case exprPrefix:
		b.WriteString(e.op)
		writeOperand(b, e.args[0], e.args[0].prec() < precUnary)
	case exprPostfix:
		writeOperand(b, e.args[0], e.args[0].prec() < precPercent)
		b.WriteString(e.op)
	}
}

func writeOperand(b *strings.Builder, e *expr, paren bool) {
	if paren {
		b.WriteByte('(')
	}
	e.write(b)
	if paren {
		b.WriteByte(')')
	}
}

// join writes items separated by sep.
func join(items []*expr, sep string) string {
	parts := make([]string, len(items))
	for i, e := range items {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

// rangeOf joins two references into a range. References into the same
// table share one prefix.
func rangeOf(begin, end *expr) *expr {
	if begin.kind == exprRef && end.kind == exprRef && begin.prefix == end.prefix {
		return ref(begin.prefix, begin.text+":"+end.text)
	}
	return &expr{kind: exprBinary, op: ":", args: []*expr{begin, end}}
}
