package archive

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Message is a decoded protobuf message whose layout comes from a
// MessageType. Fields keep their stored order, and fields the type does
// not declare are carried as raw bytes so they re-encode unchanged.
//
// A Message is immutable. The With methods return a modified copy, and
// values obtained from getters never alias writable state. A nil *Message
// behaves as an empty message for every getter.
type Message struct {
	typ    *MessageType
	fields []value
}

type value struct {
	num    protowire.Number
	wire   protowire.Type
	known  bool
	scalar uint64
	bytes  []byte
	msg    *Message
	list   []uint64
	packed bool
	// raw is the stored encoding following the tag. It is only set for
	// decoded values and is reused verbatim when encoding.
	raw []byte
}

// New returns an empty message of type t.
func New(t *MessageType) *Message {
	return &Message{typ: t}
}

// Type returns the message type, or nil for a nil message.
func (m *Message) Type() *MessageType {
	if m == nil {
		return nil
	}
	return m.typ
}

// Len returns the number of stored field values, counting unknown ones.
func (m *Message) Len() int {
	if m == nil {
		return 0
	}
	return len(m.fields)
}

func (m *Message) field(name string) *Field {
	f := m.typ.Field(name)
	if f == nil {
		panic(fmt.Sprintf("archive: %s has no field %q", m.typ, name))
	}
	return f
}

// values returns the known stored values for field f.
func (m *Message) values(f *Field) []value {
	var out []value
	for _, v := range m.fields {
		if v.num == f.Num && v.known {
			out = append(out, v)
		}
	}
	return out
}

func (m *Message) last(name string) (*Field, value, bool) {
	if m == nil {
		return nil, value{}, false
	}
	f := m.field(name)
	vs := m.values(f)
	if len(vs) == 0 {
		return f, value{}, false
	}
	return f, vs[len(vs)-1], true
}

// Has reports whether the named field is present.
func (m *Message) Has(name string) bool {
	_, _, ok := m.last(name)
	return ok
}

// Count returns the number of elements stored for the named field.
func (m *Message) Count(name string) int {
	if m == nil {
		return 0
	}
	n := 0
	for _, v := range m.values(m.field(name)) {
		if v.packed {
			n += len(v.list)
		} else {
			n++
		}
	}
	return n
}

func (m *Message) Uint(name string) uint64 {
	_, v, _ := m.last(name)
	return v.scalar
}

func (m *Message) Int(name string) int64 {
	f, v, ok := m.last(name)
	if !ok {
		return 0
	}
	return scalarInt(f.Kind, v.scalar)
}

func (m *Message) Bool(name string) bool {
	_, v, _ := m.last(name)
	return v.scalar != 0
}

func (m *Message) Float64(name string) float64 {
	f, v, ok := m.last(name)
	if !ok {
		return 0
	}
	return scalarFloat(f.Kind, v.scalar)
}

func (m *Message) String(name string) string {
	_, v, _ := m.last(name)
	return string(v.bytes)
}

// Bytes returns a copy of the named bytes field.
func (m *Message) Bytes(name string) []byte {
	_, v, ok := m.last(name)
	if !ok {
		return nil
	}
	return append([]byte(nil), v.bytes...)
}

// Message returns the named sub-message, or nil if absent.
func (m *Message) Message(name string) *Message {
	_, v, _ := m.last(name)
	return v.msg
}

// Messages returns every element of a repeated message field.
func (m *Message) Messages(name string) []*Message {
	if m == nil {
		return nil
	}
	var out []*Message
	for _, v := range m.values(m.field(name)) {
		if v.msg != nil {
			out = append(out, v.msg)
		}
	}
	return out
}

// Uints returns every element of a repeated scalar field, packed or not.
func (m *Message) Uints(name string) []uint64 {
	if m == nil {
		return nil
	}
	var out []uint64
	for _, v := range m.values(m.field(name)) {
		if v.packed {
			out = append(out, v.list...)
		} else if v.msg == nil && v.wire != protowire.BytesType {
			out = append(out, v.scalar)
		}
	}
	return out
}

func (m *Message) Strings(name string) []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, v := range m.values(m.field(name)) {
		out = append(out, string(v.bytes))
	}
	return out
}

// Ref returns the identifier held by a reference field, or zero.
func (m *Message) Ref(name string) Identifier {
	return Identifier(m.Message(name).Uint("identifier"))
}

// Refs returns the identifiers of a repeated reference field.
func (m *Message) Refs(name string) []Identifier {
	var out []Identifier
	for _, r := range m.Messages(name) {
		out = append(out, Identifier(r.Uint("identifier")))
	}
	return out
}

// UUID returns the value of a UUID field.
func (m *Message) UUID(name string) (UUID, bool) {
	u := m.Message(name)
	if u == nil {
		return UUID{}, false
	}
	return UUIDValue(u), true
}

// UUIDs returns every element of a repeated UUID field.
func (m *Message) UUIDs(name string) []UUID {
	var out []UUID
	for _, u := range m.Messages(name) {
		out = append(out, UUIDValue(u))
	}
	return out
}

// UUIDValue reads a TSP.UUID message.
func UUIDValue(u *Message) UUID {
	return UUID{Lower: u.Uint("lower"), Upper: u.Uint("upper")}
}

// NewReference builds a reference message to id.
func NewReference(id Identifier) *Message {
	return New(ReferenceType).WithUint("identifier", uint64(id))
}

// NewUUIDMessage builds a TSP.UUID message holding u.
func NewUUIDMessage(u UUID) *Message {
	return New(UUIDType).WithUint("lower", u.Lower).WithUint("upper", u.Upper)
}

func scalarInt(k Kind, x uint64) int64 {
	switch k {
	case KindSint:
		return protowire.DecodeZigZag(x)
	case KindFixed32:
		return int64(int32(uint32(x)))
	default:
		return int64(x)
	}
}

func scalarFloat(k Kind, x uint64) float64 {
	switch k {
	case KindDouble:
		return math.Float64frombits(x)
	case KindFloat:
		return float64(math.Float32frombits(uint32(x)))
	case KindInt, KindSint, KindFixed32:
		return float64(scalarInt(k, x))
	default:
		return float64(x)
	}
}
