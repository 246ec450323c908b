package archive

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// set returns a copy of m where every stored value of f is replaced by
// vals, placed at the position of the first old value.
func (m *Message) set(f *Field, vals []value) *Message {
	out := &Message{typ: m.typ, fields: make([]value, 0, len(m.fields)+len(vals))}
	placed := false
	for _, v := range m.fields {
		if v.num != f.Num {
			out.fields = append(out.fields, v)
			continue
		}
		if !placed {
			out.fields = append(out.fields, vals...)
			placed = true
		}
	}
	if !placed {
		out.fields = append(out.fields, vals...)
	}
	return out
}

func (m *Message) mustKind(name string, kinds ...Kind) *Field {
	if m == nil {
		panic("archive: mutation of nil message")
	}
	f := m.field(name)
	for _, k := range kinds {
		if f.Kind == k {
			return f
		}
	}
	panic(fmt.Sprintf("archive: %s.%s has kind %d", m.typ, name, f.Kind))
}

func scalarValue(f *Field, x uint64) value {
	return value{num: f.Num, wire: f.Kind.wireType(), known: true, scalar: x}
}

func (m *Message) scalars(f *Field, xs []uint64) *Message {
	if len(xs) == 0 {
		return m.set(f, nil)
	}
	if f.Packed {
		return m.set(f, []value{{num: f.Num, wire: protowire.BytesType, known: true, list: append([]uint64(nil), xs...), packed: true}})
	}
	vals := make([]value, len(xs))
	for i, x := range xs {
		vals[i] = scalarValue(f, x)
	}
	return m.set(f, vals)
}

// Without returns a copy of m with the named field cleared.
func (m *Message) Without(name string) *Message {
	return m.set(m.field(name), nil)
}

func (m *Message) WithUint(name string, x uint64) *Message {
	f := m.mustKind(name, KindUint, KindFixed32, KindFixed64)
	return m.set(f, []value{scalarValue(f, x)})
}

func (m *Message) WithInt(name string, x int64) *Message {
	f := m.mustKind(name, KindInt, KindSint, KindFixed32, KindFixed64)
	u := uint64(x)
	switch f.Kind {
	case KindSint:
		u = protowire.EncodeZigZag(x)
	case KindFixed32:
		u = uint64(uint32(int32(x)))
	}
	return m.set(f, []value{scalarValue(f, u)})
}

func (m *Message) WithBool(name string, b bool) *Message {
	f := m.mustKind(name, KindBool)
	return m.set(f, []value{scalarValue(f, protowire.EncodeBool(b))})
}

func (m *Message) WithFloat64(name string, x float64) *Message {
	f := m.mustKind(name, KindDouble, KindFloat)
	u := math.Float64bits(x)
	if f.Kind == KindFloat {
		u = uint64(math.Float32bits(float32(x)))
	}
	return m.set(f, []value{scalarValue(f, u)})
}

func (m *Message) WithString(name, s string) *Message {
	f := m.mustKind(name, KindString)
	return m.set(f, []value{{num: f.Num, wire: protowire.BytesType, known: true, bytes: []byte(s)}})
}

func (m *Message) WithStrings(name string, ss []string) *Message {
	f := m.mustKind(name, KindString)
	vals := make([]value, len(ss))
	for i, s := range ss {
		vals[i] = value{num: f.Num, wire: protowire.BytesType, known: true, bytes: []byte(s)}
	}
	return m.set(f, vals)
}

func (m *Message) WithBytes(name string, b []byte) *Message {
	f := m.mustKind(name, KindBytes)
	return m.set(f, []value{{num: f.Num, wire: protowire.BytesType, known: true, bytes: append([]byte(nil), b...)}})
}

// WithUints replaces a repeated scalar field.
func (m *Message) WithUints(name string, xs []uint64) *Message {
	f := m.mustKind(name, KindUint, KindInt, KindFixed32, KindFixed64, KindBool)
	return m.scalars(f, xs)
}

func (m *Message) WithMessage(name string, sub *Message) *Message {
	f := m.mustKind(name, KindMessage)
	if sub == nil {
		return m.set(f, nil)
	}
	return m.set(f, []value{{num: f.Num, wire: protowire.BytesType, known: true, msg: sub}})
}

func (m *Message) WithMessages(name string, subs []*Message) *Message {
	f := m.mustKind(name, KindMessage)
	vals := make([]value, 0, len(subs))
	for _, sub := range subs {
		vals = append(vals, value{num: f.Num, wire: protowire.BytesType, known: true, msg: sub})
	}
	return m.set(f, vals)
}

// AppendMessage adds one element to a repeated message field.
func (m *Message) AppendMessage(name string, sub *Message) *Message {
	return m.WithMessages(name, append(m.Messages(name), sub))
}

func (m *Message) WithRef(name string, id Identifier) *Message {
	return m.WithMessage(name, NewReference(id))
}

func (m *Message) WithRefs(name string, ids []Identifier) *Message {
	subs := make([]*Message, len(ids))
	for i, id := range ids {
		subs[i] = NewReference(id)
	}
	return m.WithMessages(name, subs)
}

func (m *Message) WithUUID(name string, u UUID) *Message {
	return m.WithMessage(name, NewUUIDMessage(u))
}

func (m *Message) WithUUIDs(name string, us []UUID) *Message {
	subs := make([]*Message, len(us))
	for i, u := range us {
		subs[i] = NewUUIDMessage(u)
	}
	return m.WithMessages(name, subs)
}
