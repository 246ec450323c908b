package archive

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Decode parses b as a message of type t. The returned message retains
// sub-slices of b, which must not be modified afterwards.
func Decode(t *MessageType, b []byte) (*Message, error) {
	m := &Message{typ: t}
	for len(b) > 0 {
		num, wt, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%s: tag: %w", t, protowire.ParseError(n))
		}
		b = b[n:]
		vlen := protowire.ConsumeFieldValue(num, wt, b)
		if vlen < 0 {
			return nil, fmt.Errorf("%s: field %d: %w", t, num, protowire.ParseError(vlen))
		}
		v, err := decodeValue(t.FieldByNum(num), num, wt, b[:vlen])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t, t.FieldByNum(num).Name, err)
		}
		m.fields = append(m.fields, v)
		b = b[vlen:]
	}
	return m, nil
}

func decodeValue(f *Field, num protowire.Number, wt protowire.Type, raw []byte) (value, error) {
	v := value{num: num, wire: wt, raw: raw}
	if f == nil {
		return v, nil
	}
	switch wt {
	case protowire.VarintType:
		if f.Kind.wireType() != wt {
			return v, nil
		}
		v.scalar, _ = protowire.ConsumeVarint(raw)
	case protowire.Fixed32Type:
		if f.Kind.wireType() != wt {
			return v, nil
		}
		x, _ := protowire.ConsumeFixed32(raw)
		v.scalar = uint64(x)
	case protowire.Fixed64Type:
		if f.Kind.wireType() != wt {
			return v, nil
		}
		v.scalar, _ = protowire.ConsumeFixed64(raw)
	case protowire.BytesType:
		data, _ := protowire.ConsumeBytes(raw)
		switch {
		case f.Kind == KindMessage:
			sub, err := Decode(f.Message, data)
			if err != nil {
				return v, err
			}
			v.msg = sub
		case f.Kind == KindString || f.Kind == KindBytes:
			v.bytes = data
		case f.Repeated && f.Kind.scalar():
			list, err := unpack(f.Kind.wireType(), data)
			if err != nil {
				return v, err
			}
			v.list = list
			v.packed = true
		default:
			return v, nil
		}
	default:
		return v, nil
	}
	v.known = true
	return v, nil
}

func unpack(wt protowire.Type, b []byte) ([]uint64, error) {
	var out []uint64
	for len(b) > 0 {
		var (
			x uint64
			n int
		)
		switch wt {
		case protowire.VarintType:
			x, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var y uint32
			y, n = protowire.ConsumeFixed32(b)
			x = uint64(y)
		default:
			x, n = protowire.ConsumeFixed64(b)
		}
		if n < 0 {
			return nil, fmt.Errorf("packed: %w", protowire.ParseError(n))
		}
		out = append(out, x)
		b = b[n:]
	}
	return out, nil
}

// Encode serializes m. Values carried over from Decode are written with
// their stored bytes, so an unmodified message re-encodes identically.
func (m *Message) Encode() []byte {
	return m.AppendTo(nil)
}

// AppendTo appends the encoding of m to b.
func (m *Message) AppendTo(b []byte) []byte {
	if m == nil {
		return b
	}
	for _, v := range m.fields {
		b = protowire.AppendTag(b, v.num, v.wire)
		if v.raw != nil {
			b = append(b, v.raw...)
			continue
		}
		switch {
		case v.wire == protowire.VarintType:
			b = protowire.AppendVarint(b, v.scalar)
		case v.wire == protowire.Fixed32Type:
			b = protowire.AppendFixed32(b, uint32(v.scalar))
		case v.wire == protowire.Fixed64Type:
			b = protowire.AppendFixed64(b, v.scalar)
		case v.msg != nil:
			b = protowire.AppendBytes(b, v.msg.Encode())
		case v.packed:
			b = protowire.AppendBytes(b, v.packList(m.typ.FieldByNum(v.num)))
		default:
			b = protowire.AppendBytes(b, v.bytes)
		}
	}
	return b
}

func (v value) packList(f *Field) []byte {
	var b []byte
	for _, x := range v.list {
		switch f.Kind.wireType() {
		case protowire.VarintType:
			b = protowire.AppendVarint(b, x)
		case protowire.Fixed32Type:
			b = protowire.AppendFixed32(b, uint32(x))
		default:
			b = protowire.AppendFixed64(b, x)
		}
	}
	return b
}

// Size returns the encoded length of m.
func (m *Message) Size() int {
	return len(m.Encode())
}
