package archive

import (
	"encoding/hex"
	"math"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// Tree returns a plain value view of m for dumping: a map keyed by field
// name whose values are numbers, strings, nested maps or lists of those.
// References render as {"identifier": n}, UUIDs as their text form and
// undeclared fields as hex under "#<number>".
func (m *Message) Tree() map[string]any {
	out := make(map[string]any)
	if m == nil {
		return out
	}
	for _, v := range m.fields {
		f := m.typ.FieldByNum(v.num)
		if !v.known || f == nil {
			key := "#" + strconv.Itoa(int(v.num))
			out[key] = appendTree(out[key], hex.EncodeToString(rawPayload(v)), true)
			continue
		}
		if v.packed {
			for _, x := range v.list {
				out[f.Name] = appendTree(out[f.Name], scalarTree(f.Kind, x), true)
			}
			continue
		}
		out[f.Name] = appendTree(out[f.Name], valueTree(f, v), f.Repeated)
	}
	return out
}

func appendTree(prev, x any, repeated bool) any {
	if !repeated {
		return x
	}
	list, _ := prev.([]any)
	return append(list, x)
}

func valueTree(f *Field, v value) any {
	switch {
	case f.IsUUID():
		return UUIDValue(v.msg).String()
	case f.IsReference():
		return map[string]any{"identifier": v.msg.Uint("identifier")}
	case v.msg != nil:
		return v.msg.Tree()
	case f.Kind == KindString:
		return string(v.bytes)
	case f.Kind == KindBytes:
		return hex.EncodeToString(v.bytes)
	default:
		return scalarTree(f.Kind, v.scalar)
	}
}

func scalarTree(k Kind, x uint64) any {
	switch k {
	case KindBool:
		return x != 0
	case KindInt, KindSint:
		return scalarInt(k, x)
	case KindFixed32:
		return uint32(x)
	case KindFloat:
		return float64(math.Float32frombits(uint32(x)))
	case KindDouble:
		return math.Float64frombits(x)
	default:
		return x
	}
}

// rawPayload strips the length prefix from a stored length-delimited value.
func rawPayload(v value) []byte {
	if v.wire != protowire.BytesType {
		return v.raw
	}
	data, n := protowire.ConsumeBytes(v.raw)
	if n < 0 {
		return v.raw
	}
	return data
}
