package archive

import (
	"bytes"
	"encoding/hex"
	"sort"

	"github.com/zeebo/blake3"
	"google.golang.org/protobuf/encoding/protowire"
)

type elem struct {
	known  bool
	scalar bool
	x      uint64
	data   []byte
	msg    *Message
}

// elems groups stored values by field number, expanding packed lists.
func (m *Message) elems() map[protowire.Number][]elem {
	out := make(map[protowire.Number][]elem)
	if m == nil {
		return out
	}
	for _, v := range m.fields {
		switch {
		case !v.known:
			out[v.num] = append(out[v.num], elem{data: v.raw})
		case v.packed:
			for _, x := range v.list {
				out[v.num] = append(out[v.num], elem{known: true, scalar: true, x: x})
			}
		case v.msg != nil:
			out[v.num] = append(out[v.num], elem{known: true, msg: v.msg})
		case v.wire == protowire.BytesType:
			out[v.num] = append(out[v.num], elem{known: true, data: v.bytes})
		default:
			out[v.num] = append(out[v.num], elem{known: true, scalar: true, x: v.scalar})
		}
	}
	return out
}

// Equal reports whether a and b hold the same field values. Interleaving
// of different field numbers and packed versus unpacked form are ignored.
// A nil message equals an empty one.
func Equal(a, b *Message) bool {
	if a.Type() != nil && b.Type() != nil && a.Type() != b.Type() {
		return false
	}
	ga, gb := a.elems(), b.elems()
	if len(ga) != len(gb) {
		return false
	}
	for num, xs := range ga {
		ys, ok := gb[num]
		if !ok || len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !elemEqual(xs[i], ys[i]) {
				return false
			}
		}
	}
	return true
}

func elemEqual(x, y elem) bool {
	switch {
	case x.known != y.known:
		return false
	case x.msg != nil || y.msg != nil:
		return x.msg != nil && y.msg != nil && Equal(x.msg, y.msg)
	case x.scalar != y.scalar:
		return false
	case x.scalar:
		return x.x == y.x
	default:
		return bytes.Equal(x.data, y.data)
	}
}

// Digest is a content hash of a message.
type Digest [32]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// DigestOf hashes the canonical form of m: fields ordered by number and
// packed lists expanded, so that Equal messages share a digest.
func DigestOf(m *Message) Digest {
	h := blake3.New()
	m.digestTo(h)
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func (m *Message) digestTo(h *blake3.Hasher) {
	groups := m.elems()
	nums := make([]protowire.Number, 0, len(groups))
	for num := range groups {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	var buf []byte
	for _, num := range nums {
		for _, e := range groups[num] {
			buf = protowire.AppendVarint(buf[:0], uint64(num))
			switch {
			case !e.known:
				buf = append(buf, 'u')
				buf = protowire.AppendBytes(buf, e.data)
			case e.msg != nil:
				buf = append(buf, 'm')
				h.Write(buf)
				e.msg.digestTo(h)
				h.Write([]byte{'e'})
				continue
			case e.scalar:
				buf = append(buf, 's')
				buf = protowire.AppendVarint(buf, e.x)
			default:
				buf = append(buf, 'b')
				buf = protowire.AppendBytes(buf, e.data)
			}
			h.Write(buf)
		}
	}
}
