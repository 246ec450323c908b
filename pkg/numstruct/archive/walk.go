package archive

import (
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// Edge is a record reference found inside a message.
type Edge struct {
	Path     string
	Target   Identifier
	Repeated bool
}

// UUIDField is a UUID value found inside a message together with its role.
type UUIDField struct {
	Path  string
	Value UUID
	Role  Role
}

func elemPath(prefix string, f *Field, i int) string {
	p := f.Name
	if prefix != "" {
		p = prefix + "." + f.Name
	}
	if f.Repeated {
		p += "[" + strconv.Itoa(i) + "]"
	}
	return p
}

// walk calls fn for every known message-valued element below m in stored
// order. References and UUIDs are leaves.
func (m *Message) walk(prefix string, fn func(path string, f *Field, sub *Message)) {
	if m == nil {
		return
	}
	idx := make(map[protowire.Number]int)
	for _, v := range m.fields {
		if !v.known || v.msg == nil {
			continue
		}
		f := m.typ.FieldByNum(v.num)
		path := elemPath(prefix, f, idx[v.num])
		idx[v.num]++
		fn(path, f, v.msg)
		if !f.IsReference() && !f.IsUUID() {
			v.msg.walk(path, fn)
		}
	}
}

// References lists every record reference held anywhere in m.
func (m *Message) References() []Edge {
	var out []Edge
	m.walk("", func(path string, f *Field, sub *Message) {
		if f.IsReference() {
			out = append(out, Edge{Path: path, Target: Identifier(sub.Uint("identifier")), Repeated: f.Repeated})
		}
	})
	return out
}

// UUIDFields lists every UUID-valued field in m whose role is not RoleNone.
func (m *Message) UUIDFields() []UUIDField {
	var out []UUIDField
	m.walk("", func(path string, f *Field, sub *Message) {
		if f.IsUUID() && f.Role != RoleNone {
			out = append(out, UUIDField{Path: path, Value: UUIDValue(sub), Role: f.Role})
		}
	})
	return out
}

// MapReferences rewrites record references. fn returns the new target and
// whether to keep the reference; a dropped reference is removed from its
// field. The second result reports whether anything changed, and m itself
// is returned when nothing did.
func (m *Message) MapReferences(fn func(Edge) (Identifier, bool)) (*Message, bool) {
	return m.mapRefs("", fn)
}

func (m *Message) mapRefs(prefix string, fn func(Edge) (Identifier, bool)) (*Message, bool) {
	if m == nil {
		return nil, false
	}
	changed := false
	out := make([]value, 0, len(m.fields))
	idx := make(map[protowire.Number]int)
	for _, v := range m.fields {
		if !v.known || v.msg == nil {
			out = append(out, v)
			continue
		}
		f := m.typ.FieldByNum(v.num)
		path := elemPath(prefix, f, idx[v.num])
		idx[v.num]++
		switch {
		case f.IsReference():
			old := Identifier(v.msg.Uint("identifier"))
			id, keep := fn(Edge{Path: path, Target: old, Repeated: f.Repeated})
			if !keep {
				changed = true
				continue
			}
			if id != old {
				v = value{num: v.num, wire: protowire.BytesType, known: true, msg: v.msg.WithUint("identifier", uint64(id))}
				changed = true
			}
		case f.IsUUID():
		default:
			if sub, ch := v.msg.mapRefs(path, fn); ch {
				v = value{num: v.num, wire: protowire.BytesType, known: true, msg: sub}
				changed = true
			}
		}
		out = append(out, v)
	}
	if !changed {
		return m, false
	}
	return &Message{typ: m.typ, fields: out}, true
}
