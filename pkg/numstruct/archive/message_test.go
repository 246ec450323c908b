package archive

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	testChild = NewMessageType("Child",
		String(1, "name"),
		Ref(2, "target"),
	)
	testParent = NewMessageType("Parent",
		Uint(1, "count"),
		Repeated(Msg(2, "children", testChild)),
		Packed(Uint(3, "offsets")),
		Repeated(Ref(4, "links")),
		Double(5, "value"),
		Sint(6, "delta"),
		UUIDOf(7, "owner", RoleOwnerUID),
		Bool(8, "flag"),
	)
)

// rawParent hand-encodes a Parent with an undeclared field 99 in the middle.
func rawParent() []byte {
	child := protowire.AppendTag(nil, 1, protowire.BytesType)
	child = protowire.AppendString(child, "a")
	ref := protowire.AppendTag(nil, 1, protowire.VarintType)
	ref = protowire.AppendVarint(ref, 42)
	child = protowire.AppendTag(child, 2, protowire.BytesType)
	child = protowire.AppendBytes(child, ref)

	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "mystery")
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, child)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{1, 2, 3})
	return b
}

func TestDecodeKeepsUnknownFields(t *testing.T) {
	raw := rawParent()
	m, err := Decode(testParent, raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := m.Uint("count"); got != 7 {
		t.Errorf("count = %d, expected 7", got)
	}
	if got := m.Uints("offsets"); len(got) != 3 || got[2] != 3 {
		t.Errorf("offsets = %v, expected [1 2 3]", got)
	}
	children := m.Messages("children")
	if len(children) != 1 || children[0].String("name") != "a" || children[0].Ref("target") != 42 {
		t.Fatalf("children decoded incorrectly: %v", children)
	}
	if !bytes.Equal(m.Encode(), raw) {
		t.Errorf("re-encoding changed bytes:\n got %x\nwant %x", m.Encode(), raw)
	}

	edited := m.WithUint("count", 8)
	out, err := Decode(testParent, edited.Encode())
	if err != nil {
		t.Fatalf("Decode of edited message failed: %v", err)
	}
	if !bytes.Contains(out.Encode(), []byte("mystery")) {
		t.Error("unknown field lost after edit")
	}
	if out.Uint("count") != 8 {
		t.Errorf("edited count = %d, expected 8", out.Uint("count"))
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	m := New(testParent).WithUint("count", 1).WithRefs("links", []Identifier{3, 4})
	n := m.WithUint("count", 2).WithRefs("links", []Identifier{5})

	if m.Uint("count") != 1 {
		t.Errorf("original count changed to %d", m.Uint("count"))
	}
	if got := m.Refs("links"); len(got) != 2 {
		t.Errorf("original links changed to %v", got)
	}
	if got := n.Refs("links"); len(got) != 1 || got[0] != 5 {
		t.Errorf("new links = %v, expected [#5]", got)
	}
}

func TestScalarKinds(t *testing.T) {
	u := UUID{Lower: 10, Upper: 20}
	m := New(testParent).
		WithFloat64("value", -2.5).
		WithInt("delta", -9).
		WithUUID("owner", u).
		WithBool("flag", true)
	out, err := Decode(testParent, m.Encode())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got := out.Float64("value"); got != -2.5 {
		t.Errorf("value = %v, expected -2.5", got)
	}
	if got := out.Int("delta"); got != -9 {
		t.Errorf("delta = %d, expected -9", got)
	}
	if got, ok := out.UUID("owner"); !ok || got != u {
		t.Errorf("owner = %v, %v, expected %v", got, ok, u)
	}
	if !out.Bool("flag") {
		t.Error("flag = false, expected true")
	}
}

func TestEqualIgnoresPacking(t *testing.T) {
	packed := New(testParent).WithUints("offsets", []uint64{5, 6})

	var b []byte
	for _, x := range []uint64{5, 6} {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, x)
	}
	unpacked, err := Decode(testParent, b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !Equal(packed, unpacked) {
		t.Error("packed and unpacked forms should be equal")
	}
	if DigestOf(packed) != DigestOf(unpacked) {
		t.Error("equal messages should share a digest")
	}
	if Equal(packed, packed.WithUints("offsets", []uint64{5})) {
		t.Error("messages with different offsets compared equal")
	}
}

func TestMapReferences(t *testing.T) {
	child := New(testChild).WithRef("target", 9)
	m := New(testParent).
		WithMessages("children", []*Message{child}).
		WithRefs("links", []Identifier{9, 10, 11})

	edges := m.References()
	if len(edges) != 4 {
		t.Fatalf("References() = %v, expected 4 edges", edges)
	}
	if edges[0].Path != "children[0].target" || edges[0].Repeated {
		t.Errorf("first edge = %+v", edges[0])
	}

	out, changed := m.MapReferences(func(e Edge) (Identifier, bool) {
		switch e.Target {
		case 9:
			return 0, !e.Repeated
		case 10:
			return 100, true
		}
		return e.Target, true
	})
	if !changed {
		t.Fatal("MapReferences reported no change")
	}
	if got := out.Refs("links"); len(got) != 2 || got[0] != 100 || got[1] != 11 {
		t.Errorf("links = %v, expected [#100 #11]", got)
	}
	if got := out.Messages("children")[0].Ref("target"); got != 0 {
		t.Errorf("singular target = %v, expected it kept with id 0", got)
	}
	if got := m.Refs("links"); len(got) != 3 {
		t.Errorf("original links changed to %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"truncated varint", []byte{0x08, 0x80}},
		{"truncated bytes", []byte{0x12, 0x05, 0x01}},
		{"bad nested message", []byte{0x12, 0x02, 0x12, 0x09}},
	}

	for _, tt := range tests {
		if _, err := Decode(testParent, tt.data); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestUUIDConversions(t *testing.T) {
	u := UUIDFromWords(1, 2, 3, 4)
	w0, w1, w2, w3 := u.Words()
	if w0 != 1 || w1 != 2 || w2 != 3 || w3 != 4 {
		t.Errorf("Words() = %d %d %d %d, expected 1 2 3 4", w0, w1, w2, w3)
	}
	parsed, err := ParseUUID(u.String())
	if err != nil {
		t.Fatalf("ParseUUID(%q) failed: %v", u.String(), err)
	}
	if parsed != u {
		t.Errorf("ParseUUID(String()) = %v, expected %v", parsed, u)
	}
}
