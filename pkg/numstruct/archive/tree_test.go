package archive

import (
	"reflect"
	"testing"
)

func TestTree(t *testing.T) {
	m, err := Decode(testParent, rawParent())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	owner := UUID{Upper: 1, Lower: 2}
	m = m.WithUUID("owner", owner).WithFloat64("value", 1.5).WithInt("delta", -3).WithBool("flag", true)
	tree := m.Tree()

	tests := []struct {
		key  string
		want any
	}{
		{"count", uint64(7)},
		{"offsets", []any{uint64(1), uint64(2), uint64(3)}},
		{"owner", owner.String()},
		{"value", 1.5},
		{"delta", int64(-3)},
		{"flag", true},
		{"#99", []any{"6d797374657279"}},
	}
	for _, tt := range tests {
		if got := tree[tt.key]; !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Tree()[%q] = %#v, expected %#v", tt.key, got, tt.want)
		}
	}

	children, ok := tree["children"].([]any)
	if !ok || len(children) != 1 {
		t.Fatalf("Tree()[children] = %#v, expected one child", tree["children"])
	}
	child := children[0].(map[string]any)
	if child["name"] != "a" {
		t.Errorf("child name = %v, expected a", child["name"])
	}
	if !reflect.DeepEqual(child["target"], map[string]any{"identifier": uint64(42)}) {
		t.Errorf("child target = %#v, expected identifier 42", child["target"])
	}
}

func TestTreeOfNil(t *testing.T) {
	var m *Message
	if got := m.Tree(); len(got) != 0 {
		t.Errorf("nil Tree() = %v, expected empty", got)
	}
}
