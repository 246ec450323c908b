package archive

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind is the value kind of a field as declared by its message type.
type Kind uint8

// Field kinds.
const (
	KindUint Kind = iota + 1
	KindInt
	KindSint
	KindBool
	KindFixed32
	KindFixed64
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindMessage
)

// wireType returns the protobuf wire type a single element of this kind uses.
func (k Kind) wireType() protowire.Type {
	switch k {
	case KindUint, KindInt, KindSint, KindBool:
		return protowire.VarintType
	case KindFixed32, KindFloat:
		return protowire.Fixed32Type
	case KindFixed64, KindDouble:
		return protowire.Fixed64Type
	default:
		return protowire.BytesType
	}
}

// scalar reports whether repeated fields of this kind may be packed.
func (k Kind) scalar() bool {
	return k != KindString && k != KindBytes && k != KindMessage
}

// Role marks UUID-valued fields the object graph treats specially.
type Role uint8

const (
	// RoleNone is an ordinary field.
	RoleNone Role = iota
	// RoleOwnerUID registers the enclosing record under the UUID.
	RoleOwnerUID
	// RoleUUIDEdge is a deferred reference resolved through the owner map.
	RoleUUIDEdge
)

// Field describes one field of a message type.
type Field struct {
	Num      protowire.Number
	Name     string
	Kind     Kind
	Repeated bool
	Packed   bool
	Message  *MessageType
	Role     Role
}

// IsReference reports whether the field holds record references.
func (f *Field) IsReference() bool {
	return f.Kind == KindMessage && f.Message == ReferenceType
}

// IsUUID reports whether the field holds UUID values.
func (f *Field) IsUUID() bool {
	return f.Kind == KindMessage && f.Message == UUIDType
}

// MessageType is the layout of a message: the set of fields known by
// number and name. Fields not declared here survive decoding as raw bytes.
type MessageType struct {
	Name   string
	fields []*Field
	byNum  map[protowire.Number]*Field
	byName map[string]*Field
}

// NewMessageType declares a message type. Fields may be added later with
// Define, which allows recursive types.
func NewMessageType(name string, fields ...*Field) *MessageType {
	t := &MessageType{
		Name:   name,
		byNum:  make(map[protowire.Number]*Field),
		byName: make(map[string]*Field),
	}
	t.Define(fields...)
	return t
}

// Define adds fields to the type. Duplicate numbers or names panic since
// catalogs are static.
func (t *MessageType) Define(fields ...*Field) {
	for _, f := range fields {
		if _, dup := t.byNum[f.Num]; dup {
			panic(fmt.Sprintf("archive: %s: duplicate field number %d", t.Name, f.Num))
		}
		if _, dup := t.byName[f.Name]; dup {
			panic(fmt.Sprintf("archive: %s: duplicate field name %q", t.Name, f.Name))
		}
		t.fields = append(t.fields, f)
		t.byNum[f.Num] = f
		t.byName[f.Name] = f
	}
}

// Field returns the field with the given name, or nil.
func (t *MessageType) Field(name string) *Field {
	if t == nil {
		return nil
	}
	return t.byName[name]
}

// FieldByNum returns the field with the given number, or nil.
func (t *MessageType) FieldByNum(n protowire.Number) *Field {
	if t == nil {
		return nil
	}
	return t.byNum[n]
}

// Fields returns the declared fields in declaration order.
func (t *MessageType) Fields() []*Field {
	return t.fields
}

func (t *MessageType) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Field constructors used by catalogs.

func Uint(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindUint}
}

func Int(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindInt}
}

func Sint(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindSint}
}

func Bool(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindBool}
}

func Fixed32(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindFixed32}
}

func Fixed64(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindFixed64}
}

func Float(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindFloat}
}

func Double(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindDouble}
}

func String(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindString}
}

func Bytes(num protowire.Number, name string) *Field {
	return &Field{Num: num, Name: name, Kind: KindBytes}
}

func Msg(num protowire.Number, name string, t *MessageType) *Field {
	return &Field{Num: num, Name: name, Kind: KindMessage, Message: t}
}

// Ref declares a field holding a record reference.
func Ref(num protowire.Number, name string) *Field {
	return Msg(num, name, ReferenceType)
}

// UUIDOf declares a UUID-valued field with the given graph role.
func UUIDOf(num protowire.Number, name string, role Role) *Field {
	f := Msg(num, name, UUIDType)
	f.Role = role
	return f
}

// Repeated marks f as repeated.
func Repeated(f *Field) *Field {
	f.Repeated = true
	return f
}

// Packed marks f as a repeated scalar written in packed form.
func Packed(f *Field) *Field {
	f.Repeated = true
	f.Packed = f.Kind.scalar()
	return f
}

// ReferenceType is the layout of a record reference.
var ReferenceType = NewMessageType("TSP.Reference",
	Uint(1, "identifier"),
	Int(2, "deprecated_type"),
	Bool(3, "deprecated_is_external"),
)

// UUIDType is the layout of a stored UUID.
var UUIDType = NewMessageType("TSP.UUID",
	Uint(1, "lower"),
	Uint(2, "upper"),
)
