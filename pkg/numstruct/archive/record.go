package archive

import (
	"errors"
	"fmt"
)

// TypeTag is the numeric tag naming a record's message type.
type TypeTag uint32

// Catalog maps type tags to message layouts.
type Catalog interface {
	// TypeFor returns the layout registered for tag.
	TypeFor(tag TypeTag) (*MessageType, bool)
	// TagFor returns the tag a layout is registered under.
	TagFor(t *MessageType) (TypeTag, bool)
}

// Record is one addressable object of the document.
type Record struct {
	ID   Identifier
	Type TypeTag
	// Fields is the decoded payload. It is nil for opaque records.
	Fields *Message
	// Opaque holds the payload of records whose type the catalog does not
	// describe, or which are stored as diffs. It re-encodes unchanged.
	Opaque []byte
	// Envelope is the stored framing, nil for records created in memory.
	Envelope *Envelope
}

// Envelope keeps per-record framing metadata read from the archive so it
// can be written back.
type Envelope struct {
	// Info is the first message info of the archive header.
	Info *Message
	// Extra holds any additional payloads stored under the same identifier.
	Extra []Payload
	// ShouldMerge is the header's merge flag.
	ShouldMerge bool
}

// Payload is a secondary message stored with a record.
type Payload struct {
	Info *Message
	Data []byte
}

// IsOpaque reports whether the record is carried undecoded.
func (r Record) IsOpaque() bool {
	return r.Fields == nil
}

// Payload returns the encoded primary payload.
func (r Record) Payload() []byte {
	if r.Fields == nil {
		return r.Opaque
	}
	return r.Fields.Encode()
}

// References lists the record references held by the payload.
func (r Record) References() []Edge {
	return r.Fields.References()
}

// Equal reports whether two records have the same identifier, type and
// payload values.
func (r Record) Equal(o Record) bool {
	if r.ID != o.ID || r.Type != o.Type || r.IsOpaque() != o.IsOpaque() {
		return false
	}
	if r.IsOpaque() {
		return string(r.Opaque) == string(o.Opaque)
	}
	return Equal(r.Fields, o.Fields)
}

// Digest hashes the record payload.
func (r Record) Digest() Digest {
	if r.IsOpaque() {
		return DigestOf(New(opaqueType).WithBytes("payload", r.Opaque))
	}
	return DigestOf(r.Fields)
}

var opaqueType = NewMessageType("opaque", Bytes(1, "payload"))

// DecodeRecord decodes a payload with the layout the catalog gives for tag.
// Unknown tags yield an opaque record.
func DecodeRecord(cat Catalog, id Identifier, tag TypeTag, payload []byte) (Record, error) {
	rec := Record{ID: id, Type: tag}
	t, ok := cat.TypeFor(tag)
	if !ok {
		rec.Opaque = payload
		return rec, nil
	}
	m, err := Decode(t, payload)
	if err != nil {
		return rec, &CorruptRecordError{ID: id, Type: tag, Err: err}
	}
	rec.Fields = m
	return rec, nil
}

// ErrCorrupt is matched by every CorruptRecordError.
var ErrCorrupt = errors.New("corrupt record")

// CorruptRecordError reports a payload that does not parse.
type CorruptRecordError struct {
	Path string
	ID   Identifier
	Type TypeTag
	Err  error
}

func (e *CorruptRecordError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: record %d (type %d): %v", e.Path, e.ID, e.Type, e.Err)
	}
	return fmt.Sprintf("record %d (type %d): %v", e.ID, e.Type, e.Err)
}

func (e *CorruptRecordError) Unwrap() error {
	return e.Err
}

func (e *CorruptRecordError) Is(target error) bool {
	return target == ErrCorrupt
}
