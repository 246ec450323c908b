package iwa

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// defaultVersion is written into the message info of records created in
// memory.
var defaultVersion = []uint64{1, 0, 5}

// DecodeFile decodes one .iwa blob into records, in stored order.
func DecodeFile(cat archive.Catalog, path string, blob []byte) ([]archive.Record, error) {
	plain, err := Decompress(blob)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	segs, err := ReadSegments(plain)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	recs := make([]archive.Record, 0, len(segs))
	for _, seg := range segs {
		rec, err := recordFromSegment(cat, seg)
		if err != nil {
			var cre *archive.CorruptRecordError
			if errors.As(err, &cre) {
				cre.Path = path
				return nil, cre
			}
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func recordFromSegment(cat archive.Catalog, seg Segment) (archive.Record, error) {
	infos := seg.Info.Messages("message_infos")
	if len(infos) == 0 || len(seg.Payloads) == 0 {
		return archive.Record{}, fmt.Errorf("%w: archive %d has no messages", ErrFraming, seg.ID())
	}
	env := &archive.Envelope{Info: infos[0], ShouldMerge: seg.Info.Bool("should_merge")}
	for i := 1; i < len(infos); i++ {
		env.Extra = append(env.Extra, archive.Payload{Info: infos[i], Data: seg.Payloads[i]})
	}

	tag := archive.TypeTag(infos[0].Uint("type"))
	if env.ShouldMerge || infos[0].Has("diff_field_path") {
		return archive.Record{ID: seg.ID(), Type: tag, Opaque: seg.Payloads[0], Envelope: env}, nil
	}
	rec, err := archive.DecodeRecord(cat, seg.ID(), tag, seg.Payloads[0])
	if err != nil {
		return rec, err
	}
	rec.Envelope = env
	return rec, nil
}

// EncodeFile frames records into a compressed .iwa blob.
func EncodeFile(recs []archive.Record) []byte {
	var plain []byte
	for _, rec := range recs {
		plain = AppendSegment(plain, segmentFor(rec))
	}
	return Compress(plain)
}

func segmentFor(rec archive.Record) Segment {
	var info *archive.Message
	if rec.Envelope != nil && rec.Envelope.Info != nil {
		info = rec.Envelope.Info
	} else {
		info = archive.New(schema.MessageInfo).WithUints("version", defaultVersion)
	}
	if info.Uint("type") != uint64(rec.Type) {
		info = info.WithUint("type", uint64(rec.Type))
	}
	if !rec.IsOpaque() {
		if refs := objectReferences(rec); !sameSet(refs, info.Uints("object_references")) {
			info = info.WithUints("object_references", refs)
		}
	}

	seg := Segment{
		Info:     archive.New(schema.ArchiveInfo).WithUint("identifier", uint64(rec.ID)),
		Payloads: [][]byte{rec.Payload()},
	}
	infos := []*archive.Message{info}
	if rec.Envelope != nil {
		for _, p := range rec.Envelope.Extra {
			infos = append(infos, p.Info)
			seg.Payloads = append(seg.Payloads, p.Data)
		}
		if rec.Envelope.ShouldMerge {
			seg.Info = seg.Info.WithBool("should_merge", true)
		}
	}
	seg.Info = seg.Info.WithMessages("message_infos", infos)
	return seg
}

// objectReferences lists the distinct identifiers a record refers to.
func objectReferences(rec archive.Record) []uint64 {
	var ids []uint64
	for _, e := range rec.References() {
		ids = append(ids, uint64(e.Target))
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func sameSet(a, b []uint64) bool {
	a = slices.Compact(slices.Sorted(slices.Values(a)))
	b = slices.Compact(slices.Sorted(slices.Values(b)))
	return slices.Equal(a, b)
}
