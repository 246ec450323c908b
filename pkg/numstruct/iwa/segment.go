package iwa

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ukaji3/numstruct-go/pkg/numstruct/archive"
	"github.com/ukaji3/numstruct-go/pkg/numstruct/schema"
)

// Segment is one archive: a TSP.ArchiveInfo header and the payloads its
// message infos describe.
type Segment struct {
	Info     *archive.Message
	Payloads [][]byte
}

// ID returns the identifier named by the header.
func (s Segment) ID() archive.Identifier {
	return archive.Identifier(s.Info.Uint("identifier"))
}

// ReadSegments splits decompressed data into segments.
func ReadSegments(data []byte) ([]Segment, error) {
	var segs []Segment
	for off := 0; off < len(data); {
		hlen, n := protowire.ConsumeVarint(data[off:])
		if n < 0 {
			return nil, fmt.Errorf("%w: header length at %d: %v", ErrFraming, off, protowire.ParseError(n))
		}
		off += n
		if uint64(len(data)-off) < hlen {
			return nil, fmt.Errorf("%w: header at %d wants %d bytes", ErrFraming, off, hlen)
		}
		info, err := archive.Decode(schema.ArchiveInfo, data[off:off+int(hlen)])
		if err != nil {
			return nil, fmt.Errorf("%w: header at %d: %v", ErrFraming, off, err)
		}
		off += int(hlen)

		seg := Segment{Info: info}
		for i, mi := range info.Messages("message_infos") {
			l := mi.Uint("length")
			if uint64(len(data)-off) < l {
				return nil, fmt.Errorf("%w: archive %d message %d wants %d bytes", ErrFraming, seg.ID(), i, l)
			}
			seg.Payloads = append(seg.Payloads, data[off:off+int(l)])
			off += int(l)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// AppendSegment appends the encoding of s to b. Message info lengths are
// recomputed from the payloads.
func AppendSegment(b []byte, s Segment) []byte {
	infos := s.Info.Messages("message_infos")
	for i := range infos {
		if i < len(s.Payloads) && infos[i].Uint("length") != uint64(len(s.Payloads[i])) {
			infos[i] = infos[i].WithUint("length", uint64(len(s.Payloads[i])))
		}
	}
	hdr := s.Info.WithMessages("message_infos", infos).Encode()
	b = protowire.AppendVarint(b, uint64(len(hdr)))
	b = append(b, hdr...)
	for _, p := range s.Payloads {
		b = append(b, p...)
	}
	return b
}
