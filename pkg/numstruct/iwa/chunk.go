// Package iwa implements the framing of .iwa archive files: a sequence of
// snappy-compressed chunks whose concatenated payload is a sequence of
// length-prefixed archive segments.
package iwa

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/s2"
)

// ErrFraming is returned for blobs whose chunk or segment framing is broken.
var ErrFraming = errors.New("iwa: bad framing")

// chunkSize is the largest uncompressed piece written per chunk.
const chunkSize = 65536

// Decompress reassembles the payload of a chunked blob. A chunk that is not
// a valid snappy block is taken as stored uncompressed.
func Decompress(blob []byte) ([]byte, error) {
	var out []byte
	for off := 0; off < len(blob); {
		if len(blob)-off < 4 {
			return nil, fmt.Errorf("%w: truncated chunk header at %d", ErrFraming, off)
		}
		if blob[off] != 0 {
			return nil, fmt.Errorf("%w: chunk type %#x at %d", ErrFraming, blob[off], off)
		}
		n := int(blob[off+1]) | int(blob[off+2])<<8 | int(blob[off+3])<<16
		off += 4
		if len(blob)-off < n {
			return nil, fmt.Errorf("%w: chunk at %d wants %d bytes, %d left", ErrFraming, off-4, n, len(blob)-off)
		}
		chunk := blob[off : off+n]
		plain, err := s2.Decode(nil, chunk)
		if err != nil {
			plain = chunk
		}
		out = append(out, plain...)
		off += n
	}
	return out, nil
}

// Compress splits data into 64 KiB pieces and frames each as a snappy
// chunk.
func Compress(data []byte) []byte {
	var out []byte
	for len(data) > 0 {
		piece := data
		if len(piece) > chunkSize {
			piece = piece[:chunkSize]
		}
		data = data[len(piece):]

		enc := s2.EncodeSnappy(nil, piece)
		out = append(out, 0, byte(len(enc)), byte(len(enc)>>8), byte(len(enc)>>16))
		out = append(out, enc...)
	}
	return out
}
