package storage

import (
	"encoding/binary"
	"fmt"
)

// PreBNCBytes is the placeholder written to the legacy buffer fields of
// rebuilt rows.
var PreBNCBytes = []byte("🤠")

// SplitRow cuts a row's storage buffer into per-column cell buffers using
// its int16 offset array. Empty columns are nil. Wide offsets count in
// units of four bytes.
func SplitRow(buffer, offsets []byte, wide bool, columns int) ([][]byte, error) {
	n := len(offsets) / 2
	offs := make([]int, n)
	for i := range offs {
		o := int(int16(binary.LittleEndian.Uint16(offsets[2*i:])))
		if wide && o >= 0 {
			o *= 4
		}
		offs[i] = o
	}

	cells := make([][]byte, columns)
	for col := 0; col < columns && col < n; col++ {
		start := offs[col]
		if start < 0 {
			continue
		}
		end := len(buffer)
		for _, o := range offs[col+1:] {
			if o >= 0 {
				end = o
				break
			}
		}
		if start > end || end > len(buffer) {
			return nil, fmt.Errorf("%w: column %d spans %d..%d of %d", ErrTruncated, col, start, end, len(buffer))
		}
		cells[col] = buffer[start:end]
	}
	return cells, nil
}

// JoinRow packs per-column cell buffers into a storage buffer and a wide
// offset array with one entry per column. It returns the number of
// non-empty cells.
func JoinRow(cells [][]byte) (buffer, offsets []byte, count int) {
	offsets = make([]byte, 2*len(cells))
	for col, c := range cells {
		if c == nil {
			binary.LittleEndian.PutUint16(offsets[2*col:], 0xffff)
			continue
		}
		binary.LittleEndian.PutUint16(offsets[2*col:], uint16(len(buffer)>>2))
		buffer = append(buffer, c...)
		if pad := len(buffer) % 4; pad != 0 {
			buffer = append(buffer, make([]byte, 4-pad)...)
		}
		count++
	}
	return buffer, offsets, count
}
