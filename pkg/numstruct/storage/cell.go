// Package storage encodes and decodes the version 5 cell storage buffers
// held in table tiles.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"
)

// Version is the only supported cell storage version.
const Version = 5

var (
	// ErrVersion is returned for cell buffers of another storage version.
	ErrVersion = errors.New("storage: unsupported cell storage version")
	// ErrTruncated is returned for buffers shorter than their flags imply.
	ErrTruncated = errors.New("storage: truncated cell buffer")
)

// Epoch is the origin of stored dates.
var Epoch = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

// CellType is the stored cell type byte.
type CellType uint8

// Stored cell types.
const (
	TypeEmpty    CellType = 0
	TypeNumber   CellType = 2
	TypeText     CellType = 3
	TypeDate     CellType = 5
	TypeBool     CellType = 6
	TypeDuration CellType = 7
	TypeError    CellType = 8
	TypeRichText CellType = 9
	TypeCurrency CellType = 10
)

// Flag marks an optional field present in a cell buffer. Fields are laid
// out in ascending flag order.
type Flag uint32

const (
	FlagDecimal Flag = 1 << iota
	FlagDouble
	FlagSeconds
	FlagString
	FlagRichText
	FlagCellStyle
	FlagTextStyle
	FlagCondStyle
	FlagCondRuleStyle
	FlagFormula
	FlagControl
	FlagFormulaError
	FlagSuggest
	FlagNumFormat
	FlagCurrencyFormat
	FlagDateFormat
	FlagDurationFormat
	FlagTextFormat
	FlagBoolFormat
	FlagComment
	FlagImportWarning

	flagLimit
)

const headerSize = 12

// Cell is one decoded cell buffer.
type Cell struct {
	Type    CellType
	Decimal Decimal128
	Double  float64
	Seconds float64

	flags    Flag
	reserved [6]byte
	ids      map[Flag]uint32
}

// Has reports whether the buffer carries the field for f.
func (c Cell) Has(f Flag) bool {
	return c.flags&f != 0
}

// Flags returns the field presence mask.
func (c Cell) Flags() Flag {
	return c.flags
}

// ID returns a 32-bit key field such as FlagString or FlagFormula.
func (c Cell) ID(f Flag) (uint32, bool) {
	if !c.Has(f) {
		return 0, false
	}
	return c.ids[f], true
}

// WithID returns a copy of c carrying key field f.
func (c Cell) WithID(f Flag, v uint32) Cell {
	ids := make(map[Flag]uint32, len(c.ids)+1)
	for k, x := range c.ids {
		ids[k] = x
	}
	ids[f] = v
	c.ids = ids
	c.flags |= f
	return c
}

// Decode parses a cell buffer.
func Decode(buf []byte) (Cell, error) {
	if len(buf) < headerSize {
		return Cell{}, fmt.Errorf("%w: %d bytes", ErrTruncated, len(buf))
	}
	if buf[0] != Version {
		return Cell{}, fmt.Errorf("%w: %d", ErrVersion, buf[0])
	}
	c := Cell{Type: CellType(buf[1]), flags: Flag(binary.LittleEndian.Uint32(buf[8:12]))}
	copy(c.reserved[:], buf[2:8])
	if c.flags >= flagLimit {
		return Cell{}, fmt.Errorf("storage: unknown cell flags %#x", uint32(c.flags))
	}

	off := headerSize
	need := func(n int) error {
		if len(buf)-off < n {
			return fmt.Errorf("%w: need %d bytes at %d of %d", ErrTruncated, n, off, len(buf))
		}
		return nil
	}
	for f := FlagDecimal; f < flagLimit; f <<= 1 {
		if !c.Has(f) {
			continue
		}
		switch f {
		case FlagDecimal:
			if err := need(16); err != nil {
				return Cell{}, err
			}
			copy(c.Decimal[:], buf[off:off+16])
			off += 16
		case FlagDouble, FlagSeconds:
			if err := need(8); err != nil {
				return Cell{}, err
			}
			x := math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))
			if f == FlagDouble {
				c.Double = x
			} else {
				c.Seconds = x
			}
			off += 8
		default:
			if err := need(4); err != nil {
				return Cell{}, err
			}
			if c.ids == nil {
				c.ids = make(map[Flag]uint32, bits.OnesCount32(uint32(c.flags)))
			}
			c.ids[f] = binary.LittleEndian.Uint32(buf[off:])
			off += 4
		}
	}
	return c, nil
}

// Encode serializes c. Every field c carries is written, in flag order.
func (c Cell) Encode() []byte {
	buf := make([]byte, headerSize, c.Size())
	buf[0] = Version
	buf[1] = byte(c.Type)
	copy(buf[2:8], c.reserved[:])
	binary.LittleEndian.PutUint32(buf[8:], uint32(c.flags))
	for f := FlagDecimal; f < flagLimit; f <<= 1 {
		if !c.Has(f) {
			continue
		}
		switch f {
		case FlagDecimal:
			buf = append(buf, c.Decimal[:]...)
		case FlagDouble:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c.Double))
		case FlagSeconds:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(c.Seconds))
		default:
			buf = binary.LittleEndian.AppendUint32(buf, c.ids[f])
		}
	}
	return buf
}

// Size returns the encoded length of c.
func (c Cell) Size() int {
	n := headerSize
	for f := FlagDecimal; f < flagLimit; f <<= 1 {
		switch {
		case !c.Has(f):
		case f == FlagDecimal:
			n += 16
		case f == FlagDouble || f == FlagSeconds:
			n += 8
		default:
			n += 4
		}
	}
	return n
}

// Number returns the numeric value, preferring the decimal field.
func (c Cell) Number() float64 {
	if c.Has(FlagDecimal) {
		return c.Decimal.Float64()
	}
	return c.Double
}

// Time returns the stored date.
func (c Cell) Time() time.Time {
	whole, frac := math.Modf(c.Seconds)
	return Epoch.Add(time.Duration(whole)*time.Second + time.Duration(frac*float64(time.Second)))
}

// NumberCell builds a number cell.
func NumberCell(v float64) Cell {
	return Cell{Type: TypeNumber, Decimal: DecimalFromFloat(v), flags: FlagDecimal}
}

// TextCell builds a text cell referring to a string table key.
func TextCell(key uint32) Cell {
	return Cell{Type: TypeText}.WithID(FlagString, key)
}

// BoolCell builds a boolean cell.
func BoolCell(b bool) Cell {
	c := Cell{Type: TypeBool, flags: FlagDouble}
	if b {
		c.Double = 1
	}
	return c
}

// DateCell builds a date cell.
func DateCell(t time.Time) Cell {
	return Cell{Type: TypeDate, Seconds: t.Sub(Epoch).Seconds(), flags: FlagSeconds}
}

// DurationCell builds a duration cell.
func DurationCell(d time.Duration) Cell {
	return Cell{Type: TypeDuration, Double: d.Seconds(), flags: FlagDouble}
}
