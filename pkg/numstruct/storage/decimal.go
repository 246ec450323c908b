package storage

import (
	"encoding/binary"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Decimal128 is an IEEE 754-2008 decimal128 value in binary integer
// significand encoding, as stored in cell buffers.
type Decimal128 [16]byte

const decimalBias = 0x1820

// Exponent returns the unbiased power of ten.
func (d Decimal128) Exponent() int {
	return (int(d[15]&0x7f)<<7 | int(d[14]>>1)) - decimalBias
}

// Negative reports the sign bit.
func (d Decimal128) Negative() bool {
	return d[15]&0x80 != 0
}

// Mantissa returns the unsigned 113-bit significand.
func (d Decimal128) Mantissa() *big.Int {
	m := big.NewInt(int64(d[14] & 1))
	b256 := big.NewInt(256)
	for i := 13; i >= 0; i-- {
		m.Mul(m, b256)
		m.Add(m, big.NewInt(int64(d[i])))
	}
	return m
}

// String renders the exact decimal value in scientific form.
func (d Decimal128) String() string {
	var sb strings.Builder
	if d.Negative() {
		sb.WriteByte('-')
	}
	sb.WriteString(d.Mantissa().String())
	sb.WriteByte('e')
	sb.WriteString(strconv.Itoa(d.Exponent()))
	return sb.String()
}

// Float64 returns the nearest float64.
func (d Decimal128) Float64() float64 {
	// Out of range values come back as ±Inf alongside a range error.
	v, _ := strconv.ParseFloat(d.String(), 64)
	return v
}

// DecimalFromFloat encodes v using its shortest decimal representation.
func DecimalFromFloat(v float64) Decimal128 {
	var d Decimal128
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return d
	}
	neg := math.Signbit(v)
	s := strconv.FormatFloat(math.Abs(v), 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	digits := strings.Replace(mant, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	e -= len(digits) - 1
	m, _ := strconv.ParseUint(digits, 10, 64)
	if m == 0 {
		e = 0
	}

	binary.LittleEndian.PutUint64(d[:8], m)
	biased := e + decimalBias
	d[14] = byte(biased&0x7f) << 1
	d[15] = byte(biased>>7) & 0x7f
	if neg && m != 0 {
		d[15] |= 0x80
	}
	return d
}
