package encoding

import (
	"encoding/binary"
	"math"

	"github.com/chaisql/exi/engine"
	"github.com/cockroachdb/errors"
)

const (
	mantissaBits = 52
	mantissaMask = 1<<mantissaBits - 1
	exponentMask = 0x7FF
)

// EncodeEXIFloat splits the IEEE-754 bit pattern of x at bit 52.
// The sign bit is not carried: negative values decode to their
// positive counterpart.
func EncodeEXIFloat(x float64) engine.Float {
	bits := math.Float64bits(x)
	return engine.Float{
		Mantissa: int64(bits & mantissaMask),
		Exponent: int16((bits >> mantissaBits) & exponentMask),
	}
}

// DecodeEXIFloat rebuilds a float64 from its mantissa and exponent.
func DecodeEXIFloat(f engine.Float) float64 {
	return math.Float64frombits(uint64(f.Mantissa) | uint64(f.Exponent)<<mantissaBits)
}

// EncodeInt appends n to dst using the smallest encoding.
func EncodeInt(dst []byte, n int64) []byte {
	if n >= 0 {
		return EncodeUint(dst, uint64(n))
	}

	if n >= -32 {
		return append(dst, byte(n+int64(IntSmallValue)+32))
	}

	if n >= math.MinInt8 {
		return EncodeInt8(dst, int8(n))
	}
	if n >= math.MinInt16 {
		return EncodeInt16(dst, int16(n))
	}
	if n >= math.MinInt32 {
		return EncodeInt32(dst, int32(n))
	}
	return EncodeInt64(dst, n)
}

// EncodeUint appends n to dst using the smallest encoding.
func EncodeUint(dst []byte, n uint64) []byte {
	if n <= 31 {
		return append(dst, byte(n+uint64(IntSmallValue)+32))
	}

	if n <= math.MaxUint8 {
		return EncodeUint8(dst, uint8(n))
	}
	if n <= math.MaxUint16 {
		return EncodeUint16(dst, uint16(n))
	}
	if n <= math.MaxUint32 {
		return EncodeUint32(dst, uint32(n))
	}
	return EncodeUint64(dst, n)
}

func EncodeUint8(dst []byte, n uint8) []byte {
	return write1(dst, Uint8Value, n)
}

func EncodeUint16(dst []byte, n uint16) []byte {
	return write2(dst, Uint16Value, n)
}

func EncodeUint32(dst []byte, n uint32) []byte {
	return write4(dst, Uint32Value, n)
}

func EncodeUint64(dst []byte, n uint64) []byte {
	return write8(dst, Uint64Value, n)
}

func EncodeInt8(dst []byte, n int8) []byte {
	return write1(dst, Int8Value, uint8(n)+math.MaxInt8+1)
}

func EncodeInt16(dst []byte, n int16) []byte {
	return write2(dst, Int16Value, uint16(n)+math.MaxInt16+1)
}

func EncodeInt32(dst []byte, n int32) []byte {
	return write4(dst, Int32Value, uint32(n)+math.MaxInt32+1)
}

func EncodeInt64(dst []byte, n int64) []byte {
	return write8(dst, Int64Value, uint64(n)+math.MaxInt64+1)
}

// DecodeInt decodes an integer encoded with EncodeInt or EncodeUint
// and returns the number of bytes read.
func DecodeInt(b []byte) (int64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrShortBuffer
	}

	if isSmallInt(b[0]) {
		return int64(b[0]) - int64(IntSmallValue) - 32, 1, nil
	}

	sz := payloadSize(b[0])
	if sz < 0 {
		return 0, 0, errors.Wrapf(ErrInvalidEncoding, "unexpected integer type %#x", b[0])
	}
	if len(b) < sz+1 {
		return 0, 0, ErrShortBuffer
	}

	switch b[0] {
	case Uint8Value:
		return int64(DecodeUint8(b[1:])), 2, nil
	case Uint16Value:
		return int64(DecodeUint16(b[1:])), 3, nil
	case Uint32Value:
		return int64(DecodeUint32(b[1:])), 5, nil
	case Uint64Value:
		return int64(DecodeUint64(b[1:])), 9, nil
	case Int8Value:
		return int64(DecodeInt8(b[1:])), 2, nil
	case Int16Value:
		return int64(DecodeInt16(b[1:])), 3, nil
	case Int32Value:
		return int64(DecodeInt32(b[1:])), 5, nil
	default:
		return DecodeInt64(b[1:]), 9, nil
	}
}

// DecodeUvarint decodes a length prefix.
func DecodeUvarint(b []byte) (uint64, int, error) {
	x, n := binary.Uvarint(b)
	if n == 0 {
		return 0, 0, ErrShortBuffer
	}
	if n < 0 {
		return 0, 0, errors.Wrap(ErrInvalidEncoding, "varint overflow")
	}

	return x, n, nil
}

func DecodeUint8(b []byte) uint8 {
	return b[0]
}

func DecodeUint16(b []byte) uint16 {
	return (uint16(b[0]) << 8) | uint16(b[1])
}

func DecodeUint32(b []byte) uint32 {
	return (uint32(b[0]) << 24) |
		(uint32(b[1]) << 16) |
		(uint32(b[2]) << 8) |
		uint32(b[3])
}

func DecodeUint64(b []byte) uint64 {
	return (uint64(b[0]) << 56) |
		(uint64(b[1]) << 48) |
		(uint64(b[2]) << 40) |
		(uint64(b[3]) << 32) |
		(uint64(b[4]) << 24) |
		(uint64(b[5]) << 16) |
		(uint64(b[6]) << 8) |
		uint64(b[7])
}

func DecodeInt8(b []byte) int8 {
	x := uint8(b[0])
	x -= math.MaxInt8 + 1
	return int8(x)
}

func DecodeInt16(b []byte) int16 {
	x := DecodeUint16(b)
	x -= math.MaxInt16 + 1
	return int16(x)
}

func DecodeInt32(b []byte) int32 {
	x := DecodeUint32(b)
	x -= math.MaxInt32 + 1
	return int32(x)
}

func DecodeInt64(b []byte) int64 {
	x := DecodeUint64(b)
	x -= math.MaxInt64 + 1
	return int64(x)
}

// EncodeFloat appends the mantissa and the exponent of f.
func EncodeFloat(dst []byte, f engine.Float) []byte {
	dst = EncodeInt(dst, f.Mantissa)
	return EncodeInt(dst, int64(f.Exponent))
}

// DecodeFloat decodes a value encoded with EncodeFloat.
func DecodeFloat(b []byte) (engine.Float, int, error) {
	m, n, err := DecodeInt(b)
	if err != nil {
		return engine.Float{}, 0, err
	}
	e, nn, err := DecodeInt(b[n:])
	if err != nil {
		return engine.Float{}, 0, err
	}
	if e < math.MinInt16 || e > math.MaxInt16 {
		return engine.Float{}, 0, errors.Wrapf(ErrInvalidEncoding, "exponent %d out of range", e)
	}

	return engine.Float{Mantissa: m, Exponent: int16(e)}, n + nn, nil
}
