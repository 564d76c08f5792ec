package types

import (
	"encoding/base64"
	"strconv"
)

var _ Value = NewBinaryValue(nil)

type BinaryValue []byte

// NewBinaryValue returns an EXI binary value. x is not copied.
func NewBinaryValue(x []byte) BinaryValue {
	return BinaryValue(x)
}

func (v BinaryValue) V() any {
	return []byte(v)
}

func (v BinaryValue) Type() Type {
	return TypeBinary
}

// String returns the base64 encoding of the value.
func (v BinaryValue) String() string {
	return base64.StdEncoding.EncodeToString(v)
}

func (v BinaryValue) MarshalText() ([]byte, error) {
	dst := make([]byte, base64.StdEncoding.EncodedLen(len(v)))
	base64.StdEncoding.Encode(dst, v)
	return dst, nil
}

func (v BinaryValue) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(v.String())), nil
}

func (v BinaryValue) CastAs(target Type) (Value, error) {
	switch target {
	case TypeBinary:
		return v, nil
	case TypeString:
		return NewStringValue(v.String()), nil
	}

	return nil, errCast(v, target)
}
