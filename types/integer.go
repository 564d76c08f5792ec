package types

import (
	"strconv"
)

var _ Value = NewIntegerValue(0)

type IntegerValue int64

// NewIntegerValue returns an EXI integer value.
func NewIntegerValue(x int64) IntegerValue {
	return IntegerValue(x)
}

func (v IntegerValue) V() any {
	return int64(v)
}

func (v IntegerValue) Type() Type {
	return TypeInteger
}

func (v IntegerValue) String() string {
	return strconv.FormatInt(int64(v), 10)
}

func (v IntegerValue) MarshalText() ([]byte, error) {
	return strconv.AppendInt(nil, int64(v), 10), nil
}

func (v IntegerValue) MarshalJSON() ([]byte, error) {
	return v.MarshalText()
}

func (v IntegerValue) CastAs(target Type) (Value, error) {
	switch target {
	case TypeInteger:
		return v, nil
	case TypeFloat:
		return NewFloatValue(float64(v)), nil
	case TypeBoolean:
		return NewBooleanValue(v != 0), nil
	case TypeString:
		return NewStringValue(v.String()), nil
	}

	return nil, errCast(v, target)
}
