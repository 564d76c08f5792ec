package types

import "strconv"

var _ Value = NewBooleanValue(false)

type BooleanValue bool

// NewBooleanValue returns an EXI boolean value.
func NewBooleanValue(x bool) BooleanValue {
	return BooleanValue(x)
}

func (v BooleanValue) V() any {
	return bool(v)
}

func (v BooleanValue) Type() Type {
	return TypeBoolean
}

func (v BooleanValue) String() string {
	return strconv.FormatBool(bool(v))
}

func (v BooleanValue) MarshalText() ([]byte, error) {
	return strconv.AppendBool(nil, bool(v)), nil
}

func (v BooleanValue) MarshalJSON() ([]byte, error) {
	return v.MarshalText()
}

func (v BooleanValue) CastAs(target Type) (Value, error) {
	switch target {
	case TypeBoolean:
		return v, nil
	case TypeInteger:
		if v {
			return NewIntegerValue(1), nil
		}
		return NewIntegerValue(0), nil
	case TypeString:
		return NewStringValue(v.String()), nil
	}

	return nil, errCast(v, target)
}
