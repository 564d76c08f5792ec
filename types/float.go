package types

import (
	"math"
	"strconv"
)

var _ Value = NewFloatValue(0)

type FloatValue float64

// NewFloatValue returns an EXI float value.
func NewFloatValue(x float64) FloatValue {
	return FloatValue(x)
}

func (v FloatValue) V() any {
	return float64(v)
}

func (v FloatValue) Type() Type {
	return TypeFloat
}

func (v FloatValue) String() string {
	f := float64(v)
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NaN"
	}

	abs := math.Abs(f)
	fmt := byte('f')
	if abs != 0 {
		if abs < 1e-6 || abs >= 1e15 {
			fmt = 'E'
		}
	}

	// By default the precision is -1 to use the smallest number of digits.
	// See https://pkg.go.dev/strconv#FormatFloat
	prec := -1
	// if the number is round, add .0
	if fmt == 'f' && math.Trunc(f) == f {
		prec = 1
	}
	return strconv.FormatFloat(f, fmt, prec, 64)
}

func (v FloatValue) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v FloatValue) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte(strconv.Quote(v.String())), nil
	}

	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

func (v FloatValue) CastAs(target Type) (Value, error) {
	switch target {
	case TypeFloat:
		return v, nil
	case TypeInteger:
		f := float64(v)
		if math.Trunc(f) != f || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, errCast(v, target)
		}
		return NewIntegerValue(int64(f)), nil
	case TypeString:
		return NewStringValue(v.String()), nil
	}

	return nil, errCast(v, target)
}
