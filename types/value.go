package types

import (
	"time"

	"github.com/cockroachdb/errors"
)

func AsBool(v Value) bool {
	bv, ok := v.(BooleanValue)
	if !ok {
		return v.V().(bool)
	}

	return bool(bv)
}

func AsInt64(v Value) int64 {
	iv, ok := v.(IntegerValue)
	if !ok {
		return v.V().(int64)
	}

	return int64(iv)
}

func AsFloat64(v Value) float64 {
	fv, ok := v.(FloatValue)
	if !ok {
		return v.V().(float64)
	}

	return float64(fv)
}

func AsTime(v Value) time.Time {
	tv, ok := v.(TimestampValue)
	if !ok {
		return v.V().(time.Time)
	}

	return time.Time(tv)
}

func AsString(v Value) string {
	sv, ok := v.(StringValue)
	if !ok {
		return v.V().(string)
	}

	return string(sv)
}

func AsByteSlice(v Value) []byte {
	bv, ok := v.(BinaryValue)
	if !ok {
		return v.V().([]byte)
	}

	return bv
}

func AsList(v Value) []Value {
	lv, ok := v.(ListValue)
	if !ok {
		return v.V().([]Value)
	}

	return lv
}

func AsName(v Value) Name {
	qv, ok := v.(QNameValue)
	if !ok {
		return v.V().(Name)
	}

	return Name(qv)
}

// IsEqual returns true if a and b have the same type and the same content.
// Lists are compared item by item.
func IsEqual(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}

	switch a.Type() {
	case TypeBinary:
		return string(AsByteSlice(a)) == string(AsByteSlice(b))
	case TypeTimestamp:
		return AsTime(a).Equal(AsTime(b))
	case TypeFloat:
		fa, fb := AsFloat64(a), AsFloat64(b)
		return fa == fb || (fa != fa && fb != fb)
	case TypeList:
		la, lb := AsList(a), AsList(b)
		if len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !IsEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	}

	return a.V() == b.V()
}

func errCast(v Value, target Type) error {
	return errors.Errorf("cannot cast %s as %s", v.Type(), target)
}
