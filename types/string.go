package types

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var _ Value = NewStringValue("")

type StringValue string

// NewStringValue returns an EXI string value.
func NewStringValue(x string) StringValue {
	return StringValue(x)
}

func (v StringValue) V() any {
	return string(v)
}

func (v StringValue) Type() Type {
	return TypeString
}

func (v StringValue) String() string {
	return string(v)
}

func (v StringValue) MarshalText() ([]byte, error) {
	return []byte(v), nil
}

func (v StringValue) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(v))), nil
}

// CastAs parses the lexical form held by v as a value of the target type.
// It is the inverse of the String method of every scalar value and
// is used to recover typed values from schema-less streams.
func (v StringValue) CastAs(target Type) (Value, error) {
	s := strings.TrimSpace(string(v))

	switch target {
	case TypeString:
		return v, nil
	case TypeInteger:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot cast %q as integer", s)
		}
		return NewIntegerValue(i), nil
	case TypeBoolean:
		switch s {
		case "true", "1":
			return NewBooleanValue(true), nil
		case "false", "0":
			return NewBooleanValue(false), nil
		}
		return nil, errors.Errorf("cannot cast %q as boolean", s)
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot cast %q as float", s)
		}
		return NewFloatValue(f), nil
	case TypeBinary:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot cast %q as binary", s)
		}
		return NewBinaryValue(b), nil
	case TypeTimestamp:
		ts, err := ParseTimestamp(s)
		if err != nil {
			return nil, err
		}
		return NewTimestampValue(ts), nil
	case TypeQName:
		return NewQNameValue(ParseName(s)), nil
	case TypeList:
		fields := strings.Fields(s)
		l := make(ListValue, 0, len(fields))
		for _, f := range fields {
			l = append(l, NewStringValue(f))
		}
		return l, nil
	}

	return nil, errCast(v, target)
}
