package types

import (
	"github.com/buger/jsonparser"
	"github.com/cockroachdb/errors"
)

// ParseJSONValue decodes a JSON scalar or array into a value.
// Numbers that fit an int64 become integers, other numbers become floats.
// Arrays become lists. Objects and null are rejected since EXI has no
// value equivalent.
func ParseJSONValue(data []byte) (Value, error) {
	v, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid json value")
	}

	return parseJSONValue(dataType, v)
}

func parseJSONValue(dataType jsonparser.ValueType, data []byte) (v Value, err error) {
	switch dataType {
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil, err
		}
		return NewBooleanValue(b), nil
	case jsonparser.Number:
		i, err := jsonparser.ParseInt(data)
		if err != nil {
			// not an integer or too big to fit in an int64
			f, err := jsonparser.ParseFloat(data)
			if err != nil {
				return nil, err
			}

			return NewFloatValue(f), nil
		}

		return NewIntegerValue(i), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return nil, err
		}
		return NewStringValue(s), nil
	case jsonparser.Array:
		l := ListValue{}
		var ierr error
		_, perr := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
			if ierr != nil {
				return
			}
			var item Value
			item, ierr = parseJSONValue(dataType, value)
			if ierr != nil {
				return
			}
			l = append(l, item)
		})
		if ierr != nil {
			return nil, ierr
		}
		if perr != nil {
			return nil, perr
		}
		return l, nil
	default:
		return nil, errors.Errorf("unsupported JSON type: %v", dataType)
	}
}
