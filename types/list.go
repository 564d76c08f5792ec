package types

import (
	"strings"

	"golang.org/x/exp/slices"
)

var _ Value = NewListValue()

// ListValue is an xsd:list value. Items are expected to share
// the item type declared by the grammar.
type ListValue []Value

// NewListValue returns an EXI list value holding a copy of items.
func NewListValue(items ...Value) ListValue {
	return ListValue(slices.Clone(items))
}

func (v ListValue) V() any {
	return []Value(v)
}

func (v ListValue) Type() Type {
	return TypeList
}

// String returns the lexical form of every item separated by a space.
func (v ListValue) String() string {
	var sb strings.Builder
	for i, item := range v {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(item.String())
	}

	return sb.String()
}

func (v ListValue) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v ListValue) MarshalJSON() ([]byte, error) {
	dst := []byte{'['}
	for i, item := range v {
		if i > 0 {
			dst = append(dst, ',')
		}
		b, err := item.MarshalJSON()
		if err != nil {
			return nil, err
		}
		dst = append(dst, b...)
	}

	return append(dst, ']'), nil
}

func (v ListValue) CastAs(target Type) (Value, error) {
	switch target {
	case TypeList:
		return v, nil
	case TypeString:
		return NewStringValue(v.String()), nil
	}

	return nil, errCast(v, target)
}
