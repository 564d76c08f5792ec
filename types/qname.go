package types

import (
	"strconv"
	"strings"
)

var _ Value = NewQNameValue(Name{})

type QNameValue Name

// NewQNameValue returns an EXI qualified name value.
func NewQNameValue(n Name) QNameValue {
	return QNameValue(n)
}

func (v QNameValue) V() any {
	return Name(v)
}

func (v QNameValue) Type() Type {
	return TypeQName
}

// String returns the prefixed lexical form. The namespace is not
// part of it.
func (v QNameValue) String() string {
	return Name(v).Lexical()
}

func (v QNameValue) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v QNameValue) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(Name(v).String())), nil
}

func (v QNameValue) CastAs(target Type) (Value, error) {
	switch target {
	case TypeQName:
		return v, nil
	case TypeString:
		return NewStringValue(v.String()), nil
	}

	return nil, errCast(v, target)
}

// ParseName parses a prefixed name, prefix:local or local.
// The namespace is left empty.
func ParseName(s string) Name {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return Name{LocalName: s}
	}

	return Name{LocalName: local, Prefix: prefix}
}
