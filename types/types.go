// Package types defines the values carried by EXI value and attribute events.
//
// Each EXI datatype family is represented by a concrete Go type implementing
// Value. The String method of every value returns its EXI lexical form, which
// is what schema-less streams carry.
package types

import (
	"fmt"
)

// Type represents a value type supported by EXI events.
type Type uint8

// List of supported types.
const (
	// TypeAny denotes the absence of type
	TypeAny Type = iota
	TypeInteger
	TypeBoolean
	TypeString
	TypeFloat
	TypeBinary
	TypeTimestamp
	TypeList
	TypeQName
)

func (t Type) String() string {
	switch t {
	case TypeAny:
		return "any"
	case TypeInteger:
		return "integer"
	case TypeBoolean:
		return "boolean"
	case TypeString:
		return "string"
	case TypeFloat:
		return "float"
	case TypeBinary:
		return "binary"
	case TypeTimestamp:
		return "timestamp"
	case TypeList:
		return "list"
	case TypeQName:
		return "qname"
	}

	panic(fmt.Sprintf("unsupported type %#v", t))
}

// IsNumber returns true if t is either an integer or a float.
func (t Type) IsNumber() bool {
	return t == TypeInteger || t == TypeFloat
}

// IsScalar returns true if t is neither a list nor TypeAny.
func (t Type) IsScalar() bool {
	return t != TypeAny && t != TypeList
}

// A Value represents a typed EXI value.
type Value interface {
	Type() Type
	V() any
	// String returns the EXI lexical form of the value.
	String() string
	MarshalText() ([]byte, error)
	MarshalJSON() ([]byte, error)
	CastAs(target Type) (Value, error)
}

// Name identifies an element, an attribute or a type.
// An empty Namespace denotes the default namespace and an empty
// Prefix denotes the absence of prefix.
type Name struct {
	LocalName string
	Namespace string
	Prefix    string
}

// NewName returns a name without prefix.
func NewName(namespace, localName string) Name {
	return Name{LocalName: localName, Namespace: namespace}
}

// String returns the name in Clark notation, {namespace}local.
func (n Name) String() string {
	if n.Namespace == "" {
		return n.LocalName
	}

	return "{" + n.Namespace + "}" + n.LocalName
}

// Lexical returns the prefixed form of the name, prefix:local.
func (n Name) Lexical() string {
	if n.Prefix == "" {
		return n.LocalName
	}

	return n.Prefix + ":" + n.LocalName
}
