package exi

import (
	"strconv"
	"strings"

	"github.com/chaisql/exi/types"
)

// An Event is one item of an EXI document.
// The concrete types are StartDocument, EndDocument, StartElement,
// EndElement, Attribute, NamespaceDeclaration, TypeAttribute and Value.
type Event interface {
	// String returns a short debugging representation of the event.
	String() string

	event()
}

type StartDocument struct{}

type EndDocument struct{}

type StartElement struct {
	Name types.Name
}

type EndElement struct{}

// Attribute is an attribute of the current element, with its value.
type Attribute struct {
	Key   types.Name
	Value types.Value
}

// NamespaceDeclaration binds Prefix to Namespace. IsLocal is set when the
// declaration belongs to the element that was just started.
type NamespaceDeclaration struct {
	Namespace string
	Prefix    string
	IsLocal   bool
}

// TypeAttribute is an xsi:type attribute naming the type of the
// current element.
type TypeAttribute struct {
	Name types.Name
}

// Value is the content of the current element.
type Value struct {
	Value types.Value
}

func (StartDocument) event()        {}
func (EndDocument) event()          {}
func (StartElement) event()         {}
func (EndElement) event()           {}
func (Attribute) event()            {}
func (NamespaceDeclaration) event() {}
func (TypeAttribute) event()        {}
func (Value) event()                {}

func (StartDocument) String() string { return "SD" }
func (EndDocument) String() string   { return "ED" }
func (EndElement) String() string    { return "EE" }

func (e StartElement) String() string {
	return "SE(" + e.Name.String() + ")"
}

func (e Attribute) String() string {
	var sb strings.Builder
	sb.WriteString("AT(")
	sb.WriteString(e.Key.String())
	sb.WriteByte('=')
	sb.WriteString(quoteValue(e.Value))
	sb.WriteByte(')')
	return sb.String()
}

func (e NamespaceDeclaration) String() string {
	s := "NS(" + e.Prefix + "=" + e.Namespace
	if e.IsLocal {
		s += ", local"
	}
	return s + ")"
}

func (e TypeAttribute) String() string {
	return "TY(" + e.Name.String() + ")"
}

func (e Value) String() string {
	return "CH(" + quoteValue(e.Value) + ")"
}

func quoteValue(v types.Value) string {
	if v == nil {
		return "<nil>"
	}

	return strconv.Quote(v.String())
}
