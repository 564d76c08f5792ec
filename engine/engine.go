// Package engine defines the contract between the exi event adapters and an
// EXI processor. The processor owns the grammar logic and the packed bit
// stream; exi only drives it through the primitives declared here.
//
// An engine is used synchronously: every primitive is a bounded call over a
// caller-owned Buffer and returns a Code before the next call starts.
// Implementations must not retain the handler or the buffer beyond the
// lifetime of the Stream or Parser they were given to.
package engine

// Engine creates serializer streams, parsers and grammars.
type Engine interface {
	// InitStream prepares a serializer writing into buf. The header is applied
	// before any primitive is called. g is nil in schema-less mode.
	InitStream(buf *Buffer, header Header, g Grammar) (Stream, Code)

	// InitParser prepares a parser reading from buf and reporting every
	// decoded item to h.
	InitParser(buf *Buffer, h ContentHandler) (Parser, Code)

	// GenerateGrammars compiles one or more schema resources into a grammar.
	// The resources are not copied and must stay untouched for the duration
	// of the call.
	GenerateGrammars(resources [][]byte, format SchemaFormat, opts *Options) (Grammar, Code)
}

// Grammar is an opaque, immutable compiled grammar. It is only ever handed
// back to the engine that produced it.
type Grammar interface{}

// SchemaFormat tells the engine how schema resources are encoded.
type SchemaFormat uint8

// List of schema formats.
const (
	SchemaFormatXSDEXI SchemaFormat = iota
	SchemaFormatXSDXML
	SchemaFormatDTD
	SchemaFormatRelaxNG
)

// Stream is a serializer. Each primitive appends the encoding of one event
// to the underlying Buffer. A primitive that cannot fit its encoding in the
// remaining capacity returns CodeBufferEndReached and writes nothing.
type Stream interface {
	// ExiHeader writes the EXI header.
	ExiHeader() Code
	StartDocument() Code
	EndDocument() Code
	// StartElement returns the type class of the element content. It must
	// be passed to the value primitives encoding that content.
	StartElement(qname QName) (TypeClass, Code)
	EndElement() Code
	// Attribute returns the type class of the attribute value.
	Attribute(qname QName, isSchemaType bool) (TypeClass, Code)
	IntData(tc TypeClass, v int64) Code
	BooleanData(tc TypeClass, v bool) Code
	StringData(tc TypeClass, v string) Code
	FloatData(tc TypeClass, v Float) Code
	BinaryData(tc TypeClass, v []byte) Code
	DateTimeData(tc TypeClass, v DateTime) Code
	// ListData announces itemCount values encoded with tc.
	ListData(tc TypeClass, itemCount uint32) Code
	QNameData(tc TypeClass, v QName) Code
	NamespaceDeclaration(namespace, prefix string, isLocalElement bool) Code
	// Close flushes pending bits and releases the stream.
	Close() Code
}

// Parser decodes a stream one item at a time.
type Parser interface {
	// ParseHeader decodes the EXI header. oob is used when the header
	// carries no options. It may return CodeBufferEndReached, in which
	// case it can be retried once more input is available.
	ParseHeader(oob *Options) Code

	// SetSchema selects the grammar used for the body. g is nil in
	// schema-less mode.
	SetSchema(g Grammar) Code

	// ParseNext decodes exactly one item and reports it to the handler.
	// It returns CodeBufferEndReached without consuming anything or calling
	// the handler when the buffer does not hold a complete item, and
	// CodeParsingComplete after the end of the document was reported.
	ParseNext() Code

	// Close releases the parser.
	Close() Code
}

// ContentHandler receives decoded items. Strings are owned by the handler
// once delivered; binary payloads are only valid for the duration of the
// call. A non-OK code aborts the parse and is returned by ParseNext.
type ContentHandler interface {
	StartDocument() Code
	EndDocument() Code
	StartElement(qname QName) Code
	EndElement() Code
	Attribute(qname QName) Code
	IntData(v int64) Code
	BooleanData(v bool) Code
	StringData(v string) Code
	FloatData(v Float) Code
	BinaryData(v []byte) Code
	DateTimeData(v DateTime) Code
	DecimalData(v Float) Code
	ListData(tc TypeClass, itemCount uint32) Code
	QNameData(qname QName) Code
	NamespaceDeclaration(namespace, prefix string, isLocalElement bool) Code
}
