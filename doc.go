/*
Package exi reads and writes Efficient XML Interchange (EXI) streams as
sequences of typed events.

EXI is a compact binary encoding of an XML infoset. This package does not
implement the EXI bit stream itself: it drives an EXI processor through the
small, callback-driven contract declared by the engine package, and adapts
it to an event model that is easy to produce and consume from Go.

# Events

A document is a sequence of events:

	StartDocument
	StartElement{Name: types.NewName("urn:example", "root")}
	Attribute{Key: types.NewName("", "id"), Value: types.NewIntegerValue(1001)}
	Value{Value: types.NewStringValue("hello")}
	EndElement
	EndDocument

Values are typed (see the types package). Without a schema, the processor
only knows about strings and every value is written using its lexical form.

# Writer and Reader

A Writer pushes events into an engine stream and accumulates the encoded
bytes in a buffer it owns. A Reader pulls events out of an engine parser,
refilling its input buffer from an io.Reader when the engine needs more
bytes. Both optionally take a Schema, compiled once from pre-encoded schema
resources and shared by any number of readers and writers.

Neither Writer nor Reader is safe for concurrent use. A Schema is immutable
and can be used concurrently.
*/
package exi
