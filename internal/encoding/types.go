package encoding

// Types used to encode values on the memory tape.
// Each type is encoded on 1 byte and precedes the value payload.
// Gaps are left between each family to allow adding new types in the future.
const (
	// Booleans
	FalseValue byte = 5
	TrueValue  byte = 6

	// Negative integers
	Int64Value byte = 12
	Int32Value byte = 13
	Int16Value byte = 14
	Int8Value  byte = 15

	// Contiguous block of 64 integers.
	// Types from 16 to 79 represent
	// values from -32 to 31
	IntSmallValue byte = 16

	// Positive integers
	Uint8Value  byte = 80
	Uint16Value byte = 81
	Uint32Value byte = 82
	Uint64Value byte = 83

	// Text
	TextValue byte = 98

	// Binary
	BlobValue byte = 103
)

// Tokens of the memory tape. Each engine primitive is encoded as
// one token byte followed by its payload.
const (
	StartDocumentToken byte = 0x01
	EndDocumentToken   byte = 0x02
	StartElementToken  byte = 0x03
	EndElementToken    byte = 0x04
	AttributeToken     byte = 0x05
	NamespaceToken     byte = 0x06

	IntToken      byte = 0x10
	BooleanToken  byte = 0x11
	StringToken   byte = 0x12
	FloatToken    byte = 0x13
	BinaryToken   byte = 0x14
	DateTimeToken byte = 0x15
	ListToken     byte = 0x16
	QNameToken    byte = 0x17
	DecimalToken  byte = 0x18
)
