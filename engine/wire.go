package engine

// Buffer is a caller-owned byte area shared with a Stream or a Parser.
// Buf's length is the capacity. The engine writes or reads Buf[:Content]
// and advances Consumed past every fully decoded item, so the owner can
// compact and refill the buffer between two ParseNext calls.
// The owner may replace Buf with a larger slice holding the same content.
type Buffer struct {
	Buf      []byte
	Content  int
	Consumed int
}

// Bytes returns the valid prefix of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.Buf[:b.Content]
}

// Unread returns the bytes that were not consumed yet.
func (b *Buffer) Unread() []byte {
	return b.Buf[b.Consumed:b.Content]
}

// Free returns the remaining capacity.
func (b *Buffer) Free() int {
	return len(b.Buf) - b.Content
}

// QName is the engine representation of a qualified name.
// An empty Prefix means no prefix.
type QName struct {
	URI       string
	LocalName string
	Prefix    string
}

// TypeClass identifies the grammar production active after a StartElement
// or an Attribute. It is opaque to the caller.
type TypeClass uint32

// Float is an IEEE-754 double split at bit 52.
type Float struct {
	Mantissa int64
	Exponent int16
}

// BrokenDownTime is a calendar time split in fields.
// Mon is zero-based and Year is the number of years since 1900.
type BrokenDownTime struct {
	Sec  int
	Min  int
	Hour int
	MDay int
	Mon  int
	Year int
}

// FractionalSecs holds the sub-second part of a DateTime.
// Value is expressed in units of 10^-(Offset+1) seconds.
type FractionalSecs struct {
	Value  uint32
	Offset uint8
}

// Presence bits of DateTime.PresenceMask.
const (
	TZonePresence uint8 = 0x01
	FractPresence uint8 = 0x02
)

// DateTime is the engine representation of an xsd:dateTime.
type DateTime struct {
	DateTime     BrokenDownTime
	FSecs        FractionalSecs
	TZone        int16
	PresenceMask uint8
}

// Bits of Options.EnumOpt.
const (
	AlignmentMask  uint8 = 0xc0
	BitPacked      uint8 = 0x00
	ByteAlignment  uint8 = 0x40
	PreCompression uint8 = 0x80
	Compression    uint8 = 0x01
	Strict         uint8 = 0x02
	Fragment       uint8 = 0x04
	SelfContained  uint8 = 0x08
)

// Bits of Options.Preserve.
const (
	PreserveComments  uint8 = 0x01
	PreservePIs       uint8 = 0x02
	PreserveDTD       uint8 = 0x04
	PreservePrefixes  uint8 = 0x08
	PreserveLexValues uint8 = 0x10
)

// Values of Options.SchemaIDMode.
const (
	SchemaIDAbsent uint8 = iota
	SchemaIDSet
	SchemaIDNil
	SchemaIDEmpty
)

// Options is the packed options record of an EXI header.
type Options struct {
	EnumOpt                uint8
	Preserve               uint8
	SchemaIDMode           uint8
	SchemaID               string
	BlockSize              uint32
	ValueMaxLength         uint
	ValuePartitionCapacity uint
}

// Header is the EXI header record.
type Header struct {
	HasCookie        bool
	HasOptions       bool
	IsPreviewVersion bool
	VersionNumber    int16
	Opts             Options
}
