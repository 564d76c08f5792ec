// Package memoryengine implements an engine.Engine encoding events on a
// compact token tape held in the caller's buffer.
//
// The tape is not an EXI bit stream: grammars are only fingerprinted and
// no string table is maintained. It exists to run the exi adapters without
// an external processor and to check that they honour the engine contract:
// header validation, type class threading, atomic writes and incremental
// parsing.
//
// A tape starts with an optional "$EXI" cookie, followed by a
// distinguishing byte 0b10OPVVVV (O: options present, P: preview version,
// V: version minus one), the options record when present, and a grammar
// marker: 0 for schema-less streams, or 1 and the 64-bit fingerprint of
// the grammar. Every primitive then appends one token byte and its payload.
package memoryengine

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/internal/encoding"
	"github.com/cockroachdb/errors"
)

const cookie = "$EXI"

// Bits of the distinguishing byte.
const (
	distinguishingBits byte = 0x80
	distinguishingMask byte = 0xc0
	optionsBit         byte = 0x20
	previewBit         byte = 0x10
	versionMask        byte = 0x0f
)

// Engine is the tape engine. It holds no state and can be shared.
type Engine struct{}

var _ engine.Engine = (*Engine)(nil)

// NewEngine creates a tape engine.
func NewEngine() *Engine {
	return &Engine{}
}

// grammar only identifies the resources it was generated from.
type grammar struct {
	fingerprint uint64
}

// GenerateGrammars fingerprints the resources. Only EXI-encoded XML Schema
// resources are supported.
func (ng *Engine) GenerateGrammars(resources [][]byte, format engine.SchemaFormat, opts *engine.Options) (engine.Grammar, engine.Code) {
	if format != engine.SchemaFormatXSDEXI {
		return nil, engine.CodeNotImplemented
	}
	if len(resources) == 0 {
		return nil, engine.CodeInvalidEXIInput
	}
	if opts != nil {
		if c := validateOptions(opts); c != engine.OK {
			return nil, c
		}
	}

	d := xxhash.New()
	var lb [binary.MaxVarintLen64]byte
	for _, r := range resources {
		if len(r) == 0 {
			return nil, engine.CodeInvalidEXIInput
		}
		n := binary.PutUvarint(lb[:], uint64(len(r)))
		_, _ = d.Write(lb[:n])
		_, _ = d.Write(r)
	}

	return &grammar{fingerprint: d.Sum64()}, engine.OK
}

// InitStream validates the header and returns a stream writing into buf.
func (ng *Engine) InitStream(buf *engine.Buffer, header engine.Header, g engine.Grammar) (engine.Stream, engine.Code) {
	if buf == nil {
		return nil, engine.CodeNullPointerRef
	}
	if c := validateHeader(&header); c != engine.OK {
		return nil, c
	}

	gr, c := toGrammar(g)
	if c != engine.OK {
		return nil, c
	}

	return &stream{
		buf:     buf,
		header:  header,
		grammar: gr,
	}, engine.OK
}

// InitParser returns a parser reading from buf.
func (ng *Engine) InitParser(buf *engine.Buffer, h engine.ContentHandler) (engine.Parser, engine.Code) {
	if buf == nil || h == nil {
		return nil, engine.CodeNullPointerRef
	}

	return &parser{
		buf: buf,
		h:   h,
	}, engine.OK
}

func toGrammar(g engine.Grammar) (*grammar, engine.Code) {
	if g == nil {
		return nil, engine.OK
	}

	gr, ok := g.(*grammar)
	if !ok || gr == nil {
		return nil, engine.CodeInvalidEXIPConfig
	}

	return gr, engine.OK
}

func validateHeader(h *engine.Header) engine.Code {
	if h.VersionNumber != 1 {
		return engine.CodeInvalidHeader
	}

	return validateOptions(&h.Opts)
}

func validateOptions(o *engine.Options) engine.Code {
	switch o.EnumOpt & engine.AlignmentMask {
	case engine.BitPacked, engine.ByteAlignment:
	case engine.PreCompression:
		return engine.CodeNotImplemented
	default:
		return engine.CodeInvalidEXIPConfig
	}

	if o.EnumOpt&(engine.Compression|engine.SelfContained) != 0 {
		return engine.CodeNotImplemented
	}

	const strictForbidden = engine.PreserveComments | engine.PreservePIs | engine.PreserveDTD | engine.PreservePrefixes
	if o.EnumOpt&engine.Strict != 0 && o.Preserve&strictForbidden != 0 {
		return engine.CodeHeaderOptionsMismatch
	}

	switch o.SchemaIDMode {
	case engine.SchemaIDAbsent, engine.SchemaIDNil, engine.SchemaIDEmpty:
	case engine.SchemaIDSet:
		if o.SchemaID == "" {
			return engine.CodeInvalidEXIPConfig
		}
	default:
		return engine.CodeInvalidEXIPConfig
	}

	return engine.OK
}

// DefaultOptions returns the options assumed by a parser when the stream
// carries none and none are given out of band.
func DefaultOptions() engine.Options {
	return engine.Options{
		BlockSize:              1_000_000,
		ValueMaxLength:         math.MaxUint,
		ValuePartitionCapacity: math.MaxUint,
	}
}

func appendHeader(dst []byte, h *engine.Header, g *grammar) []byte {
	if h.HasCookie {
		dst = append(dst, cookie...)
	}

	b := distinguishingBits | byte(h.VersionNumber-1)&versionMask
	if h.HasOptions {
		b |= optionsBit
	}
	if h.IsPreviewVersion {
		b |= previewBit
	}
	dst = append(dst, b)

	if h.HasOptions {
		dst = appendOptions(dst, &h.Opts)
	}

	if g == nil {
		return append(dst, 0)
	}
	dst = append(dst, 1)
	return binary.BigEndian.AppendUint64(dst, g.fingerprint)
}

func appendOptions(dst []byte, o *engine.Options) []byte {
	dst = append(dst, o.EnumOpt, o.Preserve, o.SchemaIDMode)
	if o.SchemaIDMode == engine.SchemaIDSet {
		dst = encoding.EncodeText(dst, o.SchemaID)
	}
	dst = encoding.EncodeUint(dst, uint64(o.BlockSize))
	dst = encoding.EncodeUint(dst, uint64(o.ValueMaxLength))
	return encoding.EncodeUint(dst, uint64(o.ValuePartitionCapacity))
}

// decodedHeader is the result of decoding the beginning of a tape.
type decodedHeader struct {
	header      engine.Header
	hasGrammar  bool
	fingerprint uint64
}

// decodeHeader decodes a header. It returns encoding.ErrShortBuffer if b
// does not hold the complete header.
func decodeHeader(b []byte, oob *engine.Options) (decodedHeader, int, error) {
	var dh decodedHeader
	var off int

	if len(b) == 0 {
		return dh, 0, encoding.ErrShortBuffer
	}
	if b[0] == cookie[0] {
		if len(b) < len(cookie) {
			return dh, 0, encoding.ErrShortBuffer
		}
		if string(b[:len(cookie)]) != cookie {
			return dh, 0, errors.Wrap(encoding.ErrInvalidEncoding, "invalid cookie")
		}
		dh.header.HasCookie = true
		off += len(cookie)
	}

	if len(b) <= off {
		return dh, 0, encoding.ErrShortBuffer
	}
	db := b[off]
	off++
	if db&distinguishingMask != distinguishingBits {
		return dh, 0, errors.Wrapf(encoding.ErrInvalidEncoding, "invalid distinguishing bits %#x", db)
	}
	dh.header.HasOptions = db&optionsBit != 0
	dh.header.IsPreviewVersion = db&previewBit != 0
	dh.header.VersionNumber = int16(db&versionMask) + 1

	switch {
	case dh.header.HasOptions:
		o, n, err := decodeOptions(b[off:])
		if err != nil {
			return dh, 0, err
		}
		dh.header.Opts = o
		off += n
	case oob != nil:
		dh.header.Opts = *oob
	default:
		dh.header.Opts = DefaultOptions()
	}

	if len(b) <= off {
		return dh, 0, encoding.ErrShortBuffer
	}
	switch b[off] {
	case 0:
		off++
	case 1:
		off++
		if len(b) < off+8 {
			return dh, 0, encoding.ErrShortBuffer
		}
		dh.hasGrammar = true
		dh.fingerprint = binary.BigEndian.Uint64(b[off:])
		off += 8
	default:
		return dh, 0, errors.Wrapf(encoding.ErrInvalidEncoding, "invalid grammar marker %#x", b[off])
	}

	return dh, off, nil
}

func decodeOptions(b []byte) (engine.Options, int, error) {
	var o engine.Options

	if len(b) < 3 {
		return o, 0, encoding.ErrShortBuffer
	}
	o.EnumOpt, o.Preserve, o.SchemaIDMode = b[0], b[1], b[2]
	off := 3

	if o.SchemaIDMode == engine.SchemaIDSet {
		s, n, err := encoding.DecodeText(b[off:])
		if err != nil {
			return o, 0, err
		}
		o.SchemaID = s
		off += n
	}

	bs, n, err := decodeUint(b[off:])
	if err != nil {
		return o, 0, err
	}
	if bs > math.MaxUint32 {
		return o, 0, errors.Wrapf(encoding.ErrInvalidEncoding, "block size %d out of range", bs)
	}
	o.BlockSize = uint32(bs)
	off += n

	vml, n, err := decodeUint(b[off:])
	if err != nil {
		return o, 0, err
	}
	o.ValueMaxLength = uint(vml)
	off += n

	vpc, n, err := decodeUint(b[off:])
	if err != nil {
		return o, 0, err
	}
	o.ValuePartitionCapacity = uint(vpc)
	off += n

	return o, off, nil
}

// decodeUint decodes an integer written with encoding.EncodeUint.
func decodeUint(b []byte) (uint64, int, error) {
	x, n, err := encoding.DecodeInt(b)
	if err != nil {
		return 0, 0, err
	}

	// values above math.MaxInt64 are decoded as negative numbers
	return uint64(x), n, nil
}

// codeOf maps a decoding error to an engine code.
// A short buffer means more input is needed.
func codeOf(err error, invalid engine.Code) engine.Code {
	if errors.Is(err, encoding.ErrShortBuffer) {
		return engine.CodeBufferEndReached
	}

	return invalid
}
