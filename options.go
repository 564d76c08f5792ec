package exi

import (
	"math"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/chaisql/exi/engine"
	"github.com/cockroachdb/errors"
)

// DefaultBlockSize is the number of values per compression block used
// when none is configured.
const DefaultBlockSize = 1_000_000

// Unbounded disables a value length or partition capacity limit.
const Unbounded = ^uint(0)

// Alignment selects how the body of a stream is packed.
type Alignment uint8

// List of alignments.
const (
	BitPacked      = Alignment(engine.BitPacked)
	ByteAligned    = Alignment(engine.ByteAlignment)
	PreCompression = Alignment(engine.PreCompression)
)

var alignmentNames = map[Alignment]string{
	BitPacked:      "bit-packed",
	ByteAligned:    "byte-aligned",
	PreCompression: "pre-compression",
}

func (a Alignment) String() string {
	if s, ok := alignmentNames[a]; ok {
		return s
	}

	return "alignment(" + strconv.Itoa(int(a)) + ")"
}

// Preserve is a set of fidelity options. Values can be combined with |.
type Preserve uint8

// Fidelity options.
const (
	PreserveComments      = Preserve(engine.PreserveComments)
	PreservePIs           = Preserve(engine.PreservePIs)
	PreserveDTD           = Preserve(engine.PreserveDTD)
	PreservePrefixes      = Preserve(engine.PreservePrefixes)
	PreserveLexicalValues = Preserve(engine.PreserveLexValues)
)

var preserveNames = []struct {
	p    Preserve
	name string
}{
	{PreserveComments, "comments"},
	{PreservePIs, "pis"},
	{PreserveDTD, "dtd"},
	{PreservePrefixes, "prefixes"},
	{PreserveLexicalValues, "lexicalValues"},
}

// Has returns true if every option of other is in p.
func (p Preserve) Has(other Preserve) bool {
	return p&other == other
}

// SchemaIDMode tells how the schemaId header option is set.
type SchemaIDMode uint8

// List of schema id modes.
const (
	SchemaIDAbsent = SchemaIDMode(engine.SchemaIDAbsent)
	SchemaIDSet    = SchemaIDMode(engine.SchemaIDSet)
	SchemaIDNil    = SchemaIDMode(engine.SchemaIDNil)
	SchemaIDEmpty  = SchemaIDMode(engine.SchemaIDEmpty)
)

var schemaIDModeNames = map[SchemaIDMode]string{
	SchemaIDAbsent: "absent",
	SchemaIDSet:    "set",
	SchemaIDNil:    "nil",
	SchemaIDEmpty:  "empty",
}

func (m SchemaIDMode) String() string {
	if s, ok := schemaIDModeNames[m]; ok {
		return s
	}

	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// Options are the EXI options of a stream. Options are values: every
// With method returns a modified copy and leaves the receiver untouched.
// Use NewOptions to get the defaults.
type Options struct {
	enumOpt                uint8
	preserve               Preserve
	schemaIDMode           SchemaIDMode
	schemaID               string
	blockSize              uint32
	valueMaxLength         uint
	valuePartitionCapacity uint
}

// NewOptions returns bit-packed, uncompressed, non-strict options without
// value limits and with the default block size.
func NewOptions() Options {
	return Options{
		blockSize:              DefaultBlockSize,
		valueMaxLength:         Unbounded,
		valuePartitionCapacity: Unbounded,
	}
}

// WithAlignment replaces the alignment.
func (o Options) WithAlignment(a Alignment) Options {
	o.enumOpt = o.enumOpt&^engine.AlignmentMask | uint8(a)&engine.AlignmentMask
	return o
}

func (o Options) WithCompression(enabled bool) Options {
	o.enumOpt = setBit(o.enumOpt, engine.Compression, enabled)
	return o
}

func (o Options) WithStrict(enabled bool) Options {
	o.enumOpt = setBit(o.enumOpt, engine.Strict, enabled)
	return o
}

func (o Options) WithFragment(enabled bool) Options {
	o.enumOpt = setBit(o.enumOpt, engine.Fragment, enabled)
	return o
}

func (o Options) WithSelfContained(enabled bool) Options {
	o.enumOpt = setBit(o.enumOpt, engine.SelfContained, enabled)
	return o
}

// WithPreserve replaces the set of fidelity options.
func (o Options) WithPreserve(p Preserve) Options {
	o.preserve = p
	return o
}

// WithSchemaID sets the schema id and switches the mode to SchemaIDSet.
func (o Options) WithSchemaID(id string) Options {
	o.schemaIDMode = SchemaIDSet
	o.schemaID = id
	return o
}

// WithSchemaIDMode sets the schema id mode. The schema id is cleared
// unless the mode is SchemaIDSet.
func (o Options) WithSchemaIDMode(m SchemaIDMode) Options {
	o.schemaIDMode = m
	if m != SchemaIDSet {
		o.schemaID = ""
	}
	return o
}

func (o Options) WithBlockSize(n uint32) Options {
	o.blockSize = n
	return o
}

// WithValueMaxLength sets the maximum length of values added to the
// string table. Use Unbounded to remove the limit.
func (o Options) WithValueMaxLength(n uint) Options {
	o.valueMaxLength = n
	return o
}

// WithValuePartitionCapacity sets the maximum number of values in the
// string table. Use Unbounded to remove the limit.
func (o Options) WithValuePartitionCapacity(n uint) Options {
	o.valuePartitionCapacity = n
	return o
}

func (o Options) Alignment() Alignment {
	return Alignment(o.enumOpt & engine.AlignmentMask)
}

func (o Options) Compression() bool {
	return o.enumOpt&engine.Compression != 0
}

func (o Options) Strict() bool {
	return o.enumOpt&engine.Strict != 0
}

func (o Options) Fragment() bool {
	return o.enumOpt&engine.Fragment != 0
}

func (o Options) SelfContained() bool {
	return o.enumOpt&engine.SelfContained != 0
}

func (o Options) Preserve() Preserve {
	return o.preserve
}

func (o Options) SchemaIDMode() SchemaIDMode {
	return o.schemaIDMode
}

// SchemaID returns the schema id and whether it was set.
func (o Options) SchemaID() (string, bool) {
	return o.schemaID, o.schemaIDMode == SchemaIDSet
}

func (o Options) BlockSize() uint32 {
	return o.blockSize
}

func (o Options) ValueMaxLength() uint {
	return o.valueMaxLength
}

func (o Options) ValuePartitionCapacity() uint {
	return o.valuePartitionCapacity
}

// raw returns the engine options record. When no schema id was set the
// record carries the empty string.
func (o Options) raw() engine.Options {
	return engine.Options{
		EnumOpt:                o.enumOpt,
		Preserve:               uint8(o.preserve),
		SchemaIDMode:           uint8(o.schemaIDMode),
		SchemaID:               o.schemaID,
		BlockSize:              o.blockSize,
		ValueMaxLength:         o.valueMaxLength,
		ValuePartitionCapacity: o.valuePartitionCapacity,
	}
}

func setBit(flags, bit uint8, on bool) uint8 {
	if on {
		return flags | bit
	}
	return flags &^ bit
}

// MarshalJSON implements the json.Marshaler interface.
func (o Options) MarshalJSON() ([]byte, error) {
	dst := []byte(`{"alignment":`)
	dst = strconv.AppendQuote(dst, o.Alignment().String())
	dst = append(dst, `,"compression":`...)
	dst = strconv.AppendBool(dst, o.Compression())
	dst = append(dst, `,"strict":`...)
	dst = strconv.AppendBool(dst, o.Strict())
	dst = append(dst, `,"fragment":`...)
	dst = strconv.AppendBool(dst, o.Fragment())
	dst = append(dst, `,"selfContained":`...)
	dst = strconv.AppendBool(dst, o.SelfContained())

	dst = append(dst, `,"preserve":[`...)
	first := true
	for _, pn := range preserveNames {
		if !o.preserve.Has(pn.p) {
			continue
		}
		if !first {
			dst = append(dst, ',')
		}
		first = false
		dst = strconv.AppendQuote(dst, pn.name)
	}
	dst = append(dst, ']')

	dst = append(dst, `,"schemaIdMode":`...)
	dst = strconv.AppendQuote(dst, o.schemaIDMode.String())
	if id, ok := o.SchemaID(); ok {
		dst = append(dst, `,"schemaId":`...)
		dst = strconv.AppendQuote(dst, id)
	}
	dst = append(dst, `,"blockSize":`...)
	dst = strconv.AppendUint(dst, uint64(o.blockSize), 10)
	dst = append(dst, `,"valueMaxLength":`...)
	dst = appendLimit(dst, o.valueMaxLength)
	dst = append(dst, `,"valuePartitionCapacity":`...)
	dst = appendLimit(dst, o.valuePartitionCapacity)

	return append(dst, '}'), nil
}

func appendLimit(dst []byte, n uint) []byte {
	if n == Unbounded {
		return append(dst, `"unbounded"`...)
	}

	return strconv.AppendUint(dst, uint64(n), 10)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// Missing keys keep their default value and unknown keys are rejected.
func (o *Options) UnmarshalJSON(data []byte) error {
	opts := NewOptions()

	var schemaID *string
	var mode *SchemaIDMode

	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, offset int) error {
		var err error

		switch k := string(key); k {
		case "alignment":
			var s string
			s, err = parseJSONString(k, value, dataType)
			if err != nil {
				return err
			}
			a, ok := lookupName(alignmentNames, s)
			if !ok {
				return errors.Errorf("invalid alignment %q", s)
			}
			opts = opts.WithAlignment(a)
		case "compression", "strict", "fragment", "selfContained":
			var b bool
			b, err = parseJSONBool(k, value, dataType)
			if err != nil {
				return err
			}
			switch k {
			case "compression":
				opts = opts.WithCompression(b)
			case "strict":
				opts = opts.WithStrict(b)
			case "fragment":
				opts = opts.WithFragment(b)
			default:
				opts = opts.WithSelfContained(b)
			}
		case "preserve":
			var p Preserve
			p, err = parsePreserve(value, dataType)
			if err != nil {
				return err
			}
			opts = opts.WithPreserve(p)
		case "schemaIdMode":
			var s string
			s, err = parseJSONString(k, value, dataType)
			if err != nil {
				return err
			}
			m, ok := lookupName(schemaIDModeNames, s)
			if !ok {
				return errors.Errorf("invalid schema id mode %q", s)
			}
			mode = &m
		case "schemaId":
			var s string
			s, err = parseJSONString(k, value, dataType)
			if err != nil {
				return err
			}
			schemaID = &s
		case "blockSize":
			var n uint64
			n, err = parseJSONUint(k, value, dataType, math.MaxUint32)
			if err != nil {
				return err
			}
			opts = opts.WithBlockSize(uint32(n))
		case "valueMaxLength", "valuePartitionCapacity":
			var n uint
			n, err = parseJSONLimit(k, value, dataType)
			if err != nil {
				return err
			}
			if k == "valueMaxLength" {
				opts = opts.WithValueMaxLength(n)
			} else {
				opts = opts.WithValuePartitionCapacity(n)
			}
		default:
			return errors.Errorf("unknown option %q", k)
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "invalid options")
	}

	if schemaID != nil {
		opts = opts.WithSchemaID(*schemaID)
	}
	if mode != nil {
		if *mode == SchemaIDSet && schemaID == nil {
			return errors.New("invalid options: schema id mode set without schemaId")
		}
		if *mode != SchemaIDSet && schemaID != nil {
			return errors.Errorf("invalid options: schemaId given with schema id mode %s", *mode)
		}
		opts = opts.WithSchemaIDMode(*mode)
	}

	*o = opts
	return nil
}

func lookupName[T comparable](names map[T]string, s string) (T, bool) {
	for k, name := range names {
		if name == s {
			return k, true
		}
	}

	var zero T
	return zero, false
}

func parsePreserve(value []byte, dataType jsonparser.ValueType) (Preserve, error) {
	if dataType != jsonparser.Array {
		return 0, errors.New("preserve must be an array")
	}

	var p Preserve
	var ierr error
	_, err := jsonparser.ArrayEach(value, func(item []byte, dataType jsonparser.ValueType, offset int, err error) {
		if ierr != nil {
			return
		}
		var s string
		s, ierr = parseJSONString("preserve", item, dataType)
		if ierr != nil {
			return
		}
		for _, pn := range preserveNames {
			if pn.name == s {
				p |= pn.p
				return
			}
		}
		ierr = errors.Errorf("invalid preserve option %q", s)
	})
	if ierr != nil {
		return 0, ierr
	}
	if err != nil {
		return 0, err
	}

	return p, nil
}

func parseJSONString(key string, value []byte, dataType jsonparser.ValueType) (string, error) {
	if dataType != jsonparser.String {
		return "", errors.Errorf("%s must be a string", key)
	}

	return jsonparser.ParseString(value)
}

func parseJSONBool(key string, value []byte, dataType jsonparser.ValueType) (bool, error) {
	if dataType != jsonparser.Boolean {
		return false, errors.Errorf("%s must be a boolean", key)
	}

	return jsonparser.ParseBoolean(value)
}

func parseJSONUint(key string, value []byte, dataType jsonparser.ValueType, max uint64) (uint64, error) {
	if dataType != jsonparser.Number {
		return 0, errors.Errorf("%s must be a number", key)
	}

	n, err := jsonparser.ParseInt(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	if n < 0 || uint64(n) > max {
		return 0, errors.Errorf("%s out of range: %d", key, n)
	}

	return uint64(n), nil
}

func parseJSONLimit(key string, value []byte, dataType jsonparser.ValueType) (uint, error) {
	if dataType == jsonparser.String {
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return 0, err
		}
		if s != "unbounded" {
			return 0, errors.Errorf("invalid %s %q", key, s)
		}
		return Unbounded, nil
	}

	n, err := parseJSONUint(key, value, dataType, math.MaxInt64)
	return uint(n), err
}

// Header is the EXI header of a stream. Like Options, Header is a value
// and every With method returns a modified copy.
type Header struct {
	hasCookie        bool
	hasOptions       bool
	isPreviewVersion bool
	version          int16
	opts             Options
}

// NewHeader returns a final version 1 header with default options, without
// cookie and without options in the stream.
func NewHeader() Header {
	return Header{
		version: 1,
		opts:    NewOptions(),
	}
}

// WithCookie writes the "$EXI" cookie before the header.
func (h Header) WithCookie(enabled bool) Header {
	h.hasCookie = enabled
	return h
}

// WithOptionsInStream writes the options in the header. When disabled,
// readers must be given the options out of band.
func (h Header) WithOptionsInStream(enabled bool) Header {
	h.hasOptions = enabled
	return h
}

func (h Header) WithPreviewVersion(enabled bool) Header {
	h.isPreviewVersion = enabled
	return h
}

func (h Header) WithVersion(v int16) Header {
	h.version = v
	return h
}

func (h Header) WithOptions(o Options) Header {
	h.opts = o
	return h
}

func (h Header) HasCookie() bool        { return h.hasCookie }
func (h Header) HasOptions() bool       { return h.hasOptions }
func (h Header) IsPreviewVersion() bool { return h.isPreviewVersion }
func (h Header) Version() int16         { return h.version }
func (h Header) Options() Options       { return h.opts }

func (h Header) raw() engine.Header {
	return engine.Header{
		HasCookie:        h.hasCookie,
		HasOptions:       h.hasOptions,
		IsPreviewVersion: h.isPreviewVersion,
		VersionNumber:    h.version,
		Opts:             h.opts.raw(),
	}
}

// MarshalJSON implements the json.Marshaler interface.
func (h Header) MarshalJSON() ([]byte, error) {
	opts, err := h.opts.MarshalJSON()
	if err != nil {
		return nil, err
	}

	dst := []byte(`{"cookie":`)
	dst = strconv.AppendBool(dst, h.hasCookie)
	dst = append(dst, `,"options":`...)
	dst = strconv.AppendBool(dst, h.hasOptions)
	dst = append(dst, `,"preview":`...)
	dst = strconv.AppendBool(dst, h.isPreviewVersion)
	dst = append(dst, `,"version":`...)
	dst = strconv.AppendInt(dst, int64(h.version), 10)
	dst = append(dst, `,"opts":`...)
	dst = append(dst, opts...)

	return append(dst, '}'), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// Missing keys keep their default value and unknown keys are rejected.
func (h *Header) UnmarshalJSON(data []byte) error {
	hdr := NewHeader()

	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, offset int) error {
		switch k := string(key); k {
		case "cookie", "options", "preview":
			b, err := parseJSONBool(k, value, dataType)
			if err != nil {
				return err
			}
			switch k {
			case "cookie":
				hdr.hasCookie = b
			case "options":
				hdr.hasOptions = b
			default:
				hdr.isPreviewVersion = b
			}
		case "version":
			n, err := parseJSONUint(k, value, dataType, math.MaxInt16)
			if err != nil {
				return err
			}
			hdr.version = int16(n)
		case "opts":
			if dataType != jsonparser.Object {
				return errors.New("opts must be an object")
			}
			return hdr.opts.UnmarshalJSON(value)
		default:
			return errors.Errorf("unknown header field %q", k)
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "invalid header")
	}

	*h = hdr
	return nil
}
