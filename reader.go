package exi

import (
	"io"

	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/internal/encoding"
	"github.com/chaisql/exi/types"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slices"
)

const defaultBufferSize = 8 * 1024

// Reader decodes events from an EXI stream.
// Next returns the events in document order, EndDocument being the last
// one, then io.EOF. A Reader is single-pass and cannot be rewound.
type Reader struct {
	src     io.Reader
	srcDone bool

	parser engine.Parser
	buf    engine.Buffer
	h      handler

	done   bool
	closed bool
	err    error
}

// NewReader decodes the header of the stream read from src and prepares
// the decoding of its body. s must have been compiled by e, or be nil to
// decode a schema-less stream. opts is used when the header carries no
// options, it may be nil.
func NewReader(e engine.Engine, src io.Reader, s *Schema, opts *Options) (*Reader, error) {
	r := Reader{
		src: src,
		buf: engine.Buffer{Buf: make([]byte, defaultBufferSize)},
	}

	p, code := e.InitParser(&r.buf, &r.h)
	if err := checkCode(code, "cannot init parser"); err != nil {
		return nil, err
	}
	r.parser = p

	var oob *engine.Options
	if opts != nil {
		o := opts.raw()
		oob = &o
	}

	err := r.retry("cannot parse header", func() engine.Code {
		return p.ParseHeader(oob)
	})
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	var g engine.Grammar
	if s != nil {
		g = s.grammar
	}
	if err := checkCode(p.SetSchema(g), "cannot set schema"); err != nil {
		_ = p.Close()
		return nil, err
	}

	return &r, nil
}

// Next returns the next event of the stream.
// It returns io.EOF once EndDocument was returned. Any other error is
// returned by every subsequent call.
func (r *Reader) Next() (Event, error) {
	if r.closed {
		return nil, errors.WithStack(ErrClosed)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}

	for {
		code := r.parser.ParseNext()

		switch code {
		case engine.OK:
			ev := r.h.take()
			if ev == nil {
				// pending attribute or list
				continue
			}
			if _, ok := ev.(EndDocument); ok {
				r.done = true
			}
			return ev, nil
		case engine.CodeBufferEndReached:
			if err := r.fill(); err != nil {
				return r.fail(err)
			}
		case engine.CodeParsingComplete:
			if r.h.pending() {
				return r.fail(errors.Wrap(ErrUnexpectedState, "stream ended inside an attribute or a list"))
			}
			r.done = true
			return EndDocument{}, nil
		default:
			if r.h.err != nil {
				return r.fail(r.h.err)
			}
			return r.fail(checkCode(code, "cannot parse next item"))
		}
	}
}

// ReadAll returns the remaining events of the stream.
func (r *Reader) ReadAll() ([]Event, error) {
	var events []Event
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

// Close releases the parser. It does not close the source.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	return checkCode(r.parser.Close(), "cannot close parser")
}

func (r *Reader) fail(err error) (Event, error) {
	r.err = err
	return nil, err
}

// retry calls fn until it stops asking for more input.
func (r *Reader) retry(op string, fn func() engine.Code) error {
	for {
		code := fn()
		if code != engine.CodeBufferEndReached {
			return checkCode(code, op)
		}
		if err := r.fill(); err != nil {
			return err
		}
	}
}

// fill moves the unread bytes to the beginning of the buffer, grows it if
// it is full and reads more input from the source.
func (r *Reader) fill() error {
	if r.srcDone {
		return errors.Wrap(io.ErrUnexpectedEOF, "truncated stream")
	}

	b := &r.buf
	if b.Consumed > 0 {
		b.Content = copy(b.Buf, b.Buf[b.Consumed:b.Content])
		b.Consumed = 0
	}
	if b.Free() == 0 {
		grown := make([]byte, 2*len(b.Buf))
		copy(grown, b.Buf[:b.Content])
		b.Buf = grown
	}

	n, err := io.ReadAtLeast(r.src, b.Buf[b.Content:], 1)
	b.Content += n
	switch {
	case errors.Is(err, io.EOF):
		r.srcDone = true
		if n == 0 {
			return errors.Wrap(io.ErrUnexpectedEOF, "truncated stream")
		}
	case err != nil:
		return errors.Wrap(err, "cannot read source")
	}

	return nil
}

// the xsi:type attribute.
var xsiType = types.NewName("http://www.w3.org/2001/XMLSchema-instance", "type")

// handler rebuilds events from the items reported by the parser.
// At most one event is produced per ParseNext call. An attribute name
// or a list length reported by the parser is kept until the values it
// introduces are complete.
type handler struct {
	attr    *types.Name
	inList  bool
	list    types.ListValue
	listLen uint32

	event Event
	err   error
}

var _ engine.ContentHandler = (*handler)(nil)

// take returns the completed event, if any, and clears it.
func (h *handler) take() Event {
	ev := h.event
	h.event = nil
	return ev
}

func (h *handler) pending() bool {
	return h.attr != nil || h.inList
}

func (h *handler) unexpected(what string) engine.Code {
	h.err = errors.Wrapf(ErrUnexpectedState, "%s while an attribute or a list is incomplete", what)
	return engine.CodeHandlerStop
}

func (h *handler) structural(ev Event) engine.Code {
	if h.pending() {
		return h.unexpected(ev.String())
	}

	h.event = ev
	return engine.OK
}

func (h *handler) value(v types.Value) engine.Code {
	if h.inList {
		h.list = append(h.list, v)
		if uint32(len(h.list)) < h.listLen {
			return engine.OK
		}
		v = h.list
		h.list, h.inList, h.listLen = nil, false, 0
	}

	if h.attr != nil {
		key := *h.attr
		h.attr = nil

		if q, ok := v.(types.QNameValue); ok && key.Namespace == xsiType.Namespace && key.LocalName == xsiType.LocalName {
			h.event = TypeAttribute{Name: types.Name(q)}
			return engine.OK
		}

		h.event = Attribute{Key: key, Value: v}
		return engine.OK
	}

	h.event = Value{Value: v}
	return engine.OK
}

func (h *handler) StartDocument() engine.Code {
	return h.structural(StartDocument{})
}

func (h *handler) EndDocument() engine.Code {
	return h.structural(EndDocument{})
}

func (h *handler) StartElement(qname engine.QName) engine.Code {
	return h.structural(StartElement{Name: fromQName(qname)})
}

func (h *handler) EndElement() engine.Code {
	return h.structural(EndElement{})
}

func (h *handler) NamespaceDeclaration(namespace, prefix string, isLocalElement bool) engine.Code {
	return h.structural(NamespaceDeclaration{
		Namespace: namespace,
		Prefix:    prefix,
		IsLocal:   isLocalElement,
	})
}

func (h *handler) Attribute(qname engine.QName) engine.Code {
	if h.pending() {
		return h.unexpected("attribute")
	}

	name := fromQName(qname)
	h.attr = &name
	return engine.OK
}

func (h *handler) ListData(_ engine.TypeClass, itemCount uint32) engine.Code {
	if h.inList {
		return h.unexpected("nested list")
	}
	if itemCount == 0 {
		return h.value(types.ListValue{})
	}

	h.inList = true
	h.listLen = itemCount
	h.list = make(types.ListValue, 0, min(itemCount, 64))
	return engine.OK
}

func (h *handler) IntData(v int64) engine.Code {
	return h.value(types.NewIntegerValue(v))
}

func (h *handler) BooleanData(v bool) engine.Code {
	return h.value(types.NewBooleanValue(v))
}

func (h *handler) StringData(v string) engine.Code {
	return h.value(types.NewStringValue(v))
}

func (h *handler) FloatData(v engine.Float) engine.Code {
	return h.value(types.NewFloatValue(encoding.DecodeEXIFloat(v)))
}

// DecimalData reports decimals as floats.
func (h *handler) DecimalData(v engine.Float) engine.Code {
	return h.value(types.NewFloatValue(encoding.DecodeEXIFloat(v)))
}

func (h *handler) BinaryData(v []byte) engine.Code {
	// v is reused by the engine once the callback returns
	return h.value(types.NewBinaryValue(slices.Clone(v)))
}

func (h *handler) DateTimeData(v engine.DateTime) engine.Code {
	t, err := encoding.DecodeEXIDateTime(v)
	if err != nil {
		h.err = err
		return engine.CodeHandlerStop
	}

	return h.value(types.NewTimestampValue(t))
}

func (h *handler) QNameData(qname engine.QName) engine.Code {
	return h.value(types.NewQNameValue(fromQName(qname)))
}

func fromQName(q engine.QName) types.Name {
	return types.Name{
		LocalName: q.LocalName,
		Namespace: q.URI,
		Prefix:    q.Prefix,
	}
}

func toQName(n types.Name) engine.QName {
	return engine.QName{
		URI:       n.Namespace,
		LocalName: n.LocalName,
		Prefix:    n.Prefix,
	}
}
