package exi

import (
	"io"
	"math"

	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/internal/encoding"
	"github.com/chaisql/exi/types"
	"github.com/cockroachdb/errors"
)

// maximum size of the output buffer of a Writer.
const maxBufferSize = 1 << 30

// Writer encodes events into an EXI stream held in memory.
//
// With a schema, values are encoded using the primitive matching their
// type. Without schema, every value is encoded as its lexical form.
//
// Events must be added in document order. A Writer must be discarded
// after Add returns an error.
type Writer struct {
	stream engine.Stream
	buf    engine.Buffer
	schema *Schema

	// type class returned by the latest StartElement or Attribute,
	// passed to the value primitives that follow.
	tc engine.TypeClass

	closed bool
}

// NewWriter creates a stream using the given header and writes the header.
// s must have been compiled by e, or be nil for a schema-less stream.
func NewWriter(e engine.Engine, h Header, s *Schema) (*Writer, error) {
	w := Writer{
		buf:    engine.Buffer{Buf: make([]byte, defaultBufferSize)},
		schema: s,
	}

	var g engine.Grammar
	if s != nil {
		g = s.grammar
	}

	st, code := e.InitStream(&w.buf, h.raw(), g)
	if err := checkCode(code, "cannot init stream"); err != nil {
		return nil, err
	}
	w.stream = st

	if err := w.do("cannot write header", st.ExiHeader); err != nil {
		_ = st.Close()
		return nil, err
	}

	return &w, nil
}

// Add encodes ev.
func (w *Writer) Add(ev Event) error {
	if w.closed {
		return errors.WithStack(ErrClosed)
	}

	switch e := ev.(type) {
	case StartDocument:
		return w.do("cannot start document", w.stream.StartDocument)
	case EndDocument:
		return w.do("cannot end document", w.stream.EndDocument)
	case StartElement:
		return w.startElement(e.Name)
	case EndElement:
		return w.do("cannot end element", w.stream.EndElement)
	case Attribute:
		if err := w.attribute(e.Key); err != nil {
			return err
		}
		return w.value(e.Value)
	case NamespaceDeclaration:
		return w.do("cannot declare namespace", func() engine.Code {
			return w.stream.NamespaceDeclaration(e.Namespace, e.Prefix, e.IsLocal)
		})
	case TypeAttribute:
		if err := w.attribute(xsiType); err != nil {
			return err
		}
		return w.qname(e.Name)
	case Value:
		return w.value(e.Value)
	}

	return errors.Errorf("unsupported event %T", ev)
}

// Bytes returns the bytes written so far. The slice is only valid until
// the next call to Add.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// WriteTo writes the bytes written so far to dst.
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.buf.Bytes())
	return int64(n), err
}

// Close flushes the stream and releases it. Bytes remains usable.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	return w.do("cannot close stream", w.stream.Close)
}

// do calls fn, doubling the output buffer as long as fn reports it is full.
func (w *Writer) do(op string, fn func() engine.Code) error {
	for {
		code := fn()
		if code != engine.CodeBufferEndReached {
			return checkCode(code, op)
		}

		if len(w.buf.Buf) >= maxBufferSize {
			return checkCode(code, op)
		}
		grown := make([]byte, 2*len(w.buf.Buf))
		copy(grown, w.buf.Bytes())
		w.buf.Buf = grown
	}
}

func (w *Writer) startElement(n types.Name) error {
	return w.do("cannot start element", func() (code engine.Code) {
		w.tc, code = w.stream.StartElement(toQName(n))
		return code
	})
}

func (w *Writer) attribute(n types.Name) error {
	return w.do("cannot write attribute", func() (code engine.Code) {
		w.tc, code = w.stream.Attribute(toQName(n), true)
		return code
	})
}

func (w *Writer) qname(n types.Name) error {
	return w.do("cannot write qname", func() engine.Code {
		return w.stream.QNameData(w.tc, toQName(n))
	})
}

func (w *Writer) value(v types.Value) error {
	if v == nil {
		return errors.New("cannot write nil value")
	}

	// schema-less grammars only know strings
	if w.schema == nil {
		s := v.String()
		return w.do("cannot write string", func() engine.Code {
			return w.stream.StringData(w.tc, s)
		})
	}

	switch v.Type() {
	case types.TypeInteger:
		x := types.AsInt64(v)
		return w.do("cannot write integer", func() engine.Code {
			return w.stream.IntData(w.tc, x)
		})
	case types.TypeBoolean:
		x := types.AsBool(v)
		return w.do("cannot write boolean", func() engine.Code {
			return w.stream.BooleanData(w.tc, x)
		})
	case types.TypeString:
		x := types.AsString(v)
		return w.do("cannot write string", func() engine.Code {
			return w.stream.StringData(w.tc, x)
		})
	case types.TypeFloat:
		x := encoding.EncodeEXIFloat(types.AsFloat64(v))
		return w.do("cannot write float", func() engine.Code {
			return w.stream.FloatData(w.tc, x)
		})
	case types.TypeBinary:
		x := types.AsByteSlice(v)
		return w.do("cannot write binary", func() engine.Code {
			return w.stream.BinaryData(w.tc, x)
		})
	case types.TypeTimestamp:
		x := encoding.EncodeEXIDateTime(types.AsTime(v))
		return w.do("cannot write timestamp", func() engine.Code {
			return w.stream.DateTimeData(w.tc, x)
		})
	case types.TypeList:
		return w.list(types.AsList(v))
	case types.TypeQName:
		return w.qname(types.AsName(v))
	}

	return errors.Errorf("unsupported value type %s", v.Type())
}

func (w *Writer) list(items []types.Value) error {
	if uint64(len(items)) > math.MaxUint32 {
		return errors.Wrapf(ErrListTooLong, "%d items", len(items))
	}

	err := w.do("cannot write list", func() engine.Code {
		return w.stream.ListData(w.tc, uint32(len(items)))
	})
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := w.value(item); err != nil {
			return err
		}
	}

	return nil
}
