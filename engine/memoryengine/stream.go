package memoryengine

import (
	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/internal/encoding"
)

// stream appends tokens to the caller's buffer. Every primitive either
// writes its whole token or nothing, so that it can be retried once the
// buffer has grown.
type stream struct {
	buf     *engine.Buffer
	header  engine.Header
	grammar *grammar

	headerDone bool
	started    bool
	ended      bool
	closed     bool
	depth      int

	// latest type class returned by StartElement or Attribute
	tc     engine.TypeClass
	lastTC engine.TypeClass
	// values still expected by the current list
	listLeft uint32

	scratch []byte
}

var _ engine.Stream = (*stream)(nil)

func (s *stream) write(tok []byte) engine.Code {
	if len(tok) > s.buf.Free() {
		return engine.CodeBufferEndReached
	}

	s.buf.Content += copy(s.buf.Buf[s.buf.Content:], tok)
	s.scratch = tok[:0]
	return engine.OK
}

func (s *stream) token(tok byte) []byte {
	return append(s.scratch[:0], tok)
}

// checkStructure reports whether a structural primitive can be called.
func (s *stream) checkStructure() engine.Code {
	if s.closed || !s.started || s.ended || s.listLeft > 0 {
		return engine.CodeInconsistentProcState
	}

	return engine.OK
}

// checkValue reports whether a value primitive can be called with tc.
// Typed primitives require a grammar.
func (s *stream) checkValue(tc engine.TypeClass, typed bool) engine.Code {
	if s.closed || !s.started || s.ended || s.depth == 0 {
		return engine.CodeInconsistentProcState
	}
	if s.tc == 0 || tc != s.tc {
		return engine.CodeInconsistentProcState
	}
	if typed && s.grammar == nil {
		return engine.CodeInconsistentProcState
	}

	return engine.OK
}

func (s *stream) writeValue(tok []byte) engine.Code {
	if c := s.write(tok); c != engine.OK {
		return c
	}
	if s.listLeft > 0 {
		s.listLeft--
	}
	return engine.OK
}

func (s *stream) nextTypeClass() engine.TypeClass {
	s.lastTC++
	s.tc = s.lastTC
	return s.tc
}

func (s *stream) ExiHeader() engine.Code {
	if s.closed || s.headerDone {
		return engine.CodeInconsistentProcState
	}

	if c := s.write(appendHeader(s.scratch[:0], &s.header, s.grammar)); c != engine.OK {
		return c
	}
	s.headerDone = true
	return engine.OK
}

func (s *stream) StartDocument() engine.Code {
	if s.closed || !s.headerDone || s.started {
		return engine.CodeInconsistentProcState
	}

	if c := s.write(s.token(encoding.StartDocumentToken)); c != engine.OK {
		return c
	}
	s.started = true
	return engine.OK
}

func (s *stream) EndDocument() engine.Code {
	if c := s.checkStructure(); c != engine.OK {
		return c
	}
	if s.depth != 0 {
		return engine.CodeInconsistentProcState
	}

	if c := s.write(s.token(encoding.EndDocumentToken)); c != engine.OK {
		return c
	}
	s.ended = true
	return engine.OK
}

func (s *stream) StartElement(qname engine.QName) (engine.TypeClass, engine.Code) {
	if c := s.checkStructure(); c != engine.OK {
		return 0, c
	}

	if c := s.write(encoding.EncodeQName(s.token(encoding.StartElementToken), qname)); c != engine.OK {
		return 0, c
	}
	s.depth++
	return s.nextTypeClass(), engine.OK
}

func (s *stream) EndElement() engine.Code {
	if c := s.checkStructure(); c != engine.OK {
		return c
	}
	if s.depth == 0 {
		return engine.CodeInconsistentProcState
	}

	if c := s.write(s.token(encoding.EndElementToken)); c != engine.OK {
		return c
	}
	s.depth--
	return engine.OK
}

// Attribute writes the attribute name. isSchemaType is not recorded.
func (s *stream) Attribute(qname engine.QName, isSchemaType bool) (engine.TypeClass, engine.Code) {
	if c := s.checkStructure(); c != engine.OK {
		return 0, c
	}
	if s.depth == 0 {
		return 0, engine.CodeInconsistentProcState
	}

	if c := s.write(encoding.EncodeQName(s.token(encoding.AttributeToken), qname)); c != engine.OK {
		return 0, c
	}
	return s.nextTypeClass(), engine.OK
}

func (s *stream) NamespaceDeclaration(namespace, prefix string, isLocalElement bool) engine.Code {
	if c := s.checkStructure(); c != engine.OK {
		return c
	}
	if s.depth == 0 {
		return engine.CodeInconsistentProcState
	}

	tok := encoding.EncodeText(s.token(encoding.NamespaceToken), namespace)
	tok = encoding.EncodeText(tok, prefix)
	tok = appendBool(tok, isLocalElement)
	return s.write(tok)
}

func (s *stream) IntData(tc engine.TypeClass, v int64) engine.Code {
	if c := s.checkValue(tc, true); c != engine.OK {
		return c
	}

	return s.writeValue(encoding.EncodeInt(s.token(encoding.IntToken), v))
}

func (s *stream) BooleanData(tc engine.TypeClass, v bool) engine.Code {
	if c := s.checkValue(tc, true); c != engine.OK {
		return c
	}

	return s.writeValue(appendBool(s.token(encoding.BooleanToken), v))
}

func (s *stream) StringData(tc engine.TypeClass, v string) engine.Code {
	if c := s.checkValue(tc, false); c != engine.OK {
		return c
	}

	return s.writeValue(encoding.EncodeText(s.token(encoding.StringToken), v))
}

func (s *stream) FloatData(tc engine.TypeClass, v engine.Float) engine.Code {
	if c := s.checkValue(tc, true); c != engine.OK {
		return c
	}

	return s.writeValue(encoding.EncodeFloat(s.token(encoding.FloatToken), v))
}

func (s *stream) BinaryData(tc engine.TypeClass, v []byte) engine.Code {
	if c := s.checkValue(tc, true); c != engine.OK {
		return c
	}

	return s.writeValue(encoding.EncodeBlob(s.token(encoding.BinaryToken), v))
}

func (s *stream) DateTimeData(tc engine.TypeClass, v engine.DateTime) engine.Code {
	if c := s.checkValue(tc, true); c != engine.OK {
		return c
	}

	return s.writeValue(encoding.EncodeDateTime(s.token(encoding.DateTimeToken), v))
}

func (s *stream) ListData(tc engine.TypeClass, itemCount uint32) engine.Code {
	if c := s.checkValue(tc, true); c != engine.OK {
		return c
	}
	// lists of lists are not allowed
	if s.listLeft > 0 {
		return engine.CodeInconsistentProcState
	}

	if c := s.write(encoding.EncodeUint(s.token(encoding.ListToken), uint64(itemCount))); c != engine.OK {
		return c
	}
	s.listLeft = itemCount
	return engine.OK
}

func (s *stream) QNameData(tc engine.TypeClass, v engine.QName) engine.Code {
	if c := s.checkValue(tc, false); c != engine.OK {
		return c
	}

	return s.writeValue(encoding.EncodeQName(s.token(encoding.QNameToken), v))
}

// Close releases the stream. The tape has no pending bits to flush.
func (s *stream) Close() engine.Code {
	s.closed = true
	return engine.OK
}

func appendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, encoding.TrueValue)
	}
	return append(dst, encoding.FalseValue)
}
