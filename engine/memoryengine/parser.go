package memoryengine

import (
	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/internal/encoding"
	"github.com/cockroachdb/errors"
)

// parser decodes one token per ParseNext call. A token is only consumed
// once it is complete.
type parser struct {
	buf *engine.Buffer
	h   engine.ContentHandler

	header     decodedHeader
	headerDone bool
	schemaSet  bool
	typed      bool
	ended      bool
	closed     bool

	lastTC engine.TypeClass
}

var _ engine.Parser = (*parser)(nil)

// Header returns the header decoded by ParseHeader.
func (p *parser) Header() engine.Header {
	return p.header.header
}

func (p *parser) ParseHeader(oob *engine.Options) engine.Code {
	if p.closed || p.headerDone {
		return engine.CodeInconsistentProcState
	}

	dh, n, err := decodeHeader(p.buf.Unread(), oob)
	if err != nil {
		return codeOf(err, engine.CodeInvalidHeader)
	}
	if dh.header.VersionNumber != 1 {
		return engine.CodeInvalidHeader
	}
	if c := validateOptions(&dh.header.Opts); c != engine.OK {
		return c
	}

	p.buf.Consumed += n
	p.header = dh
	p.headerDone = true
	return engine.OK
}

func (p *parser) SetSchema(g engine.Grammar) engine.Code {
	if p.closed || !p.headerDone {
		return engine.CodeInconsistentProcState
	}

	gr, c := toGrammar(g)
	if c != engine.OK {
		return c
	}

	switch {
	case gr == nil && p.header.hasGrammar:
		return engine.CodeHeaderOptionsMismatch
	case gr != nil && (!p.header.hasGrammar || gr.fingerprint != p.header.fingerprint):
		return engine.CodeHeaderOptionsMismatch
	}

	p.typed = gr != nil
	p.schemaSet = true
	return engine.OK
}

func (p *parser) ParseNext() engine.Code {
	if p.closed || !p.schemaSet {
		return engine.CodeInconsistentProcState
	}
	if p.ended {
		return engine.CodeParsingComplete
	}

	data := p.buf.Unread()
	if len(data) == 0 {
		return engine.CodeBufferEndReached
	}

	it, n, err := decodeItem(data)
	if err != nil {
		return codeOf(err, engine.CodeInvalidEXIInput)
	}
	if it.typed() && !p.typed {
		return engine.CodeInconsistentProcState
	}

	// payloads alias the buffer until the handler returns
	p.buf.Consumed += n

	switch it.tok {
	case encoding.StartElementToken, encoding.AttributeToken:
		p.lastTC++
	case encoding.EndDocumentToken:
		p.ended = true
	}

	return p.dispatch(&it)
}

func (p *parser) dispatch(it *item) engine.Code {
	switch it.tok {
	case encoding.StartDocumentToken:
		return p.h.StartDocument()
	case encoding.EndDocumentToken:
		return p.h.EndDocument()
	case encoding.StartElementToken:
		return p.h.StartElement(it.qname)
	case encoding.EndElementToken:
		return p.h.EndElement()
	case encoding.AttributeToken:
		return p.h.Attribute(it.qname)
	case encoding.NamespaceToken:
		return p.h.NamespaceDeclaration(it.str, it.prefix, it.flag)
	case encoding.IntToken:
		return p.h.IntData(it.i)
	case encoding.BooleanToken:
		return p.h.BooleanData(it.flag)
	case encoding.StringToken:
		return p.h.StringData(it.str)
	case encoding.FloatToken:
		return p.h.FloatData(it.f)
	case encoding.DecimalToken:
		return p.h.DecimalData(it.f)
	case encoding.BinaryToken:
		return p.h.BinaryData(it.bin)
	case encoding.DateTimeToken:
		return p.h.DateTimeData(it.dt)
	case encoding.ListToken:
		return p.h.ListData(p.lastTC, it.count)
	case encoding.QNameToken:
		return p.h.QNameData(it.qname)
	}

	return engine.CodeUnexpected
}

func (p *parser) Close() engine.Code {
	p.closed = true
	return engine.OK
}

// item is a decoded token.
type item struct {
	tok    byte
	qname  engine.QName
	str    string
	prefix string
	flag   bool
	i      int64
	f      engine.Float
	bin    []byte
	dt     engine.DateTime
	count  uint32
}

// typed reports whether the token can only appear in schema-informed streams.
func (it *item) typed() bool {
	switch it.tok {
	case encoding.StringToken, encoding.QNameToken:
		return false
	}

	return it.tok >= encoding.IntToken
}

func decodeItem(b []byte) (item, int, error) {
	it := item{tok: b[0]}
	off := 1
	var n int
	var err error

	switch it.tok {
	case encoding.StartDocumentToken, encoding.EndDocumentToken, encoding.EndElementToken:
	case encoding.StartElementToken, encoding.AttributeToken, encoding.QNameToken:
		it.qname, n, err = encoding.DecodeQName(b[off:])
	case encoding.NamespaceToken:
		it.str, n, err = encoding.DecodeText(b[off:])
		if err != nil {
			break
		}
		off += n
		it.prefix, n, err = encoding.DecodeText(b[off:])
		if err != nil {
			break
		}
		off += n
		it.flag, n, err = decodeBool(b[off:])
	case encoding.IntToken:
		it.i, n, err = encoding.DecodeInt(b[off:])
	case encoding.BooleanToken:
		it.flag, n, err = decodeBool(b[off:])
	case encoding.StringToken:
		it.str, n, err = encoding.DecodeText(b[off:])
	case encoding.FloatToken, encoding.DecimalToken:
		it.f, n, err = encoding.DecodeFloat(b[off:])
	case encoding.BinaryToken:
		it.bin, n, err = encoding.DecodeBlob(b[off:])
	case encoding.DateTimeToken:
		it.dt, n, err = encoding.DecodeDateTime(b[off:])
	case encoding.ListToken:
		var c uint64
		c, n, err = decodeUint(b[off:])
		if err == nil && c > 1<<32-1 {
			err = errors.Wrapf(encoding.ErrInvalidEncoding, "list length %d out of range", c)
		}
		it.count = uint32(c)
	default:
		return it, 0, errors.Wrapf(encoding.ErrInvalidEncoding, "unknown token %#x", it.tok)
	}
	if err != nil {
		return it, 0, err
	}

	return it, off + n, nil
}

func decodeBool(b []byte) (bool, int, error) {
	if len(b) == 0 {
		return false, 0, encoding.ErrShortBuffer
	}

	switch b[0] {
	case encoding.TrueValue:
		return true, 1, nil
	case encoding.FalseValue:
		return false, 1, nil
	}

	return false, 0, errors.Wrapf(encoding.ErrInvalidEncoding, "invalid boolean %#x", b[0])
}
