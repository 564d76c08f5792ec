package testutil

import (
	"fmt"
	"strconv"

	"github.com/chaisql/exi/engine"
)

// Step is replayed by one ParseNext call of a ScriptedEngine parser.
type Step func(h engine.ContentHandler) engine.Code

// ScriptedEngine is an engine.Engine whose parsers replay Script and whose
// streams record the primitives they receive in Calls.
// Streams also write each recorded call to the buffer, followed by a
// newline, and report CodeBufferEndReached when it does not fit.
type ScriptedEngine struct {
	// Script is replayed by parsers, one step per ParseNext call.
	// ParseNext returns CodeParsingComplete once the script is exhausted.
	Script []Step
	// HeaderCodes are returned by the first ParseHeader calls.
	HeaderCodes []engine.Code
	// Fail maps a primitive name (SE, AT, INT, STR, ...) to the code it
	// returns instead of recording the call.
	Fail map[string]engine.Code
	// GrammarCode is returned by GenerateGrammars.
	GrammarCode engine.Code

	Calls     []string
	Header    engine.Header
	OOB       *engine.Options
	Grammar   engine.Grammar
	Resources [][]byte
	Closed    bool
}

var _ engine.Engine = (*ScriptedEngine)(nil)

// ScriptedGrammar is returned by ScriptedEngine.GenerateGrammars.
type ScriptedGrammar struct {
	Resources int
}

func (e *ScriptedEngine) GenerateGrammars(resources [][]byte, format engine.SchemaFormat, opts *engine.Options) (engine.Grammar, engine.Code) {
	e.Resources = resources
	if e.GrammarCode != engine.OK {
		return nil, e.GrammarCode
	}

	return &ScriptedGrammar{Resources: len(resources)}, engine.OK
}

func (e *ScriptedEngine) InitStream(buf *engine.Buffer, header engine.Header, g engine.Grammar) (engine.Stream, engine.Code) {
	e.Header = header
	e.Grammar = g
	return &scriptedStream{e: e, buf: buf}, engine.OK
}

func (e *ScriptedEngine) InitParser(buf *engine.Buffer, h engine.ContentHandler) (engine.Parser, engine.Code) {
	return &scriptedParser{e: e, buf: buf, h: h}, engine.OK
}

type scriptedStream struct {
	e   *ScriptedEngine
	buf *engine.Buffer
	tc  engine.TypeClass
}

func (s *scriptedStream) call(name, format string, args ...any) engine.Code {
	if c, ok := s.e.Fail[name]; ok {
		return c
	}

	line := name + fmt.Sprintf(format, args...)
	if len(line)+1 > s.buf.Free() {
		return engine.CodeBufferEndReached
	}
	s.buf.Content += copy(s.buf.Buf[s.buf.Content:], line+"\n")
	s.e.Calls = append(s.e.Calls, line)
	return engine.OK
}

func (s *scriptedStream) typeClass(code engine.Code) (engine.TypeClass, engine.Code) {
	if code != engine.OK {
		return 0, code
	}
	s.tc++
	return s.tc, engine.OK
}

func (s *scriptedStream) ExiHeader() engine.Code     { return s.call("HDR", "") }
func (s *scriptedStream) StartDocument() engine.Code { return s.call("SD", "") }
func (s *scriptedStream) EndDocument() engine.Code   { return s.call("ED", "") }
func (s *scriptedStream) EndElement() engine.Code    { return s.call("EE", "") }

func (s *scriptedStream) StartElement(q engine.QName) (engine.TypeClass, engine.Code) {
	return s.typeClass(s.call("SE", "(%s)", FormatQName(q)))
}

func (s *scriptedStream) Attribute(q engine.QName, isSchemaType bool) (engine.TypeClass, engine.Code) {
	return s.typeClass(s.call("AT", "(%s)", FormatQName(q)))
}

func (s *scriptedStream) IntData(tc engine.TypeClass, v int64) engine.Code {
	return s.call("INT", "(%d)@%d", v, tc)
}

func (s *scriptedStream) BooleanData(tc engine.TypeClass, v bool) engine.Code {
	return s.call("BOOL", "(%t)@%d", v, tc)
}

func (s *scriptedStream) StringData(tc engine.TypeClass, v string) engine.Code {
	return s.call("STR", "(%s)@%d", strconv.Quote(v), tc)
}

func (s *scriptedStream) FloatData(tc engine.TypeClass, v engine.Float) engine.Code {
	return s.call("FLOAT", "(%d,%d)@%d", v.Mantissa, v.Exponent, tc)
}

func (s *scriptedStream) BinaryData(tc engine.TypeClass, v []byte) engine.Code {
	return s.call("BIN", "(%x)@%d", v, tc)
}

func (s *scriptedStream) DateTimeData(tc engine.TypeClass, v engine.DateTime) engine.Code {
	return s.call("DT", "(%s)@%d", FormatDateTime(v), tc)
}

func (s *scriptedStream) ListData(tc engine.TypeClass, itemCount uint32) engine.Code {
	return s.call("LIST", "(%d)@%d", itemCount, tc)
}

func (s *scriptedStream) QNameData(tc engine.TypeClass, q engine.QName) engine.Code {
	return s.call("QNAME", "(%s)@%d", FormatQName(q), tc)
}

func (s *scriptedStream) NamespaceDeclaration(namespace, prefix string, isLocalElement bool) engine.Code {
	return s.call("NS", "(%s=%s,%t)", prefix, namespace, isLocalElement)
}

func (s *scriptedStream) Close() engine.Code {
	s.e.Closed = true
	return engine.OK
}

type scriptedParser struct {
	e    *ScriptedEngine
	buf  *engine.Buffer
	h    engine.ContentHandler
	next int
}

// ParseHeader consumes every byte available once the configured header
// codes were returned.
func (p *scriptedParser) ParseHeader(oob *engine.Options) engine.Code {
	if len(p.e.HeaderCodes) > 0 {
		c := p.e.HeaderCodes[0]
		p.e.HeaderCodes = p.e.HeaderCodes[1:]
		return c
	}

	p.e.OOB = oob
	p.buf.Consumed = p.buf.Content
	return engine.OK
}

func (p *scriptedParser) SetSchema(g engine.Grammar) engine.Code {
	p.e.Grammar = g
	return engine.OK
}

func (p *scriptedParser) ParseNext() engine.Code {
	if p.next >= len(p.e.Script) {
		return engine.CodeParsingComplete
	}

	step := p.e.Script[p.next]
	p.next++
	return step(p.h)
}

func (p *scriptedParser) Close() engine.Code {
	p.e.Closed = true
	return engine.OK
}

// Steps of a script.

func SD() Step { return func(h engine.ContentHandler) engine.Code { return h.StartDocument() } }
func ED() Step { return func(h engine.ContentHandler) engine.Code { return h.EndDocument() } }
func EE() Step { return func(h engine.ContentHandler) engine.Code { return h.EndElement() } }

func SE(uri, local string) Step {
	return func(h engine.ContentHandler) engine.Code {
		return h.StartElement(engine.QName{URI: uri, LocalName: local})
	}
}

func AT(uri, local string) Step {
	return func(h engine.ContentHandler) engine.Code {
		return h.Attribute(engine.QName{URI: uri, LocalName: local})
	}
}

func NS(uri, prefix string, local bool) Step {
	return func(h engine.ContentHandler) engine.Code {
		return h.NamespaceDeclaration(uri, prefix, local)
	}
}

func Int(v int64) Step {
	return func(h engine.ContentHandler) engine.Code { return h.IntData(v) }
}

func Bool(v bool) Step {
	return func(h engine.ContentHandler) engine.Code { return h.BooleanData(v) }
}

func Str(v string) Step {
	return func(h engine.ContentHandler) engine.Code { return h.StringData(v) }
}

func Float(v engine.Float) Step {
	return func(h engine.ContentHandler) engine.Code { return h.FloatData(v) }
}

func Decimal(v engine.Float) Step {
	return func(h engine.ContentHandler) engine.Code { return h.DecimalData(v) }
}

func DateTime(v engine.DateTime) Step {
	return func(h engine.ContentHandler) engine.Code { return h.DateTimeData(v) }
}

func List(n uint32) Step {
	return func(h engine.ContentHandler) engine.Code { return h.ListData(0, n) }
}

func QName(uri, local, prefix string) Step {
	return func(h engine.ContentHandler) engine.Code {
		return h.QNameData(engine.QName{URI: uri, LocalName: local, Prefix: prefix})
	}
}

// Bin delivers a copy of v and scrambles it once the handler returns,
// the way engines reuse their buffers.
func Bin(v []byte) Step {
	return func(h engine.ContentHandler) engine.Code {
		b := append([]byte(nil), v...)
		c := h.BinaryData(b)
		for i := range b {
			b[i] = 0xff
		}
		return c
	}
}

// Return makes ParseNext return c without calling the handler.
func Return(c engine.Code) Step {
	return func(engine.ContentHandler) engine.Code { return c }
}
