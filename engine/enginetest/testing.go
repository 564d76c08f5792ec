// Package enginetest defines a list of tests that can be used to test
// an engine implementation in schema-less mode.
package enginetest

import (
	"testing"

	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Builder is a function that can create an engine on demand and that provides
// a function to cleanup up and remove any created state.
// Tests will use the builder like this:
//
//	ng, cleanup := builder()
//	defer cleanup()
//	...
type Builder func() (engine.Engine, func())

// TestSuite tests the stream and parser contract of an engine.
func TestSuite(t *testing.T, builder Builder) {
	tests := []struct {
		name string
		test func(*testing.T, Builder)
	}{
		{"Header", TestHeader},
		{"Stream/Atomic", TestStreamAtomic},
		{"Stream/Inconsistent", TestStreamInconsistent},
		{"Parser/Incremental", TestParserIncremental},
		{"Parser/ParsingComplete", TestParserParsingComplete},
		{"Parser/HandlerCode", TestParserHandlerCode},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.test(t, builder)
		})
	}
}

// a default header and options.
func header() engine.Header {
	return engine.Header{
		VersionNumber: 1,
		Opts: engine.Options{
			BlockSize:              1_000_000,
			ValueMaxLength:         ^uint(0),
			ValuePartitionCapacity: ^uint(0),
		},
	}
}

var root = engine.QName{URI: "urn:test", LocalName: "root"}

// writeDocument writes a small schema-less document.
func writeDocument(t testing.TB, s engine.Stream) {
	t.Helper()

	require.Equal(t, engine.OK, s.ExiHeader())
	require.Equal(t, engine.OK, s.StartDocument())
	tc, c := s.StartElement(root)
	require.Equal(t, engine.OK, c)
	require.Equal(t, engine.OK, s.NamespaceDeclaration("urn:test", "t", true))
	tc, c = s.Attribute(engine.QName{LocalName: "id"}, true)
	require.Equal(t, engine.OK, c)
	require.Equal(t, engine.OK, s.StringData(tc, "1001"))
	tc, c = s.StartElement(engine.QName{URI: "urn:test", LocalName: "child", Prefix: "t"})
	require.Equal(t, engine.OK, c)
	require.Equal(t, engine.OK, s.StringData(tc, "héllo"))
	require.Equal(t, engine.OK, s.EndElement())
	require.Equal(t, engine.OK, s.EndElement())
	require.Equal(t, engine.OK, s.EndDocument())
	require.Equal(t, engine.OK, s.Close())
}

// calls reported for the document written by writeDocument.
var documentCalls = []string{
	"SD",
	"SE({urn:test}root)",
	"NS(t=urn:test,true)",
	"AT({}id)",
	`STR("1001")`,
	"SE({urn:test}t:child)",
	`STR("héllo")`,
	"EE",
	"EE",
	"ED",
}

func encode(t testing.TB, ng engine.Engine, h engine.Header) []byte {
	t.Helper()

	buf := engine.Buffer{Buf: make([]byte, 4096)}
	s, c := ng.InitStream(&buf, h, nil)
	require.Equal(t, engine.OK, c)
	writeDocument(t, s)

	return append([]byte(nil), buf.Bytes()...)
}

// parse decodes data with a schema-less parser and returns the calls.
func parse(t testing.TB, ng engine.Engine, data []byte, oob *engine.Options) []string {
	t.Helper()

	var rec testutil.Recorder
	buf := engine.Buffer{Buf: data, Content: len(data)}
	p, c := ng.InitParser(&buf, &rec)
	require.Equal(t, engine.OK, c)
	defer p.Close()

	require.Equal(t, engine.OK, p.ParseHeader(oob))
	require.Equal(t, engine.OK, p.SetSchema(nil))

	for {
		c := p.ParseNext()
		if c == engine.CodeParsingComplete {
			return rec.Calls
		}
		require.Equal(t, engine.OK, c, "after %v", rec.Calls)
	}
}

// TestHeader checks that headers written by a stream are understood by a parser.
func TestHeader(t *testing.T, builder Builder) {
	withOptions := header()
	withOptions.HasOptions = true
	withOptions.Opts.EnumOpt = engine.Strict
	withOptions.Opts.ValueMaxLength = 300
	withOptions.Opts.ValuePartitionCapacity = 50

	withCookie := withOptions
	withCookie.HasCookie = true

	byteAligned := header()
	byteAligned.HasOptions = true
	byteAligned.Opts.EnumOpt = engine.ByteAlignment
	byteAligned.Opts.Preserve = engine.PreservePrefixes

	tests := []struct {
		name   string
		header engine.Header
		oob    *engine.Options
	}{
		{"default", header(), nil},
		{"options", withOptions, nil},
		{"cookie", withCookie, nil},
		{"byte aligned", byteAligned, nil},
		{"out of band options", header(), &withOptions.Opts},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ng, cleanup := builder()
			defer cleanup()

			data := encode(t, ng, test.header)
			require.Equal(t, documentCalls, parse(t, ng, data, test.oob))
		})
	}
}

// TestStreamAtomic checks that primitives write nothing when the buffer is full.
func TestStreamAtomic(t *testing.T, builder Builder) {
	ng, cleanup := builder()
	defer cleanup()

	h := header()
	h.HasCookie = true

	buf := engine.Buffer{Buf: make([]byte, 2)}
	s, c := ng.InitStream(&buf, h, nil)
	require.Equal(t, engine.OK, c)
	defer s.Close()

	require.Equal(t, engine.CodeBufferEndReached, s.ExiHeader())
	require.Zero(t, buf.Content)

	// grow the buffer and retry
	buf.Buf = make([]byte, 64)
	require.Equal(t, engine.OK, s.ExiHeader())
	require.Equal(t, engine.OK, s.StartDocument())
	_, c = s.StartElement(root)
	require.Equal(t, engine.OK, c)

	n := buf.Content
	buf.Buf = buf.Buf[:n+1]
	_, c = s.StartElement(engine.QName{URI: "urn:test", LocalName: "a-rather-long-name"})
	require.Equal(t, engine.CodeBufferEndReached, c)
	require.Equal(t, n, buf.Content)
}

// TestStreamInconsistent checks that out of order primitives are rejected.
func TestStreamInconsistent(t *testing.T, builder Builder) {
	tests := []struct {
		name string
		fn   func(s engine.Stream) engine.Code
	}{
		{"end element without start", func(s engine.Stream) engine.Code {
			require.Equal(t, engine.OK, s.StartDocument())
			return s.EndElement()
		}},
		{"end document with open element", func(s engine.Stream) engine.Code {
			require.Equal(t, engine.OK, s.StartDocument())
			_, c := s.StartElement(root)
			require.Equal(t, engine.OK, c)
			return s.EndDocument()
		}},
		{"start document twice", func(s engine.Stream) engine.Code {
			require.Equal(t, engine.OK, s.StartDocument())
			return s.StartDocument()
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ng, cleanup := builder()
			defer cleanup()

			buf := engine.Buffer{Buf: make([]byte, 1024)}
			s, c := ng.InitStream(&buf, header(), nil)
			require.Equal(t, engine.OK, c)
			defer s.Close()
			require.Equal(t, engine.OK, s.ExiHeader())

			require.NotEqual(t, engine.OK, test.fn(s))
		})
	}
}

// TestParserIncremental feeds the parser one byte at a time.
func TestParserIncremental(t *testing.T, builder Builder) {
	ng, cleanup := builder()
	defer cleanup()

	h := header()
	h.HasCookie = true
	h.HasOptions = true
	data := encode(t, ng, h)

	var rec testutil.Recorder
	buf := engine.Buffer{Buf: make([]byte, len(data))}
	p, c := ng.InitParser(&buf, &rec)
	require.Equal(t, engine.OK, c)
	defer p.Close()

	feed := func() bool {
		if buf.Content == len(data) {
			return false
		}
		buf.Buf[buf.Content] = data[buf.Content]
		buf.Content++
		return true
	}

	for {
		c := p.ParseHeader(nil)
		if c == engine.OK {
			break
		}
		require.Equal(t, engine.CodeBufferEndReached, c)
		require.Zero(t, buf.Consumed)
		require.True(t, feed(), "header never complete")
	}
	require.Equal(t, engine.OK, p.SetSchema(nil))

	for {
		consumed, calls := buf.Consumed, len(rec.Calls)
		c := p.ParseNext()
		if c == engine.CodeParsingComplete {
			break
		}
		if c == engine.CodeBufferEndReached {
			require.Equal(t, consumed, buf.Consumed)
			require.Len(t, rec.Calls, calls)
			require.True(t, feed(), "unexpected end of input")
			continue
		}
		require.Equal(t, engine.OK, c)
	}

	require.Equal(t, documentCalls, rec.Calls)
	require.Equal(t, len(data), buf.Consumed)
}

// TestParserParsingComplete checks the status returned after the end of the document.
func TestParserParsingComplete(t *testing.T, builder Builder) {
	ng, cleanup := builder()
	defer cleanup()

	data := encode(t, ng, header())
	parse(t, ng, data, nil)

	var rec testutil.Recorder
	buf := engine.Buffer{Buf: data, Content: len(data)}
	p, c := ng.InitParser(&buf, &rec)
	require.Equal(t, engine.OK, c)
	defer p.Close()

	require.Equal(t, engine.OK, p.ParseHeader(nil))
	require.Equal(t, engine.OK, p.SetSchema(nil))
	for range documentCalls {
		require.Equal(t, engine.OK, p.ParseNext())
	}
	require.Equal(t, engine.CodeParsingComplete, p.ParseNext())
	require.Equal(t, engine.CodeParsingComplete, p.ParseNext())
}

// TestParserHandlerCode checks that handler codes abort the parse.
func TestParserHandlerCode(t *testing.T, builder Builder) {
	ng, cleanup := builder()
	defer cleanup()

	data := encode(t, ng, header())

	rec := testutil.Recorder{Code: engine.CodeHandlerStop}
	buf := engine.Buffer{Buf: data, Content: len(data)}
	p, c := ng.InitParser(&buf, &rec)
	require.Equal(t, engine.OK, c)
	defer p.Close()

	require.Equal(t, engine.OK, p.ParseHeader(nil))
	require.Equal(t, engine.OK, p.SetSchema(nil))
	require.Equal(t, engine.CodeHandlerStop, p.ParseNext())
	require.Equal(t, []string{"SD"}, rec.Calls)
}
