package memoryengine_test

import (
	"encoding/binary"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/engine/enginetest"
	"github.com/chaisql/exi/engine/memoryengine"
	"github.com/chaisql/exi/internal/testutil"
	"github.com/stretchr/testify/require"
)

func builder() (engine.Engine, func()) {
	return memoryengine.NewEngine(), func() {}
}

func TestMemoryEngine(t *testing.T) {
	enginetest.TestSuite(t, builder)
}

func defaultHeader() engine.Header {
	return engine.Header{VersionNumber: 1, Opts: memoryengine.DefaultOptions()}
}

func TestHeaderValidation(t *testing.T) {
	tests := []struct {
		name string
		fn   func(h *engine.Header)
		code engine.Code
	}{
		{"version", func(h *engine.Header) { h.VersionNumber = 2 }, engine.CodeInvalidHeader},
		{"pre-compression", func(h *engine.Header) { h.Opts.EnumOpt = engine.PreCompression }, engine.CodeNotImplemented},
		{"compression", func(h *engine.Header) { h.Opts.EnumOpt = engine.Compression }, engine.CodeNotImplemented},
		{"self-contained", func(h *engine.Header) { h.Opts.EnumOpt = engine.SelfContained }, engine.CodeNotImplemented},
		{"alignment", func(h *engine.Header) { h.Opts.EnumOpt = engine.AlignmentMask }, engine.CodeInvalidEXIPConfig},
		{"strict with comments", func(h *engine.Header) {
			h.Opts.EnumOpt = engine.Strict
			h.Opts.Preserve = engine.PreserveComments
		}, engine.CodeHeaderOptionsMismatch},
		{"strict with lexical values", func(h *engine.Header) {
			h.Opts.EnumOpt = engine.Strict
			h.Opts.Preserve = engine.PreserveLexValues
		}, engine.OK},
		{"schema id without value", func(h *engine.Header) { h.Opts.SchemaIDMode = engine.SchemaIDSet }, engine.CodeInvalidEXIPConfig},
		{"schema id mode", func(h *engine.Header) { h.Opts.SchemaIDMode = 4 }, engine.CodeInvalidEXIPConfig},
		{"schema id", func(h *engine.Header) {
			h.Opts.SchemaIDMode = engine.SchemaIDSet
			h.Opts.SchemaID = "urn:schema"
		}, engine.OK},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := defaultHeader()
			test.fn(&h)

			var buf engine.Buffer
			_, code := memoryengine.NewEngine().InitStream(&buf, h, nil)
			require.Equal(t, test.code, code)
		})
	}
}

func TestHeaderBytes(t *testing.T) {
	h := engine.Header{
		HasCookie:     true,
		HasOptions:    true,
		VersionNumber: 1,
		Opts: engine.Options{
			EnumOpt:                engine.Strict,
			BlockSize:              1_000_000,
			ValueMaxLength:         300,
			ValuePartitionCapacity: 50,
		},
	}

	buf := engine.Buffer{Buf: make([]byte, 64)}
	s, code := memoryengine.NewEngine().InitStream(&buf, h, nil)
	require.Equal(t, engine.OK, code)
	require.Equal(t, engine.OK, s.ExiHeader())

	want := []byte{
		'$', 'E', 'X', 'I',
		0xa0,
		0x02, 0x00, 0x00,
		0x52, 0x00, 0x0f, 0x42, 0x40,
		0x51, 0x01, 0x2c,
		0x50, 0x32,
		0x00,
	}
	require.Equal(t, want, buf.Bytes())

	// the header can only be written once
	require.Equal(t, engine.CodeInconsistentProcState, s.ExiHeader())
}

func TestParseHeader(t *testing.T) {
	oob := engine.Options{
		EnumOpt:                engine.ByteAlignment,
		BlockSize:              10,
		ValueMaxLength:         20,
		ValuePartitionCapacity: 30,
	}

	tests := []struct {
		name string
		data []byte
		oob  *engine.Options
		code engine.Code
		want engine.Header
	}{
		{"empty", nil, nil, engine.CodeBufferEndReached, engine.Header{}},
		{"partial cookie", []byte("$EX"), nil, engine.CodeBufferEndReached, engine.Header{}},
		{"bad cookie", []byte("$EXA\x80\x00"), nil, engine.CodeInvalidHeader, engine.Header{}},
		{"bad distinguishing bits", []byte{0x40, 0x00}, nil, engine.CodeInvalidHeader, engine.Header{}},
		{"bad grammar marker", []byte{0x80, 0x07}, nil, engine.CodeInvalidHeader, engine.Header{}},
		{"version", []byte{0x81, 0x00}, nil, engine.CodeInvalidHeader, engine.Header{}},
		{"default options", []byte{0x80, 0x00}, nil, engine.OK, defaultHeader()},
		{"out of band options", []byte{0x90, 0x00}, &oob, engine.OK, engine.Header{
			IsPreviewVersion: true,
			VersionNumber:    1,
			Opts:             oob,
		}},
		{"in band options", []byte{0xa0, 0x40, 0x00, 0x00, 0x3a, 0x3b, 0x3c, 0x00}, &oob, engine.OK, engine.Header{
			HasOptions:    true,
			VersionNumber: 1,
			Opts: engine.Options{
				EnumOpt:                engine.ByteAlignment,
				BlockSize:              10,
				ValueMaxLength:         11,
				ValuePartitionCapacity: 12,
			},
		}},
		{"unsupported options", []byte{0xa0, 0x01, 0x00, 0x00, 0x3a, 0x3b, 0x3c, 0x00}, nil, engine.CodeNotImplemented, engine.Header{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf := engine.Buffer{Buf: test.data, Content: len(test.data)}
			p, code := memoryengine.NewEngine().InitParser(&buf, new(testutil.Recorder))
			require.Equal(t, engine.OK, code)

			require.Equal(t, test.code, p.ParseHeader(test.oob))
			if test.code != engine.OK {
				require.Zero(t, buf.Consumed)
				return
			}
			require.Equal(t, len(test.data), buf.Consumed)

			hp, ok := p.(interface{ Header() engine.Header })
			require.True(t, ok)
			require.Equal(t, test.want, hp.Header())
		})
	}
}

func TestGenerateGrammars(t *testing.T) {
	ng := memoryengine.NewEngine()

	t.Run("format", func(t *testing.T) {
		_, code := ng.GenerateGrammars([][]byte{{1}}, engine.SchemaFormatXSDXML, nil)
		require.Equal(t, engine.CodeNotImplemented, code)
	})

	t.Run("no resources", func(t *testing.T) {
		_, code := ng.GenerateGrammars(nil, engine.SchemaFormatXSDEXI, nil)
		require.Equal(t, engine.CodeInvalidEXIInput, code)
	})

	t.Run("empty resource", func(t *testing.T) {
		_, code := ng.GenerateGrammars([][]byte{{1}, {}}, engine.SchemaFormatXSDEXI, nil)
		require.Equal(t, engine.CodeInvalidEXIInput, code)
	})

	t.Run("options", func(t *testing.T) {
		opts := memoryengine.DefaultOptions()
		opts.EnumOpt = engine.Compression
		_, code := ng.GenerateGrammars([][]byte{{1}}, engine.SchemaFormatXSDEXI, &opts)
		require.Equal(t, engine.CodeNotImplemented, code)
	})

	t.Run("fingerprint", func(t *testing.T) {
		g, code := ng.GenerateGrammars([][]byte{[]byte("ab"), []byte("c")}, engine.SchemaFormatXSDEXI, nil)
		require.Equal(t, engine.OK, code)

		buf := engine.Buffer{Buf: make([]byte, 32)}
		s, code := ng.InitStream(&buf, defaultHeader(), g)
		require.Equal(t, engine.OK, code)
		require.Equal(t, engine.OK, s.ExiHeader())

		want := xxhash.Sum64([]byte{2, 'a', 'b', 1, 'c'})
		require.Equal(t, byte(0x80), buf.Buf[0])
		require.Equal(t, byte(1), buf.Buf[1])
		require.Equal(t, want, binary.BigEndian.Uint64(buf.Buf[2:10]))
		require.Equal(t, 10, buf.Content)
	})
}

// schemaStream returns a stream bound to a grammar, with the header
// and the document start already written.
func schemaStream(t *testing.T, resources ...[]byte) (engine.Engine, engine.Grammar, engine.Stream, *engine.Buffer) {
	t.Helper()

	ng := memoryengine.NewEngine()
	g, code := ng.GenerateGrammars(resources, engine.SchemaFormatXSDEXI, nil)
	require.Equal(t, engine.OK, code)

	buf := engine.Buffer{Buf: make([]byte, 1024)}
	s, code := ng.InitStream(&buf, defaultHeader(), g)
	require.Equal(t, engine.OK, code)
	require.Equal(t, engine.OK, s.ExiHeader())
	require.Equal(t, engine.OK, s.StartDocument())

	return ng, g, s, &buf
}

func TestTypedValues(t *testing.T) {
	ng, g, s, buf := schemaStream(t, []byte("schema"))

	dt := engine.DateTime{
		DateTime:     engine.BrokenDownTime{Sec: 55, Min: 33, Hour: 13, MDay: 31, Mon: 6, Year: 112},
		FSecs:        engine.FractionalSecs{Value: 839, Offset: 5},
		PresenceMask: engine.FractPresence,
	}

	tc, code := s.StartElement(engine.QName{URI: "urn:test", LocalName: "root"})
	require.Equal(t, engine.OK, code)
	require.Equal(t, engine.OK, s.IntData(tc, -1234))
	require.Equal(t, engine.OK, s.BooleanData(tc, true))
	require.Equal(t, engine.OK, s.FloatData(tc, engine.Float{Mantissa: 314, Exponent: -2}))
	require.Equal(t, engine.OK, s.BinaryData(tc, []byte{0x02, 0x6d}))
	require.Equal(t, engine.OK, s.DateTimeData(tc, dt))
	require.Equal(t, engine.OK, s.QNameData(tc, engine.QName{URI: "urn:q", LocalName: "v"}))

	tc, code = s.Attribute(engine.QName{LocalName: "list"}, true)
	require.Equal(t, engine.OK, code)
	require.Equal(t, engine.OK, s.ListData(tc, 2))
	// structure is locked until every list item was written
	require.Equal(t, engine.CodeInconsistentProcState, s.EndElement())
	require.Equal(t, engine.OK, s.IntData(tc, 1))
	require.Equal(t, engine.OK, s.IntData(tc, 2))

	require.Equal(t, engine.OK, s.EndElement())
	require.Equal(t, engine.OK, s.EndDocument())
	require.Equal(t, engine.OK, s.Close())

	var rec testutil.Recorder
	data := engine.Buffer{Buf: buf.Bytes(), Content: buf.Content}
	p, code := ng.InitParser(&data, &rec)
	require.Equal(t, engine.OK, code)
	require.Equal(t, engine.OK, p.ParseHeader(nil))
	require.Equal(t, engine.OK, p.SetSchema(g))
	for {
		code := p.ParseNext()
		if code == engine.CodeParsingComplete {
			break
		}
		require.Equal(t, engine.OK, code)
	}

	require.Equal(t, []string{
		"SD",
		"SE({urn:test}root)",
		"INT(-1234)",
		"BOOL(true)",
		"FLOAT(314,-2)",
		"BIN(026d)",
		"DT(112-6-31 13:33:55 839/5 tz=0 mask=0x2)",
		"QNAME({urn:q}v)",
		"AT({}list)",
		"LIST(2)",
		"INT(1)",
		"INT(2)",
		"EE",
		"ED",
	}, rec.Calls)
}

func TestSchemaMismatch(t *testing.T) {
	ng, g, s, buf := schemaStream(t, []byte("a"), []byte("b"))
	require.Equal(t, engine.OK, s.EndDocument())

	other, code := ng.GenerateGrammars([][]byte{[]byte("ab")}, engine.SchemaFormatXSDEXI, nil)
	require.Equal(t, engine.OK, code)

	tests := []struct {
		name string
		g    engine.Grammar
		code engine.Code
	}{
		{"same grammar", g, engine.OK},
		{"other grammar", other, engine.CodeHeaderOptionsMismatch},
		{"no grammar", nil, engine.CodeHeaderOptionsMismatch},
		{"foreign grammar", &testutil.ScriptedGrammar{}, engine.CodeInvalidEXIPConfig},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := engine.Buffer{Buf: buf.Bytes(), Content: buf.Content}
			p, code := ng.InitParser(&data, new(testutil.Recorder))
			require.Equal(t, engine.OK, code)
			require.Equal(t, engine.OK, p.ParseHeader(nil))
			require.Equal(t, test.code, p.SetSchema(test.g))
		})
	}
}

func TestSchemalessTypedValues(t *testing.T) {
	ng := memoryengine.NewEngine()
	buf := engine.Buffer{Buf: make([]byte, 1024)}
	s, code := ng.InitStream(&buf, defaultHeader(), nil)
	require.Equal(t, engine.OK, code)
	require.Equal(t, engine.OK, s.ExiHeader())
	require.Equal(t, engine.OK, s.StartDocument())

	tc, code := s.StartElement(engine.QName{LocalName: "root"})
	require.Equal(t, engine.OK, code)
	require.Equal(t, engine.CodeInconsistentProcState, s.IntData(tc, 1))
	require.Equal(t, engine.CodeInconsistentProcState, s.ListData(tc, 1))
	require.Equal(t, engine.OK, s.QNameData(tc, engine.QName{LocalName: "q"}))
}

func TestTypeClass(t *testing.T) {
	_, _, s, _ := schemaStream(t, []byte("schema"))

	tc1, code := s.StartElement(engine.QName{LocalName: "a"})
	require.Equal(t, engine.OK, code)
	tc2, code := s.Attribute(engine.QName{LocalName: "b"}, true)
	require.Equal(t, engine.OK, code)
	require.NotEqual(t, tc1, tc2)

	require.Equal(t, engine.CodeInconsistentProcState, s.IntData(tc1, 1))
	require.Equal(t, engine.OK, s.IntData(tc2, 1))
}

func TestDecimal(t *testing.T) {
	ng := memoryengine.NewEngine()
	g, code := ng.GenerateGrammars([][]byte{{1}}, engine.SchemaFormatXSDEXI, nil)
	require.Equal(t, engine.OK, code)

	// decimals are never written by streams
	data := []byte{0x80, 0x01}
	data = binary.BigEndian.AppendUint64(data, xxhash.Sum64([]byte{1, 1}))
	data = append(data,
		0x01,
		0x03, 0x62, 0x00, 0x62, 0x01, 'r', 0x62, 0x00,
		0x18, 0x51, 0x01, 0x3a, 0x2e,
		0x04,
		0x02,
	)

	var rec testutil.Recorder
	buf := engine.Buffer{Buf: data, Content: len(data)}
	p, code := ng.InitParser(&buf, &rec)
	require.Equal(t, engine.OK, code)
	require.Equal(t, engine.OK, p.ParseHeader(nil))
	require.Equal(t, engine.OK, p.SetSchema(g))
	for code = p.ParseNext(); code == engine.OK; code = p.ParseNext() {
	}
	require.Equal(t, engine.CodeParsingComplete, code)
	require.Equal(t, []string{"SD", "SE({}r)", "DEC(314,-2)", "EE", "ED"}, rec.Calls)
}

func TestInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		code engine.Code
	}{
		{"unknown token", []byte{0x80, 0x00, 0x7f}, engine.CodeInvalidEXIInput},
		{"truncated qname", []byte{0x80, 0x00, 0x01, 0x03, 0x62, 0x05, 'r'}, engine.CodeBufferEndReached},
		{"bad text type", []byte{0x80, 0x00, 0x01, 0x03, 0x10}, engine.CodeInvalidEXIInput},
		{"typed value without grammar", []byte{0x80, 0x00, 0x01, 0x10, 0x31}, engine.CodeInconsistentProcState},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var rec testutil.Recorder
			buf := engine.Buffer{Buf: test.data, Content: len(test.data)}
			p, code := memoryengine.NewEngine().InitParser(&buf, &rec)
			require.Equal(t, engine.OK, code)
			require.Equal(t, engine.OK, p.ParseHeader(nil))
			require.Equal(t, engine.OK, p.SetSchema(nil))

			consumed := buf.Consumed
			for code = p.ParseNext(); code == engine.OK; code = p.ParseNext() {
				consumed = buf.Consumed
			}
			require.Equal(t, test.code, code)
			require.Equal(t, consumed, buf.Consumed)
		})
	}
}
