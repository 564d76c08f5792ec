package exi_test

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/chaisql/exi"
	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/internal/encoding"
	"github.com/chaisql/exi/internal/testutil"
	"github.com/chaisql/exi/types"
	"github.com/stretchr/testify/require"
)

const xsiNS = "http://www.w3.org/2001/XMLSchema-instance"

func newScriptedReader(t *testing.T, src string, script ...testutil.Step) (*exi.Reader, *testutil.ScriptedEngine) {
	t.Helper()

	ng := testutil.ScriptedEngine{Script: script}
	r, err := exi.NewReader(&ng, strings.NewReader(src), nil, nil)
	require.NoError(t, err)

	return r, &ng
}

func TestReaderEvents(t *testing.T) {
	ts := time.Date(2012, time.July, 31, 13, 33, 55, 839000, time.UTC)

	tests := []struct {
		name   string
		script []testutil.Step
		want   []exi.Event
	}{
		{"structure", []testutil.Step{
			testutil.SD(),
			testutil.SE("urn:a", "root"),
			testutil.NS("urn:a", "a", true),
			testutil.AT("", "id"),
			testutil.Str("1001"),
			testutil.Str("text"),
			testutil.EE(),
			testutil.ED(),
		}, []exi.Event{
			exi.StartDocument{},
			exi.StartElement{Name: types.NewName("urn:a", "root")},
			exi.NamespaceDeclaration{Namespace: "urn:a", Prefix: "a", IsLocal: true},
			exi.Attribute{Key: types.NewName("", "id"), Value: types.NewStringValue("1001")},
			exi.Value{Value: types.NewStringValue("text")},
			exi.EndElement{},
			exi.EndDocument{},
		}},
		{"attribute value", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.AT("", "testByte"),
			testutil.Int(55),
			testutil.EE(),
			testutil.ED(),
		}, []exi.Event{
			exi.StartDocument{},
			exi.StartElement{Name: types.NewName("", "root")},
			exi.Attribute{Key: types.NewName("", "testByte"), Value: types.NewIntegerValue(55)},
			exi.EndElement{},
			exi.EndDocument{},
		}},
		{"typed values", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.Int(-55),
			testutil.Bool(true),
			testutil.Float(encoding.EncodeEXIFloat(3.25)),
			testutil.Decimal(encoding.EncodeEXIFloat(0.5)),
			testutil.DateTime(encoding.EncodeEXIDateTime(ts)),
			testutil.QName("urn:a", "T", "a"),
			testutil.EE(),
			testutil.ED(),
		}, []exi.Event{
			exi.StartDocument{},
			exi.StartElement{Name: types.NewName("", "root")},
			exi.Value{Value: types.NewIntegerValue(-55)},
			exi.Value{Value: types.NewBooleanValue(true)},
			exi.Value{Value: types.NewFloatValue(3.25)},
			exi.Value{Value: types.NewFloatValue(0.5)},
			exi.Value{Value: types.NewTimestampValue(ts)},
			exi.Value{Value: types.NewQNameValue(types.Name{LocalName: "T", Namespace: "urn:a", Prefix: "a"})},
			exi.EndElement{},
			exi.EndDocument{},
		}},
		{"negative float", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.Float(encoding.EncodeEXIFloat(-2.5)),
			testutil.EE(),
			testutil.ED(),
		}, []exi.Event{
			exi.StartDocument{},
			exi.StartElement{Name: types.NewName("", "root")},
			exi.Value{Value: types.NewFloatValue(2.5)},
			exi.EndElement{},
			exi.EndDocument{},
		}},
		{"lists", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.AT("", "ids"),
			testutil.List(3),
			testutil.Int(1),
			testutil.Int(2),
			testutil.Int(3),
			testutil.List(2),
			testutil.Str("a"),
			testutil.Str("b"),
			testutil.EE(),
			testutil.SE("", "empty"),
			testutil.List(0),
			testutil.EE(),
			testutil.ED(),
		}, []exi.Event{
			exi.StartDocument{},
			exi.StartElement{Name: types.NewName("", "root")},
			exi.Attribute{Key: types.NewName("", "ids"), Value: types.NewListValue(
				types.NewIntegerValue(1),
				types.NewIntegerValue(2),
				types.NewIntegerValue(3),
			)},
			exi.Value{Value: types.NewListValue(types.NewStringValue("a"), types.NewStringValue("b"))},
			exi.EndElement{},
			exi.StartElement{Name: types.NewName("", "empty")},
			exi.Value{Value: types.ListValue{}},
			exi.EndElement{},
			exi.EndDocument{},
		}},
		{"type attribute", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.AT(xsiNS, "type"),
			testutil.QName("urn:a", "T", "a"),
			testutil.AT(xsiNS, "nil"),
			testutil.Str("true"),
			testutil.EE(),
			testutil.ED(),
		}, []exi.Event{
			exi.StartDocument{},
			exi.StartElement{Name: types.NewName("", "root")},
			exi.TypeAttribute{Name: types.Name{LocalName: "T", Namespace: "urn:a", Prefix: "a"}},
			exi.Attribute{Key: types.NewName(xsiNS, "nil"), Value: types.NewStringValue("true")},
			exi.EndElement{},
			exi.EndDocument{},
		}},
		{"binary", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.Bin([]byte{0x02, 0x6d, 0x2f}),
			testutil.EE(),
			testutil.ED(),
		}, []exi.Event{
			exi.StartDocument{},
			exi.StartElement{Name: types.NewName("", "root")},
			exi.Value{Value: types.NewBinaryValue([]byte{0x02, 0x6d, 0x2f})},
			exi.EndElement{},
			exi.EndDocument{},
		}},
		{"missing end document", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.EE(),
		}, []exi.Event{
			exi.StartDocument{},
			exi.StartElement{Name: types.NewName("", "root")},
			exi.EndElement{},
			exi.EndDocument{},
		}},
		{"parsing complete after end document", []testutil.Step{
			testutil.SD(),
			testutil.ED(),
			testutil.Return(engine.CodeParsingComplete),
		}, []exi.Event{
			exi.StartDocument{},
			exi.EndDocument{},
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, _ := newScriptedReader(t, "", test.script...)
			defer r.Close()

			testutil.RequireEvents(t, test.want, testutil.ReadEvents(t, r))

			// the end of the stream is sticky
			_, err := r.Next()
			require.Equal(t, io.EOF, err)
		})
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		script []testutil.Step
		target error
	}{
		{"element inside attribute", "", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.AT("", "id"),
			testutil.SE("", "child"),
		}, exi.ErrUnexpectedState},
		{"end element inside list", "", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.List(2),
			testutil.Int(1),
			testutil.EE(),
		}, exi.ErrUnexpectedState},
		{"attribute inside attribute", "", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.AT("", "a"),
			testutil.AT("", "b"),
		}, exi.ErrUnexpectedState},
		{"nested list", "", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.List(2),
			testutil.List(1),
		}, exi.ErrUnexpectedState},
		{"end of stream inside attribute", "", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.AT("", "id"),
		}, exi.ErrUnexpectedState},
		{"invalid date", "", []testutil.Step{
			testutil.SD(),
			testutil.SE("", "root"),
			testutil.DateTime(engine.DateTime{DateTime: engine.BrokenDownTime{MDay: 1, Mon: 12, Year: 100}}),
		}, exi.ErrInvalidTemporal},
		{"engine code", "", []testutil.Step{
			testutil.SD(),
			testutil.Return(engine.CodeInvalidEXIInput),
		}, engine.CodeInvalidEXIInput},
		{"unknown engine code", "", []testutil.Step{
			testutil.SD(),
			testutil.Return(engine.Code(99)),
		}, engine.CodeUnexpected},
		{"truncated stream", "", []testutil.Step{
			testutil.SD(),
			testutil.Return(engine.CodeBufferEndReached),
		}, io.ErrUnexpectedEOF},
		{"truncated stream after refill", "abc", []testutil.Step{
			testutil.SD(),
			testutil.Return(engine.CodeBufferEndReached),
			testutil.SE("", "root"),
			testutil.Return(engine.CodeBufferEndReached),
		}, io.ErrUnexpectedEOF},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r, _ := newScriptedReader(t, test.src, test.script...)
			defer r.Close()

			_, err := r.ReadAll()
			testutil.ErrorIs(t, err, test.target)

			// errors are sticky
			_, err2 := r.Next()
			require.Equal(t, err, err2)
		})
	}
}

func TestReaderRefill(t *testing.T) {
	src := strings.Repeat("x", 3*8*1024)
	r, _ := newScriptedReader(t, src,
		testutil.SD(),
		testutil.Return(engine.CodeBufferEndReached),
		testutil.Return(engine.CodeBufferEndReached),
		testutil.Return(engine.CodeBufferEndReached),
		testutil.ED(),
	)

	events, err := r.ReadAll()
	require.NoError(t, err)
	testutil.RequireEvents(t, []exi.Event{exi.StartDocument{}, exi.EndDocument{}}, events)
}

func TestNewReader(t *testing.T) {
	t.Run("header needs more input", func(t *testing.T) {
		ng := testutil.ScriptedEngine{
			HeaderCodes: []engine.Code{engine.CodeBufferEndReached},
		}
		r, err := exi.NewReader(&ng, strings.NewReader("$EXI"), nil, nil)
		require.NoError(t, err)
		require.NoError(t, r.Close())
	})

	t.Run("truncated header", func(t *testing.T) {
		ng := testutil.ScriptedEngine{
			HeaderCodes: []engine.Code{engine.CodeBufferEndReached},
		}
		_, err := exi.NewReader(&ng, strings.NewReader(""), nil, nil)
		testutil.ErrorIs(t, err, io.ErrUnexpectedEOF)
		require.True(t, ng.Closed)
	})

	t.Run("invalid header", func(t *testing.T) {
		ng := testutil.ScriptedEngine{
			HeaderCodes: []engine.Code{engine.CodeInvalidHeader},
		}
		_, err := exi.NewReader(&ng, strings.NewReader("$EXI"), nil, nil)
		testutil.ErrorIs(t, err, engine.CodeInvalidHeader)
		require.True(t, ng.Closed)
	})

	t.Run("out of band options", func(t *testing.T) {
		var ng testutil.ScriptedEngine
		opts := exi.NewOptions().WithStrict(true).WithValueMaxLength(300)

		_, err := exi.NewReader(&ng, strings.NewReader(""), nil, &opts)
		require.NoError(t, err)
		require.NotNil(t, ng.OOB)
		require.Equal(t, engine.Strict, ng.OOB.EnumOpt)
		require.EqualValues(t, 300, ng.OOB.ValueMaxLength)
		require.EqualValues(t, exi.DefaultBlockSize, ng.OOB.BlockSize)
	})

	t.Run("schema", func(t *testing.T) {
		var ng testutil.ScriptedEngine
		s, err := exi.NewSchema(&ng, [][]byte{[]byte("a"), []byte("b")}, nil)
		require.NoError(t, err)

		_, err = exi.NewReader(&ng, strings.NewReader(""), s, nil)
		require.NoError(t, err)
		require.Equal(t, &testutil.ScriptedGrammar{Resources: 2}, ng.Grammar)
	})
}

func TestReaderClose(t *testing.T) {
	r, ng := newScriptedReader(t, "", testutil.SD())

	require.NoError(t, r.Close())
	require.True(t, ng.Closed)
	require.NoError(t, r.Close())

	_, err := r.Next()
	testutil.ErrorIs(t, err, exi.ErrClosed)
}
