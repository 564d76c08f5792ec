package exi_test

import (
	"encoding/json"
	"testing"

	"github.com/chaisql/exi"
	"github.com/stretchr/testify/require"
)

func TestNewOptions(t *testing.T) {
	o := exi.NewOptions()

	require.Equal(t, exi.BitPacked, o.Alignment())
	require.False(t, o.Compression())
	require.False(t, o.Strict())
	require.False(t, o.Fragment())
	require.False(t, o.SelfContained())
	require.Zero(t, o.Preserve())
	require.Equal(t, exi.SchemaIDAbsent, o.SchemaIDMode())
	_, ok := o.SchemaID()
	require.False(t, ok)
	require.EqualValues(t, exi.DefaultBlockSize, o.BlockSize())
	require.Equal(t, exi.Unbounded, o.ValueMaxLength())
	require.Equal(t, exi.Unbounded, o.ValuePartitionCapacity())
}

func TestOptionsWith(t *testing.T) {
	base := exi.NewOptions()
	o := base.
		WithAlignment(exi.ByteAligned).
		WithStrict(true).
		WithFragment(true).
		WithPreserve(exi.PreserveLexicalValues | exi.PreserveDTD).
		WithBlockSize(10).
		WithValueMaxLength(300).
		WithValuePartitionCapacity(50)

	// the receiver is left untouched
	require.Equal(t, exi.NewOptions(), base)

	require.Equal(t, exi.ByteAligned, o.Alignment())
	require.True(t, o.Strict())
	require.True(t, o.Fragment())
	require.True(t, o.Preserve().Has(exi.PreserveLexicalValues))
	require.True(t, o.Preserve().Has(exi.PreserveDTD))
	require.False(t, o.Preserve().Has(exi.PreserveComments))
	require.EqualValues(t, 10, o.BlockSize())
	require.EqualValues(t, 300, o.ValueMaxLength())
	require.EqualValues(t, 50, o.ValuePartitionCapacity())

	o = o.WithStrict(false).WithCompression(true).WithSelfContained(true)
	require.False(t, o.Strict())
	require.True(t, o.Compression())
	require.True(t, o.SelfContained())
	require.True(t, o.Fragment())

	t.Run("alignment is masked", func(t *testing.T) {
		o := exi.NewOptions().WithStrict(true).WithAlignment(exi.Alignment(0xff))
		require.Equal(t, exi.Alignment(0xc0), o.Alignment())
		require.True(t, o.Strict())
	})

	t.Run("schema id", func(t *testing.T) {
		o := exi.NewOptions().WithSchemaID("urn:schema")
		require.Equal(t, exi.SchemaIDSet, o.SchemaIDMode())
		id, ok := o.SchemaID()
		require.True(t, ok)
		require.Equal(t, "urn:schema", id)

		o = o.WithSchemaIDMode(exi.SchemaIDNil)
		require.Equal(t, exi.SchemaIDNil, o.SchemaIDMode())
		_, ok = o.SchemaID()
		require.False(t, ok)
	})
}

func TestNewHeader(t *testing.T) {
	h := exi.NewHeader()

	require.False(t, h.HasCookie())
	require.False(t, h.HasOptions())
	require.False(t, h.IsPreviewVersion())
	require.EqualValues(t, 1, h.Version())
	require.Equal(t, exi.NewOptions(), h.Options())

	o := exi.NewOptions().WithStrict(true)
	h = h.WithCookie(true).WithOptionsInStream(true).WithPreviewVersion(true).WithVersion(2).WithOptions(o)
	require.True(t, h.HasCookie())
	require.True(t, h.HasOptions())
	require.True(t, h.IsPreviewVersion())
	require.EqualValues(t, 2, h.Version())
	require.Equal(t, o, h.Options())
}

func TestOptionsJSON(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		data, err := json.Marshal(exi.NewOptions())
		require.NoError(t, err)
		require.JSONEq(t, `{
			"alignment": "bit-packed",
			"compression": false,
			"strict": false,
			"fragment": false,
			"selfContained": false,
			"preserve": [],
			"schemaIdMode": "absent",
			"blockSize": 1000000,
			"valueMaxLength": "unbounded",
			"valuePartitionCapacity": "unbounded"
		}`, string(data))
	})

	t.Run("round trip", func(t *testing.T) {
		want := exi.NewOptions().
			WithAlignment(exi.ByteAligned).
			WithFragment(true).
			WithPreserve(exi.PreservePrefixes | exi.PreserveComments).
			WithSchemaID("urn:schema").
			WithBlockSize(42).
			WithValueMaxLength(300)

		data, err := json.Marshal(want)
		require.NoError(t, err)

		var got exi.Options
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, want, got)
	})

	t.Run("partial", func(t *testing.T) {
		var got exi.Options
		require.NoError(t, json.Unmarshal([]byte(`{"strict": true, "valuePartitionCapacity": 50}`), &got))
		require.Equal(t, exi.NewOptions().WithStrict(true).WithValuePartitionCapacity(50), got)
	})

	tests := []struct {
		name string
		data string
	}{
		{"unknown key", `{"foo": 1}`},
		{"alignment", `{"alignment": "sideways"}`},
		{"alignment type", `{"alignment": 1}`},
		{"strict type", `{"strict": "yes"}`},
		{"preserve type", `{"preserve": "comments"}`},
		{"preserve value", `{"preserve": ["whitespace"]}`},
		{"block size", `{"blockSize": -1}`},
		{"block size range", `{"blockSize": 4294967296}`},
		{"limit", `{"valueMaxLength": "infinite"}`},
		{"schema id mode", `{"schemaIdMode": "maybe"}`},
		{"schema id mode without id", `{"schemaIdMode": "set"}`},
		{"schema id with nil mode", `{"schemaIdMode": "nil", "schemaId": "urn:schema"}`},
		{"not an object", `[]`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var o exi.Options
			require.Error(t, json.Unmarshal([]byte(test.data), &o))
		})
	}
}

func TestHeaderJSON(t *testing.T) {
	want := exi.NewHeader().
		WithCookie(true).
		WithOptionsInStream(true).
		WithOptions(exi.NewOptions().WithStrict(true).WithValueMaxLength(300))

	data, err := json.Marshal(want)
	require.NoError(t, err)

	var got exi.Header
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, want, got)

	require.NoError(t, json.Unmarshal([]byte(`{"cookie": true}`), &got))
	require.Equal(t, exi.NewHeader().WithCookie(true), got)

	require.Error(t, json.Unmarshal([]byte(`{"version": "1"}`), &got))
	require.Error(t, json.Unmarshal([]byte(`{"opts": true}`), &got))
	require.Error(t, json.Unmarshal([]byte(`{"unknown": true}`), &got))
}
