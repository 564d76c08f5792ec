package exi_test

import (
	"fmt"
	"testing"

	"github.com/chaisql/exi"
	"github.com/chaisql/exi/engine"
	"github.com/chaisql/exi/internal/testutil"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"
)

func TestNewSchema(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		var ng testutil.ScriptedEngine
		resources := [][]byte{[]byte("a"), []byte("b")}

		s, err := exi.NewSchema(&ng, resources, nil)
		require.NoError(t, err)
		require.NotNil(t, s)
		require.Equal(t, resources, ng.Resources)
	})

	t.Run("Too many resources", func(t *testing.T) {
		var ng testutil.ScriptedEngine
		resources := make([][]byte, exi.MaxSchemaResources+1)

		_, err := exi.NewSchema(&ng, resources, nil)
		testutil.ErrorIs(t, err, exi.ErrTooManyResources)
		require.Nil(t, ng.Resources)
	})

	t.Run("Grammar generation", func(t *testing.T) {
		ng := testutil.ScriptedEngine{GrammarCode: engine.CodeInvalidEXIInput}

		_, err := exi.NewSchema(&ng, [][]byte{[]byte("a")}, nil)
		testutil.ErrorIs(t, err, exi.ErrGrammarGeneration)
		testutil.ErrorIs(t, err, engine.CodeInvalidEXIInput)
	})
}

func TestLoadSchemaFS(t *testing.T) {
	files := make(map[string][]byte)
	var paths []string
	for i := 0; i < exi.MaxSchemaResources+1; i++ {
		name := fmt.Sprintf("schema-%d.exi", i)
		files[name] = []byte(name)
		paths = append(paths, name)
	}
	mem := testutil.NewMemFS(t, files)

	t.Run("OK", func(t *testing.T) {
		var ng testutil.ScriptedEngine

		s, err := exi.LoadSchemaFS(&ng, mem, paths[:3], nil)
		require.NoError(t, err)
		require.NotNil(t, s)
		require.Equal(t, [][]byte{
			[]byte("schema-0.exi"),
			[]byte("schema-1.exi"),
			[]byte("schema-2.exi"),
		}, ng.Resources)
	})

	t.Run("Too many resources", func(t *testing.T) {
		var ng testutil.ScriptedEngine
		fs := testutil.CountingFS{FS: mem}

		_, err := exi.LoadSchemaFS(&ng, &fs, paths, nil)
		testutil.ErrorIs(t, err, exi.ErrTooManyResources)
		require.Zero(t, fs.Opened())
		require.Nil(t, ng.Resources)
	})

	t.Run("Missing resource", func(t *testing.T) {
		var ng testutil.ScriptedEngine

		_, err := exi.LoadSchemaFS(&ng, mem, []string{paths[0], "missing.exi", paths[1]}, nil)
		testutil.ErrorIs(t, err, exi.ErrResourceUnavailable)

		var rerr *exi.ResourceError
		require.True(t, errors.As(err, &rerr))
		require.Equal(t, "missing.exi", rerr.Path)
		require.Nil(t, ng.Resources)
	})

	t.Run("First missing resource", func(t *testing.T) {
		var ng testutil.ScriptedEngine

		_, err := exi.LoadSchemaFS(&ng, mem, []string{paths[0], "a.exi", "b.exi", "c.exi"}, nil)

		var rerr *exi.ResourceError
		require.True(t, errors.As(err, &rerr))
		require.Equal(t, "a.exi", rerr.Path)
	})
}

func TestLoadSchema(t *testing.T) {
	dir := t.TempDir()
	path := vfs.Default.PathJoin(dir, "schema.exi")

	f, err := vfs.Default.Create(path)
	require.NoError(t, err)
	_, err = f.Write([]byte("schema"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var ng testutil.ScriptedEngine
	_, err = exi.LoadSchema(&ng, []string{path}, nil)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("schema")}, ng.Resources)

	_, err = exi.LoadSchema(&ng, []string{vfs.Default.PathJoin(dir, "missing.exi")}, nil)
	testutil.ErrorIs(t, err, exi.ErrResourceUnavailable)
}
