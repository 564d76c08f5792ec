package testutil

import (
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/require"
)

// NewMemFS returns an in-memory file system holding the given files.
func NewMemFS(t testing.TB, files map[string][]byte) *vfs.MemFS {
	t.Helper()

	fs := vfs.NewMem()
	for name, content := range files {
		f, err := fs.Create(name)
		require.NoError(t, err)
		_, err = f.Write(content)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	return fs
}

// CountingFS counts the files opened through it.
type CountingFS struct {
	vfs.FS

	opened atomic.Int64
}

func (fs *CountingFS) Open(name string, opts ...vfs.OpenOption) (vfs.File, error) {
	fs.opened.Add(1)
	return fs.FS.Open(name, opts...)
}

// Opened returns the number of calls to Open.
func (fs *CountingFS) Opened() int64 {
	return fs.opened.Load()
}
