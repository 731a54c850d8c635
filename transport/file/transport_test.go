package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsampler/flowtop/transport"
)

func TestFileDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	d, err := New(transport.FileOptions{Path: path, Separator: "\n"})
	require.NoError(t, err)
	require.NoError(t, d.Send([]byte("/a"), []byte("first")))
	require.NoError(t, d.Send([]byte("/b"), nil))
	require.NoError(t, d.Send([]byte("/c"), []byte("second")))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous\nfirst\n\nsecond\n", string(content))
}

func TestFileDriverRegistered(t *testing.T) {
	tr, err := transport.FindTransport("file", transport.Options{})
	require.NoError(t, err)
	assert.NoError(t, tr.Close())

	_, err = transport.FindTransport("file", transport.Options{
		File: transport.FileOptions{Path: filepath.Join(t.TempDir(), "missing", "out.txt")},
	})
	assert.ErrorIs(t, err, transport.ErrTransport)
}
