package parity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReaderReadAtAndSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parity.bin")
	data := make([]byte, 4*8)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, data, 0o600))

	r, err := Open("parity", path, 8, false)
	require.NoError(t, err)
	defer r.Close()

	size, err := r.Size()
	require.NoError(t, err)
	require.EqualValues(t, 4, size)

	buf := make([]byte, 8)
	n, err := r.ReadAt(2, buf)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, data[16:24], buf)
}
