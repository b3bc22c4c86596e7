package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmoreram/go-tftpd/pkg/tftp"
)

func TestOpenReaderNotFound(t *testing.T) {
	dir := t.TempDir()

	_, _, err := OpenReader(dir, "missing.bin")
	require.Error(t, err)

	tftpErr, ok := err.(*tftp.Error)
	require.True(t, ok)
	assert.Equal(t, tftp.WireFileNotFound, tftpErr.WireCode)
}

func TestOpenReaderRootsPathEscapeInsideBaseDir(t *testing.T) {
	dir := t.TempDir()

	// "../../etc/passwd" is rooted back under dir rather than escaping it,
	// so this resolves to a (nonexistent) file inside dir, not /etc/passwd.
	_, _, err := OpenReader(dir, "../../etc/passwd")
	require.Error(t, err)

	tftpErr, ok := err.(*tftp.Error)
	require.True(t, ok)
	assert.Equal(t, tftp.WireFileNotFound, tftpErr.WireCode)
}

func TestOpenReaderRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o750))

	_, _, err := OpenReader(dir, "sub")
	require.Error(t, err)
}

func TestOpenReaderServesExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), []byte("hello"), 0o644))

	r, closer, err := OpenReader(dir, "a.bin")
	require.NoError(t, err)
	defer closer.Close()

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestOpenWriterCreatesAndTruncates(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(target, []byte("stale data"), 0o644))

	w, closer, err := OpenWriter(dir, "out.bin")
	require.NoError(t, err)

	_, err = w.Write([]byte("fresh"))
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))
}

func TestOpenWriterRootsPathEscapeInsideBaseDir(t *testing.T) {
	dir := t.TempDir()

	w, closer, err := OpenWriter(dir, "../outside.bin")
	require.NoError(t, err)
	defer closer.Close()

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "outside.bin"))
	assert.NoError(t, statErr)
}

func TestOpenWriterCreatesNestedDirectory(t *testing.T) {
	dir := t.TempDir()

	w, closer, err := OpenWriter(dir, "nested/dir/out.bin")
	require.NoError(t, err)
	defer closer.Close()

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "nested", "dir", "out.bin"))
	assert.NoError(t, statErr)
}
