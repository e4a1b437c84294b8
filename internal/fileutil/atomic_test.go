package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethervault/ethervault/internal/fileutil"
)

func TestWriteAtomic_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	err := fileutil.WriteAtomic(path, []byte(`{"address":""}`), 0o600)
	require.NoError(t, err)

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Equal(t, `{"address":""}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteAtomic_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallet.json")

	require.NoError(t, fileutil.WriteAtomic(path, []byte("old"), 0o600))
	require.NoError(t, fileutil.WriteAtomic(path, []byte("new"), 0o600))

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWriteAtomic_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keystore.json")

	require.NoError(t, fileutil.WriteAtomic(path, []byte("data"), 0o600))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keystore.json", entries[0].Name())
}

func TestWriteAtomic_EmptyPath(t *testing.T) {
	err := fileutil.WriteAtomic("", []byte("data"), 0o600)
	assert.ErrorIs(t, err, fileutil.ErrEmptyPath)
}
