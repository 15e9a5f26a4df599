package resource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAssetPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	data, err := ReadAsset(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestReadAssetCompressed(t *testing.T) {
	raw := []byte("a texture payload that compresses well well well well well")
	packed, err := Compress(raw)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "brick.png"+CompressedExt)
	require.NoError(t, os.WriteFile(path, packed, 0o644))

	data, err := ReadAsset(path)
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestReadAssetMissing(t *testing.T) {
	_, err := ReadAsset(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadAssetEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := ReadAsset(path)
	assert.ErrorIs(t, err, ErrEmptyAsset)
}
