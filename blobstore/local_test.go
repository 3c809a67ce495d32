package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveLoad(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	data := []byte("ciphertext bytes")

	key, err := l.Save(context.Background(), "passport.jpg", data)
	require.NoError(t, err)
	assert.Contains(t, key, "passport.jpg")

	got, err := l.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLocalSaveKeysAreUnique(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	k1, err := l.Save(context.Background(), "id.png", []byte("one"))
	require.NoError(t, err)

	k2, err := l.Save(context.Background(), "id.png", []byte("two"))
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)

	got, err := l.Load(context.Background(), k1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)
}

func TestLocalRejectsUnsafeFilenames(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root)
	require.NoError(t, err)

	bad := []string{
		"",
		"../escape.txt",
		"..",
		"a/../../b",
		"nested/path.txt",
		`windows\path.txt`,
		".hidden",
		"name..txt",
	}

	for _, name := range bad {
		_, err := l.Save(context.Background(), name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidFilename, "filename %q should be rejected", name)
	}

	// Nothing may have leaked outside or inside the root
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalLoadValidatesKeys(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	// Plant a file outside the storage root
	outside := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("not yours"), 0o600))

	_, err = l.Load(context.Background(), "../secret.txt")
	assert.ErrorIs(t, err, ErrInvalidFilename)
}

func TestLocalLoadMissingBlob(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.Load(context.Background(), "nope_passport.jpg")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestLocalSaveLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root)
	require.NoError(t, err)

	_, err = l.Save(context.Background(), "doc.pdf", []byte("data"))
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), ".upload-")
}
