package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage("image/png", 1024))
	assert.NoError(t, ValidateImage("image/webp", MaxImageSize))
	assert.ErrorIs(t, ValidateImage("image/png", MaxImageSize+1), ErrTooLarge)
	assert.ErrorIs(t, ValidateImage("application/pdf", 1024), ErrWrongType)
	assert.ErrorIs(t, ValidateImage("", 1024), ErrWrongType)
}

func TestLocalUploadRoundtrip(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "http://localhost:8080/uploads/")
	require.NoError(t, err)

	body := "fake png bytes"
	key, err := l.Upload("image/png", int64(len(body)), strings.NewReader(body))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".png"))

	data, err := os.ReadFile(filepath.Join(l.Dir(), key))
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	assert.Equal(t, "http://localhost:8080/uploads/"+key, l.PublicURL(key))

	require.NoError(t, l.Delete(key))
	assert.ErrorIs(t, l.Delete(key), ErrKeyNotFound)
}

func TestLocalUploadRejectsInvalid(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "http://x")
	require.NoError(t, err)

	_, err = l.Upload("text/plain", 10, strings.NewReader("hi"))
	assert.ErrorIs(t, err, ErrWrongType)

	_, err = l.Upload("image/gif", MaxImageSize+1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(l.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave nothing on disk")
}

func TestLocalDeleteRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "http://x")
	require.NoError(t, err)

	outside := filepath.Join(dir, "..", "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))
	defer os.Remove(outside)

	assert.ErrorIs(t, l.Delete("../victim.txt"), ErrKeyNotFound)
	_, err = os.Stat(outside)
	assert.NoError(t, err)
}
