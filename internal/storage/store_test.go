package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	headers := form.File["file"]
	require.Len(t, headers, 1)
	return headers[0]
}

func TestSaveImage(t *testing.T) {
	store := New(t.TempDir(), "")

	t.Run("same bytes land on the same path", func(t *testing.T) {
		first, err := store.SaveImage(fileHeader(t, "a.png", []byte("identical")), "services")
		require.NoError(t, err)
		second, err := store.SaveImage(fileHeader(t, "b.png", []byte("identical")), "services")
		require.NoError(t, err)

		assert.Equal(t, first, second)

		entries, err := os.ReadDir(filepath.Join(store.BaseDir, "services"))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("different bytes land on different paths", func(t *testing.T) {
		one, err := store.SaveImage(fileHeader(t, "a.png", []byte("one")), "profiles")
		require.NoError(t, err)
		two, err := store.SaveImage(fileHeader(t, "a.png", []byte("two")), "profiles")
		require.NoError(t, err)
		assert.NotEqual(t, one, two)
	})

	t.Run("url shape", func(t *testing.T) {
		url, err := store.SaveImage(fileHeader(t, "photo.JPG", []byte("jpg-bytes")), "services")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "/uploads/services/"))
		assert.True(t, strings.HasSuffix(url, ".jpg"))
	})

	t.Run("base url prefix", func(t *testing.T) {
		prefixed := New(t.TempDir(), "http://localhost:8080/")
		url, err := prefixed.SaveImage(fileHeader(t, "p.png", []byte("x")), "services")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/services/"))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := store.SaveImage(fileHeader(t, "script.exe", []byte("nope")), "services")
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("over the size cap", func(t *testing.T) {
		small := New(t.TempDir(), "")
		small.MaxSize = 8
		_, err := small.SaveImage(fileHeader(t, "big.png", []byte("way too many bytes")), "services")
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := store.SaveImage(fileHeader(t, "empty.png", nil), "services")
		assert.ErrorIs(t, err, ErrTooLarge)
	})
}

func TestSaveDocument(t *testing.T) {
	store := New(t.TempDir(), "")

	t.Run("pdf accepted", func(t *testing.T) {
		url, err := store.SaveDocument(fileHeader(t, "cac.pdf", []byte("%PDF-1.4")), "cac")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(url, ".pdf"))
	})

	t.Run("images accepted too", func(t *testing.T) {
		_, err := store.SaveDocument(fileHeader(t, "scan.jpeg", []byte("scan")), "cac")
		assert.NoError(t, err)
	})

	t.Run("other types rejected", func(t *testing.T) {
		_, err := store.SaveDocument(fileHeader(t, "doc.docx", []byte("word")), "cac")
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})
}
