package assets_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hostel-buddy/internal/assets"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// fileHeader builds a *multipart.FileHeader the way echo hands it to handlers.
func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["image"][0]
}

func TestDiskStoreSavesPNG(t *testing.T) {
	dir := t.TempDir()
	s, err := assets.NewDiskStore(dir, "http://localhost:8080/")
	require.NoError(t, err)

	url, err := s.Save(fileHeader(t, "Tap.PNG", pngHeader))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)
}

func TestDiskStoreRejects(t *testing.T) {
	s, err := assets.NewDiskStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.Save(fileHeader(t, "notes.gif", pngHeader))
	assert.ErrorIs(t, err, assets.ErrUnsupportedType)

	_, err = s.Save(fileHeader(t, "fake.jpg", []byte("just some text")))
	assert.ErrorIs(t, err, assets.ErrUnsupportedType)

	big := append(append([]byte{}, pngHeader...), make([]byte, assets.MaxImageBytes)...)
	_, err = s.Save(fileHeader(t, "big.png", big))
	assert.ErrorIs(t, err, assets.ErrTooLarge)
}
