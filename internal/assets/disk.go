// Package assets stores uploaded complaint and profile images on local
// disk and hands back the public URL they are served from.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes is the largest upload accepted.
const MaxImageBytes = 5 << 20

var (
	ErrUnsupportedType = errors.New("only jpg, jpeg and png images are allowed")
	ErrTooLarge        = errors.New("image must be at most 5 MiB")
)

// allowed maps permitted extensions to the content type the file must sniff as.
var allowed = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// DiskStore writes images into Dir as <uuid><ext>.  Files are served by the
// HTTP server under /uploads, so the returned reference is
// BaseURL + "/uploads/" + name.
type DiskStore struct {
	Dir     string
	BaseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save validates fh and copies it into the store.
func (s *DiskStore) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	want, ok := allowed[ext]
	if !ok {
		return "", ErrUnsupportedType
	}
	if fh.Size > MaxImageBytes {
		return "", ErrTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", ErrUnsupportedType
	}
	if http.DetectContentType(head[:n]) != want {
		return "", ErrUnsupportedType
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.Dir, name)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head[:n]), io.LimitReader(src, MaxImageBytes-int64(n)+1)))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err == nil && written > MaxImageBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return s.BaseURL + "/uploads/" + name, nil
}
