// Package storage is the blob side of the backend: upload by key, public
// URL retrieval, delete by key. Size and type validation happens here, on
// the client side of the store, never in the store itself.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize is the upload ceiling enforced before any write.
const MaxImageSize = 5 << 20 // 5 MiB

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	ErrTooLarge    = errors.New("image exceeds the size limit")
	ErrWrongType   = errors.New("only jpeg, png, gif and webp images are accepted")
	ErrKeyNotFound = errors.New("no blob stored under that key")
)

// Store is the blob storage collaborator.
type Store interface {
	// Upload validates and stores an image, returning its key.
	Upload(contentType string, size int64, r io.Reader) (key string, err error)
	// PublicURL returns the URL a browser can fetch the blob from.
	PublicURL(key string) string
	// Delete removes the blob stored under key.
	Delete(key string) error
}

// ValidateImage applies the client-enforced rules: images only, size
// ceiling checked before upload.
func ValidateImage(contentType string, size int64) error {
	if size > MaxImageSize {
		return ErrTooLarge
	}
	if _, ok := imageExtensions[contentType]; !ok {
		return ErrWrongType
	}
	return nil
}

// Local stores blobs on disk under a base directory and serves them from a
// base URL path.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates the storage directory if needed.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the directory blobs are written to.
func (l *Local) Dir() string { return l.dir }

func (l *Local) Upload(contentType string, size int64, r io.Reader) (string, error) {
	if err := ValidateImage(contentType, size); err != nil {
		return "", err
	}

	key := uuid.NewString() + imageExtensions[contentType]
	f, err := os.Create(filepath.Join(l.dir, key))
	if err != nil {
		return "", fmt.Errorf("creating blob file: %w", err)
	}
	defer f.Close()

	// The declared size was validated; cap the copy so an oversized body
	// cannot sneak past it.
	n, err := io.Copy(f, io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if n > MaxImageSize {
		_ = os.Remove(f.Name())
		return "", ErrTooLarge
	}
	return key, nil
}

func (l *Local) PublicURL(key string) string {
	return l.baseURL + "/" + key
}

func (l *Local) Delete(key string) error {
	// Keys are uuid + extension; reject anything that could traverse.
	if key != filepath.Base(key) {
		return ErrKeyNotFound
	}
	err := os.Remove(filepath.Join(l.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return ErrKeyNotFound
	}
	return err
}
