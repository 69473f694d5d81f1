// Package storage keeps uploaded files (property images, contract documents)
// on local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Upload roots. Keys always start with one of these.
const (
	PropertyImages = "property_images"
	Contracts      = "contracts"
)

// MaxUploadSize caps every stored file.
const MaxUploadSize = 10 << 20 // 10 MiB

// ErrNotExist is returned by Open when no object is stored under the key.
var ErrNotExist = errors.New("stored file does not exist")

// ErrInvalidKey is returned for keys outside the upload roots.
var ErrInvalidKey = errors.New("invalid storage key")

// Store saves and retrieves uploaded files by key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds a unique key under root for an uploaded file name:
// root/<uuid>-<slug>.<ext>
func NewKey(root, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := filepath.Ext(base)
	name := slug.Make(strings.TrimSuffix(base, ext))
	if name == "" {
		name = "file"
	}
	ext = slug.Make(strings.TrimPrefix(ext, "."))
	if ext != "" {
		ext = "." + ext
	}
	return path.Join(root, uuid.NewString()+"-"+name+ext)
}

// Basename returns the file name part of a key.
func Basename(key string) string {
	return path.Base(key)
}

// ValidateKey checks that key is a clean relative path under an upload root.
func ValidateKey(key string) error {
	if key == "" || strings.Contains(key, "\\") || path.Clean(key) != key || path.IsAbs(key) {
		return ErrInvalidKey
	}
	root, rest, ok := strings.Cut(key, "/")
	if !ok || rest == "" || strings.HasPrefix(rest, "..") {
		return ErrInvalidKey
	}
	if root != PropertyImages && root != Contracts {
		return ErrInvalidKey
	}
	return nil
}
