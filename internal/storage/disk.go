package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DiskStore keeps files under a media directory, one subdirectory per upload root.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload roots under dir.
func NewDiskStore(dir string) (*DiskStore, error) {
	for _, root := range []string{PropertyImages, Contracts} {
		p := filepath.Join(dir, root)
		if err := os.MkdirAll(p, 0o755); err != nil {
			return nil, fmt.Errorf("creating upload root %s: %w", p, err)
		}
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

// Put writes r to key. The file appears atomically once fully written.
func (s *DiskStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dest, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once renamed.
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, io.LimitReader(r, MaxUploadSize+1)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", key, err)
	}

	info, err := os.Stat(tmpName)
	if err != nil {
		return fmt.Errorf("checking %s: %w", key, err)
	}
	if info.Size() > MaxUploadSize {
		return fmt.Errorf("file exceeds %d bytes", MaxUploadSize)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("moving %s into place: %w", key, err)
	}
	return nil
}

// Open returns the file stored under key, or ErrNotExist.
func (s *DiskStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", key, err)
	}
	return f, nil
}

// Delete removes the file under key. Missing files are not an error.
func (s *DiskStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
