package blob

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps blobs as flat files in a single directory. Handles map
// directly to file names, so they must never contain path separators.
type DiskStore struct {
	dir        string
	staticBase string // URL prefix the directory is served under
}

// NewDiskStore creates the content directory if it does not exist yet.
func NewDiskStore(dir, staticBase string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	return &DiskStore{dir: dir, staticBase: strings.TrimRight(staticBase, "/")}, nil
}

func (s *DiskStore) Put(handle string, r io.Reader) (int64, error) {
	path, err := s.path(handle)
	if err != nil {
		return 0, err
	}

	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create blob file: %w", err)
	}

	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path) // partial write, do not leave it behind
		return 0, fmt.Errorf("failed to write blob: %w", err)
	}
	return n, nil
}

func (s *DiskStore) Delete(handle string) error {
	path, err := s.path(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *DiskStore) Open(handle string) (io.ReadCloser, error) {
	path, err := s.path(handle)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (s *DiskStore) PublicURL(handle string) string {
	return s.staticBase + "/" + handle
}

func (s *DiskStore) Exists(handle string) bool {
	path, err := s.path(handle)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Dir returns the content directory the store serves from.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) path(handle string) (string, error) {
	if handle == "" || handle != filepath.Base(handle) {
		return "", fmt.Errorf("invalid blob handle %q", handle)
	}
	return filepath.Join(s.dir, handle), nil
}
