// Package blob stores uploaded payloads on the local filesystem under a
// single base directory, split into named areas (uploads, profile images).
// Callers are expected to pass generated names; user-supplied names are
// rejected if they contain path separators.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	AreaUploads       = "uploads"
	AreaProfileImages = "profile-images"
)

var ErrInvalidName = errors.New("invalid blob name")

// Store is a local-disk payload store rooted at a base directory.
type Store struct {
	root string
}

// NewStore creates the base directory if needed and returns a Store.
func NewStore(root string) (*Store, error) {
	if root == "" {
		root = "./data"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute base directory of the store.
func (s *Store) Root() string { return s.root }

// path validates that area and name are single path elements and joins them
// under the store root.
func (s *Store) path(area, name string) (string, error) {
	for _, part := range []string{area, name} {
		if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return "", ErrInvalidName
		}
	}
	return filepath.Join(s.root, area, name), nil
}

// Save writes the payload under area/name, creating the area directory on
// demand, and returns the absolute path of the written file.
func (s *Store) Save(area, name string, r io.Reader) (string, error) {
	p, err := s.path(area, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create blob area: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return "", fmt.Errorf("close blob: %w", err)
	}
	return p, nil
}

// Open opens the payload for reading. A missing blob surfaces as an error
// satisfying errors.Is(err, os.ErrNotExist).
func (s *Store) Open(area, name string) (io.ReadCloser, error) {
	p, err := s.path(area, name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Size returns the byte size of a stored payload.
func (s *Store) Size(area, name string) (int64, error) {
	p, err := s.path(area, name)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Exists reports whether a payload is present on disk.
func (s *Store) Exists(area, name string) bool {
	p, err := s.path(area, name)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Remove deletes a payload. Removing a missing payload is not an error.
func (s *Store) Remove(area, name string) error {
	p, err := s.path(area, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
