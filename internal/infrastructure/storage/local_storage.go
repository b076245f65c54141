package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	catalogapp "github.com/commerce/backend/internal/application/catalog"
)

var _ catalogapp.ObjectStorage = (*LocalObjectStorage)(nil)

// ErrInvalidKey is returned for keys escaping the storage directory
var ErrInvalidKey = errors.New("storage key is invalid")

// LocalObjectStorage writes objects below a directory served at PublicBaseURL
type LocalObjectStorage struct {
	dir     string
	baseURL string
}

// NewLocalObjectStorage creates dir when missing
func NewLocalObjectStorage(dir, publicBaseURL string) (*LocalObjectStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalObjectStorage{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Dir returns the root directory
func (s *LocalObjectStorage) Dir() string {
	return s.dir
}

func (s *LocalObjectStorage) path(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, clean), nil
}

// Put writes body to a temporary file and renames it into place
func (s *LocalObjectStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tmp.Name(), target)
}

// URL returns the public URL of key
func (s *LocalObjectStorage) URL(_ context.Context, key string) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}

// Delete removes key. Missing files are not an error.
func (s *LocalObjectStorage) Delete(_ context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
