// Package fs provides a filesystem simpleingest.BlobStore.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-ingest/pkg/simpleingest"
)

// Store is a filesystem implementation of the simpleingest.BlobStore
// interface.
type Store struct {
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem store.
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // URL prefix for delivery URLs
}

// New creates a new filesystem store, creating the base directory if needed.
func New(config Config) (*Store, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{
		baseDir:   config.BaseDir,
		urlPrefix: strings.TrimSuffix(config.URLPrefix, "/"),
	}, nil
}

func (s *Store) Upload(ctx context.Context, objectKey, contentType string, data []byte) error {
	filePath, err := s.objectPath(objectKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

func (s *Store) URL(ctx context.Context, objectKey string) (string, error) {
	if s.urlPrefix == "" {
		return "", errors.New("url prefix not configured")
	}
	if _, err := s.objectPath(objectKey); err != nil {
		return "", err
	}
	return s.urlPrefix + "/" + objectKey, nil
}

func (s *Store) Delete(ctx context.Context, objectKey string) error {
	filePath, err := s.objectPath(objectKey)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// objectPath resolves an object key under the base directory, rejecting
// traversal outside it.
func (s *Store) objectPath(objectKey string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(s.baseDir, objectKey))
	if !strings.HasPrefix(cleaned, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return "", errors.New("invalid object key")
	}
	return cleaned, nil
}

var _ simpleingest.BlobStore = (*Store)(nil)
