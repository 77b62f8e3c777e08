// Package memory provides an in-memory simpleingest.BlobStore for tests and
// development.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/tendant/simple-ingest/pkg/simpleingest"
)

// Store implements simpleingest.BlobStore using an in-memory map.
type Store struct {
	mu        sync.RWMutex
	objects   map[string][]byte
	types     map[string]string
	urlPrefix string
}

// New creates a new in-memory blob store. URLs are urlPrefix + key.
func New(urlPrefix string) *Store {
	if urlPrefix == "" {
		urlPrefix = "memory://"
	}
	return &Store{
		objects:   make(map[string][]byte),
		types:     make(map[string]string),
		urlPrefix: urlPrefix,
	}
}

func (s *Store) Upload(ctx context.Context, objectKey, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[objectKey] = buf
	s.types[objectKey] = contentType
	return nil
}

func (s *Store) URL(ctx context.Context, objectKey string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[objectKey]; !ok {
		return "", errors.New("object not found")
	}
	return s.urlPrefix + objectKey, nil
}

func (s *Store) Delete(ctx context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, objectKey)
	delete(s.types, objectKey)
	return nil
}

// Get returns stored bytes and content type (tests).
func (s *Store) Get(objectKey string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[objectKey]
	return data, s.types[objectKey], ok
}

var _ simpleingest.BlobStore = (*Store)(nil)
