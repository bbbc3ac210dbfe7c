package cas

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
)

// MemoryStore implements ports.Storage in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Exists reports whether key holds an object.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Value opens the object at key.
func (s *MemoryStore) Value(ctx context.Context, key string) (*ports.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "failed to open object"), "key", key)
	}
	return &ports.Blob{Body: io.NopCloser(bytes.NewReader(data)), Size: int64(len(data))}, nil
}

// Save replaces the object at key with the content of r.
func (s *MemoryStore) Save(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storageError(err, "failed to read object content", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

// Delete removes the object at key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// List returns every key starting with prefix.
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
