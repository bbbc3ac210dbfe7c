package ports

import (
	"context"
	"io"

	"go.trai.ch/debrepo/internal/core/domain"
)

// Blob is the content of one stored object.
type Blob struct {
	// Body streams the object bytes. Callers must close it.
	Body io.ReadCloser
	// Size is the object length in bytes, or a negative value when the store does not know it.
	Size int64
}

// Storage is the object store holding binaries and repository metadata.
// Keys are slash separated paths.
//
//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=mocks/mock_storage.go -package=mocks
type Storage interface {
	// Exists reports whether key holds an object.
	Exists(ctx context.Context, key string) (bool, error)

	// Value opens the object at key. Missing keys yield domain.ErrKeyNotFound.
	Value(ctx context.Context, key string) (*Blob, error)

	// Save replaces the object at key with the content of r. Readers never observe
	// a partially written object.
	Save(ctx context.Context, key string, r io.Reader) error

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every key starting with prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// StorageProvider opens the object store described by the configuration.
type StorageProvider interface {
	Open(cfg domain.StorageConfig) (Storage, error)
}
