// Package index maintains the compressed per-architecture package lists.
package index

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store reads and creates index stores in the object store.
type Store struct {
	storage    ports.Storage
	stagingDir string
}

// NewStore creates a Store. stagingDir holds scratch files while new content is
// materialized; empty means the system temporary directory.
func NewStore(storage ports.Storage, stagingDir string) *Store {
	return &Store{storage: storage, stagingDir: stagingDir}
}

// Exists reports whether an index store exists at key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.storage.Exists(ctx, key)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to check index store"), "key", key)
	}
	return ok, nil
}

// Create writes records as a new index store at key, replacing any previous content.
func (s *Store) Create(ctx context.Context, key string, records []domain.Record) error {
	st, err := s.stage()
	if err != nil {
		return err
	}
	defer st.discard()

	for _, rec := range records {
		if err := st.write(rec.String()); err != nil {
			return err
		}
	}
	return st.commit(ctx, s.storage, key)
}

// Open streams the records of the index store at key.
func (s *Store) Open(ctx context.Context, key string) (*Reader, error) {
	blob, err := s.storage.Value(ctx, key)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open index store"), "key", key)
	}
	gz, err := gzip.NewReader(blob.Body)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Reader{Scanner: NewScanner(strings.NewReader("")), body: blob.Body}, nil
		}
		_ = blob.Body.Close()
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrUnsupportedFormat, err), "failed to decompress index store"), "key", key)
	}
	return &Reader{Scanner: NewScanner(gz), body: blob.Body, gz: gz}, nil
}

func (s *Store) stage() (*stage, error) {
	return newStage(s.stagingDir)
}

// Reader streams records of one index store.
type Reader struct {
	*Scanner
	body io.Closer
	gz   *gzip.Reader
}

// Err returns the first read or decompression error.
func (r *Reader) Err() error {
	if err := r.Scanner.Err(); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrUnsupportedFormat, err), "failed to read index store")
	}
	return nil
}

// Close releases the underlying object.
func (r *Reader) Close() error {
	if r.gz != nil {
		_ = r.gz.Close()
	}
	return r.body.Close()
}
