// Package cas implements the object stores holding repository binaries and metadata.
package cas

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
)

const tempPrefix = ".tmp-"

// FileStore implements ports.Storage on a local directory. Writes are atomic: data is
// written to a temp file next to the target and then renamed into place.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at the given directory.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, zerr.Wrap(domain.ErrInvalidConfig, "file store requires a root directory")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve store root"), "root", root)
	}
	return &FileStore{root: abs}, nil
}

// Root returns the absolute directory backing the store.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.HasPrefix(path.Base(cleaned), tempPrefix) {
		return "", zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "invalid object key"), "key", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Exists reports whether key holds an object.
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return false, nil
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, storageError(err, "failed to stat object", key)
	}
	return info.Mode().IsRegular(), nil
}

// Value opens the object at key.
func (s *FileStore) Value(ctx context.Context, key string) (*ports.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // path is confined to the store root
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "failed to open object"), "key", key)
		}
		return nil, storageError(err, "failed to open object", key)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, storageError(err, "failed to stat object", key)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "object is not a regular file"), "key", key)
	}
	return &ports.Blob{Body: f, Size: info.Size()}, nil
}

// Save replaces the object at key with the content of r.
func (s *FileStore) Save(ctx context.Context, key string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := s.resolve(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return storageError(err, "failed to create object directory", key)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return storageError(err, "failed to create temp file", key)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return storageError(err, "failed to write object", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return storageError(err, "failed to close temp file", key)
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return storageError(err, "failed to rename object into place", key)
	}
	return nil
}

// Delete removes the object at key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(key)
	if err != nil {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return storageError(err, "failed to delete object", key)
	}
	return nil
}

// List returns every key starting with prefix.
func (s *FileStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), tempPrefix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err, "failed to list objects", prefix)
	}
	slices.Sort(keys)
	return keys, nil
}

func storageError(err error, msg, key string) error {
	return zerr.With(zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), msg), "key", key)
}
