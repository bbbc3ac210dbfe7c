package index

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
)

const storeSuffix = "/Packages.gz"

// Sweeper deletes binaries that no index store references any more.
type Sweeper struct {
	store   *Store
	storage ports.Storage
	logger  ports.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(store *Store, storage ports.Storage, logger ports.Logger) *Sweeper {
	return &Sweeper{store: store, storage: storage, logger: logger}
}

// Sweep deletes every candidate that no index store below prefix references and
// returns the deleted keys in lexical order. When an index store cannot be read no
// candidate is deleted. Failures are logged, never returned.
func (s *Sweeper) Sweep(ctx context.Context, prefix string, candidates []string) []string {
	pending := make(map[string]struct{}, len(candidates))
	for _, key := range candidates {
		if key != "" {
			pending[key] = struct{}{}
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if err := s.unreferenced(ctx, prefix, pending); err != nil {
		s.logger.Error(zerr.With(zerr.Wrap(err, "failed to scan index stores for orphaned binaries"), "prefix", prefix))
		return nil
	}

	var removed []string
	for _, key := range slices.Sorted(maps.Keys(pending)) {
		exists, err := s.storage.Exists(ctx, key)
		if err != nil {
			s.logger.Error(zerr.With(zerr.Wrap(err, "failed to check orphaned binary"), "key", key))
			continue
		}
		if !exists {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Error(zerr.With(zerr.Wrap(err, "failed to delete orphaned binary"), "key", key))
			continue
		}
		removed = append(removed, key)
	}
	return removed
}

// unreferenced removes from pending every binary some index store below prefix lists.
func (s *Sweeper) unreferenced(ctx context.Context, prefix string, pending map[string]struct{}) error {
	keys, err := s.storage.List(ctx, prefix)
	if err != nil {
		return zerr.Wrap(err, "failed to list index stores")
	}
	for _, key := range keys {
		if len(pending) == 0 {
			return nil
		}
		if !strings.HasSuffix(key, storeSuffix) {
			continue
		}
		if err := s.release(ctx, key, pending); err != nil {
			if errors.Is(err, domain.ErrKeyNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

func (s *Sweeper) release(ctx context.Context, key string, pending map[string]struct{}) error {
	r, err := s.store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	for r.Scan() {
		rec, err := domain.ParseRecord(r.Text())
		if err != nil {
			continue
		}
		if filename, ok := rec.Get(domain.FieldFilename); ok {
			delete(pending, filename)
		}
	}
	if err := r.Err(); err != nil {
		return zerr.With(err, "key", key)
	}
	return nil
}
