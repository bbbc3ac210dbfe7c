package index

import (
	"context"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/debrepo/internal/engine/lock"
	"go.trai.ch/zerr"
)

// UpdateResult summarizes one Update call.
type UpdateResult struct {
	// Retained counts existing records kept unchanged.
	Retained int
	// Replaced counts existing records dropped because a new record has their identity.
	Replaced int
	// Added counts new records written.
	Added int
	// Orphans lists binaries referenced only by replaced records of this index store.
	// Other index stores may still reference them.
	Orphans []string
}

// Updater merges new records into index stores, replacing records of equal identity.
type Updater struct {
	store   *Store
	storage ports.Storage
	locks   *lock.Striped
}

// NewUpdater creates an Updater. locks serializes work per index key and must be
// shared with every other writer of the same index stores.
func NewUpdater(store *Store, storage ports.Storage, locks *lock.Striped) *Updater {
	return &Updater{store: store, storage: storage, locks: locks}
}

type batch struct {
	records []domain.Record
	ids     map[domain.Identity]struct{}
}

// newBatch validates records and collapses equal identities to their last occurrence.
func newBatch(records []domain.Record) (*batch, error) {
	if len(records) == 0 {
		return nil, zerr.Wrap(domain.ErrNoRecords, "failed to update index store")
	}
	last := make(map[domain.Identity]int, len(records))
	for i, rec := range records {
		id, ok := rec.Identity()
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrMissingIdentity, "failed to add record"), "position", i)
		}
		last[id] = i
	}
	b := &batch{ids: make(map[domain.Identity]struct{}, len(last))}
	for i, rec := range records {
		id, _ := rec.Identity()
		if last[id] != i {
			continue
		}
		b.records = append(b.records, rec)
		b.ids[id] = struct{}{}
	}
	return b, nil
}

// Update merges records into the index store at key. Existing records sharing an
// identity with a new record are dropped and the new records are appended after all
// retained ones. The new content is staged completely before the stored index is
// replaced. Binaries referenced only by dropped records are reported as orphans and
// left in place; see Sweeper.
func (u *Updater) Update(ctx context.Context, key string, records []domain.Record) (UpdateResult, error) {
	b, err := newBatch(records)
	if err != nil {
		return UpdateResult{}, zerr.With(err, "key", key)
	}

	var result UpdateResult
	err = u.locks.Do(ctx, key, func(ctx context.Context) error {
		exists, err := u.store.Exists(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			result.Added = len(b.records)
			return u.store.Create(ctx, key, b.records)
		}

		orphans, err := u.merge(ctx, key, b, &result)
		if err != nil {
			return err
		}
		result.Orphans = orphans
		return nil
	})
	if err != nil {
		return UpdateResult{}, err
	}
	return result, nil
}

// merge rewrites the store and returns the binaries no remaining record references.
func (u *Updater) merge(ctx context.Context, key string, b *batch, result *UpdateResult) ([]string, error) {
	reader, err := u.store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	st, err := u.store.stage()
	if err != nil {
		return nil, err
	}
	defer st.discard()

	referenced := make(map[string]struct{})
	var dropped []string
	for reader.Scan() {
		text := reader.Text()
		rec, parseErr := domain.ParseRecord(text)
		if parseErr == nil {
			if id, ok := rec.Identity(); ok {
				if _, dup := b.ids[id]; dup {
					result.Replaced++
					if filename, ok := rec.Get(domain.FieldFilename); ok && filename != "" {
						dropped = append(dropped, filename)
					}
					continue
				}
			}
			if filename, ok := rec.Get(domain.FieldFilename); ok {
				referenced[filename] = struct{}{}
			}
		}
		if err := st.write(text); err != nil {
			return nil, err
		}
		result.Retained++
	}
	if err := reader.Err(); err != nil {
		return nil, zerr.With(err, "key", key)
	}

	for _, rec := range b.records {
		if filename, ok := rec.Get(domain.FieldFilename); ok {
			referenced[filename] = struct{}{}
		}
		if err := st.write(rec.String()); err != nil {
			return nil, err
		}
	}
	result.Added = len(b.records)

	if err := st.commit(ctx, u.storage, key); err != nil {
		return nil, err
	}

	var orphans []string
	seen := make(map[string]struct{}, len(dropped))
	for _, filename := range dropped {
		if _, ok := referenced[filename]; ok {
			continue
		}
		if _, ok := seen[filename]; ok {
			continue
		}
		seen[filename] = struct{}{}
		orphans = append(orphans, filename)
	}
	return orphans, nil
}
