// Package release maintains the signed Release manifest of a codename.
package release

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/debrepo/internal/engine/lock"
	"go.trai.ch/zerr"
)

// Manifest creates and updates the Release file of one codename.
type Manifest struct {
	storage    ports.Storage
	cfg        *domain.Config
	locks      *lock.Striped
	signatures *Signatures
	now        func() time.Time
}

// Option customizes a Manifest.
type Option func(*Manifest)

// WithClock overrides the time source of the Date header.
func WithClock(now func() time.Time) Option {
	return func(m *Manifest) { m.now = now }
}

// NewManifest creates a Manifest for cfg.Codename.
func NewManifest(storage ports.Storage, cfg *domain.Config, locks *lock.Striped, signatures *Signatures, opts ...Option) *Manifest {
	m := &Manifest{
		storage:    storage,
		cfg:        cfg,
		locks:      locks,
		signatures: signatures,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manifest) header() domain.ManifestHeader {
	return domain.ManifestHeader{
		Codename:      m.cfg.Codename,
		Architectures: m.cfg.Architectures,
		Components:    m.cfg.Components,
		Date:          m.now().UTC(),
	}
}

// Create regenerates the manifest from every index store of the codename and refreshes
// the signatures.
func (m *Manifest) Create(ctx context.Context) error {
	return m.locks.Do(ctx, domain.ReleasePath(m.cfg.Codename), m.create)
}

func (m *Manifest) create(ctx context.Context) error {
	keys, err := m.indexKeys(ctx)
	if err != nil {
		return err
	}
	var entries []domain.ManifestEntry
	for _, key := range keys {
		e, err := indexEntries(ctx, m.storage, key)
		if err != nil {
			return err
		}
		entries = append(entries, e...)
	}
	return m.persist(ctx, domain.RenderManifest(m.header(), entries))
}

// Update recomputes the entries of the index stores at keys and splices them into the
// existing manifest. Entries of index stores that no longer exist are pruned. When no
// manifest exists yet, Update behaves like Create.
func (m *Manifest) Update(ctx context.Context, keys ...domain.IndexKey) error {
	return m.locks.Do(ctx, domain.ReleasePath(m.cfg.Codename), func(ctx context.Context) error {
		current, err := m.read(ctx)
		if err != nil {
			return err
		}
		if current == nil {
			return m.create(ctx)
		}

		var entries []domain.ManifestEntry
		for _, key := range keys {
			e, err := indexEntries(ctx, m.storage, key)
			if err != nil {
				return err
			}
			entries = append(entries, e...)
		}
		text := domain.SpliceManifest(string(current), m.header(), entries, m.present(ctx))
		return m.persist(ctx, text)
	})
}

// present reports whether the file a checksum line describes still exists. A line for a
// decompressed index is kept while its compressed store exists. Lookup failures keep
// the line.
func (m *Manifest) present(ctx context.Context) func(string) bool {
	dir := domain.CodenameDir(m.cfg.Codename)
	return func(rel string) bool {
		key := path.Join(dir, rel)
		if path.Base(key) == "Packages" {
			key += ".gz"
		}
		ok, err := m.storage.Exists(ctx, key)
		return err != nil || ok
	}
}

func (m *Manifest) indexKeys(ctx context.Context) ([]domain.IndexKey, error) {
	listed, err := m.storage.List(ctx, domain.CodenameDir(m.cfg.Codename))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to list index stores"), "codename", m.cfg.Codename)
	}
	var keys []domain.IndexKey
	for _, k := range listed {
		if !strings.HasSuffix(k, "/Packages.gz") {
			continue
		}
		key, err := domain.ParseIndexKey(k)
		if err != nil || key.Codename != m.cfg.Codename {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// read returns the current manifest, or nil when none exists.
func (m *Manifest) read(ctx context.Context) ([]byte, error) {
	key := domain.ReleasePath(m.cfg.Codename)
	ok, err := m.storage.Exists(ctx, key)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to check manifest"), "key", key)
	}
	if !ok {
		return nil, nil
	}
	blob, err := m.storage.Value(ctx, key)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open manifest"), "key", key)
	}
	defer func() { _ = blob.Body.Close() }()
	data, err := io.ReadAll(blob.Body)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "key", key)
	}
	return data, nil
}

func (m *Manifest) persist(ctx context.Context, text string) error {
	key := domain.ReleasePath(m.cfg.Codename)
	if err := m.storage.Save(ctx, key, strings.NewReader(text)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write manifest"), "key", key)
	}
	return m.signatures.Refresh(ctx, m.cfg.Codename)
}

// Read returns the current manifest bytes. A missing manifest yields domain.ErrKeyNotFound.
func (m *Manifest) Read(ctx context.Context) ([]byte, error) {
	data, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrKeyNotFound, "manifest does not exist"), "codename", m.cfg.Codename)
	}
	return data, nil
}
