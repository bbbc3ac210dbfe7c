// Package repo runs the repository pipelines: upload ingestion, bulk indexing, index
// merging and manifest regeneration.
package repo

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/debrepo/internal/engine/control"
	"go.trai.ch/debrepo/internal/engine/formatter"
	"go.trai.ch/debrepo/internal/engine/index"
	"go.trai.ch/debrepo/internal/engine/lock"
	"go.trai.ch/debrepo/internal/engine/release"
	"go.trai.ch/zerr"
)

// Repository maintains the metadata of one codename.
type Repository struct {
	cfg       *domain.Config
	storage   ports.Storage
	logger    ports.Logger
	extractor *control.Extractor
	formatter *formatter.Formatter
	store     *index.Store
	updater   *index.Updater
	sweeper   *index.Sweeper
	merger    *index.Merger
	manifest  *release.Manifest
	workers   int
}

type options struct {
	now     func() time.Time
	workers int
}

// Option customizes a Repository.
type Option func(*options)

// WithClock overrides the time source of the manifest Date header.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithWorkers bounds how many binaries IngestExisting formats at once.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// New creates a Repository for cfg on storage.
func New(cfg *domain.Config, storage ports.Storage, signer ports.Signer, logger ports.Logger, opts ...Option) *Repository {
	o := options{now: time.Now, workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	locks := lock.New()
	store := index.NewStore(storage, cfg.Storage.Staging)
	signatures := release.NewSignatures(storage, signer, cfg.Signing)
	return &Repository{
		cfg:       cfg,
		storage:   storage,
		logger:    logger,
		extractor: control.NewExtractor(),
		formatter: formatter.New(storage),
		store:     store,
		updater:   index.NewUpdater(store, storage, locks),
		sweeper:   index.NewSweeper(store, storage, logger),
		merger:    index.NewMerger(store, locks),
		manifest:  release.NewManifest(storage, cfg, locks, signatures, release.WithClock(o.now)),
		workers:   o.workers,
	}
}

// Config returns the configuration the repository was created with.
func (r *Repository) Config() *domain.Config {
	return r.cfg
}

// Result describes the index stores touched by an ingestion.
type Result struct {
	// Records holds the record of every ingested binary.
	Records []domain.Record
	// Keys lists the index stores that were updated.
	Keys []domain.IndexKey
	// Removed lists binaries deleted because newer uploads replaced them in every index
	// store that listed them.
	Removed []string
}

// Publish validates body as a package, stores it under key and indexes it. The body is
// staged locally first, so a rejected upload never touches the object store. When
// indexing fails before any index store references a newly stored binary, the binary
// is deleted again. A binary that replaced an existing object is kept.
func (r *Repository) Publish(ctx context.Context, key string, body io.Reader) (Result, error) {
	component, err := r.component("", key)
	if err != nil {
		return Result{}, err
	}

	staged, err := stageUpload(r.cfg.Storage.Staging, body)
	if err != nil {
		return Result{}, zerr.With(err, "key", key)
	}
	defer staged.discard()

	rec, err := r.formatUpload(key, staged)
	if err != nil {
		return Result{}, err
	}
	batches, err := r.route(component, key, rec)
	if err != nil {
		return Result{}, err
	}

	existed, err := r.storage.Exists(ctx, key)
	if err != nil {
		return Result{}, zerr.With(zerr.Wrap(err, "failed to check upload key"), "key", key)
	}
	content, err := staged.reader()
	if err != nil {
		return Result{}, err
	}
	if err := r.storage.Save(ctx, key, content); err != nil {
		return Result{}, zerr.With(zerr.Wrap(err, "failed to store upload"), "key", key)
	}

	res, err := r.apply(ctx, batches)
	res.Records = []domain.Record{rec}
	if err != nil {
		if len(res.Keys) == 0 && !existed {
			r.rollback(context.WithoutCancel(ctx), key)
		}
		return res, err
	}
	r.logger.Info(fmt.Sprintf("indexed %s into %d index stores", key, len(res.Keys)))
	return res, nil
}

func (r *Repository) rollback(ctx context.Context, key string) {
	if err := r.storage.Delete(ctx, key); err != nil {
		r.logger.Error(zerr.With(zerr.Wrap(err, "failed to delete rejected upload"), "key", key))
		return
	}
	r.logger.Warn(fmt.Sprintf("deleted rejected upload %s", key))
}

// Ingest adds the binary already stored at key to the index stores of every architecture
// it targets, then updates the manifest once. An empty component is derived from the
// first path segment of key, falling back to the default component.
func (r *Repository) Ingest(ctx context.Context, component, key string) (Result, error) {
	component, err := r.component(component, key)
	if err != nil {
		return Result{}, err
	}

	rec, err := r.format(ctx, key)
	if err != nil {
		return Result{}, err
	}
	batches, err := r.route(component, key, rec)
	if err != nil {
		return Result{}, err
	}

	res, err := r.apply(ctx, batches)
	res.Records = []domain.Record{rec}
	if err != nil {
		return res, err
	}
	r.logger.Info(fmt.Sprintf("indexed %s into %d index stores", key, len(res.Keys)))
	return res, nil
}

// IngestExisting indexes binaries already present in the object store. Every binary is
// formatted before any index store changes, so a bad binary leaves the repository as it
// was. Each touched index store is updated once and the manifest once.
func (r *Repository) IngestExisting(ctx context.Context, component string, keys []string) (Result, error) {
	if len(keys) == 0 {
		return Result{}, domain.ErrNoRecords
	}
	component, err := r.component(component, keys[0])
	if err != nil {
		return Result{}, err
	}

	records, err := r.formatAll(ctx, keys)
	if err != nil {
		return Result{}, err
	}

	batches := make(map[domain.IndexKey][]domain.Record)
	for i, rec := range records {
		routed, err := r.route(component, keys[i], rec)
		if err != nil {
			return Result{}, err
		}
		for key, recs := range routed {
			batches[key] = append(batches[key], recs...)
		}
	}

	res, err := r.apply(ctx, batches)
	res.Records = records
	if err != nil {
		return res, err
	}
	r.logger.Info(fmt.Sprintf("indexed %d binaries into %d index stores", len(records), len(res.Keys)))
	return res, nil
}

// Merge folds the index stores at sources into dst. When dst is an index store of this
// codename the manifest is updated.
func (r *Repository) Merge(ctx context.Context, sources []string, dst string) (index.MergeResult, error) {
	res, err := r.merger.Merge(ctx, sources, dst)
	if err != nil {
		return index.MergeResult{}, err
	}
	if key, perr := domain.ParseIndexKey(dst); perr == nil && key.Codename == r.cfg.Codename {
		if err := r.manifest.Update(ctx, key); err != nil {
			return res, err
		}
	}
	r.logger.Info(fmt.Sprintf("merged %d records into %s, dropped %d duplicates", res.Written, dst, res.Dropped))
	return res, nil
}

// Rebuild regenerates the manifest from every index store. It also provisions the
// manifest of a new repository.
func (r *Repository) Rebuild(ctx context.Context) error {
	if err := r.manifest.Create(ctx); err != nil {
		return err
	}
	r.logger.Info(fmt.Sprintf("regenerated manifest of %s", r.cfg.Codename))
	return nil
}

// Manifest returns the current manifest bytes.
func (r *Repository) Manifest(ctx context.Context) ([]byte, error) {
	return r.manifest.Read(ctx)
}

func (r *Repository) component(component, key string) (string, error) {
	if component == "" {
		if first, _, ok := strings.Cut(key, "/"); ok && r.cfg.HasComponent(first) {
			return first, nil
		}
		return r.cfg.DefaultComponent(), nil
	}
	if !r.cfg.HasComponent(component) {
		return "", zerr.With(zerr.Wrap(domain.ErrUnknownComponent, "failed to resolve component"), "component", component)
	}
	return component, nil
}

func (r *Repository) formatUpload(key string, staged *upload) (domain.Record, error) {
	content, err := staged.reader()
	if err != nil {
		return domain.Record{}, err
	}
	text, err := r.extractor.Extract(content)
	if err != nil {
		return domain.Record{}, zerr.With(err, "key", key)
	}
	if content, err = staged.reader(); err != nil {
		return domain.Record{}, err
	}
	return r.formatter.FormatReader(text, key, content, staged.size)
}

func (r *Repository) format(ctx context.Context, key string) (domain.Record, error) {
	blob, err := r.storage.Value(ctx, key)
	if err != nil {
		return domain.Record{}, zerr.With(zerr.Wrap(err, "failed to open binary"), "key", key)
	}
	text, err := r.extractor.Extract(blob.Body)
	_ = blob.Body.Close()
	if err != nil {
		return domain.Record{}, zerr.With(err, "key", key)
	}
	return r.formatter.Format(ctx, text, key)
}

// route maps rec onto the index stores of every configured architecture it targets.
func (r *Repository) route(component, key string, rec domain.Record) (map[domain.IndexKey][]domain.Record, error) {
	field, _ := rec.Get(domain.FieldArchitecture)
	archs := r.cfg.TargetArchitectures(field)
	if len(archs) == 0 {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrNoMatchingArchitecture, "failed to route package"), "key", key), "architecture", field)
	}
	out := make(map[domain.IndexKey][]domain.Record, len(archs))
	for _, arch := range archs {
		ik := r.cfg.IndexKey(component, arch)
		out[ik] = append(out[ik], rec)
	}
	return out, nil
}
