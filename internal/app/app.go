// Package app implements the application layer for debrepo.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/debrepo/internal/engine/repo"
	"go.trai.ch/zerr"
)

// App runs repository operations against the repository described by a config file.
type App struct {
	configLoader ports.ConfigLoader
	storage      ports.StorageProvider
	signer       ports.Signer
	logger       ports.Logger
	telemetry    ports.Telemetry
	repoOptions  []repo.Option
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	storage ports.StorageProvider,
	signer ports.Signer,
	logger ports.Logger,
	telemetry ports.Telemetry,
) *App {
	return &App{
		configLoader: loader,
		storage:      storage,
		signer:       signer,
		logger:       logger,
		telemetry:    telemetry,
	}
}

// WithRepositoryOptions configures the repositories the App opens.
func (a *App) WithRepositoryOptions(opts ...repo.Option) *App {
	a.repoOptions = append(a.repoOptions, opts...)
	return a
}

// Options holds the settings shared by every operation.
type Options struct {
	// ConfigPath is the repository configuration file. Empty selects debrepo.yaml.
	ConfigPath string
	// Component overrides the component binaries are indexed under.
	Component string
}

// Upload copies the local package file into the repository and indexes it.
func (a *App) Upload(ctx context.Context, file string, opts Options) error {
	return a.run(ctx, "upload "+filepath.Base(file), opts, func(ctx context.Context, r *repo.Repository, out io.Writer) error {
		component := opts.Component
		if component == "" {
			component = r.Config().DefaultComponent()
		}
		if !r.Config().HasComponent(component) {
			return zerr.With(zerr.Wrap(domain.ErrUnknownComponent, "failed to upload package"), "component", component)
		}

		f, err := os.Open(file) //nolint:gosec // path is provided by user
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to open package"), "file", file)
		}
		defer func() { _ = f.Close() }()

		key := component + "/" + filepath.Base(file)
		res, err := r.Publish(ctx, key, f)
		if err != nil {
			return zerr.Wrap(err, "failed to publish package")
		}
		report(out, key, res)
		return nil
	})
}

// Add indexes binaries already stored in the repository.
func (a *App) Add(ctx context.Context, keys []string, opts Options) error {
	return a.run(ctx, "add", opts, func(ctx context.Context, r *repo.Repository, out io.Writer) error {
		res, err := r.IngestExisting(ctx, opts.Component, keys)
		if err != nil {
			return zerr.Wrap(err, "failed to index binaries")
		}
		report(out, fmt.Sprintf("%d binaries", len(keys)), res)
		return nil
	})
}

// Merge folds the index stores at sources into dst.
func (a *App) Merge(ctx context.Context, dst string, sources []string, opts Options) error {
	return a.run(ctx, "merge "+dst, opts, func(ctx context.Context, r *repo.Repository, out io.Writer) error {
		res, err := r.Merge(ctx, sources, dst)
		if err != nil {
			return zerr.Wrap(err, "failed to merge index stores")
		}
		_, _ = fmt.Fprintf(out, "merged %d records into %s (%d duplicates dropped)\n", res.Written, dst, res.Dropped)
		return nil
	})
}

// Release regenerates and re-signs the manifest.
func (a *App) Release(ctx context.Context, opts Options) error {
	return a.run(ctx, "release", opts, func(ctx context.Context, r *repo.Repository, out io.Writer) error {
		if err := r.Rebuild(ctx); err != nil {
			return zerr.Wrap(err, "failed to regenerate manifest")
		}
		manifest, err := r.Manifest(ctx)
		if err != nil {
			return err
		}
		_, _ = out.Write(manifest)
		return nil
	})
}

func (a *App) run(
	ctx context.Context,
	name string,
	opts Options,
	fn func(context.Context, *repo.Repository, io.Writer) error,
) (err error) {
	ctx, vertex := a.telemetry.Record(ctx, name)
	defer func() { vertex.Complete(err) }()

	r, err := a.open(opts.ConfigPath)
	if err != nil {
		return err
	}
	return fn(ctx, r, vertex.Stdout())
}

func (a *App) open(path string) (*repo.Repository, error) {
	cfg, err := a.configLoader.Load(path)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	storage, err := a.storage.Open(cfg.Storage)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open storage")
	}
	return repo.New(cfg, storage, a.signer, a.logger, a.repoOptions...), nil
}

func report(out io.Writer, subject string, res repo.Result) {
	for _, key := range res.Keys {
		_, _ = fmt.Fprintf(out, "indexed %s into %s\n", subject, key.Path())
	}
	for _, key := range res.Removed {
		_, _ = fmt.Fprintf(out, "removed superseded %s\n", key)
	}
}
