package repo

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/debrepo/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

// formatAll formats the binaries at keys with at most r.workers in flight. Records keep
// the order of keys.
func (r *Repository) formatAll(ctx context.Context, keys []string) ([]domain.Record, error) {
	records := make([]domain.Record, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, key := range keys {
		g.Go(func() error {
			rec, err := r.format(gctx, key)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// apply updates every index store in batches concurrently, one goroutine per key. It then
// deletes replaced binaries no index store of the codename references and refreshes
// the manifest for the stores that changed, including when another store failed.
func (r *Repository) apply(ctx context.Context, batches map[domain.IndexKey][]domain.Record) (Result, error) {
	var (
		mu      sync.Mutex
		res     Result
		orphans []string
	)
	g, gctx := errgroup.WithContext(ctx)
	for key, records := range batches {
		g.Go(func() error {
			out, err := r.updater.Update(gctx, key.Path(), records)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			res.Keys = append(res.Keys, key)
			orphans = append(orphans, out.Orphans...)
			return nil
		})
	}
	updateErr := g.Wait()

	slices.SortFunc(res.Keys, func(a, b domain.IndexKey) int {
		return strings.Compare(a.Path(), b.Path())
	})
	if len(res.Keys) == 0 {
		return res, updateErr
	}
	if len(orphans) > 0 {
		res.Removed = r.sweeper.Sweep(context.WithoutCancel(ctx), domain.CodenameDir(r.cfg.Codename), orphans)
	}

	mctx := ctx
	if updateErr != nil {
		mctx = context.WithoutCancel(ctx)
	}
	if err := r.manifest.Update(mctx, res.Keys...); err != nil {
		if updateErr != nil {
			r.logger.Error(err)
			return res, updateErr
		}
		return res, err
	}
	return res, updateErr
}
