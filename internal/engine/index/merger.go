package index

import (
	"context"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/engine/lock"
	"go.trai.ch/zerr"
)

// MergeResult summarizes a batch merge.
type MergeResult struct {
	// Written counts records in the merged output.
	Written int
	// Dropped counts records skipped because their identity was already written.
	Dropped int
}

// Merger folds independently produced index stores into one.
type Merger struct {
	store *Store
	locks *lock.Striped
}

// NewMerger creates a Merger. locks must be shared with the Updater of the same stores.
func NewMerger(store *Store, locks *lock.Striped) *Merger {
	return &Merger{store: store, locks: locks}
}

// fold keeps the first record of every identity. Records without identity always pass.
type fold struct {
	seen   map[domain.Identity]struct{}
	result MergeResult
}

func newFold() *fold {
	return &fold{seen: make(map[domain.Identity]struct{})}
}

type recordSource interface {
	Scan() bool
	Text() string
}

func (f *fold) scan(sc recordSource, write func(string) error) error {
	for sc.Scan() {
		text := sc.Text()
		if rec, err := domain.ParseRecord(text); err == nil {
			if id, ok := rec.Identity(); ok {
				if _, dup := f.seen[id]; dup {
					f.result.Dropped++
					continue
				}
				f.seen[id] = struct{}{}
			}
		}
		if err := write(text); err != nil {
			return err
		}
		f.result.Written++
	}
	return nil
}

// MergeStreams reads gzip-compressed index stores from sources in order and writes the
// merged, compressed index to w.
func MergeStreams(w io.Writer, sources ...io.Reader) (MergeResult, error) {
	gz := gzip.NewWriter(w)
	rw := &recordWriter{w: gz}
	f := newFold()

	for i, src := range sources {
		zr, err := gzip.NewReader(src)
		if errors.Is(err, io.EOF) {
			continue
		}
		if err != nil {
			return MergeResult{}, zerr.With(zerr.Wrap(errors.Join(domain.ErrUnsupportedFormat, err), "failed to decompress source"), "source", i)
		}
		sc := NewScanner(zr)
		err = f.scan(sc, rw.write)
		_ = zr.Close()
		if err != nil {
			return MergeResult{}, zerr.With(zerr.Wrap(err, "failed to write merged record"), "source", i)
		}
		if err := sc.Err(); err != nil {
			return MergeResult{}, zerr.With(zerr.Wrap(errors.Join(domain.ErrUnsupportedFormat, err), "failed to read source"), "source", i)
		}
	}
	if err := rw.finish(); err != nil {
		return MergeResult{}, zerr.Wrap(err, "failed to finish merged index")
	}
	if err := gz.Close(); err != nil {
		return MergeResult{}, zerr.Wrap(err, "failed to finish merged compression")
	}
	return f.result, nil
}

// Merge folds the index stores at sources into dst. The merged content is staged and
// then replaces dst in one write. dst may also appear among sources.
func (m *Merger) Merge(ctx context.Context, sources []string, dst string) (MergeResult, error) {
	var result MergeResult
	err := m.locks.Do(ctx, dst, func(ctx context.Context) error {
		st, err := m.store.stage()
		if err != nil {
			return err
		}
		defer st.discard()

		f := newFold()
		for _, src := range sources {
			if err := m.foldSource(ctx, f, src, st); err != nil {
				return err
			}
		}
		if err := st.commit(ctx, m.store.storage, dst); err != nil {
			return err
		}
		result = f.result
		return nil
	})
	if err != nil {
		return MergeResult{}, zerr.With(err, "destination", dst)
	}
	return result, nil
}

func (m *Merger) foldSource(ctx context.Context, f *fold, src string, st *stage) error {
	reader, err := m.store.Open(ctx, src)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	if err := f.scan(reader, st.write); err != nil {
		return err
	}
	if err := reader.Err(); err != nil {
		return zerr.With(err, "source", src)
	}
	return nil
}
