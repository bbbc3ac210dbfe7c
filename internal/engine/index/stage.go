package index

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
)

// stage materializes a new compressed index in a scratch file. The target key is only
// touched by commit, with one whole-object write.
type stage struct {
	file    *os.File
	gz      *gzip.Writer
	records *recordWriter
	closed  bool
}

func newStage(dir string) (*stage, error) {
	f, err := os.CreateTemp(dir, "debrepo-index-*.gz")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to create staging file"), "dir", dir)
	}
	gz := gzip.NewWriter(f)
	return &stage{file: f, gz: gz, records: &recordWriter{w: gz}}, nil
}

func (s *stage) write(record string) error {
	if err := s.records.write(record); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to write staged record")
	}
	return nil
}

// commit finalizes compression and saves the staged content under key.
func (s *stage) commit(ctx context.Context, storage ports.Storage, key string) error {
	if err := s.records.finish(); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to finish staged index")
	}
	if err := s.gz.Close(); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to finish staged compression")
	}
	s.closed = true
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to rewind staging file")
	}
	if err := storage.Save(ctx, key, s.file); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to swap index store"), "key", key)
	}
	return nil
}

// discard removes the scratch file. It is safe to call after commit.
func (s *stage) discard() {
	if !s.closed {
		_ = s.gz.Close()
	}
	_ = s.file.Close()
	_ = os.Remove(s.file.Name())
}
