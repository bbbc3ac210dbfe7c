package release

import (
	"context"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
)

// indexEntries reads the index store at key once and returns the manifest entries of its
// compressed and decompressed forms.
func indexEntries(ctx context.Context, storage ports.Storage, key domain.IndexKey) ([]domain.ManifestEntry, error) {
	blob, err := storage.Value(ctx, key.Path())
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read index store"), "key", key.Path())
	}
	defer func() { _ = blob.Body.Close() }()

	compressed := domain.NewDigester(domain.DigestSHA256)
	decompressed := domain.NewDigester(domain.DigestSHA256)
	tee := io.TeeReader(blob.Body, compressed)

	zr, err := gzip.NewReader(tee)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrUnsupportedFormat, err), "failed to decompress index store"), "key", key.Path())
	default:
		_, err = io.Copy(decompressed, zr)
		_ = zr.Close()
		if err != nil {
			return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrUnsupportedFormat, err), "failed to digest index store"), "key", key.Path())
		}
	}
	if _, err := io.Copy(io.Discard, tee); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to digest index store"), "key", key.Path())
	}

	return []domain.ManifestEntry{
		{Digest: compressed.Sum(domain.DigestSHA256), Size: compressed.Size(), Path: key.Relative()},
		{Digest: decompressed.Sum(domain.DigestSHA256), Size: decompressed.Size(), Path: key.RelativeUncompressed()},
	}, nil
}
