// Package formatter turns extracted control text into index records.
package formatter

import (
	"context"
	"errors"
	"io"
	"strconv"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
)

// Formatter appends the computed Filename, Size and digest fields to control records.
type Formatter struct {
	storage ports.Storage
}

// New creates a Formatter reading binaries from storage.
func New(storage ports.Storage) *Formatter {
	return &Formatter{storage: storage}
}

// Format builds the index record of the binary stored at key. The binary is read once
// and hashed with every algorithm in domain.RecordDigests.
func (f *Formatter) Format(ctx context.Context, control, key string) (domain.Record, error) {
	rec, err := parse(control, key)
	if err != nil {
		return domain.Record{}, err
	}

	blob, err := f.storage.Value(ctx, key)
	if err != nil {
		return domain.Record{}, zerr.With(zerr.Wrap(err, "failed to open binary"), "key", key)
	}
	defer func() { _ = blob.Body.Close() }()

	return complete(rec, key, blob.Body, blob.Size)
}

// FormatReader builds the index record of a binary that will be stored at key but is
// read from body, which must yield exactly size bytes.
func (f *Formatter) FormatReader(control, key string, body io.Reader, size int64) (domain.Record, error) {
	rec, err := parse(control, key)
	if err != nil {
		return domain.Record{}, err
	}
	return complete(rec, key, body, size)
}

func parse(control, key string) (domain.Record, error) {
	rec, err := domain.ParseRecord(control)
	if err != nil {
		return domain.Record{}, zerr.With(zerr.Wrap(err, "failed to parse control"), "key", key)
	}
	if rec.Len() == 0 {
		return domain.Record{}, zerr.With(zerr.Wrap(domain.ErrMetadataNotFound, "control has no fields"), "key", key)
	}
	return rec, nil
}

func complete(rec domain.Record, key string, body io.Reader, size int64) (domain.Record, error) {
	if size < 0 {
		return domain.Record{}, zerr.With(zerr.Wrap(domain.ErrSizeUnknown, "store reported no length"), "key", key)
	}

	digester := domain.NewDigester(domain.RecordDigests...)
	if _, err := io.Copy(digester, body); err != nil {
		return domain.Record{}, zerr.With(zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to read binary"), "key", key)
	}
	if digester.Size() != size {
		return domain.Record{}, zerr.With(
			zerr.With(zerr.Wrap(domain.ErrSizeUnknown, "stored length does not match content"), "key", key),
			"read", digester.Size(),
		)
	}

	rec = rec.
		Append(domain.FieldFilename, key).
		Append(domain.FieldSize, strconv.FormatInt(size, 10))
	for _, alg := range domain.RecordDigests {
		rec = rec.Append(alg.Field(), digester.Sum(alg))
	}
	return rec.PackageFirst(), nil
}
