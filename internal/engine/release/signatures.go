package release

import (
	"bytes"
	"context"
	"errors"
	"io"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/zerr"
)

// Signatures keeps InRelease and Release.gpg in step with the manifest.
type Signatures struct {
	storage ports.Storage
	signer  ports.Signer
	signing domain.SigningConfig
}

// NewSignatures creates a Signatures manager. Signing is active only when signing
// carries both a key and a passphrase.
func NewSignatures(storage ports.Storage, signer ports.Signer, signing domain.SigningConfig) *Signatures {
	return &Signatures{storage: storage, signer: signer, signing: signing}
}

// Refresh re-signs the current manifest of codename. Without signing material both
// signature files are removed.
func (s *Signatures) Refresh(ctx context.Context, codename string) error {
	inRelease := domain.InReleasePath(codename)
	detached := domain.ReleaseSignaturePath(codename)

	if !s.signing.Enabled() {
		for _, key := range []string{inRelease, detached} {
			if err := s.storage.Delete(ctx, key); err != nil {
				return zerr.With(zerr.Wrap(err, "failed to delete signature"), "key", key)
			}
		}
		return nil
	}

	manifest, err := s.manifest(ctx, domain.ReleasePath(codename))
	if err != nil {
		return err
	}

	signed, err := s.signer.Clearsign(manifest, s.signing.SecretKey, s.signing.Passphrase)
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrSigningFailed, err), "failed to clearsign manifest"), "codename", codename)
	}
	sig, err := s.signer.Sign(manifest, s.signing.SecretKey, s.signing.Passphrase)
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrSigningFailed, err), "failed to sign manifest"), "codename", codename)
	}

	if err := s.storage.Save(ctx, inRelease, bytes.NewReader(signed)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write signature"), "key", inRelease)
	}
	if err := s.storage.Save(ctx, detached, bytes.NewReader(sig)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write signature"), "key", detached)
	}
	return nil
}

func (s *Signatures) manifest(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.storage.Value(ctx, key)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open manifest"), "key", key)
	}
	defer func() { _ = blob.Body.Close() }()
	data, err := io.ReadAll(blob.Body)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrStorageFailed, err), "failed to read manifest"), "key", key)
	}
	return data, nil
}
