// Package pgp implements ports.Signer with OpenPGP keys.
package pgp

import (
	"bytes"
	"crypto"
	"errors"

	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/crypto/openpgp"           //nolint:staticcheck // apt clients verify classic OpenPGP signatures
	"golang.org/x/crypto/openpgp/clearsign" //nolint:staticcheck // see above
	"golang.org/x/crypto/openpgp/packet"    //nolint:staticcheck // see above
)

const armorHeader = "-----BEGIN PGP"

// Signer implements ports.Signer.
type Signer struct {
	config *packet.Config
}

// NewSigner creates a Signer hashing with SHA-256.
func NewSigner() *Signer {
	return &Signer{config: &packet.Config{DefaultHash: crypto.SHA256}}
}

// Sign returns an armored detached signature over data.
func (s *Signer) Sign(data, secretKey []byte, passphrase string) ([]byte, error) {
	entity, err := s.entity(secretKey, passphrase)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&buf, entity, bytes.NewReader(data), s.config); err != nil {
		return nil, signingError(err, "failed to create detached signature")
	}
	return buf.Bytes(), nil
}

// Clearsign returns data wrapped in a clearsigned document.
func (s *Signer) Clearsign(data, secretKey []byte, passphrase string) ([]byte, error) {
	entity, err := s.entity(secretKey, passphrase)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, entity.PrivateKey, s.config)
	if err != nil {
		return nil, signingError(err, "failed to start clearsigned document")
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, signingError(err, "failed to write clearsigned document")
	}
	if err := w.Close(); err != nil {
		return nil, signingError(err, "failed to finish clearsigned document")
	}
	return buf.Bytes(), nil
}

// entity reads the first secret key of the keyring, decrypting it when needed.
func (s *Signer) entity(secretKey []byte, passphrase string) (*openpgp.Entity, error) {
	var (
		keyring openpgp.EntityList
		err     error
	)
	if bytes.Contains(secretKey, []byte(armorHeader)) {
		keyring, err = openpgp.ReadArmoredKeyRing(bytes.NewReader(secretKey))
	} else {
		keyring, err = openpgp.ReadKeyRing(bytes.NewReader(secretKey))
	}
	if err != nil {
		return nil, signingError(err, "failed to read secret keyring")
	}

	for _, entity := range keyring {
		if entity.PrivateKey == nil {
			continue
		}
		if err := decrypt(entity.PrivateKey, passphrase); err != nil {
			return nil, err
		}
		for _, sub := range entity.Subkeys {
			if sub.PrivateKey != nil {
				if err := decrypt(sub.PrivateKey, passphrase); err != nil {
					return nil, err
				}
			}
		}
		return entity, nil
	}
	return nil, signingError(errors.New("keyring holds no secret key"), "failed to select signing key")
}

func decrypt(key *packet.PrivateKey, passphrase string) error {
	if !key.Encrypted {
		return nil
	}
	if err := key.Decrypt([]byte(passphrase)); err != nil {
		return signingError(err, "failed to decrypt secret key")
	}
	return nil
}

func signingError(err error, msg string) error {
	return zerr.Wrap(errors.Join(domain.ErrSigningFailed, err), msg)
}
