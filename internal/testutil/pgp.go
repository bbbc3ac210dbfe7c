package testutil

import (
	"bytes"
	"testing"

	"golang.org/x/crypto/openpgp"        //nolint:staticcheck // matches the signer adapter
	"golang.org/x/crypto/openpgp/armor"  //nolint:staticcheck // see above
	"golang.org/x/crypto/openpgp/packet" //nolint:staticcheck // see above
)

// SigningKey returns an armored secret key and the keyring verifying its signatures.
func SigningKey(t testing.TB) ([]byte, openpgp.EntityList) {
	t.Helper()
	cfg := &packet.Config{RSABits: 1024}
	entity, err := openpgp.NewEntity("Repository Signing", "test", "repo@example.com", cfg)
	if err != nil {
		t.Fatalf("failed to create entity: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("failed to start armor: %v", err)
	}
	if err := entity.SerializePrivate(w, cfg); err != nil {
		t.Fatalf("failed to serialize secret key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish armor: %v", err)
	}
	return buf.Bytes(), openpgp.EntityList{entity}
}
