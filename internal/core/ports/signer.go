package ports

// Signer produces OpenPGP signatures with SHA-256.
//
//go:generate go run go.uber.org/mock/mockgen -source=signer.go -destination=mocks/mock_signer.go -package=mocks
type Signer interface {
	// Sign returns an armored detached signature over data.
	Sign(data, secretKey []byte, passphrase string) ([]byte, error)

	// Clearsign returns data wrapped in a clearsigned document.
	Clearsign(data, secretKey []byte, passphrase string) ([]byte, error)
}
