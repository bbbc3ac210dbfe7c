package domain

import (
	"crypto/md5"  //nolint:gosec // MD5sum is part of the apt index format
	"crypto/sha1" //nolint:gosec // SHA1 is part of the apt index format
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// DigestAlgorithm enumerates the content digests written into index records.
type DigestAlgorithm int

const (
	// DigestMD5 is the legacy MD5 digest, written as MD5sum.
	DigestMD5 DigestAlgorithm = iota
	// DigestSHA1 is the legacy SHA-1 digest.
	DigestSHA1
	// DigestSHA256 is the strong digest every consumer verifies.
	DigestSHA256
)

// RecordDigests lists the digests appended to every record, in output order.
var RecordDigests = []DigestAlgorithm{DigestMD5, DigestSHA1, DigestSHA256}

// Field returns the control field name used for the digest.
func (a DigestAlgorithm) Field() string {
	switch a {
	case DigestMD5:
		return "MD5sum"
	case DigestSHA1:
		return "SHA1"
	case DigestSHA256:
		return "SHA256"
	default:
		return "unknown"
	}
}

func (a DigestAlgorithm) newHash() hash.Hash {
	switch a {
	case DigestMD5:
		return md5.New() //nolint:gosec // format requirement
	case DigestSHA1:
		return sha1.New() //nolint:gosec // format requirement
	default:
		return sha256.New()
	}
}

// Digester hashes one stream with several algorithms at once and counts its bytes.
type Digester struct {
	algs   []DigestAlgorithm
	hashes []hash.Hash
	size   int64
}

// NewDigester creates a Digester for the given algorithms.
func NewDigester(algs ...DigestAlgorithm) *Digester {
	d := &Digester{algs: algs, hashes: make([]hash.Hash, len(algs))}
	for i, a := range algs {
		d.hashes[i] = a.newHash()
	}
	return d
}

// Write feeds p to every hash. It never fails.
func (d *Digester) Write(p []byte) (int, error) {
	for _, h := range d.hashes {
		_, _ = h.Write(p)
	}
	d.size += int64(len(p))
	return len(p), nil
}

// Size returns the number of bytes written so far.
func (d *Digester) Size() int64 {
	return d.size
}

// Sum returns the hex digest for alg, or an empty string if alg was not requested.
func (d *Digester) Sum(alg DigestAlgorithm) string {
	for i, a := range d.algs {
		if a == alg {
			return hex.EncodeToString(d.hashes[i].Sum(nil))
		}
	}
	return ""
}
