package domain

import (
	"path"
	"strings"

	"go.trai.ch/zerr"
)

const (
	distsDir       = "dists"
	indexFile      = "Packages.gz"
	releaseFile    = "Release"
	inReleaseFile  = "InRelease"
	releaseSigFile = "Release.gpg"
	binaryPrefix   = "binary-"
)

// IndexKey identifies one architecture's package list within a codename and component.
type IndexKey struct {
	Codename  string
	Component string
	Arch      string
}

// Path returns the object store key of the compressed index store.
func (k IndexKey) Path() string {
	return path.Join(distsDir, k.Codename, k.Component, binaryPrefix+k.Arch, indexFile)
}

// Relative returns the compressed index path relative to the codename directory.
func (k IndexKey) Relative() string {
	return path.Join(k.Component, binaryPrefix+k.Arch, indexFile)
}

// RelativeUncompressed returns the decompressed index path relative to the codename directory.
func (k IndexKey) RelativeUncompressed() string {
	return strings.TrimSuffix(k.Relative(), ".gz")
}

// String returns the storage path of the key.
func (k IndexKey) String() string {
	return k.Path()
}

// ParseIndexKey parses a storage key of the form dists/{codename}/{component}/binary-{arch}/Packages.gz.
func ParseIndexKey(key string) (IndexKey, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 5 || parts[0] != distsDir || parts[4] != indexFile ||
		!strings.HasPrefix(parts[3], binaryPrefix) || len(parts[3]) == len(binaryPrefix) ||
		parts[1] == "" || parts[2] == "" {
		return IndexKey{}, zerr.With(zerr.Wrap(ErrInvalidIndexKey, "failed to parse index key"), "key", key)
	}
	return IndexKey{
		Codename:  parts[1],
		Component: parts[2],
		Arch:      strings.TrimPrefix(parts[3], binaryPrefix),
	}, nil
}

// CodenameDir returns the object store prefix holding all metadata of a codename.
func CodenameDir(codename string) string {
	return path.Join(distsDir, codename) + "/"
}

// ReleasePath returns the key of the manifest.
func ReleasePath(codename string) string {
	return path.Join(distsDir, codename, releaseFile)
}

// InReleasePath returns the key of the clearsigned manifest.
func InReleasePath(codename string) string {
	return path.Join(distsDir, codename, inReleaseFile)
}

// ReleaseSignaturePath returns the key of the detached manifest signature.
func ReleaseSignaturePath(codename string) string {
	return path.Join(distsDir, codename, releaseSigFile)
}
