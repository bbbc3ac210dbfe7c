// Package control extracts the control paragraph from Debian binary packages.
package control

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	arMagic      = "!<arch>\n"
	memberPrefix = "control"
	controlFile  = "control"
)

// Extractor reads the control file out of a .deb container.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text of the control file carried by the package read from r.
// The first ar member whose name starts with "control" is decoded according to its
// suffix.
func (e *Extractor) Extract(r io.Reader) (string, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(arMagic))
	if err != nil || !bytes.Equal(magic, []byte(arMagic)) {
		return "", zerr.Wrap(domain.ErrUnsupportedFormat, "package is not an ar archive")
	}

	archive := ar.NewReader(br)
	for {
		hdr, err := archive.Next()
		if errors.Is(err, io.EOF) {
			return "", zerr.Wrap(domain.ErrMetadataNotFound, "package has no control member")
		}
		if err != nil {
			return "", formatError(err, "failed to read ar member header")
		}
		name := strings.TrimSuffix(strings.TrimSpace(hdr.Name), "/")
		if !strings.HasPrefix(name, memberPrefix) {
			continue
		}
		return readMember(archive, name)
	}
}

func readMember(r io.Reader, member string) (string, error) {
	tarball, closer, err := decompress(r, member)
	if err != nil {
		return "", err
	}
	defer closer()

	tr := tar.NewReader(tarball)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return "", zerr.With(zerr.Wrap(domain.ErrMetadataNotFound, "control archive has no control file"), "member", member)
		}
		if err != nil {
			return "", zerr.With(formatError(err, "failed to read control archive"), "member", member)
		}
		if hdr.Typeflag != tar.TypeReg || path.Clean(strings.TrimPrefix(hdr.Name, "./")) != controlFile {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return "", zerr.With(formatError(err, "failed to read control file"), "member", member)
		}
		if !utf8.Valid(data) {
			return "", zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "control file is not valid UTF-8"), "member", member)
		}
		return string(data), nil
	}
}

// decompress picks the decoder from the member suffix.
func decompress(r io.Reader, member string) (io.Reader, func(), error) {
	switch path.Ext(member) {
	case ".gz":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, zerr.With(formatError(err, "failed to open gzip control archive"), "member", member)
		}
		return gz, func() { _ = gz.Close() }, nil
	case ".xz":
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, zerr.With(formatError(err, "failed to open xz control archive"), "member", member)
		}
		return xzr, func() {}, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, zerr.With(formatError(err, "failed to open zstd control archive"), "member", member)
		}
		return zr, zr.Close, nil
	case ".tar":
		return r, func() {}, nil
	default:
		return nil, nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedFormat, "unsupported control archive compression"), "member", member)
	}
}

func formatError(err error, msg string) error {
	return zerr.Wrap(errors.Join(domain.ErrUnsupportedFormat, err), msg)
}
