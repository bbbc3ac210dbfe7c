// Package testutil builds Debian packages and signing keys for tests.
package testutil

import (
	"archive/tar"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// DebOptions controls how BuildDeb lays out the package.
type DebOptions struct {
	// ControlMember is the ar member holding the control archive. Its suffix selects
	// the compression. Defaults to control.tar.gz.
	ControlMember string
	// ControlName is the tar entry holding the control text. Defaults to ./control.
	ControlName string
	// SkipControl leaves the control member out of the package.
	SkipControl bool
}

// DebOption customizes BuildDeb.
type DebOption func(*DebOptions)

// WithControlMember sets the ar member name of the control archive.
func WithControlMember(name string) DebOption {
	return func(o *DebOptions) { o.ControlMember = name }
}

// WithControlName sets the tar entry name of the control file.
func WithControlName(name string) DebOption {
	return func(o *DebOptions) { o.ControlName = name }
}

// WithoutControl builds a package without a control member.
func WithoutControl() DebOption {
	return func(o *DebOptions) { o.SkipControl = true }
}

// BuildDeb returns the bytes of a Debian binary package carrying control.
func BuildDeb(t testing.TB, control string, opts ...DebOption) []byte {
	t.Helper()
	o := DebOptions{ControlMember: "control.tar.gz", ControlName: "./control"}
	for _, opt := range opts {
		opt(&o)
	}

	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	if err := w.WriteGlobalHeader(); err != nil {
		t.Fatalf("failed to write ar header: %v", err)
	}
	writeMember(t, w, "debian-binary", []byte("2.0\n"))
	if !o.SkipControl {
		tarball := buildTar(t, map[string]string{
			"./md5sums":   "d41d8cd98f00b204e9800998ecf8427e  usr/share/doc/empty\n",
			o.ControlName: control,
		})
		writeMember(t, w, o.ControlMember, compress(t, o.ControlMember, tarball))
	}
	writeMember(t, w, "data.tar.gz", compress(t, "data.tar.gz", buildTar(t, map[string]string{
		"./usr/share/doc/empty": "",
	})))
	return buf.Bytes()
}

func writeMember(t testing.TB, w *ar.Writer, name string, data []byte) {
	t.Helper()
	hdr := &ar.Header{Name: name, Size: int64(len(data)), Mode: 0o644, ModTime: time.Unix(1700000000, 0)}
	if err := w.WriteHeader(hdr); err != nil {
		t.Fatalf("failed to write ar member header: %v", err)
	}
	// A single Write keeps the odd-length padding of the ar writer correct.
	if _, err := w.Write(data); err != nil {
		t.Fatalf("failed to write ar member: %v", err)
	}
}

func buildTar(t testing.TB, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: "./", Typeflag: tar.TypeDir, Mode: 0o755}); err != nil {
		t.Fatalf("failed to write tar dir: %v", err)
	}
	// md5sums first keeps the control entry from being the first regular file.
	names := make([]string, 0, len(files))
	for name := range files {
		if name == "./md5sums" {
			names = append([]string{name}, names...)
			continue
		}
		names = append(names, name)
	}
	for _, name := range names {
		content := files[name]
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header: %v", err)
		}
		if _, err := io.WriteString(tw, content); err != nil {
			t.Fatalf("failed to write tar entry: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar: %v", err)
	}
	return buf.Bytes()
}

func compress(t testing.TB, member string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch {
	case strings.HasSuffix(member, ".gz"):
		w = gzip.NewWriter(&buf)
	case strings.HasSuffix(member, ".xz"):
		w, err = xz.NewWriter(&buf)
	case strings.HasSuffix(member, ".zst"):
		w, err = zstd.NewWriter(&buf)
	default:
		return data
	}
	if err != nil {
		t.Fatalf("failed to create compressor: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to finish compression: %v", err)
	}
	return buf.Bytes()
}

// Control returns a minimal control paragraph for the package.
func Control(name, version, arch string) string {
	return "Package: " + name + "\n" +
		"Version: " + version + "\n" +
		"Architecture: " + arch + "\n" +
		"Maintainer: Debian Fonts Task Force <pkg-fonts-devel@lists.alioth.debian.org>\n" +
		"Installed-Size: 56\n" +
		"Section: fonts\n" +
		"Priority: extra\n" +
		"Description: Adobe Glyph List For New Fonts\n" +
		" AGL (Adobe Glyph List) maps glyph names to Unicode values.\n"
}
