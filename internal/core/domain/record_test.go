package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/debrepo/internal/core/domain"
)

func TestParseRecord(t *testing.T) {
	rec, err := domain.ParseRecord("Version: 1.7-3\n" +
		"Package: aglfn\n" +
		"Description: Adobe Glyph List\n" +
		" first line\n" +
		"\t.\n" +
		"Depends:\n" +
		" libc6\n")
	require.NoError(t, err)

	require.Equal(t, 4, rec.Len())
	fields := rec.Fields()
	assert.Equal(t, domain.Field{Name: "Description", Value: "Adobe Glyph List\n first line\n\t."}, fields[2])
	assert.Equal(t, domain.Field{Name: "Depends", Value: "\n libc6"}, fields[3])

	value, ok := rec.Get("description")
	assert.True(t, ok)
	assert.Equal(t, "Adobe Glyph List", value)

	id, ok := rec.Identity()
	require.True(t, ok)
	assert.Equal(t, domain.Identity{Name: "aglfn", Version: "1.7-3"}, id)
	assert.Equal(t, "aglfn@1.7-3", id.String())
}

func TestParseRecord_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "leading continuation", text: " orphan\nPackage: a"},
		{name: "missing colon", text: "Package: a\nnot a field"},
		{name: "empty name", text: ": value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseRecord(tt.text)
			require.ErrorIs(t, err, domain.ErrMalformedRecord)
		})
	}
}

func TestRecord_StringRoundTrip(t *testing.T) {
	text := "Package: aglfn\nVersion: 1.7-3\nDepends:\n libc6\nDescription: x\n more\n .\n end"
	rec, err := domain.ParseRecord(text)
	require.NoError(t, err)

	assert.Equal(t, text, rec.String())
}

func TestRecord_Identity(t *testing.T) {
	tests := []struct {
		name string
		text string
		ok   bool
	}{
		{name: "complete", text: "Package: a\nVersion: 1", ok: true},
		{name: "no version", text: "Package: a", ok: false},
		{name: "no package", text: "Version: 1", ok: false},
		{name: "blank version", text: "Package: a\nVersion:", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := domain.ParseRecord(tt.text)
			require.NoError(t, err)
			_, ok := rec.Identity()
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestRecord_PackageFirst(t *testing.T) {
	rec := domain.NewRecord(
		domain.Field{Name: "Version", Value: "1"},
		domain.Field{Name: "Architecture", Value: "all"},
		domain.Field{Name: "Package", Value: "a"},
	)

	assert.Equal(t, "Package: a\nVersion: 1\nArchitecture: all", rec.PackageFirst().String())
	assert.Equal(t, "Version: 1\nArchitecture: all\nPackage: a", rec.String())
}

func TestRecord_AppendDoesNotAlias(t *testing.T) {
	base := domain.NewRecord(domain.Field{Name: "Package", Value: "a"})
	one := base.Append("Size", "1")
	two := base.Append("Size", "2")

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, "Package: a\nSize: 1", one.String())
	assert.Equal(t, "Package: a\nSize: 2", two.String())
}

func TestRecord_StringIsCanonical(t *testing.T) {
	rec, err := domain.ParseRecord("Package:aglfn\r\nVersion: 1.7-3\r\nEssential: \r\nDescription: list\r\n more\r\n")
	require.NoError(t, err)

	assert.Equal(t, "Package: aglfn\nVersion: 1.7-3\nEssential:\nDescription: list\n more", rec.String())
}
