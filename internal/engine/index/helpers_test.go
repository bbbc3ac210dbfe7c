package index_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/engine/index"
)

const testKey = "dists/artipie/main/binary-amd64/Packages.gz"

func record(t *testing.T, name, version, filename string) domain.Record {
	t.Helper()
	rec, err := domain.ParseRecord(fmt.Sprintf(
		"Package: %s\nVersion: %s\nArchitecture: amd64\nFilename: %s\nDescription: test package\n more text",
		name, version, filename,
	))
	require.NoError(t, err)
	return rec
}

func readAll(t *testing.T, store *index.Store, key string) []string {
	t.Helper()
	r, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var out []string
	for r.Scan() {
		out = append(out, r.Text())
	}
	require.NoError(t, r.Err())
	return out
}

func identities(t *testing.T, texts []string) []string {
	t.Helper()
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		rec, err := domain.ParseRecord(text)
		require.NoError(t, err)
		id, ok := rec.Identity()
		require.True(t, ok)
		out = append(out, id.String())
	}
	return out
}
