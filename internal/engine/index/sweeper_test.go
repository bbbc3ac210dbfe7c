package index_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/debrepo/internal/adapters/cas"
	"go.trai.ch/debrepo/internal/adapters/logger"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/engine/index"
)

const armKey = "dists/artipie/main/binary-arm64/Packages.gz"

func seedBinaries(t *testing.T, storage *cas.MemoryStore, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, storage.Save(context.Background(), key, strings.NewReader(key)))
	}
}

func TestSweep_KeepsBinariesReferencedByAnyStore(t *testing.T) {
	ctx := context.Background()
	storage := cas.NewMemoryStore()
	store := index.NewStore(storage, t.TempDir())
	sweeper := index.NewSweeper(store, storage, logger.NewWithWriter(io.Discard))

	seedBinaries(t, storage, "main/shared.deb", "main/gone.deb")
	require.NoError(t, store.Create(ctx, testKey, []domain.Record{record(t, "a", "1", "main/a.deb")}))
	require.NoError(t, store.Create(ctx, armKey, []domain.Record{record(t, "s", "1", "main/shared.deb")}))

	removed := sweeper.Sweep(ctx, domain.CodenameDir("artipie"), []string{"main/shared.deb", "main/gone.deb", "main/gone.deb"})

	assert.Equal(t, []string{"main/gone.deb"}, removed)
	ok, err := storage.Exists(ctx, "main/shared.deb")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = storage.Exists(ctx, "main/gone.deb")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSweep_IgnoresStoresOutsidePrefix(t *testing.T) {
	ctx := context.Background()
	storage := cas.NewMemoryStore()
	store := index.NewStore(storage, t.TempDir())
	sweeper := index.NewSweeper(store, storage, logger.NewWithWriter(io.Discard))

	seedBinaries(t, storage, "main/a.deb")
	require.NoError(t, store.Create(ctx, "dists/other/main/binary-amd64/Packages.gz", []domain.Record{
		record(t, "a", "1", "main/a.deb"),
	}))

	assert.Equal(t, []string{"main/a.deb"}, sweeper.Sweep(ctx, domain.CodenameDir("artipie"), []string{"main/a.deb"}))
}

func TestSweep_UnreadableStoreKeepsCandidates(t *testing.T) {
	ctx := context.Background()
	storage := cas.NewMemoryStore()
	store := index.NewStore(storage, t.TempDir())
	sweeper := index.NewSweeper(store, storage, logger.NewWithWriter(io.Discard))

	seedBinaries(t, storage, "main/a.deb")
	require.NoError(t, storage.Save(ctx, armKey, strings.NewReader("Package: a\n")))

	assert.Empty(t, sweeper.Sweep(ctx, domain.CodenameDir("artipie"), []string{"main/a.deb"}))
	ok, err := storage.Exists(ctx, "main/a.deb")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSweep_NoCandidates(t *testing.T) {
	storage := cas.NewMemoryStore()
	sweeper := index.NewSweeper(index.NewStore(storage, t.TempDir()), storage, logger.NewWithWriter(io.Discard))

	assert.Empty(t, sweeper.Sweep(context.Background(), domain.CodenameDir("artipie"), nil))
}
