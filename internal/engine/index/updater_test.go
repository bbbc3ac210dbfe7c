package index_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/debrepo/internal/adapters/cas"
	"go.trai.ch/debrepo/internal/core/domain"
	"go.trai.ch/debrepo/internal/core/ports"
	"go.trai.ch/debrepo/internal/core/ports/mocks"
	"go.trai.ch/debrepo/internal/engine/index"
	"go.trai.ch/debrepo/internal/engine/lock"
	"go.uber.org/mock/gomock"
)

func newUpdater(t *testing.T, storage ports.Storage) (*index.Updater, *index.Store) {
	t.Helper()
	store := index.NewStore(storage, t.TempDir())
	return index.NewUpdater(store, storage, lock.New()), store
}

func TestUpdate_CreatesMissingStore(t *testing.T) {
	ctx := context.Background()
	updater, store := newUpdater(t, cas.NewMemoryStore())

	res, err := updater.Update(ctx, testKey, []domain.Record{record(t, "aglfn", "1.7-3", "main/aglfn.deb")})
	require.NoError(t, err)

	assert.Equal(t, index.UpdateResult{Added: 1}, res)
	assert.Equal(t, []string{"aglfn@1.7-3"}, identities(t, readAll(t, store, testKey)))
}

func TestUpdate_AppendsAfterRetained(t *testing.T) {
	ctx := context.Background()
	updater, store := newUpdater(t, cas.NewMemoryStore())

	_, err := updater.Update(ctx, testKey, []domain.Record{
		record(t, "a", "1", "main/a.deb"),
		record(t, "b", "1", "main/b.deb"),
	})
	require.NoError(t, err)

	res, err := updater.Update(ctx, testKey, []domain.Record{record(t, "c", "1", "main/c.deb")})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Retained)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, []string{"a@1", "b@1", "c@1"}, identities(t, readAll(t, store, testKey)))
}

func TestUpdate_IdempotentReAdd(t *testing.T) {
	ctx := context.Background()
	updater, store := newUpdater(t, cas.NewMemoryStore())
	batch := []domain.Record{record(t, "a", "1", "main/a.deb"), record(t, "b", "2", "main/b.deb")}

	_, err := updater.Update(ctx, testKey, batch)
	require.NoError(t, err)
	first := readAll(t, store, testKey)

	res, err := updater.Update(ctx, testKey, batch)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Replaced)
	assert.Equal(t, first, readAll(t, store, testKey))
}

func TestUpdate_Commutative(t *testing.T) {
	ctx := context.Background()
	a := []domain.Record{record(t, "a", "1", "main/a.deb")}
	b := []domain.Record{record(t, "b", "1", "main/b.deb")}

	u1, s1 := newUpdater(t, cas.NewMemoryStore())
	_, err := u1.Update(ctx, testKey, a)
	require.NoError(t, err)
	_, err = u1.Update(ctx, testKey, b)
	require.NoError(t, err)

	u2, s2 := newUpdater(t, cas.NewMemoryStore())
	_, err = u2.Update(ctx, testKey, b)
	require.NoError(t, err)
	_, err = u2.Update(ctx, testKey, a)
	require.NoError(t, err)

	assert.ElementsMatch(t, readAll(t, s1, testKey), readAll(t, s2, testKey))
}

func TestUpdate_ReplacementReportsOrphan(t *testing.T) {
	ctx := context.Background()
	storage := cas.NewMemoryStore()
	updater, store := newUpdater(t, storage)

	require.NoError(t, storage.Save(ctx, "main/a_old.deb", strings.NewReader("old")))
	require.NoError(t, storage.Save(ctx, "main/a_new.deb", strings.NewReader("new")))
	_, err := updater.Update(ctx, testKey, []domain.Record{record(t, "a", "1", "main/a_old.deb")})
	require.NoError(t, err)

	res, err := updater.Update(ctx, testKey, []domain.Record{record(t, "a", "1", "main/a_new.deb")})
	require.NoError(t, err)

	assert.Equal(t, []string{"main/a_old.deb"}, res.Orphans)
	ok, err := storage.Exists(ctx, "main/a_old.deb")
	require.NoError(t, err)
	assert.True(t, ok)

	got := readAll(t, store, testKey)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Filename: main/a_new.deb")
}

func TestUpdate_ReplacementKeepsSharedBinary(t *testing.T) {
	ctx := context.Background()
	storage := cas.NewMemoryStore()
	updater, _ := newUpdater(t, storage)

	require.NoError(t, storage.Save(ctx, "main/a.deb", strings.NewReader("deb")))
	_, err := updater.Update(ctx, testKey, []domain.Record{record(t, "a", "1", "main/a.deb")})
	require.NoError(t, err)

	res, err := updater.Update(ctx, testKey, []domain.Record{record(t, "a", "1", "main/a.deb")})
	require.NoError(t, err)

	assert.Empty(t, res.Orphans)
	ok, err := storage.Exists(ctx, "main/a.deb")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdate_VersionsAreDistinct(t *testing.T) {
	ctx := context.Background()
	updater, store := newUpdater(t, cas.NewMemoryStore())

	_, err := updater.Update(ctx, testKey, []domain.Record{record(t, "a", "1", "main/a_1.deb")})
	require.NoError(t, err)
	_, err = updater.Update(ctx, testKey, []domain.Record{record(t, "a", "2", "main/a_2.deb")})
	require.NoError(t, err)

	assert.Equal(t, []string{"a@1", "a@2"}, identities(t, readAll(t, store, testKey)))
}

func TestUpdate_LastDuplicateInBatchWins(t *testing.T) {
	ctx := context.Background()
	updater, store := newUpdater(t, cas.NewMemoryStore())

	res, err := updater.Update(ctx, testKey, []domain.Record{
		record(t, "a", "1", "main/first.deb"),
		record(t, "b", "1", "main/b.deb"),
		record(t, "a", "1", "main/second.deb"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Added)
	got := readAll(t, store, testKey)
	assert.Equal(t, []string{"b@1", "a@1"}, identities(t, got))
	assert.Contains(t, got[1], "Filename: main/second.deb")
}

func TestUpdate_KeepsUnidentifiedExistingRecords(t *testing.T) {
	ctx := context.Background()
	storage := cas.NewMemoryStore()
	updater, store := newUpdater(t, storage)

	odd, err := domain.ParseRecord("Comment: no identity here")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, testKey, []domain.Record{odd}))

	res, err := updater.Update(ctx, testKey, []domain.Record{record(t, "a", "1", "main/a.deb")})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Retained)
	got := readAll(t, store, testKey)
	require.Len(t, got, 2)
	assert.Equal(t, "Comment: no identity here", got[0])
}

func TestUpdate_RejectsInvalidBatches(t *testing.T) {
	updater, _ := newUpdater(t, cas.NewMemoryStore())

	_, err := updater.Update(context.Background(), testKey, nil)
	require.ErrorIs(t, err, domain.ErrNoRecords)

	nameless, parseErr := domain.ParseRecord("Version: 1\nArchitecture: amd64")
	require.NoError(t, parseErr)
	_, err = updater.Update(context.Background(), testKey, []domain.Record{nameless})
	require.ErrorIs(t, err, domain.ErrMissingIdentity)
}

func TestUpdate_ConcurrentSameKey(t *testing.T) {
	ctx := context.Background()
	updater, store := newUpdater(t, cas.NewMemoryStore())

	const n = 25
	batches := make([][]domain.Record, n)
	for i := range batches {
		name := fmt.Sprintf("pkg%02d", i)
		batches[i] = []domain.Record{record(t, name, "1", "main/"+name+".deb")}
	}

	var wg sync.WaitGroup
	for _, batch := range batches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := updater.Update(ctx, testKey, batch)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got := identities(t, readAll(t, store, testKey))
	assert.Len(t, got, n)
	seen := make(map[string]bool, n)
	for _, id := range got {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestUpdate_FailedSwapLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()

	seed := cas.NewMemoryStore()
	require.NoError(t, index.NewStore(seed, t.TempDir()).Create(ctx, testKey, []domain.Record{
		record(t, "a", "1", "main/a.deb"),
	}))
	blob, err := seed.Value(ctx, testKey)
	require.NoError(t, err)
	original, err := io.ReadAll(blob.Body)
	require.NoError(t, err)
	require.NoError(t, blob.Body.Close())

	ctrl := gomock.NewController(t)
	storage := mocks.NewMockStorage(ctrl)
	storage.EXPECT().Exists(gomock.Any(), testKey).Return(true, nil)
	storage.EXPECT().Value(gomock.Any(), testKey).Return(&ports.Blob{
		Body: io.NopCloser(bytes.NewReader(original)),
		Size: int64(len(original)),
	}, nil)
	saveErr := errors.New("disk full")
	storage.EXPECT().Save(gomock.Any(), testKey, gomock.Any()).Return(saveErr)

	updater, _ := newUpdater(t, storage)
	_, err = updater.Update(ctx, testKey, []domain.Record{record(t, "a", "1", "main/a2.deb")})
	require.ErrorIs(t, err, saveErr)
}

func TestUpdate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	updater, _ := newUpdater(t, cas.NewMemoryStore())

	_, err := updater.Update(ctx, testKey, []domain.Record{record(t, "a", "1", "main/a.deb")})
	require.ErrorIs(t, err, context.Canceled)
}
