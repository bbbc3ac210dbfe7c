package lock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/debrepo/internal/engine/lock"
)

func TestStriped_SerializesSameKey(t *testing.T) {
	l := lock.New()
	counter := 0
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), "dists/artipie/main/binary-amd64/Packages.gz", func(context.Context) error {
				current := counter
				counter = current + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestStriped_CanceledContextSkipsWork(t *testing.T) {
	l := lock.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := l.Do(ctx, "key", func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStriped_SingleStripe(t *testing.T) {
	l := lock.NewWithStripes(0)
	unlock := l.Lock("a")
	unlock()
	unlock = l.Lock("b")
	unlock()
}
