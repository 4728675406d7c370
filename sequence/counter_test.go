package sequence

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(t *testing.T) map[string]func() Counter {
	t.Helper()
	return map[string]func() Counter{
		"memory": func() Counter { return NewMemory(1) },
		"sqlite": func() Counter {
			c, err := NewSQLite(filepath.Join(t.TempDir(), "seq.db"), 1)
			require.NoError(t, err)
			return c
		},
	}
}

func TestCounterCommitAndRelease(t *testing.T) {
	for name, open := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := open()
			t.Cleanup(func() { _ = c.Close() })

			n, err := c.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			// A released reservation does not consume the number.
			r, err := c.Reserve(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, r.Number)
			r.Release()
			r.Release()
			assert.ErrorIs(t, r.Commit(), ErrReservationDone)

			n, err = c.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			r, err = c.Reserve(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, r.Number)
			require.NoError(t, r.Commit())
			r.Release() // no-op after commit
			assert.ErrorIs(t, r.Commit(), ErrReservationDone)

			n, err = c.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

func TestCounterConcurrentReservationsAreUnique(t *testing.T) {
	for name, open := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := open()
			t.Cleanup(func() { _ = c.Close() })

			const workers = 16
			var mu sync.Mutex
			var got []int
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					r, err := c.Reserve(ctx)
					if !assert.NoError(t, err) {
						return
					}
					defer r.Release()
					if i%4 == 0 {
						// Failed generation: give the number back.
						return
					}
					mu.Lock()
					got = append(got, r.Number)
					mu.Unlock()
					assert.NoError(t, r.Commit())
				}(i)
			}
			wg.Wait()

			sort.Ints(got)
			want := make([]int, 0, workers)
			for i := 1; i <= workers-workers/4; i++ {
				want = append(want, i)
			}
			assert.Equal(t, want, got)

			n, err := c.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, len(want)+1, n)
		})
	}
}

func TestReserveHonoursContext(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(5)

	held, err := c.Reserve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, held.Number)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = c.Reserve(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	held.Release()
	r, err := c.Reserve(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Number)
	r.Release()
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seq.db")

	c, err := NewSQLite(path, 10)
	require.NoError(t, err)
	r, err := c.Reserve(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, r.Number)
	require.NoError(t, r.Commit())
	require.NoError(t, c.Close())

	// The seed value is ignored once the sequence exists.
	c, err = NewSQLite(path, 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	n, err := c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, n)
}

func TestNewMemoryClampsStart(t *testing.T) {
	n, err := NewMemory(0).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
