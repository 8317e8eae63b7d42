package qtable

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/qlearn"
)

// tableContract exercises behavior every backend must share.
func tableContract(t *testing.T, tbl qlearn.Table) {
	ctx := context.Background()

	t.Run("unseen cells read zero", func(t *testing.T) {
		v, err := tbl.Get(ctx, 123, 4)
		require.NoError(t, err)
		assert.Equal(t, 0.0, v)
	})

	t.Run("td update", func(t *testing.T) {
		require.NoError(t, tbl.Load(ctx, []qlearn.Entry{{State: 900, Action: 1, Value: 2.0}}))
		v, err := tbl.Update(ctx, qlearn.TDUpdate{
			State: 800, Action: 3, Reward: 1, Next: 900,
			Alpha: 0.5, Gamma: 0.5, Actions: 20,
		})
		require.NoError(t, err)
		// 0 + 0.5 * (1 + 0.5*2 - 0)
		assert.InDelta(t, 1.0, v, 1e-12)

		got, err := tbl.Get(ctx, 800, 3)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-12)
	})

	t.Run("implicit zeros beat negative stored values", func(t *testing.T) {
		require.NoError(t, tbl.Load(ctx, []qlearn.Entry{{State: 701, Action: 0, Value: -4}}))
		v, err := tbl.Update(ctx, qlearn.TDUpdate{
			State: 700, Action: 0, Reward: 0, Next: 701,
			Alpha: 1, Gamma: 0.9, Actions: 20,
		})
		require.NoError(t, err)
		assert.InDelta(t, 0.0, v, 1e-12)
	})

	t.Run("full row uses stored max", func(t *testing.T) {
		require.NoError(t, tbl.Load(ctx, []qlearn.Entry{
			{State: 601, Action: 0, Value: -4},
			{State: 601, Action: 1, Value: -2},
		}))
		v, err := tbl.Update(ctx, qlearn.TDUpdate{
			State: 600, Action: 0, Reward: 0, Next: 601,
			Alpha: 1, Gamma: 0.5, Actions: 2,
		})
		require.NoError(t, err)
		assert.InDelta(t, -1.0, v, 1e-12)
	})

	t.Run("entries are sorted", func(t *testing.T) {
		es, err := tbl.Entries(ctx)
		require.NoError(t, err)
		for i := 1; i < len(es); i++ {
			prev, cur := es[i-1], es[i]
			assert.True(t, prev.State < cur.State || (prev.State == cur.State && prev.Action < cur.Action))
		}
	})
}

func TestMemory_Contract(t *testing.T) {
	tableContract(t, NewMemory(4))
}

func TestMemory_ConcurrentUpdatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	for _, shards := range []int{1, 8} {
		m := NewMemory(shards)
		const workers, perWorker = 16, 250

		// With alpha=1, gamma=1 and a one-action self loop, each update adds
		// the reward to the cell, so any lost update shows up in the total.
		u := qlearn.TDUpdate{State: 42, Action: 0, Reward: 1, Next: 42, Alpha: 1, Gamma: 1, Actions: 1}

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					_, err := m.Update(ctx, u)
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		v, err := m.Get(ctx, 42, 0)
		require.NoError(t, err)
		assert.Equal(t, float64(workers*perWorker), v, "shards=%d", shards)
	}
}

func TestMemory_CrossShardUpdates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, err := m.Update(ctx, qlearn.TDUpdate{
					State: int64(w % 2), Action: 1, Reward: 0.5, Next: int64((w + 1) % 2),
					Alpha: 0.1, Gamma: 0.9, Actions: 20,
				})
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	es, err := m.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, es, 2)
}

func TestMemory_LoadEntriesClose(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0)
	want := []qlearn.Entry{
		{State: 1, Action: 0, Value: 0.25},
		{State: 1, Action: 5, Value: -0.5},
		{State: 77, Action: 2, Value: 3},
	}
	require.NoError(t, m.Load(ctx, []qlearn.Entry{want[2], want[0], want[1]}))

	got, err := m.Entries(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, m.Close())
	got, err = m.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func tdSelfLoop() qlearn.TDUpdate {
	return qlearn.TDUpdate{State: 5, Action: 0, Reward: 1, Next: 5, Alpha: 1, Gamma: 1, Actions: 1}
}
