package qtable

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to ADAPTIQ_TEST_REDIS_ADDR or skips.
func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("ADAPTIQ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ADAPTIQ_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis unavailable: %v", err)
	}
	r := NewRedisFromClient(rdb, "adaptiq-test-"+uuid.NewString())
	t.Cleanup(func() {
		_ = r.Clear(ctx)
		_ = rdb.Close()
	})
	return r
}

func TestRedis_Contract(t *testing.T) {
	tableContract(t, newTestRedis(t))
}

func TestRedis_EntriesRoundTrip(t *testing.T) {
	r := newTestRedis(t)
	ctx := context.Background()

	u := tdSelfLoop()
	for i := 0; i < 10; i++ {
		_, err := r.Update(ctx, u)
		require.NoError(t, err)
	}
	es, err := r.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, es, 1)
	require.Equal(t, 10.0, es[0].Value)
}
