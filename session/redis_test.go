package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisStore(t *testing.T) {
	_, client := newTestRedis(t)
	s, err := NewStore(StoreTypeRedis, WithRedisClient(client), WithRedisTTL(time.Hour))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	storeContract(t, s)
}

func TestRedisStoreKeysAndTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	s := NewRedisStore(client, time.Minute, "test:")
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Create(ctx, New("99")))
	assert.True(t, mr.Exists("test:99"))
	assert.Equal(t, time.Minute, mr.TTL("test:99"))

	mr.FastForward(2 * time.Minute)
	got, err := s.Get(ctx, "99")
	require.NoError(t, err)
	assert.Nil(t, got)
}
