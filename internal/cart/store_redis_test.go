package cart

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisStoreForTest connects to a local Redis and skips the test when none
// is running.
func redisStoreForTest(t *testing.T) *RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewRedisStore(client, log)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := redisStoreForTest(t)
	ctx := context.Background()
	sessionID := "test-session-" + t.Name()
	t.Cleanup(func() { store.Delete(ctx, sessionID) })

	c, err := store.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	c.Add("p1", decimal.RequireFromString("1299.50"), 2, false)
	require.NoError(t, store.Save(ctx, sessionID, c))

	loaded, err := store.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Quantity("p1"))
	assert.True(t, loaded.Items["p1"].Price.Equal(decimal.RequireFromString("1299.50")))

	require.NoError(t, store.Delete(ctx, sessionID))
	cleared, err := store.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Len())
}

func TestRedisStoreCorruptDocumentResets(t *testing.T) {
	store := redisStoreForTest(t)
	ctx := context.Background()
	sessionID := "test-corrupt-" + t.Name()
	t.Cleanup(func() { store.Delete(ctx, sessionID) })

	require.NoError(t, store.client.Set(ctx, redisKeyPrefix+sessionID, "not json", time.Minute).Err())

	c, err := store.Get(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}
