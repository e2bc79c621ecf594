package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techninja/techninja/pkg/adapters/redis"
	"github.com/techninja/techninja/pkg/domain"
	"github.com/techninja/techninja/pkg/ports"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunSnapshotStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }

	store := redis.NewFromClient(client, redis.WithTTL(time.Second), redis.WithClock(clock))
	ctx := context.Background()
	key := "session-ttl"

	err := store.Save(ctx, key, domain.NewSnapshot(domain.TraversalState{MachineID: "m1"}, now))
	require.NoError(t, err)

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	mr.FastForward(2 * time.Second)
	now = now.Add(2 * time.Second)

	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	err := store.Save(ctx, domain.DefaultSessionKey, domain.NewSnapshot(domain.TraversalState{}, time.Now()))
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:"+domain.DefaultSessionKey), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, domain.DefaultSessionKey)
}

func TestRedisStore_MalformedPayload(t *testing.T) {
	mr, client := newClient(t)
	require.NoError(t, mr.Set(redis.DefaultPrefix+"broken", "not-json"))

	store := redis.NewFromClient(client)
	_, err := store.Load(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestNew_URL(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := redis.New("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))

	_, err = redis.New("::not a url")
	assert.Error(t, err)
}
