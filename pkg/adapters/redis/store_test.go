package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/wizvis/pkg/adapters/redis"
	"github.com/aretw0/wizvis/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRecentStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunRecentStoreContract(t, redis.NewFromClient(client))
}

func TestRecentStore_Prefix(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []string{"b.scxml", "a.scxml"}))
	require.NoError(t, store.Ping(ctx))

	got, err := mr.List("test:recent")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.scxml", "a.scxml"}, got)
	assert.False(t, mr.Exists("wizvis:recent"))
}

func TestRecentStore_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	store := redis.New(addr, "", 0)
	defer store.Close()

	_, err = store.Load(context.Background())
	assert.Error(t, err)
	assert.Error(t, store.Save(context.Background(), []string{"a"}))
}
