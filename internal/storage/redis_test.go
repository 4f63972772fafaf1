package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client)
}

func TestRedisStore_SetGet(t *testing.T) {
	store := setupTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeyActiveTasks, `[{"id":"a"}]`))

	value, err := store.Get(ctx, KeyActiveTasks)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, value)
}

func TestRedisStore_GetMissingKey(t *testing.T) {
	store := setupTestRedisStore(t)

	_, err := store.Get(context.Background(), "never-written")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStore_Overwrite(t *testing.T) {
	store := setupTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, KeySortCriterion, "urgency"))
	require.NoError(t, store.Set(ctx, KeySortCriterion, "importance"))

	value, err := store.Get(ctx, KeySortCriterion)
	require.NoError(t, err)
	assert.Equal(t, "importance", value)
}
