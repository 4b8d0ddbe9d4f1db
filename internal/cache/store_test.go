package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewStore(rdb)
}

func TestStore_Aside(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()
	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{ID: 1, Name: "bread"}
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, store.Aside(ctx, PostKey(1), &first, time.Minute, fetch(&first)))
	assert.Equal(t, "bread", first.Name)
	assert.True(t, mr.Exists("post:1"))

	var second cachedThing
	require.NoError(t, store.Aside(ctx, PostKey(1), &second, time.Minute, fetch(&second)))
	assert.Equal(t, "bread", second.Name)
	assert.Equal(t, 1, calls, "second read must be served from cache")

	store.Invalidate(ctx, PostKey(1))
	assert.False(t, mr.Exists("post:1"))
}

func TestStore_AsidePropagatesFetchError(t *testing.T) {
	_, store := newTestStore(t)
	boom := errors.New("boom")

	var dest cachedThing
	err := store.Aside(context.Background(), "k", &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStore_NilClientIsAlwaysAMiss(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	assert.False(t, store.Enabled())

	calls := 0
	var dest int64
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Aside(ctx, UnreadNotificationsKey(1), &dest, time.Minute, func() error {
			calls++
			dest = 3
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(3), dest)
	store.Invalidate(ctx, "anything")
}

func TestStore_RedisDownFallsBackToFetch(t *testing.T) {
	mr, store := newTestStore(t)
	mr.Close()

	var dest cachedThing
	err := store.Aside(context.Background(), PostKey(2), &dest, time.Minute, func() error {
		dest = cachedThing{ID: 2}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(2), dest.ID)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "post:7", PostKey(7))
	assert.Equal(t, "notifications:unread:3", UnreadNotificationsKey(3))
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := InitRedis(mr.Addr())
	require.NotNil(t, rdb)
	assert.Same(t, rdb, GetClient())
	_ = rdb.Close()

	assert.Nil(t, InitRedis(""))
	assert.Nil(t, GetClient())
	assert.Nil(t, InitRedis("redis://%zz"))
}
