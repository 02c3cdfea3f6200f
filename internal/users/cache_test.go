package users

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, ttl), server
}

func TestCacheStoresSanitizedCopy(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	resetToken := "reset-token"
	user := &User{
		ID:                 "9b2a7f46-1c3d-4e5f-8a9b-0c1d2e3f4a5b",
		Email:              "cached@example.com",
		PasswordHash:       "digest",
		PasswordResetToken: &resetToken,
		IsActive:           true,
		Preferences:        Document{},
		Metadata:           Document{},
	}
	cache.Set(ctx, user)

	got, ok := cache.Get(ctx, user.ID)
	require.True(t, ok)
	require.Equal(t, user.Email, got.Email)
	require.Empty(t, got.PasswordHash)
	require.Nil(t, got.PasswordResetToken)
}

func TestCacheMissAndInvalidate(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "missing")
	require.False(t, ok)

	user := &User{ID: "u1", Email: "gone@example.com"}
	cache.Set(ctx, user)
	cache.Invalidate(ctx, user.ID)

	_, ok = cache.Get(ctx, user.ID)
	require.False(t, ok)
}

func TestCacheEntriesExpire(t *testing.T) {
	cache, server := newTestCache(t, time.Second)
	ctx := context.Background()

	user := &User{ID: "u1", Email: "ttl@example.com"}
	cache.Set(ctx, user)

	server.FastForward(2 * time.Second)

	_, ok := cache.Get(ctx, user.ID)
	require.False(t, ok)
}

func TestCacheNilReceiverIsSafe(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	_, ok := cache.Get(ctx, "u1")
	require.False(t, ok)
	cache.Set(ctx, &User{ID: "u1"})
	cache.Invalidate(ctx, "u1")
}
