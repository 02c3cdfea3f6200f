package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(MinHashCost, 2)
	ctx := context.Background()

	digest, err := h.Hash(ctx, "password123")
	require.NoError(t, err)
	require.NotEqual(t, "password123", digest)

	require.True(t, h.Verify(ctx, "password123", digest))
	require.False(t, h.Verify(ctx, "password124", digest))
	require.False(t, h.Verify(ctx, "password123", "not-a-bcrypt-digest"))
}

func TestHasherDigestsAreSalted(t *testing.T) {
	h := NewHasher(MinHashCost, 2)
	ctx := context.Background()

	first, err := h.Hash(ctx, "password123")
	require.NoError(t, err)
	second, err := h.Hash(ctx, "password123")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestHasherClampsCost(t *testing.T) {
	require.Equal(t, MinHashCost, NewHasher(1, 1).Cost())
	require.Equal(t, MaxHashCost, NewHasher(31, 1).Cost())
	require.Equal(t, DefaultHashCost, NewHasher(DefaultHashCost, 1).Cost())
}

func TestHasherHonoursContextCancellation(t *testing.T) {
	h := NewHasher(MinHashCost, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "password123")
	require.Error(t, err)
	require.False(t, h.Verify(ctx, "password123", "whatever"))
}
