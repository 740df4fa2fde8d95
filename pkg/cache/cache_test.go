package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewService(client), mr
}

func TestPublicIDOwner(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()

	_, err := svc.GetPublicIDOwner(ctx, "abcd")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, svc.SetPublicIDOwner(ctx, "abcd", "user-1"))
	uid, err := svc.GetPublicIDOwner(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
	assert.True(t, mr.Exists(PrefixPublicID+"abcd"))

	require.NoError(t, svc.SetPublicIDOwner(ctx, "efgh", "user-2"))
	require.NoError(t, svc.InvalidatePublicIDs(ctx))
	_, err = svc.GetPublicIDOwner(ctx, "efgh")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestProfileFlags(t *testing.T) {
	svc, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.SetProfileFlags(ctx, "u1", &ProfileFlags{IsAdmin: true}))
	flags, err := svc.GetProfileFlags(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, flags.IsAdmin)
	assert.False(t, flags.PassBlocked)

	require.NoError(t, svc.InvalidateProfile(ctx, "u1"))
	_, err = svc.GetProfileFlags(ctx, "u1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestNilClient(t *testing.T) {
	svc := NewService(nil)
	ctx := context.Background()

	assert.False(t, svc.IsAvailable())
	assert.NoError(t, svc.SetPublicIDOwner(ctx, "x", "y"))
	_, err := svc.GetPublicIDOwner(ctx, "x")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = svc.GetProfileFlags(ctx, "x")
	assert.ErrorIs(t, err, ErrMiss)
}
