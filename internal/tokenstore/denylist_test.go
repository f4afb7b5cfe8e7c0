package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDenylist(t *testing.T) (*RedisDenylist, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDenylist(client), mr
}

func TestRevokeAndExpire(t *testing.T) {
	d, mr := newDenylist(t)
	ctx := context.Background()

	revoked, err := d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "abc", time.Now().Add(time.Hour)))
	revoked, err = d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = d.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokeExpiredTokenIsNoop(t *testing.T) {
	d, mr := newDenylist(t)
	require.NoError(t, d.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(keyPrefix+"old"))
}

func TestRevokeRequiresID(t *testing.T) {
	d, _ := newDenylist(t)
	assert.Error(t, d.Revoke(context.Background(), "", time.Now().Add(time.Hour)))
}

func TestRedisDown(t *testing.T) {
	d, mr := newDenylist(t)
	mr.Close()

	_, err := d.IsRevoked(context.Background(), "abc")
	assert.Error(t, err)
}
