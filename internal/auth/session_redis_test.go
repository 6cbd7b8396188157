package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "")
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Ping(ctx))

	sess := Session{Token: "tok-1", IsAdmin: true, ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)}
	require.NoError(t, s.Save(ctx, sess))

	got, ok, err := s.Get(ctx, "tok-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sess.Token, got.Token)
	assert.True(t, got.IsAdmin)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, s.Delete(ctx, "tok-1"))
	_, ok, err = s.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessionStoreKeyExpires(t *testing.T) {
	ctx := context.Background()
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "")
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Save(ctx, Session{Token: "tok-2", IsAdmin: true, ExpiresAt: time.Now().Add(time.Minute)}))
	assert.True(t, redis.Exists(redisSessionPrefix+"tok-2"))

	redis.FastForward(2 * time.Minute)
	_, ok, err := s.Get(ctx, "tok-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessionStoreSkipsAlreadyExpired(t *testing.T) {
	ctx := context.Background()
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "")
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Save(ctx, Session{Token: "tok-3", ExpiresAt: time.Now().Add(-time.Second)}))
	assert.False(t, redis.Exists(redisSessionPrefix+"tok-3"))
}

func TestRedisSessionStoreUnavailable(t *testing.T) {
	redis := miniredis.RunT(t)
	s := NewRedisSessionStore(redis.Addr(), "")
	t.Cleanup(func() { s.Close() })
	redis.Close()

	_, _, err := s.Get(context.Background(), "tok")
	assert.Error(t, err)
}
